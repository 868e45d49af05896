package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skydesk/policyrag-go/internal/domain/entities"
	"github.com/skydesk/policyrag-go/internal/domain/ports"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Snapshot directory layout. Embeddings live in SQLite keyed by sequential
// position (the flat index has no structure beyond the matrix itself),
// metadata and the manifest are JSON. Load cross-checks all three counts.
const (
	vectorsFile  = "vectors.db"
	metadataFile = "metadata.json"
	manifestFile = "manifest.json"
)

type manifest struct {
	Count     int    `json:"count"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
}

type metadataRecord struct {
	Section  string `json:"section"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FlatStore implements ports.IndexStore for FlatIndex snapshots.
type FlatStore struct{}

// NewFlatStore creates the flat index store.
func NewFlatStore() *FlatStore {
	return &FlatStore{}
}

// Build constructs a FlatIndex over the given entries.
func (s *FlatStore) Build(ctx context.Context, entries []entities.PolicyEntry) (ports.VectorIndex, error) {
	return NewFlatIndex(entries)
}

// Persist writes the index snapshot into dir, creating it if needed.
func (s *FlatStore) Persist(ctx context.Context, index ports.VectorIndex, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	if err := s.persistVectors(ctx, index, filepath.Join(dir, vectorsFile)); err != nil {
		return err
	}

	records := make([]metadataRecord, index.Count())
	for i := range records {
		entry, _ := index.Entry(i)
		records[i] = metadataRecord{Section: entry.Section, Question: entry.Question, Answer: entry.Answer}
	}
	if err := writeJSON(filepath.Join(dir, metadataFile), records); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	m := manifest{Count: index.Count(), Dimension: index.Dimension(), Metric: "l2"}
	if err := writeJSON(filepath.Join(dir, manifestFile), m); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	return nil
}

func (s *FlatStore) persistVectors(ctx context.Context, index ports.VectorIndex, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening vectors database: %w", err)
	}
	defer db.Close()

	schema := `
	DROP TABLE IF EXISTS embeddings;
	CREATE TABLE embeddings (
		position INTEGER PRIMARY KEY,
		vector BLOB NOT NULL
	);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO embeddings (position, vector) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < index.Count(); i++ {
		entry, _ := index.Entry(i)
		vectorJSON, err := json.Marshal(entry.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, i, vectorJSON); err != nil {
			return fmt.Errorf("inserting embedding %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Load reads a snapshot from dir and rebuilds the index.
// Returns entities.ErrIndexNotFound when no snapshot exists, or
// entities.ErrIndexCorrupt when the files disagree with each other.
func (s *FlatStore) Load(ctx context.Context, dir string) (ports.VectorIndex, error) {
	for _, name := range []string{vectorsFile, metadataFile, manifestFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%s missing in %s: %w", name, dir, entities.ErrIndexNotFound)
			}
			return nil, err
		}
	}

	var m manifest
	if err := readJSON(filepath.Join(dir, manifestFile), &m); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", errors.Join(entities.ErrIndexCorrupt, err))
	}

	var records []metadataRecord
	if err := readJSON(filepath.Join(dir, metadataFile), &records); err != nil {
		return nil, fmt.Errorf("reading metadata: %w", errors.Join(entities.ErrIndexCorrupt, err))
	}

	vectors, err := s.loadVectors(ctx, filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, err
	}

	if len(records) != len(vectors) || len(records) != m.Count {
		return nil, fmt.Errorf("snapshot counts disagree: %d metadata, %d embeddings, manifest says %d: %w",
			len(records), len(vectors), m.Count, entities.ErrIndexCorrupt)
	}

	entries := make([]entities.PolicyEntry, len(records))
	for i, r := range records {
		entries[i] = entities.PolicyEntry{
			ID:        i,
			Section:   r.Section,
			Question:  r.Question,
			Answer:    r.Answer,
			Embedding: vectors[i],
		}
	}

	idx, err := NewFlatIndex(entries)
	if err != nil {
		return nil, errors.Join(entities.ErrIndexCorrupt, err)
	}
	return idx, nil
}

func (s *FlatStore) loadVectors(ctx context.Context, path string) ([][]float32, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening vectors database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT position, vector FROM embeddings ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", errors.Join(entities.ErrIndexCorrupt, err))
	}
	defer rows.Close()

	var vectors [][]float32
	for rows.Next() {
		var position int
		var vectorJSON []byte
		if err := rows.Scan(&position, &vectorJSON); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		if position != len(vectors) {
			return nil, fmt.Errorf("embedding positions not sequential at %d: %w", position, entities.ErrIndexCorrupt)
		}
		var vector []float32
		if err := json.Unmarshal(vectorJSON, &vector); err != nil {
			return nil, fmt.Errorf("decoding embedding %d: %w", position, errors.Join(entities.ErrIndexCorrupt, err))
		}
		vectors = append(vectors, vector)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

var _ ports.IndexStore = (*FlatStore)(nil)
