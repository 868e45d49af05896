// Package corpus provides corpus loading adapters.
// Clean Architecture: Adapter implementing ports.CorpusLoader.
package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/skydesk/policyrag-go/internal/domain/entities"
	"github.com/skydesk/policyrag-go/internal/domain/ports"
)

// JSONLLoader reads policy records from a JSONL file - one
// {section, question, answer} object per line. Blank lines are skipped,
// as are records missing a question or answer.
type JSONLLoader struct{}

// NewJSONLLoader creates a JSONL corpus loader.
func NewJSONLLoader() *JSONLLoader {
	return &JSONLLoader{}
}

// Load reads and parses the corpus file.
func (l *JSONLLoader) Load(ctx context.Context, path string) ([]entities.PolicyRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer file.Close()

	var records []entities.PolicyRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record entities.PolicyRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("parsing corpus line %d: %w", lineNo, err)
		}
		if record.Question == "" || record.Answer == "" {
			continue
		}
		if record.Section == "" {
			record.Section = "Unknown"
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	return records, nil
}

var _ ports.CorpusLoader = (*JSONLLoader)(nil)
