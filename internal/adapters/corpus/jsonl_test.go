package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestJSONLLoader_Load(t *testing.T) {
	path := writeCorpus(t, `{"section":"Pet Travel","question":"Can I bring my cat?","answer":"Yes, in an approved carrier."}

{"section":"Baggage","question":"How many bags?","answer":"One checked bag."}
`)

	records, err := NewJSONLLoader().Load(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Pet Travel", records[0].Section)
	assert.Equal(t, "Can I bring my cat?", records[0].Question)
	assert.Equal(t, "One checked bag.", records[1].Answer)
}

func TestJSONLLoader_SkipsIncompleteRecords(t *testing.T) {
	path := writeCorpus(t, `{"section":"A","question":"only question"}
{"section":"B","answer":"only answer"}
{"section":"C","question":"q","answer":"a"}
`)

	records, err := NewJSONLLoader().Load(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "C", records[0].Section)
}

func TestJSONLLoader_DefaultsSection(t *testing.T) {
	path := writeCorpus(t, `{"question":"q","answer":"a"}
`)

	records, err := NewJSONLLoader().Load(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Unknown", records[0].Section)
}

func TestJSONLLoader_MalformedLine(t *testing.T) {
	path := writeCorpus(t, `{"question":"q","answer":"a"}
not json at all
`)

	_, err := NewJSONLLoader().Load(context.Background(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestJSONLLoader_MissingFile(t *testing.T) {
	_, err := NewJSONLLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestJSONLLoader_EmptyFile(t *testing.T) {
	path := writeCorpus(t, "")

	records, err := NewJSONLLoader().Load(context.Background(), path)

	require.NoError(t, err)
	assert.Empty(t, records)
}
