package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skydesk/policyrag-go/internal/domain/ports"
)

func TestFSNotifyWatcher_Creation(t *testing.T) {
	w, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer w.Stop()
}

func TestFSNotifyWatcher_EmitsOnCorpusWrite(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "policies.jsonl")
	require.NoError(t, os.WriteFile(corpusPath, []byte("{}\n"), 0644))

	w, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, corpusPath)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(corpusPath, []byte(`{"question":"q","answer":"a"}`+"\n"), 0644)
	}()

	select {
	case event, ok := <-events:
		require.True(t, ok, "events channel closed before an event arrived")
		assert.Equal(t, corpusPath, event.Path)
		assert.Contains(t, []ports.FileOperation{ports.FileCreated, ports.FileModified}, event.Operation)
	case <-ctx.Done():
		t.Fatal("timed out waiting for corpus event")
	}
}

func TestFSNotifyWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "policies.jsonl")
	require.NoError(t, os.WriteFile(corpusPath, []byte("{}\n"), 0644))

	w, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Watch(ctx, corpusPath)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644))

	select {
	case event := <-events:
		t.Fatalf("unexpected event for unrelated file: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}
