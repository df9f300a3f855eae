package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/inputwire/internal/journal"
	"github.com/mithrel/inputwire/pkg/transport"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestBenchCommand(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	t.Run("key events", func(t *testing.T) {
		out := runCLI(t, "bench", "--events", "500")
		assert.Contains(t, out, "500 key events")
	})

	t.Run("motion events", func(t *testing.T) {
		out := runCLI(t, "bench", "--events", "200", "--motion", "--pointers", "3")
		assert.Contains(t, out, "200 motion(3p) events")
	})
}

func TestReplayCommand(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)

	journalPath := filepath.Join(dataDir, "inputwire", "journal.db")
	store, err := journal.Open(context.Background(), journalPath)
	require.NoError(t, err)
	msg := transport.Message{
		Kind: transport.KindKey,
		Key:  transport.KeyBody{DeviceID: 1, KeyCode: 29},
	}
	require.NoError(t, store.Append(context.Background(), &msg, true))
	require.NoError(t, store.Close())

	out := runCLI(t, "replay")
	assert.Contains(t, out, "key code=29")
	assert.Contains(t, out, "replayed 1 events (1 originally handled)")
}

func TestReplayEmptyJournal(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	out := runCLI(t, "replay")
	assert.Contains(t, out, "journal is empty")
}
