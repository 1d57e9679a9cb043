package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr); SetLevel("info") })

	SetLevel("info")
	L.Debug("hidden")
	require.Zero(t, buf.Len())

	SetLevel("DEBUG")
	L.Debug("shown", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "shown", rec["msg"])
	require.Equal(t, "v", rec["k"])
}

func TestOpenFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "jeebot.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close(); SetOutput(os.Stderr) })

	L.Warn("written")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"written"`)
}
