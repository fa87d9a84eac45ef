package logger_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robalyx/warden/internal/setup/telemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRotatorKeepsNewestLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	r, err := logger.NewRotator(path, 3)
	require.NoError(t, err)
	defer r.Close()

	for i := range 6 {
		_, err := fmt.Fprintf(r, "line %d\n", i)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"line 3", "line 4", "line 5"}, readLines(t, path))

	_, err = r.Write([]byte("line 6\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"line 3", "line 4", "line 5", "line 6"}, readLines(t, path))
}

func TestRotatorUnlimited(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	r, err := logger.NewRotator(path, 0)
	require.NoError(t, err)
	defer r.Close()

	for i := range 10 {
		_, err := fmt.Fprintf(r, "line %d\n", i)
		require.NoError(t, err)
	}

	assert.Len(t, readLines(t, path), 10)
}
