package views

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewCSVWriter(path, 0, []string{"a", "b"})
	require.NoError(t, err)

	w.WriteRow([]string{"1", "x"})
	w.WriteRow([]string{"2", "y"})
	require.NoError(t, w.Close())

	assert.Equal(t, uint64(2), w.Rows())
	assert.Equal(t, path, w.Path())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"2", "y"}, rows[2])
}

func TestCSVWriterCreateFailure(t *testing.T) {
	_, err := NewCSVWriter(filepath.Join(t.TempDir(), "missing", "out.csv"), 0, nil)
	require.Error(t, err)
}
