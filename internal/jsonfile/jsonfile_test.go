package jsonfile

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFormatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "Vacancy-2021fa.json")

	require.NoError(t, Write(path, map[string]any{"name": "Kimmel <Center> & Co"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"Kimmel <Center> & Co\"\n}\n", string(data))

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestReadMissingFile(t *testing.T) {
	var v map[string]string
	err := Read(filepath.Join(t.TempDir(), "missing.json"), &v)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	in := map[string]string{"SILV": "Silver Center", "Bobst": "Bobst Library"}
	require.NoError(t, Write(path, in))

	var out map[string]string
	require.NoError(t, Read(path, &out))
	assert.Equal(t, in, out)
}
