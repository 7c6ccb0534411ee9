package buildings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	table := NewTable(map[string]string{
		"BOBS": "Bobst Library, 70 Washington Square South",
		"SILV": "Silver Center, 100 Washington Square East",
		"CIWW": "Warren Weaver Hall, 251 Mercer Street",
	})

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "known token", raw: "BOBS", want: "Bobst Library, 70 Washington Square South"},
		{name: "another known token", raw: "CIWW", want: "Warren Weaver Hall, 251 Mercer Street"},
		{name: "unknown token passes through", raw: "Kimmel Center", want: "Kimmel Center"},
		{name: "empty token passes through", raw: "", want: ""},
		{name: "lookup is case sensitive", raw: "bobs", want: "bobs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Normalize(tt.raw))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	table := NewTable(map[string]string{
		"BOBS":     "Bobst",
		"Bobst":    "Bobst Library",
		"A":        "B",
		"B":        "A",
		"SILV":     "Silver Center",
		"Unmapped": "Unmapped",
	})

	inputs := []string{"BOBS", "Bobst", "Bobst Library", "A", "B", "SILV", "Silver Center", "Unmapped", "Elsewhere"}
	for _, in := range inputs {
		once := table.Normalize(in)
		assert.Equal(t, once, table.Normalize(once), "input %q", in)
	}
	assert.Equal(t, "Bobst Library", table.Normalize("BOBS"))
}

func TestNilTablePassesThrough(t *testing.T) {
	var table *Table
	assert.Equal(t, "BOBS", table.Normalize("BOBS"))
	assert.Equal(t, 0, table.Len())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "locations.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"BOBS": "Bobst Library", "SILV": "Silver Center"}`), 0o644))

		table, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())
		assert.Equal(t, "Silver Center", table.Normalize("SILV"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}
