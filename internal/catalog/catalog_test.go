package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeepsCoursesRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2021fa.json")
	content := `[
		{"name": "Intro to CS", "sections": []},
		{"name": "Broken", "sections": "nope"},
		42
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	courses, err := Load(path)
	require.NoError(t, err)
	require.Len(t, courses, 3)
	assert.JSONEq(t, `{"name": "Broken", "sections": "nope"}`, string(courses[1]))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	notArray := filepath.Join(dir, "object.json")
	require.NoError(t, os.WriteFile(notArray, []byte(`{"a": 1}`), 0o644))
	_, err = Load(notArray)
	assert.Error(t, err)
}

func TestValidateSemester(t *testing.T) {
	for _, sem := range []string{"fa", "su", "sp", "ja"} {
		assert.NoError(t, ValidateSemester(sem))
	}
	assert.ErrorIs(t, ValidateSemester("wi"), ErrUnknownSemester)
	assert.ErrorIs(t, ValidateSemester("FA"), ErrUnknownSemester)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "2021fa.json", FileName(2021, "fa", nil))
	assert.Equal(t, "2022sp-UA_GY.json", FileName(2022, "sp", []string{"UA", "GY"}))
	assert.Equal(t, filepath.Join("data", "2021fa-UA.json"), Path("data", 2021, "fa", []string{"UA"}))
}
