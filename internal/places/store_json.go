package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/room-vacancy/backend/internal/jsonfile"
	"github.com/room-vacancy/backend/internal/storage/models"
)

// JSONStore keeps the success and failure caches as two JSON object files.
// Save rewrites both files whole.
type JSONStore struct {
	placesPath   string
	failuresPath string
}

// NewJSONStore returns a store backed by the two given files.
func NewJSONStore(placesPath, failuresPath string) *JSONStore {
	return &JSONStore{placesPath: placesPath, failuresPath: failuresPath}
}

// Load reads both files. Missing files yield empty caches.
func (s *JSONStore) Load(_ context.Context) (Snapshot, error) {
	snap := Snapshot{
		Places:   make(map[string]models.PlaceRecord),
		Failures: make(map[string]string),
	}
	if err := readJSON(s.placesPath, &snap.Places); err != nil {
		return Snapshot{}, err
	}
	if err := readJSON(s.failuresPath, &snap.Failures); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Save writes both files.
func (s *JSONStore) Save(_ context.Context, snap Snapshot) error {
	if err := jsonfile.Write(s.placesPath, snap.Places); err != nil {
		return err
	}
	return jsonfile.Write(s.failuresPath, snap.Failures)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
