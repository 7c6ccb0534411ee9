// Package buildings maps raw building tokens from catalog location strings to
// canonical building names.
package buildings

import (
	"encoding/json"
	"fmt"
	"os"
)

// Table is a read-only lookup from raw building token to canonical name.
// A nil *Table normalizes every token to itself.
type Table struct {
	names map[string]string
}

// NewTable builds a table from raw -> canonical pairs. Chains where a
// canonical name is itself a key are followed to their end so that
// Normalize is idempotent; a cycle keeps the first name reached twice.
func NewTable(pairs map[string]string) *Table {
	names := make(map[string]string, len(pairs))
	for raw := range pairs {
		names[raw] = resolveChain(pairs, raw)
	}
	return &Table{names: names}
}

func resolveChain(pairs map[string]string, raw string) string {
	seen := map[string]bool{raw: true}
	current := pairs[raw]
	for {
		next, ok := pairs[current]
		if !ok || seen[current] {
			return current
		}
		seen[current] = true
		current = next
	}
}

// Load reads a JSON object of raw -> canonical names from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading building table: %w", err)
	}

	var pairs map[string]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("decoding building table %s: %w", path, err)
	}

	return NewTable(pairs), nil
}

// Normalize returns the canonical name for raw, or raw itself when the table
// has no entry. A missing entry is not an error.
func (t *Table) Normalize(raw string) string {
	if t == nil {
		return raw
	}
	if canonical, ok := t.names[raw]; ok {
		return canonical
	}
	return raw
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}
