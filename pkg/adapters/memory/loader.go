package memory

import (
	"fmt"
	"sort"

	"github.com/aretw0/arbor/pkg/ports"
)

// Loader implements ports.SourceLoader using an in-memory map.
type Loader struct {
	files map[string][]byte
}

// NewLoader creates a new Loader with the provided sources keyed by file name.
func NewLoader(data map[string]string) *Loader {
	files := make(map[string][]byte, len(data))
	for k, v := range data {
		files[k] = []byte(v)
	}
	return &Loader{
		files: files,
	}
}

// Read returns the content of a file.
func (l *Loader) Read(file string) ([]byte, error) {
	content, ok := l.files[file]
	if !ok {
		return nil, fmt.Errorf("%s: %w", file, ports.ErrSourceNotFound)
	}
	return content, nil
}

// List returns all available file names.
func (l *Loader) List() ([]string, error) {
	keys := make([]string, 0, len(l.files))
	for k := range l.files {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
