package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Blackboard implements ports.Blackboard as a single JSON document on the
// local filesystem. Every Put rewrites the document atomically, so a
// blackboard survives between CLI runs.
type Blackboard struct {
	Path string
	mu   sync.Mutex
}

// NewBlackboard creates a file blackboard.
// If path is empty, it defaults to ".arbor/blackboard.json".
func NewBlackboard(path string) *Blackboard {
	if path == "" {
		path = filepath.Join(".arbor", "blackboard.json")
	}
	return &Blackboard{Path: path}
}

func (b *Blackboard) load() (map[string]any, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("failed to read blackboard file: %w", err)
	}
	v, err := domain.DecodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode blackboard file: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("blackboard file %s does not hold an object", b.Path)
	}
	return m, nil
}

// save writes the document to a temporary file, syncs it and renames it
// over the destination.
func (b *Blackboard) save(m map[string]any) error {
	data, err := domain.EncodeValue(m)
	if err != nil {
		return fmt.Errorf("failed to encode blackboard: %w", err)
	}

	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure blackboard directory: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-blackboard-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(b.Path); err == nil {
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("failed to remove existing blackboard file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, b.Path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Get reads the value under key.
func (b *Blackboard) Get(ctx context.Context, key string) (any, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Put stores v under key and persists the document.
func (b *Blackboard) Put(ctx context.Context, key string, v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.load()
	if err != nil {
		return err
	}
	m[key] = v
	return b.save(m)
}

// Delete removes key and persists the document.
func (b *Blackboard) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.load()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return b.save(m)
}

// Snapshot returns the whole document.
func (b *Blackboard) Snapshot(ctx context.Context) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load()
}
