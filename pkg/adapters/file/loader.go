package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/arbor/pkg/ports"
)

// Loader implements ports.SourceLoader over a project directory.
// File names are slash separated and relative to the directory.
type Loader struct {
	Dir string
}

// NewLoader creates a loader rooted at dir. An empty dir means the
// working directory.
func NewLoader(dir string) *Loader {
	if dir == "" {
		dir = "."
	}
	return &Loader{Dir: dir}
}

func (l *Loader) path(file string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(file))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file %q escapes the project directory", file)
	}
	return filepath.Join(l.Dir, clean), nil
}

// Read returns the content of a source file.
func (l *Loader) Read(file string) ([]byte, error) {
	p, err := l.path(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", file, ports.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}

// List walks the directory for .yaml and .yml files, skipping hidden
// directories and the project configuration file.
func (l *Loader) List() ([]string, error) {
	var files []string
	err := filepath.WalkDir(l.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != l.Dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		rel, err := filepath.Rel(l.Dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ConfigFile {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// ConfigFile is the project configuration file name, excluded from List.
const ConfigFile = "arbor.yaml"
