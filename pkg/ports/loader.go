package ports

import "errors"

// ErrSourceNotFound is returned by loaders when a file does not exist.
var ErrSourceNotFound = errors.New("source not found")

// SourceLoader defines how the compiler retrieves source files.
// This allows the storage layer (file system, memory) to be decoupled.
type SourceLoader interface {
	// Read returns the raw content of a source file, addressed by its
	// project-relative name. Missing files return ErrSourceNotFound.
	Read(file string) ([]byte, error)

	// List returns the names of all source files the loader can see.
	// This is used by tooling such as 'arbor validate'.
	List() ([]string, error)
}
