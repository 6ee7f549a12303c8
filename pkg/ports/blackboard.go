package ports

import "context"

// Blackboard is the shared key-value store a run reads and writes.
//
// Values are the runtime values of the domain package (int64, float64,
// string, bool, []any, map[string]any). Implementations that serialize
// must give back the same Go types for these.
type Blackboard interface {
	// Get returns the value under key. A missing key is reported with
	// ok == false and a nil error.
	Get(ctx context.Context, key string) (v any, ok bool, err error)

	// Put stores v under key, replacing any previous value.
	Put(ctx context.Context, key string, v any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Snapshot returns a copy of every key and value.
	Snapshot(ctx context.Context) (map[string]any, error)
}
