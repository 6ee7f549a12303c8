package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlackboard_Contract(t *testing.T) {
	ports.RunBlackboardContract(t, memory.NewBlackboard())
}

func TestMemoryBlackboard_Seed(t *testing.T) {
	seed := map[string]any{"a": int64(1)}
	bb := memory.NewBlackboardFrom(seed)
	seed["a"] = int64(2)

	v, ok, err := bb.Get(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}

func TestInMemoryLoader_Contract(t *testing.T) {
	data := map[string]string{
		"main.yaml":  "trees: []",
		"other.yaml": "imports: []",
	}

	bytesData := make(map[string][]byte)
	for k, v := range data {
		bytesData[k] = []byte(v)
	}

	ports.RunSourceLoaderContract(t, memory.NewLoader(data), bytesData)
}

func TestMemoryLocker(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "run", time.Second)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctxTimeout, "run", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locker.Lock(ctx, "other", time.Second)
	require.NoError(t, err, "different keys do not contend")
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx), "unlocking twice is harmless")

	again, err := locker.Lock(ctx, "run", time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
