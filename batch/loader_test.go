package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID   string
	Name string
}

func TestLoaderCoalescing(t *testing.T) {
	t.Run("concurrent loads within the window share one batch call", func(t *testing.T) {
		var calls int32
		var mu sync.Mutex
		var gotKeys []string

		loader := NewLoader(func(ctx context.Context, keys []string) (map[string]user, error) {
			atomic.AddInt32(&calls, 1)
			mu.Lock()
			gotKeys = append([]string(nil), keys...)
			mu.Unlock()

			out := make(map[string]user, len(keys))
			for _, k := range keys {
				out[k] = user{ID: k, Name: "user-" + k}
			}
			return out, nil
		}, WithDelay[string, user](30*time.Millisecond))

		const n = 50
		var wg sync.WaitGroup
		results := make([]user, n)
		errs := make([]error, n)

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				// Half the callers ask for duplicate keys.
				key := string(rune('a' + i%25))
				results[i], errs[i] = loader.Load(context.Background(), key)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		assert.Len(t, gotKeys, 25, "keys must be deduplicated")

		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
			key := string(rune('a' + i%25))
			assert.Equal(t, "user-"+key, results[i].Name)
		}
	})

	t.Run("missing keys resolve to the zero value, not an error", func(t *testing.T) {
		loader := NewLoader(func(ctx context.Context, keys []string) (map[string]user, error) {
			return map[string]user{}, nil
		}, WithDelay[string, user](5*time.Millisecond))

		got, err := loader.Load(context.Background(), "nope")
		require.NoError(t, err)
		assert.Equal(t, user{}, got)
	})

	t.Run("batch error fans out to every caller", func(t *testing.T) {
		boom := errors.New("db down")
		loader := NewLoader(func(ctx context.Context, keys []string) (map[string]user, error) {
			return nil, boom
		}, WithDelay[string, user](5*time.Millisecond))

		var wg sync.WaitGroup
		errs := make([]error, 3)
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = loader.Load(context.Background(), "k")
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			assert.ErrorIs(t, err, boom)
		}
	})

	t.Run("keys after a flush start a new window", func(t *testing.T) {
		var calls int32
		loader := NewLoader(func(ctx context.Context, keys []string) (map[string]user, error) {
			atomic.AddInt32(&calls, 1)
			return map[string]user{}, nil
		}, WithDelay[string, user](5*time.Millisecond))

		_, err := loader.Load(context.Background(), "a")
		require.NoError(t, err)
		_, err = loader.Load(context.Background(), "b")
		require.NoError(t, err)

		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("cancelled caller context unblocks the waiter", func(t *testing.T) {
		loader := NewLoader(func(ctx context.Context, keys []string) (map[string]user, error) {
			return map[string]user{}, nil
		}, WithDelay[string, user](time.Hour)) // window never fires on its own

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := loader.Load(ctx, "a")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestLoaderSizeFlush(t *testing.T) {
	t.Run("hitting the size cap flushes without waiting out the window", func(t *testing.T) {
		var calls int32
		loader := NewLoader(func(ctx context.Context, keys []string) (map[string]user, error) {
			atomic.AddInt32(&calls, 1)
			out := make(map[string]user, len(keys))
			for _, k := range keys {
				out[k] = user{ID: k}
			}
			return out, nil
		},
			WithDelay[string, user](time.Hour), // the cap, not the timer, must flush
			WithMaxBatchSize[string, user](5),
		)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := loader.Load(context.Background(), string(rune('a'+i)))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("maxBatchSize plus one key triggers at least two batches", func(t *testing.T) {
		var calls int32
		loader := NewLoader(func(ctx context.Context, keys []string) (map[string]int, error) {
			atomic.AddInt32(&calls, 1)
			out := make(map[string]int, len(keys))
			for i, k := range keys {
				out[k] = i
			}
			return out, nil
		},
			WithDelay[string, int](20*time.Millisecond),
			WithMaxBatchSize[string, int](3),
		)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := loader.Load(context.Background(), string(rune('a'+i)))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
	})
}

func TestMapByKey(t *testing.T) {
	users := []user{{ID: "u1", Name: "Ada"}, {ID: "u2", Name: "Grace"}}
	indexed := MapByKey(users, func(u user) string { return u.ID })

	assert.Len(t, indexed, 2)
	assert.Equal(t, "Ada", indexed["u1"].Name)
	assert.Equal(t, "Grace", indexed["u2"].Name)
}
