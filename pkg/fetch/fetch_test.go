package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/fpldata/pkg/fetch"
	fpltesting "github.com/malbeclabs/fpldata/pkg/testing"
)

func TestFPLData_Fetch_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("fetches every key", func(t *testing.T) {
		t.Parallel()

		keys := make([]int, 100)
		for i := range keys {
			keys[i] = i + 1
		}

		results, err := fetch.Fetch(context.Background(), fetch.Config{
			Logger:  fpltesting.NewLogger(),
			Workers: 8,
		}, keys, func(ctx context.Context, key int) (string, error) {
			return fmt.Sprintf("value-%d", key), nil
		})
		require.NoError(t, err)
		require.Len(t, results, len(keys))

		seen := map[int]string{}
		for _, res := range results {
			require.NoError(t, res.Err)
			seen[res.Key] = res.Value
		}
		require.Len(t, seen, len(keys))
		require.Equal(t, "value-42", seen[42])
	})

	t.Run("never exceeds the worker limit", func(t *testing.T) {
		t.Parallel()

		keys := make([]int, 60)
		for i := range keys {
			keys[i] = i
		}

		var inflight, peak atomic.Int64
		results, err := fetch.Fetch(context.Background(), fetch.Config{
			Logger:  fpltesting.NewLogger(),
			Workers: 4,
		}, keys, func(ctx context.Context, key int) (int, error) {
			n := inflight.Add(1)
			defer inflight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			return key, nil
		})
		require.NoError(t, err)
		require.Len(t, results, len(keys))
		require.LessOrEqual(t, peak.Load(), int64(4))
	})

	t.Run("a failed key does not abort the run", func(t *testing.T) {
		t.Parallel()

		keys := []int{1, 2, 3, 4, 5}
		results, err := fetch.Fetch(context.Background(), fetch.Config{
			Logger:  fpltesting.NewLogger(),
			Workers: 2,
		}, keys, func(ctx context.Context, key int) (int, error) {
			if key == 3 {
				return 0, errors.New("boom")
			}
			return key * 10, nil
		})
		require.NoError(t, err)
		require.Len(t, results, 5)

		var failed int
		for _, res := range results {
			if res.Err != nil {
				failed++
				require.Equal(t, 3, res.Key)
			}
		}
		require.Equal(t, 1, failed)
	})

	t.Run("returns ErrAllFailed when nothing succeeds", func(t *testing.T) {
		t.Parallel()

		results, err := fetch.Fetch(context.Background(), fetch.Config{
			Logger:  fpltesting.NewLogger(),
			Workers: 2,
		}, []int{1, 2, 3}, func(ctx context.Context, key int) (int, error) {
			return 0, errors.New("boom")
		})
		require.ErrorIs(t, err, fetch.ErrAllFailed)
		require.Len(t, results, 3)
	})

	t.Run("empty key set is a no-op", func(t *testing.T) {
		t.Parallel()

		results, err := fetch.Fetch(context.Background(), fetch.Config{
			Logger:  fpltesting.NewLogger(),
			Workers: 2,
		}, nil, func(ctx context.Context, key int) (int, error) {
			t.Fatal("must not be called")
			return 0, nil
		})
		require.NoError(t, err)
		require.Empty(t, results)
	})

	t.Run("stops at the pacing pause until the delay elapses", func(t *testing.T) {
		t.Parallel()

		clock := clockwork.NewFakeClock()

		var done atomic.Int64
		keys := []int{1, 2, 3, 4}

		resultsCh := make(chan error, 1)
		go func() {
			_, err := fetch.Fetch(context.Background(), fetch.Config{
				Logger:           fpltesting.NewLogger(),
				Workers:          2,
				SuperBatchFactor: 1,
				PacingDelay:      time.Second,
				Clock:            clock,
			}, keys, func(ctx context.Context, key int) (int, error) {
				done.Add(1)
				return key, nil
			})
			resultsCh <- err
		}()

		// First super-batch of 2 runs, then Fetch must block on the pacing
		// timer with the second batch untouched.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		require.Equal(t, int64(2), done.Load())

		clock.Advance(time.Second)
		require.NoError(t, <-resultsCh)
		require.Equal(t, int64(4), done.Load())
	})

	t.Run("returns the context error on cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		var once sync.Once
		_, err := fetch.Fetch(ctx, fetch.Config{
			Logger:           fpltesting.NewLogger(),
			Workers:          1,
			SuperBatchFactor: 1,
			PacingDelay:      time.Hour,
		}, []int{1, 2}, func(ctx context.Context, key int) (int, error) {
			once.Do(cancel)
			return key, nil
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestFPLData_Fetch_Pair(t *testing.T) {
	t.Parallel()

	t.Run("returns both results", func(t *testing.T) {
		t.Parallel()

		a, b := fetch.Pair(context.Background(),
			func(ctx context.Context) (string, error) { return "left", nil },
			func(ctx context.Context) (int, error) { return 7, nil },
		)
		require.NoError(t, a.Err)
		require.NoError(t, b.Err)
		require.Equal(t, "left", a.Value)
		require.Equal(t, 7, b.Value)
	})

	t.Run("a failed leg does not discard the other", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		a, b := fetch.Pair(context.Background(),
			func(ctx context.Context) (string, error) {
				time.Sleep(10 * time.Millisecond)
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				default:
					return "bootstrap", nil
				}
			},
			func(ctx context.Context) (int, error) { return 0, boom },
		)
		require.NoError(t, a.Err)
		require.Equal(t, "bootstrap", a.Value)
		require.ErrorIs(t, b.Err, boom)
	})

	t.Run("both failures are reported", func(t *testing.T) {
		t.Parallel()

		errA := errors.New("a down")
		errB := errors.New("b down")
		a, b := fetch.Pair(context.Background(),
			func(ctx context.Context) (string, error) { return "", errA },
			func(ctx context.Context) (int, error) { return 0, errB },
		)
		require.ErrorIs(t, a.Err, errA)
		require.ErrorIs(t, b.Err, errB)
	})
}
