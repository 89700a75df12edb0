// Package fetch runs keyed fetch operations with bounded parallelism and
// pacing between bursts, so a large set of API calls completes quickly
// without hammering the upstream.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrAllFailed is returned when every key in a run failed to fetch.
var ErrAllFailed = errors.New("all fetches failed")

type Config struct {
	Logger *slog.Logger

	// Workers is the maximum number of in-flight fetches. Defaults to 15.
	Workers int

	// SuperBatchFactor sizes the bursts between pacing pauses: keys are
	// processed in groups of Workers*SuperBatchFactor. Defaults to 5.
	SuperBatchFactor int

	// PacingDelay is the pause between super-batches. Zero disables pacing.
	PacingDelay time.Duration

	// LogEvery emits a progress line after every N completed fetches.
	// Defaults to 50.
	LogEvery int

	Clock clockwork.Clock
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 15
	}
	if cfg.SuperBatchFactor <= 0 {
		cfg.SuperBatchFactor = 5
	}
	if cfg.PacingDelay < 0 {
		return errors.New("pacing delay must not be negative")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 50
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Result is one completed fetch. Err is nil on success.
type Result[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

// Fetch runs fn for every key with at most cfg.Workers in flight, pausing
// cfg.PacingDelay between super-batches of Workers*SuperBatchFactor keys.
// Results are collected in completion order; a failed key produces a Result
// with Err set rather than aborting the run. The returned error is non-nil
// only when the context is cancelled or every key failed.
func Fetch[K comparable, V any](ctx context.Context, cfg Config, keys []K, fn func(ctx context.Context, key K) (V, error)) ([]Result[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	superBatch := cfg.Workers * cfg.SuperBatchFactor

	var (
		mu      sync.Mutex
		results = make([]Result[K, V], 0, len(keys))
		failed  int
	)

	start := cfg.Clock.Now()
	sem := make(chan struct{}, cfg.Workers)

	for batchStart := 0; batchStart < len(keys); batchStart += superBatch {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		batchEnd := min(batchStart+superBatch, len(keys))
		batch := keys[batchStart:batchEnd]

		var wg sync.WaitGroup
		for _, key := range batch {
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				value, err := fn(ctx, key)

				mu.Lock()
				defer mu.Unlock()
				results = append(results, Result[K, V]{Key: key, Value: value, Err: err})
				if err != nil {
					failed++
					cfg.Logger.Warn("fetch: key failed", "key", key, "error", err)
				}
				if len(results)%cfg.LogEvery == 0 {
					elapsed := cfg.Clock.Since(start)
					cfg.Logger.Info("fetch: progress",
						"done", len(results),
						"total", len(keys),
						"failed", failed,
						"elapsed", elapsed.Round(time.Millisecond),
						"rate", fmt.Sprintf("%.1f/s", float64(len(results))/max(elapsed.Seconds(), 0.001)))
				}
			}()
		}
		wg.Wait()

		if cfg.PacingDelay > 0 && batchEnd < len(keys) {
			cfg.Logger.Debug("fetch: pacing between super-batches", "delay", cfg.PacingDelay)
			select {
			case <-cfg.Clock.After(cfg.PacingDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	elapsed := cfg.Clock.Since(start)
	cfg.Logger.Info("fetch: run complete",
		"total", len(keys),
		"succeeded", len(results)-failed,
		"failed", failed,
		"elapsed", elapsed.Round(time.Millisecond))

	if failed == len(keys) {
		return results, fmt.Errorf("%w (%d keys)", ErrAllFailed, len(keys))
	}
	return results, nil
}
