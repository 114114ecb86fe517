package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bible-chat/backend/internal/logger"
)

// RegistryConfig tunes a Registry.
type RegistryConfig struct {
	// MaxDuration bounds how long a producer may run once detached from the
	// request that started it.
	MaxDuration time.Duration
	// PollInterval is how often resuming readers check for new frames.
	PollInterval time.Duration
}

// Registry makes streams resumable: producers write every frame to a Store so
// that a reconnecting client can replay the stream from the start and then
// follow it live.
type Registry struct {
	store        Store
	maxDuration  time.Duration
	pollInterval time.Duration
}

// NewRegistry creates a registry on store.
func NewRegistry(store Store, cfg RegistryConfig) *Registry {
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Registry{store: store, maxDuration: cfg.MaxDuration, pollInterval: cfg.PollInterval}
}

// Producer builds the frame stream of a generation. It must close the
// returned channel once ctx is done.
type Producer func(ctx context.Context) <-chan []byte

// Resumable starts produce under id and returns the frames for the caller.
// The producer runs detached from ctx, bounded by MaxDuration, so it keeps
// buffering after the caller disconnects. When the id already exists the
// caller is attached to the existing stream instead. A returned error means
// the stream could not be registered; the caller should stream without
// resumability.
func (r *Registry) Resumable(ctx context.Context, id string, produce Producer) (<-chan []byte, error) {
	created, err := r.store.Create(ctx, id)
	if err != nil {
		return nil, err
	}
	if !created {
		frames, ok, err := r.Resume(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("stream %s vanished", id)
		}
		return frames, nil
	}

	log := logger.FromContext(ctx).With("stream_id", id)
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.maxDuration)
	frames := produce(pctx)

	live := make(chan []byte)
	go func() {
		defer cancel()
		defer close(live)

		readerGone := ctx.Done()
		for f := range frames {
			if err := r.store.Append(pctx, id, f); err != nil {
				log.Warn("Could not buffer stream frame", "error", err)
			}
			if readerGone == nil {
				continue
			}
			select {
			case live <- f:
			case <-readerGone:
				log.Debug("Client disconnected, continuing to buffer stream")
				readerGone = nil
			}
		}

		fctx, fcancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer fcancel()
		if err := r.store.Finish(fctx, id); err != nil {
			log.Warn("Could not mark stream finished", "error", err)
		}
	}()
	return live, nil
}

// Resume replays a buffered stream from its first frame and then follows it
// until it finishes or ctx is done. It reports false when the stream is
// unknown or expired.
func (r *Registry) Resume(ctx context.Context, id string) (<-chan []byte, bool, error) {
	snap, err := r.store.Range(ctx, id, 0)
	if errors.Is(err, ErrStreamNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		log := logger.FromContext(ctx).With("stream_id", id)

		next := 0
		lastProgress := time.Now()
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()

		for {
			for _, f := range snap.Frames {
				select {
				case out <- f:
				case <-ctx.Done():
					return
				}
			}
			if len(snap.Frames) > 0 {
				next += len(snap.Frames)
				lastProgress = time.Now()
			}
			if snap.Done {
				return
			}
			if time.Since(lastProgress) > r.maxDuration {
				log.Warn("Abandoning stalled stream")
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			snap, err = r.store.Range(ctx, id, next)
			if err != nil {
				if !errors.Is(err, ErrStreamNotFound) && ctx.Err() == nil {
					log.Warn("Could not read buffered stream", "error", err)
				}
				return
			}
		}
	}()
	return out, true, nil
}

// Close releases the underlying store.
func (r *Registry) Close() error {
	return r.store.Close()
}
