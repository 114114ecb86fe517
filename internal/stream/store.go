package stream

import (
	"context"
	"errors"
)

// ErrStreamNotFound is returned by stores for unknown or expired streams.
var ErrStreamNotFound = errors.New("stream not found")

// Snapshot is the part of a stream buffered so far.
type Snapshot struct {
	Frames [][]byte
	Done   bool
}

// Store buffers the frames of resumable streams. Implementations expire
// streams after a store-wide TTL.
type Store interface {
	// Create registers a new stream. It reports false when the id already
	// exists.
	Create(ctx context.Context, id string) (bool, error)
	Append(ctx context.Context, id string, frame []byte) error
	// Finish marks the stream as complete.
	Finish(ctx context.Context, id string) error
	// Range returns the frames from index from onwards.
	Range(ctx context.Context, id string, from int) (Snapshot, error)
	Close() error
}
