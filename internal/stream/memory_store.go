package stream

import (
	"context"
	"sync"
	"time"
)

type memoryStream struct {
	frames    [][]byte
	done      bool
	expiresAt time.Time
}

// MemoryStore keeps streams in process memory. Streams do not survive a
// restart and are not shared between replicas.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	streams map[string]*memoryStream
}

// NewMemoryStore creates an in-memory store. A nil clock means time.Now.
func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{ttl: ttl, now: now, streams: make(map[string]*memoryStream)}
}

// get returns a live stream. Callers hold mu.
func (s *MemoryStore) get(id string) (*memoryStream, bool) {
	st, ok := s.streams[id]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && !s.now().Before(st.expiresAt) {
		delete(s.streams, id)
		return nil, false
	}
	return st, true
}

func (s *MemoryStore) Create(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.get(id); ok {
		return false, nil
	}
	s.streams[id] = &memoryStream{expiresAt: s.now().Add(s.ttl)}
	return true, nil
}

func (s *MemoryStore) Append(_ context.Context, id string, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.get(id)
	if !ok {
		return ErrStreamNotFound
	}
	st.frames = append(st.frames, append([]byte(nil), frame...))
	return nil
}

func (s *MemoryStore) Finish(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.get(id)
	if !ok {
		return ErrStreamNotFound
	}
	st.done = true
	return nil
}

func (s *MemoryStore) Range(_ context.Context, id string, from int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.get(id)
	if !ok {
		return Snapshot{}, ErrStreamNotFound
	}
	if from < 0 {
		from = 0
	}
	var frames [][]byte
	if from < len(st.frames) {
		frames = append(frames, st.frames[from:]...)
	}
	return Snapshot{Frames: frames, Done: st.done}, nil
}

func (s *MemoryStore) Close() error { return nil }
