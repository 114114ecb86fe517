package stream

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketStreams = []byte("streams")
	bucketFrames  = []byte("frames")
	keyCreated    = []byte("created")
	keyDone       = []byte("done")
)

const sweepInterval = time.Minute

// BoltStore buffers streams in a local BoltDB file. Every stream is a nested
// bucket under "streams" holding its creation time, a done marker and a
// "frames" bucket keyed by sequence number. Expired streams are swept on
// Create at most once per minute.
type BoltStore struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// BoltOption configures a BoltStore.
type BoltOption func(*BoltStore)

// WithBoltClock replaces time.Now.
func WithBoltClock(now func() time.Time) BoltOption {
	return func(s *BoltStore) { s.now = now }
}

// OpenBoltStore opens or creates the store file at path.
func OpenBoltStore(path string, ttl time.Duration, opts ...BoltOption) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open bolt store: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketStreams)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &BoltStore{db: db, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func encodeTime(t time.Time) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(t.UnixNano()))
	return b
}

func decodeTime(b []byte) time.Time {
	if len(b) != 8 {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(b)))
}

func (s *BoltStore) expired(sb *bolt.Bucket) bool {
	if s.ttl <= 0 {
		return false
	}
	created := decodeTime(sb.Get(keyCreated))
	return !s.now().Before(created.Add(s.ttl))
}

// live returns the bucket of an unexpired stream, or nil.
func (s *BoltStore) live(tx *bolt.Tx, id string) *bolt.Bucket {
	sb := tx.Bucket(bucketStreams).Bucket([]byte(id))
	if sb == nil || s.expired(sb) {
		return nil
	}
	return sb
}

func (s *BoltStore) Create(_ context.Context, id string) (bool, error) {
	s.maybeSweep()

	created := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketStreams)
		if sb := root.Bucket([]byte(id)); sb != nil {
			if !s.expired(sb) {
				return nil
			}
			if err := root.DeleteBucket([]byte(id)); err != nil {
				return err
			}
		}
		sb, err := root.CreateBucket([]byte(id))
		if err != nil {
			return err
		}
		if _, err := sb.CreateBucket(bucketFrames); err != nil {
			return err
		}
		created = true
		return sb.Put(keyCreated, encodeTime(s.now()))
	})
	if err != nil {
		return false, fmt.Errorf("could not create stream %s: %w", id, err)
	}
	return created, nil
}

func (s *BoltStore) Append(_ context.Context, id string, frame []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		sb := s.live(tx, id)
		if sb == nil {
			return ErrStreamNotFound
		}
		fb := sb.Bucket(bucketFrames)
		seq, err := fb.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return fb.Put(key, frame)
	})
}

func (s *BoltStore) Finish(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		sb := s.live(tx, id)
		if sb == nil {
			return ErrStreamNotFound
		}
		return sb.Put(keyDone, []byte{1})
	})
}

func (s *BoltStore) Range(_ context.Context, id string, from int) (Snapshot, error) {
	if from < 0 {
		from = 0
	}
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		sb := s.live(tx, id)
		if sb == nil {
			return ErrStreamNotFound
		}
		snap.Done = sb.Get(keyDone) != nil

		// Sequences start at 1, so frame i lives under key i+1.
		start := make([]byte, 8)
		binary.BigEndian.PutUint64(start, uint64(from)+1)
		c := sb.Bucket(bucketFrames).Cursor()
		for k, v := c.Seek(start); k != nil; k, v = c.Next() {
			snap.Frames = append(snap.Frames, append([]byte(nil), v...))
		}
		return nil
	})
	return snap, err
}

func (s *BoltStore) maybeSweep() {
	s.sweepMu.Lock()
	due := s.now().Sub(s.lastSweep) >= sweepInterval
	if due {
		s.lastSweep = s.now()
	}
	s.sweepMu.Unlock()
	if due {
		_, _ = s.Sweep()
	}
}

// Sweep deletes expired streams and returns how many were removed.
func (s *BoltStore) Sweep() (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketStreams)
		var expired [][]byte
		if err := root.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			if s.expired(root.Bucket(k)) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range expired {
			if err := root.DeleteBucket(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
