package llm

import (
	"sync"
	"time"
)

// QuotaState records whether a backend is locked out after exhausting its
// quota. The lock expires on its own once the deadline passes; Reset clears
// it early. Safe for concurrent use.
type QuotaState struct {
	mu            sync.Mutex
	exceededUntil time.Time
	now           func() time.Time
}

// NewQuotaState creates an unlocked state. A nil clock means time.Now.
func NewQuotaState(now func() time.Time) *QuotaState {
	if now == nil {
		now = time.Now
	}
	return &QuotaState{now: now}
}

// MarkExceeded locks the backend for d from now.
func (q *QuotaState) MarkExceeded(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.exceededUntil = q.now().Add(d)
}

// Available reports whether the lock is clear or has expired.
func (q *QuotaState) Available() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.exceededUntil.IsZero() {
		return true
	}
	if !q.now().Before(q.exceededUntil) {
		q.exceededUntil = time.Time{}
		return true
	}
	return false
}

// ExceededUntil returns the lock deadline, or the zero time when unlocked.
func (q *QuotaState) ExceededUntil() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.exceededUntil
}

// Reset clears the lock.
func (q *QuotaState) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.exceededUntil = time.Time{}
}
