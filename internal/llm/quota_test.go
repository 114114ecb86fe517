package llm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bible-chat/backend/internal/llm"
)

func TestQuotaState(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	q := llm.NewQuotaState(clock.Now)

	assert.True(t, q.Available())
	assert.True(t, q.ExceededUntil().IsZero())

	q.MarkExceeded(time.Hour)
	assert.False(t, q.Available())
	assert.Equal(t, clock.now.Add(time.Hour), q.ExceededUntil())

	clock.Advance(59 * time.Minute)
	assert.False(t, q.Available())

	clock.Advance(time.Minute)
	assert.True(t, q.Available())
	assert.True(t, q.ExceededUntil().IsZero(), "expired lock is cleared on access")

	q.MarkExceeded(time.Hour)
	q.Reset()
	assert.True(t, q.Available())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", llm.NewAPICallError(429, "", nil), true},
		{"server error", llm.NewAPICallError(503, "", nil), true},
		{"flagged retryable", &llm.APICallError{StatusCode: 400, IsRetryable: true}, true},
		{"bad request", llm.NewAPICallError(400, "", nil), false},
		{"forbidden", llm.NewAPICallError(403, "", nil), false},
		{"not an api error", assert.AnError, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.IsRetryable(tt.err))
		})
	}
}
