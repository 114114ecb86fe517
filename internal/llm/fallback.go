package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bible-chat/backend/internal/logger"
)

const tracerName = "bible-chat/backend/internal/llm"

// DefaultQuotaLock is how long a rate-limited backend is skipped.
const DefaultQuotaLock = time.Hour

type routedBackend struct {
	backend Backend
	quota   *QuotaState
}

// FallbackRouter tries backends in order and moves on to the next one only
// when the current one fails with a retryable error. It implements Backend.
type FallbackRouter struct {
	backends  []routedBackend
	quotaLock time.Duration
	tracer    trace.Tracer
}

// RouterOption configures a FallbackRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	quotaLock time.Duration
	now       func() time.Time
}

// WithQuotaLock sets how long a backend stays locked after a 429. A zero
// duration disables locking. now may be nil.
func WithQuotaLock(d time.Duration, now func() time.Time) RouterOption {
	return func(o *routerOptions) {
		o.quotaLock = d
		o.now = now
	}
}

// NewFallbackRouter builds a router over an ordered, non-empty backend list.
// The list is copied and never changes afterwards.
func NewFallbackRouter(backends []Backend, opts ...RouterOption) (*FallbackRouter, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	o := routerOptions{quotaLock: DefaultQuotaLock}
	for _, opt := range opts {
		opt(&o)
	}

	routed := make([]routedBackend, len(backends))
	for i, b := range backends {
		routed[i] = routedBackend{backend: b, quota: NewQuotaState(o.now)}
	}

	return &FallbackRouter{
		backends:  routed,
		quotaLock: o.quotaLock,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

func (r *FallbackRouter) Name() string { return "fallback" }

// Quota returns the quota state of the i-th backend.
func (r *FallbackRouter) Quota(i int) *QuotaState {
	return r.backends[i].quota
}

func (r *FallbackRouter) Generate(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response
	err := r.try(ctx, "generate", func(ctx context.Context, b Backend) error {
		var err error
		resp, err = b.Generate(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *FallbackRouter) GenerateStream(ctx context.Context, req *Request) (<-chan Chunk, error) {
	var ch <-chan Chunk
	err := r.try(ctx, "stream", func(ctx context.Context, b Backend) error {
		var err error
		ch, err = b.GenerateStream(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// order returns the backends to attempt: unlocked ones in order, or every
// backend when all of them are locked.
func (r *FallbackRouter) order() []routedBackend {
	available := make([]routedBackend, 0, len(r.backends))
	for _, rb := range r.backends {
		if rb.quota.Available() {
			available = append(available, rb)
		}
	}
	if len(available) == 0 {
		return r.backends
	}
	return available
}

func (r *FallbackRouter) try(ctx context.Context, op string, call func(context.Context, Backend) error) error {
	log := logger.FromContext(ctx)

	var lastErr error
	for i, rb := range r.order() {
		if err := ctx.Err(); err != nil {
			return err
		}

		attemptCtx, span := r.tracer.Start(ctx, "llm.fallback.attempt", trace.WithAttributes(
			attribute.String("llm.backend", rb.backend.Name()),
			attribute.String("llm.operation", op),
			attribute.Int("llm.attempt", i+1),
		))
		err := call(attemptCtx, rb.backend)
		if err == nil {
			span.End()
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()

		if IsQuotaExceeded(err) && r.quotaLock > 0 {
			rb.quota.MarkExceeded(r.quotaLock)
			log.Warn("Backend quota exceeded, locking", "backend", rb.backend.Name(), "until", rb.quota.ExceededUntil())
		}
		if !IsRetryable(err) {
			return err
		}
		log.Warn("Backend failed with retryable error, trying next", "backend", rb.backend.Name(), "error", err)
		lastErr = err
	}
	return lastErr
}
