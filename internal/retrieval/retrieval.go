package retrieval

import (
	"context"
	"fmt"
	"strings"

	"bible-chat/backend/internal/logger"
)

// Retriever returns supplementary passages that ground a response.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

// DefaultPassages are returned by the static retriever.
var DefaultPassages = []string{"John 3:16", "Psalm 23:1"}

// Static returns a fixed set of passages regardless of the query. It stands in
// for a similarity search over embedded scripture.
type Static struct {
	Passages []string
}

// NewStatic returns a Static retriever over DefaultPassages.
func NewStatic() *Static {
	return &Static{Passages: DefaultPassages}
}

func (s *Static) Retrieve(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.Passages) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("Relevant Bible passages:")
	for _, p := range s.Passages {
		sb.WriteString("\n- ")
		sb.WriteString(p)
	}
	return sb.String(), nil
}

// Safe calls r and never fails: errors and panics are logged and yield "".
func Safe(ctx context.Context, r Retriever, query string) (passages string) {
	if r == nil {
		return ""
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.FromContext(ctx).Warn("Retrieval panicked, continuing without passages", "panic", fmt.Sprint(rec))
			passages = ""
		}
	}()

	out, err := r.Retrieve(ctx, query)
	if err != nil {
		logger.FromContext(ctx).Warn("Retrieval failed, continuing without passages", "error", err)
		return ""
	}
	return out
}
