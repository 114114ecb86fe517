package guardrail

import (
	"context"
	"strings"

	"bible-chat/backend/internal/llm"
)

// SafetyNotice replaces the content of any chunk that matches a marker.
const SafetyNotice = "⚠️ Response blocked due to unsafe content."

// DefaultMarkers are the disallowed-topic markers.
var DefaultMarkers = []string{
	"violence",
	"hate",
	"sex",
	"drugs",
	"self-harm",
	"suicide",
	"abuse",
	"explicit",
	"racist",
	"bully",
	"harass",
}

// Guardrail substitutes chunks whose content mentions a disallowed topic.
// Each chunk is judged on its own; a marker split across two chunks is not
// detected.
type Guardrail struct {
	markers []string
}

// New returns a guardrail over the given markers, or DefaultMarkers when none
// are given. Markers are matched case-insensitively.
func New(markers ...string) *Guardrail {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			lowered = append(lowered, m)
		}
	}
	return &Guardrail{markers: lowered}
}

// Check returns the chunk to emit in place of c: c itself, or c with its
// content replaced by SafetyNotice.
func (g *Guardrail) Check(c llm.Chunk) llm.Chunk {
	if g.Blocked(c.Content()) {
		return c.WithContent(SafetyNotice)
	}
	return c
}

// Blocked reports whether text contains any marker, including inside a
// longer word.
func (g *Guardrail) Blocked(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, m := range g.markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Filter is a pipeline stage. It forwards every chunk from in, substituted
// where needed, and closes its output when in closes or ctx is done.
func (g *Guardrail) Filter(ctx context.Context, in <-chan llm.Chunk) <-chan llm.Chunk {
	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- g.Check(c):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
