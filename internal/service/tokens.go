package service

import (
	"context"

	"github.com/pkoukk/tiktoken-go"

	"bible-chat/backend/internal/logger"
	"bible-chat/backend/internal/model"
)

// TokenCounter estimates how many tokens a text occupies.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// ApproxCounter assumes about four characters per token.
type ApproxCounter struct{}

func (ApproxCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

// NewTokenCounter loads a tiktoken encoding, falling back to ApproxCounter
// when the encoding cannot be loaded.
func NewTokenCounter(ctx context.Context, encoding string) TokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		logger.FromContext(ctx).Warn("Could not load token encoding, using approximation", "encoding", encoding, "error", err)
		return ApproxCounter{}
	}
	return tiktokenCounter{enc: enc}
}

// messageOverhead is the per-message cost of role markers and separators.
const messageOverhead = 4

func messageTokens(c TokenCounter, m model.Message) int {
	n := messageOverhead + c.Count(m.Role)
	for _, p := range m.Parts {
		n += c.Count(p.Text)
		n += c.Count(string(p.Input))
		n += c.Count(string(p.Output))
	}
	return n
}

// TrimHistory drops the oldest messages until the rest fit within budget.
// The newest message is always kept. A non-positive budget keeps everything.
func TrimHistory(c TokenCounter, history []model.Message, budget int) []model.Message {
	if budget <= 0 || len(history) <= 1 {
		return history
	}

	used := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		t := messageTokens(c, history[i])
		if used+t > budget && i < len(history)-1 {
			break
		}
		used += t
		start = i
	}
	return history[start:]
}
