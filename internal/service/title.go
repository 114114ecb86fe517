package service

import (
	"context"
	"strings"

	"bible-chat/backend/internal/llm"
	"bible-chat/backend/internal/logger"
	"bible-chat/backend/internal/prompt"
)

const (
	maxTitleLength = 80
	untitled       = "New chat"
)

// generateTitle asks the title model to name a chat after its first message.
// It falls back to the truncated message text when the model fails.
func (s *ChatService) generateTitle(ctx context.Context, text string) string {
	fallback := truncate(strings.TrimSpace(text), maxTitleLength)
	if fallback == "" {
		fallback = untitled
	}

	resp, err := s.backend.Generate(ctx, &llm.Request{
		Model:    s.cfg.Models.Title,
		System:   prompt.TitlePrompt,
		Messages: []llm.Message{llm.TextMessage(llm.RoleUser, text)},
	})
	if err != nil {
		logger.FromContext(ctx).Warn("Title generation failed, using message text", "error", err)
		return fallback
	}

	title := cleanTitle(resp.Text)
	if title == "" {
		return fallback
	}
	return title
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, ":", "")
	s = strings.Trim(s, "\"'` ")
	return truncate(s, maxTitleLength)
}

// truncate shortens a string to a specified number of runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
