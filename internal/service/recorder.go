package service

import (
	"context"
	"encoding/json"
	"time"

	"bible-chat/backend/internal/llm"
	"bible-chat/backend/internal/logger"
	"bible-chat/backend/internal/model"
)

// partBuilder assembles message parts from a chunk stream. Consecutive text
// or reasoning chunks within a step merge into one part.
type partBuilder struct {
	parts []model.Part
	open  int // index of the open text or reasoning part, -1 if none
	calls map[string]int
}

func newPartBuilder() *partBuilder {
	return &partBuilder{open: -1, calls: make(map[string]int)}
}

func (b *partBuilder) add(c llm.Chunk) {
	switch c.Kind {
	case llm.ChunkText, llm.ChunkReasoning:
		typ := model.PartText
		if c.Kind == llm.ChunkReasoning {
			typ = model.PartReasoning
		}
		if b.open >= 0 && b.parts[b.open].Type == typ {
			b.parts[b.open].Text += c.Text
			return
		}
		b.parts = append(b.parts, model.Part{Type: typ, Text: c.Text})
		b.open = len(b.parts) - 1

	case llm.ChunkToolCall:
		if c.ToolCall == nil {
			return
		}
		b.open = -1
		input, _ := json.Marshal(nonNilMap(c.ToolCall.Args))
		b.parts = append(b.parts, model.Part{
			Type:       model.PartToolPrefix + c.ToolCall.Name,
			ToolCallID: c.ToolCall.ID,
			Input:      input,
		})
		b.calls[c.ToolCall.ID] = len(b.parts) - 1

	case llm.ChunkToolResult:
		if c.ToolResult == nil {
			return
		}
		b.open = -1
		output, _ := json.Marshal(nonNilMap(c.ToolResult.Output))
		if i, ok := b.calls[c.ToolResult.CallID]; ok {
			b.parts[i].Output = output
			return
		}
		b.parts = append(b.parts, model.Part{
			Type:       model.PartToolPrefix + c.ToolResult.Name,
			ToolCallID: c.ToolResult.CallID,
			Output:     output,
		})

	case llm.ChunkFinish:
		b.open = -1
	}
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// record forwards chunks unchanged while assembling the assistant message.
// When the stream completes without an error chunk and ctx is still live, the
// message is saved before the output closes, so the finish event is only sent
// once the message is stored. Save failures are logged.
func (s *ChatService) record(ctx context.Context, chatID, messageID string, in <-chan llm.Chunk) <-chan llm.Chunk {
	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		log := logger.FromContext(ctx).With("chat_id", chatID, "message_id", messageID)

		b := newPartBuilder()
		failed := false
		for {
			var (
				c  llm.Chunk
				ok bool
			)
			select {
			case <-ctx.Done():
				go drainChunks(in)
				return
			case c, ok = <-in:
			}
			if !ok {
				break
			}
			if c.Kind == llm.ChunkError {
				failed = true
			}
			b.add(c)
			select {
			case out <- c:
			case <-ctx.Done():
				go drainChunks(in)
				return
			}
		}

		if failed || ctx.Err() != nil || len(b.parts) == 0 {
			return
		}
		msg := model.Message{
			ID:          messageID,
			ChatID:      chatID,
			Role:        model.RoleAssistant,
			Parts:       b.parts,
			Attachments: []model.Attachment{},
			CreatedAt:   s.now().UTC(),
		}
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.repo.SaveMessages(sctx, []model.Message{msg}); err != nil {
			log.Error("Failed to save assistant message", "error", err)
			return
		}
		log.Debug("Saved assistant message", "parts", len(b.parts))
	}()
	return out
}
