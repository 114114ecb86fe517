package service

import (
	"context"
	"strings"

	"bible-chat/backend/internal/llm"
	"bible-chat/backend/internal/logger"
)

// generate runs the model step loop and streams every chunk. When a step ends
// with tool calls, the calls are executed, their results streamed, and the
// model is called again with the results appended, up to maxSteps times. The
// finish chunk of each step is emitted after its tool results.
func (s *ChatService) generate(ctx context.Context, req *llm.Request) <-chan llm.Chunk {
	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		log := logger.FromContext(ctx)

		send := func(c llm.Chunk) bool {
			select {
			case out <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		messages := append([]llm.Message(nil), req.Messages...)
		for step := 1; step <= s.cfg.MaxSteps; step++ {
			stepReq := *req
			stepReq.Messages = messages

			in, err := s.backend.GenerateStream(ctx, &stepReq)
			if err != nil {
				log.Error("Generation failed", "step", step, "error", err)
				send(llm.ErrorChunk(err))
				return
			}

			var (
				text   strings.Builder
				calls  []llm.ToolCall
				finish = llm.Chunk{Kind: llm.ChunkFinish}
			)
			for c := range in {
				switch c.Kind {
				case llm.ChunkFinish:
					finish = c
					continue
				case llm.ChunkText:
					text.WriteString(c.Text)
				case llm.ChunkToolCall:
					if c.ToolCall != nil {
						calls = append(calls, *c.ToolCall)
					}
				}
				if !send(c) || c.Kind == llm.ChunkError {
					go drainChunks(in)
					return
				}
			}

			if len(calls) == 0 || len(req.Tools) == 0 {
				send(finish)
				return
			}

			assistant := llm.Message{Role: llm.RoleAssistant}
			if text.Len() > 0 {
				assistant.Parts = append(assistant.Parts, llm.Part{Text: text.String()})
			}
			results := llm.Message{Role: llm.RoleTool}
			for _, call := range calls {
				call := call
				result := s.tools.Execute(ctx, call)
				if !send(llm.Chunk{Kind: llm.ChunkToolResult, ToolResult: &result}) {
					return
				}
				assistant.Parts = append(assistant.Parts, llm.Part{ToolCall: &call})
				results.Parts = append(results.Parts, llm.Part{ToolResult: &result})
			}
			if !send(finish) {
				return
			}
			messages = append(messages, assistant, results)
		}
		log.Debug("Generation stopped at step limit", "max_steps", s.cfg.MaxSteps)
	}()
	return out
}

func drainChunks(in <-chan llm.Chunk) {
	for range in {
	}
}
