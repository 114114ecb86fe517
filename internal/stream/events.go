package stream

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"bible-chat/backend/internal/llm"
	"bible-chat/backend/internal/logger"
	"bible-chat/backend/internal/model"
)

// ErrorText is the only error detail sent to clients mid-stream.
const ErrorText = "Oops, an error occurred!"

// Events converts a chunk stream into UI stream events. Every stream begins
// with a start event and ends with finish, unless an error chunk arrives, in
// which case the error event is the last one. Text and reasoning runs are
// wrapped in start/end events sharing a part id. A finish chunk closes the
// current step.
func Events(ctx context.Context, messageID string, in <-chan llm.Chunk) <-chan model.StreamEvent {
	out := make(chan model.StreamEvent)
	go func() {
		defer close(out)
		e := &eventEncoder{ctx: ctx, out: out}
		if !e.emit(model.StreamEvent{Type: model.EventStart, MessageID: messageID}) {
			drain(in)
			return
		}

		for {
			var (
				c  llm.Chunk
				ok bool
			)
			select {
			case <-ctx.Done():
				drain(in)
				return
			case c, ok = <-in:
			}
			if !ok {
				break
			}
			if !e.handle(c) {
				drain(in)
				return
			}
		}

		if e.closeParts() && e.closeStep() {
			e.emit(model.StreamEvent{Type: model.EventFinish})
		}
	}()
	return out
}

// drain consumes the rest of in so an upstream producer never blocks on a
// stage that has stopped.
func drain(in <-chan llm.Chunk) {
	go func() {
		for range in {
		}
	}()
}

type eventEncoder struct {
	ctx context.Context
	out chan<- model.StreamEvent

	inStep      bool
	textID      string
	reasoningID string
}

func (e *eventEncoder) emit(ev model.StreamEvent) bool {
	select {
	case e.out <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e *eventEncoder) openStep() bool {
	if e.inStep {
		return true
	}
	e.inStep = true
	return e.emit(model.StreamEvent{Type: model.EventStartStep})
}

func (e *eventEncoder) closeStep() bool {
	if !e.inStep {
		return true
	}
	e.inStep = false
	return e.emit(model.StreamEvent{Type: model.EventFinishStep})
}

func (e *eventEncoder) closeText() bool {
	if e.textID == "" {
		return true
	}
	id := e.textID
	e.textID = ""
	return e.emit(model.StreamEvent{Type: model.EventTextEnd, ID: id})
}

func (e *eventEncoder) closeReasoning() bool {
	if e.reasoningID == "" {
		return true
	}
	id := e.reasoningID
	e.reasoningID = ""
	return e.emit(model.StreamEvent{Type: model.EventReasoningEnd, ID: id})
}

func (e *eventEncoder) closeParts() bool {
	return e.closeText() && e.closeReasoning()
}

// handle emits the events for one chunk. It returns false when the stream
// must stop.
func (e *eventEncoder) handle(c llm.Chunk) bool {
	switch c.Kind {
	case llm.ChunkText:
		if !e.openStep() || !e.closeReasoning() {
			return false
		}
		if e.textID == "" {
			e.textID = uuid.NewString()
			if !e.emit(model.StreamEvent{Type: model.EventTextStart, ID: e.textID}) {
				return false
			}
		}
		return e.emit(model.StreamEvent{Type: model.EventTextDelta, ID: e.textID, Delta: c.Text})

	case llm.ChunkReasoning:
		if !e.openStep() || !e.closeText() {
			return false
		}
		if e.reasoningID == "" {
			e.reasoningID = uuid.NewString()
			if !e.emit(model.StreamEvent{Type: model.EventReasoningStart, ID: e.reasoningID}) {
				return false
			}
		}
		return e.emit(model.StreamEvent{Type: model.EventReasoningDelta, ID: e.reasoningID, Delta: c.Text})

	case llm.ChunkToolCall:
		if c.ToolCall == nil {
			return true
		}
		if !e.openStep() || !e.closeParts() {
			return false
		}
		return e.emit(model.StreamEvent{
			Type:       model.EventToolInputAvailable,
			ToolCallID: c.ToolCall.ID,
			ToolName:   c.ToolCall.Name,
			Input:      marshalPayload(e.ctx, c.ToolCall.Args),
		})

	case llm.ChunkToolResult:
		if c.ToolResult == nil {
			return true
		}
		if !e.openStep() || !e.closeParts() {
			return false
		}
		return e.emit(model.StreamEvent{
			Type:       model.EventToolOutputAvailable,
			ToolCallID: c.ToolResult.CallID,
			Output:     marshalPayload(e.ctx, c.ToolResult.Output),
		})

	case llm.ChunkFinish:
		return e.closeParts() && e.closeStep()

	case llm.ChunkError:
		logger.FromContext(e.ctx).Error("Generation stream failed", "error", c.Err)
		e.closeParts()
		e.emit(model.StreamEvent{Type: model.EventError, ErrorText: ErrorText})
		return false
	}
	return true
}

func marshalPayload(ctx context.Context, v map[string]any) json.RawMessage {
	if v == nil {
		return json.RawMessage(`{}`)
	}
	b, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(ctx).Warn("Could not encode tool payload", "error", err)
		return json.RawMessage(`{}`)
	}
	return b
}
