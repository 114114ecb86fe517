package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"bible-chat/backend/internal/logger"
	"bible-chat/backend/internal/model"
)

// DoneFrame terminates every event stream.
var DoneFrame = []byte("data: [DONE]\n\n")

// EncodeSSE renders one event as a server-sent event frame.
func EncodeSSE(ev model.StreamEvent) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("could not marshal stream event: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(payload) + 8)
	buf.WriteString("data: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// Frames encodes events as SSE frames and appends DoneFrame once the event
// stream closes.
func Frames(ctx context.Context, events <-chan model.StreamEvent) <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		send := func(f []byte) bool {
			select {
			case out <- f:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for ev := range events {
			frame, err := EncodeSSE(ev)
			if err != nil {
				logger.FromContext(ctx).Error("Dropping unencodable stream event", "type", ev.Type, "error", err)
				continue
			}
			if !send(frame) {
				go func() {
					for range events {
					}
				}()
				return
			}
		}
		send(DoneFrame)
	}()
	return out
}
