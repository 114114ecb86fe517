package service

import (
	"encoding/json"

	"bible-chat/backend/internal/llm"
	"bible-chat/backend/internal/model"
)

// toLLMMessages converts stored history into backend messages. Reasoning
// parts are not replayed. A tool part becomes a call on the assistant turn
// and, when it has output, a result on a following tool turn.
func toLLMMessages(history []model.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case model.RoleUser:
			msg := llm.Message{Role: llm.RoleUser}
			for _, p := range m.Parts {
				switch p.Type {
				case model.PartText:
					msg.Parts = append(msg.Parts, llm.Part{Text: p.Text})
				case model.PartFile:
					msg.Parts = append(msg.Parts, llm.Part{File: &llm.File{MediaType: p.MediaType, URL: p.URL}})
				}
			}
			if len(msg.Parts) > 0 {
				out = append(out, msg)
			}

		case model.RoleAssistant:
			msg := llm.Message{Role: llm.RoleAssistant}
			results := llm.Message{Role: llm.RoleTool}
			for _, p := range m.Parts {
				switch {
				case p.Type == model.PartText:
					msg.Parts = append(msg.Parts, llm.Part{Text: p.Text})
				case p.IsTool():
					msg.Parts = append(msg.Parts, llm.Part{ToolCall: &llm.ToolCall{
						ID:   p.ToolCallID,
						Name: p.ToolName(),
						Args: decodeObject(p.Input),
					}})
					if len(p.Output) > 0 {
						results.Parts = append(results.Parts, llm.Part{ToolResult: &llm.ToolResult{
							CallID: p.ToolCallID,
							Name:   p.ToolName(),
							Output: decodeObject(p.Output),
						}})
					}
				}
			}
			if len(msg.Parts) > 0 {
				out = append(out, msg)
			}
			if len(results.Parts) > 0 {
				out = append(out, results)
			}
		}
	}
	return out
}

func decodeObject(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"value": string(raw)}
	}
	return m
}

// attachmentsOf lists the file parts of a message as attachments.
func attachmentsOf(parts []model.Part) []model.Attachment {
	var out []model.Attachment
	for _, p := range parts {
		if p.Type == model.PartFile {
			out = append(out, model.Attachment{Name: p.Name, URL: p.URL, ContentType: p.MediaType})
		}
	}
	return out
}
