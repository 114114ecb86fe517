package llm

import (
	"context"
)

// Roles understood by backends.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Backend is a single text-generation provider.
type Backend interface {
	// Name identifies the backend in logs and traces.
	Name() string
	Generate(ctx context.Context, req *Request) (*Response, error)
	// GenerateStream opens a stream. Failures to open the stream, including the
	// first upstream error, are returned synchronously. Failures after that are
	// delivered as an error chunk. The channel is closed when the stream ends.
	GenerateStream(ctx context.Context, req *Request) (<-chan Chunk, error)
}

// Request is a backend-neutral generation request.
type Request struct {
	Model            string
	System           string
	Messages         []Message
	Tools            []ToolSpec
	Temperature      *float32
	IncludeReasoning bool
}

// Message is one turn of conversation history.
type Message struct {
	Role  string
	Parts []Part
}

// Part is one element of a message. Exactly one field is set.
type Part struct {
	Text       string
	File       *File
	ToolCall   *ToolCall
	ToolResult *ToolResult
}

// File references an attachment by URL.
type File struct {
	MediaType string
	URL       string
}

// TextMessage builds a message with a single text part.
func TextMessage(role, text string) Message {
	return Message{Role: role, Parts: []Part{{Text: text}}}
}

// ToolSpec declares a function the model may call. Parameters is a JSON schema
// object with "type", "properties" and "required" keys.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a model's request to invoke a tool.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the output of an executed tool call.
type ToolResult struct {
	CallID string
	Name   string
	Output map[string]any
}

// Usage reports token accounting for a generation.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the result of a non-streaming generation.
type Response struct {
	Text         string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

// ChunkKind tags the variant carried by a Chunk.
type ChunkKind int

const (
	ChunkUnknown ChunkKind = iota
	ChunkText
	ChunkReasoning
	ChunkToolCall
	ChunkToolResult
	ChunkFinish
	ChunkError
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkText:
		return "text"
	case ChunkReasoning:
		return "reasoning"
	case ChunkToolCall:
		return "tool-call"
	case ChunkToolResult:
		return "tool-result"
	case ChunkFinish:
		return "finish"
	case ChunkError:
		return "error"
	default:
		return "unknown"
	}
}

// Chunk is one incremental unit of a generation stream.
type Chunk struct {
	Kind         ChunkKind
	Text         string
	ToolCall     *ToolCall
	ToolResult   *ToolResult
	FinishReason string
	Usage        Usage
	Err          error
}

// Content returns the textual content of a text or reasoning chunk and "" for
// every other kind.
func (c Chunk) Content() string {
	switch c.Kind {
	case ChunkText, ChunkReasoning:
		return c.Text
	default:
		return ""
	}
}

// WithContent returns a copy of c whose content is replaced. Chunks without
// content are returned unchanged.
func (c Chunk) WithContent(content string) Chunk {
	switch c.Kind {
	case ChunkText, ChunkReasoning:
		c.Text = content
	}
	return c
}

// TextChunk is shorthand for a text delta.
func TextChunk(text string) Chunk {
	return Chunk{Kind: ChunkText, Text: text}
}

// ErrorChunk wraps err as an in-band error.
func ErrorChunk(err error) Chunk {
	return Chunk{Kind: ChunkError, Err: err}
}

// Collect drains a stream into a Response. It returns the first in-band error.
func Collect(ctx context.Context, ch <-chan Chunk) (*Response, error) {
	resp := &Response{}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case c, ok := <-ch:
			if !ok {
				return resp, nil
			}
			switch c.Kind {
			case ChunkText:
				resp.Text += c.Text
			case ChunkToolCall:
				if c.ToolCall != nil {
					resp.ToolCalls = append(resp.ToolCalls, *c.ToolCall)
				}
			case ChunkFinish:
				resp.FinishReason = c.FinishReason
				resp.Usage = c.Usage
			case ChunkError:
				return nil, c.Err
			}
		}
	}
}
