package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// GeminiConfig configures a GeminiBackend.
type GeminiConfig struct {
	// Name identifies the backend, e.g. "gemini-key-1".
	Name       string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiBackend generates content with the Gemini generative-language API
// using a single API key.
type GeminiBackend struct {
	name   string
	client *genai.Client
}

// NewGeminiBackend creates a backend bound to one API key.
func NewGeminiBackend(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "gemini"
	}
	return &GeminiBackend{name: name, client: client}, nil
}

func (b *GeminiBackend) Name() string { return b.name }

func (b *GeminiBackend) Generate(ctx context.Context, req *Request) (*Response, error) {
	contents, err := toGeminiContents(req.Messages)
	if err != nil {
		return nil, err
	}

	result, err := b.client.Models.GenerateContent(ctx, req.Model, contents, toGeminiConfig(req))
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	resp := &Response{}
	for _, c := range fromGeminiResponse(result) {
		switch c.Kind {
		case ChunkText:
			resp.Text += c.Text
		case ChunkToolCall:
			resp.ToolCalls = append(resp.ToolCalls, *c.ToolCall)
		case ChunkFinish:
			resp.FinishReason = c.FinishReason
			resp.Usage = c.Usage
		}
	}
	return resp, nil
}

func (b *GeminiBackend) GenerateStream(ctx context.Context, req *Request) (<-chan Chunk, error) {
	contents, err := toGeminiContents(req.Messages)
	if err != nil {
		return nil, err
	}

	next, stop := iter.Pull2(b.client.Models.GenerateContentStream(ctx, req.Model, contents, toGeminiConfig(req)))

	// Pull the first response here so an upstream rejection is returned to the
	// caller instead of being buried in the channel.
	first, err, ok := next()
	if ok && err != nil {
		stop()
		return nil, classifyGeminiError(err)
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer stop()

		finish := Chunk{Kind: ChunkFinish}
		resp, more := first, ok
		for more {
			for _, c := range fromGeminiResponse(resp) {
				if c.Kind == ChunkFinish {
					if c.FinishReason != "" {
						finish.FinishReason = c.FinishReason
					}
					if c.Usage != (Usage{}) {
						finish.Usage = c.Usage
					}
					continue
				}
				if !send(ctx, out, c) {
					return
				}
			}

			var err error
			resp, err, more = next()
			if more && err != nil {
				send(ctx, out, ErrorChunk(classifyGeminiError(err)))
				return
			}
		}
		send(ctx, out, finish)
	}()
	return out, nil
}

func send(ctx context.Context, out chan<- Chunk, c Chunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return NewAPICallError(apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return NewAPICallError(apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return err
}

func toGeminiConfig(req *Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGeminiSchema(t.Parameters),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	if req.IncludeReasoning {
		cfg.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
	}
	return cfg
}

func toGeminiSchema(m map[string]any) *genai.Schema {
	if len(m) == 0 {
		return nil
	}
	s := &genai.Schema{}
	if t, ok := m["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				s.Properties[name] = toGeminiSchema(sub)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toGeminiSchema(items)
	}
	s.Required = stringSlice(m["required"])
	s.Enum = stringSlice(m["enum"])
	return s
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toGeminiContents(messages []Message) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := string(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = string(genai.RoleModel)
		}

		parts := make([]*genai.Part, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch {
			case p.ToolCall != nil:
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   p.ToolCall.ID,
					Name: p.ToolCall.Name,
					Args: p.ToolCall.Args,
				}})
			case p.ToolResult != nil:
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       p.ToolResult.CallID,
					Name:     p.ToolResult.Name,
					Response: p.ToolResult.Output,
				}})
			case p.File != nil:
				part, err := fileToGeminiPart(p.File)
				if err != nil {
					return nil, err
				}
				parts = append(parts, part)
			case p.Text != "":
				parts = append(parts, &genai.Part{Text: p.Text})
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, nil
}

// fileToGeminiPart inlines data URLs and references anything else by URI.
func fileToGeminiPart(f *File) (*genai.Part, error) {
	if rest, ok := strings.CutPrefix(f.URL, "data:"); ok {
		_, encoded, found := strings.Cut(rest, ";base64,")
		if !found {
			return nil, fmt.Errorf("unsupported data URL for %s attachment", f.MediaType)
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("could not decode attachment: %w", err)
		}
		return &genai.Part{InlineData: &genai.Blob{MIMEType: f.MediaType, Data: data}}, nil
	}
	return &genai.Part{FileData: &genai.FileData{MIMEType: f.MediaType, FileURI: f.URL}}, nil
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) []Chunk {
	if resp == nil {
		return nil
	}

	var chunks []Chunk
	finish := Chunk{Kind: ChunkFinish}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		cand := resp.Candidates[0]
		if cand.Content != nil {
			for _, p := range cand.Content.Parts {
				if p == nil {
					continue
				}
				switch {
				case p.FunctionCall != nil:
					id := p.FunctionCall.ID
					if id == "" {
						id = "call_" + uuid.NewString()
					}
					chunks = append(chunks, Chunk{Kind: ChunkToolCall, ToolCall: &ToolCall{
						ID:   id,
						Name: p.FunctionCall.Name,
						Args: p.FunctionCall.Args,
					}})
				case p.Thought && p.Text != "":
					chunks = append(chunks, Chunk{Kind: ChunkReasoning, Text: p.Text})
				case p.Text != "":
					chunks = append(chunks, TextChunk(p.Text))
				}
			}
		}
		finish.FinishReason = string(cand.FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		finish.Usage = Usage{InputTokens: int(u.PromptTokenCount), OutputTokens: int(u.CandidatesTokenCount)}
	}
	return append(chunks, finish)
}
