package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bible-chat/backend/internal/auth"
	app_errors "bible-chat/backend/internal/errors"
	"bible-chat/backend/internal/guardrail"
	"bible-chat/backend/internal/llm"
	mock_llm "bible-chat/backend/internal/llm/mocks"
	"bible-chat/backend/internal/model"
	"bible-chat/backend/internal/repository"
	mock_repo "bible-chat/backend/internal/repository/mocks"
	"bible-chat/backend/internal/service"
	"bible-chat/backend/internal/stream"
	"bible-chat/backend/internal/tools"
)

const (
	chatID = "3f0b4a52-6c1e-4b9f-9d7a-0b8e2d6f1a11"
	userID = "user-1"
)

var session = &auth.Session{User: auth.User{ID: userID, Type: auth.UserTypeRegular}}

type Mocks struct {
	repo    *mock_repo.MockRepository
	backend *mock_llm.MockBackend
	saved   *savedMessages
}

// savedMessages collects everything passed to SaveMessages. The assistant
// message is saved from a pipeline goroutine.
type savedMessages struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (s *savedMessages) add(args mock.Arguments) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, args.Get(1).([]model.Message)...)
}

func (s *savedMessages) all() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.msgs...)
}

func testConfig() service.ChatConfig {
	return service.ChatConfig{
		Models: service.ModelCatalog{
			Chat:      "gemini-chat",
			Reasoning: "gemini-reasoning",
			Title:     "gemini-title",
		},
		Entitlements: service.Entitlements{
			auth.UserTypeGuest:   {MaxMessagesPerDay: 2},
			auth.UserTypeRegular: {MaxMessagesPerDay: 5},
		},
	}
}

func setupChatService(t *testing.T, configure ...func(*service.ChatDeps)) (*service.ChatService, Mocks) {
	mocks := Mocks{
		repo:    mock_repo.NewMockRepository(t),
		backend: mock_llm.NewMockBackend(t),
		saved:   &savedMessages{},
	}
	deps := service.ChatDeps{
		Repo:    mocks.repo,
		Backend: mocks.backend,
	}
	for _, fn := range configure {
		fn(&deps)
	}
	return service.NewChatService(deps, testConfig()), mocks
}

func userMessage(text string) model.Message {
	return model.Message{
		ID:    "9a1c7e34-2d5b-4f60-8e1a-c3b2a1d0e9f8",
		Role:  model.RoleUser,
		Parts: []model.Part{{Type: model.PartText, Text: text}},
	}
}

func chatRequest(text string) *service.ChatRequest {
	return &service.ChatRequest{
		ID:                     chatID,
		Message:                userMessage(text),
		SelectedChatModel:      service.ModelChat,
		SelectedVisibilityType: model.VisibilityPrivate,
	}
}

func existingChat(owner string) *model.Chat {
	return &model.Chat{ID: chatID, UserID: owner, Title: "Psalms", Visibility: model.VisibilityPrivate}
}

func chunksOf(cs ...llm.Chunk) <-chan llm.Chunk {
	ch := make(chan llm.Chunk, len(cs))
	for _, c := range cs {
		ch <- c
	}
	close(ch)
	return ch
}

// expectExistingChatFlow wires the repository calls of a send on an existing
// chat owned by the session user.
func expectExistingChatFlow(m Mocks) {
	expectExistingChatFlowWithCount(m, 0)
}

func expectExistingChatFlowWithCount(m Mocks, count int) {
	m.repo.On("GetMessageCountByUserID", mock.Anything, userID, 24*time.Hour).Return(count, nil).Once()
	m.repo.On("GetChatByID", mock.Anything, chatID).Return(existingChat(userID), nil).Once()
	m.repo.On("SaveMessages", mock.Anything, mock.Anything).Run(m.saved.add).Return(nil)
	m.repo.On("GetMessagesByChatID", mock.Anything, chatID).Return([]model.Message{userMessage("Who wrote Psalm 23?")}, nil).Once()
	m.repo.On("CreateStreamID", mock.Anything, mock.AnythingOfType("string"), chatID).Return(nil).Once()
}

func readFrames(t *testing.T, ch <-chan []byte) []string {
	t.Helper()
	var frames []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return frames
			}
			frames = append(frames, string(f))
		case <-timeout:
			t.Fatal("timed out reading frames")
			return nil
		}
	}
}

func decodeEvents(t *testing.T, frames []string) []model.StreamEvent {
	t.Helper()
	var events []model.StreamEvent
	for _, f := range frames {
		if f == string(stream.DoneFrame) {
			continue
		}
		payload := bytes.TrimSuffix(bytes.TrimPrefix([]byte(f), []byte("data: ")), []byte("\n\n"))
		var ev model.StreamEvent
		require.NoError(t, json.Unmarshal(payload, &ev), "frame %q", f)
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []model.StreamEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func deltas(events []model.StreamEvent, typ string) string {
	var sb bytes.Buffer
	for _, ev := range events {
		if ev.Type == typ {
			sb.WriteString(ev.Delta)
		}
	}
	return sb.String()
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *app_errors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code())
}

func TestChatService_StartChat_RoundTrip(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	expectExistingChatFlow(mocks)

	mocks.backend.On("GenerateStream", mock.Anything, mock.MatchedBy(func(req *llm.Request) bool {
		return req.Model == "gemini-chat" && !req.IncludeReasoning && len(req.Messages) == 1
	})).Return(chunksOf(
		llm.TextChunk("The LORD is my shepherd; "),
		llm.TextChunk("I shall not want."),
		llm.Chunk{Kind: llm.ChunkFinish, FinishReason: "stop"},
	), nil).Once()

	out, err := chatService.StartChat(ctx, session, chatRequest("Who wrote Psalm 23?"))
	require.NoError(t, err)
	assert.False(t, out.Resumable)
	assert.NotEmpty(t, out.StreamID)

	frames := readFrames(t, out.Frames)
	require.NotEmpty(t, frames)
	assert.Equal(t, string(stream.DoneFrame), frames[len(frames)-1])

	events := decodeEvents(t, frames)
	assert.Equal(t, []string{
		"start", "start-step", "text-start", "text-delta", "text-delta", "text-end", "finish-step", "finish",
	}, eventTypes(events))
	assert.Equal(t, out.MessageID, events[0].MessageID)

	// The user message is stored unmodified before the reply, and the reply
	// is stored by the time the stream finishes.
	saved := mocks.saved.all()
	require.Len(t, saved, 2)
	assert.Equal(t, model.RoleUser, saved[0].Role)
	assert.Equal(t, "Who wrote Psalm 23?", saved[0].Text())
	assert.Equal(t, chatID, saved[0].ChatID)
	assert.Equal(t, model.RoleAssistant, saved[1].Role)
	assert.Equal(t, out.MessageID, saved[1].ID)
	assert.Equal(t, "The LORD is my shepherd; I shall not want.", saved[1].Text())
	require.Len(t, saved[1].Parts, 1, "consecutive text chunks merge into one part")
}

func TestChatService_StartChat_Quota(t *testing.T) {
	ctx := context.Background()

	t.Run("Rejected at the limit", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		mocks.repo.On("GetMessageCountByUserID", mock.Anything, userID, 24*time.Hour).Return(5, nil).Once()

		_, err := chatService.StartChat(ctx, session, chatRequest("hello"))
		assert.ErrorIs(t, err, app_errors.ErrRateLimit)
		assertCode(t, err, "rate_limit:chat")
		mocks.repo.AssertNotCalled(t, "SaveMessages", mock.Anything, mock.Anything)
	})

	t.Run("Accepted one below the limit", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		expectExistingChatFlowWithCount(mocks, 4)
		mocks.backend.On("GenerateStream", mock.Anything, mock.Anything).Return(chunksOf(llm.TextChunk("Amen")), nil).Once()

		out, err := chatService.StartChat(ctx, session, chatRequest("hello"))
		require.NoError(t, err)
		readFrames(t, out.Frames)
	})

	t.Run("Guests get the guest limit", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		guest := &auth.Session{User: auth.User{ID: userID, Type: auth.UserTypeGuest}}
		mocks.repo.On("GetMessageCountByUserID", mock.Anything, userID, 24*time.Hour).Return(2, nil).Once()

		_, err := chatService.StartChat(ctx, guest, chatRequest("hello"))
		assert.ErrorIs(t, err, app_errors.ErrRateLimit)
	})

	t.Run("Count failure is internal", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		mocks.repo.On("GetMessageCountByUserID", mock.Anything, userID, 24*time.Hour).Return(0, errors.New("db down")).Once()

		_, err := chatService.StartChat(ctx, session, chatRequest("hello"))
		assert.ErrorIs(t, err, app_errors.ErrInternal)
	})
}

func TestChatService_StartChat_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("No session", func(t *testing.T) {
		chatService, _ := setupChatService(t)
		_, err := chatService.StartChat(ctx, nil, chatRequest("hello"))
		assertCode(t, err, "unauthorized:chat")
	})

	t.Run("Unknown model", func(t *testing.T) {
		chatService, _ := setupChatService(t)
		req := chatRequest("hello")
		req.SelectedChatModel = "gpt-4"
		_, err := chatService.StartChat(ctx, session, req)
		assertCode(t, err, "bad_request:api")
	})

	t.Run("Chat owned by someone else", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		mocks.repo.On("GetMessageCountByUserID", mock.Anything, userID, 24*time.Hour).Return(0, nil).Once()
		mocks.repo.On("GetChatByID", mock.Anything, chatID).Return(existingChat("user-2"), nil).Once()

		_, err := chatService.StartChat(ctx, session, chatRequest("hello"))
		assertCode(t, err, "forbidden:chat")
		mocks.repo.AssertNotCalled(t, "SaveMessages", mock.Anything, mock.Anything)
	})

	t.Run("Inbound save failure", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		mocks.repo.On("GetMessageCountByUserID", mock.Anything, userID, 24*time.Hour).Return(0, nil).Once()
		mocks.repo.On("GetChatByID", mock.Anything, chatID).Return(existingChat(userID), nil).Once()
		mocks.repo.On("SaveMessages", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

		_, err := chatService.StartChat(ctx, session, chatRequest("hello"))
		assert.ErrorIs(t, err, app_errors.ErrInternal)
		mocks.backend.AssertNotCalled(t, "GenerateStream", mock.Anything, mock.Anything)
	})
}

func TestChatService_StartChat_NewChat(t *testing.T) {
	ctx := context.Background()

	expectNewChat := func(m Mocks) *model.Chat {
		var created model.Chat
		m.repo.On("GetMessageCountByUserID", mock.Anything, userID, 24*time.Hour).Return(0, nil).Once()
		m.repo.On("GetChatByID", mock.Anything, chatID).Return(nil, repository.ErrNotFound).Once()
		m.repo.On("SaveChat", mock.Anything, mock.AnythingOfType("*model.Chat")).Run(func(args mock.Arguments) {
			created = *args.Get(1).(*model.Chat)
		}).Return(nil).Once()
		m.repo.On("SaveMessages", mock.Anything, mock.Anything).Run(m.saved.add).Return(nil)
		m.repo.On("GetMessagesByChatID", mock.Anything, chatID).Return([]model.Message{userMessage("Tell me about Ruth")}, nil).Once()
		m.repo.On("CreateStreamID", mock.Anything, mock.AnythingOfType("string"), chatID).Return(nil).Once()
		m.backend.On("GenerateStream", mock.Anything, mock.Anything).Return(chunksOf(llm.TextChunk("Ruth was a Moabite.")), nil).Once()
		return &created
	}

	t.Run("Title from the title model", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		created := expectNewChat(mocks)
		mocks.backend.On("Generate", mock.Anything, mock.MatchedBy(func(req *llm.Request) bool {
			return req.Model == "gemini-title"
		})).Return(&llm.Response{Text: "\"The Story of Ruth\"\n"}, nil).Once()

		req := chatRequest("Tell me about Ruth")
		req.SelectedVisibilityType = model.VisibilityPublic
		out, err := chatService.StartChat(ctx, session, req)
		require.NoError(t, err)
		readFrames(t, out.Frames)

		assert.Equal(t, "The Story of Ruth", created.Title)
		assert.Equal(t, userID, created.UserID)
		assert.Equal(t, model.VisibilityPublic, created.Visibility)
	})

	t.Run("Title falls back to message text", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		created := expectNewChat(mocks)
		mocks.backend.On("Generate", mock.Anything, mock.Anything).Return(nil, llm.NewAPICallError(503, "unavailable", nil)).Once()

		out, err := chatService.StartChat(ctx, session, chatRequest("Tell me about Ruth"))
		require.NoError(t, err)
		readFrames(t, out.Frames)

		assert.Equal(t, "Tell me about Ruth", created.Title)
	})
}

func TestChatService_StartChat_GuardrailSubstitutes(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t, func(d *service.ChatDeps) {
		d.Guardrail = guardrail.New()
	})
	expectExistingChatFlow(mocks)
	mocks.backend.On("GenerateStream", mock.Anything, mock.Anything).Return(chunksOf(
		llm.TextChunk("John 3:16 says God loved the world. "),
		llm.TextChunk("talk of violence here"),
	), nil).Once()

	out, err := chatService.StartChat(ctx, session, chatRequest("hello"))
	require.NoError(t, err)
	events := decodeEvents(t, readFrames(t, out.Frames))

	assert.Equal(t, "John 3:16 says God loved the world. "+guardrail.SafetyNotice, deltas(events, model.EventTextDelta))

	saved := mocks.saved.all()
	require.Len(t, saved, 2)
	assert.Equal(t, "John 3:16 says God loved the world. "+guardrail.SafetyNotice, saved[1].Text())
}

func TestChatService_StartChat_GenerationError(t *testing.T) {
	ctx := context.Background()

	t.Run("Backend fails to open", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		expectExistingChatFlow(mocks)
		mocks.backend.On("GenerateStream", mock.Anything, mock.Anything).
			Return(nil, llm.NewAPICallError(429, "quota", nil)).Once()

		out, err := chatService.StartChat(ctx, session, chatRequest("hello"))
		require.NoError(t, err, "generation failures are reported in-band")

		events := decodeEvents(t, readFrames(t, out.Frames))
		last := events[len(events)-1]
		assert.Equal(t, model.EventError, last.Type)
		assert.Equal(t, stream.ErrorText, last.ErrorText)

		saved := mocks.saved.all()
		require.Len(t, saved, 1, "partial replies are not persisted")
	})

	t.Run("Backend fails mid-stream", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		expectExistingChatFlow(mocks)
		mocks.backend.On("GenerateStream", mock.Anything, mock.Anything).Return(chunksOf(
			llm.TextChunk("In the beginning"),
			llm.ErrorChunk(errors.New("connection reset")),
		), nil).Once()

		out, err := chatService.StartChat(ctx, session, chatRequest("hello"))
		require.NoError(t, err)

		events := decodeEvents(t, readFrames(t, out.Frames))
		assert.Contains(t, eventTypes(events), model.EventTextDelta)
		assert.Equal(t, model.EventError, events[len(events)-1].Type)
		assert.Len(t, mocks.saved.all(), 1)
	})
}

type verseTool struct{}

func (verseTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{Name: "lookupVerse", Description: "Looks up a verse", Parameters: map[string]any{"type": "object"}}
}

func (verseTool) Execute(_ context.Context, args map[string]any) (map[string]any, error) {
	return map[string]any{"text": "Jesus wept.", "ref": args["ref"]}, nil
}

func TestChatService_StartChat_ToolSteps(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t, func(d *service.ChatDeps) {
		d.Tools = tools.NewRegistry(verseTool{})
	})
	expectExistingChatFlow(mocks)

	var requests []*llm.Request
	step := 0
	mocks.backend.On("GenerateStream", mock.Anything, mock.Anything).Return(
		func(_ context.Context, req *llm.Request) (<-chan llm.Chunk, error) {
			requests = append(requests, req)
			step++
			if step == 1 {
				return chunksOf(
					llm.Chunk{Kind: llm.ChunkToolCall, ToolCall: &llm.ToolCall{ID: "call_1", Name: "lookupVerse", Args: map[string]any{"ref": "John 11:35"}}},
					llm.Chunk{Kind: llm.ChunkFinish, FinishReason: "tool-calls"},
				), nil
			}
			return chunksOf(llm.TextChunk("The shortest verse is John 11:35."), llm.Chunk{Kind: llm.ChunkFinish}), nil
		},
	).Twice()

	out, err := chatService.StartChat(ctx, session, chatRequest("What is the shortest verse?"))
	require.NoError(t, err)
	events := decodeEvents(t, readFrames(t, out.Frames))

	assert.Equal(t, []string{
		"start",
		"start-step", "tool-input-available", "tool-output-available", "finish-step",
		"start-step", "text-start", "text-delta", "text-end", "finish-step",
		"finish",
	}, eventTypes(events))

	require.Len(t, requests, 2)
	require.Len(t, requests[0].Tools, 1)
	assert.Equal(t, "lookupVerse", requests[0].Tools[0].Name)

	second := requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, llm.RoleAssistant, second[1].Role)
	require.NotNil(t, second[1].Parts[0].ToolCall)
	assert.Equal(t, llm.RoleTool, second[2].Role)
	require.NotNil(t, second[2].Parts[0].ToolResult)
	assert.Equal(t, "Jesus wept.", second[2].Parts[0].ToolResult.Output["text"])

	saved := mocks.saved.all()
	require.Len(t, saved, 2)
	parts := saved[1].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "tool-lookupVerse", parts[0].Type)
	assert.Equal(t, "call_1", parts[0].ToolCallID)
	assert.JSONEq(t, `{"ref":"John 11:35"}`, string(parts[0].Input))
	assert.JSONEq(t, `{"ref":"John 11:35","text":"Jesus wept."}`, string(parts[0].Output))
	assert.Equal(t, "The shortest verse is John 11:35.", parts[1].Text)
}

func TestChatService_StartChat_ReasoningModelDisablesTools(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t, func(d *service.ChatDeps) {
		d.Tools = tools.NewRegistry(verseTool{})
	})
	expectExistingChatFlow(mocks)
	mocks.backend.On("GenerateStream", mock.Anything, mock.MatchedBy(func(req *llm.Request) bool {
		return req.Model == "gemini-reasoning" && req.IncludeReasoning && len(req.Tools) == 0
	})).Return(chunksOf(
		llm.Chunk{Kind: llm.ChunkReasoning, Text: "Consider Genesis 1."},
		llm.TextChunk("God created the heavens and the earth."),
	), nil).Once()

	req := chatRequest("How did creation begin?")
	req.SelectedChatModel = service.ModelReasoning
	out, err := chatService.StartChat(ctx, session, req)
	require.NoError(t, err)
	events := decodeEvents(t, readFrames(t, out.Frames))

	assert.Equal(t, "Consider Genesis 1.", deltas(events, model.EventReasoningDelta))
	saved := mocks.saved.all()
	require.Len(t, saved, 2)
	assert.Equal(t, model.PartReasoning, saved[1].Parts[0].Type)
}

func TestChatService_StartChat_PersonaAndContextInPrompt(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	expectExistingChatFlow(mocks)

	var system string
	mocks.backend.On("GenerateStream", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		system = args.Get(1).(*llm.Request).System
	}).Return(chunksOf(llm.TextChunk("Shalom")), nil).Once()

	req := chatRequest("hello")
	req.SelectedPersonaID = "moses"
	req.Hints.City = "Jerusalem"
	out, err := chatService.StartChat(ctx, session, req)
	require.NoError(t, err)
	readFrames(t, out.Frames)

	assert.Contains(t, system, "Persona: Moses")
	assert.Contains(t, system, "- city: Jerusalem")
}

type failingStore struct{ stream.Store }

func (failingStore) Create(context.Context, string) (bool, error) {
	return false, errors.New("redis unavailable")
}

func TestChatService_StartChat_Resumable(t *testing.T) {
	ctx := context.Background()

	t.Run("Registered stream can be resumed", func(t *testing.T) {
		registry := stream.NewRegistry(stream.NewMemoryStore(time.Hour, time.Now), stream.RegistryConfig{PollInterval: 10 * time.Millisecond})
		chatService, mocks := setupChatService(t, func(d *service.ChatDeps) { d.Streams = registry })
		expectExistingChatFlow(mocks)
		mocks.backend.On("GenerateStream", mock.Anything, mock.Anything).Return(chunksOf(llm.TextChunk("Grace and peace")), nil).Once()

		out, err := chatService.StartChat(ctx, session, chatRequest("hello"))
		require.NoError(t, err)
		assert.True(t, out.Resumable)
		live := readFrames(t, out.Frames)

		mocks.repo.On("GetChatByID", mock.Anything, chatID).Return(existingChat(userID), nil).Once()
		mocks.repo.On("GetStreamIDsByChatID", mock.Anything, chatID).Return([]string{"older", out.StreamID}, nil).Once()

		resumed, err := chatService.ResumeStream(ctx, session, chatID)
		require.NoError(t, err)
		require.NotNil(t, resumed)
		assert.Equal(t, out.StreamID, resumed.StreamID)
		assert.Equal(t, live, readFrames(t, resumed.Frames))
	})

	t.Run("Registry failure falls back to raw stream", func(t *testing.T) {
		registry := stream.NewRegistry(failingStore{}, stream.RegistryConfig{})
		chatService, mocks := setupChatService(t, func(d *service.ChatDeps) { d.Streams = registry })
		expectExistingChatFlow(mocks)
		mocks.backend.On("GenerateStream", mock.Anything, mock.Anything).Return(chunksOf(llm.TextChunk("Grace and peace")), nil).Once()

		out, err := chatService.StartChat(ctx, session, chatRequest("hello"))
		require.NoError(t, err)
		assert.False(t, out.Resumable)
		frames := readFrames(t, out.Frames)
		assert.Equal(t, string(stream.DoneFrame), frames[len(frames)-1])
	})
}

func TestChatService_ResumeStream(t *testing.T) {
	ctx := context.Background()

	t.Run("No registry", func(t *testing.T) {
		chatService, _ := setupChatService(t)
		out, err := chatService.ResumeStream(ctx, session, chatID)
		assert.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("No streams for chat", func(t *testing.T) {
		registry := stream.NewRegistry(stream.NewMemoryStore(time.Hour, time.Now), stream.RegistryConfig{})
		chatService, mocks := setupChatService(t, func(d *service.ChatDeps) { d.Streams = registry })
		mocks.repo.On("GetChatByID", mock.Anything, chatID).Return(existingChat(userID), nil).Once()
		mocks.repo.On("GetStreamIDsByChatID", mock.Anything, chatID).Return([]string{}, nil).Once()

		out, err := chatService.ResumeStream(ctx, session, chatID)
		assert.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("Private chat of another user", func(t *testing.T) {
		registry := stream.NewRegistry(stream.NewMemoryStore(time.Hour, time.Now), stream.RegistryConfig{})
		chatService, mocks := setupChatService(t, func(d *service.ChatDeps) { d.Streams = registry })
		mocks.repo.On("GetChatByID", mock.Anything, chatID).Return(existingChat("user-2"), nil).Once()

		_, err := chatService.ResumeStream(ctx, session, chatID)
		assert.ErrorIs(t, err, app_errors.ErrForbidden)
	})
}

func TestChatService_DeleteChat(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		chat := existingChat(userID)
		mocks.repo.On("GetChatByID", ctx, chatID).Return(chat, nil).Once()
		mocks.repo.On("DeleteChatByID", ctx, chatID).Return(chat, nil).Once()

		deleted, err := chatService.DeleteChat(ctx, session, chatID)
		require.NoError(t, err)
		assert.Equal(t, chat, deleted)
	})

	t.Run("Forbidden for another user and nothing is deleted", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		mocks.repo.On("GetChatByID", ctx, chatID).Return(existingChat("user-2"), nil).Once()

		_, err := chatService.DeleteChat(ctx, session, chatID)
		assertCode(t, err, "forbidden:chat")
		mocks.repo.AssertNotCalled(t, "DeleteChatByID", mock.Anything, mock.Anything)
	})

	t.Run("Public chats are still only deletable by the owner", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		chat := existingChat("user-2")
		chat.Visibility = model.VisibilityPublic
		mocks.repo.On("GetChatByID", ctx, chatID).Return(chat, nil).Once()

		_, err := chatService.DeleteChat(ctx, session, chatID)
		assert.ErrorIs(t, err, app_errors.ErrForbidden)
	})

	t.Run("Not found", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		mocks.repo.On("GetChatByID", ctx, chatID).Return(nil, repository.ErrNotFound).Once()

		_, err := chatService.DeleteChat(ctx, session, chatID)
		assertCode(t, err, "not_found:chat")
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		chatService, _ := setupChatService(t)
		_, err := chatService.DeleteChat(ctx, nil, chatID)
		assert.ErrorIs(t, err, app_errors.ErrUnauthorized)
	})
}

func TestChatService_ListChats(t *testing.T) {
	ctx := context.Background()

	t.Run("Clamps the limit", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		chats := []*model.Chat{existingChat(userID)}
		mocks.repo.On("GetChatsByUserID", ctx, userID, 100).Return(chats, nil).Once()

		got, err := chatService.ListChats(ctx, session, 1000)
		require.NoError(t, err)
		assert.Equal(t, chats, got)
	})

	t.Run("Defaults the limit and never returns nil", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		mocks.repo.On("GetChatsByUserID", ctx, userID, 20).Return(nil, nil).Once()

		got, err := chatService.ListChats(ctx, session, 0)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		chatService, _ := setupChatService(t)
		_, err := chatService.ListChats(ctx, nil, 10)
		assertCode(t, err, "unauthorized:history")
	})
}

func TestChatService_GetChatMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("Public chat of another user", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		chat := existingChat("user-2")
		chat.Visibility = model.VisibilityPublic
		messages := []model.Message{userMessage("hello")}
		mocks.repo.On("GetChatByID", ctx, chatID).Return(chat, nil).Once()
		mocks.repo.On("GetMessagesByChatID", ctx, chatID).Return(messages, nil).Once()

		got, err := chatService.GetChatMessages(ctx, session, chatID)
		require.NoError(t, err)
		assert.Equal(t, messages, got)
	})

	t.Run("Private chat of another user", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		mocks.repo.On("GetChatByID", ctx, chatID).Return(existingChat("user-2"), nil).Once()

		_, err := chatService.GetChatMessages(ctx, session, chatID)
		assert.ErrorIs(t, err, app_errors.ErrForbidden)
	})
}

func TestChatService_Personas(t *testing.T) {
	chatService, _ := setupChatService(t)
	personas := chatService.Personas()
	require.NotEmpty(t, personas)
	assert.Equal(t, "bible-chat", personas[0].ID)
}
