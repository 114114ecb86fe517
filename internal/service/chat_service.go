package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bible-chat/backend/internal/auth"
	app_errors "bible-chat/backend/internal/errors"
	"bible-chat/backend/internal/guardrail"
	"bible-chat/backend/internal/llm"
	"bible-chat/backend/internal/logger"
	"bible-chat/backend/internal/model"
	"bible-chat/backend/internal/persona"
	"bible-chat/backend/internal/prompt"
	"bible-chat/backend/internal/repository"
	"bible-chat/backend/internal/retrieval"
	"bible-chat/backend/internal/stream"
	"bible-chat/backend/internal/tools"
)

// ChatConfig tunes a ChatService.
type ChatConfig struct {
	Models       ModelCatalog
	Entitlements Entitlements
	// MaxHistoryTokens bounds the history sent to the model. Zero disables
	// trimming.
	MaxHistoryTokens int
	// MaxSteps bounds the number of model calls in one generation.
	MaxSteps    int
	QuotaWindow time.Duration
}

// ChatDeps are the collaborators of a ChatService. Retriever, Tools and
// Streams are optional.
type ChatDeps struct {
	Repo      repository.Repository
	Backend   llm.Backend
	Personas  *persona.Registry
	Retriever retrieval.Retriever
	Guardrail *guardrail.Guardrail
	Tools     *tools.Registry
	Streams   *stream.Registry
	Tokens    TokenCounter
	Now       func() time.Time
}

type ChatService struct {
	repo      repository.Repository
	backend   llm.Backend
	personas  *persona.Registry
	composer  *prompt.Composer
	retriever retrieval.Retriever
	guard     *guardrail.Guardrail
	tools     *tools.Registry
	streams   *stream.Registry
	tokens    TokenCounter
	now       func() time.Time
	tracer    trace.Tracer
	cfg       ChatConfig
}

// ChatRequest is a validated request to send a message.
type ChatRequest struct {
	ID                     string
	Message                model.Message
	SelectedChatModel      string
	SelectedVisibilityType model.Visibility
	SelectedPersonaID      string
	Hints                  prompt.RequestHints
}

// ChatStream is the response to a chat request or a resume.
type ChatStream struct {
	StreamID  string
	ChatID    string
	MessageID string
	// Frames yields SSE frames and closes after the [DONE] frame or when
	// the caller's context is done.
	Frames <-chan []byte
	// Resumable reports whether the frames are buffered in the registry.
	Resumable bool
}

func NewChatService(deps ChatDeps, cfg ChatConfig) *ChatService {
	if deps.Personas == nil {
		deps.Personas = persona.Canonical()
	}
	if deps.Guardrail == nil {
		deps.Guardrail = guardrail.New()
	}
	if deps.Tokens == nil {
		deps.Tokens = ApproxCounter{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.Entitlements == nil {
		cfg.Entitlements = DefaultEntitlements()
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 5
	}
	if cfg.QuotaWindow <= 0 {
		cfg.QuotaWindow = 24 * time.Hour
	}
	return &ChatService{
		repo:      deps.Repo,
		backend:   deps.Backend,
		personas:  deps.Personas,
		composer:  prompt.NewComposer(deps.Personas),
		retriever: deps.Retriever,
		guard:     deps.Guardrail,
		tools:     deps.Tools,
		streams:   deps.Streams,
		tokens:    deps.Tokens,
		now:       deps.Now,
		tracer:    otel.Tracer("bible-chat/backend/internal/service"),
		cfg:       cfg,
	}
}

// Personas lists the personas a client may select.
func (s *ChatService) Personas() []persona.Persona {
	return s.personas.All()
}

// StartChat records the user's message and starts generating the reply. Any
// error returned is a classified *errors.Error; failures after generation
// starts are reported inside the stream.
func (s *ChatService) StartChat(ctx context.Context, session *auth.Session, req *ChatRequest) (*ChatStream, error) {
	ctx, span := s.tracer.Start(ctx, "chat.start", trace.WithAttributes(
		attribute.String("chat.id", req.ID),
		attribute.String("chat.model", req.SelectedChatModel),
	))
	defer span.End()

	if session == nil {
		return nil, app_errors.New(app_errors.ErrUnauthorized, app_errors.SurfaceChat)
	}
	user := session.User
	log := logger.FromContext(ctx).With("chat_id", req.ID, "user_id", user.ID)
	ctx = logger.WithContext(ctx, log)

	modelName, ok := s.cfg.Models.Resolve(req.SelectedChatModel)
	if !ok {
		return nil, app_errors.New(app_errors.ErrBadRequest, app_errors.SurfaceAPI)
	}

	// Quota
	count, err := s.repo.GetMessageCountByUserID(ctx, user.ID, s.cfg.QuotaWindow)
	if err != nil {
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceChat, fmt.Errorf("count messages: %w", err))
	}
	if limit := s.cfg.Entitlements.For(user.Type).MaxMessagesPerDay; count >= limit {
		log.Info("Daily message quota reached", "count", count, "limit", limit)
		return nil, app_errors.New(app_errors.ErrRateLimit, app_errors.SurfaceChat)
	}

	// Chat
	chat, err := s.repo.GetChatByID(ctx, req.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		visibility := req.SelectedVisibilityType
		if visibility == "" {
			visibility = model.VisibilityPrivate
		}
		chat = &model.Chat{
			ID:         req.ID,
			UserID:     user.ID,
			Title:      s.generateTitle(ctx, req.Message.Text()),
			Visibility: visibility,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.repo.SaveChat(ctx, chat); err != nil {
			return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceChat, fmt.Errorf("save chat: %w", err))
		}
		log.Info("Created chat", "title", chat.Title)
	case err != nil:
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceChat, fmt.Errorf("get chat: %w", err))
	case chat.UserID != user.ID:
		return nil, app_errors.New(app_errors.ErrForbidden, app_errors.SurfaceChat)
	}

	// Inbound message
	userMessage := req.Message
	userMessage.ChatID = chat.ID
	userMessage.Role = model.RoleUser
	userMessage.Attachments = attachmentsOf(userMessage.Parts)
	if userMessage.Attachments == nil {
		userMessage.Attachments = []model.Attachment{}
	}
	userMessage.CreatedAt = s.now().UTC()
	if err := s.repo.SaveMessages(ctx, []model.Message{userMessage}); err != nil {
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceChat, fmt.Errorf("save user message: %w", err))
	}

	history, err := s.repo.GetMessagesByChatID(ctx, chat.ID)
	if err != nil {
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceChat, fmt.Errorf("load history: %w", err))
	}
	trimmed := TrimHistory(s.tokens, history, s.cfg.MaxHistoryTokens)
	if dropped := len(history) - len(trimmed); dropped > 0 {
		log.Debug("Trimmed history to token budget", "dropped", dropped, "budget", s.cfg.MaxHistoryTokens)
	}

	system := s.composer.Compose(
		req.SelectedPersonaID,
		retrieval.Safe(ctx, s.retriever, userMessage.Text()),
		req.Hints,
	)

	streamID := uuid.NewString()
	if err := s.repo.CreateStreamID(ctx, streamID, chat.ID); err != nil {
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceChat, fmt.Errorf("create stream id: %w", err))
	}

	llmReq := &llm.Request{
		Model:    modelName,
		System:   system,
		Messages: toLLMMessages(trimmed),
	}
	if req.SelectedChatModel == ModelReasoning {
		llmReq.IncludeReasoning = true
	} else {
		llmReq.Tools = s.tools.Specs()
	}

	messageID := uuid.NewString()
	span.SetAttributes(attribute.String("chat.stream_id", streamID))
	produce := func(pctx context.Context) <-chan []byte {
		chunks := s.record(pctx, chat.ID, messageID, s.guard.Filter(pctx, s.generate(pctx, llmReq)))
		return stream.Frames(pctx, stream.Events(pctx, messageID, chunks))
	}

	out := &ChatStream{StreamID: streamID, ChatID: chat.ID, MessageID: messageID}
	if s.streams != nil {
		frames, err := s.streams.Resumable(ctx, streamID, produce)
		if err == nil {
			out.Frames = frames
			out.Resumable = true
			return out, nil
		}
		log.Warn("Stream registry unavailable, streaming without resumption", "error", err)
	}
	out.Frames = produce(ctx)
	return out, nil
}

// DeleteChat deletes a chat owned by the session user and returns it.
func (s *ChatService) DeleteChat(ctx context.Context, session *auth.Session, id string) (*model.Chat, error) {
	if session == nil {
		return nil, app_errors.New(app_errors.ErrUnauthorized, app_errors.SurfaceChat)
	}
	if _, err := s.ownedChat(ctx, session, id, false); err != nil {
		return nil, err
	}

	deleted, err := s.repo.DeleteChatByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, app_errors.New(app_errors.ErrNotFound, app_errors.SurfaceChat)
	}
	if err != nil {
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceChat, fmt.Errorf("delete chat: %w", err))
	}
	logger.FromContext(ctx).Info("Deleted chat", "chat_id", id, "user_id", session.User.ID)
	return deleted, nil
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ListChats returns the session user's chats, newest first.
func (s *ChatService) ListChats(ctx context.Context, session *auth.Session, limit int) ([]*model.Chat, error) {
	if session == nil {
		return nil, app_errors.New(app_errors.ErrUnauthorized, app_errors.SurfaceHistory)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	chats, err := s.repo.GetChatsByUserID(ctx, session.User.ID, limit)
	if err != nil {
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceHistory, fmt.Errorf("list chats: %w", err))
	}
	if chats == nil {
		chats = []*model.Chat{}
	}
	return chats, nil
}

// GetChatMessages returns the messages of a chat the session user owns or
// that is public.
func (s *ChatService) GetChatMessages(ctx context.Context, session *auth.Session, id string) ([]model.Message, error) {
	if session == nil {
		return nil, app_errors.New(app_errors.ErrUnauthorized, app_errors.SurfaceChat)
	}
	if _, err := s.ownedChat(ctx, session, id, true); err != nil {
		return nil, err
	}
	messages, err := s.repo.GetMessagesByChatID(ctx, id)
	if err != nil {
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceChat, fmt.Errorf("get messages: %w", err))
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

// ResumeStream replays the latest stream of a chat. It returns a nil stream
// when resumption is disabled or there is nothing to resume.
func (s *ChatService) ResumeStream(ctx context.Context, session *auth.Session, chatID string) (*ChatStream, error) {
	if session == nil {
		return nil, app_errors.New(app_errors.ErrUnauthorized, app_errors.SurfaceStream)
	}
	if s.streams == nil {
		return nil, nil
	}
	if _, err := s.ownedChat(ctx, session, chatID, true); err != nil {
		return nil, err
	}

	ids, err := s.repo.GetStreamIDsByChatID(ctx, chatID)
	if err != nil {
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceStream, fmt.Errorf("get stream ids: %w", err))
	}
	if len(ids) == 0 {
		return nil, nil
	}
	streamID := ids[len(ids)-1]

	frames, ok, err := s.streams.Resume(ctx, streamID)
	if err != nil {
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceStream, fmt.Errorf("resume stream: %w", err))
	}
	if !ok {
		return nil, nil
	}
	return &ChatStream{StreamID: streamID, ChatID: chatID, Frames: frames, Resumable: true}, nil
}

// ownedChat loads a chat and checks that the session user may access it.
// Public chats are readable by anyone when allowPublic is set.
func (s *ChatService) ownedChat(ctx context.Context, session *auth.Session, id string, allowPublic bool) (*model.Chat, error) {
	chat, err := s.repo.GetChatByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, app_errors.New(app_errors.ErrNotFound, app_errors.SurfaceChat)
	}
	if err != nil {
		return nil, app_errors.Wrap(app_errors.ErrInternal, app_errors.SurfaceChat, fmt.Errorf("get chat: %w", err))
	}
	if chat.UserID == session.User.ID {
		return chat, nil
	}
	if allowPublic && chat.Visibility == model.VisibilityPublic {
		return chat, nil
	}
	return nil, app_errors.New(app_errors.ErrForbidden, app_errors.SurfaceChat)
}
