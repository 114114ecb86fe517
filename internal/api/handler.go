package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bible-chat/backend/internal/auth"
	app_errors "bible-chat/backend/internal/errors"
	"bible-chat/backend/internal/interfaces"
	"bible-chat/backend/internal/logger"
	"bible-chat/backend/internal/model"
	"bible-chat/backend/internal/prompt"
	"bible-chat/backend/internal/service"
)

// Headers set by the edge with the geolocation of the caller.
const (
	headerLatitude  = "X-Vercel-IP-Latitude"
	headerLongitude = "X-Vercel-IP-Longitude"
	headerCity      = "X-Vercel-IP-City"
	headerCountry   = "X-Vercel-IP-Country"
)

// ChatHandler serves the chat API.
type ChatHandler struct {
	service   interfaces.ChatService
	auth      auth.Authenticator
	heartbeat time.Duration
}

// NewChatHandler creates a handler. A non-positive heartbeat disables SSE
// keep-alive comments.
func NewChatHandler(svc interfaces.ChatService, authn auth.Authenticator, heartbeat time.Duration) *ChatHandler {
	return &ChatHandler{service: svc, auth: authn, heartbeat: heartbeat}
}

// session resolves the caller's session, or returns an unauthorized error on
// the given surface.
func (h *ChatHandler) session(r *http.Request, surface app_errors.Surface) (*auth.Session, error) {
	s, err := h.auth.Authenticate(r)
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			logger.FromContext(r.Context()).Debug("Rejected credentials", "error", err)
		}
		return nil, app_errors.Wrap(app_errors.ErrUnauthorized, surface, err)
	}
	return s, nil
}

// HandlePostChat godoc
// @Summary      Send a message
// @Description  Records the user's message and streams the assistant's reply as server-sent events.
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body  PostChatRequest  true  "Chat request"
// @Success      200
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Router       /api/chat [post]
func (h *ChatHandler) HandlePostChat(w http.ResponseWriter, r *http.Request) {
	var body PostChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, r, app_errors.Wrap(app_errors.ErrBadRequest, app_errors.SurfaceAPI, err))
		return
	}
	if err := validateRequest(&body); err != nil {
		respondWithError(w, r, err)
		return
	}

	session, err := h.session(r, app_errors.SurfaceChat)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	out, err := h.service.StartChat(r.Context(), session, &service.ChatRequest{
		ID:                     body.ID,
		Message:                body.Message.toModel(),
		SelectedChatModel:      body.SelectedChatModel,
		SelectedVisibilityType: model.Visibility(body.SelectedVisibilityType),
		SelectedPersonaID:      body.SelectedPersonaID,
		Hints:                  hintsFrom(r),
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	h.streamFrames(w, r, out)
}

func hintsFrom(r *http.Request) prompt.RequestHints {
	return prompt.RequestHints{
		Latitude:  r.Header.Get(headerLatitude),
		Longitude: r.Header.Get(headerLongitude),
		City:      r.Header.Get(headerCity),
		Country:   r.Header.Get(headerCountry),
	}
}

// HandleDeleteChat godoc
// @Summary      Delete a chat
// @Description  Deletes a chat owned by the caller with all its messages and returns it.
// @Tags         Chat
// @Produce      json
// @Param        id   query     string  true  "Chat ID"
// @Success      200  {object}  model.Chat
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/chat [delete]
func (h *ChatHandler) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondWithError(w, r, app_errors.New(app_errors.ErrBadRequest, app_errors.SurfaceAPI).WithMessage("Parameter id is required."))
		return
	}

	session, err := h.session(r, app_errors.SurfaceChat)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	chat, err := h.service.DeleteChat(r.Context(), session, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, chat)
}

// HandleResumeStream godoc
// @Summary      Resume a chat stream
// @Description  Replays the latest generation of a chat from the start and follows it until it finishes.
// @Tags         Chat
// @Produce      text/event-stream
// @Param        chatID  path  string  true  "Chat ID"
// @Success      200
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/chat/{chatID}/stream [get]
func (h *ChatHandler) HandleResumeStream(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r, app_errors.SurfaceStream)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	out, err := h.service.ResumeStream(r.Context(), session, chi.URLParam(r, "chatID"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.streamFrames(w, r, out)
}

// HandleGetMessages godoc
// @Summary      List chat messages
// @Tags         Chat
// @Produce      json
// @Param        chatID  path  string  true  "Chat ID"
// @Success      200  {array}   model.Message
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/chat/{chatID}/messages [get]
func (h *ChatHandler) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r, app_errors.SurfaceChat)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	messages, err := h.service.GetChatMessages(r.Context(), session, chi.URLParam(r, "chatID"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, messages)
}

// HandleGetHistory godoc
// @Summary      List chats
// @Description  Lists the caller's chats, newest first.
// @Tags         History
// @Produce      json
// @Param        limit  query  int  false  "Maximum number of chats"
// @Success      200  {array}   model.Chat
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /api/history [get]
func (h *ChatHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, r, app_errors.New(app_errors.ErrBadRequest, app_errors.SurfaceAPI).WithMessage("Parameter limit must be a positive integer."))
			return
		}
		limit = n
	}

	session, err := h.session(r, app_errors.SurfaceHistory)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	chats, err := h.service.ListChats(r.Context(), session, limit)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, chats)
}

// HandleGetPersonas godoc
// @Summary      List personas
// @Tags         Personas
// @Produce      json
// @Success      200  {array}  persona.Persona
// @Router       /api/personas [get]
func (h *ChatHandler) HandleGetPersonas(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, r, http.StatusOK, h.service.Personas())
}

// streamFrames writes SSE frames to the client until the stream ends or the
// client disconnects, with keep-alive comments in between.
func (h *ChatHandler) streamFrames(w http.ResponseWriter, r *http.Request, out *service.ChatStream) {
	log := logger.FromContext(r.Context()).With("stream_id", out.StreamID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Stream-Id", out.StreamID)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}
	flush()

	var heartbeat <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			log.Debug("Client disconnected from stream")
			return
		case <-heartbeat:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				log.Debug("Failed to write heartbeat", "error", err)
				return
			}
			flush()
		case frame, ok := <-out.Frames:
			if !ok {
				log.Debug("Finished streaming response")
				return
			}
			if _, err := w.Write(frame); err != nil {
				log.Warn("Failed to write stream frame, client might have disconnected", "error", err)
				return
			}
			flush()
		}
	}
}
