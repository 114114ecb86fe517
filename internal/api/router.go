package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "bible-chat/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates and configures a new chi router with all the application's routes.
func NewRouter(chatHandler *ChatHandler) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	// These are applied to every request.
	r.Use(middleware.RequestID) // Injects a unique request ID into the context.
	r.Use(middleware.RealIP)    // Sets the remote address to the real IP from proxy headers.
	r.Use(RequestLogger)        // Logs each request and puts a request-scoped logger in the context.
	r.Use(Recoverer)            // Recovers from panics and returns a JSON 500 error.

	// --- Public Routes ---
	// Routes that don't require a session.

	// Serves the auto-generated Swagger UI for API documentation.
	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	// Liveness check for the process. It does not touch the database or the model backends.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, r, http.StatusOK, StatusResponse{Status: "ok"})
	})

	// --- API Routes ---
	// Every route below resolves the caller's session in its handler.
	r.Route("/api", func(r chi.Router) {

		// Group for standard JSON API routes that should have a request timeout
		// to prevent client connections from hanging indefinitely.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			// --- Chats ---
			r.Delete("/chat", chatHandler.HandleDeleteChat)
			r.Get("/chat/{chatID}/messages", chatHandler.HandleGetMessages)

			// --- History ---
			r.Get("/history", chatHandler.HandleGetHistory)

			// --- Personas ---
			r.Get("/personas", chatHandler.HandleGetPersonas)
		})

		// Group for long-running, streaming endpoints. These routes must NOT have a timeout,
		// as they hold the connection open for the whole generation.
		r.Group(func(r chi.Router) {
			r.Post("/chat", chatHandler.HandlePostChat)
			// Replays the latest generation of a chat after a dropped connection.
			r.Get("/chat/{chatID}/stream", chatHandler.HandleResumeStream)
		})
	})

	return r
}
