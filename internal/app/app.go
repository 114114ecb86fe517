package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"bible-chat/backend/internal/api"
	"bible-chat/backend/internal/auth"
	"bible-chat/backend/internal/config"
	"bible-chat/backend/internal/database"
	"bible-chat/backend/internal/guardrail"
	"bible-chat/backend/internal/llm"
	"bible-chat/backend/internal/logger"
	"bible-chat/backend/internal/persona"
	"bible-chat/backend/internal/repository"
	"bible-chat/backend/internal/retrieval"
	"bible-chat/backend/internal/service"
	"bible-chat/backend/internal/stream"
	"bible-chat/backend/internal/tools"
)

const shutdownTimeout = 10 * time.Second

// App holds the wired application.
type App struct {
	Config  *config.Config
	DB      *sql.DB
	Server  *http.Server
	Streams *stream.Registry
	Router  *llm.FallbackRouter
}

// NewApp opens the database, builds every component and the HTTP server.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	logConfigSource(cfg)

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Successfully connected to SQLite database.", "path", cfg.DatabasePath)

	router, err := newModelRouter(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	authn, err := auth.NewJWTAuthenticator(cfg.JWTSecret)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	streams := newStreamRegistry(ctx, cfg)

	personas := persona.Canonical()
	chatService := service.NewChatService(service.ChatDeps{
		Repo:      repository.NewSQLiteRepository(db),
		Backend:   router,
		Personas:  personas,
		Retriever: retrieval.NewStatic(),
		Guardrail: guardrail.New(),
		Tools:     tools.NewRegistry(tools.NewWeather(cfg.WeatherAPIURL)),
		Streams:   streams,
		Tokens:    service.NewTokenCounter(ctx, cfg.TokenEncoding),
	}, service.ChatConfig{
		Models: service.ModelCatalog{
			Chat:      cfg.ChatModel,
			Reasoning: cfg.ReasoningModel,
			Title:     cfg.TitleModel,
		},
		Entitlements: service.Entitlements{
			auth.UserTypeGuest:   {MaxMessagesPerDay: cfg.GuestMaxMessagesPerDay},
			auth.UserTypeRegular: {MaxMessagesPerDay: cfg.RegularMaxMessagesPerDay},
		},
		MaxHistoryTokens: cfg.MaxHistoryTokens,
	})

	chatHandler := api.NewChatHandler(chatService, authn, cfg.SSEHeartbeatInterval)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           api.NewRouter(chatHandler),
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return &App{Config: cfg, DB: db, Server: server, Streams: streams, Router: router}, nil
}

// newModelRouter creates one Gemini backend per API key behind a fallback
// router.
func newModelRouter(ctx context.Context, cfg *config.Config) (*llm.FallbackRouter, error) {
	keys := cfg.APIKeys()
	backends := make([]llm.Backend, 0, len(keys))
	for i, key := range keys {
		b, err := llm.NewGeminiBackend(ctx, llm.GeminiConfig{
			Name:    fmt.Sprintf("gemini-key-%d", i+1),
			APIKey:  key,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			return nil, err
		}
		backends = append(backends, b)
	}
	slog.Info("Configured model backends", "count", len(backends))
	return llm.NewFallbackRouter(backends, llm.WithQuotaLock(cfg.QuotaLockDuration, time.Now))
}

// newStreamRegistry opens the configured stream store. A store that cannot be
// opened disables resumable streams rather than failing startup.
func newStreamRegistry(ctx context.Context, cfg *config.Config) *stream.Registry {
	var (
		store stream.Store
		err   error
	)
	switch cfg.StreamStore {
	case config.StreamStoreRedis:
		store, err = stream.NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.StreamTTL)
	case config.StreamStoreBolt:
		store, err = stream.OpenBoltStore(cfg.BoltPath, cfg.StreamTTL)
	case config.StreamStoreMemory:
		store = stream.NewMemoryStore(cfg.StreamTTL, time.Now)
	default:
		slog.Info("Resumable streams are disabled")
		return nil
	}
	if err != nil {
		slog.Warn("Stream store unavailable, resumable streams are disabled", "store", cfg.StreamStore, "error", err)
		return nil
	}
	slog.Info("Resumable streams enabled", "store", cfg.StreamStore)
	return stream.NewRegistry(store, stream.RegistryConfig{
		MaxDuration:  cfg.StreamMaxDuration,
		PollInterval: cfg.StreamPollInterval,
	})
}

// Run serves HTTP until ctx is done, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting server", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return a.Server.Shutdown(sctx)
	})

	return g.Wait()
}

// Close releases the stream store and the database.
func (a *App) Close() error {
	var errs []error
	if a.Streams != nil {
		if err := a.Streams.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stream store: %w", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}

func logConfigSource(cfg *config.Config) {
	if cfg.ConfigFile != "" {
		slog.Info("Successfully loaded configuration from file.", "file", cfg.ConfigFile)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}
