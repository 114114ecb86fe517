package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bible-chat/backend/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		AppPort:           0,
		DatabasePath:      filepath.Join(dir, "test.db"),
		LogLevel:          "DEBUG",
		GeminiAPIKeys:     "key-1,key-2",
		ChatModel:         "gemini-2.5-flash",
		ReasoningModel:    "gemini-2.5-flash",
		TitleModel:        "gemini-2.5-flash",
		QuotaLockDuration: time.Hour,
		JWTSecret:         "test-secret",
		StreamStore:       config.StreamStoreBolt,
		BoltPath:          filepath.Join(dir, "streams.bolt"),
		StreamTTL:         time.Hour,
	}
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app)
	defer func() { require.NoError(t, app.Close()) }()

	assert.NotNil(t, app.DB)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Streams)
	assert.True(t, app.Router.Quota(1).Available())

	rr := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNewApp_UnavailableStreamStoreDisablesResumption(t *testing.T) {
	cfg := testConfig(t)
	cfg.StreamStore = config.StreamStoreRedis
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	assert.Nil(t, app.Streams)
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeminiAPIKeys = ""

	_, err := NewApp(context.Background(), cfg)
	assert.ErrorContains(t, err, "GEMINI_API_KEYS")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
