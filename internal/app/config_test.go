package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitleague/fitleague/internal/shared"
	_ "github.com/fitleague/fitleague/internal/testing/guard"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("CSRF_SECRET", "csrf-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 60, cfg.RateLimitPerMinute)
	require.Equal(t, 48, cfg.SweepCutoffHours)
	require.Equal(t, "@hourly", cfg.SweepCronSpec)
	require.Equal(t, 5*time.Minute, cfg.SummaryCacheTTL)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "csrf-secret")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsNonPositiveSweepCutoff(t *testing.T) {
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("CSRF_SECRET", "csrf-secret")
	t.Setenv("SWEEP_CUTOFF_HOURS", "0")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestGuardEnablesTestMode(t *testing.T) {
	RefreshTestMode()
	require.True(t, InTestMode())
}

func TestCSRFMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	csrf := shared.NewCSRFManager("csrf-secret")
	sessions := shared.NewSessionManager(nil, "fitleague_session", "session-secret", time.Hour, false)

	mw := CSRFMiddleware(MiddlewareConfig{Logger: logger, CSRFManager: csrf})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	newSession := func(t *testing.T) *shared.Session {
		t.Helper()
		sess, err := sessions.Load(t.Context(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		return sess
	}

	t.Run("reads pass without a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/leagues", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("mutations without a token are rejected", func(t *testing.T) {
		sess := newSession(t)
		req := httptest.NewRequest(http.MethodPost, "/leagues", nil)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("mutations with the issued token pass", func(t *testing.T) {
		sess := newSession(t)
		token, err := csrf.EnsureToken(t.Context(), sess)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/leagues", nil)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
		req.Header.Set("X-CSRF-Token", token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		sess := newSession(t)
		_, err := csrf.EnsureToken(t.Context(), sess)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/leagues", nil)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
		req.Header.Set("X-CSRF-Token", "forged")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}
