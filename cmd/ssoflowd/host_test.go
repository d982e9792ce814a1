package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/ssoflow/pkg/authflow"
	"github.com/platinummonkey/ssoflow/pkg/lifecycle"
	"github.com/platinummonkey/ssoflow/pkg/observability"
	"github.com/platinummonkey/ssoflow/pkg/session"
	"github.com/platinummonkey/ssoflow/pkg/tokencache"
)

// newBrokeredTestHost wires a host whose only flow is the credential broker,
// mirroring the production wiring: brokered delivery goes straight into the
// coordinator, it never queues on the event loop.
func newBrokeredTestHost(t *testing.T, cache session.TokenCache) *host {
	t.Helper()
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	var h *host
	flow := authflow.NewBrokered(cache, nil, func(correlationCode, resultCode int, payload *session.AuthPayload) {
		h.dispatchAuthResponse(correlationCode, resultCode, payload)
	}, logger)

	factory := func(applicationID string, permissions []string) (lifecycle.Session, error) {
		return session.New(session.Config{
			ApplicationID: applicationID,
			Permissions:   permissions,
			Flow:          flow,
			TokenCache:    cache,
		})
	}

	coord := lifecycle.NewCoordinator(factory,
		lifecycle.WithDefaults(lifecycle.Defaults{
			ApplicationID:   "app-1",
			Behavior:        session.SSOWithFallback,
			CorrelationCode: session.DefaultAuthRequestCode,
		}),
		lifecycle.WithLogger(logger),
	)

	h = newHost(coord, logger)
	t.Cleanup(h.shutdown)
	return h
}

func (h *host) sessionInfoForTest(t *testing.T) sessionInfo {
	t.Helper()
	rec := httptest.NewRecorder()
	h.handleSession(rec, httptest.NewRequest("GET", "/session", nil))
	var info sessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	return info
}

func TestHostReauthorizesWithBrokeredCredentials(t *testing.T) {
	cache, err := tokencache.NewMemory(0)
	require.NoError(t, err)
	require.NoError(t, cache.Save(context.Background(), "app-1", &session.CachedToken{
		AccessToken: "brokered-tok",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	h := newBrokeredTestHost(t, cache)

	// First login restores the cached token while the session opens.
	rec := httptest.NewRecorder()
	h.handleLogin(rec, httptest.NewRequest("GET", "/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/session", rec.Header().Get("Location"))

	info := h.sessionInfoForTest(t)
	require.True(t, info.Open)
	assert.Equal(t, "opened", info.State)

	// Second login reuses the open session; the broker answers synchronously
	// from inside the loop operation and the request must still return.
	rec = httptest.NewRecorder()
	h.handleLogin(rec, httptest.NewRequest("GET", "/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/session", rec.Header().Get("Location"))

	info = h.sessionInfoForTest(t)
	require.True(t, info.Open)
	assert.Equal(t, "opened_token_updated", info.State)
	assert.True(t, info.HasToken)
}

func TestHostLogoutClosesSession(t *testing.T) {
	cache, err := tokencache.NewMemory(0)
	require.NoError(t, err)
	require.NoError(t, cache.Save(context.Background(), "app-1", &session.CachedToken{
		AccessToken: "brokered-tok",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	h := newBrokeredTestHost(t, cache)

	h.handleLogin(httptest.NewRecorder(), httptest.NewRequest("GET", "/login", nil))
	require.True(t, h.sessionInfoForTest(t).Open)

	rec := httptest.NewRecorder()
	h.handleLogout(rec, httptest.NewRequest("POST", "/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	info := h.sessionInfoForTest(t)
	assert.False(t, info.Open)
	assert.False(t, info.HasToken)
}
