package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/platinummonkey/ssoflow/pkg/lifecycle"
	"github.com/platinummonkey/ssoflow/pkg/observability"
	"github.com/platinummonkey/ssoflow/pkg/session"
)

// host is the UI surface the coordinator works on behalf of. The coordinator
// and session layers require a single control thread, so every operation is
// funneled through one event loop goroutine; HTTP handlers block until their
// operation has run.
type host struct {
	coord  *lifecycle.Coordinator
	logger *observability.Logger
	loop   chan func()

	// launchURL is set by the web flow's OnLaunch while a loop operation
	// is running; only read inside loop operations.
	launchURL string
}

func newHost(coord *lifecycle.Coordinator, logger *observability.Logger) *host {
	h := &host{
		coord:  coord,
		logger: logger,
		loop:   make(chan func(), 16),
	}
	go func() {
		for op := range h.loop {
			op()
		}
	}()
	return h
}

// do runs op on the host's control thread and waits for it to finish
func (h *host) do(op func()) {
	done := make(chan struct{})
	h.loop <- func() {
		defer close(done)
		op()
	}
	<-done
}

// setLaunchURL is wired to the web flow's OnLaunch
func (h *host) setLaunchURL(authURL string) {
	h.launchURL = authURL
}

// deliverAuthResponse forwards a flow response into the coordinator on the
// control thread, before anything else happens with it. For responses arriving
// on foreign goroutines only (the web callback); a response that already
// originates on the control thread must use dispatchAuthResponse, or the loop
// would queue behind the very operation waiting for it.
func (h *host) deliverAuthResponse(correlationCode, resultCode int, payload *session.AuthPayload) {
	h.do(func() {
		h.coord.HandleAuthResponse(correlationCode, resultCode, payload)
	})
}

// dispatchAuthResponse forwards a response that was delivered synchronously
// inside a running loop operation, such as a brokered credential hit during
// Open. Must only be called on the control thread.
func (h *host) dispatchAuthResponse(correlationCode, resultCode int, payload *session.AuthPayload) {
	h.coord.HandleAuthResponse(correlationCode, resultCode, payload)
}

// handleLogin requests authorization with the environment defaults. When the
// flow needs the user agent, the response is a redirect to the provider;
// brokered credentials complete without one.
func (h *host) handleLogin(w http.ResponseWriter, r *http.Request) {
	var (
		authURL string
		err     error
	)
	h.do(func() {
		h.launchURL = ""
		err = h.coord.RequestDefaultAuthorization(r.Context())
		authURL = h.launchURL
	})
	if err != nil {
		h.logger.WithError(err).Error("authorization request failed")
		http.Error(w, "authorization request failed", http.StatusBadGateway)
		return
	}
	if authURL != "" {
		http.Redirect(w, r, authURL, http.StatusFound)
		return
	}
	http.Redirect(w, r, "/session", http.StatusFound)
}

type sessionInfo struct {
	Open        bool       `json:"open"`
	State       string     `json:"state,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	HasToken    bool       `json:"has_token"`
}

// handleSession reports the tracked session without exposing the raw token
func (h *host) handleSession(w http.ResponseWriter, _ *http.Request) {
	var info sessionInfo
	h.do(func() {
		info.Open = h.coord.IsSessionOpen()
		if st, ok := h.coord.SessionState(); ok {
			info.State = st.String()
		}
		if exp := h.coord.ExpirationDate(); !exp.IsZero() {
			info.ExpiresAt = &exp
		}
		info.Permissions = h.coord.SessionPermissions()
		info.HasToken = h.coord.AccessToken() != ""
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// handleLogout closes the open session, keeping cached credentials
func (h *host) handleLogout(w http.ResponseWriter, _ *http.Request) {
	h.do(func() {
		h.coord.CloseSession()
	})
	w.WriteHeader(http.StatusNoContent)
}

// handlePurge closes the open session and irreversibly clears its persisted
// credentials
func (h *host) handlePurge(w http.ResponseWriter, r *http.Request) {
	h.do(func() {
		h.coord.CloseSessionAndClearTokenInformation(r.Context())
	})
	w.WriteHeader(http.StatusNoContent)
}

// shutdown detaches the coordinator and stops the control thread
func (h *host) shutdown() {
	h.do(func() {
		h.coord.Detach()
	})
	close(h.loop)
}
