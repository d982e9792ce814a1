package authflow

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	oidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/platinummonkey/ssoflow/pkg/observability"
	"github.com/platinummonkey/ssoflow/pkg/session"
)

// pendingTTL bounds how long an outstanding login attempt stays redeemable
const pendingTTL = 10 * time.Minute

// Deliver hands a synthesized authorization response back to the host, which
// must forward it into the coordinator before any other handling
type Deliver func(correlationCode, resultCode int, payload *session.AuthPayload)

// WebFlowConfig configures the OAuth2/OIDC web flow
type WebFlowConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// IssuerURL enables OIDC discovery and ID token verification
	IssuerURL string
	// AuthURL and TokenURL configure a plain OAuth2 endpoint when no
	// issuer is set
	AuthURL  string
	TokenURL string
}

type pendingAuth struct {
	correlationCode int
	createdAt       time.Time
}

// WebFlow is the web-based authorization flow. Start records the attempt and
// surfaces the provider redirect URL through OnLaunch; CallbackHandler turns
// the provider's redirect back into the asynchronous response the session is
// waiting on.
//
// Unlike the session layer, WebFlow is safe for concurrent use: the callback
// arrives on an arbitrary HTTP goroutine.
type WebFlow struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
	logger   *observability.Logger

	// OnLaunch receives the provider redirect URL for each Start. The host
	// surface uses it to send the user agent to the provider.
	OnLaunch func(authURL string)

	mu      sync.Mutex
	pending map[string]pendingAuth
}

// NewWebFlow creates a web flow, running OIDC discovery when an issuer is
// configured
func NewWebFlow(ctx context.Context, cfg WebFlowConfig, logger *observability.Logger) (*WebFlow, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client_id is required")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("redirect_url is required")
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	f := &WebFlow{
		logger:  logger,
		pending: make(map[string]pendingAuth),
	}

	endpoint := oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	if cfg.IssuerURL != "" {
		provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("OIDC discovery failed: %w", err)
		}
		endpoint = provider.Endpoint()
		f.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	} else if cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, fmt.Errorf("auth_url and token_url are required without an issuer")
	}

	f.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
	}
	return f, nil
}

// Start implements session.Flow. It registers the attempt under a fresh state
// value and announces the provider redirect URL via OnLaunch.
func (f *WebFlow) Start(_ context.Context, req session.StartRequest) error {
	state := uuid.NewString()

	f.mu.Lock()
	f.prunePendingLocked(time.Now())
	f.pending[state] = pendingAuth{
		correlationCode: req.CorrelationCode,
		createdAt:       time.Now(),
	}
	f.mu.Unlock()

	authURL := f.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
	f.logger.WithFields(map[string]interface{}{
		"application_id": req.ApplicationID,
		"behavior":       req.Behavior.String(),
	}).Debug("launching web authorization flow")

	if f.OnLaunch != nil {
		f.OnLaunch(authURL)
	}
	return nil
}

// CallbackHandler handles the provider redirect. Each response is correlated
// through the state parameter and handed to deliver exactly once; redirects
// with an unknown or expired state are rejected.
func (f *WebFlow) CallbackHandler(deliver Deliver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		state := q.Get("state")
		pa, ok := f.takePending(state)
		if !ok {
			http.Error(w, "unknown or expired state", http.StatusBadRequest)
			return
		}

		if errCode := q.Get("error"); errCode != "" {
			f.logger.WithField("error", errCode).Info("authorization denied by provider")
			deliver(pa.correlationCode, session.ResultCanceled, &session.AuthPayload{Error: errCode})
			fmt.Fprintln(w, "login canceled")
			return
		}

		code := q.Get("code")
		if code == "" {
			deliver(pa.correlationCode, session.ResultCanceled, &session.AuthPayload{Error: "missing authorization code"})
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			return
		}

		tok, err := f.oauth.Exchange(r.Context(), code)
		if err != nil {
			f.logger.WithError(err).Error("token exchange failed")
			deliver(pa.correlationCode, session.ResultOK, &session.AuthPayload{Error: fmt.Sprintf("token exchange failed: %v", err)})
			http.Error(w, "token exchange failed", http.StatusBadGateway)
			return
		}

		if f.verifier != nil {
			rawIDToken, ok := tok.Extra("id_token").(string)
			if !ok {
				deliver(pa.correlationCode, session.ResultOK, &session.AuthPayload{Error: "provider response missing id_token"})
				http.Error(w, "missing id_token", http.StatusBadGateway)
				return
			}
			if _, err := f.verifier.Verify(r.Context(), rawIDToken); err != nil {
				f.logger.WithError(err).Error("ID token verification failed")
				deliver(pa.correlationCode, session.ResultOK, &session.AuthPayload{Error: fmt.Sprintf("ID token verification failed: %v", err)})
				http.Error(w, "ID token verification failed", http.StatusBadGateway)
				return
			}
		}

		deliver(pa.correlationCode, session.ResultOK, &session.AuthPayload{
			AccessToken: tok.AccessToken,
			ExpiresAt:   tok.Expiry,
			Permissions: grantedScopes(tok),
		})
		fmt.Fprintln(w, "login complete")
	}
}

func (f *WebFlow) takePending(state string) (pendingAuth, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pa, ok := f.pending[state]
	if !ok {
		return pendingAuth{}, false
	}
	delete(f.pending, state)
	if time.Since(pa.createdAt) > pendingTTL {
		return pendingAuth{}, false
	}
	return pa, true
}

func (f *WebFlow) prunePendingLocked(now time.Time) {
	for state, pa := range f.pending {
		if now.Sub(pa.createdAt) > pendingTTL {
			delete(f.pending, state)
		}
	}
}

// grantedScopes extracts the scopes the provider actually granted, when it
// reports them
func grantedScopes(tok *oauth2.Token) []string {
	raw, ok := tok.Extra("scope").(string)
	if !ok || raw == "" {
		return nil
	}
	return strings.Fields(raw)
}
