package session

import (
	"context"
	"time"
)

// Platform result codes for asynchronous authorization responses
const (
	// ResultOK indicates the flow completed and the payload carries a token
	ResultOK = -1
	// ResultCanceled indicates the flow was dismissed or denied
	ResultCanceled = 0
)

// DefaultAuthRequestCode is the correlation code used when the host does not
// supply one
const DefaultAuthRequestCode = 0xface

// AuthPayload is the opaque payload of an asynchronous authorization
// response. On success it carries the granted token; on failure Error holds
// the provider's reason.
type AuthPayload struct {
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// StartRequest describes one authorization attempt handed to a Flow
type StartRequest struct {
	ApplicationID   string
	Permissions     []string
	Behavior        LoginBehavior
	CorrelationCode int
}

// Flow launches the external authorization surface for a session. Start
// returns as soon as the flow is underway; the outcome is delivered later by
// the host as a correlated response via Session.HandleAuthResponse. Start is
// permitted to deliver that response synchronously when the outcome is
// already known (for example brokered credentials).
type Flow interface {
	Start(ctx context.Context, req StartRequest) error
}

// FlowFunc adapts a function to the Flow interface
type FlowFunc func(ctx context.Context, req StartRequest) error

// Start implements Flow
func (f FlowFunc) Start(ctx context.Context, req StartRequest) error {
	return f(ctx, req)
}

// CachedToken is persisted token information for an application
type CachedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Permissions []string  `json:"permissions,omitempty"`
}

// Valid reports whether the cached token is usable at time now
func (t *CachedToken) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && t.ExpiresAt.After(now)
}

// TokenCache persists token information across sessions, keyed by application
// ID. Load returns (nil, nil) on a miss.
type TokenCache interface {
	Load(ctx context.Context, applicationID string) (*CachedToken, error)
	Save(ctx context.Context, applicationID string, token *CachedToken) error
	Clear(ctx context.Context, applicationID string) error
}
