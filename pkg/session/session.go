package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSessionClosed is returned when opening a session that already
	// reached a terminal state
	ErrSessionClosed = errors.New("session is closed")
	// ErrLoginCanceled is reported through the status callback when the
	// authorization flow was dismissed without granting a token
	ErrLoginCanceled = errors.New("login canceled")
)

// StatusCallback observes session state transitions. A session holds at most
// one callback at a time.
type StatusCallback func(state State, err error)

// Config configures a new Session
type Config struct {
	// ApplicationID identifies the application at the identity provider
	ApplicationID string
	// Permissions requested when the session opens
	Permissions []string
	// Flow launches the authorization surface. Required.
	Flow Flow
	// TokenCache, when set, restores a valid cached token on Open and
	// persists newly granted tokens. Optional.
	TokenCache TokenCache
}

// Session is a single authorization context. It is mutated only by its own
// authorization logic; collaborators request operations (Open, Close,
// HandleAuthResponse) and observe transitions through the status callback.
//
// Not safe for concurrent use.
type Session struct {
	applicationID string
	permissions   []string
	flow          Flow
	cache         TokenCache

	state       State
	accessToken string
	expiresAt   time.Time

	callback    StatusCallback
	pendingCode int
	hasPending  bool
}

// New creates a session in the Created state
func New(cfg Config) (*Session, error) {
	if cfg.ApplicationID == "" {
		return nil, fmt.Errorf("application ID is required")
	}
	if cfg.Flow == nil {
		return nil, fmt.Errorf("authorization flow is required")
	}
	return &Session{
		applicationID: cfg.ApplicationID,
		permissions:   cfg.Permissions,
		flow:          cfg.Flow,
		cache:         cfg.TokenCache,
		state:         Created,
	}, nil
}

// ApplicationID returns the application this session authorizes
func (s *Session) ApplicationID() string { return s.applicationID }

// State returns the current lifecycle state
func (s *Session) State() State { return s.state }

// AccessToken returns the granted token, or "" outside the open states
func (s *Session) AccessToken() string { return s.accessToken }

// ExpirationDate returns when the token expires, or the zero time when no
// token is held
func (s *Session) ExpirationDate() time.Time { return s.expiresAt }

// Permissions returns the permission set associated with the session
func (s *Session) Permissions() []string { return s.permissions }

// BindStatusCallback installs cb as the session's single observer, replacing
// any previous one
func (s *Session) BindStatusCallback(cb StatusCallback) { s.callback = cb }

// UnbindStatusCallback removes the installed observer
func (s *Session) UnbindStatusCallback() { s.callback = nil }

// Open starts authorization. From Created the session first consults the
// token cache and completes immediately on a valid hit; otherwise the flow is
// launched and the session waits for the response correlated by
// correlationCode. Calling Open on an already-open session reauthorizes it in
// place: the flow runs again and a granted token arrives as
// OpenedTokenUpdated.
//
// A flow that fails to launch moves a not-yet-open session to
// ClosedLoginFailed; an already-open session keeps its state and token.
// Either way the error is reported through the status callback and returned.
func (s *Session) Open(ctx context.Context, behavior LoginBehavior, correlationCode int) error {
	if s.state.IsClosed() {
		return ErrSessionClosed
	}

	if s.state == Created && s.cache != nil {
		tok, err := s.cache.Load(ctx, s.applicationID)
		if err == nil && tok.Valid(time.Now()) {
			s.accessToken = tok.AccessToken
			s.expiresAt = tok.ExpiresAt
			if len(tok.Permissions) > 0 {
				s.permissions = tok.Permissions
			}
			s.transition(Opened, nil)
			return nil
		}
	}

	s.pendingCode = correlationCode
	s.hasPending = true
	if s.state == Created {
		s.transition(Opening, nil)
	}

	err := s.flow.Start(ctx, StartRequest{
		ApplicationID:   s.applicationID,
		Permissions:     s.permissions,
		Behavior:        behavior,
		CorrelationCode: correlationCode,
	})
	if err != nil {
		err = fmt.Errorf("start authorization flow: %w", err)
		s.reportFailure(err)
		return err
	}
	return nil
}

// HandleAuthResponse delivers the asynchronous authorization response. The
// response is consumed only when correlationCode matches the code the session
// is waiting on; mismatched or unexpected responses are ignored and the
// session is left untouched. Returns whether the response was consumed.
//
// A canceled or failed reauthorization leaves an open session open with its
// previous token; only a session that never reached an open state moves to
// ClosedLoginFailed.
func (s *Session) HandleAuthResponse(correlationCode, resultCode int, payload *AuthPayload) bool {
	if s.state.IsClosed() || !s.hasPending || correlationCode != s.pendingCode {
		return false
	}
	s.hasPending = false

	switch {
	case resultCode != ResultOK:
		s.reportFailure(ErrLoginCanceled)
	case payload == nil:
		s.reportFailure(fmt.Errorf("authorization flow returned no payload"))
	case payload.Error != "":
		s.reportFailure(fmt.Errorf("authorization failed: %s", payload.Error))
	default:
		s.accessToken = payload.AccessToken
		s.expiresAt = payload.ExpiresAt
		if len(payload.Permissions) > 0 {
			s.permissions = payload.Permissions
		}
		next := Opened
		if s.state.IsOpen() {
			next = OpenedTokenUpdated
		}
		if s.cache != nil {
			// Persistence failures are the cache's concern.
			_ = s.cache.Save(context.Background(), s.applicationID, &CachedToken{
				AccessToken: s.accessToken,
				ExpiresAt:   s.expiresAt,
				Permissions: s.permissions,
			})
		}
		s.transition(next, nil)
	}
	return true
}

// Close moves the session to Closed and drops the token. No-op when already
// closed. Cached token information is left intact.
func (s *Session) Close() {
	if s.state.IsClosed() {
		return
	}
	s.accessToken = ""
	s.expiresAt = time.Time{}
	s.transition(Closed, nil)
}

// CloseAndClearTokenInformation closes the session and purges persisted
// credentials for its application. The purge fires at most once per session;
// a second call is a no-op.
func (s *Session) CloseAndClearTokenInformation(ctx context.Context) {
	if s.state.IsClosed() {
		return
	}
	if s.cache != nil {
		// Fire and forget: the purge is irreversible and never retried.
		_ = s.cache.Clear(ctx, s.applicationID)
	}
	s.Close()
}

// reportFailure reports a failed authorization. An open session survives a
// failed reauthorization with its token intact; any other session moves to
// ClosedLoginFailed.
func (s *Session) reportFailure(err error) {
	s.hasPending = false
	if s.state.IsOpen() {
		if s.callback != nil {
			s.callback(s.state, err)
		}
		return
	}
	s.fail(err)
}

func (s *Session) fail(err error) {
	s.accessToken = ""
	s.expiresAt = time.Time{}
	s.transition(ClosedLoginFailed, err)
}

func (s *Session) transition(next State, err error) {
	s.state = next
	if s.callback != nil {
		s.callback(next, err)
	}
}
