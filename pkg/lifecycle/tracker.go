package lifecycle

import (
	"context"
	"time"

	"github.com/platinummonkey/ssoflow/pkg/session"
)

// Session is the surface the lifecycle layer needs from a session.
// *session.Session satisfies it.
type Session interface {
	State() session.State
	AccessToken() string
	ExpirationDate() time.Time
	Permissions() []string

	Open(ctx context.Context, behavior session.LoginBehavior, correlationCode int) error
	Close()
	CloseAndClearTokenInformation(ctx context.Context)
	HandleAuthResponse(correlationCode, resultCode int, payload *session.AuthPayload) bool

	BindStatusCallback(cb session.StatusCallback)
	UnbindStatusCallback()
}

// StatusRelay receives every state change of whichever session a Tracker
// currently holds
type StatusRelay func(s Session, state session.State, err error)

// Tracker owns the reference to the current session. It guarantees that at
// most one status callback is ever registered by this layer and that it is
// always registered on the most recently set session.
type Tracker struct {
	current Session
	relay   StatusRelay
}

// NewTracker creates a tracker holding no session. relay may be nil.
func NewTracker(relay StatusRelay) *Tracker {
	return &Tracker{relay: relay}
}

// Session returns the tracked session, or nil
func (t *Tracker) Session() Session {
	return t.current
}

// OpenSession returns the tracked session only while its state is open, so a
// closed or never-authorized session never leaks a token, expiry or
// permission set
func (t *Tracker) OpenSession() Session {
	if t.current != nil && t.current.State().IsOpen() {
		return t.current
	}
	return nil
}

// SetSession replaces the tracked session. The status callback is unbound
// from the old session and bound to the new one as one transaction; passing
// nil clears the tracker, and setting the already-held session is a no-op.
func (t *Tracker) SetSession(next Session) {
	if t.current == next {
		return
	}
	if t.current != nil {
		t.current.UnbindStatusCallback()
	}
	t.current = next
	if next == nil {
		return
	}
	next.BindStatusCallback(func(state session.State, err error) {
		if t.relay != nil {
			t.relay(next, state, err)
		}
	})
}
