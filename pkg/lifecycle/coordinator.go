package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/ssoflow/pkg/observability"
	"github.com/platinummonkey/ssoflow/pkg/session"
)

// SessionFactory constructs a fresh session for an application and permission
// set. Used by the coordinator when the authorization policy decides the
// current session cannot be reused.
type SessionFactory func(applicationID string, permissions []string) (Session, error)

// Defaults supplies the environment-configured values used when a caller
// requests authorization without explicit parameters
type Defaults struct {
	ApplicationID   string
	Permissions     []string
	Behavior        session.LoginBehavior
	CorrelationCode int
}

// StateChangeHook reacts to state transitions of the tracked session. The
// default hook does nothing; hosts install their own to drive UI updates.
type StateChangeHook func(state session.State, err error)

// Option configures a Coordinator
type Option func(*Coordinator)

// WithDefaults sets the parameters applied by the convenience request forms
func WithDefaults(d Defaults) Option {
	return func(c *Coordinator) { c.defaults = d }
}

// WithStateChangeHook installs the host's transition hook
func WithStateChangeHook(hook StateChangeHook) Option {
	return func(c *Coordinator) { c.onStateChange = hook }
}

// WithLogger sets the coordinator's logger
func WithLogger(logger *observability.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithMetrics enables metric reporting for transitions and requests
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// Coordinator is the host-facing facade over one Tracker. The host forwards
// every asynchronous authorization response through HandleAuthResponse and
// calls Detach when its surface goes away; everything else is read accessors
// and the reuse-or-create authorization policy.
//
// Not safe for concurrent use; see the session package threading contract.
type Coordinator struct {
	tracker       *Tracker
	newSession    SessionFactory
	defaults      Defaults
	onStateChange StateChangeHook
	logger        *observability.Logger
	metrics       *observability.Metrics
}

// NewCoordinator creates a coordinator that builds replacement sessions with
// factory
func NewCoordinator(factory SessionFactory, opts ...Option) *Coordinator {
	c := &Coordinator{
		newSession: factory,
		defaults: Defaults{
			Behavior:        session.SSOWithFallback,
			CorrelationCode: session.DefaultAuthRequestCode,
		},
		logger: observability.NewLogger(observability.InfoLevel, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tracker = NewTracker(c.relayStateChange)
	return c
}

// Tracker exposes the coordinator's tracker, mainly for tests and for hosts
// that need the raw open-session distinction
func (c *Coordinator) Tracker() *Tracker {
	return c.tracker
}

// HandleAuthResponse forwards an asynchronous authorization response into the
// tracked session. The host must call this for every response it receives,
// before any of its own handling: responses are not re-deliverable, and a
// missed one loses the session-state update permanently. With no session held
// (for example a late response racing Detach) this is a silent no-op.
func (c *Coordinator) HandleAuthResponse(correlationCode, resultCode int, payload *session.AuthPayload) {
	s := c.tracker.Session()
	if s == nil {
		return
	}
	s.HandleAuthResponse(correlationCode, resultCode, payload)
}

// Detach releases the coordinator's hold on the session when the host surface
// is destroyed. The session's own lifetime is unaffected if the host retains
// another reference.
func (c *Coordinator) Detach() {
	c.tracker.SetSession(nil)
}

// SetSession replaces the tracked session directly, bypassing the
// authorization policy
func (c *Coordinator) SetSession(s Session) {
	c.tracker.SetSession(s)
}

// IsSessionOpen reports whether an authorized, non-closed session is tracked
func (c *Coordinator) IsSessionOpen() bool {
	return c.tracker.OpenSession() != nil
}

// SessionState returns the tracked session's state; ok is false when no
// session is held
func (c *Coordinator) SessionState() (state session.State, ok bool) {
	s := c.tracker.Session()
	if s == nil {
		return 0, false
	}
	return s.State(), true
}

// AccessToken returns the open session's token, or "" when none is open
func (c *Coordinator) AccessToken() string {
	if s := c.tracker.OpenSession(); s != nil {
		return s.AccessToken()
	}
	return ""
}

// ExpirationDate returns when the open session's token expires, or the zero
// time when none is open
func (c *Coordinator) ExpirationDate() time.Time {
	if s := c.tracker.OpenSession(); s != nil {
		return s.ExpirationDate()
	}
	return time.Time{}
}

// SessionPermissions returns the tracked session's permission set, or nil
// when no session is held
func (c *Coordinator) SessionPermissions() []string {
	if s := c.tracker.Session(); s != nil {
		return s.Permissions()
	}
	return nil
}

// CloseSession closes the open session. No-op when none is open.
func (c *Coordinator) CloseSession() {
	if s := c.tracker.OpenSession(); s != nil {
		s.Close()
	}
}

// CloseSessionAndClearTokenInformation closes the open session and purges its
// persisted credentials. The purge is irreversible and fires at most once; a
// call with no open session does nothing.
func (c *Coordinator) CloseSessionAndClearTokenInformation(ctx context.Context) {
	if s := c.tracker.OpenSession(); s != nil {
		s.CloseAndClearTokenInformation(ctx)
	}
}

// RequestDefaultAuthorization requests authorization with the configured
// defaults: environment application ID, no extra permissions, SSO with web
// fallback, and the default correlation code.
func (c *Coordinator) RequestDefaultAuthorization(ctx context.Context) error {
	return c.RequestAuthorization(ctx, "", nil, c.defaults.Behavior, c.defaults.CorrelationCode)
}

// RequestAuthorizationFor requests authorization for an explicit application
// and permission set using the default behavior and correlation code
func (c *Coordinator) RequestAuthorizationFor(ctx context.Context, applicationID string, permissions []string) error {
	return c.RequestAuthorization(ctx, applicationID, permissions, c.defaults.Behavior, c.defaults.CorrelationCode)
}

// RequestAuthorization applies the reuse-or-create policy and starts the
// authorization flow. An existing non-closed session is reauthorized in place
// and the supplied applicationID and permissions are ignored; only once the
// current session is terminal (or absent) is a new one constructed, stored,
// and opened. The call returns once the flow is launched; the outcome arrives
// later via HandleAuthResponse.
func (c *Coordinator) RequestAuthorization(ctx context.Context, applicationID string, permissions []string, behavior session.LoginBehavior, correlationCode int) error {
	d := decideAuthorization(c.tracker.Session(), applicationID, permissions, c.defaults)

	if d.Reuse != nil {
		c.logger.WithField("behavior", behavior.String()).Debug("reusing current session for authorization")
		if c.metrics != nil {
			c.metrics.AuthRequestsTotal.WithLabelValues("reuse").Inc()
		}
		return d.Reuse.Open(ctx, behavior, correlationCode)
	}

	s, err := c.newSession(d.ApplicationID, d.Permissions)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	c.tracker.SetSession(s)
	c.logger.WithFields(map[string]interface{}{
		"application_id": d.ApplicationID,
		"behavior":       behavior.String(),
	}).Debug("created new session for authorization")
	if c.metrics != nil {
		c.metrics.AuthRequestsTotal.WithLabelValues("create").Inc()
	}
	return s.Open(ctx, behavior, correlationCode)
}

// relayStateChange is the tracker's single observer. It reports the
// transition and hands it to the host hook.
func (c *Coordinator) relayStateChange(s Session, state session.State, err error) {
	c.logger.WithField("state", state.String()).WithError(err).Debug("session state changed")
	if c.metrics != nil {
		c.metrics.SessionTransitionsTotal.WithLabelValues(state.String()).Inc()
		if state.IsOpen() {
			c.metrics.OpenSessions.Set(1)
		} else {
			c.metrics.OpenSessions.Set(0)
		}
		if state == session.ClosedLoginFailed {
			c.metrics.AuthFailuresTotal.Inc()
		}
	}
	if c.onStateChange != nil {
		c.onStateChange(state, err)
	}
}
