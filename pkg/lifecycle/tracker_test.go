package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/ssoflow/pkg/session"
)

type openCall struct {
	behavior session.LoginBehavior
	code     int
}

type responseCall struct {
	code    int
	result  int
	payload *session.AuthPayload
}

// fakeSession is a spy implementation of Session that counts observer
// registrations and records every requested operation
type fakeSession struct {
	state   session.State
	token   string
	expires time.Time
	perms   []string

	cb      session.StatusCallback
	binds   int
	unbinds int

	opens     []openCall
	closes    int
	clears    int
	responses []responseCall
}

func (f *fakeSession) State() session.State      { return f.state }
func (f *fakeSession) AccessToken() string       { return f.token }
func (f *fakeSession) ExpirationDate() time.Time { return f.expires }
func (f *fakeSession) Permissions() []string     { return f.perms }

func (f *fakeSession) Open(_ context.Context, behavior session.LoginBehavior, code int) error {
	f.opens = append(f.opens, openCall{behavior, code})
	return nil
}

func (f *fakeSession) Close() {
	f.closes++
	f.state = session.Closed
}

func (f *fakeSession) CloseAndClearTokenInformation(context.Context) {
	f.clears++
	f.state = session.Closed
}

func (f *fakeSession) HandleAuthResponse(code, result int, payload *session.AuthPayload) bool {
	f.responses = append(f.responses, responseCall{code, result, payload})
	return true
}

func (f *fakeSession) BindStatusCallback(cb session.StatusCallback) {
	f.binds++
	f.cb = cb
}

func (f *fakeSession) UnbindStatusCallback() {
	f.unbinds++
	f.cb = nil
}

// fire simulates the session's own state transition reaching the observer
func (f *fakeSession) fire(state session.State, err error) {
	f.state = state
	if f.cb != nil {
		f.cb(state, err)
	}
}

func TestTrackerObserverRebinding(t *testing.T) {
	tracker := NewTracker(nil)
	a := &fakeSession{}
	b := &fakeSession{}

	tracker.SetSession(a)
	assert.Equal(t, 1, a.binds)
	assert.Equal(t, 0, a.unbinds)

	tracker.SetSession(b)
	assert.Equal(t, 1, a.unbinds, "old session must be unbound on replacement")
	assert.Equal(t, 1, b.binds)

	// Setting the already-held session is a no-op.
	tracker.SetSession(b)
	assert.Equal(t, 1, b.binds)
	assert.Equal(t, 0, b.unbinds)

	tracker.SetSession(nil)
	assert.Equal(t, 1, b.unbinds)
	assert.Nil(t, tracker.Session())
}

func TestTrackerSetSessionNilTwice(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.SetSession(nil)
	tracker.SetSession(nil)
	assert.Nil(t, tracker.Session())
}

func TestTrackerOpenSessionPerState(t *testing.T) {
	tests := []struct {
		state session.State
		open  bool
	}{
		{session.Created, false},
		{session.Opening, false},
		{session.Opened, true},
		{session.OpenedTokenUpdated, true},
		{session.Closed, false},
		{session.ClosedLoginFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			tracker := NewTracker(nil)
			s := &fakeSession{state: tt.state}
			tracker.SetSession(s)

			if tt.open {
				assert.Equal(t, Session(s), tracker.OpenSession())
			} else {
				assert.Nil(t, tracker.OpenSession())
			}
			assert.Equal(t, Session(s), tracker.Session(), "raw accessor is state-independent")
		})
	}
}

func TestTrackerOpenSessionEmpty(t *testing.T) {
	tracker := NewTracker(nil)
	assert.Nil(t, tracker.OpenSession())
	assert.Nil(t, tracker.Session())
}

func TestTrackerRelay(t *testing.T) {
	var (
		gotSession Session
		gotState   session.State
		gotErr     error
		calls      int
	)
	tracker := NewTracker(func(s Session, state session.State, err error) {
		gotSession, gotState, gotErr = s, state, err
		calls++
	})

	s := &fakeSession{}
	tracker.SetSession(s)
	s.fire(session.Opening, nil)

	require.Equal(t, 1, calls)
	assert.Equal(t, Session(s), gotSession)
	assert.Equal(t, session.Opening, gotState)
	assert.NoError(t, gotErr)
}

func TestTrackerRelaySilentAfterReplacement(t *testing.T) {
	calls := 0
	tracker := NewTracker(func(Session, session.State, error) { calls++ })

	old := &fakeSession{}
	tracker.SetSession(old)
	tracker.SetSession(&fakeSession{})

	// A stale transition on the replaced session must not reach the relay.
	old.fire(session.Opened, nil)
	assert.Equal(t, 0, calls)
}
