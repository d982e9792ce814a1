// Package session implements a single sign-on authorization session: a login
// context that tracks identity-provider state, the granted access token and
// its expiry, and the permission set the user approved.
//
// # State Machine
//
// A session moves through a fixed set of states:
//
//	Created -> Opening -> Opened -> OpenedTokenUpdated -> Closed
//	Created -> Opening -> ClosedLoginFailed
//
// Opened and OpenedTokenUpdated are the "open" states; both closed states are
// terminal. A closed session can never be reopened, so reauthorizing after a
// failure means creating a new session.
//
// # Asynchronous Authorization
//
// Opening a session launches an authorization flow (see Flow) and returns
// immediately. The flow's outcome arrives later as a correlated response that
// the host delivers via HandleAuthResponse. Responses carrying a correlation
// code other than the one the session is waiting on are ignored.
//
// # Threading
//
// Sessions are not safe for concurrent use. All calls must happen on the
// host's single control thread; the asynchronous response is the only
// suspension point.
//
// # Related Packages
//
//   - pkg/lifecycle: tracks the current session and drives the open/reuse policy
//   - pkg/authflow: Flow implementations (OAuth2 web flow, brokered SSO)
//   - pkg/tokencache: TokenCache implementations
package session
