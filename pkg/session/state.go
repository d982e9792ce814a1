package session

// State represents the lifecycle state of a session
type State int

const (
	// Created is the initial state before authorization starts
	Created State = iota
	// Opening means an authorization flow has been launched and its
	// response has not arrived yet
	Opening
	// Opened means authorization completed and an access token is held
	Opened
	// OpenedTokenUpdated means an already-open session received a fresh
	// token, typically after a reauthorization for additional permissions
	OpenedTokenUpdated
	// Closed means the session was closed by the host. Terminal.
	Closed
	// ClosedLoginFailed means authorization failed or was canceled. Terminal.
	ClosedLoginFailed
)

// IsOpen reports whether the session is authorized and usable
func (s State) IsOpen() bool {
	return s == Opened || s == OpenedTokenUpdated
}

// IsClosed reports whether the session reached a terminal state
func (s State) IsClosed() bool {
	return s == Closed || s == ClosedLoginFailed
}

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Opening:
		return "opening"
	case Opened:
		return "opened"
	case OpenedTokenUpdated:
		return "opened_token_updated"
	case Closed:
		return "closed"
	case ClosedLoginFailed:
		return "closed_login_failed"
	default:
		return "unknown"
	}
}

// LoginBehavior controls how the authorization flow is presented
type LoginBehavior int

const (
	// SSOWithFallback tries the trusted single sign-on broker first and
	// falls back to the web flow when no brokered credentials exist
	SSOWithFallback LoginBehavior = iota
	// SSOOnly uses the broker exclusively and fails on a miss
	SSOOnly
	// SuppressSSO skips the broker and always uses the web flow
	SuppressSSO
)

func (b LoginBehavior) String() string {
	switch b {
	case SSOWithFallback:
		return "sso_with_fallback"
	case SSOOnly:
		return "sso_only"
	case SuppressSSO:
		return "suppress_sso"
	default:
		return "unknown"
	}
}
