package lifecycle

// authDecision is the outcome of the reuse-or-create policy. Exactly one arm
// is populated: Reuse points at the session to reauthorize in place, or
// ApplicationID/Permissions carry the parameters for a replacement.
type authDecision struct {
	Reuse         Session
	ApplicationID string
	Permissions   []string
}

// decideAuthorization picks between reusing the current session and creating
// a new one. A current session that has not reached a terminal state is
// always reused, ignoring the supplied parameters; otherwise the explicit
// parameters are taken, falling back to the configured defaults.
func decideAuthorization(current Session, applicationID string, permissions []string, defaults Defaults) authDecision {
	if current != nil && !current.State().IsClosed() {
		return authDecision{Reuse: current}
	}
	if applicationID == "" {
		applicationID = defaults.ApplicationID
	}
	if permissions == nil {
		permissions = defaults.Permissions
	}
	return authDecision{ApplicationID: applicationID, Permissions: permissions}
}
