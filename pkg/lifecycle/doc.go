// Package lifecycle coordinates a single SSO session on behalf of a host
// surface that cannot manage authentication state itself.
//
// Tracker is the single source of truth for "the current session": it holds
// at most one session and keeps exactly one state-change observer bound to
// whatever session it holds, rebinding whenever the session is replaced.
//
// Coordinator is the host-facing facade built on a Tracker. It forwards
// asynchronous authorization responses into the tracked session, exposes read
// accessors that degrade to empty results when no qualifying session exists,
// and implements the reuse-or-create policy: requesting authorization reuses
// a non-closed session in place and only constructs a replacement once the
// current one has reached a terminal state.
//
// All lifecycle operations share the session package's single-control-thread
// contract; nothing here locks.
package lifecycle
