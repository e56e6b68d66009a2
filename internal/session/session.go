// Package session defines the per-connection Session value threaded
// through the relay, tool executor, and agent controller. A Session is
// created when a browser channel is accepted and destroyed when either
// side closes; no state survives across sessions (spec.md §3).
package session

import (
	"github.com/google/uuid"

	"github.com/fenwick-labs/voicegate/internal/config"
)

// Session is one connected browser's relay state.
type Session struct {
	ID        string
	Role      config.Role
	AuthToken string
	UserName  string
}

// New constructs a Session for a freshly-accepted browser channel. role and
// userName are expected to already reflect the agent-controller's decision
// (internal/agentctrl.SelectRole) and the auth package's decoded identity.
func New(role config.Role, authToken, userName string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Role:      role,
		AuthToken: authToken,
		UserName:  userName,
	}
}

// Authenticated reports whether this session carries a bearer token, i.e.
// whether auth-gated tools may run.
func (s *Session) Authenticated() bool {
	return s != nil && s.AuthToken != ""
}
