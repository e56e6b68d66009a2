// Package agentctrl implements the agent controller (C6): initial persona
// selection from auth state, and the handoff signal vocabulary produced by
// handoff tool handlers and consumed by the relay core.
package agentctrl

import (
	"strings"

	"github.com/fenwick-labs/voicegate/internal/config"
)

// SelectRole chooses the initial persona role for a freshly-opened session,
// per spec.md §4.6: a non-empty bearer token selects the authenticated
// role; its absence selects the anonymous role. This is a pure function —
// no cryptographic validation of the token is performed here or anywhere
// else in the gateway (spec.md §1's mock trust boundary).
func SelectRole(authToken string) config.Role {
	if strings.TrimSpace(authToken) != "" {
		return config.RoleAuthenticated
	}
	return config.RoleAnonymous
}

// OtherRole returns the role on the far side of a handoff.
func OtherRole(role config.Role) config.Role {
	if role == config.RoleAuthenticated {
		return config.RoleAnonymous
	}
	return config.RoleAuthenticated
}

// HandoffSignal is returned by a handoff_to_<role> tool handler instead of
// plain result text. The executor still emits function_call_output +
// response.create as usual (the handoff doesn't block the upstream
// response); the relay core additionally schedules the out-of-band
// agent.handoff event to the browser after the persona's HandoffDelayMs.
type HandoffSignal struct {
	Target  config.Role
	Reason  string
	Context string
}

// ToolName returns the canonical handoff tool name for transitioning to
// target, e.g. "handoff_to_A".
func ToolName(target config.Role) string {
	return "handoff_to_" + string(target)
}
