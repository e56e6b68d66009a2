package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fenwick-labs/voicegate/internal/agentctrl"
	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/session"
)

// Handoff implements spec.md §4.3's handoff_to_<role> tools. One instance
// is registered per target role (handoff_to_A, handoff_to_B); Execute
// returns a HandoffSignal instead of blocking the upstream response, per
// spec.md §4.5's intercept table.
type Handoff struct {
	target config.Role
}

// NewHandoff constructs the handler that hands off to target.
func NewHandoff(target config.Role) *Handoff {
	return &Handoff{target: target}
}

func (h *Handoff) Name() string      { return agentctrl.ToolName(h.target) }
func (h *Handoff) RequiresAuth() bool { return false }
func (h *Handoff) Description() string {
	return fmt.Sprintf("Transfer the conversation to agent %s.", h.target)
}

type handoffArgs struct {
	Reason  string `json:"reason" validate:"required"`
	Context string `json:"context"`
}

func (h *Handoff) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	var args handoffArgs
	if errRes := decodeArgs(arguments, &args); errRes != nil {
		return errRes, nil, nil
	}

	signal := &agentctrl.HandoffSignal{
		Target:  h.target,
		Reason:  args.Reason,
		Context: args.Context,
	}
	text := fmt.Sprintf("Transferring you now. Reason: %s", args.Reason)
	return okResult(text), signal, nil
}
