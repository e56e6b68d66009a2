// Package tools implements the tool registry and executor (C3): dispatch
// of named tool calls intercepted from the upstream model to local
// handlers, grounded on the teacher's internal/agent.ToolRegistry/
// ToolExecutor shape but generalized from LLM-provider tool calls to this
// gateway's {session, arguments} -> result handlers.
package tools

import (
	"context"
	"encoding/json"

	"github.com/fenwick-labs/voicegate/internal/agentctrl"
	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/session"
)

// Result is a tool handler's outcome. Text is always set (even for
// errors — spec.md §7 requires error kinds to surface as a user-visible
// tool-output string the model can apologize around) and IsError/Kind
// are set only on failure.
type Result struct {
	Text    string
	Kind    config.ErrKind
	IsError bool
}

// Handler implements one named tool. RequiresAuth mirrors spec.md §4.3's
// requires_auth flag, checked by the Executor before Execute runs so
// handlers never have to re-derive it.
type Handler interface {
	Name() string
	Description() string
	RequiresAuth() bool
	// Execute runs the tool. A non-nil HandoffSignal means the handler
	// wants the executor to still emit the usual function_call_output,
	// but the relay should additionally schedule an agent.handoff event.
	Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error)
}

func errResult(kind config.ErrKind, text string) *Result {
	return &Result{Text: text, Kind: kind, IsError: true}
}

func okResult(text string) *Result {
	return &Result{Text: text}
}
