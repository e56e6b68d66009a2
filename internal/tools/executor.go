package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fenwick-labs/voicegate/internal/agentctrl"
	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/observability"
	"github.com/fenwick-labs/voicegate/internal/session"
)

// Executor dispatches a tool_name to its registered Handler, enforcing the
// per-call_id in-flight invariant of spec.md §3 ("exactly one in-flight
// tool call per call_id") and emitting metrics/traces/logs around every
// call.
type Executor struct {
	registry *Registry
	logger   *observability.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewExecutor constructs an Executor over registry.
func NewExecutor(registry *Registry, logger *observability.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Executor {
	return &Executor{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		inFlight: make(map[string]struct{}),
	}
}

// Execute runs the named tool for callID with the given raw arguments. It
// enforces at most one concurrent execution per callID, returning an
// error if callID is already in flight (the caller — the relay's
// down-pump — never issues the same call_id twice in normal operation;
// this guards against a malformed or replayed upstream event).
func (e *Executor) Execute(ctx context.Context, sess *session.Session, callID, toolName string, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	if err := e.claim(callID); err != nil {
		return nil, nil, err
	}
	defer e.release(callID)

	start := time.Now()
	ctx, span := e.tracer.TraceToolExecution(ctx, toolName)
	defer span.End()

	result, signal, err := e.dispatch(ctx, sess, toolName, arguments)

	duration := time.Since(start)
	outcome := outcomeLabel(result, err)
	if e.metrics != nil {
		e.metrics.ToolExecutions.WithLabelValues(toolName, outcome).Inc()
		e.metrics.ToolExecutionDuration.WithLabelValues(toolName).Observe(duration.Seconds())
	}
	if e.logger != nil {
		e.logger.Info(ctx, "tool executed",
			"tool_name", toolName, "call_id", callID, "outcome", outcome,
			"duration_ms", duration.Milliseconds())
	}
	return result, signal, err
}

func (e *Executor) dispatch(ctx context.Context, sess *session.Session, toolName string, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	handler, ok := e.registry.Get(toolName)
	if !ok {
		return errResult(config.ErrToolBadArguments, fmt.Sprintf("error: unknown tool '%s'", toolName)), nil, nil
	}
	if handler.RequiresAuth() && (sess == nil || !sess.Authenticated()) {
		return errResult(config.ErrToolUnauthenticated, "error: authentication required to access account information"), nil, nil
	}
	return handler.Execute(ctx, sess, arguments)
}

func (e *Executor) claim(callID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[callID]; busy {
		return fmt.Errorf("tool call %q is already in flight", callID)
	}
	e.inFlight[callID] = struct{}{}
	return nil
}

func (e *Executor) release(callID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, callID)
}

func outcomeLabel(result *Result, err error) string {
	if err != nil {
		return "internal"
	}
	if result == nil || !result.IsError {
		return "ok"
	}
	switch result.Kind {
	case config.ErrToolBadArguments:
		return "bad_arguments"
	case config.ErrToolUnauthenticated:
		return "unauthenticated"
	case config.ErrBackendTimeout:
		return "backend_timeout"
	case config.ErrBackendHTTPError:
		return "backend_http_error"
	case config.ErrEmbeddingFailure:
		return "embedding_failure"
	default:
		return "error"
	}
}
