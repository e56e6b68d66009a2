package tools

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-labs/voicegate/internal/agentctrl"
	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/observability"
	"github.com/fenwick-labs/voicegate/internal/session"
)

type blockingHandler struct {
	release chan struct{}
	started chan struct{}
}

func (b *blockingHandler) Name() string         { return "blocking_tool" }
func (b *blockingHandler) RequiresAuth() bool    { return false }
func (b *blockingHandler) Description() string   { return "blocks until release is closed" }
func (b *blockingHandler) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	close(b.started)
	<-b.release
	return okResult("done"), nil, nil
}

type echoHandler struct {
	requiresAuth bool
}

func (e *echoHandler) Name() string       { return "echo_tool" }
func (e *echoHandler) RequiresAuth() bool { return e.requiresAuth }
func (e *echoHandler) Description() string { return "echoes its arguments" }
func (e *echoHandler) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	return okResult(string(arguments)), nil, nil
}

func newTestExecutor(t *testing.T, handlers ...Handler) *Executor {
	t.Helper()
	registry := NewRegistry()
	for _, h := range handlers {
		registry.Register(h)
	}
	logger := observability.NewLogger(observability.LogConfig{})
	metrics := observability.NewMetrics()
	tracer, shutdown := observability.NewTracer(observability.TraceConfig{ServiceName: "test"})
	t.Cleanup(func() { _ = shutdown(context.Background()) })
	return NewExecutor(registry, logger, metrics, tracer)
}

func TestExecutorDispatchesToRegisteredHandler(t *testing.T) {
	exec := newTestExecutor(t, &echoHandler{})
	result, signal, err := exec.Execute(context.Background(), nil, "call-1", "echo_tool", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	assert.Nil(t, signal)
	assert.False(t, result.IsError)
	assert.Equal(t, `{"x":1}`, result.Text)
}

func TestExecutorUnknownToolReturnsBadArguments(t *testing.T) {
	exec := newTestExecutor(t)
	result, signal, err := exec.Execute(context.Background(), nil, "call-1", "no_such_tool", nil)
	require.NoError(t, err)
	assert.Nil(t, signal)
	assert.True(t, result.IsError)
	assert.Equal(t, config.ErrToolBadArguments, result.Kind)
}

func TestExecutorRejectsDuplicateInFlightCallID(t *testing.T) {
	handler := &blockingHandler{release: make(chan struct{}), started: make(chan struct{})}
	exec := newTestExecutor(t, handler)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, err := exec.Execute(context.Background(), nil, "dup-call", "blocking_tool", nil)
		assert.NoError(t, err)
	}()

	<-handler.started
	_, _, err := exec.Execute(context.Background(), nil, "dup-call", "blocking_tool", nil)
	assert.Error(t, err)

	close(handler.release)
	wg.Wait()
}

func TestExecutorAllowsReuseOfCallIDAfterCompletion(t *testing.T) {
	exec := newTestExecutor(t, &echoHandler{})
	_, _, err := exec.Execute(context.Background(), nil, "call-1", "echo_tool", json.RawMessage(`{}`))
	require.NoError(t, err)

	_, _, err = exec.Execute(context.Background(), nil, "call-1", "echo_tool", json.RawMessage(`{}`))
	assert.NoError(t, err)
}

func TestExecutorHandoffSignalPassthrough(t *testing.T) {
	exec := newTestExecutor(t, NewHandoff(config.RoleAuthenticated))
	args := json.RawMessage(`{"reason":"needs authenticated agent"}`)
	result, signal, err := exec.Execute(context.Background(), nil, "call-1", agentctrl.ToolName(config.RoleAuthenticated), args)
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, config.RoleAuthenticated, signal.Target)
	assert.False(t, result.IsError)
}

func TestExecutorPropagatesBadArgumentsFromHandler(t *testing.T) {
	exec := newTestExecutor(t, NewHandoff(config.RoleAnonymous))
	result, signal, err := exec.Execute(context.Background(), nil, "call-1", agentctrl.ToolName(config.RoleAnonymous), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Nil(t, signal)
	assert.True(t, result.IsError)
	assert.Equal(t, config.ErrToolBadArguments, result.Kind)
}
