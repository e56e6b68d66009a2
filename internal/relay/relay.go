// Package relay implements the relay core (C5): the two cooperating
// pumps that shuttle frames between a browser connection and an
// upstream realtime session, intercepting tool calls along the way.
// Grounded on the teacher's internal/gateway websocket session run loop
// (readLoop/writeLoop pair sharing one context.CancelFunc), generalized
// from a single-socket request/response server to a two-socket relay.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fenwick-labs/voicegate/internal/agentctrl"
	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/observability"
	"github.com/fenwick-labs/voicegate/internal/session"
	"github.com/fenwick-labs/voicegate/internal/tools"
	"github.com/fenwick-labs/voicegate/internal/upstream"
)

// BrowserConn is the subset of *websocket.Conn the relay needs on the
// browser side. A narrow interface lets tests substitute an in-memory
// double without standing up a real HTTP upgrade.
type BrowserConn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// UpstreamConn is the subset of *upstream.Session the relay needs.
type UpstreamConn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

var _ UpstreamConn = (*upstream.Session)(nil)

// Session owns one browser<->upstream relay for the lifetime of a
// connection.
type Session struct {
	browser  BrowserConn
	up       UpstreamConn
	sess     *session.Session
	persona  *config.PersonaConfig
	executor *tools.Executor
	logger   *observability.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession constructs a relay Session. The caller has already dialed
// the upstream connection and sent session.update (internal/upstream.Dial
// does both) and selected the persona (internal/agentctrl.SelectRole).
func NewSession(ctx context.Context, browser BrowserConn, up UpstreamConn, sess *session.Session, persona *config.PersonaConfig, executor *tools.Executor, logger *observability.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Session {
	sessionCtx, cancel := context.WithCancel(ctx)
	return &Session{
		browser:  browser,
		up:       up,
		sess:     sess,
		persona:  persona,
		executor: executor,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		ctx:      sessionCtx,
		cancel:   cancel,
	}
}

// Run blocks until either pump terminates, then cancels the other and
// waits for it to exit. Per spec.md §5, both halves of the relay must
// exit within a bounded number of milliseconds of cancellation; the
// pumps below exit as soon as their blocking read is interrupted by the
// peer socket closing, which `cancel` triggers by closing both conns.
func (s *Session) Run() {
	if s.metrics != nil {
		s.metrics.SessionsOpened.WithLabelValues(string(s.sess.Role)).Inc()
	}
	start := time.Now()

	ctx, span := s.tracer.TraceSession(s.ctx, string(s.sess.Role), s.sess.ID)
	defer span.End()

	done := make(chan string, 2)
	go func() { done <- s.runUpPump(ctx) }()
	go func() { done <- s.runDownPump(ctx) }()

	reason := <-done
	s.cancel()
	_ = s.browser.Close()
	_ = s.up.Close()
	<-done

	if s.metrics != nil {
		s.metrics.SessionsClosed.WithLabelValues(string(s.sess.Role), reason).Inc()
		s.metrics.SessionDuration.WithLabelValues(string(s.sess.Role)).Observe(time.Since(start).Seconds())
	}
	if s.logger != nil {
		s.logger.Info(ctx, "relay session closed", "session_id", s.sess.ID, "role", s.sess.Role, "reason", reason)
	}
}

// runUpPump forwards every browser message to upstream verbatim, with
// no parsing and no buffering beyond the transport (spec.md §4.5).
func (s *Session) runUpPump(ctx context.Context) string {
	for {
		mt, data, err := s.browser.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "cancelled"
			}
			return "client_dropped"
		}
		if err := s.up.WriteMessage(mt, data); err != nil {
			return "upstream_dropped"
		}
	}
}

// runDownPump parses each upstream textual event and dispatches it per
// spec.md §4.5's table; binary frames are forwarded verbatim.
func (s *Session) runDownPump(ctx context.Context) string {
	for {
		mt, data, err := s.up.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "cancelled"
			}
			return "upstream_dropped"
		}
		if mt != websocket.TextMessage {
			if err := s.browser.WriteMessage(mt, data); err != nil {
				return "client_dropped"
			}
			continue
		}
		if err := s.handleDownstreamEvent(ctx, data); err != nil {
			return err.Error()
		}
	}
}

func (s *Session) handleDownstreamEvent(ctx context.Context, data []byte) error {
	var env upstreamEvent
	if err := json.Unmarshal(data, &env); err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "malformed upstream event dropped", "error", err.Error())
		}
		return nil
	}

	switch env.Type {
	case "response.function_call_arguments.done":
		return s.interceptFunctionCall(ctx, data)
	case "error":
		if s.logger != nil {
			s.logger.Error(ctx, "upstream error event", "payload", string(data))
		}
		return forward(s.browser, data)
	default:
		return forward(s.browser, data)
	}
}

func forward(conn BrowserConn, data []byte) error {
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errClientDropped
	}
	return nil
}

var errClientDropped = errors.New("client_dropped")

// interceptFunctionCall implements spec.md §4.5's tool-call interception:
// the event is never forwarded to the browser. The tool result is sent
// upstream as function_call_output, strictly before response.create.
func (s *Session) interceptFunctionCall(ctx context.Context, data []byte) error {
	var call functionCallArgsDone
	if err := json.Unmarshal(data, &call); err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "malformed function_call_arguments.done dropped", "error", err.Error())
		}
		return nil
	}

	result, signal, err := s.executor.Execute(ctx, s.sess, call.CallID, call.Name, json.RawMessage(call.Arguments))
	if err != nil {
		// A cancelled or internally failed tool call yields no output;
		// the model times out naturally on its side (spec.md §5).
		if s.logger != nil {
			s.logger.Error(ctx, "tool execution error", "tool_name", call.Name, "call_id", call.CallID, "error", err.Error())
		}
		return nil
	}

	outputEvent, err := marshalEvent(newFunctionCallOutputEvent(call.CallID, result.Text))
	if err != nil {
		return nil
	}
	if err := s.up.WriteMessage(websocket.TextMessage, outputEvent); err != nil {
		return errUpstreamDropped
	}

	createEvent, err := marshalEvent(newResponseCreateEvent())
	if err != nil {
		return nil
	}
	if err := s.up.WriteMessage(websocket.TextMessage, createEvent); err != nil {
		return errUpstreamDropped
	}

	if signal != nil {
		s.scheduleHandoff(signal)
	}
	return nil
}

var errUpstreamDropped = errors.New("upstream_dropped")

// scheduleHandoff sends the custom agent.handoff event to the browser
// after the persona's configured delay, so the current utterance
// finishes before the client tears down the session (spec.md §4.5).
func (s *Session) scheduleHandoff(signal *agentctrl.HandoffSignal) {
	delay := time.Duration(s.persona.HandoffDelayMs) * time.Millisecond
	time.AfterFunc(delay, func() {
		if s.ctx.Err() != nil {
			return
		}
		event := agentHandoffEvent{
			Type:        "agent.handoff",
			TargetAgent: string(signal.Target),
			Message:     signal.Reason,
		}
		payload, err := marshalEvent(event)
		if err != nil {
			return
		}
		_ = s.browser.WriteMessage(websocket.TextMessage, payload)
		if s.metrics != nil {
			s.metrics.HandoffEvents.WithLabelValues(string(signal.Target)).Inc()
		}
	})
}
