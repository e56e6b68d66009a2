// Package gateway wires the HTTP server (A6): the /ws/chat websocket
// upgrade that opens a relay session, /healthz, and /metrics. Grounded
// on the teacher's internal/gateway/http_server.go mux/listener/shutdown
// shape, generalized from its many channel/web/webhook routes down to
// this gateway's single voice route.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fenwick-labs/voicegate/internal/agentctrl"
	"github.com/fenwick-labs/voicegate/internal/auth"
	"github.com/fenwick-labs/voicegate/internal/backend"
	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/observability"
	"github.com/fenwick-labs/voicegate/internal/ragsvc"
	"github.com/fenwick-labs/voicegate/internal/ratelimit"
	"github.com/fenwick-labs/voicegate/internal/relay"
	"github.com/fenwick-labs/voicegate/internal/session"
	"github.com/fenwick-labs/voicegate/internal/tools"
	"github.com/fenwick-labs/voicegate/internal/upstream"
)

// Server owns the gateway's HTTP listener and the shared, read-only
// state every relay session dispatches against: config, the tool
// executor, and the observability stack.
type Server struct {
	cfg      *config.Config
	executor *tools.Executor
	logger   *observability.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer

	httpServer   *http.Server
	httpListener net.Listener
	upgrader     websocketUpgrader
	startTime    time.Time

	// connLimiter bounds how many new /ws/chat connections a single
	// remote address may open per second, independent of the relay's
	// own per-session concurrency (spec.md has no such limit; this
	// guards the upstream dial, not the protocol).
	connLimiter *ratelimit.Limiter
}

// websocketUpgrader is the subset of gorilla/websocket.Upgrader the
// server needs, kept as an interface so tests can substitute a fake.
type websocketUpgrader interface {
	Upgrade(w http.ResponseWriter, r *http.Request, responseHeader http.Header) (relay.BrowserConn, error)
}

// NewServer constructs a Server. rag may be nil only in tests that don't
// exercise search_knowledge_base.
func NewServer(cfg *config.Config, rag *ragsvc.Service, backendClient *backend.Client, logger *observability.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Server {
	registry := buildToolRegistry(rag, backendClient)
	executor := tools.NewExecutor(registry, logger, metrics, tracer)
	return &Server{
		cfg:       cfg,
		executor:  executor,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		upgrader:    newGorillaUpgrader(cfg.Server.CORSAllowedOrigins),
		startTime:   time.Now(),
		connLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
}

// buildToolRegistry registers every spec.md §4.3 tool.
func buildToolRegistry(rag *ragsvc.Service, backendClient *backend.Client) *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(tools.NewSearchKnowledgeBase(rag))
	registry.Register(tools.NewHandoff(config.RoleAnonymous))
	registry.Register(tools.NewHandoff(config.RoleAuthenticated))
	registry.Register(tools.NewGetAccountBalance(backendClient))
	registry.Register(tools.NewGetAccountDetails(backendClient))
	registry.Register(tools.NewGetRecentTransactions(backendClient))
	registry.Register(tools.NewGetCardDetails(backendClient))
	registry.Register(tools.NewFreezeCard(backendClient))
	registry.Register(tools.NewUnfreezeCard(backendClient))
	registry.Register(tools.NewCheckProductOwnership(backendClient))
	return registry
}

// Mux builds the server's route table.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/ws/chat", s.handleWSChat)
	return mux
}

// Start begins serving on cfg.Server.Host:Port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.httpServer = server
	s.httpListener = listener

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.logger != nil {
				s.logger.Error(ctx, "http server error", "error", err.Error())
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info(ctx, "gateway listening", "addr", addr)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// remoteKey extracts the rate-limit key for a connection attempt,
// preferring a proxy-forwarded address over the raw socket peer since
// the gateway typically sits behind a load balancer.
func remoteKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleWSChat upgrades the browser connection, selects the persona
// role from the jwt query parameter (spec.md §6), dials upstream, and
// runs the relay session to completion.
func (s *Server) handleWSChat(w http.ResponseWriter, r *http.Request) {
	if s.connLimiter != nil && !s.connLimiter.Allow(remoteKey(r)) {
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	authToken := r.URL.Query().Get("jwt")
	role := agentctrl.SelectRole(authToken)
	persona := s.cfg.PersonaFor(role)
	if persona == nil {
		http.Error(w, "no persona configured for role", http.StatusInternalServerError)
		return
	}

	browserConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err.Error())
		}
		return
	}

	ctx := r.Context()
	upSession, err := upstream.Dial(ctx, s.cfg.Upstream, persona)
	if err != nil {
		if s.logger != nil {
			s.logger.Error(ctx, "upstream dial failed", "error", err.Error())
		}
		if s.metrics != nil {
			s.metrics.ErrorsTotal.WithLabelValues(string(config.ErrUpstreamConnectFailed)).Inc()
		}
		_ = browserConn.Close()
		return
	}

	identity := auth.DecodeIdentity(authToken)
	sess := session.New(role, authToken, identity.Name)

	relaySession := relay.NewSession(ctx, browserConn, upSession, sess, persona, s.executor, s.logger, s.metrics, s.tracer)
	relaySession.Run()
}
