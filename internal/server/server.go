// Package server hosts a WelcomeService on a single port: the JSON gateway, the Connect/gRPC
// handler and a health check, all served over h2c.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/monadicstack/respond"
	"github.com/monadicstack/welcome/rpc"
	"github.com/monadicstack/welcome/rpc/unary"
	"github.com/monadicstack/welcome/welcome"
	welcomerpc "github.com/monadicstack/welcome/welcome/gen"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// HealthPath answers GET requests with {"status":"ok"} while the server is up.
const HealthPath = "/health"

// Option customizes the Server built by New().
type Option func(*Server)

// WithAddr sets the host:port to listen on.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.Addr = addr
	}
}

// WithShutdownTimeout bounds how long Run() waits for in-flight requests once its context is done.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.ShutdownTimeout = timeout
	}
}

// WithLogger sets the logger used for request logs and lifecycle messages.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server exposes one WelcomeService over HTTP/JSON, Connect, gRPC and gRPC-Web.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration

	service welcome.WelcomeService
	logger  zerolog.Logger
}

// New creates a server for the service. Nothing listens until you call Run() or Serve().
func New(service welcome.WelcomeService, options ...Option) *Server {
	s := &Server{
		Addr:            ":9090",
		ShutdownTimeout: 10 * time.Second,
		service:         service,
		logger:          zerolog.Nop(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Handler builds the root handler. Connect procedures live under "/welcome.v1.WelcomeService/",
// the health check under HealthPath, and everything else goes to the JSON gateway.
func (s *Server) Handler() http.Handler {
	gateway := welcomerpc.NewWelcomeServiceGateway(s.service, rpc.WithLogger(s.logger))
	connectPath, connectHandler := welcomerpc.NewWelcomeServiceConnectHandler(s.service,
		connect.WithInterceptors(unary.LoggingInterceptor(s.logger)),
	)

	mux := http.NewServeMux()
	mux.Handle(connectPath, connectHandler)
	mux.HandleFunc("GET "+HealthPath, health)
	mux.Handle("/", gateway)
	return h2c.NewHandler(mux, &http2.Server{})
}

// Run listens on Addr and serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on the listener until the context is cancelled, then shuts down
// gracefully. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("welcome service listening")
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Dur("timeout", s.ShutdownTimeout).Msg("welcome service shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func health(w http.ResponseWriter, req *http.Request) {
	respond.To(w, req).Ok(map[string]string{"status": "ok"})
}
