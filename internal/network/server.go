package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/leengari/coltable/internal/engine"
	"github.com/leengari/coltable/internal/storage/manager"
)

// Request is one command sent by a client, newline delimited JSON
type Request struct {
	Command string `json:"command"`
}

// Server accepts TCP clients and runs their commands against a registry.
// Each connection gets its own engine, so table selection is per client.
type Server struct {
	registry *manager.Registry
	logger   *slog.Logger
	pageSize int
	journal  engine.Journal

	wg sync.WaitGroup
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPageSize sets the default page size of each connection's engine
func WithPageSize(n int) Option {
	return func(s *Server) {
		s.pageSize = n
	}
}

// WithJournal journals the table changes made by every client
func WithJournal(j engine.Journal) Option {
	return func(s *Server) {
		s.journal = j
	}
}

// NewServer creates a server over registry
func NewServer(registry *manager.Registry, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		logger:   slog.Default(),
		pageSize: engine.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds addr and serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, then
// waits for open connections to finish.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.logger.Info("Listening", "addr", listener.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.logger.Error("Failed to accept connection", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	logger := s.logger.With("remote", conn.RemoteAddr().String())
	logger.Debug("client connected")

	// a failing command drops its own connection, not the server
	defer func() {
		if p := recover(); p != nil {
			logger.Error("connection handler panicked", "panic", p)
		}
	}()

	opts := []engine.Option{engine.WithPageSize(s.pageSize)}
	if s.journal != nil {
		opts = append(opts, engine.WithJournal(s.journal))
	}
	eng := engine.New(s.registry, opts...)
	eng.AddObserver(engine.NewLoggingObserver(logger))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF || errors.Is(err, net.ErrClosed) {
				logger.Debug("client disconnected")
				return
			}
			logger.Error("decode error", "error", err)
			_ = encoder.Encode(&engine.Result{
				Error: fmt.Sprintf("Invalid request format: %v", err),
			})
			return
		}

		if req.Command == "exit" || req.Command == "\\q" {
			return
		}

		result, err := eng.Execute(req.Command)
		if err != nil {
			result = engine.ErrorResult(err)
		}
		if err := encoder.Encode(result); err != nil {
			logger.Error("encode error", "error", err)
			return
		}
	}
}
