// internal/app/ingest/server.go
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/dalemusser/sensorhub/internal/app/system/limits"
	"github.com/dalemusser/sensorhub/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServerConfig carries the listener settings for the ingest server.
type ServerConfig struct {
	Host string
	Port int
	// MaxMessage bounds one inbound message; 0 means limits.MaxIngestMessage.
	MaxMessage int
}

// Server accepts TCP connections from devices and drives the
// read-process-respond loop, one goroutine per connection. Slow or
// stalled peers never block other connections; per-connection state is
// never shared between handling goroutines.
//
// Within a connection, messages are processed strictly in arrival order.
// Across connections there is no ordering guarantee.
type Server struct {
	addr       string
	maxMessage int
	handler    *Handler
	log        *zap.Logger

	mu       sync.Mutex
	ln       net.Listener
	active   map[net.Conn]struct{}
	stopping bool

	done  chan struct{}
	conns sync.WaitGroup
}

// NewServer constructs a Server; Start does the binding.
func NewServer(handler *Handler, cfg ServerConfig, logger *zap.Logger) *Server {
	maxMessage := cfg.MaxMessage
	if maxMessage <= 0 {
		maxMessage = limits.MaxIngestMessage
	}
	return &Server{
		addr:       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		maxMessage: maxMessage,
		handler:    handler,
		log:        logger,
		active:     make(map[net.Conn]struct{}),
		done:       make(chan struct{}),
	}
}

// Start binds the listening socket and begins accepting connections in
// a background goroutine. A bind failure (address in use, insufficient
// permission) is returned immediately; after a successful bind the
// server runs until Stop is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.addr, err)
	}

	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	s.log.Info("ingest server listening", zap.String("addr", ln.Addr().String()))

	go s.acceptLoop(ln)
	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// Transient accept failure: log and keep serving. A broken
			// listener surfaces as net.ErrClosed or repeats until Stop.
			s.log.Error("accept failed", zap.Error(err))
			continue
		}
		s.conns.Add(1)
		go s.handleConn(conn)
	}
}

// Addr returns the bound listener address, or "" before Start. Useful
// when the configured port is 0 (tests).
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop signals shutdown and waits for in-flight connections. No new
// connections are accepted; connections finish their current message
// exchange and then close. If ctx expires first, the remaining
// connections are severed so shutdown stays bounded. Safe to call from
// a different goroutine than Start, and safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	ln := s.ln
	s.mu.Unlock()

	close(s.done)
	if ln != nil {
		ln.Close()
	}

	finished := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s.log.Info("ingest server stopped")
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		n := len(s.active)
		for conn := range s.active {
			conn.Close()
		}
		s.mu.Unlock()
		s.log.Warn("severed connections at shutdown deadline", zap.Int("count", n))
		<-finished
		return ctx.Err()
	}
}

// handleConn owns one connection for its lifetime: read a message, hand
// it to the protocol handler, write the acknowledgment, repeat. Any read
// or write error terminates this connection only; the socket and buffer
// are released on return.
func (s *Server) handleConn(conn net.Conn) {
	defer s.conns.Done()
	defer conn.Close()

	s.mu.Lock()
	s.active[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.active, conn)
		s.mu.Unlock()
	}()

	log := s.log.With(
		zap.String("conn_id", uuid.NewString()),
		zap.String("remote", conn.RemoteAddr().String()),
	)
	log.Info("connection opened")

	buf := make([]byte, s.maxMessage)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Info("connection closed by peer")
			} else if !errors.Is(err, net.ErrClosed) {
				log.Warn("read failed", zap.Error(err))
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
		resp := s.handler.Process(ctx, buf[:n])
		cancel()

		out, err := json.Marshal(resp)
		if err != nil {
			log.Error("marshal acknowledgment failed", zap.Error(err))
			return
		}
		if _, err := conn.Write(out); err != nil {
			log.Warn("write failed", zap.Error(err))
			return
		}

		// Graceful shutdown: finish the exchange in progress, then close
		// instead of reading the next message.
		select {
		case <-s.done:
			log.Info("closing connection for shutdown")
			return
		default:
		}
	}
}
