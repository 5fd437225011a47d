package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Handler processes one request and returns the response.
type Handler func(Request) Response

// Server listens on a unix socket and serves client requests.
type Server struct {
	socketPath string
	handler    Handler
	logger     *slog.Logger

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// readTimeout bounds how long an idle connection may sit between requests.
const readTimeout = 30 * time.Second

// NewServer creates a server for the given socket path.
func NewServer(socketPath string, handler Handler) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     slog.Default().With("component", "ipc"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins listening and accepting connections. A stale socket file
// from a previous run is removed first.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o750); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	if err := removeStaleSocket(s.socketPath); err != nil {
		return err
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("restrict socket permissions: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("ipc server listening", "socket", s.socketPath)
	return nil
}

// removeStaleSocket deletes a leftover socket file only if nothing is
// listening on it.
func removeStaleSocket(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, 500*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("socket %s is in use by another daemon", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	// Close the connection when the server shuts down so blocked reads
	// return.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)
	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		if !scanner.Scan() {
			return
		}

		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			enc.Encode(Errorf("malformed request: " + err.Error()))
			return
		}

		resp := s.handler(req)
		if err := enc.Encode(resp); err != nil {
			s.logger.Debug("write response failed", "error", err)
			return
		}
	}
}

// Close stops the server and removes the socket file.
func (s *Server) Close() error {
	s.cancel()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
	return err
}
