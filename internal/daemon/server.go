package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/matheus3301/chatrise/internal/api"
	"github.com/matheus3301/chatrise/internal/auth"
)

// Server manages the gRPC server lifecycle for chatrised.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger
}

// listen binds addr, which is host:port or unix:///path/to.sock.
func listen(addr string) (net.Listener, string, error) {
	socketPath, ok := strings.CutPrefix(addr, "unix://")
	if !ok {
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, "", fmt.Errorf("listen tcp: %w", err)
		}
		return l, "", nil
	}

	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, "", fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = l.Close()
		return nil, "", fmt.Errorf("chmod socket: %w", err)
	}
	return l, socketPath, nil
}

// NewServer creates a gRPC server bound to the configured listen address.
func NewServer(s Settings, logger *zap.Logger, authSvc *auth.Service, services *api.Services) (*Server, error) {
	listener, socketPath, err := listen(s.Listen)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer(api.ServerOptions(authSvc, logger)...)
	services.Register(srv)

	return &Server{
		grpcServer: srv,
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
	}, nil
}

// Addr returns the bound address, as a dial target.
func (s *Server) Addr() string {
	if s.socketPath != "" {
		return "unix://" + s.socketPath
	}
	return s.listener.Addr().String()
}

// Start begins serving gRPC requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("gRPC server starting", zap.String("addr", s.Addr()))
	return s.grpcServer.Serve(s.listener)
}

// Stop performs a graceful shutdown and removes the socket file, if any.
// Open event streams are cut once ctx expires.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("gRPC server stopping")
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
	if s.socketPath != "" {
		_ = os.Remove(s.socketPath)
	}
}
