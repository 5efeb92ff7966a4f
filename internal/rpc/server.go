// internal/rpc/server.go
//
// gRPC server for Srv mode.  Serve blocks until ctx is cancelled or the
// listener fails, then stops gracefully.  A standard health service is
// registered next to the backend.

package rpc

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server serves one Backend.
type Server struct {
	addr   string
	listen func() (net.Listener, error)
	opts   []grpc.ServerOption
	log    *zap.SugaredLogger
}

// Option configures a Server.
type Option func(*Server)

// WithListener replaces the TCP listener, e.g. with a bufconn in tests.
func WithListener(fn func() (net.Listener, error)) Option {
	return func(s *Server) { s.listen = fn }
}

// WithServerOptions appends grpc.ServerOptions.
func WithServerOptions(opts ...grpc.ServerOption) Option {
	return func(s *Server) { s.opts = append(s.opts, opts...) }
}

// WithLogger sets the logger (zap.S() by default).
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Server) { s.log = log }
}

// NewServer returns a Server listening on addr.
func NewServer(addr string, opts ...Option) *Server {
	s := &Server{addr: addr, log: zap.S()}
	s.listen = func() (net.Listener, error) { return net.Listen("tcp", s.addr) }
	for _, o := range opts {
		o(s)
	}
	return s
}

// Serve registers b and blocks.
func (s *Server) Serve(ctx context.Context, b *Backend) error {
	lis, err := s.listen()
	if err != nil {
		return err
	}

	gs := grpc.NewServer(s.opts...)
	gs.RegisterService(&ServiceDesc, b)
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Infow("rpc server listening", "addr", lis.Addr().String())
		if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hs.Shutdown()
		gs.GracefulStop()
		s.log.Infow("rpc server stopped")
		return nil
	})
	return g.Wait()
}
