// Package grpcserver exposes the standard gRPC health and reflection
// services so orchestrators can probe the analysis capabilities.
package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/soltixdb/insight/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Health service names reported by the server
const (
	ForecasterService = "insight.Forecaster"
	DetectorService   = "insight.OutlierDetector"
)

// Services lists every named service the server reports on
var Services = []string{ForecasterService, DetectorService}

// Server is the gRPC health server
type Server struct {
	address    string
	grpcServer *grpc.Server
	health     *health.Server
	logger     *logging.Logger
}

// New creates a server that will listen on address
func New(address string, logger *logging.Logger) *Server {
	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(1024*1024), // health probes are tiny
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	// Register reflection service (for debugging with grpcurl)
	reflection.Register(grpcServer)

	return &Server{
		address:    address,
		grpcServer: grpcServer,
		health:     hs,
		logger:     logger.Component("grpc"),
	}
}

// SetServing flips every named service between SERVING and NOT_SERVING
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	for _, name := range Services {
		s.health.SetServingStatus(name, status)
	}
}

// Serve marks the services SERVING and blocks serving lis
func (s *Server) Serve(lis net.Listener) error {
	s.SetServing(true)
	s.logger.Info("gRPC server starting", "address", lis.Addr().String())

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Start listens on the configured address and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Drain reports NOT_SERVING for every service, including the overall
// one, while existing connections stay open
func (s *Server) Drain() {
	s.health.Shutdown()
}

// Stop drains and stops the gRPC server gracefully
func (s *Server) Stop() {
	s.logger.Info("Stopping gRPC server")
	s.Drain()
	s.grpcServer.GracefulStop()
}
