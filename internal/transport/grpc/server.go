package transportgrpc

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcinterceptors "github.com/arklim/campus-records/internal/transport/grpc/interceptors"
)

// ServiceName is the health service name clients probe for the records API.
const ServiceName = "campus.records.v1.Records"

// Checker exposes readiness behaviour for a backing dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// ServerDependencies encapsulates what the gRPC listener needs.
type ServerDependencies struct {
	Logger   *zap.Logger
	Metrics  *grpcinterceptors.GRPCMetrics
	Tracing  *grpcinterceptors.TracingOptions
	Checkers []Checker
}

// Server serves the standard gRPC health protocol, reporting the same
// dependency checks as the HTTP readiness probe.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	checkers []Checker
	logger   *zap.Logger
}

// NewServer wires the health service with metrics and tracing.
func NewServer(deps ServerDependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(deps.Metrics.UnaryServerInterceptor())}
	if deps.Tracing != nil {
		opts = append(opts, grpcinterceptors.TracingServerOption(*deps.Tracing))
	}

	server := grpc.NewServer(opts...)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)

	// Register reflection service for tools like grpcurl.
	reflection.Register(server)

	s := &Server{grpc: server, health: healthSrv, checkers: deps.Checkers, logger: logger}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Probe runs every checker once and publishes the aggregate status.
func (s *Server) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for _, checker := range s.checkers {
		if err := checker.Check(ctx); err != nil {
			s.logger.Warn("dependency unhealthy", zap.String("dependency", checker.Name()), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.setStatus(status)
	return status
}

// WatchHealth probes immediately and then every interval until ctx is done.
func (s *Server) WatchHealth(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		s.Probe(probeCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks accepting connections on lis.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
