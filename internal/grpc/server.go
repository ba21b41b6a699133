package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the name the façade reports under in the gRPC health service.
const ServiceName = "search-facade"

// Pinger is anything that can tell whether the search engine answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the dependencies of the gRPC server
type Deps struct {
	Engine Pinger
	Logger *zap.Logger
	// Interval between engine pings; 15s when zero.
	Interval time.Duration
}

// Server is the gRPC listener: the standard health service, whose status follows the engine,
// and server reflection.
type Server struct {
	*grpc.Server
	health   *health.Server
	engine   Pinger
	logger   *zap.Logger
	interval time.Duration
}

func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	s := &Server{
		health:   health.NewServer(),
		engine:   deps.Engine,
		logger:   logger,
		interval: interval,
	}
	s.Server = grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoverUnary, s.logUnary))
	healthpb.RegisterHealthServer(s.Server, s.health)
	reflection.Register(s.Server)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Check pings the engine once and updates the health status.
func (s *Server) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()
	if err := s.engine.Ping(ctx); err != nil {
		s.logger.Warn("grpc health: engine unavailable", zap.Error(err))
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

// Monitor keeps the health status current until ctx is cancelled.
func (s *Server) Monitor(ctx context.Context) {
	s.Check(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// GracefulStop marks every service as not serving before stopping the server.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.Server.GracefulStop()
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("grpc request",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("latency", time.Since(start)),
	)
	return resp, err
}

func (s *Server) recoverUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("grpc: panic recovered", zap.String("method", info.FullMethod), zap.Any("panic", rec))
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}
