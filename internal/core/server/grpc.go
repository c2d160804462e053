// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/solatis/bamboorules/internal/core/api"
	"github.com/solatis/bamboorules/internal/core/auth"
	"github.com/solatis/bamboorules/internal/core/config"
	"github.com/solatis/bamboorules/internal/core/metrics"
)

// shutdownGrace bounds graceful stop before in-flight calls are cut.
const shutdownGrace = 30 * time.Second

// GRPCServer manages the gRPC server and the optional metrics endpoint.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	metrics  *http.Server
	config   config.ServerConfig
	logger   *slog.Logger
	listener net.Listener
}

// NewGRPCServer creates the gRPC server and registers the rule and health
// services. authenticator may be nil to serve without API keys; m may be
// nil to skip the metrics endpoint.
func NewGRPCServer(cfg config.ServerConfig, service api.RuleServiceServer, authenticator *auth.Authenticator, m *metrics.Metrics, logger *slog.Logger) (*GRPCServer, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	interceptors := []grpc.UnaryServerInterceptor{loggingInterceptor(logger)}
	if authenticator != nil {
		interceptors = append(interceptors, authenticator.UnaryInterceptor(
			"/grpc.health.v1.Health/Check",
			"/grpc.health.v1.Health/List",
		))
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	api.RegisterRuleServiceServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	s := &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}

	if m != nil && cfg.MetricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		s.metrics = &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.MetricsPort)),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return s, nil
}

// Start binds the configured address and serves until Shutdown.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves gRPC on lis, and the metrics endpoint when configured.
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.listener = lis

	if s.metrics != nil {
		go func() {
			s.logger.Info("Serving metrics", "addr", s.metrics.Addr)
			if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("Metrics endpoint failed", "error", err)
			}
		}()
	}

	s.logger.Info("Serving rule service", "addr", lis.Addr().String())
	return s.server.Serve(lis)
}

// Shutdown marks the service not serving and stops gracefully, forcing a
// stop when ctx ends or the grace period expires.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	if s.metrics != nil {
		if err := s.metrics.Shutdown(ctx); err != nil {
			s.logger.Warn("Metrics endpoint shutdown", "error", err)
		}
	}

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownGrace):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}

// loggingInterceptor logs each call at debug level with its status code.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("Handled call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"elapsed", time.Since(start),
		)
		return resp, err
	}
}
