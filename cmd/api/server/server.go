package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	ginhandler "andrew-web-services/internal/adapter/gin/handler"
	"andrew-web-services/internal/adapter/grpc/middleware"
	"andrew-web-services/internal/config"
	"andrew-web-services/internal/usecase/webservice"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	GRPC   *grpc.Server
	Gin    *http.Server
}

// New creates a new server instance
func New(
	cfg *config.Config,
	l *zap.Logger,
	uc webservice.Usecase,
	rateLimiter *middleware.RateLimiter,
	ginHandler *ginhandler.Handler,
) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		GRPC:   SetupGRPC(uc, l, rateLimiter),
		Gin:    SetupGinServer(ginHandler, rateLimiter, ":"+cfg.App.HTTPPort, l),
	}
}

// Start runs the gRPC and Gin servers until one of them fails or ctx is
// done. Stopping the servers is left to Shutdown.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	grpcLis, err := lc.Listen(ctx, "tcp", s.grpcAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.grpcAddress(), err)
	}
	ginLis, err := lc.Listen(ctx, "tcp", s.Gin.Addr)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("failed to listen on %s: %w", s.Gin.Addr, err)
	}

	return s.Serve(grpcLis, ginLis)
}

// Serve runs both servers on the given listeners.
func (s *Server) Serve(grpcLis, ginLis net.Listener) error {
	var g errgroup.Group

	g.Go(func() error {
		s.Logger.Info("gRPC server running", zap.String("address", grpcLis.Addr().String()))
		if err := s.GRPC.Serve(grpcLis); err != nil {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.Logger.Info("Gin server running", zap.String("address", ginLis.Addr().String()))
		if err := s.Gin.Serve(ginLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gin server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Shutdown stops accepting requests on both servers and waits for in-flight
// ones, bounded by ctx for the Gin server.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.Gin != nil {
		s.Logger.Info("shutting down Gin server...")
		if err := s.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
		}
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
			errs = append(errs, fmt.Errorf("gRPC shutdown: %w", ctx.Err()))
		}
	}

	return errors.Join(errs...)
}

// grpcAddress returns the gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}
