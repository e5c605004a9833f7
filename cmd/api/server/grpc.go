package server

import (
	grpcadapter "andrew-web-services/internal/adapter/grpc"
	"andrew-web-services/internal/adapter/grpc/middleware"
	"andrew-web-services/internal/usecase/webservice"
	"andrew-web-services/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// SetupGRPC creates and configures the gRPC server
func SetupGRPC(uc webservice.Usecase, l *zap.Logger, rateLimiter *middleware.RateLimiter) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{logger.RequestIDInterceptor()}
	if rateLimiter != nil {
		interceptors = append(interceptors, rateLimiter.UnaryInterceptor())
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	grpcadapter.Register(grpcServer, grpcadapter.NewAndrewWebServicesServer(uc, l))

	return grpcServer
}
