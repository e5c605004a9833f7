package server

import (
	"net/http"
	"time"

	ginhandler "andrew-web-services/internal/adapter/gin/handler"
	ginrouter "andrew-web-services/internal/adapter/gin/router"
	grpcmiddleware "andrew-web-services/internal/adapter/grpc/middleware"

	"go.uber.org/zap"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handler *ginhandler.Handler,
	rateLimiter *grpcmiddleware.RateLimiter,
	ginAddr string,
	l *zap.Logger,
) *http.Server {
	router := ginrouter.SetupRouter(handler, rateLimiter, l)

	l.Info("Gin REST API configured", zap.String("address", ginAddr))
	l.Info("Swagger UI available at", zap.String("url", "http://localhost"+ginAddr+"/swagger/index.html"))

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		// recommendations can be slow
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
