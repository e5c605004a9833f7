package router

import (
	"net/http"

	"andrew-web-services/api"
	"andrew-web-services/internal/adapter/gin/handler"
	"andrew-web-services/internal/adapter/gin/middleware"
	grpcmiddleware "andrew-web-services/internal/adapter/grpc/middleware"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// SetupRouter configures and returns a Gin router with all routes and middleware.
// A nil rateLimiter disables rate limiting.
func SetupRouter(
	h *handler.Handler,
	rateLimiter *grpcmiddleware.RateLimiter,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.RateLimiter(rateLimiter, log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "andrew-web-services",
		})
	})

	// API docs
	router.GET(api.SwaggerPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", api.SwaggerJSON)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(api.SwaggerPath))))

	v1 := router.Group("/v1")
	{
		v1.POST("/login", h.LogIn)
		v1.GET("/users/:name/recommendation", h.GetRecommendation)
		v1.POST("/promo-emails", h.SendPromoEmail)
	}

	return router
}
