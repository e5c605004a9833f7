package handler

import (
	"errors"
	"net/http"

	"andrew-web-services/internal/usecase/webservice"
	apperrors "andrew-web-services/pkg/errors"
	"andrew-web-services/pkg/logger"
	"andrew-web-services/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Handler serves the web service operations over HTTP.
type Handler struct {
	uc  webservice.Usecase
	log *zap.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(uc webservice.Usecase, log *zap.Logger) *Handler {
	return &Handler{
		uc:  uc,
		log: log,
	}
}

// LogInRequest is the body of POST /v1/login.
// Name is not required: an empty name simply fails to log in.
type LogInRequest struct {
	Name string `json:"name"`
	PIN  *int   `json:"pin" binding:"required,min=-9007199254740992,max=9007199254740992"`
}

// LogInResponse is the body returned by POST /v1/login.
type LogInResponse struct {
	Authenticated bool `json:"authenticated"`
}

// RecommendationResponse is the body returned by GET /v1/users/:name/recommendation.
type RecommendationResponse struct {
	UserID string `json:"user_id"`
	Item   string `json:"item"`
}

// PromoEmailRequest is the body of POST /v1/promo-emails.
type PromoEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// PromoEmailResponse is the body returned by POST /v1/promo-emails.
type PromoEmailResponse struct {
	Email string `json:"email"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LogIn handles POST /v1/login
func (h *Handler) LogIn(c *gin.Context) {
	var req LogInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid login request", zap.Error(err))
		h.handleError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	logger.WithContext(ctx, h.log).Info("LogIn request", zap.String("name", req.Name), zap.String("pin", security.MaskPIN(*req.PIN)))

	ok, err := h.uc.LogIn(ctx, req.Name, *req.PIN)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, LogInResponse{Authenticated: ok})
}

// GetRecommendation handles GET /v1/users/:name/recommendation
func (h *Handler) GetRecommendation(c *gin.Context) {
	userID := c.Param("name")

	item, err := h.uc.GetRecommendation(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, RecommendationResponse{UserID: userID, Item: item})
}

// SendPromoEmail handles POST /v1/promo-emails
func (h *Handler) SendPromoEmail(c *gin.Context) {
	var req PromoEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid promo email request", zap.Error(err))
		h.handleError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	if err := h.uc.SendPromoEmail(c.Request.Context(), req.Email); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, PromoEmailResponse{Email: req.Email})
}

// handleError maps errors to HTTP responses. Upstream errors keep their
// gRPC code where one maps to a more specific status.
func (h *Handler) handleError(c *gin.Context, err error) {
	logger.WithContext(c.Request.Context(), h.log).Warn("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)

	var validation *apperrors.ValidationError
	var upstream *apperrors.UpstreamError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validation.Error(),
		})
	case errors.As(err, &upstream):
		code := http.StatusBadGateway
		switch status.Code(upstream) {
		case codes.NotFound:
			code = http.StatusNotFound
		case codes.DeadlineExceeded:
			code = http.StatusGatewayTimeout
		}
		c.JSON(code, ErrorResponse{
			Error:   "upstream_error",
			Message: upstream.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
