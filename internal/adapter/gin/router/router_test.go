package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"andrew-web-services/api"
	"andrew-web-services/internal/adapter/db/memory"
	"andrew-web-services/internal/adapter/gin/handler"
	grpcmiddleware "andrew-web-services/internal/adapter/grpc/middleware"
	"andrew-web-services/internal/adapter/mailer"
	domain "andrew-web-services/internal/domain/user"
	"andrew-web-services/internal/usecase/webservice"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type stubRecommender map[string]string

func (s stubRecommender) GetRecommendation(_ context.Context, userID string) (string, error) {
	return s[userID], nil
}

func setupRouter(t *testing.T, limiter *grpcmiddleware.RateLimiter) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	log := zaptest.NewLogger(t)
	core, logs := observer.New(zap.InfoLevel)

	db := memory.NewInMemoryDatabase(domain.User{Name: "Scotty", PIN: 17214})
	uc := webservice.New(db, stubRecommender{"Scotty": "Animal House"}, mailer.NewLogMailer(zap.New(core)), log)

	return SetupRouter(handler.NewHandler(uc, log), limiter, log), logs
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _ := setupRouter(t, nil)

	w := serve(r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_Swagger(t *testing.T) {
	r, _ := setupRouter(t, nil)

	w := serve(r, http.MethodGet, api.SwaggerPath, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(api.SwaggerJSON), w.Body.String())

	w = serve(r, http.MethodGet, "/swagger/index.html", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Flow(t *testing.T) {
	r, mails := setupRouter(t, nil)

	w := serve(r, http.MethodPost, "/v1/login", `{"name":"Scotty","pin":17214}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true}`, w.Body.String())
	assert.Zero(t, mails.Len(), "logging in must not send mail")

	w = serve(r, http.MethodPost, "/v1/login", `{"name":"scotty","pin":17214}`)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())

	w = serve(r, http.MethodGet, "/v1/users/Scotty/recommendation", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"Scotty","item":"Animal House"}`, w.Body.String())

	w = serve(r, http.MethodPost, "/v1/promo-emails", `{"email":"zelinwan@andrew.cmu.edu"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, mails.Len())
}

func TestRouter_RateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := grpcmiddleware.NewRateLimiter(client, grpcmiddleware.RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstCapacity:     1,
		Enabled:           true,
	}, zaptest.NewLogger(t))
	r, _ := setupRouter(t, limiter)

	w := serve(r, http.MethodGet, "/v1/users/Scotty/recommendation", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/v1/users/Scotty/recommendation", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}
