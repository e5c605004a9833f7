package middleware

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const testMethod = "/andrew.v1.AndrewWebServices/LogIn"

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

// newTestLimiter returns a limiter whose clock is frozen so no tokens refill.
func newTestLimiter(t *testing.T, client *redis.Client, config RateLimiterConfig) *RateLimiter {
	rl := NewRateLimiter(client, config, zaptest.NewLogger(t))
	frozen := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return frozen }
	return rl
}

// mockHandler is a simple handler that returns "success"
func mockHandler(ctx context.Context, req any) (any, error) {
	return "success", nil
}

func peerContext(t *testing.T, addr string) context.Context {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	require.NoError(t, err)
	return peer.NewContext(context.Background(), &peer.Peer{Addr: tcpAddr})
}

func TestRateLimiter_WithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 10, BurstCapacity: 10, Enabled: true})
	interceptor := rl.UnaryInterceptor()

	ctx := peerContext(t, "127.0.0.1:12345")
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	for i := 0; i < 5; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 5, Enabled: true})
	interceptor := rl.UnaryInterceptor()

	ctx := peerContext(t, "127.0.0.1:12345")
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	for i := 0; i < 5; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}

	resp, err := interceptor(ctx, nil, info, mockHandler)
	require.Error(t, err)
	assert.Nil(t, resp)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.ResourceExhausted, st.Code())
	assert.Contains(t, st.Message(), "rate limit exceeded")
}

func TestRateLimiter_Refill(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true})
	ctx := context.Background()
	key := Key(testMethod, "127.0.0.1")

	for i := 0; i < 2; i++ {
		allowed, err := rl.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := rl.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)

	// One second later two tokens are back
	later := rl.now().Add(time.Second)
	rl.now = func() time.Time { return later }

	allowed, err = rl.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: false})
	interceptor := rl.UnaryInterceptor()

	ctx := peerContext(t, "127.0.0.1:12345")
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	for i := 0; i < 10; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_NilLimiterAllows(t *testing.T) {
	var rl *RateLimiter

	allowed, err := rl.Allow(context.Background(), "any")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	ctx1 := peerContext(t, "192.168.1.1:12345")
	for i := 0; i < 2; i++ {
		_, err := interceptor(ctx1, nil, info, mockHandler)
		require.NoError(t, err)
	}
	_, err := interceptor(ctx1, nil, info, mockHandler)
	require.Error(t, err)

	ctx2 := peerContext(t, "192.168.1.2:12345")
	resp, err := interceptor(ctx2, nil, info, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_SameHostDifferentPorts(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	_, err := interceptor(peerContext(t, "10.0.0.1:1000"), nil, info, mockHandler)
	require.NoError(t, err)

	_, err = interceptor(peerContext(t, "10.0.0.1:2000"), nil, info, mockHandler)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestRateLimiter_XForwardedFor(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 10, Enabled: true})
	interceptor := rl.UnaryInterceptor()

	md := metadata.Pairs("x-forwarded-for", "203.0.113.1")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	for i := 0; i < 3; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}

	assert.True(t, mr.Exists(Key(testMethod, "203.0.113.1")))
}

func TestRateLimiter_DifferentMethods(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext(t, "127.0.0.1:12345")

	info1 := &grpc.UnaryServerInfo{FullMethod: testMethod}
	for i := 0; i < 2; i++ {
		_, err := interceptor(ctx, nil, info1, mockHandler)
		require.NoError(t, err)
	}

	info2 := &grpc.UnaryServerInfo{FullMethod: "/andrew.v1.AndrewWebServices/SendPromoEmail"}
	resp, err := interceptor(ctx, nil, info2, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_BucketExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 4, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext(t, "127.0.0.1:12345")
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	for i := 0; i < 4; i++ {
		_, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
	}
	_, err := interceptor(ctx, nil, info, mockHandler)
	require.Error(t, err)

	ttl := mr.TTL(Key(testMethod, "127.0.0.1"))
	assert.Greater(t, ttl.Seconds(), 0.0)
	assert.LessOrEqual(t, ttl.Seconds(), 60.0)
}

func TestRateLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	mr.Close()

	resp, err := interceptor(peerContext(t, "127.0.0.1:12345"), nil, &grpc.UnaryServerInfo{FullMethod: testMethod}, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}
