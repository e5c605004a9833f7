package recsys

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "andrew-web-services/pkg/errors"
)

// GetRecommendationMethod is the full gRPC method name served by the
// recommendation engine. Request and response are google.protobuf.StringValue.
const GetRecommendationMethod = "/recsys.v1.RecSys/GetRecommendation"

// Client calls the external recommendation engine over gRPC.
type Client struct {
	conn grpc.ClientConnInterface
	log  *zap.Logger
}

// NewClient creates a Client on top of an existing connection.
func NewClient(conn grpc.ClientConnInterface, log *zap.Logger) *Client {
	return &Client{conn: conn, log: log}
}

// Dial opens a lazy, plaintext connection to the engine at addr.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create recsys client for %s: %w", addr, err)
	}
	return conn, nil
}

// GetRecommendation asks the engine for the item to recommend to userID.
// The call is bounded only by ctx.
func (c *Client) GetRecommendation(ctx context.Context, userID string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, GetRecommendationMethod, wrapperspb.String(userID), out); err != nil {
		c.log.Warn("recsys call failed", zap.String("user_id", userID), zap.Error(err))
		return "", apperrors.NewUpstreamError("recsys", err)
	}
	return out.GetValue(), nil
}
