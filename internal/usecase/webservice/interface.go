package webservice

import "context"

// Usecase defines the operations the web service exposes to its transports.
type Usecase interface {
	LogIn(ctx context.Context, name string, pin int) (bool, error)
	GetRecommendation(ctx context.Context, userID string) (string, error)
	SendPromoEmail(ctx context.Context, email string) error
}
