package webservice

import (
	"context"

	"go.uber.org/zap"

	domain "andrew-web-services/internal/domain/user"
	"andrew-web-services/pkg/security"
)

// Database looks up user records by name.
// FindByName returns (nil, nil) when no record has the given name; a non-nil
// error means the store itself failed.
type Database interface {
	FindByName(ctx context.Context, name string) (*domain.User, error)
}

// Recommender is the external recommendation engine. Calls may be slow.
type Recommender interface {
	GetRecommendation(ctx context.Context, userID string) (string, error)
}

// PromoService delivers promotional email. It has no result besides an error.
type PromoService interface {
	MailTo(ctx context.Context, email string) error
}

// Service composes the user store, the recommender and the promo mailer.
// Each operation delegates to exactly one collaborator and keeps no state.
type Service struct {
	db          Database
	recommender Recommender
	promo       PromoService
	log         *zap.Logger
}

var _ Usecase = (*Service)(nil)

// New creates a Service with the given collaborators.
func New(db Database, recommender Recommender, promo PromoService, log *zap.Logger) *Service {
	return &Service{db: db, recommender: recommender, promo: promo, log: log}
}

// LogIn reports whether a user named name exists and its PIN equals pin.
// Unknown users and wrong PINs yield false with a nil error.
func (s *Service) LogIn(ctx context.Context, name string, pin int) (bool, error) {
	u, err := s.db.FindByName(ctx, name)
	if err != nil {
		s.log.Error("failed to look up user", zap.String("name", name), zap.Error(err))
		return false, err
	}
	if u == nil {
		s.log.Info("login rejected", zap.String("name", name), zap.String("reason", "unknown user"))
		return false, nil
	}
	if !u.Matches(pin) {
		s.log.Info("login rejected", zap.String("name", name), zap.String("reason", "pin mismatch"))
		return false, nil
	}

	s.log.Info("login accepted", zap.String("name", name))
	return true, nil
}

// GetRecommendation returns exactly what the recommender returns for userID.
func (s *Service) GetRecommendation(ctx context.Context, userID string) (string, error) {
	item, err := s.recommender.GetRecommendation(ctx, userID)
	if err != nil {
		s.log.Warn("recommendation failed", zap.String("user_id", userID), zap.Error(err))
		return "", err
	}

	s.log.Debug("recommendation served", zap.String("user_id", userID), zap.String("item", item))
	return item, nil
}

// SendPromoEmail hands email to the promo mailer once.
func (s *Service) SendPromoEmail(ctx context.Context, email string) error {
	if err := s.promo.MailTo(ctx, email); err != nil {
		s.log.Warn("promo email failed", zap.String("email", security.MaskEmail(email)), zap.Error(err))
		return err
	}

	s.log.Info("promo email sent", zap.String("email", security.MaskEmail(email)))
	return nil
}
