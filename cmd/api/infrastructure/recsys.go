package infrastructure

import (
	"andrew-web-services/internal/adapter/recsys"
	"andrew-web-services/internal/config"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// NewRecSysConn opens the connection to the recommendation engine. The
// connection is lazy, so a missing engine surfaces on the first call.
func NewRecSysConn(cfg *config.Config, l *zap.Logger) (*grpc.ClientConn, error) {
	conn, err := recsys.Dial(cfg.RecSys.Addr)
	if err != nil {
		return nil, err
	}
	l.Info("recommendation engine client configured", zap.String("address", cfg.RecSys.Addr))
	return conn, nil
}
