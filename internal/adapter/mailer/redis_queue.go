package mailer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "andrew-web-services/pkg/errors"
	"andrew-web-services/pkg/security"
)

// DefaultQueueKey is the Redis list promo jobs are pushed onto.
const DefaultQueueKey = "promo:outbox"

// Job is one queued promotional email.
type Job struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	QueuedAt time.Time `json:"queued_at"`
}

// RedisQueue hands promo emails to a delivery worker through a Redis list.
// MailTo returns once the job is queued; delivery is not awaited.
type RedisQueue struct {
	client *redis.Client
	key    string
	log    *zap.Logger
	now    func() time.Time
}

// NewRedisQueue creates a RedisQueue pushing onto key. An empty key selects
// DefaultQueueKey.
func NewRedisQueue(client *redis.Client, key string, log *zap.Logger) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key, log: log, now: time.Now}
}

// MailTo queues a promo email for email. The address is not validated.
func (q *RedisQueue) MailTo(ctx context.Context, email string) error {
	job := Job{
		ID:       uuid.NewString(),
		Email:    email,
		QueuedAt: q.now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return apperrors.NewInternalError("failed to encode promo job", err)
	}

	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		q.log.Error("failed to queue promo email", zap.String("email", security.MaskEmail(email)), zap.Error(err))
		return apperrors.NewUpstreamError("mail queue", err)
	}

	q.log.Debug("promo email queued", zap.String("job_id", job.ID), zap.String("queue", q.key))
	return nil
}
