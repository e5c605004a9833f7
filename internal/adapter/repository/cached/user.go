package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"andrew-web-services/internal/adapter/cache"
	domain "andrew-web-services/internal/domain/user"
	"andrew-web-services/internal/usecase/webservice"
)

// Store is the persistent store behind the cache.
type Store interface {
	webservice.Database
	Save(ctx context.Context, u *domain.User) (int64, error)
	Delete(ctx context.Context, name string) error
}

// UserRepository decorates a Store with a cache-aside read path.
type UserRepository struct {
	store Store
	cache cache.UserCache
	log   *zap.Logger
	group singleflight.Group
}

// NewUserRepository creates a new UserRepository. A nil cache disables caching.
func NewUserRepository(store Store, c cache.UserCache, log *zap.Logger) *UserRepository {
	return &UserRepository{
		store: store,
		cache: c,
		log:   log,
	}
}

// FindByName retrieves a user by name, consulting the cache first.
// Concurrent misses for the same name share one store lookup.
func (r *UserRepository) FindByName(ctx context.Context, name string) (*domain.User, error) {
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, name)
		if err != nil {
			r.log.Warn("cache get error, falling back to store", zap.String("name", name), zap.Error(err))
		} else if cachedUser != nil {
			return cachedUser, nil
		}
	}

	result, err, shared := r.group.Do(cache.Key(name), func() (any, error) {
		// The lookup is shared, so one caller giving up must not fail the others
		lookupCtx := context.WithoutCancel(ctx)

		u, err := r.store.FindByName(lookupCtx, name)
		if err != nil {
			return nil, err
		}

		// Absent users are not cached
		if u != nil && r.cache != nil {
			if err := r.cache.Set(lookupCtx, u); err != nil {
				r.log.Warn("failed to cache user", zap.String("name", name), zap.Error(err))
			}
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.log.Debug("store lookup shared", zap.String("name", name))
	}

	u, _ := result.(*domain.User)
	return u, nil
}

// Save writes through to the store and evicts the cached entry.
func (r *UserRepository) Save(ctx context.Context, u *domain.User) (int64, error) {
	id, err := r.store.Save(ctx, u)
	if err != nil {
		return 0, err
	}

	r.evict(ctx, u.Name)
	return id, nil
}

// Delete removes the user from the store and evicts the cached entry.
func (r *UserRepository) Delete(ctx context.Context, name string) error {
	if err := r.store.Delete(ctx, name); err != nil {
		return err
	}

	r.evict(ctx, name)
	return nil
}

func (r *UserRepository) evict(ctx context.Context, name string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, name); err != nil {
		r.log.Warn("failed to invalidate cache", zap.String("name", name), zap.Error(err))
	}
}
