package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-console/internal/adapter/cache"
	domain "user-console/internal/domain/user"
	"user-console/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with cache-aside reads.
// It wraps a persistent repository (DB) and a cache implementation.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

var _ user.Repository = (*CachedUserRepository)(nil)

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// Create writes to the DB and drops the cached roster.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	id, err := r.dbRepo.Create(ctx, u)
	if err != nil {
		return 0, err
	}
	r.invalidateList(ctx)
	return id, nil
}

// GetByID retrieves a user by ID using Cache-Aside pattern.
func (r *CachedUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if cachedUser, err := r.cache.Get(ctx, id); err != nil {
		r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
	} else if cachedUser != nil {
		return cachedUser, nil
	}

	// Cache miss - use single-flight to prevent stampede
	result, err, _ := r.group.Do(fmt.Sprintf("user:%d", id), func() (any, error) {
		u, err := r.dbRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := r.cache.Set(ctx, u); err != nil {
			r.log.Warn("failed to cache user", zap.Int64("id", id), zap.Error(err))
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	u := *result.(*domain.User)
	return &u, nil
}

// GetByEmail delegates to the DB repository.
func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.dbRepo.GetByEmail(ctx, email)
}

// Update updates the user in DB and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, u *domain.User) error {
	if err := r.dbRepo.Update(ctx, u); err != nil {
		return err
	}
	r.invalidate(ctx, u.ID)
	return nil
}

// Delete deletes the user from DB and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.dbRepo.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// List serves the roster from cache, loading it once per miss.
func (r *CachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	if users, ok, err := r.cache.GetList(ctx); err != nil {
		r.log.Warn("cache list error, falling back to database", zap.Error(err))
	} else if ok {
		return users, nil
	}

	result, err, _ := r.group.Do("users:all", func() (any, error) {
		users, err := r.dbRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.cache.SetList(ctx, users); err != nil {
			r.log.Warn("failed to cache user list", zap.Error(err))
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}

	users := result.([]domain.User)
	out := make([]domain.User, len(users))
	copy(out, users)
	return out, nil
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id int64) {
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cached user", zap.Int64("id", id), zap.Error(err))
	}
	r.invalidateList(ctx)
}

func (r *CachedUserRepository) invalidateList(ctx context.Context) {
	if err := r.cache.InvalidateList(ctx); err != nil {
		r.log.Warn("failed to invalidate cached user list", zap.Error(err))
	}
}
