package repository

import (
	"context"
	"time"

	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"gorm.io/gorm"
)

type RateLimitRepository interface {
	Increment(ctx context.Context, key string, windowStart, expiresAt time.Time) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type rateLimitRepository struct {
	db *gorm.DB
}

func NewRateLimitRepository(db *gorm.DB) RateLimitRepository {
	return &rateLimitRepository{db: db}
}

// Increment bumps the counter for key in the window starting at windowStart,
// resetting it when the stored window is older, and returns the new count.
func (r *rateLimitRepository) Increment(ctx context.Context, key string, windowStart, expiresAt time.Time) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO rate_limit_counters (key, window_start, count, expires_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (key) DO UPDATE SET
			count = CASE
				WHEN rate_limit_counters.window_start = EXCLUDED.window_start
				THEN rate_limit_counters.count + 1
				ELSE 1
			END,
			window_start = EXCLUDED.window_start,
			expires_at = EXCLUDED.expires_at
		RETURNING count
	`, key, windowStart, expiresAt).Scan(&count).Error
	return count, err
}

func (r *rateLimitRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RateLimitCounter{})
	return res.RowsAffected, res.Error
}
