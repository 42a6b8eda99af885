package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carenethq/carenet/internal/models"
)

// DatabaseStore persists counters and cached values in the relational database.
// It is the fallback when Redis is not configured, so single-node deployments
// still get durable login-attempt counters and rate-limit windows.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if db == nil {
		return nil, errors.New("cache: database handle is required")
	}
	return &DatabaseStore{db: db}, nil
}

// IncrementWithTTL increments the counter stored at key, resetting it when the
// previous window has elapsed. It returns the updated count and the remaining
// time-to-live of the current window.
func (s *DatabaseStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Second
	}

	var (
		count int64
		ttl   time.Duration
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var entry models.CacheEntry
		query := tx.Where("key = ?", key)
		// sqlite has no row-level locks; the transaction itself serializes writers there.
		if tx.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err := query.First(&entry).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry = models.CacheEntry{
				Key:       key,
				Count:     1,
				Value:     []byte("1"),
				ExpiresAt: now.Add(window),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		case entry.ExpiresAt.Before(now):
			entry.Count = 1
			entry.Value = []byte("1")
			entry.ExpiresAt = now.Add(window)
			if err := tx.Save(&entry).Error; err != nil {
				return err
			}
		default:
			entry.Count++
			// Mirror the count into the value column so Get sees the same
			// decimal string a Redis GET would return after INCR.
			entry.Value = []byte(strconv.FormatInt(entry.Count, 10))
			if err := tx.Save(&entry).Error; err != nil {
				return err
			}
		}

		count = entry.Count
		ttl = time.Until(entry.ExpiresAt)
		if ttl < 0 {
			ttl = 0
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return count, ttl, nil
}

// Set stores an opaque value with the given TTL, replacing any previous entry.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}

	entry := models.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "count", "expires_at", "updated_at"}),
		}).
		Create(&entry).Error
}

// Get returns the value stored at key. Expired entries are treated as absent.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if entry.ExpiresAt.Before(time.Now().UTC()) {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Delete removes the given keys. Missing keys are not an error.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("key IN ?", keys).
		Delete(&models.CacheEntry{}).Error
}

// PurgeExpired removes entries whose window has elapsed. The maintenance job
// calls this on a schedule so the table does not grow without bound.
func (s *DatabaseStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&models.CacheEntry{})
	return res.RowsAffected, res.Error
}
