package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
)

// MySQLCache is a MySQL implementation of the PredictionCache interface,
// for deployments that share one verdict cache across replicas.
type MySQLCache struct {
	db          *sql.DB
	ttl         time.Duration
	capacity    int
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL-backed prediction cache.
func NewMySQLCache(dsn string, capacity int, ttl time.Duration, cleanupFreq time.Duration, logger *zap.Logger) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS prediction_cache (
			fingerprint VARCHAR(64) PRIMARY KEY,
			is_spam BOOLEAN,
			message TEXT,
			created_at TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_prediction_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		ttl:         ttl,
		capacity:    capacity,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves a cached verdict; expired rows are misses.
func (c *MySQLCache) Get(ctx context.Context, fp core.Fingerprint) (*core.CacheEntry, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT is_spam, message, created_at, expires_at
		FROM prediction_cache WHERE fingerprint = ?
	`, string(fp))

	var entry core.CacheEntry
	entry.Fingerprint = fp
	if err := row.Scan(&entry.IsSpam, &entry.Message, &entry.CreatedAt, &entry.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	if time.Now().After(entry.ExpiresAt) {
		return nil, nil
	}
	return &entry, nil
}

// Put stores a new entry, replacing any previous row for this fingerprint.
func (c *MySQLCache) Put(ctx context.Context, entry *core.CacheEntry) error {
	expiresAt := entry.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(c.ttl)
	}

	_, err := c.db.ExecContext(ctx, `
		REPLACE INTO prediction_cache (fingerprint, is_spam, message, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(entry.Fingerprint), entry.IsSpam, entry.Message, entry.CreatedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// cleanup removes expired rows and trims the table back to capacity.
func (c *MySQLCache) cleanup(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM prediction_cache WHERE expires_at < ?`, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired entries: %w", err)
	}

	if c.capacity > 0 {
		_, err = c.db.ExecContext(ctx, `
			DELETE pc FROM prediction_cache pc
			LEFT JOIN (
				SELECT fingerprint FROM prediction_cache ORDER BY created_at DESC LIMIT ?
			) keep ON pc.fingerprint = keep.fingerprint
			WHERE keep.fingerprint IS NULL
		`, c.capacity)
		if err != nil {
			return fmt.Errorf("failed to trim cache to capacity: %w", err)
		}
	}

	if expired, err := res.RowsAffected(); err == nil && expired > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", expired))
	}
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MySQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database.
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}
