// internal/storage/cache.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meal-ai/internal/models"
)

// GetLookup returns a cached lookup hit no older than maxAge, or nil.
func (s *SQLiteStorage) GetLookup(ctx context.Context, source, key string, maxAge time.Duration) (*models.BaseInfo, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM lookup_cache WHERE source = ? AND key = ? AND created_at >= ?`,
		source, key, formatTime(s.now().Add(-maxAge)),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query lookup cache: %w", err)
	}

	var info models.BaseInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("failed to decode cached lookup: %w", err)
	}
	return &info, nil
}

func (s *SQLiteStorage) PutLookup(ctx context.Context, source, key string, info *models.BaseInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode lookup: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO lookup_cache (source, key, data, created_at) VALUES (?, ?, ?, ?)
        ON CONFLICT (source, key) DO UPDATE SET data = excluded.data, created_at = excluded.created_at
    `, source, key, string(data), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("failed to store lookup: %w", err)
	}
	return nil
}

// PruneLookups deletes cache entries older than maxAge.
func (s *SQLiteStorage) PruneLookups(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lookup_cache WHERE created_at < ?`, formatTime(s.now().Add(-maxAge)))
	if err != nil {
		return 0, fmt.Errorf("failed to prune lookup cache: %w", err)
	}
	return res.RowsAffected()
}
