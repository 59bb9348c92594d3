// internal/storage/settings.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"meal-ai/internal/config"
)

// LoadSettings returns the saved settings, or nil when none were saved.
func (s *SQLiteStorage) LoadSettings(ctx context.Context) (*config.Settings, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	// Fields missing from older documents keep their defaults.
	settings := config.DefaultSettings()
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

func (s *SQLiteStorage) SaveSettings(ctx context.Context, settings config.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO settings (id, data, updated_at) VALUES (1, ?, ?)
        ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
    `, string(data), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
