package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urmzd/devicecontrols/pkg/i18n"
)

const (
	DefaultProfileName = "default"
	DefaultHTTPAddress = "0.0.0.0:8080"
)

// Bootstrap seeds a default profile on first run: the system locale and
// an HTTP listener on DefaultHTTPAddress. It is a no-op once any profile exists.
func (db *DB) Bootstrap(ctx context.Context) error {
	needed, err := db.NeedsBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to check profiles: %w", err)
	}
	if !needed {
		return nil
	}

	locale := i18n.New(i18n.SystemLocale()).Lang()

	return db.Tx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (name, locale, is_active)
			VALUES (?, ?, 1)
		`, DefaultProfileName, locale)
		if err != nil {
			return fmt.Errorf("failed to create default profile: %w", err)
		}

		profileID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get profile ID: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO listeners (profile_id, kind, address)
			VALUES (?, ?, ?)
		`, profileID, string(ListenerHTTP), DefaultHTTPAddress); err != nil {
			return fmt.Errorf("failed to create default listener: %w", err)
		}

		return nil
	})
}

// NeedsBootstrap returns true if the database needs initial setup.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
