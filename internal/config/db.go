package config

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/hazyhaar/dominject/internal/watch"
)

// RegistrySchema for the locations table. Deployments that manage their
// looking-glass fleet in SQLite point the injector at this registry instead
// of (or in addition to) the YAML file.
const RegistrySchema = `
CREATE TABLE IF NOT EXISTS locations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	url        TEXT NOT NULL,
	flag       TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'active',
	updated_at INTEGER NOT NULL
);
`

// LoadLocations reads all active locations in display order.
func LoadLocations(ctx context.Context, db *sql.DB) ([]Location, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, url, flag
		FROM locations
		WHERE status = 'active'
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.URL, &l.Flag); err != nil {
			return nil, err
		}
		l.Name = cleanText(l.Name)
		l.Flag = cleanText(l.Flag)
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

// WatchLocations creates a watcher that detects registry changes so the
// injector can re-resolve and remount.
func WatchLocations(db *sql.DB, logger *slog.Logger) *watch.Watcher {
	return watch.New(db, watch.Options{
		Interval: 200 * time.Millisecond,
		Debounce: 500 * time.Millisecond,
		Detector: watch.PragmaDataVersion,
		Logger:   logger,
	})
}
