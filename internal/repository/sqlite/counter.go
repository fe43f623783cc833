package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/click-counter/internal/model"
	"github.com/sakif/click-counter/internal/repository"
)

var _ repository.CounterRepository = (*DB)(nil)

// FindOrCreateGlobal returns the singleton row, inserting it at 0 first if it
// does not exist yet. ON CONFLICT DO NOTHING turns "someone else created it"
// into success.
func (db *DB) FindOrCreateGlobal(ctx context.Context) (*model.GlobalCounter, error) {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO global_counter (id, total_clicks, updated_at) VALUES (?, 0, ?)
		 ON CONFLICT(id) DO NOTHING`,
		model.GlobalCounterID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating global counter: %w", err)
	}

	var g model.GlobalCounter
	err = db.conn.QueryRowContext(ctx,
		`SELECT total_clicks, updated_at FROM global_counter WHERE id = ?`,
		model.GlobalCounterID,
	).Scan(&g.TotalClicks, &g.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading global counter: %w", err)
	}
	return &g, nil
}

// AddToGlobal applies delta as an upsert, so it works on a fresh database
// where nobody has read the counter yet.
func (db *DB) AddToGlobal(ctx context.Context, delta int64) (*model.GlobalCounter, error) {
	now := time.Now().UTC()

	g := model.GlobalCounter{UpdatedAt: now}
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO global_counter (id, total_clicks, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			total_clicks = total_clicks + excluded.total_clicks,
			updated_at   = excluded.updated_at
		 RETURNING total_clicks`,
		model.GlobalCounterID, delta, now,
	).Scan(&g.TotalClicks)
	if err != nil {
		return nil, fmt.Errorf("sqlite: adding %d to global counter: %w", delta, err)
	}
	return &g, nil
}
