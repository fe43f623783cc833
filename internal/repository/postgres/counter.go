package postgres

import (
	"context"
	"fmt"

	"github.com/sakif/click-counter/internal/model"
)

func (db *DB) FindOrCreateGlobal(ctx context.Context) (*model.GlobalCounter, error) {
	if _, err := db.pool.Exec(ctx,
		`INSERT INTO global_counter (id, total_clicks) VALUES ($1, 0) ON CONFLICT (id) DO NOTHING`,
		model.GlobalCounterID,
	); err != nil {
		return nil, fmt.Errorf("postgres: creating global counter: %w", err)
	}

	var g model.GlobalCounter
	if err := db.pool.QueryRow(ctx,
		`SELECT total_clicks, updated_at FROM global_counter WHERE id = $1`,
		model.GlobalCounterID,
	).Scan(&g.TotalClicks, &g.UpdatedAt); err != nil {
		return nil, fmt.Errorf("postgres: reading global counter: %w", err)
	}
	return &g, nil
}

func (db *DB) AddToGlobal(ctx context.Context, delta int64) (*model.GlobalCounter, error) {
	var g model.GlobalCounter
	if err := db.pool.QueryRow(ctx,
		`INSERT INTO global_counter (id, total_clicks) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET
			total_clicks = global_counter.total_clicks + EXCLUDED.total_clicks,
			updated_at   = NOW()
		 RETURNING total_clicks, updated_at`,
		model.GlobalCounterID, delta,
	).Scan(&g.TotalClicks, &g.UpdatedAt); err != nil {
		return nil, fmt.Errorf("postgres: adding %d to global counter: %w", delta, err)
	}
	return &g, nil
}
