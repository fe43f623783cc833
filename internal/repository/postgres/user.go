package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/click-counter/internal/apperror"
	"github.com/sakif/click-counter/internal/model"
)

const selectUser = `SELECT id, external_id, username, display_name, public_repo_count, personal_clicks, created_at FROM users`

// FindOrCreate inserts on first sign-in; an existing row is returned as-is.
func (db *DB) FindOrCreate(ctx context.Context, user *model.User) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, external_id, username, display_name, public_repo_count, personal_clicks)
		 VALUES ($1, $2, $3, $4, $5, 0)
		 ON CONFLICT (external_id) DO NOTHING`,
		xid.New().String(),
		user.ExternalID,
		user.Username,
		user.DisplayName,
		user.PublicRepoCount,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: inserting user (externalID=%s): %w", user.ExternalID, err)
	}

	stored, err := scanUser(db.pool.QueryRow(ctx, selectUser+` WHERE external_id = $1`, user.ExternalID))
	if err != nil {
		return false, fmt.Errorf("postgres: reading back user (externalID=%s): %w", user.ExternalID, err)
	}

	*user = *stored
	return tag.RowsAffected() == 1, nil
}

func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return u, nil
}

func (db *DB) IncrementClicks(ctx context.Context, id string, delta int64) (int64, error) {
	var clicks int64
	err := db.pool.QueryRow(ctx,
		`UPDATE users SET personal_clicks = personal_clicks + $1 WHERE id = $2 RETURNING personal_clicks`,
		delta, id,
	).Scan(&clicks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NotFound("user", id)
		}
		return 0, fmt.Errorf("postgres: incrementing clicks for user %s: %w", id, err)
	}
	return clicks, nil
}

// ResetClicks zeroes the count and returns the old value in one statement.
// The FOR UPDATE subquery locks the row so the value read is the value replaced.
func (db *DB) ResetClicks(ctx context.Context, id string) (int64, error) {
	var prior int64
	err := db.pool.QueryRow(ctx,
		`UPDATE users u SET personal_clicks = 0
		 FROM (SELECT id, personal_clicks FROM users WHERE id = $1 FOR UPDATE) prev
		 WHERE u.id = prev.id
		 RETURNING prev.personal_clicks`,
		id,
	).Scan(&prior)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NotFound("user", id)
		}
		return 0, fmt.Errorf("postgres: resetting clicks for user %s: %w", id, err)
	}
	return prior, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.ExternalID,
		&u.Username,
		&u.DisplayName,
		&u.PublicRepoCount,
		&u.PersonalClicks,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
