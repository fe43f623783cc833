package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/click-counter/internal/apperror"
	"github.com/sakif/click-counter/internal/model"
	"github.com/sakif/click-counter/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// FindOrCreate inserts the user on first sign-in and otherwise leaves the
// stored row alone.
//
// INSERT ... ON CONFLICT DO NOTHING:
// The insert is a no-op when a row with the same external_id exists, so two
// concurrent first logins for the same GitHub account both succeed and end
// up reading the same row. RowsAffected tells us which call created it.
//
// The profile is a first-login snapshot: a returning user's username or repo
// count is NOT refreshed here.
func (db *DB) FindOrCreate(ctx context.Context, user *model.User) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, external_id, username, display_name, public_repo_count, personal_clicks, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)
		 ON CONFLICT(external_id) DO NOTHING`,
		xid.New().String(),
		user.ExternalID,
		user.Username,
		user.DisplayName,
		user.PublicRepoCount,
		time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: inserting user (externalID=%s): %w", user.ExternalID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: rows affected for user (externalID=%s): %w", user.ExternalID, err)
	}

	stored, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, external_id, username, display_name, public_repo_count, personal_clicks, created_at
		 FROM users WHERE external_id = ?`,
		user.ExternalID,
	))
	if err != nil {
		return false, fmt.Errorf("sqlite: reading back user (externalID=%s): %w", user.ExternalID, err)
	}

	*user = *stored
	return n == 1, nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, external_id, username, display_name, public_repo_count, personal_clicks, created_at
		 FROM users WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// IncrementClicks adds delta to personal_clicks in one statement.
// RETURNING hands back the post-update value without a second query.
func (db *DB) IncrementClicks(ctx context.Context, id string, delta int64) (int64, error) {
	var clicks int64
	err := db.conn.QueryRowContext(ctx,
		`UPDATE users SET personal_clicks = personal_clicks + ? WHERE id = ? RETURNING personal_clicks`,
		delta, id,
	).Scan(&clicks)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperror.NotFound("user", id)
		}
		return 0, fmt.Errorf("sqlite: incrementing clicks for user %s: %w", id, err)
	}
	return clicks, nil
}

// ResetClicks zeroes personal_clicks and returns the value it overwrote.
//
// SQLite's RETURNING only sees the new row, so the read and the write share a
// transaction to keep the swap atomic for this one row.
func (db *DB) ResetClicks(ctx context.Context, id string) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning reset for user %s: %w", id, err)
	}
	defer tx.Rollback() // no-op after Commit

	var prior int64
	err = tx.QueryRowContext(ctx,
		`SELECT personal_clicks FROM users WHERE id = ?`, id,
	).Scan(&prior)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperror.NotFound("user", id)
		}
		return 0, fmt.Errorf("sqlite: reading clicks for user %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET personal_clicks = 0 WHERE id = ?`, id,
	); err != nil {
		return 0, fmt.Errorf("sqlite: resetting clicks for user %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing reset for user %s: %w", id, err)
	}
	return prior, nil
}

func (db *DB) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.ExternalID,
		&u.Username,
		&u.DisplayName,
		&u.PublicRepoCount,
		&u.PersonalClicks,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
