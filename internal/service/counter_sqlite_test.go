package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/click-counter/internal/model"
	"github.com/sakif/click-counter/internal/repository/sqlite"
)

// The same protocol checks as counter_test.go, run against the real SQLite
// store so the SQL (upserts, RETURNING, the reset transaction) is covered.

func newSQLiteCounterService(t *testing.T, opts ...CounterOption) (*CounterService, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCounterService(db, db, testLogger(), opts...), db
}

func sqliteUser(t *testing.T, db *sqlite.DB, externalID string) *model.User {
	t.Helper()
	u := &model.User{ExternalID: externalID, Username: "user" + externalID}
	_, err := db.FindOrCreate(context.Background(), u)
	require.NoError(t, err)
	return u
}

func TestSQLite_SequentialScenario(t *testing.T) {
	svc, db := newSQLiteCounterService(t)
	user := sqliteUser(t, db, "1")
	ctx := context.Background()

	steps := []struct {
		name string
		op   func(context.Context, *model.User) (model.Counts, error)
		want model.Counts
	}{
		{"fetch", svc.Fetch, model.Counts{Personal: 0, Global: 0}},
		{"increment", svc.Increment, model.Counts{Personal: 1, Global: 1}},
		{"increment", svc.Increment, model.Counts{Personal: 2, Global: 2}},
		{"reset", svc.ResetPersonal, model.Counts{Personal: 0, Global: 0}},
		{"reset again", svc.ResetPersonal, model.Counts{Personal: 0, Global: 0}},
	}

	for i, step := range steps {
		got, err := step.op(ctx, user)
		require.NoError(t, err, "step %d (%s)", i, step.name)
		assert.Equal(t, step.want, got, "step %d (%s)", i, step.name)
	}
}

func TestSQLite_TwoUsers(t *testing.T) {
	svc, db := newSQLiteCounterService(t)
	a := sqliteUser(t, db, "A")
	b := sqliteUser(t, db, "B")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Increment(ctx, a)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := svc.Increment(ctx, b)
		require.NoError(t, err)
	}

	got, err := svc.Fetch(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, model.Counts{Personal: 2, Global: 5}, got)

	got, err = svc.ResetPersonal(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, model.Counts{Personal: 0, Global: 2}, got)
}

func TestSQLite_ConcurrentIncrements(t *testing.T) {
	svc, db := newSQLiteCounterService(t)
	ctx := context.Background()

	const numUsers, clicksEach = 5, 20
	users := make([]*model.User, numUsers)
	for i := range users {
		users[i] = sqliteUser(t, db, fmt.Sprint(i))
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u *model.User) {
			defer wg.Done()
			for j := 0; j < clicksEach; j++ {
				if _, err := svc.Increment(ctx, u); err != nil {
					t.Errorf("Increment() error = %v", err)
					return
				}
			}
		}(u)
	}
	wg.Wait()

	var sum int64
	var global int64
	for _, u := range users {
		c, err := svc.Fetch(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, int64(clicksEach), c.Personal)
		sum += c.Personal
		global = c.Global
	}
	assert.Equal(t, sum, global)
}
