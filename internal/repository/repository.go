// Package repository declares the storage contracts the services depend on.
//
// Each method is a single-row operation that the backing store performs
// atomically on its own. Nothing here spans two rows in one transaction;
// the counter service composes these calls and owns the ordering.
package repository

import (
	"context"

	"github.com/sakif/click-counter/internal/model"
)

type UserRepository interface {
	// FindOrCreate looks the user up by ExternalID and inserts it when absent.
	// On return user holds the stored row. created reports whether this call
	// inserted it; profile fields of an existing row are left untouched.
	FindOrCreate(ctx context.Context, user *model.User) (created bool, err error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	// IncrementClicks adds delta to the user's personal count and returns the new value.
	IncrementClicks(ctx context.Context, id string, delta int64) (int64, error)
	// ResetClicks sets the personal count to 0 and returns the value it replaced.
	ResetClicks(ctx context.Context, id string) (prior int64, err error)
}

type CounterRepository interface {
	// FindOrCreateGlobal returns the singleton, creating it at 0 if missing.
	// A concurrent creator winning the race is not an error.
	FindOrCreateGlobal(ctx context.Context) (*model.GlobalCounter, error)
	// AddToGlobal adds delta (possibly negative) and returns the new row.
	AddToGlobal(ctx context.Context, delta int64) (*model.GlobalCounter, error)
}

// Store is what a backend (SQLite, Postgres) hands to the server.
type Store interface {
	UserRepository
	CounterRepository
	Ping(ctx context.Context) error
	Close() error
}
