// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// The services take repository INTERFACES, never *sqlite.DB or
// *postgres.DB, so tests pass in-memory fakes and main picks the backend.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sakif/click-counter/internal/apperror"
	"github.com/sakif/click-counter/internal/model"
	"github.com/sakif/click-counter/internal/repository"
)

// CounterService maintains the global click total and each user's personal
// count as a pair.
//
// THE DUAL-COUNTER PROTOCOL:
// The two counters live in different rows and the store gives us no
// transaction spanning both. Every operation is therefore a short sequence of
// single-row atomic steps:
//
//	Increment:     global += 1        → personal += 1
//	ResetPersonal: personal := 0 (read prior) → global -= prior
//
// A crash or a concurrent request between the two steps leaves the pair out
// of step (global != sum of personal). That is accepted: nothing here
// compensates or rolls back. Deployments that want the pair serialised opt in
// with WithSerializedUpdates, which holds an in-process lock across both
// steps.
type CounterService struct {
	users    repository.UserRepository
	counters repository.CounterRepository
	logger   *slog.Logger

	// pairMu is nil unless serialized updates were requested.
	pairMu *sync.Mutex
}

// CounterOption configures a CounterService.
type CounterOption func(*CounterService)

// WithSerializedUpdates makes Increment and ResetPersonal hold a process-wide
// mutex across both of their steps. Only meaningful for a single process.
func WithSerializedUpdates() CounterOption {
	return func(s *CounterService) {
		s.pairMu = &sync.Mutex{}
	}
}

// NewCounterService creates a CounterService. users and counters are usually
// the same backend value.
func NewCounterService(
	users repository.UserRepository,
	counters repository.CounterRepository,
	logger *slog.Logger,
	opts ...CounterOption,
) *CounterService {
	s := &CounterService{
		users:    users,
		counters: counters,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns the user's personal count and the global total.
//
// The global row is created at 0 if this is the first read ever. The user row
// is expected to exist already (it is created at sign-in).
func (s *CounterService) Fetch(ctx context.Context, user *model.User) (model.Counts, error) {
	global, err := s.counters.FindOrCreateGlobal(ctx)
	if err != nil {
		return model.Counts{}, fmt.Errorf("service/counter: %w", apperror.StoreFailure("find or create global counter", err))
	}

	stored, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return model.Counts{}, s.userErr("get user", err)
	}

	return model.Counts{Personal: stored.PersonalClicks, Global: global.TotalClicks}, nil
}

// Increment adds one click: first to the global total, then to the user.
// Returns both post-increment values.
func (s *CounterService) Increment(ctx context.Context, user *model.User) (model.Counts, error) {
	if s.pairMu != nil {
		s.pairMu.Lock()
		defer s.pairMu.Unlock()
	}

	global, err := s.counters.AddToGlobal(ctx, 1)
	if err != nil {
		return model.Counts{}, fmt.Errorf("service/counter: %w", apperror.StoreFailure("increment global counter", err))
	}

	// If this step fails the global total already includes the click.
	personal, err := s.users.IncrementClicks(ctx, user.ID, 1)
	if err != nil {
		s.logger.Warn("personal increment failed after global increment",
			slog.String("userID", user.ID),
			slog.Int64("global", global.TotalClicks),
		)
		return model.Counts{}, s.userErr("increment personal clicks", err)
	}

	return model.Counts{Personal: personal, Global: global.TotalClicks}, nil
}

// ResetPersonal zeroes the user's count and subtracts what it used to be
// from the global total.
//
// ORDER MATTERS:
// The subtraction uses the value the reset overwrote, so once both steps
// succeed the pair agrees again. Between the steps global still includes
// the wiped count. Any Fetch or Increment that runs in that window reports
// the half-finished pair, e.g. an Increment returns global 3 where a
// serialized run would return 1. If the second step fails the difference
// stays in global for good.
func (s *CounterService) ResetPersonal(ctx context.Context, user *model.User) (model.Counts, error) {
	if s.pairMu != nil {
		s.pairMu.Lock()
		defer s.pairMu.Unlock()
	}

	prior, err := s.users.ResetClicks(ctx, user.ID)
	if err != nil {
		return model.Counts{}, s.userErr("reset personal clicks", err)
	}

	global, err := s.counters.AddToGlobal(ctx, -prior)
	if err != nil {
		s.logger.Warn("global subtract failed after personal reset",
			slog.String("userID", user.ID),
			slog.Int64("prior", prior),
		)
		return model.Counts{}, fmt.Errorf("service/counter: %w", apperror.StoreFailure("subtract from global counter", err))
	}

	s.logger.Info("personal clicks reset",
		slog.String("userID", user.ID),
		slog.Int64("prior", prior),
		slog.Int64("global", global.TotalClicks),
	)

	return model.Counts{Personal: 0, Global: global.TotalClicks}, nil
}

// userErr keeps not-found errors as they are and classifies everything else
// as a store failure.
func (s *CounterService) userErr(op string, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/counter: %s: %w", op, err)
	}
	return fmt.Errorf("service/counter: %w", apperror.StoreFailure(op, err))
}
