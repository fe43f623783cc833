package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sakif/click-counter/internal/apperror"
	"github.com/sakif/click-counter/internal/model"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore is an in-memory implementation of BOTH repository interfaces.
// Each method locks the mutex for its own duration only, which is exactly
// the guarantee a real store gives: per-row atomicity, nothing across calls.
//
// The *Err fields simulate database failures.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*model.User // keyed by internal ID
	byExt  map[string]string      // external ID → internal ID
	global *model.GlobalCounter   // nil until first created
	nextID int

	findOrCreateErr error
	getErr          error
	incrementErr    error
	resetErr        error
	globalErr       error
	addGlobalErr    error

	globalCreates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*model.User),
		byExt: make(map[string]string),
	}
}

func (f *fakeStore) FindOrCreate(_ context.Context, user *model.User) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findOrCreateErr != nil {
		return false, f.findOrCreateErr
	}

	if id, ok := f.byExt[user.ExternalID]; ok {
		*user = *f.users[id]
		return false, nil
	}

	f.nextID++
	stored := *user
	stored.ID = fmt.Sprintf("user-%d", f.nextID)
	stored.PersonalClicks = 0
	stored.CreatedAt = time.Now()
	f.users[stored.ID] = &stored
	f.byExt[stored.ExternalID] = stored.ID
	*user = stored
	return true, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) IncrementClicks(_ context.Context, id string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return 0, f.incrementErr
	}
	u, ok := f.users[id]
	if !ok {
		return 0, apperror.NotFound("user", id)
	}
	u.PersonalClicks += delta
	return u.PersonalClicks, nil
}

func (f *fakeStore) ResetClicks(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetErr != nil {
		return 0, f.resetErr
	}
	u, ok := f.users[id]
	if !ok {
		return 0, apperror.NotFound("user", id)
	}
	prior := u.PersonalClicks
	u.PersonalClicks = 0
	return prior, nil
}

func (f *fakeStore) FindOrCreateGlobal(_ context.Context) (*model.GlobalCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.globalErr != nil {
		return nil, f.globalErr
	}
	if f.global == nil {
		f.global = &model.GlobalCounter{UpdatedAt: time.Now()}
		f.globalCreates++
	}
	copied := *f.global
	return &copied, nil
}

func (f *fakeStore) AddToGlobal(_ context.Context, delta int64) (*model.GlobalCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addGlobalErr != nil {
		return nil, f.addGlobalErr
	}
	if f.global == nil {
		f.global = &model.GlobalCounter{}
		f.globalCreates++
	}
	f.global.TotalClicks += delta
	f.global.UpdatedAt = time.Now()
	copied := *f.global
	return &copied, nil
}

// sumPersonal is the right-hand side of the global == Σ personal invariant.
func (f *fakeStore) sumPersonal() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, u := range f.users {
		sum += u.PersonalClicks
	}
	return sum
}

func (f *fakeStore) globalTotal() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.global == nil {
		return 0
	}
	return f.global.TotalClicks
}
