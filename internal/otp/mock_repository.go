package otp

import (
	"sync"

	"github.com/google/uuid"
)

type mockRepository struct {
	codes map[string]*OneTimeCode
	mu    sync.RWMutex
}

// NewMockRepository returns an in-memory Repository for tests, including
// the auth package's session tests.
func NewMockRepository() Repository {
	return &mockRepository{
		codes: make(map[string]*OneTimeCode),
	}
}

func (r *mockRepository) Create(code *OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *code
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	code.ID = stored.ID

	r.codes[stored.ID] = &stored
	return nil
}

func (r *mockRepository) LatestByEmail(email string) (*OneTimeCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *OneTimeCode
	for _, c := range r.codes {
		if c.Email != email {
			continue
		}
		if latest == nil || c.ExpiresAt.After(latest.ExpiresAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, ErrCodeNotFound
	}

	found := *latest
	return &found, nil
}

func (r *mockRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.codes, id)
	return nil
}

func (r *mockRepository) DeleteByEmail(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.codes {
		if c.Email == email {
			delete(r.codes, id)
		}
	}
	return nil
}
