package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type mockRepository struct {
	users map[string]*User
	mu    sync.RWMutex
}

func newMockRepository() Repository {
	return &mockRepository{
		users: make(map[string]*User),
	}
}

func (r *mockRepository) CreateUser(user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrEmailExists
		}
	}

	// Clone the user to prevent external modifications
	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	user.ID = stored.ID

	r.users[stored.ID] = &stored
	return nil
}

func (r *mockRepository) GetUserByEmail(email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *mockRepository) GetUserByID(id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (r *mockRepository) GetUserByRefreshToken(token string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *mockRepository) SetVerified(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[userID]
	if !exists {
		return ErrUserNotFound
	}
	u.Verified = true
	return nil
}

func (r *mockRepository) SetRefreshToken(userID string, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[userID]
	if !exists {
		return ErrUserNotFound
	}
	if token == nil {
		u.RefreshToken = nil
		return nil
	}
	value := *token
	u.RefreshToken = &value
	return nil
}

func (r *mockRepository) SetPasswordHash(userID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[userID]
	if !exists {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *mockRepository) SetLastLogin(userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[userID]
	if !exists {
		return ErrUserNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (r *mockRepository) RotateRefreshToken(userID, current, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[userID]
	if !exists {
		return false, nil
	}
	if u.RefreshToken == nil || *u.RefreshToken != current {
		return false, nil
	}
	value := next
	u.RefreshToken = &value
	return true, nil
}
