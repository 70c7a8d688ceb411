package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrMissingField    = errors.New("required field is missing")
	ErrEmailExists     = errors.New("email already registered")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserBanned      = errors.New("account is banned")
)

type Repository interface {
	CreateUser(user *User) error
	GetUserByEmail(email string) (*User, error)
	GetUserByID(id string) (*User, error)
	GetUserByRefreshToken(token string) (*User, error)
	SetVerified(userID string) error
	SetRefreshToken(userID string, token *string) error
	SetPasswordHash(userID, hash string) error
	SetLastLogin(userID string, at time.Time) error
	// RotateRefreshToken swaps the stored refresh token for next only if it
	// still equals current, as a single conditional update. Returns false
	// when the stored value no longer matches.
	RotateRefreshToken(userID, current, next string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateUser(user *User) error {
	if err := r.db.Create(user).Error; err != nil {
		// The unique index on email is the authority on duplicates, not
		// the read that preceded the insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

func (r *repository) GetUserByEmail(email string) (*User, error) {
	var user User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByID(id string) (*User, error) {
	var user User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByRefreshToken(token string) (*User, error) {
	var user User
	if err := r.db.Where("refresh_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) SetVerified(userID string) error {
	return r.db.Model(&User{}).Where("id = ?", userID).Update("verified", true).Error
}

func (r *repository) SetRefreshToken(userID string, token *string) error {
	return r.db.Model(&User{}).Where("id = ?", userID).Update("refresh_token", token).Error
}

func (r *repository) SetPasswordHash(userID, hash string) error {
	return r.db.Model(&User{}).Where("id = ?", userID).Update("password_hash", hash).Error
}

func (r *repository) SetLastLogin(userID string, at time.Time) error {
	return r.db.Model(&User{}).Where("id = ?", userID).Update("last_login_at", at).Error
}

func (r *repository) RotateRefreshToken(userID, current, next string) (bool, error) {
	res := r.db.Model(&User{}).
		Where("id = ? AND refresh_token = ?", userID, current).
		Update("refresh_token", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
