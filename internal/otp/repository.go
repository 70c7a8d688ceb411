package otp

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrCodeNotFound = errors.New("verification code not found")
	ErrCodeInvalid  = errors.New("verification code does not match")
	ErrCodeExpired  = errors.New("verification code expired")
)

type Repository interface {
	Create(code *OneTimeCode) error
	// LatestByEmail returns the outstanding code with the latest expiry
	// for the address.
	LatestByEmail(email string) (*OneTimeCode, error)
	Delete(id string) error
	DeleteByEmail(email string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(code *OneTimeCode) error {
	return r.db.Create(code).Error
}

func (r *repository) LatestByEmail(email string) (*OneTimeCode, error) {
	var code OneTimeCode
	err := r.db.Where("email = ?", email).Order("expires_at DESC").First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return &code, nil
}

func (r *repository) Delete(id string) error {
	return r.db.Delete(&OneTimeCode{}, "id = ?", id).Error
}

func (r *repository) DeleteByEmail(email string) error {
	return r.db.Delete(&OneTimeCode{}, "email = ?", email).Error
}
