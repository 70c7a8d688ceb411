package otp

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OneTimeCode struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	Email      string    `gorm:"index;not null"`
	Code       string    `gorm:"type:char(6);not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	LastSentAt time.Time `gorm:"not null"`
	CreatedAt  time.Time
}

func (OneTimeCode) TableName() string {
	return "one_time_codes"
}

func (c *OneTimeCode) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
