package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/studeo/auth-service/internal/config"
	"github.com/studeo/auth-service/internal/email"
)

type Service struct {
	config     *config.OTPConfig
	log        *zap.Logger
	repository Repository
	sender     email.Sender
}

func NewService(config *config.OTPConfig, log *zap.Logger, repo Repository, sender email.Sender) *Service {
	return &Service{
		config:     config,
		log:        log,
		repository: repo,
		sender:     sender,
	}
}

// generateCode returns a 6-digit numeric code (100000-999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue creates a fresh verification code for the address and mails it.
// Any outstanding codes for the same address are superseded first, so at
// most one code is live per email. Delivery failure fails the whole
// operation.
func (s *Service) Issue(toEmail string) (string, error) {
	if err := s.repository.DeleteByEmail(toEmail); err != nil {
		return "", fmt.Errorf("supersede previous codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	now := time.Now()
	record := &OneTimeCode{
		Email:      toEmail,
		Code:       code,
		ExpiresAt:  now.Add(s.config.CodeTTL),
		LastSentAt: now,
	}

	if err := s.repository.Create(record); err != nil {
		return "", fmt.Errorf("persist code: %w", err)
	}

	body := fmt.Sprintf(
		"Your Studeo verification code is %s.\n\nIt expires in %s.",
		code, s.config.CodeTTL,
	)
	if err := s.sender.Send(toEmail, "Your Studeo verification code", body); err != nil {
		s.log.Error("failed to deliver verification code",
			zap.String("email", toEmail),
			zap.Error(err))
		return "", fmt.Errorf("deliver code: %w", err)
	}

	s.log.Info("verification code issued", zap.String("email", toEmail))
	return code, nil
}

// Verify consumes the latest outstanding code for the address. A code
// verifies exactly once: the matched row is deleted on success.
func (s *Service) Verify(toEmail, submitted string) error {
	record, err := s.repository.LatestByEmail(toEmail)
	if err != nil {
		return err
	}

	if time.Now().After(record.ExpiresAt) {
		return ErrCodeExpired
	}

	if record.Code != submitted {
		return ErrCodeInvalid
	}

	if err := s.repository.Delete(record.ID); err != nil {
		return fmt.Errorf("consume code: %w", err)
	}

	return nil
}
