package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/studeo/auth-service/internal/otp"
)

// Service orchestrates the session lifecycle: signup, OTP verification,
// login, refresh rotation, logout and password recovery. All durable state
// lives in the repository; the service itself is stateless between calls.
type Service struct {
	log        *zap.Logger
	repository Repository
	tokens     *TokenIssuer
	otp        *otp.Service
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func NewService(log *zap.Logger, repo Repository, tokens *TokenIssuer, otpService *otp.Service) *Service {
	return &Service{
		log:        log,
		repository: repo,
		tokens:     tokens,
		otp:        otpService,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (s *Service) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Signup creates an unverified account and mails a verification code. No
// bearer tokens are issued until the code is verified.
func (s *Service) Signup(name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return ErrMissingField
	}

	if _, err := s.repository.GetUserByEmail(email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleStudent,
	}
	if err := s.repository.CreateUser(user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	if _, err := s.otp.Issue(email); err != nil {
		return fmt.Errorf("issue verification code: %w", err)
	}

	s.log.Info("user signed up, verification pending", zap.String("email", email))
	return nil
}

// VerifyOTP consumes a verification code, marks the account verified and
// opens a session.
func (s *Service) VerifyOTP(email, code string) (*TokenPair, error) {
	if err := s.otp.Verify(email, code); err != nil {
		return nil, err
	}

	user, err := s.repository.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}

	if err := s.repository.SetVerified(user.ID); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}

	return s.openSession(user)
}

// Login validates credentials and opens a session, overwriting any stored
// refresh token. Exactly one session is live per account: the previous
// login's refresh token stops working the moment the new one is stored.
func (s *Service) Login(email, password string) (*TokenPair, error) {
	if email == "" || password == "" {
		return nil, ErrMissingField
	}

	user, err := s.repository.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.HashPassword("dummy") // Prevent timing attacks
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidPassword
	}

	if user.Banned {
		return nil, ErrUserBanned
	}

	return s.openSession(user)
}

// Refresh exchanges a live refresh token for a fresh pair. Presenting a
// token that signature-verifies but no longer matches the stored value is
// treated as reuse of a rotated-out token: the stored value is cleared and
// the session dies.
func (s *Service) Refresh(presented string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(presented)
	if err != nil {
		return nil, err
	}

	user, err := s.repository.GetUserByID(claims.Subject)
	if err != nil {
		return nil, err
	}

	if user.Banned {
		return nil, ErrUserBanned
	}

	accessToken, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	rotated, err := s.repository.RotateRefreshToken(user.ID, presented, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !rotated {
		// Reuse detected: kill the stored session rather than failing
		// silently.
		if err := s.repository.SetRefreshToken(user.ID, nil); err != nil {
			s.log.Error("failed to revoke refresh token", zap.Error(err))
		}
		s.log.Warn("refresh token reuse detected", zap.String("user_id", user.ID))
		return nil, ErrTokenRevoked
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout clears the stored refresh token for whichever account currently
// holds the presented value. A second logout with the same token reports
// ErrUserNotFound since the slot is already empty.
func (s *Service) Logout(presented string) error {
	user, err := s.repository.GetUserByRefreshToken(presented)
	if err != nil {
		return err
	}
	return s.repository.SetRefreshToken(user.ID, nil)
}

// ForgotPassword mails a reset code to an existing account.
func (s *Service) ForgotPassword(email string) error {
	if _, err := s.repository.GetUserByEmail(email); err != nil {
		return err
	}

	if _, err := s.otp.Issue(email); err != nil {
		return fmt.Errorf("issue reset code: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset code and replaces the password hash. The
// stored refresh token survives a reset; existing sessions are not forced
// to re-authenticate.
func (s *Service) ResetPassword(email, code, newPassword string) error {
	if newPassword == "" {
		return ErrMissingField
	}

	if err := s.otp.Verify(email, code); err != nil {
		return err
	}

	user, err := s.repository.GetUserByEmail(email)
	if err != nil {
		return err
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repository.SetPasswordHash(user.ID, hash)
}

// Authenticate is the request gate: it resolves a bearer header to the
// principal every protected endpoint runs as. Banned accounts are rejected
// even when their token still verifies.
func (s *Service) Authenticate(bearer string) (*Principal, error) {
	token := strings.TrimPrefix(bearer, "Bearer ")
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repository.GetUserByID(claims.Subject)
	if err != nil {
		return nil, err
	}

	if user.Banned {
		return nil, ErrUserBanned
	}

	return &Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Admin:  user.Admin(),
	}, nil
}

func (s *Service) openSession(user *User) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.repository.SetRefreshToken(user.ID, &refreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if err := s.repository.SetLastLogin(user.ID, time.Now()); err != nil {
		s.log.Warn("failed to record last login", zap.Error(err))
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
