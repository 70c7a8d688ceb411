package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studeo/auth-service/internal/config"
	"github.com/studeo/auth-service/internal/email"
	"github.com/studeo/auth-service/internal/otp"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		AccessTokenSecret:    "test-access-secret",
		RefreshTokenSecret:   "test-refresh-secret",
		AccessTokenDuration:  time.Hour,
		RefreshTokenDuration: 24 * time.Hour,
	}
}

// testEnv bundles the service with the fakes backing it so tests can reach
// into stored state.
type testEnv struct {
	svc    *Service
	users  Repository
	codes  otp.Repository
	sender *email.MockSender
	tokens *TokenIssuer
	otpSvc *otp.Service
}

func newTestEnv(t *testing.T) *testEnv {
	log := newTestLogger(t)
	users := newMockRepository()
	codes := otp.NewMockRepository()
	sender := email.NewMockSender()
	tokens := NewTokenIssuer(newTestConfig())

	otpService := otp.NewService(
		&config.OTPConfig{CodeTTL: 2 * time.Minute},
		log,
		codes,
		sender,
	)

	return &testEnv{
		svc:    NewService(log, users, tokens, otpService),
		users:  users,
		codes:  codes,
		sender: sender,
		tokens: tokens,
		otpSvc: otpService,
	}
}

func newTestService(t *testing.T) *Service {
	return newTestEnv(t).svc
}

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(newTestService(t), newTestLogger(t))
}

// latestCode reads the outstanding verification code for an address.
func (e *testEnv) latestCode(t *testing.T, email string) string {
	record, err := e.codes.LatestByEmail(email)
	require.NoError(t, err)
	return record.Code
}

// banUser flips the ban flag directly on the backing store; moderation
// itself lives outside this service.
func (e *testEnv) banUser(t *testing.T, userID string) {
	repo, ok := e.users.(*mockRepository)
	require.True(t, ok)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	u, exists := repo.users[userID]
	require.True(t, exists)
	u.Banned = true
}

// signupVerified creates a verified account ready to log in.
func (e *testEnv) signupVerified(t *testing.T, name, email, password string) *User {
	require.NoError(t, e.svc.Signup(name, email, password))

	pair, err := e.svc.VerifyOTP(email, e.latestCode(t, email))
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	user, err := e.users.GetUserByEmail(email)
	require.NoError(t, err)
	return user
}
