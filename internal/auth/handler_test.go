package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_Signup(t *testing.T) {
	tests := []struct {
		name     string
		request  signupRequest
		setup    func(e *testEnv)
		wantCode int
	}{
		{
			name: "valid signup",
			request: signupRequest{
				Name:     "Ann",
				Email:    "ann@x.com",
				Password: "Pw12345!",
			},
			wantCode: http.StatusCreated,
		},
		{
			name: "missing name",
			request: signupRequest{
				Email:    "ann@x.com",
				Password: "Pw12345!",
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "short password",
			request: signupRequest{
				Name:     "Ann",
				Email:    "ann@x.com",
				Password: "short",
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "invalid email",
			request: signupRequest{
				Name:     "Ann",
				Email:    "not-an-email",
				Password: "Pw12345!",
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate email",
			request: signupRequest{
				Name:     "Ann",
				Email:    "taken@x.com",
				Password: "Pw12345!",
			},
			setup: func(e *testEnv) {
				require.NoError(t, e.svc.Signup("Other", "taken@x.com", "Pw12345!"))
			},
			wantCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(e)
			}
			h := NewHandler(e.svc, newTestLogger(t))

			rec := postJSON(t, h.Signup, "/auth/signup", tt.request)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandler_Login(t *testing.T) {
	tests := []struct {
		name     string
		request  loginRequest
		wantCode int
	}{
		{
			name:     "valid login",
			request:  loginRequest{Email: "ann@x.com", Password: "Pw12345!"},
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown email",
			request:  loginRequest{Email: "nobody@x.com", Password: "Pw12345!"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "wrong password",
			request:  loginRequest{Email: "ann@x.com", Password: "nope-nope"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing fields",
			request:  loginRequest{},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.signupVerified(t, "Ann", "ann@x.com", "Pw12345!")
			h := NewHandler(e.svc, newTestLogger(t))

			rec := postJSON(t, h.Login, "/auth/login", tt.request)
			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode == http.StatusOK {
				body := decodeBody(t, rec)
				assert.NotEmpty(t, body["access_token"])
				assert.NotEmpty(t, body["refresh_token"])
			}
		})
	}
}

func TestHandler_VerifyOTP(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.svc.Signup("Ann", "ann@x.com", "Pw12345!"))
	h := NewHandler(e.svc, newTestLogger(t))

	rec := postJSON(t, h.VerifyOTP, "/auth/verify-otp", verifyOTPRequest{
		Email: "ann@x.com",
		Code:  e.latestCode(t, "ann@x.com"),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
}

func TestHandler_Refresh(t *testing.T) {
	e := newTestEnv(t)
	e.signupVerified(t, "Ann", "ann@x.com", "Pw12345!")
	pair, err := e.svc.Login("ann@x.com", "Pw12345!")
	require.NoError(t, err)
	h := NewHandler(e.svc, newTestLogger(t))

	t.Run("valid refresh rotates", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, "/auth/refresh", tokenRequest{RefreshToken: pair.RefreshToken})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.NotEqual(t, pair.RefreshToken, body["refresh_token"])
	})

	t.Run("reused token is revoked", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, "/auth/refresh", tokenRequest{RefreshToken: pair.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := postJSON(t, h.Refresh, "/auth/refresh", tokenRequest{RefreshToken: "invalid.token.here"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandler_Logout(t *testing.T) {
	e := newTestEnv(t)
	e.signupVerified(t, "Ann", "ann@x.com", "Pw12345!")
	pair, err := e.svc.Login("ann@x.com", "Pw12345!")
	require.NoError(t, err)
	h := NewHandler(e.svc, newTestLogger(t))

	rec := postJSON(t, h.Logout, "/auth/logout", tokenRequest{RefreshToken: pair.RefreshToken})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.Logout, "/auth/logout", tokenRequest{RefreshToken: pair.RefreshToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ForgotAndResetPassword(t *testing.T) {
	e := newTestEnv(t)
	e.signupVerified(t, "Ann", "ann@x.com", "OldPw123!")
	h := NewHandler(e.svc, newTestLogger(t))

	rec := postJSON(t, h.ForgotPassword, "/auth/forgot-password", emailRequest{Email: "ann@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.ResetPassword, "/auth/reset-password", resetPasswordRequest{
		Email:       "ann@x.com",
		Code:        e.latestCode(t, "ann@x.com"),
		NewPassword: "NewPw456!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.Login, "/auth/login", loginRequest{Email: "ann@x.com", Password: "NewPw456!"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ForgotPassword_UnknownEmail(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.ForgotPassword, "/auth/forgot-password", emailRequest{Email: "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Me(t *testing.T) {
	e := newTestEnv(t)
	user := e.signupVerified(t, "Ann", "ann@x.com", "Pw12345!")
	h := NewHandler(e.svc, newTestLogger(t))

	t.Run("with principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req = req.WithContext(WithPrincipal(req.Context(), &Principal{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		}))
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, user.ID, body["id"])
		assert.Equal(t, "ann@x.com", body["email"])
	})

	t.Run("without principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
