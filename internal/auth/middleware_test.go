package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestMiddleware(t *testing.T) (*Middleware, *testEnv) {
	e := newTestEnv(t)
	return NewMiddleware(e.svc, newTestLogger(t)), e
}

func loginTestUser(t *testing.T, e *testEnv) (*User, *TokenPair) {
	user := e.signupVerified(t, "Ann", "ann@x.com", "Pw12345!")
	pair, err := e.svc.Login("ann@x.com", "Pw12345!")
	require.NoError(t, err)
	return user, pair
}

func TestMiddleware_RequireAuth(t *testing.T) {
	public := map[string]bool{"/auth/login": true}

	okHandler := func(gotPrincipal **Principal) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, err := PrincipalFromContext(r.Context()); err == nil {
				*gotPrincipal = p
			}
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("public path passes through", func(t *testing.T) {
		m, _ := newTestMiddleware(t)
		var principal *Principal

		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		rec := httptest.NewRecorder()
		m.RequireAuth(public)(okHandler(&principal)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, principal)
	})

	t.Run("protected path without token", func(t *testing.T) {
		m, _ := newTestMiddleware(t)
		var principal *Principal

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()
		m.RequireAuth(public)(okHandler(&principal)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, principal)
	})

	t.Run("protected path with valid token", func(t *testing.T) {
		m, e := newTestMiddleware(t)
		user, pair := loginTestUser(t, e)
		var principal *Principal

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		m.RequireAuth(public)(okHandler(&principal)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, principal)
		assert.Equal(t, user.ID, principal.UserID)
		assert.Equal(t, "ann@x.com", principal.Email)
	})

	t.Run("banned account gets forbidden", func(t *testing.T) {
		m, e := newTestMiddleware(t)
		user, pair := loginTestUser(t, e)
		e.banUser(t, user.ID)
		var principal *Principal

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		m.RequireAuth(public)(okHandler(&principal)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Nil(t, principal)
	})

	t.Run("expired token is distinguished", func(t *testing.T) {
		m, e := newTestMiddleware(t)
		loginTestUser(t, e)

		cfg := newTestConfig()
		cfg.AccessTokenDuration = -1
		expiredIssuer := NewTokenIssuer(cfg)
		token, err := expiredIssuer.IssueAccessToken("whoever", "ann@x.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		var principal *Principal
		m.RequireAuth(public)(okHandler(&principal)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "expired")
	})
}

func TestMiddleware_UnaryServerInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/studeo.course.Course/ListCourses"}

	passthrough := func(gotPrincipal **Principal) grpc.UnaryHandler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if p, err := PrincipalFromContext(ctx); err == nil {
				*gotPrincipal = p
			}
			return "ok", nil
		}
	}

	t.Run("missing metadata", func(t *testing.T) {
		m, _ := newTestMiddleware(t)
		var principal *Principal

		_, err := m.UnaryServerInterceptor()(context.Background(), nil, info, passthrough(&principal))
		require.Error(t, err)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("missing token", func(t *testing.T) {
		m, _ := newTestMiddleware(t)
		var principal *Principal

		ctx := metadata.NewIncomingContext(context.Background(), metadata.MD{})
		_, err := m.UnaryServerInterceptor()(ctx, nil, info, passthrough(&principal))
		require.Error(t, err)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("valid token reaches handler with principal", func(t *testing.T) {
		m, e := newTestMiddleware(t)
		user, pair := loginTestUser(t, e)
		var principal *Principal

		ctx := metadata.NewIncomingContext(context.Background(),
			metadata.Pairs("authorization", "Bearer "+pair.AccessToken))
		resp, err := m.UnaryServerInterceptor()(ctx, nil, info, passthrough(&principal))
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
		require.NotNil(t, principal)
		assert.Equal(t, user.ID, principal.UserID)
	})

	t.Run("banned account gets permission denied", func(t *testing.T) {
		m, e := newTestMiddleware(t)
		user, pair := loginTestUser(t, e)
		e.banUser(t, user.ID)
		var principal *Principal

		ctx := metadata.NewIncomingContext(context.Background(),
			metadata.Pairs("authorization", "Bearer "+pair.AccessToken))
		_, err := m.UnaryServerInterceptor()(ctx, nil, info, passthrough(&principal))
		require.Error(t, err)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})
}
