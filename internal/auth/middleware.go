package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Define a custom type for context keys
type contextKey string

const principalContextKey contextKey = "principal"

// Principal is the identity attached to the request context for downstream
// authorization checks.
type Principal struct {
	UserID string
	Email  string
	Role   string
	Admin  bool
}

type Middleware struct {
	service *Service
	log     *zap.Logger
}

func NewMiddleware(service *Service, log *zap.Logger) *Middleware {
	return &Middleware{
		service: service,
		log:     log,
	}
}

// RequireAuth authenticates every request whose path is not listed as
// public and stores the resolved principal on the request context.
func (m *Middleware) RequireAuth(public map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := m.service.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				m.log.Warn("authentication failed",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				writeAuthError(w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UnaryServerInterceptor is the same gate in gRPC form, for the platform's
// internal services. The bearer token travels in the authorization
// metadata key.
func (m *Middleware) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		principal, err := m.service.Authenticate(values[0])
		if err != nil {
			m.log.Warn("authentication failed",
				zap.String("method", info.FullMethod),
				zap.Error(err))
			switch {
			case errors.Is(err, ErrTokenExpired):
				return nil, status.Error(codes.Unauthenticated, "token expired")
			case errors.Is(err, ErrUserBanned):
				return nil, status.Error(codes.PermissionDenied, "account is banned")
			default:
				return nil, status.Error(codes.Unauthenticated, "invalid token")
			}
		}

		return handler(WithPrincipal(ctx, principal), req)
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, ErrTokenExpired)
	case errors.Is(err, ErrUserBanned):
		respondError(w, http.StatusForbidden, ErrUserBanned)
	default:
		respondError(w, http.StatusUnauthorized, ErrTokenInvalid)
	}
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the authenticated principal stored by the
// gate.
func PrincipalFromContext(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	if !ok {
		return nil, errors.New("principal not found in context")
	}
	return p, nil
}
