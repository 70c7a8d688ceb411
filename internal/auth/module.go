package auth

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/studeo/auth-service/internal/config"
	"github.com/studeo/auth-service/internal/database"
	"github.com/studeo/auth-service/internal/otp"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(manager *database.Manager) Repository {
					return NewRepository(manager.DB())
				},
			),
			// Provide token issuer
			fx.Annotate(
				func(config *config.AppConfig) *TokenIssuer {
					return NewTokenIssuer(&config.Auth)
				},
			),
			// Provide service
			fx.Annotate(
				func(log *zap.Logger, repo Repository, tokens *TokenIssuer, otpService *otp.Service) *Service {
					return NewService(log, repo, tokens, otpService)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Handler {
					return NewHandler(svc, log)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Middleware {
					return NewMiddleware(svc, log)
				},
			),
		),
	)
}
