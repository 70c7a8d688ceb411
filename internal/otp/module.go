package otp

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/studeo/auth-service/internal/config"
	"github.com/studeo/auth-service/internal/database"
	"github.com/studeo/auth-service/internal/email"
)

// NewModule returns the otp module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(manager *database.Manager) Repository {
					return NewRepository(manager.DB())
				},
			),
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger, repo Repository, sender email.Sender) *Service {
					return NewService(&config.OTP, log, repo, sender)
				},
			),
		),
	)
}
