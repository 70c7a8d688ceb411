package email

import (
	"go.uber.org/fx"

	"github.com/studeo/auth-service/internal/config"
)

// NewModule returns the email module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig) Sender {
					return NewClient(&config.Email)
				},
			),
		),
	)
}
