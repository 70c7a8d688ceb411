package server

import (
	"go.uber.org/zap"
)

// NewLogger returns a logger configured for the given environment.
func NewLogger(env string) (*zap.Logger, error) {
	if env == EnvProduction {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
