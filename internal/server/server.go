package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/studeo/auth-service/internal/api"
	"github.com/studeo/auth-service/internal/auth"
	"github.com/studeo/auth-service/internal/config"
)

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
}

func NewServer(p Params) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Every route not listed in api.PublicEndpoints goes through the
	// request-authentication gate.
	r.Use(p.AuthMiddleware.RequireAuth(api.PublicEndpoints))

	r.Post(api.AuthSignup, p.AuthHandler.Signup)
	r.Post(api.AuthVerifyOTP, p.AuthHandler.VerifyOTP)
	r.Post(api.AuthLogin, p.AuthHandler.Login)
	r.Post(api.AuthRefreshToken, p.AuthHandler.Refresh)
	r.Post(api.AuthLogout, p.AuthHandler.Logout)
	r.Post(api.AuthForgotPassword, p.AuthHandler.ForgotPassword)
	r.Post(api.AuthResetPassword, p.AuthHandler.ResetPassword)
	r.Get(api.AuthMe, p.AuthHandler.Me)

	addr := fmt.Sprintf("%s:%s", p.Config.Server.Host, p.Config.Server.Port)

	return &Server{
		config: p.Config,
		log:    p.Logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddDuration("access_token_duration", config.Auth.AccessTokenDuration)
		enc.AddDuration("refresh_token_duration", config.Auth.RefreshTokenDuration)
		enc.AddDuration("otp_code_ttl", config.OTP.CodeTTL)
		return nil
	})
}

func (s *Server) Stop() {
	s.log.Info("shutting down HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("failed to shut down cleanly", zap.Error(err))
	}
}
