package api

// Authentication service endpoints
const (
	AuthSignup         = "/auth/signup"
	AuthLogin          = "/auth/login"
	AuthVerifyOTP      = "/auth/verify-otp"
	AuthRefreshToken   = "/auth/refresh"
	AuthLogout         = "/auth/logout"
	AuthForgotPassword = "/auth/forgot-password"
	AuthResetPassword  = "/auth/reset-password"
	AuthMe             = "/auth/me"
)

// PublicEndpoints defines endpoints that don't require authentication
var PublicEndpoints = map[string]bool{
	AuthSignup:         true,
	AuthLogin:          true,
	AuthVerifyOTP:      true,
	AuthRefreshToken:   true,
	AuthLogout:         true,
	AuthForgotPassword: true,
	AuthResetPassword:  true,
}
