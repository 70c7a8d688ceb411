package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"go.uber.org/zap"

	"github.com/studeo/auth-service/internal/otp"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type tokenResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := validateSignupRequest(&req); err != nil {
		h.log.Warn("invalid signup request",
			zap.String("error", err.Error()),
			zap.String("email", req.Email))
		respondError(w, http.StatusBadRequest, err)
		return
	}

	h.log.Info("handling signup request", zap.String("email", req.Email))

	if err := h.service.Signup(req.Name, req.Email, req.Password); err != nil {
		h.writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, messageResponse{
		Success: true,
		Message: "Verification code sent, please verify your email",
	})
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" || req.Code == "" {
		respondError(w, http.StatusBadRequest, ErrMissingField)
		return
	}

	pair, err := h.service.VerifyOTP(req.Email, req.Code)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		Success:      true,
		Message:      "Email verified",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, ErrMissingField)
		return
	}

	pair, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		Success:      true,
		Message:      "Login successful",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, ErrMissingField)
		return
	}

	pair, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		Success:      true,
		Message:      "Token refreshed",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, ErrMissingField)
		return
	}

	if err := h.service.Logout(req.RefreshToken); err != nil {
		h.writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Logged out",
	})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, ErrMissingField)
		return
	}

	if err := h.service.ForgotPassword(req.Email); err != nil {
		h.writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Reset code sent",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, ErrMissingField)
		return
	}

	if err := h.service.ResetPassword(req.Email, req.Code, req.NewPassword); err != nil {
		h.writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Password updated",
	})
}

// Me returns the authenticated principal; it exists for clients to probe
// their own session and exercises the request gate.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":    principal.UserID,
		"email": principal.Email,
		"role":  principal.Role,
		"admin": principal.Admin,
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingField):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrEmailExists):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, ErrUserNotFound), errors.Is(err, otp.ErrCodeNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, ErrInvalidPassword):
		respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, ErrUserBanned):
		respondError(w, http.StatusForbidden, err)
	case errors.Is(err, ErrTokenExpired), errors.Is(err, otp.ErrCodeExpired):
		respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, ErrTokenRevoked):
		respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, otp.ErrCodeInvalid):
		respondError(w, http.StatusUnauthorized, err)
	default:
		h.log.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func validateSignupRequest(req *signupRequest) error {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return ErrMissingField
	}
	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !isValidEmail(req.Email) {
		return errors.New("invalid email format")
	}
	return nil
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]any{"error": err.Error()})
}
