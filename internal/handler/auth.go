package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"docvault/internal/auth"
	"docvault/internal/httputil"
)

// AuthHandler issues bearer tokens for the configured account.
type AuthHandler struct {
	issuer   *auth.TokenIssuer
	email    string
	password string
	logger   *slog.Logger
}

func NewAuthHandler(issuer *auth.TokenIssuer, email, password string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		issuer:   issuer,
		email:    email,
		password: password,
		logger:   logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(h.email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password)) == 1
	if !emailOK || !passwordOK {
		h.logger.Warn("login rejected", "email", req.Email)
		httputil.RespondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.issuer.Issue(req.Email)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, loginResponse{Token: token})
}
