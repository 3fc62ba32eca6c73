package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/stridestats/stridestats/internal/activity"
	"github.com/stridestats/stridestats/internal/auth"
)

// AuthHandler issues athlete and admin sessions.
type AuthHandler struct {
	config auth.Config
	oauth  *activity.OAuthClient
	tokens activity.TokenStore
	logger *slog.Logger
}

func NewAuthHandler(config auth.Config, oauth *activity.OAuthClient, tokens activity.TokenStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{config: config, oauth: oauth, tokens: tokens, logger: logger}
}

// Connect handles POST /api/auth/connect. The frontend completes the
// provider's OAuth redirect and posts the authorization code here; the
// handler stores the provider token and issues a session JWT.
func (h *AuthHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Code == "" {
		http.Error(w, "Authorization code required", http.StatusBadRequest)
		return
	}

	token, err := h.oauth.Exchange(r.Context(), request.Code)
	if err != nil {
		h.logger.Error("oauth exchange failed", "error", err)
		http.Error(w, "Authorization code rejected", http.StatusUnauthorized)
		return
	}

	if err := h.tokens.Store(r.Context(), *token); err != nil {
		h.logger.Error("failed to store provider token", "athlete_id", token.AthleteID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	session, err := auth.GenerateAthleteToken(token.AthleteID, h.config.JWTSecret, h.config.SessionTTL)
	if err != nil {
		h.logger.Error("failed to sign session token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("athlete connected", "athlete_id", token.AthleteID)
	writeJSON(w, http.StatusOK, SessionResponse{Token: session, AthleteID: token.AthleteID})
}

// AdminLogin handles POST /api/auth/admin/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.config.AdminPasswordHash == "" {
		http.Error(w, "Admin access is disabled", http.StatusForbidden)
		return
	}

	var request struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !auth.CheckPassword(request.Password, h.config.AdminPasswordHash) {
		h.logger.Warn("admin login rejected")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	session, err := auth.GenerateAdminToken(h.config.JWTSecret, h.config.SessionTTL)
	if err != nil {
		h.logger.Error("failed to sign admin token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{Token: session})
}

// Validate handles GET /api/auth/validate behind the athlete middleware,
// confirming a session is still good.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	athleteID, _ := auth.AthleteIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, SessionResponse{AthleteID: athleteID})
}

type SessionResponse struct {
	Token     string `json:"token,omitempty"`
	AthleteID int64  `json:"athlete_id,omitempty"`
}
