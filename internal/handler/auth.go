package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/menagerie/menagerie/internal/model"
	"github.com/menagerie/menagerie/internal/service"
)

// TokenResponse is the login success body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthHandler handles login, the key-protected probe endpoint, and
// key administration.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Token handles POST /token/. Credentials arrive as form or query
// values under the usual OAuth2 password-flow field names.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	token, err := h.svc.Login(username, password)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		h.logger.Error("login_failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("login", "username", username)

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// SecureData handles GET /secure-data/. The key gate runs as
// middleware; by the time this executes the caller is authorized.
func (h *AuthHandler) SecureData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "This is protected data!",
	})
}

// CreateKey handles POST /auth/keys.
func (h *AuthHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req model.APIKeyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	minted, err := h.svc.MintKey(r.Context(), req.Name, req.NeverExpires)
	if err != nil {
		h.logger.Error("key_mint_failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("api_key_created",
		"key_id", minted.Record.ID,
		"key_prefix", minted.Record.KeyPrefix,
		"never_expires", req.NeverExpires,
	)

	// The plaintext key appears in this response and nowhere else.
	writeJSON(w, http.StatusCreated, model.APIKeyCreateResponse{
		ID:        minted.Record.ID,
		Key:       minted.Plaintext,
		Name:      minted.Record.Name,
		KeyPrefix: minted.Record.KeyPrefix,
		ExpiresAt: minted.Record.ExpiresAt,
		CreatedAt: minted.Record.CreatedAt,
	})
}

// ListKeys handles GET /auth/keys.
func (h *AuthHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.ListKeys(r.Context())
	if err != nil {
		h.logger.Error("key_list_failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	responses := make([]model.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, key.ToResponse())
	}
	writeJSON(w, http.StatusOK, responses)
}

// RevokeKey handles DELETE /auth/keys/{id}.
func (h *AuthHandler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.RevokeKey(r.Context(), id); err != nil {
		h.handleKeyError(w, err)
		return
	}

	h.logger.Info("api_key_revoked", "key_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// RenewKey handles POST /auth/keys/{id}/renew.
func (h *AuthHandler) RenewKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	key, err := h.svc.RenewKey(r.Context(), id)
	if err != nil {
		h.handleKeyError(w, err)
		return
	}

	h.logger.Info("api_key_renewed", "key_id", id, "expires_at", key.ExpiresAt)

	writeJSON(w, http.StatusOK, key.ToResponse())
}

func (h *AuthHandler) handleKeyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAPIKeyNotFound):
		writeDetail(w, http.StatusNotFound, "API key not found")
	case errors.Is(err, service.ErrKeyNotRenewable):
		writeDetail(w, http.StatusConflict, "API key cannot be renewed")
	default:
		h.logger.Error("key_admin_failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}
