package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/listing-desk/internal/auth"
)

// apikeyHandlers lets a signed-in user manage their own API keys.
// Administrators see and revoke every key.
type apikeyHandlers struct {
	apiKeys *auth.APIKeyStore
	users   *auth.UserStore
}

type apiKeyResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

type apiKeyCreateResponse struct {
	Key            string         `json:"key"` // raw key, shown once
	APIKeyResponse apiKeyResponse `json:"api_key"`
}

const timestampFormat = "2006-01-02T15:04:05Z"

func newAPIKeyResponse(k auth.APIKey) apiKeyResponse {
	resp := apiKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		Email:     k.Email,
		KeyPrefix: k.KeyPrefix,
		CreatedAt: k.CreatedAt.UTC().Format(timestampFormat),
	}
	if k.LastUsedAt != nil {
		s := k.LastUsedAt.UTC().Format(timestampFormat)
		resp.LastUsedAt = &s
	}
	return resp
}

// handleCreateKey issues a key for the caller.
func (h *apikeyHandlers) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API Key"
	}

	rawKey, key, err := h.apiKeys.Create(name, auth.EmailFrom(r.Context()))
	if err != nil {
		slog.Error("creating api key", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, apiKeyCreateResponse{Key: rawKey, APIKeyResponse: newAPIKeyResponse(*key)}, http.StatusCreated)
}

// handleListKeys returns the caller's keys (without raw keys).
func (h *apikeyHandlers) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.visibleKeys(auth.EmailFrom(r.Context()))
	if err != nil {
		slog.Error("listing api keys", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]apiKeyResponse, 0, len(keys))
	for _, k := range keys {
		resp = append(resp, newAPIKeyResponse(k))
	}
	apiJSON(w, resp, http.StatusOK)
}

// handleDeleteKey revokes a key the caller can see.
func (h *apikeyHandlers) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apiError(w, "invalid key ID", http.StatusBadRequest)
		return
	}

	keys, err := h.visibleKeys(auth.EmailFrom(r.Context()))
	if err != nil {
		slog.Error("listing api keys", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	owned := false
	for _, k := range keys {
		if k.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		apiError(w, "key not found", http.StatusNotFound)
		return
	}

	if err := h.apiKeys.Delete(id); err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			apiError(w, "key not found", http.StatusNotFound)
			return
		}
		slog.Error("deleting api key", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *apikeyHandlers) visibleKeys(email string) ([]auth.APIKey, error) {
	keys, err := h.apiKeys.List()
	if err != nil {
		return nil, err
	}
	if h.users.Can(email, auth.CapManageOptions) {
		return keys, nil
	}

	var own []auth.APIKey
	for _, k := range keys {
		if strings.EqualFold(k.Email, email) {
			own = append(own, k)
		}
	}
	return own, nil
}
