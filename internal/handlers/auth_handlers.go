package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/peerrent/verification/internal/domain"
)

// Register handles account creation
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "REGISTRATION_FAILED")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful",
		"user":    user.ToUserInfo(),
	})
}

// Login handles user authentication
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	response, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error(), "LOGIN_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, response)
}
