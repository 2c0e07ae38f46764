package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/vardar-pos/api/internal/auth"
)

// Authorizer checks an admin code and mints a short-lived override token.
// Satisfied by *auth.Gate.
type Authorizer interface {
	Authorize(code string) (string, error)
}

// AdminHandler handles admin override authorization.
type AdminHandler struct {
	gate Authorizer
	log  *logrus.Logger
}

func NewAdminHandler(gate Authorizer, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{gate: gate, log: log}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/admin/authorize", h.Authorize)
}

type authorizeRequest struct {
	AdminCode string `json:"admin_code"`
}

type authorizeResponse struct {
	OverrideToken string `json:"override_token"`
	ExpiresIn     int    `json:"expires_in"`
}

// Authorize handles POST /admin/authorize.
func (h *AdminHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.AdminCode == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "admin_code is required"})
		return
	}

	token, err := h.gate.Authorize(req.AdminCode)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid admin code"})
			return
		}
		h.log.WithError(err).Error("admin authorization failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, authorizeResponse{
		OverrideToken: token,
		ExpiresIn:     int(auth.OverrideTTL.Seconds()),
	})
}
