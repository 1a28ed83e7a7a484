package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/payone-bridge/infra/config"
	"github.com/mstgnz/payone-bridge/infra/response"
)

// SettingsHandler handles settings related HTTP requests
type SettingsHandler struct {
	settings *config.SettingsStore
	validate *validator.Validate
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *config.SettingsStore, validate *validator.Validate) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		validate: validate,
	}
}

// GetSettings returns the stored settings with the portal key masked
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load()
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	response.Success(w, http.StatusOK, "Settings retrieved", settings.Masked())
}

// UpdateSettings replaces the stored settings. A submitted key equal to the
// mask sentinel (or empty) keeps the stored key, so re-saving a masked read
// is idempotent.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req config.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	current, err := h.settings.Load()
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	if req.Key == config.MaskedKey || req.Key == "" {
		req.Key = current.Key
	}

	if err := h.settings.Save(req); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}

	response.Success(w, http.StatusOK, "Settings updated", req.Masked())
}
