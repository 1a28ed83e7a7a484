package handler

import (
	"net/http"
	"time"

	"github.com/mstgnz/payone-bridge/infra/response"
)

// Health reports service liveness
func Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	_ = response.WriteJSON(w, http.StatusOK, response.Response{
		Success: true,
		Message: "Service is healthy",
		Data:    health,
	})
}
