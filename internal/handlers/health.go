package handlers

import (
	"net/http"
	"time"

	"vapi-proxy/internal/config"
	"vapi-proxy/internal/models"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(isoMillis),
		Version:   config.Version,
	})
}
