package server

import (
	"net/http"
	"os"
	"time"
)

// HealthStatus represents operational status for the /health endpoint.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Storage   string                 `json:"storage"`
	Tracks    int                    `json:"trackCount"`
	Videos    int                    `json:"videoCount"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// handleHealthCheck returns basic liveness + dependency checks.
func (ms *MediaServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Storage:   "ok",
		Tracks:    ms.tracks.Len(),
		Videos:    ms.videos.Len(),
		Details:   make(map[string]interface{}),
	}

	// Check data directory accessibility
	if err := ms.checkStorageHealth(); err != nil {
		health.Status = "unhealthy"
		health.Storage = "error"
		health.Details["storage_error"] = err.Error()
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	ms.respondJSON(w, statusCode, health)
}

// checkStorageHealth validates that the data directory backing both
// collections still exists and is a directory.
func (ms *MediaServer) checkStorageHealth() error {
	info, err := os.Stat(ms.config.Storage.DataDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return os.ErrInvalid
	}
	return nil
}
