package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

// respondJSON writes v as a JSON response with the given status code.
func (ms *MediaServer) respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ms.logger.WithError(err).Error("Failed to encode response")
	}
}

// respondError sends the API's error body shape: {"error": message}.
func (ms *MediaServer) respondError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	logEntry := ms.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": statusCode,
		"message":     message,
	})

	if err != nil {
		logEntry = logEntry.WithError(err)
	}

	if statusCode >= 500 {
		logEntry.Error("Server error")
	} else {
		logEntry.Warn("Client error")
	}

	ms.respondJSON(w, statusCode, map[string]string{"error": message})
}

// validateRecordID extracts a record ID from split URL path segments.
func validateRecordID(pathParts []string, minParts int) (string, error) {
	if len(pathParts) < minParts {
		return "", errors.New("record ID is required")
	}

	id := pathParts[minParts-1]
	if id == "" {
		return "", errors.New("record ID cannot be empty")
	}

	return id, nil
}
