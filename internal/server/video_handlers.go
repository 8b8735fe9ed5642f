package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"medley/pkg/models"
)

// handleVideos serves the video collection: GET lists all videos, POST
// creates one.
func (ms *MediaServer) handleVideos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ms.respondJSON(w, http.StatusOK, ms.videos.All())
	case http.MethodPost:
		ms.handleCreateVideo(w, r)
	default:
		ms.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleCreateVideo validates the submitted fields and appends the video to
// the collection. The creation timestamp is always set server-side.
func (ms *MediaServer) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var video models.Video
	if err := json.NewDecoder(r.Body).Decode(&video); err != nil {
		ms.respondError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if err := video.Validate(); err != nil {
		ms.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	video.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	created := ms.videos.Create(video)
	ms.logger.WithField("video_id", created.ID).Info("Video created")
	ms.respondJSON(w, http.StatusCreated, created)
}

// handleVideoByID dispatches /videos/{id} and /videos/search requests.
func (ms *MediaServer) handleVideoByID(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")

	if len(pathParts) >= 3 && pathParts[2] == "search" {
		if r.Method != http.MethodGet {
			ms.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
			return
		}
		query := r.URL.Query().Get("q")
		ms.respondJSON(w, http.StatusOK, ms.videos.Search(query))
		return
	}

	id, err := validateRecordID(pathParts, 3)
	if err != nil {
		ms.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		video, err := ms.videos.Get(id)
		if err != nil {
			ms.respondNotFound(w, r, err)
			return
		}
		ms.respondJSON(w, http.StatusOK, video)

	case http.MethodDelete:
		removed, err := ms.videos.Delete(id)
		if err != nil {
			ms.respondNotFound(w, r, err)
			return
		}
		ms.logger.WithField("video_id", id).Info("Video deleted")
		ms.respondJSON(w, http.StatusOK, removed)

	default:
		ms.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}
