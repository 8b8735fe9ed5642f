package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"medley/internal/store"
	"medley/pkg/models"
)

// handleTracks serves the track collection: GET lists all tracks, POST
// creates one.
func (ms *MediaServer) handleTracks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ms.respondJSON(w, http.StatusOK, ms.tracks.All())
	case http.MethodPost:
		ms.handleCreateTrack(w, r)
	default:
		ms.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleCreateTrack validates the submitted fields, assigns an id and
// appends the track to the collection.
func (ms *MediaServer) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	var track models.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		ms.respondError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if err := track.Validate(); err != nil {
		ms.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	created := ms.tracks.Create(track)
	ms.logger.WithField("track_id", created.ID).Info("Track created")
	ms.respondJSON(w, http.StatusCreated, created)
}

// handleTrackByID dispatches /tracks/{id} and /tracks/search requests.
func (ms *MediaServer) handleTrackByID(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")

	if len(pathParts) >= 3 && pathParts[2] == "search" {
		if r.Method != http.MethodGet {
			ms.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
			return
		}
		query := r.URL.Query().Get("q")
		ms.respondJSON(w, http.StatusOK, ms.tracks.Search(query))
		return
	}

	id, err := validateRecordID(pathParts, 3)
	if err != nil {
		ms.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		track, err := ms.tracks.Get(id)
		if err != nil {
			ms.respondNotFound(w, r, err)
			return
		}
		ms.respondJSON(w, http.StatusOK, track)

	case http.MethodDelete:
		removed, err := ms.tracks.Delete(id)
		if err != nil {
			ms.respondNotFound(w, r, err)
			return
		}
		ms.logger.WithField("track_id", id).Info("Track deleted")
		ms.respondJSON(w, http.StatusOK, removed)

	default:
		ms.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// respondNotFound maps store lookup misses to the API's 404 body; anything
// else is an internal error.
func (ms *MediaServer) respondNotFound(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		ms.respondError(w, r, http.StatusNotFound, "Not found", nil)
		return
	}
	ms.respondError(w, r, http.StatusInternalServerError, "Internal server error", err)
}
