package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medley/internal/config"
	"medley/internal/store"
	"medley/pkg/models"

	"github.com/sirupsen/logrus"
)

func newTestServer(t *testing.T) (*MediaServer, http.Handler) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.WatchForChanges = false
	cfg.Logging.RequestLogging = false

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel) // Reduce noise in tests

	tracks := store.New[models.Track](cfg.TracksPath(), logger)
	tracks.Load()
	videos := store.New[models.Video](cfg.VideosPath(), logger)
	videos.Load()

	ms, err := NewMediaServer(cfg, tracks, videos, logger)
	if err != nil {
		t.Fatalf("Failed to create media server: %v", err)
	}
	return ms, ms.Handler()
}

func doRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body["error"]
}

func TestTrackLifecycle(t *testing.T) {
	_, handler := newTestServer(t)

	// Create
	rec := doRequest(handler, http.MethodPost, "/tracks", `{"url":"a.mp3","title":"Song A"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /tracks status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	var created models.Track
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("created track has no id")
	}
	if created.URL != "a.mp3" || created.Title != "Song A" {
		t.Errorf("created track = %+v, want submitted fields back", created)
	}

	// List contains it
	rec = doRequest(handler, http.MethodGet, "/tracks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /tracks status = %d, want 200", rec.Code)
	}
	var listed []models.Track
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Errorf("GET /tracks = %+v, want the created track", listed)
	}

	// Fetch by id returns the same fields
	rec = doRequest(handler, http.MethodGet, "/tracks/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /tracks/{id} status = %d, want 200", rec.Code)
	}
	var fetched models.Track
	json.Unmarshal(rec.Body.Bytes(), &fetched)
	if fetched.ID != created.ID || fetched.Title != created.Title {
		t.Errorf("GET /tracks/{id} = %+v, want %+v", fetched, created)
	}

	// Search finds it
	rec = doRequest(handler, http.MethodGet, "/tracks/search?q=song", "")
	var found []models.Track
	json.Unmarshal(rec.Body.Bytes(), &found)
	if len(found) != 1 || found[0].ID != created.ID {
		t.Errorf("search = %+v, want the created track", found)
	}

	// Delete returns the removed record
	rec = doRequest(handler, http.MethodDelete, "/tracks/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /tracks/{id} status = %d, want 200", rec.Code)
	}
	var removed models.Track
	json.Unmarshal(rec.Body.Bytes(), &removed)
	if removed.ID != created.ID {
		t.Errorf("DELETE returned %+v, want the removed track", removed)
	}

	// Gone afterwards
	rec = doRequest(handler, http.MethodGet, "/tracks/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted track status = %d, want 404", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Not found" {
		t.Errorf("404 body error = %q, want %q", msg, "Not found")
	}
}

func TestCreateTrackValidation(t *testing.T) {
	ms, handler := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing url",
			body: `{"title":"Song A"}`,
		},
		{
			name: "missing title",
			body: `{"url":"a.mp3"}`,
		},
		{
			name: "empty fields",
			body: `{"url":"","title":""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(handler, http.MethodPost, "/tracks", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if msg := decodeError(t, rec); msg != "url and title are required" {
				t.Errorf("error = %q, want %q", msg, "url and title are required")
			}
		})
	}

	// Rejected creates never touch the stored collection
	if ms.tracks.Len() != 0 {
		t.Errorf("collection length = %d after rejected creates, want 0", ms.tracks.Len())
	}
}

func TestCreateTrackInvalidJSON(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(handler, http.MethodPost, "/tracks", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateVideoValidation(t *testing.T) {
	ms, handler := newTestServer(t)

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
	}{
		{
			name:     "valid with url",
			body:     `{"url":"v.mp4","title":"Clip"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "valid with localUri only",
			body:     `{"localUri":"file:///v.mp4","title":"Clip"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:      "missing title",
			body:      `{"url":"v.mp4"}`,
			wantCode:  http.StatusBadRequest,
			wantError: "title is required",
		},
		{
			name:      "missing url and localUri",
			body:      `{"title":"Clip"}`,
			wantCode:  http.StatusBadRequest,
			wantError: "url or localUri is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(handler, http.MethodPost, "/videos", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantError != "" {
				if msg := decodeError(t, rec); msg != tt.wantError {
					t.Errorf("error = %q, want %q", msg, tt.wantError)
				}
			}
		})
	}

	if ms.videos.Len() != 2 {
		t.Errorf("collection length = %d, want 2 (only valid creates stored)", ms.videos.Len())
	}
}

func TestCreateVideoSetsCreatedAt(t *testing.T) {
	_, handler := newTestServer(t)

	// A client-supplied createdAt is ignored
	rec := doRequest(handler, http.MethodPost, "/videos", `{"url":"v.mp4","title":"Clip","createdAt":"1999-01-01T00:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var created models.Video
	json.Unmarshal(rec.Body.Bytes(), &created)
	stamp, err := time.Parse(time.RFC3339, created.CreatedAt)
	if err != nil {
		t.Fatalf("createdAt %q is not RFC 3339: %v", created.CreatedAt, err)
	}
	if time.Since(stamp) > time.Minute {
		t.Errorf("createdAt %q was not set at creation time", created.CreatedAt)
	}
}

func TestSearchEmptyQueryReturnsEmptyArray(t *testing.T) {
	_, handler := newTestServer(t)
	doRequest(handler, http.MethodPost, "/tracks", `{"url":"a.mp3","title":"Song A"}`)

	for _, path := range []string{"/tracks/search?q=", "/tracks/search", "/videos/search?q="} {
		rec := doRequest(handler, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, rec.Code)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("GET %s body = %s, want []", path, body)
		}
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	_, handler := newTestServer(t)
	doRequest(handler, http.MethodPost, "/tracks", `{"url":"a.mp3","title":"Hello World"}`)

	rec := doRequest(handler, http.MethodGet, "/tracks/search?q=hello", "")
	var found []models.Track
	json.Unmarshal(rec.Body.Bytes(), &found)
	if len(found) != 1 {
		t.Errorf("search q=hello found %d tracks, want 1", len(found))
	}
}

func TestDeleteUnknownID(t *testing.T) {
	ms, handler := newTestServer(t)
	doRequest(handler, http.MethodPost, "/tracks", `{"url":"a.mp3","title":"Song A"}`)

	rec := doRequest(handler, http.MethodDelete, "/tracks/unknown-id", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Not found" {
		t.Errorf("error = %q, want %q", msg, "Not found")
	}
	if ms.tracks.Len() != 1 {
		t.Errorf("collection length changed by failed delete")
	}
}

func TestVideoLifecycle(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(handler, http.MethodPost, "/videos", `{"localUri":"file:///v.mp4","title":"Holiday Clip","thumbnail":"t.jpg","duration":12.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /videos status = %d, want 201", rec.Code)
	}
	var created models.Video
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doRequest(handler, http.MethodGet, "/videos/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /videos/{id} status = %d, want 200", rec.Code)
	}

	rec = doRequest(handler, http.MethodGet, "/videos/search?q=holiday", "")
	var found []models.Video
	json.Unmarshal(rec.Body.Bytes(), &found)
	if len(found) != 1 || found[0].ID != created.ID {
		t.Errorf("video search = %+v, want the created video", found)
	}

	rec = doRequest(handler, http.MethodDelete, "/videos/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /videos/{id} status = %d, want 200", rec.Code)
	}

	rec = doRequest(handler, http.MethodGet, "/videos/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted video status = %d, want 404", rec.Code)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(handler, http.MethodGet, "/tracks", "")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, handler := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/tracks"},
		{http.MethodPost, "/tracks/search"},
		{http.MethodPut, "/videos/some-id"},
	}

	for _, tt := range tests {
		rec := doRequest(handler, tt.method, tt.path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s status = %d, want 405", tt.method, tt.path, rec.Code)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	_, handler := newTestServer(t)
	doRequest(handler, http.MethodPost, "/tracks", `{"url":"a.mp3","title":"Song A"}`)

	rec := doRequest(handler, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", rec.Code)
	}

	var health HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" {
		t.Errorf("health status = %q, want healthy", health.Status)
	}
	if health.Tracks != 1 || health.Videos != 0 {
		t.Errorf("health counts = %d tracks / %d videos, want 1 / 0", health.Tracks, health.Videos)
	}
}
