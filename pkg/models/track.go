package models

import "errors"

// ErrTrackFieldsMissing is returned when a track is created without its
// required fields. Its text is used verbatim in API error responses.
var ErrTrackFieldsMissing = errors.New("url and title are required")

// Track represents an audio entry in the media library.
type Track struct {
	ID       string   `json:"id"`
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Artist   string   `json:"artist,omitempty"`
	Artwork  string   `json:"artwork,omitempty"`
	Playlist []string `json:"playlist,omitempty"`
	Rating   float64  `json:"rating,omitempty"`
	Duration float64  `json:"duration,omitempty"` // seconds, informational only
}

// RecordID returns the track's unique identifier.
func (t Track) RecordID() string { return t.ID }

// WithID returns a copy of the track with its identifier set.
func (t Track) WithID(id string) Track {
	t.ID = id
	return t
}

// SearchFields lists the values scanned by substring search.
func (t Track) SearchFields() []string {
	fields := []string{t.Title, t.Artist, t.URL}
	return append(fields, t.Playlist...)
}

// Validate checks that the fields required at creation time are present.
func (t Track) Validate() error {
	if t.URL == "" || t.Title == "" {
		return ErrTrackFieldsMissing
	}
	return nil
}
