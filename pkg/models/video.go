package models

import "errors"

// Validation errors for video creation. Their text is used verbatim in API
// error responses.
var (
	ErrVideoTitleMissing  = errors.New("title is required")
	ErrVideoSourceMissing = errors.New("url or localUri is required")
)

// Video represents a video entry in the media library. A video plays either
// from a remote URL or from a file already on the client device, so exactly
// one of URL and LocalURI may be empty.
type Video struct {
	ID        string  `json:"id"`
	URL       string  `json:"url,omitempty"`
	LocalURI  string  `json:"localUri,omitempty"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Duration  float64 `json:"duration,omitempty"` // seconds
	CreatedAt string  `json:"createdAt"`          // RFC 3339 UTC, set at creation
}

// RecordID returns the video's unique identifier.
func (v Video) RecordID() string { return v.ID }

// WithID returns a copy of the video with its identifier set.
func (v Video) WithID(id string) Video {
	v.ID = id
	return v
}

// SearchFields lists the values scanned by substring search.
func (v Video) SearchFields() []string {
	return []string{v.Title, v.URL}
}

// Validate checks that the fields required at creation time are present.
func (v Video) Validate() error {
	if v.Title == "" {
		return ErrVideoTitleMissing
	}
	if v.URL == "" && v.LocalURI == "" {
		return ErrVideoSourceMissing
	}
	return nil
}
