package server

import (
	"testing"
)

func TestValidateRecordID(t *testing.T) {
	tests := []struct {
		name      string
		pathParts []string
		minParts  int
		wantID    string
		wantError bool
	}{
		{
			name:      "valid record ID",
			pathParts: []string{"", "tracks", "1756628000000-a1b2c3d4"},
			minParts:  3,
			wantID:    "1756628000000-a1b2c3d4",
			wantError: false,
		},
		{
			name:      "missing record ID",
			pathParts: []string{"", "tracks"},
			minParts:  3,
			wantID:    "",
			wantError: true,
		},
		{
			name:      "empty record ID",
			pathParts: []string{"", "tracks", ""},
			minParts:  3,
			wantID:    "",
			wantError: true,
		},
		{
			name:      "extra path segments ignored",
			pathParts: []string{"", "videos", "some-id", "extra"},
			minParts:  3,
			wantID:    "some-id",
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := validateRecordID(tt.pathParts, tt.minParts)

			if tt.wantError && err == nil {
				t.Errorf("validateRecordID() expected error but got none")
			}
			if !tt.wantError && err != nil {
				t.Errorf("validateRecordID() unexpected error: %v", err)
			}
			if id != tt.wantID {
				t.Errorf("validateRecordID() = %v, want %v", id, tt.wantID)
			}
		})
	}
}
