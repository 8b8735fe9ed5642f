package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID generates a unique record identifier: milliseconds since the epoch
// followed by an 8 character random hex suffix. The timestamp keeps ids
// roughly sortable by creation time; the suffix disambiguates ids generated
// within the same millisecond.
func NewID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
