package ids

import "github.com/segmentio/ksuid"

// New returns a time-sortable unique identifier for persisted entities.
func New() string {
	return ksuid.New().String()
}
