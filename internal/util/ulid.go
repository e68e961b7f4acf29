package util

import (
	"github.com/oklog/ulid/v2"
)

// NewULID returns a new lexically sortable id for sessions, uploads and audit entries.
func NewULID() string {
	return ulid.Make().String()
}
