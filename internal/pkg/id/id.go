package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// LocalPrefix marks ids minted on this side rather than by the backend.
const LocalPrefix = "local-"

// New generates a new ULID string. ULIDs sort by creation time.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewLocal generates a display id for a notification the backend did not number.
func NewLocal() string {
	return LocalPrefix + New()
}
