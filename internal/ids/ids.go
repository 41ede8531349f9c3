package ids

import (
	cryptorand "crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(cryptorand.Reader, 0)
)

// New returns a lexicographically sortable identifier suitable for storage
// keys. Session identifiers travel inside refresh tokens, so entropy comes
// from crypto/rand.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// IsValid reports whether s parses as one of our identifiers.
func IsValid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
