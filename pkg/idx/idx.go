// Package idx mints the request ids that tie a GraphQL round trip to its log
// lines and its X-Request-ID response header. Ids are ULIDs: sortable by
// arrival and cheap to generate. They are not secrets; refresh handles use
// random UUIDs instead.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a request id in canonical ULID text form.
type ID string

// Zero is the empty ID.
const Zero ID = ""

// ErrInvalid is returned by Parse for anything that is not a canonical ULID.
var ErrInvalid = errors.New("idx: invalid ulid")

// ulidSource serialises reads of monotonic entropy, which is not safe for
// concurrent use on its own.
type ulidSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var source = sync.OnceValue(func() *ulidSource {
	return &ulidSource{entropy: ulid.Monotonic(rand.Reader, 0)}
})

// New returns an id stamped with the current time.
func New() ID {
	return NewAt(time.Now())
}

// NewAt returns an id stamped with t. Ids minted within the same millisecond
// still sort in creation order.
func NewAt(t time.Time) ID {
	s := source()
	s.mu.Lock()
	u := ulid.MustNew(ulid.Timestamp(t.UTC()), s.entropy)
	s.mu.Unlock()
	return ID(u.String())
}

// Parse accepts a client supplied request id only if it is a canonical ULID,
// so arbitrary header contents never reach the logs.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

func (id ID) IsZero() bool { return id == Zero }

func (id ID) String() string { return string(id) }

// Time is when the request id was minted, or the zero time if id is invalid.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
