package ulid

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     io.Reader
	entropyOnce sync.Once

	mu        sync.RWMutex
	generator = DefaultGenerator
)

// DefaultEntropy returns a reader that generates ULID entropy.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

// ValidID checks if the given id is a valid ULID in its canonical
// upper-case Crockford's Base32 form.
func ValidID(id string) bool {
	parsed, err := ulid.ParseStrict(id)
	return err == nil && parsed.String() == id
}

// GenerateID generates a new block identifier.
func GenerateID() string {
	mu.RLock()
	gen := generator
	mu.RUnlock()
	return gen()
}

func DefaultGenerator() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), DefaultEntropy()).String()
}

// MockGenerator makes GenerateID return a reproducible sequence of
// unique IDs anchored at the given time.
func MockGenerator(at time.Time) {
	source := &ulid.LockedMonotonicReader{
		MonotonicReader: ulid.Monotonic(rand.New(rand.NewSource(1)), 0),
	}
	ts := ulid.Timestamp(at)

	mu.Lock()
	defer mu.Unlock()
	generator = func() string {
		return ulid.MustNew(ts, source).String()
	}
}

func ResetGenerator() {
	mu.Lock()
	defer mu.Unlock()
	generator = DefaultGenerator
}
