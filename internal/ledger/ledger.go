// internal/ledger/ledger.go
package ledger

import (
	"sync"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

// Key identifies one logical unit of work: an entry path inside a named archive
type Key struct {
	Name string
	Path string
}

// digest folds a key into a fixed-size map key; the zero byte keeps
// ("ab", "c") and ("a", "bc") apart
func (k Key) digest() [32]byte {
	h := blake3.New()
	h.Write([]byte(k.Name))
	h.Write([]byte{0})
	h.Write([]byte(k.Path))
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Ledger is a thread-safe set of observed keys. It holds identities only,
// never payloads, and grows until Reset.
type Ledger struct {
	mu   sync.Mutex
	seen map[[32]byte]struct{}

	// Statistics
	observed   atomic.Uint64
	duplicates atomic.Uint64
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{
		seen: make(map[[32]byte]struct{}),
	}
}

// Observe inserts key if absent and reports whether this call was the first to see it
func (l *Ledger) Observe(key Key) bool {
	sum := key.digest()
	l.observed.Add(1)

	l.mu.Lock()
	_, exists := l.seen[sum]
	if !exists {
		l.seen[sum] = struct{}{}
	}
	l.mu.Unlock()

	if exists {
		l.duplicates.Add(1)
	}
	return !exists
}

// Seen reports whether key was already observed without recording it
func (l *Ledger) Seen(key Key) bool {
	sum := key.digest()
	l.mu.Lock()
	defer l.mu.Unlock()
	_, exists := l.seen[sum]
	return exists
}

// Len returns the number of distinct keys
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// Reset forgets every key and clears statistics
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.seen = make(map[[32]byte]struct{})
	l.mu.Unlock()
	l.observed.Store(0)
	l.duplicates.Store(0)
}

// Stats returns observation statistics
func (l *Ledger) Stats() Stats {
	return Stats{
		Observed:   l.observed.Load(),
		Duplicates: l.duplicates.Load(),
	}
}

// Stats contains ledger statistics
type Stats struct {
	Observed   uint64 // Total Observe calls
	Duplicates uint64 // Calls that found the key already present
}

// DuplicateRatio returns the share of observations that were duplicates, as a percentage
func (s Stats) DuplicateRatio() float64 {
	if s.Observed == 0 {
		return 0
	}
	return float64(s.Duplicates) / float64(s.Observed) * 100
}
