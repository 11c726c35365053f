package refs

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDPrefix marks a string as a reference id. Ids are minted with a random
// UUID suffix and are never guessable from the content they stand for.
const IDPrefix = "ref://"

// IsReferenceID reports whether s is a reference id token.
func IsReferenceID(s string) bool {
	return strings.HasPrefix(s, IDPrefix) && len(s) > len(IDPrefix)
}

// Sidecar is the out-of-band store for large string values, keyed by
// reference id. The write path belongs to the caller, which stages values
// before invoking an execution; the resolver only reads.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: missing ids report absence via the bool return, never an error.
// - Ownership: returned strings are immutable snapshots; entries are never
//   mutated in place after creation.
type Sidecar interface {
	// GetSize returns the byte length of the value held for id,
	// or false if the id is unknown.
	GetSize(id string) (int, bool)

	// RetrieveString returns the value held for id, or false if unknown.
	RetrieveString(id string) (string, bool)
}

// MemorySidecar is an in-memory Sidecar with a write path for staging
// values and minting reference ids. It is safe for concurrent use; entries
// are immutable once stored. Persistence and TTL policy are the caller's
// concern.
type MemorySidecar struct {
	mu      sync.RWMutex
	entries map[string]string
	bytes   int
}

// NewMemorySidecar creates an empty MemorySidecar.
func NewMemorySidecar() *MemorySidecar {
	return &MemorySidecar{entries: make(map[string]string)}
}

// StoreString stages s and returns a freshly minted reference id for it.
func (m *MemorySidecar) StoreString(s string) string {
	id := IDPrefix + uuid.NewString()
	m.mu.Lock()
	m.entries[id] = s
	m.bytes += len(s)
	m.mu.Unlock()
	return id
}

// GetSize returns the byte length of the entry for id.
func (m *MemorySidecar) GetSize(id string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.entries[id]
	if !ok {
		return 0, false
	}
	return len(s), true
}

// RetrieveString returns the entry for id.
func (m *MemorySidecar) RetrieveString(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.entries[id]
	return s, ok
}

// Delete removes the entry for id, if present.
func (m *MemorySidecar) Delete(id string) {
	m.mu.Lock()
	if s, ok := m.entries[id]; ok {
		m.bytes -= len(s)
		delete(m.entries, id)
	}
	m.mu.Unlock()
}

// Len returns the number of staged entries.
func (m *MemorySidecar) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// TotalBytes returns the total byte size of all staged entries.
func (m *MemorySidecar) TotalBytes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bytes
}
