package cache

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Per-data-class TTLs. Filtered results are the most volatile, so they get
// the shortest window.
const (
	TTLCategories    = 5 * time.Minute
	TTLBrands        = 5 * time.Minute
	TTLProducts      = 2 * time.Minute
	TTLMostRequested = 10 * time.Minute
	TTLProductByID   = 5 * time.Minute
	TTLByCategory    = 3 * time.Minute
	TTLFiltered      = 1 * time.Minute
)

// DefaultSweepInterval bounds memory growth from abandoned keys.
const DefaultSweepInterval = 15 * time.Minute

type entry struct {
	data  any
	stamp time.Time
	ttl   time.Duration
}

func (e entry) valid(now time.Time) bool {
	return now.Sub(e.stamp) < e.ttl
}

type Stats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
}

// Manager is a process-wide key/value cache with per-entry expiry. None of
// its operations ever fail: a cache problem degrades to a miss and the
// caller falls through to the real fetch.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewManager() *Manager {
	return &Manager{entries: make(map[string]entry)}
}

// Get returns the payload for key if the entry exists and has not expired.
// An expired entry is purged on the way out.
func (m *Manager) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.valid(time.Now()) {
		delete(m.entries, key)
		return nil, false
	}
	return e.data, true
}

// Set unconditionally overwrites any existing entry for key, stamped now.
func (m *Manager) Set(key string, data any, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = entry{data: data, stamp: time.Now(), ttl: ttl}
	m.mu.Unlock()
}

// Invalidate removes every entry whose key starts with prefix and returns
// how many were removed.
func (m *Manager) Invalidate(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Clear removes all entries and reports whether anything was removed.
func (m *Manager) Clear() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := len(m.entries) > 0
	m.entries = make(map[string]entry)
	return removed
}

// Cleanup removes all currently-expired entries and reports whether anything
// was removed. Meant to run on a fixed interval.
func (m *Manager) Cleanup() bool {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := false
	for k, e := range m.entries {
		if !e.valid(now) {
			delete(m.entries, k)
			removed = true
		}
	}
	return removed
}

func (m *Manager) Stats() Stats {
	now := time.Now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{Total: len(m.entries)}
	for _, e := range m.entries {
		if e.valid(now) {
			s.Valid++
		} else {
			s.Expired++
		}
	}
	return s
}

// GenerateKey derives a deterministic key from prefix plus an encoded form
// of params. Encoding is order-sensitive over the params struct's fields.
// If encoding fails the fallback key carries the current timestamp, which is
// deliberately never cacheable: the operation degrades to an always-miss,
// not an error.
func (m *Manager) GenerateKey(prefix string, params any) string {
	if params == nil {
		return prefix
	}
	b, err := json.Marshal(params)
	if err != nil {
		return prefix + "_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return fmt.Sprintf("%s_%s", prefix, base64.StdEncoding.EncodeToString(b))
}
