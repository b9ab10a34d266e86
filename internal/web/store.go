package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studzonetools/bunker/internal/bunk"
	"github.com/studzonetools/bunker/internal/studzone"
)

// sessionStore holds the live portal Sessions for logged-in browsers, keyed
// by an opaque id carried in the signed cookie, plus each browser's manual
// attendance adjustments. Entries idle past the TTL are swept and their
// portal sessions closed.
type sessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*storeEntry
}

type storeEntry struct {
	session     *studzone.Session
	adjustments map[string]bunk.Adjustment
	lastSeen    time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{ttl: ttl, entries: make(map[string]*storeEntry)}
}

func (st *sessionStore) Put(s *studzone.Session) string {
	id := uuid.NewString()
	st.mu.Lock()
	st.entries[id] = &storeEntry{
		session:     s,
		adjustments: make(map[string]bunk.Adjustment),
		lastSeen:    time.Now(),
	}
	st.mu.Unlock()
	return id
}

// Session returns the portal session for id, refreshing its idle timer.
func (st *sessionStore) Session(id string) (*studzone.Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.session, true
}

// Adjust records an additive correction for one course. Posting the same
// course again replaces the previous correction rather than stacking.
func (st *sessionStore) Adjust(id string, adj bunk.Adjustment) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[id]
	if !ok {
		return false
	}
	e.adjustments[adj.CourseCode] = adj
	return true
}

func (st *sessionStore) Adjustments(id string) map[string]bunk.Adjustment {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[id]
	if !ok {
		return nil
	}
	out := make(map[string]bunk.Adjustment, len(e.adjustments))
	for k, v := range e.adjustments {
		out[k] = v
	}
	return out
}

func (st *sessionStore) ClearAdjustments(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok := st.entries[id]; ok {
		e.adjustments = make(map[string]bunk.Adjustment)
	}
}

func (st *sessionStore) Delete(id string) {
	st.mu.Lock()
	e, ok := st.entries[id]
	delete(st.entries, id)
	st.mu.Unlock()
	if ok {
		e.session.Close()
	}
}

// Sweep drops entries idle past the TTL and closes their portal sessions.
func (st *sessionStore) Sweep(now time.Time) int {
	var stale []*storeEntry
	st.mu.Lock()
	for id, e := range st.entries {
		if now.Sub(e.lastSeen) > st.ttl {
			stale = append(stale, e)
			delete(st.entries, id)
		}
	}
	st.mu.Unlock()

	for _, e := range stale {
		e.session.Close()
	}
	return len(stale)
}
