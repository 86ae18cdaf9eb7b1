package workflow

import (
	"context"
	"sync"
	"time"
)

// Sessions holds in-flight dialogs keyed by uid. Idle sessions are never
// stored.
type Sessions struct {
	mu    sync.Mutex
	items map[string]Session
}

func NewSessions() *Sessions {
	return &Sessions{items: make(map[string]Session)}
}

// Get returns the user's session, or an Idle one when none is stored.
func (s *Sessions) Get(uid string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[uid]
}

// Put stores sess, or drops the entry when sess is Idle.
func (s *Sessions) Put(uid string, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.Stage == Idle {
		delete(s.items, uid)
		return
	}
	s.items[uid] = sess
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Expired returns the uids of sessions untouched since before now-ttl.
func (s *Sessions) Expired(now time.Time, ttl time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var uids []string
	for uid, sess := range s.items {
		if expired(sess, now, ttl) {
			uids = append(uids, uid)
		}
	}
	return uids
}

// DropExpired removes uid's session if it is still expired and reports
// whether it did.
func (s *Sessions) DropExpired(uid string, now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[uid]
	if !ok || !expired(sess, now, ttl) {
		return false
	}
	delete(s.items, uid)
	return true
}

func expired(sess Session, now time.Time, ttl time.Duration) bool {
	return now.Sub(sess.Touched) > ttl
}

// keyedMutex hands out one mutex per uid. Entries are reference counted and
// removed when the last holder unlocks.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// runTicker calls fn every interval until ctx is done.
func runTicker(ctx context.Context, interval time.Duration, fn func(time.Time)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			fn(now)
		}
	}
}
