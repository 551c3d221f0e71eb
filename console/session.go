// Package console is the admin session controller: per-admin navigation and
// pagination state, the permission-gated command dispatcher, the toggle
// registry, and the dashboard refresh scheduler.
package console

import "sync"

// Panel is one of the console's top-level views.
type Panel int

const (
	Dashboard Panel = iota
	Players
	Reports
)

func (p Panel) String() string {
	switch p {
	case Dashboard:
		return "dashboard"
	case Players:
		return "players"
	case Reports:
		return "reports"
	}
	return "unknown"
}

// ParsePanel maps a panel name from a button argument back to a Panel.
func ParsePanel(s string) (Panel, bool) {
	switch s {
	case "dashboard":
		return Dashboard, true
	case "players":
		return Players, true
	case "reports":
		return Reports, true
	}
	return Dashboard, false
}

// Session is one admin's console state. It exists from connect to
// disconnect and is never persisted.
type Session struct {
	AdminID    string
	Open       bool
	Panel      Panel
	PlayerPage int
	ReportPage int
}

// Sessions is the registry of per-admin console state, with an explicit
// create/destroy lifecycle tied to connect and disconnect events. Sessions
// are handed out by value; mutations go through Update so no caller holds a
// live pointer across host events.
type Sessions struct {
	mu sync.RWMutex
	m  map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{m: map[string]*Session{}}
}

// Connect creates a fresh session for adminID. Reconnecting replaces any
// stale entry with defaults: console closed, dashboard panel, both page
// cursors at zero.
func (s *Sessions) Connect(adminID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[adminID] = &Session{AdminID: adminID}
}

// Disconnect removes the session. Toggle cleanup must run first; see
// Toggles.DisconnectCleanup.
func (s *Sessions) Disconnect(adminID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, adminID)
}

// Get returns a snapshot of the session, if connected.
func (s *Sessions) Get(adminID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, found := s.m[adminID]; found {
		return *sess, true
	}
	return Session{}, false
}

// Update applies f to the live session under lock. Returns false if the
// admin is unknown, in which case f never runs.
func (s *Sessions) Update(adminID string, f func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, found := s.m[adminID]
	if !found {
		return false
	}
	f(sess)
	return true
}

// Each calls f with a snapshot of every session.
func (s *Sessions) Each(f func(Session)) {
	s.mu.RLock()
	snapshots := make([]Session, 0, len(s.m))
	for _, sess := range s.m {
		snapshots = append(snapshots, *sess)
	}
	s.mu.RUnlock()
	for _, sess := range snapshots {
		f(sess)
	}
}
