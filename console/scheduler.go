package console

import (
	"sync"
	"time"
)

const defaultRefreshInterval = 3 * time.Second

// Scheduler drives the dashboard's live metrics refresh. At most one timer
// runs per admin; starting the dashboard again replaces the old timer
// instead of stacking a second one.
//
// Ticks capture only the admin ID, never a live session handle. Every tick
// re-resolves the session and self-cancels when the admin disconnected,
// closed the console, or navigated away. That guard is the cancellation
// mechanism; there is no token.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	sessions *Sessions
	view     *View
	running  map[string]chan struct{}
}

func NewScheduler(sessions *Sessions, view *View) *Scheduler {
	return &Scheduler{
		interval: defaultRefreshInterval,
		sessions: sessions,
		view:     view,
		running:  map[string]chan struct{}{},
	}
}

// StartDashboard (re)starts the refresh timer for one admin.
func (s *Scheduler) StartDashboard(adminID string) {
	stop := make(chan struct{})
	s.mu.Lock()
	if old, found := s.running[adminID]; found {
		close(old)
	}
	s.running[adminID] = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				sess, found := s.sessions.Get(adminID)
				if !found || !sess.Open || sess.Panel != Dashboard {
					s.stopIf(adminID, stop)
					return
				}
				s.view.PatchStats(adminID)
			}
		}
	}()
}

// Stop cancels the admin's timer, if any.
func (s *Scheduler) Stop(adminID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, found := s.running[adminID]; found {
		close(stop)
		delete(s.running, adminID)
	}
}

// StopAll cancels every timer. Called at module shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for adminID, stop := range s.running {
		close(stop)
		delete(s.running, adminID)
	}
}

// stopIf removes the registry entry only if it still belongs to this timer,
// so a self-cancelling tick never tears down a replacement timer.
func (s *Scheduler) stopIf(adminID string, stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, found := s.running[adminID]; found && current == stop {
		delete(s.running, adminID)
	}
}

// setInterval is used by tests to speed up ticks.
func (s *Scheduler) setInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}
