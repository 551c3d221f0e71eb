package console

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/zond/overseer/config"
	"github.com/zond/overseer/host"
	"github.com/zond/overseer/reports"
	"github.com/zond/overseer/ui"
)

// fakeWorld records every side effect the console asks for, so tests can
// assert on externally observable behavior.
type fakeWorld struct {
	mu       sync.Mutex
	players  []host.Player
	messages map[string][]string
	immune   map[string]bool
	visible  map[string]bool
	entity   map[string]bool
	commands map[string][]string
	hour     float64
	ready    bool
	failNext error
}

func newFakeWorld(players ...host.Player) *fakeWorld {
	return &fakeWorld{
		players:  players,
		messages: map[string][]string{},
		immune:   map[string]bool{},
		visible:  map[string]bool{},
		entity:   map[string]bool{},
		commands: map[string][]string{},
		ready:    true,
	}
}

func (w *fakeWorld) takeFailure() error {
	err := w.failNext
	w.failNext = nil
	return err
}

func (w *fakeWorld) Players() []host.Player {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]host.Player(nil), w.players...)
}

func (w *fakeWorld) FindPlayer(id string) (host.Player, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.players {
		if p.ID == id {
			return p, true
		}
	}
	return host.Player{}, false
}

func (w *fakeWorld) Message(id, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages[id] = append(w.messages[id], text)
	return nil
}

func (w *fakeWorld) messagesFor(id string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.messages[id]...)
}

func (w *fakeWorld) TeleportTo(adminID, targetID string) error   { return w.takeFailure() }
func (w *fakeWorld) TeleportHere(adminID, targetID string) error { return w.takeFailure() }
func (w *fakeWorld) Feed(targetID string) error                  { return w.takeFailure() }
func (w *fakeWorld) MaxHealth(targetID string) error             { return w.takeFailure() }
func (w *fakeWorld) Kick(targetID, reason string) error          { return w.takeFailure() }
func (w *fakeWorld) Kill(targetID string) error                  { return w.takeFailure() }

func (w *fakeWorld) SetVisible(id string, visible bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failNext != nil {
		err := w.failNext
		w.failNext = nil
		return err
	}
	w.visible[id] = visible
	return nil
}

func (w *fakeWorld) SetImmune(id string, immune bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failNext != nil {
		err := w.failNext
		w.failNext = nil
		return err
	}
	w.immune[id] = immune
	return nil
}

func (w *fakeWorld) SetEntityKill(id string, enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entity[id] = enabled
	return nil
}

func (w *fakeWorld) SetHour(hour float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hour = hour
	return nil
}

func (w *fakeWorld) RunClientCommand(id, command string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.commands[id] = append(w.commands[id], command)
	return nil
}

func (w *fakeWorld) Metrics() host.Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return host.Metrics{
		Online:     len(w.players),
		MaxPlayers: 100,
		TickRate:   30,
		Entities:   10,
		WorldHour:  w.hour,
		Ready:      w.ready,
	}
}

type renderCall struct {
	op      string
	adminID string
	id      string
	tree    *ui.Element
}

// fakeRenderer records Render/Patch/Destroy calls in order.
type fakeRenderer struct {
	mu    sync.Mutex
	calls []renderCall
}

func (r *fakeRenderer) Render(adminID string, root *ui.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, renderCall{op: "render", adminID: adminID, id: root.ID, tree: root})
}

func (r *fakeRenderer) Patch(adminID, subtreeID string, subtree *ui.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, renderCall{op: "patch", adminID: adminID, id: subtreeID, tree: subtree})
}

func (r *fakeRenderer) Destroy(adminID, rootID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, renderCall{op: "destroy", adminID: adminID, id: rootID})
}

func (r *fakeRenderer) snapshot() []renderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]renderCall(nil), r.calls...)
}

func (r *fakeRenderer) count(op string) int {
	n := 0
	for _, c := range r.snapshot() {
		if c.op == op {
			n++
		}
	}
	return n
}

func (r *fakeRenderer) lastTree() *ui.Element {
	calls := r.snapshot()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].op == "render" {
			return calls[i].tree
		}
	}
	return nil
}

// fakeAuthorizer grants exactly the capabilities in its map.
type fakeAuthorizer struct {
	grants map[string]bool
}

func (a *fakeAuthorizer) HasCapability(adminID, capability string) bool {
	return a.grants[adminID+":"+capability]
}

type fixture struct {
	world      *fakeWorld
	renderer   *fakeRenderer
	authorizer *fakeAuthorizer
	sessions   *Sessions
	toggles    *Toggles
	gate       *Gate
	store      *reports.Store
	view       *View
	scheduler  *Scheduler
	dispatcher *Dispatcher
}

// withFixture builds a fully wired console around fakes and runs f.
// Deferred dispatcher work runs inline so tests never sleep.
func withFixture(t *testing.T, players []host.Player, grants map[string]bool, f func(*fixture)) {
	t.Helper()
	world := newFakeWorld(players...)
	renderer := &fakeRenderer{}
	authorizer := &fakeAuthorizer{grants: grants}
	sessions := NewSessions()
	toggles := NewToggles(world)
	gate := NewGate(authorizer, nil)
	store := reports.NewStore(nil, nil)
	view := NewView(config.DefaultTheme(), sessions, toggles, gate, store, world, renderer)
	scheduler := NewScheduler(sessions, view)
	dispatcher := NewDispatcher(sessions, toggles, gate, store, world, view, scheduler, nil)
	dispatcher.deferFunc = func(_ time.Duration, callback func()) {
		callback()
	}
	defer scheduler.StopAll()
	f(&fixture{
		world:      world,
		renderer:   renderer,
		authorizer: authorizer,
		sessions:   sessions,
		toggles:    toggles,
		gate:       gate,
		store:      store,
		view:       view,
		scheduler:  scheduler,
		dispatcher: dispatcher,
	})
}

// grantAll gives one admin every capability.
func grantAll(adminID string) map[string]bool {
	grants := map[string]bool{}
	for _, capability := range Capabilities() {
		grants[adminID+":"+capability] = true
	}
	return grants
}

// openConsole connects the admin and opens their console.
func openConsole(fix *fixture, adminID string) {
	fix.dispatcher.Connect(adminID)
	fix.dispatcher.ToggleConsole(adminID)
}

// testPlayers builds n players with predictable names and IDs.
func testPlayers(n int) []host.Player {
	result := make([]host.Player, 0, n)
	for i := 0; i < n; i++ {
		result = append(result, host.Player{
			ID:   fmt.Sprintf("id%02d", i),
			Name: fmt.Sprintf("player%02d", i),
			Ping: 10 * i,
		})
	}
	return result
}
