package console

import (
	"fmt"
	"log"
	"sync"

	"github.com/zond/overseer"
	"github.com/zond/overseer/host"
)

// ToggleKind names a per-admin boolean mode with a paired world side
// effect.
type ToggleKind int

const (
	GodMode ToggleKind = iota
	Vanish
	EntityKill
)

func (k ToggleKind) String() string {
	switch k {
	case GodMode:
		return "godmode"
	case Vanish:
		return "vanish"
	case EntityKill:
		return "entitykill"
	}
	return "unknown"
}

type toggleSet struct {
	godMode    bool
	vanish     bool
	entityKill bool
}

func (t *toggleSet) get(kind ToggleKind) *bool {
	switch kind {
	case GodMode:
		return &t.godMode
	case Vanish:
		return &t.vanish
	case EntityKill:
		return &t.entityKill
	}
	return nil
}

// Toggles tracks per-admin modes and keeps each stored boolean in lockstep
// with its externally observable world effect: every state flip applies or
// reverts the side effect in the same operation.
type Toggles struct {
	mu    sync.Mutex
	world host.World
	m     map[string]*toggleSet
}

func NewToggles(world host.World) *Toggles {
	return &Toggles{world: world, m: map[string]*toggleSet{}}
}

// IsOn returns the stored state of one toggle. Admins without an entry
// default to all-off.
func (t *Toggles) IsOn(adminID string, kind ToggleKind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, found := t.m[adminID]
	if !found {
		return false
	}
	return *set.get(kind)
}

// Enable turns the toggle on and applies its side effect. Enabling an
// already-on toggle is a no-op, so the effect is never double-applied.
//
// When the side effect fails the boolean keeps the attempted state: there is
// no silent rollback, re-toggling is the retry path. The failure is logged
// with admin and toggle name and returned so the invoker can be told.
func (t *Toggles) Enable(adminID string, kind ToggleKind) error {
	return t.set(adminID, kind, true)
}

// Disable turns the toggle off and reverts its side effect, with the same
// guard and failure semantics as Enable.
func (t *Toggles) Disable(adminID string, kind ToggleKind) error {
	return t.set(adminID, kind, false)
}

// Toggle flips the current state and returns the new value.
func (t *Toggles) Toggle(adminID string, kind ToggleKind) (bool, error) {
	if t.IsOn(adminID, kind) {
		return false, t.Disable(adminID, kind)
	}
	return true, t.Enable(adminID, kind)
}

func (t *Toggles) set(adminID string, kind ToggleKind, on bool) error {
	t.mu.Lock()
	set, found := t.m[adminID]
	if !found {
		set = &toggleSet{}
		t.m[adminID] = set
	}
	state := set.get(kind)
	if *state == on {
		t.mu.Unlock()
		return nil
	}
	*state = on
	t.mu.Unlock()

	if err := t.applyEffect(adminID, kind, on); err != nil {
		log.Printf("Applying %s=%t for %q: %v", kind, on, adminID, err)
		return overseer.WithStack(fmt.Errorf("applying %s=%t for %q: %w", kind, on, adminID, err))
	}
	return nil
}

func (t *Toggles) applyEffect(adminID string, kind ToggleKind, on bool) error {
	switch kind {
	case GodMode:
		return t.world.SetImmune(adminID, on)
	case Vanish:
		return t.world.SetVisible(adminID, !on)
	case EntityKill:
		return t.world.SetEntityKill(adminID, on)
	}
	return fmt.Errorf("unknown toggle kind %d", kind)
}

// DisconnectCleanup reverts every active toggle for the admin and removes
// the entry. This must run before the session entry is destroyed: it is the
// only thing preventing a disconnected admin's invisibility or immunity
// from persisting with no owner left to revert it.
func (t *Toggles) DisconnectCleanup(adminID string) {
	for _, kind := range []ToggleKind{GodMode, Vanish, EntityKill} {
		if t.IsOn(adminID, kind) {
			if err := t.Disable(adminID, kind); err != nil {
				log.Printf("Disconnect cleanup of %s for %q: %v", kind, adminID, err)
			}
		}
	}
	t.mu.Lock()
	delete(t.m, adminID)
	t.mu.Unlock()
}

// Shutdown runs disconnect cleanup for every tracked admin. Called at
// module unload so no world effect outlives the console.
func (t *Toggles) Shutdown() {
	t.mu.Lock()
	ids := make([]string, 0, len(t.m))
	for id := range t.m {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	for _, id := range ids {
		t.DisconnectCleanup(id)
	}
}
