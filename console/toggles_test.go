package console

import (
	"testing"

	"github.com/pkg/errors"
)

func TestToggleEnableIsIdempotent(t *testing.T) {
	world := newFakeWorld()
	toggles := NewToggles(world)

	if err := toggles.Enable("admin", GodMode); err != nil {
		t.Fatal(err)
	}
	if !toggles.IsOn("admin", GodMode) {
		t.Error("GodMode should be on after Enable")
	}
	if !world.immune["admin"] {
		t.Error("immunity should be applied")
	}

	// Re-enabling must not re-apply the effect.
	world.immune["admin"] = false
	if err := toggles.Enable("admin", GodMode); err != nil {
		t.Fatal(err)
	}
	if world.immune["admin"] {
		t.Error("second Enable should be a no-op, effect was re-applied")
	}
}

func TestToggleFlip(t *testing.T) {
	world := newFakeWorld()
	toggles := NewToggles(world)

	on, err := toggles.Toggle("admin", Vanish)
	if err != nil {
		t.Fatal(err)
	}
	if !on {
		t.Error("first Toggle should turn vanish on")
	}
	if visible := world.visible["admin"]; visible {
		t.Error("vanish on should make the admin invisible")
	}

	on, err = toggles.Toggle("admin", Vanish)
	if err != nil {
		t.Fatal(err)
	}
	if on {
		t.Error("second Toggle should turn vanish off")
	}
	if visible := world.visible["admin"]; !visible {
		t.Error("vanish off should make the admin visible again")
	}
}

func TestToggleFailureKeepsAttemptedState(t *testing.T) {
	world := newFakeWorld()
	toggles := NewToggles(world)

	world.failNext = errors.New("world said no")
	if err := toggles.Enable("admin", GodMode); err == nil {
		t.Fatal("Enable should surface the side effect failure")
	}
	// The boolean keeps the attempted state; re-toggling is the retry.
	if !toggles.IsOn("admin", GodMode) {
		t.Error("failed Enable should keep the attempted on state")
	}
	if err := toggles.Disable("admin", GodMode); err != nil {
		t.Fatal(err)
	}
	if toggles.IsOn("admin", GodMode) {
		t.Error("Disable after failed Enable should turn the toggle off")
	}
}

func TestTogglesIndependentPerAdmin(t *testing.T) {
	world := newFakeWorld()
	toggles := NewToggles(world)

	if err := toggles.Enable("alice", GodMode); err != nil {
		t.Fatal(err)
	}
	if toggles.IsOn("bob", GodMode) {
		t.Error("alice's toggle should not leak to bob")
	}
}

func TestDisconnectCleanupRevertsActiveToggles(t *testing.T) {
	world := newFakeWorld()
	toggles := NewToggles(world)

	if err := toggles.Enable("admin", Vanish); err != nil {
		t.Fatal(err)
	}
	if err := toggles.Enable("admin", GodMode); err != nil {
		t.Fatal(err)
	}

	toggles.DisconnectCleanup("admin")

	if !world.visible["admin"] {
		t.Error("cleanup should make the admin visible again")
	}
	if world.immune["admin"] {
		t.Error("cleanup should revert immunity")
	}
	if toggles.IsOn("admin", Vanish) || toggles.IsOn("admin", GodMode) {
		t.Error("cleanup should clear stored state")
	}
}

func TestShutdownSweepsAllAdmins(t *testing.T) {
	world := newFakeWorld()
	toggles := NewToggles(world)

	if err := toggles.Enable("alice", Vanish); err != nil {
		t.Fatal(err)
	}
	if err := toggles.Enable("bob", EntityKill); err != nil {
		t.Fatal(err)
	}

	toggles.Shutdown()

	if !world.visible["alice"] {
		t.Error("alice should be visible after shutdown")
	}
	if world.entity["bob"] {
		t.Error("bob's entity kill mode should be disarmed after shutdown")
	}
}
