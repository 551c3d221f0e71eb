// Package host declares the slice of the surrounding host process the
// console is allowed to touch. The console never reaches into the host
// directly; everything external arrives through these interfaces.
package host

// Player describes a connected user as the console sees it.
type Player struct {
	ID   string
	Name string
	Ping int
}

// Metrics is a point-in-time sample of live host state for the dashboard.
// Ready is false while the host is still warming up after start; consumers
// render placeholders until it flips.
type Metrics struct {
	Online     int
	MaxPlayers int
	TickRate   float64
	Entities   int
	WorldHour  float64
	Ready      bool
}

// World is the host's entity and world API.
type World interface {
	Players() []Player
	FindPlayer(id string) (Player, bool)

	// Message delivers a chat line to one player.
	Message(id, text string) error

	TeleportTo(adminID, targetID string) error
	TeleportHere(adminID, targetID string) error
	Feed(targetID string) error
	MaxHealth(targetID string) error
	Kick(targetID, reason string) error
	Kill(targetID string) error

	// SetVisible includes or excludes a player from other clients'
	// visibility set. SetImmune toggles damage immunity. SetEntityKill
	// arms or disarms the entity-kill input mode for a player.
	SetVisible(id string, visible bool) error
	SetImmune(id string, immune bool) error
	SetEntityKill(id string, enabled bool) error

	SetHour(hour float64) error

	// RunClientCommand issues a raw client-side command to a player.
	RunClientCommand(id, command string) error

	Metrics() Metrics
}

// Authorizer answers capability checks against the external permission
// store.
type Authorizer interface {
	HasCapability(adminID, capability string) bool
}

// InventoryViewer is the optional external inventory plugin. View returns
// false when the plugin declined the request; the console then falls back
// to a raw client-side view command.
type InventoryViewer interface {
	View(adminID, targetID string) bool
}
