package console

import (
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/zond/overseer/host"
)

// Capability names checked against the external permission store.
const (
	CapUse             = "overseer.use"
	CapAll             = "overseer.all"
	CapGodMode         = "overseer.godmode"
	CapVanish          = "overseer.vanish"
	CapTeleport        = "overseer.teleport"
	CapInventoryViewer = "overseer.inventoryviewer"
	CapNoClip          = "overseer.noclip"
	CapSpectate        = "overseer.spectate"
	CapFeed            = "overseer.feed"
	CapMaxHealth       = "overseer.maxhealth"
	CapKick            = "overseer.kick"
	CapReports         = "overseer.reports"
	CapEntityKill      = "overseer.entitykill"
)

// Capabilities registered with the permission store at startup.
func Capabilities() []string {
	return []string{
		CapUse, CapAll, CapGodMode, CapVanish, CapTeleport,
		CapInventoryViewer, CapNoClip, CapSpectate, CapFeed,
		CapMaxHealth, CapKick, CapReports, CapEntityKill,
	}
}

// commandCaps maps each gated command to its single required capability.
// Commands absent from this table are ALLOWED by default. This fail-open
// default is deliberate, inherited behavior: navigation, refresh, settime
// and report viewing are open to everyone who can open the console at all.
// Tightening it to fail-closed would change externally observable behavior.
var commandCaps = map[CommandKind]string{
	CmdGodMode:       CapGodMode,
	CmdVanish:        CapVanish,
	CmdNoClip:        CapNoClip,
	CmdSpectate:      CapSpectate,
	CmdStopSpectate:  CapSpectate,
	CmdTeleportTo:    CapTeleport,
	CmdTeleportHere:  CapTeleport,
	CmdFeed:          CapFeed,
	CmdMaxHealth:     CapMaxHealth,
	CmdKick:          CapKick,
	CmdKillPlayer:    CapKick,
	CmdEntityKill:    CapEntityKill,
	CmdViewInventory: CapInventoryViewer,
	CmdDeleteReport:  CapReports,
}

const permCacheTTL = 5 * time.Second

// Gate answers permission questions for the console, consulting the
// external authorizer through a short-lived cache so render passes that
// check a dozen buttons per row don't hammer the store.
type Gate struct {
	authorizer host.Authorizer
	allowList  func(adminID string) bool
	cache      cache.Cache[string, bool]
}

// NewGate creates a gate. allowList answers the static console allow-list
// lookup and may be nil.
func NewGate(authorizer host.Authorizer, allowList func(adminID string) bool) *Gate {
	return &Gate{
		authorizer: authorizer,
		allowList:  allowList,
		cache:      cache.NewCache[string, bool]().WithTTL(permCacheTTL).WithMaxKeys(4096),
	}
}

func (g *Gate) has(adminID, capability string) bool {
	key := adminID + "\x00" + capability
	if granted, found := g.cache.Get(key); found {
		return granted
	}
	granted := g.authorizer.HasCapability(adminID, capability)
	g.cache.Set(key, granted, 0)
	return granted
}

// IsAllowed reports whether the admin may run the command. The "all"
// super-capability grants everything; otherwise the command's table entry
// decides, and unlisted commands are allowed (see commandCaps).
func (g *Gate) IsAllowed(adminID string, kind CommandKind) bool {
	if g.has(adminID, CapAll) {
		return true
	}
	capability, listed := commandCaps[kind]
	if !listed {
		return true
	}
	return g.has(adminID, capability)
}

// HasCapability checks one capability directly, honoring "all". Used for
// render-time decisions that aren't tied to a single command, like the
// Reports panel body.
func (g *Gate) HasCapability(adminID, capability string) bool {
	return g.has(adminID, CapAll) || g.has(adminID, capability)
}

// IsConsoleAllowed reports whether the admin may open the console at all:
// static allow-list membership, or the use or all capability.
func (g *Gate) IsConsoleAllowed(adminID string) bool {
	if g.allowList != nil && g.allowList(adminID) {
		return true
	}
	return g.has(adminID, CapUse) || g.has(adminID, CapAll)
}
