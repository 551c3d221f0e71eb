package console

import (
	"fmt"
	"log"
	"time"

	"github.com/zond/overseer/host"
	"github.com/zond/overseer/reports"
)

// deferInterval is how long deferred follow-up work (inventory hand-off,
// report fan-out) waits before firing. Deferred callbacks capture only the
// admin ID and re-validate the session when they run.
const deferInterval = 100 * time.Millisecond

// Dispatcher is the console's control-flow hub: it decodes button
// invocations from the widget layer, gates them on permissions, mutates
// session, toggle and report state, and tells the renderer what to redraw.
type Dispatcher struct {
	sessions  *Sessions
	toggles   *Toggles
	gate      *Gate
	store     *reports.Store
	world     host.World
	view      *View
	scheduler *Scheduler
	inventory host.InventoryViewer

	// deferFunc schedules deferred work; tests replace it to run inline.
	deferFunc func(d time.Duration, f func())
}

func NewDispatcher(sessions *Sessions, toggles *Toggles, gate *Gate, store *reports.Store, world host.World, view *View, scheduler *Scheduler, inventory host.InventoryViewer) *Dispatcher {
	return &Dispatcher{
		sessions:  sessions,
		toggles:   toggles,
		gate:      gate,
		store:     store,
		world:     world,
		view:      view,
		scheduler: scheduler,
		inventory: inventory,
		deferFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Connect creates console state for a newly connected admin.
func (d *Dispatcher) Connect(adminID string) {
	d.sessions.Connect(adminID)
}

// Disconnect reverts the admin's toggles, stops their refresh timer, and
// destroys their session and UI. Toggle cleanup runs first so no world
// effect survives without an owner.
func (d *Dispatcher) Disconnect(adminID string) {
	d.toggles.DisconnectCleanup(adminID)
	d.scheduler.Stop(adminID)
	d.sessions.Disconnect(adminID)
	d.view.Close(adminID)
}

// Shutdown is the module-unload sweep: every toggle reverted, every timer
// cancelled, every open console destroyed.
func (d *Dispatcher) Shutdown() {
	d.scheduler.StopAll()
	d.toggles.Shutdown()
	d.sessions.Each(func(sess Session) {
		if sess.Open {
			d.view.Close(sess.AdminID)
		}
	})
}

// ToggleConsole opens or closes the console for the invoking admin. This
// backs the chat entry command; the caller is responsible for the
// IsConsoleAllowed check so it can word the refusal.
func (d *Dispatcher) ToggleConsole(adminID string) {
	sess, found := d.sessions.Get(adminID)
	if !found {
		return
	}
	if sess.Open {
		d.sessions.Update(adminID, func(s *Session) { s.Open = false })
		d.scheduler.Stop(adminID)
		d.view.Close(adminID)
		return
	}
	d.sessions.Update(adminID, func(s *Session) { s.Open = true })
	d.view.Render(adminID)
	if sess.Panel == Dashboard {
		d.scheduler.StartDashboard(adminID)
	}
}

// NotifyReportSubmitted schedules a re-render for every admin currently
// looking at the Reports panel. The work is deferred a tick and the session
// re-validated when it fires, since the admin may have closed the console
// or disconnected in between.
func (d *Dispatcher) NotifyReportSubmitted() {
	d.sessions.Each(func(sess Session) {
		if !sess.Open || sess.Panel != Reports {
			return
		}
		adminID := sess.AdminID
		d.deferFunc(deferInterval, func() {
			if current, found := d.sessions.Get(adminID); found && current.Open && current.Panel == Reports {
				d.view.Render(adminID)
			}
		})
	})
}

// Execute runs one (commandName, argString) invocation for an admin.
//
// Unknown admins and permission failures are silent no-ops; unrecognized
// command names are logged as defects, since the widget layer should never
// emit one. Panics inside a handler are caught here so a single bad command
// cannot take down the host's event loop or another admin's session.
func (d *Dispatcher) Execute(adminID, name, arg string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic executing %q %q for %q: %v", name, arg, adminID, r)
		}
	}()

	if _, found := d.sessions.Get(adminID); !found {
		return
	}
	cmd, err := ParseCommand(name, arg)
	if err != nil {
		log.Printf("Rejected command from %q: %v", adminID, err)
		return
	}
	if !d.gate.IsAllowed(adminID, cmd.Kind) {
		return
	}

	if d.dispatch(adminID, cmd) == renderFull {
		d.view.Render(adminID)
	}
}

type outcome int

const (
	renderNone outcome = iota
	renderFull
)

func (d *Dispatcher) dispatch(adminID string, cmd Command) outcome {
	switch cmd.Kind {
	case CmdClose:
		d.sessions.Update(adminID, func(s *Session) { s.Open = false })
		d.scheduler.Stop(adminID)
		d.view.Close(adminID)
		return renderNone

	case CmdSwitchPanel:
		d.sessions.Update(adminID, func(s *Session) { s.Panel = cmd.Panel })
		if cmd.Panel == Dashboard {
			d.scheduler.StartDashboard(adminID)
		} else {
			d.scheduler.Stop(adminID)
		}
		return renderFull

	case CmdPrevPlayerPage:
		return d.stepPage(adminID, -1, false)
	case CmdNextPlayerPage:
		return d.stepPage(adminID, 1, false)
	case CmdPrevReportPage:
		return d.stepPage(adminID, -1, true)
	case CmdNextReportPage:
		return d.stepPage(adminID, 1, true)

	case CmdRefreshPlayers, CmdRefreshReports:
		return renderFull

	case CmdGodMode:
		return d.flipToggle(adminID, GodMode,
			"God Mode enabled", "God Mode disabled")
	case CmdVanish:
		return d.flipToggle(adminID, Vanish,
			"Vanish enabled - You are now invisible to other players",
			"Vanish disabled - You are now visible to other players")
	case CmdEntityKill:
		return d.flipToggle(adminID, EntityKill,
			"Entity Kill Mode ENABLED - strike to kill entities",
			"Entity Kill Mode DISABLED")

	case CmdNoClip:
		d.clientCommand(adminID, "noclip")
		return renderNone
	case CmdSpectate:
		d.clientCommand(adminID, "spectate")
		return renderNone
	case CmdStopSpectate:
		d.clientCommand(adminID, "spectate")
		d.clientCommand(adminID, "respawn")
		return renderNone

	case CmdMaxHealth:
		if err := d.world.MaxHealth(adminID); err != nil {
			log.Printf("maxhealth for %q: %v", adminID, err)
		}
		return renderNone

	case CmdTeleportTo:
		return d.targetAction(adminID, cmd.TargetID, func(target host.Player) error {
			return d.world.TeleportTo(adminID, target.ID)
		})
	case CmdTeleportHere:
		return d.targetAction(adminID, cmd.TargetID, func(target host.Player) error {
			return d.world.TeleportHere(adminID, target.ID)
		})
	case CmdFeed:
		return d.targetAction(adminID, cmd.TargetID, func(target host.Player) error {
			return d.world.Feed(target.ID)
		})
	case CmdKick:
		return d.targetAction(adminID, cmd.TargetID, func(target host.Player) error {
			return d.world.Kick(target.ID, "Kicked by admin")
		})
	case CmdKillPlayer:
		return d.targetAction(adminID, cmd.TargetID, func(target host.Player) error {
			return d.world.Kill(target.ID)
		})

	case CmdViewInventory:
		return d.viewInventory(adminID, cmd.TargetID)

	case CmdViewReport:
		d.showReportDetails(adminID, cmd.ReportID)
		return renderNone

	case CmdDeleteReport:
		if !d.store.Delete(cmd.ReportID) {
			d.message(adminID, "Report not found.")
			return renderNone
		}
		d.message(adminID, fmt.Sprintf("Deleted report #%d", cmd.ReportID))
		return renderFull

	case CmdSetTime:
		if err := d.world.SetHour(cmd.Hour); err != nil {
			log.Printf("settime %v: %v", cmd.Hour, err)
			return renderNone
		}
		return renderFull
	}
	return renderNone
}

// stepPage moves a pagination cursor one step, clamped so stepping past
// either boundary is a no-op rather than an error.
func (d *Dispatcher) stepPage(adminID string, delta int, reportList bool) outcome {
	totalPages := 1
	if reportList {
		totalPages = d.store.ListPage(0, ReportsPerPage).TotalPages
	} else {
		if total := len(d.world.Players()); total > 0 {
			totalPages = (total + PlayersPerPage - 1) / PlayersPerPage
		}
	}
	moved := false
	d.sessions.Update(adminID, func(s *Session) {
		cursor := &s.PlayerPage
		if reportList {
			cursor = &s.ReportPage
		}
		next := *cursor + delta
		if next < 0 || next >= totalPages {
			return
		}
		*cursor = next
		moved = true
	})
	if moved {
		return renderFull
	}
	return renderNone
}

func (d *Dispatcher) flipToggle(adminID string, kind ToggleKind, onText, offText string) outcome {
	on, err := d.toggles.Toggle(adminID, kind)
	if err != nil {
		// The boolean keeps the attempted state; re-toggling retries.
		d.message(adminID, fmt.Sprintf("Applying %s failed: %v", kind, err))
	}
	if on {
		d.message(adminID, onText)
	} else {
		d.message(adminID, offText)
	}
	if sess, found := d.sessions.Get(adminID); found && sess.Open {
		d.view.PatchToggleButton(adminID, kind)
	}
	return renderNone
}

func (d *Dispatcher) targetAction(adminID, targetID string, f func(host.Player) error) outcome {
	target, found := d.world.FindPlayer(targetID)
	if !found {
		d.message(adminID, "Target player not found.")
		return renderNone
	}
	if err := f(target); err != nil {
		log.Printf("Action on %q for %q: %v", targetID, adminID, err)
		d.message(adminID, fmt.Sprintf("Action failed: %v", err))
	}
	return renderNone
}

// viewInventory hands the admin over to the external inventory plugin. The
// console closes first, then the hand-off runs a tick later with the
// session re-validated, falling back to a raw client-side view command when
// the plugin declines.
func (d *Dispatcher) viewInventory(adminID, targetID string) outcome {
	target, found := d.world.FindPlayer(targetID)
	if !found {
		d.message(adminID, "Target player not found.")
		return renderNone
	}
	if d.inventory == nil {
		d.message(adminID, "InventoryViewer plugin not found or not loaded.")
		d.message(adminID, "Please install InventoryViewer plugin for this feature to work.")
		return renderNone
	}
	d.sessions.Update(adminID, func(s *Session) { s.Open = false })
	d.scheduler.Stop(adminID)
	d.view.Close(adminID)
	d.deferFunc(deferInterval, func() {
		if _, stillHere := d.sessions.Get(adminID); !stillHere {
			return
		}
		if !d.inventory.View(adminID, target.ID) {
			d.clientCommand(adminID, fmt.Sprintf("viewinv %q", target.Name))
		}
	})
	return renderNone
}

func (d *Dispatcher) showReportDetails(adminID string, reportID uint64) {
	report, found := d.store.Get(reportID)
	if !found {
		d.message(adminID, "Report not found.")
		return
	}
	d.message(adminID, fmt.Sprintf("--- Report #%d Details ---", report.ID))
	d.message(adminID, fmt.Sprintf("Reporter: %s", report.Reporter))
	d.message(adminID, fmt.Sprintf("Target: %s (ID: %s)", report.TargetName, report.TargetID))
	d.message(adminID, fmt.Sprintf("Type: %s", report.Category))
	d.message(adminID, fmt.Sprintf("Subject: %s", report.Subject))
	d.message(adminID, fmt.Sprintf("Message: %s", report.Message))
	d.message(adminID, fmt.Sprintf("Time: %s", report.Timestamp.Format("2006-01-02 15:04:05")))
	d.message(adminID, "--- End Report Details ---")
}

func (d *Dispatcher) clientCommand(adminID, command string) {
	if err := d.world.RunClientCommand(adminID, command); err != nil {
		log.Printf("Client command %q for %q: %v", command, adminID, err)
	}
}

func (d *Dispatcher) message(adminID, text string) {
	if err := d.world.Message(adminID, text); err != nil {
		log.Printf("Messaging %q: %v", adminID, err)
	}
}
