package console

import (
	"fmt"
	"sort"
	"time"

	"github.com/gertd/go-pluralize"
	"github.com/zond/overseer/config"
	"github.com/zond/overseer/host"
	"github.com/zond/overseer/reports"
	"github.com/zond/overseer/ui"
)

const (
	PlayersPerPage = 10
	ReportsPerPage = 15
)

// Stable subtree identifiers. The dispatcher and scheduler patch these by
// name instead of re-rendering the whole console.
const (
	RootID       = "console"
	SidebarID    = "sidebar"
	ContentID    = "content"
	TopBarID     = "topbar"
	StatsRowID   = "stats_row"
	GodModeBtnID = "btn_godmode"
	VanishBtnID  = "btn_vanish"
	EntityBtnID  = "btn_entitykill"
)

// View builds the console's declarative element trees and hands them to the
// renderer. It reads, never mutates, everything except the pagination
// cursors, which it clamps back into range at render time.
type View struct {
	theme    config.Theme
	sessions *Sessions
	toggles  *Toggles
	gate     *Gate
	store    *reports.Store
	world    host.World
	renderer ui.Renderer
	plural   *pluralize.Client
}

func NewView(theme config.Theme, sessions *Sessions, toggles *Toggles, gate *Gate, store *reports.Store, world host.World, renderer ui.Renderer) *View {
	return &View{
		theme:    theme,
		sessions: sessions,
		toggles:  toggles,
		gate:     gate,
		store:    store,
		world:    world,
		renderer: renderer,
		plural:   pluralize.NewClient(),
	}
}

// Render draws the full console for one admin, based on their session.
func (v *View) Render(adminID string) {
	sess, found := v.sessions.Get(adminID)
	if !found || !sess.Open {
		return
	}
	v.renderer.Render(adminID, v.buildRoot(sess))
}

// Close tears the console down for one admin.
func (v *View) Close(adminID string) {
	v.renderer.Destroy(adminID, RootID)
}

func (v *View) buildRoot(sess Session) *ui.Element {
	root := ui.NewPanel(RootID)
	root.Color = v.theme.BackgroundColor
	root.Add(v.buildSidebar(sess))

	content := ui.NewPanel(ContentID)
	content.Color = v.theme.PanelColor
	content.Add(v.buildTopBar())
	switch sess.Panel {
	case Dashboard:
		content.Add(v.buildDashboard(sess)...)
	case Players:
		content.Add(v.buildPlayers(sess)...)
	case Reports:
		content.Add(v.buildReports(sess)...)
	}
	root.Add(content)
	root.Add(ui.NewButton("btn_close", "✕", v.theme.DangerColor, "close", ""))
	return root
}

func (v *View) buildSidebar(sess Session) *ui.Element {
	sidebar := ui.NewPanel(SidebarID)
	sidebar.Add(ui.NewLabel("sidebar_title", "OVERSEER", v.theme.TextColor))
	for _, panel := range []Panel{Dashboard, Players, Reports} {
		color := v.theme.SubtitleColor
		if sess.Panel == panel {
			color = v.theme.PrimaryColor
		}
		name := panel.String()
		sidebar.Add(ui.NewButton("nav_"+name, name, color, "switchpanel", name))
	}
	return sidebar
}

func (v *View) buildTopBar() *ui.Element {
	bar := ui.NewPanel(TopBarID)
	m := v.world.Metrics()
	text := "Loading server stats... | " + time.Now().Format("15:04:05")
	if m.Ready {
		text = fmt.Sprintf("TPS: %.1f | Players: %d/%d | %s",
			m.TickRate, m.Online, m.MaxPlayers, time.Now().Format("15:04:05"))
	}
	bar.Add(ui.NewLabel("topbar_text", text, v.theme.SubtitleColor))
	return bar
}

func (v *View) buildDashboard(sess Session) []*ui.Element {
	result := []*ui.Element{
		ui.NewLabel("title", "Dashboard", v.theme.TextColor),
		ui.NewLabel("subtitle", "Server administration tools", v.theme.SubtitleColor),
		v.buildStatsRow(),
	}

	movement := ui.NewPanel("group_movement",
		ui.NewLabel("group_movement_title", "Movement Controls", v.theme.TextColor),
		v.commandButton(sess.AdminID, "btn_noclip", "NoClip", "noclip", ""),
		v.commandButton(sess.AdminID, "btn_spectate", "Spectate", "spectate", ""),
		v.commandButton(sess.AdminID, "btn_stopspectate", "Stop Spectate", "stopspectate", ""),
	)

	protection := ui.NewPanel("group_protection",
		ui.NewLabel("group_protection_title", "Protection Controls", v.theme.TextColor),
		v.toggleButton(sess.AdminID, GodMode),
		v.toggleButton(sess.AdminID, Vanish),
		v.commandButton(sess.AdminID, "btn_maxhealth", "Max Health", "maxhealth", ""),
		v.commandButton(sess.AdminID, "btn_feed", "Feed", "feed", sess.AdminID),
	)

	administration := ui.NewPanel("group_admin",
		ui.NewLabel("group_admin_title", "Administration", v.theme.TextColor),
		v.toggleButton(sess.AdminID, EntityKill),
	)

	times := ui.NewPanel("group_time",
		ui.NewLabel("group_time_title", "Time Controls", v.theme.TextColor),
		v.commandButton(sess.AdminID, "btn_settime_day", "Set Day", "settime", "12"),
		v.commandButton(sess.AdminID, "btn_settime_night", "Set Night", "settime", "0"),
		v.commandButton(sess.AdminID, "btn_settime_dawn", "Set Dawn", "settime", "6"),
		v.commandButton(sess.AdminID, "btn_settime_dusk", "Set Dusk", "settime", "18"),
	)

	return append(result, movement, protection, administration, times)
}

func (v *View) buildStatsRow() *ui.Element {
	row := ui.NewPanel(StatsRowID)
	m := v.world.Metrics()
	values := []string{"Loading...", "Loading...", "Loading...", "Loading..."}
	if m.Ready {
		values = []string{
			fmt.Sprintf("%d", m.Online),
			fmt.Sprintf("%.1f", m.TickRate),
			fmt.Sprintf("%d", m.Entities),
			fmt.Sprintf("%02.0f:00", m.WorldHour),
		}
	}
	titles := []string{"PLAYERS ONLINE", "TICK RATE", "ENTITIES", "SERVER TIME"}
	for i, title := range titles {
		card := ui.NewPanel(fmt.Sprintf("stats_card_%d", i),
			ui.NewLabel(fmt.Sprintf("stats_title_%d", i), title, v.theme.SubtitleColor),
			ui.NewLabel(fmt.Sprintf("stats_value_%d", i), values[i], v.theme.TextColor),
		)
		card.Color = v.theme.PanelColor
		row.Add(card)
	}
	return row
}

// toggleButton renders the on/off state in both the caption and the color,
// so a partial update of just this subtree is enough after a toggle flips.
func (v *View) toggleButton(adminID string, kind ToggleKind) *ui.Element {
	var id, caption string
	activeColor := v.theme.SuccessColor
	switch kind {
	case GodMode:
		id, caption = GodModeBtnID, "God Mode"
	case Vanish:
		id, caption = VanishBtnID, "Vanish"
	case EntityKill:
		id, caption = EntityBtnID, "Entity Kill"
		activeColor = v.theme.WarningColor
	}
	if !v.gate.IsAllowed(adminID, commandForToggle(kind)) {
		return ui.NewButton(id, caption+" (No Permission)", v.theme.DisabledColor, "", "").Disable()
	}
	if v.toggles.IsOn(adminID, kind) {
		return ui.NewButton(id, caption+" (ON)", activeColor, kind.String(), "")
	}
	return ui.NewButton(id, caption+" (OFF)", v.theme.SecondaryColor, kind.String(), "")
}

func commandForToggle(kind ToggleKind) CommandKind {
	switch kind {
	case GodMode:
		return CmdGodMode
	case Vanish:
		return CmdVanish
	default:
		return CmdEntityKill
	}
}

func (v *View) commandButton(adminID, id, caption, command, arg string) *ui.Element {
	kind := commandNames[command]
	if !v.gate.IsAllowed(adminID, kind) {
		return ui.NewButton(id, caption+" (No Permission)", v.theme.DisabledColor, "", "").Disable()
	}
	return ui.NewButton(id, caption, v.theme.SecondaryColor, command, arg)
}

func (v *View) buildPlayers(sess Session) []*ui.Element {
	players := v.world.Players()
	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })

	total := len(players)
	totalPages := (total + PlayersPerPage - 1) / PlayersPerPage
	if totalPages < 1 {
		totalPages = 1
	}
	page := sess.PlayerPage
	if page >= totalPages {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}
	if page != sess.PlayerPage {
		v.sessions.Update(sess.AdminID, func(s *Session) { s.PlayerPage = page })
	}

	list := ui.NewPanel("player_list",
		ui.NewLabel("player_list_header", "Player Name | ID | Ping | Actions", v.theme.SubtitleColor),
	)
	start := page * PlayersPerPage
	for i := 0; i < PlayersPerPage && start+i < total; i++ {
		p := players[start+i]
		row := ui.NewPanel(fmt.Sprintf("player_row_%d", i),
			ui.NewLabel(fmt.Sprintf("player_name_%d", i), Truncate(p.Name, 15), v.theme.TextColor),
			ui.NewLabel(fmt.Sprintf("player_id_%d", i), p.ID, v.theme.SubtitleColor),
			ui.NewLabel(fmt.Sprintf("player_ping_%d", i), fmt.Sprintf("%d ms", p.Ping), v.theme.SubtitleColor),
			v.commandButton(sess.AdminID, fmt.Sprintf("player_tpto_%d", i), "T2P", "tpto", p.ID),
			v.commandButton(sess.AdminID, fmt.Sprintf("player_tphere_%d", i), "T2M", "tphere", p.ID),
			v.commandButton(sess.AdminID, fmt.Sprintf("player_inv_%d", i), "Inv", "viewinv", p.ID),
			v.commandButton(sess.AdminID, fmt.Sprintf("player_kick_%d", i), "Kick", "kickplayer", p.ID),
			v.commandButton(sess.AdminID, fmt.Sprintf("player_feed_%d", i), "Feed", "feed", p.ID),
		)
		list.Add(row)
	}

	caption := fmt.Sprintf("Page %d of %d (%d %s)",
		page+1, totalPages, total, v.plural.Pluralize("player", total, false))
	pagination := ui.NewPanel("player_pagination",
		ui.NewLabel("player_page_caption", caption, v.theme.SubtitleColor),
	)
	if page > 0 {
		pagination.Add(ui.NewButton("player_prev", "◄ Previous", v.theme.PrimaryColor, "prevpage", ""))
	}
	if page < totalPages-1 {
		pagination.Add(ui.NewButton("player_next", "Next ►", v.theme.PrimaryColor, "nextpage", ""))
	}

	return []*ui.Element{
		ui.NewLabel("title", "Player Management", v.theme.TextColor),
		ui.NewButton("player_refresh", "⟳", v.theme.SuccessColor, "refreshplayers", ""),
		list,
		pagination,
	}
}

func (v *View) buildReports(sess Session) []*ui.Element {
	title := ui.NewLabel("title", "Player Reports", v.theme.TextColor)
	if !v.gate.HasCapability(sess.AdminID, CapReports) {
		return []*ui.Element{
			title,
			ui.NewLabel("reports_denied", "You don't have permission to view player reports", v.theme.DangerColor),
		}
	}

	page := v.store.ListPage(sess.ReportPage, ReportsPerPage)
	if page.Index != sess.ReportPage {
		v.sessions.Update(sess.AdminID, func(s *Session) { s.ReportPage = page.Index })
	}

	list := ui.NewPanel("report_list",
		ui.NewLabel("report_list_header", "ID | Time | Reporter | Target | Type | Subject | Actions", v.theme.SubtitleColor),
	)
	if page.Total == 0 {
		list.Add(ui.NewLabel("reports_empty",
			"No player reports found\nReports will appear here when players report issues",
			v.theme.SubtitleColor))
	}
	for i, r := range page.Items {
		row := ui.NewPanel(fmt.Sprintf("report_row_%d", i),
			ui.NewLabel(fmt.Sprintf("report_id_%d", i), fmt.Sprintf("%d", r.ID), v.theme.TextColor),
			ui.NewLabel(fmt.Sprintf("report_time_%d", i), r.Timestamp.Format("15:04 02/01"), v.theme.TextColor),
			ui.NewLabel(fmt.Sprintf("report_reporter_%d", i), Truncate(r.Reporter, 15), v.theme.TextColor),
			ui.NewLabel(fmt.Sprintf("report_target_%d", i), Truncate(r.TargetName, 15), v.theme.TextColor),
			ui.NewLabel(fmt.Sprintf("report_type_%d", i), r.Category, v.theme.TextColor),
			ui.NewLabel(fmt.Sprintf("report_subject_%d", i), Truncate(r.Subject, 25), v.theme.TextColor),
			ui.NewButton(fmt.Sprintf("report_view_%d", i), "View", v.theme.SecondaryColor, "viewreport", fmt.Sprintf("%d", r.ID)),
			v.commandButton(sess.AdminID, fmt.Sprintf("report_delete_%d", i), "Delete", "deletereport", fmt.Sprintf("%d", r.ID)),
		)
		list.Add(row)
	}

	caption := fmt.Sprintf("Page %d of %d (%d %s)",
		page.Index+1, page.TotalPages, page.Total, v.plural.Pluralize("report", page.Total, false))
	pagination := ui.NewPanel("report_pagination",
		ui.NewLabel("report_page_caption", caption, v.theme.SubtitleColor),
	)
	if page.Index > 0 {
		pagination.Add(ui.NewButton("report_prev", "◄ Previous", v.theme.PrimaryColor, "prevreportspage", ""))
	}
	if page.Index < page.TotalPages-1 {
		pagination.Add(ui.NewButton("report_next", "Next ►", v.theme.PrimaryColor, "nextreportspage", ""))
	}

	return []*ui.Element{
		title,
		ui.NewButton("report_refresh", "⟳ Refresh", v.theme.SuccessColor, "refreshreports", ""),
		list,
		pagination,
	}
}

// PatchToggleButton replaces just the toggle's button subtree.
func (v *View) PatchToggleButton(adminID string, kind ToggleKind) {
	btn := v.toggleButton(adminID, kind)
	v.renderer.Patch(adminID, btn.ID, btn)
}

// PatchStats replaces the stats row and top bar without rebuilding the rest
// of the view. Used by the refresh scheduler on every tick.
func (v *View) PatchStats(adminID string) {
	v.renderer.Patch(adminID, StatsRowID, v.buildStatsRow())
	v.renderer.Patch(adminID, TopBarID, v.buildTopBar())
}

// Truncate shortens s to at most max runes, appending an ellipsis marker.
// Empty strings render as Unknown so list rows keep their shape.
func Truncate(s string, max int) string {
	if s == "" {
		return "Unknown"
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
