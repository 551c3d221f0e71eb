package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/buildkite/shellwords"
	"github.com/zond/overseer"
)

// CommandKind is the closed set of console commands. Button presses arrive
// as (name, argString) pairs and are decoded here once, at the boundary, so
// the permission table and the handler set stay exhaustive.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdSwitchPanel
	CmdPrevPlayerPage
	CmdNextPlayerPage
	CmdPrevReportPage
	CmdNextReportPage
	CmdRefreshPlayers
	CmdRefreshReports
	CmdGodMode
	CmdVanish
	CmdEntityKill
	CmdNoClip
	CmdSpectate
	CmdStopSpectate
	CmdTeleportTo
	CmdTeleportHere
	CmdFeed
	CmdMaxHealth
	CmdKick
	CmdKillPlayer
	CmdViewInventory
	CmdViewReport
	CmdDeleteReport
	CmdSetTime
	CmdClose
)

var commandNames = map[string]CommandKind{
	"switchpanel":     CmdSwitchPanel,
	"prevpage":        CmdPrevPlayerPage,
	"nextpage":        CmdNextPlayerPage,
	"prevreportspage": CmdPrevReportPage,
	"nextreportspage": CmdNextReportPage,
	"refreshplayers":  CmdRefreshPlayers,
	"refreshreports":  CmdRefreshReports,
	"godmode":         CmdGodMode,
	"vanish":          CmdVanish,
	"entitykill":      CmdEntityKill,
	"noclip":          CmdNoClip,
	"spectate":        CmdSpectate,
	"stopspectate":    CmdStopSpectate,
	"tpto":            CmdTeleportTo,
	"tphere":          CmdTeleportHere,
	"feed":            CmdFeed,
	"maxhealth":       CmdMaxHealth,
	"kickplayer":      CmdKick,
	"killplayer":      CmdKillPlayer,
	"viewinv":         CmdViewInventory,
	"viewreport":      CmdViewReport,
	"deletereport":    CmdDeleteReport,
	"settime":         CmdSetTime,
	"close":           CmdClose,
}

func (k CommandKind) String() string {
	for name, kind := range commandNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// Command is a decoded console command with its typed payload.
type Command struct {
	Kind     CommandKind
	Name     string
	Panel    Panel
	TargetID string
	ReportID uint64
	Hour     float64
}

// ParseCommand decodes one (name, argString) invocation from the widget
// layer. An unrecognized name or a malformed payload is an error; the
// dispatcher reports those as defects rather than dropping them silently.
func ParseCommand(name, arg string) (Command, error) {
	kind, found := commandNames[name]
	if !found {
		return Command{Name: name}, overseer.WithStack(fmt.Errorf("unknown command %q", name))
	}
	cmd := Command{Kind: kind, Name: name}
	switch kind {
	case CmdSwitchPanel:
		panel, ok := ParsePanel(strings.TrimSpace(arg))
		if !ok {
			return cmd, overseer.WithStack(fmt.Errorf("switchpanel: unknown panel %q", arg))
		}
		cmd.Panel = panel
	case CmdTeleportTo, CmdTeleportHere, CmdFeed, CmdKick, CmdKillPlayer, CmdViewInventory:
		parts, err := shellwords.SplitPosix(strings.TrimSpace(arg))
		if err != nil || len(parts) != 1 || parts[0] == "" {
			return cmd, overseer.WithStack(fmt.Errorf("%s: want one target ID, got %q", name, arg))
		}
		cmd.TargetID = parts[0]
	case CmdViewReport, CmdDeleteReport:
		id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return cmd, overseer.WithStack(fmt.Errorf("%s: bad report ID %q", name, arg))
		}
		cmd.ReportID = id
	case CmdSetTime:
		hour, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return cmd, overseer.WithStack(fmt.Errorf("settime: bad hour %q", arg))
		}
		cmd.Hour = hour
	}
	return cmd, nil
}
