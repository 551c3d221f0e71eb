package server

import (
	"bytes"
	"testing"

	"github.com/zond/overseer/ui"
)

func TestRenderLabelsAndButtons(t *testing.T) {
	p, buf := testPlayer(t, "admin")
	s := testServer(t, p)
	r := &terminalRenderer{server: s}

	root := ui.NewPanel("console",
		ui.NewLabel("title", "Dashboard", "white"),
		ui.NewButton("btn_godmode", "God Mode (OFF)", "grey", "godmode", ""),
		ui.NewButton("btn_noclip", "NoClip (No Permission)", "grey", "", "").Disable(),
	)
	r.Render("admin", root)

	out := buf.String()
	for _, want := range []string{"Dashboard", "[godmode] God Mode (OFF)", "(NoClip (No Permission))"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderListAsTable(t *testing.T) {
	p, buf := testPlayer(t, "admin")
	s := testServer(t, p)
	r := &terminalRenderer{server: s}

	list := ui.NewPanel("player_list",
		ui.NewLabel("player_list_header", "Player Name | ID | Ping | Actions", "grey"),
		ui.NewPanel("player_row_0",
			ui.NewLabel("player_name_0", "alice", "white"),
			ui.NewLabel("player_id_0", "id00", "grey"),
			ui.NewLabel("player_ping_0", "12 ms", "grey"),
			ui.NewButton("player_kick_0", "Kick", "red", "kickplayer", "id00"),
		),
	)
	r.Render("admin", ui.NewPanel("console", list))

	out := buf.String()
	for _, want := range []string{"Player Name", "alice", "id00", "12 ms", "[kickplayer id00]"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderUnknownAdminIsSilent(t *testing.T) {
	s := testServer(t)
	r := &terminalRenderer{server: s}
	r.Render("ghost", ui.NewPanel("console"))
	r.Patch("ghost", "stats_row", ui.NewPanel("stats_row"))
	r.Destroy("ghost", "console")
}

func TestDestroyAnnouncesClose(t *testing.T) {
	p, buf := testPlayer(t, "admin")
	s := testServer(t, p)
	r := &terminalRenderer{server: s}

	r.Destroy("admin", "console")
	if !bytes.Contains(buf.Bytes(), []byte("(console closed)")) {
		t.Errorf("output = %q", buf.Bytes())
	}
}

func TestPatchNamesSubtree(t *testing.T) {
	p, buf := testPlayer(t, "admin")
	s := testServer(t, p)
	r := &terminalRenderer{server: s}

	r.Patch("admin", "stats_row", ui.NewPanel("stats_row",
		ui.NewLabel("stats_value_0", "17", "white"),
	))

	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("-- stats_row --")) || !bytes.Contains([]byte(out), []byte("17")) {
		t.Errorf("output = %q", out)
	}
}

func TestListShapeRejectsMixedChildren(t *testing.T) {
	mixed := ui.NewPanel("group_time",
		ui.NewLabel("group_time_title", "Time Controls", "white"),
		ui.NewButton("btn_settime_day", "Set Day", "grey", "settime", "12"),
	)
	if _, _, ok := listShape(mixed); ok {
		t.Error("a control group is not a list and should render linearly")
	}
}
