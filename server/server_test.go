package server

import (
	"bytes"
	"io"
	"testing"
	"time"

	"golang.org/x/term"
)

type testReadWriter struct {
	Reader io.Reader
	Writer io.Writer
}

func (rw *testReadWriter) Read(p []byte) (int, error) {
	return rw.Reader.Read(p)
}

func (rw *testReadWriter) Write(p []byte) (int, error) {
	return rw.Writer.Write(p)
}

// testPlayer creates a player whose terminal writes into a buffer.
func testPlayer(t *testing.T, id string) (*player, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	rw := &testReadWriter{Reader: &bytes.Buffer{}, Writer: buf}
	return &player{
		id:        id,
		name:      id,
		term:      term.NewTerminal(rw, ""),
		connected: time.Now(),
		visible:   true,
		health:    100,
	}, buf
}

// testServer builds a server around in-memory players, without listening.
func testServer(t *testing.T, players ...*player) *Server {
	t.Helper()
	s := &Server{
		config:  DefaultConfig(),
		players: map[string]*player{},
		hour:    12,
	}
	for _, p := range players {
		s.players[p.id] = p
	}
	return s
}

func TestSplitCommandLine(t *testing.T) {
	for _, tc := range []struct {
		line     string
		wantName string
		wantArg  string
	}{
		{"close", "close", ""},
		{"switchpanel players", "switchpanel", "players"},
		{"tpto id with spaces", "tpto", "id with spaces"},
	} {
		name, arg := splitCommandLine(tc.line)
		if name != tc.wantName || arg != tc.wantArg {
			t.Errorf("splitCommandLine(%q) = %q, %q; want %q, %q", tc.line, name, arg, tc.wantName, tc.wantArg)
		}
	}
}

func TestMessageReachesPlayer(t *testing.T) {
	p, buf := testPlayer(t, "alice")
	s := testServer(t, p)

	if err := s.Message("alice", "hello there"); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("hello there")) {
		t.Errorf("terminal output %q should contain the message", buf.Bytes())
	}

	if err := s.Message("ghost", "anyone?"); err == nil {
		t.Error("messaging an unknown player should fail")
	}
}

func TestFindPlayerByNameIsCaseInsensitive(t *testing.T) {
	p, _ := testPlayer(t, "Alice")
	s := testServer(t, p)

	if _, found := s.findPlayerByName("alice"); !found {
		t.Error("lookup should ignore case")
	}
	if _, found := s.findPlayerByName("bob"); found {
		t.Error("unknown names should not match")
	}
}

func TestVisiblePlayersExcludesVanished(t *testing.T) {
	admin, _ := testPlayer(t, "admin")
	other, _ := testPlayer(t, "other")
	s := testServer(t, admin, other)

	if err := s.SetVisible("admin", false); err != nil {
		t.Fatal(err)
	}

	for _, p := range s.visiblePlayers(other) {
		if p.id == "admin" {
			t.Error("vanished admin should be hidden from others")
		}
	}
	found := false
	for _, p := range s.visiblePlayers(admin) {
		if p.id == "admin" {
			found = true
		}
	}
	if !found {
		t.Error("vanished admin should still see themselves")
	}
}

func TestPlayersSortedByName(t *testing.T) {
	b, _ := testPlayer(t, "bob")
	a, _ := testPlayer(t, "alice")
	s := testServer(t, b, a)

	players := s.Players()
	if len(players) != 2 || players[0].Name != "alice" || players[1].Name != "bob" {
		t.Errorf("players = %v, want alice then bob", players)
	}
}

func TestSetHourValidatesRange(t *testing.T) {
	s := testServer(t)
	if err := s.SetHour(18); err != nil {
		t.Fatal(err)
	}
	if s.Metrics().WorldHour != 18 {
		t.Errorf("WorldHour = %v, want 18", s.Metrics().WorldHour)
	}
	if err := s.SetHour(24); err == nil {
		t.Error("hour 24 should be rejected")
	}
	if err := s.SetHour(-1); err == nil {
		t.Error("negative hours should be rejected")
	}
}

func TestMetricsWarmup(t *testing.T) {
	s := testServer(t)
	if s.Metrics().Ready {
		t.Error("metrics should not be ready before start")
	}
	s.started = time.Now().Add(-statsWarmup - time.Second)
	if !s.Metrics().Ready {
		t.Error("metrics should be ready after the warm-up window")
	}
}

func TestFeedAndMaxHealth(t *testing.T) {
	p, buf := testPlayer(t, "alice")
	p.health = 40
	s := testServer(t, p)

	if err := s.Feed("alice"); err != nil {
		t.Fatal(err)
	}
	if p.calories != 500 || p.hydration != 250 {
		t.Errorf("calories=%v hydration=%v after feed", p.calories, p.hydration)
	}

	if err := s.MaxHealth("alice"); err != nil {
		t.Fatal(err)
	}
	if p.health != 100 {
		t.Errorf("health = %v after maxhealth, want 100", p.health)
	}
	if !bytes.Contains(buf.Bytes(), []byte("well fed")) {
		t.Error("feed should tell the player")
	}
}

func TestTeleportMovesPositions(t *testing.T) {
	admin, _ := testPlayer(t, "admin")
	target, buf := testPlayer(t, "target")
	target.pos = position{x: 10, y: 20, z: 30}
	s := testServer(t, admin, target)

	if err := s.TeleportTo("admin", "target"); err != nil {
		t.Fatal(err)
	}
	if admin.pos != target.pos {
		t.Errorf("admin pos = %v, want %v", admin.pos, target.pos)
	}

	admin.pos = position{x: 1, y: 2, z: 3}
	if err := s.TeleportHere("admin", "target"); err != nil {
		t.Fatal(err)
	}
	if target.pos != admin.pos {
		t.Errorf("target pos = %v, want %v", target.pos, admin.pos)
	}
	if !bytes.Contains(buf.Bytes(), []byte("You have been teleported.")) {
		t.Error("teleported player should be told")
	}
}
