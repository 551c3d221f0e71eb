// Package server is the host process the console embeds into: an SSH
// server whose sessions are players, an in-process world, and a terminal
// renderer for the console's element trees.
package server

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/buildkite/shellwords"
	"github.com/gliderlabs/ssh"
	"github.com/pkg/errors"
	"github.com/rodaine/table"
	"github.com/zond/overseer"
	"github.com/zond/overseer/config"
	"github.com/zond/overseer/console"
	"github.com/zond/overseer/host"
	"github.com/zond/overseer/reports"
	"golang.org/x/term"
)

const (
	// statsWarmup is how long after start the dashboard metrics report
	// loading placeholders instead of live numbers.
	statsWarmup = 5 * time.Second
	// dayLength is how long one full 24 hour world day takes.
	dayLength = 30 * time.Minute
	// tickInterval drives the world clock and the tick rate measurement.
	tickInterval = 250 * time.Millisecond
)

type Config struct {
	SSHAddr    string
	Dir        string
	MaxPlayers int
	Hostname   string
}

func DefaultConfig() Config {
	return Config{
		SSHAddr:    "127.0.0.1:15000",
		MaxPlayers: 100,
		Hostname:   "overseer",
	}
}

type Server struct {
	config     Config
	cfg        *config.Store
	reports    *reports.Store
	sessions   *console.Sessions
	toggles    *console.Toggles
	gate       *console.Gate
	view       *console.View
	dispatcher *console.Dispatcher
	scheduler  *console.Scheduler
	authorizer *Authorizer

	mu       sync.RWMutex
	players  map[string]*player
	entities []string
	hour     float64
	tickRate float64
	started  time.Time
}

// New wires the console core into a fresh host. inventory may be nil,
// meaning the viewer plugin isn't installed and inventory requests fall
// back to the client command.
func New(cfg Config, inventory host.InventoryViewer) (*Server, error) {
	store, err := config.Load(filepath.Join(cfg.Dir, "overseer.json"))
	if err != nil {
		return nil, overseer.WithStack(err)
	}
	authorizer, err := LoadAuthorizer(filepath.Join(cfg.Dir, "permissions.json"))
	if err != nil {
		return nil, overseer.WithStack(err)
	}

	s := &Server{
		config:  cfg,
		cfg:     store,
		players: map[string]*player{},
		hour:    12,
	}
	for i := 0; i < 64; i++ {
		s.entities = append(s.entities, fmt.Sprintf("wisp.%d", i))
	}

	seed := make([]reports.Report, 0, len(store.Reports()))
	for _, r := range store.Reports() {
		seed = append(seed, reports.Report{
			ID:         r.ID,
			Reporter:   r.Reporter,
			TargetName: r.TargetName,
			TargetID:   r.TargetID,
			Category:   r.Category,
			Subject:    r.Subject,
			Message:    r.Message,
			Timestamp:  r.Timestamp,
		})
	}
	s.reports = reports.NewStore(seed, func(all []reports.Report) error {
		stored := make([]config.StoredReport, 0, len(all))
		for _, r := range all {
			stored = append(stored, config.StoredReport{
				ID:         r.ID,
				Reporter:   r.Reporter,
				TargetName: r.TargetName,
				TargetID:   r.TargetID,
				Category:   r.Category,
				Subject:    r.Subject,
				Message:    r.Message,
				Timestamp:  r.Timestamp,
			})
		}
		return store.SetReports(stored)
	})

	s.sessions = console.NewSessions()
	s.toggles = console.NewToggles(s)
	s.gate = console.NewGate(authorizer, store.IsAllowedAdmin)
	s.authorizer = authorizer
	renderer := &terminalRenderer{server: s}
	s.view = console.NewView(store.Theme(), s.sessions, s.toggles, s.gate, s.reports, s, renderer)
	s.scheduler = console.NewScheduler(s.sessions, s.view)
	s.dispatcher = console.NewDispatcher(s.sessions, s.toggles, s.gate, s.reports, s, s.view, s.scheduler, inventory)
	return s, nil
}

// Start listens for SSH connections until the listener fails. The host
// key PEM comes from the data dir, see bin/server.
func (s *Server) Start(hostKeyPEM []byte) error {
	s.started = time.Now()
	go s.tickLoop()
	log.Printf("Listening on %q", s.config.SSHAddr)
	return overseer.WithStack(ssh.ListenAndServe(s.config.SSHAddr, s.HandleSession, ssh.HostKeyPEM(hostKeyPEM)))
}

// Shutdown reverts every active toggle and tears down all open consoles.
// Run at process exit so no world effect is orphaned.
func (s *Server) Shutdown() {
	s.dispatcher.Shutdown()
}

// tickLoop advances the world clock and keeps a smoothed tick rate for
// the dashboard metrics.
func (s *Server) tickLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	last := time.Now()
	for range ticker.C {
		now := time.Now()
		elapsed := now.Sub(last)
		last = now
		s.mu.Lock()
		rate := 1 / elapsed.Seconds()
		if s.tickRate == 0 {
			s.tickRate = rate
		} else {
			s.tickRate = s.tickRate*0.9 + rate*0.1
		}
		s.hour += elapsed.Seconds() / dayLength.Seconds() * 24
		for s.hour >= 24 {
			s.hour -= 24
		}
		s.mu.Unlock()
	}
}

// HandleSession runs one player connection. The SSH username is the
// stable identity; reconnecting with the same name replaces the old
// session.
func (s *Server) HandleSession(sess ssh.Session) {
	id := sess.User()
	if id == "" {
		fmt.Fprintln(sess, "A username is required.")
		return
	}
	p := &player{
		id:        id,
		name:      id,
		sess:      sess,
		term:      term.NewTerminal(sess, "> "),
		connected: time.Now(),
		health:    100,
		calories:  250,
		hydration: 125,
		visible:   true,
	}

	s.mu.Lock()
	if len(s.players) >= s.config.MaxPlayers {
		s.mu.Unlock()
		fmt.Fprintln(sess, "Server is full.")
		return
	}
	if old, found := s.players[id]; found {
		old.sess.Close()
	}
	s.players[id] = p
	s.mu.Unlock()

	s.dispatcher.Connect(id)
	go s.pingLoop(p)

	fmt.Fprintf(p.term, "Welcome to %s, %s.\n", s.config.Hostname, p.name)
	fmt.Fprintln(p.term, "Try /who, /report, or /ap if you are an admin.")

	if err := s.process(p); err != nil && !errors.Is(err, io.EOF) {
		log.Println(err)
		log.Println(overseer.StackTrace(err))
	}

	s.dispatcher.Disconnect(id)
	s.mu.Lock()
	if s.players[id] == p {
		delete(s.players, id)
	}
	s.mu.Unlock()
}

func (s *Server) process(p *player) error {
	for {
		line, err := p.term.ReadLine()
		if err != nil {
			return overseer.WithStack(err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := s.runChatCommand(p, line)
			if err != nil {
				fmt.Fprintf(p.term, "Error: %v\n", err)
			} else if quit {
				return nil
			}
			continue
		}
		if sess, found := s.sessions.Get(p.id); found && sess.Open {
			// While the console is open, bare lines are button
			// invocations: "command [argString]".
			name, arg := splitCommandLine(line)
			s.dispatcher.Execute(p.id, name, arg)
			continue
		}
		s.broadcast(fmt.Sprintf("%s: %s", p.name, line))
	}
}

func splitCommandLine(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

type chatCommand struct {
	names map[string]bool
	f     func(s *Server, p *player, line string) (bool, error)
}

type chatCommands []chatCommand

func (c chatCommands) attempt(s *Server, p *player, name, line string) (bool, bool, error) {
	for _, cmd := range c {
		if cmd.names[name] {
			quit, err := cmd.f(s, p, line)
			return true, quit, overseer.WithStack(err)
		}
	}
	return false, false, nil
}

func m(s ...string) map[string]bool {
	res := map[string]bool{}
	for _, p := range s {
		res[p] = true
	}
	return res
}

var chatCommandTable = chatCommands{
	{
		names: m("/ap", "/adminpanel"),
		f: func(s *Server, p *player, _ string) (bool, error) {
			if !s.gate.IsConsoleAllowed(p.id) {
				fmt.Fprintln(p.term, "You don't have permission to use the admin panel.")
				return false, nil
			}
			s.dispatcher.ToggleConsole(p.id)
			return false, nil
		},
	},
	{
		names: m("/report"),
		f: func(s *Server, p *player, line string) (bool, error) {
			parts, err := shellwords.SplitPosix(line)
			if err != nil {
				return false, overseer.WithStack(err)
			}
			if len(parts) < 4 {
				fmt.Fprintln(p.term, "usage: /report <player> <category> <subject> [message]")
				return false, nil
			}
			target, found := s.findPlayerByName(parts[1])
			if !found {
				fmt.Fprintf(p.term, "No player named %q\n", parts[1])
				return false, nil
			}
			message := ""
			if len(parts) > 4 {
				message = strings.Join(parts[4:], " ")
			}
			id := s.reports.Submit(p.name, target.name, target.id, parts[2], parts[3], message)
			log.Printf("Report #%d: %s reported %s for %s - %s", id, p.name, target.name, parts[2], parts[3])
			fmt.Fprintf(p.term, "Report #%d submitted.\n", id)
			s.dispatcher.NotifyReportSubmitted()
			return false, nil
		},
	},
	{
		names: m("/who"),
		f: func(s *Server, p *player, _ string) (bool, error) {
			t := table.New("Name", "Ping", "Online").WithWriter(p.term)
			for _, other := range s.visiblePlayers(p) {
				t.AddRow(other.name, fmt.Sprintf("%d ms", other.pingMillis()), time.Since(other.connected).Truncate(time.Second))
			}
			t.Print()
			return false, nil
		},
	},
	{
		names: m("/time"),
		f: func(s *Server, p *player, _ string) (bool, error) {
			s.mu.RLock()
			hour := s.hour
			s.mu.RUnlock()
			fmt.Fprintf(p.term, "World time is %02d:%02d.\n", int(hour), int(hour*60)%60)
			return false, nil
		},
	},
	{
		names: m("/strike"),
		f: func(s *Server, p *player, _ string) (bool, error) {
			if !p.entityKillOn() {
				fmt.Fprintln(p.term, "Nothing happens.")
				return false, nil
			}
			s.mu.Lock()
			killed := ""
			if len(s.entities) > 0 {
				killed = s.entities[len(s.entities)-1]
				s.entities = s.entities[:len(s.entities)-1]
			}
			s.mu.Unlock()
			if killed == "" {
				fmt.Fprintln(p.term, "Nothing left to kill.")
				return false, nil
			}
			fmt.Fprintf(p.term, "Killed entity: %s\n", killed)
			return false, nil
		},
	},
	{
		names: m("/quit"),
		f: func(s *Server, p *player, _ string) (bool, error) {
			fmt.Fprintln(p.term, "Bye.")
			return true, nil
		},
	},
}

func (s *Server) runChatCommand(p *player, line string) (bool, error) {
	name, _ := splitCommandLine(line)
	found, quit, err := chatCommandTable.attempt(s, p, name, line)
	if err != nil {
		return false, err
	}
	if !found {
		fmt.Fprintf(p.term, "Unknown command %s\n", name)
	}
	return quit, nil
}

func (s *Server) broadcast(text string) {
	s.mu.RLock()
	targets := make([]*player, 0, len(s.players))
	for _, p := range s.players {
		targets = append(targets, p)
	}
	s.mu.RUnlock()
	for _, p := range targets {
		fmt.Fprintln(p.term, text)
	}
}

func (s *Server) findPlayerByName(name string) (*player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if strings.EqualFold(p.name, name) {
			return p, true
		}
	}
	return nil, false
}

// visiblePlayers lists the players p can see. Vanished admins are hidden
// from everyone else but always see themselves.
func (s *Server) visiblePlayers(p *player) []*player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*player, 0, len(s.players))
	for _, other := range s.players {
		if other != p && !other.isVisible() {
			continue
		}
		result = append(result, other)
	}
	return result
}
