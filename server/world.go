package server

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/pkg/errors"
	"github.com/zond/overseer"
	"github.com/zond/overseer/host"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/term"
)

type position struct {
	x, y, z float64
}

type player struct {
	id        string
	name      string
	sess      ssh.Session
	term      *term.Terminal
	connected time.Time

	mu         sync.Mutex
	visible    bool
	immune     bool
	entityKill bool
	health     float64
	calories   float64
	hydration  float64
	pos        position
	ping       time.Duration
}

func (p *player) isVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

func (p *player) entityKillOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entityKill
}

func (p *player) pingMillis() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.ping / time.Millisecond)
}

// pingLoop measures round trip time with SSH keepalive requests until the
// session ends.
func (s *Server) pingLoop(p *player) {
	conn, ok := p.sess.Context().Value(ssh.ContextKeyConn).(gossh.Conn)
	if !ok {
		return
	}
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.sess.Context().Done():
			return
		case <-ticker.C:
			start := time.Now()
			if _, _, err := conn.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				return
			}
			p.mu.Lock()
			p.ping = time.Since(start)
			p.mu.Unlock()
		}
	}
}

func (s *Server) find(id string) (*player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, found := s.players[id]
	if !found {
		return nil, overseer.WithStack(errors.Errorf("no player %q connected", id))
	}
	return p, nil
}

func (s *Server) Players() []host.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]host.Player, 0, len(s.players))
	for _, p := range s.players {
		result = append(result, host.Player{ID: p.id, Name: p.name, Ping: p.pingMillis()})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (s *Server) FindPlayer(id string) (host.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, found := s.players[id]
	if !found {
		return host.Player{}, false
	}
	return host.Player{ID: p.id, Name: p.name, Ping: p.pingMillis()}, true
}

func (s *Server) Message(id, text string) error {
	p, err := s.find(id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.term, text)
	return overseer.WithStack(err)
}

func (s *Server) TeleportTo(adminID, targetID string) error {
	admin, err := s.find(adminID)
	if err != nil {
		return err
	}
	target, err := s.find(targetID)
	if err != nil {
		return err
	}
	target.mu.Lock()
	pos := target.pos
	target.mu.Unlock()
	admin.mu.Lock()
	admin.pos = pos
	admin.mu.Unlock()
	fmt.Fprintf(admin.term, "Teleported to %s.\n", target.name)
	return nil
}

func (s *Server) TeleportHere(adminID, targetID string) error {
	admin, err := s.find(adminID)
	if err != nil {
		return err
	}
	target, err := s.find(targetID)
	if err != nil {
		return err
	}
	admin.mu.Lock()
	pos := admin.pos
	admin.mu.Unlock()
	target.mu.Lock()
	target.pos = pos
	target.mu.Unlock()
	fmt.Fprintln(target.term, "You have been teleported.")
	return nil
}

func (s *Server) Feed(targetID string) error {
	p, err := s.find(targetID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.calories = 500
	p.hydration = 250
	p.mu.Unlock()
	fmt.Fprintln(p.term, "You feel well fed.")
	return nil
}

func (s *Server) MaxHealth(targetID string) error {
	p, err := s.find(targetID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.health = 100
	p.mu.Unlock()
	fmt.Fprintln(p.term, "Your wounds are healed.")
	return nil
}

func (s *Server) Kick(targetID, reason string) error {
	p, err := s.find(targetID)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.term, "Kicked: %s\n", reason)
	return overseer.WithStack(p.sess.Close())
}

func (s *Server) Kill(targetID string) error {
	p, err := s.find(targetID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.health = 100
	p.pos = position{}
	p.mu.Unlock()
	fmt.Fprintln(p.term, "You died. Respawning.")
	return nil
}

func (s *Server) SetVisible(id string, visible bool) error {
	p, err := s.find(id)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.visible = visible
	p.mu.Unlock()
	return nil
}

func (s *Server) SetImmune(id string, immune bool) error {
	p, err := s.find(id)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.immune = immune
	p.mu.Unlock()
	return nil
}

func (s *Server) SetEntityKill(id string, enabled bool) error {
	p, err := s.find(id)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.entityKill = enabled
	p.mu.Unlock()
	return nil
}

func (s *Server) SetHour(hour float64) error {
	if hour < 0 || hour >= 24 {
		return overseer.WithStack(errors.Errorf("hour %v out of range", hour))
	}
	s.mu.Lock()
	s.hour = hour
	s.mu.Unlock()
	return nil
}

func (s *Server) RunClientCommand(id, command string) error {
	p, err := s.find(id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.term, "[client] %s\n", command)
	return overseer.WithStack(err)
}

func (s *Server) Metrics() host.Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return host.Metrics{
		Online:     len(s.players),
		MaxPlayers: s.config.MaxPlayers,
		TickRate:   s.tickRate,
		Entities:   len(s.entities),
		WorldHour:  s.hour,
		Ready:      !s.started.IsZero() && time.Since(s.started) > statsWarmup,
	}
}
