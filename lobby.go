package main

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Lobby assigns ready sessions into teams of three, FIFO. One global mutex
// serializes formation; the becomes-full transition happens entirely under it,
// so each of the three joiners gets the team id exactly once and ids are
// strictly increasing. Full teams are kept, keyed by id, for the lifetime of
// the process.
type Lobby struct {
	mu      sync.Mutex
	cfg     *Config
	forming *Team
	waiting []*session
	nextID  int
	teams   map[int]*Team
}

func newLobby(cfg *Config) *Lobby {
	return &Lobby{
		cfg:   cfg,
		teams: make(map[int]*Team),
	}
}

// Join adds the session to the currently forming team. The first two joiners
// are told to wait; the third join resolves all three assignments, starts the
// team goroutine, and opens the next forming team.
func (l *Lobby) Join(s *session) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// A session can repeat the request while its team is still forming;
	// seating it twice would leave an orphaned seat that never readies.
	for _, ps := range l.waiting {
		if ps == s {
			select {
			case s.send <- "Waiting for team members...":
			default:
			}
			return
		}
	}

	if l.forming == nil {
		l.forming = newTeam(l.nextID, l.cfg)
		l.nextID++
	}

	t := l.forming
	t.members = append(t.members, &member{name: s.username, send: s.send})
	l.waiting = append(l.waiting, s)

	if len(t.members) < teamSize {
		select {
		case s.send <- "Waiting for team members...":
		default:
		}
		return
	}

	l.teams[t.id] = t
	l.forming = nil
	sessions := l.waiting
	l.waiting = nil

	for i, ps := range sessions {
		m := t.members[i]
		ps.assign(t, m)
		select {
		case ps.send <- strconv.Itoa(t.id):
		default:
			// The session stopped draining before it even saw its team id;
			// treat it as disconnected so the team does not wait on it.
			m.gone = true
			time.AfterFunc(l.cfg.playerTimeout, func() {
				t.forfeits <- m
			})
		}
	}

	go t.run()

	log.Info().Int("team", t.id).Msg("team formed")
}

// Leave removes a session that disconnected while still waiting on a forming
// team. Reports whether anything was removed; once the team is full this is
// a no-op and the disconnect is the team actor's business.
func (l *Lobby) Leave(s *session) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, ps := range l.waiting {
		if ps != s {
			continue
		}

		l.waiting = append(l.waiting[:i], l.waiting[i+1:]...)
		t := l.forming
		t.members = append(t.members[:i], t.members[i+1:]...)

		if len(t.members) == 0 {
			// Nobody left waiting; reuse the id for the next group.
			l.forming = nil
			l.nextID = t.id
		}

		return true
	}

	return false
}

// Team returns a formed team by id, or nil.
func (l *Lobby) Team(id int) *Team {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.teams[id]
}
