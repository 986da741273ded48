package main

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ClientMessage is the inbound request envelope. Type carries the protocol's
// request tokens verbatim.
type ClientMessage struct {
	Type     string `json:"type"` // "register", "login", "make a team", "start a game", "answer", "q"
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// assignment binds a session to its team seat. It is written by the lobby
// (under the lobby lock, possibly from another session's goroutine) and read
// by the owning session, hence the atomic pointer.
type assignment struct {
	team *Team
	m    *member
}

// session drives one client connection through the request state machine. It
// owns no shared state; everything cross-user happens in the registry, the
// lobby, or the team actor.
type session struct {
	conn     *websocket.Conn
	send     chan string
	done     chan struct{}
	cfg      *Config
	registry *Registry
	lobby    *Lobby

	// readPump-owned
	username string
	loggedIn bool

	teamRef atomic.Pointer[assignment]
}

func newSession(conn *websocket.Conn, cfg *Config, registry *Registry, lobby *Lobby) *session {
	return &session{
		conn:     conn,
		send:     make(chan string, 32),
		done:     make(chan struct{}),
		cfg:      cfg,
		registry: registry,
		lobby:    lobby,
	}
}

func (s *session) assign(t *Team, m *member) {
	s.teamRef.Store(&assignment{team: t, m: m})
}

// reply queues a response line without ever blocking the read loop.
func (s *session) reply(line string) {
	select {
	case s.send <- line:
	default:
	}
}

// current returns the session's live team seat, treating a finished game as
// no seat at all so the player can form a fresh team afterwards.
func (s *session) current() *assignment {
	a := s.teamRef.Load()
	if a == nil || a.m.finished.Load() {
		return nil
	}
	return a
}

func (s *session) readPump() {
	defer s.teardown()

	for {
		if s.cfg.sessionTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.sessionTimeout))
		}

		var msg ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "register":
			if msg.Username == "" {
				return
			}
			if err := s.registry.Register(msg.Username, msg.Password); err != nil {
				s.reply(err.Error())
				continue
			}
			s.reply(fmt.Sprintf("%s is Registered Successfully", msg.Username))

		case "login":
			if msg.Username == "" {
				return
			}
			verified := s.registry.Verify(msg.Username, msg.Password)
			s.reply(strconv.FormatBool(verified))
			if verified {
				s.registry.MarkLoggedIn(msg.Username)
				s.username = msg.Username
				s.loggedIn = true
				log.Debug().Str("user", s.username).Msg("logged in")
			}

		case "make a team":
			if !s.loggedIn {
				s.reply(ErrNotLoggedIn.Error())
				continue
			}
			if s.current() != nil {
				s.reply(ErrAlreadyTeamed.Error())
				continue
			}
			s.lobby.Join(s)

		case "start a game":
			a := s.current()
			if a == nil {
				s.reply(ErrNotTeamed.Error())
				continue
			}
			a.team.readies <- a.m

		case "answer":
			a := s.current()
			if a == nil {
				s.reply(ErrNotInGame.Error())
				continue
			}
			a.team.answers <- answerEvent{m: a.m, text: msg.Answer}

		case "q":
			return

		default:
			// Unknown request types are protocol errors and end the session.
			return
		}
	}
}

// teardown releases everything the handler holds. Team and round state
// outlive the session; the team actor learns about the disconnect through a
// leave event and applies the forfeit policy on its own clock.
func (s *session) teardown() {
	_ = s.conn.Close()

	s.lobby.Leave(s)

	if a := s.teamRef.Load(); a != nil {
		a.team.leaves <- a.m
	}

	close(s.done)

	if s.username != "" {
		log.Debug().Str("user", s.username).Msg("session closed")
	}
}

func (s *session) writePump() {
	defer s.conn.Close()

	for {
		select {
		case line := <-s.send:
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
