package main

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const teamSize = 3

// member is one seat on a team. All fields except send are owned by the
// team's run goroutine once the team is full; send is the owning session's
// outbound channel and is only ever written through sendLine.
type member struct {
	name string
	send chan string

	ready     bool
	spectator bool
	gone      bool

	// finished is read by the owning session to detect game over, every
	// other field above is actor-owned once the team is full.
	finished atomic.Bool

	score        int
	level        int
	correct      int
	lastResponse time.Duration
}

type answerEvent struct {
	m    *member
	text string
}

// Team holds the shared round state for exactly three members. A single
// goroutine per team (run) consumes the event channels and performs every
// mutation, so the barrier broadcast and next-word dispatch can only ever
// happen once per round, and unrelated teams never contend.
type Team struct {
	id  int
	cfg *Config

	readies  chan *member
	answers  chan answerEvent
	leaves   chan *member
	forfeits chan *member

	members []*member

	started  bool
	finished bool

	round      int // closed barriers so far; the current barrier target is round+1
	word       string
	roundStart time.Time
	totalTime  time.Duration
}

func newTeam(id int, cfg *Config) *Team {
	return &Team{
		id:       id,
		cfg:      cfg,
		readies:  make(chan *member),
		answers:  make(chan answerEvent),
		leaves:   make(chan *member),
		forfeits: make(chan *member),
	}
}

// run consumes events for the lifetime of the process. Membership is frozen
// before run starts, so no lock guards team state.
func (t *Team) run() {
	for {
		select {
		case m := <-t.readies:
			t.handleReady(m)
		case ev := <-t.answers:
			t.handleAnswer(ev.m, ev.text)
		case m := <-t.leaves:
			t.handleLeave(m)
		case m := <-t.forfeits:
			t.handleForfeit(m)
		}
	}
}

// sendLine queues one response line for a member. A member whose session can
// no longer drain its channel is treated like a disconnect: marked gone and
// scheduled for forfeit, so a stuck client cannot wedge the whole team.
func (t *Team) sendLine(m *member, line string) {
	if m.gone {
		return
	}

	select {
	case m.send <- line:
	default:
		log.Debug().Int("team", t.id).Str("user", m.name).Msg("send buffer full, dropping member")
		t.dropMember(m)
	}
}

func (t *Team) handleReady(m *member) {
	if t.finished || m.finished.Load() || m.spectator {
		return
	}
	if t.started {
		// Game already running; readiness is meaningless now.
		return
	}

	m.ready = true
	t.sendLine(m, "Waiting for all team members to be ready...")
	t.maybeStart()
}

// maybeStart fires the AwaitingAllReady -> InRound transition exactly once,
// when every member still counted as active has declared readiness.
func (t *Team) maybeStart() {
	if t.started || t.finished || len(t.members) < teamSize {
		return
	}

	anyActive := false
	for _, m := range t.members {
		if m.spectator || m.finished.Load() {
			continue
		}
		if !m.ready {
			return
		}
		anyActive = true
	}
	if !anyActive {
		return
	}

	t.started = true
	t.word = wordAt(0)
	t.roundStart = time.Now()

	log.Info().Int("team", t.id).Msg("game started")

	for _, m := range t.members {
		if m.finished.Load() {
			continue
		}
		t.sendLine(m, fmt.Sprintf("Game started for team %d", t.id))
		t.dispatchWord(m)
	}
}

func (t *Team) handleAnswer(m *member, text string) {
	switch {
	case !t.started || t.finished || m.finished.Load():
		t.sendLine(m, ErrNotInGame.Error())
		return
	case m.spectator:
		// Stale input from a client that has not yet seen its spectator
		// notice.
		t.sendLine(m, "You are spectating.")
		return
	}

	if strings.EqualFold(text, "q") || strings.EqualFold(text, "quit") {
		t.sendLine(m, "You are now spectating.")
		t.becomeSpectator(m)
		return
	}

	target := t.round + 1

	if m.correct >= target {
		// Already answered this round; nothing may change until the
		// barrier closes.
		t.sendLine(m, "You already answered this round.")
		return
	}

	if !strings.EqualFold(text, t.word) {
		t.sendLine(m, "Incorrect. Try again.")
		return
	}

	m.correct++
	m.lastResponse = time.Since(t.roundStart)
	t.sendLine(m, fmt.Sprintf("Correct! Time: %dms", m.lastResponse.Milliseconds()))

	log.Debug().Int("team", t.id).Str("user", m.name).Dur("elapsed", m.lastResponse).Msg("correct answer")

	t.checkBarrier()
}

// becomeSpectator handles both voluntary withdrawal and forfeit. The member's
// counter is topped up to the current barrier target so the equality check
// still includes them, then the barrier is re-evaluated.
func (t *Team) becomeSpectator(m *member) {
	m.spectator = true

	if !t.started {
		t.maybeStart()
		return
	}

	if m.correct < t.round+1 {
		m.correct = t.round + 1
	}

	if t.activeCount() == 0 {
		t.endGame()
		return
	}

	t.checkBarrier()
}

func (t *Team) activeCount() int {
	n := 0
	for _, m := range t.members {
		if !m.spectator && !m.finished.Load() {
			n++
		}
	}
	return n
}

// checkBarrier closes the round once every active member's counter has
// reached the target, then advances the whole team. Members who disconnected
// but have not yet been forfeited still count as active, which is what makes
// the disconnect wait bounded by the forfeit timer rather than instant.
func (t *Team) checkBarrier() {
	target := t.round + 1

	for _, m := range t.members {
		if m.spectator || m.finished.Load() {
			continue
		}
		if m.correct != target {
			return
		}
	}

	t.advance()
}

// advance accrues the round time, notifies every member exactly once, and
// hands out the next word (or the game-over pair) individually.
func (t *Team) advance() {
	t.totalTime += time.Since(t.roundStart)
	t.round++

	for _, m := range t.members {
		if m.finished.Load() {
			continue
		}
		if m.spectator && m.correct < t.round {
			m.correct = t.round
		}
		t.sendLine(m, "All your team answered! You got 1 point")
	}

	t.word = wordAt(t.round)
	t.roundStart = time.Now()

	for _, m := range t.members {
		if m.finished.Load() {
			continue
		}
		t.dispatchWord(m)
	}

	t.finishIfDone()
}

// dispatchWord sends the word at the member's current level, or the game-over
// pair once the sentinel is reached. The score in the message is reported
// before the increment, so the first word always shows zero points.
func (t *Team) dispatchWord(m *member) {
	w := wordAt(m.level)

	if w == sentinelWord {
		secs := int(t.totalTime / time.Second)
		t.sendLine(m, fmt.Sprintf("Congratulations... Your team have finished the game with score of %d Points! Time=%dseconds", m.score, secs))
		t.sendLine(m, fmt.Sprintf("Game Over in %dseconds", secs))
		m.finished.Store(true)
		return
	}

	t.sendLine(m, fmt.Sprintf("Your Team Score: %d points! New word: %s", m.score, w))
	m.score++
	m.level++
}

// endGame ends the game early when no active member remains, so spectators
// are not left waiting on a barrier that can never close.
func (t *Team) endGame() {
	for _, m := range t.members {
		if m.finished.Load() {
			continue
		}
		secs := int(t.totalTime / time.Second)
		t.sendLine(m, fmt.Sprintf("Congratulations... Your team have finished the game with score of %d Points! Time=%dseconds", m.score, secs))
		t.sendLine(m, fmt.Sprintf("Game Over in %dseconds", secs))
		m.finished.Store(true)
	}

	t.finishIfDone()
}

func (t *Team) finishIfDone() {
	if t.finished {
		return
	}
	for _, m := range t.members {
		if !m.finished.Load() {
			return
		}
	}
	t.finished = true
	log.Info().Int("team", t.id).Dur("total", t.totalTime).Msg("game over")
}

func (t *Team) handleLeave(m *member) {
	t.dropMember(m)
}

// dropMember marks a member disconnected and, if they were still playing,
// schedules a forfeit after the configured grace period. The team keeps
// waiting on them until the timer fires.
func (t *Team) dropMember(m *member) {
	if m.gone {
		return
	}
	m.gone = true

	log.Info().Int("team", t.id).Str("user", m.name).Msg("member disconnected")

	if t.finished || m.finished.Load() || m.spectator {
		return
	}

	grace := t.cfg.playerTimeout
	time.AfterFunc(grace, func() {
		t.forfeits <- m
	})
}

func (t *Team) handleForfeit(m *member) {
	if !m.gone || m.spectator || m.finished.Load() || t.finished {
		return
	}

	log.Info().Int("team", t.id).Str("user", m.name).Msg("member forfeited")
	t.becomeSpectator(m)
}
