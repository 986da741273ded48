package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGameTeam builds a full team without a lobby, swapping in a short word
// sequence for the duration of the test. Handlers are called directly, which
// matches how the run goroutine executes them: one at a time.
func newGameTeam(t *testing.T, ws []string) *Team {
	t.Helper()

	old := words
	words = ws
	t.Cleanup(func() { words = old })

	tm := newTeam(0, testConfig())
	for _, name := range []string{"alice", "bob", "carol"} {
		tm.members = append(tm.members, &member{name: name, send: make(chan string, 64)})
	}

	return tm
}

func readyAll(tm *Team) {
	for _, m := range tm.members {
		tm.handleReady(m)
	}
}

func drainAll(tm *Team) {
	for _, m := range tm.members {
		drainLines(m.send)
	}
}

func TestAllReadyStartsExactlyOnce(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "End"})

	tm.handleReady(tm.members[0])
	assert.Equal(t, []string{"Waiting for all team members to be ready..."}, drainLines(tm.members[0].send))
	assert.False(t, tm.started)

	tm.handleReady(tm.members[1])
	tm.handleReady(tm.members[2])
	require.True(t, tm.started)

	lines := drainLines(tm.members[0].send)
	require.Len(t, lines, 2)
	assert.Equal(t, "Game started for team 0", lines[0])
	assert.Equal(t, "Your Team Score: 0 points! New word: cat", lines[1])

	// Redundant readiness must not re-dispatch anything.
	tm.handleReady(tm.members[0])
	assert.Empty(t, drainLines(tm.members[0].send))
}

func TestRoundBarrier(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "End"})
	readyAll(tm)
	drainAll(tm)

	alice, bob, carol := tm.members[0], tm.members[1], tm.members[2]

	tm.handleAnswer(alice, "cat")
	lines := drainLines(alice.send)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "Correct! Time:"))

	tm.handleAnswer(bob, "cat")
	lines = drainLines(bob.send)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "Correct! Time:"))

	// Two of three have answered; nobody may see the barrier close yet.
	assert.Empty(t, drainLines(alice.send))
	assert.Empty(t, drainLines(carol.send))

	tm.handleAnswer(carol, "cat")

	for _, m := range tm.members {
		lines := drainLines(m.send)
		if m == carol {
			require.Len(t, lines, 4)
			assert.True(t, strings.HasPrefix(lines[0], "Correct! Time:"))
			lines = lines[1:]
		} else {
			require.Len(t, lines, 3)
		}

		assert.Equal(t, "All your team answered! You got 1 point", lines[0])
		assert.Equal(t, "Congratulations... Your team have finished the game with score of 1 Points! Time=0seconds", lines[1])
		assert.Equal(t, "Game Over in 0seconds", lines[2])

		assert.Equal(t, 1, m.score)
		assert.True(t, m.finished.Load())
	}

	assert.True(t, tm.finished)

	// The game is over; nothing may be dispatched past the sentinel.
	tm.handleAnswer(alice, "cat")
	assert.Empty(t, drainLines(alice.send))
	assert.Equal(t, 1, alice.score)
}

func TestWrongAnswer(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "End"})
	readyAll(tm)
	drainAll(tm)

	alice := tm.members[0]
	tm.handleAnswer(alice, "dog")

	assert.Equal(t, []string{"Incorrect. Try again."}, drainLines(alice.send))
	assert.Equal(t, 0, alice.correct)
	assert.False(t, tm.finished)
}

func TestAnswerMatchesCaseInsensitively(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "End"})
	readyAll(tm)
	drainAll(tm)

	alice := tm.members[0]
	tm.handleAnswer(alice, "CaT")

	lines := drainLines(alice.send)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "Correct! Time:"))
	assert.Equal(t, 1, alice.correct)
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "End"})
	readyAll(tm)
	drainAll(tm)

	alice := tm.members[0]
	tm.handleAnswer(alice, "cat")
	drainLines(alice.send)

	tm.handleAnswer(alice, "cat")
	assert.Equal(t, []string{"You already answered this round."}, drainLines(alice.send))
	assert.Equal(t, 1, alice.correct)
}

func TestQuitBecomesSpectator(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "animal", "End"})
	readyAll(tm)
	drainAll(tm)

	alice, bob, carol := tm.members[0], tm.members[1], tm.members[2]

	tm.handleAnswer(alice, "q")
	assert.Equal(t, []string{"You are now spectating."}, drainLines(alice.send))
	assert.True(t, alice.spectator)
	assert.Equal(t, 1, alice.correct, "withdrawal counts as an answer in the barrier")

	tm.handleAnswer(bob, "cat")
	tm.handleAnswer(carol, "cat")

	// Spectators keep receiving round broadcasts.
	assert.Equal(t, []string{
		"All your team answered! You got 1 point",
		"Your Team Score: 1 points! New word: animal",
	}, drainLines(alice.send))

	tm.handleAnswer(bob, "animal")
	tm.handleAnswer(carol, "animal")

	lines := drainLines(alice.send)
	require.Len(t, lines, 3)
	assert.Equal(t, "All your team answered! You got 1 point", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Congratulations..."))
	assert.True(t, alice.finished.Load())
	assert.True(t, tm.finished)
}

func TestSpectatorAnswerGetsNotice(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "animal", "End"})
	readyAll(tm)
	drainAll(tm)

	alice := tm.members[0]
	tm.handleAnswer(alice, "q")
	drainLines(alice.send)

	tm.handleAnswer(alice, "cat")

	assert.Equal(t, []string{"You are spectating."}, drainLines(alice.send))
	assert.Equal(t, 1, alice.correct)
	assert.Equal(t, 0, tm.round, "spectator input must not advance the round")
}

func TestLastActiveQuitEndsGame(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "End"})
	readyAll(tm)
	drainAll(tm)

	tm.handleAnswer(tm.members[0], "q")
	tm.handleAnswer(tm.members[1], "quit")
	assert.False(t, tm.finished)

	tm.handleAnswer(tm.members[2], "q")

	require.True(t, tm.finished)
	for _, m := range tm.members {
		lines := drainLines(m.send)
		require.NotEmpty(t, lines)
		assert.True(t, strings.HasPrefix(lines[len(lines)-1], "Game Over in"))
	}
}

func TestDisconnectForfeitsAfterGracePeriod(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "End"})
	readyAll(tm)
	drainAll(tm)

	alice, bob, carol := tm.members[0], tm.members[1], tm.members[2]

	tm.handleAnswer(bob, "cat")
	tm.handleAnswer(carol, "cat")
	assert.False(t, tm.finished, "barrier must stay open during the grace period")

	tm.handleLeave(alice)
	require.True(t, alice.gone)

	select {
	case m := <-tm.forfeits:
		tm.handleForfeit(m)
	case <-time.After(2 * time.Second):
		t.Fatal("forfeit timer never fired")
	}

	assert.True(t, alice.spectator)
	assert.True(t, tm.finished)

	lines := drainLines(bob.send)
	require.Len(t, lines, 4)
	assert.Equal(t, "All your team answered! You got 1 point", lines[1])

	// The disconnected member gets nothing, but their seat state still advances.
	assert.Empty(t, drainLines(alice.send))
}

func TestForfeitBeforeStartUnblocksReadiness(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "End"})

	alice, bob, carol := tm.members[0], tm.members[1], tm.members[2]

	tm.handleReady(bob)
	tm.handleReady(carol)
	assert.False(t, tm.started)

	tm.handleLeave(alice)

	select {
	case m := <-tm.forfeits:
		tm.handleForfeit(m)
	case <-time.After(2 * time.Second):
		t.Fatal("forfeit timer never fired")
	}

	assert.True(t, tm.started)
}

func TestFullGameScoresAndStops(t *testing.T) {
	tm := newTeam(0, testConfig())
	for _, name := range []string{"alice", "bob", "carol"} {
		tm.members = append(tm.members, &member{name: name, send: make(chan string, 64)})
	}

	readyAll(tm)

	rounds := words[:len(words)-1]
	for _, w := range rounds {
		for _, m := range tm.members {
			tm.handleAnswer(m, w)
		}
		drainAll(tm)
	}

	require.True(t, tm.finished)
	for _, m := range tm.members {
		assert.Equal(t, len(rounds), m.score)
		assert.Equal(t, len(rounds), m.level)
		assert.True(t, m.finished.Load())
	}
	assert.Equal(t, len(rounds), tm.round)
}

func TestWordsSequence(t *testing.T) {
	require.Equal(t, sentinelWord, words[len(words)-1])
	assert.Equal(t, "cat", wordAt(0))
	assert.Equal(t, sentinelWord, wordAt(len(words)-1))
	assert.Equal(t, "cat", wordAt(len(words)), "lookup stays total past the sentinel")
}

func TestAnswerBeforeStartRejected(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "End"})

	alice := tm.members[0]
	tm.handleAnswer(alice, "cat")

	assert.Equal(t, []string{ErrNotInGame.Error()}, drainLines(alice.send))
	assert.Equal(t, 0, alice.correct)
}

func TestSendBufferOverflowDropsMember(t *testing.T) {
	tm := newGameTeam(t, []string{"cat", "End"})
	full := &member{name: "dave", send: make(chan string)}
	tm.members[0] = full

	readyAll(tm)

	assert.True(t, full.gone)

	select {
	case m := <-tm.forfeits:
		assert.Same(t, full, m)
	case <-time.After(2 * time.Second):
		t.Fatal("forfeit timer never fired")
	}
}
