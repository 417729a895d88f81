package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawerDisconnectForfeitsRound(t *testing.T) {
	s := testSession(t, 3)
	r := NewReconnector(s)
	_, rej := s.Initialize(1, 1, 60, t0)
	require.Nil(t, rej)
	startTurn(t, s)
	staleGen := s.TimerGeneration()

	events := r.Disconnect(1)
	ended, ok := eventOfType(events, EventRoundEnded)
	require.True(t, ok)
	msg := ended.Msg.(RoundEndedMsg)
	assert.Equal(t, ReasonDrawerDisconnected, msg.Reason)
	assert.False(t, msg.Recognized)
	assert.Equal(t, StatusRoundEnd, s.Status)

	// Forfeit carries no penalty.
	alice, _ := s.Roster.Get(1)
	assert.Zero(t, alice.Score)
	assert.False(t, alice.Connected)

	// The round timer from the forfeited round must not fire again.
	assert.Empty(t, s.TimerExpired(staleGen))
}

func TestNonDrawerDisconnectKeepsRoundAlive(t *testing.T) {
	s := testSession(t, 3)
	r := NewReconnector(s)
	_, rej := s.Initialize(1, 1, 60, t0)
	require.Nil(t, rej)
	word := startTurn(t, s)

	events := r.Disconnect(3)
	_, ok := eventOfType(events, EventRoundEnded)
	assert.False(t, ok)
	assert.Equal(t, StatusPlaying, s.Status)

	// The remaining guesser alone now completes the round.
	events, rej = s.Guess(2, word, t0.Add(10*time.Second))
	require.Nil(t, rej)
	ended, ok := eventOfType(events, EventRoundEnded)
	require.True(t, ok)
	assert.Equal(t, ReasonAllGuessed, ended.Msg.(RoundEndedMsg).Reason)
}

func TestLastPendingGuesserDisconnectEndsRound(t *testing.T) {
	s := testSession(t, 3)
	r := NewReconnector(s)
	_, rej := s.Initialize(1, 1, 60, t0)
	require.Nil(t, rej)
	word := startTurn(t, s)
	_, rej = s.Guess(2, word, t0.Add(10*time.Second))
	require.Nil(t, rej)
	require.Equal(t, StatusPlaying, s.Status)

	// Carol was the only one still guessing; her drop completes the
	// round for everyone who did guess.
	events := r.Disconnect(3)
	ended, ok := eventOfType(events, EventRoundEnded)
	require.True(t, ok)
	msg := ended.Msg.(RoundEndedMsg)
	assert.Equal(t, ReasonAllGuessed, msg.Reason)
	assert.False(t, msg.Recognized)
	assert.Equal(t, StatusRoundEnd, s.Status)

	roundEnds := 0
	for _, e := range events {
		if e.Type == EventRoundEnded {
			roundEnds++
		}
	}
	assert.Equal(t, 1, roundEnds)

	// The abandoned round timer must not end the round a second time.
	assert.Empty(t, s.TimerExpired(s.TimerGeneration()-1))
}

func TestLastPendingGuesserLeaveEndsRound(t *testing.T) {
	s := testSession(t, 3)
	r := NewReconnector(s)
	_, rej := s.Initialize(1, 1, 60, t0)
	require.Nil(t, rej)
	word := startTurn(t, s)
	_, rej = s.Guess(2, word, t0.Add(10*time.Second))
	require.Nil(t, rej)

	events := r.Leave(3)
	ended, ok := eventOfType(events, EventRoundEnded)
	require.True(t, ok)
	assert.Equal(t, ReasonAllGuessed, ended.Msg.(RoundEndedMsg).Reason)
	assert.Equal(t, StatusRoundEnd, s.Status)
}

func TestNoGuessesYetDisconnectLeavesRoundOpen(t *testing.T) {
	s := testSession(t, 3)
	r := NewReconnector(s)
	_, rej := s.Initialize(1, 1, 60, t0)
	require.Nil(t, rej)
	startTurn(t, s)

	// Nobody has guessed, so bob's drop must not resolve the round as
	// all-guessed while carol is still playing.
	events := r.Disconnect(2)
	_, ok := eventOfType(events, EventRoundEnded)
	assert.False(t, ok)
	assert.Equal(t, StatusPlaying, s.Status)
}

func TestDisconnectBelowTwoPlayersFinishesSession(t *testing.T) {
	s := testSession(t, 2)
	r := NewReconnector(s)
	_, rej := s.Initialize(1, 1, 60, t0)
	require.Nil(t, rej)
	startTurn(t, s)

	events := r.Disconnect(2)
	ended, ok := eventOfType(events, EventSessionEnded)
	require.True(t, ok)
	assert.Equal(t, ReasonInsufficientPlayers, ended.Msg.(SessionEndedMsg).Reason)
	assert.Equal(t, StatusFinished, s.Status)
}

func TestWaitingLobbySurvivesDisconnects(t *testing.T) {
	s := testSession(t, 2)
	r := NewReconnector(s)

	events := r.Disconnect(2)
	_, ok := eventOfType(events, EventSessionEnded)
	assert.False(t, ok)
	assert.Equal(t, StatusWaiting, s.Status)
}

func TestSetupDrawerDisconnectHandsTurnToNextPlayer(t *testing.T) {
	s := testSession(t, 3)
	r := NewReconnector(s)
	_, rej := s.Initialize(1, 1, 60, t0)
	require.Nil(t, rej)
	require.Equal(t, uint(1), s.CurrentDrawerID)

	events := r.Disconnect(1)
	assert.Equal(t, StatusSetup, s.Status)
	assert.Equal(t, uint(2), s.CurrentDrawerID)

	opts, ok := eventOfType(events, EventWordOptions)
	require.True(t, ok)
	assert.Equal(t, []uint{2}, opts.Receivers)
}

func TestReconnectKeepsScoreAndResyncs(t *testing.T) {
	s := testSession(t, 3)
	r := NewReconnector(s)
	_, rej := s.Initialize(1, 1, 60, t0)
	require.Nil(t, rej)
	word := startTurn(t, s)
	_, rej = s.Guess(2, word, t0.Add(10*time.Second))
	require.Nil(t, rej)
	bob, _ := s.Roster.Get(2)
	score := bob.Score
	require.Positive(t, score)

	r.Disconnect(2)
	events := r.Reconnect(2, t0.Add(30*time.Second))

	bob, _ = s.Roster.Get(2)
	assert.True(t, bob.Connected)
	assert.Equal(t, score, bob.Score)

	snap, ok := eventOfType(events, EventSnapshot)
	require.True(t, ok)
	assert.Equal(t, []uint{2}, snap.Receivers)
	assert.Equal(t, 30, snap.Msg.(SnapshotMsg).RemainingSecs)
}

func TestLeaveDropsTheRecord(t *testing.T) {
	s := testSession(t, 3)
	r := NewReconnector(s)
	_, rej := s.Initialize(1, 1, 60, t0)
	require.Nil(t, rej)
	word := startTurn(t, s)
	_, rej = s.Guess(2, word, t0.Add(10*time.Second))
	require.Nil(t, rej)

	events := r.Leave(2)
	_, ok := eventOfType(events, EventPlayerLeft)
	assert.True(t, ok)
	_, inRoom := s.Roster.Get(2)
	assert.False(t, inRoom)

	// Coming back is a fresh join, not a reconnection.
	_, rej = s.Guess(2, word, t0.Add(20*time.Second))
	require.NotNil(t, rej)
	assert.Equal(t, RejectNotInRoom, rej.Code)
}

func TestHostLeavingMigratesHost(t *testing.T) {
	s := testSession(t, 3)
	r := NewReconnector(s)

	r.Leave(1)
	assert.Equal(t, uint(2), s.Roster.HostID())

	// The new host can run the game.
	_, rej := s.Initialize(2, 1, 60, t0)
	assert.Nil(t, rej)
}
