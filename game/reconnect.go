package game

import (
	"log"
	"time"
)

// Reconnector reacts to roster liveness changes. A drawer dropping
// mid-round forfeits the round on the spot instead of leaving the room
// waiting on a dead timer; everyone else is kept, score intact, until
// they either return or leave for good.
type Reconnector struct {
	session *Session
}

func NewReconnector(s *Session) *Reconnector {
	return &Reconnector{session: s}
}

// Disconnect marks the player offline and repairs the session around
// the gap. Runs on the room goroutine like every other mutation.
func (r *Reconnector) Disconnect(userID uint) []Event {
	s := r.session
	p, ok := s.Roster.Get(userID)
	if !ok {
		log.Printf("[reconnect] disconnect for unknown player %d in room %s", userID, s.RoomID)
		return nil
	}
	s.Roster.SetConnected(userID, false)
	events := []Event{s.broadcast(EventPlayerConnection, *p)}

	if s.Status == StatusPlaying && userID == s.CurrentDrawerID {
		// Forfeit the round; no penalty, and the next-turn flow will
		// pick a fresh drawer instead of waiting out the timer.
		s.CurrentDrawerID = 0
		events = append(events, s.endRound(ReasonDrawerDisconnected, false, nil)...)
	}
	if s.Status == StatusSetup && userID == s.CurrentDrawerID {
		// The word chooser is gone; hand the turn to somebody else.
		s.CurrentDrawerID = 0
		turnEvents, finished := s.beginTurn()
		if finished {
			return append(events, s.finish(ReasonRoundsDone)...)
		}
		events = append(events, turnEvents...)
	}
	// The departed player may have been the only one still guessing.
	if s.Status == StatusPlaying && len(s.CorrectGuessers) > 0 && s.everyGuesserDone() {
		events = append(events, s.endRound(ReasonAllGuessed, false, nil)...)
	}

	if s.Status != StatusWaiting && s.Status != StatusFinished && s.Roster.ConnectedCount() < 2 {
		events = append(events, s.finish(ReasonInsufficientPlayers)...)
	}
	return events
}

// Reconnect restores a returning player and resynchronizes them from a
// full snapshot. Score and drawing history are untouched.
func (r *Reconnector) Reconnect(userID uint, now time.Time) []Event {
	s := r.session
	p, ok := s.Roster.Get(userID)
	if !ok {
		log.Printf("[reconnect] reconnect for unknown player %d in room %s", userID, s.RoomID)
		return nil
	}
	s.Roster.SetConnected(userID, true)
	return []Event{
		s.broadcast(EventPlayerConnection, *p),
		s.to(userID, EventSnapshot, s.Snapshot(now)),
	}
}

// Leave removes the player for good. Unlike a disconnect the record is
// dropped, so a later rejoin starts from zero.
func (r *Reconnector) Leave(userID uint) []Event {
	s := r.session
	p, ok := s.Roster.Get(userID)
	if !ok {
		return nil
	}
	left := *p

	var events []Event
	if s.Status == StatusPlaying && userID == s.CurrentDrawerID {
		s.CurrentDrawerID = 0
		events = append(events, s.endRound(ReasonDrawerDisconnected, false, nil)...)
	}
	s.Roster.Leave(userID)
	events = append(events, s.broadcast(EventPlayerLeft, left))

	if s.Status == StatusSetup && userID == s.CurrentDrawerID {
		s.CurrentDrawerID = 0
		turnEvents, finished := s.beginTurn()
		if finished {
			return append(events, s.finish(ReasonRoundsDone)...)
		}
		events = append(events, turnEvents...)
	}
	// With the leaver out of the roster, everyone left may be done.
	if s.Status == StatusPlaying && len(s.CorrectGuessers) > 0 && s.everyGuesserDone() {
		events = append(events, s.endRound(ReasonAllGuessed, false, nil)...)
	}
	if s.Status != StatusWaiting && s.Status != StatusFinished && s.Roster.ConnectedCount() < 2 {
		events = append(events, s.finish(ReasonInsufficientPlayers)...)
	}
	return events
}
