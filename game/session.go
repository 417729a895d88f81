package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/pelltigre/sketchparty/recognition"
	"github.com/pelltigre/sketchparty/words"
	"golang.org/x/exp/slices"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusSetup    Status = "setup"
	StatusPlaying  Status = "playing"
	StatusRoundEnd Status = "round_end"
	StatusFinished Status = "finished"
)

const (
	MinRounds        = 1
	MaxRounds        = 10
	MinTimeLimitSecs = 15
	MaxTimeLimitSecs = 300
	wordOptionCount  = 3
)

// Round end reasons carried in the round-ended notification.
const (
	ReasonTimer              = "timer"
	ReasonAllGuessed         = "all_guessed"
	ReasonRecognized         = "recognized"
	ReasonSubmitted          = "submitted"
	ReasonDrawerDisconnected = "drawer_disconnected"
)

// Session end reasons.
const (
	ReasonHostEnded           = "host_ended"
	ReasonRoundsDone          = "rounds_done"
	ReasonInsufficientPlayers = "insufficient_players"
)

// CorrectGuess is one player's successful guess this round. Records are
// append-only and never rewritten once added.
type CorrectGuess struct {
	UserID    uint   `json:"userId"`
	Username  string `json:"username"`
	ElapsedMs int64  `json:"elapsedMs"`
	Points    int    `json:"points"`
}

// Session is the authoritative game state for one room. All methods
// must be called from the owning room's goroutine; none of them block.
// Every method either mutates state and returns the notifications to
// deliver, or leaves the session untouched and returns a Rejection.
type Session struct {
	RoomID          string
	Status          Status
	Roster          *Roster
	CurrentRound    int
	TotalRounds     int
	RoundTimeLimit  time.Duration
	CurrentWord     string
	CurrentDrawerID uint
	WordOptions     []string
	RoundStartedAt  time.Time
	CorrectGuessers []CorrectGuess
	FinalResults    []PlayerResult

	pool              *words.Pool
	roundDrawerPoints int
	timerGen          int
}

func NewSession(roomID string, pool *words.Pool) *Session {
	return &Session{
		RoomID: roomID,
		Status: StatusWaiting,
		Roster: NewRoster(),
		pool:   pool,
	}
}

// TimerGeneration identifies the currently armed round timer. A fire
// carrying a stale generation is ignored.
func (s *Session) TimerGeneration() int {
	return s.timerGen
}

func (s *Session) broadcast(t EventType, msg interface{}) Event {
	return Event{Type: t, Msg: msg, Receivers: s.Roster.IDs(), RoomID: s.RoomID}
}

func (s *Session) to(id uint, t EventType, msg interface{}) Event {
	return Event{Type: t, Msg: msg, Receivers: []uint{id}, RoomID: s.RoomID}
}

func (s *Session) toAllExcept(id uint, t EventType, msg interface{}) Event {
	ids := make([]uint, 0, s.Roster.Len())
	for _, p := range s.Roster.List() {
		if p.ID != id {
			ids = append(ids, p.ID)
		}
	}
	return Event{Type: t, Msg: msg, Receivers: ids, RoomID: s.RoomID}
}

// Join admits a player (or re-admits a returning one) and hands them a
// snapshot so they can render the room immediately.
func (s *Session) Join(id uint, username string, now time.Time) ([]Event, *Rejection) {
	if s.Status == StatusFinished {
		return nil, reject(RejectBadState, "session already finished")
	}
	p, reconnected := s.Roster.Join(id, username)
	events := []Event{
		s.broadcast(EventPlayerJoined, *p),
		s.to(id, EventSnapshot, s.Snapshot(now)),
	}
	if reconnected {
		events = append(events, s.broadcast(EventPlayerConnection, *p))
	}
	return events, nil
}

// Initialize starts a game from the lobby, or restarts one after it
// finished ("play again"). Host only.
func (s *Session) Initialize(actorID uint, rounds, timeLimitSecs int, now time.Time) ([]Event, *Rejection) {
	if actorID != s.Roster.HostID() {
		return nil, reject(RejectBadActor, "only the host can start a game")
	}
	if s.Status != StatusWaiting && s.Status != StatusFinished {
		return nil, reject(RejectBadState, fmt.Sprintf("cannot initialize while %s", s.Status))
	}
	if rounds < MinRounds || rounds > MaxRounds {
		return nil, reject(RejectBadPayload, fmt.Sprintf("rounds must be between %d and %d", MinRounds, MaxRounds))
	}
	if timeLimitSecs < MinTimeLimitSecs || timeLimitSecs > MaxTimeLimitSecs {
		return nil, reject(RejectBadPayload, fmt.Sprintf("time limit must be between %ds and %ds", MinTimeLimitSecs, MaxTimeLimitSecs))
	}
	if s.Roster.ConnectedCount() < 2 {
		return nil, reject(RejectTooFewPlayers, "need at least 2 connected players")
	}

	s.TotalRounds = rounds
	s.RoundTimeLimit = time.Duration(timeLimitSecs) * time.Second
	s.CurrentRound = 1
	s.CurrentWord = ""
	s.CurrentDrawerID = 0
	s.CorrectGuessers = nil
	s.FinalResults = nil
	for _, p := range s.Roster.List() {
		p.Score = 0
		p.CorrectGuessCount = 0
		p.HasDrawnThisRound = false
	}

	events := []Event{s.broadcast(EventSessionInitialized, s.Snapshot(now))}
	turnEvents, finished := s.beginTurn()
	if finished {
		// Cannot happen right after a reset, kept for symmetry with NextTurn.
		return append(events, s.finish(ReasonRoundsDone)...), nil
	}
	return append(events, turnEvents...), nil
}

// beginTurn picks the next drawer round-robin and offers word options.
// Reports finished=true when every round has been played.
func (s *Session) beginTurn() ([]Event, bool) {
	s.CurrentWord = ""
	s.WordOptions = nil
	s.CorrectGuessers = nil
	s.roundDrawerPoints = 0

	drawer := s.nextDrawer()
	if drawer == nil {
		for _, p := range s.Roster.List() {
			p.HasDrawnThisRound = false
		}
		s.CurrentRound++
		if s.CurrentRound > s.TotalRounds {
			return nil, true
		}
		drawer = s.nextDrawer()
		if drawer == nil {
			return nil, true
		}
	}

	s.Status = StatusSetup
	s.CurrentDrawerID = drawer.ID
	s.WordOptions = s.pool.Draw(wordOptionCount)

	return []Event{
		s.broadcast(EventTurnAdvanced, map[string]interface{}{
			"round":    s.CurrentRound,
			"drawerId": drawer.ID,
			"drawer":   drawer.Username,
		}),
		s.to(drawer.ID, EventWordOptions, WordOptionsMsg{
			Round:   s.CurrentRound,
			Options: s.WordOptions,
		}),
	}, false
}

func (s *Session) nextDrawer() *Player {
	for _, p := range s.Roster.List() {
		if p.Connected && !p.HasDrawnThisRound {
			return p
		}
	}
	return nil
}

// Start begins drawing with one of the offered words. Drawer only.
func (s *Session) Start(actorID uint, word string, now time.Time) ([]Event, *Rejection) {
	if s.Status != StatusSetup {
		return nil, reject(RejectBadState, fmt.Sprintf("cannot start a turn while %s", s.Status))
	}
	if actorID != s.CurrentDrawerID {
		return nil, reject(RejectBadActor, "only the current drawer can start the turn")
	}
	word = strings.ToLower(strings.TrimSpace(word))
	if !slices.Contains(s.WordOptions, word) {
		return nil, reject(RejectWordNotOffered, "chosen word was not among the offered options")
	}
	drawer, ok := s.Roster.Get(actorID)
	if !ok {
		return nil, reject(RejectNotInRoom, "drawer is no longer in the room")
	}

	s.Status = StatusPlaying
	s.CurrentWord = word
	s.WordOptions = nil
	s.RoundStartedAt = now
	s.CorrectGuessers = nil
	s.roundDrawerPoints = 0
	drawer.HasDrawnThisRound = true
	s.timerGen++

	started := map[string]interface{}{
		"round":            s.CurrentRound,
		"drawerId":         drawer.ID,
		"drawer":           drawer.Username,
		"timeLimitSeconds": int(s.RoundTimeLimit.Seconds()),
	}
	return []Event{
		s.broadcast(EventSessionStarted, started),
		s.toAllExcept(drawer.ID, EventWordHint, WordHintMsg{
			DrawerID:  drawer.ID,
			Drawer:    drawer.Username,
			Hint:      Hint(word),
			Round:     s.CurrentRound,
			TimeLimit: int(s.RoundTimeLimit.Seconds()),
		}),
	}, nil
}

// Hint masks every letter of the word, keeping separators visible.
func Hint(word string) string {
	var b strings.Builder
	for _, r := range word {
		if r == ' ' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Guess scores a non-drawer's attempt at the current word. A player's
// guesses after their first correct one are refused without effect, so
// duplicate or replayed guess events cannot double-award points. An
// incorrect guess is a valid action with no state change: it returns no
// events and no rejection, and the transport acknowledges it.
func (s *Session) Guess(actorID uint, text string, now time.Time) ([]Event, *Rejection) {
	if s.Status != StatusPlaying {
		return nil, reject(RejectBadState, fmt.Sprintf("cannot guess while %s", s.Status))
	}
	if actorID == s.CurrentDrawerID {
		return nil, reject(RejectBadActor, "the drawer cannot guess")
	}
	guesser, ok := s.Roster.Get(actorID)
	if !ok {
		return nil, reject(RejectNotInRoom, "guesser is not in the room")
	}
	for _, cg := range s.CorrectGuessers {
		if cg.UserID == actorID {
			return nil, reject(RejectBadState, "already guessed this round")
		}
	}
	if !Matches(text, s.CurrentWord) {
		return nil, nil
	}

	elapsed := now.Sub(s.RoundStartedAt)
	base := GuessPoints(elapsed, s.RoundTimeLimit)
	bonus := DrawerBonus(base)

	guesser.Score += base
	guesser.CorrectGuessCount++
	if drawer, ok := s.Roster.Get(s.CurrentDrawerID); ok {
		drawer.Score += bonus
		s.roundDrawerPoints += bonus
	}
	s.CorrectGuessers = append(s.CorrectGuessers, CorrectGuess{
		UserID:    actorID,
		Username:  guesser.Username,
		ElapsedMs: elapsed.Milliseconds(),
		Points:    base,
	})

	events := []Event{s.broadcast(EventGuessCorrect, GuessCorrectMsg{
		UserID:    actorID,
		Username:  guesser.Username,
		Points:    base,
		DrawerGot: bonus,
		ElapsedMs: elapsed.Milliseconds(),
	})}
	if s.everyGuesserDone() {
		events = append(events, s.endRound(ReasonAllGuessed, false, nil)...)
	}
	return events, nil
}

func (s *Session) everyGuesserDone() bool {
	guessed := make(map[uint]struct{}, len(s.CorrectGuessers))
	for _, cg := range s.CorrectGuessers {
		guessed[cg.UserID] = struct{}{}
	}
	for _, p := range s.Roster.List() {
		if !p.Connected || p.ID == s.CurrentDrawerID {
			continue
		}
		if _, ok := guessed[p.ID]; !ok {
			return false
		}
	}
	return true
}

// ResolveRecognition applies a classifier verdict to the round. An
// explicit submission comes from the drawer and always ends the round;
// a periodic automatic check (actorID 0) only ends it when the top
// label actually matched, otherwise drawing continues.
func (s *Session) ResolveRecognition(actorID uint, result recognition.Result, explicit bool, now time.Time) ([]Event, *Rejection) {
	if s.Status != StatusPlaying {
		return nil, reject(RejectBadState, fmt.Sprintf("cannot resolve recognition while %s", s.Status))
	}
	if explicit && actorID != s.CurrentDrawerID {
		return nil, reject(RejectBadActor, "only the current drawer can submit the sketch")
	}

	matched := false
	if top, ok := result.Top(); ok {
		matched = Matches(top.Label, s.CurrentWord)
	}
	if matched {
		elapsed := now.Sub(s.RoundStartedAt)
		pts := RecognitionPoints(int(elapsed.Seconds()), explicit)
		if drawer, ok := s.Roster.Get(s.CurrentDrawerID); ok {
			drawer.Score += pts
			s.roundDrawerPoints += pts
		}
	}
	if !matched && !explicit {
		return nil, nil
	}

	reason := ReasonSubmitted
	if matched {
		reason = ReasonRecognized
	}
	return s.endRound(reason, matched, result), nil
}

// TimerExpired ends the round on timeout. Stale generations are fires
// from timers the round has already outlived and do nothing.
func (s *Session) TimerExpired(generation int) []Event {
	if s.Status != StatusPlaying || generation != s.timerGen {
		return nil
	}
	return s.endRound(ReasonTimer, false, nil)
}

func (s *Session) endRound(reason string, recognized bool, recog interface{}) []Event {
	s.Status = StatusRoundEnd
	s.timerGen++

	players := make([]Player, 0, s.Roster.Len())
	for _, p := range s.Roster.List() {
		players = append(players, *p)
	}
	return []Event{s.broadcast(EventRoundEnded, RoundEndedMsg{
		Round:          s.CurrentRound,
		Word:           s.CurrentWord,
		Reason:         reason,
		Recognized:     recognized,
		DrawerPoints:   s.roundDrawerPoints,
		CorrectGuesses: s.CorrectGuessers,
		Players:        players,
		Recognition:    recog,
	})}
}

// NextTurn advances past a finished round. Host only.
func (s *Session) NextTurn(actorID uint, now time.Time) ([]Event, *Rejection) {
	if actorID != s.Roster.HostID() {
		return nil, reject(RejectBadActor, "only the host can advance the turn")
	}
	if s.Status != StatusRoundEnd {
		return nil, reject(RejectBadState, fmt.Sprintf("cannot advance the turn while %s", s.Status))
	}
	if s.Roster.ConnectedCount() < 2 {
		return s.finish(ReasonInsufficientPlayers), nil
	}
	events, finished := s.beginTurn()
	if finished {
		return s.finish(ReasonRoundsDone), nil
	}
	return events, nil
}

// End finishes the session immediately. Host only.
func (s *Session) End(actorID uint) ([]Event, *Rejection) {
	if actorID != s.Roster.HostID() {
		return nil, reject(RejectBadActor, "only the host can end the session")
	}
	if s.Status == StatusFinished {
		return nil, reject(RejectBadState, "session already finished")
	}
	return s.finish(ReasonHostEnded), nil
}

func (s *Session) finish(reason string) []Event {
	s.Status = StatusFinished
	s.CurrentWord = ""
	s.CurrentDrawerID = 0
	s.WordOptions = nil
	s.timerGen++

	results := make([]PlayerResult, 0, s.Roster.Len())
	for _, p := range s.Roster.List() {
		results = append(results, PlayerResult{
			UserID:            p.ID,
			Username:          p.Username,
			Score:             p.Score,
			CorrectGuessCount: p.CorrectGuessCount,
		})
	}
	slices.SortStableFunc(results, func(a, b PlayerResult) int {
		return b.Score - a.Score
	})
	var winners []uint
	for _, r := range results {
		if len(results) > 0 && r.Score == results[0].Score {
			winners = append(winners, r.UserID)
		}
	}
	s.FinalResults = results

	return []Event{s.broadcast(EventSessionEnded, SessionEndedMsg{
		Reason:    reason,
		Results:   results,
		Winners:   winners,
		HostID:    s.Roster.HostID(),
		Rounds:    s.TotalRounds,
		TimeLimit: int(s.RoundTimeLimit.Seconds()),
	})}
}

// Snapshot captures everything a client needs to resynchronize. The
// current word itself is never included; non-drawers get the hint.
func (s *Session) Snapshot(now time.Time) SnapshotMsg {
	players := make([]Player, 0, s.Roster.Len())
	for _, p := range s.Roster.List() {
		players = append(players, *p)
	}
	snap := SnapshotMsg{
		RoomID:      s.RoomID,
		Status:      s.Status,
		Round:       s.CurrentRound,
		TotalRounds: s.TotalRounds,
		TimeLimit:   int(s.RoundTimeLimit.Seconds()),
		DrawerID:    s.CurrentDrawerID,
		HostID:      s.Roster.HostID(),
		Players:     players,
	}
	if s.Status == StatusPlaying {
		snap.WordHint = Hint(s.CurrentWord)
		remaining := s.RoundTimeLimit - now.Sub(s.RoundStartedAt)
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingSecs = int(remaining.Seconds())
	}
	return snap
}
