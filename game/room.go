package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pelltigre/sketchparty/recognition"
	"github.com/pelltigre/sketchparty/words"
)

// ActionType names an inbound player action.
type ActionType string

const (
	ActionInitialize ActionType = "initialize"
	ActionStart      ActionType = "start"
	ActionGuess      ActionType = "guess"
	ActionSubmit     ActionType = "submitEarly"
	ActionAutoCheck  ActionType = "autoCheck"
	ActionNextTurn   ActionType = "nextTurn"
	ActionEnd        ActionType = "end"
	ActionLeave      ActionType = "leave"
)

// Action is one discrete request addressed to a room. Unused fields
// stay zero depending on Type.
type Action struct {
	Type          ActionType
	ActorID       uint
	Rounds        int
	TimeLimitSecs int
	Word          string
	Guess         string
	ImageData     string
}

type envelopeKind int

const (
	envAction envelopeKind = iota
	envJoin
	envDisconnect
	envTimer
	envStop
)

type envelope struct {
	kind     envelopeKind
	action   Action
	userID   uint
	username string
	gen      int
	reply    chan *Rejection
}

// Room owns one session and processes everything addressed to it on a
// single goroutine, so no two transitions for the same room can ever
// race. Rooms are fully independent of each other.
type Room struct {
	ID          string
	session     *Session
	reconnector *Reconnector
	classifier  recognition.Classifier

	// Events carries outbound notifications; the transport drains it.
	// Closed when the room shuts down.
	Events chan Event

	inbox      chan envelope
	stopOnce   sync.Once
	roundTimer *time.Timer
	armedGen   int
	now        func() time.Time
}

func NewRoom(id string, pool *words.Pool, classifier recognition.Classifier) *Room {
	s := NewSession(id, pool)
	return &Room{
		ID:          id,
		session:     s,
		reconnector: NewReconnector(s),
		classifier:  classifier,
		Events:      make(chan Event, 256),
		inbox:       make(chan envelope, 256),
		now:         time.Now,
	}
}

// Run is the room's event loop. It returns when Stop is called, after
// which no further sends on the inbox are accepted.
func (r *Room) Run() {
	for env := range r.inbox {
		if env.kind == envStop {
			break
		}
		r.dispatch(env)
		r.syncTimer()
	}
	r.cancelTimer()
	close(r.Events)
}

func (r *Room) dispatch(env envelope) {
	var events []Event
	var rej *Rejection

	switch env.kind {
	case envJoin:
		if _, known := r.session.Roster.Get(env.userID); known {
			events = r.reconnector.Reconnect(env.userID, r.now())
		} else {
			events, rej = r.session.Join(env.userID, env.username, r.now())
		}
	case envDisconnect:
		events = r.reconnector.Disconnect(env.userID)
	case envTimer:
		events = r.session.TimerExpired(env.gen)
	case envAction:
		events, rej = r.apply(env.action)
	}

	if env.reply != nil {
		env.reply <- rej
	}
	for _, e := range events {
		r.Events <- e
	}
}

func (r *Room) apply(a Action) ([]Event, *Rejection) {
	now := r.now()
	switch a.Type {
	case ActionInitialize:
		return r.session.Initialize(a.ActorID, a.Rounds, a.TimeLimitSecs, now)
	case ActionStart:
		return r.session.Start(a.ActorID, a.Word, now)
	case ActionGuess:
		return r.session.Guess(a.ActorID, a.Guess, now)
	case ActionSubmit:
		return r.resolve(a, true)
	case ActionAutoCheck:
		return r.resolve(a, false)
	case ActionNextTurn:
		return r.session.NextTurn(a.ActorID, now)
	case ActionEnd:
		return r.session.End(a.ActorID)
	case ActionLeave:
		return r.reconnector.Leave(a.ActorID), nil
	default:
		return nil, reject(RejectBadPayload, "unknown action")
	}
}

// resolve runs the classifier and feeds its verdict to the session.
// The call blocks this room only, and the bridge's hard timeout keeps a
// stalled classifier from wedging the queue.
func (r *Room) resolve(a Action, explicit bool) ([]Event, *Rejection) {
	s := r.session
	if s.Status != StatusPlaying {
		return nil, reject(RejectBadState, "no round in progress")
	}
	if explicit && a.ActorID != s.CurrentDrawerID {
		return nil, reject(RejectBadActor, "only the current drawer can submit the sketch")
	}
	if a.ImageData == "" {
		return nil, reject(RejectBadPayload, "missing image data")
	}
	result := r.classifier.Classify(context.Background(), a.ImageData, s.CurrentWord)
	return s.ResolveRecognition(a.ActorID, result, explicit, r.now())
}

// syncTimer keeps exactly one armed timer matching the current round.
// Generations make a fire from an already-ended round a no-op.
func (r *Room) syncTimer() {
	s := r.session
	if s.Status != StatusPlaying {
		r.cancelTimer()
		return
	}
	gen := s.TimerGeneration()
	if r.roundTimer != nil && r.armedGen == gen {
		return
	}
	r.cancelTimer()
	remaining := s.RoundStartedAt.Add(s.RoundTimeLimit).Sub(r.now())
	if remaining < 0 {
		remaining = 0
	}
	r.armedGen = gen
	r.roundTimer = time.AfterFunc(remaining, func() {
		r.post(envelope{kind: envTimer, gen: gen})
	})
}

func (r *Room) cancelTimer() {
	if r.roundTimer != nil {
		r.roundTimer.Stop()
		r.roundTimer = nil
	}
}

func (r *Room) post(env envelope) {
	defer func() {
		// The room may have shut down between the timer firing and the
		// send; a late fire is dropped, not a crash.
		if recover() != nil {
			log.Printf("[room %s] dropped event after shutdown", r.ID)
		}
	}()
	r.inbox <- env
}

// submit queues an envelope, reporting false when the room is gone or
// the context expires first. Sends can race Stop closing the inbox.
func (r *Room) submit(ctx context.Context, env envelope) (accepted bool) {
	defer func() {
		if recover() != nil {
			accepted = false
		}
	}()
	select {
	case r.inbox <- env:
		return true
	case <-ctx.Done():
		return false
	}
}

// Do submits an action and waits for its acceptance or rejection.
func (r *Room) Do(ctx context.Context, a Action) *Rejection {
	reply := make(chan *Rejection, 1)
	if !r.submit(ctx, envelope{kind: envAction, action: a, reply: reply}) {
		return reject(RejectBadState, "room is not accepting actions")
	}
	select {
	case rej := <-reply:
		return rej
	case <-ctx.Done():
		return reject(RejectBadState, "room is not accepting actions")
	}
}

// Join admits a player to the room.
func (r *Room) Join(ctx context.Context, userID uint, username string) *Rejection {
	reply := make(chan *Rejection, 1)
	if !r.submit(ctx, envelope{kind: envJoin, userID: userID, username: username, reply: reply}) {
		return reject(RejectBadState, "room is not accepting players")
	}
	select {
	case rej := <-reply:
		return rej
	case <-ctx.Done():
		return reject(RejectBadState, "room is not accepting players")
	}
}

// Disconnect reports a dropped connection. Fire and forget: the roster
// keeps the player for a possible reconnect.
func (r *Room) Disconnect(userID uint) {
	r.post(envelope{kind: envDisconnect, userID: userID})
}

// Stop shuts the room down. Pending inbox entries are discarded.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		r.post(envelope{kind: envStop})
		close(r.inbox)
	})
}
