package containers

import (
	"encoding/json"
	"fmt"

	"github.com/pelltigre/sketchparty/game"
)

// ActionMessage is the inbound websocket wire format: a type tag plus a
// per-type payload.
type ActionMessage struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

type InitializeMsg struct {
	Rounds           int `json:"rounds"`
	TimeLimitSeconds int `json:"timeLimitSeconds"`
}

type StartMsg struct {
	Word string `json:"word"`
}

type GuessMsg struct {
	Guess string `json:"guess"`
}

type SubmitMsg struct {
	ImageData string `json:"imageData"`
}

// ToAction converts a wire message from the given player into a game
// action. Unknown types and malformed payloads are reported back to the
// sender, never forwarded to the room.
func (m ActionMessage) ToAction(userID uint) (game.Action, error) {
	action := game.Action{ActorID: userID}
	switch game.ActionType(m.Type) {
	case game.ActionInitialize:
		var p InitializeMsg
		if err := json.Unmarshal(m.Msg, &p); err != nil {
			return action, fmt.Errorf("bad initialize payload: %w", err)
		}
		action.Type = game.ActionInitialize
		action.Rounds = p.Rounds
		action.TimeLimitSecs = p.TimeLimitSeconds
	case game.ActionStart:
		var p StartMsg
		if err := json.Unmarshal(m.Msg, &p); err != nil {
			return action, fmt.Errorf("bad start payload: %w", err)
		}
		action.Type = game.ActionStart
		action.Word = p.Word
	case game.ActionGuess:
		var p GuessMsg
		if err := json.Unmarshal(m.Msg, &p); err != nil {
			return action, fmt.Errorf("bad guess payload: %w", err)
		}
		action.Type = game.ActionGuess
		action.Guess = p.Guess
	case game.ActionSubmit, game.ActionAutoCheck:
		var p SubmitMsg
		if err := json.Unmarshal(m.Msg, &p); err != nil {
			return action, fmt.Errorf("bad submit payload: %w", err)
		}
		action.Type = game.ActionType(m.Type)
		action.ImageData = p.ImageData
	case game.ActionNextTurn, game.ActionEnd, game.ActionLeave:
		action.Type = game.ActionType(m.Type)
	default:
		return action, fmt.Errorf("unknown action type %q", m.Type)
	}
	return action, nil
}

// Notification is the outbound wire format mirroring game.Event.
type Notification struct {
	Type game.EventType `json:"type"`
	Msg  interface{}    `json:"msg"`
}

func EncodeEvent(e game.Event) ([]byte, error) {
	return json.Marshal(Notification{Type: e.Type, Msg: e.Msg})
}

func EncodeRejection(rej *game.Rejection) ([]byte, error) {
	return json.Marshal(Notification{Type: game.EventError, Msg: rej})
}
