package game

// EventType names an outbound room notification.
type EventType string

const (
	EventSessionInitialized EventType = "session-initialized"
	EventSessionStarted     EventType = "session-started"
	EventWordOptions        EventType = "word-options"
	EventWordHint           EventType = "word-hint"
	EventTurnAdvanced       EventType = "turn-advanced"
	EventGuessCorrect       EventType = "guess-correct"
	EventRoundEnded         EventType = "round-ended"
	EventSessionEnded       EventType = "session-ended"
	EventSnapshot           EventType = "full-state-snapshot"
	EventPlayerJoined       EventType = "player-joined"
	EventPlayerLeft         EventType = "player-left"
	EventPlayerConnection   EventType = "player-connection"
	EventError              EventType = "error"
)

// Event is one notification addressed to a subset of a room's players.
type Event struct {
	Type      EventType   `json:"type"`
	Msg       interface{} `json:"msg"`
	Receivers []uint      `json:"-"`
	RoomID    string      `json:"-"`
}

// RejectionCode classifies why an action was refused without mutating
// session state.
type RejectionCode string

const (
	RejectBadActor       RejectionCode = "bad_actor"
	RejectBadState       RejectionCode = "bad_state"
	RejectBadPayload     RejectionCode = "bad_payload"
	RejectNotInRoom      RejectionCode = "not_in_room"
	RejectWordNotOffered RejectionCode = "word_not_offered"
	RejectTooFewPlayers  RejectionCode = "too_few_players"
)

// Rejection is the structured refusal returned to the acting player
// only. It is not an error: the session simply did not change.
type Rejection struct {
	Code   RejectionCode `json:"code"`
	Reason string        `json:"reason"`
}

func reject(code RejectionCode, reason string) *Rejection {
	return &Rejection{Code: code, Reason: reason}
}

// Payload shapes for the events above. Everything a client needs to
// resynchronize is derivable from SnapshotMsg alone.

type WordOptionsMsg struct {
	Round   int      `json:"round"`
	Options []string `json:"options"`
}

type WordHintMsg struct {
	DrawerID  uint   `json:"drawerId"`
	Drawer    string `json:"drawer"`
	Hint      string `json:"hint"`
	Round     int    `json:"round"`
	TimeLimit int    `json:"timeLimitSeconds"`
}

type GuessCorrectMsg struct {
	UserID    uint   `json:"userId"`
	Username  string `json:"username"`
	Points    int    `json:"points"`
	DrawerGot int    `json:"drawerGot"`
	ElapsedMs int64  `json:"elapsedMs"`
}

type RoundEndedMsg struct {
	Round          int            `json:"round"`
	Word           string         `json:"word"`
	Reason         string         `json:"reason"`
	Recognized     bool           `json:"recognized"`
	DrawerPoints   int            `json:"drawerPoints"`
	CorrectGuesses []CorrectGuess `json:"correctGuesses"`
	Players        []Player       `json:"players"`
	Recognition    interface{}    `json:"recognition,omitempty"`
}

type SessionEndedMsg struct {
	Reason    string         `json:"reason"`
	Results   []PlayerResult `json:"results"`
	Winners   []uint         `json:"winners"`
	HostID    uint           `json:"hostId"`
	Rounds    int            `json:"rounds"`
	TimeLimit int            `json:"timeLimitSeconds"`
}

type PlayerResult struct {
	UserID            uint   `json:"userId"`
	Username          string `json:"username"`
	Score             int    `json:"score"`
	CorrectGuessCount int    `json:"correctGuessCount"`
}

type SnapshotMsg struct {
	RoomID        string   `json:"roomId"`
	Status        Status   `json:"status"`
	Round         int      `json:"round"`
	TotalRounds   int      `json:"totalRounds"`
	TimeLimit     int      `json:"timeLimitSeconds"`
	DrawerID      uint     `json:"drawerId"`
	HostID        uint     `json:"hostId"`
	WordHint      string   `json:"wordHint,omitempty"`
	RemainingSecs int      `json:"remainingSeconds,omitempty"`
	Players       []Player `json:"players"`
}
