package schema

import "gorm.io/gorm"

// Session is the persisted record of a finished game.
type Session struct {
	gorm.Model
	RoomID      string `gorm:"index"`
	HostID      uint
	Rounds      int
	TimerSecs   int
	EndReason   string
	Players     []SessionPlayer `gorm:"foreignKey:SessionID"`
	Host        User            `gorm:"foreignKey:HostID"`
}

// SessionPlayer is one player's final standing in a finished session.
type SessionPlayer struct {
	gorm.Model
	SessionID    uint `gorm:"index"`
	UserID       uint
	Score        int
	CorrectCount int
	Won          bool
	User         User `gorm:"foreignKey:UserID"`
}
