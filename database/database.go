package database

import (
	"fmt"

	"github.com/pelltigre/sketchparty/game"
	"github.com/pelltigre/sketchparty/schema"
	"github.com/pelltigre/sketchparty/server/containers"
	"gonum.org/v1/gonum/stat"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type ErrorType int

const (
	InsertError ErrorType = iota
	ConflictError
	OpenError
	MigrateError
	UpdateError
	QueryError
)

type DatabaseError struct {
	ErrorType ErrorType
	msg       error
}

func (e *DatabaseError) Error() string {
	return e.msg.Error()
}

func newMigrateError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: MigrateError,
		msg:       fmt.Errorf("database migrate error: %w", err),
	}
}

func newConflictError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: ConflictError,
		msg:       fmt.Errorf("database create error: %w", err),
	}
}

func newOpenError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: OpenError,
		msg:       fmt.Errorf("database open error: %w", err),
	}
}

func newInsertError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: InsertError,
		msg:       fmt.Errorf("database insert error: %w", err),
	}
}

func newUpdateError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: UpdateError,
		msg:       fmt.Errorf("database update error: %w", err),
	}
}

func newQueryError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: QueryError,
		msg:       fmt.Errorf("database query error: %w", err),
	}
}

func Open(dsn string) (*gorm.DB, *DatabaseError) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, newOpenError(err)
	}
	return db, nil
}

func Automigrate(db *gorm.DB) *DatabaseError {
	if err := db.AutoMigrate(&schema.User{}); err != nil {
		return newMigrateError(fmt.Errorf("schema user, %w", err))
	}
	if err := db.AutoMigrate(&schema.Session{}); err != nil {
		return newMigrateError(fmt.Errorf("schema session, %w", err))
	}
	if err := db.AutoMigrate(&schema.SessionPlayer{}); err != nil {
		return newMigrateError(fmt.Errorf("schema session player, %w", err))
	}
	if err := db.AutoMigrate(&schema.WordUsage{}); err != nil {
		return newMigrateError(fmt.Errorf("schema word usage, %w", err))
	}
	return nil
}

func AddUser(db *gorm.DB, user *schema.User) (uint, *DatabaseError) {
	if _, err := GetUserByEmail(db, user.Email); err == nil {
		return 0, newConflictError(fmt.Errorf("user with that email already exists"))
	}
	if err := db.Create(user).Error; err != nil {
		return 0, newInsertError(err)
	}
	return user.ID, nil
}

func GetUserByID(db *gorm.DB, id uint) (*schema.User, *DatabaseError) {
	var user schema.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, newQueryError(err)
	}
	return &user, nil
}

func GetUserByEmail(db *gorm.DB, email string) (*schema.User, *DatabaseError) {
	var user schema.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, newQueryError(err)
	}
	return &user, nil
}

func UpdateUser(db *gorm.DB, id uint, password []byte, username string) *DatabaseError {
	return newUpdateError(
		db.Model(&schema.User{}).
			Where("id = ?", id).
			Update("password", password).
			Update("username", username).Error,
	)
}

func UpdateUserUsername(db *gorm.DB, id uint, username string) *DatabaseError {
	return newUpdateError(
		db.Model(&schema.User{}).
			Where("id = ?", id).
			Update("username", username).Error)
}

// SaveFinishedSession writes a finished game and every player's final
// standing in one transaction.
func SaveFinishedSession(db *gorm.DB, roomID string, hostID uint, rounds, timerSecs int, reason string, results []game.PlayerResult, winners map[uint]bool) *DatabaseError {
	return newInsertError(db.Transaction(func(tx *gorm.DB) error {
		record := &schema.Session{
			RoomID:    roomID,
			HostID:    hostID,
			Rounds:    rounds,
			TimerSecs: timerSecs,
			EndReason: reason,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		for _, r := range results {
			player := schema.SessionPlayer{
				SessionID:    record.ID,
				UserID:       r.UserID,
				Score:        r.Score,
				CorrectCount: r.CorrectGuessCount,
				Won:          winners[r.UserID],
			}
			if err := tx.Create(&player).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

// RecordWordOffered bumps the offered counter for each word.
func RecordWordOffered(db *gorm.DB, words []string) *DatabaseError {
	for _, w := range words {
		usage := schema.WordUsage{Word: w}
		if err := db.Where("word = ?", w).FirstOrCreate(&usage).Error; err != nil {
			return newQueryError(err)
		}
		if err := db.Model(&usage).Update("offered", gorm.Expr("offered + 1")).Error; err != nil {
			return newUpdateError(err)
		}
	}
	return nil
}

// RecordWordGuessed bumps the guessed counter for a word.
func RecordWordGuessed(db *gorm.DB, word string) *DatabaseError {
	usage := schema.WordUsage{Word: word}
	if err := db.Where("word = ?", word).FirstOrCreate(&usage).Error; err != nil {
		return newQueryError(err)
	}
	if err := db.Model(&usage).Update("guessed", gorm.Expr("guessed + 1")).Error; err != nil {
		return newUpdateError(err)
	}
	return nil
}

// GetUserStatistics aggregates a player's history: games played, wins,
// and the spread of their final scores.
func GetUserStatistics(db *gorm.DB, id uint) (containers.Statistics, *DatabaseError) {
	var rows []schema.SessionPlayer
	if err := db.Where("user_id = ?", id).Find(&rows).Error; err != nil {
		return containers.Statistics{}, newQueryError(err)
	}

	scores := make([]float64, 0, len(rows))
	var wins int64
	for _, r := range rows {
		scores = append(scores, float64(r.Score))
		if r.Won {
			wins++
		}
	}

	stats := containers.Statistics{
		GamesPlayed:  int64(len(rows)),
		NumberOfWins: wins,
	}
	if len(scores) > 0 {
		mean, std := stat.MeanStdDev(scores, nil)
		stats.MeanScore = mean
		if len(scores) > 1 {
			stats.ScoreStdDev = std
		}
	}

	var topWords []containers.Word
	if err := db.Model(&schema.WordUsage{}).
		Select("word, guessed as count").
		Order("guessed desc").
		Limit(5).
		Scan(&topWords).Error; err != nil {
		return containers.Statistics{}, newQueryError(err)
	}
	stats.TopWords = topWords
	return stats, nil
}
