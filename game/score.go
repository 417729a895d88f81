package game

import (
	"math"
	"time"
)

// GuessPoints converts the time a guesser took into points. A guess the
// instant the round starts is worth 100, one at the time limit 50, and
// the result is clamped to [0, 100].
func GuessPoints(elapsed, limit time.Duration) int {
	if limit <= 0 {
		return 0
	}
	frac := 1 - float64(elapsed.Milliseconds())/float64(limit.Milliseconds())
	points := 50 + int(math.Round(50*frac))
	if points < 0 {
		return 0
	}
	if points > 100 {
		return 100
	}
	return points
}

// DrawerBonus is added to the drawer's score once per correct guesser.
func DrawerBonus(basePoints int) int {
	return int(math.Round(float64(basePoints) / 2))
}

// RecognitionPoints rewards the drawer when the classifier's top label
// matched the round's word, tiered by how quickly the sketch became
// recognizable. Explicit early submissions earn a flat bonus on top.
func RecognitionPoints(elapsedSeconds int, explicit bool) int {
	var points int
	switch {
	case elapsedSeconds < 10:
		points = 10
	case elapsedSeconds < 20:
		points = 7
	case elapsedSeconds < 40:
		points = 5
	case elapsedSeconds < 60:
		points = 3
	default:
		points = 0
	}
	if explicit {
		points += 3
	}
	return points
}
