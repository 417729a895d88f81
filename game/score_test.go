package game

import (
	"testing"
	"time"
)

func TestGuessPoints(t *testing.T) {
	limit := 60 * time.Second
	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"instant guess", 0, 100},
		{"at the limit", 60 * time.Second, 50},
		{"ten seconds in", 10 * time.Second, 92},
		{"halfway", 30 * time.Second, 75},
		{"past the limit", 90 * time.Second, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GuessPoints(tt.elapsed, limit); got != tt.want {
				t.Errorf("GuessPoints(%v, %v) = %d, want %d", tt.elapsed, limit, got, tt.want)
			}
		})
	}

	if got := GuessPoints(10*time.Second, 0); got != 0 {
		t.Errorf("GuessPoints with zero limit = %d, want 0", got)
	}
}

func TestDrawerBonus(t *testing.T) {
	tests := []struct {
		base int
		want int
	}{
		{100, 50},
		{92, 46},
		{75, 38},
		{0, 0},
	}
	for _, tt := range tests {
		if got := DrawerBonus(tt.base); got != tt.want {
			t.Errorf("DrawerBonus(%d) = %d, want %d", tt.base, got, tt.want)
		}
	}
}

func TestRecognitionPoints(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  int
		explicit bool
		want     int
	}{
		{"fast auto", 5, false, 10},
		{"fast explicit", 5, true, 13},
		{"under twenty", 15, false, 7},
		{"under forty", 25, false, 5},
		{"under sixty", 45, false, 3},
		{"too slow", 75, false, 0},
		{"too slow explicit still gets bonus", 75, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecognitionPoints(tt.elapsed, tt.explicit); got != tt.want {
				t.Errorf("RecognitionPoints(%d, %v) = %d, want %d", tt.elapsed, tt.explicit, got, tt.want)
			}
		})
	}
}
