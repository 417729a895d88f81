package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		target string
		want   bool
	}{
		{"exact", "apple", "apple", true},
		{"case and whitespace", "HOUSE", " house ", true},
		{"single typo on long word", "aple", "apple", true},
		{"substitution on long word", "housr", "house", true},
		{"two edits are too many", "aple", "apples", false},
		{"completely different", "banana", "apple", false},
		{"short word no tolerance", "cat", "car", false},
		{"short word exact still works", "cat", "cat", true},
		{"empty guess", "", "apple", false},
		{"empty target", "apple", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.guess, tt.target))
		})
	}
}

func TestHint(t *testing.T) {
	assert.Equal(t, "_____", Hint("house"))
	assert.Equal(t, "___ ___", Hint("ice box"))
	assert.Equal(t, "_-_____", Hint("t-shirt"))
}
