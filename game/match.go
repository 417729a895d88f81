package game

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Matches reports whether a guess should count as the target word.
// Comparison is case-insensitive and ignores surrounding whitespace.
// Words longer than 4 letters tolerate a single typo; short words do
// not, since a one-edit fix could land on an unrelated word.
func Matches(guess, target string) bool {
	guess = strings.ToLower(strings.TrimSpace(guess))
	target = strings.ToLower(strings.TrimSpace(target))
	if guess == "" || target == "" {
		return false
	}
	if guess == target {
		return true
	}
	if len(target) <= 4 {
		return false
	}
	return levenshtein.ComputeDistance(guess, target) <= 1
}
