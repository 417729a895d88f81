package schema

import "gorm.io/gorm"

// WordUsage counts how often a pool word was offered and how often it
// was guessed, feeding the word statistics endpoint.
type WordUsage struct {
	gorm.Model
	Word    string `gorm:"uniqueIndex"`
	Offered int
	Guessed int
}
