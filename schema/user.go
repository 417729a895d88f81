package schema

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Email    string `gorm:"notnull"`
	Password []byte `gorm:"notnull" json:"-"`
	Username string
}
