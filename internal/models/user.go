package models

// User is a shop operator allowed to drive the rental API.
type User struct {
	ID           int    `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"` // don’t expose hash
}
