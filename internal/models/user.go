package models

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type RegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	SessionID string `json:"session_id"`
}

type LoginRequest struct {
	// Identifier is an email address or a phone number.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	SessionID  string `json:"session_id"`
}

type AuthResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *User            `json:"user"`
	Migration *MigrationResult `json:"migration,omitempty"`
}
