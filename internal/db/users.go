package db

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a publisher account
type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUser creates a new publisher account
func (db *DB) CreateUser(username, password string) (*User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at, is_active`

	var user User
	if err := db.Get(&user, query, username, string(hashedPassword)); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves an active user by username
func (db *DB) GetUserByUsername(username string) (*User, error) {
	query := `
		SELECT id, username, password_hash, created_at, is_active
		FROM users
		WHERE username = $1 AND is_active = true`

	var user User
	if err := db.Get(&user, query, username); err != nil {
		return nil, err
	}
	return &user, nil
}

// ValidatePassword checks if the provided password matches the user's hash
func (db *DB) ValidatePassword(user *User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}
