package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/studydeck/internal/models"
)

// ErrUsernameTaken is returned by CreateUser when the username already exists.
var ErrUsernameTaken = errors.New("username already exists")

// CreateUser stores a new user with an already hashed PIN.
func (db *DB) CreateUser(username, pinHash string) (*models.User, error) {
	u := &models.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.conn.Exec(
		`INSERT INTO users (id, username, pin_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, pinHash, formatTime(u.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// GetCredentials returns the user and PIN hash for a username, or nil if unknown.
func (db *DB) GetCredentials(username string) (*Credentials, error) {
	row := db.conn.QueryRow(
		`SELECT id, username, pin_hash, created_at, last_login FROM users WHERE username = ?`,
		username,
	)
	var c Credentials
	u, err := scanUser(row, &c.PINHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.User = *u
	return &c, nil
}

// GetUser returns a user by id, or nil if unknown.
func (db *DB) GetUser(id string) (*models.User, error) {
	row := db.conn.QueryRow(
		`SELECT id, username, pin_hash, created_at, last_login FROM users WHERE id = ?`, id,
	)
	var hash string
	u, err := scanUser(row, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// UpdateLastLogin stamps the user's last successful login.
func (db *DB) UpdateLastLogin(id string, at time.Time) error {
	_, err := db.conn.Exec("UPDATE users SET last_login = ? WHERE id = ?", formatTime(at), id)
	return err
}

// CountUsers returns the number of registered users.
func (db *DB) CountUsers() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func scanUser(row *sql.Row, pinHash *string) (*models.User, error) {
	var u models.User
	var created string
	var lastLogin *string
	if err := row.Scan(&u.ID, &u.Username, pinHash, &created, &lastLogin); err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(created)
	if lastLogin != nil {
		u.LastLogin = parseTime(*lastLogin)
	}
	return &u, nil
}
