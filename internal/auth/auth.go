// Package auth issues and verifies the identities that scope every task
// operation. Accounts and sessions live in the shared SQLite database;
// the active session token for the CLI is kept in a user-only file under
// the XDG state dir.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for credential and session failures.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotLoggedIn        = errors.New("not logged in")
)

// sessionTTL is how long a login stays valid.
const sessionTTL = 30 * 24 * time.Hour

// Identity is an authenticated user. UserID is the opaque scope passed
// to every task store call.
type Identity struct {
	UserID   string
	Username string
}

// Session is a login token with its expiry.
type Session struct {
	Token     string
	Identity  Identity
	ExpiresAt time.Time
}

// Provider authenticates users and issues sessions.
type Provider interface {
	Register(ctx context.Context, username, password string) (Identity, error)
	Login(ctx context.Context, username, password string) (Session, error)
	Verify(ctx context.Context, token string) (Identity, error)
	Logout(ctx context.Context, token string) error
}

// LocalProvider stores accounts (bcrypt password hashes) and sessions in
// the shared SQLite database.
type LocalProvider struct {
	db *sql.DB
}

// NewLocalProvider wraps an open database connection.
func NewLocalProvider(db *sql.DB) *LocalProvider {
	return &LocalProvider{db: db}
}

// Register creates a new account. Usernames are case-insensitive.
func (p *LocalProvider) Register(ctx context.Context, username, password string) (Identity, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if err := validateUsername(username); err != nil {
		return Identity{}, err
	}
	if len(password) < 8 {
		return Identity{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("hashing password: %w", err)
	}

	id := uuid.NewString()
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, username, string(hash), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return Identity{}, fmt.Errorf("%q: %w", username, ErrUsernameTaken)
		}
		return Identity{}, fmt.Errorf("creating user: %w", err)
	}

	return Identity{UserID: id, Username: username}, nil
}

// Login checks the credentials and issues a fresh session. Unknown
// usernames and wrong passwords both come back as ErrInvalidCredentials.
func (p *LocalProvider) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	var id, hash string
	err := p.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE username = ?`, username,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("looking up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	sess := Session{
		Token:     uuid.NewString(),
		Identity:  Identity{UserID: id, Username: username},
		ExpiresAt: now.Add(sessionTTL),
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sess.Token, id, now.Format(time.RFC3339), sess.ExpiresAt.Format(time.RFC3339),
	)
	if err != nil {
		return Session{}, fmt.Errorf("creating session: %w", err)
	}

	return sess, nil
}

// Verify resolves a session token to its identity. Expired sessions are
// removed on sight.
func (p *LocalProvider) Verify(ctx context.Context, token string) (Identity, error) {
	var userID, username, expiresStr string
	err := p.db.QueryRowContext(ctx,
		`SELECT s.user_id, u.username, s.expires_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.token = ?`,
		token,
	).Scan(&userID, &username, &expiresStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrNotLoggedIn
	}
	if err != nil {
		return Identity{}, fmt.Errorf("looking up session: %w", err)
	}

	expires, err := time.Parse(time.RFC3339, expiresStr)
	if err != nil || time.Now().After(expires) {
		p.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return Identity{}, ErrSessionExpired
	}

	return Identity{UserID: userID, Username: username}, nil
}

// Logout revokes a session. Revoking an unknown token is not an error.
func (p *LocalProvider) Logout(ctx context.Context, token string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// validateUsername enforces the account naming rules: 2-32 characters,
// lowercase letters, digits, dots, dashes and underscores.
func validateUsername(username string) error {
	if len(username) < 2 || len(username) > 32 {
		return errors.New("username must be 2-32 characters")
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '_':
		default:
			return fmt.Errorf("username contains invalid character %q", r)
		}
	}
	return nil
}
