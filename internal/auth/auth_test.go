package auth

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}

	_, err = db.Exec(`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`CREATE TABLE sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatal(err)
	}

	return db
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	p := NewLocalProvider(db)
	ctx := context.Background()

	ident, err := p.Register(ctx, "Alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if ident.UserID == "" {
		t.Fatal("expected a user ID")
	}
	if ident.Username != "alice" {
		t.Errorf("expected normalized username 'alice', got %q", ident.Username)
	}

	if _, err := p.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	sess, err := p.Login(ctx, "ALICE", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected a session token")
	}
	if sess.Identity.UserID != ident.UserID {
		t.Errorf("expected identity %q, got %q", ident.UserID, sess.Identity.UserID)
	}

	got, err := p.Verify(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if got.UserID != ident.UserID || got.Username != "alice" {
		t.Errorf("Verify returned wrong identity: %+v", got)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	p := NewLocalProvider(db)
	ctx := context.Background()

	if _, err := p.Register(ctx, "bob", "secretsecret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := p.Register(ctx, "Bob", "othersecret1"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	p := NewLocalProvider(db)
	ctx := context.Background()

	cases := []struct {
		username string
		password string
	}{
		{"x", "longenough123"},        // too short
		{"has spaces", "longenough1"}, // invalid character
		{"bob!", "longenough123"},     // invalid character
		{"bob", "short"},              // password too short
	}
	for _, tc := range cases {
		if _, err := p.Register(ctx, tc.username, tc.password); err == nil {
			t.Errorf("Register(%q, %q): expected an error", tc.username, tc.password)
		}
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	p := NewLocalProvider(db)

	if _, err := p.Login(context.Background(), "nobody", "whatever123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerify_UnknownToken(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	p := NewLocalProvider(db)

	if _, err := p.Verify(context.Background(), "bogus-token"); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestVerify_ExpiredSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	p := NewLocalProvider(db)
	ctx := context.Background()

	ident, err := p.Register(ctx, "carol", "secretsecret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Plant a session that expired an hour ago.
	past := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	if _, err := db.Exec(
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		"stale-token", ident.UserID, past, past,
	); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Verify(ctx, "stale-token"); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
	// Expired sessions are removed, so a retry reads as logged out.
	if _, err := p.Verify(ctx, "stale-token"); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn after cleanup, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	p := NewLocalProvider(db)
	ctx := context.Background()

	if _, err := p.Register(ctx, "dave", "secretsecret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	sess, err := p.Login(ctx, "dave", "secretsecret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := p.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := p.Verify(ctx, sess.Token); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn after logout, got %v", err)
	}
	// Logging out twice is fine.
	if err := p.Logout(ctx, sess.Token); err != nil {
		t.Errorf("second Logout failed: %v", err)
	}
}

func TestSessionFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session")

	if err := SaveSessionToken(path, "token-123"); err != nil {
		t.Fatalf("SaveSessionToken failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file missing: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("expected mode 0600, got %o", mode)
	}

	token, err := LoadSessionToken(path)
	if err != nil {
		t.Fatalf("LoadSessionToken failed: %v", err)
	}
	if token != "token-123" {
		t.Errorf("expected token-123, got %q", token)
	}

	if err := ClearSessionToken(path); err != nil {
		t.Fatalf("ClearSessionToken failed: %v", err)
	}
	if _, err := LoadSessionToken(path); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn after clear, got %v", err)
	}
	// Clearing twice is fine.
	if err := ClearSessionToken(path); err != nil {
		t.Errorf("second ClearSessionToken failed: %v", err)
	}
}
