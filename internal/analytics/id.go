package analytics

import (
	"database/sql"

	"github.com/google/uuid"
)

const idKey = "analytics:install_id"

// GetOrCreateID returns the installation ID, generating one on first use.
// The ID is a UUIDv4 kept in the kv table next to the rest of the
// analytics state, so wiping the database also resets the identity.
func GetOrCreateID(conn *sql.DB) (string, error) {
	if v, ok := getKV(conn, idKey); ok && isValidUUID(v) {
		return v, nil
	}

	// Missing or corrupt value, mint a fresh one.
	id := uuid.New().String()
	if _, err := conn.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		idKey, id,
	); err != nil {
		return "", err
	}
	return id, nil
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
