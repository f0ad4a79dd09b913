// Package analytics provides lightweight, anonymous usage tracking for triage.
//
// Analytics are enabled by default and can be opted out via config:
//
//	triage config set analytics false
//
// An event carries: installation ID (random UUID), triage version, OS/arch,
// command name (not arguments), and date (day granularity). No task content,
// usernames or PII is ever sent. Pings are fire-and-forget: non-blocking,
// fail silently, and deduplicated daily per command.
package analytics

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/rnwolfe/triage/internal/ui"
	"github.com/rnwolfe/triage/internal/version"
)

// DefaultEndpoint is the analytics ingest URL.
// Override with TRIAGE_ANALYTICS_ENDPOINT env var for testing.
const DefaultEndpoint = "https://analytics.triage.rwolfe.io/v1/events"

const appName = "triage"

// Event is one usage record sent to the ingest endpoint.
type Event struct {
	App       string `json:"app"`
	InstallID string `json:"install_id"`
	Version   string `json:"version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Command   string `json:"command"`
	Date      string `json:"date"`
}

// NewEvent builds the event for one command invocation.
func NewEvent(installID, command string) Event {
	return Event{
		App:       appName,
		InstallID: installID,
		Version:   version.Short(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Command:   command,
		Date:      time.Now().Format("2006-01-02"),
	}
}

// client keeps a short timeout so a slow endpoint never holds up a command.
var client = &http.Client{
	Timeout: 2 * time.Second,
}

// Ping sends a usage event for the given command. Designed to run in a
// goroutine; every failure mode is silent. A command that already pinged
// today is skipped, and the dedup marker is only written after the
// endpoint accepts the event, so transient server errors retry tomorrow's
// sibling instead of going dark.
func Ping(conn *sql.DB, command string, enabled bool, endpoint string) {
	if !enabled {
		return
	}

	today := time.Now().Format("2006-01-02")
	key := fmt.Sprintf("analytics:last_ping:%s", command)
	if lastPingDay(conn, key) == today {
		return
	}

	installID, err := GetOrCreateID(conn)
	if err != nil {
		return
	}

	body, err := json.Marshal(NewEvent(installID, command))
	if err != nil {
		return
	}

	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return
	}

	setKV(conn, key, today)
}

const noticeKey = "analytics:notice_shown"

// MaybeShowNotice prints the one-time privacy notice to w and remembers
// that it was shown. Subsequent calls are no-ops.
func MaybeShowNotice(conn *sql.DB, w io.Writer) {
	if v, ok := getKV(conn, noticeKey); ok && v == "true" {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.Muted.Render("  triage sends anonymous usage stats (command names, version, OS) to help"))
	fmt.Fprintln(w, ui.Muted.Render("  improve the tool. No task content or personal data is ever collected."))
	fmt.Fprintf(w, "  Opt out anytime: %s\n", ui.Accent.Render("triage config set analytics false"))
	fmt.Fprintln(w)

	// Marked only after the notice actually went out.
	setKV(conn, noticeKey, "true")
}

func lastPingDay(conn *sql.DB, key string) string {
	v, _ := getKV(conn, key)
	return v
}

func getKV(conn *sql.DB, key string) (string, bool) {
	var v string
	if err := conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v); err != nil {
		return "", false
	}
	return v, true
}

func setKV(conn *sql.DB, key, value string) {
	_, _ = conn.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
}
