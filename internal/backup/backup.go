// Package backup exports and imports task archives using age encryption.
// An archive is a JSON document wrapped in an armored, passphrase-encrypted
// (age scrypt) envelope, so it is safe to store or transfer as plain text.
//
// Archives carry no user IDs: an import stamps every task with the importing
// user. File writes are atomic: data is written to a temp file, fsync'd, then
// renamed into place to prevent corruption on crash.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/rnwolfe/triage/internal/task"
)

// ErrWrongPassphrase is returned when decryption fails due to a bad passphrase.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// ErrCorruptArchive is returned when an archive exists but cannot be parsed.
var ErrCorruptArchive = errors.New("archive is corrupted or unreadable")

// archiveVersion is the current on-disk format version. Readers accept only
// versions they know how to parse.
const archiveVersion = 1

// archive is the plaintext JSON inside the age envelope.
type archive struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exported_at"`
	Tasks      []archiveTask `json:"tasks"`
}

// archiveTask is the wire form of a task. User IDs are deliberately absent.
type archiveTask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Priority    string     `json:"priority"`
	Deadline    time.Time  `json:"deadline"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Export encrypts the given tasks with the passphrase and writes the armored
// archive to w.
func Export(w io.Writer, tasks []task.Task, passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}

	doc := archive{
		Version:    archiveVersion,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Tasks:      make([]archiveTask, 0, len(tasks)),
	}
	for _, t := range tasks {
		doc.Tasks = append(doc.Tasks, archiveTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Category:    t.Category,
			Priority:    t.Priority.String(),
			Deadline:    t.Deadline,
			Completed:   t.Completed,
			CompletedAt: t.CompletedAt,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		})
	}

	raw, err := encryptArchive(&doc, passphrase)
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return nil
}

// ExportFile writes an encrypted archive to path atomically.
func ExportFile(path string, tasks []task.Task, passphrase string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	var buf bytes.Buffer
	if err := Export(&buf, tasks, passphrase); err != nil {
		return err
	}
	return atomicWrite(path, buf.Bytes())
}

// Import decrypts an armored archive from r and returns its tasks. The
// returned tasks carry no user ID; the caller stamps one before storing
// them. Returns ErrWrongPassphrase or ErrCorruptArchive on failure.
func Import(r io.Reader, passphrase string) ([]task.Task, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase must not be empty")
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	doc, err := decryptArchive(raw, passphrase)
	if err != nil {
		return nil, err
	}

	tasks := make([]task.Task, 0, len(doc.Tasks))
	for i, at := range doc.Tasks {
		t, err := fromArchive(at)
		if err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", ErrCorruptArchive, i, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// ImportFile reads an encrypted archive from path.
func ImportFile(path, passphrase string) ([]task.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	return Import(f, passphrase)
}

// fromArchive validates one wire task and converts it to the domain type.
func fromArchive(at archiveTask) (task.Task, error) {
	if strings.TrimSpace(at.Title) == "" {
		return task.Task{}, fmt.Errorf("missing title")
	}
	p, err := task.ParsePriority(at.Priority)
	if err != nil {
		return task.Task{}, err
	}
	if at.Deadline.IsZero() {
		return task.Task{}, fmt.Errorf("missing deadline")
	}

	return task.Task{
		ID:          at.ID,
		Title:       at.Title,
		Description: at.Description,
		Category:    at.Category,
		Priority:    p,
		Deadline:    at.Deadline,
		Completed:   at.Completed,
		CompletedAt: at.CompletedAt,
		CreatedAt:   at.CreatedAt,
		UpdatedAt:   at.UpdatedAt,
	}, nil
}

// encryptArchive serializes and encrypts an archive using age scrypt.
func encryptArchive(doc *archive, passphrase string) ([]byte, error) {
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializing archive: %w", err)
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating age recipient: %w", err)
	}

	var buf bytes.Buffer
	armorWriter := armor.NewWriter(&buf)

	w, err := age.Encrypt(armorWriter, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing age encryption: %w", err)
	}

	if _, err := w.Write(jsonBytes); err != nil {
		return nil, fmt.Errorf("encrypting archive: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}

	return buf.Bytes(), nil
}

// decryptArchive decrypts and deserializes an armored archive.
func decryptArchive(raw []byte, passphrase string) (*archive, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating age identity: %w", err)
	}

	armorReader := armor.NewReader(bytes.NewReader(raw))
	r, err := age.Decrypt(armorReader, identity)
	if err != nil {
		// filippo.io/age does not export typed errors for wrong passphrase (as of v1.x).
		// We detect it by matching known error message substrings. This is fragile:
		// if the library changes its error wording, wrong passphrases will silently
		// fall through to ErrCorruptArchive. Revisit if age exports typed errors in
		// a future release.
		msg := err.Error()
		if strings.Contains(msg, "no identity matched") || strings.Contains(msg, "incorrect") {
			return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading decrypted data: %v", ErrCorruptArchive, err)
	}

	var doc archive
	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing archive JSON: %v", ErrCorruptArchive, err)
	}
	if doc.Version != archiveVersion {
		return nil, fmt.Errorf("%w: unsupported archive version %d", ErrCorruptArchive, doc.Version)
	}
	return &doc, nil
}

// atomicWrite writes data to path atomically: write temp file, fsync, rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".backup-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	// Ensure cleanup on failure.
	success := false
	defer func() {
		if !success {
			os.Remove(tmpName)
		}
	}()

	if err := os.Chmod(tmpName, 0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting temp file permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing archive data: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsyncing archive data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("committing archive file: %w", err)
	}

	success = true
	return nil
}
