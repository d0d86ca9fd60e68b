// Package backup reads and writes the JSON backup document and renders the
// expense report workbook.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"mesrof/internal/core"
)

var ErrMalformedBackup = errors.New("malformed backup")

// sections of which at least one must be present in a backup.
var requiredSections = []string{"expenses", "financial_goals", "user_settings"}

// FileName is the default name of a backup written at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("mesrof_backup_%s.json", now.UTC().Format("2006-01-02"))
}

// Encode writes b as indented JSON.
func Encode(w io.Writer, b *core.Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Decode parses a backup document. The document must be a JSON object with
// at least one of expenses, financial_goals or user_settings. Records are
// decoded into their typed form, so malformed dates or amounts are rejected
// here, before anything touches the store.
func Decode(r io.Reader) (*core.Backup, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	if !hasSection(sections) {
		return nil, fmt.Errorf("%w: none of %v present", ErrMalformedBackup, requiredSections)
	}

	var b core.Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	return &b, nil
}

func hasSection(sections map[string]json.RawMessage) bool {
	for _, key := range requiredSections {
		raw, ok := sections[key]
		if ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return true
		}
	}
	return false
}

// WriteFile stores the backup under dir with FileName(now) and returns the
// path written.
func WriteFile(dir string, b *core.Backup, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	return path, writeTo(path, b)
}

// WriteTo stores the backup at an explicit path.
func WriteTo(path string, b *core.Backup) error {
	return writeTo(path, b)
}

func writeTo(path string, b *core.Backup) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	if err := Encode(f, b); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close backup file: %w", err)
	}
	return nil
}

func ReadFile(path string) (*core.Backup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
