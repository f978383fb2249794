// Package history owns the persisted, bounded conversation log.
//
// The log is a single JSON array on disk, newest entry first, capped at 50
// records. Every write replaces the whole document through a temp-file
// rename so concurrent readers never observe a torn file. There is no
// cross-process lock: two concurrent appends race on read-modify-write and
// one of them may be lost, which is an accepted trade-off for a best-effort
// cache of past exchanges.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gemcli/internal/classify"
)

// MaxEntries is the hard cap on retained records. Appends beyond the cap
// evict the oldest records.
const MaxEntries = 50

// opaqueSnippetLimit bounds the derived text kept for non-JSON payloads.
const opaqueSnippetLimit = 1000

// Record is one logged prompt/response exchange.
type Record struct {
	Timestamp    string       `json:"timestamp"`
	Model        string       `json:"model"`
	Prompt       string       `json:"prompt"`
	FullResponse ResponseBody `json:"full_response"`
	TextResponse string       `json:"text_response"`
}

// ResponseBody is the full_response tagged union: a parsed JSON tree for
// structured payloads or the raw payload text for opaque ones. Consumers
// must branch on Structured, never assume a single shape.
type ResponseBody struct {
	Structured bool
	Value      any    // set when Structured
	Text       string // set when !Structured
}

// MarshalJSON stores the structured tree as-is and the opaque branch as a
// plain JSON string.
func (b ResponseBody) MarshalJSON() ([]byte, error) {
	if b.Structured {
		return json.Marshal(b.Value)
	}
	return json.Marshal(b.Text)
}

// UnmarshalJSON tags by JSON type: a string is the opaque branch, any other
// shape is the structured branch.
func (b *ResponseBody) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*b = ResponseBody{Text: text}
		return nil
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode full_response: %w", err)
	}
	*b = ResponseBody{Structured: true, Value: value}
	return nil
}

// Store reads and writes the history log file. The path is explicit
// configuration; warnings about recoverable store problems go to diag.
type Store struct {
	path string
	diag io.Writer
	now  func() time.Time
}

// NewStore returns a store backed by the JSON array file at path. A nil
// diag defaults to os.Stderr.
func NewStore(path string, diag io.Writer) *Store {
	if diag == nil {
		diag = os.Stderr
	}
	return &Store{path: path, diag: diag, now: time.Now}
}

// Initialize ensures the backing file exists and is a parseable JSON array.
// An absent file becomes an empty log; an unparseable file is reset to an
// empty log with a warning. Nothing is recoverable from a corrupted file,
// so availability wins over durability here.
func (s *Store) Initialize() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.write(nil)
	}
	if err != nil {
		return fmt.Errorf("read history file: %w", err)
	}
	var records []Record
	if jsonErr := json.Unmarshal(data, &records); jsonErr != nil {
		fmt.Fprintf(s.diag, "warning: history file %s is corrupted, resetting: %v\n", s.path, jsonErr)
		return s.write(nil)
	}
	return nil
}

// Append classifies nothing itself: the caller supplies the already
// classified payload so classification happens exactly once per response.
// The record gets the current UTC timestamp at second precision, is
// prepended to a fresh read of the log, and the truncated result replaces
// the file atomically. On failure the log on disk is left unchanged.
func (s *Store) Append(model, prompt string, res classify.Classified) error {
	rec := Record{
		Timestamp: s.now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Model:     model,
		Prompt:    prompt,
	}
	switch res.Kind {
	case classify.KindStructured:
		rec.FullResponse = ResponseBody{Structured: true, Value: res.Value}
		rec.TextResponse = classify.ExtractText(res.Raw)
	default:
		rec.FullResponse = ResponseBody{Text: res.Raw}
		rec.TextResponse = opaqueSnippet(res.Raw)
	}

	records := s.loadLenient()
	records = append([]Record{rec}, records...)
	if len(records) > MaxEntries {
		records = records[:MaxEntries]
	}
	return s.write(records)
}

// Clear replaces the log with an empty array, unconditionally.
func (s *Store) Clear() error {
	return s.write(nil)
}

// Load returns the stored records, newest first. An absent, empty, or
// unparseable file reads as an empty log; corruption is reported as a
// warning, not an error.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var records []Record
	if jsonErr := json.Unmarshal(data, &records); jsonErr != nil {
		fmt.Fprintf(s.diag, "warning: history file %s is not valid JSON, treating as empty: %v\n", s.path, jsonErr)
		return nil, nil
	}
	return records, nil
}

// loadLenient is the fresh read preceding a write. Any problem reads as an
// empty log so a corrupted file self-heals on the next append.
func (s *Store) loadLenient() []Record {
	records, err := s.Load()
	if err != nil {
		fmt.Fprintf(s.diag, "warning: %v\n", err)
		return nil
	}
	return records
}

// write replaces the backing file with the given records through a
// temp-file rename, so a concurrent reader sees either the old or the new
// document, never a partial one.
func (s *Store) write(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("ensure history dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("set history file mode: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

// opaqueSnippet derives text_response for non-JSON payloads: the first
// 1000 bytes with NUL bytes stripped.
func opaqueSnippet(raw string) string {
	if len(raw) > opaqueSnippetLimit {
		raw = raw[:opaqueSnippetLimit]
	}
	return strings.ReplaceAll(raw, "\x00", "")
}
