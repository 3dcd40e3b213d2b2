// Package storage persists capture artifacts (photos, audio clips, session
// snapshots) under a single working directory on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/notedhq/noted/pkg/logging"
)

// Store writes capture artifacts into one flat directory. Filenames embed
// a sortable timestamp so the newest artifact of a kind can be found by
// pattern without an index.
type Store struct {
	dir string
	log *logging.Logger
}

// NewStore creates the working directory if needed and returns a store
// rooted there.
func NewStore(dir string, log *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// stamp renders a timestamp for embedding in a filename. Colons and dots
// are replaced so the result is safe on every filesystem.
func stamp(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

// SavePhoto writes photo bytes as photo_<timestamp>.jpg and returns the
// full path.
func (s *Store) SavePhoto(data []byte, taken time.Time) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("photo_%s.jpg", stamp(taken)))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to save photo: %w", err)
	}
	s.log.Infof("Saved photo: %s (%d bytes)", path, len(data))
	return path, nil
}

// SaveAudio writes an encoded WAV clip as audio_<timestamp>_<duration>s.wav
// and returns the full path.
func (s *Store) SaveAudio(wav []byte, recorded time.Time, duration float64) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("audio_%s_%.1fs.wav", stamp(recorded), duration))
	if err := os.WriteFile(path, wav, 0600); err != nil {
		return "", fmt.Errorf("failed to save audio: %w", err)
	}
	s.log.Infof("Saved audio: %s (%d bytes, %.1fs)", path, len(wav), duration)
	return path, nil
}

// WriteExport writes a session snapshot as session_<id>_<timestamp>.json
// and returns the full path.
func (s *Store) WriteExport(sessionID string, data []byte, exported time.Time) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("session_%s_%s.json", sessionID, stamp(exported)))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write session export: %w", err)
	}
	s.log.Infof("Exported session: %s", path)
	return path, nil
}

// Latest returns the path of the newest file matching the glob pattern
// (for example "photo_*.jpg"), or an error when nothing matches. Newest is
// by filename order, which the embedded timestamps make chronological.
func (s *Store) Latest(pattern string) (string, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to read storage directory: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if g.Match(entry.Name()) {
			matches = append(matches, entry.Name())
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no files match %q", pattern)
	}

	sort.Strings(matches)
	return filepath.Join(s.dir, matches[len(matches)-1]), nil
}

// Read returns the contents of a file previously saved by this store.
func (s *Store) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
