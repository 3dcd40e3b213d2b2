package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/notedhq/noted/pkg/logging"
)

// User-facing state errors. Handlers report these with a spoken message and
// otherwise treat the command as a no-op.
var (
	ErrSessionActive = errors.New("a session is already active")
	ErrNoSession     = errors.New("no active session")
)

// Scheduler is the auto-capture timer controlled by the session lifecycle.
// Stop must not return until no further scheduled capture can fire.
type Scheduler interface {
	Start()
	Stop()
}

// Manager is the state machine over one optional CaptureSession. At most one
// session is active at a time; all mutating operations fail with a state
// error outside the valid lifecycle phase.
//
// Appends arrive from both the orchestrator loop and the auto-capture
// scheduler, so all state is guarded by one mutex.
type Manager struct {
	mu        sync.Mutex
	current   *CaptureSession
	segments  []*VoiceSegment
	photos    []*PhotoAsset
	bookmarks []*Bookmark

	scheduler Scheduler
	log       *logging.Logger

	now func() time.Time // test hook
}

// NewManager creates a session manager. The scheduler may be nil when
// auto-capture is not wired (tests).
func NewManager(scheduler Scheduler, log *logging.Logger) *Manager {
	return &Manager{scheduler: scheduler, log: log, now: time.Now}
}

// Start creates and activates a new capture session of the given kind,
// resets the working lists, and starts the auto-capture scheduler. Fails
// with ErrSessionActive when a session is already running.
func (m *Manager) Start(kind Kind) (*CaptureSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.IsActive {
		return nil, ErrSessionActive
	}

	m.current = &CaptureSession{
		ID:        newSessionID(),
		Kind:      kind,
		StartTime: m.now(),
		Segments:  []*VoiceSegment{},
		Photos:    []*PhotoAsset{},
		Bookmarks: []*Bookmark{},
		IsActive:  true,
	}
	m.segments = nil
	m.photos = nil
	m.bookmarks = nil

	if m.scheduler != nil {
		m.scheduler.Start()
	}

	m.log.Infof("Started %s session: %s", kind, m.current.ID)
	return m.current, nil
}

// End closes the active session: stops the scheduler synchronously, stamps
// the end time, computes the summary counters, and releases the session
// reference. Fails with ErrNoSession when nothing is active.
func (m *Manager) End() (*Summary, error) {
	m.mu.Lock()
	if m.current == nil || !m.current.IsActive {
		m.mu.Unlock()
		return nil, ErrNoSession
	}
	sess := m.current
	m.mu.Unlock()

	// Stop outside the lock: a scheduled capture may be blocked on
	// AppendPhoto right now, and Stop waits for running jobs.
	if m.scheduler != nil {
		m.scheduler.Stop()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.now()
	sess.EndTime = &end
	sess.IsActive = false

	summary := &Summary{
		SessionID:       sess.ID,
		Kind:            sess.Kind,
		DurationMinutes: int(math.Round(end.Sub(sess.StartTime).Minutes())),
		SegmentCount:    len(sess.Segments),
		PhotoCount:      len(sess.Photos),
		BookmarkCount:   len(sess.Bookmarks),
	}

	m.log.Infof("Ended session: %s, Duration: %dmin, Segments: %d, Photos: %d, Bookmarks: %d",
		sess.ID, summary.DurationMinutes, summary.SegmentCount, summary.PhotoCount, summary.BookmarkCount)

	m.current = nil
	return summary, nil
}

// Active reports whether a session is currently active.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && m.current.IsActive
}

// AppendSegment appends a voice segment to the active session.
func (m *Manager) AppendSegment(transcription string, duration float64) (*VoiceSegment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.IsActive {
		return nil, ErrNoSession
	}

	segment := &VoiceSegment{
		ID:            newSegmentID(),
		Timestamp:     m.now(),
		Transcription: transcription,
		Duration:      duration,
	}
	m.current.Segments = append(m.current.Segments, segment)
	m.segments = append(m.segments, segment)

	return segment, nil
}

// AppendPhoto appends a captured photo to the active session's photo list
// and to the working list used for export.
func (m *Manager) AppendPhoto(photo *PhotoAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.IsActive {
		return ErrNoSession
	}

	m.current.Photos = append(m.current.Photos, photo)
	m.photos = append(m.photos, photo)
	return nil
}

// BookmarkMoment appends a moment-kind bookmark stamped with the current
// time. Voice and photo bookmarks are not produced by any current path.
func (m *Manager) BookmarkMoment() (*Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.IsActive {
		return nil, ErrNoSession
	}

	bookmark := &Bookmark{
		ID:          newBookmarkID(),
		Timestamp:   m.now(),
		Kind:        BookmarkMoment,
		Description: "User marked moment",
	}
	m.current.Bookmarks = append(m.current.Bookmarks, bookmark)
	m.bookmarks = append(m.bookmarks, bookmark)

	return bookmark, nil
}

// TranscriptText joins the active session's segment transcriptions with
// spaces, for summarization. Fails with ErrNoSession when nothing is active.
func (m *Manager) TranscriptText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.IsActive {
		return "", ErrNoSession
	}

	text := ""
	for i, segment := range m.current.Segments {
		if i > 0 {
			text += " "
		}
		text += segment.Transcription
	}
	return text, nil
}

// Current returns the active session, or nil.
func (m *Manager) Current() *CaptureSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// ExportJSON serializes the full active session (segments, photos,
// bookmarks, timestamps) for a local snapshot file. Photo payload bytes
// are excluded; the snapshot references them by filename.
func (m *Manager) ExportJSON() ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.IsActive {
		return nil, "", ErrNoSession
	}

	data, err := json.MarshalIndent(m.current, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("failed to serialize session: %w", err)
	}
	return data, m.current.ID, nil
}
