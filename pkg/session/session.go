// Package session owns the capture-session lifecycle: one optional active
// session grouping voice segments, photos, and bookmarks between a "start
// session" and an "end session" command.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a capture session.
type Kind string

const (
	KindLecture      Kind = "lecture"
	KindMeeting      Kind = "meeting"
	KindInterview    Kind = "interview"
	KindConversation Kind = "conversation"
)

// KindFromCommand derives the session kind from a spoken start command.
// Unrecognized commands default to a conversation.
func KindFromCommand(command string) Kind {
	lower := strings.ToLower(command)
	switch {
	case strings.Contains(lower, "lecture"):
		return KindLecture
	case strings.Contains(lower, "meeting"):
		return KindMeeting
	case strings.Contains(lower, "interview"):
		return KindInterview
	default:
		return KindConversation
	}
}

// VoiceSegment is a discrete unit of captured voice content: either a
// cleaned note transcript or a synthetic audio-segment label carrying the
// measured duration and level. Segments are never mutated after creation.
type VoiceSegment struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Transcription string    `json:"transcription"`
	Duration      float64   `json:"duration"`
	Bookmarked    bool      `json:"isBookmarked"`
}

// PhotoAsset is one captured photo. The asset does not track its local
// storage path: saving and uploading are independent side effects of
// capture, keyed by filename.
type PhotoAsset struct {
	Data      []byte    `json:"-"`
	MimeType  string    `json:"mimeType"`
	Filename  string    `json:"filename"`
	RequestID string    `json:"requestId"`
	Size      int       `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// BookmarkKind classifies a bookmark.
type BookmarkKind string

const (
	BookmarkVoice  BookmarkKind = "voice"
	BookmarkPhoto  BookmarkKind = "photo"
	BookmarkMoment BookmarkKind = "moment"
)

// Bookmark marks a notable point in a session. SegmentID and PhotoID exist
// for voice and photo bookmarks but no current path populates them; only
// moment bookmarks are produced today.
type Bookmark struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Kind        BookmarkKind `json:"type"`
	SegmentID   string       `json:"segmentId,omitempty"`
	PhotoID     string       `json:"photoId,omitempty"`
	Description string       `json:"description,omitempty"`
}

// CaptureSession is a bounded recording period. Its collections are
// append-only for the session's lifetime.
type CaptureSession struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"type"`
	StartTime time.Time       `json:"startTime"`
	EndTime   *time.Time      `json:"endTime,omitempty"`
	Segments  []*VoiceSegment `json:"segments"`
	Photos    []*PhotoAsset   `json:"photos"`
	Bookmarks []*Bookmark     `json:"bookmarks"`
	IsActive  bool            `json:"isActive"`
}

// Summary reports the closing counters of an ended session.
type Summary struct {
	SessionID       string
	Kind            Kind
	DurationMinutes int
	SegmentCount    int
	PhotoCount      int
	BookmarkCount   int
}

func newSessionID() string  { return "session_" + uuid.New().String() }
func newSegmentID() string  { return "segment_" + uuid.New().String() }
func newBookmarkID() string { return "bookmark_" + uuid.New().String() }
