package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notedhq/noted/pkg/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	log, _ := logging.NewLogger("session-test")
	t.Cleanup(func() { log.Close() })
	return log
}

// fakeScheduler records lifecycle calls so tests can assert the manager
// drives it at the right times.
type fakeScheduler struct {
	mu      sync.Mutex
	started int
	stopped int
}

func (f *fakeScheduler) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
}

func (f *fakeScheduler) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
}

func (f *fakeScheduler) counts() (started, stopped int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, f.stopped
}

func TestManagerStartRejectsSecondSession(t *testing.T) {
	m := NewManager(nil, testLogger(t))

	first, err := m.Start(KindLecture)
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	second, err := m.Start(KindMeeting)
	assert.ErrorIs(t, err, ErrSessionActive)
	assert.Nil(t, second)

	// The original session is untouched.
	assert.Equal(t, first.ID, m.Current().ID)
	assert.Equal(t, KindLecture, m.Current().Kind)
}

func TestManagerEndWithoutSession(t *testing.T) {
	m := NewManager(nil, testLogger(t))

	summary, err := m.End()
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Nil(t, summary)
}

func TestManagerEndComputesSummary(t *testing.T) {
	m := NewManager(nil, testLogger(t))

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	current := base
	m.now = func() time.Time { return current }

	sess, err := m.Start(KindMeeting)
	require.NoError(t, err)

	_, err = m.AppendSegment("first point", 2.5)
	require.NoError(t, err)
	_, err = m.AppendSegment("second point", 3.0)
	require.NoError(t, err)

	require.NoError(t, m.AppendPhoto(&PhotoAsset{Filename: "photo.jpg", Timestamp: current}))

	_, err = m.BookmarkMoment()
	require.NoError(t, err)

	current = base.Add(5*time.Minute + 20*time.Second)
	summary, err := m.End()
	require.NoError(t, err)

	assert.Equal(t, sess.ID, summary.SessionID)
	assert.Equal(t, KindMeeting, summary.Kind)
	assert.Equal(t, 5, summary.DurationMinutes)
	assert.Equal(t, 2, summary.SegmentCount)
	assert.Equal(t, 1, summary.PhotoCount)
	assert.Equal(t, 1, summary.BookmarkCount)

	assert.False(t, sess.IsActive)
	require.NotNil(t, sess.EndTime)
	assert.Equal(t, current, *sess.EndTime)
	assert.Nil(t, m.Current())
	assert.False(t, m.Active())
}

func TestManagerDurationRoundsToNearestMinute(t *testing.T) {
	m := NewManager(nil, testLogger(t))

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	current := base
	m.now = func() time.Time { return current }

	_, err := m.Start(KindConversation)
	require.NoError(t, err)

	current = base.Add(90 * time.Second)
	summary, err := m.End()
	require.NoError(t, err)
	assert.Equal(t, 2, summary.DurationMinutes)
}

func TestManagerAppendsRequireActiveSession(t *testing.T) {
	m := NewManager(nil, testLogger(t))

	_, err := m.AppendSegment("orphan", 1.5)
	assert.ErrorIs(t, err, ErrNoSession)

	err = m.AppendPhoto(&PhotoAsset{Filename: "orphan.jpg"})
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.BookmarkMoment()
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.TranscriptText()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManagerSegmentFields(t *testing.T) {
	m := NewManager(nil, testLogger(t))

	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	_, err := m.Start(KindLecture)
	require.NoError(t, err)

	segment, err := m.AppendSegment("key takeaway", 4.2)
	require.NoError(t, err)

	assert.Contains(t, segment.ID, "segment_")
	assert.Equal(t, fixed, segment.Timestamp)
	assert.Equal(t, "key takeaway", segment.Transcription)
	assert.Equal(t, 4.2, segment.Duration)
	assert.False(t, segment.Bookmarked)
}

func TestManagerBookmarkMoment(t *testing.T) {
	m := NewManager(nil, testLogger(t))

	_, err := m.Start(KindInterview)
	require.NoError(t, err)

	bookmark, err := m.BookmarkMoment()
	require.NoError(t, err)

	assert.Equal(t, BookmarkMoment, bookmark.Kind)
	assert.Equal(t, "User marked moment", bookmark.Description)
	assert.Empty(t, bookmark.SegmentID)
	assert.Empty(t, bookmark.PhotoID)
}

func TestManagerSchedulerLifecycle(t *testing.T) {
	sched := &fakeScheduler{}
	m := NewManager(sched, testLogger(t))

	_, err := m.Start(KindLecture)
	require.NoError(t, err)

	started, stopped := sched.counts()
	assert.Equal(t, 1, started)
	assert.Equal(t, 0, stopped)

	_, err = m.End()
	require.NoError(t, err)

	started, stopped = sched.counts()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, stopped)
}

func TestManagerTranscriptText(t *testing.T) {
	m := NewManager(nil, testLogger(t))

	_, err := m.Start(KindLecture)
	require.NoError(t, err)

	_, err = m.AppendSegment("photosynthesis converts light", 2.0)
	require.NoError(t, err)
	_, err = m.AppendSegment("into chemical energy", 1.5)
	require.NoError(t, err)

	text, err := m.TranscriptText()
	require.NoError(t, err)
	assert.Equal(t, "photosynthesis converts light into chemical energy", text)
}

func TestManagerExportJSON(t *testing.T) {
	m := NewManager(nil, testLogger(t))

	_, _, err := m.ExportJSON()
	assert.ErrorIs(t, err, ErrNoSession)

	sess, err := m.Start(KindMeeting)
	require.NoError(t, err)

	_, err = m.AppendSegment("export me", 2.0)
	require.NoError(t, err)
	require.NoError(t, m.AppendPhoto(&PhotoAsset{
		Data:     []byte{0xFF, 0xD8},
		MimeType: "image/jpeg",
		Filename: "photo_1.jpg",
		Size:     2,
	}))

	data, id, err := m.ExportJSON()
	require.NoError(t, err)
	assert.Equal(t, sess.ID, id)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, sess.ID, decoded["id"])
	assert.Equal(t, "meeting", decoded["type"])
	assert.Equal(t, true, decoded["isActive"])

	segments, ok := decoded["segments"].([]interface{})
	require.True(t, ok)
	require.Len(t, segments, 1)

	// Photo payload bytes stay out of the snapshot.
	photos, ok := decoded["photos"].([]interface{})
	require.True(t, ok)
	require.Len(t, photos, 1)
	photo := photos[0].(map[string]interface{})
	assert.Equal(t, "photo_1.jpg", photo["filename"])
	_, hasData := photo["Data"]
	assert.False(t, hasData)
}
