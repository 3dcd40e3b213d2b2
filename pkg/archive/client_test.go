package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notedhq/noted/pkg/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	log, _ := logging.NewLogger("archive-test")
	t.Cleanup(func() { log.Close() })
	return log
}

func TestEnsureSessionRegistersOnce(t *testing.T) {
	var creates atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.Header.Get("ngrok-skip-browser-warning"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title": "lecture"}`, string(body))

		creates.Add(1)
		w.Write([]byte(`{"id": "backend_42"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-token", testLogger(t))

	for i := 0; i < 3; i++ {
		id, err := c.EnsureSession(context.Background(), "lecture")
		require.NoError(t, err)
		assert.Equal(t, "backend_42", id)
	}
	assert.Equal(t, int32(1), creates.Load())
	assert.Equal(t, "backend_42", c.SessionID())
}

func TestEnsureSessionDefaultTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title": "conversation"}`, string(body))
		w.Write([]byte(`{"id": "backend_9"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", testLogger(t))

	id, err := c.EnsureSession(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "backend_9", id)
}

func TestEnsureSessionFallsBackToStandaloneID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", testLogger(t))

	id, err := c.EnsureSession(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, id, "standalone_")

	// The fabricated id is cached like a real one.
	again, err := c.EnsureSession(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestEnsureSessionPropagatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", testLogger(t))

	_, err := c.EnsureSession(context.Background(), "")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Equal(t, "boom", statusErr.Body)
}

func TestResetForcesNewRegistration(t *testing.T) {
	var creates atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creates.Add(1)
		w.Write([]byte(`{"id": "backend_1"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", testLogger(t))

	_, err := c.EnsureSession(context.Background(), "")
	require.NoError(t, err)
	c.Reset()
	assert.Empty(t, c.SessionID())

	_, err = c.EnsureSession(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), creates.Load())
}

func TestUploadAudioMultipart(t *testing.T) {
	var uploaded []byte
	var uploadedName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions" {
			w.Write([]byte(`{"id": "backend_1"}`))
			return
		}
		require.Equal(t, "/sessions/backend_1/transcribe", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		uploadedName = header.Filename
		uploaded, err = io.ReadAll(file)
		require.NoError(t, err)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", testLogger(t))

	err := c.UploadAudio(context.Background(), []byte("RIFFdata"), "clip.wav")
	require.NoError(t, err)
	assert.Equal(t, "clip.wav", uploadedName)
	assert.Equal(t, []byte("RIFFdata"), uploaded)
}

func TestUploadPhotoMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions" {
			w.Write([]byte(`{"id": "backend_1"}`))
			return
		}
		require.Equal(t, "/sessions/backend_1/assets", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "photo.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", testLogger(t))

	err := c.UploadPhoto(context.Background(), []byte{0xFF, 0xD8}, "photo.jpg", "image/jpeg")
	require.NoError(t, err)
}

func TestTimelineQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions" {
			w.Write([]byte(`{"id": "backend_1"}`))
			return
		}
		require.Equal(t, "/sessions/backend_1/timeline", r.URL.Path)
		assert.Equal(t, "photosynthesis", r.URL.Query().Get("q"))
		assert.Equal(t, "true", r.URL.Query().Get("bookmarked"))
		w.Write([]byte(`{
			"chunks": [{"id": "t1", "text": "light reactions", "ts_start": 1.5, "ts_end": 4.0, "bookmarked": true}],
			"assets": [{"id": "a1", "path": "photos/a1.jpg"}]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", testLogger(t))

	timeline, err := c.Timeline(context.Background(), "photosynthesis", true)
	require.NoError(t, err)
	require.Len(t, timeline.Chunks, 1)
	assert.Equal(t, "light reactions", timeline.Chunks[0].Text)
	assert.True(t, timeline.Chunks[0].Bookmarked)
	require.Len(t, timeline.Assets, 1)
	assert.Equal(t, "photos/a1.jpg", timeline.Assets[0].Path)
}

func TestGenerateSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions" {
			w.Write([]byte(`{"id": "backend_1"}`))
			return
		}
		require.Equal(t, "/sessions/backend_1/summary:generate-sync", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"summary": "The lecture covered photosynthesis."}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", testLogger(t))

	summary, err := c.GenerateSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "The lecture covered photosynthesis.", summary)
}

func TestAddBookmarkForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions" {
			w.Write([]byte(`{"id": "backend_1"}`))
			return
		}
		require.Equal(t, "/sessions/backend_1/bookmark", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "12.5", r.PostForm.Get("ts_start"))
		assert.Equal(t, "15", r.PostForm.Get("ts_end"))
		assert.Equal(t, "important", r.PostForm.Get("tag"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", testLogger(t))

	err := c.AddBookmark(context.Background(), 12.5, 15, "important")
	require.NoError(t, err)
}

func TestFlashcards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions" {
			w.Write([]byte(`{"id": "backend_1"}`))
			return
		}
		switch r.URL.Path {
		case "/sessions/backend_1/flashcards":
			require.Equal(t, http.MethodGet, r.Method)
			w.Write([]byte(`[{"id": "f1", "type": "qa", "question": "What is ATP?", "answer": "Energy currency", "source_ts": 3.5}]`))
		case "/sessions/backend_1/flashcards:generate-sync":
			require.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(`{
				"qa": [{"id": "f2", "type": "qa", "question": "Q", "answer": "A", "source_ts": null}],
				"cloze": [],
				"mc": [{"id": "f3", "type": "mc", "question": "Pick one", "answer": "{\"correct\": \"B\"}"}]
			}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", testLogger(t))

	cards, err := c.Flashcards(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "What is ATP?", cards[0].Question)
	assert.Equal(t, "qa", cards[0].Type)

	generated, err := c.GenerateFlashcards(context.Background())
	require.NoError(t, err)
	require.Len(t, generated.QA, 1)
	assert.Equal(t, "f2", generated.QA[0].ID)
	assert.Empty(t, generated.Cloze)
	require.Len(t, generated.MC, 1)
	assert.Equal(t, "mc", generated.MC[0].Type)
}
