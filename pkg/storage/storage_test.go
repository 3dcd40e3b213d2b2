package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notedhq/noted/pkg/logging"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	log, _ := logging.NewLogger("storage-test")
	t.Cleanup(func() { log.Close() })

	store, err := NewStore(filepath.Join(t.TempDir(), "captures"), log)
	require.NoError(t, err)
	return store
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	store := testStore(t)

	info, err := os.Stat(store.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSavePhotoNaming(t *testing.T) {
	store := testStore(t)
	taken := time.Date(2025, 6, 1, 10, 30, 45, 123e6, time.UTC)

	path, err := store.SavePhoto([]byte{0xFF, 0xD8, 0xFF}, taken)
	require.NoError(t, err)

	assert.Equal(t, "photo_2025-06-01T10-30-45-123Z.jpg", filepath.Base(path))

	data, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
}

func TestSaveAudioNaming(t *testing.T) {
	store := testStore(t)
	recorded := time.Date(2025, 6, 1, 10, 30, 45, 0, time.UTC)

	path, err := store.SaveAudio([]byte("RIFF"), recorded, 2.5)
	require.NoError(t, err)
	assert.Equal(t, "audio_2025-06-01T10-30-45-000Z_2.5s.wav", filepath.Base(path))
}

func TestWriteExportNaming(t *testing.T) {
	store := testStore(t)
	exported := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	path, err := store.WriteExport("session_abc", []byte(`{"id":"session_abc"}`), exported)
	require.NoError(t, err)
	assert.Equal(t, "session_session_abc_2025-06-01T11-00-00-000Z.json", filepath.Base(path))
}

func TestLatestPicksNewestMatch(t *testing.T) {
	store := testStore(t)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	_, err := store.SavePhoto([]byte("old"), base)
	require.NoError(t, err)
	newest, err := store.SavePhoto([]byte("new"), base.Add(time.Minute))
	require.NoError(t, err)

	// Audio files must not satisfy the photo pattern.
	_, err = store.SaveAudio([]byte("clip"), base.Add(2*time.Minute), 1.0)
	require.NoError(t, err)

	path, err := store.Latest("photo_*.jpg")
	require.NoError(t, err)
	assert.Equal(t, newest, path)
}

func TestLatestNoMatches(t *testing.T) {
	store := testStore(t)

	_, err := store.Latest("photo_*.jpg")
	assert.Error(t, err)
}
