// Package archive talks to the remote Noted archive service: session
// registration, media upload, timeline queries, and generated study
// materials. All calls are best-effort from the caller's point of view;
// capture never blocks on the archive being reachable.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/notedhq/noted/pkg/logging"
)

// DefaultTimeout bounds every archive request.
const DefaultTimeout = 30 * time.Second

// defaultSessionTitle names backend sessions created outside an explicit
// capture session, matching the kind the client would otherwise report.
const defaultSessionTitle = "conversation"

// StatusError is returned when the archive responds with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("archive returned status %d: %s", e.Status, e.Body)
}

// Client is the archive API client. One client serves one backend session:
// EnsureSession registers (or adopts) the backend session id and caches it
// for all subsequent uploads.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logging.Logger

	mu        sync.Mutex
	sessionID string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates an archive client for the given base URL and bearer
// token.
func NewClient(baseURL, token string, log *logging.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// setHeaders applies the auth and tunnel bypass headers every archive
// request carries.
func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("ngrok-skip-browser-warning", "true")
}

// EnsureSession registers a backend session titled after the capture kind
// and caches its id. Repeated calls return the cached id without another
// request; an empty title falls back to the default. When the archive
// responds without a usable id, a local standalone id is fabricated so
// uploads can proceed and be reconciled later.
func (c *Client) EnsureSession(ctx context.Context, title string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != "" {
		return c.sessionID, nil
	}

	if title == "" {
		title = defaultSessionTitle
	}
	body, err := c.doJSON(ctx, http.MethodPost, "/sessions", map[string]string{
		"title": title,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create backend session: %w", err)
	}

	var resp struct {
		ID        string `json:"id"`
		SessionID string `json:"session_id"`
	}
	id := ""
	if jsonErr := json.Unmarshal(body, &resp); jsonErr == nil {
		id = resp.ID
		if id == "" {
			id = resp.SessionID
		}
	}
	if id == "" {
		id = fmt.Sprintf("standalone_%d", time.Now().UnixMilli())
		c.log.Warnf("Archive session response had no id, using %s", id)
	}

	c.sessionID = id
	c.log.Infof("Backend session ready: %s", id)
	return id, nil
}

// SessionID returns the cached backend session id, or empty when
// EnsureSession has not succeeded yet.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Reset clears the cached backend session id so the next EnsureSession
// registers a fresh one.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = ""
}

// UploadAudio posts a WAV clip to the session's transcribe endpoint.
func (c *Client) UploadAudio(ctx context.Context, wav []byte, filename string) error {
	sessionID, err := c.EnsureSession(ctx, "")
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/sessions/%s/transcribe", url.PathEscape(sessionID))
	if err := c.uploadFile(ctx, path, filename, "audio/wav", wav); err != nil {
		return fmt.Errorf("failed to upload audio: %w", err)
	}
	c.log.Infof("Uploaded audio %s (%d bytes)", filename, len(wav))
	return nil
}

// UploadPhoto posts a photo to the session's assets endpoint.
func (c *Client) UploadPhoto(ctx context.Context, photo []byte, filename, mimeType string) error {
	sessionID, err := c.EnsureSession(ctx, "")
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/sessions/%s/assets", url.PathEscape(sessionID))
	if err := c.uploadFile(ctx, path, filename, mimeType, photo); err != nil {
		return fmt.Errorf("failed to upload photo: %w", err)
	}
	c.log.Infof("Uploaded photo %s (%d bytes)", filename, len(photo))
	return nil
}

// TimelineChunk is one transcribed item in the archive timeline.
type TimelineChunk struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	TsStart    float64 `json:"ts_start"`
	TsEnd      float64 `json:"ts_end"`
	Bookmarked bool    `json:"bookmarked"`
}

// TimelineAsset is one uploaded media file in the archive timeline.
type TimelineAsset struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Timeline is the archive's timeline response: transcript chunks and
// uploaded assets side by side.
type Timeline struct {
	Chunks []TimelineChunk `json:"chunks"`
	Assets []TimelineAsset `json:"assets"`
}

// Timeline fetches the session timeline, optionally filtered by a search
// query and/or to bookmarked chunks only.
func (c *Client) Timeline(ctx context.Context, query string, bookmarkedOnly bool) (*Timeline, error) {
	sessionID, err := c.EnsureSession(ctx, "")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if bookmarkedOnly {
		params.Set("bookmarked", "true")
	}
	path := fmt.Sprintf("/sessions/%s/timeline", url.PathEscape(sessionID))
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timeline: %w", err)
	}

	var timeline Timeline
	if err := json.Unmarshal(body, &timeline); err != nil {
		return nil, fmt.Errorf("failed to parse timeline: %w", err)
	}
	return &timeline, nil
}

// GenerateSummary asks the archive to produce a summary of the session's
// transcriptions and returns the summary text.
func (c *Client) GenerateSummary(ctx context.Context) (string, error) {
	sessionID, err := c.EnsureSession(ctx, "")
	if err != nil {
		return "", err
	}

	path := fmt.Sprintf("/sessions/%s/summary:generate-sync", url.PathEscape(sessionID))
	body, err := c.doJSON(ctx, http.MethodPost, path, struct{}{})
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	var resp struct {
		Summary string `json:"summary"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse summary: %w", err)
	}
	if resp.Summary != "" {
		return resp.Summary, nil
	}
	return resp.Text, nil
}

// Flashcard is one generated study card. Type is qa, cloze, or mc; for mc
// cards Answer holds the choices as a JSON string.
type Flashcard struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	SourceTs float64 `json:"source_ts"`
}

// FlashcardSet groups freshly generated cards by type, mirroring the
// archive's generate-sync response.
type FlashcardSet struct {
	QA    []Flashcard `json:"qa"`
	Cloze []Flashcard `json:"cloze"`
	MC    []Flashcard `json:"mc"`
}

// Flashcards lists the session's generated flashcards.
func (c *Client) Flashcards(ctx context.Context) ([]Flashcard, error) {
	sessionID, err := c.EnsureSession(ctx, "")
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/sessions/%s/flashcards", url.PathEscape(sessionID))
	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flashcards: %w", err)
	}

	var cards []Flashcard
	if err := json.Unmarshal(body, &cards); err != nil {
		return nil, fmt.Errorf("failed to parse flashcards: %w", err)
	}
	return cards, nil
}

// GenerateFlashcards asks the archive to produce flashcards from the
// session's transcriptions and returns the new cards grouped by type.
func (c *Client) GenerateFlashcards(ctx context.Context) (*FlashcardSet, error) {
	sessionID, err := c.EnsureSession(ctx, "")
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/sessions/%s/flashcards:generate-sync", url.PathEscape(sessionID))
	body, err := c.doJSON(ctx, http.MethodPost, path, struct{}{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate flashcards: %w", err)
	}

	var set FlashcardSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to parse flashcards: %w", err)
	}
	return &set, nil
}

// AddBookmark marks a timeline range in the archive.
func (c *Client) AddBookmark(ctx context.Context, tsStart, tsEnd float64, tag string) error {
	sessionID, err := c.EnsureSession(ctx, "")
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("ts_start", fmt.Sprintf("%g", tsStart))
	form.Set("ts_end", fmt.Sprintf("%g", tsEnd))
	if tag != "" {
		form.Set("tag", tag)
	}

	path := fmt.Sprintf("/sessions/%s/bookmark", url.PathEscape(sessionID))
	_, err = c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to add bookmark: %w", err)
	}
	return nil
}

// uploadFile posts a single file as multipart form data under the "file"
// field.
func (c *Client) uploadFile(ctx context.Context, path, filename, mimeType string, data []byte) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, path, writer.FormDataContentType(), &buf)
	return err
}

// doJSON performs a request with a JSON body.
func (c *Client) doJSON(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(body))
}

// do performs one archive request and returns the response body, or a
// StatusError for non-2xx responses.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}
