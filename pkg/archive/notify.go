package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/notedhq/noted/pkg/logging"
)

// Event is one push notification from the archive. The archive emits these
// when background processing finishes (transcription ready, summary ready,
// flashcards ready).
type Event struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// Notifier maintains a websocket subscription to archive push events.
type Notifier struct {
	wsURL string
	log   *logging.Logger

	dialer *websocket.Dialer
}

// NewNotifier creates a notifier for the archive at baseURL (http or https;
// the scheme is mapped to ws/wss). The token authenticates the
// subscription.
func NewNotifier(baseURL, token string, log *logging.Logger) (*Notifier, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid archive URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported archive URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/notify"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return &Notifier{
		wsURL:  u.String(),
		log:    log,
		dialer: websocket.DefaultDialer,
	}, nil
}

// Run connects and delivers events to the callback until the context is
// cancelled. On connection loss it reconnects with a fixed backoff; the
// callback runs on the notifier's goroutine.
func (n *Notifier) Run(ctx context.Context, callback func(Event)) error {
	const backoff = 5 * time.Second

	for {
		if err := n.listen(ctx, callback); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n.log.Warnf("Notification stream lost: %v, reconnecting in %s", err, backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// listen holds one websocket connection open and dispatches its events.
func (n *Notifier) listen(ctx context.Context, callback func(Event)) error {
	conn, _, err := n.dialer.DialContext(ctx, n.wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	n.log.Infof("Notification stream connected")

	// Close the connection when the context is cancelled so ReadMessage
	// unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read failed: %w", err)
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			n.log.Warnf("Dropping malformed notification: %v", err)
			continue
		}
		callback(event)
	}
}
