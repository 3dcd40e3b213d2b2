package session

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/notedhq/noted/pkg/logging"
)

// DefaultCaptureInterval is the period between scheduled photo captures.
const DefaultCaptureInterval = 30 * time.Second

// AutoCapture fires a callback on a fixed interval while a session runs.
// The callback executes on the cron runner goroutine; Stop waits for an
// in-flight callback to finish before returning.
type AutoCapture struct {
	mu       sync.Mutex
	cron     *cron.Cron
	interval time.Duration
	enabled  bool
	fire     func()
	log      *logging.Logger
}

// NewAutoCapture creates a scheduler that invokes fire every interval.
// A non-positive interval falls back to DefaultCaptureInterval.
func NewAutoCapture(interval time.Duration, enabled bool, fire func(), log *logging.Logger) *AutoCapture {
	if interval <= 0 {
		interval = DefaultCaptureInterval
	}
	return &AutoCapture{
		interval: interval,
		enabled:  enabled,
		fire:     fire,
		log:      log,
	}
}

// Start begins periodic capture. It is a no-op when auto-capture is
// disabled or already running.
func (a *AutoCapture) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.enabled || a.cron != nil {
		return
	}

	c := cron.New()
	if _, err := c.AddFunc("@every "+a.interval.String(), a.fire); err != nil {
		a.log.Errorf("Failed to schedule auto-capture: %v", err)
		return
	}
	c.Start()
	a.cron = c

	a.log.Infof("Auto-capture started, interval %s", a.interval)
}

// Stop halts periodic capture and waits for any running capture callback
// to complete. Safe to call when not running.
func (a *AutoCapture) Stop() {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()

	a.log.Infof("Auto-capture stopped")
}

// Enabled reports whether auto-capture is currently enabled.
func (a *AutoCapture) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Toggle flips the enabled flag and returns the new value. Toggling off
// while running stops the timer; toggling on does not start it until the
// next session starts.
func (a *AutoCapture) Toggle() bool {
	a.mu.Lock()
	a.enabled = !a.enabled
	enabled := a.enabled
	c := a.cron
	if !enabled {
		a.cron = nil
	}
	a.mu.Unlock()

	if !enabled && c != nil {
		<-c.Stop().Done()
	}
	return enabled
}
