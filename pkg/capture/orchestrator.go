// Package capture wires the whole client together: it owns the event loop
// that serializes host events (transcriptions, button presses, scheduled
// capture ticks) and drives triggering, dispatch, sessions, storage, the
// archive, and the voice assistant from one goroutine.
package capture

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/notedhq/noted/pkg/archive"
	"github.com/notedhq/noted/pkg/assistant"
	"github.com/notedhq/noted/pkg/audio"
	"github.com/notedhq/noted/pkg/device"
	"github.com/notedhq/noted/pkg/dispatch"
	"github.com/notedhq/noted/pkg/logging"
	"github.com/notedhq/noted/pkg/session"
	"github.com/notedhq/noted/pkg/storage"
	"github.com/notedhq/noted/pkg/trigger"
	"github.com/notedhq/noted/pkg/types"
)

// DefaultSpeakTimeout bounds each text-to-speech call so a stuck audio
// stack never wedges the event loop.
const DefaultSpeakTimeout = 10 * time.Second

const eventBufferSize = 64

// Options configures an Orchestrator. Archive and Assistant may be nil;
// the corresponding features degrade to spoken apologies.
type Options struct {
	Device    device.Device
	Store     *storage.Store
	Archive   *archive.Client
	Assistant *assistant.Chain
	Logger    *logging.Logger

	// WakeWords and StopWords replace the built-in phrase lists when
	// non-empty.
	WakeWords []string
	StopWords []string

	// AutoCapture enables scheduled photo capture during sessions.
	AutoCapture     bool
	CaptureInterval time.Duration

	SpeakTimeout time.Duration
}

// Orchestrator is the capture client's core. All state transitions happen
// on its event loop goroutine; entry points only enqueue events. The one
// exception is OnAudioChunk, which appends to the audio buffer directly so
// recording keeps up while the loop is busy speaking or uploading.
type Orchestrator struct {
	device  device.Device
	store   *storage.Store
	archive *archive.Client
	chain   *assistant.Chain
	log     *logging.Logger

	matcher    *trigger.Matcher
	dispatcher *dispatch.Dispatcher
	buffer     *audio.Buffer
	manager    *session.Manager
	autocap    *session.AutoCapture

	speakTimeout time.Duration

	events chan *types.HostEvent
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	mu        sync.Mutex
	listening bool
	notes     []string

	now func() time.Time // test hook
}

// New creates an orchestrator from its options.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		device:       opts.Device,
		store:        opts.Store,
		archive:      opts.Archive,
		chain:        opts.Assistant,
		log:          opts.Logger,
		matcher:      trigger.NewMatcher(opts.WakeWords, opts.StopWords),
		buffer:       audio.NewBuffer(),
		speakTimeout: opts.SpeakTimeout,
		events:       make(chan *types.HostEvent, eventBufferSize),
		done:         make(chan struct{}),
		now:          time.Now,
	}
	if o.speakTimeout <= 0 {
		o.speakTimeout = DefaultSpeakTimeout
	}

	o.autocap = session.NewAutoCapture(opts.CaptureInterval, opts.AutoCapture, o.enqueueCaptureTick, opts.Logger)
	o.manager = session.NewManager(o.autocap, opts.Logger)
	o.dispatcher = dispatch.NewDispatcher(o, o.matcher)

	return o
}

// Start launches the event loop and greets the user. It returns
// immediately; events are processed until the context is cancelled or
// Shutdown is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.wg.Add(1)
	go o.eventLoop(ctx)

	o.speak(ctx, "Welcome to Noted! Say 'hey noted' to start listening.")
	o.log.Infof("Wake word detection active")
	return nil
}

// Shutdown stops the event loop and the auto-capture timer, then waits for
// the loop goroutine to exit. Safe to call more than once.
func (o *Orchestrator) Shutdown() {
	o.once.Do(func() { close(o.done) })
	o.wg.Wait()
	o.autocap.Stop()
}

// OnTranscription enqueues a transcription line from the host.
func (o *Orchestrator) OnTranscription(text string) {
	o.enqueue(types.NewTranscriptionEvent(text))
}

// OnButtonPress enqueues a hardware button event.
func (o *Orchestrator) OnButtonPress(button types.ButtonID, press types.PressType) {
	o.enqueue(types.NewButtonEvent(button, press))
}

// OnAudioChunk records PCM samples while listening. Called from the host's
// audio goroutine; it never touches the event loop so capture continues
// while a handler blocks on speech or network I/O.
func (o *Orchestrator) OnAudioChunk(samples []int16) {
	if o.Listening() {
		o.buffer.Append(samples)
	}
}

// Listening reports whether transcriptions are currently being processed.
func (o *Orchestrator) Listening() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.listening
}

// Notes returns a copy of the notes taken so far.
func (o *Orchestrator) Notes() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	notes := make([]string, len(o.notes))
	copy(notes, o.notes)
	return notes
}

// SessionActive reports whether a capture session is running.
func (o *Orchestrator) SessionActive() bool {
	return o.manager.Active()
}

func (o *Orchestrator) enqueue(event *types.HostEvent) {
	select {
	case o.events <- event:
	case <-o.done:
	}
}

// enqueueCaptureTick runs on the cron goroutine. It must never block:
// ending a session waits for in-flight ticks, and a blocking send here
// while the loop is inside that wait would deadlock. A tick dropped while
// the loop is busy is just a skipped snapshot.
func (o *Orchestrator) enqueueCaptureTick() {
	select {
	case o.events <- types.NewCaptureTickEvent():
	default:
		o.log.Debugf("Capture tick dropped, event loop busy")
	}
}

func (o *Orchestrator) eventLoop(ctx context.Context) {
	defer o.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.done:
			return
		case event := <-o.events:
			o.handleEvent(ctx, event)
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, event *types.HostEvent) {
	switch event.Type {
	case types.EventTypeTranscription:
		o.handleTranscription(ctx, event.Text)
	case types.EventTypeButtonPress:
		o.handleButton(ctx, event.Button, event.Press)
	case types.EventTypeCaptureTick:
		// A tick can arrive after its session ended; drop it.
		if o.manager.Active() {
			o.log.Infof("Auto-capturing visual snapshot...")
			o.takePhoto(ctx)
		}
	}
}

func (o *Orchestrator) handleTranscription(ctx context.Context, text string) {
	o.log.Infof("Transcription: %s", text)

	if !o.Listening() {
		if o.matcher.IsWake(text) {
			o.startListening(ctx)
		}
		// Nothing else is processed while idle.
		return
	}

	if o.matcher.IsStop(text) {
		o.stopListening(ctx, text)
		return
	}

	o.dispatcher.Dispatch(ctx, text)
}

func (o *Orchestrator) handleButton(ctx context.Context, button types.ButtonID, press types.PressType) {
	o.log.Infof("Button pressed: %s - %s", button, press)

	switch button {
	case types.ButtonCamera:
		switch press {
		case types.PressShort:
			o.takePhoto(ctx)
		case types.PressLong:
			if o.Listening() {
				o.stopListening(ctx, "")
			}
		}
	case types.ButtonMain:
		switch press {
		case types.PressShort:
			if !o.Listening() {
				o.startListening(ctx)
			}
		case types.PressLong:
			if o.Listening() {
				o.stopListening(ctx, "")
			}
		}
	}
}

// startListening enters listening mode: subsequent transcriptions are
// dispatched and audio chunks are buffered.
func (o *Orchestrator) startListening(ctx context.Context) {
	o.mu.Lock()
	o.listening = true
	o.mu.Unlock()

	o.dispatcher.Reset()

	o.speak(ctx, "I'm listening. Audio will be recorded and processed. Say 'stop listening' to end.")
	o.log.Infof("Started listening mode - audio recording active")
}

// stopListening leaves listening mode and processes the buffered audio.
// When the stop line also names the session ("end session", "stop
// session") and a session is active, the session is ended as well, so the
// stop phrase does double duty.
func (o *Orchestrator) stopListening(ctx context.Context, text string) {
	o.mu.Lock()
	o.listening = false
	o.mu.Unlock()

	o.speak(ctx, "Stopped listening. Say 'hey noted' to start again.")
	o.flushAudio(ctx)
	o.log.Infof("Stopped listening mode - audio processing completed")

	lower := strings.ToLower(text)
	if o.manager.Active() && (strings.Contains(lower, "end session") || strings.Contains(lower, "stop session")) {
		o.HandleEndSession(ctx)
	}
}

// flushAudio drains the audio buffer, persists the clip, uploads it, and
// records a voice segment when a session is active and the clip is longer
// than one second. The buffer is cleared regardless of what succeeds.
func (o *Orchestrator) flushAudio(ctx context.Context) {
	samples, duration := o.buffer.Flush()
	if len(samples) == 0 {
		return
	}

	level := audio.RMSLevel(samples)
	o.log.Infof("Audio processed - Avg level: %.3f, Duration: %.2fs", level, duration)

	wav := audio.EncodeWAV(samples)
	path, err := o.store.SaveAudio(wav, o.now(), duration)
	if err != nil {
		o.log.Errorf("Failed to save audio: %v", err)
	} else if o.archive != nil {
		if err := o.archive.UploadAudio(ctx, wav, filepath.Base(path)); err != nil {
			o.log.Warnf("Audio upload failed: %v", err)
		}
	}

	if o.manager.Active() && duration > 1.0 {
		transcription := fmt.Sprintf("[Audio Segment - %.1fs, Level: %.3f]", duration, level)
		if segment, err := o.manager.AppendSegment(transcription, duration); err == nil {
			o.log.Infof("Audio segment created: %s - Duration: %.2fs", segment.ID, duration)
		}
	}
}

// takePhoto captures one photo, attaches it to the active session when
// there is one, and persists and uploads it best-effort.
func (o *Orchestrator) takePhoto(ctx context.Context) {
	o.speak(ctx, "Taking photo...")

	photo, err := o.device.RequestPhoto(ctx)
	if err != nil {
		o.log.Errorf("Photo capture failed: %v", err)
		o.speak(ctx, "Failed to capture photo.")
		return
	}

	o.speak(ctx, "Photo captured!")

	taken := photo.Timestamp
	if taken.IsZero() {
		taken = o.now()
	}

	asset := &session.PhotoAsset{
		Data:      photo.Data,
		MimeType:  photo.MimeType,
		Filename:  photo.Filename,
		RequestID: photo.RequestID,
		Size:      photo.Size,
		Timestamp: taken,
	}
	if err := o.manager.AppendPhoto(asset); err == nil {
		o.log.Infof("Photo added to session: %s", o.manager.Current().ID)
	} else {
		o.log.Infof("Photo captured outside of active session")
	}

	path, err := o.store.SavePhoto(photo.Data, taken)
	if err != nil {
		o.log.Errorf("Failed to save photo: %v", err)
		return
	}
	if o.archive != nil {
		mimeType := photo.MimeType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		if err := o.archive.UploadPhoto(ctx, photo.Data, filepath.Base(path), mimeType); err != nil {
			o.log.Warnf("Photo upload failed: %v", err)
		}
	}
}

// speak renders text on the device, bounded by the speak timeout. Speech
// failures are logged and swallowed; capture never depends on audio out.
func (o *Orchestrator) speak(ctx context.Context, text string) {
	ctx, cancel := context.WithTimeout(ctx, o.speakTimeout)
	defer cancel()

	if err := o.device.Speak(ctx, text); err != nil {
		o.log.Warnf("Speech output failed: %v", err)
	}
}

func (o *Orchestrator) addNote(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notes = append(o.notes, text)
}
