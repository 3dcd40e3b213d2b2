package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/notedhq/noted/pkg/session"
)

const helpMessage = "Here are the available commands. Say 'hey noted' to start listening. " +
	"Say 'start session' to begin recording. While in a session, you can ask questions " +
	"like 'what's the capital of China' and I'll answer them using AI. You can also say " +
	"mark this, summarize, analyze photo, or help. Say stop listening to end. Audio will " +
	"be recorded and processed automatically with AI transcription."

// HandleQuestion answers a spoken question with the assistant and records
// the exchange as a Q/A note pair.
func (o *Orchestrator) HandleQuestion(ctx context.Context, question string) {
	o.log.Infof("Question detected: %s", question)

	o.speak(ctx, "Let me answer that for you...")

	if o.chain == nil {
		o.speak(ctx, "I'm sorry, I couldn't process that question right now. Please try again.")
		return
	}

	answer, err := o.chain.Answer(ctx, question)
	if err != nil {
		o.log.Warnf("Failed to get answer for question: %v", err)
		o.speak(ctx, "I'm sorry, I couldn't process that question right now. Please try again.")
		return
	}

	o.speak(ctx, answer)
	o.log.Infof("Question answered: %s", answer)

	o.addNote("Q: " + question)
	o.addNote("A: " + answer)
}

// HandleHelp speaks the command reference.
func (o *Orchestrator) HandleHelp(ctx context.Context) {
	o.speak(ctx, helpMessage)
}

// HandleAnalyzePhoto describes the most recently captured photo with the
// assistant.
func (o *Orchestrator) HandleAnalyzePhoto(ctx context.Context) {
	path, err := o.store.Latest("photo_*.jpg")
	if err != nil {
		o.speak(ctx, "No photos found. Take a photo first with the camera button.")
		return
	}

	o.speak(ctx, "Analyzing photo with AI...")
	o.log.Infof("Photo analysis requested: %s", filepath.Base(path))

	if o.chain == nil {
		o.speak(ctx, "Failed to analyze photo. Please try again.")
		return
	}

	data, err := o.store.Read(path)
	if err != nil {
		o.log.Errorf("Photo analysis failed: %v", err)
		o.speak(ctx, "Failed to analyze photo.")
		return
	}

	analysis, err := o.chain.DescribePhoto(ctx, "image/jpeg", base64.StdEncoding.EncodeToString(data))
	if err != nil {
		o.log.Errorf("Photo analysis failed: %v", err)
		o.speak(ctx, "Failed to analyze photo. Please try again.")
		return
	}

	o.speak(ctx, "Photo analysis: "+analysis)
	o.log.Infof("Photo analysis result: %s", analysis)
}

// HandleMarkMoment bookmarks the current moment in the active session.
func (o *Orchestrator) HandleMarkMoment(ctx context.Context) {
	bookmark, err := o.manager.BookmarkMoment()
	if err != nil {
		o.speak(ctx, "No active session. Start a session first.")
		return
	}

	o.log.Infof("Bookmarked moment: %s at %s", bookmark.ID, bookmark.Timestamp)
	o.speak(ctx, "Moment bookmarked!")
}

// HandleSummarize summarizes the active session's voice segments with the
// assistant. Thin sessions are refused rather than summarized badly.
func (o *Orchestrator) HandleSummarize(ctx context.Context) {
	text, err := o.manager.TranscriptText()
	if err != nil {
		o.speak(ctx, "No active session. Start a session first to summarize audio.")
		return
	}
	if text == "" {
		o.speak(ctx, "No audio content available to summarize. Record some audio first.")
		return
	}

	o.speak(ctx, "Generating summary of your session...")

	if len(strings.TrimSpace(text)) < 100 {
		o.speak(ctx, "Not enough content to generate a meaningful summary. Record more audio first.")
		return
	}

	if o.chain == nil {
		o.speak(ctx, "Failed to generate summary.")
		return
	}

	summary, err := o.chain.Summarize(ctx, text)
	if err != nil {
		o.log.Errorf("Summary generation failed: %v", err)
		o.speak(ctx, "Failed to generate summary. Please try again.")
		return
	}

	o.speak(ctx, "Summary: "+summary)
	o.log.Infof("Session summary: %s", summary)
}

// HandleExportSession writes the active session as a JSON snapshot.
func (o *Orchestrator) HandleExportSession(ctx context.Context) {
	if !o.manager.Active() {
		o.speak(ctx, "No active session to export. Start a session first.")
		return
	}

	o.speak(ctx, "Exporting session data...")

	data, id, err := o.manager.ExportJSON()
	if err != nil {
		o.log.Errorf("Session export failed: %v", err)
		o.speak(ctx, "Failed to export session.")
		return
	}

	path, err := o.store.WriteExport(id, data, o.now())
	if err != nil {
		o.log.Errorf("Session export failed: %v", err)
		o.speak(ctx, "Failed to export session.")
		return
	}

	o.speak(ctx, fmt.Sprintf("Session exported successfully to %s", filepath.Base(path)))
}

// HandleStartSession starts a capture session of the kind named in the
// command and registers it with the archive best-effort.
func (o *Orchestrator) HandleStartSession(ctx context.Context, command string) {
	kind := session.KindFromCommand(command)

	_, err := o.manager.Start(kind)
	if errors.Is(err, session.ErrSessionActive) {
		o.speak(ctx, "A session is already active. Say 'end session' to stop it first.")
		return
	}
	if err != nil {
		o.log.Errorf("Failed to start session: %v", err)
		o.speak(ctx, "Failed to start session.")
		return
	}

	if o.archive != nil {
		if backendID, err := o.archive.EnsureSession(ctx, string(kind)); err != nil {
			o.log.Warnf("Failed to pre-create backend session: %v", err)
		} else {
			o.log.Infof("Backend session established: %s", backendID)
		}
	}

	o.speak(ctx, fmt.Sprintf("%s session started. I'll capture everything automatically. Say 'mark this' to bookmark important moments.", kind))
}

// HandleEndSession ends the active session and speaks its closing counts.
func (o *Orchestrator) HandleEndSession(ctx context.Context) {
	summary, err := o.manager.End()
	if err != nil {
		o.speak(ctx, "No active session to end.")
		return
	}

	// Best-effort: confirm the backend session so the archive has a record
	// of the capture even when no upload happened during it.
	if o.archive != nil {
		if backendID, err := o.archive.EnsureSession(ctx, string(summary.Kind)); err != nil {
			o.log.Warnf("Failed to send session to backend: %v", err)
		} else {
			o.log.Infof("Session %s recorded against backend session %s", summary.SessionID, backendID)
		}
	}

	o.speak(ctx, fmt.Sprintf("Session ended. Captured %d voice segments, %d photos, and %d bookmarks over %d minutes.",
		summary.SegmentCount, summary.PhotoCount, summary.BookmarkCount, summary.DurationMinutes))
}

// HandleToggleAutoCapture flips scheduled photo capture on or off. Turning
// it on mid-session starts the timer immediately.
func (o *Orchestrator) HandleToggleAutoCapture(ctx context.Context) {
	enabled := o.autocap.Toggle()
	if enabled {
		if o.manager.Active() {
			o.autocap.Start()
		}
		o.speak(ctx, "Auto-capture enabled. Visual snapshots will be taken every 30 seconds.")
	} else {
		o.speak(ctx, "Auto-capture disabled. Manual photo capture only.")
	}
	o.log.Infof("Auto-capture enabled: %v", enabled)
}

// HandleNote records a meaningful transcription line as a note.
func (o *Orchestrator) HandleNote(_ context.Context, text string) {
	o.log.Infof("Taking note: %s", text)
	o.addNote(text)
}
