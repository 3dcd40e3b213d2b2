package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/notedhq/noted/pkg/capture"
	"github.com/notedhq/noted/pkg/device"
	"github.com/notedhq/noted/pkg/types"
)

// consoleDevice simulates the wearable hardware on a terminal: speech is
// printed, photos are synthetic JPEG frames.
type consoleDevice struct {
	mu    sync.Mutex
	out   io.Writer
	frame int
}

func newConsoleDevice(out io.Writer) *consoleDevice {
	return &consoleDevice{out: out}
}

func (d *consoleDevice) Speak(_ context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := fmt.Fprintf(d.out, "[voice] %s\n", text)
	return err
}

func (d *consoleDevice) RequestPhoto(_ context.Context) (*device.Photo, error) {
	d.mu.Lock()
	d.frame++
	frame := d.frame
	d.mu.Unlock()

	// A minimal JPEG-ish payload stands in for a camera frame.
	data := append([]byte{0xFF, 0xD8, 0xFF, 0xDB}, []byte(fmt.Sprintf("frame %d", frame))...)

	return &device.Photo{
		Data:      data,
		MimeType:  "image/jpeg",
		Filename:  fmt.Sprintf("frame_%d.jpg", frame),
		RequestID: fmt.Sprintf("console_%d", frame),
		Size:      len(data),
		Timestamp: time.Now(),
	}, nil
}

// runConsole feeds stdin into the orchestrator: slash commands simulate
// button presses, everything else is a transcription line.
func runConsole(ctx context.Context, orch *capture.Orchestrator) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := handleConsoleLine(orch, line); done {
				return nil
			}
		}
	}
}

func handleConsoleLine(orch *capture.Orchestrator, line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	switch trimmed {
	case "/quit", "/exit":
		return true
	case "/photo":
		orch.OnButtonPress(types.ButtonCamera, types.PressShort)
	case "/camera-long":
		orch.OnButtonPress(types.ButtonCamera, types.PressLong)
	case "/main":
		orch.OnButtonPress(types.ButtonMain, types.PressShort)
	case "/main-long":
		orch.OnButtonPress(types.ButtonMain, types.PressLong)
	default:
		orch.OnTranscription(trimmed)
	}
	return false
}
