// Package device abstracts the wearable host hardware: text-to-speech
// output and on-demand photo capture.
package device

import (
	"context"
	"time"
)

// Photo is one frame captured by the device camera.
type Photo struct {
	Data      []byte
	MimeType  string
	Filename  string
	RequestID string
	Size      int
	Timestamp time.Time
}

// Device is the host hardware surface the capture client drives. Speak and
// RequestPhoto may block on hardware; callers bound them with the context.
type Device interface {
	// Speak renders text as speech on the device.
	Speak(ctx context.Context, text string) error

	// RequestPhoto captures a photo with the device camera.
	RequestPhoto(ctx context.Context) (*Photo, error)
}
