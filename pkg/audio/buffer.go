// Package audio accumulates raw PCM frames while the client is listening and
// encodes them into WAV files for upload. The buffer is safe for concurrent
// appends: audio chunks keep arriving while command handlers perform network
// I/O on the orchestrator loop.
package audio

import (
	"math"
	"sync"
	"time"
)

// Buffer holds an ordered list of raw PCM chunks for the current listening
// period. The first appended chunk flips the recording flag and records the
// start time used to measure flush duration.
type Buffer struct {
	mu        sync.Mutex
	chunks    [][]int16
	recording bool
	startTime time.Time

	now func() time.Time // test hook
}

// NewBuffer creates an empty audio buffer.
func NewBuffer() *Buffer {
	return &Buffer{now: time.Now}
}

// Append adds one PCM chunk in arrival order. Empty chunks are ignored.
func (b *Buffer) Append(chunk []int16) {
	if len(chunk) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.recording {
		b.recording = true
		b.startTime = b.now()
	}
	b.chunks = append(b.chunks, chunk)
}

// Recording reports whether any audio has been accumulated since the last
// flush.
func (b *Buffer) Recording() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recording
}

// SampleCount returns the total number of buffered samples.
func (b *Buffer) SampleCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, chunk := range b.chunks {
		total += len(chunk)
	}
	return total
}

// Flush concatenates all buffered chunks in arrival order and clears the
// buffer, returning the combined samples and the elapsed recording time in
// seconds. The buffer is cleared unconditionally, so a failed consumer never
// leaves stale audio behind. Returns nil and zero when nothing was buffered.
func (b *Buffer) Flush() ([]int16, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.chunks) == 0 {
		b.reset()
		return nil, 0
	}

	total := 0
	for _, chunk := range b.chunks {
		total += len(chunk)
	}

	combined := make([]int16, 0, total)
	for _, chunk := range b.chunks {
		combined = append(combined, chunk...)
	}

	duration := b.now().Sub(b.startTime).Seconds()
	b.reset()

	return combined, duration
}

// reset clears buffer state. Caller must hold b.mu.
func (b *Buffer) reset() {
	b.chunks = nil
	b.recording = false
	b.startTime = time.Time{}
}

// RMSLevel computes the root-mean-square level of the samples normalized to
// 16-bit full scale, clamped to [0, 1]. An empty slice yields 0.
func RMSLevel(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}

	rms := math.Sqrt(sum / float64(len(samples)))
	return math.Min(rms/32767, 1)
}
