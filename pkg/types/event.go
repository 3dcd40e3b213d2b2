package types

// HostEventType defines the type of event delivered by the device host.
type HostEventType string

const (
	EventTypeTranscription HostEventType = "transcription" // EventTypeTranscription carries one transcribed line of speech.
	EventTypeButtonPress   HostEventType = "button_press"  // EventTypeButtonPress carries a physical button press.
	EventTypeCaptureTick   HostEventType = "capture_tick"  // EventTypeCaptureTick is an auto-capture scheduler tick.
)

// ButtonID identifies a physical button on the device.
type ButtonID string

const (
	ButtonMain   ButtonID = "main"
	ButtonCamera ButtonID = "camera"
)

// PressType distinguishes short and long button presses.
type PressType string

const (
	PressShort PressType = "short"
	PressLong  PressType = "long"
)

// HostEvent represents one inbound event from the device host. Events are
// processed by the orchestrator strictly in arrival order.
type HostEvent struct {
	// Type indicates the kind of event.
	Type HostEventType

	// Text is the transcribed line for transcription events.
	Text string

	// Button is the pressed button for button press events.
	Button ButtonID

	// Press is the press kind for button press events.
	Press PressType
}

// NewTranscriptionEvent creates an event carrying one transcription line.
func NewTranscriptionEvent(text string) *HostEvent {
	return &HostEvent{Type: EventTypeTranscription, Text: text}
}

// NewButtonEvent creates an event for a physical button press.
func NewButtonEvent(button ButtonID, press PressType) *HostEvent {
	return &HostEvent{Type: EventTypeButtonPress, Button: button, Press: press}
}

// NewCaptureTickEvent creates an auto-capture scheduler tick event.
func NewCaptureTickEvent() *HostEvent {
	return &HostEvent{Type: EventTypeCaptureTick}
}
