package messages

// Message is the base interface for everything sent between the controller and
// the host.
type Message interface {
	Type() string
}

// MessageType constants for type identification
const (
	TypeToggleWindow         = "ToggleWindow"
	TypeSetIgnoreMouseEvents = "SetIgnoreMouseEvents"
	TypeToggleClickThrough   = "ToggleClickThrough"
	TypeDragIcon             = "DragIcon"
	TypeDragIconEnd          = "DragIconEnd"
	TypeQuitApp              = "QuitApp"
	TypeCaptureScreenshot    = "CaptureScreenshot"
	TypeScreenshotCaptured   = "ScreenshotCaptured"
	TypeAnalyzeScreenshot    = "AnalyzeScreenshot"
	TypeChat                 = "Chat"
	TypeAssistantReply       = "AssistantReply"
	TypeWindowStateChanged   = "WindowStateChanged"
)

// ToggleWindow - switch between the minimized icon and the expanded panel
type ToggleWindow struct{}

func (m ToggleWindow) Type() string { return TypeToggleWindow }

// SetIgnoreMouseEvents - make the window click-through (pointer moves still forwarded)
type SetIgnoreMouseEvents struct {
	Ignore bool
}

func (m SetIgnoreMouseEvents) Type() string { return TypeSetIgnoreMouseEvents }

// ToggleClickThrough - set click-through explicitly, always with forwarding
type ToggleClickThrough struct {
	Enabled bool
}

func (m ToggleClickThrough) Type() string { return TypeToggleClickThrough }

// DragIcon - move the minimized icon by a delta from where the drag started
type DragIcon struct {
	DeltaX int
	DeltaY int
}

func (m DragIcon) Type() string { return TypeDragIcon }

// DragIconEnd - drag finished, persist the icon position
type DragIconEnd struct{}

func (m DragIconEnd) Type() string { return TypeDragIconEnd }

// QuitApp - tear everything down
type QuitApp struct{}

func (m QuitApp) Type() string { return TypeQuitApp }

// CaptureScreenshot - request; answered with ScreenshotCaptured
type CaptureScreenshot struct{}

func (m CaptureScreenshot) Type() string { return TypeCaptureScreenshot }

// ScreenshotCaptured - PNG bytes of the primary display
type ScreenshotCaptured struct {
	Image []byte
}

func (m ScreenshotCaptured) Type() string { return TypeScreenshotCaptured }

// AnalyzeScreenshot - request; answered with AssistantReply
type AnalyzeScreenshot struct {
	Image []byte
	Query string
}

func (m AnalyzeScreenshot) Type() string { return TypeAnalyzeScreenshot }

// Chat - request; answered with AssistantReply
type Chat struct {
	Message string
}

func (m Chat) Type() string { return TypeChat }

// AssistantReply - text returned by the inference service
type AssistantReply struct {
	Text string
}

func (m AssistantReply) Type() string { return TypeAssistantReply }

// WindowStateChanged - sent by the host after every toggle
type WindowStateChanged struct {
	Minimized bool
}

func (m WindowStateChanged) Type() string { return TypeWindowStateChanged }

// Reply carries the answer to a request envelope.
type Reply struct {
	Message Message
	Err     error
}

// MessageEnvelope wraps messages with metadata for routing
type MessageEnvelope struct {
	ID      string // Set for requests; empty for one-way messages
	From    string // Source process name
	To      string // Destination process name
	Message Message
	Reply   chan<- Reply // Non-nil when the sender waits for an answer
}

// Respond answers a request envelope. It never blocks and is a no-op for
// one-way messages.
func (e MessageEnvelope) Respond(msg Message, err error) {
	if e.Reply == nil {
		return
	}
	select {
	case e.Reply <- Reply{Message: msg, Err: err}:
	default:
	}
}

// ProcessNames - constants for process identification
const (
	ProcessController = "controller"
	ProcessHost       = "host"
)
