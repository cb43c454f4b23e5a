package screenshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"

	"github.com/kbinani/screenshot"
)

var (
	ErrNoScreenSource = errors.New("no screen source available")
	ErrCaptureFailed  = errors.New("screen capture failed")
)

// Source enumerates displays and grabs pixels. The default source is backed by
// github.com/kbinani/screenshot.
type Source interface {
	NumActiveDisplays() int
	GetDisplayBounds(displayIndex int) image.Rectangle
	CaptureRect(rect image.Rectangle) (*image.RGBA, error)
}

type displaySource struct{}

func (displaySource) NumActiveDisplays() int                 { return screenshot.NumActiveDisplays() }
func (displaySource) GetDisplayBounds(i int) image.Rectangle { return screenshot.GetDisplayBounds(i) }
func (displaySource) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

// Capturer grabs the primary display as PNG.
type Capturer struct {
	src Source
}

func New() *Capturer { return &Capturer{src: displaySource{}} }

// NewWithSource is used by tests and by callers that capture from something
// other than the physical screen.
func NewWithSource(src Source) *Capturer { return &Capturer{src: src} }

// Capture grabs the first screen source at the primary display size and returns
// PNG bytes.
func (c *Capturer) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.src.NumActiveDisplays() == 0 {
		return nil, ErrNoScreenSource
	}

	bounds := c.src.GetDisplayBounds(0)
	if bounds.Empty() {
		return nil, fmt.Errorf("primary display has empty bounds %v: %w", bounds, ErrCaptureFailed)
	}

	img, err := c.src.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrCaptureFailed, err)
	}
	log.Printf("Screenshot: captured %dx%d (%d bytes)", bounds.Dx(), bounds.Dy(), buf.Len())
	return buf.Bytes(), nil
}

// PrimaryBounds returns the bounds of the primary display.
func (c *Capturer) PrimaryBounds() (image.Rectangle, error) {
	if c.src.NumActiveDisplays() == 0 {
		return image.Rectangle{}, ErrNoScreenSource
	}
	return c.src.GetDisplayBounds(0), nil
}
