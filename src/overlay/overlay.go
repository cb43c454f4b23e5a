// Package overlay holds the geometry and native window primitives behind the
// floating overlay: bounds, click-through, always-on-top and the work area.
package overlay

import "fmt"

// Point is a screen position in physical pixels. The JSON form is what gets
// persisted as the icon position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(dx, dy int) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

type Size struct {
	W int
	H int
}

type Rect struct {
	X, Y, W, H int
}

func NewRect(p Point, s Size) Rect { return Rect{X: p.X, Y: p.Y, W: s.W, H: s.H} }

func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }
func (r Rect) Size() Size    { return Size{W: r.W, H: r.H} }

// Contains reports whether p lies inside r (right and bottom edges excluded).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

func (r Rect) String() string { return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H) }

// Window is the native overlay window.
type Window interface {
	SetBounds(r Rect) error
	Bounds() Rect
	// SetIgnoreMouseEvents makes the window click-through. With forward set the
	// application still wants pointer moves while ignoring clicks.
	SetIgnoreMouseEvents(ignore, forward bool) error
	SetAlwaysOnTop(onTop bool) error
	Show()
	Focus()
	Destroy()
}

// Display reports the usable area of the primary display.
type Display interface {
	WorkArea() Rect
}
