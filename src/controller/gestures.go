package controller

import (
	"screen-overlay-llm/src/messages"
	"screen-overlay-llm/src/overlay"
)

// PointerDown starts a gesture on the minimized icon. p is in screen coordinates.
func (c *Controller) PointerDown(p overlay.Point) {
	c.post(func() {
		if !c.minimized {
			return
		}
		c.gesture = &gesture{start: p}
		c.send(messages.SetIgnoreMouseEvents{Ignore: false})
	})
}

// PointerMove tracks a gesture. Once either axis moves past the threshold the
// gesture is a drag and every further move repositions the icon.
func (c *Controller) PointerMove(p overlay.Point) {
	c.post(func() {
		g := c.gesture
		if g == nil {
			return
		}
		dx, dy := p.X-g.start.X, p.Y-g.start.Y
		if abs(dx) > c.opts.DragThreshold || abs(dy) > c.opts.DragThreshold {
			g.dragging = true
			c.send(messages.DragIcon{DeltaX: dx, DeltaY: dy})
		}
	})
}

// PointerUp ends a gesture: a drag is finalised, anything else is a click that
// toggles the window.
func (c *Controller) PointerUp(p overlay.Point) {
	c.post(func() {
		g := c.gesture
		if g == nil {
			return
		}
		c.gesture = nil
		if g.dragging {
			c.send(messages.DragIconEnd{})
			c.after(c.opts.ReleaseDelay, func() {
				if c.minimized {
					c.send(messages.SetIgnoreMouseEvents{Ignore: true})
				}
			})
			return
		}
		c.after(c.opts.ClickDelay, func() { c.send(messages.ToggleWindow{}) })
	})
}

// HoverEnter makes the icon clickable while the pointer is over it.
func (c *Controller) HoverEnter() {
	c.post(func() { c.send(messages.SetIgnoreMouseEvents{Ignore: false}) })
}

// HoverLeave restores click-through, but only while minimized. A press in
// progress keeps the icon clickable until it ends.
func (c *Controller) HoverLeave() {
	c.post(func() {
		if c.minimized && c.gesture == nil {
			c.send(messages.SetIgnoreMouseEvents{Ignore: true})
		}
	})
}

// OutsideClick collapses the expanded panel.
func (c *Controller) OutsideClick() {
	c.post(func() {
		if !c.minimized {
			c.send(messages.ToggleWindow{})
		}
	})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
