package overlay

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectContains(t *testing.T) {
	r := Rect{X: 100, Y: 50, W: 30, H: 30}

	tests := []struct {
		p    Point
		want bool
	}{
		{Point{100, 50}, true},
		{Point{129, 79}, true},
		{Point{130, 60}, false},
		{Point{110, 80}, false},
		{Point{99, 60}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Contains(tt.p), "point %+v", tt.p)
	}
}

func TestRectHelpers(t *testing.T) {
	r := NewRect(Point{X: 3, Y: 4}, Size{W: 30, H: 40})
	assert.Equal(t, Point{X: 3, Y: 4}, r.Origin())
	assert.Equal(t, Size{W: 30, H: 40}, r.Size())
	assert.Equal(t, "(3,4 30x40)", r.String())
	assert.Equal(t, Point{X: 8, Y: 2}, Point{X: 3, Y: 4}.Add(5, -2))
}

func TestScreenDisplayFallbacks(t *testing.T) {
	if _, ok := workArea(); ok {
		t.Skip("platform reports a work area")
	}

	d := ScreenDisplay{Primary: func() (image.Rectangle, error) {
		return image.Rect(0, 0, 2560, 1440), nil
	}}
	assert.Equal(t, Rect{W: 2560, H: 1440}, d.WorkArea())

	d = ScreenDisplay{Primary: func() (image.Rectangle, error) {
		return image.Rectangle{}, errors.New("no display")
	}}
	assert.Equal(t, Rect{W: 1920, H: 1080}, d.WorkArea())

	assert.Equal(t, Rect{W: 1920, H: 1080}, ScreenDisplay{}.WorkArea())
}
