package acroform

import (
	"math"

	"github.com/xmher/PB-Products-sub000/internal/fields"
)

const (
	// inset keeps widgets inside the visual cell border drawn by the HTML.
	inset = 2.0
	// minBox is the smallest widget side after the inset is removed.
	minBox = 10.0
	// maxToggle caps checkbox and radio squares.
	maxToggle = 14.0
	// minTextareaFont is the floor for the height-derived textarea font size.
	minTextareaFont = 8.0

	DefaultFontSize = 10.0
)

// box is a widget rectangle in PDF user space, origin bottom-left
type box struct {
	X, Y, W, H float64
}

func (b box) rect() []float64 {
	return []float64{b.X, b.Y, b.X + b.W, b.Y + b.H}
}

// insetBox shrinks a descriptor's box by the inset on every side, never going
// below minBox.
func insetBox(d fields.Descriptor) box {
	return box{
		X: d.X + inset,
		Y: d.Y + inset,
		W: math.Max(d.Width-2*inset, minBox),
		H: math.Max(d.Height-2*inset, minBox),
	}
}

// toggleBox returns the square checkbox or radio widget centered in b
func toggleBox(b box) box {
	size := math.Min(math.Min(b.W, b.H), maxToggle)
	return box{
		X: b.X + (b.W-size)/2,
		Y: b.Y + (b.H-size)/2,
		W: size,
		H: size,
	}
}

// textareaFontSize grows with the box height but never exceeds the default.
func textareaFontSize(defaultSize, height float64) float64 {
	return math.Min(defaultSize, math.Max(minTextareaFont, math.Floor(height/8)))
}
