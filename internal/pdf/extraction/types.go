package extraction

// Coordinate represents a point in PDF coordinate space
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox represents a rectangular area in PDF coordinate space
type BoundingBox struct {
	LowerLeft  Coordinate `json:"lower_left"`
	UpperRight Coordinate `json:"upper_right"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
}

// Contains reports whether other lies entirely inside b, within tol points.
func (b BoundingBox) Contains(other BoundingBox, tol float64) bool {
	return other.LowerLeft.X >= b.LowerLeft.X-tol &&
		other.LowerLeft.Y >= b.LowerLeft.Y-tol &&
		other.UpperRight.X <= b.UpperRight.X+tol &&
		other.UpperRight.Y <= b.UpperRight.Y+tol
}

func newBoundingBox(llx, lly, urx, ury float64) BoundingBox {
	if urx < llx {
		llx, urx = urx, llx
	}
	if ury < lly {
		lly, ury = ury, lly
	}
	return BoundingBox{
		LowerLeft:  Coordinate{X: llx, Y: lly},
		UpperRight: Coordinate{X: urx, Y: ury},
		Width:      urx - llx,
		Height:     ury - lly,
	}
}
