package acroform

import (
	"bytes"
	"fmt"
	"math"
)

type rgb [3]float64

// Widget palette matching the printed workbook cells.
var (
	textBackground   = rgb{0.98, 0.98, 0.97}
	textBorder       = rgb{0.8, 0.8, 0.78}
	toggleBackground = rgb{1, 1, 1}
	toggleBorder     = rgb{0.65, 0.65, 0.63}
	markColor        = rgb{0.2, 0.2, 0.2}
)

const borderWidth = 0.75

// bezier control point factor for quarter circles
const kappa = 0.551784

func (c rgb) fill() string   { return fmt.Sprintf("%s rg\n", c.operands()) }
func (c rgb) stroke() string { return fmt.Sprintf("%s RG\n", c.operands()) }

func (c rgb) operands() string {
	return fmt.Sprintf("%s %s %s", num(c[0]), num(c[1]), num(c[2]))
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// textAppearance paints the cell background and border and leaves an empty
// marked-content section for viewers to draw the value into.
func textAppearance(w, h float64) []byte {
	var buf bytes.Buffer
	buf.WriteString("q\n")
	buf.WriteString(textBackground.fill())
	fmt.Fprintf(&buf, "0 0 %s %s re f\n", num(w), num(h))
	buf.WriteString(textBorder.stroke())
	fmt.Fprintf(&buf, "%s w\n", num(borderWidth))
	half := borderWidth / 2
	fmt.Fprintf(&buf, "%s %s %s %s re S\n", num(half), num(half), num(w-borderWidth), num(h-borderWidth))
	buf.WriteString("Q\n")
	buf.WriteString("/Tx BMC\nEMC\n")
	return buf.Bytes()
}

// checkboxAppearance draws the square, plus the ZapfDingbats check when on.
func checkboxAppearance(size float64, on bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("q\n")
	buf.WriteString(toggleBackground.fill())
	buf.WriteString(toggleBorder.stroke())
	fmt.Fprintf(&buf, "%s w\n", num(borderWidth))
	half := borderWidth / 2
	fmt.Fprintf(&buf, "%s %s %s %s re B\n", num(half), num(half), num(size-borderWidth), num(size-borderWidth))
	buf.WriteString("Q\n")

	if on {
		fontSize := size * 0.8
		buf.WriteString("q\nBT\n")
		buf.WriteString(markColor.fill())
		fmt.Fprintf(&buf, "/ZaDb %s Tf\n", num(fontSize))
		// ZapfDingbats a20 is about 0.85em wide
		x := (size - fontSize*0.846) / 2
		y := (size - fontSize*0.7) / 2
		fmt.Fprintf(&buf, "%s %s Td\n(4) Tj\nET\nQ\n", num(x), num(y))
	}
	return buf.Bytes()
}

// radioAppearance draws the circle, plus the filled dot when on.
func radioAppearance(size float64, on bool) []byte {
	var buf bytes.Buffer
	c := size / 2
	r := c - borderWidth

	buf.WriteString("q\n")
	buf.WriteString(toggleBackground.fill())
	buf.WriteString(toggleBorder.stroke())
	fmt.Fprintf(&buf, "%s w\n", num(borderWidth))
	circle(&buf, c, c, r)
	buf.WriteString("B\nQ\n")

	if on {
		buf.WriteString("q\n")
		buf.WriteString(markColor.fill())
		circle(&buf, c, c, math.Max(r/2, 1))
		buf.WriteString("f\nQ\n")
	}
	return buf.Bytes()
}

func circle(buf *bytes.Buffer, cx, cy, r float64) {
	m := r * kappa
	fmt.Fprintf(buf, "%s %s m\n", num(cx+r), num(cy))
	fmt.Fprintf(buf, "%s %s %s %s %s %s c\n", num(cx+r), num(cy+m), num(cx+m), num(cy+r), num(cx), num(cy+r))
	fmt.Fprintf(buf, "%s %s %s %s %s %s c\n", num(cx-m), num(cy+r), num(cx-r), num(cy+m), num(cx-r), num(cy))
	fmt.Fprintf(buf, "%s %s %s %s %s %s c\n", num(cx-r), num(cy-m), num(cx-m), num(cy-r), num(cx), num(cy-r))
	fmt.Fprintf(buf, "%s %s %s %s %s %s c\n", num(cx+m), num(cy-r), num(cx+r), num(cy-m), num(cx+r), num(cy))
}
