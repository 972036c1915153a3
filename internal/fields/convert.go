package fields

import (
	"fmt"
	"math"

	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

// Rect is a DOMRect-style box in CSS pixels, relative to the viewport.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element is an annotated element as measured in the browser. Page is the
// index of its enclosing page container.
type Element struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Group string `json:"group"`
	Page  int    `json:"page"`
	Rect  Rect   `json:"rect"`
}

// Layout is the raw measurement taken from a paginated document. Elements
// outside every page container never make it into Elements; they are only
// counted in Unattributed.
type Layout struct {
	Pages        []Rect    `json:"pages"`
	Elements     []Element `json:"elements"`
	Unattributed int       `json:"unattributed"`
}

// FromLayout converts pixel measurements into point-space descriptors.
//
// Each element is positioned relative to its own page container, scaled by
// PxToPt, and flipped so Y grows upward from the bottom of the page. All
// values are rounded to two decimals. Zero-sized elements are kept.
func FromLayout(l *Layout) (*FieldSet, error) {
	if l == nil || len(l.Pages) == 0 {
		return nil, pdferrors.NewPipelineError(pdferrors.ErrorTypeInvalidArtifact,
			"rendered document has no page containers")
	}

	first := l.Pages[0]
	set := &FieldSet{
		Fields:    make([]Descriptor, 0, len(l.Elements)),
		PageCount: len(l.Pages),
		PageSizePt: PageSize{
			Width:  round2(first.Width * PxToPt),
			Height: round2(first.Height * PxToPt),
		},
	}

	for _, el := range l.Elements {
		if el.Page < 0 || el.Page >= len(l.Pages) {
			return nil, pdferrors.NewPipelineErrorWithContext(pdferrors.ErrorTypeInvalidArtifact,
				"element attributed to a page that was not measured",
				fmt.Sprintf("field %q on page %d of %d", el.Name, el.Page, len(l.Pages)))
		}
		set.Fields = append(set.Fields, toDescriptor(el, l.Pages[el.Page]))
	}

	return set, nil
}

func toDescriptor(el Element, page Rect) Descriptor {
	typ := Type(el.Type)
	if typ == "" {
		typ = TypeText
	}

	x := (el.Rect.Left - page.Left) * PxToPt
	yFromTop := (el.Rect.Top - page.Top) * PxToPt
	w := el.Rect.Width * PxToPt
	h := el.Rect.Height * PxToPt
	pageHeight := page.Height * PxToPt

	return Descriptor{
		Name:   el.Name,
		Type:   typ,
		Group:  el.Group,
		Page:   el.Page,
		X:      round2(x),
		Y:      round2(pageHeight - yFromTop - h),
		Width:  round2(w),
		Height: round2(h),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
