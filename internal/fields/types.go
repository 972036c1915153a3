// Package fields models the form fields found in a paginated HTML workbook:
// the raw pixel layout measured in the browser, the point-space descriptors
// handed to the PDF injector, and the JSON artifact that caches them.
package fields

// Type is the widget kind requested by an element's data-field-type attribute
type Type string

const (
	TypeText     Type = "text"
	TypeTextarea Type = "textarea"
	TypeCheckbox Type = "checkbox"
	TypeRadio    Type = "radio"
)

// Annotation attributes read from the source HTML.
const (
	AttrName  = "data-field-name"
	AttrType  = "data-field-type"
	AttrGroup = "data-field-group"
)

// PxToPt converts CSS pixels (96 per inch) to PDF points (72 per inch).
const PxToPt = 72.0 / 96.0

// Known reports whether t is one of the supported widget kinds
func (t Type) Known() bool {
	switch t {
	case TypeText, TypeTextarea, TypeCheckbox, TypeRadio:
		return true
	}
	return false
}

// Descriptor describes one fillable field in PDF point space.
// X and Y locate the lower-left corner of the box with the origin at the
// bottom-left of the page.
type Descriptor struct {
	Name   string  `json:"name"`
	Type   Type    `json:"type"`
	Group  string  `json:"group,omitempty"`
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageSize is a page size in points
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FieldSet is the coordinate artifact written between extraction and injection.
type FieldSet struct {
	Fields     []Descriptor `json:"fields"`
	PageCount  int          `json:"pageCount"`
	PageSizePt PageSize     `json:"pageSizePt"`
}

// CountByType tallies descriptors per requested type
func (fs *FieldSet) CountByType() map[Type]int {
	counts := make(map[Type]int)
	for _, d := range fs.Fields {
		counts[d.Type]++
	}
	return counts
}
