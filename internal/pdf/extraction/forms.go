package extraction

import (
	"fmt"
	"sort"
	"strings"
)

// FormFieldType represents the type of a form field
type FormFieldType string

const (
	FormFieldTypeText      FormFieldType = "text"
	FormFieldTypeCheckbox  FormFieldType = "checkbox"
	FormFieldTypeRadio     FormFieldType = "radio"
	FormFieldTypeSelect    FormFieldType = "select"
	FormFieldTypeButton    FormFieldType = "button"
	FormFieldTypeSignature FormFieldType = "signature"
	FormFieldTypeUnknown   FormFieldType = "unknown"
)

// FormField represents an interactive form field in a PDF.
// Page is the zero-based index of the page holding the field's first widget,
// or -1 when no widget could be attributed to a page.
type FormField struct {
	Name       string           `json:"name"`
	Type       FormFieldType    `json:"type"`
	Value      interface{}      `json:"value,omitempty"`
	Options    []string         `json:"options,omitempty"`
	Multiline  bool             `json:"multiline,omitempty"`
	Required   bool             `json:"required"`
	ReadOnly   bool             `json:"read_only"`
	Bounds     *BoundingBox     `json:"bounds,omitempty"`
	Page       int              `json:"page"`
	Widgets    []Widget         `json:"widgets,omitempty"`
	Appearance *FieldAppearance `json:"appearance,omitempty"`
}

// Widget is one visual occurrence of a field. State is the "on" appearance
// state name for checkbox and radio widgets.
type Widget struct {
	Page          int         `json:"page"`
	Bounds        BoundingBox `json:"bounds"`
	State         string      `json:"state,omitempty"`
	HasAppearance bool        `json:"has_appearance"`
}

// FieldAppearance represents visual properties of a form field
type FieldAppearance struct {
	FontName    string  `json:"font_name,omitempty"`
	FontSize    float64 `json:"font_size,omitempty"`
	TextColor   string  `json:"text_color,omitempty"`
	BorderWidth float64 `json:"border_width,omitempty"`
}

// CountByType tallies fields per type
func CountByType(fields []FormField) map[FormFieldType]int {
	counts := make(map[FormFieldType]int)
	for _, f := range fields {
		counts[f.Type]++
	}
	return counts
}

// FormatFields renders fields as a plain-text table, one line per field.
func FormatFields(fields []FormField) string {
	if len(fields) == 0 {
		return "No form fields found\n"
	}

	var sb strings.Builder
	counts := CountByType(fields)
	types := make([]string, 0, len(counts))
	for t, n := range counts {
		types = append(types, fmt.Sprintf("%s=%d", t, n))
	}
	sort.Strings(types)
	fmt.Fprintf(&sb, "%d form field(s): %s\n", len(fields), strings.Join(types, ", "))

	for _, f := range fields {
		fmt.Fprintf(&sb, "  %-30s %-9s page %d", f.Name, f.Type, f.Page)
		if f.Bounds != nil {
			fmt.Fprintf(&sb, "  [%.2f %.2f %.2f %.2f]",
				f.Bounds.LowerLeft.X, f.Bounds.LowerLeft.Y, f.Bounds.UpperRight.X, f.Bounds.UpperRight.Y)
		}
		if len(f.Options) > 0 {
			fmt.Fprintf(&sb, "  options=%s", strings.Join(f.Options, "|"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
