package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/xmher/PB-Products-sub000/internal/pdf"
	"github.com/xmher/PB-Products-sub000/internal/pdf/acroform"
)

// Summary reports what a run produced
type Summary struct {
	Input      string `json:"input"`
	Output     string `json:"output"`
	FlatPDF    string `json:"flatPdf"`
	FieldsJSON string `json:"fieldsJson"`

	Rendered      bool `json:"rendered"`
	ReusedFields  bool `json:"reusedFields"`
	ReusedFlatPDF bool `json:"reusedFlatPdf"`

	// Annotated counts annotated elements in the source HTML
	Annotated int `json:"annotated"`
	// Unattributed counts annotated elements outside every page container
	Unattributed int `json:"unattributed"`
	Fields       int `json:"fields"`
	Pages        int `json:"pages"`

	Report    *acroform.Report    `json:"report"`
	Optimized *pdf.OptimizeResult `json:"optimized,omitempty"`

	FlatSize     int64         `json:"flatSize"`
	FillableSize int64         `json:"fillableSize"`
	Duration     time.Duration `json:"duration"`
}

// String renders the summary printed by the command line tool
func (s *Summary) String() string {
	var b strings.Builder
	line := strings.Repeat("=", 58)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "  DONE")
	fmt.Fprintf(&b, "  Flat PDF:     %s\n", pdf.FormatMB(s.FlatSize))
	fmt.Fprintf(&b, "  Fillable PDF: %s\n", pdf.FormatMB(s.FillableSize))
	if s.Optimized != nil {
		fmt.Fprintf(&b, "  Optimized:    %s -> %s\n", pdf.FormatMB(s.Optimized.Before), pdf.FormatMB(s.Optimized.After))
	}
	fmt.Fprintf(&b, "  Fields:       %d\n", s.Fields)
	if s.Report != nil {
		r := s.Report
		fmt.Fprintf(&b, "  Added:        %d (text %d, textarea %d, checkbox %d, radio %d in %d group(s))\n",
			r.Added(), r.Text, r.Textarea, r.Checkbox, r.Radio, r.RadioGroups)
		fmt.Fprintf(&b, "  Skipped:      %d\n", r.Skipped)
	}
	if s.Unattributed > 0 {
		fmt.Fprintf(&b, "  Off-page:     %d\n", s.Unattributed)
	}
	fmt.Fprintf(&b, "  Pages:        %d\n", s.Pages)
	fmt.Fprint(&b, line)
	return b.String()
}
