package fields

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

// Annotation is an element carrying data-field-* attributes in the source HTML
type Annotation struct {
	Name  string `json:"name"`
	Type  Type   `json:"type"`
	Group string `json:"group,omitempty"`
	Tag   string `json:"tag"`
}

// ScanResult lists the annotations of a document in source order together
// with the problems the injector would later degrade or skip.
type ScanResult struct {
	Annotations []Annotation               `json:"annotations"`
	Issues      []*pdferrors.PipelineError `json:"issues,omitempty"`
}

// Counts returns the number of annotations per type
func (r *ScanResult) Counts() map[Type]int {
	counts := make(map[Type]int)
	for _, a := range r.Annotations {
		counts[a.Type]++
	}
	return counts
}

// ScanFile parses the HTML file at path and lists its field annotations
func ScanFile(path string) (*ScanResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to open HTML", err).WithFile(path)
	}
	defer f.Close()

	return ScanHTML(f)
}

// ScanHTML walks the parse tree of an HTML document and lists every element
// annotated with data-field-name. Radio options may share a name across
// different groups; any other repeated name is reported as a duplicate.
func ScanHTML(r io.Reader) (*ScanResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	res := &ScanResult{Annotations: make([]Annotation, 0)}
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Template {
				return
			}
			if a, ok := annotationOf(n); ok {
				res.Annotations = append(res.Annotations, a)
				res.check(a, seen)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return res, nil
}

func annotationOf(n *html.Node) (Annotation, bool) {
	var a Annotation
	found := false
	for _, attr := range n.Attr {
		switch attr.Key {
		case AttrName:
			a.Name = attr.Val
			found = true
		case AttrType:
			a.Type = Type(strings.TrimSpace(attr.Val))
		case AttrGroup:
			a.Group = attr.Val
		}
	}
	if !found {
		return a, false
	}
	if a.Type == "" {
		a.Type = TypeText
	}
	a.Tag = n.Data
	return a, true
}

func (r *ScanResult) check(a Annotation, seen map[string]bool) {
	switch {
	case !a.Type.Known():
		r.Issues = append(r.Issues, pdferrors.NewPipelineError(pdferrors.ErrorTypeUnknownFieldType,
			fmt.Sprintf("unknown type %q will be rendered as text", a.Type)).WithField(a.Name))
	case a.Type == TypeRadio && a.Group == "":
		r.Issues = append(r.Issues, pdferrors.NewPipelineError(pdferrors.ErrorTypeMalformedRadio,
			"radio without group will be rendered as a checkbox").WithField(a.Name))
	}

	key := a.Name
	if a.Type == TypeRadio && a.Group != "" {
		key = a.Group + "\x00" + a.Name
	}
	if seen[key] {
		r.Issues = append(r.Issues, pdferrors.NewPipelineError(pdferrors.ErrorTypeDuplicateField,
			"field name is used more than once").WithField(a.Name))
	}
	seen[key] = true
}
