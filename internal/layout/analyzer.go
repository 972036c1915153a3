package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xmher/PB-Products-sub000/internal/logger"
	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
	"github.com/xmher/PB-Products-sub000/internal/render"
)

// Heuristic bounds, in CSS pixels unless noted.
const (
	// a heading closer than this to the bottom may be orphaned
	orphanDistance = 80
	// content after a heading below this height does not anchor it
	minAnchoredContent = 40
	// slack when deciding whether a block follows a heading
	followTolerance = 5
	// a parent is dropped when it is this much taller than a child it contains
	parentRatio = 1.5
	// pages with at most this many blocks and under nearEmptyFill percent are near-empty
	nearEmptyElements = 2
	nearEmptyFill     = 40
	// empty share at which an underfilled page becomes high severity, in percent
	highEmptyPct = 50
)

var fullPageClasses = []string{"section-title-page", "title-page", "toc-page"}

// Renderer renders paginated HTML. *render.Renderer implements it.
type Renderer interface {
	Render(ctx context.Context, htmlPath string, req render.Request) (*render.Result, error)
}

// Analyzer renders a document and analyzes its page layout
type Analyzer struct {
	renderer Renderer
	selector string
}

// NewAnalyzer creates an analyzer that finds pages with selector
func NewAnalyzer(r Renderer, selector string) *Analyzer {
	if selector == "" {
		selector = render.DefaultPageSelector
	}
	return &Analyzer{renderer: r, selector: selector}
}

// Analyze renders htmlPath and analyzes every page
func (a *Analyzer) Analyze(ctx context.Context, htmlPath string) (*Analysis, error) {
	res, err := a.renderer.Render(ctx, htmlPath, render.Request{Script: measureScript(a.selector)})
	if err != nil {
		return nil, err
	}

	var m Measurement
	if err := json.Unmarshal(res.Data, &m); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeBrowserFailure, "failed to decode layout measurement", err).WithFile(htmlPath)
	}

	analysis := Analyze(&m)
	logger.Info("[analyze] layout measured",
		zap.Int("pages", analysis.TotalPages),
		zap.Int("flagged", len(Flagged(analysis, 0))),
	)
	return analysis, nil
}

// Analyze turns raw measurements into per-page fill figures
func Analyze(m *Measurement) *Analysis {
	out := &Analysis{
		TotalPages: m.TotalPages,
		PageSize:   m.PageSize,
		Pages:      make([]Page, 0, len(m.Pages)),
	}
	for _, raw := range m.Pages {
		out.Pages = append(out.Pages, analyzePage(raw))
	}
	return out
}

func analyzePage(raw RawPage) Page {
	elems := dedupe(raw.Elements)
	area := raw.ContentAreaHeight

	var lastBottom float64
	for _, el := range elems {
		lastBottom = math.Max(lastBottom, el.Bottom)
	}

	fill := 100
	if area > 0 {
		fill = int(math.Round(lastBottom / area * 100))
	}

	p := Page{
		PageNumber:        raw.PageNumber,
		PageHeight:        raw.PageHeight,
		ContentAreaHeight: area,
		UsedHeight:        lastBottom,
		BottomGap:         area - lastBottom,
		FillPercentage:    fill,
		ElementCount:      len(elems),
		WriteSpaces:       []WriteSpace{},
		OrphanedHeadings:  []Heading{},
	}

	for _, el := range elems {
		if el.WriteSpace {
			p.WriteSpaces = append(p.WriteSpaces, WriteSpace{Classes: el.Classes, Height: el.Height, Top: el.Top})
		}
		if isHeading(el.Tag) && orphaned(el, elems, area) {
			p.OrphanedHeadings = append(p.OrphanedHeadings, Heading{
				Tag:                el.Tag,
				Text:               el.Text,
				DistanceFromBottom: area - el.Bottom,
			})
		}
		if hasAnyClass(el.Classes, fullPageClasses) {
			p.IsFullPageElement = true
		}
	}
	p.WriteSpaceCount = len(p.WriteSpaces)

	if len(elems) > 0 {
		p.FirstContent = refOf(elems[0])
		p.LastContent = refOf(elems[len(elems)-1])
	}
	return p
}

// dedupe orders blocks top-down, taller first on ties, and drops any block
// that wraps another measured block while being much taller than it.
func dedupe(in []Element) []Element {
	elems := make([]Element, len(in))
	copy(elems, in)
	sort.SliceStable(elems, func(i, j int) bool {
		if elems[i].Top != elems[j].Top {
			return elems[i].Top < elems[j].Top
		}
		return elems[i].Height > elems[j].Height
	})

	kept := make([]Element, 0, len(elems))
	for i, el := range elems {
		if !wrapsAny(el, i, elems) {
			kept = append(kept, el)
		}
	}
	return kept
}

func wrapsAny(el Element, self int, elems []Element) bool {
	for j, f := range elems {
		if j == self {
			continue
		}
		if f.Top >= el.Top && f.Bottom <= el.Bottom && el.Height > f.Height*parentRatio {
			return true
		}
	}
	return false
}

// orphaned reports whether heading h sits near the page bottom with too
// little non-heading content after it to anchor it.
func orphaned(h Element, elems []Element, area float64) bool {
	if area-h.Bottom >= orphanDistance {
		return false
	}
	var after float64
	for _, el := range elems {
		if el.Top >= h.Top+h.Height-followTolerance && !isHeading(el.Tag) {
			after += el.Height
		}
	}
	return after < minAnchoredContent
}

func isHeading(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4":
		return true
	}
	return false
}

func hasAnyClass(classes string, want []string) bool {
	for _, c := range strings.Fields(classes) {
		for _, w := range want {
			if c == w {
				return true
			}
		}
	}
	return false
}

func refOf(el Element) *ContentRef {
	return &ContentRef{Tag: el.Tag, Classes: el.Classes, Text: el.Text}
}

// PageIssues lists the problems of one page. Title and contents pages are
// intentionally sparse and never flagged.
func PageIssues(p Page, threshold int) []Issue {
	if p.IsFullPageElement {
		return nil
	}

	var issues []Issue
	empty := 100 - p.FillPercentage

	if empty >= threshold {
		sev := SeverityMedium
		if empty >= highEmptyPct {
			sev = SeverityHigh
		}
		issues = append(issues, Issue{
			Type:     IssueUnderfilled,
			Detail:   fmt.Sprintf("%d%% empty (%.0fpx bottom gap)", empty, p.BottomGap),
			Severity: sev,
		})

		if p.WriteSpaceCount > 0 {
			extra := math.Round(p.BottomGap / float64(p.WriteSpaceCount))
			issues = append(issues, Issue{
				Type:     IssueExpandable,
				Detail:   fmt.Sprintf("%d write space(s) could each grow ~%.0fpx to fill the page", p.WriteSpaceCount, extra),
				Severity: SeveritySuggestion,
			})
		}
	}

	for _, h := range p.OrphanedHeadings {
		issues = append(issues, Issue{
			Type:     IssueOrphanedHeading,
			Detail:   fmt.Sprintf("<%s> %q is %.0fpx from page bottom", h.Tag, h.Text, h.DistanceFromBottom),
			Severity: SeverityMedium,
		})
	}

	if p.ElementCount <= nearEmptyElements && p.FillPercentage < nearEmptyFill {
		issues = append(issues, Issue{
			Type:     IssueNearEmpty,
			Detail:   fmt.Sprintf("Only %d element(s), %d%% filled", p.ElementCount, p.FillPercentage),
			Severity: SeverityHigh,
		})
	}

	return issues
}

// PageReport pairs a page with its issues
type PageReport struct {
	Page   Page
	Issues []Issue
}

// Flagged returns the pages that have at least one issue
func Flagged(a *Analysis, threshold int) []PageReport {
	if threshold <= 0 {
		threshold = 25
	}
	var out []PageReport
	for _, p := range a.Pages {
		if issues := PageIssues(p, threshold); len(issues) > 0 {
			out = append(out, PageReport{Page: p, Issues: issues})
		}
	}
	return out
}
