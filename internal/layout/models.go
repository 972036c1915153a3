// Package layout measures how well each rendered page of a paginated
// workbook is filled and flags pages that need editorial attention.
package layout

// Element is a leaf content block measured inside a page's content area.
// Top and Bottom are CSS pixels from the top of the content area, already
// clamped to it.
type Element struct {
	Tag        string  `json:"tag"`
	Classes    string  `json:"classes"`
	Text       string  `json:"text"`
	Top        float64 `json:"top"`
	Bottom     float64 `json:"bottom"`
	Height     float64 `json:"height"`
	WriteSpace bool    `json:"isWriteSpace"`
}

// RawPage is one page as measured in the browser
type RawPage struct {
	PageNumber        int       `json:"pageNumber"`
	PageHeight        float64   `json:"pageHeight"`
	ContentAreaHeight float64   `json:"contentAreaHeight"`
	Elements          []Element `json:"elements"`
}

// Size is a page size in CSS pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Measurement is the raw browser output for a whole document
type Measurement struct {
	TotalPages int       `json:"totalPages"`
	PageSize   Size      `json:"pageSize"`
	Pages      []RawPage `json:"pages"`
}

// WriteSpace is a blank writing area that could grow into unused space
type WriteSpace struct {
	Classes string  `json:"classes"`
	Height  float64 `json:"height"`
	Top     float64 `json:"top"`
}

// Heading is a heading stranded near the bottom of its page
type Heading struct {
	Tag                string  `json:"tag"`
	Text               string  `json:"text"`
	DistanceFromBottom float64 `json:"distanceFromBottom"`
}

// ContentRef identifies the first or last block on a page
type ContentRef struct {
	Tag     string `json:"tag"`
	Classes string `json:"classes"`
	Text    string `json:"text"`
}

// Page is the analysis of one rendered page
type Page struct {
	PageNumber        int          `json:"pageNumber"`
	PageHeight        float64      `json:"pageHeight"`
	ContentAreaHeight float64      `json:"contentAreaHeight"`
	UsedHeight        float64      `json:"usedHeight"`
	BottomGap         float64      `json:"bottomGap"`
	FillPercentage    int          `json:"fillPercentage"`
	IsFullPageElement bool         `json:"isFullPageElement"`
	ElementCount      int          `json:"elementCount"`
	WriteSpaceCount   int          `json:"writeSpaceCount"`
	WriteSpaces       []WriteSpace `json:"writeSpaces"`
	OrphanedHeadings  []Heading    `json:"orphanedHeadings"`
	FirstContent      *ContentRef  `json:"firstContent"`
	LastContent       *ContentRef  `json:"lastContent"`
}

// Analysis is the per-page layout analysis of a document
type Analysis struct {
	TotalPages int    `json:"totalPages"`
	PageSize   Size   `json:"pageSize"`
	Pages      []Page `json:"pages"`
}

// IssueType names a layout problem
type IssueType string

const (
	IssueUnderfilled     IssueType = "UNDERFILLED"
	IssueExpandable      IssueType = "EXPANDABLE"
	IssueOrphanedHeading IssueType = "ORPHANED HEADING"
	IssueNearEmpty       IssueType = "NEAR-EMPTY"
)

// Severity ranks a layout issue
type Severity string

const (
	SeverityHigh       Severity = "HIGH"
	SeverityMedium     Severity = "MEDIUM"
	SeveritySuggestion Severity = "SUGGESTION"
)

// Issue is a layout problem found on one page
type Issue struct {
	Type     IssueType `json:"type"`
	Detail   string    `json:"detail"`
	Severity Severity  `json:"severity"`
}
