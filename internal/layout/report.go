package layout

import (
	"fmt"
	"strings"
)

const (
	ruleWidth = 62
	barWidth  = 40
)

// Report formats the analysis as the text report printed by analyze-layout
func Report(a *Analysis, threshold int) string {
	var b strings.Builder
	heavy := strings.Repeat("=", ruleWidth)
	light := strings.Repeat("-", ruleWidth)

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, heavy)
	fmt.Fprintln(&b, "  PAGE LAYOUT ANALYSIS REPORT")
	fmt.Fprintln(&b, heavy)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "  Total pages:     %d\n", a.TotalPages)
	fmt.Fprintf(&b, "  Page size:       %.0f x %.0f px\n", a.PageSize.Width, a.PageSize.Height)
	fmt.Fprintf(&b, "  Empty threshold: %d%%\n", threshold)
	fmt.Fprintln(&b)

	flagged := Flagged(a, threshold)

	fmt.Fprintln(&b, light)
	if len(flagged) == 0 {
		fmt.Fprintln(&b, "  No layout issues detected. All pages are well-filled.")
	} else {
		fmt.Fprintf(&b, "  ISSUES FOUND: %d page(s) with potential problems\n", len(flagged))
		fmt.Fprintf(&b, "  OK:           %d page(s) look good\n", len(a.Pages)-len(flagged))
	}
	fmt.Fprintln(&b, light)
	fmt.Fprintln(&b)

	if len(flagged) > 0 {
		fmt.Fprintln(&b, "  PAGES WITH ISSUES")
		fmt.Fprintln(&b, "  "+strings.Repeat("-", ruleWidth-4))
		for _, pr := range flagged {
			writePageIssues(&b, pr)
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, light)
	fmt.Fprintln(&b, "  PAGE FILL MAP")
	fmt.Fprintln(&b, "  "+strings.Repeat("-", ruleWidth-4))
	fmt.Fprintln(&b)
	for _, p := range a.Pages {
		fmt.Fprintln(&b, fillLine(p, threshold))
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "  * = flagged for review")

	return b.String()
}

func writePageIssues(b *strings.Builder, pr PageReport) {
	p := pr.Page
	fmt.Fprintln(b)
	fmt.Fprintf(b, "  PAGE %d  |  %d%% filled  |  %d elements  |  %d write spaces\n",
		p.PageNumber, p.FillPercentage, p.ElementCount, p.WriteSpaceCount)
	if p.FirstContent != nil {
		fmt.Fprintf(b, "    Starts with: <%s> %q\n", p.FirstContent.Tag, truncate(p.FirstContent.Text, 50))
	}
	if p.LastContent != nil {
		fmt.Fprintf(b, "    Ends with:   <%s> %q\n", p.LastContent.Tag, truncate(p.LastContent.Text, 50))
	}
	for _, issue := range pr.Issues {
		fmt.Fprintf(b, "    %s [%s] %s\n", severityMark(issue.Severity), issue.Type, issue.Detail)
	}
}

func severityMark(s Severity) string {
	switch s {
	case SeverityHigh:
		return "!!"
	case SeveritySuggestion:
		return ">>"
	default:
		return " !"
	}
}

// fillLine draws one row of the fill map
func fillLine(p Page, threshold int) string {
	filled := int(float64(p.FillPercentage)/100*barWidth + 0.5)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)

	empty := 100 - p.FillPercentage
	label := ""
	flag := " "
	switch {
	case p.IsFullPageElement:
		label = "(title/toc)"
	case empty >= threshold:
		label = fmt.Sprintf("<< %d%% empty", empty)
		flag = "*"
	}

	return strings.TrimRight(fmt.Sprintf("  %s p%2d |%s| %3d%%  %s", flag, p.PageNumber, bar, p.FillPercentage, label), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
