package descriptions

import "sort"

// Tool names exposed by the MCP server
const (
	ToolGenerateFillablePDF = "generate_fillable_pdf"
	ToolExtractFields       = "extract_fields"
	ToolInspectForm         = "inspect_form"
	ToolLintHTML            = "lint_html"
	ToolAnalyzeLayout       = "analyze_layout"
	ToolValidateFile        = "pdf_validate_file"
	ToolStatsFile           = "pdf_stats_file"
)

const (
	GenerateFillablePDFDescription = `Turn an annotated, paginated HTML workbook into a fillable PDF.

**When to use:** The HTML marks its input areas with data-field-name / data-field-type (and data-field-group for radios) and you want a PDF with native AcroForm fields at exactly those positions.

**What it does:** Renders the HTML once in headless Chrome with Paged.js, records the position of every annotated element, prints a flat PDF, then overlays text, textarea, checkbox and radio widgets on it.

**Examples:**
• Build a workbook: "Generate a fillable PDF from workbook/index.html into dist/workbook.pdf"
• Re-inject after tweaking font size: "Regenerate dist/workbook.pdf with font_size 9, reusing the existing artifacts"

**Common workflows:**
1. lint_html → generate_fillable_pdf → inspect_form
2. analyze_layout → fix underfilled pages → generate_fillable_pdf

**Best practices:** Keep skip_extract and skip_pdf off unless the HTML is unchanged since the last run; reused artifacts must come from the same render.`

	ExtractFieldsDescription = `Render an annotated HTML document and write the field coordinate JSON only.

**When to use:** You need field positions in PDF points (bottom-left origin, 72 per inch) without producing a PDF, for example to feed another injector or to diff layouts between revisions.

**Output:** {fields:[{name, type, group?, page, x, y, width, height}], pageCount, pageSizePt:{width, height}}, with page indices starting at zero.

**Best practices:** Pass the same output path later as fields_json with skip_extract to generate_fillable_pdf to skip the extraction render.`

	InspectFormDescription = `List the form fields of a fillable PDF.

**When to use:** Verify that generate_fillable_pdf produced the expected fields, or look at any third-party AcroForm.

**Output:** One line per field with name, type, zero-based page and bounds in points, or the full JSON list when format is "json".`

	LintHTMLDescription = `Check the field annotations of an HTML document without rendering it.

**When to use:** Before a render, to catch radios without a group, unknown field types and duplicate names. Each of these would otherwise be degraded or skipped during injection.

**Output:** Annotation counts per type and one line per problem found.`

	AnalyzeLayoutDescription = `Measure how full every rendered page of a paginated HTML document is.

**When to use:** While editing a workbook, to find underfilled pages, headings stranded at the bottom of a page and write spaces that could grow into unused space.

**Output:** A text report with issues per page and a fill map. threshold sets the empty percentage at which a page is flagged (default 25).`

	PDFValidateFileDescription = `Verify that a file is a readable PDF.

**When to use:** Before inspecting a PDF produced outside this server, or to check a flat PDF reused with skip_pdf.

**Output:** Whether the file is valid, with the page count or the reason it is not.`

	PDFStatsFileDescription = `Report size, page count and document metadata of a PDF.

**When to use:** Compare the flat and fillable outputs, or check Title and Producer of a generated workbook.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolGenerateFillablePDF: GenerateFillablePDFDescription,
	ToolExtractFields:       ExtractFieldsDescription,
	ToolInspectForm:         InspectFormDescription,
	ToolLintHTML:            LintHTMLDescription,
	ToolAnalyzeLayout:       AnalyzeLayoutDescription,
	ToolValidateFile:        PDFValidateFileDescription,
	ToolStatsFile:           PDFStatsFileDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns every tool name in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
