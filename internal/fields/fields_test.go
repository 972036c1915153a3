package fields

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

// letterPage is an 8.5x11in page container in CSS pixels, offset the way a
// Paged.js preview places it in the viewport.
var letterPage = Rect{Left: 292, Top: 20, Width: 816, Height: 1056}

func TestFromLayout_Coordinates(t *testing.T) {
	second := letterPage
	second.Top = letterPage.Top + letterPage.Height + 20
	left, top, width := 333.3, 511.7, 401.9

	l := &Layout{
		Pages: []Rect{letterPage, second},
		Elements: []Element{
			{Name: "name", Type: "text", Page: 0, Rect: Rect{Left: 292 + 10, Top: 20 + 10, Width: 100, Height: 20}},
			{Name: "agree", Type: "checkbox", Page: 1, Rect: Rect{Left: 292 + 40, Top: second.Top + 300, Width: 16, Height: 16}},
			{Name: "notes", Type: "textarea", Page: 0, Rect: Rect{Left: left, Top: top, Width: width, Height: 107}},
			{Name: "empty", Type: "", Page: 0, Rect: Rect{Left: 500, Top: 500, Width: 0, Height: 0}},
		},
	}

	set, err := FromLayout(l)
	require.NoError(t, err)

	assert.Equal(t, 2, set.PageCount)
	assert.Equal(t, PageSize{Width: 612, Height: 792}, set.PageSizePt)
	require.Len(t, set.Fields, 4)

	text := set.Fields[0]
	assert.Equal(t, Descriptor{Name: "name", Type: TypeText, Page: 0, X: 7.5, Y: 792 - 7.5 - 15, Width: 75, Height: 15}, text)

	check := set.Fields[1]
	assert.Equal(t, 1, check.Page)
	assert.Equal(t, 30.0, check.X)
	assert.Equal(t, 792-225-12.0, check.Y)

	// y = pageHeightPt - yFromTop - heightPt, rounded to two decimals
	notes := set.Fields[2]
	assert.Equal(t, round2((left-292)*PxToPt), notes.X)
	assert.Equal(t, round2(792-(top-20)*PxToPt-107*PxToPt), notes.Y)
	assert.Equal(t, round2(width*PxToPt), notes.Width)
	assert.Equal(t, 80.25, notes.Height)

	empty := set.Fields[3]
	assert.Equal(t, TypeText, empty.Type)
	assert.Zero(t, empty.Width)
	assert.Zero(t, empty.Height)
}

func TestFromLayout_Errors(t *testing.T) {
	_, err := FromLayout(&Layout{})
	assert.True(t, pdferrors.Is(err, pdferrors.ErrorTypeInvalidArtifact))

	_, err = FromLayout(&Layout{
		Pages:    []Rect{letterPage},
		Elements: []Element{{Name: "lost", Page: 3}},
	})
	assert.True(t, pdferrors.Is(err, pdferrors.ErrorTypeInvalidArtifact))
}

func TestFieldSet_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fields-workbook.json")
	set := &FieldSet{
		Fields: []Descriptor{
			{Name: "q1_a", Type: TypeRadio, Group: "q1", Page: 0, X: 10, Y: 20, Width: 12, Height: 12},
			{Name: "goal", Type: TypeText, Page: 1, X: 54.25, Y: 600.5, Width: 300, Height: 18},
		},
		PageCount:  2,
		PageSizePt: PageSize{Width: 612, Height: 792},
	}
	require.NoError(t, set.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"pageCount": 2`)
	assert.Contains(t, string(raw), `"pageSizePt"`)
	assert.NotContains(t, string(raw), `"group": ""`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, set, loaded)
	assert.Equal(t, map[Type]int{TypeRadio: 1, TypeText: 1}, loaded.CountByType())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.True(t, pdferrors.Is(err, pdferrors.ErrorTypeIO))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = Load(bad)
	assert.True(t, pdferrors.Is(err, pdferrors.ErrorTypeInvalidArtifact))

	noPages := filepath.Join(dir, "nopages.json")
	require.NoError(t, os.WriteFile(noPages, []byte(`{"fields":[],"pageCount":0}`), 0o644))
	_, err = Load(noPages)
	assert.True(t, pdferrors.Is(err, pdferrors.ErrorTypeInvalidArtifact))
}

const workbookHTML = `<!DOCTYPE html>
<html><body>
  <section class="page">
    <span data-field-name="name" data-field-type="text">Name: ____</span>
    <div data-field-name="notes" data-field-type="textarea" contenteditable></div>
    <li data-field-name="done" data-field-type="checkbox"><input type="checkbox"> Done</li>
    <span data-field-name="yes" data-field-type="radio" data-field-group="ready">Yes</span>
    <span data-field-name="no" data-field-type="radio" data-field-group="ready">No</span>
    <span data-field-name="maybe" data-field-type="radio">Maybe</span>
    <span data-field-name="dial" data-field-type="slider"></span>
    <span data-field-name="name">again</span>
    <p>plain text</p>
  </section>
  <template><span data-field-name="hidden"></span></template>
</body></html>`

func TestScanHTML(t *testing.T) {
	res, err := ScanHTML(strings.NewReader(workbookHTML))
	require.NoError(t, err)

	require.Len(t, res.Annotations, 8)
	assert.Equal(t, Annotation{Name: "name", Type: TypeText, Tag: "span"}, res.Annotations[0])
	assert.Equal(t, Annotation{Name: "yes", Type: TypeRadio, Group: "ready", Tag: "span"}, res.Annotations[3])
	assert.Equal(t, TypeText, res.Annotations[7].Type)

	counts := res.Counts()
	assert.Equal(t, 2, counts[TypeText])
	assert.Equal(t, 3, counts[TypeRadio])

	kinds := make(map[pdferrors.ErrorType][]string)
	for _, issue := range res.Issues {
		kinds[issue.Type] = append(kinds[issue.Type], issue.FieldName)
	}
	assert.Equal(t, []string{"maybe"}, kinds[pdferrors.ErrorTypeMalformedRadio])
	assert.Equal(t, []string{"dial"}, kinds[pdferrors.ErrorTypeUnknownFieldType])
	assert.Equal(t, []string{"name"}, kinds[pdferrors.ErrorTypeDuplicateField])
}

func TestScanFile_Missing(t *testing.T) {
	_, err := ScanFile(filepath.Join(t.TempDir(), "nope.html"))
	assert.True(t, pdferrors.Is(err, pdferrors.ErrorTypeIO))
}
