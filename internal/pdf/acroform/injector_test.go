package acroform

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmher/PB-Products-sub000/internal/fields"
	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
	"github.com/xmher/PB-Products-sub000/internal/pdf/extraction"
	"github.com/xmher/PB-Products-sub000/internal/pdftest"
)

func TestGeometry(t *testing.T) {
	tests := []struct {
		name   string
		desc   fields.Descriptor
		inset  box
		toggle box
	}{
		{
			name:   "regular_cell",
			desc:   fields.Descriptor{X: 100, Y: 100, Width: 30, Height: 20},
			inset:  box{X: 102, Y: 102, W: 26, H: 16},
			toggle: box{X: 108, Y: 103, W: 14, H: 14},
		},
		{
			name:   "degenerate_cell_is_clamped",
			desc:   fields.Descriptor{X: 50, Y: 60, Width: 0, Height: 0},
			inset:  box{X: 52, Y: 62, W: 10, H: 10},
			toggle: box{X: 52, Y: 62, W: 10, H: 10},
		},
		{
			name:   "small_checkbox_keeps_its_size",
			desc:   fields.Descriptor{X: 0, Y: 0, Width: 16, Height: 16},
			inset:  box{X: 2, Y: 2, W: 12, H: 12},
			toggle: box{X: 2, Y: 2, W: 12, H: 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := insetBox(tt.desc)
			assert.Equal(t, tt.inset, got)
			assert.Equal(t, tt.toggle, toggleBox(got))
		})
	}
}

func TestTextareaFontSize(t *testing.T) {
	tests := []struct {
		defaultSize float64
		height      float64
		want        float64
	}{
		{10, 76, 9},   // 80pt box after inset
		{10, 200, 10}, // never above the default
		{10, 20, 8},   // never below 8
		{12, 90, 11},
		{6, 20, 6},
	}

	for _, tt := range tests {
		got := textareaFontSize(tt.defaultSize, tt.height)
		assert.Equal(t, tt.want, got, "default %v height %v", tt.defaultSize, tt.height)
		assert.LessOrEqual(t, got, tt.defaultSize)
	}

	// an 80pt textarea with the default font size
	size := textareaFontSize(DefaultFontSize, insetBox(fields.Descriptor{Height: 80}).H)
	assert.GreaterOrEqual(t, size, 8.0)
	assert.LessOrEqual(t, size, 10.0)
}

func TestPDFText(t *testing.T) {
	lit, ok := pdfText(`a(b)\c`).(types.StringLiteral)
	require.True(t, ok)
	assert.Equal(t, `a\(b\)\\c`, string(lit))

	hexLit, ok := pdfText("café").(types.HexLiteral)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(hexLit), "feff"))
}

func TestStateName(t *testing.T) {
	assert.Equal(t, "opt_yes", stateName("opt_yes"))
	assert.Equal(t, "very_much", stateName("very much"))
	assert.Equal(t, "opt_Off", stateName("Off"))
	assert.Equal(t, "opt_", stateName(""))

	used := map[string]bool{"a": true, "a_2": true}
	assert.Equal(t, "a_3", uniqueState("a", used))
	assert.Equal(t, "b", uniqueState("b", used))
}

func workbookDescriptors() []fields.Descriptor {
	return []fields.Descriptor{
		{Name: "full_name", Type: fields.TypeText, Page: 0, X: 10, Y: 700, Width: 100, Height: 20},
		{Name: "reflection", Type: fields.TypeTextarea, Page: 0, X: 10, Y: 400, Width: 300, Height: 80},
		{Name: "agree", Type: fields.TypeCheckbox, Page: 1, X: 100, Y: 100, Width: 30, Height: 20},
		{Name: "q1_yes", Type: fields.TypeRadio, Group: "q1", Page: 1, X: 100, Y: 200, Width: 16, Height: 16},
		{Name: "q1_no", Type: fields.TypeRadio, Group: "q1", Page: 1, X: 140, Y: 200, Width: 16, Height: 16},
		{Name: "q1_maybe", Type: fields.TypeRadio, Group: "q1", Page: 1, X: 180, Y: 200, Width: 16, Height: 16},
		{Name: "solo", Type: fields.TypeRadio, Page: 0, X: 300, Y: 300, Width: 16, Height: 16},
		{Name: "dial", Type: fields.Type("slider"), Page: 0, X: 300, Y: 500, Width: 80, Height: 18},
		{Name: "ghost", Type: fields.TypeText, Page: 5, X: 10, Y: 10, Width: 50, Height: 20},
		{Name: "full_name", Type: fields.TypeText, Page: 1, X: 10, Y: 10, Width: 50, Height: 20},
	}
}

func readFields(t *testing.T, data []byte) map[string]extraction.FormField {
	t.Helper()
	list, err := extraction.NewPDFCPUFormExtractor(false).ExtractFormsFromReader(bytes.NewReader(data))
	require.NoError(t, err)
	byName := make(map[string]extraction.FormField, len(list))
	for _, f := range list {
		byName[f.Name] = f
	}
	require.Len(t, byName, len(list), "field names must be unique")
	return byName
}

func TestInject_FieldTypes(t *testing.T) {
	var out bytes.Buffer
	report, err := NewInjector(Options{}).Inject(bytes.NewReader(pdftest.FlatPDF(t, 2)), &out, workbookDescriptors())
	require.NoError(t, err)

	assert.Equal(t, 2, report.PageCount)
	assert.Equal(t, 2, report.Text, "text plus unknown type fallback")
	assert.Equal(t, 1, report.Textarea)
	assert.Equal(t, 2, report.Checkbox, "checkbox plus radio without group")
	assert.Equal(t, 3, report.Radio)
	assert.Equal(t, 1, report.RadioGroups)
	assert.Equal(t, 2, report.Skipped, "out of range page plus duplicate name")
	assert.Equal(t, 8, report.Added())
	assert.Equal(t, 1, report.Warnings.CountType(pdferrors.ErrorTypePageOutOfRange))
	assert.Equal(t, 1, report.Warnings.CountType(pdferrors.ErrorTypeMalformedRadio))
	assert.Equal(t, 1, report.Warnings.CountType(pdferrors.ErrorTypeUnknownFieldType))

	got := readFields(t, out.Bytes())
	require.Len(t, got, 6)
	assert.NotContains(t, got, "ghost")

	name := got["full_name"]
	assert.Equal(t, extraction.FormFieldTypeText, name.Type)
	assert.Equal(t, 0, name.Page)
	assert.False(t, name.Multiline)
	require.NotNil(t, name.Bounds)
	assert.InDelta(t, 12, name.Bounds.LowerLeft.X, 0.01)
	assert.InDelta(t, 702, name.Bounds.LowerLeft.Y, 0.01)
	assert.InDelta(t, 96, name.Bounds.Width, 0.01)
	assert.InDelta(t, 16, name.Bounds.Height, 0.01)
	assert.Equal(t, 10.0, name.Appearance.FontSize)
	require.Len(t, name.Widgets, 1)
	assert.True(t, name.Widgets[0].HasAppearance)

	notes := got["reflection"]
	assert.Equal(t, extraction.FormFieldTypeText, notes.Type)
	assert.True(t, notes.Multiline)
	assert.Equal(t, 9.0, notes.Appearance.FontSize)

	agree := got["agree"]
	assert.Equal(t, extraction.FormFieldTypeCheckbox, agree.Type)
	assert.Equal(t, 1, agree.Page)
	require.NotNil(t, agree.Bounds)
	assert.InDelta(t, 108, agree.Bounds.LowerLeft.X, 0.01)
	assert.InDelta(t, 103, agree.Bounds.LowerLeft.Y, 0.01)
	assert.InDelta(t, 14, agree.Bounds.Width, 0.01)
	assert.Equal(t, "Yes", agree.Widgets[0].State)
	assert.Equal(t, false, agree.Value)

	solo := got["solo"]
	assert.Equal(t, extraction.FormFieldTypeCheckbox, solo.Type)
	assert.Equal(t, 0, solo.Page)

	assert.Equal(t, extraction.FormFieldTypeText, got["dial"].Type)

	q1 := got["q1"]
	assert.Equal(t, extraction.FormFieldTypeRadio, q1.Type)
	assert.Equal(t, 1, q1.Page)
	require.Len(t, q1.Widgets, 3)
	assert.Equal(t, []string{"q1_yes", "q1_no", "q1_maybe"}, q1.Options)
	for _, w := range q1.Widgets {
		assert.Equal(t, 1, w.Page)
		assert.True(t, w.HasAppearance)
		assert.InDelta(t, 12, w.Bounds.Width, 0.01)
	}
	assert.Nil(t, q1.Value)
}

func TestInject_RadioGroupsNeverSplit(t *testing.T) {
	descs := make([]fields.Descriptor, 0, 5)
	for i, opt := range []string{"a", "b", "c", "d", "e"} {
		descs = append(descs, fields.Descriptor{
			Name: opt, Type: fields.TypeRadio, Group: "mood", Page: i % 2,
			X: float64(50 + 30*i), Y: 100, Width: 20, Height: 20,
		})
	}

	var out bytes.Buffer
	report, err := NewInjector(Options{FontSize: 11}).Inject(bytes.NewReader(pdftest.FlatPDF(t, 2)), &out, descs)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Radio)
	assert.Equal(t, 0, report.Checkbox)
	assert.Equal(t, 1, report.RadioGroups)

	got := readFields(t, out.Bytes())
	require.Len(t, got, 1)
	mood := got["mood"]
	assert.Equal(t, extraction.FormFieldTypeRadio, mood.Type)
	assert.Len(t, mood.Widgets, 5)
	assert.Equal(t, 1, mood.Widgets[1].Page)
}

func TestInjectFile_InPlaceAndMerge(t *testing.T) {
	dir := t.TempDir()
	flat := pdftest.WriteFlatPDF(t, dir, 1)
	out := filepath.Join(dir, "out", "fillable.pdf")

	injector := NewInjector(Options{})
	_, err := injector.InjectFile(flat, out, []fields.Descriptor{
		{Name: "first", Type: fields.TypeText, Page: 0, X: 10, Y: 10, Width: 100, Height: 20},
	})
	require.NoError(t, err)

	report, err := injector.InjectFile(out, out, []fields.Descriptor{
		{Name: "second", Type: fields.TypeCheckbox, Page: 0, X: 10, Y: 50, Width: 20, Height: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checkbox)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	got := readFields(t, data)
	assert.Contains(t, got, "first")
	assert.Contains(t, got, "second")

	leftovers, err := filepath.Glob(filepath.Join(dir, "out", ".fillable-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestInject_Errors(t *testing.T) {
	_, err := NewInjector(Options{}).Inject(bytes.NewReader([]byte("not a pdf")), &bytes.Buffer{}, nil)
	assert.True(t, pdferrors.Is(err, pdferrors.ErrorTypeInvalidArtifact))

	_, err = NewInjector(Options{}).InjectFile(filepath.Join(t.TempDir(), "missing.pdf"), filepath.Join(t.TempDir(), "o.pdf"), nil)
	assert.True(t, pdferrors.Is(err, pdferrors.ErrorTypeIO))
}

func TestInject_UnicodeNames(t *testing.T) {
	var out bytes.Buffer
	_, err := NewInjector(Options{}).Inject(bytes.NewReader(pdftest.FlatPDF(t, 1)), &out, []fields.Descriptor{
		{Name: "café_notes", Type: fields.TypeText, Page: 0, X: 10, Y: 10, Width: 100, Height: 20},
		{Name: "goal (1)", Type: fields.TypeText, Page: 0, X: 10, Y: 40, Width: 100, Height: 20},
	})
	require.NoError(t, err)

	got := readFields(t, out.Bytes())
	assert.Contains(t, got, "café_notes")
	assert.Contains(t, got, "goal (1)")
}

func TestInject_DottedNamesBuildHierarchy(t *testing.T) {
	var out bytes.Buffer
	report, err := NewInjector(Options{}).Inject(bytes.NewReader(pdftest.FlatPDF(t, 1)), &out, []fields.Descriptor{
		{Name: "agree", Type: fields.TypeCheckbox, Page: 0, X: 10, Y: 10, Width: 20, Height: 20},
		{Name: "contact.email", Type: fields.TypeText, Page: 0, X: 10, Y: 40, Width: 100, Height: 20},
		{Name: "contact.phone", Type: fields.TypeText, Page: 0, X: 10, Y: 70, Width: 100, Height: 20},
		{Name: "contact", Type: fields.TypeText, Page: 0, X: 10, Y: 100, Width: 100, Height: 20},
		{Name: "agree.why", Type: fields.TypeText, Page: 0, X: 10, Y: 130, Width: 100, Height: 20},
		{Name: "a..b", Type: fields.TypeText, Page: 0, X: 10, Y: 160, Width: 100, Height: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, 3, report.Warnings.CountType(pdferrors.ErrorTypeDuplicateField))

	got := readFields(t, out.Bytes())
	require.Len(t, got, 3)
	assert.Contains(t, got, "agree")
	assert.Contains(t, got, "contact.email")
	assert.Contains(t, got, "contact.phone")

	ctx, err := api.ReadContext(bytes.NewReader(out.Bytes()), model.NewDefaultConfiguration())
	require.NoError(t, err)
	root, err := ctx.Catalog()
	require.NoError(t, err)
	form, err := ctx.DereferenceDict(root["AcroForm"])
	require.NoError(t, err)
	top, err := ctx.DereferenceArray(form["Fields"])
	require.NoError(t, err)
	require.Len(t, top, 2)

	partial := func(d types.Dict) string {
		s, err := ctx.DereferenceStringOrHexLiteral(d["T"], model.V10, nil)
		require.NoError(t, err)
		return s
	}

	contact, err := ctx.DereferenceDict(top[1])
	require.NoError(t, err)
	assert.Equal(t, "contact", partial(contact))
	_, hasRect := contact.Find("Rect")
	assert.False(t, hasRect)

	kids, err := ctx.DereferenceArray(contact["Kids"])
	require.NoError(t, err)
	require.Len(t, kids, 2)
	email, err := ctx.DereferenceDict(kids[0])
	require.NoError(t, err)
	assert.Equal(t, "email", partial(email))
	assert.NotContains(t, partial(email), ".")
}
