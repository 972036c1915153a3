package extraction

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/xmher/PB-Products-sub000/internal/logger"
)

// PDFCPUFormExtractor reads AcroForm fields using the pdfcpu library
type PDFCPUFormExtractor struct {
	debugMode bool
}

// NewPDFCPUFormExtractor creates a new form extractor using pdfcpu
func NewPDFCPUFormExtractor(debugMode bool) *PDFCPUFormExtractor {
	return &PDFCPUFormExtractor{
		debugMode: debugMode,
	}
}

// ExtractFormsFromFile extracts all form fields from a PDF file
func (fe *PDFCPUFormExtractor) ExtractFormsFromFile(filePath string) ([]FormField, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	return fe.ExtractFormsFromReader(file)
}

// ExtractFormsFromReader extracts forms from an io.ReadSeeker
func (fe *PDFCPUFormExtractor) ExtractFormsFromReader(reader io.ReadSeeker) ([]FormField, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(reader, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return fe.extractFormsFromContext(ctx)
}

// pageIndex maps page objects and the annotations they list to zero-based
// page indexes.
type pageIndex struct {
	pages  map[int]int
	annots map[int]int
}

func buildPageIndex(ctx *model.Context) pageIndex {
	idx := pageIndex{pages: make(map[int]int), annots: make(map[int]int)}
	for i := 1; i <= ctx.PageCount; i++ {
		pageDict, pageRef, _, err := ctx.PageDict(i, false)
		if err != nil || pageDict == nil {
			continue
		}
		if pageRef != nil {
			idx.pages[pageRef.ObjectNumber.Value()] = i - 1
		}
		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annots, err := ctx.DereferenceArray(annotsObj)
		if err != nil {
			continue
		}
		for _, a := range annots {
			if ref, ok := a.(types.IndirectRef); ok {
				idx.annots[ref.ObjectNumber.Value()] = i - 1
			}
		}
	}
	return idx
}

// pageOf resolves a widget's page, preferring its /P entry.
func (idx pageIndex) pageOf(widgetObj types.Object, widget types.Dict) int {
	if p, found := widget.Find("P"); found {
		if ref, ok := p.(types.IndirectRef); ok {
			if page, ok := idx.pages[ref.ObjectNumber.Value()]; ok {
				return page
			}
		}
	}
	if ref, ok := widgetObj.(types.IndirectRef); ok {
		if page, ok := idx.annots[ref.ObjectNumber.Value()]; ok {
			return page
		}
	}
	return -1
}

// extractFormsFromContext extracts form fields from a pdfcpu context
func (fe *PDFCPUFormExtractor) extractFormsFromContext(ctx *model.Context) ([]FormField, error) {
	forms := make([]FormField, 0)

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		fe.debugf("No AcroForm dictionary found in document")
		return forms, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return forms, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		fe.debugf("No Fields array found in AcroForm")
		return forms, nil
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	idx := buildPageIndex(ctx)
	for i, fieldRef := range fieldsArray {
		collected, err := fe.collectFields(ctx, idx, fieldRef, "", i)
		if err != nil {
			fe.debugf("Error processing field %d: %v", i, err)
			continue
		}
		forms = append(forms, collected...)
	}

	return forms, nil
}

// collectFields walks a field and its descendants. Kids that carry a /T are
// fields in their own right and get dotted names; kids without one are the
// widgets of the current field.
func (fe *PDFCPUFormExtractor) collectFields(ctx *model.Context, idx pageIndex, fieldObj types.Object, parentName string, index int) ([]FormField, error) {
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference field: %w", err)
	}
	if fieldDict == nil {
		return nil, nil
	}

	name := ""
	if nameObj, found := fieldDict.Find("T"); found {
		if s, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
			name = s
		}
	}
	if name == "" {
		name = fmt.Sprintf("field_%d", index)
	}
	if parentName != "" {
		name = parentName + "." + name
	}

	var widgetObjs []types.Object
	var children []FormField
	if kidsObj, found := fieldDict.Find("Kids"); found {
		kids, err := ctx.DereferenceArray(kidsObj)
		if err != nil {
			return nil, fmt.Errorf("failed to dereference Kids of %s: %w", name, err)
		}
		for i, kid := range kids {
			kidDict, err := ctx.DereferenceDict(kid)
			if err != nil || kidDict == nil {
				continue
			}
			if _, named := kidDict.Find("T"); named {
				sub, err := fe.collectFields(ctx, idx, kid, name, i)
				if err != nil {
					return nil, err
				}
				children = append(children, sub...)
				continue
			}
			widgetObjs = append(widgetObjs, kid)
		}
	}
	if _, found := fieldDict.Find("Rect"); found {
		widgetObjs = append([]types.Object{fieldObj}, widgetObjs...)
	}

	if len(widgetObjs) == 0 && len(children) > 0 {
		return children, nil
	}

	field := fe.processField(ctx, idx, fieldDict, name, widgetObjs)
	fe.debugf("Extracted field: %s (type: %s)", field.Name, field.Type)
	return append([]FormField{*field}, children...), nil
}

// processField reads the field-level entries and its widgets
func (fe *PDFCPUFormExtractor) processField(ctx *model.Context, idx pageIndex, fieldDict types.Dict, name string, widgetObjs []types.Object) *FormField {
	field := &FormField{Name: name, Page: -1}
	field.Type = fe.extractFieldType(ctx, fieldDict)

	flags := fe.fieldFlags(ctx, fieldDict)
	field.ReadOnly = flags&1 != 0
	field.Required = flags&2 != 0
	field.Multiline = field.Type == FormFieldTypeText && flags&(1<<12) != 0

	if valueObj, found := fieldDict.Find("V"); found {
		field.Value = fe.extractFieldValue(ctx, valueObj, field.Type)
	}

	for _, wo := range widgetObjs {
		wd, err := ctx.DereferenceDict(wo)
		if err != nil || wd == nil {
			continue
		}
		w := Widget{Page: idx.pageOf(wo, wd)}
		if rectObj, found := wd.Find("Rect"); found {
			if bb := fe.parseRect(ctx, rectObj); bb != nil {
				w.Bounds = *bb
			}
		}
		w.State, w.HasAppearance = fe.onState(ctx, wd)
		field.Widgets = append(field.Widgets, w)
	}

	if len(field.Widgets) > 0 {
		first := field.Widgets[0]
		field.Page = first.Page
		bounds := first.Bounds
		field.Bounds = &bounds
	}

	if field.Type == FormFieldTypeRadio {
		for _, w := range field.Widgets {
			if w.State != "" {
				field.Options = append(field.Options, w.State)
			}
		}
	} else if field.Type == FormFieldTypeSelect {
		field.Options = fe.extractFieldOptions(ctx, fieldDict)
	}

	field.Appearance = fe.extractFieldAppearance(ctx, fieldDict)
	return field
}

func (fe *PDFCPUFormExtractor) fieldFlags(ctx *model.Context, fieldDict types.Dict) int {
	if flagsObj, found := fieldDict.Find("Ff"); found {
		if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
			return flags.Value()
		}
	}
	if parentObj, found := fieldDict.Find("Parent"); found {
		if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
			return fe.fieldFlags(ctx, parentDict)
		}
	}
	return 0
}

// extractFieldType determines the field type from the FT entry
func (fe *PDFCPUFormExtractor) extractFieldType(ctx *model.Context, fieldDict types.Dict) FormFieldType {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		if parentObj, found := fieldDict.Find("Parent"); found {
			if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				return fe.extractFieldType(ctx, parentDict)
			}
		}
		return FormFieldTypeUnknown
	}

	ftName, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return FormFieldTypeUnknown
	}

	switch ftName {
	case "Btn":
		flags := fe.fieldFlags(ctx, fieldDict)
		if flags&(1<<15) != 0 {
			return FormFieldTypeRadio
		} else if flags&(1<<16) != 0 {
			return FormFieldTypeButton
		}
		return FormFieldTypeCheckbox
	case "Tx":
		return FormFieldTypeText
	case "Ch":
		return FormFieldTypeSelect
	case "Sig":
		return FormFieldTypeSignature
	default:
		return FormFieldTypeUnknown
	}
}

// extractFieldValue extracts the value based on field type
func (fe *PDFCPUFormExtractor) extractFieldValue(ctx *model.Context, valueObj types.Object, fieldType FormFieldType) interface{} {
	switch fieldType {
	case FormFieldTypeText, FormFieldTypeSelect:
		if val, err := ctx.DereferenceStringOrHexLiteral(valueObj, model.V10, nil); err == nil {
			return val
		}
	case FormFieldTypeCheckbox:
		if name, err := ctx.DereferenceName(valueObj, model.V10, nil); err == nil {
			return name != "" && name != "Off"
		}
	case FormFieldTypeRadio:
		if name, err := ctx.DereferenceName(valueObj, model.V10, nil); err == nil && name != "Off" {
			return name
		}
	}
	return nil
}

// onState returns the name of the widget's non-Off normal appearance and
// whether it has a normal appearance at all.
func (fe *PDFCPUFormExtractor) onState(ctx *model.Context, widget types.Dict) (string, bool) {
	apObj, found := widget.Find("AP")
	if !found {
		return "", false
	}
	ap, err := ctx.DereferenceDict(apObj)
	if err != nil || ap == nil {
		return "", false
	}
	nObj, found := ap.Find("N")
	if !found {
		return "", false
	}
	n, err := ctx.DereferenceDict(nObj)
	if err != nil || n == nil {
		// A stream rather than a state dictionary: text widgets.
		return "", true
	}
	states := make([]string, 0, len(n))
	for k := range n {
		if k != "Off" {
			states = append(states, k)
		}
	}
	sort.Strings(states)
	if len(states) == 0 {
		return "", true
	}
	return states[0], true
}

// extractFieldOptions extracts options for choice fields
func (fe *PDFCPUFormExtractor) extractFieldOptions(ctx *model.Context, fieldDict types.Dict) []string {
	var options []string

	optObj, found := fieldDict.Find("Opt")
	if !found {
		return options
	}

	optArray, err := ctx.DereferenceArray(optObj)
	if err != nil {
		return options
	}

	for _, opt := range optArray {
		// Options can be strings or arrays of [export_value, display_value]
		if str, err := ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			options = append(options, str)
		} else if arr, err := ctx.DereferenceArray(opt); err == nil && len(arr) >= 2 {
			if displayVal, err := ctx.DereferenceStringOrHexLiteral(arr[1], model.V10, nil); err == nil {
				options = append(options, displayVal)
			}
		}
	}

	return options
}

// parseRect parses rectangle coordinates
func (fe *PDFCPUFormExtractor) parseRect(ctx *model.Context, rectObj types.Object) *BoundingBox {
	rectArray, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return nil
	}

	coords := make([]float64, 4)
	for i, coord := range rectArray {
		if f, err := ctx.DereferenceNumber(coord); err == nil {
			coords[i] = f
		}
	}

	bb := newBoundingBox(coords[0], coords[1], coords[2], coords[3])
	return &bb
}

// extractFieldAppearance extracts appearance properties
func (fe *PDFCPUFormExtractor) extractFieldAppearance(ctx *model.Context, fieldDict types.Dict) *FieldAppearance {
	appearance := &FieldAppearance{}

	if daObj, found := fieldDict.Find("DA"); found {
		if daStr, err := ctx.DereferenceStringOrHexLiteral(daObj, model.V10, nil); err == nil {
			appearance.parseDAString(daStr)
		}
	}

	if bsObj, found := fieldDict.Find("BS"); found {
		if bsDict, err := ctx.DereferenceDict(bsObj); err == nil && bsDict != nil {
			if wObj, found := bsDict.Find("W"); found {
				if width, err := ctx.DereferenceNumber(wObj); err == nil {
					appearance.BorderWidth = width
				}
			}
		}
	}

	return appearance
}

// parseDAString parses the default appearance string
func (fa *FieldAppearance) parseDAString(da string) {
	parts := strings.Fields(da)
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "Tf":
			if i >= 2 {
				fa.FontName = parts[i-2]
				if size, err := parseFloat(parts[i-1]); err == nil {
					fa.FontSize = size
				}
			}
		case "rg":
			if i >= 3 {
				r, _ := parseFloat(parts[i-3])
				g, _ := parseFloat(parts[i-2])
				b, _ := parseFloat(parts[i-1])
				fa.TextColor = fmt.Sprintf("rgb(%.0f,%.0f,%.0f)", r*255, g*255, b*255)
			}
		case "g":
			if i >= 1 {
				gray, _ := parseFloat(parts[i-1])
				fa.TextColor = fmt.Sprintf("gray(%.0f)", gray*255)
			}
		}
	}
}

func (fe *PDFCPUFormExtractor) debugf(format string, args ...interface{}) {
	if fe.debugMode {
		logger.Debug("[forms] "+fmt.Sprintf(format, args...), zap.String("extractor", "pdfcpu"))
	}
}

// parseFloat is a helper to parse float from string
func parseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	return f, err
}
