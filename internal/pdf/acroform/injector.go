// Package acroform overlays native AcroForm widgets on a flat PDF at the
// positions measured in the rendered HTML.
//
// Every widget is a static field: no JavaScript actions, no calculation
// order. Appearance streams are written explicitly so viewers do not have
// to synthesise them.
package acroform

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/xmher/PB-Products-sub000/internal/fields"
	"github.com/xmher/PB-Products-sub000/internal/logger"
	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

// Options configures widget construction
type Options struct {
	// FontSize is the default font size of text widgets. Zero means DefaultFontSize.
	FontSize float64
}

// Report counts the widgets created by type, plus the descriptors skipped.
// A radio descriptor without a group is counted as a checkbox.
type Report struct {
	Text        int `json:"text"`
	Textarea    int `json:"textarea"`
	Checkbox    int `json:"checkbox"`
	Radio       int `json:"radio"`
	RadioGroups int `json:"radioGroups"`
	Skipped     int `json:"skipped"`
	PageCount   int `json:"pageCount"`

	Warnings *pdferrors.ErrorCollection `json:"warnings,omitempty"`
}

// Added returns the number of widgets placed
func (r *Report) Added() int {
	return r.Text + r.Textarea + r.Checkbox + r.Radio
}

// Injector adds form fields to flat PDFs
type Injector struct {
	opts Options
	conf *model.Configuration
}

// NewInjector creates an injector with the given options
func NewInjector(opts Options) *Injector {
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Injector{opts: opts, conf: conf}
}

// InjectFile reads the flat PDF at inPath and writes the fillable PDF to
// outPath. inPath and outPath may be the same file.
func (in *Injector) InjectFile(inPath, outPath string, descs []fields.Descriptor) (*Report, error) {
	src, err := os.Open(inPath)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to open flat PDF", err).WithFile(inPath)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to create output directory", err).WithFile(outPath)
	}
	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".fillable-*.pdf")
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to create output file", err).WithFile(outPath)
	}
	defer os.Remove(tmp.Name())

	report, err := in.Inject(src, tmp, descs)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to flush output file", cerr).WithFile(outPath)
	}
	if err != nil {
		return nil, err
	}
	src.Close()

	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to write fillable PDF", err).WithFile(outPath)
	}
	return report, nil
}

// Inject reads a flat PDF from rs, adds one widget per descriptor and
// writes the result to w.
func (in *Injector) Inject(rs io.ReadSeeker, w io.Writer, descs []fields.Descriptor) (*Report, error) {
	ctx, err := api.ReadContext(rs, in.conf)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidArtifact, "failed to read flat PDF", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidArtifact, "failed to count pages of flat PDF", err)
	}

	b, err := newFormBuilder(ctx, in.opts.FontSize)
	if err != nil {
		return nil, err
	}

	report := &Report{PageCount: ctx.PageCount, Warnings: pdferrors.NewErrorCollection("")}
	for _, d := range descs {
		if err := in.add(b, d, report); err != nil {
			return nil, err
		}
	}
	report.RadioGroups = len(b.radios)

	if err := b.finish(); err != nil {
		return nil, err
	}

	if err := api.WriteContext(ctx, w); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to write fillable PDF", err)
	}

	logger.Info("[fields] form fields added",
		zap.Int("text", report.Text),
		zap.Int("textarea", report.Textarea),
		zap.Int("checkbox", report.Checkbox),
		zap.Int("radio", report.Radio),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// add places a single descriptor. Problems local to the descriptor are
// recorded on the report and never returned.
func (in *Injector) add(b *formBuilder, d fields.Descriptor, report *Report) error {
	if d.Page < 0 || d.Page >= report.PageCount {
		in.skip(report, pdferrors.NewPipelineErrorWithContext(pdferrors.ErrorTypePageOutOfRange,
			"page does not exist in flat PDF",
			fmt.Sprintf("page %d of %d", d.Page, report.PageCount)).WithField(d.Name).WithPage(d.Page))
		return nil
	}
	pageNr := d.Page + 1
	bx := insetBox(d)

	typ := d.Type
	if !typ.Known() {
		in.warn(report, pdferrors.NewPipelineErrorWithContext(pdferrors.ErrorTypeUnknownFieldType,
			"unknown field type, using text", string(typ)).WithField(d.Name).WithPage(d.Page))
		typ = fields.TypeText
	}
	if typ == fields.TypeRadio && d.Group == "" {
		in.warn(report, pdferrors.NewPipelineError(pdferrors.ErrorTypeMalformedRadio,
			"radio without group, using checkbox").WithField(d.Name).WithPage(d.Page))
		typ = fields.TypeCheckbox
	}

	claimed := d.Name
	if typ == fields.TypeRadio {
		claimed = d.Group
		if _, exists := b.radios[d.Group]; exists {
			claimed = ""
		}
	}
	if claimed != "" {
		if err := b.claim(claimed); err != nil {
			in.skip(report, pdferrors.NewPipelineError(pdferrors.ErrorTypeDuplicateField,
				err.Error()).WithField(claimed).WithPage(d.Page))
			return nil
		}
	}

	var err error
	switch typ {
	case fields.TypeText:
		err = b.addText(pageNr, d.Name, bx, false, in.opts.FontSize)
		report.Text++
	case fields.TypeTextarea:
		err = b.addText(pageNr, d.Name, bx, true, textareaFontSize(in.opts.FontSize, bx.H))
		report.Textarea++
	case fields.TypeCheckbox:
		err = b.addCheckbox(pageNr, d.Name, toggleBox(bx))
		report.Checkbox++
	case fields.TypeRadio:
		err = b.addRadioOption(pageNr, d.Group, d.Name, toggleBox(bx))
		report.Radio++
	}
	if err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeInvalidArtifact, "failed to add field", err).WithContext(d.Name)
	}
	return nil
}

func (in *Injector) skip(report *Report, e *pdferrors.PipelineError) {
	report.Skipped++
	in.warn(report, e)
}

func (in *Injector) warn(report *Report, e *pdferrors.PipelineError) {
	report.Warnings.Add(e)
	logger.Warn("[fields] "+e.Message,
		zap.String("field", e.FieldName),
		zap.Int("page", e.PageNumber),
		zap.String("kind", e.Type.String()),
		zap.String("detail", e.Context),
	)
}
