// Package pipeline turns an annotated, paginated HTML workbook into a
// fillable PDF: render once, cache the field coordinates and the flat PDF,
// then overlay AcroForm widgets on the flat PDF.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xmher/PB-Products-sub000/internal/fields"
	"github.com/xmher/PB-Products-sub000/internal/logger"
	"github.com/xmher/PB-Products-sub000/internal/pdf"
	"github.com/xmher/PB-Products-sub000/internal/pdf/acroform"
	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
	"github.com/xmher/PB-Products-sub000/internal/render"
)

// Renderer renders a paginated HTML document. *render.Renderer implements it.
type Renderer interface {
	Render(ctx context.Context, htmlPath string, req render.Request) (*render.Result, error)
}

// Options describes one pipeline run
type Options struct {
	Input      string
	Output     string
	FlatPDF    string
	FieldsJSON string

	// FontSize is the default text widget font size
	FontSize float64

	// SkipExtract reuses FieldsJSON when it exists
	SkipExtract bool
	// SkipPDF reuses FlatPDF when it exists
	SkipPDF bool
	// Optimize rewrites the fillable PDF through the pdfcpu optimizer
	Optimize bool
}

// DefaultPaths derives the intermediate artifact paths from the output path:
// <dir>/flat-<base>.pdf and <dir>/fields-<base>.json.
func DefaultPaths(output string) (flatPDF, fieldsJSON string) {
	dir := filepath.Dir(output)
	base := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	return filepath.Join(dir, "flat-"+base+".pdf"), filepath.Join(dir, "fields-"+base+".json")
}

func (o Options) withDefaults() Options {
	flat, js := DefaultPaths(o.Output)
	if o.FlatPDF == "" {
		o.FlatPDF = flat
	}
	if o.FieldsJSON == "" {
		o.FieldsJSON = js
	}
	if o.FontSize <= 0 {
		o.FontSize = acroform.DefaultFontSize
	}
	return o
}

// Pipeline runs the render, extract, flatten and inject steps
type Pipeline struct {
	renderer  Renderer
	validator *pdf.Validator
}

// New creates a pipeline that renders with r
func New(r Renderer) *Pipeline {
	return &Pipeline{
		renderer:  r,
		validator: pdf.NewValidator(0),
	}
}

// Run executes every step in order. Any fatal error aborts the run; field
// level problems only show up in the summary's injection report.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Input == "" || opts.Output == "" {
		return nil, pdferrors.NewPipelineError(pdferrors.ErrorTypeIO, "input and output paths are required")
	}
	opts = opts.withDefaults()
	start := time.Now()

	logger.Info("[pipeline] starting",
		zap.String("input", opts.Input),
		zap.String("flat_pdf", opts.FlatPDF),
		zap.String("fields_json", opts.FieldsJSON),
		zap.String("output", opts.Output),
		zap.Float64("font_size", opts.FontSize),
	)

	if _, err := os.Stat(opts.Input); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "input HTML not found", err).WithFile(opts.Input)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to create output directory", err).WithFile(opts.Output)
	}

	summary := &Summary{
		Input:      opts.Input,
		Output:     opts.Output,
		FlatPDF:    opts.FlatPDF,
		FieldsJSON: opts.FieldsJSON,
	}

	scan, err := fields.ScanFile(opts.Input)
	if err != nil {
		return nil, err
	}
	summary.Annotated = len(scan.Annotations)
	for _, issue := range scan.Issues {
		logger.Warn("[lint] "+issue.Message,
			zap.String("field", issue.FieldName),
			zap.String("kind", issue.Type.String()),
		)
	}

	set, err := p.artifacts(ctx, opts, summary)
	if err != nil {
		return nil, err
	}
	summary.Fields = len(set.Fields)
	summary.Pages = set.PageCount

	flatPages, err := p.validator.PageCount(opts.FlatPDF)
	if err != nil {
		return nil, err
	}
	if flatPages != set.PageCount {
		return nil, pdferrors.NewPipelineErrorWithContext(pdferrors.ErrorTypePageCountMismatch,
			"field coordinates and flat PDF disagree on page count",
			fmt.Sprintf("fields JSON has %d pages, flat PDF has %d", set.PageCount, flatPages)).WithFile(opts.FlatPDF)
	}

	injector := acroform.NewInjector(acroform.Options{FontSize: opts.FontSize})
	report, err := injector.InjectFile(opts.FlatPDF, opts.Output, set.Fields)
	if err != nil {
		return nil, err
	}
	summary.Report = report

	if opts.Optimize {
		res, err := pdf.Optimize(opts.Output)
		if err != nil {
			return nil, err
		}
		summary.Optimized = res
	}

	if summary.FlatSize, err = fileSize(opts.FlatPDF); err != nil {
		return nil, err
	}
	if summary.FillableSize, err = fileSize(opts.Output); err != nil {
		return nil, err
	}
	summary.Duration = time.Since(start)

	logger.Info("[pipeline] done",
		zap.Int("fields", summary.Fields),
		zap.Int("added", report.Added()),
		zap.Int("skipped", report.Skipped),
		zap.Int("pages", summary.Pages),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// artifacts produces the field set and the flat PDF, reusing cached copies
// when the skip flags allow it. Whatever has to be generated comes from a
// single render so both artifacts share one layout.
func (p *Pipeline) artifacts(ctx context.Context, opts Options, summary *Summary) (*fields.FieldSet, error) {
	summary.ReusedFields = opts.SkipExtract && exists(opts.FieldsJSON)
	summary.ReusedFlatPDF = opts.SkipPDF && exists(opts.FlatPDF)

	var set *fields.FieldSet
	if summary.ReusedFields {
		loaded, err := fields.Load(opts.FieldsJSON)
		if err != nil {
			return nil, err
		}
		set = loaded
		logger.Info("[pipeline] reusing fields JSON",
			zap.String("path", opts.FieldsJSON),
			zap.Int("fields", len(set.Fields)))
	}
	if summary.ReusedFlatPDF {
		logger.Info("[pipeline] reusing flat PDF", zap.String("path", opts.FlatPDF))
	}
	if summary.ReusedFields && summary.ReusedFlatPDF {
		return set, nil
	}

	req := render.Request{Fields: !summary.ReusedFields, PDF: !summary.ReusedFlatPDF}
	res, err := p.renderer.Render(ctx, opts.Input, req)
	if err != nil {
		return nil, err
	}
	summary.Rendered = true

	if req.Fields {
		set, err = fields.FromLayout(res.Layout)
		if err != nil {
			return nil, err
		}
		summary.Unattributed = res.Layout.Unattributed
		if summary.Unattributed > 0 {
			logger.Debug("[pipeline] annotated elements outside every page",
				zap.Int("count", summary.Unattributed))
		}
		if err := set.Save(opts.FieldsJSON); err != nil {
			return nil, err
		}
		logger.Info("[pipeline] fields extracted",
			zap.Int("fields", len(set.Fields)),
			zap.Int("pages", set.PageCount),
			zap.String("path", opts.FieldsJSON))
	}

	if req.PDF {
		if len(res.PDF) == 0 {
			return nil, pdferrors.NewPipelineError(pdferrors.ErrorTypeBrowserFailure, "browser returned an empty PDF")
		}
		if err := writeFile(opts.FlatPDF, res.PDF); err != nil {
			return nil, err
		}
		logger.Info("[pipeline] flat PDF written",
			zap.String("path", opts.FlatPDF),
			zap.String("size", pdf.FormatMB(int64(len(res.PDF)))))
	}

	return set, nil
}

// Extract renders input once and writes only the field coordinate JSON
func (p *Pipeline) Extract(ctx context.Context, input, fieldsJSON string) (*fields.FieldSet, int, error) {
	if input == "" || fieldsJSON == "" {
		return nil, 0, pdferrors.NewPipelineError(pdferrors.ErrorTypeIO, "input and fields JSON paths are required")
	}
	if _, err := os.Stat(input); err != nil {
		return nil, 0, pdferrors.WrapError(pdferrors.ErrorTypeIO, "input HTML not found", err).WithFile(input)
	}

	res, err := p.renderer.Render(ctx, input, render.Request{Fields: true})
	if err != nil {
		return nil, 0, err
	}
	set, err := fields.FromLayout(res.Layout)
	if err != nil {
		return nil, 0, err
	}
	if err := set.Save(fieldsJSON); err != nil {
		return nil, 0, err
	}

	logger.Info("[pipeline] fields extracted",
		zap.Int("fields", len(set.Fields)),
		zap.Int("pages", set.PageCount),
		zap.String("path", fieldsJSON))
	return set, res.Layout.Unattributed, nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to create directory", err).WithFile(path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to write file", err).WithFile(path)
	}
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, pdferrors.WrapError(pdferrors.ErrorTypeIO, "cannot access artifact", err).WithFile(path)
	}
	return info.Size(), nil
}
