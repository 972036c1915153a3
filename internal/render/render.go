// Package render drives a headless Chrome through the paginated layout of
// an HTML workbook and takes measurements and a print snapshot from it.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xmher/PB-Products-sub000/internal/fields"
	"github.com/xmher/PB-Products-sub000/internal/logger"
	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

// Default rendering parameters.
const (
	DefaultTimeout      = 120 * time.Second
	DefaultSettleDelay  = 3 * time.Second
	DefaultPageSelector = ".pagedjs_page"

	pollInterval = 250 * time.Millisecond
)

// Letter paper, used when the document does not declare its own @page size.
const (
	paperWidthIn  = 8.5
	paperHeightIn = 11.0
)

// Options configures the browser and the pagination wait
type Options struct {
	// ChromePath overrides browser discovery
	ChromePath string
	// Timeout bounds the wait for the first page container
	Timeout time.Duration
	// SettleDelay is slept after pagination appears so later passes can reflow
	SettleDelay time.Duration
	// PageSelector matches one element per rendered page
	PageSelector string

	ViewportWidth  int64
	ViewportHeight int64

	// PagedScript is a local copy of the pagination polyfill served in
	// place of CDN requests
	PagedScript string
	// BlockExternal fails every request that is not file:, data: or handled above
	BlockExternal bool
}

// DefaultOptions returns the options used by the command line tools
func DefaultOptions() Options {
	return Options{
		Timeout:        DefaultTimeout,
		SettleDelay:    DefaultSettleDelay,
		PageSelector:   DefaultPageSelector,
		ViewportWidth:  1400,
		ViewportHeight: 900,
	}
}

// Request selects what to take from the rendered document. All outputs of
// one request come from the same paginated layout.
type Request struct {
	// Fields measures every annotated element
	Fields bool
	// PDF prints the document with the HTML inputs hidden
	PDF bool
	// Script is an extra expression evaluated after pagination; its JSON
	// result is returned untouched in Result.Data
	Script string
}

// Result holds what was taken from one render
type Result struct {
	Pages  int
	Layout *fields.Layout
	PDF    []byte
	Data   json.RawMessage
}

// Renderer renders paginated HTML in a fresh browser per call
type Renderer struct {
	opts   Options
	script []byte
}

// New validates opts and loads the local pagination script if one is set
func New(opts Options) (*Renderer, error) {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.PageSelector == "" {
		opts.PageSelector = def.PageSelector
	}
	if opts.ViewportWidth <= 0 || opts.ViewportHeight <= 0 {
		opts.ViewportWidth, opts.ViewportHeight = def.ViewportWidth, def.ViewportHeight
	}

	r := &Renderer{opts: opts}
	if opts.PagedScript != "" {
		data, err := os.ReadFile(opts.PagedScript)
		if err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to read pagination script", err).WithFile(opts.PagedScript)
		}
		r.script = data
		logger.Debug("[render] local pagination script loaded",
			zap.String("path", opts.PagedScript),
			zap.Int("bytes", len(data)),
		)
	}
	return r, nil
}

// Options returns the effective options
func (r *Renderer) Options() Options {
	return r.opts
}

// FileURL converts a filesystem path into the file:// URL the browser loads
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Render loads htmlPath, waits for pagination to settle and takes the
// requested outputs. The browser is torn down before Render returns.
func (r *Renderer) Render(ctx context.Context, htmlPath string, req Request) (*Result, error) {
	if _, err := os.Stat(htmlPath); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "cannot read input HTML", err).WithFile(htmlPath)
	}
	target, err := FileURL(htmlPath)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "invalid input path", err).WithFile(htmlPath)
	}

	start := time.Now()
	chromePath := FindChrome(r.opts.ChromePath)
	logger.Info("[render] loading document",
		zap.String("url", target),
		zap.String("chrome", chromePath),
		zap.Duration("timeout", r.opts.Timeout),
	)

	// Navigation, polling and printing together get twice the pagination bound.
	ctx, cancel := context.WithTimeout(ctx, 2*r.opts.Timeout+r.opts.SettleDelay)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
		chromedp.Flag("allow-file-access-from-files", true),
		chromedp.WSURLReadTimeout(60*time.Second),
	)
	if chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug(fmt.Sprintf("[render] chromedp: "+format, args...))
		}),
	)
	defer browserCancel()

	ic := &interceptor{script: r.script, blockExternal: r.opts.BlockExternal}
	ic.listen(browserCtx)

	result := &Result{}
	var ready bool
	err = chromedp.Run(browserCtx,
		fetch.Enable(),
		chromedp.EmulateViewport(r.opts.ViewportWidth, r.opts.ViewportHeight),
		chromedp.Navigate(target),
		chromedp.ActionFunc(func(ctx context.Context) error {
			logger.Debug("[render] waiting for pagination",
				zap.String("selector", r.opts.PageSelector))
			return nil
		}),
		chromedp.Poll(pagesReadyScript(r.opts.PageSelector), &ready,
			chromedp.WithPollingTimeout(r.opts.Timeout),
			chromedp.WithPollingInterval(pollInterval),
		),
		chromedp.Sleep(r.opts.SettleDelay),
		chromedp.Evaluate(pageCountScript(r.opts.PageSelector), &result.Pages),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return r.collect(ctx, req, result)
		}),
	)
	if err != nil {
		return nil, r.classify(err, htmlPath)
	}

	logger.Info("[render] document rendered",
		zap.Int("pages", result.Pages),
		zap.Int("pdf_bytes", len(result.PDF)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// collect runs the requested measurements in a fixed order: measurements
// first, then the input-hiding style, then the print.
func (r *Renderer) collect(ctx context.Context, req Request, result *Result) error {
	if req.Fields {
		var raw []byte
		if err := chromedp.Evaluate(measureFieldsScript(r.opts.PageSelector), &raw).Do(ctx); err != nil {
			return fmt.Errorf("measure fields: %w", err)
		}
		var layout fields.Layout
		if err := json.Unmarshal(raw, &layout); err != nil {
			return fmt.Errorf("decode field layout: %w", err)
		}
		result.Layout = &layout
		logger.Debug("[render] fields measured",
			zap.Int("elements", len(layout.Elements)),
			zap.Int("unattributed", layout.Unattributed),
		)
	}

	if req.Script != "" {
		var raw []byte
		if err := chromedp.Evaluate(req.Script, &raw).Do(ctx); err != nil {
			return fmt.Errorf("evaluate script: %w", err)
		}
		result.Data = json.RawMessage(raw)
	}

	if req.PDF {
		var ok bool
		if err := chromedp.Evaluate(hideInputsScript(), &ok).Do(ctx); err != nil {
			return fmt.Errorf("hide inputs: %w", err)
		}
		data, _, err := page.PrintToPDF().
			WithPaperWidth(paperWidthIn).
			WithPaperHeight(paperHeightIn).
			WithMarginTop(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithMarginRight(0).
			WithPrintBackground(true).
			WithPreferCSSPageSize(true).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("print to PDF: %w", err)
		}
		result.PDF = data
	}
	return nil
}

func (r *Renderer) classify(err error, htmlPath string) error {
	if errors.Is(err, chromedp.ErrPollingTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return pdferrors.WrapError(pdferrors.ErrorTypeRenderTimeout,
			fmt.Sprintf("no %s element appeared within %s", r.opts.PageSelector, r.opts.Timeout), err).WithFile(htmlPath)
	}
	return pdferrors.WrapError(pdferrors.ErrorTypeBrowserFailure, "browser rendering failed", err).WithFile(htmlPath)
}
