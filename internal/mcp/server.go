package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/xmher/PB-Products-sub000/internal/config"
	"github.com/xmher/PB-Products-sub000/internal/descriptions"
	"github.com/xmher/PB-Products-sub000/internal/fields"
	"github.com/xmher/PB-Products-sub000/internal/layout"
	"github.com/xmher/PB-Products-sub000/internal/logger"
	"github.com/xmher/PB-Products-sub000/internal/pdf"
	"github.com/xmher/PB-Products-sub000/internal/pdf/extraction"
	"github.com/xmher/PB-Products-sub000/internal/pdf/security"
	"github.com/xmher/PB-Products-sub000/internal/pipeline"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	paths     *security.PathValidator
	pipeline  *pipeline.Pipeline
	analyzer  *layout.Analyzer
	validator *pdf.Validator
	stats     *pdf.Stats
	forms     *extraction.PDFCPUFormExtractor
	mcpServer *server.MCPServer

	// renders share the artifact paths of the working directory
	renderMu sync.Mutex
}

// NewServer creates a new MCP server instance. Every tool path is confined
// to cfg.WorkDir.
func NewServer(cfg *config.Config, r pipeline.Renderer) (*Server, error) {
	if r == nil {
		return nil, fmt.Errorf("renderer cannot be nil")
	}
	paths, err := security.NewPathValidator(cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		paths:     paths,
		pipeline:  pipeline.New(r),
		analyzer:  layout.NewAnalyzer(r, ""),
		validator: pdf.NewValidator(cfg.MaxFileSize),
		stats:     pdf.NewStats(cfg.MaxFileSize),
		forms:     extraction.NewPDFCPUFormExtractor(cfg.IsDebug()),
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolGenerateFillablePDF,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolGenerateFillablePDF)),
		mcp.WithString("input", mcp.Required(), mcp.Description("Annotated HTML file, relative to the working directory")),
		mcp.WithString("output", mcp.Description("Fillable PDF to write (default: <input base>.pdf next to the input)")),
		mcp.WithString("flat_pdf", mcp.Description("Intermediate flat PDF (default: flat-<output base>.pdf)")),
		mcp.WithString("fields_json", mcp.Description("Coordinate JSON (default: fields-<output base>.json)")),
		mcp.WithNumber("font_size", mcp.Description("Default font size of text fields in points")),
		mcp.WithBoolean("skip_extract", mcp.Description("Reuse fields_json when it exists")),
		mcp.WithBoolean("skip_pdf", mcp.Description("Reuse flat_pdf when it exists")),
		mcp.WithBoolean("optimize", mcp.Description("Optimize the fillable PDF after injection")),
	), s.handleGenerateFillablePDF)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExtractFields,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExtractFields)),
		mcp.WithString("input", mcp.Required(), mcp.Description("Annotated HTML file")),
		mcp.WithString("output", mcp.Description("Coordinate JSON to write (default: fields-<input base>.json)")),
	), s.handleExtractFields)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolInspectForm,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolInspectForm)),
		mcp.WithString("path", mcp.Required(), mcp.Description("Fillable PDF file")),
		mcp.WithString("format", mcp.Description(`"text" (default) or "json"`)),
	), s.handleInspectForm)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolLintHTML,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolLintHTML)),
		mcp.WithString("input", mcp.Required(), mcp.Description("Annotated HTML file")),
	), s.handleLintHTML)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolAnalyzeLayout,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolAnalyzeLayout)),
		mcp.WithString("input", mcp.Required(), mcp.Description("Paginated HTML file")),
		mcp.WithNumber("threshold", mcp.Description("Empty percentage at which a page is flagged (default 25)")),
		mcp.WithBoolean("json", mcp.Description("Return the raw analysis as JSON")),
	), s.handleAnalyzeLayout)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolValidateFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolValidateFile)),
		mcp.WithString("path", mcp.Required(), mcp.Description("PDF file")),
	), s.handlePDFValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolStatsFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolStatsFile)),
		mcp.WithString("path", mcp.Required(), mcp.Description("PDF file")),
	), s.handlePDFStatsFile)
}

// Handler functions

func (s *Server) handleGenerateFillablePDF(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	input, err := s.inputPath(request, "input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	outArg := stringArg(args, "output")
	if outArg == "" {
		outArg = strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
	}
	output, err := s.paths.Resolve(outArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := pipeline.Options{
		Input:       input,
		Output:      output,
		FontSize:    s.config.FontSize,
		SkipExtract: boolArg(args, "skip_extract"),
		SkipPDF:     boolArg(args, "skip_pdf"),
		Optimize:    boolArg(args, "optimize"),
	}
	if size := numberArg(args, "font_size"); size > 0 {
		opts.FontSize = size
	}
	for key, dst := range map[string]*string{"flat_pdf": &opts.FlatPDF, "fields_json": &opts.FieldsJSON} {
		if v := stringArg(args, key); v != "" {
			if *dst, err = s.paths.Resolve(v); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
	}

	var summary *pipeline.Summary
	err = s.rendering(func() (err error) {
		summary, err = s.pipeline.Run(ctx, opts)
		return err
	})
	if err != nil {
		logger.Error("[mcp] generate_fillable_pdf failed", zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := summary.String()
	if summary.Report != nil && summary.Report.Warnings != nil {
		if warnings := summary.Report.Warnings.Warnings; len(warnings) > 0 {
			text += "\nField warnings:\n"
			for _, w := range warnings {
				text += fmt.Sprintf("  [%s] %s: %s\n", w.Type, w.FieldName, w.Message)
			}
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleExtractFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := s.inputPath(request, "input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outArg := stringArg(request.GetArguments(), "output")
	if outArg == "" {
		_, outArg = pipeline.DefaultPaths(input)
	}
	output, err := s.paths.Resolve(outArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var set *fields.FieldSet
	var unattributed int
	err = s.rendering(func() (err error) {
		set, unattributed, err = s.pipeline.Extract(ctx, input, output)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Extracted %d field(s) on %d page(s) to %s\n", len(set.Fields), set.PageCount, output)
	text += fmt.Sprintf("Page size: %.2f x %.2f pt\n", set.PageSizePt.Width, set.PageSizePt.Height)
	text += formatCounts(set.CountByType())
	if unattributed > 0 {
		text += fmt.Sprintf("Outside every page (dropped): %d\n", unattributed)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleInspectForm(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.inputPath(request, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	formFields, err := s.forms.ExtractFormsFromFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if stringArg(request.GetArguments(), "format") == "json" {
		data, err := json.MarshalIndent(formFields, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Form fields in %s\n", path) + extraction.FormatFields(formFields)), nil
}

func (s *Server) handleLintHTML(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := s.inputPath(request, "input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := fields.ScanFile(input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("%d annotated element(s) in %s\n", len(res.Annotations), input)
	text += formatCounts(res.Counts())
	if len(res.Issues) == 0 {
		text += "No annotation problems found\n"
	} else {
		text += fmt.Sprintf("\n%d problem(s):\n", len(res.Issues))
		for _, issue := range res.Issues {
			text += fmt.Sprintf("  [%s] %s: %s\n", issue.Type, issue.FieldName, issue.Message)
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleAnalyzeLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := s.inputPath(request, "input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	threshold := s.config.Threshold
	if v := numberArg(args, "threshold"); v > 0 {
		threshold = int(v)
	}

	var analysis *layout.Analysis
	err = s.rendering(func() (err error) {
		analysis, err = s.analyzer.Analyze(ctx, input)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if boolArg(args, "json") {
		data, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultText(layout.Report(analysis, threshold)), nil
}

func (s *Server) handlePDFValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.inputPath(request, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.validator.ValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFStatsFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.inputPath(request, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.stats.GetFileStats(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPDFStatsFileResult(result)), nil
}

// inputPath reads a required path argument and resolves it to an existing
// file inside the working directory.
func (s *Server) inputPath(request mcp.CallToolRequest, key string) (string, error) {
	raw, err := request.RequireString(key)
	if err != nil {
		return "", err
	}
	return s.paths.ResolveExisting(raw)
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func numberArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Formatting helpers

func formatCounts(counts map[fields.Type]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for t := range counts {
		keys = append(keys, string(t))
	}
	sort.Strings(keys)

	text := "By type:"
	for _, k := range keys {
		text += fmt.Sprintf(" %s=%d", k, counts[fields.Type(k)])
	}
	return text + "\n"
}

// rendering runs fn while holding the render lock. Renders share the
// working directory and a browser, so tool calls that render run one at a time.
func (s *Server) rendering(fn func() error) error {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return fn()
}

func formatPDFStatsFileResult(result *pdf.PDFStatsFileResult) string {
	text := "PDF File Statistics\n"
	text += fmt.Sprintf("File: %s\n", result.Path)
	text += fmt.Sprintf("Size: %s (%d bytes)\n", pdf.FormatMB(result.Size), result.Size)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	text += fmt.Sprintf("Modified: %s\n", result.ModifiedDate)

	if result.Title != "" {
		text += fmt.Sprintf("Title: %s\n", result.Title)
	}
	if result.Producer != "" {
		text += fmt.Sprintf("Producer: %s\n", result.Producer)
	}
	if result.CreatedDate != "" {
		text += fmt.Sprintf("Created: %s\n", result.CreatedDate)
	}
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves the protocol on stdin/stdout; logs stay on stderr
func (s *Server) runStdioMode(ctx context.Context) error {
	logger.Info("[mcp] serving on stdio", zap.String("workdir", s.paths.Root()))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves the protocol over HTTP with server-sent events
func (s *Server) runServerMode(ctx context.Context) error {
	sse := server.NewSSEServer(s.mcpServer)
	addr := s.config.Address()
	logger.Info("[mcp] serving SSE", zap.String("addr", addr), zap.String("workdir", s.paths.Root()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("[mcp] shutting down")
		if err := sse.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		return nil
	}
}
