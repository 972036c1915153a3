package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xmher/PB-Products-sub000/internal/config"
	"github.com/xmher/PB-Products-sub000/internal/logger"
	"github.com/xmher/PB-Products-sub000/internal/pdf"
	"github.com/xmher/PB-Products-sub000/internal/pdf/extraction"
)

// FormInspectionResult is the outcome of listing the fields of one PDF
type FormInspectionResult struct {
	FilePath       string                 `json:"file_path"`
	Success        bool                   `json:"success"`
	PageCount      int                    `json:"page_count"`
	FieldCount     int                    `json:"field_count"`
	Fields         []extraction.FormField `json:"fields"`
	Error          string                 `json:"error,omitempty"`
	ExtractionTime string                 `json:"extraction_time,omitempty"`
}

func main() {
	cfg, err := config.LoadFromFlags(config.ToolInspect)
	if errors.Is(err, config.ErrVersionRequested) {
		fmt.Println("pdf-inspect-form")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogLevel, cfg.IsDebug()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	result := inspect(cfg.Args[0], cfg.MaxFileSize, cfg.IsDebug())

	if cfg.JSON {
		err = outputJSON(os.Stdout, result)
	} else {
		err = outputText(os.Stdout, result)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
		os.Exit(1)
	}
	if !result.Success {
		logger.Sync()
		os.Exit(1)
	}
}

// inspect validates the file and extracts its fields. Failures are reported
// in the result rather than returned.
func inspect(path string, maxFileSize int64, debug bool) *FormInspectionResult {
	start := time.Now()
	result := &FormInspectionResult{FilePath: path}

	pages, err := pdf.NewValidator(maxFileSize).PageCount(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.PageCount = pages

	forms, err := extraction.NewPDFCPUFormExtractor(debug).ExtractFormsFromFile(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.FieldCount = len(forms)
	result.Fields = forms
	result.ExtractionTime = time.Since(start).Round(time.Millisecond).String()
	return result
}

func outputJSON(w io.Writer, result *FormInspectionResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(w io.Writer, result *FormInspectionResult) error {
	if !result.Success {
		_, err := fmt.Fprintf(w, "Form inspection failed: %s\n", result.Error)
		return err
	}

	fmt.Fprintf(w, "%s (%d page(s))\n", result.FilePath, result.PageCount)
	if result.FieldCount == 0 {
		_, err := fmt.Fprintln(w, "No form fields detected. The PDF may be flat or image-based.")
		return err
	}
	fmt.Fprintln(w)

	for i, field := range result.Fields {
		fmt.Fprintf(w, "[%d] %s\n", i+1, field.Name)
		fmt.Fprintf(w, "    Type: %s\n", field.Type)
		if field.Multiline {
			fmt.Fprintf(w, "    Multiline: true\n")
		}
		if field.Value != nil {
			fmt.Fprintf(w, "    Value: %v\n", field.Value)
		}
		fmt.Fprintf(w, "    Page: %d\n", field.Page)
		if field.Bounds != nil {
			fmt.Fprintf(w, "    Position: (%.1f, %.1f) to (%.1f, %.1f)\n",
				field.Bounds.LowerLeft.X, field.Bounds.LowerLeft.Y,
				field.Bounds.UpperRight.X, field.Bounds.UpperRight.Y)
		}
		if len(field.Options) > 0 {
			fmt.Fprintf(w, "    Options: %v\n", field.Options)
		}
		if len(field.Widgets) > 1 {
			fmt.Fprintf(w, "    Widgets: %d\n", len(field.Widgets))
		}
		fmt.Fprintln(w)
	}

	_, err := fmt.Fprint(w, extraction.FormatFields(result.Fields))
	return err
}
