package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/xmher/PB-Products-sub000/internal/pipeline"
	"github.com/xmher/PB-Products-sub000/internal/render"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 200 * 1024 * 1024 // 200MB
	DefaultFontSize    = 10
	DefaultTimeoutMS   = 120000
	DefaultSettleMS    = 3000
	DefaultThreshold   = 25

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment override, e.g. FILLABLE_PDF_TIMEOUT
	EnvPrefix = "FILLABLE_PDF"
)

// Tool selects which command line surface is being configured
type Tool int

const (
	ToolPipeline Tool = iota // fillable-pdf
	ToolServer               // fillable-pdf-mcp
	ToolLayout               // analyze-layout
	ToolInspect              // pdf-inspect-form
)

// ErrVersionRequested is returned by LoadFromFlags when --version is given
var ErrVersionRequested = errors.New("version requested")

// Config holds every knob of the pipeline tools and the MCP server
type Config struct {
	// Server configuration
	Mode    string // "server" or "stdio"
	Host    string
	Port    int
	WorkDir string // root that MCP tool paths are confined to

	// Pipeline artifacts
	Input      string
	Output     string
	FlatPDF    string
	FieldsJSON string

	// Rendering
	ChromePath    string
	TimeoutMS     int
	SettleMS      int
	PagedScript   string
	BlockExternal bool

	// Injection
	FontSize    float64
	SkipExtract bool
	SkipPDF     bool
	Optimize    bool

	// Layout analysis and inspection output
	Threshold int
	JSON      bool
	Args      []string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes

	tool Tool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:        ModeStdio,
		Host:        DefaultHost,
		Port:        DefaultPort,
		WorkDir:     currentDir,
		TimeoutMS:   DefaultTimeoutMS,
		SettleMS:    DefaultSettleMS,
		FontSize:    DefaultFontSize,
		Threshold:   DefaultThreshold,
		Version:     "1.0.0",
		ServerName:  "fillable-pdf",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the command line of the given tool, applies
// environment overrides and returns a validated configuration.
func LoadFromFlags(tool Tool) (*Config, error) {
	cfg := DefaultConfig()
	cfg.tool = tool

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg, tool)
	bindFlagsToViper()
	setupUsageMessage(tool)

	pflag.Parse()

	populateConfigFromViper(cfg)
	cfg.Args = pflag.Args()
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("chrome", EnvPrefix+"_CHROME", "CHROME_PATH")

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("workdir", cfg.WorkDir)
	viper.SetDefault("timeout", cfg.TimeoutMS)
	viper.SetDefault("settle", cfg.SettleMS)
	viper.SetDefault("font-size", cfg.FontSize)
	viper.SetDefault("threshold", cfg.Threshold)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("max-file-size", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up the flags of one tool
func defineCommandLineFlags(cfg *Config, tool Tool) {
	// rendering flags are shared by everything that drives the browser
	if tool != ToolInspect {
		pflag.String("chrome", "", "Chrome/Chromium binary path (default: auto-detect)")
		pflag.Int("timeout", cfg.TimeoutMS, "Max ms to wait for pagination to render")
		pflag.Int("settle", cfg.SettleMS, "Extra ms to wait after pagination appears")
		pflag.String("paged-script", "", "Local pagination polyfill served instead of the CDN copy")
		pflag.Bool("block-external", false, "Block every non-local request except stubbed fonts")
	}

	switch tool {
	case ToolPipeline:
		pflag.StringP("input", "i", "", "HTML file with data-field-* attributes (required)")
		pflag.StringP("output", "o", "", "Output fillable PDF path (required)")
		pflag.String("flat-pdf", "", "Intermediate flat PDF path (default: <output-dir>/flat-<name>.pdf)")
		pflag.String("fields-json", "", "Field coordinates JSON path (default: <output-dir>/fields-<name>.json)")
		pflag.Float64("font-size", cfg.FontSize, "Default font size for text fields")
		pflag.Bool("skip-extract", false, "Reuse an existing fields JSON")
		pflag.Bool("skip-pdf", false, "Reuse an existing flat PDF")
		pflag.Bool("optimize", false, "Optimize the fillable PDF after injection")
	case ToolServer:
		pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP/SSE")
		pflag.String("host", cfg.Host, "Server host address (server mode only)")
		pflag.Int("port", cfg.Port, "Server port (server mode only)")
		pflag.String("workdir", cfg.WorkDir, "Directory that tool paths are confined to")
		pflag.Float64("font-size", cfg.FontSize, "Default font size for text fields")
	case ToolLayout:
		pflag.Int("threshold", cfg.Threshold, "Percentage of empty space to flag as underfilled")
		pflag.Bool("json", false, "Output raw JSON instead of the formatted report")
	case ToolInspect:
		pflag.Bool("json", false, "Output fields as JSON")
	}

	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds every defined flag to the viper key of the same name
func bindFlagsToViper() {
	pflag.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(tool Tool) {
	pflag.Usage = func() {
		name := filepath.Base(os.Args[0])
		switch tool {
		case ToolPipeline:
			fmt.Fprintf(os.Stderr, "Usage: %s --input <html-file> --output <fillable-pdf> [options]\n", name)
			fmt.Fprintf(os.Stderr, "\nGenerate fillable PDFs from paginated HTML workbooks\n\n")
		case ToolServer:
			fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", name)
			fmt.Fprintf(os.Stderr, "\nModel Context Protocol server for the fillable PDF pipeline\n\n")
		case ToolLayout:
			fmt.Fprintf(os.Stderr, "Usage: %s <html-file> [options]\n", name)
			fmt.Fprintf(os.Stderr, "\nDetect layout issues in paginated HTML workbooks\n\n")
		case ToolInspect:
			fmt.Fprintf(os.Stderr, "Usage: %s <pdf-file> [options]\n", name)
			fmt.Fprintf(os.Stderr, "\nList the form fields of a PDF\n\n")
		}
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()

		if tool == ToolPipeline {
			fmt.Fprintf(os.Stderr, "\nHTML markup convention:\n")
			fmt.Fprintf(os.Stderr, "  <div data-field-name=\"unique_id\" data-field-type=\"textarea\">...</div>\n")
			fmt.Fprintf(os.Stderr, "  <span data-field-name=\"opt1\" data-field-type=\"radio\" data-field-group=\"group1\">...</span>\n")
			fmt.Fprintf(os.Stderr, "\nField types: text, textarea, checkbox, radio\n")
		}
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_<FLAG>  Any flag, upper-cased with '-' as '_'\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  CHROME_PATH       Chrome binary (same as --chrome)\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.WorkDir = viper.GetString("workdir")

	cfg.Input = viper.GetString("input")
	cfg.Output = viper.GetString("output")
	cfg.FlatPDF = viper.GetString("flat-pdf")
	cfg.FieldsJSON = viper.GetString("fields-json")

	cfg.ChromePath = viper.GetString("chrome")
	cfg.TimeoutMS = viper.GetInt("timeout")
	cfg.SettleMS = viper.GetInt("settle")
	cfg.PagedScript = viper.GetString("paged-script")
	cfg.BlockExternal = viper.GetBool("block-external")

	cfg.FontSize = viper.GetFloat64("font-size")
	cfg.SkipExtract = viper.GetBool("skip-extract")
	cfg.SkipPDF = viper.GetBool("skip-pdf")
	cfg.Optimize = viper.GetBool("optimize")

	cfg.Threshold = viper.GetInt("threshold")
	cfg.JSON = viper.GetBool("json")

	cfg.LogLevel = viper.GetString("log-level")
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
}

// resolvePaths makes every path absolute and derives the default artifact
// paths from the output path.
func (c *Config) resolvePaths() {
	for _, p := range []*string{&c.WorkDir, &c.Input, &c.Output, &c.FlatPDF, &c.FieldsJSON, &c.PagedScript} {
		if *p == "" {
			continue
		}
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}

	if c.Output != "" {
		flat, js := pipeline.DefaultPaths(c.Output)
		if c.FlatPDF == "" {
			c.FlatPDF = flat
		}
		if c.FieldsJSON == "" {
			c.FieldsJSON = js
		}
	}
}

// Validate checks if the configuration is valid for its tool
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.TimeoutMS <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.SettleMS < 0 {
		return errors.New("settle delay cannot be negative")
	}
	if c.FontSize <= 0 {
		return errors.New("font size must be positive")
	}

	switch c.tool {
	case ToolPipeline:
		if c.Input == "" || c.Output == "" {
			return errors.New("--input and --output are required")
		}
	case ToolServer:
		return c.validateServer()
	case ToolLayout:
		if len(c.Args) != 1 {
			return errors.New("exactly one HTML file is required")
		}
		if c.Threshold < 0 || c.Threshold > 100 {
			return errors.New("threshold must be between 0 and 100")
		}
	case ToolInspect:
		if len(c.Args) != 1 {
			return errors.New("exactly one PDF file is required")
		}
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.WorkDir == "" {
		return errors.New("work directory cannot be empty")
	}

	if _, err := os.Stat(c.WorkDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.WorkDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create work directory %s: %w", c.WorkDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access work directory %s: %w", c.WorkDir, err)
	}

	return nil
}

// RenderOptions returns the browser options for this configuration
func (c *Config) RenderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.ChromePath = c.ChromePath
	opts.Timeout = time.Duration(c.TimeoutMS) * time.Millisecond
	opts.SettleDelay = time.Duration(c.SettleMS) * time.Millisecond
	opts.PagedScript = c.PagedScript
	opts.BlockExternal = c.BlockExternal
	return opts
}

// PipelineOptions returns the run options for this configuration
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Input:       c.Input,
		Output:      c.Output,
		FlatPDF:     c.FlatPDF,
		FieldsJSON:  c.FieldsJSON,
		FontSize:    c.FontSize,
		SkipExtract: c.SkipExtract,
		SkipPDF:     c.SkipPDF,
		Optimize:    c.Optimize,
	}
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Input: %s, Output: %s, FlatPDF: %s, FieldsJSON: %s, Chrome: %s, FontSize: %g, "+
		"TimeoutMS: %d, SkipExtract: %t, SkipPDF: %t, Mode: %s, WorkDir: %s, LogLevel: %s}",
		c.Input, c.Output, c.FlatPDF, c.FieldsJSON, c.ChromePath, c.FontSize,
		c.TimeoutMS, c.SkipExtract, c.SkipPDF, c.Mode, c.WorkDir, c.LogLevel)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
