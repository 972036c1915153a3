package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// resetFlags gives every test a fresh pflag.CommandLine and viper instance
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()
}

// withArgs runs fn with os.Args replaced and global flag state reset
func withArgs(t *testing.T, args []string, fn func()) {
	t.Helper()
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
	}()

	os.Args = args
	resetFlags()
	fn()
}

func clearEnvVars(t *testing.T) {
	for _, name := range []string{"CHROME_PATH", "FILLABLE_PDF_CHROME", "FILLABLE_PDF_TIMEOUT", "FILLABLE_PDF_FONT_SIZE", "FILLABLE_PDF_LOG_LEVEL"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadFromFlags_Pipeline(t *testing.T) {
	clearEnvVars(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "workbook.html")
	output := filepath.Join(dir, "out", "workbook.pdf")

	withArgs(t, []string{"fillable-pdf", "-i", input, "-o", output, "--skip-pdf", "--font-size=9", "--timeout=5000"}, func() {
		cfg, err := LoadFromFlags(ToolPipeline)
		if err != nil {
			t.Fatalf("LoadFromFlags() unexpected error: %v", err)
		}

		if cfg.Input != input || cfg.Output != output {
			t.Errorf("paths = %s, %s", cfg.Input, cfg.Output)
		}
		if cfg.FlatPDF != filepath.Join(dir, "out", "flat-workbook.pdf") {
			t.Errorf("FlatPDF = %s", cfg.FlatPDF)
		}
		if cfg.FieldsJSON != filepath.Join(dir, "out", "fields-workbook.json") {
			t.Errorf("FieldsJSON = %s", cfg.FieldsJSON)
		}
		if !cfg.SkipPDF || cfg.SkipExtract {
			t.Errorf("skip flags = extract %t, pdf %t", cfg.SkipExtract, cfg.SkipPDF)
		}
		if cfg.FontSize != 9 {
			t.Errorf("FontSize = %g, want 9", cfg.FontSize)
		}
		if cfg.TimeoutMS != 5000 {
			t.Errorf("TimeoutMS = %d, want 5000", cfg.TimeoutMS)
		}
		if cfg.SettleMS != DefaultSettleMS {
			t.Errorf("SettleMS = %d, want %d", cfg.SettleMS, DefaultSettleMS)
		}
	})
}

func TestLoadFromFlags_PipelineRequiresPaths(t *testing.T) {
	clearEnvVars(t)
	withArgs(t, []string{"fillable-pdf", "--output=/tmp/out.pdf"}, func() {
		if _, err := LoadFromFlags(ToolPipeline); err == nil {
			t.Error("LoadFromFlags() expected error without --input")
		}
	})
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("FILLABLE_PDF_TIMEOUT", "7000")
	t.Setenv("FILLABLE_PDF_FONT_SIZE", "8")
	t.Setenv("FILLABLE_PDF_LOG_LEVEL", "debug")
	t.Setenv("CHROME_PATH", "/opt/chrome/chrome")

	withArgs(t, []string{"fillable-pdf", "-i", "in.html", "-o", "out.pdf"}, func() {
		cfg, err := LoadFromFlags(ToolPipeline)
		if err != nil {
			t.Fatalf("LoadFromFlags() unexpected error: %v", err)
		}
		if cfg.TimeoutMS != 7000 {
			t.Errorf("TimeoutMS = %d, want 7000", cfg.TimeoutMS)
		}
		if cfg.FontSize != 8 {
			t.Errorf("FontSize = %g, want 8", cfg.FontSize)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
		}
		if cfg.ChromePath != "/opt/chrome/chrome" {
			t.Errorf("ChromePath = %s", cfg.ChromePath)
		}
	})
}

func TestLoadFromFlags_FlagsOverrideEnvironment(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("FILLABLE_PDF_CHROME", "/from/env")

	withArgs(t, []string{"fillable-pdf", "-i", "in.html", "-o", "out.pdf", "--chrome=/from/flag"}, func() {
		cfg, err := LoadFromFlags(ToolPipeline)
		if err != nil {
			t.Fatalf("LoadFromFlags() unexpected error: %v", err)
		}
		if cfg.ChromePath != "/from/flag" {
			t.Errorf("ChromePath = %s, want /from/flag", cfg.ChromePath)
		}
	})
}

func TestLoadFromFlags_Server(t *testing.T) {
	clearEnvVars(t)
	dir := t.TempDir()

	withArgs(t, []string{"fillable-pdf-mcp", "--mode=server", "--port=9090", "--workdir=" + dir}, func() {
		cfg, err := LoadFromFlags(ToolServer)
		if err != nil {
			t.Fatalf("LoadFromFlags() unexpected error: %v", err)
		}
		if !cfg.IsServerMode() {
			t.Errorf("Mode = %s, want server", cfg.Mode)
		}
		if cfg.Port != 9090 {
			t.Errorf("Port = %d, want 9090", cfg.Port)
		}
		if cfg.WorkDir != dir {
			t.Errorf("WorkDir = %s, want %s", cfg.WorkDir, dir)
		}
	})
}

func TestLoadFromFlags_Layout(t *testing.T) {
	clearEnvVars(t)
	withArgs(t, []string{"analyze-layout", "book.html", "--threshold=30", "--json"}, func() {
		cfg, err := LoadFromFlags(ToolLayout)
		if err != nil {
			t.Fatalf("LoadFromFlags() unexpected error: %v", err)
		}
		if len(cfg.Args) != 1 || cfg.Args[0] != "book.html" {
			t.Errorf("Args = %v", cfg.Args)
		}
		if cfg.Threshold != 30 || !cfg.JSON {
			t.Errorf("Threshold = %d, JSON = %t", cfg.Threshold, cfg.JSON)
		}
	})
}

func TestLoadFromFlags_Version(t *testing.T) {
	withArgs(t, []string{"fillable-pdf", "--version"}, func() {
		_, err := LoadFromFlags(ToolPipeline)
		if !errors.Is(err, ErrVersionRequested) {
			t.Errorf("LoadFromFlags() error = %v, want ErrVersionRequested", err)
		}
	})
}
