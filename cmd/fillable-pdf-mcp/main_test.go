package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xmher/PB-Products-sub000/internal/config"
)

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	version = "1.2.3"
	buildTime = "2026-01-01_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	expectedStrings := []string{
		"Fillable PDF MCP Server",
		"Version: 1.2.3",
		"Build Time: 2026-01-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestPrintVersionWithDefaults(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)

	if !strings.Contains(buf.String(), "Version: "+version) {
		t.Errorf("printVersion() output missing version: %s", buf.String())
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{"stdio default is quiet", &config.Config{Mode: config.ModeStdio, LogLevel: "info"}, "warn"},
		{"stdio debug", &config.Config{Mode: config.ModeStdio, LogLevel: "debug"}, "debug"},
		{"stdio explicit error", &config.Config{Mode: config.ModeStdio, LogLevel: "error"}, "error"},
		{"server keeps info", &config.Config{Mode: config.ModeServer, LogLevel: "info"}, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := logLevel(tt.cfg); got != tt.want {
				t.Errorf("logLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}
