package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/xmher/PB-Products-sub000/internal/config"
	"github.com/xmher/PB-Products-sub000/internal/layout"
	"github.com/xmher/PB-Products-sub000/internal/logger"
	"github.com/xmher/PB-Products-sub000/internal/render"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadFromFlags(config.ToolLayout)
	if errors.Is(err, config.ErrVersionRequested) {
		fmt.Println("analyze-layout")
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := logger.Init(cfg.LogLevel, cfg.IsDebug()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	input, err := filepath.Abs(cfg.Args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	renderer, err := render.New(cfg.RenderOptions())
	if err != nil {
		logger.Error("[analyze] failed to set up renderer", zap.Error(err))
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analysis, err := layout.NewAnalyzer(renderer, "").Analyze(ctx, input)
	if err != nil {
		logger.Error("[analyze] failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	if err := write(os.Stdout, analysis, cfg.JSON, cfg.Threshold); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func write(w io.Writer, a *layout.Analysis, asJSON bool, threshold int) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	_, err := fmt.Fprintln(w, layout.Report(a, threshold))
	return err
}
