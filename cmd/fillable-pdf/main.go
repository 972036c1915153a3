package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/xmher/PB-Products-sub000/internal/config"
	"github.com/xmher/PB-Products-sub000/internal/logger"
	"github.com/xmher/PB-Products-sub000/internal/pipeline"
	"github.com/xmher/PB-Products-sub000/internal/render"
)

var (
	version   = "dev"     // set by build flags
	buildTime = "unknown" // set by build flags
	gitCommit = "unknown" // set by build flags
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadFromFlags(config.ToolPipeline)
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
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

	if version != "dev" {
		cfg.Version = version
	}
	logger.Debug("[pipeline] configuration", zap.String("config", cfg.String()))

	renderer, err := render.New(cfg.RenderOptions())
	if err != nil {
		logger.Error("[pipeline] failed to set up renderer", zap.Error(err))
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := pipeline.New(renderer).Run(ctx, cfg.PipelineOptions())
	if err != nil {
		logger.Error("[pipeline] failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, summary.String())
	return 0
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "fillable-pdf\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
