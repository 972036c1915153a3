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
	"github.com/xmher/PB-Products-sub000/internal/mcp"
	"github.com/xmher/PB-Products-sub000/internal/render"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// logLevel picks the level for the mode. In stdio mode the client usually
// shows stderr to the user, so only warnings get through unless debugging.
func logLevel(cfg *config.Config) string {
	if cfg.IsStdioMode() && !cfg.IsDebug() && cfg.LogLevel == config.DefaultLogLevel {
		return "warn"
	}
	return cfg.LogLevel
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) int {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("[mcp] received signal, shutting down", zap.String("signal", sig.String()))
		cancel()

		if err := <-serverErrCh; err != nil {
			logger.Error("[mcp] server shutdown with error", zap.Error(err))
			return 1
		}

	case err := <-serverErrCh:
		if err != nil {
			logger.Error("[mcp] server error", zap.Error(err))
			return 1
		}
	}

	logger.Info("[mcp] server stopped")
	return 0
}

// runStdioMode handles stdio mode execution. The parent process controls
// the lifecycle; the server returns when stdin closes.
func runStdioMode(ctx context.Context, server *mcp.Server) int {
	if err := server.Run(ctx); err != nil {
		logger.Error("[mcp] server error", zap.Error(err))
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadFromFlags(config.ToolServer)
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	if err := logger.Init(logLevel(cfg), cfg.IsDebug()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if version != "dev" {
		cfg.Version = version
	}
	logger.Debug("[mcp] starting", zap.String("config", cfg.String()))

	renderer, err := render.New(cfg.RenderOptions())
	if err != nil {
		logger.Error("[mcp] failed to set up renderer", zap.Error(err))
		return 1
	}

	server, err := mcp.NewServer(cfg, renderer)
	if err != nil {
		logger.Error("[mcp] failed to create MCP server", zap.Error(err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		return runServerMode(ctx, cancel, server)
	}
	return runStdioMode(ctx, server)
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Fillable PDF MCP Server\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
