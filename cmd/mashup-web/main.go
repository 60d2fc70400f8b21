package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lrstanley/go-ytdlp"
	"github.com/spf13/pflag"

	"github.com/ytget/mashup/internal/config"
	"github.com/ytget/mashup/internal/mashup"
	"github.com/ytget/mashup/internal/platform"
	"github.com/ytget/mashup/internal/web"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	configPath := pflag.String("config", "", "Path to a TOML settings file")
	addr := pflag.String("addr", "", "Listen address (overrides config)")
	pflag.Parse()

	logger := log.New(os.Stdout, "[mashup-web] ", log.LstdFlags|log.Lshortfile)
	logger.Printf("Mashup web v%s starting...", version)

	settings, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load settings: %v", err)
	}
	if *addr != "" {
		settings.ListenAddr = *addr
	}

	if err := platform.CreateDirectoryIfNotExists(settings.DownloadDir); err != nil {
		logger.Fatalf("Failed to ensure downloads dir: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := ytdlp.Install(ctx, nil); err != nil {
		logger.Printf("Warning: yt-dlp is not available: %v", err)
	}

	pipeline := mashup.Build(settings, logger)
	server := web.NewServer(pipeline, settings.DownloadDir, mashup.DefaultOptions(settings), settings.MaxConcurrentRuns, logger)

	if err := server.ListenAndServe(ctx, settings.ListenAddr); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Printf("Stopped")
}
