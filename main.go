package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/mashup/internal/cli"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("mashup v%s\n", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Uses yt-dlp from PATH when present, otherwise fetches it into the cache
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: yt-dlp is not available: %v\n", err)
	}

	code := cli.NewApp(os.Stdout, os.Stderr).Run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}
