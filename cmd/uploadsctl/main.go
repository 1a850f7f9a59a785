package main

// Operator tool for the upload backend:
//   go run ./cmd/uploadsctl attachments list

import (
	"context"
	"fmt"
	"os"

	"realm-uploads/internal/shared/config"
	"realm-uploads/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.SetOutput(os.Stderr)
	telemetry.SetLevel(cfg.LogLevel)

	if err := newRootCmd(&cfg).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
