// Command quotepdf-mcp is an MCP (Model Context Protocol) server that exposes
// quotation PDF rendering to AI assistants over stdio.
//
// # Installation
//
//	go install github.com/lvillar/quotepdf/cmd/quotepdf-mcp@latest
//
// # Configuration
//
//	{
//	  "mcpServers": {
//	    "quotepdf": {
//	      "command": "quotepdf-mcp"
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - render_quote: Render a quote bundle to PDF (base64 or file)
//   - validate_template: Validate a template and apply defaults
//   - build_context: Show the sanitized render context
//
// # Available Resources
//
//   - template://default : The fallback template
//   - template://{id} : Any built-in template
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lvillar/quotepdf/internal/app"
	"github.com/lvillar/quotepdf/internal/config"
	"github.com/lvillar/quotepdf/internal/logger"
	"github.com/lvillar/quotepdf/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "quotepdf-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stdout is the protocol stream
	log := logger.NewWriter(logger.Config{Level: cfg.Log.Level, Format: "json"}, os.Stderr)
	defer log.Sync() //nolint:errcheck

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return mcp.NewServer(a.Engine, mcp.WithLogger(log)).ServeStdio(ctx)
}
