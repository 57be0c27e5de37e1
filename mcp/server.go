// Package mcp exposes the quotation engine as a Model Context Protocol
// server: tools to render quotes, validate templates and inspect the safe
// context, and the built-in templates as resources.
//
// # Usage
//
// Register the stdio command with an MCP client:
//
//	{
//	  "mcpServers": {
//	    "quotepdf": {
//	      "command": "quotepdf-mcp"
//	    }
//	  }
//	}
package mcp

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/lvillar/quotepdf"
)

const (
	ServerName    = "quotepdf"
	ServerVersion = "2.0.0"
)

// Server wraps an SDK server with the quotepdf tools and resources
// registered.
type Server struct {
	engine *quotepdf.Engine
	logger *zap.Logger
	server *sdk.Server
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer registers every tool and resource against engine.
func NewServer(engine *quotepdf.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: zap.NewNop(),
		server: sdk.NewServer(&sdk.Implementation{Name: ServerName, Version: ServerVersion}, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	registerTools(s)
	registerResources(s)
	return s
}

// SDK returns the underlying protocol server, e.g. to connect it to an
// in-memory transport.
func (s *Server) SDK() *sdk.Server {
	return s.server
}

// Run serves transport until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	s.logger.Info("mcp server starting", zap.String("version", ServerVersion))
	err := s.server.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// ServeStdio runs the server on stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Run(ctx, &sdk.StdioTransport{})
}
