package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/cardinal-itn/pkg/api"
	"github.com/hazyhaar/cardinal-itn/pkg/registry"
)

// version is reported to MCP clients.
var version = "dev"

func newMCPServer(reg *registry.Registry, logger *slog.Logger) *server.MCPServer {
	srv := server.NewMCPServer("cardinal-itn", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	api.RegisterMCPTools(srv, reg, logger)
	return srv
}

func cmdServeMCP(args []string) {
	fs := flag.NewFlagSet("serve-mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	// stdout carries the protocol; logs go to stderr or the log file.
	cfg, logger, closer := setup(*cfgPath)
	defer closer.Close()

	reg := loadRegistry(context.Background(), cfg, logger, nil)
	logLanguages(logger, reg)

	if err := server.ServeStdio(newMCPServer(reg, logger)); err != nil {
		logger.Error("mcp server", "error", err)
		os.Exit(1)
	}
}
