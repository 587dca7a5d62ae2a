package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/greaper/internal/debug"
	"github.com/standardbeagle/greaper/internal/mcp"
)

func mcpCommand(c *cli.Context) error {
	// stdout carries the protocol; nothing else may write to it
	debug.SetMCPMode(true)

	root := c.String("root")
	if root == "" {
		root = "."
	}
	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug.LogMCP("Serving %s over stdio\n", cfg.Project.Root)
	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
