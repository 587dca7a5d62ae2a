package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/greaper/internal/config"
	"github.com/standardbeagle/greaper/internal/debug"
	"github.com/standardbeagle/greaper/internal/version"
)

func newApp() *cli.App {
	return &cli.App{
		Name:                   "greaper",
		Usage:                  "Search text inside directory trees and nested archives",
		Version:                version.FullInfo(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.kdl or .toml); default: ~/.greaper.kdl merged with the project file",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a timestamped file in the temp directory",
			},
		},
		Commands: []*cli.Command{
			searchCommandSpec(),
			{
				Name:      "extract",
				Aliases:   []string{"x"},
				Usage:     "Print a file or archive member addressed as archive::member::member",
				ArgsUsage: "VPATH",
				Action:    extractCommand,
			},
			{
				Name:  "archive",
				Usage: "Inspect archives",
				Subcommands: []*cli.Command{
					{
						Name:      "ls",
						Usage:     "List archive members, expanding nested archives",
						ArgsUsage: "PATH",
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "max-depth",
								Usage: "Nesting limit for archives inside archives",
								Value: -1,
							},
							&cli.BoolFlag{
								Name:    "json",
								Aliases: []string{"j"},
								Usage:   "Output as JSON",
							},
							&cli.BoolFlag{
								Name:    "tree",
								Aliases: []string{"t"},
								Usage:   "Draw nested archives as a tree",
							},
						},
						Action: archiveListCommand,
					},
				},
			},
			{
				Name:  "mcp",
				Usage: "Start MCP (Model Context Protocol) server with stdio transport",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "root",
						Aliases: []string{"r"},
						Usage:   "Project root the tools resolve paths against (default: current directory)",
					},
				},
				Action: mcpCommand,
			},
			{
				Name:  "config",
				Usage: "Configuration management commands",
				Subcommands: []*cli.Command{
					{
						Name:  "init",
						Usage: "Write a starter configuration file",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   "Output format: kdl, toml",
								Value:   "kdl",
							},
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file path (default: .greaper.kdl or .greaper.toml)",
							},
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite existing configuration file",
							},
						},
						Action: configInitCommand,
					},
					{
						Name:  "show",
						Usage: "Show the effective configuration",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   "Output format: toml, json",
								Value:   "toml",
							},
						},
						Action: configShowCommand,
					},
					{
						Name:   "validate",
						Usage:  "Validate the effective configuration",
						Action: configValidateCommand,
					},
				},
			},
		},
		Before: setupDebug,
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
	}
}

// setupDebug routes debug output to a log file or stderr
func setupDebug(c *cli.Context) error {
	if c.Bool("debug-log") {
		debug.EnableDebug = "true"
		path, err := debug.InitDebugLogFile()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "Debug log: %s\n", path)
	} else if debug.IsDebugEnabled() {
		debug.SetDebugOutput(c.App.ErrWriter)
	}
	debug.Printf("greaper %s: %v\n", version.Info(), c.Args().Slice())
	return nil
}

// loadConfig resolves configuration for a command working under root and
// applies validation defaults
func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	cfg, err := config.LoadWithRoot(c.String("config"), absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configRoot is the directory whose config applies to target
func configRoot(target string) string {
	info, err := os.Stat(target)
	if err == nil && !info.IsDir() {
		return filepath.Dir(target)
	}
	return target
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
