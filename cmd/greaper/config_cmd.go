package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/greaper/internal/config"
)

func configInitCommand(c *cli.Context) error {
	format := c.String("format")
	output := c.String("output")

	var content []byte
	switch format {
	case "kdl":
		content = []byte(config.DefaultKDL)
		if output == "" {
			output = config.KDLFileName
		}
	case "toml":
		data, err := config.MarshalTOML(config.DefaultConfig("."))
		if err != nil {
			return fmt.Errorf("failed to render TOML config: %w", err)
		}
		content = data
		if output == "" {
			output = config.TOMLFileName
		}
	default:
		return fmt.Errorf("unsupported format %q (want kdl or toml)", format)
	}

	if !c.Bool("force") {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", output)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if err := os.WriteFile(output, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(c.App.Writer, "Created %s\n", output)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfig(c, ".")
	if err != nil {
		return err
	}

	switch c.String("format") {
	case "toml":
		data, err := config.MarshalTOML(cfg)
		if err != nil {
			return err
		}
		_, err = c.App.Writer.Write(data)
		return err
	case "json":
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format %q (want toml or json)", c.String("format"))
	}
}

func configValidateCommand(c *cli.Context) error {
	cfg, err := loadConfig(c, ".")
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Configuration is valid (root %s, %d include, %d exclude patterns)\n",
		cfg.Project.Root, len(cfg.Include), len(cfg.Exclude))
	return nil
}
