package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/greaper/internal/archive"
	"github.com/standardbeagle/greaper/internal/display"
)

// newReader builds an archive reader from the configuration that applies to target
func newReader(c *cli.Context, target string) (*archive.Reader, error) {
	cfg, err := loadConfig(c, configRoot(target))
	if err != nil {
		return nil, err
	}
	reader := archive.NewReader()
	reader.MaxDepth = cfg.Archive.MaxDepth
	if cfg.Archive.MaxMemberSize > 0 {
		reader.MaxMemberSize = cfg.Archive.MaxMemberSize
	}
	return reader, nil
}

func extractCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("extract requires exactly one VPATH argument")
	}
	vp := archive.ParseVirtualPath(c.Args().First())

	reader, err := newReader(c, vp.Archive)
	if err != nil {
		return err
	}
	data, err := reader.ReadMember(vp)
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func archiveListCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("archive ls requires exactly one PATH argument")
	}
	path := c.Args().First()
	if !archive.IsArchive(path) {
		return fmt.Errorf("%s is not a recognized archive", path)
	}

	reader, err := newReader(c, path)
	if err != nil {
		return err
	}
	if c.IsSet("max-depth") {
		if c.Int("max-depth") < 0 {
			return fmt.Errorf("--max-depth must not be negative, got %d", c.Int("max-depth"))
		}
		reader.MaxDepth = c.Int("max-depth")
	}

	entries, err := reader.List(path)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		if entries == nil {
			entries = []archive.Entry{}
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if c.Bool("tree") {
		tree := display.BuildArchiveTree(path, entries)
		fmt.Fprint(c.App.Writer, display.NewTreeFormatter(display.FormatterOptions{}).Format(tree))
		return nil
	}

	for _, e := range entries {
		if e.IsNestedArchive {
			fmt.Fprintf(c.App.Writer, "%s/\n", e.Path)
		} else {
			fmt.Fprintln(c.App.Writer, e.Path)
		}
	}
	return nil
}
