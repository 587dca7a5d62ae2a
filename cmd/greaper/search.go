package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/greaper/internal/config"
	"github.com/standardbeagle/greaper/internal/debug"
	"github.com/standardbeagle/greaper/internal/glob"
	"github.com/standardbeagle/greaper/internal/search"
	"github.com/standardbeagle/greaper/internal/types"
	"github.com/standardbeagle/greaper/internal/watch"
	"github.com/standardbeagle/greaper/pkg/pathutil"
)

func searchCommandSpec() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search file and archive member contents",
		ArgsUsage: "PATTERN [PATH]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "fuzzy", Aliases: []string{"f"}, Usage: "Fuzzy (edit-distance) line matching"},
			&cli.BoolFlag{Name: "regex", Aliases: []string{"E"}, Usage: "Treat PATTERN as a regular expression"},
			&cli.BoolFlag{Name: "ignore-case", Aliases: []string{"i"}, Usage: "Case-insensitive matching"},
			&cli.BoolFlag{Name: "word-regexp", Aliases: []string{"w"}, Usage: "Only match whole words"},
			&cli.IntFlag{Name: "context", Aliases: []string{"C"}, Usage: "Lines of context around each match"},
			&cli.IntFlag{Name: "max-results", Aliases: []string{"n"}, Usage: "Stop after this many matches"},
			&cli.Float64Flag{Name: "threshold", Usage: "Fuzzy similarity threshold between 0 and 1"},
			&cli.StringFlag{Name: "fuzzy-backend", Usage: "Fuzzy distance implementation: auto, edlib, pure"},
			&cli.StringFlag{Name: "syntax", Usage: "Only report lines of kind: all, comment, string, code, mixed"},
			&cli.StringSliceFlag{Name: "include", Usage: "Glob a file must match (repeatable)"},
			&cli.StringSliceFlag{Name: "exclude", Usage: "Glob to skip, added to configured exclusions (repeatable)"},
			&cli.IntFlag{Name: "workers", Usage: "Parallel workers (0 = auto)"},
			&cli.BoolFlag{Name: "no-archives", Usage: "Do not look inside archives"},
			&cli.IntFlag{Name: "max-depth", Usage: "Nesting limit for archives inside archives"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"},
			&cli.BoolFlag{Name: "watch", Usage: "Re-run the search whenever files under PATH change"},
		},
		Action: searchCommand,
	}
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("search requires a PATTERN argument")
	}
	pattern := c.Args().Get(0)
	target := "."
	if c.NArg() > 1 {
		target = c.Args().Get(1)
	}

	cfg, err := loadConfig(c, configRoot(target))
	if err != nil {
		return err
	}
	sc, err := buildSearchConfig(c, cfg, pattern)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := search.NewEngine()
	if !c.Bool("watch") {
		return runSearch(ctx, c, engine, target, sc)
	}
	return watchSearch(ctx, c, cfg, engine, target, sc)
}

// buildSearchConfig overlays the flags the user set on the loaded configuration
func buildSearchConfig(c *cli.Context, cfg *config.Config, pattern string) (search.Config, error) {
	sc := cfg.SearchConfig(pattern)

	if c.Bool("fuzzy") && c.Bool("regex") {
		return sc, fmt.Errorf("--fuzzy and --regex are mutually exclusive")
	}
	switch {
	case c.Bool("fuzzy"):
		sc.Mode = types.ModeFuzzy
	case c.Bool("regex"):
		sc.Mode = types.ModeRegex
	}

	if c.IsSet("ignore-case") {
		sc.IgnoreCase = c.Bool("ignore-case")
	}
	if c.IsSet("word-regexp") {
		sc.WholeWord = c.Bool("word-regexp")
	}
	if c.IsSet("context") {
		sc.ContextLines = c.Int("context")
	}
	if c.IsSet("max-results") {
		sc.MaxResults = c.Int("max-results")
	}
	if c.IsSet("threshold") {
		sc.FuzzyThreshold = c.Float64("threshold")
	}
	if c.IsSet("fuzzy-backend") {
		sc.FuzzyBackend = c.String("fuzzy-backend")
	}
	if c.IsSet("syntax") {
		sc.SyntaxMode = types.SyntaxMode(c.String("syntax"))
		sc.SyntaxAware = sc.SyntaxMode != types.SyntaxAll
	}
	if c.IsSet("include") {
		sc.IncludeGlobs = c.StringSlice("include")
	}
	if c.IsSet("exclude") {
		sc.ExcludeGlobs = append(sc.ExcludeGlobs, c.StringSlice("exclude")...)
	}
	if c.IsSet("workers") {
		sc.Workers = c.Int("workers")
	}
	if c.Bool("no-archives") {
		sc.SearchArchives = false
	}
	if c.IsSet("max-depth") {
		sc.MaxArchiveDepth = c.Int("max-depth")
	}

	return sc, sc.Validate()
}

func runSearch(ctx context.Context, c *cli.Context, engine *search.Engine, target string, sc search.Config) error {
	start := time.Now()
	result, err := engine.Search(ctx, target, sc)
	if err != nil {
		return err
	}
	debug.LogSearch("%d matches in %v (%d units, %d skipped)\n",
		len(result.Matches), time.Since(start), result.UnitsScanned, result.UnitsSkipped)

	cwd, err := os.Getwd()
	if err == nil {
		result.Matches = pathutil.ToRelativeMatches(result.Matches, cwd)
	}

	if c.Bool("json") {
		if result.Matches == nil {
			result.Matches = []search.MatchRecord{}
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printMatches(c.App.Writer, result.Matches, sc.ContextLines > 0)
	if result.Truncated {
		fmt.Fprintf(c.App.ErrWriter, "greaper: stopped after %d matches (raise --max-results for more)\n", len(result.Matches))
	}
	return nil
}

// printMatches writes grep-style lines: source:line:text for matches and
// source-line-text for context, with -- between context groups
func printMatches(w io.Writer, matches []search.MatchRecord, withContext bool) {
	for i, m := range matches {
		if withContext && i > 0 {
			fmt.Fprintln(w, "--")
		}
		src := m.Source.String()
		first := m.LineNumber - len(m.ContextBefore)
		for j, line := range m.ContextBefore {
			fmt.Fprintf(w, "%s-%d-%s\n", src, first+j, line)
		}
		if m.Score != nil {
			fmt.Fprintf(w, "%s:%d:[%.2f] %s\n", src, m.LineNumber, *m.Score, m.Line)
		} else {
			fmt.Fprintf(w, "%s:%d:%s\n", src, m.LineNumber, m.Line)
		}
		for j, line := range m.ContextAfter {
			fmt.Fprintf(w, "%s-%d-%s\n", src, m.LineNumber+1+j, line)
		}
	}
}

// watchSearch runs the search once, then again after each debounced batch of
// changes under target
func watchSearch(ctx context.Context, c *cli.Context, cfg *config.Config, engine *search.Engine, target string, sc search.Config) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("--watch needs a directory, %s is a file", target)
	}

	filter, err := glob.NewFilter(sc.IncludeGlobs, sc.ExcludeGlobs)
	if err != nil {
		return err
	}

	if err := runSearch(ctx, c, engine, target, sc); err != nil {
		return err
	}

	opts := watch.Options{
		Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
		Filter:   filter,
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.ErrWriter, "greaper: watching %s (Ctrl-C to stop)\n", target)
	return watch.Run(ctx, absTarget, opts, func(batch []watch.Event) {
		fmt.Fprintf(c.App.ErrWriter, "greaper: %d change(s), searching again\n", len(batch))
		if err := runSearch(ctx, c, engine, target, sc); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "greaper: %v\n", err)
		}
	})
}
