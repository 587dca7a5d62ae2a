// Package search runs one linear pass over a directory tree, archive
// members included, and collects capped, context-annotated matches.
package search

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/greaper/internal/archive"
	"github.com/standardbeagle/greaper/internal/debug"
	greaperrors "github.com/standardbeagle/greaper/internal/errors"
	"github.com/standardbeagle/greaper/internal/filetype"
	"github.com/standardbeagle/greaper/internal/glob"
	"github.com/standardbeagle/greaper/internal/matcher"
	"github.com/standardbeagle/greaper/internal/syntax"
	"github.com/standardbeagle/greaper/internal/types"
)

// Engine executes searches. It holds no state between invocations and is
// safe for concurrent use.
type Engine struct {
	detector *filetype.Detector
}

// NewEngine creates a search engine
func NewEngine() *Engine {
	return &Engine{detector: filetype.NewDetector()}
}

// run is the state of one invocation
type run struct {
	cfg       Config
	filter    *glob.Filter
	matcher   matcher.Matcher
	reader    *archive.Reader
	detector  *filetype.Detector
	collector *collector
	gate      bool
	mode      types.SyntaxMode
	fuzzy     bool

	scanned atomic.Int64
	skipped atomic.Int64
}

// Search walks root (a directory or a single file) and returns the matches.
// Configuration problems are returned before any file is read. Unreadable
// files and corrupt archives are skipped and counted.
func (e *Engine) Search(ctx context.Context, root string, cfg Config) (*Result, error) {
	r, err := e.prepare(root, cfg)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, greaperrors.NewFileError("stat", root, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())

	next := 0
	schedule := func(path string) {
		unit := next
		next++
		g.Go(func() error {
			r.processPath(gctx, unit, path)
			return nil
		})
	}

	if !info.IsDir() {
		schedule(root)
	} else {
		// WalkDir visits entries in lexical order, which fixes the unit order
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				debug.LogSearch("Skipping %s: %v\n", path, err)
				r.skipped.Add(1)
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if r.collector.stopped() || gctx.Err() != nil {
				return fs.SkipAll
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}

			if d.IsDir() {
				if path != root && r.filter.ExcludedDir(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			if r.isArchiveUnit(path) {
				// Containers are only subject to excludes; members meet the full filter
				if r.filter.Excluded(rel) {
					return nil
				}
			} else if !r.filter.Match(rel) {
				return nil
			}

			schedule(path)
			return nil
		})
	}

	_ = g.Wait()

	result := &Result{
		Matches:      r.collector.results(),
		Backend:      r.matcher.Backend(),
		UnitsScanned: int(r.scanned.Load()),
		UnitsSkipped: int(r.skipped.Load()),
		Truncated:    r.collector.truncated(),
	}
	debug.LogSearch("Search for %q finished: %d matches, %d units scanned, %d skipped\n",
		cfg.Pattern, len(result.Matches), result.UnitsScanned, result.UnitsSkipped)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// prepare validates cfg and builds the per-invocation collaborators
func (e *Engine) prepare(root string, cfg Config) (*run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := matcher.New(cfg.Pattern, cfg.matcherOptions())
	if err != nil {
		return nil, err
	}

	excludes := append([]string(nil), cfg.ExcludeGlobs...)
	if cfg.RespectGitignore {
		patterns, err := glob.GitignorePatterns(root)
		if err != nil {
			debug.LogSearch("Ignoring unreadable .gitignore in %s: %v\n", root, err)
		}
		excludes = append(excludes, patterns...)
	}

	filter, err := glob.NewFilter(cfg.IncludeGlobs, excludes)
	if err != nil {
		return nil, greaperrors.NewConfigError("globs", "", err)
	}

	reader := archive.NewReader()
	reader.MaxDepth = cfg.MaxArchiveDepth
	if cfg.MaxMemberSize > 0 {
		reader.MaxMemberSize = cfg.MaxMemberSize
	}

	mode := cfg.syntaxMode()
	return &run{
		cfg:       cfg,
		filter:    filter,
		matcher:   m,
		reader:    reader,
		detector:  e.detector,
		collector: newCollector(cfg.MaxResults),
		gate:      cfg.SyntaxAware && mode != types.SyntaxAll,
		mode:      mode,
		fuzzy:     cfg.matcherOptions().Mode == types.ModeFuzzy,
	}, nil
}

func (r *run) isArchiveUnit(path string) bool {
	return r.cfg.SearchArchives && archive.IsArchive(path)
}

func (r *run) processPath(ctx context.Context, unit int, path string) {
	if r.collector.stopped() || ctx.Err() != nil {
		return
	}
	if r.isArchiveUnit(path) {
		r.processArchive(ctx, unit, path)
		return
	}
	r.processFile(unit, path)
}

func (r *run) processFile(unit int, path string) {
	if r.cfg.MaxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			r.skip(path, err)
			return
		}
		if info.Size() > r.cfg.MaxFileSize {
			r.skip(path, greaperrors.NewFileError("stat", path,
				fmt.Errorf("%w: %d bytes, limit %d", greaperrors.ErrFileTooLarge, info.Size(), r.cfg.MaxFileSize)))
			return
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		r.skip(path, greaperrors.NewFileError("read", path, err))
		return
	}
	if !r.detector.IsTextContent(path, data) {
		return
	}

	r.collector.put(unit, r.scanUnit(archive.VirtualPath{Archive: path}, data))
}

func (r *run) processArchive(ctx context.Context, unit int, path string) {
	var records []MatchRecord
	err := r.reader.Walk(path, func(vp archive.VirtualPath, data []byte) error {
		if r.collector.stopped() || ctx.Err() != nil {
			return fs.SkipAll
		}
		if !r.filter.Match(vp.Name()) {
			return nil
		}
		if !r.detector.IsTextContent(vp.Name(), data) {
			return nil
		}
		records = append(records, r.scanUnit(vp, data)...)
		return nil
	})
	if err != nil {
		r.skip(path, err)
	}
	// Members read before a failure still count
	r.collector.put(unit, records)
}

func (r *run) skip(path string, err error) {
	debug.LogSearch("Skipping %s: %v\n", path, err)
	r.skipped.Add(1)
}

// scanUnit matches every line of one decoded unit
func (r *run) scanUnit(vp archive.VirtualPath, data []byte) []MatchRecord {
	r.scanned.Add(1)
	lines := splitLines(data)

	var (
		lang  *syntax.Language
		state *syntax.State
	)
	if r.gate {
		lang = syntax.LanguageForPath(vp.Name())
		state = &syntax.State{}
	}

	var records []MatchRecord
	for i, line := range lines {
		if r.collector.stopped() {
			break
		}
		if r.gate {
			// Classify every line so multi-line state stays in step
			kind := syntax.ClassifyLine(line, lang, state)
			if !syntax.IsSyntaxMatch(kind, r.mode, lang) {
				continue
			}
		}

		ok, score := r.matcher.Match(line)
		if !ok {
			continue
		}
		if !r.collector.admit() {
			break
		}

		before, after := contextWindow(lines, i, r.cfg.ContextLines)
		rec := MatchRecord{
			Source:        vp,
			LineNumber:    i + 1,
			Line:          line,
			ContextBefore: before,
			ContextAfter:  after,
		}
		if r.fuzzy {
			s := score
			rec.Score = &s
		}
		records = append(records, rec)
	}
	return records
}
