package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Result is the outcome of one load pass. Table is never nil. Err is set when the
// pass degraded to an empty table; callers report it and keep going.
type Result struct {
	Table    *Table
	Source   Source
	Err      error
	LoadedAt time.Time
	Elapsed  time.Duration
}

// Degraded reports whether the pass failed and fell back to an empty table.
func (r Result) Degraded() bool { return r.Err != nil }

// Loader finds and reads the case dataset from a data directory.
type Loader struct {
	opt     Options
	readers []Reader
	log     *zap.Logger
	now     func() time.Time
}

// NewLoader returns a loader using the registered readers. A nil logger is
// replaced with a no-op one.
func NewLoader(opt Options, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		opt:     opt.withDefaults(),
		readers: Readers(),
		log:     log.Named("loader"),
		now:     time.Now,
	}
}

// Options returns the effective options.
func (l *Loader) Options() Options { return l.opt }

// Discover returns the file that would be loaded, checking readers in priority
// order and candidate names in lexicographic order. ok is false when the
// directory holds no readable file or does not exist.
func (l *Loader) Discover() (r Reader, path string, ok bool, err error) {
	entries, err := os.ReadDir(l.opt.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", false, nil
		}
		return nil, "", false, fmt.Errorf("scan data dir: %w", err)
	}
	// os.ReadDir sorts by filename.
	for _, rd := range l.readers {
		for _, e := range entries {
			if e.IsDir() || !rd.CanRead(e.Name()) {
				continue
			}
			return rd, filepath.Join(l.opt.Dir, e.Name()), true, nil
		}
	}
	return nil, "", false, nil
}

// Load runs one pass: the first delimited file wins, then structured records,
// then spreadsheets, and finally the synthetic sample. A file that fails to parse
// yields an empty table and a *ParseError instead of trying the next source.
func (l *Loader) Load(ctx context.Context) Result {
	start := l.now()
	res := l.load(ctx)
	res.LoadedAt = start
	res.Elapsed = l.now().Sub(start)
	if res.Err != nil {
		l.log.Error("load degraded to empty table",
			zap.String("source", string(res.Source.Kind)),
			zap.String("path", res.Source.Path),
			zap.Error(res.Err))
	} else {
		l.log.Info("dataset loaded",
			zap.String("source", string(res.Source.Kind)),
			zap.String("path", res.Source.Path),
			zap.Int("rows", res.Table.Len()),
			zap.Int("columns", len(res.Table.Columns)),
			zap.Duration("elapsed", res.Elapsed))
	}
	return res
}

func (l *Loader) load(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Result{Table: Empty(), Source: Source{Kind: SourceNone}, Err: err}
	}
	rd, path, ok, err := l.Discover()
	if err != nil {
		return Result{Table: Empty(), Source: Source{Kind: SourceNone, Path: l.opt.Dir}, Err: err}
	}
	if !ok {
		seed := l.opt.SampleSeed
		if seed == 0 {
			seed = uint64(l.now().UnixNano())
		}
		l.log.Debug("no data file found, using sample table", zap.String("dir", l.opt.Dir))
		return Result{Table: Sample(seed), Source: Source{Kind: SourceSample}}
	}
	src := Source{Kind: rd.Kind(), Path: path}
	t, err := rd.Read(path, l.opt)
	if err != nil {
		return Result{Table: Empty(), Source: src, Err: &ParseError{Kind: src.Kind, Path: path, Err: err}}
	}
	return Result{Table: t, Source: src}
}
