// Package loader provides the byte transport behind asset.Loader: blocking
// range loads for the parse session and queued loads completed by Wait.
package loader

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/logger"
	"github.com/samcharles93/scenery/pkg/scene"
)

// Loader implements asset.Loader over a Fetcher.
type Loader struct {
	fetcher Fetcher
	opts    *asset.Options
	lib     *asset.Library
	log     logger.Logger

	mu     sync.Mutex
	queue  []string
	queued map[string]struct{}
	files  map[string][]byte
}

// New creates a loader and attaches it to lib. A nil opts uses
// asset.DefaultOptions and a nil log uses logger.Default.
func New(lib *asset.Library, f Fetcher, opts *asset.Options, log logger.Logger) *Loader {
	if opts == nil {
		opts = asset.DefaultOptions()
	}
	if log == nil {
		log = logger.Default()
	}
	l := &Loader{
		fetcher: f,
		opts:    opts,
		lib:     lib,
		log:     log.With("component", "loader"),
		queued:  make(map[string]struct{}),
		files:   make(map[string][]byte),
	}
	if lib != nil {
		lib.SetLoader(l)
	}
	return l
}

func (l *Loader) Options() *asset.Options {
	return l.opts
}

// LoadBlocking fetches a file window and returns once it is available.
func (l *Loader) LoadBlocking(ctx context.Context, path string, r asset.Range) ([]byte, error) {
	if l.fetcher == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	data, err := l.fetcher.Fetch(ctx, path, r)
	if err != nil {
		l.log.Debug("blocking load failed", "path", path, "offset", r.Offset, "length", r.Length, "error", err)
		return nil, err
	}
	l.log.Debug("blocking load", "path", path, "offset", r.Offset, "length", r.Length, "bytes", len(data))
	return data, nil
}

// Queue schedules path for the next Wait. Duplicate paths are queued once.
func (l *Loader) Queue(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.queued[path]; ok {
		return
	}
	l.queued[path] = struct{}{}
	l.queue = append(l.queue, path)
}

// Pending returns the paths waiting for Wait.
func (l *Loader) Pending() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.queue...)
}

// Wait loads every queued file concurrently and hands each to the parser
// registered for its extension. Files without a parser are kept (see Files)
// when StoreDataIfNotParsed is set. Per-file failures do not stop the other
// loads; they are joined into the returned error.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	paths := l.queue
	l.queue = nil
	l.queued = make(map[string]struct{})
	l.mu.Unlock()

	if len(paths) == 0 {
		return nil
	}

	var (
		errMu sync.Mutex
		errs  []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range paths {
		g.Go(func() error {
			if err := l.complete(gctx, path); err != nil {
				l.log.Warn("queued load failed", "path", path, "error", err)
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func (l *Loader) complete(ctx context.Context, path string) error {
	data, err := l.LoadBlocking(ctx, path, l.opts.Range())
	if err != nil {
		return err
	}
	p := l.opts.Parser(scene.Extension(path))
	if p == nil {
		if l.opts.StoreDataIfNotParsed {
			l.mu.Lock()
			l.files[path] = data
			l.mu.Unlock()
		}
		return nil
	}
	if err := p.Parse(path, path, l.opts, data, l.lib); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Files returns the stored bytes of queued files that had no parser.
func (l *Loader) Files() map[string][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string][]byte, len(l.files))
	for k, v := range l.files {
		out[k] = v
	}
	return out
}
