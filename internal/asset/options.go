package asset

import (
	"context"
	"errors"
	"maps"
	"strings"

	"github.com/jinzhu/copier"
)

// Parser turns loaded bytes into library assets.
type Parser interface {
	Parse(name, resolvedPath string, opts *Options, data []byte, lib *Library) error
}

// ParserFactory creates a fresh parser for one file.
type ParserFactory func() Parser

// Range selects a byte window of a file. A zero Length reads to the end.
type Range struct {
	Offset int64
	Length int64
}

// Loader fetches file bytes. LoadBlocking returns only once the bytes (or a
// failure) are available. Queue defers a load until Wait, which parses each
// queued file with the parser registered for its extension.
type Loader interface {
	LoadBlocking(ctx context.Context, path string, r Range) ([]byte, error)
	Queue(path string)
	Wait(ctx context.Context) error
	Options() *Options
}

var ErrNoParser = errors.New("asset: no parser for extension")

// Options configures loading and parsing. Derive per-load variants with
// Clone so the caller's options are never mutated.
type Options struct {
	LoadAsynchronously         bool
	StoreDataIfNotParsed       bool
	DisposeTextureAfterLoading bool

	SeekingOffset int64
	SeekedLength  int64

	// ParserFunc, when set, replaces extension lookup. Returning nil means
	// the extension is not handled.
	ParserFunc func(extension string) Parser

	Parsers map[string]ParserFactory
}

// DefaultOptions returns synchronous options with no parsers registered.
func DefaultOptions() *Options {
	return &Options{
		StoreDataIfNotParsed: true,
		Parsers:              make(map[string]ParserFactory),
	}
}

// Clone returns an independent copy. The parser table is deep copied so
// registrations on the clone do not leak back.
func (o *Options) Clone() *Options {
	c := &Options{}
	if err := copier.CopyWithOption(c, o, copier.Option{DeepCopy: true}); err != nil {
		*c = *o
		c.Parsers = maps.Clone(o.Parsers)
	}
	if c.Parsers == nil {
		c.Parsers = make(map[string]ParserFactory)
	}
	return c
}

// Range returns the byte window described by the seeking options.
func (o *Options) Range() Range {
	return Range{Offset: o.SeekingOffset, Length: o.SeekedLength}
}

// WithRange sets the seeking window and returns o for chaining.
func (o *Options) WithRange(r Range) *Options {
	o.SeekingOffset = r.Offset
	o.SeekedLength = r.Length
	return o
}

// RegisterParser associates an extension (without dot, case-insensitive)
// with a parser factory. Later registrations win.
func (o *Options) RegisterParser(extension string, f ParserFactory) *Options {
	if o.Parsers == nil {
		o.Parsers = make(map[string]ParserFactory)
	}
	o.Parsers[strings.ToLower(extension)] = f
	return o
}

// Parser returns a parser for the extension, or nil.
func (o *Options) Parser(extension string) Parser {
	extension = strings.ToLower(extension)
	if o.ParserFunc != nil {
		return o.ParserFunc(extension)
	}
	if f, ok := o.Parsers[extension]; ok && f != nil {
		return f()
	}
	return nil
}

// Extensions lists the registered parser extensions.
func (o *Options) Extensions() []string {
	return keys(o.Parsers)
}
