// Package effect completes queued effect loads. Compiling effects is out of
// scope; the parser only hands the source to the placeholder created when the
// scene referenced it.
package effect

import (
	"bytes"
	"fmt"

	"github.com/samcharles93/scenery/internal/asset"
)

// Extension of effect files.
const Extension = "effect"

type Parser struct{}

func NewParser() *Parser { return &Parser{} }

func (Parser) Parse(name, resolvedPath string, _ *asset.Options, data []byte, lib *asset.Library) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("effect %s: empty source", resolvedPath)
	}
	lib.EffectPlaceholder(name).Resolve(data)
	return nil
}

// Register adds the effect parser to opts.
func Register(opts *asset.Options) *asset.Options {
	return opts.RegisterParser(Extension, func() asset.Parser { return NewParser() })
}
