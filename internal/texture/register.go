package texture

import "github.com/samcharles93/scenery/internal/asset"

// Register adds the image and packed texture parsers to opts.
func Register(opts *asset.Options) *asset.Options {
	for _, ext := range ImageExtensions {
		opts.RegisterParser(ext, func() asset.Parser { return NewImageParser() })
	}
	opts.RegisterParser(PackedExtension, func() asset.Parser { return NewPackedParser() })
	return opts
}
