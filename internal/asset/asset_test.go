package asset

import (
	"context"
	"errors"
	"testing"
)

type nopParser struct{ ext string }

func (p nopParser) Parse(string, string, *Options, []byte, *Library) error { return nil }

func TestOptionsCloneIsolatesParsers(t *testing.T) {
	t.Parallel()

	base := DefaultOptions()
	base.DisposeTextureAfterLoading = true
	base.RegisterParser("PNG", func() Parser { return nopParser{"png"} })

	c := base.Clone()
	c.LoadAsynchronously = true
	c.WithRange(Range{Offset: 4, Length: 26})
	c.RegisterParser("texture", func() Parser { return nopParser{"texture"} })

	if !c.DisposeTextureAfterLoading {
		t.Fatal("clone lost DisposeTextureAfterLoading")
	}
	if base.LoadAsynchronously || base.SeekedLength != 0 {
		t.Fatal("clone mutated base options")
	}
	if base.Parser("texture") != nil {
		t.Fatal("clone registration leaked into base")
	}
	if p, ok := c.Parser("png").(nopParser); !ok || p.ext != "png" {
		t.Fatalf("clone lost png parser: %#v", c.Parser("png"))
	}
	if r := c.Range(); r.Offset != 4 || r.Length != 26 {
		t.Fatalf("range: %+v", r)
	}
}

func TestOptionsParserFunc(t *testing.T) {
	t.Parallel()

	o := DefaultOptions().RegisterParser("png", func() Parser { return nopParser{"png"} })
	o.ParserFunc = func(ext string) Parser {
		if ext != "texture" {
			return nil
		}
		return nopParser{"hook"}
	}
	if o.Parser("png") != nil {
		t.Fatal("parser hook must replace extension lookup")
	}
	if p, ok := o.Parser("TEXTURE").(nopParser); !ok || p.ext != "hook" {
		t.Fatalf("hook parser: %#v", o.Parser("texture"))
	}

	c := o.Clone()
	if p, ok := c.Parser("texture").(nopParser); !ok || p.ext != "hook" {
		t.Fatalf("clone lost parser hook: %#v", c.Parser("texture"))
	}
	c.ParserFunc = nil
	if p, ok := c.Parser("png").(nopParser); !ok || p.ext != "png" {
		t.Fatalf("clone lost parser table: %#v", c.Parser("png"))
	}
	if o.ParserFunc == nil {
		t.Fatal("clearing the clone hook cleared the base hook")
	}
}

func TestOptionsCloneNilParsers(t *testing.T) {
	t.Parallel()

	c := (&Options{SeekedLength: 26}).Clone()
	if c.Parsers == nil || c.SeekedLength != 26 {
		t.Fatalf("clone: %+v", c)
	}
	c.RegisterParser("png", func() Parser { return nopParser{"png"} })
	if c.Parser("png") == nil {
		t.Fatal("registration on clone failed")
	}
}

func TestJobListSplice(t *testing.T) {
	t.Parallel()

	var order []string
	job := func(name string) *Job {
		return &Job{Name: name, Run: func(context.Context) error {
			order = append(order, name)
			return nil
		}}
	}

	var dst, src JobList
	dst.Push(job("a"))
	src.Push(job("b"))
	src.Push(job("c"))
	dst.Splice(&src)

	if src.Len() != 0 {
		t.Fatalf("source not drained: %d", src.Len())
	}
	if dst.Len() != 3 {
		t.Fatalf("destination length: %d", dst.Len())
	}
	if err := dst.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("order: %v", order)
	}
	if dst.Len() != 0 {
		t.Fatal("run should drain the list")
	}
}

func TestJobListRunError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var l JobList
	l.Push(&Job{Name: "upload", Run: func(context.Context) error { return boom }})
	l.Push(&Job{Name: "never"})
	if err := l.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("remaining jobs: %d", l.Len())
	}
}

func TestLibraryEffectPlaceholder(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	if lib.Effect("fx/basic.effect") != nil {
		t.Fatal("effect should not exist yet")
	}
	e := lib.EffectPlaceholder("fx/basic.effect")
	if e.Loaded() {
		t.Fatal("placeholder should be unloaded")
	}
	if lib.EffectPlaceholder("fx/basic.effect") != e {
		t.Fatal("placeholder not reused")
	}
	e.Resolve([]byte("shader"))
	if !lib.Effect("fx/basic.effect").Loaded() || string(e.Source()) != "shader" {
		t.Fatal("effect not resolved")
	}

	lib.SetTexture("b", &Texture{})
	lib.SetTexture("a", &Texture{})
	names := lib.Names(KindTexture)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names: %v", names)
	}
}
