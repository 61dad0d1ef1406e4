package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/samcharles93/scenery/internal/asset"
)

var (
	ErrNotFound = errors.New("loader: file not found")
	ErrRange    = errors.New("loader: range outside file")
)

// Fetcher returns the bytes of a file window.
type Fetcher interface {
	Fetch(ctx context.Context, path string, r asset.Range) ([]byte, error)
}

// window validates r against a file of the given size and returns the
// absolute [start, end) bounds.
func window(size int64, r asset.Range) (int64, int64, error) {
	if r.Offset < 0 || r.Length < 0 || r.Offset > size {
		return 0, 0, ErrRange
	}
	end := size
	if r.Length > 0 {
		end = r.Offset + r.Length
		if end < r.Offset || end > size {
			return 0, 0, ErrRange
		}
	}
	return r.Offset, end, nil
}

// FileFetcher reads files from disk. Relative paths resolve under Root and
// can not escape it; with an empty Root paths are used as given.
type FileFetcher struct {
	Root string
}

func (f FileFetcher) resolve(path string) string {
	if f.Root == "" {
		return path
	}
	return filepath.Join(f.Root, filepath.Clean("/"+filepath.ToSlash(path)))
}

// Fetch maps the file read-only and copies the requested window out of the
// mapping. If mmap is unavailable it falls back to ReadAt.
func (f FileFetcher) Fetch(ctx context.Context, path string, r asset.Range) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.resolve(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	size := stat.Size()
	if size > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: %s too large", ErrRange, path)
	}
	start, end, err := window(size, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s [%d+%d] of %d bytes", err, path, r.Offset, r.Length, size)
	}
	out := make([]byte, end-start)
	if len(out) == 0 {
		return out, nil
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		copy(out, data[start:end])
		_ = unix.Munmap(data)
		return out, nil
	}

	// Fallback path that does not require mmap support.
	if n, err := file.ReadAt(out, start); n < len(out) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// MemoryFetcher serves files held in memory. It is safe for concurrent use.
type MemoryFetcher struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryFetcher() *MemoryFetcher {
	return &MemoryFetcher{files: make(map[string][]byte)}
}

// Put stores data under path, replacing any previous content.
func (m *MemoryFetcher) Put(path string, data []byte) {
	m.mu.Lock()
	m.files[filepath.ToSlash(filepath.Clean(path))] = data
	m.mu.Unlock()
}

func (m *MemoryFetcher) Fetch(ctx context.Context, path string, r asset.Range) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.files[filepath.ToSlash(filepath.Clean(path))]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	start, end, err := window(int64(len(data)), r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s [%d+%d] of %d bytes", err, path, r.Offset, r.Length, len(data))
	}
	out := make([]byte, end-start)
	copy(out, data[start:end])
	return out, nil
}

// Chain tries each fetcher in order and returns the first hit. Errors other
// than ErrNotFound stop the search.
type Chain []Fetcher

func (c Chain) Fetch(ctx context.Context, path string, r asset.Range) ([]byte, error) {
	for _, f := range c {
		data, err := f.Fetch(ctx, path, r)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}
