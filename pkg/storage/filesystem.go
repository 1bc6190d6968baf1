package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/JaimeStill/docbridge/pkg/lifecycle"
)

// filesystem implements System on top of an afero.Fs.
// Keys map directly to relative file paths under basePath.
type filesystem struct {
	fs       afero.Fs
	basePath string
	maxSize  int64
	logger   *slog.Logger

	// reserveMu serializes reservations; not every afero.Fs makes O_EXCL atomic.
	// pending holds reserved paths whose content is still being written.
	reserveMu sync.Mutex
	pending   map[string]struct{}
}

// New creates a storage system on the OS filesystem.
// Directory creation is deferred to Start() for lifecycle integration.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	return NewWithFs(afero.NewOsFs(), cfg, logger)
}

// NewWithFs creates a storage system on the provided filesystem.
func NewWithFs(fsys afero.Fs, cfg *Config, logger *slog.Logger) (System, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("base_path required")
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}

	return &filesystem{
		fs:       fsys,
		basePath: absPath,
		maxSize:  cfg.MaxUploadSizeBytes(),
		logger:   logger.With("system", "storage"),
		pending:  make(map[string]struct{}),
	}, nil
}

func (f *filesystem) Start(lc *lifecycle.Coordinator) error {
	f.logger.Info("starting storage system", "base_path", f.basePath)

	lc.OnStartup(func() {
		if err := f.fs.MkdirAll(f.basePath, 0755); err != nil {
			f.logger.Error("storage initialization failed", "error", err)
			return
		}
		f.logger.Info("storage directory initialized")
	})

	return nil
}

func (f *filesystem) Store(ctx context.Context, key string, data []byte) error {
	_, err := f.StoreStream(ctx, key, bytes.NewReader(data))
	return err
}

func (f *filesystem) StoreStream(ctx context.Context, key string, r io.Reader) (int64, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(path)
	if err := f.fs.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	if err := f.reserve(path); err != nil {
		return 0, err
	}
	defer f.release(path)

	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	n, err := f.writeTemp(ctx, tmpPath, r)
	if err != nil {
		f.fs.Remove(tmpPath)
		f.fs.Remove(path)
		return 0, err
	}

	if err := f.fs.Rename(tmpPath, path); err != nil {
		f.fs.Remove(tmpPath)
		f.fs.Remove(path)
		return 0, fmt.Errorf("rename temp file: %w", err)
	}

	f.logger.Debug("stored", "key", key, "size", n)
	return n, nil
}

func (f *filesystem) Retrieve(ctx context.Context, key string) ([]byte, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return nil, mapError("read file", err)
	}

	return data, nil
}

func (f *filesystem) Open(ctx context.Context, key string) (io.ReadSeekCloser, Entry, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return nil, Entry{}, err
	}

	if f.isPending(path) {
		return nil, Entry{}, ErrNotFound
	}

	file, err := f.fs.Open(path)
	if err != nil {
		return nil, Entry{}, mapError("open file", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, Entry{}, mapError("stat file", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, Entry{}, ErrNotFound
	}

	return file, Entry{Key: key, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (f *filesystem) Validate(ctx context.Context, key string) (bool, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return false, err
	}

	_, err = f.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if errors.Is(err, fs.ErrPermission) {
			return false, ErrPermissionDenied
		}
		return false, fmt.Errorf("stat file: %w", err)
	}

	return true, nil
}

func (f *filesystem) List(ctx context.Context) ([]Entry, error) {
	infos, err := afero.ReadDir(f.fs, f.basePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, mapError("read directory", err)
	}

	f.reserveMu.Lock()
	defer f.reserveMu.Unlock()

	// Empty files are reservations: in flight, or left behind by an interrupted write.
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || info.Size() == 0 || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		if _, ok := f.pending[filepath.Join(f.basePath, info.Name())]; ok {
			continue
		}
		entries = append(entries, Entry{
			Key:     info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})

	return entries, nil
}

func (f *filesystem) Path(ctx context.Context, key string) (string, error) {
	return f.fullPath(key)
}

// reserve claims the final path so concurrent writers cannot collide on it.
func (f *filesystem) reserve(path string) error {
	f.reserveMu.Lock()
	defer f.reserveMu.Unlock()

	file, err := f.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return mapError("reserve file", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("reserve file: %w", err)
	}
	f.pending[path] = struct{}{}
	return nil
}

func (f *filesystem) release(path string) {
	f.reserveMu.Lock()
	defer f.reserveMu.Unlock()
	delete(f.pending, path)
}

func (f *filesystem) isPending(path string) bool {
	f.reserveMu.Lock()
	defer f.reserveMu.Unlock()
	_, ok := f.pending[path]
	return ok
}

func (f *filesystem) writeTemp(ctx context.Context, path string, r io.Reader) (int64, error) {
	tmp, err := f.fs.Create(path)
	if err != nil {
		return 0, mapError("create temp file", err)
	}

	src := &contextReader{ctx: ctx, r: r}
	var n int64
	if f.maxSize > 0 {
		n, err = io.Copy(tmp, io.LimitReader(src, f.maxSize+1))
	} else {
		n, err = io.Copy(tmp, src)
	}

	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if f.maxSize > 0 && n > f.maxSize {
		return 0, ErrTooLarge
	}

	return n, nil
}

func (f *filesystem) fullPath(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", ErrInvalidKey
	}

	fullPath := filepath.Join(f.basePath, cleaned)

	if !strings.HasPrefix(fullPath, f.basePath+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}

	return fullPath, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if errors.Is(err, fs.ErrPermission) {
		return ErrPermissionDenied
	}
	return fmt.Errorf("%s: %w", op, err)
}

// contextReader stops a long copy once the context is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
