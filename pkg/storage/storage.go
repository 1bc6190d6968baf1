package storage

import (
	"context"
	"io"
	"time"

	"github.com/JaimeStill/docbridge/pkg/lifecycle"
)

// System defines the operations on the uploads directory.
// The directory is append-only: keys are written once and never replaced.
type System interface {
	// Store saves data at the specified key.
	// Returns ErrExists if the key is taken and ErrInvalidKey for empty or traversing keys.
	Store(ctx context.Context, key string, data []byte) error

	// StoreStream copies r to the specified key without buffering it in memory
	// and returns the number of bytes written. Partial writes never become visible.
	StoreStream(ctx context.Context, key string, r io.Reader) (int64, error)

	// Retrieve returns the data stored at the specified key.
	// Returns ErrNotFound if the key does not exist.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Open returns a seekable reader over the stored content along with its entry.
	// Callers must close the reader.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, Entry, error)

	// Validate checks if a key exists and is accessible.
	// Returns (true, nil) if the key exists and is readable.
	// Returns (false, nil) if the key does not exist.
	Validate(ctx context.Context, key string) (bool, error)

	// List returns the stored entries at the root of the directory.
	// Writes still in progress and empty files are omitted.
	List(ctx context.Context) ([]Entry, error)

	// Path resolves the absolute path of a key without checking existence.
	Path(ctx context.Context, key string) (string, error)

	// Start registers lifecycle hooks with the coordinator.
	// For filesystem storage, this creates the base directory.
	Start(lc *lifecycle.Coordinator) error
}

// Entry describes one stored file.
type Entry struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}
