package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/JaimeStill/docbridge/pkg/storage"
)

// MaxNameAttempts bounds the _2, _3, ... suffixes tried when a name is taken.
const MaxNameAttempts = 10

// sniffLen matches the mimetype detection read limit.
const sniffLen = 3072

// ErrNameExhausted reports that every candidate name was already taken.
var ErrNameExhausted = errors.New("attachments: no free name")

// Store writes attachments into the uploads directory. It never deletes or overwrites files.
type Store struct {
	storage storage.System
	now     func() time.Time
	logger  *slog.Logger
}

// New creates an attachment store. A nil clock uses time.Now.
func New(sys storage.System, logger *slog.Logger, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		storage: sys,
		now:     now,
		logger:  logger.With("system", "attachments"),
	}
}

// Save streams r into a new file named after tag and original.
// The content is never buffered beyond the first few kilobytes used for type detection.
func (s *Store) Save(ctx context.Context, tag, original string, r io.Reader) (*Attachment, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read content: %w", err)
	}
	head = head[:n]
	contentType := mimetype.Detect(head).String()

	created := s.now()
	base := Name(tag, original, created)
	body := io.MultiReader(bytes.NewReader(head), r)

	for attempt := 1; attempt <= MaxNameAttempts; attempt++ {
		key := base
		if attempt > 1 {
			key = withSuffix(base, attempt)
		}

		size, err := s.storage.StoreStream(ctx, key, body)
		if errors.Is(err, storage.ErrExists) {
			s.logger.Debug("name taken, trying next suffix", "key", key)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", key, err)
		}

		path, err := s.storage.Path(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", key, err)
		}

		att := &Attachment{
			Key:          key,
			Path:         path,
			OriginalName: original,
			Size:         size,
			ContentType:  contentType,
			Source:       tag,
			CreatedAt:    created,
		}

		s.logger.Info("attachment saved",
			"key", key,
			"original", original,
			"size", size,
			"content_type", contentType,
		)
		return att, nil
	}

	return nil, fmt.Errorf("%w: %s after %d attempts", ErrNameExhausted, base, MaxNameAttempts)
}

// SaveBytes stores an in-memory buffer.
func (s *Store) SaveBytes(ctx context.Context, tag, original string, data []byte) (*Attachment, error) {
	return s.Save(ctx, tag, original, bytes.NewReader(data))
}

// Open returns a reader over a stored attachment. Callers must close it.
func (s *Store) Open(ctx context.Context, key string) (io.ReadSeekCloser, storage.Entry, error) {
	return s.storage.Open(ctx, key)
}

// List returns every stored file, sorted by key.
func (s *Store) List(ctx context.Context) ([]storage.Entry, error) {
	return s.storage.List(ctx)
}
