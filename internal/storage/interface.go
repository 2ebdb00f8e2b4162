package storage

import (
	"context"
	"io"
	"time"
)

// MediaStore is the external media collaborator boundary. The engine treats
// video content as opaque blobs keyed by mediaRef tokens; it never decodes
// or inspects media.
type MediaStore interface {
	// Store persists a blob and returns the opaque mediaRef token.
	Store(ctx context.Context, blob io.Reader, contentType string) (mediaRef string, err error)

	// GenerateUploadURL returns a presigned-style URL clients PUT proof
	// video to, plus the mediaRef the upload will land under.
	GenerateUploadURL(ctx context.Context, contentType string, expiresIn time.Duration) (uploadURL, mediaRef string, err error)

	// Open reads a stored blob back (used by the mock HTTP handler and the
	// retention purge verification).
	Open(ctx context.Context, mediaRef string) (io.ReadCloser, error)

	// Delete removes a blob; used by the 30-day evidence retention purge.
	Delete(ctx context.Context, mediaRef string) error
}
