package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MockMediaStore implements proof-video storage on the local filesystem.
// This is for demo/testing without S3 or Azure Blob Storage; the engine only
// ever sees the opaque mediaRef tokens either way.
type MockMediaStore struct {
	baseURL  string // Server URL (e.g., "http://localhost:8081")
	mediaDir string // Local directory for proof videos
}

// NewMockMediaStore creates a filesystem-backed media store
func NewMockMediaStore(baseURL, mediaDir string) (*MockMediaStore, error) {
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &MockMediaStore{
		baseURL:  baseURL,
		mediaDir: mediaDir,
	}, nil
}

func newMediaRef(contentType string) string {
	ext := ".bin"
	switch contentType {
	case "video/mp4":
		ext = ".mp4"
	case "video/webm":
		ext = ".webm"
	}
	return "media_" + uuid.New().String() + ext
}

func (m *MockMediaStore) Store(ctx context.Context, blob io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mediaRef := newMediaRef(contentType)
	fullPath := filepath.Join(m.mediaDir, mediaRef)

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, blob); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return mediaRef, nil
}

// GenerateUploadURL hands out a mock presigned URL. The mediaRef is decided
// up front so the caller can submit the proof record once the PUT lands.
func (m *MockMediaStore) GenerateUploadURL(ctx context.Context, contentType string, expiresIn time.Duration) (string, string, error) {
	mediaRef := newMediaRef(contentType)
	uploadToken := uuid.New().String()
	uploadURL := fmt.Sprintf("%s/api/v1/media/upload/%s?ref=%s", m.baseURL, uploadToken, mediaRef)
	return uploadURL, mediaRef, nil
}

func (m *MockMediaStore) Open(ctx context.Context, mediaRef string) (io.ReadCloser, error) {
	fullPath, err := m.resolve(mediaRef)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

func (m *MockMediaStore) Delete(ctx context.Context, mediaRef string) error {
	fullPath, err := m.resolve(mediaRef)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SaveUnderRef writes an uploaded blob under a pre-issued mediaRef (mock
// presigned upload handler path).
func (m *MockMediaStore) SaveUnderRef(mediaRef string, blob io.Reader) error {
	fullPath, err := m.resolve(mediaRef)
	if err != nil {
		return err
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create media file: %w", err)
	}
	defer file.Close()

	_, err = io.Copy(file, blob)
	return err
}

// resolve rejects refs that would escape the media directory.
func (m *MockMediaStore) resolve(mediaRef string) (string, error) {
	if mediaRef == "" || strings.Contains(mediaRef, "/") || strings.Contains(mediaRef, "..") {
		return "", fmt.Errorf("invalid media reference %q", mediaRef)
	}
	return filepath.Join(m.mediaDir, mediaRef), nil
}
