package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var allowedMIMEs = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ErrNoStorage is returned when a backend answers with raw bytes and no media storage is configured.
var ErrNoStorage = errors.New("image returned inline but no media storage is configured")

// Generated is the raw answer of an image backend: a hosted URL or inline bytes.
type Generated struct {
	URL  string
	Data []byte
}

// Generator produces an image from a text prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Generated, error)
}

// Storage persists inline images and resolves the URL they are served from.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	URL(ctx context.Context, key string) (string, error)
}

// Service turns a prompt into a displayable image URL.
type Service struct {
	generator Generator
	storage   Storage
	log       zerolog.Logger
}

// NewService wires the image service. storage may be nil when only URL
// returning backends are used.
func NewService(generator Generator, storage Storage, log zerolog.Logger) *Service {
	return &Service{
		generator: generator,
		storage:   storage,
		log:       log.With().Str("component", "image-service").Logger(),
	}
}

// Create generates an image for the user and returns where it can be viewed.
func (s *Service) Create(ctx context.Context, userID, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}

	generated, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if url := strings.TrimSpace(generated.URL); url != "" {
		return url, nil
	}
	if len(generated.Data) == 0 {
		return "", fmt.Errorf("image backend returned no image")
	}
	if s.storage == nil {
		return "", ErrNoStorage
	}

	mimeType := mimetype.Detect(generated.Data).String()
	ext, ok := allowedMIMEs[mimeType]
	if !ok {
		return "", fmt.Errorf("unsupported mime type %s", mimeType)
	}

	key := fmt.Sprintf("generated/%s/%s.%s", userID, uuid.NewString(), ext)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(generated.Data), int64(len(generated.Data)), mimeType); err != nil {
		return "", fmt.Errorf("store generated image: %w", err)
	}

	s.log.Debug().Str("key", key).Str("mime_type", mimeType).Int("bytes", len(generated.Data)).Msg("generated image stored")
	return s.storage.URL(ctx, key)
}

// Fragment renders an image URL as a markdown reply fragment.
func Fragment(url string) string {
	if strings.TrimSpace(url) == "" {
		return ""
	}
	return fmt.Sprintf("![Generated image](%s)", strings.TrimSpace(url))
}
