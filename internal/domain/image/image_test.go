package image

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (*Generated, error)
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (*Generated, error) {
	return m.GenerateFunc(ctx, prompt)
}

type memoryStorage struct {
	objects map[string][]byte
	types   map[string]string
}

func (m *memoryStorage) Upload(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStorage) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.example/" + key, nil
}

func TestCreate_PassesThroughHostedURL(t *testing.T) {
	svc := NewService(&MockGenerator{GenerateFunc: func(_ context.Context, prompt string) (*Generated, error) {
		assert.Equal(t, "a fox in a hoodie", prompt)
		return &Generated{URL: "https://images.example/fox.png"}, nil
	}}, nil, zerolog.Nop())

	url, err := svc.Create(context.Background(), "user-1", "  a fox in a hoodie ")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/fox.png", url)
	assert.Equal(t, "![Generated image](https://images.example/fox.png)", Fragment(url))
}

func TestCreate_StoresInlineBytes(t *testing.T) {
	store := &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
	svc := NewService(&MockGenerator{GenerateFunc: func(context.Context, string) (*Generated, error) {
		return &Generated{Data: pngHeader}, nil
	}}, store, zerolog.Nop())

	url, err := svc.Create(context.Background(), "user-1", "a fox")
	require.NoError(t, err)
	assert.Contains(t, url, "https://cdn.example/generated/user-1/")
	assert.Contains(t, url, ".png")

	require.Len(t, store.objects, 1)
	for key, data := range store.objects {
		assert.True(t, bytes.Equal(pngHeader, data))
		assert.Equal(t, "image/png", store.types[key])
	}
}

func TestCreate_Failures(t *testing.T) {
	boom := errors.New("backend down")

	svc := NewService(&MockGenerator{GenerateFunc: func(context.Context, string) (*Generated, error) { return nil, boom }}, nil, zerolog.Nop())
	_, err := svc.Create(context.Background(), "u", "x")
	require.ErrorIs(t, err, boom)

	_, err = svc.Create(context.Background(), "u", "   ")
	require.Error(t, err)

	inline := NewService(&MockGenerator{GenerateFunc: func(context.Context, string) (*Generated, error) {
		return &Generated{Data: pngHeader}, nil
	}}, nil, zerolog.Nop())
	_, err = inline.Create(context.Background(), "u", "x")
	require.ErrorIs(t, err, ErrNoStorage)

	text := NewService(&MockGenerator{GenerateFunc: func(context.Context, string) (*Generated, error) {
		return &Generated{Data: []byte("definitely not an image")}, nil
	}}, &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}, zerolog.Nop())
	_, err = text.Create(context.Background(), "u", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported mime type")
}
