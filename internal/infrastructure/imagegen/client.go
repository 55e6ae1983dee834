package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/decdec420/jessica-your-companion/internal/domain/image"
)

// Client calls an OpenAI compatible /v1/images/generations endpoint.
type Client struct {
	httpClient *resty.Client
	model      string
	size       string
}

var _ image.Generator = (*Client)(nil)

type generationRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type generationResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// NewClient creates an image generation client. baseURL is the service root without /v1.
func NewClient(baseURL, apiKey, model, size string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(baseURL), "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if strings.TrimSpace(apiKey) != "" {
		httpClient.SetAuthToken(apiKey)
	}
	return &Client{httpClient: httpClient, model: model, size: size}
}

// Generate requests one image and returns either its URL or its decoded bytes.
func (c *Client) Generate(ctx context.Context, prompt string) (*image.Generated, error) {
	var result generationResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(generationRequest{Model: c.model, Prompt: prompt, N: 1, Size: c.size}).
		SetResult(&result).
		Post("/v1/images/generations")
	if err != nil {
		return nil, fmt.Errorf("failed to call image API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("image API returned status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("image API returned no data")
	}

	first := result.Data[0]
	if url := strings.TrimSpace(first.URL); url != "" {
		return &image.Generated{URL: url}, nil
	}
	if first.B64JSON == "" {
		return nil, fmt.Errorf("image API returned neither url nor b64_json")
	}
	data, err := base64.StdEncoding.DecodeString(first.B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode b64_json: %w", err)
	}
	return &image.Generated{Data: data}, nil
}
