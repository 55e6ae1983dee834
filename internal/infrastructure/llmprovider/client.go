package llmprovider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/decdec420/jessica-your-companion/internal/domain/llm"
	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

// Client implements llm.Provider against an OpenAI compatible chat completions endpoint.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a Resty-backed client. baseURL is the API root, for example https://host/v1.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 75 * time.Second
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &Client{
		httpClient: resty.New().
			SetBaseURL(base).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
		baseURL: base,
		apiKey:  apiKey,
	}
}

// CreateChatCompletion calls POST /chat/completions. Transport failures and
// non-2xx responses both come back as EXTERNAL platform errors.
func (c *Client) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	var completion openai.ChatCompletionResponse
	request := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&completion)

	if strings.TrimSpace(c.apiKey) != "" {
		request.SetAuthToken(c.apiKey)
	}

	resp, err := request.Post("/chat/completions")
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"model request failed", err, "5b0f3d0e-7a51-4c8e-9d0e-2f1c6e3a8b14")
	}

	if resp.IsError() {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("model api error: %s", strings.TrimSpace(resp.String())), nil, "c9e2a4f7-18d3-4b6a-a0f5-7e4d2b9c1a63",
			map[string]any{"status_code": resp.StatusCode()})
	}
	return &completion, nil
}

// Ensure interface compliance.
var _ llm.Provider = (*Client)(nil)
