package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	domain "github.com/decdec420/jessica-your-companion/internal/domain/search"
)

// SerperClient queries a Serper compatible search API and caches responses per query.
type SerperClient struct {
	httpClient *resty.Client
	endpoint   string
	apiKey     string
	num        int
	cache      *resultCache
	log        zerolog.Logger
}

var _ domain.Searcher = (*SerperClient)(nil)

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	AnswerBox struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	KnowledgeGraph struct {
		Description string `json:"description"`
	} `json:"knowledgeGraph"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Options configures the Serper client.
type Options struct {
	Endpoint  string
	APIKey    string
	Num       int
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// NewSerperClient creates a new search client.
func NewSerperClient(opts Options, log zerolog.Logger) (*SerperClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("search API key not configured")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	cache, err := newResultCache(opts.CacheSize, opts.CacheTTL)
	if err != nil {
		return nil, err
	}

	return &SerperClient{
		httpClient: resty.New().
			SetHeader("User-Agent", "Jessica-Companion/1.0").
			SetTimeout(opts.Timeout),
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		num:      opts.Num,
		cache:    cache,
		log:      log.With().Str("component", "serper-client").Logger(),
	}, nil
}

// Search performs a web search, serving repeated queries from the cache.
func (c *SerperClient) Search(ctx context.Context, query string) (*domain.Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	key := strings.ToLower(query)
	if cached, ok := c.cache.Get(key); ok {
		c.log.Debug().Str("query", query).Msg("search cache hit")
		return cached, nil
	}

	var result serperResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(serperRequest{Q: query, Num: c.num}).
		SetResult(&result).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to query search API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search API error (status %d): %s", resp.StatusCode(), resp.String())
	}

	normalized := &domain.Response{Query: query, Answer: firstNonEmpty(result.AnswerBox.Answer, result.AnswerBox.Snippet, result.KnowledgeGraph.Description)}
	for _, o := range result.Organic {
		normalized.Result = append(normalized.Result, domain.Result{Title: o.Title, Link: o.Link, Snippet: o.Snippet})
	}

	c.cache.Set(key, normalized)
	return normalized, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// resultCache is an LRU of search responses whose entries expire after ttl.
type resultCache struct {
	cache *lru.Cache
	ttl   time.Duration
	mu    sync.RWMutex
	now   func() time.Time
}

type cacheEntry struct {
	value     *domain.Response
	expiresAt time.Time
}

func newResultCache(maxSize int, ttl time.Duration) (*resultCache, error) {
	if maxSize <= 0 {
		maxSize = 256
	}
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &resultCache{cache: cache, ttl: ttl, now: time.Now}, nil
}

func (c *resultCache) Get(key string) (*domain.Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	entry := val.(cacheEntry)
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		c.cache.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *resultCache) Set(key string, value *domain.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)})
}
