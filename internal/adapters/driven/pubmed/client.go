// Package pubmed provides an ArticleSearcher backed by NCBI E-utilities.
package pubmed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ArticleSearcher = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultTimeout    = 30 * time.Second
	DefaultTool       = "bioqa"
	DefaultMaxResults = 30
)

// Config holds configuration for the PubMed client.
type Config struct {
	// BaseURL is the E-utilities base URL (default: NCBI production).
	BaseURL string

	// APIKey is the optional NCBI API key. It raises the request budget
	// from 3 to 10 requests per second.
	APIKey string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond overrides the NCBI budget derived from APIKey.
	RequestsPerSecond float64

	// CacheSize enables an LRU cache of fetched articles when positive.
	CacheSize int
	CacheTTL  time.Duration
}

// Client queries PubMed through esearch and efetch.
// It is safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *RateLimiter
	cache   *expirable.LRU[string, domain.Document]
}

// NewClient creates a new PubMed client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = AnonymousRate
		if cfg.APIKey != "" {
			rps = KeyedRate
		}
	}

	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		limiter: NewRateLimiter(rps),
	}
	if cfg.CacheSize > 0 && cfg.CacheTTL > 0 {
		c.cache = expirable.NewLRU[string, domain.Document](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return c
}

// Search returns PMIDs matching the query, most relevant first.
func (c *Client) Search(ctx context.Context, query string, opts driven.SearchOptions) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	// Query builders join phrase words with '+', the form-encoded space.
	params.Set("term", strings.ReplaceAll(query, "+", " "))
	params.Set("retmax", strconv.Itoa(maxResults))
	if opts.MinDate != "" || opts.MaxDate != "" {
		params.Set("datetype", "pdat")
		params.Set("mindate", opts.MinDate)
		params.Set("maxdate", opts.MaxDate)
	}

	body, ok, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil || !ok {
		return nil, err
	}

	ids, err := parseSearch(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode esearch response: %w", domain.ErrRetrievalUnavailable, err)
	}
	logger.Debug("pubmed: %q matched %d articles", query, len(ids))
	return ids, nil
}

// Fetch returns the title and abstract of each PMID, in the order requested.
// PMIDs PubMed does not return are omitted.
func (c *Client) Fetch(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found := make(map[string]domain.Document, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if c.cache != nil {
			if doc, ok := c.cache.Get(id); ok {
				found[id] = doc
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		docs, err := c.fetch(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			found[doc.ID] = doc
			if c.cache != nil {
				c.cache.Add(doc.ID, doc)
			}
		}
	}

	out := make([]domain.Document, 0, len(found))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		doc, ok := found[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, doc)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, ids []string) ([]domain.Document, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")

	body, ok, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil || !ok {
		return nil, err
	}

	docs, err := parseArticles(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode efetch response: %w", domain.ErrRetrievalUnavailable, err)
	}
	logger.Debug("pubmed: fetched %d of %d articles", len(docs), len(ids))
	return docs, nil
}

// get issues a throttled GET. A non-200 status is logged and reported as
// ok=false with no error.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, bool, error) {
	params.Set("tool", DefaultTool)
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("pubmed: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, fmt.Errorf("%w: %s: %w", domain.ErrRetrievalUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.limiter.RecordRateLimitError(retryAfter(resp.Header.Get("Retry-After")))
		}
		logger.Warn("pubmed: %s returned status %d", endpoint, resp.StatusCode)
		return nil, false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s response: %w", domain.ErrRetrievalUnavailable, endpoint, err)
	}
	return body, true, nil
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
