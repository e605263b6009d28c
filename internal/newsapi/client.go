// Package newsapi talks to the NewsAPI top-headlines endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/storage"
)

const maxErrorBody = 64 << 10

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	agent   string
}

func NewClient(cfg config.APIConfig) *Client {
	return &Client{
		http: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.Key,
		agent:   cfg.UserAgent,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) endpoint(q Query) string {
	params := url.Values{}
	params.Set("country", q.Country)
	params.Set("category", q.Category)
	params.Set("apiKey", c.apiKey)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	return c.baseURL + "/top-headlines?" + params.Encode()
}

// TopHeadlines fetches one page. Every error it returns matches ErrFetchFailed.
func (c *Client) TopHeadlines(ctx context.Context, q Query, progress ProgressFunc) (*Page, error) {
	if progress == nil {
		progress = func(Stage) {}
	}
	logger := debuglog.WithFields(map[string]interface{}{
		"category": q.Category,
		"page":     q.Page,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(q), nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: fmt.Errorf("creating request: %w", err)}
	}
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	req.Header.Set("Accept", "application/json")

	progress(StageRequest)
	logger.Debugf("requesting top headlines")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warnf("request failed: %v", err)
		return nil, &FetchError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fe := &FetchError{Kind: KindStatus, StatusCode: resp.StatusCode}
		var body response
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); decodeErr == nil {
			fe.Code = body.Code
			fe.Message = body.Message
		}
		logger.Warnf("upstream returned %d %s", resp.StatusCode, fe.Code)
		return nil, fe
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: fmt.Errorf("reading body: %w", err)}
	}
	progress(StageReceived)

	var body response
	if err := json.Unmarshal(data, &body); err != nil {
		logger.Warnf("malformed response: %v", err)
		return nil, &FetchError{Kind: KindDecode, Err: err}
	}
	if body.Status == "error" {
		return nil, &FetchError{Kind: KindStatus, StatusCode: resp.StatusCode, Code: body.Code, Message: body.Message}
	}
	progress(StageDecoded)

	page := &Page{
		Articles:     make([]*storage.Article, 0, len(body.Articles)),
		TotalResults: body.TotalResults,
	}
	for _, a := range body.Articles {
		page.Articles = append(page.Articles, a.toArticle(q.Category))
	}
	logger.Debugf("decoded %d articles of %d", len(page.Articles), page.TotalResults)
	return page, nil
}
