// Package unsplash searches photos through the Unsplash REST API.
package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixml/greenhouse/domain/gallery"
)

// DefaultBaseURL is the public Unsplash API endpoint.
const DefaultBaseURL = "https://api.unsplash.com"

// ErrMissingAccessKey indicates the client was created without an access key.
var ErrMissingAccessKey = errors.New("unsplash: missing access key")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("unsplash: status %d", e.StatusCode)
	}
	return fmt.Sprintf("unsplash: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// Client searches photos. It implements a paged photo source: Execute yields
// successive result pages for one query.
type Client struct {
	accessKey  string
	baseURL    string
	pageSize   int
	maxPages   int
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API base URL (for testing or proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithPageSize sets the number of photos per page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxPages sets how many pages Execute fetches at most.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithCacheDir caches successful responses on disk under dir.
func WithCacheDir(dir string) Option {
	return func(c *Client) {
		if dir != "" {
			c.httpClient.Transport = NewCachingTransport(dir, c.httpClient.Transport)
		}
	}
}

// NewClient creates a Client authenticating with accessKey.
func NewClient(accessKey string, opts ...Option) (*Client, error) {
	if accessKey == "" {
		return nil, ErrMissingAccessKey
	}
	c := &Client{
		accessKey:  accessKey,
		baseURL:    DefaultBaseURL,
		pageSize:   25,
		maxPages:   1,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type searchResponse struct {
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
	Results    []photoResult `json:"results"`
}

type photoResult struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Regular string `json:"regular"`
		Small   string `json:"small"`
	} `json:"urls"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

type errorResponse struct {
	Errors []string `json:"errors"`
}

// SearchPhotos fetches one page of results. page starts at 1.
func (c *Client) SearchPhotos(ctx context.Context, query string, page int) (gallery.Page, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return gallery.Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gallery.Page{}, fmt.Errorf("search photos: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gallery.Page{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(body, &er) == nil {
			apiErr.Messages = er.Errors
		}
		return gallery.Page{}, apiErr
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return gallery.Page{}, fmt.Errorf("decode response: %w", err)
	}

	photos := make([]gallery.Photo, len(sr.Results))
	for i, r := range sr.Results {
		description := r.Description
		if description == "" {
			description = r.AltDescription
		}
		photos[i] = gallery.Photo{
			ID:           r.ID,
			Description:  description,
			RegularURL:   r.URLs.Regular,
			SmallURL:     r.URLs.Small,
			Photographer: r.User.Name,
			ProfileURL:   r.User.Links.HTML,
		}
	}
	return gallery.Page{
		Number:     page,
		TotalPages: sr.TotalPages,
		Total:      sr.Total,
		Photos:     photos,
	}, nil
}

// Execute yields pages 1 through the configured maximum for query, stopping
// after the last page. An empty query yields nothing.
func (c *Client) Execute(ctx context.Context, query string) iter.Seq2[gallery.Page, error] {
	return func(yield func(gallery.Page, error) bool) {
		if query == "" {
			return
		}
		for n := 1; n <= c.maxPages; n++ {
			page, err := c.SearchPhotos(ctx, query, n)
			if err != nil {
				yield(gallery.Page{}, err)
				return
			}
			if !yield(page, nil) || page.Last() {
				return
			}
		}
	}
}
