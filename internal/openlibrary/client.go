// Package openlibrary is a small client for the Open Library search API.
package openlibrary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/bookshelf/bookshelf-go/internal/metrics"
	"github.com/bookshelf/bookshelf-go/internal/model"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"

	searchFields = "key,title,author_name,first_publish_year,isbn,subject,cover_i"
	maxGenres    = 5
	maxBodyBytes = 5 << 20
	breakerName  = "openlibrary"
)

var (
	ErrUpstream = errors.New("open library request failed")
	ErrNotFound = errors.New("no matching book in open library")
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL    string
	CoversURL  string
	Timeout    time.Duration
	RPS        float64
	Burst      int
	HTTPClient *http.Client
}

// Client queries Open Library. Calls are paced by a token bucket and
// guarded by a circuit breaker. Failed calls are not retried.
type Client struct {
	baseURL   string
	coversURL string
	timeout   time.Duration
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]work]
}

type searchResponse struct {
	Docs []work `json:"docs"`
}

type work struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
	Subject          []string `json:"subject"`
	CoverID          int64    `json:"cover_i"`
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CoversURL == "" {
		cfg.CoversURL = DefaultCoversURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		coversURL: strings.TrimRight(cfg.CoversURL, "/"),
		timeout:   cfg.Timeout,
		http:      cfg.HTTPClient,
		limiter:   rate.NewLimiter(limit, cfg.Burst),
		breaker:   gobreaker.NewCircuitBreaker[[]work](settings),
	}
}

// Search returns up to limit works matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", searchFields)

	docs, err := c.fetch(ctx, "search", params)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, c.toResult(d))
	}
	return results, nil
}

// SearchByISBN returns the first work for isbn, or ErrNotFound.
func (c *Client) SearchByISBN(ctx context.Context, isbn string) (*model.SearchResult, error) {
	params := url.Values{}
	params.Set("isbn", CleanISBN(isbn))
	params.Set("limit", "1")
	params.Set("fields", searchFields)

	docs, err := c.fetch(ctx, "isbn", params)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}

	result := c.toResult(docs[0])
	return &result, nil
}

// CleanISBN strips hyphens and whitespace.
func CleanISBN(isbn string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, isbn)
}

func (c *Client) fetch(ctx context.Context, operation string, params url.Values) ([]work, error) {
	start := time.Now()

	docs, err := c.breaker.Execute(func() ([]work, error) {
		return c.do(ctx, params)
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
			err = fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}
	metrics.RecordCatalogRequest(operation, outcome, time.Since(start))

	return docs, err
}

func (c *Client) do(ctx context.Context, params url.Values) ([]work, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "bookshelf-go")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	return body.Docs, nil
}

func (c *Client) toResult(w work) model.SearchResult {
	result := model.SearchResult{
		Key:     w.Key,
		Title:   w.Title,
		Authors: w.AuthorName,
		Genres:  w.Subject,
	}
	if result.Authors == nil {
		result.Authors = []string{}
	}
	if len(result.Genres) > maxGenres {
		result.Genres = result.Genres[:maxGenres]
	}
	if result.Genres == nil {
		result.Genres = []string{}
	}
	if w.FirstPublishYear != 0 {
		year := w.FirstPublishYear
		result.PublicationYear = &year
	}
	if len(w.ISBN) > 0 && w.ISBN[0] != "" {
		isbn := w.ISBN[0]
		result.ISBN = &isbn
	}
	if w.CoverID != 0 {
		cover := fmt.Sprintf("%s/b/id/%d-M.jpg", c.coversURL, w.CoverID)
		result.CoverURL = &cover
	}
	return result
}
