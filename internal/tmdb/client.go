package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/olekszij/tmdb-quiz/internal/domain/entities"
)

var ErrSourceUnavailable = errors.New("catalog source unavailable")

// Config contains connection parameters of the catalog API.
type Config struct {
	BaseURL  string
	APIKey   string
	Language string
	Timeout  time.Duration
}

// Client talks to the TMDB REST API. Each call is independent: no caching, no retry.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	http     *http.Client
}

// NewClient creates a new catalog client.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type discoverResponse struct {
	Results []entities.MovieStub `json:"results"`
}

type imagesResponse struct {
	Backdrops []struct {
		ISO6391  *string `json:"iso_639_1"`
		FilePath string  `json:"file_path"`
	} `json:"backdrops"`
}

// Discover returns the most popular movies released in the given year.
func (c *Client) Discover(ctx context.Context, year int) ([]entities.MovieStub, error) {
	q := url.Values{}
	q.Set("language", c.language)
	q.Set("sort_by", "popularity.desc")
	q.Set("year", strconv.Itoa(year))

	var resp discoverResponse
	if err := c.get(ctx, "/discover/movie", q, &resp); err != nil {
		return nil, fmt.Errorf("discover year %d: %w", year, err)
	}

	return resp.Results, nil
}

// Backdrops returns up to entities.MaxBackdrops backdrop paths that carry no language tag.
func (c *Client) Backdrops(ctx context.Context, movieID int64) ([]string, error) {
	var resp imagesResponse
	path := "/movie/" + strconv.FormatInt(movieID, 10) + "/images"
	if err := c.get(ctx, path, url.Values{}, &resp); err != nil {
		return nil, fmt.Errorf("images of movie %d: %w", movieID, err)
	}

	out := make([]string, 0, entities.MaxBackdrops)
	for _, b := range resp.Backdrops {
		if b.ISO6391 != nil || b.FilePath == "" {
			continue
		}
		out = append(out, b.FilePath)
		if len(out) == entities.MaxBackdrops {
			break
		}
	}

	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	q.Set("api_key", c.apiKey)
	endpoint := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrSourceUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: HTTP %d from %s: %s", ErrSourceUnavailable, resp.StatusCode, path, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrSourceUnavailable, path, err)
	}

	return nil
}
