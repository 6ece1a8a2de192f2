package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinematch/internal/logging"
)

const (
	// DefaultBaseURL is the TMDB v3 API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultLanguage localizes titles for the Argentine catalogue.
	DefaultLanguage = "es-AR"
	// DefaultInterval is the pause the gate keeps between requests.
	DefaultInterval = 300 * time.Millisecond
)

// Config holds TMDB credentials and endpoint settings. AccessToken (v4 read
// token) wins over APIKey (v3 key) when both are set.
type Config struct {
	APIKey      string
	AccessToken string
	BaseURL     string
	Language    string
	Timeout     time.Duration
}

// Client provides rate-gated access to the TMDB API.
type Client struct {
	apiKey      string
	accessToken string
	baseURL     string
	language    string
	httpClient  *http.Client
	gate        *Gate
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithGate shares a gate between clients. Without it each client gets its own
// gate with DefaultInterval.
func WithGate(gate *Gate) Option {
	return func(c *Client) {
		if gate != nil {
			c.gate = gate
		}
	}
}

// WithLogger attaches a logger for per-request debug lines.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "catalog")
		}
	}
}

// New creates a TMDB client.
func New(cfg Config, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	token := strings.TrimSpace(cfg.AccessToken)
	if apiKey == "" && token == "" {
		return nil, errors.New("tmdb api key or access token required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = DefaultLanguage
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		apiKey:      apiKey,
		accessToken: token,
		baseURL:     strings.TrimRight(baseURL, "/"),
		language:    language,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.gate == nil {
		client.gate = NewGate(DefaultInterval)
	}
	return client, nil
}

// SearchMovies searches movies by title. year is sent only when positive.
func (c *Client) SearchMovies(ctx context.Context, query string, year int) (*MovieSearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var payload MovieSearchResponse
	if err := c.get(ctx, "/search/movie", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieDetails fetches a movie with its credits.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	if id <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	params := url.Values{}
	params.Set("append_to_response", "credits")
	var payload MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SearchPeople searches people by name.
func (c *Client) SearchPeople(ctx context.Context, query string) (*PersonSearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("include_adult", "false")
	var payload PersonSearchResponse
	if err := c.get(ctx, "/search/person", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// PersonDetails fetches a person with their movie credits.
func (c *Client) PersonDetails(ctx context.Context, id int64) (*PersonDetails, error) {
	if id <= 0 {
		return nil, errors.New("person id must be positive")
	}
	params := url.Values{}
	params.Set("append_to_response", "movie_credits")
	var payload PersonDetails
	if err := c.get(ctx, fmt.Sprintf("/person/%d", id), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Ping checks credentials and connectivity against /configuration.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/configuration", url.Values{}, nil)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if c.language != "" && path != "/configuration" {
		params.Set("language", c.language)
	}
	if c.accessToken == "" {
		params.Set("api_key", c.apiKey)
	}
	endpoint.RawQuery = params.Encode()

	return c.gate.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.accessToken)
		}

		requestStart := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(requestStart)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &CatalogError{Endpoint: path, Latency: latency, Err: err}
		}
		defer resp.Body.Close()

		c.logger.Debug("tmdb request",
			logging.String("endpoint", path),
			logging.Int("status", resp.StatusCode),
			logging.Duration("latency", latency),
		)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return &CatalogError{StatusCode: resp.StatusCode, Endpoint: path, Latency: latency}
		}
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode tmdb %s response: %w", path, err)
		}
		return nil
	})
}
