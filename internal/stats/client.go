package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable marks a provider call that failed (transport error or
// non-200 status). The analysis-generation path maps it to a gateway-style
// response; nothing else in the system retries it.
var ErrUnavailable = errors.New("indicator provider unavailable")

// Provider fetches a year-keyed indicator series for one country.
type Provider interface {
	Series(ctx context.Context, indicator, country string, yearFrom, yearTo int) (Series, error)
}

// Client talks to one indicator provider over HTTP. Both the health and the
// economic provider expose the same contract:
//
//	GET {base}/v1/indicators/{code}?country=PL&from=2005&to=2020
//	→ {"country":"PL","indicator":"...","points":[{"year":2005,"value":12.3},...]}
//
// Responses are cached in memory for the configured TTL.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *ttlCache
	logger  zerolog.Logger
}

// NewClient builds a provider client. name is used only for logging.
func NewClient(name, baseURL, apiKey string, cacheTTL time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   newTTLCache(cacheTTL),
		logger:  logger.With().Str("provider", name).Logger(),
	}
}

type seriesResponse struct {
	Country   string `json:"country"`
	Indicator string `json:"indicator"`
	Points    []struct {
		Year  int     `json:"year"`
		Value float64 `json:"value"`
	} `json:"points"`
}

func (c *Client) Series(ctx context.Context, indicator, country string, yearFrom, yearTo int) (Series, error) {
	key := fmt.Sprintf("%s|%s|%d|%d", indicator, country, yearFrom, yearTo)
	if s, ok := c.cache.get(key); ok {
		return s, nil
	}

	u := fmt.Sprintf("%s/v1/indicators/%s?country=%s&from=%d&to=%d",
		c.baseURL, url.PathEscape(indicator), url.QueryEscape(country), yearFrom, yearTo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("indicator", indicator).Msg("provider call failed")
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", c.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Str("indicator", indicator).Msg("provider returned non-OK status")
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnavailable, c.name, resp.StatusCode)
	}

	var sr seriesResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", c.name, err)
	}

	series := make(Series, len(sr.Points))
	for _, p := range sr.Points {
		if p.Year < yearFrom || p.Year > yearTo {
			continue
		}
		series[p.Year] = p.Value
	}
	c.cache.put(key, series)
	return series, nil
}
