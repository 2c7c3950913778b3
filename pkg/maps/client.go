package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/medovik-lab/honeybot-backend/pkg/errors"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

	autocompleteLimit = 3
	countryFilter     = "Россия"
)

var errTokenRequired = errors.New("mapbox access token is required")

// Client wraps the Mapbox forward-geocoding API used for delivery addresses.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Mapbox base URL (tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a Mapbox client given an access token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errTokenRequired
	}
	client := &Client{
		token:      trimmed,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Suggestion is one autocomplete candidate shown to the user.
type Suggestion struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

type feature struct {
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"`
}

type geocodeResponse struct {
	Features []feature `json:"features"`
}

// Geocode resolves a full address to coordinates. Returns CodeNotFound when
// Mapbox has no match.
func (c *Client) Geocode(ctx context.Context, address string) (Coordinates, error) {
	features, err := c.query(ctx, address, 1, false)
	if err != nil {
		return Coordinates{}, err
	}
	if len(features) == 0 || len(features[0].Center) < 2 {
		return Coordinates{}, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return Coordinates{Lat: features[0].Center[1], Lon: features[0].Center[0]}, nil
}

// Autocomplete returns up to three Russia-scoped address suggestions.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	features, err := c.query(ctx, query, autocompleteLimit, true)
	if err != nil {
		return nil, err
	}
	suggestions := make([]Suggestion, 0, len(features))
	for _, f := range features {
		if !strings.HasPrefix(f.PlaceName, countryFilter) || len(f.Center) < 2 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Label: f.PlaceName,
			Lat:   f.Center[1],
			Lon:   f.Center[0],
		})
	}
	return suggestions, nil
}

func (c *Client) query(ctx context.Context, text string, limit int, autocomplete bool) ([]feature, error) {
	if strings.TrimSpace(text) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query text is required")
	}

	endpoint := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(text))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build geocoding request")
	}

	q := req.URL.Query()
	q.Set("access_token", c.token)
	q.Set("autocomplete", strconv.FormatBool(autocomplete))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("language", "ru")
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call mapbox")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("mapbox returned status %d", resp.StatusCode))
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode mapbox response")
	}
	return payload.Features, nil
}
