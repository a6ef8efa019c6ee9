// internal/geocoding/opencage.go
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	engineerrors "compost-match-engine/internal/common/errors"
	chttp "compost-match-engine/internal/common/http"
	"compost-match-engine/internal/common/logger"
	"compost-match-engine/internal/common/metrics"

	"github.com/xeipuuv/gojsonschema"
)

// Config holds the provider settings. The credential is injected at
// construction; there is no ambient global state.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the OpenCage geocoding API. Both operations share the same
// endpoint: forward passes the address as the query, reverse passes
// "lat,lng".
type Client struct {
	config *Config
	client *chttp.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: chttp.NewClient(config.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "geocoding"}),
	}
}

// responseSchema guards field extraction: an upstream payload without a
// results array is malformed, not empty.
var responseSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"properties": {
		"results": {
			"type": "array",
			"items": {"type": "object"}
		}
	},
	"required": ["results"]
}`)

type apiResponse struct {
	Results []struct {
		Geometry *struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		// Component values are not uniformly strings: OpenCage returns
		// arrays for keys like ISO_3166-2, so decode loosely and extract
		// the string-valued keys tolerantly.
		Components map[string]interface{} `json:"components"`
		Formatted  string                 `json:"formatted"`
	} `json:"results"`
}

// component returns the string value for a components key, ignoring keys
// whose value is not a string.
func component(components map[string]interface{}, key string) string {
	if s, ok := components[key].(string); ok {
		return s
	}
	return ""
}

func (c *Client) Forward(ctx context.Context, address string) (*Coordinates, error) {
	if strings.TrimSpace(address) == "" {
		// No network call for empty input.
		return nil, ErrNotFound
	}

	payload, err := c.query(ctx, "forward", address)
	if err != nil {
		return nil, err
	}

	if len(payload.Results) == 0 {
		return nil, engineerrors.NewAddressNotFoundError(address).WithCause(ErrNotFound)
	}

	geom := payload.Results[0].Geometry
	if geom == nil {
		return nil, engineerrors.NewGeocodeMalformedResponseError("result missing geometry").WithCause(ErrProvider)
	}

	return &Coordinates{Latitude: geom.Lat, Longitude: geom.Lng}, nil
}

func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*PlaceDetails, error) {
	payload, err := c.query(ctx, "reverse", fmt.Sprintf("%f,%f", lat, lng))
	if err != nil {
		return nil, err
	}

	if len(payload.Results) == 0 {
		return nil, engineerrors.NewPlaceNotFoundError(lat, lng).WithCause(ErrNotFound)
	}

	result := payload.Results[0]
	components := result.Components

	// OpenCage reports the locality under city, town or village depending on
	// the place type.
	city := component(components, "city")
	if city == "" {
		city = component(components, "town")
	}
	if city == "" {
		city = component(components, "village")
	}

	return &PlaceDetails{
		City:      city,
		State:     component(components, "state"),
		Country:   component(components, "country"),
		Formatted: result.Formatted,
	}, nil
}

func (c *Client) query(ctx context.Context, operation, q string) (*apiResponse, error) {
	if c.config.APIKey == "" {
		return nil, engineerrors.NewGeocodeCredentialMissingError().WithCause(ErrProvider)
	}

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, engineerrors.NewGeocodeProviderError(err).WithCause(ErrProvider)
	}
	params := url.Values{}
	params.Add("q", q)
	params.Add("key", c.config.APIKey)
	params.Add("limit", "1")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, engineerrors.NewGeocodeProviderError(err).WithCause(ErrProvider)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.GeocodeDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues(operation, "error").Inc()
		if ctx.Err() == context.DeadlineExceeded ||
			strings.Contains(err.Error(), "timeout") ||
			strings.Contains(err.Error(), "deadline") ||
			strings.Contains(err.Error(), "Client.Timeout") {
			return nil, engineerrors.NewGeocodeTimeoutError().WithCause(ErrProvider)
		}
		return nil, engineerrors.NewGeocodeProviderError(err).WithCause(ErrProvider)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, engineerrors.NewGeocodeProviderError(
			fmt.Errorf("provider returned %d", resp.StatusCode)).WithCause(ErrProvider)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, engineerrors.NewGeocodeProviderError(err).WithCause(ErrProvider)
	}

	if err := c.validatePayload(body); err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, err
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, engineerrors.NewGeocodeMalformedResponseError(err.Error()).WithCause(ErrProvider)
	}

	metrics.GeocodeRequestsTotal.WithLabelValues(operation, "ok").Inc()
	return &payload, nil
}

func (c *Client) validatePayload(body []byte) error {
	result, err := gojsonschema.Validate(responseSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return engineerrors.NewGeocodeMalformedResponseError(err.Error()).WithCause(ErrProvider)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		c.logger.Warn("malformed provider payload", map[string]interface{}{
			"errors": errs,
		})
		return engineerrors.NewGeocodeMalformedResponseError(
			fmt.Sprintf("%v", errs)).WithCause(ErrProvider)
	}

	return nil
}
