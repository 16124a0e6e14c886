package hydrology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/couchcryptid/storm-flood-risk/internal/observability"
)

// Client implements domain.HydrologyProvider against a JSON service that
// answers GET <base>?lon=..&lat=.. with the attributes at that point. A 404
// means the point lies outside the service's rasters.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a hydrology service client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// HydrologyAt returns the flow attributes at lon, lat.
func (c *Client) HydrologyAt(ctx context.Context, lon, lat float64) (domain.Hydrology, error) {
	h, err := c.fetch(ctx, lon, lat)
	switch {
	case errors.Is(err, domain.ErrNoData):
		c.metrics.ProviderLookups.WithLabelValues("hydrology", "no_data").Inc()
	case err != nil:
		c.metrics.ProviderLookups.WithLabelValues("hydrology", "error").Inc()
		c.logger.Debug("hydrology lookup failed", "lon", lon, "lat", lat, "error", err)
	default:
		c.metrics.ProviderLookups.WithLabelValues("hydrology", "success").Inc()
	}
	return h, err
}

func (c *Client) fetch(ctx context.Context, lon, lat float64) (domain.Hydrology, error) {
	params := url.Values{
		"lon": {strconv.FormatFloat(lon, 'f', 6, 64)},
		"lat": {strconv.FormatFloat(lat, 'f', 6, 64)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Hydrology{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Hydrology{}, fmt.Errorf("hydrology request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.Hydrology{}, domain.ErrNoData
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Hydrology{}, fmt.Errorf("hydrology API error: status %d: %s", resp.StatusCode, body)
	}

	var h domain.Hydrology
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return domain.Hydrology{}, fmt.Errorf("decode response: %w", err)
	}
	if !valid(h) {
		return domain.Hydrology{}, fmt.Errorf("hydrology API returned invalid attributes %+v", h)
	}
	return h, nil
}

func valid(h domain.Hydrology) bool {
	for _, v := range []float64{h.FlowAccumulation, h.Slope, h.FlowLength, h.DrainageArea} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
