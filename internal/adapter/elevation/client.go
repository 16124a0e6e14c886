package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/couchcryptid/storm-flood-risk/internal/observability"
)

// MaxBatch is the largest number of coordinates sent in one request.
const MaxBatch = 100

// Client implements domain.BatchElevationProvider using the Open-Meteo
// elevation API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an elevation API client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ElevationAt returns the elevation in metres at one coordinate.
func (c *Client) ElevationAt(ctx context.Context, lat, lon float64) (float64, error) {
	values, err := c.ElevationsAt(ctx, []domain.Coordinate{{Lat: lat, Lon: lon}})
	if err != nil {
		return 0, err
	}
	if math.IsNaN(values[0]) {
		return 0, domain.ErrNoData
	}
	return values[0], nil
}

// ElevationsAt resolves coordinates in chunks of MaxBatch. Entries without
// data are NaN.
func (c *Client) ElevationsAt(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
	out := make([]float64, 0, len(coords))
	for start := 0; start < len(coords); start += MaxBatch {
		end := min(start+MaxBatch, len(coords))
		values, err := c.fetch(ctx, coords[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, values...)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
	lats := make([]string, len(coords))
	lons := make([]string, len(coords))
	for i, co := range coords {
		lats[i] = strconv.FormatFloat(co.Lat, 'f', 6, 64)
		lons[i] = strconv.FormatFloat(co.Lon, 'f', 6, 64)
	}
	params := url.Values{
		"latitude":  {strings.Join(lats, ",")},
		"longitude": {strings.Join(lons, ",")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ElevationAPI.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderLookups.WithLabelValues("elevation", "error").Inc()
		return nil, fmt.Errorf("elevation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ProviderLookups.WithLabelValues("elevation", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevation API error: status %d: %s", resp.StatusCode, body)
	}

	var er response
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		c.metrics.ProviderLookups.WithLabelValues("elevation", "error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(er.Elevation) != len(coords) {
		c.metrics.ProviderLookups.WithLabelValues("elevation", "error").Inc()
		return nil, fmt.Errorf("elevation API returned %d values for %d coordinates", len(er.Elevation), len(coords))
	}

	values := make([]float64, len(coords))
	missing := 0
	for i, v := range er.Elevation {
		if v == nil {
			values[i] = math.NaN()
			missing++
			continue
		}
		values[i] = *v
	}
	c.metrics.ProviderLookups.WithLabelValues("elevation", "success").Add(float64(len(coords) - missing))
	if missing > 0 {
		c.metrics.ProviderLookups.WithLabelValues("elevation", "no_data").Add(float64(missing))
		c.logger.Debug("elevation gaps", "requested", len(coords), "missing", missing)
	}
	return values, nil
}

// Open-Meteo response. Null entries mark coordinates without data.
type response struct {
	Elevation []*float64 `json:"elevation"`
}
