// Package overpass provides a geodata provider backed by the OpenStreetMap
// Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danif1973/tour-guide-mobile/pkg/provider/geosource"
	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// DefaultBaseURL is the public Overpass API endpoint.
const DefaultBaseURL = "https://overpass-api.de/api/interpreter"

// tagClasses are the OSM tag keys queried for point-of-interest candidates.
// Each class is requested for both nodes and ways (ways carry a computed
// center).
var tagClasses = []string{"tourism", "historic", "heritage", "amenity", "place"}

// maxElements caps the element count requested per query. Overpass is a
// shared, rate-limited service; the ranking pipeline never needs more.
const maxElements = 50

// Compile-time assertion that Provider satisfies geosource.Provider.
var _ geosource.Provider = (*Provider)(nil)

// Provider implements geosource.Provider using the Overpass API.
type Provider struct {
	baseURL string
	client  *http.Client
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default Overpass endpoint, e.g. to point at a
// self-hosted instance.
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = u
	}
}

// WithTimeout sets a per-request HTTP timeout. Ignored when WithHTTPClient
// is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.client = hc
	}
}

// New constructs a new Overpass Provider.
func New(opts ...Option) *Provider {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := cfg.client
	if client == nil {
		timeout := cfg.timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Provider{baseURL: baseURL, client: client}
}

// Search implements geosource.Provider. It issues a single Overpass QL
// query covering all tag classes around the center point.
func (p *Provider) Search(ctx context.Context, center types.Location, radiusMeters float64) ([]types.Place, error) {
	query := buildQuery(center.Lat, center.Lon, radiusMeters)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("overpass: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass: execute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("overpass: decode response: %w", err)
	}

	places := make([]types.Place, 0, len(decoded.Elements))
	for _, el := range decoded.Elements {
		place, ok := el.toPlace()
		if !ok {
			continue
		}
		places = append(places, place)
	}
	return places, nil
}

// buildQuery assembles the Overpass QL statement for one around-query.
func buildQuery(lat, lon, radiusMeters float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:25];\n(\n")
	for _, class := range tagClasses {
		fmt.Fprintf(&b, "  node[%q](around:%.0f,%.6f,%.6f);\n", class, radiusMeters, lat, lon)
		fmt.Fprintf(&b, "  way[%q](around:%.0f,%.6f,%.6f);\n", class, radiusMeters, lat, lon)
	}
	fmt.Fprintf(&b, ");\nout center %d;\n", maxElements)
	return b.String()
}

// overpassResponse is the subset of the Overpass JSON output we consume.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// toPlace converts an element to a Place. Ways and relations use their
// computed center; elements without usable coordinates are skipped.
func (el overpassElement) toPlace() (types.Place, bool) {
	lat, lon := el.Lat, el.Lon
	if el.Center != nil {
		lat, lon = el.Center.Lat, el.Center.Lon
	}
	if lat == 0 && lon == 0 {
		return types.Place{}, false
	}
	tags := el.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	return types.Place{
		OSMType: el.Type,
		OSMID:   el.ID,
		Lat:     lat,
		Lon:     lon,
		Tags:    tags,
	}, true
}
