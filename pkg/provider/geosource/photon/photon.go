// Package photon provides a geodata provider backed by a Komoot Photon
// reverse-geocoding server (https://photon.komoot.io).
//
// Photon returns GeoJSON features whose properties are flatter and sparser
// than raw OSM tags; the provider maps them into the same tag bag shape as
// the Overpass backend so the ranking pipeline is source-agnostic.
package photon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danif1973/tour-guide-mobile/pkg/provider/geosource"
	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// DefaultBaseURL is the public Photon instance.
const DefaultBaseURL = "https://photon.komoot.io"

// maxFeatures caps the feature count requested per query.
const maxFeatures = 50

// Compile-time assertion that Provider satisfies geosource.Provider.
var _ geosource.Provider = (*Provider)(nil)

// Provider implements geosource.Provider using the Photon reverse API.
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

// WithBaseURL overrides the default Photon endpoint, e.g. for a self-hosted
// instance.
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

// New constructs a new Photon Provider.
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
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Provider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Search implements geosource.Provider via Photon's /reverse endpoint.
// Photon expresses the radius in kilometers.
func (p *Provider) Search(ctx context.Context, center types.Location, radiusMeters float64) ([]types.Place, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(center.Lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(center.Lon, 'f', 6, 64))
	q.Set("radius", strconv.FormatFloat(radiusMeters/1000, 'f', 3, 64))
	q.Set("limit", strconv.Itoa(maxFeatures))

	reqURL := p.baseURL + "/reverse?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("photon: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("photon: execute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("photon: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("photon: decode response: %w", err)
	}

	places := make([]types.Place, 0, len(decoded.Features))
	for _, f := range decoded.Features {
		place, ok := f.toPlace()
		if !ok {
			continue
		}
		places = append(places, place)
	}
	return places, nil
}

// photonResponse is the subset of Photon's GeoJSON output we consume.
type photonResponse struct {
	Features []photonFeature `json:"features"`
}

type photonFeature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// osmTypeNames maps Photon's single-letter osm_type to the canonical
// element kind used for identifier derivation.
var osmTypeNames = map[string]string{
	"N": "node",
	"W": "way",
	"R": "relation",
}

// toPlace converts a GeoJSON feature into a Place. The osm_key/osm_value
// pair becomes a first-class tag (e.g. tourism=museum) so the promise
// scorer sees the same shape as Overpass output.
func (f photonFeature) toPlace() (types.Place, bool) {
	if len(f.Geometry.Coordinates) < 2 {
		return types.Place{}, false
	}
	lon, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	if lat == 0 && lon == 0 {
		return types.Place{}, false
	}

	place := types.Place{Lat: lat, Lon: lon, Tags: map[string]string{}}

	if v, ok := f.Properties["osm_id"].(float64); ok {
		place.OSMID = int64(v)
	}
	if v, ok := f.Properties["osm_type"].(string); ok {
		place.OSMType = osmTypeNames[v]
	}
	if key, ok := f.Properties["osm_key"].(string); ok {
		if value, ok := f.Properties["osm_value"].(string); ok && key != "" {
			place.Tags[key] = value
		}
	}

	// Carry the remaining string-valued properties as tags verbatim.
	for k, v := range f.Properties {
		switch k {
		case "osm_id", "osm_type", "osm_key", "osm_value":
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			place.Tags[k] = s
		}
	}

	return place, true
}
