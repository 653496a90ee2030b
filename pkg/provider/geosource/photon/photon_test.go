package photon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

const sampleResponse = `{
  "features": [
    {
      "geometry": {"coordinates": [2.2945, 48.8584]},
      "properties": {
        "osm_id": 123,
        "osm_type": "N",
        "osm_key": "tourism",
        "osm_value": "attraction",
        "name": "Tour Eiffel",
        "city": "Paris",
        "extent_ignored": 42
      }
    },
    {
      "geometry": {"coordinates": []},
      "properties": {"name": "no geometry"}
    }
  ]
}`

func TestSearch(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	p := New(WithBaseURL(srv.URL))
	places, err := p.Search(context.Background(), types.Location{Lat: 48.8584, Lon: 2.2945}, 1500)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/reverse" {
		t.Errorf("path = %q, want /reverse", gotPath)
	}
	// Radius is expressed in kilometers.
	req := httptest.NewRequest("GET", "/?"+gotQuery, nil)
	q := req.URL.Query()
	if q.Get("lat") != "48.858400" || q.Get("lon") != "2.294500" {
		t.Errorf("lat/lon = %s/%s", q.Get("lat"), q.Get("lon"))
	}
	if q.Get("radius") != "1.500" {
		t.Errorf("radius = %q, want 1.500 km", q.Get("radius"))
	}
	if q.Get("limit") != "50" {
		t.Errorf("limit = %q, want 50", q.Get("limit"))
	}

	if len(places) != 1 {
		t.Fatalf("Search() returned %d places, want 1", len(places))
	}
	got := places[0]
	if got.OSMType != "node" || got.OSMID != 123 {
		t.Errorf("identifier = %s/%d, want node/123", got.OSMType, got.OSMID)
	}
	if got.Lat != 48.8584 || got.Lon != 2.2945 {
		t.Errorf("coords = (%v, %v)", got.Lat, got.Lon)
	}
	// osm_key/osm_value becomes a first-class tag; string properties carry
	// over; non-strings are dropped.
	if got.Tags["tourism"] != "attraction" {
		t.Errorf("tourism tag = %q, want attraction", got.Tags["tourism"])
	}
	if got.Tags["name"] != "Tour Eiffel" || got.Tags["city"] != "Paris" {
		t.Errorf("tags = %v", got.Tags)
	}
	if _, ok := got.Tags["extent_ignored"]; ok {
		t.Error("non-string property leaked into tags")
	}
}

func TestSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := New(WithBaseURL(srv.URL))
	if _, err := p.Search(context.Background(), types.Location{Lat: 48, Lon: 2}, 500); err == nil {
		t.Fatal("Search() on 502 returned nil error")
	}
}

func TestToPlace_UnknownOSMType(t *testing.T) {
	f := photonFeature{}
	f.Geometry.Coordinates = []float64{2.0, 48.0}
	f.Properties = map[string]any{"osm_type": "X", "name": "mystery"}

	place, ok := f.toPlace()
	if !ok {
		t.Fatal("toPlace() rejected a feature with coordinates")
	}
	if place.OSMType != "" {
		t.Errorf("OSMType = %q, want empty for unknown letter", place.OSMType)
	}
}
