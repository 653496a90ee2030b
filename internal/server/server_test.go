package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

type fakeEngine struct {
	triggered bool
	summaries []string
	hasNew    bool

	fixes       []types.Location
	destination *types.Location
	cleared     bool
}

func (e *fakeEngine) OnLocation(fix types.Location) bool {
	e.fixes = append(e.fixes, fix)
	return e.triggered
}

func (e *fakeEngine) Content() ([]string, bool) {
	if !e.hasNew {
		return nil, false
	}
	e.hasNew = false
	return e.summaries, true
}

func (e *fakeEngine) SetDestination(loc types.Location) { e.destination = &loc }
func (e *fakeEngine) ClearDestination()                 { e.cleared = true }

func newTestMux(e Engine) *http.ServeMux {
	mux := http.NewServeMux()
	New(e).Register(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleLocation(t *testing.T) {
	engine := &fakeEngine{triggered: true}
	mux := newTestMux(engine)

	rec := do(t, mux, "POST", "/v1/location",
		`{"lat": 48.85, "lon": 2.29, "speed_kmh": 60, "heading_deg": 90}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	var body map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if !body["triggered"] {
		t.Error("triggered = false, want true")
	}

	if len(engine.fixes) != 1 {
		t.Fatalf("engine received %d fixes, want 1", len(engine.fixes))
	}
	fix := engine.fixes[0]
	if fix.Lat != 48.85 || fix.Lon != 2.29 || fix.SpeedKmh != 60 || fix.HeadingDeg != 90 {
		t.Errorf("fix = %+v, want the posted values", fix)
	}
}

func TestHandleLocation_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{{`},
		{"lat out of range", `{"lat": 91, "lon": 0}`},
		{"lon out of range", `{"lat": 0, "lon": -181}`},
		{"negative speed", `{"lat": 0, "lon": 0, "speed_kmh": -5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			rec := do(t, newTestMux(engine), "POST", "/v1/location", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if len(engine.fixes) != 0 {
				t.Error("invalid request reached the engine")
			}
		})
	}
}

func TestHandleContent(t *testing.T) {
	engine := &fakeEngine{
		summaries: []string{"The abbey has stood here since 1130."},
		hasNew:    true,
	}
	mux := newTestMux(engine)

	rec := do(t, mux, "GET", "/v1/content", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body struct {
		Status    string   `json:"status"`
		Summaries []string `json:"summaries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if body.Status != "ready" || len(body.Summaries) != 1 {
		t.Errorf("body = %+v, want ready with one summary", body)
	}

	// Second poll: content consumed, nothing new.
	rec = do(t, mux, "GET", "/v1/content", "")
	body.Status, body.Summaries = "", nil
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if body.Status != "none" || len(body.Summaries) != 0 {
		t.Errorf("second poll body = %+v, want none", body)
	}
}

func TestHandleDestination(t *testing.T) {
	engine := &fakeEngine{}
	mux := newTestMux(engine)

	rec := do(t, mux, "PUT", "/v1/destination", `{"lat": 48.5, "lon": 2.5}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if engine.destination == nil || engine.destination.Lat != 48.5 {
		t.Errorf("destination = %+v, want lat 48.5", engine.destination)
	}

	rec = do(t, mux, "DELETE", "/v1/destination", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if !engine.cleared {
		t.Error("ClearDestination was not called")
	}
}

func TestHandleDestination_Invalid(t *testing.T) {
	engine := &fakeEngine{}
	rec := do(t, newTestMux(engine), "PUT", "/v1/destination", `{"lat": 95, "lon": 0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if engine.destination != nil {
		t.Error("invalid destination reached the engine")
	}
}
