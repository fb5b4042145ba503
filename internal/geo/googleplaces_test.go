package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestPlaces(t *testing.T, payload string) (*GooglePlaces, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q, want test-key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(payload)); err != nil {
			t.Errorf("failed to write payload: %v", err)
		}
	}))
	g, err := NewGooglePlaces(WithAPIKey("test-key"), WithBaseURL(srv.URL))
	if err != nil {
		srv.Close()
		t.Fatalf("NewGooglePlaces failed: %v", err)
	}
	return g, srv
}

func TestGooglePlacesSearchSingleResult(t *testing.T) {
	payload := `{
		"status": "OK",
		"results": [{
			"formatted_address": "123 Main St, Springfield, IL 62704, USA",
			"name": "Main Street Clinic",
			"geometry": {"location": {"lat": 39.8, "lng": -89.65}}
		}]
	}`
	g, srv := newTestPlaces(t, payload)
	defer srv.Close()

	candidates, err := g.Search(context.Background(), "main street clinic IL")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.Name != "Main Street Clinic" {
		t.Errorf("Name = %q", c.Name)
	}
	if c.Latitude != 39.8 || c.Longitude != -89.65 {
		t.Errorf("coordinates = (%v, %v), want (39.8, -89.65)", c.Latitude, c.Longitude)
	}
}

func TestGooglePlacesSearchZeroResults(t *testing.T) {
	g, srv := newTestPlaces(t, `{"status": "ZERO_RESULTS", "results": []}`)
	defer srv.Close()

	candidates, err := g.Search(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(candidates))
	}
}

func TestGooglePlacesSearchMultipleResults(t *testing.T) {
	payload := `{
		"status": "OK",
		"results": [
			{"formatted_address": "1 A St, Springfield, IL 62704, USA", "geometry": {"location": {"lat": 1, "lng": 2}}},
			{"formatted_address": "1 A St, Springfield, OH 45502, USA", "geometry": {"location": {"lat": 3, "lng": 4}}}
		]
	}`
	g, srv := newTestPlaces(t, payload)
	defer srv.Close()

	candidates, err := g.Search(context.Background(), "1 A St Springfield")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("got %d candidates, want 2", len(candidates))
	}
}

func TestGooglePlacesSearchAPIError(t *testing.T) {
	g, srv := newTestPlaces(t, `{"status": "REQUEST_DENIED"}`)
	defer srv.Close()

	if _, err := g.Search(context.Background(), "anything"); err == nil {
		t.Error("expected an error for a denied request")
	}
}

func TestNewGooglePlacesRequiresKey(t *testing.T) {
	if _, err := NewGooglePlaces(); err == nil {
		t.Error("expected an error without an API key")
	}
}
