package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blissend/tempwatch/internal/config"
)

func owmConfig(t *testing.T, endpoint string) config.ProbeConfig {
	t.Helper()
	t.Setenv("TEST_OWM_KEY", "secret-key")
	return config.ProbeConfig{
		Type:     "openweather",
		Endpoint: endpoint,
		KeyEnv:   "TEST_OWM_KEY",
		Units:    "imperial",
	}
}

func newOWM(t *testing.T, endpoint string) *openWeather {
	t.Helper()
	p, err := New(owmConfig(t, endpoint))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p.(*openWeather)
}

func TestOpenWeather_Read(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/weather" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("appid") != "secret-key" {
			t.Errorf("appid = %q, want key from env", q.Get("appid"))
		}
		if q.Get("units") != "imperial" {
			t.Errorf("units = %q", q.Get("units"))
		}
		fmt.Fprint(w, `{"main":{"temp":87.3},"name":"Ridgewood"}`)
	}))
	defer srv.Close()

	p := newOWM(t, srv.URL)
	r, err := p.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() = %v", err)
	}
	if r.Value != 87.3 {
		t.Errorf("Value = %v, want 87.3", r.Value)
	}
	if r.Unit != "F" {
		t.Errorf("Unit = %q, want F", r.Unit)
	}
	if r.Site != "Ridgewood" {
		t.Errorf("Site = %q, want Ridgewood", r.Site)
	}
	if r.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
}

func TestOpenWeather_BadStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newOWM(t, srv.URL)
	_, err := p.Read(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Read() = %v, want ErrUnavailable", err)
	}
}

func TestOpenWeather_ConnectionRefusedIsUnavailable(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := newOWM(t, url)
	_, err := p.Read(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Read() = %v, want ErrUnavailable", err)
	}
}

func TestOpenWeather_SetLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geo/1.0/zip":
			if got := r.URL.Query().Get("zip"); got != "10001,US" {
				t.Errorf("zip = %q, want 10001,US", got)
			}
			fmt.Fprint(w, `{"lat":40.75,"lon":-73.99,"name":"New York"}`)
		case "/data/2.5/weather":
			q := r.URL.Query()
			if q.Get("lat") != "40.75" || q.Get("lon") != "-73.99" {
				t.Errorf("coords = (%s, %s), want geocoded values", q.Get("lat"), q.Get("lon"))
			}
			fmt.Fprint(w, `{"main":{"temp":70},"name":"New York"}`)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := newOWM(t, srv.URL)
	if err := p.SetLocation(context.Background(), "10001"); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}
	if _, err := p.Read(context.Background()); err != nil {
		t.Fatalf("Read() = %v", err)
	}
}

func TestOpenWeather_RequiresKeyAndEndpoint(t *testing.T) {
	cfg := owmConfig(t, "http://example.test")

	missingKey := cfg
	missingKey.KeyEnv = "TEST_OWM_KEY_UNSET"
	if _, err := New(missingKey); err == nil {
		t.Error("missing api key accepted")
	}

	missingEndpoint := cfg
	missingEndpoint.Endpoint = ""
	if _, err := New(missingEndpoint); err == nil {
		t.Error("missing endpoint accepted")
	}
}
