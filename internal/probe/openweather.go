package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/blissend/tempwatch/internal/config"
)

// openWeather reads the current outdoor temperature for a fixed coordinate
// from the OpenWeatherMap API. The coordinate defaults to the configured
// site and can be re-geocoded from a US ZIP code at startup.
type openWeather struct {
	base   string
	key    string
	units  string
	client *http.Client

	mu       sync.RWMutex
	lat, lon float64
}

func newOpenWeather(cfg config.ProbeConfig, client *http.Client) (*openWeather, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("openweather: endpoint is required (set probe.endpoint or OPENWEATHERMAP_URL)")
	}
	key := cfg.Key()
	if key == "" {
		return nil, fmt.Errorf("openweather: api key is required (set %s)", cfg.KeyEnv)
	}
	return &openWeather{
		base:   cfg.Endpoint,
		key:    key,
		units:  cfg.Units,
		client: client,
		lat:    config.DefaultLatitude,
		lon:    config.DefaultLongitude,
	}, nil
}

// Read fetches the current weather for the probe's coordinate.
func (o *openWeather) Read(ctx context.Context) (Reading, error) {
	o.mu.RLock()
	lat, lon := o.lat, o.lon
	o.mu.RUnlock()

	u := fmt.Sprintf("%s/data/2.5/weather?lat=%v&lon=%v&units=%s&appid=%s",
		o.base, lat, lon, o.units, o.key)

	var body struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Name string `json:"name"`
	}
	if err := o.getJSON(ctx, u, &body); err != nil {
		return Reading{}, err
	}

	return Reading{
		Timestamp: time.Now().UTC(),
		Value:     body.Main.Temp,
		Unit:      o.unit(),
		Site:      body.Name,
	}, nil
}

// SetLocation geocodes a US ZIP code and pins the probe to its coordinate.
// Called once at startup when a ZIP is configured; a failure here is fatal
// rather than transient, since the probe would otherwise silently monitor
// the wrong site.
func (o *openWeather) SetLocation(ctx context.Context, zip string) error {
	u := fmt.Sprintf("%s/geo/1.0/zip?zip=%s,US&appid=%s",
		o.base, url.QueryEscape(zip), o.key)

	var body struct {
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
		Name string  `json:"name"`
	}
	if err := o.getJSON(ctx, u, &body); err != nil {
		return fmt.Errorf("openweather: geocode zip %q: %w", zip, err)
	}

	o.mu.Lock()
	o.lat, o.lon = body.Lat, body.Lon
	o.mu.Unlock()
	return nil
}

func (o *openWeather) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("openweather: build request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return unavailable("openweather: http get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unavailable("openweather: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return unavailable("openweather: decode response: %v", err)
	}
	return nil
}

func (o *openWeather) unit() string {
	if o.units == "metric" {
		return "C"
	}
	return "F"
}
