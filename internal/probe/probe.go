package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/blissend/tempwatch/internal/config"
)

const defaultReadTimeout = 10 * time.Second

// ErrUnavailable wraps transient probe failures: connectivity errors, bad
// responses, missing metrics. The poll loop logs these, skips the tick, and
// continues; anything else escaping a probe is treated as fatal.
var ErrUnavailable = errors.New("probe unavailable")

// Reading is a single temperature measurement. Immutable once produced.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`

	// Site is the human-readable location name, when the source provides one.
	Site string `json:"site,omitempty"`
}

// Probe is a temperature source polled once per loop tick.
type Probe interface {
	Read(ctx context.Context) (Reading, error)
}

// Locator is implemented by probes whose site can be pinned from a US ZIP
// code at startup (currently only openweather).
type Locator interface {
	SetLocation(ctx context.Context, zip string) error
}

// New returns the Probe for the given configuration.
// The HTTP client is built once and reused across reads.
func New(cfg config.ProbeConfig) (Probe, error) {
	switch cfg.Type {
	case "openweather":
		client, err := buildHTTPClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("probe %q: build http client: %w", cfg.Type, err)
		}
		return newOpenWeather(cfg, client)
	case "promexp":
		client, err := buildHTTPClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("probe %q: build http client: %w", cfg.Type, err)
		}
		return newPromExp(cfg, client)
	case "synthetic":
		return newSynthetic(), nil
	default:
		return nil, fmt.Errorf("probe: unsupported type %q", cfg.Type)
	}
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.Header, t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the probe's auth and TLS settings.
func buildHTTPClient(cfg config.ProbeConfig) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	if cfg.Auth.Mode == "mtls" {
		cert, err := tls.LoadX509KeyPair(cfg.Auth.CertFile, cfg.Auth.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}

		if cfg.Auth.CAFile != "" {
			caPEM, err := os.ReadFile(cfg.Auth.CAFile)
			if err != nil {
				return nil, fmt.Errorf("read ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caPEM) {
				return nil, fmt.Errorf("no valid certs found in ca file %q", cfg.Auth.CAFile)
			}
			tlsCfg.RootCAs = pool
		}
	}

	transport := &authRoundTripper{
		base: &http.Transport{TLSClientConfig: tlsCfg},
		auth: cfg.Auth,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultReadTimeout,
	}, nil
}

// unavailable wraps err so callers can match it with errors.Is(err, ErrUnavailable).
func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}
