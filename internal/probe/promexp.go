package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/blissend/tempwatch/internal/config"
)

// promExp scrapes a Prometheus text exposition endpoint (typically a node
// exporter inside the data center) and reports the mean of one gauge family,
// e.g. node_hwmon_temp_celsius averaged across all thermal sensors.
type promExp struct {
	endpoint string
	metric   string
	client   *http.Client
}

func newPromExp(cfg config.ProbeConfig, client *http.Client) (*promExp, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("promexp: endpoint is required")
	}
	if cfg.Metric == "" {
		return nil, fmt.Errorf("promexp: metric is required")
	}
	return &promExp{
		endpoint: cfg.Endpoint,
		metric:   cfg.Metric,
		client:   client,
	}, nil
}

// Read fetches the exposition and averages the configured gauge family.
func (p *promExp) Read(ctx context.Context) (Reading, error) {
	mfs, err := fetchMetrics(ctx, p.client, p.endpoint)
	if err != nil {
		return Reading{}, err
	}

	mf, ok := mfs[p.metric]
	if !ok {
		return Reading{}, unavailable("promexp: metric %q not found in exposition", p.metric)
	}
	value, n := meanFamily(mf)
	if n == 0 {
		return Reading{}, unavailable("promexp: metric %q has no samples", p.metric)
	}

	return Reading{
		Timestamp: time.Now().UTC(),
		Value:     value,
		Unit:      "C",
	}, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("promexp: build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, unavailable("promexp: http get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("promexp: unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, unavailable("promexp: parse exposition: %v", err)
	}
	// Non-empty result with a non-nil err means partial parse (trailing lines,
	// format warnings). Treat as success.
	return mfs, nil
}

// meanFamily averages all gauge, counter, or untyped values in a MetricFamily.
// Returns the mean and the sample count; (0, 0) if mf is nil or empty.
func meanFamily(mf *dto.MetricFamily) (float64, int) {
	if mf == nil {
		return 0, 0
	}
	var total float64
	var n int
	for _, m := range mf.GetMetric() {
		switch {
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
			n++
		case m.Counter != nil:
			total += m.Counter.GetValue()
			n++
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return total / float64(n), n
}
