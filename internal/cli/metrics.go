package cli

import (
	"context"
	"fmt"
	"slices"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/matzehuels/cellgraph/pkg/observability"
)

// meterName scopes the instruments created by the CLI.
const meterName = "github.com/matzehuels/cellgraph"

// metricsRecorder collects engine, store, and HTTP metrics in process so a
// long-running command can report totals when it exits.
type metricsRecorder struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// installMetrics registers OpenTelemetry-backed hooks for every event
// source. Sheets pick up hooks at construction, so call it before loading.
func installMetrics() (*metricsRecorder, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := observability.NewMetrics(provider.Meter(meterName))
	if err != nil {
		return nil, err
	}
	observability.SetSheetHooks(m)
	observability.SetStoreHooks(m)
	observability.SetHTTPHooks(m)
	return &metricsRecorder{reader: reader, provider: provider}, nil
}

// summary returns one "name value" line per instrument with data, sorted
// by name. Counters report their total and histograms their count.
func (r *metricsRecorder) summary(ctx context.Context) ([]string, error) {
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				lines = append(lines, fmt.Sprintf("%s %d", m.Name, total))
			case metricdata.Histogram[float64]:
				var count uint64
				for _, dp := range data.DataPoints {
					count += dp.Count
				}
				lines = append(lines, fmt.Sprintf("%s %d", m.Name, count))
			}
		}
	}
	slices.Sort(lines)
	return lines, nil
}

// close shuts the provider down and restores no-op hooks.
func (r *metricsRecorder) close(ctx context.Context) error {
	observability.Reset()
	return r.provider.Shutdown(ctx)
}
