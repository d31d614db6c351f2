package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records engine, storage, and HTTP events as OpenTelemetry
// instruments. It implements SheetHooks, StoreHooks, and HTTPHooks.
type Metrics struct {
	edits        metric.Int64Counter
	editFailures metric.Int64Counter
	recalculated metric.Int64Counter
	editDuration metric.Float64Histogram
	evalErrors   metric.Int64Counter
	circular     metric.Int64Counter
	loads        metric.Int64Counter
	loadDuration metric.Float64Histogram
	saves        metric.Int64Counter

	storeOps      metric.Int64Counter
	storeDuration metric.Float64Histogram

	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
}

var (
	_ SheetHooks = (*Metrics)(nil)
	_ StoreHooks = (*Metrics)(nil)
	_ HTTPHooks  = (*Metrics)(nil)
)

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	counter := func(dst *metric.Int64Counter, name, desc string) {
		if err != nil {
			return
		}
		*dst, err = meter.Int64Counter(name, metric.WithDescription(desc))
	}
	histogram := func(dst *metric.Float64Histogram, name, desc string) {
		if err != nil {
			return
		}
		*dst, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	}

	counter(&m.edits, "cellgraph.sheet.edits", "Number of cell edits")
	counter(&m.editFailures, "cellgraph.sheet.edit_failures", "Number of rejected cell edits")
	counter(&m.recalculated, "cellgraph.sheet.recalculated", "Number of cells recomputed after edits")
	histogram(&m.editDuration, "cellgraph.sheet.edit.duration", "Duration of a cell edit including recalculation in seconds")
	counter(&m.evalErrors, "cellgraph.sheet.eval_errors", "Number of formulas that evaluated to an error")
	counter(&m.circular, "cellgraph.sheet.circular", "Number of edits rolled back because of a circular dependency")
	counter(&m.loads, "cellgraph.sheet.loads", "Number of workbook loads")
	histogram(&m.loadDuration, "cellgraph.sheet.load.duration", "Duration of workbook loads in seconds")
	counter(&m.saves, "cellgraph.sheet.saves", "Number of workbook saves")
	counter(&m.storeOps, "cellgraph.store.operations", "Number of workbook store operations")
	histogram(&m.storeDuration, "cellgraph.store.duration", "Duration of workbook store operations in seconds")
	counter(&m.requests, "cellgraph.http.requests", "Number of HTTP requests served")
	histogram(&m.requestDuration, "cellgraph.http.duration", "Duration of HTTP requests in seconds")
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func status(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "error")
	}
	return attribute.String("status", "ok")
}

// OnEdit implements SheetHooks.
func (m *Metrics) OnEdit(_ string, recalculated int, d time.Duration, err error) {
	ctx := context.Background()
	attrs := metric.WithAttributes(status(err))
	m.edits.Add(ctx, 1, attrs)
	m.editDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.editFailures.Add(ctx, 1)
		return
	}
	m.recalculated.Add(ctx, int64(recalculated))
}

// OnEvalError implements SheetHooks.
func (m *Metrics) OnEvalError(string, string) {
	m.evalErrors.Add(context.Background(), 1)
}

// OnCircular implements SheetHooks.
func (m *Metrics) OnCircular(string) {
	m.circular.Add(context.Background(), 1)
}

// OnLoad implements SheetHooks.
func (m *Metrics) OnLoad(_ int, d time.Duration, err error) {
	ctx := context.Background()
	attrs := metric.WithAttributes(status(err))
	m.loads.Add(ctx, 1, attrs)
	m.loadDuration.Record(ctx, d.Seconds(), attrs)
}

// OnSave implements SheetHooks.
func (m *Metrics) OnSave(_ int, err error) {
	m.saves.Add(context.Background(), 1, metric.WithAttributes(status(err)))
}

func (m *Metrics) storeOp(ctx context.Context, op, backend string, d time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("backend", backend),
		status(err),
	)
	m.storeOps.Add(ctx, 1, attrs)
	if d > 0 {
		m.storeDuration.Record(ctx, d.Seconds(), attrs)
	}
}

// OnGet implements StoreHooks.
func (m *Metrics) OnGet(ctx context.Context, backend, _ string, d time.Duration, err error) {
	m.storeOp(ctx, "get", backend, d, err)
}

// OnPut implements StoreHooks.
func (m *Metrics) OnPut(ctx context.Context, backend, _ string, _ int, d time.Duration, err error) {
	m.storeOp(ctx, "put", backend, d, err)
}

// OnDelete implements StoreHooks.
func (m *Metrics) OnDelete(ctx context.Context, backend, _ string, err error) {
	m.storeOp(ctx, "delete", backend, 0, err)
}

// OnResponse implements HTTPHooks.
func (m *Metrics) OnResponse(ctx context.Context, method, route string, code int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("code", strconv.Itoa(code)),
	)
	m.requests.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, d.Seconds(), attrs)
}
