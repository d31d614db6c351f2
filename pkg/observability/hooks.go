// Package observability provides hooks for metrics and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers can register
// hooks at startup to receive events about sheet edits, workbook storage,
// and HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [Metrics] is the bundled implementation and records every event as an
// OpenTelemetry instrument.
//
// # Usage
//
// Register hooks at application startup:
//
//	m, err := observability.NewMetrics(otel.Meter("cellgraph"))
//	if err != nil {
//	    return err
//	}
//	observability.SetSheetHooks(m)
//	observability.SetStoreHooks(m)
//
// Libraries call hooks to emit events:
//
//	observability.Sheet().OnEdit(name, len(recalculated), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Sheet Hooks
// =============================================================================

// SheetHooks receives events from the recalculation engine. Sheet
// operations are synchronous and carry no context.
type SheetHooks interface {
	// OnEdit records a cell write. recalculated is the number of cells
	// recomputed, including the edited one.
	OnEdit(name string, recalculated int, duration time.Duration, err error)

	// OnEvalError records a formula that evaluated to an error value.
	OnEvalError(name, reason string)

	// OnCircular records an edit rejected because it formed a cycle.
	OnCircular(name string)

	// OnLoad records a bulk load of a workbook document.
	OnLoad(cells int, duration time.Duration, err error)

	// OnSave records a workbook being written out.
	OnSave(cells int, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from workbook storage backends.
type StoreHooks interface {
	OnGet(ctx context.Context, backend, name string, duration time.Duration, err error)
	OnPut(ctx context.Context, backend, name string, cells int, duration time.Duration, err error)
	OnDelete(ctx context.Context, backend, name string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnResponse records a served request. route is the matched route
	// pattern, not the raw path.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSheetHooks is a no-op implementation of SheetHooks.
type NoopSheetHooks struct{}

func (NoopSheetHooks) OnEdit(string, int, time.Duration, error) {}
func (NoopSheetHooks) OnEvalError(string, string)               {}
func (NoopSheetHooks) OnCircular(string)                        {}
func (NoopSheetHooks) OnLoad(int, time.Duration, error)         {}
func (NoopSheetHooks) OnSave(int, error)                        {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnGet(context.Context, string, string, time.Duration, error) {}
func (NoopStoreHooks) OnPut(context.Context, string, string, int, time.Duration, error) {
}
func (NoopStoreHooks) OnDelete(context.Context, string, string, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	sheetHooks SheetHooks = NoopSheetHooks{}
	storeHooks StoreHooks = NoopStoreHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetSheetHooks registers custom sheet hooks.
// This should be called once at application startup before any sheets are created.
func SetSheetHooks(h SheetHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sheetHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Sheet returns the registered sheet hooks.
func Sheet() SheetHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sheetHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	sheetHooks = NoopSheetHooks{}
	storeHooks = NoopStoreHooks{}
	httpHooks = NoopHTTPHooks{}
}
