package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/cellgraph/pkg/cache"
	pkgio "github.com/matzehuels/cellgraph/pkg/io"
	"github.com/matzehuels/cellgraph/pkg/observability"
	"github.com/matzehuels/cellgraph/pkg/sheet"
	"github.com/matzehuels/cellgraph/pkg/store"
)

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, *sheet.Sheet) {
	t.Helper()
	if cfg.Sheet == nil {
		cfg.Sheet = sheet.New()
	}
	srv := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv, cfg.Sheet
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

type updateResponse struct {
	Updated []cellJSON `json:"updated"`
}

type errorResponse struct {
	Error apiErrorBody `json:"error"`
}

func TestSetCell(t *testing.T) {
	srv, sh := newTestServer(t, Config{})

	if resp, body := do(t, http.MethodPut, srv.URL+"/cells/A1", "3"); resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT A1 status = %d: %s", resp.StatusCode, body)
	}
	if resp, body := do(t, http.MethodPut, srv.URL+"/cells/b1", "=A1*2"); resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT B1 status = %d: %s", resp.StatusCode, body)
	}

	resp, body := do(t, http.MethodPut, srv.URL+"/cells/A1", "5")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT A1 status = %d: %s", resp.StatusCode, body)
	}
	var got updateResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	five, ten := 5.0, 10.0
	want := updateResponse{Updated: []cellJSON{
		{Name: "A1", Contents: "5", Value: "5", Kind: "number", Number: &five},
		{Name: "B1", Contents: "=A1*2", Value: "10", Kind: "number", Number: &ten},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PUT response mismatch (-want +got):\n%s", diff)
	}
	if sh.Len() != 2 {
		t.Errorf("sheet has %d cells, want 2", sh.Len())
	}
}

func TestSetCellErrors(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	do(t, http.MethodPut, srv.URL+"/cells/A1", "=B1")

	tests := []struct {
		name, path, body string
		status           int
		code             string
	}{
		{"invalid name", "/cells/1A", "1", http.StatusBadRequest, "INVALID_NAME"},
		{"invalid formula", "/cells/A2", "=1+", http.StatusBadRequest, "INVALID_FORMULA"},
		{"circular", "/cells/B1", "=A1", http.StatusConflict, "CIRCULAR_DEPENDENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPut, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var e errorResponse
			if err := json.Unmarshal(body, &e); err != nil {
				t.Fatal(err)
			}
			if e.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Error.Code, tt.code)
			}
		})
	}
}

func TestGetAndDeleteCell(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	do(t, http.MethodPut, srv.URL+"/cells/A1", "2")
	do(t, http.MethodPut, srv.URL+"/cells/B1", "=A1/0")
	do(t, http.MethodPut, srv.URL+"/cells/C1", "=A1+B1")

	resp, body := do(t, http.MethodGet, srv.URL+"/cells/b1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d: %s", resp.StatusCode, body)
	}
	var c cellJSON
	if err := json.Unmarshal(body, &c); err != nil {
		t.Fatal(err)
	}
	want := cellJSON{
		Name:       "B1",
		Contents:   "=A1/0",
		Value:      "#ERROR: division by zero",
		Kind:       "error",
		Dependees:  []string{"A1"},
		Dependents: []string{"C1"},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("GET mismatch (-want +got):\n%s", diff)
	}

	resp, body = do(t, http.MethodDelete, srv.URL+"/cells/B1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE status = %d: %s", resp.StatusCode, body)
	}
	var upd updateResponse
	if err := json.Unmarshal(body, &upd); err != nil {
		t.Fatal(err)
	}
	if len(upd.Updated) != 2 || upd.Updated[1].Name != "C1" || upd.Updated[1].Kind != "error" {
		t.Errorf("DELETE response = %+v, want B1 then C1 with an error", upd.Updated)
	}
}

func TestListCells(t *testing.T) {
	sh := sheet.New()
	for _, e := range [][2]string{{"B1", "x"}, {"A2", "1"}, {"A10", "2"}} {
		if _, err := sh.SetContentsOfCell(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	srv, _ := newTestServer(t, Config{Sheet: sh})

	_, body := do(t, http.MethodGet, srv.URL+"/cells", "")
	var got struct {
		Pattern string     `json:"pattern"`
		Changed bool       `json:"changed"`
		Cells   []cellJSON `json:"cells"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range got.Cells {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"A2", "A10", "B1"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if !got.Changed || got.Pattern != sheet.DefaultPattern {
		t.Errorf("changed = %v, pattern = %q", got.Changed, got.Pattern)
	}
}

func TestDocument(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	do(t, http.MethodPut, srv.URL+"/cells/A1", "1")

	resp, body := do(t, http.MethodGet, srv.URL+"/document", "")
	if ct := resp.Header.Get("Content-Type"); ct != "application/xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	doc, err := pkgio.Read(strings.NewReader(string(body)), pkgio.FormatXML)
	if err != nil {
		t.Fatalf("document is not valid XML: %v", err)
	}
	if len(doc.Cells) != 1 || doc.Cells[0] != (pkgio.Record{Name: "A1", Contents: "1"}) {
		t.Errorf("document cells = %+v", doc.Cells)
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/document?format=yaml", "")
	if ct := resp.Header.Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("yaml Content-Type = %q", ct)
	}
	resp, _ = do(t, http.MethodGet, srv.URL+"/document?format=csv", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", resp.StatusCode)
	}
}

func TestGraphDOT(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	do(t, http.MethodPut, srv.URL+"/cells/A1", "1")
	do(t, http.MethodPut, srv.URL+"/cells/B1", "=A1")

	resp, body := do(t, http.MethodGet, srv.URL+"/graph.dot", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"A1" -> "B1";`) {
		t.Errorf("graph.dot missing edge:\n%s", body)
	}
}

func TestSave(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	if resp, _ := do(t, http.MethodPost, srv.URL+"/save", ""); resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("save without store status = %d, want 501", resp.StatusCode)
	}

	st := store.NewMemoryStore()
	srv, _ = newTestServer(t, Config{Store: st, Workbook: "budget"})
	do(t, http.MethodPut, srv.URL+"/cells/A1", "7")
	if resp, body := do(t, http.MethodPost, srv.URL+"/save", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d: %s", resp.StatusCode, body)
	}
	doc, err := st.Get(context.Background(), "budget")
	if err != nil {
		t.Fatalf("store Get() error = %v", err)
	}
	if len(doc.Cells) != 1 || doc.Cells[0].Contents != "7" {
		t.Errorf("stored cells = %+v", doc.Cells)
	}
}

func TestConcurrentEdits(t *testing.T) {
	srv, sh := newTestServer(t, Config{})
	do(t, http.MethodPut, srv.URL+"/cells/A1", "0")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := sheet.CellName(1, i)
			resp, _ := do(t, http.MethodPut, srv.URL+"/cells/"+name, "=A1+1")
			if resp.StatusCode != http.StatusOK {
				t.Errorf("PUT %s status = %d", name, resp.StatusCode)
			}
			do(t, http.MethodGet, srv.URL+"/cells", "")
		}()
	}
	wg.Wait()
	if sh.Len() != 21 {
		t.Errorf("sheet has %d cells, want 21", sh.Len())
	}
}

type recordingHTTPHooks struct {
	mu     sync.Mutex
	routes []string
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route+" "+http.StatusText(status))
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	srv, _ := newTestServer(t, Config{})
	do(t, http.MethodPut, srv.URL+"/cells/A1", "1")
	do(t, http.MethodGet, srv.URL+"/cells/zz", "")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	want := []string{"PUT /cells/{name} OK", "GET /cells/{name} Bad Request"}
	if diff := cmp.Diff(want, hooks.routes); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphSVGCached(t *testing.T) {
	c := cache.NewMemoryCache(4)
	srv, sh := newTestServer(t, Config{Cache: c})
	if _, err := sh.SetContentsOfCell("B1", "=A1"); err != nil {
		t.Fatal(err)
	}

	resp, body := do(t, http.MethodGet, srv.URL+"/graph.svg", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "<svg") {
		t.Fatalf("GET /graph.svg = %d %.200s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if c.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", c.Len())
	}

	do(t, http.MethodGet, srv.URL+"/graph.svg", "")
	if c.Len() != 1 {
		t.Errorf("repeat request added entries: %d", c.Len())
	}
	if _, err := sh.SetContentsOfCell("C1", "=B1"); err != nil {
		t.Fatal(err)
	}
	do(t, http.MethodGet, srv.URL+"/graph.svg", "")
	if c.Len() != 2 {
		t.Errorf("changed graph cached %d entries, want 2", c.Len())
	}
}
