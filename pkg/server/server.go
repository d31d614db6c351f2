package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/cellgraph/pkg/cache"
	"github.com/matzehuels/cellgraph/pkg/cell"
	cgerrors "github.com/matzehuels/cellgraph/pkg/errors"
	pkgio "github.com/matzehuels/cellgraph/pkg/io"
	"github.com/matzehuels/cellgraph/pkg/observability"
	"github.com/matzehuels/cellgraph/pkg/render"
	"github.com/matzehuels/cellgraph/pkg/sheet"
	"github.com/matzehuels/cellgraph/pkg/store"
)

// Config configures a Server.
type Config struct {
	// Sheet is the workbook being served. Required.
	Sheet *sheet.Sheet

	// Store and Workbook enable POST /save, which writes the sheet to
	// Store under the name Workbook.
	Store    store.Store
	Workbook string

	// MaxBody limits request bodies. Defaults to 1 MiB.
	MaxBody int64

	// Cache holds rendered graphs for GET /graph.svg. Nil renders every
	// request.
	Cache cache.Cache

	Logger *log.Logger
}

// Server serves one sheet over HTTP. Requests that modify the sheet are
// serialized; reads run concurrently with each other.
type Server struct {
	mu       sync.RWMutex
	sheet    *sheet.Sheet
	store    store.Store
	workbook string
	maxBody  int64
	cache    cache.Cache
	logger   *log.Logger
}

// New creates a server for cfg.Sheet.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &Server{
		sheet:    cfg.Sheet,
		store:    cfg.Store,
		workbook: cfg.Workbook,
		maxBody:  maxBody,
		cache:    cfg.Cache,
		logger:   logger,
	}
}

// Handler returns the router with all routes and middleware wired.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Get("/cells", s.handleListCells)
	r.Get("/cells/{name}", s.handleGetCell)
	r.Put("/cells/{name}", s.handleSetCell)
	r.Delete("/cells/{name}", s.handleDeleteCell)
	r.Get("/graph.dot", s.handleGraphDOT)
	r.Get("/graph.svg", s.handleGraphSVG)
	r.Get("/document", s.handleDocument)
	r.Post("/save", s.handleSave)
	return r
}

// observe logs each request and reports it to the registered HTTP hooks,
// keyed by route pattern rather than raw path.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status,
			"duration", d, "request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Cells
// =============================================================================

// cellJSON is the wire form of one cell.
type cellJSON struct {
	Name       string   `json:"name"`
	Contents   string   `json:"contents"`
	Value      string   `json:"value"`
	Kind       string   `json:"kind"`
	Number     *float64 `json:"number,omitempty"`
	Dependees  []string `json:"dependees,omitempty"`
	Dependents []string `json:"dependents,omitempty"`
}

func valueKind(v cell.Value) string {
	switch v.(type) {
	case cell.Number:
		return "number"
	case cell.Error:
		return "error"
	}
	return "text"
}

// describe builds the wire form of name. The caller holds s.mu.
func (s *Server) describe(name string, links bool) (cellJSON, error) {
	contents, err := s.sheet.GetCellContents(name)
	if err != nil {
		return cellJSON{}, err
	}
	value, err := s.sheet.GetCellValue(name)
	if err != nil {
		return cellJSON{}, err
	}
	c := cellJSON{
		Name:     strings.ToUpper(name),
		Contents: cell.Serialize(contents),
		Value:    cell.Display(value),
		Kind:     valueKind(value),
	}
	if n, ok := value.(cell.Number); ok {
		f := float64(n)
		c.Number = &f
	}
	if links {
		if c.Dependees, err = s.sheet.DirectDependees(name); err != nil {
			return cellJSON{}, err
		}
		if c.Dependents, err = s.sheet.DirectDependents(name); err != nil {
			return cellJSON{}, err
		}
	}
	return c, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCells(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := s.sheet.GetNamesOfAllNonemptyCells()
	cells := make([]cellJSON, 0, len(names))
	for _, name := range names {
		c, err := s.describe(name, false)
		if err != nil {
			writeAPIError(w, err)
			return
		}
		cells = append(cells, c)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pattern": s.sheet.Pattern().String(),
		"changed": s.sheet.Changed(),
		"cells":   cells,
	})
}

func (s *Server) handleGetCell(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.describe(chi.URLParam(r, "name"), true)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, string(cgerrors.ErrCodeInvalidInput), "request body too large")
		return
	}
	s.update(w, chi.URLParam(r, "name"), string(body))
}

func (s *Server) handleDeleteCell(w http.ResponseWriter, r *http.Request) {
	s.update(w, chi.URLParam(r, "name"), "")
}

// update applies an edit and responds with every recalculated cell.
func (s *Server) update(w http.ResponseWriter, name, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	affected, err := s.sheet.SetContentsOfCell(name, content)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	cells := make([]cellJSON, 0, len(affected))
	for _, n := range affected {
		c, err := s.describe(n, false)
		if err != nil {
			writeAPIError(w, err)
			return
		}
		cells = append(cells, c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": cells})
}

// =============================================================================
// Graph and document
// =============================================================================

func (s *Server) graphDOT() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return render.SheetDOT(s.sheet, render.Options{Values: true})
}

func (s *Server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = io.WriteString(w, s.graphDOT())
}

func (s *Server) handleGraphSVG(w http.ResponseWriter, r *http.Request) {
	svg, err := render.CachedSVG(r.Context(), s.cache, s.graphDOT())
	if err != nil {
		s.logger.Error("render graph", "err", err)
		writeError(w, http.StatusInternalServerError, string(cgerrors.ErrCodeInternal), "failed to render graph")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

var contentTypes = map[pkgio.Format]string{
	pkgio.FormatXML:  "application/xml",
	pkgio.FormatJSON: "application/json",
	pkgio.FormatYAML: "application/yaml",
	pkgio.FormatTOML: "application/toml",
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	f := pkgio.FormatXML
	if q := r.URL.Query().Get("format"); q != "" {
		var err error
		if f, err = pkgio.ParseFormat(q); err != nil {
			writeAPIError(w, err)
			return
		}
	}

	s.mu.RLock()
	doc := s.sheet.Document()
	s.mu.RUnlock()

	var buf bytes.Buffer
	if err := pkgio.Write(doc, &buf, f); err != nil {
		writeAPIError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[f])
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.store == nil || s.workbook == "" {
		writeError(w, http.StatusNotImplemented, string(cgerrors.ErrCodeUnsupported), "no workbook store configured")
		return
	}
	s.mu.RLock()
	doc := s.sheet.Document()
	s.mu.RUnlock()

	if err := s.store.Put(r.Context(), s.workbook, doc); err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workbook": s.workbook, "cells": len(doc.Cells)})
}

// =============================================================================
// Responses
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: apiErrorBody{Code: code, Message: message}})
}

// writeAPIError maps err to a status code by its error code.
func writeAPIError(w http.ResponseWriter, err error) {
	code := cgerrors.GetCode(err)
	if errors.Is(err, store.ErrNotFound) {
		code = cgerrors.ErrCodeNotFound
	}
	if code == "" {
		code = cgerrors.ErrCodeInternal
	}
	writeError(w, statusFor(code), string(code), cgerrors.UserMessage(err))
}

func statusFor(code cgerrors.Code) int {
	switch code {
	case cgerrors.ErrCodeInvalidInput, cgerrors.ErrCodeInvalidName, cgerrors.ErrCodeInvalidArgument,
		cgerrors.ErrCodeInvalidFormula, cgerrors.ErrCodeInvalidPattern, cgerrors.ErrCodeInvalidFormat,
		cgerrors.ErrCodeInvalidPath, cgerrors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case cgerrors.ErrCodeCircular, cgerrors.ErrCodeDuplicateCell:
		return http.StatusConflict
	case cgerrors.ErrCodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
