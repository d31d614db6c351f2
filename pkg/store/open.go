package store

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	cgerrors "github.com/matzehuels/cellgraph/pkg/errors"
	pkgio "github.com/matzehuels/cellgraph/pkg/io"
	"github.com/matzehuels/cellgraph/pkg/observability"
)

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists every backend name.
var Backends = []string{BackendFile, BackendMemory, BackendSQLite, BackendRedis, BackendMongo}

// Config selects and configures a backend. Only the fields of the chosen
// backend are consulted.
type Config struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	DSN       string `toml:"dsn"`
	RedisAddr string `toml:"redis_addr"`
	MongoURI  string `toml:"mongo_uri"`
	MongoDB   string `toml:"mongo_db"`
}

// Open builds the configured backend and wraps it with [Instrument]. An
// empty Backend selects the file store.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendFile
	}

	var (
		s   Store
		err error
	)
	switch backend {
	case BackendFile:
		s, err = NewFileStore(cfg.Dir)
	case BackendMemory:
		s = NewMemoryStore()
	case BackendSQLite:
		s, err = NewSQLiteStore(cfg.DSN)
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg.RedisAddr)
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, cgerrors.New(cgerrors.ErrCodeUnsupported, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, backend, logger), nil
}

// Instrument reports every call on s to the observability.StoreHooks
// registered at call time and logs it at debug level. A nil logger uses
// log.Default().
func Instrument(s Store, backend string, logger *log.Logger) Store {
	if logger == nil {
		logger = log.Default()
	}
	return &instrumented{Store: s, backend: backend, logger: logger}
}

type instrumented struct {
	Store
	backend string
	logger  *log.Logger
}

func (s *instrumented) Get(ctx context.Context, name string) (*pkgio.Document, error) {
	start := time.Now()
	doc, err := s.Store.Get(ctx, name)
	observability.Store().OnGet(ctx, s.backend, name, time.Since(start), err)
	s.logger.Debug("store get", "backend", s.backend, "workbook", name, "err", err)
	return doc, err
}

func (s *instrumented) Put(ctx context.Context, name string, doc *pkgio.Document) error {
	start := time.Now()
	err := s.Store.Put(ctx, name, doc)
	cells := 0
	if doc != nil {
		cells = len(doc.Cells)
	}
	observability.Store().OnPut(ctx, s.backend, name, cells, time.Since(start), err)
	s.logger.Debug("store put", "backend", s.backend, "workbook", name, "cells", cells, "err", err)
	return err
}

func (s *instrumented) Delete(ctx context.Context, name string) error {
	err := s.Store.Delete(ctx, name)
	observability.Store().OnDelete(ctx, s.backend, name, err)
	s.logger.Debug("store delete", "backend", s.backend, "workbook", name, "err", err)
	return err
}
