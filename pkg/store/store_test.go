package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	cgerrors "github.com/matzehuels/cellgraph/pkg/errors"
	pkgio "github.com/matzehuels/cellgraph/pkg/io"
	"github.com/matzehuels/cellgraph/pkg/observability"
)

func sampleDoc() *pkgio.Document {
	return &pkgio.Document{
		Pattern: "^[A-Z][1-9][0-9]?$",
		Cells: []pkgio.Record{
			{Name: "A1", Contents: "3"},
			{Name: "B1", Contents: "=A1*A1"},
			{Name: "C1", Contents: "a < b & c"},
		},
	}
}

// testStore runs the behaviour every backend must share.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	t.Cleanup(func() { s.Close() })

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("put and get", func(t *testing.T) {
		doc := sampleDoc()
		if err := s.Put(ctx, "budget", doc); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		got, err := s.Get(ctx, "budget")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if diff := cmp.Diff(doc, got); diff != "" {
			t.Errorf("Get() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("replace", func(t *testing.T) {
		doc := &pkgio.Document{Cells: []pkgio.Record{{Name: "A1", Contents: "42"}}}
		if err := s.Put(ctx, "budget", doc); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		got, err := s.Get(ctx, "budget")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if diff := cmp.Diff(doc, got); diff != "" {
			t.Errorf("Get() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("list", func(t *testing.T) {
		if err := s.Put(ctx, "accounts", sampleDoc()); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		infos, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		var names []string
		for _, info := range infos {
			names = append(names, info.Name)
		}
		if diff := cmp.Diff([]string{"accounts", "budget"}, names); diff != "" {
			t.Fatalf("List() names mismatch (-want +got):\n%s", diff)
		}
		if infos[0].Cells != 3 || infos[1].Cells != 1 {
			t.Errorf("List() cells = %d, %d, want 3, 1", infos[0].Cells, infos[1].Cells)
		}
		enc, err := encode(sampleDoc())
		if err != nil {
			t.Fatal(err)
		}
		if infos[0].Digest != enc.digest {
			t.Errorf("List() digest = %q, want %q", infos[0].Digest, enc.digest)
		}
		if infos[0].UpdatedAt.IsZero() {
			t.Error("List() UpdatedAt is zero")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := s.Delete(ctx, "budget"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Get(ctx, "budget"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, "budget"); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Delete() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		for _, name := range []string{"", "../etc", "a/b", ".hidden"} {
			if err := s.Put(ctx, name, sampleDoc()); !cgerrors.Is(err, cgerrors.ErrCodeInvalidInput) {
				t.Errorf("Put(%q) error = %v, want INVALID_INPUT", name, err)
			}
		}
	})

	t.Run("nil document", func(t *testing.T) {
		if err := s.Put(ctx, "empty", nil); !cgerrors.Is(err, cgerrors.ErrCodeInvalidArgument) {
			t.Errorf("Put(nil) error = %v, want INVALID_ARGUMENT", err)
		}
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if s.Path() != dir {
		t.Errorf("Path() = %q, want %q", s.Path(), dir)
	}
	testStore(t, s)
}

func TestFileStoreWritesRecordFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := s.Put(context.Background(), "book", sampleDoc()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	doc, err := pkgio.ImportFile(filepath.Join(dir, "book.xml"))
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if diff := cmp.Diff(sampleDoc(), doc); diff != "" {
		t.Errorf("file contents mismatch (-want +got):\n%s", diff)
	}

	// Stray files are not workbooks.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	infos, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "book" {
		t.Errorf("List() = %+v, want only book", infos)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStoreIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	doc := sampleDoc()
	if err := s.Put(ctx, "book", doc); err != nil {
		t.Fatal(err)
	}
	doc.Cells[0].Contents = "changed"
	got, err := s.Get(ctx, "book")
	if err != nil {
		t.Fatal(err)
	}
	if got.Cells[0].Contents != "3" {
		t.Errorf("stored contents = %q, want %q", got.Cells[0].Contents, "3")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "workbooks.sqlite"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	testStore(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workbooks.sqlite")
	ctx := context.Background()

	s1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := s1.Put(ctx, "book", sampleDoc()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()
	got, err := s2.Get(ctx, "book")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(sampleDoc(), got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStoreRequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore("  "); err == nil {
		t.Error("NewSQLiteStore(\"\") error = nil, want error")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CELLGRAPH_REDIS_ADDR")
	if addr == "" {
		t.Skip("CELLGRAPH_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	prefix := fmt.Sprintf("cellgraph:test:%d:", time.Now().UnixNano())
	t.Cleanup(func() {
		c := redis.NewClient(&redis.Options{Addr: addr})
		defer c.Close()
		keys, _ := c.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			c.Del(ctx, keys...)
		}
	})
	testStore(t, NewRedisStoreFromClient(client, prefix))
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("CELLGRAPH_MONGO_URI")
	if uri == "" {
		t.Skip("CELLGRAPH_MONGO_URI not set")
	}
	ctx := context.Background()
	db := fmt.Sprintf("cellgraph_test_%d", time.Now().UnixNano())
	s, err := NewMongoStore(ctx, uri, db)
	if err != nil {
		t.Fatalf("NewMongoStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.client.Database(db).Drop(ctx) })
	testStore(t, s)
}

type recordingStoreHooks struct {
	observability.NoopStoreHooks
	gets, puts, deletes []string
	errs                []error
}

func (h *recordingStoreHooks) OnGet(_ context.Context, backend, name string, _ time.Duration, err error) {
	h.gets = append(h.gets, backend+":"+name)
	h.errs = append(h.errs, err)
}

func (h *recordingStoreHooks) OnPut(_ context.Context, backend, name string, cells int, _ time.Duration, err error) {
	h.puts = append(h.puts, fmt.Sprintf("%s:%s:%d", backend, name, cells))
}

func (h *recordingStoreHooks) OnDelete(_ context.Context, backend, name string, err error) {
	h.deletes = append(h.deletes, backend+":"+name)
}

func TestInstrument(t *testing.T) {
	hooks := &recordingStoreHooks{}
	observability.SetStoreHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	s := Instrument(NewMemoryStore(), "memory", nil)
	if err := s.Put(ctx, "book", sampleDoc()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "book"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(other) error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "book"); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"memory:book:3"}, hooks.puts); diff != "" {
		t.Errorf("puts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"memory:book", "memory:other"}, hooks.gets); diff != "" {
		t.Errorf("gets mismatch (-want +got):\n%s", diff)
	}
	if hooks.errs[0] != nil || !errors.Is(hooks.errs[1], ErrNotFound) {
		t.Errorf("get errors = %v", hooks.errs)
	}
	if diff := cmp.Diff([]string{"memory:book"}, hooks.deletes); diff != "" {
		t.Errorf("deletes mismatch (-want +got):\n%s", diff)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("default is file", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(ctx, Config{Dir: dir}, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer s.Close()
		if err := s.Put(ctx, "book", sampleDoc()); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(filepath.Join(dir, "book.xml")); err != nil {
			t.Errorf("workbook file not written: %v", err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(ctx, Config{Backend: BackendSQLite, DSN: filepath.Join(t.TempDir(), "db.sqlite")}, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer s.Close()
		infos, err := s.List(ctx)
		if err != nil || len(infos) != 0 {
			t.Errorf("List() = %v, %v; want empty", infos, err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(ctx, Config{Backend: "floppy"}, nil)
		if !cgerrors.Is(err, cgerrors.ErrCodeUnsupported) {
			t.Errorf("Open() error = %v, want UNSUPPORTED", err)
		}
	})
}
