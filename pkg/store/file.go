package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	pkgio "github.com/matzehuels/cellgraph/pkg/io"
)

const fileExt = ".xml"

// FileStore keeps each workbook as an XML record file in a directory.
// The files can be opened directly with sheet.Open.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store rooted at baseDir, creating the
// directory if needed. If baseDir is empty, defaults to
// ~/.local/share/cellgraph/workbooks.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "cellgraph", "workbooks")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create workbook dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) workbookPath(name string) string {
	return filepath.Join(s.baseDir, name+fileExt)
}

func (s *FileStore) Get(ctx context.Context, name string) (*pkgio.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.workbookPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name)
		}
		return nil, fmt.Errorf("read workbook file: %w", err)
	}
	return decode(name, data)
}

func (s *FileStore) Put(ctx context.Context, name string, doc *pkgio.Document) error {
	if err := checkName(name); err != nil {
		return err
	}
	enc, err := encode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to a sibling and rename so readers never see a partial file.
	path := s.workbookPath(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, enc.data, 0600); err != nil {
		return fmt.Errorf("write workbook file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write workbook file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.workbookPath(name)); err != nil {
		if os.IsNotExist(err) {
			return notFound(name)
		}
		return fmt.Errorf("remove workbook file: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read workbook dir: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), fileExt)
		if entry.IsDir() || !ok || checkName(name) != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read workbook file: %w", err)
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat workbook file: %w", err)
		}
		doc, err := decode(name, data)
		if err != nil {
			return nil, err
		}
		infos = append(infos, Info{
			Name:      name,
			Cells:     len(doc.Cells),
			Digest:    Digest(data),
			UpdatedAt: fi.ModTime().UTC(),
		})
	}
	slices.SortFunc(infos, byName)
	return infos, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding the workbook files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

func byName(a, b Info) int { return strings.Compare(a.Name, b.Name) }
