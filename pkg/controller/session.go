package controller

import (
	"maps"
	"regexp"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/cellgraph/pkg/sheet"
)

// Session tracks the open workbook windows of one application run. Each
// window gets a controller with a random ID; when the last window closes,
// Done is closed.
//
// Session is safe for concurrent use. Individual controllers are not.
type Session struct {
	mu          sync.Mutex
	controllers map[string]*Controller
	newView     func() View
	pattern     *regexp.Regexp
	logger      *log.Logger
	done        chan struct{}
	doneOnce    sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithPattern sets the validity pattern for new and loaded sheets. A
// workbook file's own pattern still takes precedence. Defaults to
// [DefaultPattern].
func WithPattern(re *regexp.Regexp) Option {
	return func(s *Session) {
		if re != nil {
			s.pattern = re
		}
	}
}

// WithLogger sets the logger passed to controllers and sheets. Defaults to
// log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates a session that builds a view for each window with
// newView.
func NewSession(newView func() View, opts ...Option) *Session {
	s := &Session{
		controllers: make(map[string]*Controller),
		newView:     newView,
		pattern:     defaultPattern(),
		logger:      log.Default(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) sheetOptions() []sheet.Option {
	return []sheet.Option{sheet.WithPattern(s.pattern), sheet.WithLogger(s.logger)}
}

// New opens a window on an empty sheet.
func (s *Session) New() *Controller {
	return s.Open(sheet.New(s.sheetOptions()...), "")
}

// OpenFile loads the workbook at path and opens a window on it.
func (s *Session) OpenFile(path string) (*Controller, error) {
	sh, err := sheet.Open(path, s.sheetOptions()...)
	if err != nil {
		return nil, err
	}
	return s.Open(sh, path), nil
}

// Open opens a window on an existing sheet. path is where Save writes by
// default and may be empty.
func (s *Session) Open(sh *sheet.Sheet, path string) *Controller {
	c := &Controller{
		id:      uuid.NewString(),
		view:    s.newView(),
		sheet:   sh,
		path:    path,
		session: s,
		logger:  s.logger,
	}
	s.mu.Lock()
	s.controllers[c.id] = c
	n := len(s.controllers)
	s.mu.Unlock()

	s.logger.Debug("opened window", "window", c.id, "path", path, "open", n)
	c.start()
	return c
}

func (s *Session) remove(id string) {
	s.mu.Lock()
	delete(s.controllers, id)
	n := len(s.controllers)
	s.mu.Unlock()

	s.logger.Debug("closed window", "window", id, "open", n)
	if n == 0 {
		s.doneOnce.Do(func() { close(s.done) })
	}
}

// Get returns the controller with the given ID.
func (s *Session) Get(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.controllers[id]
	return c, ok
}

// Count returns the number of open windows.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.controllers)
}

// IDs returns the IDs of the open windows in sorted order.
func (s *Session) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.controllers))
}

// Done is closed when the last open window closes.
func (s *Session) Done() <-chan struct{} { return s.done }
