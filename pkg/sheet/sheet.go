package sheet

import (
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellgraph/pkg/cell"
	"github.com/matzehuels/cellgraph/pkg/dag"
	"github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/formula"
	"github.com/matzehuels/cellgraph/pkg/observability"
)

// DefaultPattern accepts every grammatically valid cell name.
const DefaultPattern = "^.*$"

// Sheet is a dependency-consistent store of named cells.
//
// Every formula cell's dependees in the graph equal its formula's variables,
// no cycle ever survives a public operation, and every value reflects the
// current contents of the cells it refers to.
//
// The zero value is not usable - use New, Load, or Read to create a Sheet.
// Sheet is not safe for concurrent use without external synchronization.
type Sheet struct {
	cells   map[string]*cell.Cell
	graph   *dag.Graph
	pattern *regexp.Regexp
	changed bool

	logger *log.Logger
	hooks  observability.SheetHooks
}

// Option configures a Sheet.
type Option func(*Sheet)

// WithPattern sets the validity pattern that upper-cased cell names must
// match in addition to the cell-name grammar. A nil pattern is ignored.
func WithPattern(re *regexp.Regexp) Option {
	return func(s *Sheet) {
		if re != nil {
			s.pattern = re
		}
	}
}

// WithLogger sets the logger for debug output. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Sheet) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHooks sets the event hooks. Defaults to the globally registered
// [observability.Sheet] hooks at construction time.
func WithHooks(h observability.SheetHooks) Option {
	return func(s *Sheet) {
		if h != nil {
			s.hooks = h
		}
	}
}

var defaultPattern = regexp.MustCompile(DefaultPattern)

// New creates an empty sheet.
func New(opts ...Option) *Sheet {
	s := &Sheet{
		cells:   make(map[string]*cell.Cell),
		graph:   dag.New(),
		pattern: defaultPattern,
		logger:  log.Default(),
		hooks:   observability.Sheet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Names
// =============================================================================

// IsValidName reports whether name is a grammatically valid cell name whose
// upper-cased form matches the sheet's validity pattern.
func (s *Sheet) IsValidName(name string) bool {
	return errors.ValidateCellName(name) == nil && s.pattern.MatchString(strings.ToUpper(name))
}

func (s *Sheet) normalize(name string) (string, error) {
	if !s.IsValidName(name) {
		return "", errors.New(errors.ErrCodeInvalidName, "invalid cell name %q", name)
	}
	return strings.ToUpper(name), nil
}

// Pattern returns the sheet's validity pattern.
func (s *Sheet) Pattern() *regexp.Regexp { return s.pattern }

// =============================================================================
// Queries
// =============================================================================

// GetCellContents returns the contents of the named cell. Empty cells have
// contents cell.Text("").
func (s *Sheet) GetCellContents(name string) (cell.Contents, error) {
	key, err := s.normalize(name)
	if err != nil {
		return nil, err
	}
	if c, ok := s.cells[key]; ok {
		return c.Contents, nil
	}
	return cell.Text(""), nil
}

// GetCellValue returns the value of the named cell. Empty cells have value
// cell.Text("").
func (s *Sheet) GetCellValue(name string) (cell.Value, error) {
	key, err := s.normalize(name)
	if err != nil {
		return nil, err
	}
	if c, ok := s.cells[key]; ok {
		return c.Value, nil
	}
	return cell.Text(""), nil
}

// GetNamesOfAllNonemptyCells returns every non-empty cell name in grid
// order (see [CompareNames]).
func (s *Sheet) GetNamesOfAllNonemptyCells() []string {
	return slices.SortedFunc(maps.Keys(s.cells), CompareNames)
}

// Len returns the number of non-empty cells.
func (s *Sheet) Len() int { return len(s.cells) }

// DirectDependents returns the cells whose formulas refer to name directly,
// in grid order.
func (s *Sheet) DirectDependents(name string) ([]string, error) {
	key, err := s.normalize(name)
	if err != nil {
		return nil, err
	}
	deps := s.graph.Dependents(key)
	slices.SortFunc(deps, CompareNames)
	return deps, nil
}

// DirectDependees returns the cells that name's formula refers to, in grid
// order. Non-formula cells have none.
func (s *Sheet) DirectDependees(name string) ([]string, error) {
	key, err := s.normalize(name)
	if err != nil {
		return nil, err
	}
	deps := s.graph.Dependees(key)
	slices.SortFunc(deps, CompareNames)
	return deps, nil
}

// Graph returns a copy of the sheet's dependency graph.
func (s *Sheet) Graph() *dag.Graph { return s.graph.Clone() }

// Changed reports whether the sheet was modified since it was created,
// loaded, or last saved.
func (s *Sheet) Changed() bool { return s.changed }

// =============================================================================
// Edits
// =============================================================================

// SetContentsOfCell sets the contents of the named cell and recomputes every
// cell that depends on it, directly or indirectly.
//
// content is interpreted as:
//   - a number, if it parses as a finite floating-point number
//   - a formula, if it starts with "="; cell references are upper-cased and
//     must be valid cell names in this sheet
//   - text otherwise; empty text deletes the cell
//
// On success it returns the edited cell followed by all of its transitive
// dependents, in the order they were recomputed: every cell appears after
// the cells it depends on.
//
// Errors:
//   - INVALID_NAME if name is not a valid cell name
//   - INVALID_FORMULA if content starts with "=" and the rest is not a
//     valid formula
//   - CIRCULAR_DEPENDENCY if the new formula would make the cell depend on
//     itself; the sheet is left exactly as it was
//
// Formula evaluation failures are not errors; they are stored as cell.Error
// values.
func (s *Sheet) SetContentsOfCell(name, content string) ([]string, error) {
	start := time.Now()
	affected, err := s.set(name, content)
	s.hooks.OnEdit(name, len(affected), time.Since(start), err)
	return affected, err
}

func (s *Sheet) set(name, content string) ([]string, error) {
	key, err := s.normalize(name)
	if err != nil {
		return nil, err
	}
	contents, err := s.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", key, err)
	}
	order, err := s.setContents(key, contents)
	if err != nil {
		return nil, err
	}
	s.recalculate(order)
	s.changed = true
	s.logger.Debug("set cell", "cell", key, "contents", cell.Serialize(contents), "recalculated", len(order))
	return order, nil
}

// Parse classifies raw content the way [Sheet.SetContentsOfCell] does,
// without modifying the sheet.
func (s *Sheet) Parse(content string) (cell.Contents, error) {
	if n, ok := parseNumber(content); ok {
		return cell.Number(n), nil
	}
	if expr, ok := strings.CutPrefix(content, "="); ok {
		f, err := formula.New(expr, strings.ToUpper, s.IsValidName)
		if err != nil {
			return nil, err
		}
		return cell.Formula{Formula: f}, nil
	}
	return cell.Text(content), nil
}

// decimalRegex is the plain decimal notation accepted as numeric contents.
// strconv.ParseFloat alone would also take hex floats and digit separators.
var decimalRegex = regexp.MustCompile(`^[+-]?(?:\d+\.\d*|\d*\.\d+|\d+)(?:[eE][+-]?\d+)?$`)

// parseNumber reports whether content is a finite decimal number.
func parseNumber(content string) (float64, bool) {
	trimmed := strings.TrimSpace(content)
	if !decimalRegex.MatchString(trimmed) {
		return 0, false
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// setContents commits contents to key, rewires key's dependees, and returns
// the recalculation order. If the new dependees introduce a cycle the
// previous contents and dependees are restored.
func (s *Sheet) setContents(key string, contents cell.Contents) ([]string, error) {
	var previous cell.Contents = cell.Text("")
	if c, ok := s.cells[key]; ok {
		previous = c.Contents
	}

	if err := s.commit(key, contents); err != nil {
		return nil, err
	}
	order, err := s.graph.TopoFrom(key)
	if err == nil {
		return order, nil
	}

	if rerr := s.commit(key, previous); rerr != nil {
		return nil, rerr
	}
	s.hooks.OnCircular(key)
	s.logger.Debug("rolled back circular edit", "cell", key, "cycle", err)
	return nil, errors.Wrap(errors.ErrCodeCircular, err, "cell %s would depend on itself", key)
}

// commit stores contents without recomputing any value. Empty contents
// remove the cell.
func (s *Sheet) commit(key string, contents cell.Contents) error {
	switch {
	case cell.IsEmpty(contents):
		delete(s.cells, key)
	default:
		if c, ok := s.cells[key]; ok {
			c.Contents = contents
		} else {
			s.cells[key] = cell.New(key, contents)
		}
	}
	if err := s.graph.ReplaceDependees(key, cell.Variables(contents)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "update dependencies of %s", key)
	}
	return nil
}

func (s *Sheet) recalculate(order []string) {
	for _, name := range order {
		c, ok := s.cells[name]
		if !ok {
			continue
		}
		c.Recalculate(s.lookup)
		if e, ok := c.Value.(cell.Error); ok {
			s.hooks.OnEvalError(name, e.Reason)
		}
	}
}

// lookup resolves a formula variable to the numeric value of a cell.
func (s *Sheet) lookup(name string) (float64, error) {
	c, ok := s.cells[name]
	if !ok {
		return 0, fmt.Errorf("cell %s is empty", name)
	}
	switch v := c.Value.(type) {
	case cell.Number:
		return float64(v), nil
	case cell.Text:
		return 0, fmt.Errorf("cell %s holds text", name)
	case cell.Error:
		return 0, fmt.Errorf("cell %s has an error: %s", name, v.Reason)
	}
	return 0, fmt.Errorf("cell %s has no value", name)
}
