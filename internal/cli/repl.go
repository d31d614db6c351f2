package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/cell"
	"github.com/matzehuels/cellgraph/pkg/controller"
	"github.com/matzehuels/cellgraph/pkg/sheet"
)

const replHelp = `:g CELL goto · :d clear · :w [FILE] save · :wq save+close · :q close · :q! discard · :e FILE open · :n new · :bn/:bp switch`

// replCommand creates the repl command for interactive editing.
func (c *CLI) replCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl [file]",
		Short: "Edit workbooks interactively",
		Long: `Open an interactive spreadsheet shell. Arrow keys move the selection; typing a
line and pressing enter sets the selected cell. Lines starting with ":" are
commands (:help lists them). A missing file is created on first save.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			re, err := cfg.PatternRegexp()
			if err != nil {
				return err
			}
			m := newREPL(controller.WithPattern(re), controller.WithLogger(loggerFromContext(cmd.Context())))
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if err := m.open(path); err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// =============================================================================
// replWindow - controller.View for one workbook
// =============================================================================

// replWindow records what a controller shows. The model renders the
// active window.
type replWindow struct {
	ctrl *controller.Controller
	path string // save target for a file that does not exist yet

	name     string
	contents cell.Contents
	value    cell.Value
	values   map[string]cell.Value
	message  string

	saveOnClose bool
	wantsNew    bool
	closed      bool

	originCol, originRow int
}

var _ controller.View = (*replWindow)(nil)

func (w *replWindow) SetCurrentCell(name string, contents cell.Contents, value cell.Value) {
	w.name, w.contents, w.value = name, contents, value
}

func (w *replWindow) SetCellValue(name string, value cell.Value) { w.values[name] = value }
func (w *replWindow) ShowMessage(msg string)                      { w.message = msg }
func (w *replWindow) AskSave() bool                               { return w.saveOnClose }
func (w *replWindow) Close()                                      { w.closed = true }
func (w *replWindow) OpenNew()                                    { w.wantsNew = true }

func (w *replWindow) title() string {
	t := w.ctrl.Path()
	if t == "" {
		t = w.path
	}
	if t == "" {
		t = "untitled"
	} else {
		t = filepath.Base(t)
	}
	if w.ctrl.Sheet().Changed() {
		t += " *"
	}
	return t
}

// =============================================================================
// replModel - bubbletea model over a controller session
// =============================================================================

// replModel is the bubbletea model for the interactive shell.
type replModel struct {
	session *controller.Session
	windows []*replWindow
	active  int
	input   string

	rows, cols int
}

func newREPL(opts ...controller.Option) *replModel {
	m := &replModel{rows: 12, cols: 6}
	m.session = controller.NewSession(m.newWindow, opts...)
	return m
}

func (m *replModel) newWindow() controller.View {
	w := &replWindow{values: make(map[string]cell.Value)}
	m.windows = append(m.windows, w)
	m.active = len(m.windows) - 1
	return w
}

// adopt binds the controller just opened by the session to its window.
func (m *replModel) adopt(c *controller.Controller) *replWindow {
	w := m.windows[len(m.windows)-1]
	w.ctrl = c
	return w
}

func (m *replModel) current() *replWindow { return m.windows[m.active] }

// open opens a window on path. An empty path or a file that does not
// exist yet opens an empty sheet.
func (m *replModel) open(path string) error {
	if path == "" {
		m.adopt(m.session.New())
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		m.adopt(m.session.New()).path = path
		return nil
	}
	c, err := m.session.OpenFile(path)
	if err != nil {
		return err
	}
	m.adopt(c)
	return nil
}

func (m *replModel) Init() tea.Cmd {
	return nil
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input
			m.input = ""
			return m, m.exec(line)
		case tea.KeyBackspace:
			if r := []rune(m.input); len(r) > 0 {
				m.input = string(r[:len(r)-1])
			}
		case tea.KeyEsc:
			m.input = ""
		case tea.KeyUp:
			m.move(0, -1)
		case tea.KeyDown:
			m.move(0, 1)
		case tea.KeyLeft:
			m.move(-1, 0)
		case tea.KeyRight, tea.KeyTab:
			m.move(1, 0)
		case tea.KeySpace:
			m.input += " "
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		}
	case tea.WindowSizeMsg:
		m.rows = max(3, msg.Height-12)
		m.cols = max(2, (msg.Width-8)/14)
	}
	return m, nil
}

// exec runs one input line against the active window.
func (m *replModel) exec(line string) tea.Cmd {
	w := m.current()
	w.message = ""
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, ":") {
		if err := w.ctrl.Edit(w.ctrl.Current(), line); err == nil {
			m.move(0, 1)
		}
		return nil
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "g", "goto":
		_ = w.ctrl.Select(arg)
	case "d", "del":
		_ = w.ctrl.Edit(w.ctrl.Current(), "")
	case "w":
		_ = m.save(w, arg)
	case "wq":
		if w.ctrl.Sheet().Changed() || arg != "" {
			if err := m.save(w, arg); err != nil {
				return nil
			}
		}
		return m.close(w)
	case "q":
		if w.ctrl.Sheet().Changed() {
			w.message = "unsaved changes (:wq saves, :q! discards)"
			return nil
		}
		return m.close(w)
	case "q!":
		w.saveOnClose = false
		return m.close(w)
	case "e", "o":
		if next, err := w.ctrl.Open(arg); err == nil {
			m.adopt(next)
		}
	case "n", "new":
		w.ctrl.New()
		if w.wantsNew {
			w.wantsNew = false
			m.adopt(m.session.New())
		}
	case "bn":
		m.active = (m.active + 1) % len(m.windows)
	case "bp":
		m.active = (m.active + len(m.windows) - 1) % len(m.windows)
	case "help", "h":
		w.message = replHelp
	default:
		w.message = fmt.Sprintf("unknown command :%s (:help lists commands)", name)
	}
	return nil
}

func (m *replModel) save(w *replWindow, path string) error {
	if path == "" && w.ctrl.Path() == "" {
		path = w.path
	}
	if err := w.ctrl.Save(path); err != nil {
		return err
	}
	w.message = "saved " + w.ctrl.Path()
	return nil
}

// close closes w and quits once the session has no windows left.
func (m *replModel) close(w *replWindow) tea.Cmd {
	if err := w.ctrl.Close(); err != nil {
		return nil
	}
	m.windows = slices.DeleteFunc(m.windows, func(x *replWindow) bool { return x == w })
	select {
	case <-m.session.Done():
		return tea.Quit
	default:
	}
	m.active = min(m.active, len(m.windows)-1)
	return nil
}

// move shifts the selection, ignoring moves off the grid.
func (m *replModel) move(dc, dr int) {
	w := m.current()
	col, row, ok := sheet.Coordinates(w.ctrl.Current())
	if !ok || col+dc < 0 || row+dr < 0 {
		return
	}
	name := sheet.CellName(col+dc, row+dr)
	if w.ctrl.Sheet().IsValidName(name) {
		_ = w.ctrl.Select(name)
	}
}

// =============================================================================
// Rendering
// =============================================================================

var (
	replCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(colorCyan)
	replLabelStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

func (m *replModel) View() string {
	if len(m.windows) == 0 {
		return ""
	}
	w := m.current()
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s  [%d/%d]", w.title(), m.active+1, len(m.windows))))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓/←/→ move  ⏎ set cell  :help commands  ctrl+c quit"))
	b.WriteString("\n\n")
	b.WriteString(m.grid(w))
	b.WriteString("\n")

	line := StyleHighlight.Render(w.name) + " "
	if _, ok := w.contents.(cell.Formula); ok {
		line += StyleDim.Render(cell.Serialize(w.contents)+" "+iconArrow) + " "
	}
	b.WriteString(line + renderValue(w.value))
	if w.message != "" {
		b.WriteString("\n" + StyleWarning.Render(w.message))
	}
	b.WriteString("\n" + StyleHighlight.Render("> ") + m.input)
	return b.String()
}

// grid renders the visible part of the sheet, scrolled so the current
// cell is in view.
func (m *replModel) grid(w *replWindow) string {
	col, row, _ := sheet.Coordinates(w.name)
	w.originCol = scroll(w.originCol, col, m.cols)
	w.originRow = scroll(w.originRow, row, m.rows)

	headers := []string{""}
	for c := range m.cols {
		headers = append(headers, sheet.ColumnName(w.originCol+c))
	}
	rows := make([][]string, m.rows)
	for r := range m.rows {
		rows[r] = []string{fmt.Sprint(w.originRow + r + 1)}
		for c := range m.cols {
			v := w.values[sheet.CellName(w.originCol+c, w.originRow+r)]
			s := ""
			if v != nil {
				s = cell.Display(v)
			}
			if rs := []rune(s); len(rs) > 12 {
				s = string(rs[:11]) + "…"
			}
			rows[r] = append(rows[r], s)
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(r, c int) lipgloss.Style {
			base := lipgloss.NewStyle().Width(12)
			if c == 0 {
				return replLabelStyle.Width(4)
			}
			if r == table.HeaderRow {
				return replLabelStyle.Width(12)
			}
			if w.originRow+r == row && w.originCol+c-1 == col {
				return replCursorStyle.Width(12)
			}
			switch w.values[sheet.CellName(w.originCol+c-1, w.originRow+r)].(type) {
			case cell.Number:
				return base.Foreground(colorCyan)
			case cell.Error:
				return base.Foreground(colorRed)
			}
			return base
		}).
		Render()
}

// scroll moves origin the least distance that keeps pos within size.
func scroll(origin, pos, size int) int {
	switch {
	case pos < origin:
		return pos
	case pos >= origin+size:
		return pos - size + 1
	}
	return origin
}
