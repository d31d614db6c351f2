package controller

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellgraph/pkg/cell"
	"github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/sheet"
)

// DefaultPattern limits new sheets to a 26 by 99 grid, A1 through Z99.
const DefaultPattern = "^[A-Za-z][1-9][0-9]?$"

// View is the presentation side of a workbook window. Controllers call it
// synchronously; implementations must not call back into the controller
// from these methods.
type View interface {
	// SetCurrentCell shows the selected cell's name, contents, and value.
	SetCurrentCell(name string, contents cell.Contents, value cell.Value)

	// SetCellValue updates the displayed value of one cell.
	SetCellValue(name string, value cell.Value)

	// ShowMessage reports an error or notice to the user.
	ShowMessage(msg string)

	// AskSave asks whether unsaved changes should be saved before the
	// window closes.
	AskSave() bool

	// Close closes the window.
	Close()

	// OpenNew asks for a new, empty workbook window.
	OpenNew()
}

// Controller connects one sheet to one view.
type Controller struct {
	id      string
	view    View
	sheet   *sheet.Sheet
	path    string
	current string
	session *Session
	logger  *log.Logger
}

// ID returns the controller's session identifier.
func (c *Controller) ID() string { return c.id }

// Sheet returns the controlled sheet.
func (c *Controller) Sheet() *sheet.Sheet { return c.sheet }

// Path returns the file the sheet was opened from or last saved to.
func (c *Controller) Path() string { return c.path }

// Current returns the name of the selected cell.
func (c *Controller) Current() string { return c.current }

// start selects A1 and pushes every non-empty cell's value to the view.
func (c *Controller) start() {
	for _, name := range c.sheet.GetNamesOfAllNonemptyCells() {
		if v, err := c.sheet.GetCellValue(name); err == nil {
			c.view.SetCellValue(name, v)
		}
	}
	c.Select("A1")
}

// Edit sets the contents of a cell and refreshes every recalculated value.
// On failure the sheet is unchanged, the error is shown on the view, and
// returned.
func (c *Controller) Edit(name, contents string) error {
	affected, err := c.sheet.SetContentsOfCell(name, contents)
	if err != nil {
		c.view.ShowMessage(errors.UserMessage(err))
		return err
	}
	c.show(affected[0])
	for _, n := range affected {
		v, err := c.sheet.GetCellValue(n)
		if err != nil {
			continue
		}
		c.view.SetCellValue(n, v)
	}
	c.logger.Debug("edited cell", "window", c.id, "cell", affected[0], "recalculated", len(affected))
	return nil
}

// Select makes name the current cell. Invalid names are reported on the
// view and leave the selection unchanged.
func (c *Controller) Select(name string) error {
	if !c.sheet.IsValidName(name) {
		err := errors.New(errors.ErrCodeInvalidName, "invalid cell name %q", name)
		c.view.ShowMessage(errors.UserMessage(err))
		return err
	}
	c.show(name)
	return nil
}

// SelectAt selects the cell at zero-based grid coordinates, where (0, 0)
// is A1.
func (c *Controller) SelectAt(col, row int) error {
	return c.Select(sheet.CellName(col, row))
}

func (c *Controller) show(name string) {
	contents, err := c.sheet.GetCellContents(name)
	if err != nil {
		return
	}
	value, _ := c.sheet.GetCellValue(name)
	c.current = strings.ToUpper(name)
	c.view.SetCurrentCell(c.current, contents, value)
}

// Open loads the workbook at path into a new window of the same session.
// The current window is unaffected. Without a session the error is
// UNSUPPORTED.
func (c *Controller) Open(path string) (*Controller, error) {
	if c.session == nil {
		err := errors.New(errors.ErrCodeUnsupported, "no session to open %s in", path)
		c.view.ShowMessage(errors.UserMessage(err))
		return nil, err
	}
	next, err := c.session.OpenFile(path)
	if err != nil {
		c.view.ShowMessage(errors.UserMessage(err))
		return nil, err
	}
	return next, nil
}

// Save writes the sheet to path, or to [Controller.Path] if path is empty.
// The format follows the file extension.
func (c *Controller) Save(path string) error {
	if path == "" {
		path = c.path
	}
	if err := errors.ValidatePath(path); err != nil {
		c.view.ShowMessage(errors.UserMessage(err))
		return err
	}
	if err := c.sheet.SaveFile(path); err != nil {
		c.view.ShowMessage(errors.UserMessage(err))
		return err
	}
	c.path = path
	c.logger.Debug("saved workbook", "path", path, "cells", c.sheet.Len())
	return nil
}

// Close closes the window. If the sheet has unsaved changes the view is
// asked whether to save first; a failed save keeps the window open.
func (c *Controller) Close() error {
	if c.sheet.Changed() && c.view.AskSave() {
		if err := c.Save(""); err != nil {
			return err
		}
	}
	c.view.Close()
	if c.session != nil {
		c.session.remove(c.id)
	}
	return nil
}

// New asks the view for a new, empty workbook window.
func (c *Controller) New() {
	c.view.OpenNew()
}

func defaultPattern() *regexp.Regexp {
	return regexp.MustCompile(DefaultPattern)
}
