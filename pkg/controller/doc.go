// Package controller drives a workbook window without depending on any
// particular user interface.
//
// A [View] is whatever shows the grid: a terminal UI, a test stub, or a
// remote client. A [Controller] owns one sheet and translates user actions
// (edit a cell, select a cell, open, save, close, new) into sheet
// operations and view updates. A [Session] keeps track of every open
// window and reports when the last one closes.
//
//	sess := controller.NewSession(func() controller.View { return newWindow() })
//	c := sess.New()
//	c.Edit("A1", "3")
//	c.Edit("B1", "=A1*2") // view receives B1 = 6
//	<-sess.Done()
//
// New sheets accept names A1 through Z99 ([DefaultPattern]). Errors are
// both shown on the view and returned, so scripted callers can react to
// them.
package controller
