package ui

import "github.com/rivo/tview"

// MenuHint is one key shown in the header menu.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // digit jumps, drawn in NumericKeyColor
}

// Component is a page that can sit on the page stack.
type Component interface {
	// Name is the breadcrumb label.
	Name() string
	Hints() []MenuHint
	// FocusTarget is the primitive that receives keys when the page is on top.
	FocusTarget() tview.Primitive
}
