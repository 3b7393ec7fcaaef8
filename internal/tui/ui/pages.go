package ui

import "github.com/rivo/tview"

// Pages keeps a navigation stack over tview.Pages. Only the top page is
// visible, and every change to the stack is reported through onChange.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(stack []string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange registers fn to receive a copy of the stack after each change.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. A page already on the stack is not
// duplicated: everything above it is popped instead.
func (p *Pages) Push(name string) {
	for i, n := range p.stack {
		if n == name {
			if i == len(p.stack)-1 {
				return
			}
			p.setStack(p.stack[:i+1])
			return
		}
	}
	p.setStack(append(p.stack, name))
}

// Pop removes the top page and returns its name, or "" on an empty stack.
func (p *Pages) Pop() string {
	if len(p.stack) == 0 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.setStack(p.stack[:len(p.stack)-1])
	return top
}

// Reset replaces the whole stack with name.
func (p *Pages) Reset(name string) {
	p.setStack([]string{name})
}

// Current returns the top page name.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

func (p *Pages) Depth() int { return len(p.stack) }

// Stack returns a copy of the stack, root first.
func (p *Pages) Stack() []string {
	return append([]string(nil), p.stack...)
}

func (p *Pages) setStack(stack []string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = stack
	if top := p.Current(); top != "" {
		p.ShowPage(top)
		p.SendToFront(top)
	}
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
