// Package ui defines the declarative element tree the console emits and the
// contract of the layer that turns it into on-screen widgets. Identifiers
// are stable across renders so a renderer can destroy and recreate a single
// subtree by name.
package ui

type Kind int

const (
	Panel Kind = iota
	Label
	Button
)

func (k Kind) String() string {
	switch k {
	case Panel:
		return "panel"
	case Label:
		return "label"
	case Button:
		return "button"
	}
	return "unknown"
}

// Element is one node of a console view tree.
type Element struct {
	ID       string
	Kind     Kind
	Text     string
	Color    string
	Enabled  bool
	Command  string
	Arg      string
	Children []*Element
}

func NewPanel(id string, children ...*Element) *Element {
	return &Element{ID: id, Kind: Panel, Enabled: true, Children: children}
}

func NewLabel(id, text, color string) *Element {
	return &Element{ID: id, Kind: Label, Text: text, Color: color, Enabled: true}
}

// NewButton creates a button that fires (command, arg) back at the console
// when pressed. A disabled button renders greyed out and fires nothing.
func NewButton(id, text, color, command, arg string) *Element {
	return &Element{ID: id, Kind: Button, Text: text, Color: color, Enabled: true, Command: command, Arg: arg}
}

func (e *Element) Disable() *Element {
	e.Enabled = false
	e.Command = ""
	e.Arg = ""
	return e
}

func (e *Element) Add(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Find returns the element with the given ID in the tree rooted at e, or nil.
func (e *Element) Find(id string) *Element {
	if e == nil {
		return nil
	}
	if e.ID == id {
		return e
	}
	for _, child := range e.Children {
		if found := child.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Walk calls f for every element in the tree in depth-first order.
func (e *Element) Walk(f func(*Element)) {
	if e == nil {
		return
	}
	f(e)
	for _, child := range e.Children {
		child.Walk(f)
	}
}

// Renderer is implemented by the host's widget layer. The console calls it
// with complete trees (Render), named-subtree replacements (Patch), and
// teardown instructions (Destroy). The renderer calls back into the console
// with (adminID, commandName, argString) when a button fires.
type Renderer interface {
	Render(adminID string, root *Element)
	Patch(adminID string, subtreeID string, subtree *Element)
	Destroy(adminID string, rootID string)
}
