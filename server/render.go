package server

import (
	"fmt"
	"io"
	"strings"

	"github.com/rodaine/table"
	"github.com/zond/overseer/ui"
)

// terminalRenderer draws console element trees as text on the admin's
// terminal. List panels (a header label followed by row panels) become
// tables; everything else renders as indented lines. Buttons print the
// input line that invokes them, since terminal clients press buttons by
// typing "command argString".
type terminalRenderer struct {
	server *Server
}

func (r *terminalRenderer) writer(adminID string) (io.Writer, bool) {
	p, err := r.server.find(adminID)
	if err != nil {
		return nil, false
	}
	return p.term, true
}

func (r *terminalRenderer) Render(adminID string, root *ui.Element) {
	w, found := r.writer(adminID)
	if !found {
		return
	}
	fmt.Fprintln(w, strings.Repeat("=", 64))
	r.renderElement(w, root, 0)
	fmt.Fprintln(w, strings.Repeat("=", 64))
}

func (r *terminalRenderer) Patch(adminID, subtreeID string, subtree *ui.Element) {
	w, found := r.writer(adminID)
	if !found {
		return
	}
	fmt.Fprintf(w, "-- %s --\n", subtreeID)
	r.renderElement(w, subtree, 0)
}

func (r *terminalRenderer) Destroy(adminID, rootID string) {
	w, found := r.writer(adminID)
	if !found {
		return
	}
	fmt.Fprintln(w, "(console closed)")
}

func (r *terminalRenderer) renderElement(w io.Writer, e *ui.Element, depth int) {
	indent := strings.Repeat("  ", depth)
	switch e.Kind {
	case ui.Label:
		for _, line := range strings.Split(e.Text, "\n") {
			fmt.Fprintf(w, "%s%s\n", indent, line)
		}
	case ui.Button:
		if e.Enabled {
			fmt.Fprintf(w, "%s[%s] %s\n", indent, strings.TrimSpace(e.Command+" "+e.Arg), e.Text)
		} else {
			fmt.Fprintf(w, "%s(%s)\n", indent, e.Text)
		}
	case ui.Panel:
		if header, rows, ok := listShape(e); ok {
			r.renderTable(w, header, rows)
			return
		}
		for _, child := range e.Children {
			r.renderElement(w, child, depth+1)
		}
	}
}

// listShape recognizes the list panels the view builds: one header label
// whose text is pipe separated column names, followed by row panels.
func listShape(e *ui.Element) (header *ui.Element, rows []*ui.Element, ok bool) {
	if len(e.Children) < 2 {
		return nil, nil, false
	}
	header = e.Children[0]
	if header.Kind != ui.Label || !strings.HasSuffix(header.ID, "_header") {
		return nil, nil, false
	}
	for _, child := range e.Children[1:] {
		if child.Kind != ui.Panel || !strings.Contains(child.ID, "_row_") {
			return nil, nil, false
		}
		rows = append(rows, child)
	}
	return header, rows, true
}

func (r *terminalRenderer) renderTable(w io.Writer, header *ui.Element, rows []*ui.Element) {
	columns := []interface{}{}
	for _, name := range strings.Split(header.Text, " | ") {
		columns = append(columns, name)
	}
	t := table.New(columns...).WithWriter(w)
	for _, row := range rows {
		cells := []interface{}{}
		actions := []string{}
		for _, child := range row.Children {
			switch child.Kind {
			case ui.Label:
				cells = append(cells, child.Text)
			case ui.Button:
				if child.Enabled {
					actions = append(actions, fmt.Sprintf("[%s]", strings.TrimSpace(child.Command+" "+child.Arg)))
				}
			}
		}
		if len(actions) > 0 {
			cells = append(cells, strings.Join(actions, " "))
		}
		t.AddRow(cells...)
	}
	t.Print()
}
