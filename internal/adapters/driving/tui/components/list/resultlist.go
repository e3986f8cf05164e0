// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// DocList displays raw documents in a navigable list, one line per document.
type DocList struct {
	docs     []domain.RawDoc
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewDocList creates a new document list component.
func NewDocList(s *styles.Styles) *DocList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &DocList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *DocList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *DocList) Update(msg tea.Msg) (*DocList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if len(l.docs) > 0 {
				l.selected = len(l.docs) - 1
			}
		}
	}
	return l, nil
}

// View renders the list.
func (l *DocList) View() string {
	if len(l.docs) == 0 {
		return l.styles.Muted.Render("No documents")
	}

	visible := l.height
	if visible < 1 {
		visible = 1
	}

	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.docs) {
		end = len(l.docs)
	}

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderDoc(i, l.docs[i]))
	}
	if len(l.docs) > visible {
		lines = append(lines, l.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", start+1, end, len(l.docs))))
	}

	return strings.Join(lines, "\n")
}

func (l *DocList) renderDoc(index int, doc domain.RawDoc) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	idWidth := l.width / 3
	if idWidth < 12 {
		idWidth = 12
	}
	id := truncate(doc.ID(), idWidth)
	title, detail := Describe(doc)
	title = truncate(title, l.width/3)
	detail = truncate(detail, l.width-idWidth-l.width/3-6)

	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("%s%-*s %s  %s", indicator, idWidth, id, title, detail))
	}
	return l.styles.Normal.Render(fmt.Sprintf("%s%-*s %s  ", indicator, idWidth, id, title)) +
		l.styles.Muted.Render(detail)
}

// Describe returns a headline and a detail line for a document,
// depending on its kind.
func Describe(doc domain.RawDoc) (title, detail string) {
	str := func(key string) string {
		v, _ := doc[key].(string)
		return v
	}
	num := func(key string) float64 {
		v, _ := doc[key].(float64)
		return v
	}

	switch doc.Kind() {
	case domain.KindProduct:
		return str("name"), fmt.Sprintf("%s  %.2f  stock %.0f", str("category"), num("price"), num("stock"))
	case domain.KindCustomer:
		return str("name"), str("email")
	case domain.KindOrder:
		return str("customer_id"), fmt.Sprintf("%s  %.2f", str("status"), num("total"))
	case domain.KindEvent:
		return str("event_type"), fmt.Sprintf("%s %s", str("entity_type"), str("entity_id"))
	default:
		return "(untyped)", ""
	}
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// SetDocs replaces the listed documents and resets the selection.
func (l *DocList) SetDocs(docs []domain.RawDoc) {
	l.docs = docs
	l.selected = 0
}

// AppendDocs adds another page of documents, keeping the selection.
func (l *DocList) AppendDocs(docs []domain.RawDoc) {
	l.docs = append(l.docs, docs...)
}

// Docs returns the listed documents.
func (l *DocList) Docs() []domain.RawDoc {
	return l.docs
}

// Selected returns the index of the selected document.
func (l *DocList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *DocList) SetSelected(index int) {
	if index >= 0 && index < len(l.docs) {
		l.selected = index
	}
}

// SelectedDoc returns the selected document, or nil if none.
func (l *DocList) SelectedDoc() domain.RawDoc {
	if l.selected < 0 || l.selected >= len(l.docs) {
		return nil
	}
	return l.docs[l.selected]
}

// MoveUp moves selection up.
func (l *DocList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *DocList) MoveDown() {
	if l.selected < len(l.docs)-1 {
		l.selected++
	}
}

// SetDimensions sets the width and the number of visible rows.
func (l *DocList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of documents.
func (l *DocList) Count() int {
	return len(l.docs)
}

// IsEmpty returns whether the list is empty.
func (l *DocList) IsEmpty() bool {
	return len(l.docs) == 0
}
