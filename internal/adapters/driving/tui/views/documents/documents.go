// Package documents provides the documents browser view for the TUI.
package documents

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/mango"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
)

// PageSize is the number of documents fetched per page.
const PageSize = 50

// View lists documents of one kind, optionally filtered.
type View struct {
	styles *styles.Styles
	crud   driving.CRUDService

	kinds     []domain.Kind
	kindIndex int
	filter    *input.FilterInput
	list      *list.DocList
	statusBar *status.Bar

	bookmark string
	hasMore  bool
	loading  bool
	err      error

	width  int
	height int
	ready  bool
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, crud driving.CRUDService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		crud:      crud,
		kinds:     domain.AllKinds(),
		filter:    input.NewFilterInput(s),
		list:      list.NewDocList(s),
		statusBar: status.NewBar(s, nil),
		width:     80,
		height:    24,
	}
}

// Init loads the first page of the current kind.
func (v *View) Init() tea.Cmd {
	return v.reload()
}

// Kind returns the kind being browsed.
func (v *View) Kind() domain.Kind {
	return v.kinds[v.kindIndex]
}

// Query builds the find query for the current kind and filter.
func (v *View) Query(bookmark string) (domain.Query, error) {
	b, err := mango.FromFilters(v.Kind(), v.filter.Expressions())
	if err != nil {
		return domain.Query{}, err
	}
	q, err := b.Limit(PageSize).Build()
	if err != nil {
		return domain.Query{}, err
	}
	q.Bookmark = bookmark
	return q, nil
}

func (v *View) reload() tea.Cmd {
	v.bookmark = ""
	v.hasMore = false
	return v.load("")
}

func (v *View) load(bookmark string) tea.Cmd {
	kind := v.Kind()
	q, err := v.Query(bookmark)
	if err != nil {
		v.err = err
		v.statusBar.SetState(status.StateError)
		v.statusBar.SetMessage(err.Error())
		return nil
	}

	v.loading = true
	v.err = nil
	v.statusBar.SetState(status.StateLoading)
	return func() tea.Msg {
		if v.crud == nil {
			return messages.DocumentsLoaded{Kind: kind, Result: domain.Fail[domain.FindResult](
				fmt.Errorf("%w: document service not available", domain.ErrUnavailable), "documents unavailable")}
		}
		return messages.DocumentsLoaded{Kind: kind, Result: v.crud.Find(context.Background(), q)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.filter.Focused() {
			return v.handleFilterKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		if msg.Kind != v.Kind() {
			// A response for a kind the user already left.
			return v, nil
		}
		v.loading = false
		if !msg.Result.Success {
			v.err = msg.Result.Err()
			v.statusBar.SetState(status.StateError)
			v.statusBar.SetMessage(msg.Result.Message)
			return v, nil
		}
		page := msg.Result.Data
		if v.bookmark == "" {
			v.list.SetDocs(page.Docs)
		} else {
			v.list.AppendDocs(page.Docs)
		}
		v.hasMore = page.Bookmark != "" && len(page.Docs) == PageSize
		v.bookmark = page.Bookmark
		v.err = nil
		v.statusBar.SetState(status.StateList)
		v.statusBar.SetCount(v.list.Count())
		return v, nil

	case messages.RefreshRequested:
		return v, v.reload()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleFilterKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		v.filter.Blur()
		return v, v.reload()
	case tea.KeyEsc:
		v.filter.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.filter, cmd = v.filter.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k", "down", "j", "home", "g", "end", "G":
		v.list, _ = v.list.Update(msg)
	case "tab":
		v.kindIndex = (v.kindIndex + 1) % len(v.kinds)
		v.filter.Reset()
		return v, v.reload()
	case "/":
		return v, v.filter.Focus()
	case "n":
		if v.hasMore && !v.loading {
			return v, v.load(v.bookmark)
		}
	case "r":
		return v, v.reload()
	case "enter":
		if doc := v.list.SelectedDoc(); doc != nil {
			return v, func() tea.Msg {
				return messages.DocumentSelected{Document: doc}
			}
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents - %s", v.Kind().Label())))
	b.WriteString("  ")
	for i, k := range v.kinds {
		if i == v.kindIndex {
			b.WriteString(v.styles.Selected.Render(" " + k.Label() + " "))
		} else {
			b.WriteString(v.styles.Muted.Render(" " + k.Label() + " "))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(v.filter.View())
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err)))
	case v.loading && v.list.IsEmpty():
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	default:
		b.WriteString(v.list.View())
		if v.hasMore {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render("  more available, press n"))
		}
	}

	b.WriteString("\n\n")
	v.statusBar.SetWidth(v.width)
	b.WriteString(v.statusBar.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.filter.SetWidth(width)
	// Reserve lines for title, filter box, status bar and padding.
	rows := height - 12
	if rows < 1 {
		rows = 1
	}
	v.list.SetDimensions(width, rows)
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.RawDoc {
	return v.list.Docs()
}

// SelectedDocument returns the selected document, or nil.
func (v *View) SelectedDocument() domain.RawDoc {
	return v.list.SelectedDoc()
}

// Filtering reports whether the filter input has focus.
func (v *View) Filtering() bool {
	return v.filter.Focused()
}

// HasMore reports whether another page can be fetched.
func (v *View) HasMore() bool {
	return v.hasMore
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
