package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/billmal071/novelapi/internal/bqxs520"
)

// ErrNoResults is returned when there is nothing to select from.
var ErrNoResults = errors.New("no results to select from")

// ResultItem wraps a SearchResult for the list component
type ResultItem struct {
	Result bqxs520.SearchResult
}

func (r ResultItem) Title() string { return r.Result.Title() }

func (r ResultItem) Description() string {
	var parts []string

	if r.Result.Tags != "" {
		parts = append(parts, r.Result.Tags)
	}
	if r.Result.Description != "" {
		parts = append(parts, Truncate(r.Result.Description, 40))
	}

	if len(parts) == 0 {
		return DimStyle.Render("No metadata available")
	}
	return DimStyle.Render(strings.Join(parts, " | "))
}

func (r ResultItem) FilterValue() string { return r.Result.Title() }

func (r ResultItem) bookID() string {
	if r.Result.ID.BookID == nil {
		return "-"
	}
	return *r.Result.ID.BookID
}

// ResultDelegate handles rendering of result items
type ResultDelegate struct{}

func (d ResultDelegate) Height() int                             { return 3 }
func (d ResultDelegate) Spacing() int                            { return 0 }
func (d ResultDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d ResultDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	result, ok := item.(ResultItem)
	if !ok {
		return
	}

	title := Truncate(result.Title(), 30)

	var str string
	if index == m.Index() {
		str = SelectedStyle.Render(fmt.Sprintf("  ➤ %d. %s", index+1, title))
	} else {
		str = NormalStyle.Render(fmt.Sprintf("    %d. %s", index+1, title))
	}
	str += "\n" + DimStyle.Render(fmt.Sprintf("      %s", result.Description()))
	str += "\n" + DimStyle.Render(fmt.Sprintf("      ID: %s", result.bookID()))

	fmt.Fprint(w, str)
}

// SelectorModel is the Bubble Tea model for result selection
type SelectorModel struct {
	list     list.Model
	selected *bqxs520.SearchResult
	quitting bool
}

// NewSelector creates a new result selector TUI
func NewSelector(results []bqxs520.SearchResult, title string) SelectorModel {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = ResultItem{Result: r}
	}

	l := list.New(items, ResultDelegate{}, 70, 4+len(results)*3)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	l.Styles.Title = TitleStyle

	return SelectorModel{list: l}
}

func (m SelectorModel) Init() tea.Cmd {
	return nil
}

func (m SelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(ResultItem); ok {
				selected := item.Result
				m.selected = &selected
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m SelectorModel) View() string {
	if m.selected != nil {
		return SuccessStyle.Render(fmt.Sprintf("\n  ✓ Selected: %s\n", m.selected.Title()))
	}

	if m.quitting {
		return DimStyle.Render("\n  Cancelled.\n")
	}

	help := HelpStyle.Render("  " + strings.Join([]string{"↑/↓: navigate", "enter: select", "q/esc: cancel"}, " • "))
	return "\n" + m.list.View() + "\n" + help
}

// Selected returns the selected result
func (m SelectorModel) Selected() *bqxs520.SearchResult {
	return m.selected
}

// RunSelector displays the TUI and returns the selected result, or nil when
// the user cancels.
func RunSelector(results []bqxs520.SearchResult) (*bqxs520.SearchResult, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	p := tea.NewProgram(NewSelector(results, "Select a book"))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	return finalModel.(SelectorModel).Selected(), nil
}
