package tui

import (
	"strings"
)

// ListModel is an immutable cursor over pre-rendered rows.
type ListModel struct {
	rows   []string
	cursor int
	empty  string
}

// NewListModel creates a list model. empty is shown when there are no rows.
func NewListModel(rows []string, empty string) ListModel {
	return ListModel{rows: rows, empty: empty}
}

// MoveDown returns a new model with the cursor moved down by one.
func (m ListModel) MoveDown() ListModel {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
	}
	return m
}

// MoveUp returns a new model with the cursor moved up by one.
func (m ListModel) MoveUp() ListModel {
	if m.cursor > 0 {
		m.cursor--
	}
	return m
}

// Cursor returns the current cursor position.
func (m ListModel) Cursor() int {
	return m.cursor
}

// Len returns the number of rows.
func (m ListModel) Len() int {
	return len(m.rows)
}

// View renders the rows with the cursor marker.
func (m ListModel) View() string {
	if len(m.rows) == 0 {
		return m.empty + "\n"
	}
	var sb strings.Builder
	for i, row := range m.rows {
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		sb.WriteString(prefix)
		sb.WriteString(row)
		sb.WriteString("\n")
	}
	return sb.String()
}
