package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nextstep/pkg/integrations/backend"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// MatrixListModel - Interactive matrix selection
// =============================================================================

// matrixRow is one matrix as listed by the picker.
type matrixRow struct {
	Name       string
	Custom     bool
	HasLog     bool
	MaxSupport int
}

// matrixRows flattens a matrix listing, predefined matrices first.
func matrixRows(m backend.Matrices) []matrixRow {
	logs := make(map[string]bool, len(m.Logs))
	for _, name := range m.Logs {
		logs[name] = true
	}
	rows := make([]matrixRow, 0, len(m.Default)+len(m.Custom))
	for _, name := range m.Default {
		rows = append(rows, matrixRow{Name: name, MaxSupport: m.MaxSupport[name]})
	}
	for _, name := range m.Custom {
		rows = append(rows, matrixRow{Name: name, Custom: true, HasLog: logs[name], MaxSupport: m.MaxSupport[name]})
	}
	return rows
}

func (r matrixRow) cells() []string {
	kind := "predefined"
	if r.Custom {
		kind = "custom"
	}
	log := "—"
	if r.HasLog {
		log = "✓"
	}
	support := "—"
	if r.MaxSupport > 0 {
		support = strconv.Itoa(r.MaxSupport)
	}
	return []string{r.Name, kind, log, support}
}

var matrixHeaders = []string{"Matrix", "Kind", "Log", "Max support"}

// MatrixListModel is the bubbletea model for interactive matrix selection.
type MatrixListModel struct {
	Rows     []matrixRow
	Current  string
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewMatrixListModel creates a picker with the cursor on current.
func NewMatrixListModel(rows []matrixRow, current string) MatrixListModel {
	m := MatrixListModel{Rows: rows, Current: current, Height: 15}
	for i, r := range rows {
		if r.Name == current {
			m.Cursor = i
		}
	}
	m.scroll()
	return m
}

func (m MatrixListModel) Init() tea.Cmd {
	return nil
}

func (m MatrixListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
			}
		case "enter":
			if len(m.Rows) > 0 {
				m.Selected = m.Rows[m.Cursor].Name
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	m.scroll()
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *MatrixListModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m MatrixListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Matrix"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, m.Rows[i].cells()...))
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(append([]string{""}, matrixHeaders...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if m.Rows[idx].Name == m.Current {
				base = base.Foreground(colorGreen)
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			if !m.Rows[idx].Custom && col > 2 {
				return base.Foreground(colorDim)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  current: %s", m.Cursor+1, len(m.Rows), m.Current)))

	return b.String()
}

// pickMatrix runs the picker and returns the chosen matrix, or "" if the
// user quit without choosing.
func pickMatrix(rows []matrixRow, current string) (string, error) {
	final, err := tea.NewProgram(NewMatrixListModel(rows, current)).Run()
	if err != nil {
		return "", err
	}
	return final.(MatrixListModel).Selected, nil
}
