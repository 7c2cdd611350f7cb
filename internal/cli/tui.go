package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/babelone/pkg/project"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// FileListModel - Interactive source file selection
// =============================================================================

// FileListModel is the bubbletea model for picking one build specification
// out of a project directory.
type FileListModel struct {
	Files    []specFile
	Cursor   int
	Selected *specFile
}

// NewFileListModel creates a new file list model.
func NewFileListModel(files []specFile) FileListModel {
	return FileListModel{Files: files}
}

func (m FileListModel) Init() tea.Cmd {
	return nil
}

func (m FileListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Files)-1 {
				m.Cursor++
			}
		case "enter":
			if len(m.Files) > 0 {
				m.Selected = &m.Files[m.Cursor]
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m FileListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Source File"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("arrows: navigate  enter: select  q: quit"))
	b.WriteString("\n\n")

	for i, f := range m.Files {
		cursor := "  "
		if i == m.Cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-28s  %s", cursor, f.name, listDimStyle.Render(f.kind.String()))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Dependency table
// =============================================================================

// dependencyTable renders the default and grouped dependencies of p as a
// table. It returns "" when p has none.
func dependencyTable(p *project.Project) string {
	var rows [][]string
	add := func(group string, deps []project.Dependency) {
		for _, d := range deps {
			spec := d.Constraints.String()
			if d.URL != "" {
				spec = "@ " + d.URL
			}
			rows = append(rows, []string{group, d.Name, strings.Join(d.Extras, ","), spec, d.Marker})
		}
	}
	add(project.DefaultGroup, p.Dependencies)
	for _, g := range p.Groups {
		add(g.Name, g.Dependencies)
	}
	add(project.BuildGroup, p.BuildRequires)
	if len(rows) == 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Group", "Name", "Extras", "Version", "Marker").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0 || col == 4:
				return listDimStyle
			case col == 1:
				return listNormalStyle
			}
			return lipgloss.NewStyle().Foreground(colorCyan)
		})
	return t.Render()
}
