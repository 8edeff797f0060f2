package formatter

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

type TableFormatter struct {
	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
	}
}

func (f *TableFormatter) FormatTools(tools []ToolView) (string, error) {
	if len(tools) == 0 {
		return "No tools registered", nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers("Name", "Provider", "Required", "Description")

	for _, tool := range tools {
		t.Row(
			tool.Name,
			tool.Provider,
			truncateString(strings.Join(tool.Required, ", "), 30),
			truncateString(tool.Description, 50),
		)
	}

	return t.String(), nil
}

func (f *TableFormatter) FormatTool(tool *ToolView) (string, error) {
	if tool == nil {
		return "No tool found", nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return f.headerStyle
			}
			return f.cellStyle
		})

	t.Row("Name", tool.Name)
	t.Row("Description", truncateString(tool.Description, 60))
	t.Row("Source", tool.Source)
	t.Row("Provider", tool.Provider)
	t.Row("Capabilities", strings.Join(tool.Capabilities, ", "))
	t.Row("Required", strings.Join(tool.Required, ", "))
	t.Row("Optional", strings.Join(tool.Optional, ", "))

	return t.String(), nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
