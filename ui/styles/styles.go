package styles

import "github.com/charmbracelet/lipgloss"

// contentWidth keeps wrapped text inside the terminal, 0 disables wrapping
func contentWidth(width, margin int) int {
	if width <= margin {
		return 0
	}
	return width - margin
}

func InputStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(contentWidth(width, 4))
}

func StatusStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Width(width)
}

func UserStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("39")).
		Padding(0, 1).
		MarginLeft(2).
		Width(contentWidth(width, 6))
}

func AssistantStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("214")).
		Padding(0, 1).
		MarginLeft(2).
		Width(contentWidth(width, 6))
}

func VerdictStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		MarginLeft(4).
		Width(contentWidth(width, 6))
}

func ErrorStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		MarginLeft(2).
		Width(contentWidth(width, 4))
}

func ProgramStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("141")).
		Bold(true).
		Padding(0, 2).
		Width(contentWidth(width, 0)).
		Align(lipgloss.Center)
}
