package fancy

import (
	"github.com/charmbracelet/lipgloss"
)

// Common styles that can be used across the application
var (
	// Style for root/main elements
	RootStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	// Style for section headers
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	// Style for descriptive information
	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	// Style for branch connectors in trees
	BranchStyle = lipgloss.NewStyle().
			Foreground(ColorDarkGray)

	// Style for components/sections
	ComponentStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	// Style for tool names
	ToolStyle = lipgloss.NewStyle().
			Foreground(ColorOrange).
			Bold(true)

	// Style for MCP server names
	ServerStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true)

	// Style for valid/healthy status
	OKStyle = lipgloss.NewStyle().
		Foreground(ColorGreen)

	// Style for errors
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)
)

// ToolText styles tool names (orange)
func ToolText(text string) string {
	return ToolStyle.Render(text)
}

// ServerText styles MCP server names (magenta)
func ServerText(text string) string {
	return ServerStyle.Render(text)
}

// ValidText styles valid status text (green)
func ValidText(text string) string {
	return OKStyle.Render(text)
}

// ErrorText styles error text (red)
func ErrorText(text string) string {
	return ErrorStyle.Render(text)
}

// PathText styles file paths (gray)
func PathText(text string) string {
	return InfoStyle.Render(text)
}

// CountText styles count numbers (cyan)
func CountText(text string) string {
	return ComponentStyle.Render(text)
}
