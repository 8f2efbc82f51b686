package review

import (
	"github.com/charmbracelet/lipgloss"
)

// Tokyo Night color palette.
var (
	colorBlue   = lipgloss.Color("#7aa2f7")
	colorGray   = lipgloss.Color("#565f89")
	colorWhite  = lipgloss.Color("#c0caf5")
	colorGreen  = lipgloss.Color("#9ece6a")
	colorRed    = lipgloss.Color("#f7768e")
	colorYellow = lipgloss.Color("#e0af68")
	colorBg     = lipgloss.Color("#292e42")
)

var (
	addedLineStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	deletedLineStyle = lipgloss.NewStyle().Foreground(colorRed)
	contextLineStyle = lipgloss.NewStyle().Foreground(colorWhite)
	hunkHeaderStyle  = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	lineNumStyle     = lipgloss.NewStyle().Foreground(colorGray)

	cursorLineStyle = lipgloss.NewStyle().Background(colorBg)
	selectionStyle  = lipgloss.NewStyle().Background(colorBg).Foreground(colorYellow)

	commentMarkerStyle = lipgloss.NewStyle().Foreground(colorYellow)

	focusedBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colorBlue)

	blurredBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colorGray)

	statusBarStyle = lipgloss.NewStyle().Foreground(colorGray)
	statusKeyStyle = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	modalHelpStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	reviewedStyle = lipgloss.NewStyle().Foreground(colorGreen)

	statusAdded    = lipgloss.NewStyle().Foreground(colorGreen)
	statusDeleted  = lipgloss.NewStyle().Foreground(colorRed)
	statusModified = lipgloss.NewStyle().Foreground(colorYellow)
)
