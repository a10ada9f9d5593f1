package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	// File list styles
	fileListStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	fileItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	fileItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorHighlight).
				Bold(true)

	fileItemBlockerStyle = lipgloss.NewStyle().
				Foreground(colorRed)

	// Signal panel styles
	signalViewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	fileHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true).
			Padding(0, 0, 1, 0)

	signalBlockerStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	signalWarnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	signalInfoStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	signalSelectedStyle = lipgloss.NewStyle().
				Background(colorHighlight).
				Bold(true)

	snippetStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	reasonStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	actionStyle = lipgloss.NewStyle().
			Foreground(colorPurple)

	ackStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	dismissedStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Strikethrough(true)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	// Help
	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)
