// Package tui provides the Bubble Tea progress view for the decomp CLI.
//
// TUI rules:
//   - TUI is opt-in only (--tui flag)
//   - TUI shows the same events the log reporter receives
//   - Quitting the TUI cancels in-flight runs; staged files are still cleaned up
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/decomp/types"
)

// Color palette.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for TUI components.
var (
	// TitleStyle for headers and titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// ArtifactStyle for the artifact column.
	ArtifactStyle = lipgloss.NewStyle().
			Width(28)

	// StageLabelStyle for the stage column.
	StageLabelStyle = lipgloss.NewStyle().
			Width(12)

	// MessageStyle for the latest event message.
	MessageStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// SuccessStyle for success states.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// WarningStyle for in-progress states and diagnostics.
	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// ErrorStyle for error states.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// ActiveStyle for stages that talk to the server.
	ActiveStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// StageStyle returns the style a stage is drawn with.
func StageStyle(stage types.Stage) lipgloss.Style {
	switch stage {
	case types.StageDone:
		return SuccessStyle
	case types.StageStaging, types.StageRemoteOp, types.StageRetrieving:
		return ActiveStyle
	case types.StageCleanup:
		return WarningStyle
	case types.StageFailed:
		return ErrorStyle
	default:
		return MessageStyle
	}
}
