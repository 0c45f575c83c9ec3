// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette for CLI output. lipgloss drops the colors when stdout is not a
// terminal, so scripted output stays plain.
const (
	colorTitle   = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorBundled = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorDropped = lipgloss.Color("#F59E0B")
	colorPath    = lipgloss.Color("#3B82F6")
	colorVerbose = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle renders section headers and dependency roots.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTitle)
	// SubtitleStyle renders labels and reasons.
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	// SuccessStyle marks completed steps and bundled sources.
	SuccessStyle = lipgloss.NewStyle().Foreground(colorBundled)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	// WarningStyle marks dropped sources and duplicate paths.
	WarningStyle = lipgloss.NewStyle().Foreground(colorDropped)
	// PathStyle renders file paths and manifest attribute names.
	PathStyle    = lipgloss.NewStyle().Foreground(colorPath)
	VerboseStyle = lipgloss.NewStyle().Foreground(colorVerbose)
)
