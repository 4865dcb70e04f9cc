package ui

import (
	"github.com/ethpandaops/autorel/pkg/semver"
	"github.com/pterm/pterm"
)

var (
	// Color styles.
	SuccessStyle = pterm.NewStyle(pterm.FgGreen)
	ErrorStyle   = pterm.NewStyle(pterm.FgRed)
	WarningStyle = pterm.NewStyle(pterm.FgYellow)
	InfoStyle    = pterm.NewStyle(pterm.FgCyan)
	MutedStyle   = pterm.NewStyle(pterm.FgGray)

	// Symbol styles.
	SuccessSymbol = pterm.Green("✓")
	ErrorSymbol   = pterm.Red("✗")
	WarningSymbol = pterm.Yellow("⚠")
	InfoSymbol    = pterm.Cyan("→")

	// Section header style.
	HeaderStyle = pterm.NewStyle(pterm.FgCyan, pterm.Bold)
)

var releaseTypeStyles = map[semver.ReleaseType]*pterm.Style{
	semver.None:  pterm.NewStyle(pterm.FgGray),
	semver.Patch: pterm.NewStyle(pterm.FgLightGreen, pterm.Bold),
	semver.Minor: pterm.NewStyle(pterm.FgLightYellow, pterm.Bold),
	semver.Major: pterm.NewStyle(pterm.FgLightRed, pterm.Bold),
}

// ReleaseType renders a release type in its color.
func ReleaseType(rt semver.ReleaseType) string {
	style, ok := releaseTypeStyles[rt]
	if !ok {
		return rt.String()
	}

	return style.Sprint(rt.String())
}
