package ui

import (
	"fmt"

	"anygent/internal/theme"
	"anygent/internal/version"
)

// renderHeader creates the header used by the main view and every dialog.
// In dev mode it adds build information next to the app name.
func renderHeader(devMode bool, subtitle string) string {
	appNameLine := theme.AppNameStyle.Render("Anygent")
	if devMode {
		commit := version.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		appNameLine += theme.VersionStyle.Render(fmt.Sprintf(" %s | %s | %s | %s",
			version.Version, commit, version.Date, version.GoVersion))
	}

	result := appNameLine + "\n" + theme.TaglineStyle.Render(version.Tagline)
	if subtitle != "" {
		result += "\n\n" + theme.SubtitleStyle.Render(subtitle)
	}
	return result
}

// renderDialogHeader renders the header followed by spacing for dialog content
func renderDialogHeader(devMode bool, title string) string {
	return renderHeader(devMode, title) + "\n\n"
}
