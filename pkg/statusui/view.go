package statusui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("tabrotate"))
	b.WriteString("\n\n")

	state := stoppedStyle.Render("stopped")
	if m.running {
		state = runningStyle.Render("rotating")
	}

	rows := [][2]string{
		{"state", state},
		{"switching", onOff(m.settings.EnableSwitching)},
		{"stay time", m.settings.StayTime.String()},
		{"refresh", onOff(m.settings.ShouldRefresh)},
		{"skip", patternSummary(m.settings.NoSwitchURLs)},
		{"no refresh", patternSummary(m.settings.NoRefreshURLs)},
		{"shortcut", m.shortcut()},
		{"current tab", m.currentTab()},
	}
	if m.running && m.nextSwitch > 0 && !m.armedAt.IsZero() {
		rows = append(rows, [2]string{"next switch", m.armedAt.Add(m.nextSwitch).Format("15:04:05")})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(row[0]), valueStyle.Render(row[1])))
	}
	b.WriteString(panelStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("error: " + m.lastErr.Error()))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusBarStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m model) currentTab() string {
	if m.current == nil {
		return "-"
	}
	url := m.current.URL
	if m.width > 0 {
		// label column and panel chrome
		limit := m.width - 20
		if limit > 10 && len(url) > limit {
			url = url[:limit-3] + "..."
		}
	}
	return url
}

func (m model) shortcut() string {
	if m.settings.CustomShortcut == "" {
		return "none"
	}
	if shortcutKey(m.settings.CustomShortcut) == "" {
		return m.settings.CustomShortcut + " (not available in terminal)"
	}
	return m.settings.CustomShortcut
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func patternSummary(patterns []string) string {
	switch len(patterns) {
	case 0:
		return "none"
	case 1:
		return patterns[0]
	default:
		return fmt.Sprintf("%s (+%d more)", patterns[0], len(patterns)-1)
	}
}
