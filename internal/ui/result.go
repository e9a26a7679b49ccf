package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderHeader renders a command header box. Params are listed in key order.
func RenderHeader(title, command string, params map[string]string, width int) string {
	width = max(width, MinTerminalWidth)

	topSection := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(title)),
		HeaderCommandStyle.Render(command),
	)
	if len(params) == 0 {
		return HeaderBorderStyle(width).Render(topSection)
	}

	var paramLines []string
	for _, key := range sortedKeys(params) {
		paramLines = append(paramLines, HeaderParamKeyStyle.Render(key+":")+" "+HeaderParamValueStyle.Render(params[key]))
	}

	divider := RenderHorizontalDivider(max(width-6, 10), "─")
	content := lipgloss.JoinVertical(lipgloss.Left, topSection, divider, strings.Join(paramLines, "\n"))
	return HeaderBorderStyle(width).Render(content)
}

// RenderSuccessBox renders a success result box
func RenderSuccessBox(title string, details map[string]string, width int) string {
	width = max(width, MinTerminalWidth)

	lines := []string{"", SuccessTitleStyle.Render("   " + SuccessMarker + "  SUCCESS  ─  " + title), ""}
	for _, key := range sortedKeys(details) {
		lines = append(lines, ResultKeyStyle.Render("   "+key+":")+" "+ResultValueStyle.Render(details[key]))
	}
	lines = append(lines, "")

	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders an error result box. hint is a multi-line
// troubleshooting text whose first line is a summary.
func RenderErrorBox(title string, err error, hint string, width int) string {
	width = max(width, MinTerminalWidth)

	lines := []string{"", ErrorTitleStyle.Render("   " + FailureMarker + "  FAILED  ─  " + title), ""}
	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+err.Error()), "")
	}

	if hint != "" {
		var hintLines []string
		for _, line := range strings.Split(hint, "\n") {
			if strings.HasSuffix(line, ":") {
				hintLines = append(hintLines, TroubleshootingTitleStyle.Render(line))
				continue
			}
			hintLines = append(hintLines, TroubleshootingItemStyle.Render(line))
		}
		lines = append(lines, TroubleshootingBoxStyle(width).Render(strings.Join(hintLines, "\n")), "")
	}

	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
