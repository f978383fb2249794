package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// renderTextBox frames the extracted answer text in a rounded box, wrapped
// to fit the terminal width. The framing is presentation only; nothing
// downstream parses it.
func renderTextBox(body string, totalWidth int) []string {
	maxContentWidth := totalWidth - 4
	if maxContentWidth < 8 {
		maxContentWidth = 8
	}

	var content []string
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		content = append(content, wrapText(line, maxContentWidth)...)
	}

	boxWidth := contentMaxWidth(content)
	if boxWidth > maxContentWidth {
		boxWidth = maxContentWidth
	}

	top := fmt.Sprintf("╭%s╮", strings.Repeat("─", boxWidth+2))
	bottom := fmt.Sprintf("╰%s╯", strings.Repeat("─", boxWidth+2))

	result := []string{top}
	for _, line := range content {
		padding := boxWidth - runewidth.StringWidth(line)
		result = append(result, fmt.Sprintf("│ %s%s │", line, strings.Repeat(" ", padding)))
	}
	return append(result, bottom)
}

func wrapText(body string, width int) []string {
	if width <= 0 {
		return []string{body}
	}
	body = strings.TrimRight(body, " ")
	if body == "" {
		return []string{""}
	}
	var out []string
	var current strings.Builder
	currentWidth := 0

	for _, r := range body {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > width && current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
			currentWidth = 0
		}
		current.WriteRune(r)
		currentWidth += rw
	}
	if currentWidth > 0 || current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

func contentMaxWidth(lines []string) int {
	max := 0
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > max {
			max = w
		}
	}
	return max
}
