package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/billmal071/novelapi/internal/bqxs520"
)

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// RenderDetail formats a book detail as a bordered box.
func RenderDetail(d *bqxs520.BookDetail) string {
	label := lipgloss.NewStyle().Foreground(secondaryColor).Width(10)

	rows := [][2]string{
		{"Author", orDash(d.Author)},
		{"Updated", orDash(d.UpdateTime)},
		{"Latest", orDash(d.LatestChapterName)},
		{"Tags", d.Tags},
		{"Cast", d.Protagonists},
		{"Chapter", d.FirstChapterID},
		{"Book ID", orDash(d.ID.BookID)},
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(orDash(d.BookName)))
	b.WriteString("\n")
	for _, row := range rows {
		value := row[1]
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%s %s\n", label.Render(row[0]), NormalStyle.Render(value))
	}
	if d.Description != "" {
		b.WriteString("\n")
		b.WriteString(DimStyle.Width(60).Render(d.Description))
	}

	return BoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
