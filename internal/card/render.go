package card

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Styles struct {
	Box         lipgloss.Style
	Selected    lipgloss.Style
	Title       lipgloss.Style
	Description lipgloss.Style
	Meta        lipgloss.Style
	Badge       lipgloss.Style
	Link        lipgloss.Style
	Seen        lipgloss.Style
	Marker      lipgloss.Style
}

// NewStyles builds card styles from a primary and a muted color.
func NewStyles(primary, text, muted lipgloss.Color) Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(primary).
			Padding(0, 1),
		Title:       lipgloss.NewStyle().Foreground(text).Bold(true),
		Description: lipgloss.NewStyle().Foreground(text),
		Meta:        lipgloss.NewStyle().Foreground(muted).Italic(true),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primary).
			Padding(0, 1),
		Link:   lipgloss.NewStyle().Foreground(muted).Underline(true),
		Seen:   lipgloss.NewStyle().Faint(true),
		Marker: lipgloss.NewStyle().Foreground(primary).Bold(true),
	}
}

type RenderState struct {
	Selected   bool
	Seen       bool
	Bookmarked bool
}

// Render draws c inside a box no wider than width.
func Render(c Card, width int, st Styles, state RenderState) string {
	box := st.Box
	if state.Selected {
		box = st.Selected
	}
	inner := width - box.GetHorizontalBorderSize()
	if inner < 10 {
		inner = 10
	}
	content := inner - box.GetHorizontalPadding()

	title := c.Title
	titleStyle := st.Title
	if state.Seen && !state.Selected {
		titleStyle = titleStyle.Inherit(st.Seen)
	}
	if state.Bookmarked {
		title = st.Marker.Render("★ ") + titleStyle.Render(title)
	} else {
		title = titleStyle.Render(title)
	}

	badge := ""
	if c.SourceName != "" {
		badge = st.Badge.Render(c.SourceName)
	}
	header := title
	if badge != "" {
		gap := content - lipgloss.Width(title) - lipgloss.Width(badge)
		if gap >= 1 {
			header = title + strings.Repeat(" ", gap) + badge
		} else {
			header = lipgloss.JoinVertical(lipgloss.Left, badge, title)
		}
	}

	lines := []string{header}
	if c.Description != "" {
		lines = append(lines, st.Description.Width(content).Render(c.Description))
	}

	meta := fmt.Sprintf("By %s", c.Author)
	if c.Date != "" {
		meta += " on " + c.Date
	}
	lines = append(lines, st.Meta.Render(meta))

	if c.URL != "" {
		lines = append(lines, st.Link.Render(truncateMiddle(c.URL, content)))
	}

	return box.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// truncateMiddle keeps both ends of s, which for URLs carry the host and the
// slug.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	return string(r[:left]) + "…" + string(r[n-right:])
}
