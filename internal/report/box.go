// Package report renders invocation outcomes for the terminal.
package report

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Tone selects the colour and prefix of a box
type Tone int

const (
	ToneInfo Tone = iota
	ToneSuccess
	ToneWarning
	ToneError
)

const (
	topLeft     = "╭"
	topRight    = "╮"
	bottomLeft  = "╰"
	bottomRight = "╯"
	horizontal  = "─"
	vertical    = "│"
)

var tones = map[Tone]struct {
	style  lipgloss.Style
	prefix string
}{
	ToneInfo:    {lipgloss.NewStyle().Foreground(lipgloss.Color("86")), "ℹ"},
	ToneSuccess: {lipgloss.NewStyle().Foreground(lipgloss.Color("42")), "✓"},
	ToneWarning: {lipgloss.NewStyle().Foreground(lipgloss.Color("178")), "⚠"},
	ToneError:   {lipgloss.NewStyle().Foreground(lipgloss.Color("196")), "✗"},
}

// Box is a builder for a bordered message
type Box struct {
	tone  Tone
	title string
	lines []string
	width int
}

// NewBox creates a box sized to the terminal
func NewBox(tone Tone, title string) *Box {
	return &Box{tone: tone, title: title, width: TerminalWidth()}
}

// WithWidth fixes the available width instead of detecting it
func (b *Box) WithWidth(width int) *Box {
	b.width = width
	return b
}

// AddLine adds a line of text
func (b *Box) AddLine(text string) *Box {
	b.lines = append(b.lines, text)
	return b
}

// AddBullet adds a bulleted line
func (b *Box) AddBullet(text string) *Box {
	b.lines = append(b.lines, "• "+text)
	return b
}

// AddKeyValue adds an aligned "key: value" line
func (b *Box) AddKeyValue(key, value string) *Box {
	b.lines = append(b.lines, fmt.Sprintf("%-16s %s", key+":", value))
	return b
}

// Render returns the box as a string without a trailing newline
func (b *Box) Render() string {
	t := tones[b.tone]
	style, prefix := t.style, t.prefix

	contentWidth := b.width - 14
	if contentWidth < 20 {
		contentWidth = 20
	}

	var wrapped []string
	for _, line := range append([]string{b.title}, b.lines...) {
		if utf8.RuneCountInString(line) <= contentWidth {
			wrapped = append(wrapped, line)
		} else {
			wrapped = append(wrapped, wrapText(line, contentWidth)...)
		}
	}

	boxWidth := utf8.RuneCountInString(wrapped[0]) + utf8.RuneCountInString(prefix) + 5
	for _, line := range wrapped[1:] {
		if n := utf8.RuneCountInString(line) + 6; n > boxWidth {
			boxWidth = n
		}
	}

	var sb strings.Builder
	sb.WriteString(style.Render(topLeft+strings.Repeat(horizontal, boxWidth-2)+topRight) + "\n")

	first := wrapped[0]
	padding := max(boxWidth-utf8.RuneCountInString(first)-5-utf8.RuneCountInString(prefix), 0)
	sb.WriteString(fmt.Sprintf("%s %s %s%s %s\n",
		style.Render(vertical),
		style.Bold(true).Render(prefix),
		first,
		strings.Repeat(" ", padding),
		style.Render(vertical)))

	for _, line := range wrapped[1:] {
		padding := max(boxWidth-utf8.RuneCountInString(line)-6, 0)
		sb.WriteString(fmt.Sprintf("%s   %s%s %s\n",
			style.Render(vertical),
			line,
			strings.Repeat(" ", padding),
			style.Render(vertical)))
	}

	sb.WriteString(style.Render(bottomLeft + strings.Repeat(horizontal, boxWidth-2) + bottomRight))
	return sb.String()
}

// TerminalWidth returns the width of stdout, or 80 when it is not a terminal
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(word)+1 <= maxWidth {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	return append(lines, current)
}
