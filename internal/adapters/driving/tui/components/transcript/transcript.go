// Package transcript provides the conversation display component for the TUI.
package transcript

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pitwall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pitwall/internal/core/domain"
)

// scrollStep is how many lines one scroll key press moves.
const scrollStep = 2

// Entry is one turn shown in the conversation.
type Entry struct {
	// Role is who authored the turn.
	Role domain.Role

	// Text is the turn content.
	Text string

	// Citations identifies the sources behind an assistant turn.
	Citations []domain.Citation

	// Degraded marks an assistant turn composed without full sources.
	Degraded bool
}

// Transcript displays the conversation with scrollback.
type Transcript struct {
	entries []Entry
	offset  int // lines scrolled up from the bottom; 0 is pinned to newest
	styles  *styles.Styles
	width   int
	height  int
}

// NewTranscript creates a new transcript component.
func NewTranscript(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &Transcript{
		entries: nil,
		offset:  0,
		styles:  s,
		width:   80,
		height:  14,
	}
}

// Init initialises the transcript.
func (tr *Transcript) Init() tea.Cmd {
	return nil
}

// Update handles transcript messages.
func (tr *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	// Transcript is passive, updated via Append and scroll methods
	return tr, nil
}

// View renders the visible window of the conversation.
func (tr *Transcript) View() string {
	if len(tr.entries) == 0 {
		return tr.styles.Muted.Render("Ask a question to get started.")
	}

	lines := tr.renderLines()
	if len(lines) > tr.height {
		end := len(lines) - tr.offset
		if end > len(lines) {
			end = len(lines)
		}
		start := end - tr.height
		if start < 0 {
			start = 0
			end = tr.height
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

// renderLines renders every entry to styled, wrapped lines.
func (tr *Transcript) renderLines() []string {
	var lines []string
	for i := range tr.entries {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, tr.renderEntry(&tr.entries[i])...)
	}
	return lines
}

// renderEntry formats a single turn.
func (tr *Transcript) renderEntry(e *Entry) []string {
	var header string
	if e.Role == domain.RoleUser {
		header = tr.styles.Subtitle.Render("You")
	} else {
		header = tr.styles.Title.Render("Pitwall")
		if e.Degraded {
			header += tr.styles.Warning.Render(" (degraded)")
		}
	}

	lines := []string{header}

	textWidth := tr.width - 2
	for _, paragraph := range strings.Split(e.Text, "\n") {
		for _, line := range wrap(paragraph, textWidth) {
			lines = append(lines, tr.styles.Normal.Render(line))
		}
	}

	if len(e.Citations) > 0 {
		for _, line := range wrap(citationLine(e.Citations), textWidth) {
			lines = append(lines, tr.styles.Muted.Render(line))
		}
	}

	return lines
}

// citationLine formats the sources of an assistant turn on one line.
func citationLine(citations []domain.Citation) string {
	parts := make([]string, 0, len(citations))
	for _, c := range citations {
		if c.Reference != "" {
			parts = append(parts, c.Label+" ("+c.Reference+")")
		} else {
			parts = append(parts, c.Label)
		}
	}
	return "Sources: " + strings.Join(parts, "; ")
}

// wrap word-wraps text to the given width.
func wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}

// Append adds a turn and pins the view to the newest content.
func (tr *Transcript) Append(e Entry) {
	tr.entries = append(tr.entries, e)
	tr.offset = 0
}

// SetEntries replaces the conversation, pinned to the newest content.
func (tr *Transcript) SetEntries(entries []Entry) {
	tr.entries = entries
	tr.offset = 0
}

// Clear removes all turns.
func (tr *Transcript) Clear() {
	tr.entries = nil
	tr.offset = 0
}

// Entries returns the current turns.
func (tr *Transcript) Entries() []Entry {
	return tr.entries
}

// Count returns the number of turns.
func (tr *Transcript) Count() int {
	return len(tr.entries)
}

// IsEmpty returns whether the transcript is empty.
func (tr *Transcript) IsEmpty() bool {
	return len(tr.entries) == 0
}

// ScrollUp moves the view towards older turns.
func (tr *Transcript) ScrollUp() {
	tr.offset += scrollStep
	if max := tr.maxOffset(); tr.offset > max {
		tr.offset = max
	}
}

// ScrollDown moves the view towards newer turns.
func (tr *Transcript) ScrollDown() {
	tr.offset -= scrollStep
	if tr.offset < 0 {
		tr.offset = 0
	}
}

// Offset returns the current scrollback offset in lines.
func (tr *Transcript) Offset() int {
	return tr.offset
}

// maxOffset is the largest scrollback offset that still fills the window.
func (tr *Transcript) maxOffset() int {
	lines := len(tr.renderLines())
	if lines <= tr.height {
		return 0
	}
	return lines - tr.height
}

// SetDimensions sets the component dimensions.
func (tr *Transcript) SetDimensions(width, height int) {
	tr.width = width
	tr.height = height
	if max := tr.maxOffset(); tr.offset > max {
		tr.offset = max
	}
}

// Width returns the current width.
func (tr *Transcript) Width() int {
	return tr.width
}

// Height returns the current height.
func (tr *Transcript) Height() int {
	return tr.height
}
