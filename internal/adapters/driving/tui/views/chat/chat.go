// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pitwall/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/pitwall/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/pitwall/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/pitwall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pitwall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pitwall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driving"
)

// View is the conversation view with transcript, input, and status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QueryInput
	transcript *transcript.Transcript
	statusbar  *status.Bar

	chatService driving.ChatService
	ctx         context.Context
	sessionID   string

	width   int
	height  int
	ready   bool
	waiting bool
	err     error
}

// NewView creates a new chat view bound to a session.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	chatService driving.ChatService,
	sessionID string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetSession(sessionID)

	return &View{
		styles:      s,
		keymap:      km,
		input:       input.NewQueryInput(s),
		transcript:  transcript.NewTranscript(s),
		statusbar:   bar,
		chatService: chatService,
		ctx:         context.Background(),
		sessionID:   sessionID,
		width:       80,
		height:      24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blink and restores earlier turns of the session.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadHistory())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswerReceived(msg)
		return v, nil

	case messages.HistoryLoaded:
		v.handleHistoryLoaded(msg)
		return v, nil

	case messages.SessionCleared:
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.transcript.Clear()
		v.statusbar.Clear()
		v.statusbar.SetMessage("Session reset")
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.ScrollUp):
		v.transcript.ScrollUp()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ScrollDown):
		v.transcript.ScrollDown()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Clear):
		return v, v.performReset()

	case keymap.Matches(keyStr, v.keymap.Send):
		return v.submit()
	}

	// Typing while an answer is in flight is fine; sending is not.
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question to the engine.
func (v *View) submit() (*View, tea.Cmd) {
	if v.waiting {
		return v, nil
	}

	query := strings.TrimSpace(v.input.Value())
	if query == "" {
		return v, nil
	}

	v.transcript.Append(transcript.Entry{
		Role: domain.RoleUser,
		Text: query,
	})
	v.input.Reset()
	v.waiting = true
	v.err = nil
	v.statusbar.SetState(status.StateThinking)

	return v, v.performAsk(query)
}

// performAsk runs one turn against the engine.
func (v *View) performAsk(query string) tea.Cmd {
	return func() tea.Msg {
		answer, err := v.chatService.Ask(v.ctx, v.sessionID, query)
		return messages.AnswerReceived{Answer: answer, Err: err}
	}
}

// performReset clears the session memory.
func (v *View) performReset() tea.Cmd {
	return func() tea.Msg {
		err := v.chatService.Reset(v.ctx, v.sessionID)
		return messages.SessionCleared{Err: err}
	}
}

// loadHistory restores earlier turns of the session, if any.
func (v *View) loadHistory() tea.Cmd {
	return func() tea.Msg {
		turns, err := v.chatService.History(v.ctx, v.sessionID)
		if err != nil {
			// A fresh session has no history to restore.
			if errors.Is(err, domain.ErrNotFound) {
				return messages.HistoryLoaded{}
			}
			return messages.HistoryLoaded{Err: err}
		}
		return messages.HistoryLoaded{Turns: turns}
	}
}

// handleAnswerReceived appends the engine's reply to the transcript.
func (v *View) handleAnswerReceived(msg messages.AnswerReceived) {
	v.waiting = false

	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.err = nil
	v.transcript.Append(transcript.Entry{
		Role:      domain.RoleAssistant,
		Text:      msg.Answer.Text,
		Citations: msg.Answer.Citations,
		Degraded:  msg.Answer.Degraded,
	})
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
	v.statusbar.SetTurnCount(v.transcript.Count())
}

// handleHistoryLoaded fills the transcript with the restored turns.
func (v *View) handleHistoryLoaded(msg messages.HistoryLoaded) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}
	if len(msg.Turns) == 0 {
		return
	}

	entries := make([]transcript.Entry, 0, len(msg.Turns))
	for _, turn := range msg.Turns {
		entries = append(entries, transcript.Entry{
			Role: turn.Role,
			Text: turn.Content,
		})
	}
	v.transcript.SetEntries(entries)
	v.statusbar.SetTurnCount(len(entries))
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("Pitwall") +
		v.styles.Muted.Render("  series rules & paddock data")

	sections := []string{
		header,
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	// Reserve space for header, input box, and status bar
	v.transcript.SetDimensions(width, height-8)
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// SessionID returns the session this view is bound to.
func (v *View) SessionID() string {
	return v.sessionID
}

// Waiting returns whether an answer is in flight.
func (v *View) Waiting() bool {
	return v.waiting
}

// Transcript returns the conversation component.
func (v *View) Transcript() *transcript.Transcript {
	return v.transcript
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}
