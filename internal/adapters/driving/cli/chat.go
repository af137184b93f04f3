package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pitwall/internal/adapters/driving/tui"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive chat terminal UI",
	Long: `Launch the interactive terminal interface for Pitwall.

Type a question and press Enter; answers cite the rulebook sections and
live data rows they came from. The conversation carries context, so
follow-up questions stay on topic.

Controls:
  Enter    - Send question
  ↑/↓      - Scroll the conversation
  Ctrl+R   - Reset the conversation
  Esc      - Quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", tui.DefaultSession, "session key for conversation context")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	// Panic recovery keeps a stack trace visible after the alt screen
	// is torn down.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := ensureEngine(cmd); err != nil {
		return err
	}

	app, err := tui.NewApp(tui.NewPorts(chatService), chatSession)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
