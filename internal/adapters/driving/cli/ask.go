package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

var (
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long: `Answers one question and exits.
Rules questions are answered from the rulebook corpus, pricing and
schedule questions from the live data source, and mixed questions from
both. Repeated asks with the same --session share conversation context.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "cli", "session key for conversation context")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureEngine(cmd); err != nil {
		return err
	}

	answer, err := chatService.Ask(context.Background(), askSession, args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}

	outputAnswerText(cmd, answer)
	return nil
}

// answerPayload is the --json output shape.
type answerPayload struct {
	Text      string            `json:"text"`
	Intents   []string          `json:"intents"`
	Citations []citationPayload `json:"citations,omitempty"`
	Degraded  bool              `json:"degraded"`
}

type citationPayload struct {
	Source  string `json:"source"`
	Locator string `json:"locator,omitempty"`
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	payload := answerPayload{
		Text:     answer.Text,
		Degraded: answer.Degraded,
	}
	for _, label := range answer.Classification.Labels() {
		payload.Intents = append(payload.Intents, string(label))
	}
	for _, c := range answer.Citations {
		payload.Citations = append(payload.Citations, citationPayload{
			Source:  c.Label,
			Locator: c.Reference,
		})
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range answer.Citations {
			if c.Reference != "" {
				cmd.Printf("  - %s (%s)\n", c.Label, c.Reference)
			} else {
				cmd.Printf("  - %s\n", c.Label)
			}
		}
	}

	if answer.Degraded {
		cmd.Println()
		cmd.Println("Note: some information sources were unavailable; this answer may be incomplete.")
	}
}
