package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage engine settings",
	Long: `View and configure the classifier, retrieval, session memory, and the
answer generation backend.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsGeneratorCmd = &cobra.Command{
	Use:   "generator",
	Short: "Configure the answer generation backend",
	Long: `Configure the provider that phrases answers from retrieved content.

Without a generation backend the engine still works: answers quote the
retrieved rulebook sections and data rows directly.`,
	RunE: runSettingsGenerator,
}

var settingsClassifierCmd = &cobra.Command{
	Use:   "classifier",
	Short: "Tune intent classification",
	Long: `Tune how queries are classified.

The inclusion threshold is the minimum confidence for an intent label to
be included; the continuity boost favours the previous turn's topic on
follow-up questions.`,
	RunE: runSettingsClassifier,
}

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval",
	Short: "Tune knowledge source calls",
	Long: `Tune knowledge source behaviour: the per-call timeout and how many
retrieved items feed one answer.`,
	RunE: runSettingsRetrieval,
}

var settingsSessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Tune conversation memory",
	Long: `Tune conversation memory: how many turns each session retains and how
long idle sessions survive.`,
	RunE: runSettingsSession,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsGeneratorCmd)
	settingsCmd.AddCommand(settingsClassifierCmd)
	settingsCmd.AddCommand(settingsRetrievalCmd)
	settingsCmd.AddCommand(settingsSessionCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Classifier]")
	cmd.Printf("  Inclusion threshold: %.2f\n", settings.Classifier.InclusionThreshold)
	cmd.Printf("  Continuity boost: %.2f\n", settings.Classifier.ContinuityBoost)
	if settingsConcrete != nil {
		rules, dynamic := settingsConcrete.GetClassifierCues()
		if len(rules) > 0 || len(dynamic) > 0 {
			cmd.Printf("  Extra cues: %d rules, %d dynamic\n", len(rules), len(dynamic))
		}
	}
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Source timeout: %s\n", settings.Retrieval.Timeout)
	cmd.Printf("  Max context items: %d\n", settings.Retrieval.MaxContextItems)
	cmd.Println()

	cmd.Println("[Session]")
	cmd.Printf("  Window size: %d turns\n", settings.Session.WindowSize)
	cmd.Printf("  Idle TTL: %s\n", settings.Session.TTL)
	cmd.Println()

	cmd.Println("[Generator]")
	if settings.Generator.Provider == "" {
		cmd.Println("  Provider: (not set)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.Generator.Provider.Description())
		cmd.Printf("  Model: %s\n", settings.Generator.Model)
		if settings.Generator.Provider.IsLocal() {
			cmd.Printf("  Base URL: %s\n", settings.Generator.BaseURL)
		}
		if settings.Generator.Provider.RequiresAPIKey() {
			if settings.Generator.APIKey != "" {
				cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Generator.APIKey))
			} else {
				cmd.Printf("  API Key: (not set)\n")
			}
		}
	}
	if settings.Generator.IsConfigured() {
		cmd.Println("  Status: configured")
	} else {
		cmd.Println("  Status: not configured (answers are extractive)")
	}
	cmd.Println()

	if settings.Generator.IsConfigured() {
		if err := settingsService.ValidateGeneratorConfig(); err != nil {
			cmd.Printf("Warning: %v\n", err)
			cmd.Println("Run 'pitwall settings wizard' to fix configuration issues.")
			return nil
		}
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Pitwall Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)

	// Step 1: Generation backend
	cmd.Println("Step 1: Answer Generation Backend")
	cmd.Println("---------------------------------")
	cmd.Println("Pitwall can phrase answers with a generation backend, or quote")
	cmd.Println("retrieved passages directly when none is configured.")
	cmd.Println()
	if err := configureGenerator(cmd, reader); err != nil {
		return err
	}

	// Step 2: Classification
	cmd.Println("Step 2: Intent Classification")
	cmd.Println("-----------------------------")
	if err := configureClassifier(cmd, reader); err != nil {
		return err
	}

	// Step 3: Conversation memory
	cmd.Println("Step 3: Conversation Memory")
	cmd.Println("---------------------------")
	if err := configureSession(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Println("All settings are saved.")
	return nil
}

func runSettingsGenerator(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureGenerator(cmd, reader)
}

func runSettingsClassifier(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureClassifier(cmd, reader)
}

func runSettingsRetrieval(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Printf("Source timeout [%s]: ", settings.Retrieval.Timeout)
	timeout := parseDurationInput(readLine(reader), settings.Retrieval.Timeout)

	cmd.Printf("Max context items [%d]: ", settings.Retrieval.MaxContextItems)
	maxItems := parseIntInput(readLine(reader), settings.Retrieval.MaxContextItems)

	if err := settingsService.SetRetrieval(timeout, maxItems); err != nil {
		return fmt.Errorf("failed to configure retrieval: %w", err)
	}

	cmd.Printf("Retrieval configured: timeout=%s, max context items=%d\n", timeout, maxItems)
	return nil
}

func runSettingsSession(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureSession(cmd, reader)
}

func configureGenerator(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Generation Provider")
	providers := domain.AllGeneratorProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Printf("  %d. None (extractive answers only)\n", len(providers)+1)
	cmd.Printf("\nEnter choice [%d]: ", len(providers)+1)
	input := readLine(reader)
	idx := parseChoice(input, len(providers)+1, len(providers)+1)

	if idx == len(providers)+1 {
		cmd.Println("Skipping generation backend; answers will quote retrieved passages directly.")
		cmd.Println()
		return nil
	}
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultGeneratorModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetGenerator(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure generator: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateGeneratorConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("generator configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Generation backend configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

func configureClassifier(cmd *cobra.Command, reader *bufio.Reader) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Printf("Inclusion threshold (0-1) [%.2f]: ", settings.Classifier.InclusionThreshold)
	threshold := parseFloatInput(readLine(reader), settings.Classifier.InclusionThreshold)

	cmd.Printf("Continuity boost (0-1) [%.2f]: ", settings.Classifier.ContinuityBoost)
	boost := parseFloatInput(readLine(reader), settings.Classifier.ContinuityBoost)

	if err := settingsService.SetClassifier(threshold, boost); err != nil {
		return fmt.Errorf("failed to configure classifier: %w", err)
	}

	cmd.Printf("Classifier configured: threshold=%.2f, boost=%.2f\n\n", threshold, boost)
	return nil
}

func configureSession(cmd *cobra.Command, reader *bufio.Reader) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Printf("Turns retained per session [%d]: ", settings.Session.WindowSize)
	window := parseIntInput(readLine(reader), settings.Session.WindowSize)

	cmd.Printf("Idle session TTL [%s]: ", settings.Session.TTL)
	ttl := parseDurationInput(readLine(reader), settings.Session.TTL)

	if err := settingsService.SetSession(window, ttl); err != nil {
		return fmt.Errorf("failed to configure session memory: %w", err)
	}

	cmd.Printf("Session memory configured: window=%d, ttl=%s\n\n", window, ttl)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func parseFloatInput(input string, defaultVal float64) float64 {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return defaultVal
	}
	return val
}

func parseIntInput(input string, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil {
		return defaultVal
	}
	return val
}

func parseDurationInput(input string, defaultVal time.Duration) time.Duration {
	if input == "" {
		return defaultVal
	}
	val, err := time.ParseDuration(input)
	if err != nil {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
