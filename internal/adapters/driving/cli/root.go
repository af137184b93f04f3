// Package cli implements the command-line driving adapter for Pitwall.
//
// Commands are thin: they parse flags, call the driving ports, and
// format output. Service wiring lives in wire.go; tests inject mock
// services through the package-level variables instead.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pitwall/internal/adapters/driven/ai"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/corpus/local"
	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
	"github.com/custodia-labs/pitwall/internal/core/ports/driving"
	"github.com/custodia-labs/pitwall/internal/core/services"
	"github.com/custodia-labs/pitwall/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	verboseFlag   bool
	configDirFlag string
)

// Wired services. initBaseServices fills the cheap ones before any
// command runs; ensureEngine builds the answer pipeline on demand.
// Tests assign these directly to bypass wiring.
var (
	configStore     driven.ConfigStore
	settingsService driving.SettingsService
	chatService     driving.ChatService

	// settingsConcrete keeps the concrete settings service for the
	// wiring-only accessors not on the driving port.
	settingsConcrete *services.SettingsService

	// corpusIndex is the local rulebook index, when one backs the
	// corpus. nil when a hosted knowledge base is configured.
	corpusIndex *local.Searcher

	// sessionStore holds conversations for the engine's lifetime.
	sessionStore driven.SessionStore

	// engineSettings is the settings snapshot the engine was built from.
	engineSettings *domain.AppSettings

	// cleanups close wired adapters after the command finishes.
	cleanups []func()
)

var rootCmd = &cobra.Command{
	Use:   "pitwall",
	Short: "Answer racing series questions from the rulebook and live paddock data",
	Long: `Pitwall answers natural-language questions about a spec-racing series.

Questions are classified by intent, retrieved from the series rulebook
and the live parts/schedule data as needed, and answered with source
citations. Run 'pitwall serve' for the HTTP chat API, 'pitwall ask' for
a one-shot question, or 'pitwall chat' for an interactive session.`,
	SilenceUsage:      true,
	PersistentPreRunE: rootPreRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"print the answer pipeline stages to stderr")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "",
		"configuration directory (default ~/.pitwall)")
}

// rootPreRun applies global flags and wires the base services every
// command needs. Wiring is skipped when a service is already present,
// so tests can inject fakes.
func rootPreRun(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)

	if settingsService != nil {
		return nil
	}
	return initBaseServices()
}

// initBaseServices wires the config store and the settings service.
// The answer pipeline is heavier (corpus load, live-data connect,
// generator ping) and is built lazily by ensureEngine.
func initBaseServices() error {
	store, err := file.NewConfigStore(configDirFlag)
	if err != nil {
		return err
	}

	configStore = store
	settingsConcrete = services.NewSettingsService(store, ai.NewConfigValidator())
	settingsService = settingsConcrete
	return nil
}

// Execute runs the root command and releases wired adapters afterwards.
func Execute() error {
	defer runCleanups()
	return rootCmd.Execute()
}

// runCleanups closes wired adapters in reverse wiring order.
func runCleanups() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
}
