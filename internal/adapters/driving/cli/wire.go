package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pitwall/internal/adapters/driven/ai"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/corpus/httpkb"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/corpus/local"
	livemcp "github.com/custodia-labs/pitwall/internal/adapters/driven/livedata/mcp"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/livedata/sheets"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
	"github.com/custodia-labs/pitwall/internal/core/services"
)

// Adapter config keys. Engine settings (classifier, retrieval, session,
// generator) go through the settings service; these keys configure the
// infrastructure around it and are read straight from the config store.
const (
	keyCorpusDir      = "corpus.dir"
	keyCorpusKBURL    = "corpus.kb.base_url"
	keyCorpusKBAPIKey = "corpus.kb.api_key"

	keyCorpusGHOwner = "corpus.github.owner"
	keyCorpusGHRepo  = "corpus.github.repo"
	keyCorpusGHRef   = "corpus.github.ref"
	keyCorpusGHPath  = "corpus.github.path"
	keyCorpusGHToken = "corpus.github.token"

	keyLiveMCPEndpoint = "livedata.mcp.endpoint"
	keyLiveMCPCommand  = "livedata.mcp.command"
	keyLiveMCPArgs     = "livedata.mcp.args"
	keyLiveMCPTool     = "livedata.mcp.tool"
	keyLiveMCPRPS      = "livedata.mcp.rps"

	keySheetsID     = "livedata.sheets.spreadsheet_id"
	keySheetsAPIKey = "livedata.sheets.api_key"
	keySheetsRanges = "livedata.sheets.ranges"
	keySheetsRPS    = "livedata.sheets.rps"

	keyStorageBackend = "storage.backend"
	keyStorageDataDir = "storage.data_dir"

	keyHTTPAddr = "http.addr"
)

// defaultHTTPAddr is where serve listens when nothing is configured.
const defaultHTTPAddr = ":8080"

// ensureEngine wires the full answer pipeline: corpus searcher, live
// data source, generator, session store, and the core services. Called
// by the commands that answer questions (ask, serve, chat, mcp serve);
// a no-op when a chat service is already present.
//
// Wiring degrades instead of failing wherever the engine can still
// answer: a missing live-data source or generator produces a warning
// and a degraded-capable engine, not an error.
func ensureEngine(cmd *cobra.Command) error {
	if chatService != nil {
		return nil
	}
	if settingsService == nil || configStore == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	engineSettings = settings

	corpus, err := buildCorpus(cmd)
	if err != nil {
		return err
	}

	live := buildLiveData(cmd)
	gen := buildGenerator(cmd)

	store, err := buildSessionStore()
	if err != nil {
		return err
	}
	sessionStore = store

	var extraRules, extraDynamic []string
	if settingsConcrete != nil {
		extraRules, extraDynamic = settingsConcrete.GetClassifierCues()
	}

	classifier := services.NewClassifierService(services.ClassifierConfig{
		InclusionThreshold: settings.Classifier.InclusionThreshold,
		ContinuityBoost:    settings.Classifier.ContinuityBoost,
		ExtraRulesCues:     extraRules,
		ExtraDynamicCues:   extraDynamic,
	})
	router := services.NewRouterService(corpus, live, services.RouterConfig{
		Timeout:    settings.Retrieval.Timeout,
		FetchLimit: settings.Retrieval.MaxContextItems,
	})
	composer := services.NewComposerService(gen, services.ComposerConfig{
		MaxContextItems: settings.Retrieval.MaxContextItems,
	})

	chatService = services.NewChatService(classifier, router, composer, store, services.ChatConfig{
		SessionWindow: settings.Session.WindowSize,
		SessionTTL:    settings.Session.TTL,
	})
	return nil
}

// buildCorpus wires the rulebook searcher: a hosted knowledge base when
// one is configured, otherwise the local corpus directory. An empty
// local corpus is tolerated with a warning so first-run users can reach
// 'pitwall corpus sync'.
func buildCorpus(cmd *cobra.Command) (driven.CorpusSearcher, error) {
	if baseURL := configStore.GetString(keyCorpusKBURL); baseURL != "" {
		searcher, err := httpkb.NewSearcher(httpkb.Config{
			BaseURL: baseURL,
			APIKey:  configStore.GetString(keyCorpusKBAPIKey),
		})
		if err != nil {
			return nil, fmt.Errorf("knowledge base: %w", err)
		}
		return searcher, nil
	}

	dir, err := corpusDir()
	if err != nil {
		return nil, err
	}

	index := local.New(dir)
	if err := index.Load(); err != nil {
		cmd.PrintErrf("Warning: corpus not loaded (%v)\n", err)
	}
	if index.SectionCount() == 0 {
		cmd.PrintErrf("Warning: no rulebook sections under %s - run 'pitwall corpus sync' or add rulebook files there\n", dir)
	}

	corpusIndex = index
	cleanups = append(cleanups, func() { _ = index.Close() })
	return index, nil
}

// corpusDir resolves the rulebook corpus directory from configuration.
func corpusDir() (string, error) {
	if dir := configStore.GetString(keyCorpusDir); dir != "" {
		return dir, nil
	}
	return local.DefaultDir()
}

// buildLiveData wires the live-data source: the MCP bridge when one is
// configured, the spreadsheet directly otherwise. Returns nil when
// neither is configured or the connection fails; dynamic-data questions
// then degrade per answer.
func buildLiveData(cmd *cobra.Command) driven.LiveDataSource {
	ctx := cmd.Context()

	endpoint := configStore.GetString(keyLiveMCPEndpoint)
	command := configStore.GetString(keyLiveMCPCommand)
	if endpoint != "" || command != "" {
		src, err := livemcp.NewSource(ctx, livemcp.Config{
			Endpoint: endpoint,
			Command:  command,
			Args:     configStore.GetStringSlice(keyLiveMCPArgs),
			Tool:     configStore.GetString(keyLiveMCPTool),
			RPS:      configStore.GetFloat(keyLiveMCPRPS),
		})
		if err != nil {
			cmd.PrintErrf("Warning: live data unavailable (%v); pricing and schedule answers will be degraded\n", err)
			return nil
		}
		cleanups = append(cleanups, func() { _ = src.Close() })
		return src
	}

	if spreadsheetID := configStore.GetString(keySheetsID); spreadsheetID != "" {
		src, err := sheets.NewSource(ctx, sheets.Config{
			SpreadsheetID: spreadsheetID,
			APIKey:        configStore.GetString(keySheetsAPIKey),
			Ranges:        configStore.GetStringSlice(keySheetsRanges),
			RPS:           configStore.GetFloat(keySheetsRPS),
		})
		if err != nil {
			cmd.PrintErrf("Warning: live data unavailable (%v); pricing and schedule answers will be degraded\n", err)
			return nil
		}
		cleanups = append(cleanups, func() { _ = src.Close() })
		return src
	}

	cmd.PrintErrln("Warning: no live data source configured; pricing and schedule answers will be degraded")
	return nil
}

// buildGenerator wires the generation backend from settings and pings
// it. A missing or unreachable backend means extractive answers, never
// a refusal to start.
func buildGenerator(cmd *cobra.Command) driven.Generator {
	if engineSettings == nil || !engineSettings.Generator.IsConfigured() {
		cmd.PrintErrln("Note: no generation backend configured; answers will quote retrieved passages directly")
		return nil
	}

	var prompts driven.PromptStore
	if ps, err := file.NewPromptStore(promptDir()); err != nil {
		cmd.PrintErrf("Warning: prompt store unavailable (%v); using built-in prompts\n", err)
	} else {
		prompts = ps
	}

	gen, err := ai.CreateAndValidateGenerator(&engineSettings.Generator, prompts)
	if err != nil {
		cmd.PrintErrf("Warning: %v; answers will quote retrieved passages directly\n", err)
		return nil
	}
	if gen == nil {
		return nil
	}

	cleanups = append(cleanups, func() { _ = gen.Close() })
	return gen
}

// promptDir places the prompt files next to the configuration when a
// custom config dir is in use.
func promptDir() string {
	if configDirFlag == "" {
		return ""
	}
	return filepath.Join(configDirFlag, "prompts")
}

// buildSessionStore wires conversation storage: SQLite when configured,
// in-memory otherwise.
func buildSessionStore() (driven.SessionStore, error) {
	switch backend := configStore.GetString(keyStorageBackend); backend {
	case "", "memory":
		return memory.NewSessionStore(), nil

	case "sqlite":
		store, err := sqlite.NewStore(configStore.GetString(keyStorageDataDir))
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		cleanups = append(cleanups, func() { _ = store.Close() })
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q (memory or sqlite)", backend)
	}
}

// httpAddr resolves the serve listen address: flag, then config, then
// the default port.
func httpAddr(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if configStore != nil {
		if addr := configStore.GetString(keyHTTPAddr); addr != "" {
			return addr
		}
	}
	return defaultHTTPAddr
}
