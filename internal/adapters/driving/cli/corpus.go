package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pitwall/internal/adapters/driven/corpus/github"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/corpus/local"
)

var (
	corpusSyncOwner string
	corpusSyncRepo  string
	corpusSyncRef   string
	corpusSyncPath  string
	corpusSyncToken string
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the rulebook corpus",
	Long:  `Manage the local rulebook corpus the engine answers rules questions from.`,
}

var corpusSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the rulebook from its GitHub repository",
	Long: `Downloads the rulebook files from the configured GitHub repository
into the local corpus directory. Flags override the corpus.github.*
configuration keys.`,
	RunE: runCorpusSync,
}

var corpusStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local corpus state",
	RunE:  runCorpusStatus,
}

func init() {
	corpusSyncCmd.Flags().StringVar(&corpusSyncOwner, "owner", "", "repository owner")
	corpusSyncCmd.Flags().StringVar(&corpusSyncRepo, "repo", "", "repository name")
	corpusSyncCmd.Flags().StringVar(&corpusSyncRef, "ref", "", "branch, tag, or commit (default: the repository's default branch)")
	corpusSyncCmd.Flags().StringVar(&corpusSyncPath, "path", "", "subtree holding the rulebook (default: repository root)")
	corpusSyncCmd.Flags().StringVar(&corpusSyncToken, "token", "", "GitHub token for private repositories")

	corpusCmd.AddCommand(corpusSyncCmd)
	corpusCmd.AddCommand(corpusStatusCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusSync(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cfg := github.Config{
		Owner: corpusSyncOwner,
		Repo:  corpusSyncRepo,
		Ref:   corpusSyncRef,
		Path:  corpusSyncPath,
		Token: corpusSyncToken,
	}
	if cfg.Owner == "" {
		cfg.Owner = configStore.GetString(keyCorpusGHOwner)
	}
	if cfg.Repo == "" {
		cfg.Repo = configStore.GetString(keyCorpusGHRepo)
	}
	if cfg.Ref == "" {
		cfg.Ref = configStore.GetString(keyCorpusGHRef)
	}
	if cfg.Path == "" {
		cfg.Path = configStore.GetString(keyCorpusGHPath)
	}
	if cfg.Token == "" {
		cfg.Token = configStore.GetString(keyCorpusGHToken)
	}

	if cfg.Owner == "" || cfg.Repo == "" {
		return errors.New("no rulebook repository configured: pass --owner and --repo or set corpus.github.owner and corpus.github.repo")
	}

	dir, err := corpusDir()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	fetcher, err := github.NewFetcher(ctx, cfg)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Syncing %s into %s...\n", fetcher.Source(), dir)
	result, err := fetcher.Sync(ctx, dir)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Synced %d file(s) (%d bytes) at %s\n", result.Files, result.Bytes, result.Ref)
	return nil
}

func runCorpusStatus(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	dir, err := corpusDir()
	if err != nil {
		return err
	}

	index := local.New(dir)
	if err := index.Load(); err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	defer index.Close()

	cmd.Printf("Corpus directory: %s\n", dir)
	cmd.Printf("Indexed sections: %d\n", index.SectionCount())
	if index.SectionCount() == 0 {
		cmd.Println()
		cmd.Println("The corpus is empty. Run 'pitwall corpus sync' or drop rulebook")
		cmd.Println("files (.md or .txt) into the directory above.")
	}
	return nil
}
