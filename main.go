package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"city-library/config"
	"city-library/library"
)

var (
	configPath string
	dataDir    string
	backend    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "city-library",
	Short:        "City library catalog and circulation console",
	Long:         "Add books and members, issue and return books, search and sort the catalog.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := openManager()
		if err != nil {
			return err
		}

		in := cmd.InOrStdin()
		interactive := isTerminal(in)
		if interactive {
			stats := mgr.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "%d books (%d issued), %d members\n", stats.Books, stats.Issued, stats.Members)
		}
		return newShell(in, cmd.OutOrStdout(), mgr, interactive).run()
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every book sorted by title",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, store, err := openManager()
		if err != nil {
			return err
		}
		defer store.Close()

		books := mgr.SortBooks()
		if len(books) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No books in library.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Library (%d books)\n", len(books))
		fmt.Fprintln(cmd.OutOrStdout(), renderBooks(books))
		return nil
	},
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List every member and the books they hold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, store, err := openManager()
		if err != nil {
			return err
		}
		defer store.Close()

		members := mgr.Members()
		if len(members) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No members registered.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderMembers(members))
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search books by title, author or category",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, store, err := openManager()
		if err != nil {
			return err
		}
		defer store.Close()

		// The shell's search output is reused so both surfaces agree.
		sh := newShell(strings.NewReader(strings.Join(args, " ")), cmd.OutOrStdout(), mgr, false)
		sh.handleSearchBooks()
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&dataDir, "data-dir", "", "directory holding the saved records")
	flags.StringVar(&backend, "backend", "", "storage backend: file or sqlite")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(searchCmd)
}

// openManager resolves configuration, opens the configured backend and loads
// the saved records.
func openManager() (*library.LibraryManager, library.Store, error) {
	if err := config.LoadEnv(".env"); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Override(dataDir, backend, logLevel); err != nil {
		return nil, nil, err
	}

	logger := config.NewLogger(cfg, os.Stderr)
	store, err := library.OpenStore(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	logger.Debug("store opened", "backend", cfg.Backend, "data_dir", cfg.DataDir)
	return library.NewLibraryManager(store, logger), store, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
