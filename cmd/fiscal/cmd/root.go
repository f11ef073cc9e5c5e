package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/walisonlf/fiscal/internal/catalogue"
	"github.com/walisonlf/fiscal/internal/core/config"
	"github.com/walisonlf/fiscal/internal/core/db"
	"github.com/walisonlf/fiscal/internal/types"
)

var (
	configFile string
	dbURL      string
)

var rootCmd = &cobra.Command{
	Use:   "fiscal",
	Short: "Fiscal spreadsheet validation engine",
	Long:  `Validates fiscal spreadsheet rows against CFOP, CST ICMS, CST PIS and CST COFINS rule catalogues.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the config file and folds persistent flags over it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.DBURL = dbURL
	}
	return cfg, nil
}

// loadCatalogue resolves the rule catalogue: the rule store when one is
// configured and populated, a rules file when one is named, the embedded
// defaults otherwise.
func loadCatalogue(cfg *config.Config) (*catalogue.Catalogue, error) {
	if cfg.DBURL != "" {
		database, err := db.Open(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		store, err := db.NewRuleStore(database)
		if err != nil {
			return nil, err
		}

		cat, err := store.LoadCatalogue()
		if err == nil {
			return cat, nil
		}
		if !errors.Is(err, types.ErrRuleNotFound) {
			return nil, err
		}
		// Empty store: fall through to file or defaults
	}

	if cfg.RulesPath != "" {
		data, err := os.ReadFile(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules file: %w", err)
		}
		cat := catalogue.New()
		if err := cat.Import(data); err != nil {
			return nil, fmt.Errorf("rules file %s: %w", cfg.RulesPath, err)
		}
		return cat, nil
	}

	return catalogue.Default()
}
