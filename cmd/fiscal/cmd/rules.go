package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/walisonlf/fiscal/internal/catalogue"
	"github.com/walisonlf/fiscal/internal/core/db"
	"github.com/walisonlf/fiscal/internal/types"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the rule catalogue",
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the active catalogue as a JSON document",
	RunE:  runRulesExport,
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a catalogue document into the rule store",
	Long: `Validates and imports a catalogue document. The document must carry the
cfop, cst_icms and cst_pis_cofins sections and every rule must compile;
otherwise nothing is stored. Requires --db-url.`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesImport,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the codes the active catalogue covers",
	RunE:  runRulesList,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesImportCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesExportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}

func runRulesExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat, err := loadCatalogue(cfg)
	if err != nil {
		return err
	}

	data, err := cat.Export()
	if err != nil {
		return fmt.Errorf("failed to export catalogue: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err = fmt.Println(string(data))
		return err
	}
	return os.WriteFile(output, data, 0o644)
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DBURL == "" {
		return fmt.Errorf("--db-url required")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	cat := catalogue.New()
	if err := cat.Import(data); err != nil {
		return fmt.Errorf("document rejected: %w", err)
	}

	database, err := db.Open(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	store, err := db.NewRuleStore(database)
	if err != nil {
		return err
	}
	if err := store.SaveCatalogue(cat); err != nil {
		return err
	}

	fmt.Printf("imported %d codes (revision %s)\n", cat.Len(), cat.Revision())
	return nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat, err := loadCatalogue(cfg)
	if err != nil {
		return err
	}

	for _, partition := range []string{types.PartitionCFOP, types.PartitionCSTICMS, types.PartitionCSTPISCOFINS} {
		for _, code := range cat.Codes(partition) {
			fmt.Printf("%s\t%s\t%s\n", partition, code, cat.Describe(partition, code))
		}
	}
	return nil
}
