package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/walisonlf/fiscal/internal/ingest"
	"github.com/walisonlf/fiscal/internal/types"
	"github.com/walisonlf/fiscal/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file.csv>",
	Short: "Validate a spreadsheet export",
	Long: `Reads a CSV export, validates every row against the rule catalogue and
writes one JSON result per row followed by a batch summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("delimiter", "", "CSV field delimiter (default from config)")
	validateCmd.Flags().Int("cache-limit", 0, "result cache entry limit, 0 for unbounded")
	validateCmd.Flags().Bool("summary-only", false, "print only the batch summary")
}

// rowReport is one output line: the row's position and its findings.
type rowReport struct {
	Row      int             `json:"row"`
	Valid    bool            `json:"valid"`
	Errors   []types.Finding `json:"errors,omitempty"`
	Warnings []types.Finding `json:"warnings,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	delimiter := cfg.Delimiter()
	if cmd.Flags().Changed("delimiter") {
		d, _ := cmd.Flags().GetString("delimiter")
		if len([]rune(d)) != 1 {
			return fmt.Errorf("delimiter must be a single character, got %q", d)
		}
		delimiter = []rune(d)[0]
	}

	cacheLimit := cfg.CacheLimit
	if cmd.Flags().Changed("cache-limit") {
		cacheLimit, _ = cmd.Flags().GetInt("cache-limit")
	}
	summaryOnly, _ := cmd.Flags().GetBool("summary-only")

	cat, err := loadCatalogue(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	rows, err := ingest.NewReader(ingest.WithDelimiter(delimiter)).Read(f)
	if err != nil {
		return err
	}

	if missing := ingest.MissingColumns(rows); len(missing) > 0 {
		log.Printf("warning: input lacks columns: %s", strings.Join(missing, ", "))
	}

	engine := validator.New(cat, validator.WithCacheLimit(cacheLimit))
	results, summary := engine.ValidateAll(rows)

	enc := json.NewEncoder(os.Stdout)
	if !summaryOnly {
		for i, result := range results {
			report := rowReport{Row: i + 1, Valid: result.Valid}
			if len(result.Errors) > 0 {
				report.Errors = result.Errors
			}
			if len(result.Warnings) > 0 {
				report.Warnings = result.Warnings
			}
			if err := enc.Encode(report); err != nil {
				return err
			}
		}
	}

	return enc.Encode(summary)
}
