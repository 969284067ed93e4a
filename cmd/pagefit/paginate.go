package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagefit/internal/api"
	"github.com/jackzampolin/pagefit/internal/document"
	"github.com/jackzampolin/pagefit/internal/preview"
	"github.com/jackzampolin/pagefit/internal/session"
)

var (
	paginateOptimize bool
	paginatePaper    string
	paginateAdvise   bool
)

var paginateCmd = &cobra.Command{
	Use:   "paginate <file>",
	Short: "Measure and paginate a document once",
	Long: `Measure every section of a YAML or JSON document, pack the sections onto
pages and report fit scores, layout defects and suggestions.

Examples:
  pagefit paginate resume.yaml
  pagefit paginate resume.yaml --paper Letter --optimize
  pagefit paginate resume.json -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := newLogger()
		if err != nil {
			return err
		}
		cm, _, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := *cm.Get()
		if paginatePaper != "" {
			cfg.Pagination.PaperSize = paginatePaper
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid --paper: %w", err)
			}
		}
		if paginateAdvise {
			cfg.Rephrase.Enabled = true
		}

		doc, err := document.Load(args[0])
		if err != nil {
			return err
		}

		svc, err := session.NewPreview(&cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		opts := svc.Options()
		opts.Optimize = opts.Optimize || paginateOptimize

		result := svc.PaginationResult(svc.MeasureNow(ctx, doc.Sections), opts)
		result = svc.Advise(ctx, result)

		if api.IsText() {
			return preview.WriteSummary(cmd.OutOrStdout(), result)
		}
		return api.Output(result)
	},
}

func init() {
	paginateCmd.Flags().BoolVar(&paginateOptimize, "optimize", false, "Also report the first-fit-decreasing arrangement")
	paginateCmd.Flags().StringVar(&paginatePaper, "paper", "", "Paper size, e.g. A4, Letter, A4L (overrides config)")
	paginateCmd.Flags().BoolVar(&paginateAdvise, "advise", false, "Ask the rephrase model for shorter wording of overflowing sections")

	rootCmd.AddCommand(paginateCmd)
}
