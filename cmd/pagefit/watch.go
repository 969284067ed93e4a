package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagefit/internal/api"
	"github.com/jackzampolin/pagefit/internal/document"
	"github.com/jackzampolin/pagefit/internal/preview"
	"github.com/jackzampolin/pagefit/internal/session"
	"github.com/jackzampolin/pagefit/internal/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-paginate a document every time it is saved",
	Long: `Watch a document file and its config. Each save schedules a measurement
pass; when the pass publishes, the new pagination is printed.

Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		logger, err := newLogger()
		if err != nil {
			return err
		}
		cm, _, err := loadConfig()
		if err != nil {
			return err
		}

		doc, err := document.Load(path)
		if err != nil {
			return err
		}

		svc, err := session.NewPreview(cm.Get(), logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		if cm.ConfigFile() != "" {
			cm.OnChange(session.Reloader(svc, logger))
			cm.WatchConfig()
		}

		out := cmd.OutOrStdout()
		var mu sync.Mutex
		svc.Subscribe(func(ms []types.Measurement) {
			result := svc.PaginationResult(ms, svc.Options())
			mu.Lock()
			defer mu.Unlock()
			if api.IsText() {
				fmt.Fprintf(out, "\n== %s  %s ==\n", time.Now().Format(time.TimeOnly), path)
				if err := preview.WriteSummary(out, result); err != nil {
					logger.Warn("failed to write summary", "error", err)
				}
				return
			}
			if err := api.OutputTo(out, api.GetOutputFormat(), result); err != nil {
				logger.Warn("failed to write result", "error", err)
			}
		})

		w, err := document.NewWatcher(path, logger, func(d *document.Document) {
			svc.OnDocumentChanged(d.Sections, d)
		})
		if err != nil {
			return err
		}

		svc.OnDocumentChanged(doc.Sections, doc)
		logger.Info("watching document", "path", path, "sections", len(doc.Sections))
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
