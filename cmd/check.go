package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ikonwatch/config"
	"ikonwatch/internal/ikon"
	"ikonwatch/logger"
	"ikonwatch/services/availability"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// check is an operator smoke test: one login, one fetch, a table of what
// the watch loop would see. Nothing is sent and nothing is marked notified.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Log in, fetch availability once, and print it without sending alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			godotenv.Load()
			logger.Init()

			cfg := config.LoadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := ikon.NewClient(cfg.LoginURL, ikon.Credentials{
				Email:    cfg.LoginEmail,
				Password: cfg.LoginPassword,
			})
			sess, err := client.Login(ctx)
			if err != nil {
				return err
			}

			fetcher := availability.NewFetcher(cfg.FetchURL, cfg.DesiredDates, cfg.FetchMaxRetries, cfg.FetchBackoffBase)
			records, err := fetcher.Fetch(ctx, sess)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Pass", "Date", "Open"})
			for _, r := range records {
				t.AppendRow(table.Row{r.PassID, r.Date, r.Open})
			}
			t.Render()

			desired := availability.NewDateSet(cfg.DesiredDates...)
			open := availability.Evaluate(records, desired, availability.NewDateSet())
			if open.Len() > 0 {
				logger.Info("Watch would alert for: %v", open.Sorted())
			} else {
				logger.Info("No desired dates are currently open")
			}
			return nil
		},
	}
}
