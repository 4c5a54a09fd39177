package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/agendaviva/ingest/internal/discovery"
	"github.com/agendaviva/ingest/pkg/brave"
)

var discoverSweep bool

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search the web for new scraping sources",
	Long:  "Runs municipality x keyword searches against Brave Search and registers unseen result URLs as inactive sources pending human review.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		var search brave.Client
		if cfg.Brave.Key != "" {
			search = brave.NewClient(cfg.Brave.Key,
				brave.WithBaseURL(cfg.Brave.BaseURL),
				brave.WithCount(cfg.Brave.Count))
		}

		d := discovery.New(st, search,
			discovery.WithGrid(cfg.Discovery.Municipalities, cfg.Discovery.Keywords))

		res, err := d.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queries: %d  new sources: %d  reactivated: %d\n",
			res.QueriesRun, res.NewSources, res.Reactivated)

		if discoverSweep {
			swept, err := d.SweepStale(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("swept stale sources: %d\n", swept)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverSweep, "sweep", false, "also remove stale and fully-ended sources")
	rootCmd.AddCommand(discoverCmd)
}
