package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/VantageDataChat/LyricDeck"
	"github.com/VantageDataChat/LyricDeck/internal/logging"
	"github.com/VantageDataChat/LyricDeck/internal/metrics"
	"github.com/VantageDataChat/LyricDeck/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.MustNewMetrics(reg)

			srv := server.New(server.Options{
				Config:    a.cfg.Server,
				Enricher:  a.enricher(m.EnrichHooks()),
				BatchSize: a.cfg.Enrich.BatchSize,
				Metrics:   m,
				Gatherer:  reg,
				Logger:    logging.NewComponentLogger("server"),
			})

			mode := "gemini " + a.cfg.Gemini.Model
			switch {
			case a.cfg.Enrich.RemoteURL != "":
				mode = "remote " + a.cfg.Enrich.RemoteURL
			case a.cfg.Gemini.APIKey == "":
				mode = yellow("disabled (GEMINI_API_KEY is not set)")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s, enrichment: %s\n",
				bold("lyricdeck"), lyricdeck.Version, green(a.cfg.Server.Addr), mode)

			return srv.Run(ctx)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().StringSlice("cors-origin", []string{"*"}, "allowed CORS origins")
	cmd.Flags().Int("rate-limit", 60, "requests per minute per client, 0 disables")
	a.bind(cmd, map[string]string{
		"addr":        "server.addr",
		"cors-origin": "server.cors_origins",
		"rate-limit":  "server.requests_per_minute",
	})
	return cmd
}
