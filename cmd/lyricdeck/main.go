package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/VantageDataChat/LyricDeck/enrich"
	"github.com/VantageDataChat/LyricDeck/internal/config"
	"github.com/VantageDataChat/LyricDeck/internal/logging"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// app carries state shared by the subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "lyricdeck",
		Short:         "Turn worship lyrics into pinyin-annotated PowerPoint decks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./lyricdeck.yaml or $HOME/.config/lyricdeck/lyricdeck.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text, json")
	flags.String("gemini-model", enrich.DefaultGeminiModel, "Gemini model used for enrichment")
	flags.String("enrich-url", "", "base URL of a LyricDeck server to enrich through instead of calling Gemini")
	a.bind(root, map[string]string{
		"log-level":    "log.level",
		"log-format":   "log.format",
		"gemini-model": "gemini.model",
		"enrich-url":   "enrich.remote_url",
	})

	root.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
		newParseCmd(a),
		newVersionCmd(),
	)
	return root
}

// bind maps flag names of cmd to config keys.
func (a *app) bind(cmd *cobra.Command, keys map[string]string) {
	for name, key := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.PersistentFlags().Lookup(name)
		}
		if flag == nil {
			panic("unknown flag " + name)
		}
		if err := a.v.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logging.Configure(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	a.cfg = cfg
	return nil
}

// enricher builds the configured enrichment client.
func (a *app) enricher(hooks enrich.Hooks) enrich.Processor {
	logger := logging.NewComponentLogger("enrich")
	if a.cfg.Enrich.RemoteURL != "" {
		return enrich.NewRemoteEnricher(a.cfg.Enrich.RemoteURL, a.cfg.Gemini.Timeout, logger)
	}

	var completer enrich.Completer
	if a.cfg.Gemini.APIKey != "" {
		completer = enrich.NewGeminiCompleter(a.cfg.Gemini.Completer())
	}
	return enrich.NewLLMEnricher(completer,
		enrich.WithRetryPolicy(a.cfg.Enrich.RetryPolicy()),
		enrich.WithLimiter(enrich.NewSlidingWindow(a.cfg.Enrich.RateLimit, a.cfg.Enrich.RateWindow)),
		enrich.WithCacheSize(a.cfg.Enrich.CacheSize),
		enrich.WithHooks(hooks),
		enrich.WithLogger(logger),
	)
}
