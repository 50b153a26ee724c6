package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/VantageDataChat/LyricDeck"
	"github.com/VantageDataChat/LyricDeck/enrich"
)

func newParseCmd(a *app) *cobra.Command {
	var (
		asJSON     bool
		withPinyin bool
	)

	cmd := &cobra.Command{
		Use:   "parse <lyrics.txt|->",
		Short: "Print the parsed preview of a lyrics file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			entries, meta := lyricdeck.ParseLyrics(text)
			if len(lyricdeck.LyricLines(entries)) == 0 {
				return lyricdeck.ErrNoLyricLines
			}
			if withPinyin {
				entries = enrich.Annotate(cmd.Context(), a.enricher(enrich.Hooks{}), entries, a.cfg.Enrich.BatchSize)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"preview": entries, "metadata": meta})
			}

			if meta.Title != "" {
				fmt.Fprintf(out, "%s %s\n", bold("Title:"), meta.Title)
			}
			if meta.Credits != "" {
				fmt.Fprintf(out, "%s %s\n", bold("Credits:"), meta.Credits)
			}
			for _, pair := range lyricdeck.PairLines(lyricdeck.LyricLines(entries)) {
				if pair.SectionLabel != "" {
					fmt.Fprintln(out, cyan("["+pair.SectionLabel+"]"))
				}
				printLine(out, pair.Line1)
				if pair.Line2 != nil {
					printLine(out, *pair.Line2)
				}
				fmt.Fprintln(out, gray("  ---"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the preview as JSON")
	cmd.Flags().BoolVar(&withPinyin, "enrich", false, "annotate lines with simplified text and pinyin")
	return cmd
}

func printLine(out io.Writer, e lyricdeck.LyricEntry) {
	if e.Pinyin != "" {
		fmt.Fprintf(out, "  %s\n", gray(e.Pinyin))
	}
	text := e.Original
	if e.Simplified != "" {
		text = e.Simplified
	}
	fmt.Fprintf(out, "  %s\n", text)
}
