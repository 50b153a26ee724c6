package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/VantageDataChat/LyricDeck"
	"github.com/VantageDataChat/LyricDeck/enrich"
	"github.com/VantageDataChat/LyricDeck/internal/logging"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		templatePath string
		outputPath   string
		noEnrich     bool
	)

	cmd := &cobra.Command{
		Use:   "generate <lyrics.txt|->",
		Short: "Build a deck from a lyrics file and a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			entries, meta := lyricdeck.ParseLyrics(text)
			lines := len(lyricdeck.LyricLines(entries))
			if lines == 0 {
				return lyricdeck.ErrNoLyricLines
			}

			if noEnrich {
				fmt.Fprintln(out, gray("skipping enrichment"))
			} else {
				fmt.Fprintf(out, "%s %d lines\n", cyan("enriching"), lines)
				entries = enrich.Annotate(cmd.Context(), a.enricher(enrich.Hooks{}), entries, a.cfg.Enrich.BatchSize)
				if missing := countMissingPinyin(entries); missing > 0 {
					fmt.Fprintf(out, "%s %d of %d lines have no pinyin\n", yellow("warning:"), missing, lines)
				}
			}

			template, err := os.ReadFile(templatePath)
			if err != nil {
				return fmt.Errorf("failed to read template: %w", err)
			}

			gen := lyricdeck.NewGenerator(lyricdeck.WithLogger(logging.NewComponentLogger("generator")))
			res, err := gen.Generate(cmd.Context(), lyricdeck.GenerateRequest{
				Entries:  entries,
				Metadata: meta,
				Template: template,
			})
			if err != nil {
				return err
			}

			if err := os.WriteFile(outputPath, res.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputPath, err)
			}
			fmt.Fprintf(out, "%s %s (%d slides)\n", green("wrote"), filepath.Clean(outputPath), res.SlideCount)
			return nil
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "template .pptx file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "lyrics-slides.pptx", "output file")
	cmd.Flags().BoolVar(&noEnrich, "no-enrich", false, "leave pinyin empty and keep the original text")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

// readInput reads a file, or standard input when path is "-".
func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read lyrics: %w", err)
	}
	return string(data), nil
}

func countMissingPinyin(entries []lyricdeck.LyricEntry) int {
	n := 0
	for _, e := range entries {
		if e.IsLyric() && e.Pinyin == "" {
			n++
		}
	}
	return n
}
