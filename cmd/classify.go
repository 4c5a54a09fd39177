package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/agendaviva/ingest/internal/classifier"
	"github.com/agendaviva/ingest/internal/model"
	anthropicpkg "github.com/agendaviva/ingest/pkg/anthropic"
)

var (
	classifyFile string
	classifyURL  string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a single activity text from stdin or a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic API key is required (AGENDA_ANTHROPIC_KEY)")
		}

		var text []byte
		var err error
		if classifyFile != "" {
			text, err = os.ReadFile(classifyFile)
		} else {
			text, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return eris.Wrap(err, "read input")
		}
		if len(text) == 0 {
			return eris.New("empty input")
		}

		client := anthropicpkg.NewLimitedClient(
			anthropicpkg.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.RPM,
		)
		cls := classifier.New(client, classifier.Config{
			Model:       cfg.Anthropic.Model,
			MaxTokens:   int64(cfg.Anthropic.MaxTokens),
			Temperature: cfg.Anthropic.Temperature,
		})

		res := cls.Classify(cmd.Context(), model.ClassificationInput{
			Text:       string(text),
			SourceURL:  classifyURL,
			SourceType: model.SourceManual,
		})
		if !res.Success {
			return eris.Errorf("classification failed: %s", res.Err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Output); err != nil {
			return eris.Wrap(err, "encode output")
		}
		if res.Output.NeedsReview {
			fmt.Fprintf(os.Stderr, "needs review: %v\n", res.Output.ReviewReasons)
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyFile, "file", "", "read activity text from file instead of stdin")
	classifyCmd.Flags().StringVar(&classifyURL, "source-url", "", "source URL hint passed to the classifier")
	rootCmd.AddCommand(classifyCmd)
}
