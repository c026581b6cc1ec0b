package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/pipeline"
	"github.com/ppiankov/autocoding/internal/prepare"
	"github.com/ppiankov/autocoding/internal/tagger"
)

var (
	taggerTimeout time.Duration
	taggerCompact bool
)

var taggerCmd = &cobra.Command{
	Use:   "tagger",
	Short: "Talk to the concept-recognition service directly",
}

var taggerPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the concept-recognition service answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tagger.NewClient(taggerConfig(), tagger.WithLogger(logger.GetDefault()))

		ctx, cancel := context.WithTimeout(cmd.Context(), taggerTimeout)
		defer cancel()

		start := time.Now()
		if err := client.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s answered in %s\n", client.URL(), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var taggerTagCmd = &cobra.Command{
	Use:   "tag [file]",
	Short: "Print the raw sentences and concepts the service returns",
	Long: `Tag sends a document to the service without completing it, which shows
what the rules will be working from. Offsets are byte offsets into the
text that was sent. The document is only normalized; labels and terms
from the rules file are not applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "-"
		if len(args) == 1 {
			name = args[0]
		}
		raw, err := readInput(cmd.InOrStdin(), name)
		if err != nil {
			return err
		}
		if prepare.LooksLikeHTML(raw) {
			if raw, err = extractHTML(raw); err != nil {
				return err
			}
		}
		text := prepare.NormalizeLineEndings(raw)

		client := tagger.NewClient(taggerConfig(), tagger.WithLogger(logger.GetDefault()))

		ctx, cancel := context.WithTimeout(cmd.Context(), taggerTimeout)
		defer cancel()

		resp, err := client.Tag(ctx, text)
		if err != nil {
			return err
		}
		return pipeline.RenderJSON(cmd.OutOrStdout(), resp, !taggerCompact)
	},
}

func init() {
	rootCmd.AddCommand(taggerCmd)
	taggerCmd.AddCommand(taggerPingCmd)
	taggerCmd.AddCommand(taggerTagCmd)

	taggerCmd.PersistentFlags().DurationVar(&taggerTimeout, "timeout", 30*time.Second, "request timeout")
	taggerTagCmd.Flags().BoolVar(&taggerCompact, "compact", false, "print JSON on one line")
}

// taggerConfig reads only the tagger section so that a missing rules
// file does not block these commands
func taggerConfig() model.TaggerConfig {
	cfg := model.DefaultConfig().Tagger
	if err := viper.UnmarshalKey("tagger", &cfg, yamlTags); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Using default tagger settings: %v\n", err)
		return model.DefaultConfig().Tagger
	}
	return cfg
}

func extractHTML(raw string) (string, error) {
	text, err := prepare.ExtractText(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("extract html: %w", err)
	}
	return text, nil
}
