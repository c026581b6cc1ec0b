package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/pipeline"
)

var (
	outJSON     string
	codeTimeout time.Duration
	noCache     bool
	saveStore   bool
	compact     bool
)

// codeCmd represents the code command
var codeCmd = &cobra.Command{
	Use:   "code [file...]",
	Short: "Code clinical documents and print the result as JSON",
	Long: `Code sends each document to the concept-recognition service, completes
the coding with the configured rules and prints the coded documents.

With no file, or "-", the document is read from standard input.

Example:
  autocoding code report.txt
  autocoding code report.html --json coded.json
  cat report.txt | autocoding code --rules histopathology.yaml`,
	RunE: runCode,
}

func init() {
	rootCmd.AddCommand(codeCmd)

	codeCmd.Flags().StringVar(&outJSON, "json", "", "write JSON here instead of stdout")
	codeCmd.Flags().DurationVar(&codeTimeout, "timeout", 2*time.Minute, "overall timeout")
	codeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the tagger response cache")
	codeCmd.Flags().BoolVar(&saveStore, "store", false, "save coded documents to the store")
	codeCmd.Flags().BoolVar(&compact, "compact", false, "print JSON on one line")
}

// buildConfig loads configuration and applies the flags shared by code and batch
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if f := cmd.Flags().Lookup("store"); f != nil && f.Changed {
		cfg.Store.Enabled = saveStore
	}
	if compact {
		cfg.Output.Pretty = false
	}
	return cfg, nil
}

func runCode(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), codeTimeout)
	defer cancel()

	p, err := pipeline.New(cfg, logger.GetDefault())
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	if len(args) == 0 {
		args = []string{"-"}
	}

	docs := make([]*model.CodedDocument, 0, len(args))
	for _, name := range args {
		raw, err := readInput(cmd.InOrStdin(), name)
		if err != nil {
			return err
		}
		if name == "-" {
			name = "stdin"
		}

		doc, err := p.CodeDocument(ctx, name, raw)
		if err != nil {
			return fmt.Errorf("code %s: %w", name, err)
		}
		docs = append(docs, doc)

		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Coded %s: %d sentences, %d concepts, %d warnings\n",
				name, len(doc.Sentences), len(doc.Concepts), len(doc.Warnings))
			printCriticalSignals(doc.Summary)
		}
	}

	var out any = docs
	if len(docs) == 1 {
		out = docs[0]
	}

	if outJSON != "" {
		if err := pipeline.WriteJSONFile(outJSON, out, cfg.Output.Pretty); err != nil {
			return err
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
		return nil
	}
	return pipeline.RenderJSON(cmd.OutOrStdout(), out, cfg.Output.Pretty)
}

func readInput(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}
