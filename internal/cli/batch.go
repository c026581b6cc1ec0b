package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/pipeline"
	"github.com/ppiankov/autocoding/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Code many documents listed in a file in parallel",
	Long: `Batch codes every document listed in the input file (one path per line,
# comments and blank lines ignored) with a pool of workers:
- Rule tables are loaded once and shared by every worker
- Calls to the concept-recognition service stay one at a time
- A failing document is reported and the batch continues
- A configuration error stops the batch

Example:
  autocoding batch reports.txt
  autocoding batch reports.txt --concurrency 8 --output-dir ./coded`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./autocoding-output", "output directory for coded documents")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the tagger response cache")
	batchCmd.Flags().BoolVar(&saveStore, "store", false, "save coded documents to the store")
	batchCmd.Flags().BoolVar(&compact, "compact", false, "write JSON on one line")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	workers := cfg.Concurrency.Workers
	if concurrency > 0 {
		workers = concurrency
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  AutoCoding Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Rules:        %s\n", cfg.Rules.Path)
	fmt.Fprintf(os.Stderr, "  Tagger:       %s\n", cfg.Tagger.URL)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	log := logger.GetDefault()
	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()
	fmt.Fprintf(os.Stderr, "✓ Loaded rules (solution: %s)\n", p.Solution())

	processor := worker.NewBatchProcessor(p, workers, log)

	fmt.Fprintf(os.Stderr, "⚙️  Coding documents with %d workers...\n\n", workers)
	results, batchErr := processor.ProcessFile(ctx, file)
	if results == nil && batchErr != nil {
		return batchErr
	}

	successCount := 0
	failureCount := 0
	used := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		jsonPath := filepath.Join(outputDir, outputName(result.Path, used)+".json")
		if err := pipeline.WriteJSONFile(jsonPath, result.Document, cfg.Output.Pretty); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d concepts, %d warnings)\n",
			result.Path, len(result.Document.Concepts), len(result.Document.Warnings))
		printCriticalSignals(result.Document.Summary)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if batchErr != nil {
		return fmt.Errorf("batch stopped: %w", batchErr)
	}
	return nil
}

func printCriticalSignals(sum *model.Summary) {
	if sum == nil {
		return
	}
	for _, sig := range sum.Signals {
		if sig.Severity == model.SeverityCritical {
			fmt.Fprintf(os.Stderr, "  ⚠️  %s\n", sig.Description)
		}
	}
}

// outputName derives a unique file name from a document path
func outputName(path string, used map[string]int) string {
	name := sanitizeFilename(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	used[name]++
	if n := used[name]; n > 1 {
		return fmt.Sprintf("%s-%d", name, n)
	}
	return name
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(s)
	if s == "" || s == "." || s == ".." {
		s = "document"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
