package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/autocoding/internal/pipeline"
	"github.com/ppiankov/autocoding/internal/store"
	"github.com/ppiankov/autocoding/internal/summary"
)

var (
	storeLimit   int
	storeCompact bool
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Query coded documents saved in the store",
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.SQLiteStore) error {
			sums, err := s.List(cmd.Context(), storeLimit)
			if err != nil {
				return err
			}
			printSummaries(cmd.OutOrStdout(), sums)
			return nil
		})
	},
}

var storeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored document as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.SQLiteStore) error {
			doc, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc.Summary = summary.NewSummarizer().Summarize(doc)
			return pipeline.RenderJSON(cmd.OutOrStdout(), doc, !storeCompact)
		})
	},
}

var storeFindCmd = &cobra.Command{
	Use:   "find <concept>",
	Short: "Find every stored occurrence of a concept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.SQLiteStore) error {
			occs, err := s.FindConcept(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(occs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No occurrences of %s\n", args[0])
				return nil
			}
			printOccurrences(cmd.OutOrStdout(), occs)
			return nil
		})
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.SQLiteStore) error {
			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeShowCmd)
	storeCmd.AddCommand(storeFindCmd)
	storeCmd.AddCommand(storeDeleteCmd)

	storeListCmd.Flags().IntVar(&storeLimit, "limit", 20, "maximum documents to list (0 for all)")
	storeShowCmd.Flags().BoolVar(&storeCompact, "compact", false, "print JSON on one line")
}

// withStore opens the configured store for the duration of fn
func withStore(fn func(*store.SQLiteStore) error) error {
	path := viper.GetString("store.path")
	if path == "" {
		return fmt.Errorf("store.path is not configured")
	}
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}

func printSummaries(w io.Writer, sums []store.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSOLUTION\tCODED\tCONCEPTS\tWARNINGS")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			s.ID, s.Name, s.Solution, s.CodedAt.Local().Format(time.DateTime), s.Concepts, s.Warnings)
	}
	_ = tw.Flush()
}

func printOccurrences(w io.Writer, occs []store.Occurrence) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tSENTENCE\tOFFSET\tSECTION\tNEGATION\tHISTORY\tTEXT")
	for _, o := range occs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%t\t%s\n",
			o.DocumentID, o.Sentence, o.Offset, o.Section, o.Negation, o.IsHistory, o.Text)
	}
	_ = tw.Flush()
}
