package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/autocoding/internal/rules"
	"github.com/ppiankov/autocoding/internal/solution"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect rules files and solutions",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Compile a rules file and report what it configures",
	Long: `Check loads and compiles a rules file exactly as coding would, so that
bad patterns, unknown solutions and incomplete rows surface before a run.

Without a file, rules.path from the configuration is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("rules.path")
		if len(args) == 1 {
			path = args[0]
		}
		return checkRules(cmd.OutOrStdout(), path)
	},
}

var rulesSolutionsCmd = &cobra.Command{
	Use:   "solutions",
	Short: "List the registered solutions",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range solution.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.AddCommand(rulesSolutionsCmd)
}

func checkRules(w io.Writer, path string) error {
	file, err := rules.Load(path)
	if err != nil {
		return err
	}
	def, err := solution.New(file.Solution.Name, &file.Solution.Data)
	if err != nil {
		return err
	}
	tables, err := file.Compile(def.KnownConcepts()...)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ Rules valid: %s\n", path)
	fmt.Fprintf(w, "  Solution:           %s\n", def.Name())
	fmt.Fprintf(w, "  Known concepts:     %d\n", tables.KnownCount())
	fmt.Fprintf(w, "  Descriptions:       %d\n", len(tables.Descriptions))
	fmt.Fprintf(w, "  Concept sets:       %d sentence, %d document\n", len(tables.SentenceSets), len(tables.DocumentSets))
	fmt.Fprintf(w, "  Negation patterns:  %d\n", negationPatterns(tables))
	fmt.Fprintf(w, "  History markers:    %d\n", len(tables.HistoryMarkers))
	fmt.Fprintf(w, "  Section markers:    %d\n", len(tables.SectionMarkers))
	if names := sections(tables); len(names) > 0 {
		fmt.Fprintf(w, "  Sections:           %s\n", strings.Join(names, ", "))
	}
	return nil
}

func negationPatterns(t *rules.Tables) int {
	return len(t.PreNegation) + len(t.ImmediatePreNegation) +
		len(t.PreAmbiguous) + len(t.ImmediatePreAmbiguous) +
		len(t.PostNegation) + len(t.ImmediatePostNegation) +
		len(t.PostAmbiguous) + len(t.ImmediatePostAmbiguous)
}

func sections(t *rules.Tables) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range t.SectionMarkers {
		if !seen[m.Section] {
			seen[m.Section] = true
			out = append(out, m.Section)
		}
	}
	return out
}
