package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnTengye/clausewise/backend/model"
	"github.com/AnTengye/clausewise/backend/service"
)

type analyzeOptions struct {
	JSON bool
}

func newAnalyzeCommand(root *RootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a local text file",
		Long: `Analyze runs the pipeline on a plain text file (or "-" for stdin) and prints
the result. Backends come from the config file when it exists; without one the
analysis runs rule-based.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, root.ConfigPath == defaultConfigPath)
			if err != nil {
				return err
			}

			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			text, err := service.DecodePlainText(raw)
			if err != nil {
				return err
			}

			stack := buildAnalysisStack(cmd.Context(), cfg, nil)
			defer stack.Close()

			analysis, err := stack.service.Analyze(cmd.Context(), text)
			if err != nil {
				return err
			}

			if opts.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(analysis)
			}
			printAnalysis(cmd.OutOrStdout(), analysis)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the analysis as JSON")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	if format, ok := service.DetectFormat(name); ok && format != model.FormatTXT {
		return nil, fmt.Errorf("%s: only plain text files can be analyzed locally; upload %s files to the server", name, format)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func printAnalysis(w io.Writer, a *model.Analysis) {
	fmt.Fprintf(w, "Document type: %s\n", a.DocumentType)
	fmt.Fprintf(w, "Analysis tier: %s\n", a.Tier.Label())
	fmt.Fprintf(w, "Words: %d\n\n", a.Document.WordCount)

	fmt.Fprintln(w, "Summary")
	fmt.Fprintln(w, indent(a.Summary))

	fmt.Fprintln(w, "\nEntities")
	printList(w, "Parties", a.Entities.Parties)
	printList(w, "Dates", a.Entities.Dates)
	printList(w, "Amounts", a.Entities.MonetaryValues)
	printList(w, "Obligations", a.Entities.Obligations)
	printList(w, "Legal terms", a.Entities.LegalTerms)

	fmt.Fprintln(w, "\nClauses")
	for i, pair := range a.Pairs() {
		fmt.Fprintf(w, "%2d. %s\n", i+1, pair.Clause)
		fmt.Fprintf(w, "    -> %s\n", pair.Explanation)
	}

	fmt.Fprintln(w, "\nSimplified")
	fmt.Fprintln(w, indent(a.Simplified))
}

func printList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s: %s\n", label, strings.Join(items, "; "))
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n  ")
}
