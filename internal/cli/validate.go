package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kanji-quiz/internal/catalog"
)

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a question catalog",
		Long: `Load a catalog and report every inconsistency found.

Exit code: 0 if valid, 1 if any issue is found`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return validateCatalog(opts.catalogPath, cmd.OutOrStdout())
		},
	}
}

// validateCatalog imprime cada problema del catalogo; devuelve error si hay alguno.
func validateCatalog(path string, out io.Writer) error {
	source := path
	if source == "" {
		source = "embedded catalog"
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		issues := catalog.Issues(err)
		fmt.Fprintf(out, "%s %s\n", color.RedString("Validation failed:"), source)
		for _, issue := range issues {
			fmt.Fprintf(out, "  - %s\n", issue)
		}
		return fmt.Errorf("catalog has %d issue(s)", len(issues))
	}
	fmt.Fprintf(out, "%s %s (version %s)\n", color.GreenString("Catalog is valid:"), source, cat.Version())
	fmt.Fprintf(out, "  %d questions, %d calculators, %d classifiers, %d subtypes, %d candidates\n",
		len(cat.Questions()), len(cat.Calculators()), len(cat.Classifiers()), len(cat.Subtypes()), len(cat.Candidates()))
	return nil
}
