package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kanji-quiz/internal/catalog"
)

func newQuestionsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Print the localized question sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			printQuestions(cat, opts.lang, cmd.OutOrStdout())
			return nil
		},
	}
}

func printQuestions(cat *catalog.Catalog, lang string, out io.Writer) {
	for _, q := range cat.Questions() {
		lq := cat.Localize(q, lang)
		header := fmt.Sprintf("%s (%s)", lq.ID, lq.Kind)
		if lq.FellBack {
			header += color.YellowString(" [%s]", lq.Language)
		}
		fmt.Fprintf(out, "%s %s\n", color.CyanString(header), lq.Text)
		for _, opt := range lq.Options {
			fmt.Fprintf(out, "    %s) %s\n", opt.ID, opt.Text)
		}
	}
}
