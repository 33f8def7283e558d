package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kanji-quiz/internal/catalog"
	"kanji-quiz/internal/domain"
	"kanji-quiz/internal/scoring"
)

func newSimulateCommand(opts *rootOptions) *cobra.Command {
	var answers []string
	cmd := &cobra.Command{
		Use:   "simulate --answer Q1=male --answer Q2=A ...",
		Short: "Score an answer set without storing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			parsed, err := parseAnswers(answers)
			if err != nil {
				return err
			}
			return simulate(cat, parsed, opts.lang, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringArrayVarP(&answers, "answer", "a", nil, "answer as QUESTION=OPTION (repeatable, comma separated lists allowed)")
	return cmd
}

// parseAnswers acepta "Q1=male" o "Q1=male,Q2=A".
func parseAnswers(raw []string) ([]domain.Answer, error) {
	var out []domain.Answer
	for _, item := range raw {
		for _, pair := range strings.Split(item, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			q, o, ok := strings.Cut(pair, "=")
			if !ok || strings.TrimSpace(q) == "" || strings.TrimSpace(o) == "" {
				return nil, fmt.Errorf("invalid answer %q, expected QUESTION=OPTION", pair)
			}
			out = append(out, domain.Answer{
				SessionID:  "simulation",
				QuestionID: strings.TrimSpace(q),
				OptionID:   strings.TrimSpace(o),
			})
		}
	}
	return out, nil
}

func simulate(cat *catalog.Catalog, answers []domain.Answer, lang string, out io.Writer) error {
	outcome, err := scoring.NewEngine(cat).Score(answers)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, color.CyanString("Traits"))
	for _, calc := range cat.Calculators() {
		fmt.Fprintf(out, "  [%s]\n", calc.Name)
		for _, dim := range calc.Dimensions {
			fmt.Fprintf(out, "    %-22s %6.1f\n", dim, outcome.Traits[dim])
		}
	}

	fmt.Fprintln(out, color.CyanString("Labels"))
	for _, cl := range cat.Classifiers() {
		fmt.Fprintf(out, "  %-22s %s\n", cl.Name, outcome.Labels[cl.Name])
	}

	res := cat.LocalizeResult(domain.Result{
		Subtype:     outcome.Subtype,
		Kanji:       outcome.Candidate.Kanji,
		Reading:     outcome.Candidate.Reading,
		Meaning:     outcome.Candidate.Meaning,
		Explanation: outcome.Candidate.Explanation,
	}, lang)
	fmt.Fprintf(out, "%s %s\n", color.CyanString("Subtype:"), outcome.Subtype)
	fmt.Fprintf(out, "%s %s (%s) %s\n", color.GreenString("Candidate:"), res.Kanji, res.Reading, outcome.Candidate.ID)
	fmt.Fprintf(out, "  %s\n  %s\n", res.Meaning, res.Explanation)
	return nil
}
