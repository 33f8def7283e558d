package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kanji-quiz/internal/catalog"
	"kanji-quiz/internal/domain"
	"kanji-quiz/internal/repository"
	"kanji-quiz/internal/scoring"
	"kanji-quiz/internal/service"
)

func newPlayCommand(opts *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Answer the questionnaire interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			return play(cmd.Context(), cat, opts.lang, name, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name shown in the result")
	return cmd
}

// play recorre el cuestionario sobre un store en memoria con los mismos
// servicios que la API.
func play(ctx context.Context, cat *catalog.Catalog, lang, name string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reader := bufio.NewReader(in)
	logger := zap.NewNop()
	stores := repository.NewMemoryStore().Stores()
	flow := service.NewFlowService(cat)
	sessions := service.NewSessionService(logger, stores, flow, nil)
	answers := service.NewAnswerService(logger, stores, flow, nil)
	generation := service.NewGenerationService(logger, stores, scoring.NewEngine(cat), nil)

	start, err := sessions.StartSession(ctx, service.StartSessionInput{Language: lang, UserName: name})
	if err != nil {
		return fmt.Errorf("crear sesion: %w", err)
	}
	sessionID := start.Session.ID
	step := start.Next

	for !step.Completed {
		q := step.Question
		fmt.Fprintf(out, "\n%s %s\n", color.CyanString("[%d/%d]", step.Progress.CurrentStep, step.Progress.TotalSteps), q.Text)
		for i, opt := range q.Options {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, opt.Text)
		}
		fmt.Fprint(out, "> ")

		line, readErr := reader.ReadString('\n')
		choice := strings.TrimSpace(line)
		if readErr != nil && choice == "" {
			if errors.Is(readErr, io.EOF) {
				return errors.New("input ended before the questionnaire was complete")
			}
			return fmt.Errorf("leer input: %w", readErr)
		}

		optionID, ok := pickOption(q.Options, choice)
		if !ok {
			fmt.Fprintln(out, color.YellowString("Opcion invalida."))
			continue
		}
		res, err := answers.SubmitAnswerAndGetNext(ctx, service.SubmitAnswerInput{
			SessionID:  sessionID,
			QuestionID: q.ID,
			OptionID:   optionID,
			Language:   lang,
		})
		if err != nil {
			return err
		}
		step = res.Next
	}

	result, err := generation.GenerateKanjiName(ctx, sessionID)
	if err != nil {
		return err
	}
	localized := generation.Localize(result, start.Session.Language)
	if name != "" {
		fmt.Fprintf(out, "\n%s\n", name)
	}
	fmt.Fprintf(out, "\n%s %s (%s)\n", color.GreenString("Kanji:"), localized.Kanji, localized.Reading)
	fmt.Fprintf(out, "%s\n%s\n", localized.Meaning, localized.Explanation)
	return nil
}

// pickOption acepta el numero mostrado o el id de la opcion.
func pickOption(options []domain.LocalizedOption, choice string) (string, bool) {
	if idx, err := strconv.Atoi(choice); err == nil {
		if idx >= 1 && idx <= len(options) {
			return options[idx-1].ID, true
		}
		return "", false
	}
	for _, opt := range options {
		if strings.EqualFold(opt.ID, choice) {
			return opt.ID, true
		}
	}
	return "", false
}
