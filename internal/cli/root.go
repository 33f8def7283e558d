package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kanji-quiz/internal/catalog"
)

// Version se inyecta en build via -ldflags.
var Version = "dev"

type rootOptions struct {
	catalogPath string
	lang        string
}

// NewRootCommand crea el comando raiz de kanjictl.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "kanjictl",
		Short: "Kanji name questionnaire tooling",
		Long: `kanjictl validates question catalogs, scores answer sets offline
and runs the questionnaire interactively in the terminal.`,
		Version:      Version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", os.Getenv("CATALOG_PATH"), "catalog YAML file (default: embedded catalog)")
	cmd.PersistentFlags().StringVar(&opts.lang, "lang", "", "display language (default: catalog default)")

	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newSimulateCommand(opts))
	cmd.AddCommand(newQuestionsCommand(opts))
	cmd.AddCommand(newPlayCommand(opts))
	return cmd
}

func (o *rootOptions) loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.LoadFile(o.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}
