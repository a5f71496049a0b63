package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/scenery/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Load scene documents and report errors and warnings",
	Long: `Loads each scene document, resolving every instance it references, and
reports validation errors and non-fatal warnings. Without arguments every
scene document under the project root is checked.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()
	ctx := cmd.Context()

	var paths []string
	if len(args) == 0 {
		if paths, err = p.documents(ctx, ""); err != nil {
			return err
		}
	}
	for _, a := range args {
		rel, err := p.docPath(a)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
	}

	printer := ui.New()
	failed := 0
	for _, path := range paths {
		g, err := p.loader.LoadFile(ctx, path)
		if err != nil {
			failed++
		}
		printer.ValidateResult(path, g, err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed validation", failed, len(paths))
	}
	printer.Success(fmt.Sprintf("%d document(s) valid", len(paths)))
	return nil
}
