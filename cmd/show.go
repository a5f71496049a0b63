package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/scenery/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the node tree of a scene document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		defer p.Close()

		rel, err := p.docPath(args[0])
		if err != nil {
			return err
		}
		g, err := p.loader.LoadFile(cmd.Context(), rel)
		if err != nil {
			return err
		}
		printer := ui.NewWriter(cmd.OutOrStdout())
		printer.Tree(g)
		printer.Warnings(rel, g.Warnings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
