package cmd

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/scenery/internal/document"
	"github.com/papapumpkin/scenery/internal/ui"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt <file>",
	Short: "Rewrite a scene document in canonical form",
	Long: `Loads a scene document and serializes it again: defaults are dropped,
instances collapse to their overrides and vectors print as flow arrays.
With --format the document is converted; with --write the result replaces
the file (or is written next to it with the new extension).`,
	Args: cobra.ExactArgs(1),
	RunE: runFmt,
}

func init() {
	fmtCmd.Flags().BoolP("write", "w", false, "write the result back instead of printing it")
	fmtCmd.Flags().String("format", "", "output format: yaml, json or toml (default: from the file extension)")
	rootCmd.AddCommand(fmtCmd)
}

func runFmt(cmd *cobra.Command, args []string) error {
	write, _ := cmd.Flags().GetBool("write")
	formatName, _ := cmd.Flags().GetString("format")

	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()
	ctx := cmd.Context()

	src, err := p.docPath(args[0])
	if err != nil {
		return err
	}
	format := document.FormatForPath(src)
	if formatName != "" {
		if format, err = document.ParseFormat(formatName); err != nil {
			return err
		}
	}

	g, err := p.loader.LoadFile(ctx, src)
	if err != nil {
		return err
	}
	ui.New().Warnings(src, g.Warnings)

	text, err := p.saver.SerializeAs(g, format)
	if err != nil {
		return err
	}
	if !write {
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}

	dst := src
	if document.FormatForPath(src) != format {
		dst = strings.TrimSuffix(src, path.Ext(src)) + "." + string(format)
	}
	if err := p.fs.WriteText(ctx, dst, text); err != nil {
		return err
	}
	ui.New().Success("wrote " + dst)
	return nil
}
