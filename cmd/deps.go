package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/scenery/internal/dag"
	"github.com/papapumpkin/scenery/internal/document"
	"github.com/papapumpkin/scenery/internal/resource"
	"github.com/papapumpkin/scenery/internal/ui"
)

var depsCmd = &cobra.Command{
	Use:   "deps [dir]",
	Short: "Show which scene documents instance which",
	Long: `Scans scene documents and prints the instance dependency graph grouped
into clusters of documents that share prefabs. With --dependents only the
documents that would need reloading after the given document changes are
printed, in load order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeps,
}

func init() {
	depsCmd.Flags().String("dependents", "", "list documents depending on this document")
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	dependents, _ := cmd.Flags().GetString("dependents")

	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()
	ctx := cmd.Context()

	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}
	paths, err := p.documents(ctx, dir)
	if err != nil {
		return err
	}

	printer := ui.NewWriter(cmd.OutOrStdout())
	refs := make(map[string][]string, len(paths))
	for _, path := range paths {
		text, err := p.fs.ReadText(ctx, path)
		if err != nil {
			return err
		}
		refs[path] = nil
		doc, err := document.Decode([]byte(text), document.FormatForPath(path))
		if err != nil {
			printer.Error(fmt.Sprintf("%s: %v", path, err))
			continue
		}
		for _, ref := range document.InstanceRefs(doc) {
			refs[path] = append(refs[path], resource.Normalize(path, ref))
		}
	}

	d, err := dag.FromDocuments(refs)
	if err != nil {
		return err
	}
	if dependents == "" {
		return printer.Dependencies(d)
	}

	target, err := p.docPath(dependents)
	if err != nil {
		return err
	}
	if d.Node(target) == nil {
		return fmt.Errorf("%w: %s", dag.ErrNodeNotFound, target)
	}
	affected := make(map[string]bool)
	for _, id := range d.Descendants(target) {
		affected[id] = true
	}
	order, err := d.TopologicalSort()
	if err != nil {
		return err
	}
	for _, id := range order {
		if affected[id] {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
	}
	return nil
}
