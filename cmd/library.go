package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/scenery/internal/resource"
	"github.com/papapumpkin/scenery/internal/ui"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Pack scene documents into a single SQLite library file",
	Long: `Manages the scene library: a SQLite database holding scene documents by
project path, so a project's scenes and prefabs can be shared as one file.
The database location is library_path in the config.`,
}

var libraryImportCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Copy scene documents from the project into the library",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd, func(ctx context.Context, p *project, lib *resource.Library) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			paths, err := p.documents(ctx, dir)
			if err != nil {
				return err
			}
			n, err := lib.Import(ctx, p.fs, paths)
			if err != nil {
				return err
			}
			ui.New().Success(fmt.Sprintf("imported %d document(s)", n))
			return nil
		})
	},
}

var libraryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every library document back into the project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withLibrary(cmd, func(ctx context.Context, p *project, lib *resource.Library) error {
			n, err := lib.Export(ctx, p.fs)
			if err != nil {
				return err
			}
			ui.New().Success(fmt.Sprintf("exported %d document(s)", n))
			return nil
		})
	},
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the documents stored in the library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withLibrary(cmd, func(ctx context.Context, _ *project, lib *resource.Library) error {
			entries, err := lib.List(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(w, "%-40s %8d  %s\n", e.Path, e.Size, e.UpdatedAt.Local().Format(time.DateTime))
			}
			return nil
		})
	},
}

func init() {
	libraryCmd.AddCommand(libraryImportCmd, libraryExportCmd, libraryListCmd)
	rootCmd.AddCommand(libraryCmd)
}

// withLibrary opens the project and its library for the duration of fn.
func withLibrary(cmd *cobra.Command, fn func(context.Context, *project, *resource.Library) error) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()

	dbPath := p.cfg.LibraryPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(p.root, dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("library: create directory: %w", err)
	}
	lib, err := resource.OpenLibrary(cmd.Context(), dbPath)
	if err != nil {
		return err
	}
	defer lib.Close()
	return fn(cmd.Context(), p, lib)
}
