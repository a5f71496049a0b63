package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/scenery/internal/manager"
	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/tui"
	"github.com/papapumpkin/scenery/internal/watcher"
)

// inspectCmd opens the interactive inspector for one scene.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Browse a scene's node tree, properties and prefab provenance",
	Long: `Launches the interactive inspector for a scene document. With --watch the
inspector reloads the scene whenever it or any prefab it instances changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().Bool("watch", false, "reload when the scene or its prefabs change")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	follow, _ := cmd.Flags().GetBool("watch")

	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()

	rel, err := p.docPath(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	const name = "inspect"
	var program *tui.Program
	mgr := manager.New(p.loader, p.saver,
		manager.WithTelemetry(p.telemetry),
		manager.WithReloadHook(func(_ string, g *scene.Graph, err error) {
			if program == nil {
				return
			}
			if err != nil {
				program.Send(tui.MsgReloadFailed{Err: err})
				return
			}
			program.Send(tui.MsgGraphReloaded{Graph: g})
		}),
	)
	g, err := mgr.Load(ctx, name, rel)
	if err != nil {
		return err
	}
	program = tui.NewProgram(g, p.types, p.registry)

	if follow {
		w, err := watcher.New(p.root, watcher.WithDebounce(time.Duration(p.cfg.WatchDebounceMS)*time.Millisecond))
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
		go mgr.Watch(ctx, w.Changes) //nolint:errcheck // ends with ctx
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
