package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/scenery/internal/manager"
	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/ui"
	"github.com/papapumpkin/scenery/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep scenes loaded and reload them as documents change",
	Long: `Loads every scene document under dir (default: the project root) and
watches the project for changes. When a document changes, every loaded scene
built from it or instancing it is reloaded and revalidated. A scene that fails
to reload keeps its previous state. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Float64("tick", 0, "advance loaded scenes at this rate in Hz (0 disables)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	hz, _ := cmd.Flags().GetFloat64("tick")

	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}
	paths, err := p.documents(ctx, dir)
	if err != nil {
		return err
	}

	printer := ui.New()
	mgr := manager.New(p.loader, p.saver,
		manager.WithWriter(p.fs),
		manager.WithLogger(os.Stderr),
		manager.WithTelemetry(p.telemetry),
		manager.WithReloadHook(func(name string, g *scene.Graph, err error) {
			printer.ValidateResult(name, g, err)
		}),
	)
	for _, path := range paths {
		g, err := mgr.Load(ctx, path, path)
		printer.ValidateResult(path, g, err)
	}

	w, err := watcher.New(p.root, watcher.WithDebounce(time.Duration(p.cfg.WatchDebounceMS)*time.Millisecond))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	if hz > 0 {
		go tickLoop(ctx, mgr, hz)
	}
	printer.Info(fmt.Sprintf("watching %s (%d scene(s) loaded)", p.root, len(mgr.Names())))
	if err := mgr.Watch(ctx, w.Changes); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// tickLoop advances every loaded scene at a fixed rate until ctx is done.
func tickLoop(ctx context.Context, mgr *manager.Manager, hz float64) {
	interval := time.Duration(float64(time.Second) / hz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	printer := ui.New()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := mgr.TickAll(interval.Seconds()); err != nil {
				printer.Error(err.Error())
			}
		}
	}
}
