package manager

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/scenery/internal/watcher"
)

func TestAffected(t *testing.T) {
	t.Parallel()
	files := levelFiles()
	files["menu.yaml"] = "root:\n  - id: menu\n    type: Control\n"
	f := newFixture(t, files)
	ctx := context.Background()
	for name, p := range map[string]string{"level": "level.yaml", "menu": "menu.yaml"} {
		if _, err := f.mgr.Load(ctx, name, p); err != nil {
			t.Fatalf("Load %s: %v", name, err)
		}
	}

	tests := []struct {
		path string
		want []string
	}{
		{"prefabs/crate.yaml", []string{"level"}},
		{"./prefabs/crate.yaml", []string{"level"}},
		{"menu.yaml", []string{"menu"}},
		{"level.yaml", []string{"level"}},
		{"other.yaml", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, f.mgr.Affected(tt.path)); diff != "" {
			t.Errorf("Affected(%q) mismatch (-want +got):\n%s", tt.path, diff)
		}
	}
}

func TestWatchReloadsDependents(t *testing.T) {
	t.Parallel()
	f := newFixture(t, levelFiles())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := f.mgr.Load(ctx, "level", "level.yaml"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	changed := strings.Replace(cratePrefab, "label: crate", "label: barrel", 1)
	if err := f.fs.WriteText(ctx, "prefabs/crate.yaml", changed); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	changes := make(chan watcher.Change, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	var watchErr error
	go func() {
		defer wg.Done()
		watchErr = f.mgr.Watch(ctx, changes)
	}()

	changes <- watcher.Change{Kind: watcher.ChangeModified, Path: "unrelated.yaml"}
	changes <- watcher.Change{Kind: watcher.ChangeModified, Path: "prefabs/crate.yaml"}
	select {
	case got := <-f.reloads:
		if got != "level" {
			t.Fatalf("reload hook got %q, want level", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	close(changes)
	wg.Wait()
	if watchErr != nil {
		t.Errorf("Watch: %v", watchErr)
	}

	got, err := f.mgr.CallGroup("level", "props", "ping")
	if err != nil {
		t.Fatalf("CallGroup: %v", err)
	}
	if diff := cmp.Diff([]any{"barrel", "barrel"}, got); diff != "" {
		t.Errorf("ping after reload mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchLogsFailedReload(t *testing.T) {
	t.Parallel()
	f := newFixture(t, levelFiles())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := f.mgr.Load(ctx, "level", "level.yaml"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := f.fs.WriteText(ctx, "level.yaml", ": not yaml ["); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	changes := make(chan watcher.Change, 1)
	done := make(chan error, 1)
	go func() { done <- f.mgr.Watch(ctx, changes) }()
	changes <- watcher.Change{Kind: watcher.ChangeModified, Path: "level.yaml"}

	select {
	case got := <-f.reloads:
		if !strings.HasPrefix(got, "level: ") {
			t.Errorf("reload hook got %q, want an error", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch: got %v, want context.Canceled", err)
	}
	if !strings.Contains(f.log.String(), "warning: reload level after level.yaml modified") {
		t.Errorf("log = %q", f.log.String())
	}
	if f.mgr.Graph("level") == nil {
		t.Error("failed reload dropped the graph")
	}
}
