package watcher

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestFileWatcherSeesInputAndConfig(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "edges.txt")
	cfg := filepath.Join(dir, "graphbench.toml")
	for _, p := range []string{input, cfg} {
		if err := os.WriteFile(p, []byte("1 2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	fw, err := NewFileWatcher(input, cfg)
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fw.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(input, []byte("1 2\n2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-fw.Events():
		if ev.Type != ChangeTypeInput {
			t.Errorf("Expected input change, got %v", ev.Type)
		}
		for _, p := range ev.Paths {
			if filepath.Base(p) != "edges.txt" {
				t.Errorf("Unexpected path %s", p)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for input change")
	}

	if err := os.WriteFile(cfg, []byte("top = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	timeout := time.After(2 * time.Second)
	for seen := false; !seen; {
		select {
		case ev := <-fw.Events():
			// a trailing input batch from the first write may come first
			seen = ev.Type == ChangeTypeConfig
		case <-timeout:
			t.Fatal("Timeout waiting for config change")
		}
	}

	cancel()
	select {
	case _, ok := <-fw.Events():
		if ok {
			// a late batch may still be in flight; the channel must close next
			<-fw.Events()
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Events channel not closed after cancel")
	}
}

func TestNewFileWatcherNothingToWatch(t *testing.T) {
	if _, err := NewFileWatcher("", ""); err == nil {
		t.Error("Expected error with no paths")
	}
}

func TestDebouncerMergesBurst(t *testing.T) {
	in := make(chan ChangeEvent)
	d := NewDebouncer(in, 50*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	in <- ChangeEvent{Type: ChangeTypeInput, Paths: []string{"b"}}
	in <- ChangeEvent{Type: ChangeTypeInput, Paths: []string{"a", "b"}}
	in <- ChangeEvent{Type: ChangeTypeConfig, Paths: []string{"c"}}

	var got []ChangeEvent
	for len(got) < 2 {
		select {
		case ev := <-d.Output():
			got = append(got, ev)
		case <-time.After(time.Second):
			t.Fatalf("Timeout, got %d events", len(got))
		}
	}

	if got[0].Type != ChangeTypeConfig || got[1].Type != ChangeTypeInput {
		t.Errorf("Expected config before input, got %v then %v", got[0].Type, got[1].Type)
	}
	if !reflect.DeepEqual(got[1].Paths, []string{"a", "b"}) {
		t.Errorf("Expected deduplicated paths, got %v", got[1].Paths)
	}

	select {
	case ev := <-d.Output():
		t.Errorf("Unexpected extra event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	in := make(chan ChangeEvent)
	d := NewDebouncer(in, 80*time.Millisecond, 150*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// Keep the quiet period from ever expiring.
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case in <- ChangeEvent{Type: ChangeTypeInput, Paths: []string{"x"}}:
				case <-stop:
					return
				}
			}
		}
	}()
	defer close(stop)

	select {
	case ev := <-d.Output():
		if ev.Type != ChangeTypeInput {
			t.Errorf("Unexpected type %v", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("maxWait did not force a flush")
	}
}

func TestDebouncerFlushesOnClose(t *testing.T) {
	in := make(chan ChangeEvent, 1)
	d := NewDebouncer(in, time.Hour, time.Hour)
	d.Start(context.Background())

	in <- ChangeEvent{Type: ChangeTypeInput, Paths: []string{"x"}}
	close(in)

	ev, ok := <-d.Output()
	if !ok || ev.Type != ChangeTypeInput {
		t.Fatalf("Expected pending event on close, got %+v ok=%v", ev, ok)
	}
	if _, ok := <-d.Output(); ok {
		t.Error("Expected output to be closed")
	}
}

func TestAnalyzeChanges(t *testing.T) {
	cfg := AnalyzeChanges(ChangeEvent{Type: ChangeTypeConfig, Paths: []string{"graphbench.toml"}})
	if !cfg.NeedConfigReload || !cfg.NeedRerun {
		t.Errorf("Config change should reload and rerun: %+v", cfg)
	}

	in := AnalyzeChanges(ChangeEvent{Type: ChangeTypeInput, Paths: []string{"edges.txt"}})
	if in.NeedConfigReload || !in.NeedRerun {
		t.Errorf("Input change should only rerun: %+v", in)
	}
}
