// Package watcher reruns benchmarks when the edge list or the config file
// changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/graphbench/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeConfig ChangeType = iota
	ChangeTypeInput
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeConfig:
		return "config"
	case ChangeTypeInput:
		return "input"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(t))
	}
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// batchWindow groups the burst of events a single save produces.
const batchWindow = 100 * time.Millisecond

// FileWatcher watches the input edge list and the config file. It watches
// their parent directories so files replaced by rename are still seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	targets map[string]ChangeType // absolute path -> type
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for input and configPath. Either may be
// empty. Neither file has to exist yet.
func NewFileWatcher(input, configPath string) (*FileWatcher, error) {
	targets := make(map[string]ChangeType)
	for path, t := range map[string]ChangeType{input: ChangeTypeInput, configPath: ChangeTypeConfig} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		targets[abs] = t
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("nothing to watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: w,
		targets: targets,
		events:  make(chan ChangeEvent, 16),
	}, nil
}

// Start adds the watches and processes events until ctx is done, after
// which the Events channel is closed.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for path := range fw.targets {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			fw.watcher.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		logging.Debug("watching directory", "path", dir)
	}
	logging.Info("started watching", "files", len(fw.targets))

	go fw.processEvents(ctx)
	return nil
}

// classify maps an fsnotify event to the watched file it touches.
func (fw *FileWatcher) classify(ev fsnotify.Event) (ChangeType, bool) {
	if ev.Op == fsnotify.Chmod {
		return 0, false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return 0, false
	}
	t, ok := fw.targets[abs]
	return t, ok
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	pending := make(map[ChangeType][]string)
	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeConfig, ChangeTypeInput} {
			if paths := pending[t]; len(paths) > 0 {
				select {
				case fw.events <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}:
				case <-ctx.Done():
				}
			}
		}
		clear(pending)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			t, ok := fw.classify(ev)
			if !ok {
				continue
			}
			logging.Trace("file event", "path", ev.Name, "op", ev.Op.String())
			pending[t] = append(pending[t], ev.Name)
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
