package watcher

import (
	"context"
	"slices"
	"time"

	"github.com/ritzau/graphbench/pkg/logging"
)

// Debouncer merges bursts of change events so a rerun starts only after the
// files have been quiet for a while, or after maxWait at the latest.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 4),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	pending := make(map[ChangeType][]string)
	count := 0

	quiet := time.NewTimer(d.quietPeriod)
	quiet.Stop()
	deadline := time.NewTimer(d.maxWait)
	deadline.Stop()
	waiting := false

	flush := func() {
		quiet.Stop()
		deadline.Stop()
		waiting = false
		if count == 0 {
			return
		}
		logging.Debug("flushing accumulated events", "count", count)

		// Config first: it may change how the input is read.
		for _, t := range []ChangeType{ChangeTypeConfig, ChangeTypeInput} {
			if paths := pending[t]; len(paths) > 0 {
				slices.Sort(paths)
				d.output <- ChangeEvent{Type: t, Paths: slices.Compact(paths), Timestamp: time.Now()}
			}
		}
		clear(pending)
		count = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case ev, ok := <-d.input:
			if !ok {
				flush()
				return
			}
			pending[ev.Type] = append(pending[ev.Type], ev.Paths...)
			count++
			quiet.Reset(d.quietPeriod)
			if !waiting {
				deadline.Reset(d.maxWait)
				waiting = true
			}

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
