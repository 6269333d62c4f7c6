// Package bench times a function and tracks how much heap it uses.
//
// Peak heap is sampled from runtime/metrics on a short ticker while the
// function runs, so very short spikes between samples can be missed. Bytes
// allocated are exact.
package bench

import (
	"context"
	"runtime"
	"runtime/metrics"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ritzau/graphbench/pkg/logging"
)

const (
	heapLiveMetric   = "/memory/classes/heap/objects:bytes"
	heapAllocsMetric = "/gc/heap/allocs:bytes"
)

// SampleInterval is how often the heap is sampled during Measure.
var SampleInterval = 5 * time.Millisecond

// Measurement is the cost of one measured call.
type Measurement struct {
	Label         string        `json:"label"`
	Duration      time.Duration `json:"durationNs"`
	AllocBytes    uint64        `json:"allocBytes"`
	PeakHeapBytes uint64        `json:"peakHeapBytes"`
}

// Seconds returns the duration in seconds.
func (m Measurement) Seconds() float64 {
	return m.Duration.Seconds()
}

// String formats the measurement like "label - Time: 1.20 sec, Peak Memory: 3.4 MiB".
func (m Measurement) String() string {
	return m.Label + " - Time: " + humanize.FtoaWithDigits(m.Duration.Seconds(), 2) +
		" sec, Peak Memory: " + humanize.IBytes(m.PeakHeapBytes)
}

// Measure runs fn and reports its wall time, bytes allocated and the peak
// growth of the live heap over the value seen right before the call.
func Measure(ctx context.Context, label string, fn func() error) (Measurement, error) {
	runtime.GC()

	samples := []metrics.Sample{{Name: heapLiveMetric}, {Name: heapAllocsMetric}}
	metrics.Read(samples)
	baseline := samples[0].Value.Uint64()
	allocsBefore := samples[1].Value.Uint64()

	var (
		mu   sync.Mutex
		peak = baseline
		done = make(chan struct{})
		wg   sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(SampleInterval)
		defer ticker.Stop()
		s := []metrics.Sample{{Name: heapLiveMetric}}
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.Read(s)
				mu.Lock()
				if v := s[0].Value.Uint64(); v > peak {
					peak = v
				}
				mu.Unlock()
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	metrics.Read(samples)
	close(done)
	wg.Wait()

	if v := samples[0].Value.Uint64(); v > peak {
		peak = v
	}

	m := Measurement{
		Label:         label,
		Duration:      elapsed,
		AllocBytes:    samples[1].Value.Uint64() - allocsBefore,
		PeakHeapBytes: peak - baseline,
	}

	logging.InfoContext(ctx, m.String(),
		"durationMs", elapsed.Milliseconds(),
		"allocBytes", m.AllocBytes,
		"peakBytes", m.PeakHeapBytes,
	)
	return m, err
}
