package bench

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var sink [][]byte

func TestMeasureAllocations(t *testing.T) {
	m, err := Measure(context.Background(), "alloc", func() error {
		for i := 0; i < 64; i++ {
			sink = append(sink, make([]byte, 64*1024))
		}
		time.Sleep(3 * SampleInterval)
		return nil
	})
	defer func() { sink = nil }()

	if err != nil {
		t.Fatalf("Measure() returned error: %v", err)
	}
	if m.Label != "alloc" {
		t.Errorf("Expected label alloc, got %q", m.Label)
	}
	if m.AllocBytes < 64*64*1024 {
		t.Errorf("Expected at least 4MiB allocated, got %d", m.AllocBytes)
	}
	if m.PeakHeapBytes == 0 {
		t.Error("Expected non-zero peak heap growth")
	}
	if m.Duration <= 0 {
		t.Errorf("Expected positive duration, got %v", m.Duration)
	}
}

func TestMeasurePropagatesError(t *testing.T) {
	boom := errors.New("boom")
	m, err := Measure(context.Background(), "failing", func() error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
	if m.Label != "failing" {
		t.Errorf("Measurement should still be returned, got %+v", m)
	}
}

func TestMeasurementString(t *testing.T) {
	m := Measurement{Label: "Custom Dijkstra", Duration: 1500 * time.Millisecond, PeakHeapBytes: 3 << 20}
	s := m.String()
	if !strings.HasPrefix(s, "Custom Dijkstra - Time: 1.5 sec") || !strings.Contains(s, "3.0 MiB") {
		t.Errorf("Unexpected string %q", s)
	}
}
