package pathcompressionmetrics

import (
	"fmt"
	"sync/atomic"

	"github.com/paulschiretz/pgl-modpack/pkg/plog"
)

// Metrics collects byte and entry counters for an extraction or archiving pass.
type Metrics interface {
	AddEntriesProcessed(n int64)
	AddEntriesSkipped(n int64)
	AddOriginalBytes(n int64)
	AddCompressedBytes(n int64)
	LogSummary(msg string)
}

// CompressionMetrics holds the atomic counters for one pass.
// OriginalBytes counts uncompressed payload, CompressedBytes the container side.
type CompressionMetrics struct {
	EntriesProcessed atomic.Int64
	EntriesSkipped   atomic.Int64
	OriginalBytes    atomic.Int64
	CompressedBytes  atomic.Int64
}

func (m *CompressionMetrics) AddEntriesProcessed(n int64) { m.EntriesProcessed.Add(n) }
func (m *CompressionMetrics) AddEntriesSkipped(n int64)   { m.EntriesSkipped.Add(n) }
func (m *CompressionMetrics) AddOriginalBytes(n int64)    { m.OriginalBytes.Add(n) }
func (m *CompressionMetrics) AddCompressedBytes(n int64)  { m.CompressedBytes.Add(n) }

// LogSummary logs the current state of the metrics.
func (m *CompressionMetrics) LogSummary(msg string) {
	orig := m.OriginalBytes.Load()
	comp := m.CompressedBytes.Load()

	var ratio float64
	if orig > 0 {
		ratio = float64(comp) / float64(orig) * 100.0
	}

	plog.Info(msg,
		"entries_processed", m.EntriesProcessed.Load(),
		"entries_skipped", m.EntriesSkipped.Load(),
		"original_bytes", fmt.Sprintf("%d", orig),
		"compressed_bytes", fmt.Sprintf("%d", comp),
		"ratio_pct", fmt.Sprintf("%.2f%%", ratio),
	)
}

// NoopMetrics discards every counter.
type NoopMetrics struct{}

func (m *NoopMetrics) AddEntriesProcessed(n int64) {}
func (m *NoopMetrics) AddEntriesSkipped(n int64)   {}
func (m *NoopMetrics) AddOriginalBytes(n int64)    {}
func (m *NoopMetrics) AddCompressedBytes(n int64)  {}
func (m *NoopMetrics) LogSummary(msg string)       {}

// Statically assert that our types implement the interface.
var _ Metrics = (*CompressionMetrics)(nil)
var _ Metrics = (*NoopMetrics)(nil)
