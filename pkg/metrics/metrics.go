package metrics

import (
	"sync/atomic"

	"github.com/paulschiretz/pgl-modpack/pkg/plog"
)

// Metrics collects counters for the minification stage.
type Metrics interface {
	AddFilesMinified(n int64)
	AddFilesUnchanged(n int64)
	AddFilesPassedThrough(n int64)
	AddBytesBefore(n int64)
	AddBytesAfter(n int64)
	Log()
}

// MinifyMetrics holds the atomic counters for tracking the minification progress.
// It is the concrete implementation of the Metrics interface.
type MinifyMetrics struct {
	FilesMinified      atomic.Int64
	FilesUnchanged     atomic.Int64
	FilesPassedThrough atomic.Int64
	BytesBefore        atomic.Int64
	BytesAfter         atomic.Int64
}

func (m *MinifyMetrics) AddFilesMinified(n int64)      { m.FilesMinified.Add(n) }
func (m *MinifyMetrics) AddFilesUnchanged(n int64)     { m.FilesUnchanged.Add(n) }
func (m *MinifyMetrics) AddFilesPassedThrough(n int64) { m.FilesPassedThrough.Add(n) }
func (m *MinifyMetrics) AddBytesBefore(n int64)        { m.BytesBefore.Add(n) }
func (m *MinifyMetrics) AddBytesAfter(n int64)         { m.BytesAfter.Add(n) }

// Saved returns the number of bytes removed so far.
func (m *MinifyMetrics) Saved() int64 {
	return m.BytesBefore.Load() - m.BytesAfter.Load()
}

// Log prints a summary of the minification pass.
func (m *MinifyMetrics) Log() {
	plog.Info("SUM",
		"filesMinified", m.FilesMinified.Load(),
		"filesUnchanged", m.FilesUnchanged.Load(),
		"filesPassedThrough", m.FilesPassedThrough.Load(),
		"bytesBefore", m.BytesBefore.Load(),
		"bytesAfter", m.BytesAfter.Load(),
		"bytesSaved", m.Saved(),
	)
}

// NoopMetrics is an implementation of the Metrics interface that performs no operations.
// It can be used to disable metrics collection without changing the calling code.
type NoopMetrics struct{}

func (m *NoopMetrics) AddFilesMinified(n int64)      {}
func (m *NoopMetrics) AddFilesUnchanged(n int64)     {}
func (m *NoopMetrics) AddFilesPassedThrough(n int64) {}
func (m *NoopMetrics) AddBytesBefore(n int64)        {}
func (m *NoopMetrics) AddBytesAfter(n int64)         {}
func (m *NoopMetrics) Log()                          {}

// Statically assert that our types implement the interface.
var _ Metrics = (*MinifyMetrics)(nil)
var _ Metrics = (*NoopMetrics)(nil)
