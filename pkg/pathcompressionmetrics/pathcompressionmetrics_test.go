package pathcompressionmetrics

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paulschiretz/pgl-modpack/pkg/plog"
)

func TestCompressionMetrics_Adders(t *testing.T) {
	m := &CompressionMetrics{}

	m.AddEntriesProcessed(50)
	m.AddEntriesSkipped(3)
	m.AddOriginalBytes(1000)
	m.AddCompressedBytes(500)

	assert.EqualValues(t, 50, m.EntriesProcessed.Load())
	assert.EqualValues(t, 3, m.EntriesSkipped.Load())
	assert.EqualValues(t, 1000, m.OriginalBytes.Load())
	assert.EqualValues(t, 500, m.CompressedBytes.Load())
}

func TestCompressionMetrics_Log(t *testing.T) {
	var logBuf bytes.Buffer
	plog.SetOutput(&logBuf)
	t.Cleanup(func() { plog.SetOutput(os.Stderr) })

	t.Run("logs the summary values and ratio", func(t *testing.T) {
		logBuf.Reset()
		m := &CompressionMetrics{}
		m.AddEntriesProcessed(10)
		m.AddOriginalBytes(200)
		m.AddCompressedBytes(100)
		m.LogSummary("Archive summary")

		output := logBuf.String()
		for _, want := range []string{
			`msg="Archive summary"`,
			"entries_processed=10",
			"original_bytes=200",
			"compressed_bytes=100",
			"ratio_pct=50.00%",
		} {
			assert.Contains(t, output, want)
		}
	})

	t.Run("handles zero original bytes", func(t *testing.T) {
		logBuf.Reset()
		m := &CompressionMetrics{}
		m.LogSummary("Zero Check")

		assert.Contains(t, logBuf.String(), "ratio_pct=0.00%")
	})
}

func TestNoopMetrics(t *testing.T) {
	m := &NoopMetrics{}
	assert.NotPanics(t, func() {
		m.AddEntriesProcessed(1)
		m.AddEntriesSkipped(1)
		m.AddOriginalBytes(1)
		m.AddCompressedBytes(1)
		m.LogSummary("noop test")
	})
}
