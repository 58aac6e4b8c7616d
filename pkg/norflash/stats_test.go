package norflash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/e2b-dev/infra/packages/flash/pkg/norflash/metrics"
)

func TestStats_CountsSuccessfulOperations(t *testing.T) {
	t.Parallel()

	flash := newTestFlash()
	stats := NewStats(flash)

	require.NoError(t, stats.Read(0, make([]byte, 8)))
	require.NoError(t, stats.Write(testPage, make([]byte, 8)))
	require.NoError(t, stats.Erase(2*testPage, testSize))

	assert.Equal(t, 1, stats.Reads)
	assert.Equal(t, 2, stats.ReadChunks)
	assert.Equal(t, 1, stats.Writes)
	assert.Equal(t, 2, stats.Written)
	assert.Equal(t, 1, stats.Erases)
	assert.Equal(t, 2, stats.Erased)

	// Failures are not counted.
	assert.Error(t, stats.Read(1, make([]byte, 4)))
	assert.Error(t, stats.Write(testPage, make([]byte, 4)))
	assert.Error(t, stats.Erase(0, 1))

	assert.Equal(t, 1, stats.Reads)
	assert.Equal(t, 1, stats.Writes)
	assert.Equal(t, 1, stats.Erases)

	erased := stats.ErasedPages()
	assert.Equal(t, uint(2), erased.Count())
	assert.True(t, erased.Test(2))
	assert.True(t, erased.Test(3))

	written := stats.WrittenPages()
	assert.Equal(t, uint(1), written.Count())
	assert.True(t, written.Test(1))
}

func TestStats_ForwardsDevice(t *testing.T) {
	t.Parallel()

	flash := newTestFlash()
	stats := NewStats(flash)

	assert.Same(t, flash, stats.Unwrap())
	assert.Equal(t, testSize, stats.Capacity())
	assert.Equal(t, testWord, stats.ReadSize())
	assert.Equal(t, testWord, stats.WriteSize())
	assert.Equal(t, testPage, stats.EraseSize())
	assert.Equal(t, DefaultEraseByte, stats.EraseByte())
	assert.False(t, IsMultiwrite(stats))

	multi := NewMultiwriteStats(newTestMultiwriteFlash())
	assert.True(t, IsMultiwrite(multi))
}

func TestStats_ErasedPagesIsACopy(t *testing.T) {
	t.Parallel()

	stats := NewStats(newTestFlash())
	require.NoError(t, stats.Erase(0, testPage))

	erased := stats.ErasedPages()
	erased.Set(3)

	assert.False(t, stats.ErasedPages().Test(3))
}

func TestStats_WithMetrics(t *testing.T) {
	t.Parallel()

	m, err := metrics.NewMetrics(noop.NewMeterProvider())
	require.NoError(t, err)

	flash := newTestMultiwriteFlash()
	stats := NewMultiwriteStatsWithMetrics(flash, m, "test")
	s := NewRmwMultiwriteStorage(stats, make([]byte, testPage))

	require.NoError(t, s.Write(3, []byte{1, 2, 3}))
	require.NoError(t, s.Write(3, []byte{4}))

	got := make([]byte, 8)
	require.NoError(t, s.Read(0, got))

	assert.Equal(t, []byte{0xff, 0xff, 0xff, 4, 2, 3, 0xff, 0xff}, got)
	assert.Equal(t, 3, stats.Reads)
	assert.Equal(t, 1, stats.Erases)
}
