package norflash

import (
	"context"

	"github.com/bits-and-blooms/bitset"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/e2b-dev/infra/packages/flash/pkg/norflash/metrics"
)

// Stats wraps a NorFlash and collects usage statistics. Only successful
// operations are counted.
type Stats struct {
	flash NorFlash

	// Reads is the number of read operations.
	Reads int
	// ReadChunks is the amount of read-size chunks read.
	ReadChunks int
	// Writes is the number of write operations.
	Writes int
	// Written is the amount of write-size chunks written.
	Written int
	// Erases is the number of erase operations.
	Erases int
	// Erased is the amount of erase pages erased.
	Erased int

	erasedPages  *bitset.BitSet
	writtenPages *bitset.BitSet

	metrics *metrics.Metrics
	attrs   metric.MeasurementOption
}

var _ NorFlash = (*Stats)(nil)

func NewStats(flash NorFlash) *Stats {
	pages := uint(flash.Capacity() / flash.EraseSize())

	return &Stats{
		flash:        flash,
		erasedPages:  bitset.New(pages),
		writtenPages: bitset.New(pages),
	}
}

// NewStatsWithMetrics is NewStats that also records every counted operation
// to m, labelled with device.
func NewStatsWithMetrics(flash NorFlash, m metrics.Metrics, device string) *Stats {
	s := NewStats(flash)
	s.metrics = &m
	s.attrs = metric.WithAttributes(attribute.String("device", device))

	return s
}

// Unwrap returns the wrapped device.
func (s *Stats) Unwrap() NorFlash {
	return s.flash
}

// ErasedPages returns the indexes of pages erased at least once.
func (s *Stats) ErasedPages() *bitset.BitSet {
	return s.erasedPages.Clone()
}

// WrittenPages returns the indexes of pages written at least once.
func (s *Stats) WrittenPages() *bitset.BitSet {
	return s.writtenPages.Clone()
}

func (s *Stats) Read(offset uint32, bytes []byte) error {
	err := s.flash.Read(offset, bytes)
	if err == nil {
		s.Reads++
		s.ReadChunks += len(bytes) / s.flash.ReadSize()

		if s.metrics != nil {
			metrics.Record(context.Background(), s.metrics.ReadsMetric, s.metrics.ReadBytesMetric, int64(len(bytes)), s.attrs)
		}
	}

	return err
}

func (s *Stats) Capacity() int {
	return s.flash.Capacity()
}

func (s *Stats) ReadSize() int {
	return s.flash.ReadSize()
}

func (s *Stats) WriteSize() int {
	return s.flash.WriteSize()
}

func (s *Stats) EraseSize() int {
	return s.flash.EraseSize()
}

func (s *Stats) EraseByte() byte {
	return s.flash.EraseByte()
}

func (s *Stats) Write(offset uint32, bytes []byte) error {
	err := s.flash.Write(offset, bytes)
	if err == nil {
		s.Writes++
		s.Written += len(bytes) / s.flash.WriteSize()

		if len(bytes) > 0 {
			eraseSize := s.flash.EraseSize()
			last := pageIdx(offset+uint32(len(bytes))-1, eraseSize)

			for i := pageIdx(offset, eraseSize); i <= last; i++ {
				s.writtenPages.Set(i)
			}
		}

		if s.metrics != nil {
			metrics.Record(context.Background(), s.metrics.WritesMetric, s.metrics.WrittenBytesMetric, int64(len(bytes)), s.attrs)
		}
	}

	return err
}

func (s *Stats) Erase(from, to uint32) error {
	err := s.flash.Erase(from, to)
	if err == nil {
		eraseSize := s.flash.EraseSize()
		pages := int(to-from) / eraseSize

		s.Erases++
		s.Erased += pages

		for i := range pages {
			s.erasedPages.Set(pageIdx(from, eraseSize) + uint(i))
		}

		if s.metrics != nil {
			metrics.Record(context.Background(), s.metrics.ErasesMetric, s.metrics.ErasedPagesMetric, int64(pages), s.attrs)
		}
	}

	return err
}

// MultiwriteStats is Stats over a MultiwriteNorFlash that keeps the multiwrite
// capability of the wrapped device.
type MultiwriteStats struct {
	*Stats
}

var _ MultiwriteNorFlash = MultiwriteStats{}

func NewMultiwriteStats(flash MultiwriteNorFlash) MultiwriteStats {
	return MultiwriteStats{Stats: NewStats(flash)}
}

func NewMultiwriteStatsWithMetrics(flash MultiwriteNorFlash, m metrics.Metrics, device string) MultiwriteStats {
	return MultiwriteStats{Stats: NewStatsWithMetrics(flash, m, device)}
}

func (MultiwriteStats) Multiwrite() {}
