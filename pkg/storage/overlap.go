package storage

import "iter"

// Region is a contiguous address range [Start, End) of a device.
type Region interface {
	Start() uint32
	End() uint32
	// Contains reports whether address lies within the region.
	Contains(address uint32) bool
}

// Overlap is the part of a request that falls within a single region.
type Overlap[R Region] struct {
	// Data is the sub-slice of the request that lies inside Region.
	Data []byte
	Region R
	// Addr is the absolute address of Data[0].
	Addr uint32
}

// Offset returns the offset of Addr relative to the start of the region.
func (o Overlap[R]) Offset() int {
	return int(o.Addr - o.Region.Start())
}

// Overlaps walks regions, which must be ascending and non-overlapping, and yields
// the part of data (placed at base) that lands in each region it touches.
//
// Regions ending at or before base are skipped and the walk stops at the first
// region starting at or after the end of data. The yielded Data slices
// concatenate to data.
func Overlaps[R Region](regions iter.Seq[R], data []byte, base uint32) iter.Seq[Overlap[R]] {
	return func(yield func(Overlap[R]) bool) {
		if len(data) == 0 {
			return
		}

		start := uint64(base)
		end := start + uint64(len(data))

		for region := range regions {
			regionStart, regionEnd := uint64(region.Start()), uint64(region.End())

			if regionEnd <= start {
				continue
			}

			if regionStart >= end {
				return
			}

			lo := max(regionStart, start)
			hi := min(regionEnd, end)

			overlap := Overlap[R]{
				Data:   data[lo-start : hi-start],
				Region: region,
				Addr:   uint32(lo),
			}

			if !yield(overlap) {
				return
			}
		}
	}
}
