package storage

import (
	"bytes"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRegion struct {
	start, size uint32
}

func (r testRegion) Start() uint32 { return r.start }
func (r testRegion) End() uint32   { return r.start + r.size }

func (r testRegion) Contains(address uint32) bool {
	return r.start <= address && address < r.End()
}

func testRegions(count, size uint32) iter.Seq[testRegion] {
	return func(yield func(testRegion) bool) {
		for i := range count {
			if !yield(testRegion{start: i * size, size: size}) {
				return
			}
		}
	}
}

func makeTestData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 256)
	}

	return data
}

func TestOverlaps_SinglePage(t *testing.T) {
	t.Parallel()

	data := makeTestData(4)

	var got []Overlap[testRegion]
	for o := range Overlaps(testRegions(4, 16), data, 4) {
		got = append(got, o)
	}

	require.Len(t, got, 1)
	assert.Equal(t, data, got[0].Data)
	assert.Equal(t, testRegion{start: 0, size: 16}, got[0].Region)
	assert.Equal(t, uint32(4), got[0].Addr)
	assert.Equal(t, 4, got[0].Offset())
}

func TestOverlaps_StraddlesPages(t *testing.T) {
	t.Parallel()

	data := makeTestData(5)

	var got []Overlap[testRegion]
	for o := range Overlaps(testRegions(4, 16), data, 12) {
		got = append(got, o)
	}

	require.Len(t, got, 2)

	assert.Equal(t, data[:4], got[0].Data)
	assert.Equal(t, uint32(0), got[0].Region.Start())
	assert.Equal(t, uint32(12), got[0].Addr)

	assert.Equal(t, data[4:], got[1].Data)
	assert.Equal(t, uint32(16), got[1].Region.Start())
	assert.Equal(t, uint32(16), got[1].Addr)
	assert.Equal(t, 0, got[1].Offset())
}

func TestOverlaps_EmptyData(t *testing.T) {
	t.Parallel()

	for range Overlaps(testRegions(4, 16), nil, 8) {
		t.Fatal("empty data should not touch any region")
	}
}

func TestOverlaps_StopsEarly(t *testing.T) {
	t.Parallel()

	visited := 0
	regions := func(yield func(testRegion) bool) {
		for r := range testRegions(64, 16) {
			visited++
			if !yield(r) {
				return
			}
		}
	}

	count := 0
	for range Overlaps(regions, makeTestData(20), 0) {
		count++
	}

	assert.Equal(t, 2, count)
	// The region after the request is inspected to find the end, nothing past it.
	assert.Equal(t, 3, visited)
}

func TestOverlaps_ConsumerBreak(t *testing.T) {
	t.Parallel()

	count := 0
	for range Overlaps(testRegions(4, 16), makeTestData(64), 0) {
		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, count)
}

func TestOverlaps_ReconstructsData(t *testing.T) {
	t.Parallel()

	const (
		capacity = 64
		pageSize = 16
	)

	data := makeTestData(capacity)

	for off := 0; off < capacity; off++ {
		for length := 0; length <= capacity-off; length++ {
			request := data[:length]

			var joined []byte
			next := uint32(off)

			for o := range Overlaps(testRegions(capacity/pageSize, pageSize), request, uint32(off)) {
				require.Equal(t, next, o.Addr, "offset %d length %d", off, length)
				require.True(t, o.Region.Contains(o.Addr))
				require.LessOrEqual(t, uint64(o.Addr)+uint64(len(o.Data)), uint64(o.Region.End()))
				require.NotEmpty(t, o.Data)

				joined = append(joined, o.Data...)
				next = o.Addr + uint32(len(o.Data))
			}

			require.True(t, bytes.Equal(request, joined), "offset %d length %d", off, length)
		}
	}
}
