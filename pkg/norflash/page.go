package norflash

import (
	"iter"

	"github.com/e2b-dev/infra/packages/flash/pkg/storage"
)

// Page is one erase page of a device.
type Page struct {
	start uint32
	size  int
}

var _ storage.Region = Page{}

// NewPage returns the page with the given index.
func NewPage(index uint32, size int) Page {
	return Page{
		start: index * uint32(size),
		size:  size,
	}
}

// Start is the address of the first byte of the page.
func (p Page) Start() uint32 {
	return p.start
}

// Size is the size of the page in bytes.
func (p Page) Size() int {
	return p.size
}

// End is the address right after the last byte of the page.
func (p Page) End() uint32 {
	return p.start + uint32(p.size)
}

// Contains checks if an address is contained within the page.
func (p Page) Contains(address uint32) bool {
	return p.start <= address && address < p.End()
}

// Pages returns the erase pages of flash in ascending order.
func Pages(flash NorFlash) iter.Seq[Page] {
	eraseSize := flash.EraseSize()
	count := uint32(flash.Capacity() / eraseSize)

	return func(yield func(Page) bool) {
		for i := range count {
			if !yield(NewPage(i, eraseSize)) {
				return
			}
		}
	}
}

// pageIdx returns the index of the page containing off.
func pageIdx(off uint32, eraseSize int) uint {
	return uint(off / uint32(eraseSize))
}
