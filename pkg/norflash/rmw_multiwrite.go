package norflash

import (
	"go.uber.org/zap"

	"github.com/e2b-dev/infra/packages/flash/pkg/storage"
)

// RmwMultiwriteStorage is RmwStorage for devices with AND-multiwrite: data that
// only clears bits of the current contents is written in place, without erase.
type RmwMultiwriteStorage struct {
	flash       MultiwriteNorFlash
	mergeBuffer []byte
}

var _ storage.Storage = (*RmwMultiwriteStorage)(nil)

// NewRmwMultiwriteStorage returns storage backed by flash that uses mergeBuffer
// as scratch space for a page.
//
// NewRmwMultiwriteStorage panics if mergeBuffer is smaller than the erase size of flash.
func NewRmwMultiwriteStorage(flash MultiwriteNorFlash, mergeBuffer []byte) *RmwMultiwriteStorage {
	checkMergeBuffer(flash, mergeBuffer)

	return &RmwMultiwriteStorage{
		flash:       flash,
		mergeBuffer: mergeBuffer,
	}
}

func (s *RmwMultiwriteStorage) Read(offset uint32, bytes []byte) error {
	return s.flash.Read(offset, bytes)
}

func (s *RmwMultiwriteStorage) Capacity() int {
	return s.flash.Capacity()
}

func (s *RmwMultiwriteStorage) Write(offset uint32, bytes []byte) error {
	if err := checkSlice(s.flash, 1, offset, len(bytes)); err != nil {
		return err
	}

	eraseSize := s.flash.EraseSize()
	page := s.mergeBuffer[:eraseSize]

	for o := range storage.Overlaps(Pages(s.flash), bytes, offset) {
		if err := s.flash.Read(o.Region.Start(), page); err != nil {
			return abortWrite(o, err)
		}

		var err error
		if isSubset(o.Data, page[o.Offset():]) {
			err = s.writeInPlace(o)
		} else {
			zap.L().Debug("multiwrite not possible, erasing page",
				zap.Uint32("page_start", o.Region.Start()),
				zap.Uint32("addr", o.Addr),
			)

			err = eraseAndMerge(s.flash, page, o)
		}

		if err != nil {
			return abortWrite(o, err)
		}
	}

	return nil
}

// writeInPlace writes o.Data directly, padded to the write size with the erase
// byte, which leaves the padded cells unchanged under AND.
func (s *RmwMultiwriteStorage) writeInPlace(o storage.Overlap[Page]) error {
	writeSize := uint32(s.flash.WriteSize())

	lead := o.Addr % writeSize
	end := alignUp(lead+uint32(len(o.Data)), writeSize)

	buf := s.mergeBuffer[:end]
	fill(buf, s.flash.EraseByte())
	copy(buf[lead:], o.Data)

	return s.flash.Write(o.Addr-lead, buf)
}

// isSubset reports whether writing data over existing with AND results in data,
// that is data only has bits set that are also set in existing.
func isSubset(data, existing []byte) bool {
	for i, b := range data {
		if b&existing[i] != b {
			return false
		}
	}

	return true
}

func alignUp(n, align uint32) uint32 {
	return (n + align - 1) / align * align
}

func fill(b []byte, value byte) {
	for i := range b {
		b[i] = value
	}
}
