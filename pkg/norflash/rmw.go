package norflash

import (
	"go.uber.org/zap"

	"github.com/e2b-dev/infra/packages/flash/pkg/storage"
)

// RmwStorage turns a NorFlash into byte-addressable storage by reading,
// erasing and rewriting every page a write touches.
type RmwStorage struct {
	flash       NorFlash
	mergeBuffer []byte
}

var _ storage.Storage = (*RmwStorage)(nil)

// NewRmwStorage returns storage backed by flash that uses mergeBuffer as scratch
// space for a page. The buffer must not be used by anything else while the
// storage is in use.
//
// NewRmwStorage panics if mergeBuffer is smaller than the erase size of flash.
func NewRmwStorage(flash NorFlash, mergeBuffer []byte) *RmwStorage {
	checkMergeBuffer(flash, mergeBuffer)

	return &RmwStorage{
		flash:       flash,
		mergeBuffer: mergeBuffer,
	}
}

func (s *RmwStorage) Read(offset uint32, bytes []byte) error {
	return s.flash.Read(offset, bytes)
}

func (s *RmwStorage) Capacity() int {
	return s.flash.Capacity()
}

// Write stores bytes at offset. Every touched page is erased and rewritten
// once; the rest of its contents is preserved. The first device error aborts
// the remaining pages, pages completed before it stay written.
func (s *RmwStorage) Write(offset uint32, bytes []byte) error {
	if err := checkSlice(s.flash, 1, offset, len(bytes)); err != nil {
		return err
	}

	page := s.mergeBuffer[:s.flash.EraseSize()]

	for o := range storage.Overlaps(Pages(s.flash), bytes, offset) {
		if err := s.flash.Read(o.Region.Start(), page); err != nil {
			return abortWrite(o, err)
		}

		if err := eraseAndMerge(s.flash, page, o); err != nil {
			return abortWrite(o, err)
		}
	}

	return nil
}

// eraseAndMerge erases the page of o and writes back page, which holds the
// current contents of the page, with o.Data spliced in.
func eraseAndMerge(flash NorFlash, page []byte, o storage.Overlap[Page]) error {
	if err := flash.Erase(o.Region.Start(), o.Region.End()); err != nil {
		return err
	}

	copy(page[o.Offset():], o.Data)

	return flash.Write(o.Region.Start(), page)
}

func checkMergeBuffer(flash NorFlash, mergeBuffer []byte) {
	if len(mergeBuffer) < flash.EraseSize() {
		panic("merge buffer is too small")
	}
}

func abortWrite(o storage.Overlap[Page], err error) error {
	zap.L().Debug("aborting flash write",
		zap.Uint32("page_start", o.Region.Start()),
		zap.Uint32("addr", o.Addr),
		zap.Int("length", len(o.Data)),
		zap.Stringer("kind", KindOf(err)),
		zap.Error(err),
	)

	return err
}
