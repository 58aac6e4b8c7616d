// Package norflash provides byte-addressable read/write access on top of NOR
// flash devices, which only support whole-page erase and word-granular
// programming that can clear bits but never set them.
package norflash

import (
	"fmt"
	"math"
)

// DefaultEraseByte is the content of erased NOR flash.
const DefaultEraseByte byte = 0xff

// ReadNorFlash is a read only NOR flash device.
type ReadNorFlash interface {
	// Read reads len(bytes) bytes starting at offset. Offset and length must be
	// aligned to ReadSize and within Capacity, see CheckRead.
	Read(offset uint32, bytes []byte) error
	// Capacity is the size of the device in bytes.
	Capacity() int
	// ReadSize is the minimum number of bytes the device can read.
	ReadSize() int
}

// NorFlash is a NOR flash device.
type NorFlash interface {
	ReadNorFlash

	// WriteSize is the minimum number of bytes the device can write.
	WriteSize() int
	// EraseSize is the minimum number of bytes the device can erase.
	EraseSize() int
	// EraseByte is the content of erased storage.
	EraseByte() byte

	// Erase erases [from, to), which will contain EraseByte afterwards.
	// If power is lost during erase the contents of the page are undefined.
	Erase(from, to uint32) error
	// Write programs bytes at offset. It is not allowed to write the same word
	// twice. If power is lost during write the contents of the written words
	// are undefined but the rest of the page is unchanged.
	Write(offset uint32, bytes []byte) error
}

// MultiwriteNorFlash is a NorFlash that allows writing the same word more than
// once. The result is the logical AND of the previous and the written data, so
// only 1 bits can be turned into 0 bits.
//
// If power is lost during write, bits that were 1 and written as 0 are
// undefined, every other bit of the page keeps its value.
type MultiwriteNorFlash interface {
	NorFlash
	Multiwrite()
}

// IsMultiwrite reports whether flash supports AND-multiwrite.
func IsMultiwrite(flash NorFlash) bool {
	_, ok := flash.(MultiwriteNorFlash)

	return ok
}

// Geometry describes the granularities of a device.
type Geometry struct {
	ReadSize  int
	WriteSize int
	EraseSize int
	EraseByte byte
}

// NewGeometry returns a geometry with the default erase byte.
func NewGeometry(readSize, writeSize, eraseSize int) Geometry {
	return Geometry{
		ReadSize:  readSize,
		WriteSize: writeSize,
		EraseSize: eraseSize,
		EraseByte: DefaultEraseByte,
	}
}

// Validate checks that the geometry describes a device of the given capacity.
func (g Geometry) Validate(capacity int) error {
	if g.ReadSize <= 0 || g.WriteSize <= 0 || g.EraseSize <= 0 {
		return fmt.Errorf("sizes must be positive: read %d, write %d, erase %d", g.ReadSize, g.WriteSize, g.EraseSize)
	}

	if g.WriteSize%g.ReadSize != 0 {
		return fmt.Errorf("write size %d is not a multiple of read size %d", g.WriteSize, g.ReadSize)
	}

	if g.EraseSize%g.WriteSize != 0 {
		return fmt.Errorf("erase size %d is not a multiple of write size %d", g.EraseSize, g.WriteSize)
	}

	// Offsets are 32-bit, so the end of the last page must fit as well.
	if capacity < 0 || uint64(capacity) > math.MaxUint32 {
		return fmt.Errorf("capacity %d does not fit 32-bit offsets", capacity)
	}

	if capacity%g.EraseSize != 0 {
		return fmt.Errorf("capacity %d is not a multiple of erase size %d", capacity, g.EraseSize)
	}

	return nil
}
