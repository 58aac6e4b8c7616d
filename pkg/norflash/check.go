package norflash

// CheckRead returns an error if a read of length bytes at offset is out of
// bounds or not aligned to the read size.
func CheckRead(flash ReadNorFlash, offset uint32, length int) error {
	return checkSlice(flash, flash.ReadSize(), offset, length)
}

// CheckWrite returns an error if a write of length bytes at offset is out of
// bounds or not aligned to the write size.
func CheckWrite(flash NorFlash, offset uint32, length int) error {
	return checkSlice(flash, flash.WriteSize(), offset, length)
}

// CheckErase returns an error if erasing [from, to) is out of bounds (from > to
// included) or not aligned to the erase size.
func CheckErase(flash NorFlash, from, to uint32) error {
	if from > to || int64(to) > int64(flash.Capacity()) {
		return OutOfBounds
	}

	eraseSize := uint32(flash.EraseSize())
	if from%eraseSize != 0 || to%eraseSize != 0 {
		return NotAligned
	}

	return nil
}

func checkSlice(flash ReadNorFlash, align int, offset uint32, length int) error {
	capacity := int64(flash.Capacity())

	if length < 0 || int64(length) > capacity || int64(offset) > capacity-int64(length) {
		return OutOfBounds
	}

	if uint64(offset)%uint64(align) != 0 || length%align != 0 {
		return NotAligned
	}

	return nil
}
