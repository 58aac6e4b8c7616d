package norflash

// MockFlash is a RAM-backed NorFlash for tests. Writing a byte that is not
// erased fails with DirtyWrite.
type MockFlash struct {
	geometry Geometry
	data     []byte
}

var _ NorFlash = (*MockFlash)(nil)

// NewMockFlash creates an erased device of the given capacity.
func NewMockFlash(capacity int, geometry Geometry) *MockFlash {
	data := make([]byte, capacity)
	fill(data, geometry.EraseByte)

	return &MockFlash{
		geometry: geometry,
		data:     data,
	}
}

// Bytes exposes the contents of the device.
func (m *MockFlash) Bytes() []byte {
	return m.data
}

func (m *MockFlash) Read(offset uint32, bytes []byte) error {
	if err := CheckRead(m, offset, len(bytes)); err != nil {
		return err
	}

	copy(bytes, m.data[offset:])

	return nil
}

func (m *MockFlash) Capacity() int {
	return len(m.data)
}

func (m *MockFlash) ReadSize() int {
	return m.geometry.ReadSize
}

func (m *MockFlash) WriteSize() int {
	return m.geometry.WriteSize
}

func (m *MockFlash) EraseSize() int {
	return m.geometry.EraseSize
}

func (m *MockFlash) EraseByte() byte {
	return m.geometry.EraseByte
}

func (m *MockFlash) Write(offset uint32, bytes []byte) error {
	if err := CheckWrite(m, offset, len(bytes)); err != nil {
		return err
	}

	return program(m.data[offset:], bytes, m.geometry.EraseByte, false)
}

func (m *MockFlash) Erase(from, to uint32) error {
	if err := CheckErase(m, from, to); err != nil {
		return err
	}

	fill(m.data[from:to], m.geometry.EraseByte)

	return nil
}

// MockMultiwriteFlash is a MockFlash with AND-multiwrite semantics.
type MockMultiwriteFlash struct {
	*MockFlash
}

var _ MultiwriteNorFlash = (*MockMultiwriteFlash)(nil)

func NewMockMultiwriteFlash(capacity int, geometry Geometry) *MockMultiwriteFlash {
	return &MockMultiwriteFlash{
		MockFlash: NewMockFlash(capacity, geometry),
	}
}

func (m *MockMultiwriteFlash) Write(offset uint32, bytes []byte) error {
	if err := CheckWrite(m, offset, len(bytes)); err != nil {
		return err
	}

	return program(m.data[offset:], bytes, m.geometry.EraseByte, true)
}

func (m *MockMultiwriteFlash) Multiwrite() {}

// program applies a write of src onto dst. Without multiwrite every target
// byte must be erased and able to hold its new value; with multiwrite the
// result is the AND of the old and the new value.
func program(dst, src []byte, eraseByte byte, multiwrite bool) error {
	for i, b := range src {
		if multiwrite {
			dst[i] &= b

			continue
		}

		if dst[i] != eraseByte {
			return DirtyWrite
		}

		dst[i] &= b
		if dst[i] != b {
			return DirtyWrite
		}
	}

	return nil
}
