// Package storage defines byte-addressable storage contracts and the helpers
// used to map byte ranges onto fixed-size regions of an underlying device.
package storage

// ReadStorage is storage that can be read at any byte offset.
type ReadStorage interface {
	// Read fills bytes with the contents starting at offset.
	Read(offset uint32, bytes []byte) error
	// Capacity is the size of the storage in bytes.
	Capacity() int
}

// Storage is ReadStorage that can also be written at any byte offset, without
// alignment requirements.
type Storage interface {
	ReadStorage
	// Write stores bytes at offset. Bytes outside of [offset, offset+len(bytes))
	// are left unchanged.
	Write(offset uint32, bytes []byte) error
}
