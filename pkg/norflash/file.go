package norflash

import (
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

// FileFlash emulates a NOR flash device on top of an image file. The image is
// mapped into memory and locked exclusively while open.
//
// FileFlash is not safe for concurrent use.
type FileFlash struct {
	path     string
	file     *os.File
	mmap     mmap.MMap
	geometry Geometry
}

var _ NorFlash = (*FileFlash)(nil)

// OpenFileFlash opens the image at path, creating an erased one if it does not
// exist. An existing image must have exactly capacity bytes.
func OpenFileFlash(path string, capacity int, geometry Geometry) (*FileFlash, error) {
	if err := geometry.Validate(capacity); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}

	if capacity == 0 {
		return nil, fmt.Errorf("capacity must be positive")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, newDeviceError("open", Other, err)
	}

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		err = errors.Join(fmt.Errorf("image %s is in use: %w", path, err), f.Close())

		return nil, newDeviceError("lock", Other, err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, newDeviceError("stat", Other, errors.Join(err, f.Close()))
	}

	created := info.Size() == 0
	if !created && info.Size() != int64(capacity) {
		err = fmt.Errorf("image %s has %d bytes, expected %d", path, info.Size(), capacity)

		return nil, newDeviceError("open", OutOfBounds, errors.Join(err, f.Close()))
	}

	if created {
		// This should create a sparse file on Linux.
		err = f.Truncate(int64(capacity))
		if err != nil {
			return nil, newDeviceError("truncate", Other, errors.Join(err, f.Close()))
		}
	}

	mm, err := mmap.MapRegion(f, capacity, mmap.RDWR, 0, 0)
	if err != nil {
		return nil, newDeviceError("mmap", Other, errors.Join(err, f.Close()))
	}

	if created {
		fill(mm, geometry.EraseByte)
	}

	return &FileFlash{
		path:     path,
		file:     f,
		mmap:     mm,
		geometry: geometry,
	}, nil
}

func (d *FileFlash) Path() string {
	return d.path
}

func (d *FileFlash) Read(offset uint32, bytes []byte) error {
	if err := CheckRead(d, offset, len(bytes)); err != nil {
		return err
	}

	copy(bytes, d.mmap[offset:])

	return nil
}

func (d *FileFlash) Capacity() int {
	return len(d.mmap)
}

func (d *FileFlash) ReadSize() int {
	return d.geometry.ReadSize
}

func (d *FileFlash) WriteSize() int {
	return d.geometry.WriteSize
}

func (d *FileFlash) EraseSize() int {
	return d.geometry.EraseSize
}

func (d *FileFlash) EraseByte() byte {
	return d.geometry.EraseByte
}

func (d *FileFlash) Write(offset uint32, bytes []byte) error {
	if err := CheckWrite(d, offset, len(bytes)); err != nil {
		return err
	}

	return program(d.mmap[offset:], bytes, d.geometry.EraseByte, false)
}

func (d *FileFlash) Erase(from, to uint32) error {
	if err := CheckErase(d, from, to); err != nil {
		return err
	}

	fill(d.mmap[from:to], d.geometry.EraseByte)

	return nil
}

// Sync flushes the mapped image to disk.
func (d *FileFlash) Sync() error {
	if err := d.mmap.Flush(); err != nil {
		return newDeviceError("sync", Other, err)
	}

	return nil
}

// Close flushes and unmaps the image and releases the lock.
func (d *FileFlash) Close() error {
	flushErr := d.mmap.Flush()
	mmapErr := d.mmap.Unmap()
	// Closing the descriptor releases the flock.
	closeErr := d.file.Close()

	if err := errors.Join(flushErr, mmapErr, closeErr); err != nil {
		return newDeviceError("close", Other, err)
	}

	return nil
}

// MultiwriteFileFlash is a FileFlash with AND-multiwrite semantics.
type MultiwriteFileFlash struct {
	*FileFlash
}

var _ MultiwriteNorFlash = (*MultiwriteFileFlash)(nil)

func OpenMultiwriteFileFlash(path string, capacity int, geometry Geometry) (*MultiwriteFileFlash, error) {
	d, err := OpenFileFlash(path, capacity, geometry)
	if err != nil {
		return nil, err
	}

	return &MultiwriteFileFlash{FileFlash: d}, nil
}

func (d *MultiwriteFileFlash) Write(offset uint32, bytes []byte) error {
	if err := CheckWrite(d, offset, len(bytes)); err != nil {
		return err
	}

	return program(d.mmap[offset:], bytes, d.geometry.EraseByte, true)
}

func (d *MultiwriteFileFlash) Multiwrite() {}
