package norflash

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestImage(t *testing.T, path string) *FileFlash {
	t.Helper()

	d, err := OpenFileFlash(path, testSize, testGeometry())
	require.NoError(t, err)

	return d
}

func TestFileFlash_CreatesErasedImage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flash.img")
	d := openTestImage(t, path)

	t.Cleanup(func() {
		d.Close()
	})

	assert.Equal(t, path, d.Path())
	assert.Equal(t, testSize, d.Capacity())

	got := make([]byte, testSize)
	require.NoError(t, d.Read(0, got))
	assert.Equal(t, bytes.Repeat([]byte{DefaultEraseByte}, testSize), got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(testSize), info.Size())
}

func TestFileFlash_Persists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flash.img")

	d := openTestImage(t, path)
	s := NewRmwStorage(d, make([]byte, testPage))
	require.NoError(t, s.Write(13, []byte("hello")))
	require.NoError(t, d.Sync())
	require.NoError(t, d.Close())

	d = openTestImage(t, path)
	t.Cleanup(func() {
		d.Close()
	})

	got := make([]byte, 8)
	require.NoError(t, d.Read(12, got))
	assert.Equal(t, []byte{0xff, 'h', 'e', 'l', 'l', 'o', 0xff, 0xff}, got)
}

func TestFileFlash_DeviceSemantics(t *testing.T) {
	t.Parallel()

	d := openTestImage(t, filepath.Join(t.TempDir(), "flash.img"))
	t.Cleanup(func() {
		d.Close()
	})

	assert.Equal(t, NotAligned, d.Write(1, []byte{0, 0, 0, 0}))
	assert.Equal(t, OutOfBounds, d.Read(testSize, make([]byte, 4)))
	assert.Equal(t, NotAligned, d.Erase(0, 1))

	require.NoError(t, d.Write(0, []byte{1, 2, 3, 4}))
	assert.Equal(t, DirtyWrite, d.Write(0, []byte{0, 0, 0, 0}))

	require.NoError(t, d.Erase(0, testPage))
	require.NoError(t, d.Erase(0, testPage))
	require.NoError(t, d.Write(0, []byte{0, 0, 0, 0}))
}

func TestFileFlash_RejectsSizeMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flash.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 2*testSize), 0o644))

	_, err := OpenFileFlash(path, testSize, testGeometry())
	require.Error(t, err)
	assert.Equal(t, OutOfBounds, KindOf(err))
}

func TestFileFlash_RejectsInvalidGeometry(t *testing.T) {
	t.Parallel()

	_, err := OpenFileFlash(filepath.Join(t.TempDir(), "flash.img"), testSize, NewGeometry(4, 6, 16))
	require.Error(t, err)
}

func TestFileFlash_ExclusiveLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flash.img")
	d := openTestImage(t, path)

	_, err := OpenFileFlash(path, testSize, testGeometry())
	require.Error(t, err)

	require.NoError(t, d.Close())

	d = openTestImage(t, path)
	require.NoError(t, d.Close())
}

func TestMultiwriteFileFlash_RoundTrip(t *testing.T) {
	t.Parallel()

	d, err := OpenMultiwriteFileFlash(filepath.Join(t.TempDir(), "flash.img"), 4*testSize, testGeometry())
	require.NoError(t, err)
	t.Cleanup(func() {
		d.Close()
	})

	require.True(t, IsMultiwrite(d))

	require.NoError(t, d.Write(0, []byte{0xf0, 0xff, 0xff, 0xff}))
	require.NoError(t, d.Write(0, []byte{0x30, 0xff, 0xff, 0xff}))

	roundTrip(t, d, NewRmwMultiwriteStorage(d, make([]byte, testPage)))
}
