package device

import (
	"io"
	"os"

	"github.com/dargueta/blockfs/bferrors"
)

// OpenFileDevice opens an existing image file as a [Device]. The file's
// size must be an exact multiple of BlockSize.
func OpenFileDevice(path string) (*StreamDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, bferrors.ErrDeviceIO.WrapError(err)
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, bferrors.ErrDeviceIO.WrapError(err)
	}
	if size%BlockSize != 0 {
		f.Close()
		return nil, bferrors.ErrDeviceIO.WithMessage("image size is not a multiple of the block size")
	}

	return NewStreamDevice(f, uint32(size/BlockSize)), nil
}

// CreateFileDevice creates a new image file of totalBlocks blocks, all
// zeroed, and returns it as a [Device].
func CreateFileDevice(path string, totalBlocks uint32) (*StreamDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, bferrors.ErrDeviceIO.WrapError(err)
	}

	if err := f.Truncate(int64(totalBlocks) * BlockSize); err != nil {
		f.Close()
		return nil, bferrors.ErrDeviceIO.WrapError(err)
	}

	return NewStreamDevice(f, totalBlocks), nil
}
