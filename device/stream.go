package device

import (
	"io"

	"github.com/dargueta/blockfs/bferrors"
)

// StreamDevice adapts any seekable read/write stream -- a file, or an
// in-memory buffer via [NewMemoryDevice] -- into a [Device]. It is the Go
// equivalent of disko's BlockStream: a thin seek-then-read-or-write wrapper
// with bounds checking, specialized to a single fixed block size.
type StreamDevice struct {
	stream      io.ReadWriteSeeker
	totalBlocks uint32
}

// NewStreamDevice wraps stream, which must already be exactly
// totalBlocks*BlockSize bytes long.
func NewStreamDevice(stream io.ReadWriteSeeker, totalBlocks uint32) *StreamDevice {
	return &StreamDevice{stream: stream, totalBlocks: totalBlocks}
}

func (d *StreamDevice) Size() uint32 {
	return d.totalBlocks
}

func (d *StreamDevice) seekToBlock(blockNo uint32) error {
	_, err := d.stream.Seek(int64(blockNo)*BlockSize, io.SeekStart)
	if err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}
	return nil
}

func (d *StreamDevice) ReadBlock(blockNo uint32, buf *[BlockSize]byte) error {
	if err := checkBounds(blockNo, d.totalBlocks); err != nil {
		return err
	}
	if err := d.seekToBlock(blockNo); err != nil {
		return err
	}
	n, err := io.ReadFull(d.stream, buf[:])
	if err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}
	if n != BlockSize {
		return bferrors.ErrDeviceIO.WithMessage("short read")
	}
	return nil
}

func (d *StreamDevice) WriteBlock(blockNo uint32, buf *[BlockSize]byte) error {
	if err := checkBounds(blockNo, d.totalBlocks); err != nil {
		return err
	}
	if err := d.seekToBlock(blockNo); err != nil {
		return err
	}
	n, err := d.stream.Write(buf[:])
	if err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}
	if n != BlockSize {
		return bferrors.ErrDeviceIO.WithMessage("short write")
	}
	return nil
}
