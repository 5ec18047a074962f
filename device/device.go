// Package device abstracts the backing store blockfs is built on: a
// byte-addressable array of fixed-size blocks. It is the only layer that
// touches raw I/O; every other package in this module talks to a [Device],
// never to a file handle directly.
package device

import "github.com/dargueta/blockfs/bferrors"

// BlockSize is the fixed size, in bytes, of every block on the device.
const BlockSize = 4096

// Device is the contract every backing store must satisfy. All I/O is
// whole-block; partial-block reads or writes are not supported and must be
// implemented with read-modify-write above this layer.
type Device interface {
	// Size returns the total number of blocks on the device.
	Size() uint32
	// ReadBlock reads block blockNo into buf in its entirety.
	ReadBlock(blockNo uint32, buf *[BlockSize]byte) error
	// WriteBlock writes buf to block blockNo in its entirety.
	WriteBlock(blockNo uint32, buf *[BlockSize]byte) error
}

func checkBounds(blockNo, total uint32) error {
	if blockNo >= total {
		return bferrors.ErrDeviceIO.WithMessage("block number out of range")
	}
	return nil
}
