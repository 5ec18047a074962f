// Package blockfs implements a small Unix-flavoured, block-structured
// filesystem living entirely inside a [device.Device]: a superblock, two
// bitmaps, a fixed inode table, and a data area, with path-based create,
// list, remove, and positional read/write, persisted across
// unmount/mount cycles.
//
// Mirrors the shape of disko's UnixV1Driver -- a single struct owning the
// mounted state, with Format/Mount/Unmount lifecycle methods -- but
// without disko's pluggable-driver indirection, since this module
// implements exactly one on-disk format.
package blockfs

import (
	bitmap "github.com/boljen/go-bitmap"

	"github.com/dargueta/blockfs/alloc"
	"github.com/dargueta/blockfs/bferrors"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/inodetable"
	"github.com/dargueta/blockfs/layout"
)

// Filesystem is the process-wide mount state: the device, the superblock,
// both bitmaps, and the inode table cache. There is no concurrency control
// because none is permitted -- callers that need it must serialize
// externally.
type Filesystem struct {
	dev   device.Device
	super layout.Superblock

	blockBitmap bitmap.Bitmap
	inodeBitmap bitmap.Bitmap
	blockAlloc  *alloc.Allocator
	inodeAlloc  *alloc.Allocator

	inodes *inodetable.Table

	mounted bool
}

// minFormattableBlocks is the smallest device Format will accept.
const minFormattableBlocks = 8

// Format lays out a fresh superblock, both bitmaps, an empty inode table,
// and the root directory's inode and data block on dev. dev must not
// currently be mounted by this package; Format operates directly on the
// device and does not require a [Filesystem].
func Format(dev device.Device) error {
	n := dev.Size()
	if n < minFormattableBlocks {
		return bferrors.ErrInvalidArg.WithMessage("device is smaller than the minimum formattable size")
	}

	// One inode per block of total device capacity -- deliberate
	// over-provisioning, per the on-disk layout's design.
	inodesCount := n
	inodeTableBlocks := layout.Superblock{InodesCount: inodesCount}.InodeTableBlocks()
	inodeTableStart := uint32(3)
	dataBlocksStart := inodeTableStart + inodeTableBlocks

	if dataBlocksStart >= n {
		return bferrors.ErrInvalidArg.WithMessage("device too small: inode table would consume the entire device")
	}

	super := layout.Superblock{
		BlocksCount:      n,
		InodesCount:      inodesCount,
		BlockBitmapBlock: 1,
		InodeBitmapBlock: 2,
		InodeTableStart:  inodeTableStart,
		DataBlocksStart:  dataBlocksStart,
	}

	var block [device.BlockSize]byte

	super.Encode(&block)
	if err := dev.WriteBlock(0, &block); err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}

	blockBitmap := bitmap.New(int(n))
	blockAlloc := alloc.New(blockBitmap, dataBlocksStart, n-dataBlocksStart)
	for i := uint32(0); i < dataBlocksStart; i++ {
		blockBitmap.Set(int(i), true)
	}

	rootDataBlock, err := blockAlloc.Allocate()
	if err != nil {
		return err
	}

	layout.EncodeBitmapBlock(blockBitmap.Data(false), &block)
	if err := dev.WriteBlock(super.BlockBitmapBlock, &block); err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}

	inodeBitmap := bitmap.New(int(inodesCount))
	inodeAlloc := alloc.New(inodeBitmap, 0, inodesCount)
	inodeAlloc.MarkAllocated(layout.RootInodeNumber)

	layout.EncodeBitmapBlock(inodeBitmap.Data(false), &block)
	if err := dev.WriteBlock(super.InodeBitmapBlock, &block); err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}

	rootInode := layout.Inode{
		Size:        layout.BlockSize,
		IsDirectory: true,
	}
	rootInode.Direct[0] = rootDataBlock

	for i := range block {
		block[i] = 0
	}
	rootInode.Encode(block[0:layout.InodeRecordSize])
	if err := dev.WriteBlock(inodeTableStart, &block); err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}
	for b := inodeTableStart + 1; b < dataBlocksStart; b++ {
		var zero [device.BlockSize]byte
		if err := dev.WriteBlock(b, &zero); err != nil {
			return bferrors.ErrDeviceIO.WrapError(err)
		}
	}

	var dirBlock [device.BlockSize]byte
	layout.EncodeDirEntry(dirBlock[layout.EntryOffset(0):], layout.DirEntry{Inode: layout.RootInodeNumber, Name: "."})
	layout.EncodeDirEntry(dirBlock[layout.EntryOffset(1):], layout.DirEntry{Inode: layout.RootInodeNumber, Name: ".."})
	if err := dev.WriteBlock(rootDataBlock, &dirBlock); err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}

	return nil
}

// Mount loads the superblock, both bitmaps, and the full inode table into
// memory, returning a ready-to-use Filesystem.
func Mount(dev device.Device) (*Filesystem, error) {
	var block [device.BlockSize]byte

	if err := dev.ReadBlock(0, &block); err != nil {
		return nil, bferrors.ErrDeviceIO.WrapError(err)
	}
	super := layout.DecodeSuperblock(&block)

	if err := dev.ReadBlock(super.BlockBitmapBlock, &block); err != nil {
		return nil, bferrors.ErrDeviceIO.WrapError(err)
	}
	blockBitmap := bitmap.Bitmap(layout.DecodeBitmapBlock(&block))

	if err := dev.ReadBlock(super.InodeBitmapBlock, &block); err != nil {
		return nil, bferrors.ErrDeviceIO.WrapError(err)
	}
	inodeBitmap := bitmap.Bitmap(layout.DecodeBitmapBlock(&block))

	inodes, err := inodetable.Load(dev, super.InodeTableStart, super.InodeTableBlocks())
	if err != nil {
		return nil, err
	}

	fs := &Filesystem{
		dev:         dev,
		super:       super,
		blockBitmap: blockBitmap,
		inodeBitmap: inodeBitmap,
		blockAlloc:  alloc.New(blockBitmap, super.DataBlocksStart, super.BlocksCount-super.DataBlocksStart),
		inodeAlloc:  alloc.New(inodeBitmap, 0, super.InodesCount),
		inodes:      inodes,
		mounted:     true,
	}
	return fs, nil
}

// Unmount writes the inode table back to the device. I/O errors during the
// flush are logged but do not stop the remaining inode-table blocks from
// being written; any failures are combined and returned to the caller.
func (fs *Filesystem) Unmount() error {
	if !fs.mounted {
		return bferrors.ErrNotMounted
	}
	fs.mounted = false
	return fs.inodes.Flush(fs.dev)
}

// persistBitmaps writes both bitmaps back to the device. blockfs calls
// this after every mutation that allocates or frees a block or inode,
// rather than only at format time, closing the durability gap the source
// implementation left open (bitmap state would otherwise not survive a
// remount).
func (fs *Filesystem) persistBitmaps() error {
	var block [device.BlockSize]byte

	layout.EncodeBitmapBlock(fs.blockBitmap.Data(false), &block)
	if err := fs.dev.WriteBlock(fs.super.BlockBitmapBlock, &block); err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}

	layout.EncodeBitmapBlock(fs.inodeBitmap.Data(false), &block)
	if err := fs.dev.WriteBlock(fs.super.InodeBitmapBlock, &block); err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}
	return nil
}

// FSStat summarizes filesystem capacity and usage, the information "stat"
// reports.
type FSStat struct {
	BlockSize     uint32
	TotalBlocks   uint32
	FreeBlocks    uint32
	TotalInodes   uint32
	FreeInodes    uint32
	MaxFileSize   uint32
	MaxNameLength uint32
}

// Stat reports block and inode usage counts.
func (fs *Filesystem) Stat() (FSStat, error) {
	if !fs.mounted {
		return FSStat{}, bferrors.ErrNotMounted
	}

	usedDataBlocks := fs.blockAlloc.CountAllocated()
	usedInodes := fs.inodeAlloc.CountAllocated()
	dataBlocks := fs.super.BlocksCount - fs.super.DataBlocksStart

	return FSStat{
		BlockSize:     layout.BlockSize,
		TotalBlocks:   fs.super.BlocksCount,
		FreeBlocks:    dataBlocks - usedDataBlocks,
		TotalInodes:   fs.super.InodesCount,
		FreeInodes:    fs.super.InodesCount - usedInodes,
		MaxFileSize:   layout.MaxFileSize,
		MaxNameLength: layout.MaxNameLength,
	}, nil
}
