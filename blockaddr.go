package blockfs

import (
	"github.com/dargueta/blockfs/bferrors"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/layout"
)

// blockForRead maps a logical block index within inode's data to a
// physical block number for reading. A zero pointer -- a hole -- is a hard
// error here, never a sparse-file zero.
func (fs *Filesystem) blockForRead(inode layout.Inode, logicalIdx uint32) (uint32, error) {
	if logicalIdx < layout.DirectPointerCount {
		block := inode.Direct[logicalIdx]
		if block == 0 {
			return 0, bferrors.ErrHoleRead
		}
		return block, nil
	}

	j := logicalIdx - layout.DirectPointerCount
	if j >= layout.PointersPerIndirectBlock {
		return 0, bferrors.ErrFileTooLarge
	}
	if inode.Indirect == 0 {
		return 0, bferrors.ErrHoleRead
	}

	var buf [device.BlockSize]byte
	if err := fs.dev.ReadBlock(inode.Indirect, &buf); err != nil {
		return 0, bferrors.ErrDeviceIO.WrapError(err)
	}
	indirect := layout.DecodeIndirectBlock(&buf)
	block := indirect[j]
	if block == 0 {
		return 0, bferrors.ErrHoleRead
	}
	return block, nil
}

// blockForWrite maps a logical block index to a physical block number for
// writing, allocating the direct pointer, the indirect block, and/or the
// indirect slot on demand as needed. It mutates *inode in place; the
// caller is responsible for persisting the inode afterward.
func (fs *Filesystem) blockForWrite(inode *layout.Inode, logicalIdx uint32) (uint32, error) {
	if logicalIdx < layout.DirectPointerCount {
		if inode.Direct[logicalIdx] == 0 {
			block, err := fs.blockAlloc.Allocate()
			if err != nil {
				return 0, err
			}
			if err := fs.persistBitmaps(); err != nil {
				return 0, err
			}
			inode.Direct[logicalIdx] = block
		}
		return inode.Direct[logicalIdx], nil
	}

	j := logicalIdx - layout.DirectPointerCount
	if j >= layout.PointersPerIndirectBlock {
		return 0, bferrors.ErrFileTooLarge
	}

	if inode.Indirect == 0 {
		block, err := fs.blockAlloc.Allocate()
		if err != nil {
			return 0, err
		}
		if err := fs.persistBitmaps(); err != nil {
			return 0, err
		}

		var zero [device.BlockSize]byte
		if err := fs.dev.WriteBlock(block, &zero); err != nil {
			return 0, bferrors.ErrDeviceIO.WrapError(err)
		}
		inode.Indirect = block
	}

	var buf [device.BlockSize]byte
	if err := fs.dev.ReadBlock(inode.Indirect, &buf); err != nil {
		return 0, bferrors.ErrDeviceIO.WrapError(err)
	}
	indirect := layout.DecodeIndirectBlock(&buf)

	if indirect[j] == 0 {
		block, err := fs.blockAlloc.Allocate()
		if err != nil {
			return 0, err
		}
		if err := fs.persistBitmaps(); err != nil {
			return 0, err
		}
		indirect[j] = block
		indirect.Encode(&buf)
		if err := fs.dev.WriteBlock(inode.Indirect, &buf); err != nil {
			return 0, bferrors.ErrDeviceIO.WrapError(err)
		}
	}

	return indirect[j], nil
}
