package blockfs

import (
	"github.com/dargueta/blockfs/bferrors"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/layout"
)

// Write writes count bytes from buf to path. If the final path component
// doesn't exist, it's created as a file, along with any missing
// intermediate directories. append selects the starting offset: the
// file's current size if true, 0 (overwrite, not truncate -- bytes past
// offset+count are left alone) if false. Missing block pointers are
// allocated on demand as the write crosses block boundaries.
func (fs *Filesystem) Write(path string, buf []byte, count int, appendMode bool) error {
	if !fs.mounted {
		return bferrors.ErrNotMounted
	}
	if count < 0 || count > len(buf) {
		return bferrors.ErrInvalidArg
	}

	components, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(components) == 0 {
		return bferrors.ErrBadPath.WithMessage("path has no final component")
	}

	parent := uint32(layout.RootInodeNumber)
	for _, dir := range components[:len(components)-1] {
		parent, err = fs.ensureDirectory(parent, dir)
		if err != nil {
			return err
		}
	}
	name := components[len(components)-1]

	parentInode, err := fs.inodes.Get(parent)
	if err != nil {
		return err
	}
	if !parentInode.IsDirectory {
		return bferrors.ErrNotADirectory
	}

	targetInodeNo, found, err := fs.findChild(parent, name)
	if err != nil {
		return err
	}
	if !found {
		targetInodeNo, err = fs.allocateInode()
		if err != nil {
			return err
		}
		if err := fs.inodes.Set(targetInodeNo, layout.Inode{}); err != nil {
			return err
		}
		if err := fs.insertDirEntry(parent, layout.DirEntry{Inode: targetInodeNo, Name: name}); err != nil {
			return err
		}
	}

	inode, err := fs.inodes.Get(targetInodeNo)
	if err != nil {
		return err
	}
	if inode.IsDirectory {
		return bferrors.ErrIsADirectory
	}

	var startOffset uint32
	if appendMode {
		startOffset = inode.Size
	}

	endOffset := uint64(startOffset) + uint64(count)
	if endOffset > layout.MaxFileSize {
		return bferrors.ErrFileTooLarge
	}

	remaining := count
	srcOffset := 0
	curOffset := startOffset

	var blockBuf [device.BlockSize]byte
	for remaining > 0 {
		logicalIdx := curOffset / layout.BlockSize
		inBlockOffset := curOffset % layout.BlockSize

		physicalBlock, err := fs.blockForWrite(&inode, logicalIdx)
		if err != nil {
			return err
		}

		if err := fs.dev.ReadBlock(physicalBlock, &blockBuf); err != nil {
			return bferrors.ErrDeviceIO.WrapError(err)
		}

		toWrite := layout.BlockSize - int(inBlockOffset)
		if toWrite > remaining {
			toWrite = remaining
		}

		copy(blockBuf[inBlockOffset:int(inBlockOffset)+toWrite], buf[srcOffset:srcOffset+toWrite])

		if err := fs.dev.WriteBlock(physicalBlock, &blockBuf); err != nil {
			return bferrors.ErrDeviceIO.WrapError(err)
		}

		curOffset += uint32(toWrite)
		srcOffset += toWrite
		remaining -= toWrite
	}

	if uint32(endOffset) > inode.Size {
		inode.Size = uint32(endOffset)
	}
	return fs.inodes.Set(targetInodeNo, inode)
}

// Read reads up to count bytes from path starting at offset into buf,
// returning the number of bytes actually read. Reading at or past the
// file's size returns 0 bytes with no error; count is clamped to the
// number of bytes remaining in the file. Crossing a hole -- a logical
// block within the file's size with no physical block allocated -- is a
// hard error, never treated as a sparse-file zero.
func (fs *Filesystem) Read(path string, buf []byte, count int, offset int64) (int, error) {
	if !fs.mounted {
		return 0, bferrors.ErrNotMounted
	}
	if count < 0 || count > len(buf) || offset < 0 {
		return 0, bferrors.ErrInvalidArg
	}

	target, err := fs.resolve(path)
	if err != nil {
		return 0, err
	}

	inode, err := fs.inodes.Get(target)
	if err != nil {
		return 0, err
	}
	if inode.IsDirectory {
		return 0, bferrors.ErrIsADirectory
	}

	if offset >= int64(inode.Size) {
		return 0, nil
	}

	remainingInFile := inode.Size - uint32(offset)
	if uint32(count) > remainingInFile {
		count = int(remainingInFile)
	}

	remaining := count
	dstOffset := 0
	curOffset := uint32(offset)

	var blockBuf [device.BlockSize]byte
	for remaining > 0 {
		logicalIdx := curOffset / layout.BlockSize
		inBlockOffset := curOffset % layout.BlockSize

		physicalBlock, err := fs.blockForRead(inode, logicalIdx)
		if err != nil {
			return dstOffset, err
		}

		if err := fs.dev.ReadBlock(physicalBlock, &blockBuf); err != nil {
			return dstOffset, bferrors.ErrDeviceIO.WrapError(err)
		}

		toRead := layout.BlockSize - int(inBlockOffset)
		if toRead > remaining {
			toRead = remaining
		}

		copy(buf[dstOffset:dstOffset+toRead], blockBuf[inBlockOffset:int(inBlockOffset)+toRead])

		curOffset += uint32(toRead)
		dstOffset += toRead
		remaining -= toRead
	}

	return dstOffset, nil
}
