package blockfs

import (
	"github.com/dargueta/blockfs/bferrors"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/layout"
)

// allocateInode grabs the first free inode number and persists the inode
// bitmap immediately, closing the gap the source implementation left open
// where bitmap mutations only ever reached disk at format time.
func (fs *Filesystem) allocateInode() (uint32, error) {
	idx, err := fs.inodeAlloc.Allocate()
	if err != nil {
		return 0, err
	}
	if err := fs.persistBitmaps(); err != nil {
		return 0, err
	}
	return idx, nil
}

// insertDirEntry scans parent's existing direct blocks for a free slot and
// writes entry into it. If every existing block is full, it allocates a
// new directory data block -- provided parent still has a free direct
// pointer -- writes entry into its first slot, and grows parent's size by
// one block. If all K direct pointers are already in use and full, it
// fails with [bferrors.ErrDirFull].
func (fs *Filesystem) insertDirEntry(parent uint32, entry layout.DirEntry) error {
	parentInode, err := fs.inodes.Get(parent)
	if err != nil {
		return err
	}

	var buf [device.BlockSize]byte
	for _, blockNo := range parentInode.Direct {
		if blockNo == 0 {
			continue
		}
		if err := fs.dev.ReadBlock(blockNo, &buf); err != nil {
			return bferrors.ErrDeviceIO.WrapError(err)
		}
		for slot := 0; slot < layout.EntriesPerDirBlock; slot++ {
			existing := layout.DecodeDirEntry(buf[layout.EntryOffset(slot):])
			// "." and ".." naming the root carry inode 0, the free marker,
			// but their slots stay reserved.
			if existing.IsFree() && existing.Name != "." && existing.Name != ".." {
				layout.EncodeDirEntry(buf[layout.EntryOffset(slot):], entry)
				if err := fs.dev.WriteBlock(blockNo, &buf); err != nil {
					return bferrors.ErrDeviceIO.WrapError(err)
				}
				return nil
			}
		}
	}

	for i, blockNo := range parentInode.Direct {
		if blockNo != 0 {
			continue
		}

		newBlock, err := fs.blockAlloc.Allocate()
		if err != nil {
			return err
		}
		if err := fs.persistBitmaps(); err != nil {
			return err
		}

		var newBuf [device.BlockSize]byte
		layout.EncodeDirEntry(newBuf[layout.EntryOffset(0):], entry)
		if err := fs.dev.WriteBlock(newBlock, &newBuf); err != nil {
			return bferrors.ErrDeviceIO.WrapError(err)
		}

		parentInode.Direct[i] = newBlock
		parentInode.Size += layout.BlockSize
		return fs.inodes.Set(parent, parentInode)
	}

	return bferrors.ErrDirFull
}

// createDirectoryInode allocates a new directory inode, its single data
// block holding "." and "..", links it into parent under name, and
// returns its inode number.
func (fs *Filesystem) createDirectoryInode(parent uint32, name string) (uint32, error) {
	newInodeNo, err := fs.allocateInode()
	if err != nil {
		return 0, err
	}

	dataBlock, err := fs.blockAlloc.Allocate()
	if err != nil {
		return 0, err
	}
	if err := fs.persistBitmaps(); err != nil {
		return 0, err
	}

	var buf [device.BlockSize]byte
	layout.EncodeDirEntry(buf[layout.EntryOffset(0):], layout.DirEntry{Inode: newInodeNo, Name: "."})
	layout.EncodeDirEntry(buf[layout.EntryOffset(1):], layout.DirEntry{Inode: parent, Name: ".."})
	if err := fs.dev.WriteBlock(dataBlock, &buf); err != nil {
		return 0, bferrors.ErrDeviceIO.WrapError(err)
	}

	newInode := layout.Inode{IsDirectory: true, Size: layout.BlockSize}
	newInode.Direct[0] = dataBlock
	if err := fs.inodes.Set(newInodeNo, newInode); err != nil {
		return 0, err
	}

	if err := fs.insertDirEntry(parent, layout.DirEntry{Inode: newInodeNo, Name: name}); err != nil {
		return 0, err
	}
	return newInodeNo, nil
}

// ensureDirectory finds name under parent, creating it as an empty
// directory if it doesn't exist yet. It fails with
// [bferrors.ErrNotADirectory] if name exists but isn't a directory.
//
// This is the iterative replacement for the source's self-recursive
// intermediate-directory creation, which re-entered through a path of the
// form "/name" and lost the true parent context on every level; carrying
// the parent inode number forward here keeps each step O(1) instead of
// re-resolving from the root every time.
func (fs *Filesystem) ensureDirectory(parent uint32, name string) (uint32, error) {
	child, found, err := fs.findChild(parent, name)
	if err != nil {
		return 0, err
	}
	if found {
		inode, err := fs.inodes.Get(child)
		if err != nil {
			return 0, err
		}
		if !inode.IsDirectory {
			return 0, bferrors.ErrNotADirectory
		}
		return child, nil
	}

	return fs.createDirectoryInode(parent, name)
}

// Create makes a new file or directory at path, creating any missing
// intermediate directories along the way. It fails with
// [bferrors.ErrAlreadyExists] if the final component already exists.
func (fs *Filesystem) Create(path string, isDirectory bool) error {
	if !fs.mounted {
		return bferrors.ErrNotMounted
	}

	components, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(components) == 0 {
		return bferrors.ErrBadPath.WithMessage("cannot create the root directory")
	}

	parent := uint32(layout.RootInodeNumber)
	for _, name := range components[:len(components)-1] {
		parent, err = fs.ensureDirectory(parent, name)
		if err != nil {
			return err
		}
	}

	finalName := components[len(components)-1]

	parentInode, err := fs.inodes.Get(parent)
	if err != nil {
		return err
	}
	if !parentInode.IsDirectory {
		return bferrors.ErrNotADirectory
	}

	_, found, err := fs.findChild(parent, finalName)
	if err != nil {
		return err
	}
	if found {
		return bferrors.ErrAlreadyExists
	}

	if isDirectory {
		_, err := fs.createDirectoryInode(parent, finalName)
		return err
	}

	newInodeNo, err := fs.allocateInode()
	if err != nil {
		return err
	}
	if err := fs.inodes.Set(newInodeNo, layout.Inode{}); err != nil {
		return err
	}
	return fs.insertDirEntry(parent, layout.DirEntry{Inode: newInodeNo, Name: finalName})
}
