package blockfs

import (
	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/blockfs/bferrors"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/layout"
)

// freeDataBlocks frees every non-zero direct pointer of inode.
func (fs *Filesystem) freeDataBlocks(inode layout.Inode) error {
	var result *multierror.Error
	for _, blockNo := range inode.Direct {
		if blockNo == 0 {
			continue
		}
		if err := fs.blockAlloc.Free(blockNo); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := fs.persistBitmaps(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// freeIndirectBlock frees every block the indirect block points to, and
// then the indirect block itself. The source implementation's remove only
// ever freed a file's direct blocks and leaked the indirect block and
// everything it referenced; this closes that gap.
func (fs *Filesystem) freeIndirectBlock(inode layout.Inode) error {
	if inode.Indirect == 0 {
		return nil
	}

	var result *multierror.Error

	var buf [device.BlockSize]byte
	if err := fs.dev.ReadBlock(inode.Indirect, &buf); err != nil {
		return bferrors.ErrDeviceIO.WrapError(err)
	}
	indirect := layout.DecodeIndirectBlock(&buf)

	for _, blockNo := range indirect {
		if blockNo == 0 {
			continue
		}
		if err := fs.blockAlloc.Free(blockNo); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := fs.blockAlloc.Free(inode.Indirect); err != nil {
		result = multierror.Append(result, err)
	}
	if err := fs.persistBitmaps(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// removeInode recursively frees inodeNo: if it's a directory, every child
// is removed first (failures are collected, not fatal, so one bad child
// doesn't stop the rest from being reclaimed), then its own data blocks
// are freed; if it's a file, its direct blocks, indirect block, and the
// indirect block's data pointers are all freed. The inode slot is cleared
// and its bitmap bit released last.
func (fs *Filesystem) removeInode(inodeNo uint32) error {
	inode, err := fs.inodes.Get(inodeNo)
	if err != nil {
		return err
	}

	var result *multierror.Error

	if inode.IsDirectory {
		entries, err := fs.listEntries(inodeNo)
		if err != nil {
			result = multierror.Append(result, err)
		}
		for _, entry := range entries {
			if err := fs.removeInode(entry.Inode); err != nil {
				result = multierror.Append(result, err)
			}
		}
		if err := fs.freeDataBlocks(inode); err != nil {
			result = multierror.Append(result, err)
		}
	} else {
		if err := fs.freeDataBlocks(inode); err != nil {
			result = multierror.Append(result, err)
		}
		if err := fs.freeIndirectBlock(inode); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := fs.inodeAlloc.Free(inodeNo); err != nil {
		result = multierror.Append(result, err)
	} else if err := fs.persistBitmaps(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := fs.inodes.Set(inodeNo, layout.Inode{}); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// clearDirEntry zeroes out name's slot in parent's directory blocks and
// decrements parent's on-disk size by one directory-entry record. It
// fails with [bferrors.ErrNotFound] if no such entry exists.
func (fs *Filesystem) clearDirEntry(parent uint32, name string) error {
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
			entry := layout.DecodeDirEntry(buf[layout.EntryOffset(slot):])
			if entry.IsFree() || entry.Name != name {
				continue
			}

			layout.EncodeDirEntry(buf[layout.EntryOffset(slot):], layout.DirEntry{})
			if err := fs.dev.WriteBlock(blockNo, &buf); err != nil {
				return bferrors.ErrDeviceIO.WrapError(err)
			}

			if parentInode.Size >= layout.DirEntrySize {
				parentInode.Size -= layout.DirEntrySize
			}
			return fs.inodes.Set(parent, parentInode)
		}
	}
	return bferrors.ErrNotFound
}

// Remove recursively deletes path. If it names a directory, every entry
// beneath it -- except "." and ".." -- is removed first and the
// directory's own data blocks are reclaimed; if it names a file, its
// direct blocks, indirect block, and indirect data blocks are reclaimed.
// An I/O failure partway through a recursive removal does not roll back
// what has already been freed.
func (fs *Filesystem) Remove(path string) error {
	if !fs.mounted {
		return bferrors.ErrNotMounted
	}

	parent, name, err := fs.resolveParent(path)
	if err != nil {
		return err
	}

	targetInode, found, err := fs.findChild(parent, name)
	if err != nil {
		return err
	}
	if !found {
		return bferrors.ErrNotFound
	}

	if err := fs.removeInode(targetInode); err != nil {
		return err
	}
	return fs.clearDirEntry(parent, name)
}
