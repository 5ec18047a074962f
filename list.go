package blockfs

import (
	"github.com/dargueta/blockfs/bferrors"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/layout"
)

// DirEntryInfo is one row of a directory listing.
type DirEntryInfo struct {
	Name  string
	Size  int64
	IsDir bool
}

// listEntries returns every live, non-self/parent entry of dirInode's
// data blocks, in block-then-slot order.
func (fs *Filesystem) listEntries(dirInode uint32) ([]layout.DirEntry, error) {
	inode, err := fs.inodes.Get(dirInode)
	if err != nil {
		return nil, err
	}

	var entries []layout.DirEntry
	var buf [device.BlockSize]byte
	for _, blockNo := range inode.Direct {
		if blockNo == 0 {
			continue
		}
		if err := fs.dev.ReadBlock(blockNo, &buf); err != nil {
			return nil, bferrors.ErrDeviceIO.WrapError(err)
		}
		for slot := 0; slot < layout.EntriesPerDirBlock; slot++ {
			entry := layout.DecodeDirEntry(buf[layout.EntryOffset(slot):])
			if entry.IsFree() || entry.Name == "." || entry.Name == ".." {
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// recomputeDirSize recursively recomputes dirInode's synthetic size --
// one block for the directory itself plus the size of every child,
// directories counted recursively -- and writes the result back into the
// in-memory inode table as a side effect, the same behavioral quirk the
// source implementation has: listing a directory tree mutates the size
// field of every directory visited. It is not a true on-disk size.
func (fs *Filesystem) recomputeDirSize(dirInode uint32) (uint32, error) {
	entries, err := fs.listEntries(dirInode)
	if err != nil {
		return 0, err
	}

	total := uint32(layout.BlockSize)
	for _, entry := range entries {
		child, err := fs.inodes.Get(entry.Inode)
		if err != nil {
			return 0, err
		}
		if child.IsDirectory {
			childSize, err := fs.recomputeDirSize(entry.Inode)
			if err != nil {
				return 0, err
			}
			total += childSize
		} else {
			total += child.Size
		}
	}

	inode, err := fs.inodes.Get(dirInode)
	if err != nil {
		return 0, err
	}
	inode.Size = total
	if err := fs.inodes.Set(dirInode, inode); err != nil {
		return 0, err
	}
	return total, nil
}

// List resolves path to a directory and returns its children in
// block-then-slot order, "." and ".." excluded. Each directory child's
// reported size is a freshly recomputed synthetic size (see
// [Filesystem.recomputeDirSize]); each file child's size is its inode
// size.
func (fs *Filesystem) List(path string) ([]DirEntryInfo, error) {
	if !fs.mounted {
		return nil, bferrors.ErrNotMounted
	}

	target, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}

	dirInode, err := fs.inodes.Get(target)
	if err != nil {
		return nil, err
	}
	if !dirInode.IsDirectory {
		return nil, bferrors.ErrNotADirectory
	}

	entries, err := fs.listEntries(target)
	if err != nil {
		return nil, err
	}

	result := make([]DirEntryInfo, 0, len(entries))
	for _, entry := range entries {
		child, err := fs.inodes.Get(entry.Inode)
		if err != nil {
			return nil, err
		}

		var size uint32
		if child.IsDirectory {
			size, err = fs.recomputeDirSize(entry.Inode)
			if err != nil {
				return nil, err
			}
		} else {
			size = child.Size
		}

		result = append(result, DirEntryInfo{Name: entry.Name, Size: int64(size), IsDir: child.IsDirectory})
	}
	return result, nil
}
