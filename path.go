package blockfs

import (
	"strings"

	"github.com/dargueta/blockfs/bferrors"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/layout"
)

// splitPath validates that path is absolute and splits it into non-empty
// components, discarding consecutive slashes the way the resolver is
// required to.
func splitPath(path string) ([]string, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, bferrors.ErrBadPath
	}

	var components []string
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		if len(part) >= layout.MaxNameLength {
			return nil, bferrors.ErrBadPath.WithMessage("path component too long")
		}
		components = append(components, part)
	}
	return components, nil
}

// findChild scans every allocated direct block of the directory inode
// dirInode for an entry named name, returning its inode number if found.
// Indirect blocks are never consulted for directories: they can only hold
// up to K direct blocks worth of entries (see layout.MaxDirectoryChildren).
func (fs *Filesystem) findChild(dirInode uint32, name string) (uint32, bool, error) {
	inode, err := fs.inodes.Get(dirInode)
	if err != nil {
		return 0, false, err
	}

	var buf [device.BlockSize]byte
	for _, blockNo := range inode.Direct {
		if blockNo == 0 {
			continue
		}
		if err := fs.dev.ReadBlock(blockNo, &buf); err != nil {
			return 0, false, bferrors.ErrDeviceIO.WrapError(err)
		}
		for slot := 0; slot < layout.EntriesPerDirBlock; slot++ {
			entry := layout.DecodeDirEntry(buf[layout.EntryOffset(slot):])
			if entry.IsFree() {
				continue
			}
			if entry.Name == name {
				return entry.Inode, true, nil
			}
		}
	}
	return 0, false, nil
}

// resolve walks path component-by-component from the root, returning the
// inode number of the final component. On a miss it returns
// [bferrors.ErrNotFound] together with the inode number of the last
// directory it successfully matched, the way the source's resolver
// reports "parent + target".
func (fs *Filesystem) resolve(path string) (inodeNo uint32, err error) {
	components, err := splitPath(path)
	if err != nil {
		return 0, err
	}

	current := uint32(layout.RootInodeNumber)
	for _, name := range components {
		inode, err := fs.inodes.Get(current)
		if err != nil {
			return 0, err
		}
		if !inode.IsDirectory {
			return 0, bferrors.ErrNotADirectory
		}

		child, found, err := fs.findChild(current, name)
		if err != nil {
			return 0, err
		}
		if !found {
			return current, bferrors.ErrNotFound
		}
		current = child
	}
	return current, nil
}

// resolveParent walks all but the last component of path, returning the
// inode number of the immediate parent directory and the final path
// component's name. It fails with [bferrors.ErrNotADirectory] if any
// intermediate component isn't a directory, and with
// [bferrors.ErrNotFound] if an intermediate component doesn't exist.
func (fs *Filesystem) resolveParent(path string) (parent uint32, name string, err error) {
	components, err := splitPath(path)
	if err != nil {
		return 0, "", err
	}
	if len(components) == 0 {
		return 0, "", bferrors.ErrBadPath.WithMessage("path has no final component")
	}

	current := uint32(layout.RootInodeNumber)
	for _, component := range components[:len(components)-1] {
		inode, err := fs.inodes.Get(current)
		if err != nil {
			return 0, "", err
		}
		if !inode.IsDirectory {
			return 0, "", bferrors.ErrNotADirectory
		}
		child, found, err := fs.findChild(current, component)
		if err != nil {
			return 0, "", err
		}
		if !found {
			return 0, "", bferrors.ErrNotFound
		}
		current = child
	}

	inode, err := fs.inodes.Get(current)
	if err != nil {
		return 0, "", err
	}
	if !inode.IsDirectory {
		return 0, "", bferrors.ErrNotADirectory
	}

	return current, components[len(components)-1], nil
}
