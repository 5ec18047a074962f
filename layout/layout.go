// Package layout defines the on-disk records blockfs writes into its
// blocks -- the superblock, the inode record, the directory entry, and the
// indirect-pointer block -- and the little-endian codecs that move between
// them and a raw [device.BlockSize]-byte buffer. It has no notion of
// mounting, allocation, or paths; it only knows how bytes map to structs.
package layout

const (
	// BlockSize is the fixed size of every block, in bytes.
	BlockSize = 4096
	// DirectPointerCount is K, the number of direct block pointers an inode
	// carries.
	DirectPointerCount = 13
	// InodeRecordSize is the on-disk size of one inode record; it must
	// divide BlockSize evenly.
	InodeRecordSize = 64
	// InodesPerBlock is the number of inode records packed into one block.
	InodesPerBlock = BlockSize / InodeRecordSize
	// MaxNameLength is the longest name a directory entry can hold,
	// including the NUL terminator.
	MaxNameLength = 252
	// DirEntrySize is the on-disk size of one directory entry.
	DirEntrySize = 4 + MaxNameLength
	// EntriesPerDirBlock is the number of directory entries packed into one
	// block.
	EntriesPerDirBlock = BlockSize / DirEntrySize
	// PointersPerIndirectBlock is the number of block numbers an indirect
	// block holds.
	PointersPerIndirectBlock = BlockSize / 4

	// MaxFileSize is the largest logical file size reachable through K
	// direct pointers plus one single-indirect block of pointers.
	MaxFileSize = DirectPointerCount*BlockSize + PointersPerIndirectBlock*BlockSize

	// MaxDirectoryChildren is the number of non-self/parent entries a
	// directory can hold: K direct blocks of EntriesPerDirBlock slots each,
	// minus the "." and ".." slots in the first block. Directories never
	// use the indirect pointer, so this is a hard ceiling.
	MaxDirectoryChildren = DirectPointerCount*EntriesPerDirBlock - 2

	// RootInodeNumber is always inode 0.
	RootInodeNumber = 0
)
