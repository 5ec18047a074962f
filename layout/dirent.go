package layout

import (
	"bytes"
	"encoding/binary"
)

// DirEntry is the decoded form of one 256-byte directory entry record:
// `{ inode: u32, name: bytes[252] }`. Inode 0 marks a free slot. Names are
// NUL-terminated.
type DirEntry struct {
	Inode uint32
	Name  string
}

// IsFree reports whether this slot holds no entry.
func (e DirEntry) IsFree() bool {
	return e.Inode == 0
}

// EncodeDirEntry writes entry's on-disk representation into buf, which
// must be at least DirEntrySize bytes.
func EncodeDirEntry(buf []byte, entry DirEntry) {
	binary.LittleEndian.PutUint32(buf[0:4], entry.Inode)
	nameBuf := buf[4:DirEntrySize]
	for i := range nameBuf {
		nameBuf[i] = 0
	}
	copy(nameBuf, entry.Name)
}

// DecodeDirEntry parses a directory entry out of buf, which must be at
// least DirEntrySize bytes.
func DecodeDirEntry(buf []byte) DirEntry {
	inode := binary.LittleEndian.Uint32(buf[0:4])
	nameBuf := buf[4:DirEntrySize]
	nulIndex := bytes.IndexByte(nameBuf, 0)
	if nulIndex < 0 {
		nulIndex = len(nameBuf)
	}
	return DirEntry{Inode: inode, Name: string(nameBuf[:nulIndex])}
}

// EntryOffset returns the byte offset of directory slot index within its
// block.
func EntryOffset(slot int) int {
	return slot * DirEntrySize
}
