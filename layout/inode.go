package layout

import "encoding/binary"

// Inode is the decoded, in-memory form of one on-disk inode record.
//
// On disk the record is laid out as:
//
//	[size u32][direct[13] u32][indirect u32][is_directory u8][pad u8[3]]
//
// which packs into exactly InodeRecordSize bytes so InodesPerBlock records
// fit in one block with no slack.
type Inode struct {
	Size        uint32
	Direct      [DirectPointerCount]uint32
	Indirect    uint32
	IsDirectory bool
}

// Encode writes the inode's on-disk representation into buf.
func (inode Inode) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], inode.Size)
	for i, block := range inode.Direct {
		offset := 4 + i*4
		binary.LittleEndian.PutUint32(buf[offset:offset+4], block)
	}
	indirectOffset := 4 + DirectPointerCount*4
	binary.LittleEndian.PutUint32(buf[indirectOffset:indirectOffset+4], inode.Indirect)

	flagOffset := indirectOffset + 4
	if inode.IsDirectory {
		buf[flagOffset] = 1
	} else {
		buf[flagOffset] = 0
	}
	buf[flagOffset+1] = 0
	buf[flagOffset+2] = 0
	buf[flagOffset+3] = 0
}

// DecodeInode parses an on-disk inode record out of buf.
func DecodeInode(buf []byte) Inode {
	var inode Inode
	inode.Size = binary.LittleEndian.Uint32(buf[0:4])
	for i := range inode.Direct {
		offset := 4 + i*4
		inode.Direct[i] = binary.LittleEndian.Uint32(buf[offset : offset+4])
	}
	indirectOffset := 4 + DirectPointerCount*4
	inode.Indirect = binary.LittleEndian.Uint32(buf[indirectOffset : indirectOffset+4])
	inode.IsDirectory = buf[indirectOffset+4] != 0
	return inode
}

// IsFree reports whether this inode record represents an unused slot --
// everything zeroed.
func (inode Inode) IsFree() bool {
	if inode.Size != 0 || inode.Indirect != 0 || inode.IsDirectory {
		return false
	}
	for _, b := range inode.Direct {
		if b != 0 {
			return false
		}
	}
	return true
}
