package layout

import "encoding/binary"

// Superblock is the first block of the device. Only the first 24 bytes are
// meaningful; the rest of the block is zero padding.
type Superblock struct {
	BlocksCount      uint32
	InodesCount      uint32
	BlockBitmapBlock uint32
	InodeBitmapBlock uint32
	InodeTableStart  uint32
	DataBlocksStart  uint32
}

// SuperblockByteSize is the number of meaningful bytes a Superblock
// occupies at the front of its block.
const SuperblockByteSize = 6 * 4

// Encode serializes the superblock into the first SuperblockByteSize bytes
// of buf, zeroing the remainder of the block.
func (s Superblock) Encode(buf *[BlockSize]byte) {
	for i := range buf {
		buf[i] = 0
	}
	binary.LittleEndian.PutUint32(buf[0:4], s.BlocksCount)
	binary.LittleEndian.PutUint32(buf[4:8], s.InodesCount)
	binary.LittleEndian.PutUint32(buf[8:12], s.BlockBitmapBlock)
	binary.LittleEndian.PutUint32(buf[12:16], s.InodeBitmapBlock)
	binary.LittleEndian.PutUint32(buf[16:20], s.InodeTableStart)
	binary.LittleEndian.PutUint32(buf[20:24], s.DataBlocksStart)
}

// DecodeSuperblock parses a Superblock out of a block previously written by
// [Superblock.Encode].
func DecodeSuperblock(buf *[BlockSize]byte) Superblock {
	return Superblock{
		BlocksCount:      binary.LittleEndian.Uint32(buf[0:4]),
		InodesCount:      binary.LittleEndian.Uint32(buf[4:8]),
		BlockBitmapBlock: binary.LittleEndian.Uint32(buf[8:12]),
		InodeBitmapBlock: binary.LittleEndian.Uint32(buf[12:16]),
		InodeTableStart:  binary.LittleEndian.Uint32(buf[16:20]),
		DataBlocksStart:  binary.LittleEndian.Uint32(buf[20:24]),
	}
}

// InodeTableBlocks returns the number of blocks the inode table occupies,
// i.e. ceil(InodesCount * InodeRecordSize / BlockSize).
func (s Superblock) InodeTableBlocks() uint32 {
	return ceilDiv(s.InodesCount, InodesPerBlock)
}

func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}
