package layout

import "encoding/binary"

// IndirectBlock is one block reinterpreted as PointersPerIndirectBlock
// little-endian u32 block numbers. A zero entry means "not allocated".
type IndirectBlock [PointersPerIndirectBlock]uint32

// DecodeIndirectBlock parses an indirect block out of a raw buffer.
func DecodeIndirectBlock(buf *[BlockSize]byte) IndirectBlock {
	var block IndirectBlock
	for i := range block {
		block[i] = binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}
	return block
}

// Encode serializes the indirect block back into a raw buffer.
func (block IndirectBlock) Encode(buf *[BlockSize]byte) {
	for i, ptr := range block {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], ptr)
	}
}
