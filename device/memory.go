package device

import "github.com/xaionaro-go/bytesextra"

// NewMemoryDevice builds a [Device] entirely in memory, backed by a zeroed
// buffer of totalBlocks*BlockSize bytes. This is the backing store the
// bftesting helpers hand to blockfs's own tests; disko's own test suite
// leans on the same bytesextra adapter for the same reason (see
// testing/images.go in the teacher repo).
func NewMemoryDevice(totalBlocks uint32) *StreamDevice {
	buf := make([]byte, uint64(totalBlocks)*BlockSize)
	return NewStreamDevice(bytesextra.NewReadWriteSeeker(buf), totalBlocks)
}
