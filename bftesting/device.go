// Package bftesting provides the small device-construction helpers
// blockfs's own tests lean on, the way disko's testing package backs its
// driver tests with bytesextra-wrapped buffers instead of real files.
package bftesting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/blockfs/device"
)

// NewDevice allocates a fresh in-memory device of totalBlocks blocks.
func NewDevice(t *testing.T, totalBlocks uint32) *device.StreamDevice {
	t.Helper()
	require.GreaterOrEqual(t, totalBlocks, uint32(8), "device must be at least 8 blocks to format")
	return device.NewMemoryDevice(totalBlocks)
}
