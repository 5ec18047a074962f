package blockfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/blockfs/bferrors"
	"github.com/dargueta/blockfs/bftesting"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/layout"
)

func TestFormat_1024Blocks(t *testing.T) {
	dev := bftesting.NewDevice(t, 1024)
	require.NoError(t, Format(dev))

	fs, err := Mount(dev)
	require.NoError(t, err)

	assert.Equal(t, uint32(1024), fs.super.BlocksCount)
	// T = 3 + ceil(1024*64/4096) = 3 + 16 = 19
	assert.Equal(t, uint32(19), fs.super.DataBlocksStart)
}

func TestFormat_RejectsTooSmallDevice(t *testing.T) {
	// bftesting.NewDevice refuses anything below the 8-block minimum, so the
	// undersized device is built directly.
	dev := device.NewMemoryDevice(7)
	err := Format(dev)
	// 7 blocks is below the smallest device Format accepts.
	require.Error(t, err)
}

func TestFormatThenMountThenListRoot_IsEmpty(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))

	fs, err := Mount(dev)
	require.NoError(t, err)

	entries, err := fs.List("/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateNestedDirectory_ListsWithRecursiveSize(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Create("/a", true))
	require.NoError(t, fs.Create("/a/b", true))
	require.NoError(t, fs.Create("/a/b/c", true))

	entries, err := fs.List("/a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Name)
	assert.True(t, entries[0].IsDir)
	// Two directory data blocks: b/ and b/c/, under the recursive-sum rule.
	assert.EqualValues(t, 2*layout.BlockSize, entries[0].Size)
}

func TestWriteThenReadFile_RoundTrips(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Create("/f", false))
	require.NoError(t, fs.Write("/f", []byte("hello"), 5, false))

	out := make([]byte, 5)
	n, err := fs.Read("/f", out, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(out))
}

func TestWrite_CreatesMissingFile(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Write("/new", []byte("data"), 4, false))

	out := make([]byte, 4)
	n, err := fs.Read("/new", out, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "data", string(out))
}

func TestAppend_ConcatenatesAtOffset(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Create("/f", false))
	require.NoError(t, fs.Write("/f", []byte("AAA"), 3, false))
	require.NoError(t, fs.Write("/f", []byte("BB"), 2, true))

	out := make([]byte, 5)
	n, err := fs.Read("/f", out, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "AAABB", string(out))
}

func TestWrite_IndirectBlockCrossing(t *testing.T) {
	dev := bftesting.NewDevice(t, 4096)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Create("/big", false))

	size := layout.DirectPointerCount*layout.BlockSize + 10
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, fs.Write("/big", data, size, false))

	inodeNo, err := fs.resolve("/big")
	require.NoError(t, err)
	inode, err := fs.inodes.Get(inodeNo)
	require.NoError(t, err)

	assert.EqualValues(t, size, inode.Size)
	assert.NotZero(t, inode.Indirect)

	out := make([]byte, size)
	n, err := fs.Read("/big", out, size, 0)
	require.NoError(t, err)
	assert.Equal(t, size, n)
	assert.Equal(t, data, out)
}

func TestMaxFileSize_AppendPastCeilingFails(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Create("/max", false))

	// Pretend the file is already sitting at the size ceiling: appending
	// even one more byte must be rejected before any block is touched.
	inodeNo, err := fs.resolve("/max")
	require.NoError(t, err)
	inode, err := fs.inodes.Get(inodeNo)
	require.NoError(t, err)
	inode.Size = layout.MaxFileSize
	require.NoError(t, fs.inodes.Set(inodeNo, inode))

	err = fs.Write("/max", []byte{0}, 1, true)
	assert.ErrorIs(t, err, bferrors.ErrFileTooLarge)
}

func TestRecursiveRemove_FreesEverything(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Create("/d", true))
	require.NoError(t, fs.Create("/d/x", false))
	require.NoError(t, fs.Write("/d/x", []byte("hi"), 2, false))

	xInodeNo, err := fs.resolve("/d/x")
	require.NoError(t, err)

	require.NoError(t, fs.Remove("/d"))

	entries, err := fs.List("/")
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.False(t, fs.inodeAlloc.IsAllocated(xInodeNo))
}

func TestCreateRemoveCreate_BitmapStateMatches(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	before := fs.blockAlloc.CountAllocated()

	require.NoError(t, fs.Create("/p", false))
	require.NoError(t, fs.Remove("/p"))

	after := fs.blockAlloc.CountAllocated()
	assert.Equal(t, before, after)

	require.NoError(t, fs.Create("/p", false))
}

func TestPersistence_AcrossUnmountMount(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))

	fs, err := Mount(dev)
	require.NoError(t, err)
	require.NoError(t, fs.Create("/f", false))
	require.NoError(t, fs.Write("/f", []byte("persisted"), 9, false))
	require.NoError(t, fs.Unmount())

	fs2, err := Mount(dev)
	require.NoError(t, err)

	out := make([]byte, 9)
	n, err := fs2.Read("/f", out, 9, 0)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, "persisted", string(out))
}

func TestDirectoryInvariant_DotAndDotDot(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Create("/sub", true))
	subInodeNo, err := fs.resolve("/sub")
	require.NoError(t, err)
	subInode, err := fs.inodes.Get(subInodeNo)
	require.NoError(t, err)

	var buf [layout.BlockSize]byte
	require.NoError(t, fs.dev.ReadBlock(subInode.Direct[0], &buf))

	dot := layout.DecodeDirEntry(buf[layout.EntryOffset(0):])
	dotdot := layout.DecodeDirEntry(buf[layout.EntryOffset(1):])
	assert.Equal(t, ".", dot.Name)
	assert.Equal(t, subInodeNo, dot.Inode)
	assert.Equal(t, "..", dotdot.Name)
	assert.Equal(t, uint32(layout.RootInodeNumber), dotdot.Inode)
}

func TestCreate_DuplicateFails(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Create("/dup", false))
	err = fs.Create("/dup", false)
	assert.ErrorIs(t, err, bferrors.ErrAlreadyExists)
}

func TestRead_HoleIsHardError(t *testing.T) {
	dev := bftesting.NewDevice(t, 4096)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Create("/f", false))

	inodeNo, err := fs.resolve("/f")
	require.NoError(t, err)
	inode, err := fs.inodes.Get(inodeNo)
	require.NoError(t, err)
	inode.Size = layout.BlockSize * 2
	require.NoError(t, fs.inodes.Set(inodeNo, inode))

	out := make([]byte, layout.BlockSize)
	_, err = fs.Read("/f", out, layout.BlockSize, layout.BlockSize)
	assert.ErrorIs(t, err, bferrors.ErrHoleRead)
}

func TestRemove_NotFound(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	err = fs.Remove("/nope")
	assert.ErrorIs(t, err, bferrors.ErrNotFound)
}

func TestRemove_ThroughNonDirectoryPathSegmentFails(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Create("/f", false))
	require.NoError(t, fs.Write("/f", []byte("hello"), 5, false))

	err = fs.Remove("/f/x")
	assert.ErrorIs(t, err, bferrors.ErrNotADirectory)
}

func TestOperations_RequireMount(t *testing.T) {
	dev := bftesting.NewDevice(t, 64)
	require.NoError(t, Format(dev))
	fs, err := Mount(dev)
	require.NoError(t, err)
	require.NoError(t, fs.Unmount())

	assert.ErrorIs(t, fs.Create("/x", false), bferrors.ErrNotMounted)
	_, err = fs.List("/")
	assert.ErrorIs(t, err, bferrors.ErrNotMounted)
	assert.ErrorIs(t, fs.Remove("/x"), bferrors.ErrNotMounted)
}
