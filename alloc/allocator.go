// Package alloc provides the linear first-fit bitmap allocator blockfs uses
// for both the block bitmap and the inode bitmap. It is a generalization of
// disko's drivers/common/allocatormap.go Allocator to an arbitrary
// sub-range of the bitmap, since blockfs's block allocator must skip the
// permanently-reserved header blocks while its inode allocator starts at 0.
package alloc

import (
	bitmap "github.com/boljen/go-bitmap"

	"github.com/dargueta/blockfs/bferrors"
)

// Allocator hands out the first clear bit in [start, start+count) of a
// shared bitmap, and clears bits on free. It does no coalescing and keeps
// no free list -- O(count) per allocation, which is acceptable for the
// device sizes blockfs targets.
type Allocator struct {
	bits  bitmap.Bitmap
	start uint32
	count uint32
}

// New wraps an existing bitmap for allocation over [start, start+count).
// The bitmap itself is shared with the caller, not copied: setting or
// clearing a bit through the allocator is visible to anyone else holding
// the same bitmap.Bitmap.
func New(bits bitmap.Bitmap, start, count uint32) *Allocator {
	return &Allocator{bits: bits, start: start, count: count}
}

// Allocate scans linearly for the first clear bit in range, sets it, and
// returns its index. It fails with [bferrors.ErrNoSpace] if the range is
// exhausted.
func (a *Allocator) Allocate() (uint32, error) {
	for i := a.start; i < a.start+a.count; i++ {
		if !a.bits.Get(int(i)) {
			a.bits.Set(int(i), true)
			return i, nil
		}
	}
	return 0, bferrors.ErrNoSpace
}

// Free clears idx's bit unconditionally. idx must lie within the
// allocator's range.
func (a *Allocator) Free(idx uint32) error {
	if idx < a.start || idx >= a.start+a.count {
		return bferrors.ErrInvalidArg.WithMessage("index out of allocator range")
	}
	a.bits.Set(int(idx), false)
	return nil
}

// IsAllocated reports whether idx's bit is set.
func (a *Allocator) IsAllocated(idx uint32) bool {
	return a.bits.Get(int(idx))
}

// MarkAllocated forces idx's bit on, used during format to reserve the
// root inode up front.
func (a *Allocator) MarkAllocated(idx uint32) {
	a.bits.Set(int(idx), true)
}

// CountAllocated returns how many bits are set across the allocator's
// entire range -- used to answer FSStat queries and to check invariants in
// tests.
func (a *Allocator) CountAllocated() uint32 {
	n := uint32(0)
	for i := a.start; i < a.start+a.count; i++ {
		if a.bits.Get(int(i)) {
			n++
		}
	}
	return n
}
