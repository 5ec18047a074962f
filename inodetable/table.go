// Package inodetable implements the inode table cache (C4): on mount, the
// entire inode table is read off the device into a flat in-memory slice;
// every operation then addresses inodes by index into that slice, and only
// on unmount is the slice re-serialized and written back.
package inodetable

import (
	"fmt"
	"log"

	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/blockfs/bferrors"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/layout"
)

// Table is the in-memory inode array plus the device coordinates it was
// loaded from, so it knows where to write itself back.
type Table struct {
	inodes     []layout.Inode
	tableStart uint32
	numBlocks  uint32
}

// Load reads every inode out of the inode table region
// [tableStart, tableStart+numBlocks) into a flat slice of
// numBlocks*InodesPerBlock entries.
func Load(dev device.Device, tableStart, numBlocks uint32) (*Table, error) {
	inodes := make([]layout.Inode, 0, uint64(numBlocks)*layout.InodesPerBlock)

	var buf [device.BlockSize]byte
	for b := uint32(0); b < numBlocks; b++ {
		if err := dev.ReadBlock(tableStart+b, &buf); err != nil {
			return nil, bferrors.ErrDeviceIO.WrapError(err)
		}
		for i := 0; i < layout.InodesPerBlock; i++ {
			offset := i * layout.InodeRecordSize
			inodes = append(inodes, layout.DecodeInode(buf[offset:offset+layout.InodeRecordSize]))
		}
	}

	return &Table{inodes: inodes, tableStart: tableStart, numBlocks: numBlocks}, nil
}

// Len returns the number of inode slots in the table.
func (t *Table) Len() int {
	return len(t.inodes)
}

// Get returns a copy of the inode at idx.
func (t *Table) Get(idx uint32) (layout.Inode, error) {
	if int(idx) >= len(t.inodes) {
		return layout.Inode{}, bferrors.ErrInvalidArg.WithMessage("inode index out of range")
	}
	return t.inodes[idx], nil
}

// Set overwrites the inode at idx in memory. It is not persisted until
// [Table.Flush] runs.
func (t *Table) Set(idx uint32, inode layout.Inode) error {
	if int(idx) >= len(t.inodes) {
		return bferrors.ErrInvalidArg.WithMessage("inode index out of range")
	}
	t.inodes[idx] = inode
	return nil
}

// Flush re-serializes every inode block and writes it back to the device.
// A write failure for one block is logged and does not stop the remaining
// blocks from being flushed; every failure encountered is returned
// together as a single combined error.
func (t *Table) Flush(dev device.Device) error {
	var result *multierror.Error

	var buf [device.BlockSize]byte
	for b := uint32(0); b < t.numBlocks; b++ {
		for i := 0; i < layout.InodesPerBlock; i++ {
			idx := int(b)*layout.InodesPerBlock + i
			offset := i * layout.InodeRecordSize
			t.inodes[idx].Encode(buf[offset : offset+layout.InodeRecordSize])
		}

		if err := dev.WriteBlock(t.tableStart+b, &buf); err != nil {
			wrapped := bferrors.ErrDeviceIO.WrapError(err)
			log.Printf("inodetable: failed to flush block %d: %s", t.tableStart+b, wrapped)
			result = multierror.Append(result, fmt.Errorf("block %d: %w", t.tableStart+b, wrapped))
		}
	}

	return result.ErrorOrNil()
}
