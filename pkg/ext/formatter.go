package ext

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/vorteil/moses/pkg/elog"
	"github.com/vorteil/moses/pkg/fsutil"
	"github.com/vorteil/moses/pkg/registry"
)

const defaultBlockSize = 4096

// Formatter implements registry.FilesystemFormatter for one ext
// version, delegating every version-varying decision to Config while
// sharing the layout/superblock/inode/group-descriptor code across all
// three.
type Formatter struct {
	version  Version
	name     string
	metadata registry.FormatterMetadata
}

func newFormatter(version Version, name, description string, minSize uint64) *Formatter {
	return &Formatter{
		version: version,
		name:    name,
		metadata: registry.FormatterMetadata{
			Name:               name,
			Description:        description,
			Category:           registry.CategoryModern,
			SupportedPlatforms: []registry.Platform{registry.PlatformLinux, registry.PlatformDarwin, registry.PlatformWindows},
			MinSize:            minSize,
			Capabilities: registry.Capabilities{
				SupportsLabel:  true,
				MaxLabelLength: 16,
				SupportsUUID:   true,
				MaxFileSize:    1 << 44,
				CaseSensitive:  true,
			},
		},
	}
}

// NewExt2 returns the classic, journal-less ext2 formatter.
func NewExt2() *Formatter {
	f := newFormatter(Ext2, "ext2", "Second Extended Filesystem, no journal", 512*1024)
	f.metadata.Aliases = []string{"ext2fs"}
	return f
}

// NewExt3 returns the journaled, indirect-block-only ext3 formatter.
func NewExt3() *Formatter {
	f := newFormatter(Ext3, "ext3", "Third Extended Filesystem, journaled, classic block mapping", 1<<20)
	f.metadata.Aliases = []string{"ext3fs"}
	return f
}

// NewExt4 returns the extent-based, metadata-checksummed ext4
// formatter.
func NewExt4() *Formatter {
	f := newFormatter(Ext4, "ext4", "Fourth Extended Filesystem, extents, metadata checksums", 1<<20)
	f.metadata.Aliases = []string{"ext4fs"}
	return f
}

func (f *Formatter) Name() string                       { return f.name }
func (f *Formatter) Metadata() registry.FormatterMetadata { return f.metadata }
func (f *Formatter) RequiresExternalTools() []string     { return nil }

func (f *Formatter) ValidateOptions(opts registry.FormatOptions) error {
	if opts.ClusterSize != 0 {
		if _, err := blockSizeOption(opts, 0); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) CanFormat(dev registry.Device) bool {
	if dev.SizeBytes < f.metadata.MinSize {
		return false
	}
	if f.metadata.MaxSize != 0 && dev.SizeBytes > f.metadata.MaxSize {
		return false
	}
	return true
}

func blockSizeOption(opts registry.FormatOptions, deviceBytes uint64) (uint32, error) {
	if opts.ClusterSize != 0 {
		return opts.ClusterSize, nil
	}
	if v, ok := opts.AdditionalOptions["block_size"]; ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err == nil {
			return uint32(n), nil
		}
	}
	if deviceBytes > 0 && deviceBytes < 16<<20 {
		return 1024, nil
	}
	return defaultBlockSize, nil
}

func (f *Formatter) layoutFor(dev registry.Device, opts registry.FormatOptions) (Layout, error) {
	blockSize, err := blockSizeOption(opts, dev.SizeBytes)
	if err != nil {
		return Layout{}, err
	}
	cfg := NewConfig(f.version, dev.SizeBytes)
	return ComputeLayout(dev.SizeBytes, blockSize, cfg)
}

func (f *Formatter) DryRun(ctx context.Context, dev registry.Device, opts registry.FormatOptions) (registry.SimulationReport, error) {
	l, err := f.layoutFor(dev, opts)
	if err != nil {
		return registry.SimulationReport{}, err
	}
	groups := accountGroups(l)
	return registry.SimulationReport{
		EstimatedDuration:       time.Duration(l.TotalBlocks/262144+1) * time.Second,
		WillEraseData:           true,
		PredictedFreeSpaceBytes: totalFreeBlocks(groups) * uint64(l.BlockSize),
	}, nil
}

type seekWriter struct {
	w    io.WriteSeeker
	base int64
}

func (s seekWriter) writeAt(offset int64, p []byte) error {
	if _, err := s.w.Seek(s.base+offset, io.SeekStart); err != nil {
		return err
	}
	_, err := s.w.Write(p)
	return err
}

// Format writes a complete, mountable ext filesystem to w, following
// spec.md §4.5's device-offset ordering. Every group's bitmaps, inode
// table, and root/lost+found directory data are written first; the
// superblock and group-descriptor table (primary plus every
// sparse-superblock backup) are deferred to a final pass so a crash
// mid-format never leaves a primary superblock pointing at
// not-yet-initialized metadata.
func (f *Formatter) Format(ctx context.Context, dev registry.Device, opts registry.FormatOptions, w io.WriteSeeker, log elog.Logger) error {
	l, err := f.layoutFor(dev, opts)
	if err != nil {
		return err
	}
	cfg := l.Config
	sw := seekWriter{w: w}
	groups := accountGroups(l)
	uuid := fsutil.NewUUID()
	var uuidBytes [16]byte
	copy(uuidBytes[:], uuid[:])
	now := time.Now()

	for g := uint64(0); g < l.NumGroups; g++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		addrs := GroupMetadataAddrs(l, g)

		blockBitmap := fsutil.NewBitmap(int(l.BlocksPerGroup))
		blockBitmap.SetRange(0, int(l.MetadataBlocksInGroup(g)))
		if g == 0 {
			blockBitmap.SetRange(int(l.MetadataBlocksInGroup(g)), int(l.RootDirBlocks+l.LostFoundBlocks))
		}
		if g == l.NumGroups-1 {
			inGroup := l.BlocksInGroup(g)
			blockBitmap.SetRange(int(inGroup), int(l.BlocksPerGroup)-int(inGroup))
		}
		if err = sw.writeAt(int64(addrs.blockBitmap)*int64(l.BlockSize), blockBitmap.Bytes(int(l.BlockSize))); err != nil {
			return err
		}

		inodeBitmap := fsutil.NewBitmap(int(l.InodesPerGroup))
		if g == 0 {
			inodeBitmap.SetRange(0, FirstNonReserved) // inodes 1..11
		}
		if err = sw.writeAt(int64(addrs.inodeBitmap)*int64(l.BlockSize), inodeBitmap.Bytes(int(l.BlockSize))); err != nil {
			return err
		}

		inodeTableBytes := make([]byte, l.InodeTableBlocksPerGroup*uint64(l.BlockSize))
		if g == 0 {
			rootBlock := addrs.inodeTable + l.InodeTableBlocksPerGroup
			rootInode := BuildInode(cfg, rootBlock, l.RootDirBlocks, int64(l.BlockSize), 3, now)
			SetBlockCount512(rootInode, l.RootDirBlocks, uint64(l.BlockSize))
			rootRaw, err := EncodeInode(cfg, rootInode, RootInode, uuidBytes)
			if err != nil {
				return err
			}
			copy(inodeTableBytes[int(cfg.InodeSize)*(RootInode-1):], rootRaw)

			lfBlock := rootBlock + l.RootDirBlocks
			lfInode := BuildInode(cfg, lfBlock, l.LostFoundBlocks, lostFoundTargetBytes, 2, now)
			SetBlockCount512(lfInode, l.LostFoundBlocks, uint64(l.BlockSize))
			lfRaw, err := EncodeInode(cfg, lfInode, LostFoundInode, uuidBytes)
			if err != nil {
				return err
			}
			copy(inodeTableBytes[int(cfg.InodeSize)*(LostFoundInode-1):], lfRaw)
		}
		if err = sw.writeAt(int64(addrs.inodeTable)*int64(l.BlockSize), inodeTableBytes); err != nil {
			return err
		}

		if g == 0 {
			rootBlock := addrs.inodeTable + l.InodeTableBlocksPerGroup
			if err = sw.writeAt(int64(rootBlock)*int64(l.BlockSize), BuildRootDirBlock(l.BlockSize)); err != nil {
				return err
			}
			lfBlock := rootBlock + l.RootDirBlocks
			if err = sw.writeAt(int64(lfBlock)*int64(l.BlockSize), BuildLostFoundBlocks(l.BlockSize, l.LostFoundBlocks)); err != nil {
				return err
			}
		}
	}

	for g := uint64(0); g < l.NumGroups; g++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if !l.IsSparseSuperGroup(g) {
			continue
		}

		sb := BuildSuperblock(l, groups, uuidBytes, opts.Label, now)
		sb.BlockGroupNr = uint16(g)
		if err = FinalizeSuperblockChecksum(cfg, sb); err != nil {
			return err
		}
		raw, err := encodeStruct(sb)
		if err != nil {
			return err
		}

		sbOffset := int64(l.GroupStartBlock(g)) * int64(l.BlockSize)
		if g == 0 {
			sbOffset = 1024
		}
		if err = sw.writeAt(sbOffset, raw); err != nil {
			return err
		}

		gdt, err := BuildGroupDescriptorTable(l, groups, uuidBytes)
		if err != nil {
			return err
		}
		gdtOffset := (int64(l.GroupStartBlock(g)) + 1) * int64(l.BlockSize)
		if err = sw.writeAt(gdtOffset, gdt); err != nil {
			return err
		}
	}

	end := int64(l.TotalBlocks) * int64(l.BlockSize)
	if _, err = w.Seek(end, io.SeekStart); err != nil {
		return err
	}

	return nil
}
