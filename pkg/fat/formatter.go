package fat

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"encoding/binary"
	"io"
	"strconv"

	"github.com/vorteil/moses/pkg/elog"
	"github.com/vorteil/moses/pkg/fsutil"
	"github.com/vorteil/moses/pkg/moerr"
	"github.com/vorteil/moses/pkg/partition"
	"github.com/vorteil/moses/pkg/registry"
)

// createPartitionTableOption reads the create_partition_table option,
// per spec.md §6's option map ("FAT16/FAT32 only: emit an MBR and offset
// the filesystem to LBA 2048"). AdditionalOptions values are plain
// strings, matching registry.FormatOptions' wire-friendly option map.
func createPartitionTableOption(opts registry.FormatOptions) bool {
	v, ok := opts.AdditionalOptions["create_partition_table"]
	if !ok {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// diskIDOption reads the disk_id option, 0 (meaning "generate one") if
// absent or unparsable.
func diskIDOption(opts registry.FormatOptions) uint32 {
	v, ok := opts.AdditionalOptions["disk_id"]
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

// mbrTypeFor returns the MBR partition type byte for version, per
// spec.md §6's partition-type table.
func mbrTypeFor(v Version) partition.MBRType {
	switch v {
	case FAT16:
		return partition.MBRTypeFAT16
	case FAT32:
		return partition.MBRTypeFAT32LBA
	default: // ExFAT
		return partition.MBRTypeNTFSOrExFAT
	}
}

// Formatter implements registry.FilesystemFormatter for one member of
// the FAT family (FAT16, FAT32, or exFAT), sharing the geometry/table
// engine in this package.
type Formatter struct {
	version  Version
	name     string
	metadata registry.FormatterMetadata
}

// NewFAT16 constructs the FAT16 formatter.
func NewFAT16() *Formatter {
	return &Formatter{
		version: FAT16,
		name:    "fat16",
		metadata: registry.FormatterMetadata{
			Name:               "fat16",
			Aliases:            []string{"fat", "vfat16"},
			Description:        "FAT16 (16-bit File Allocation Table)",
			Category:           registry.CategoryLegacy,
			SupportedPlatforms: []registry.Platform{registry.PlatformLinux, registry.PlatformWindows, registry.PlatformDarwin},
			MinSize:            minFAT16Size,
			MaxSize:            maxFAT16Size,
			Capabilities: registry.Capabilities{
				SupportsLabel:  true,
				MaxLabelLength: 11,
				MaxFileSize:    0xFFFFFFFF,
				CaseSensitive:  false,
			},
		},
	}
}

// NewFAT32 constructs the FAT32 formatter.
func NewFAT32() *Formatter {
	return &Formatter{
		version: FAT32,
		name:    "fat32",
		metadata: registry.FormatterMetadata{
			Name:               "fat32",
			Aliases:            []string{"vfat", "vfat32"},
			Description:        "FAT32 (32-bit File Allocation Table)",
			Category:           registry.CategoryModern,
			SupportedPlatforms: []registry.Platform{registry.PlatformLinux, registry.PlatformWindows, registry.PlatformDarwin},
			MinSize:            minFAT32Size,
			MaxSize:            maxFAT32Size,
			Capabilities: registry.Capabilities{
				SupportsLabel:  true,
				MaxLabelLength: 11,
				MaxFileSize:    0xFFFFFFFF,
				CaseSensitive:  false,
			},
		},
	}
}

// NewExFAT constructs the exFAT formatter.
func NewExFAT() *Formatter {
	return &Formatter{
		version: ExFAT,
		name:    "exfat",
		metadata: registry.FormatterMetadata{
			Name:               "exfat",
			Aliases:            []string{},
			Description:        "exFAT (Extended File Allocation Table)",
			Category:           registry.CategoryModern,
			SupportedPlatforms: []registry.Platform{registry.PlatformLinux, registry.PlatformWindows, registry.PlatformDarwin},
			MinSize:            minExFATSize,
			Capabilities: registry.Capabilities{
				SupportsLabel:  true,
				MaxLabelLength: 15,
				CaseSensitive:  false,
			},
		},
	}
}

func (f *Formatter) Name() string                        { return f.name }
func (f *Formatter) Metadata() registry.FormatterMetadata { return f.metadata }
func (f *Formatter) RequiresExternalTools() []string      { return nil }

func (f *Formatter) ValidateOptions(opts registry.FormatOptions) error {
	if opts.ClusterSize != 0 && !fsutil.IsPowerOfTwo(int(opts.ClusterSize)) {
		return &moerr.OptionInvalidError{Kind: moerr.InvalidClusterSize, Field: "cluster_size"}
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

// DryRun computes the layout without writing anything, reporting it in
// the simulation.
func (f *Formatter) DryRun(ctx context.Context, dev registry.Device, opts registry.FormatOptions) (registry.SimulationReport, error) {
	partitionOffset := uint32(0)
	if createPartitionTableOption(opts) {
		partitionOffset = 2048
	}

	if f.version == ExFAT {
		deviceBytes := dev.SizeBytes - uint64(partitionOffset)*512
		if _, err := computeExFATGeometry(deviceBytes); err != nil {
			return registry.SimulationReport{}, err
		}
		return registry.SimulationReport{WillEraseData: true}, nil
	}

	if _, err := computeGeometry(dev.SizeBytes, f.version, opts.ClusterSize, partitionOffset); err != nil {
		return registry.SimulationReport{}, err
	}
	return registry.SimulationReport{WillEraseData: true}, nil
}

// Format writes the FAT16/FAT32/exFAT layout to w, per spec.md §4.4's
// write order: optional MBR, boot sector(s), FAT table(s), root
// directory. For exFAT only the backup and main boot regions and the
// FAT are written: no allocation bitmap, up-case table or root
// directory entry set is written, and opts.Label is not stored.
func (f *Formatter) Format(ctx context.Context, dev registry.Device, opts registry.FormatOptions, w io.WriteSeeker, log elog.Logger) error {
	createPartitionTable := createPartitionTableOption(opts)
	var partitionOffset uint32
	if createPartitionTable {
		partitionOffset = 2048
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if createPartitionTable {
		if log != nil {
			log.Infof("writing MBR for %s", f.name)
		}
		diskID := diskIDOption(opts)
		if diskID == 0 {
			diskID = fsutil.VolumeSerial32()
		}
		deviceSectors := dev.SizeBytes / partition.SectorSize
		if err := partition.WriteMBR(ctx, w, deviceSectors, partitionOffset, mbrTypeFor(f.version), diskID, false); err != nil {
			return moerr.WrapIO(0, err)
		}
	}

	if f.version == ExFAT {
		return f.formatExFAT(dev, opts, w, log, partitionOffset)
	}
	return f.formatFAT(dev, opts, w, log, partitionOffset)
}

func (f *Formatter) formatFAT(dev registry.Device, opts registry.FormatOptions, w io.WriteSeeker, log elog.Logger, partitionOffset uint32) error {
	g, err := computeGeometry(dev.SizeBytes, f.version, opts.ClusterSize, partitionOffset)
	if err != nil {
		return err
	}

	volID := fsutil.VolumeSerial32()
	oem := "MSWIN4.1"

	volumeStart := int64(partitionOffset) * int64(g.BytesPerSector)

	writeAt := func(offsetSectors uint32, data []byte) error {
		if _, err := w.Seek(volumeStart+int64(offsetSectors)*int64(g.BytesPerSector), io.SeekStart); err != nil {
			return moerr.WrapIO(volumeStart, err)
		}
		if _, err := w.Write(data); err != nil {
			return moerr.WrapIO(volumeStart, err)
		}
		return nil
	}

	if f.version == FAT16 {
		bootSector, err := buildBootSector16(g, oem, opts.Label, volID)
		if err != nil {
			return moerr.WrapIO(0, err)
		}
		if err := writeAt(0, bootSector); err != nil {
			return err
		}

		table := buildFAT16Table(g.SectorsPerFAT, g.BytesPerSector, 0xF8)
		for i := uint8(0); i < g.NumFATs; i++ {
			fatStart := uint32(g.ReservedSectors) + uint32(i)*g.SectorsPerFAT
			if err := writeAt(fatStart, table); err != nil {
				return err
			}
		}

		root := buildRootDirectory16(g, opts.Label)
		rootStart := uint32(g.ReservedSectors) + uint32(g.NumFATs)*g.SectorsPerFAT
		if err := writeAt(rootStart, root); err != nil {
			return err
		}
		return nil
	}

	// FAT32
	bootSector, err := buildBootSector32(g, oem, opts.Label, volID)
	if err != nil {
		return moerr.WrapIO(0, err)
	}

	fsInfo, err := buildFSInfo(g.TotalClusters-1, 3)
	if err != nil {
		return moerr.WrapIO(0, err)
	}
	// Backup boot sector and backup FSInfo are flushed before the
	// primary per spec.md §7's ordering guarantee for FAT32.
	if err := writeAt(6, bootSector); err != nil {
		return err
	}
	if err := writeAt(7, fsInfo); err != nil {
		return err
	}
	if err := writeAt(0, bootSector); err != nil {
		return err
	}
	if err := writeAt(1, fsInfo); err != nil {
		return err
	}

	table := buildFAT32Table(g.SectorsPerFAT, g.BytesPerSector, 0xF8)
	for i := uint8(0); i < g.NumFATs; i++ {
		fatStart := uint32(g.ReservedSectors) + uint32(i)*g.SectorsPerFAT
		if err := writeAt(fatStart, table); err != nil {
			return err
		}
	}

	rootCluster := buildRootDirectoryCluster32(g, opts.Label)
	if err := writeAt(g.ClusterToSector(2), rootCluster); err != nil {
		return err
	}

	return nil
}

func (f *Formatter) formatExFAT(dev registry.Device, opts registry.FormatOptions, w io.WriteSeeker, log elog.Logger, partitionOffset uint32) error {
	deviceBytes := dev.SizeBytes - uint64(partitionOffset)*512
	g, err := computeExFATGeometry(deviceBytes)
	if err != nil {
		return err
	}

	volID := fsutil.VolumeSerial32()
	volumeStart := int64(partitionOffset) * exFATSectorSize

	bootSector, err := buildExFATBootSector(g, volID)
	if err != nil {
		return moerr.WrapIO(0, err)
	}

	sectors := make([][]byte, exFATBootRegionSectors)
	sectors[0] = bootSector
	for i := 1; i < exFATBootRegionSectors-1; i++ {
		sectors[i] = make([]byte, exFATSectorSize)
	}
	checksum := exFATBootRegionChecksum(sectors[:11])
	sectors[exFATBootRegionSectors-1] = buildChecksumSector(checksum)

	writeRegion := func(startSector int64) error {
		for i, sector := range sectors {
			if _, err := w.Seek(volumeStart+(startSector+int64(i))*exFATSectorSize, io.SeekStart); err != nil {
				return moerr.WrapIO(volumeStart, err)
			}
			if _, err := w.Write(sector); err != nil {
				return moerr.WrapIO(volumeStart, err)
			}
		}
		return nil
	}

	// Backup boot region before main, matching the FAT32 ordering
	// guarantee from spec.md §7 applied to exFAT's dual boot regions.
	if err := writeRegion(exFATBootRegionSectors); err != nil {
		return err
	}
	if err := writeRegion(0); err != nil {
		return err
	}

	fatTable := make([]byte, uint64(g.FatLength)*exFATSectorSize)
	binary.LittleEndian.PutUint32(fatTable[0:4], 0xFFFFFFF8)
	binary.LittleEndian.PutUint32(fatTable[4:8], 0xFFFFFFFF)
	if _, err := w.Seek(volumeStart+int64(g.FatOffset)*exFATSectorSize, io.SeekStart); err != nil {
		return moerr.WrapIO(volumeStart, err)
	}
	if _, err := w.Write(fatTable); err != nil {
		return moerr.WrapIO(volumeStart, err)
	}

	return nil
}
