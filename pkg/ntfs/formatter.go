package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"context"
	"io"
	"time"

	"github.com/vorteil/moses/pkg/elog"
	"github.com/vorteil/moses/pkg/fsutil"
	"github.com/vorteil/moses/pkg/registry"
)

// minSizeBytes is the smallest device NTFS's reserved system files
// (4 MiB MFT offset, 64 MiB log file target) can plausibly fit on.
const minSizeBytes = 8 << 20

// Formatter implements registry.FilesystemFormatter for NTFS, mirroring
// pkg/fat.Formatter's and pkg/ext.Formatter's method shapes.
type Formatter struct {
	metadata registry.FormatterMetadata
}

// NewNTFS constructs the NTFS formatter.
func NewNTFS() *Formatter {
	return &Formatter{
		metadata: registry.FormatterMetadata{
			Name:               "ntfs",
			Aliases:            []string{"NTFS"},
			Description:        "NTFS (New Technology File System)",
			Category:           registry.CategoryModern,
			SupportedPlatforms: []registry.Platform{registry.PlatformLinux, registry.PlatformWindows, registry.PlatformDarwin},
			MinSize:            minSizeBytes,
			Capabilities: registry.Capabilities{
				SupportsLabel:  true,
				MaxLabelLength: 32,
				SupportsUUID:   false,
				MaxFileSize:    1 << 44,
				CaseSensitive:  false,
			},
		},
	}
}

func (f *Formatter) Name() string                        { return f.metadata.Name }
func (f *Formatter) Metadata() registry.FormatterMetadata { return f.metadata }
func (f *Formatter) RequiresExternalTools() []string      { return nil }

func (f *Formatter) ValidateOptions(opts registry.FormatOptions) error {
	return nil
}

func (f *Formatter) CanFormat(dev registry.Device) bool {
	if dev.SizeBytes < f.metadata.MinSize {
		return false
	}
	if f.metadata.MaxSize > 0 && dev.SizeBytes > f.metadata.MaxSize {
		return false
	}
	return true
}

func (f *Formatter) DryRun(ctx context.Context, dev registry.Device, opts registry.FormatOptions) (registry.SimulationReport, error) {
	l, err := ComputeLayout(dev.SizeBytes)
	if err != nil {
		return registry.SimulationReport{}, err
	}
	used := (l.MFTExtent.Length + l.MFTMirr.Length + l.LogFile.Length + l.BitmapExt.Length + l.UpCaseExt.Length + 1) * uint64(l.ClusterSize)
	free := dev.SizeBytes
	if used < free {
		free -= used
	} else {
		free = 0
	}
	return registry.SimulationReport{
		EstimatedDuration:       time.Duration(l.TotalClusters/131072+1) * time.Second,
		WillEraseData:           true,
		PredictedFreeSpaceBytes: free,
	}, nil
}

type seekWriter struct {
	w io.WriteSeeker
}

func (s *seekWriter) writeAt(offset int64, p []byte) error {
	if _, err := s.w.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	_, err := s.w.Write(p)
	return err
}

// Format writes a fresh NTFS volume to w, following spec.md §4.6's
// write order: backup boot sector before the primary, the $MFTMirr
// copy before the first MFT update completes, then the 16 seed MFT
// records ($MFT/$MFTMirr/$LogFile/$Volume/$AttrDef/root/$Bitmap/$Boot/
// $BadClus/$Secure/$UpCase/$Extend/reserved), $LogFile preallocation,
// and finally $Bitmap/$UpCase content.
func (f *Formatter) Format(ctx context.Context, dev registry.Device, opts registry.FormatOptions, w io.WriteSeeker, log elog.Logger) error {
	l, err := ComputeLayout(dev.SizeBytes)
	if err != nil {
		return err
	}
	label := opts.Label
	if label == "" {
		label = "New Volume"
	}
	serial := fsutil.VolumeSerial64()
	now := time.Now()
	sw := &seekWriter{w: w}

	if err := ctx.Err(); err != nil {
		return err
	}

	boot := BuildBootSector(l.TotalSectors, l.BytesPerSector, l.SectorsPerCluster,
		l.MFTLCN, l.MFTMirr.LCN, l.MFTRecordBytes, l.IndexRecordBytes, serial)
	bootBytes, err := boot.Encode()
	if err != nil {
		return err
	}
	backupOffset := int64(l.TotalSectors-1) * int64(l.BytesPerSector)
	if err := sw.writeAt(backupOffset, bootBytes); err != nil {
		return err
	}
	if err := sw.writeAt(0, bootBytes); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	bitmap := fsutil.NewBitmap(int(l.TotalClusters))
	markExtent := func(e Extent) {
		bitmap.SetRange(int(e.LCN), int(e.Length))
	}
	bitmap.Set(0)
	markExtent(l.MFTExtent)
	markExtent(l.MFTMirr)
	markExtent(l.LogFile)
	markExtent(l.BitmapExt)
	markExtent(l.UpCaseExt)

	records, err := f.seedSystemRecords(l, label, now)
	if err != nil {
		return err
	}

	mftTable := make([]byte, 0, int(l.MFTExtent.Length)*int(l.ClusterSize))
	for _, r := range records {
		mftTable = append(mftTable, r...)
	}

	mirrorBytes := make([]byte, 4*int(l.MFTRecordBytes))
	copy(mirrorBytes, mftTable[:4*int(l.MFTRecordBytes)])
	if err := sw.writeAt(int64(l.MFTMirr.LCN)*int64(l.ClusterSize), mirrorBytes); err != nil {
		return err
	}

	if err := sw.writeAt(int64(l.MFTExtent.LCN)*int64(l.ClusterSize), mftTable); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	logFileBytes := make([]byte, l.LogFile.Length*uint64(l.ClusterSize))
	for i := range logFileBytes {
		logFileBytes[i] = 0xFF
	}
	if err := sw.writeAt(int64(l.LogFile.LCN)*int64(l.ClusterSize), logFileBytes); err != nil {
		return err
	}

	upcase := BuildUpcaseTable()
	if err := sw.writeAt(int64(l.UpCaseExt.LCN)*int64(l.ClusterSize), upcase); err != nil {
		return err
	}

	bitmapBytes := bitmap.Bytes(int(l.ClusterSize))
	if err := sw.writeAt(int64(l.BitmapExt.LCN)*int64(l.ClusterSize), bitmapBytes); err != nil {
		return err
	}

	_, err = w.Seek(int64(l.TotalSectors)*int64(l.BytesPerSector), io.SeekStart)
	return err
}

// buildVolumeInformation encodes $VOLUME_INFORMATION's resident value:
// NTFS version major/minor and volume flags.
func buildVolumeInformation(major, minor uint8, flags uint16) []byte {
	b := make([]byte, 12)
	b[8] = major
	b[9] = minor
	b[10] = byte(flags)
	b[11] = byte(flags >> 8)
	return b
}

func (f *Formatter) seedSystemRecords(l Layout, label string, now time.Time) ([][]byte, error) {
	records := make([][]byte, SystemRecordCount)
	usn := uint16(1)

	attrs := func(now time.Time, fileAttrs uint32) []byte {
		return BuildResidentAttribute(AttrStandardInformation, "", 0, false,
			BuildStandardInformation(now, now, now, now, fileAttrs))
	}

	// record 0: $MFT
	mft := NewMFTRecordBuilder(l.MFTRecordBytes, RecordMFT, 0)
	mft.AppendAttribute(attrs(now, FileAttributeHidden|FileAttributeSystem))
	mft.AppendAttribute(BuildNonResidentAttribute(AttrData, "", 0, 0,
		l.MFTExtent.Length-1, []DataRun{{Length: l.MFTExtent.Length, LCN: int64(l.MFTExtent.LCN)}},
		l.MFTExtent.Length*uint64(l.ClusterSize), l.MFTExtent.Length*uint64(l.ClusterSize), l.MFTExtent.Length*uint64(l.ClusterSize)))
	raw, err := mft.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordMFT] = raw

	// record 1: $MFTMirr
	mirr := NewMFTRecordBuilder(l.MFTRecordBytes, RecordMFTMirr, 0)
	mirr.AppendAttribute(attrs(now, FileAttributeHidden|FileAttributeSystem))
	mirr.AppendAttribute(BuildNonResidentAttribute(AttrData, "", 0, 0,
		l.MFTMirr.Length-1, []DataRun{{Length: l.MFTMirr.Length, LCN: int64(l.MFTMirr.LCN)}},
		l.MFTMirr.Length*uint64(l.ClusterSize), l.MFTMirr.Length*uint64(l.ClusterSize), l.MFTMirr.Length*uint64(l.ClusterSize)))
	raw, err = mirr.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordMFTMirr] = raw

	// record 2: $LogFile
	logf := NewMFTRecordBuilder(l.MFTRecordBytes, RecordLogFile, 0)
	logf.AppendAttribute(attrs(now, FileAttributeHidden|FileAttributeSystem))
	logf.AppendAttribute(BuildNonResidentAttribute(AttrData, "", 0, 0,
		l.LogFile.Length-1, []DataRun{{Length: l.LogFile.Length, LCN: int64(l.LogFile.LCN)}},
		l.LogFile.Length*uint64(l.ClusterSize), l.LogFile.Length*uint64(l.ClusterSize), l.LogFile.Length*uint64(l.ClusterSize)))
	raw, err = logf.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordLogFile] = raw

	// record 3: $Volume
	vol := NewMFTRecordBuilder(l.MFTRecordBytes, RecordVolume, 0)
	vol.AppendAttribute(attrs(now, FileAttributeHidden|FileAttributeSystem))
	vol.AppendAttribute(BuildResidentAttribute(AttrVolumeName, "", 0, false, utf16le(label)))
	vol.AppendAttribute(BuildResidentAttribute(AttrVolumeInformation, "", 0, false, buildVolumeInformation(3, 1, 0)))
	raw, err = vol.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordVolume] = raw

	// record 4: $AttrDef (minimal placeholder; attribute-definition
	// table population is out of scope for a freshly formatted volume)
	attrDef := NewMFTRecordBuilder(l.MFTRecordBytes, RecordAttrDef, 0)
	attrDef.AppendAttribute(attrs(now, FileAttributeHidden|FileAttributeSystem))
	attrDef.AppendAttribute(BuildResidentAttribute(AttrData, "", 0, false, nil))
	raw, err = attrDef.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordAttrDef] = raw

	// record 5: root directory
	root := NewMFTRecordBuilder(l.MFTRecordBytes, RecordRoot, FlagIsDirectory)
	root.LinkCount = 1
	root.AppendAttribute(attrs(now, FileAttributeDirectory))
	rootRef := uint64(RecordRoot)
	root.AppendAttribute(BuildFileNameAttribute(FileNameKey{
		ParentRef: rootRef, Created: now, Modified: now, MFTChanged: now, Accessed: now,
		FileAttributes: FileAttributeDirectory, Name: ".", Namespace: FileNameNamespaceWin32,
	}))
	root.AppendAttribute(BuildResidentAttribute(AttrIndexRoot, "$I30", 0, false,
		BuildEmptyIndexRoot(l.IndexRecordBytes, 1)))
	raw, err = root.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordRoot] = raw

	// record 6: $Bitmap
	bm := NewMFTRecordBuilder(l.MFTRecordBytes, RecordBitmap, 0)
	bm.AppendAttribute(attrs(now, FileAttributeHidden|FileAttributeSystem))
	bm.AppendAttribute(BuildNonResidentAttribute(AttrData, "", 0, 0,
		l.BitmapExt.Length-1, []DataRun{{Length: l.BitmapExt.Length, LCN: int64(l.BitmapExt.LCN)}},
		l.BitmapExt.Length*uint64(l.ClusterSize), l.BitmapExt.Length*uint64(l.ClusterSize), l.BitmapExt.Length*uint64(l.ClusterSize)))
	raw, err = bm.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordBitmap] = raw

	// record 7: $Boot — describes the boot sector region (cluster 0)
	bt := NewMFTRecordBuilder(l.MFTRecordBytes, RecordBoot, 0)
	bt.AppendAttribute(attrs(now, FileAttributeHidden|FileAttributeSystem))
	bt.AppendAttribute(BuildNonResidentAttribute(AttrData, "", 0, 0, 0,
		[]DataRun{{Length: 1, LCN: 0}}, uint64(l.ClusterSize), uint64(l.ClusterSize), uint64(l.ClusterSize)))
	raw, err = bt.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordBoot] = raw

	// record 8: $BadClus (no bad clusters tracked at format time)
	bc := NewMFTRecordBuilder(l.MFTRecordBytes, RecordBadClus, 0)
	bc.AppendAttribute(attrs(now, FileAttributeHidden|FileAttributeSystem))
	bc.AppendAttribute(BuildResidentAttribute(AttrData, "", 0, false, nil))
	raw, err = bc.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordBadClus] = raw

	// record 9: $Secure (security descriptor stream; empty at format time)
	sec := NewMFTRecordBuilder(l.MFTRecordBytes, RecordSecure, 0)
	sec.AppendAttribute(attrs(now, FileAttributeHidden|FileAttributeSystem))
	sec.AppendAttribute(BuildResidentAttribute(AttrData, "$SDS", 0, false, nil))
	raw, err = sec.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordSecure] = raw

	// record 10: $UpCase
	uc := NewMFTRecordBuilder(l.MFTRecordBytes, RecordUpCase, 0)
	uc.AppendAttribute(attrs(now, FileAttributeHidden|FileAttributeSystem))
	uc.AppendAttribute(BuildNonResidentAttribute(AttrData, "", 0, 0,
		l.UpCaseExt.Length-1, []DataRun{{Length: l.UpCaseExt.Length, LCN: int64(l.UpCaseExt.LCN)}},
		l.UpCaseExt.Length*uint64(l.ClusterSize), uint64(UpcaseTableSize), uint64(UpcaseTableSize)))
	raw, err = uc.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordUpCase] = raw

	// record 11: $Extend (extended attribute/reparse directory, empty)
	ext := NewMFTRecordBuilder(l.MFTRecordBytes, RecordExtend, FlagIsDirectory)
	ext.AppendAttribute(attrs(now, FileAttributeDirectory|FileAttributeHidden|FileAttributeSystem))
	ext.AppendAttribute(BuildResidentAttribute(AttrIndexRoot, "$I30", 0, false,
		BuildEmptyIndexRoot(l.IndexRecordBytes, 1)))
	raw, err = ext.Finalize(usn)
	if err != nil {
		return nil, err
	}
	records[RecordExtend] = raw

	for i := RecordExtend + 1; i < SystemRecordCount; i++ {
		raw, err := EmptySystemRecord(l.MFTRecordBytes, uint32(i), usn)
		if err != nil {
			return nil, err
		}
		records[i] = raw
	}

	return records, nil
}
