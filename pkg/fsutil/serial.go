package fsutil

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/google/uuid"
)

// VolumeSerial32 generates a nonzero 32-bit volume serial number, the
// format FAT12/16/32 and exFAT boot sectors use.
func VolumeSerial32() uint32 {
	for {
		var b [4]byte
		_, err := rand.Read(b[:])
		if err != nil {
			panic(err)
		}
		v := binary.LittleEndian.Uint32(b[:])
		if v != 0 {
			return v
		}
	}
}

// VolumeSerial64 generates a nonzero 64-bit volume serial number, the
// format NTFS's $Volume and boot sector use.
func VolumeSerial64() uint64 {
	for {
		var b [8]byte
		_, err := rand.Read(b[:])
		if err != nil {
			panic(err)
		}
		v := binary.LittleEndian.Uint64(b[:])
		if v != 0 {
			return v
		}
	}
}

// NewUUID generates a random (version 4) UUID for use as a filesystem or
// partition identifier (ext s_uuid, GPT disk/partition GUIDs).
func NewUUID() uuid.UUID {
	return uuid.New()
}
