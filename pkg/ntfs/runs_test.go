package ntfs

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeDataRunsRoundTrip(t *testing.T) {
	runs := []DataRun{
		{Length: 100, LCN: 4096},
		{Length: 20, Sparse: true},
		{Length: 50, LCN: 4500},
	}
	encoded := EncodeDataRuns(runs)
	assert.Equal(t, byte(0), encoded[len(encoded)-1])

	decoded := DecodeDataRuns(encoded)
	assert.Equal(t, runs, decoded)
}

func TestEncodeDataRunsSingleContiguousRun(t *testing.T) {
	runs := []DataRun{{Length: 4, LCN: 1024}}
	encoded := EncodeDataRuns(runs)
	decoded := DecodeDataRuns(encoded)
	assert.Equal(t, runs, decoded)
}

func TestMinSignedBytesChoosesSmallestWidth(t *testing.T) {
	assert.Equal(t, 1, minSignedBytes(100))
	assert.Equal(t, 1, minSignedBytes(-100))
	assert.Equal(t, 2, minSignedBytes(200))
	assert.Equal(t, 2, minSignedBytes(-200))
}
