// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gnss

import (
	"encoding/binary"
	"errors"
	"math"
)

// Radio payload layout, 13 bytes fixed:
//
//	offset 0: fix marker (1 = valid fix)
//	offset 1: time of day HHMMSS, little-endian uint32
//	offset 5: latitude  * 100000, little-endian int32
//	offset 9: longitude * 100000, little-endian int32
const (
	PayloadLen = 13
	MarkerFix  = 1
)

var (
	ErrNoFix       = errors.New("gnss: sample has no fix")
	ErrShortBuffer = errors.New("gnss: payload buffer too small")
	ErrBadLength   = errors.New("gnss: wrong payload length")
	ErrBadMarker   = errors.New("gnss: unknown fix marker")
)

// EncodePayload serializes a valid sample into dst and returns the number of
// bytes written (always PayloadLen on success). Latitude and longitude are
// quantized to 1e-5 degrees (~1 m) with half values rounding away from zero,
// matching the decoder's /100000.0 reconstruction.
func EncodePayload(s Sample, dst []byte) (int, error) {
	if !s.Valid {
		return 0, ErrNoFix
	}
	if len(dst) < PayloadLen {
		return 0, ErrShortBuffer
	}

	dst[0] = MarkerFix
	binary.LittleEndian.PutUint32(dst[1:5], s.HHMMSS)
	binary.LittleEndian.PutUint32(dst[5:9], uint32(int32(math.Round(s.Lat*100000))))
	binary.LittleEndian.PutUint32(dst[9:13], uint32(int32(math.Round(s.Lon*100000))))
	return PayloadLen, nil
}

// DecodePayload reconstructs a sample from a raw radio payload. Anything that
// is not exactly PayloadLen bytes with the fix marker set is rejected.
func DecodePayload(raw []byte) (Sample, error) {
	if len(raw) != PayloadLen {
		return Sample{}, ErrBadLength
	}
	if raw[0] != MarkerFix {
		return Sample{}, ErrBadMarker
	}

	return Sample{
		HHMMSS: binary.LittleEndian.Uint32(raw[1:5]),
		Lat:    float64(int32(binary.LittleEndian.Uint32(raw[5:9]))) / 100000.0,
		Lon:    float64(int32(binary.LittleEndian.Uint32(raw[9:13]))) / 100000.0,
		Valid:  true,
	}, nil
}
