package oto

import (
	"encoding/binary"
	"math"
)

// AppendFloat32LE appends the samples of buff to out as 32-bit little-endian
// floats, the format the device is opened with, clamping them to [-1, 1].
// Reusing out between calls avoids allocations in the audio thread.
func AppendFloat32LE(out []byte, buff []float32) []byte {
	for _, v := range buff {
		switch {
		case v < -1:
			v = -1
		case v > 1:
			v = 1
		case v != v: // NaN
			v = 0
		}
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}
