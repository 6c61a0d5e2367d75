package store

import (
	"encoding/binary"
	"math"
)

// encodeVector packs a float32 vector into a BLOB of little-endian IEEE-754
// words — the vector mirror column's on-disk format (SPEC_FULL.md §4.5:
// no corpus example ships an embedded ANN index, so the mirror is a plain
// BLOB scored in Go rather than a vector column type).
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector is encodeVector's inverse. A BLOB whose length isn't a
// multiple of 4 is treated as absent rather than panicking on a malformed
// row.
func decodeVector(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

// cosineSimilarity scores two equal-length vectors in [-1, 1]; mismatched
// lengths (should not occur once every vector is padded to the same
// dimension) score 0 rather than panicking.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
