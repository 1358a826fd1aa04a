package service

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EmbeddingDim is the fixed vector dimension for the whole system. Vectors
// produced by a different embedding model version are not comparable with
// stored ones; nothing here detects mixing.
const EmbeddingDim = 1536

// VectorToBytes encodes a float32 vector as little-endian IEEE 754 bytes.
// This is the on-disk representation every stored embedding uses.
func VectorToBytes(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// VectorFromBytes decodes the representation written by VectorToBytes.
func VectorFromBytes(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector encoding: %d bytes is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, clamped
// to [-1, 1]. A zero-magnitude vector yields similarity 0 rather than a
// division by zero.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity > 1.0 {
		similarity = 1.0
	} else if similarity < -1.0 {
		similarity = -1.0
	}

	return similarity, nil
}
