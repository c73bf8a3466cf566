package gpucore

import (
	"encoding/binary"
	"math"
)

// VertexStride is the size of one encoded Vertex in bytes.
const VertexStride = 24

// Vertex is the interleaved vertex every draw consumes.
type Vertex struct {
	X, Y      float32
	U, V      float32
	Color     [4]uint8 // premultiplied RGBA
	ClipDepth uint32
}

// EncodeVertices appends the little-endian encoding of vs to dst.
func EncodeVertices(dst []byte, vs []Vertex) []byte {
	off := len(dst)
	dst = append(dst, make([]byte, len(vs)*VertexStride)...)
	for _, v := range vs {
		b := dst[off : off+VertexStride]
		binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.U))
		binary.LittleEndian.PutUint32(b[12:], math.Float32bits(v.V))
		copy(b[16:20], v.Color[:])
		binary.LittleEndian.PutUint32(b[20:], v.ClipDepth)
		off += VertexStride
	}
	return dst
}

// DecodeVertices parses a buffer produced by EncodeVertices. Trailing
// bytes that do not form a whole vertex are ignored.
func DecodeVertices(data []byte) []Vertex {
	n := len(data) / VertexStride
	vs := make([]Vertex, n)
	for i := range vs {
		b := data[i*VertexStride:]
		vs[i] = Vertex{
			X:         math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
			Y:         math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
			U:         math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
			V:         math.Float32frombits(binary.LittleEndian.Uint32(b[12:])),
			ClipDepth: binary.LittleEndian.Uint32(b[20:]),
		}
		copy(vs[i].Color[:], b[16:20])
	}
	return vs
}

// EncodeIndices appends the little-endian encoding of idx to dst.
func EncodeIndices(dst []byte, idx []uint32) []byte {
	for _, i := range idx {
		dst = binary.LittleEndian.AppendUint32(dst, i)
	}
	return dst
}

// DecodeIndices parses a buffer produced by EncodeIndices.
func DecodeIndices(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out
}
