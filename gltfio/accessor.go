// Package gltfio converts between glTF documents and joint hierarchies and clips.
package gltfio

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Open loads a .gltf or .glb file with its buffers.
func Open(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// SaveBinary writes doc as a .glb file.
func SaveBinary(doc *gltf.Document, path string) error {
	return gltf.SaveBinary(doc, path)
}

func numComponents(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	}
	return 0
}

type integer interface {
	int8 | uint8 | int16 | uint16
}

func asFloat[E integer](v E) float32 { return float32(v) }

func scalars[E integer](values []E, conv func(E) float32) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = conv(v)
	}
	return out
}

func vec4s[E integer](values [][4]E, conv func(E) float32) []float32 {
	out := make([]float32, 0, len(values)*4)
	for _, v := range values {
		out = append(out, conv(v[0]), conv(v[1]), conv(v[2]), conv(v[3]))
	}
	return out
}

// flatten converts the typed slice returned by modeler.ReadAccessor to
// float32 components. Normalized integers are mapped to [0, 1] or [-1, 1].
func flatten(data any, normalized bool) ([]float32, error) {
	var out []float32
	switch d := data.(type) {
	case []float32:
		return d, nil
	case [][2]float32:
		for _, v := range d {
			out = append(out, v[:]...)
		}
	case [][3]float32:
		for _, v := range d {
			out = append(out, v[:]...)
		}
	case [][4]float32:
		for _, v := range d {
			out = append(out, v[:]...)
		}
	case [][4][4]float32:
		for _, m := range d {
			for _, col := range m {
				out = append(out, col[:]...)
			}
		}
	case []int8:
		if normalized {
			return scalars(d, gltf.DenormalizeByte), nil
		}
		return scalars(d, asFloat[int8]), nil
	case []uint8:
		if normalized {
			return scalars(d, gltf.DenormalizeUbyte), nil
		}
		return scalars(d, asFloat[uint8]), nil
	case []int16:
		if normalized {
			return scalars(d, gltf.DenormalizeShort), nil
		}
		return scalars(d, asFloat[int16]), nil
	case []uint16:
		if normalized {
			return scalars(d, gltf.DenormalizeUshort), nil
		}
		return scalars(d, asFloat[uint16]), nil
	case [][4]int8:
		if normalized {
			return vec4s(d, gltf.DenormalizeByte), nil
		}
		return vec4s(d, asFloat[int8]), nil
	case [][4]uint8:
		if normalized {
			return vec4s(d, gltf.DenormalizeUbyte), nil
		}
		return vec4s(d, asFloat[uint8]), nil
	case [][4]int16:
		if normalized {
			return vec4s(d, gltf.DenormalizeShort), nil
		}
		return vec4s(d, asFloat[int16]), nil
	case [][4]uint16:
		if normalized {
			return vec4s(d, gltf.DenormalizeUshort), nil
		}
		return vec4s(d, asFloat[uint16]), nil
	default:
		return nil, fmt.Errorf("unsupported element type %T", data)
	}
	return out, nil
}

func accessor(doc *gltf.Document, index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	return doc.Accessors[index], nil
}

// readFloats returns the accessor's elements flattened to float32, with the
// number of components per element.
func readFloats(doc *gltf.Document, index uint32) ([]float32, int, error) {
	acr, err := accessor(doc, index)
	if err != nil {
		return nil, 0, err
	}
	n := numComponents(acr.Type)
	if n == 0 {
		return nil, 0, fmt.Errorf("accessor %d: unsupported type", index)
	}
	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("accessor %d: %w", index, err)
	}
	values, err := flatten(data, acr.Normalized)
	if err != nil {
		return nil, 0, fmt.Errorf("accessor %d: %w", index, err)
	}
	return values, n, nil
}

func readMatrices(doc *gltf.Document, index uint32) ([][16]float32, error) {
	values, n, err := readFloats(doc, index)
	if err != nil {
		return nil, err
	}
	if n != 16 {
		return nil, fmt.Errorf("accessor %d: expected MAT4", index)
	}
	m := make([][16]float32, len(values)/16)
	for i := range m {
		copy(m[i][:], values[i*16:])
	}
	return m, nil
}
