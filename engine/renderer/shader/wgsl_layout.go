package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// Host-shareable layout rules: https://www.w3.org/TR/WGSL/#alignment-and-size

// scalarSize returns the byte size of a scalar type name.
func scalarSize(scalar string) (uint64, bool) {
	switch scalar {
	case "f32", "i32", "u32", "bool":
		return 4, true
	case "f16":
		return 2, true
	}
	return 0, false
}

// vectorShape splits "vec3f", "vec3<f32>" or a bare scalar into its component scalar and count.
func vectorShape(t string) (scalar string, n int, ok bool) {
	if _, isScalar := scalarSize(t); isScalar {
		return t, 1, true
	}
	if !strings.HasPrefix(t, "vec") || len(t) < 5 {
		return "", 0, false
	}
	n = int(t[3] - '0')
	if n < 2 || n > 4 {
		return "", 0, false
	}
	scalar, ok = componentType(t[4:])
	return scalar, n, ok
}

// matrixShape splits "mat4x4f" or "mat4x4<f32>" into columns, rows and component scalar.
func matrixShape(t string) (cols, rows int, scalar string, ok bool) {
	if !strings.HasPrefix(t, "mat") || len(t) < 7 || t[4] != 'x' {
		return 0, 0, "", false
	}
	cols, rows = int(t[3]-'0'), int(t[5]-'0')
	if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
		return 0, 0, "", false
	}
	scalar, ok = componentType(t[6:])
	if scalar != "f32" && scalar != "f16" {
		return 0, 0, "", false
	}
	return cols, rows, scalar, ok
}

// componentType reads the component suffix of a vector or matrix: "f", "<f32>" and friends.
func componentType(suffix string) (string, bool) {
	switch suffix {
	case "f":
		return "f32", true
	case "h":
		return "f16", true
	case "i":
		return "i32", true
	case "u":
		return "u32", true
	}
	if strings.HasPrefix(suffix, "<") && strings.HasSuffix(suffix, ">") {
		s := suffix[1 : len(suffix)-1]
		if _, ok := scalarSize(s); ok {
			return s, true
		}
	}
	return "", false
}

func vectorLayout(scalar string, n int) (size, align uint64) {
	s, _ := scalarSize(scalar)
	size = s * uint64(n)
	switch n {
	case 1:
		return size, s
	case 2:
		return size, 2 * s
	default:
		return size, 4 * s
	}
}

// typeLayout returns the size and alignment of a host-shareable type. Runtime-sized arrays and
// unknown types report false.
//
// Parameters:
//   - t: a whitespace-free WGSL type name
//
// Returns:
//   - size: the size in bytes
//   - align: the alignment in bytes
//   - ok: false if the layout is not fixed or not known
func (m wgslModule) typeLayout(t string) (size, align uint64, ok bool) {
	if scalar, n, isVec := vectorShape(t); isVec {
		size, align = vectorLayout(scalar, n)
		return size, align, true
	}
	if cols, rows, scalar, isMat := matrixShape(t); isMat {
		colSize, colAlign := vectorLayout(scalar, rows)
		return uint64(cols) * roundUp(colAlign, colSize), colAlign, true
	}
	if strings.HasPrefix(t, "atomic<") {
		return 4, 4, true
	}
	if base, param := splitGeneric(t); base == "array" {
		comma := strings.LastIndexByte(param, ',')
		if comma < 0 {
			return 0, 0, false
		}
		elem := param[:comma]
		n, err := strconv.ParseUint(param[comma+1:], 10, 64)
		if err != nil {
			return 0, 0, false
		}
		elemSize, elemAlign, ok := m.typeLayout(elem)
		if !ok {
			return 0, 0, false
		}
		return n * roundUp(elemAlign, elemSize), elemAlign, true
	}
	if members, isStruct := m.structs[t]; isStruct {
		var offset uint64
		for _, member := range members {
			memberSize, memberAlign, ok := m.typeLayout(member.typeName)
			if !ok {
				return 0, 0, false
			}
			if member.align > 0 {
				memberAlign = member.align
			}
			if member.size > 0 {
				memberSize = member.size
			}
			offset = roundUp(memberAlign, offset) + memberSize
			align = max(align, memberAlign)
		}
		return roundUp(align, offset), align, true
	}
	return 0, 0, false
}

// vertexFormat maps a vertex input type to its format and byte size.
func vertexFormat(t string) (wgpu.VertexFormat, uint64, bool) {
	scalar, n, ok := vectorShape(t)
	if !ok {
		return wgpu.VertexFormatUndefined, 0, false
	}
	var formats [5]wgpu.VertexFormat
	switch scalar {
	case "f32":
		formats = [5]wgpu.VertexFormat{1: wgpu.VertexFormatFloat32, 2: wgpu.VertexFormatFloat32x2, 3: wgpu.VertexFormatFloat32x3, 4: wgpu.VertexFormatFloat32x4}
	case "i32":
		formats = [5]wgpu.VertexFormat{1: wgpu.VertexFormatSint32, 2: wgpu.VertexFormatSint32x2, 3: wgpu.VertexFormatSint32x3, 4: wgpu.VertexFormatSint32x4}
	case "u32":
		formats = [5]wgpu.VertexFormat{1: wgpu.VertexFormatUint32, 2: wgpu.VertexFormatUint32x2, 3: wgpu.VertexFormatUint32x3, 4: wgpu.VertexFormatUint32x4}
	case "f16":
		formats = [5]wgpu.VertexFormat{2: wgpu.VertexFormatFloat16x2, 4: wgpu.VertexFormatFloat16x4}
	}
	if formats[n] == wgpu.VertexFormatUndefined {
		return wgpu.VertexFormatUndefined, 0, false
	}
	s, _ := scalarSize(scalar)
	return formats[n], s * uint64(n), true
}

// splitGeneric splits "texture_2d<f32>" into ("texture_2d", "f32").
func splitGeneric(t string) (base, param string) {
	open := strings.IndexByte(t, '<')
	if open < 0 || !strings.HasSuffix(t, ">") {
		return t, ""
	}
	return t[:open], t[open+1 : len(t)-1]
}

func roundUp(align, v uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}
