// Package loaders reads triangle meshes from disk for the benchmark scenes.
package loaders

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
	Trailing    []PLYElement // Elements after the faces, skipped
}

// PLYElement is an element block the loader does not use
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string // Scalar type; empty for lists
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYMesh is the geometry read from a PLY file
type PLYMesh struct {
	Vertices []core.Vec3
	Faces    []int // Triangle indices, 3 per triangle; polygons are fanned
}

// TriangleCount returns the number of triangles
func (m *PLYMesh) TriangleCount() int {
	return len(m.Faces) / 3
}

// LoadPLY loads the vertex positions and faces of a PLY file. logger may be nil.
func LoadPLY(filename string, logger *zap.SugaredLogger) (*PLYMesh, error) {
	startTime := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open PLY file")
	}
	defer file.Close()

	mesh, err := ReadPLY(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}

	if logger != nil {
		logger.Debugw("loaded PLY",
			"file", filename,
			"vertices", len(mesh.Vertices),
			"triangles", mesh.TriangleCount(),
			"duration", time.Since(startTime))
	}
	return mesh, nil
}

// ReadPLY reads a PLY stream in any of the three standard formats
func ReadPLY(r io.Reader) (*PLYMesh, error) {
	reader := bufio.NewReaderSize(r, 1<<20)
	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse PLY header")
	}

	var src valueReader
	switch header.Format {
	case "ascii":
		src = &asciiReader{reader: reader}
	case "binary_little_endian":
		src = &binaryReader{reader: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		src = &binaryReader{reader: reader, order: binary.BigEndian}
	default:
		return nil, errors.Errorf("unsupported PLY format %q", header.Format)
	}

	mesh, err := readPLYBody(src, header)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read PLY data")
	}
	return mesh, nil
}

// parsePLYHeader reads up to and including the end_header line
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var currentElement string
	var seenVertex, seenFace bool
	first := true

	for {
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return nil, errors.Wrap(err, "error reading header")
		}
		line = strings.TrimSpace(line)

		if first {
			if line != "ply" {
				return nil, errors.New("missing ply magic number")
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, errors.Errorf("invalid format line %q", line)
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, errors.Errorf("invalid element line %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, errors.Errorf("invalid element count: %s", parts[2])
			}

			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
				seenVertex = true
			case "face":
				if !seenVertex {
					return nil, errors.New("face element before vertex element is not supported")
				}
				header.FaceCount = count
				seenFace = true
			default:
				if !seenFace {
					return nil, errors.Errorf("element %q before the face element is not supported", currentElement)
				}
				header.Trailing = append(header.Trailing, PLYElement{Name: currentElement, Count: count})
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse property")
			}

			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			case "":
				return nil, errors.Errorf("property %q outside of an element", prop.Name)
			default:
				last := &header.Trailing[len(header.Trailing)-1]
				last.Props = append(last.Props, prop)
			}
		default:
			return nil, errors.Errorf("unknown header line %q", line)
		}
	}

	for _, name := range []string{"x", "y", "z"} {
		if propIndex(header.VertexProps, name) < 0 {
			return nil, errors.Errorf("vertex element has no %q property", name)
		}
	}
	if header.FaceCount > 0 && faceIndexProp(header.FaceProps) < 0 {
		return nil, errors.New("face element has no vertex_indices list")
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, errors.New("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, errors.New("invalid list property definition")
		}
		if typeSize(parts[1]) == 0 || typeSize(parts[2]) == 0 {
			return PLYProperty{}, errors.Errorf("unknown list types %s %s", parts[1], parts[2])
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	if typeSize(parts[0]) == 0 {
		return PLYProperty{}, errors.Errorf("unknown property type %s", parts[0])
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

func propIndex(props []PLYProperty, name string) int {
	for i, p := range props {
		if p.Name == name && !p.IsList {
			return i
		}
	}
	return -1
}

func faceIndexProp(props []PLYProperty) int {
	for i, p := range props {
		if p.IsList && (p.Name == "vertex_indices" || p.Name == "vertex_index") {
			return i
		}
	}
	return -1
}

// typeSize returns the byte size of a PLY scalar type, or 0 if unknown
func typeSize(dataType string) int {
	switch dataType {
	case "char", "uchar", "int8", "uint8":
		return 1
	case "short", "ushort", "int16", "uint16":
		return 2
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}

// maxPLYPrealloc bounds how many elements the header counts may reserve up
// front. Larger files grow their slices as the body is read.
const maxPLYPrealloc = 1 << 20

func readPLYBody(src valueReader, header *PLYHeader) (*PLYMesh, error) {
	mesh := &PLYMesh{
		Vertices: make([]core.Vec3, 0, min(header.VertexCount, maxPLYPrealloc)),
		Faces:    make([]int, 0, 3*min(header.FaceCount, maxPLYPrealloc)),
	}

	xi := propIndex(header.VertexProps, "x")
	yi := propIndex(header.VertexProps, "y")
	zi := propIndex(header.VertexProps, "z")
	values := make([]float64, len(header.VertexProps))
	for i := 0; i < header.VertexCount; i++ {
		for j, prop := range header.VertexProps {
			if prop.IsList {
				if err := skipList(src, prop); err != nil {
					return nil, errors.Wrapf(err, "vertex %d property %s", i, prop.Name)
				}
				continue
			}
			v, err := src.value(prop.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "vertex %d property %s", i, prop.Name)
			}
			values[j] = v
		}
		mesh.Vertices = append(mesh.Vertices, core.NewVec3(values[xi], values[yi], values[zi]))
	}

	fi := faceIndexProp(header.FaceProps)
	var polygon []int
	for i := 0; i < header.FaceCount; i++ {
		for j, prop := range header.FaceProps {
			if j != fi {
				var err error
				if prop.IsList {
					err = skipList(src, prop)
				} else {
					_, err = src.value(prop.Type)
				}
				if err != nil {
					return nil, errors.Wrapf(err, "face %d property %s", i, prop.Name)
				}
				continue
			}

			count, err := src.value(prop.ListType)
			if err != nil {
				return nil, errors.Wrapf(err, "face %d vertex count", i)
			}
			if count < 3 {
				return nil, errors.Errorf("face %d has %v vertices", i, count)
			}
			polygon = polygon[:0]
			for k := 0; k < int(count); k++ {
				v, err := src.value(prop.DataType)
				if err != nil {
					return nil, errors.Wrapf(err, "face %d index %d", i, k)
				}
				index := int(v)
				if index < 0 || index >= header.VertexCount {
					return nil, errors.Errorf("face %d index %d out of range [0, %d)", i, index, header.VertexCount)
				}
				polygon = append(polygon, index)
			}
			// Fan triangulation
			for k := 1; k+1 < len(polygon); k++ {
				mesh.Faces = append(mesh.Faces, polygon[0], polygon[k], polygon[k+1])
			}
		}
	}

	return mesh, nil
}

func skipList(src valueReader, prop PLYProperty) error {
	count, err := src.value(prop.ListType)
	if err != nil {
		return err
	}
	for k := 0; k < int(count); k++ {
		if _, err := src.value(prop.DataType); err != nil {
			return err
		}
	}
	return nil
}

// valueReader reads one scalar of a PLY type as a float64
type valueReader interface {
	value(dataType string) (float64, error)
}

type asciiReader struct {
	reader *bufio.Reader
}

func (a *asciiReader) value(dataType string) (float64, error) {
	var token []byte
	for {
		b, err := a.reader.ReadByte()
		if err != nil {
			if err == io.EOF && len(token) > 0 {
				break
			}
			return 0, errors.Wrap(err, "unexpected end of ascii data")
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			if len(token) > 0 {
				break
			}
			continue
		}
		token = append(token, b)
	}
	v, err := strconv.ParseFloat(string(token), 64)
	if err != nil {
		return 0, errors.Errorf("invalid %s value %q", dataType, token)
	}
	return v, nil
}

type binaryReader struct {
	reader *bufio.Reader
	order  binary.ByteOrder
	buf    [8]byte
}

func (b *binaryReader) value(dataType string) (float64, error) {
	n := typeSize(dataType)
	if _, err := io.ReadFull(b.reader, b.buf[:n]); err != nil {
		return 0, errors.Wrap(err, "unexpected end of binary data")
	}
	p := b.buf[:n]
	switch dataType {
	case "char", "int8":
		return float64(int8(p[0])), nil
	case "uchar", "uint8":
		return float64(p[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(p))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(p)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(p))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(p)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(p))), nil
	default:
		return math.Float64frombits(b.order.Uint64(p)), nil
	}
}
