// Package graphio reads and writes graphs and paths in a compact binary format:
// a 4 byte magic, a version byte, then a zstd compressed kelindar/binary record.
package graphio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kelindar/binary"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/path"
)

var (
	ErrBadMagic    = errors.New("graphio: unrecognized file format")
	ErrBadVersion  = errors.New("graphio: unsupported format version")
	ErrMapMismatch = errors.New("graphio: path was written for another map")
)

const formatVersion = 1

var (
	graphMagic = []byte("CPNG")
	pathMagic  = []byte("CPNP")
)

type GraphReader interface {
	ReadGraph() (*datastructure.Graph, error)
}

type GraphWriter interface {
	WriteGraph(g *datastructure.Graph) error
}

type PathReader interface {
	ReadPath(g *datastructure.Graph) (*path.Path, error)
}

type PathWriter interface {
	WritePath(p *path.Path) error
}

type pointRecord struct {
	Lat float64
	Lon float64
}

type arcRecord struct {
	From     int32
	To       int32
	Length   float64
	RoadType uint8
	MaxSpeed float64
	Access   uint8
	OneWay   bool
	Name     string
	Points   []pointRecord
}

type graphRecord struct {
	MapID   string
	MapName string
	Nodes   []pointRecord
	Arcs    []arcRecord
}

type pathRecord struct {
	MapID  string
	Origin int32
	Arcs   []int32
}

func toPointRecords(coords []datastructure.Coordinate) []pointRecord {
	points := make([]pointRecord, 0, len(coords))
	for _, c := range coords {
		points = append(points, pointRecord{Lat: c.Lat, Lon: c.Lon})
	}
	return points
}

func fromPointRecords(points []pointRecord) []datastructure.Coordinate {
	if len(points) == 0 {
		return nil
	}
	coords := make([]datastructure.Coordinate, 0, len(points))
	for _, p := range points {
		coords = append(coords, datastructure.NewCoordinate(p.Lat, p.Lon))
	}
	return coords
}

func writeFramed(w io.Writer, magic []byte, record any) error {
	encoded, err := binary.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := w.Write(append(append([]byte{}, magic...), formatVersion)); err != nil {
		return err
	}
	return compressData(encoded, w)
}

func readFramed(r io.Reader, magic []byte, record any) error {
	header := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if !bytes.Equal(header[:len(magic)], magic) {
		return ErrBadMagic
	}
	if header[len(magic)] != formatVersion {
		return fmt.Errorf("%w: %d", ErrBadVersion, header[len(magic)])
	}
	data, err := decompressData(r)
	if err != nil {
		return fmt.Errorf("decompress record: %w", err)
	}
	if err := binary.Unmarshal(data, record); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

type BinaryGraphWriter struct {
	w io.Writer
}

func NewBinaryGraphWriter(w io.Writer) *BinaryGraphWriter {
	return &BinaryGraphWriter{w: w}
}

func (bw *BinaryGraphWriter) WriteGraph(g *datastructure.Graph) error {
	record := graphRecord{
		MapID:   g.MapID(),
		MapName: g.MapName(),
		Nodes:   make([]pointRecord, 0, g.NumberOfNodes()),
		Arcs:    make([]arcRecord, 0, g.NumberOfArcs()),
	}
	for nodeID := int32(0); int(nodeID) < g.NumberOfNodes(); nodeID++ {
		p := g.GetNode(nodeID).Point
		record.Nodes = append(record.Nodes, pointRecord{Lat: p.Lat, Lon: p.Lon})
	}
	for arcID := int32(0); int(arcID) < g.NumberOfArcs(); arcID++ {
		arc := g.GetArc(arcID)
		record.Arcs = append(record.Arcs, arcRecord{
			From:     arc.From,
			To:       arc.To,
			Length:   arc.Length,
			RoadType: uint8(arc.Road.Type),
			MaxSpeed: arc.Road.MaxSpeed,
			Access:   uint8(arc.Road.Access),
			OneWay:   arc.Road.OneWay,
			Name:     arc.Road.Name,
			Points:   toPointRecords(arc.Points),
		})
	}
	return writeFramed(bw.w, graphMagic, &record)
}

type BinaryGraphReader struct {
	r io.Reader
}

func NewBinaryGraphReader(r io.Reader) *BinaryGraphReader {
	return &BinaryGraphReader{r: r}
}

func (br *BinaryGraphReader) ReadGraph() (*datastructure.Graph, error) {
	var record graphRecord
	if err := readFramed(br.r, graphMagic, &record); err != nil {
		return nil, err
	}

	b := datastructure.NewGraphBuilder(record.MapID, record.MapName)
	for _, n := range record.Nodes {
		b.AddNode(datastructure.NewCoordinate(n.Lat, n.Lon))
	}
	for i, a := range record.Arcs {
		road := datastructure.NewRoadInformation(datastructure.RoadType(a.RoadType), a.MaxSpeed,
			datastructure.Access(a.Access), a.OneWay, a.Name)
		if _, err := b.AddArc(a.From, a.To, a.Length, road, fromPointRecords(a.Points)); err != nil {
			return nil, fmt.Errorf("arc %d: %w", i, err)
		}
	}
	return b.Build(), nil
}

type BinaryPathWriter struct {
	w io.Writer
}

func NewBinaryPathWriter(w io.Writer) *BinaryPathWriter {
	return &BinaryPathWriter{w: w}
}

func (bw *BinaryPathWriter) WritePath(p *path.Path) error {
	record := pathRecord{
		MapID:  p.Graph().MapID(),
		Origin: p.Origin(),
		Arcs:   p.ArcIDs(),
	}
	return writeFramed(bw.w, pathMagic, &record)
}

type BinaryPathReader struct {
	r io.Reader
}

func NewBinaryPathReader(r io.Reader) *BinaryPathReader {
	return &BinaryPathReader{r: r}
}

// ReadPath decodes a path for g. The path must have been written for a graph with the same map id.
func (br *BinaryPathReader) ReadPath(g *datastructure.Graph) (*path.Path, error) {
	var record pathRecord
	if err := readFramed(br.r, pathMagic, &record); err != nil {
		return nil, err
	}
	if record.MapID != g.MapID() {
		return nil, fmt.Errorf("%w: path map %q, graph map %q", ErrMapMismatch, record.MapID, g.MapID())
	}

	switch {
	case record.Origin == datastructure.InvalidNodeID:
		return path.NewEmpty(g), nil
	case len(record.Arcs) == 0:
		return path.NewSingleNode(g, record.Origin)
	}
	p, err := path.New(g, record.Arcs)
	if err != nil {
		return nil, err
	}
	if p.Origin() != record.Origin || !p.IsValid() {
		return nil, path.ErrNotContiguous
	}
	return p, nil
}

// SaveGraphFile writes g to filename, replacing any existing file.
func SaveGraphFile(filename string, g *datastructure.Graph) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := NewBinaryGraphWriter(f).WriteGraph(g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadGraphFile(filename string) (*datastructure.Graph, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewBinaryGraphReader(f).ReadGraph()
}

// EncodeGraph returns the binary form of g.
func EncodeGraph(g *datastructure.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewBinaryGraphWriter(&buf).WriteGraph(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeGraph(data []byte) (*datastructure.Graph, error) {
	return NewBinaryGraphReader(bytes.NewReader(data)).ReadGraph()
}
