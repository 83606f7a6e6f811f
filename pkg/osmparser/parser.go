package osmparser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/geo"
	"github.com/lintang-b-s/carpoolnav/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

var ErrEmptyGraph = errors.New("osmparser: no road found in map data")

type Format uint8

const (
	FormatPBF Format = iota
	FormatXML
)

// FormatFromFilename guesses the encoding from the file extension. Anything that is not .osm or .xml is read as PBF.
func FormatFromFilename(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".osm", ".xml":
		return FormatXML
	default:
		return FormatPBF
	}
}

func newScanner(ctx context.Context, r io.Reader, format Format) osm.Scanner {
	if format == FormatXML {
		return osmxml.New(ctx, r)
	}
	return osmpbf.New(ctx, r, 0)
}

type nodeType uint8

const (
	endNode nodeType = iota + 1
	betweenNode
	junctionNode
)

type wayNode struct {
	id    osm.NodeID
	coord datastructure.Coordinate
}

// Parser builds a road graph from openstreetmap data. A Parser is used for one map only.
type Parser struct {
	mapID             string
	mapName           string
	simplifyThreshold float64

	wayNodeMap      map[osm.NodeID]nodeType
	acceptedNodeMap map[osm.NodeID]datastructure.Coordinate
	nodeIDMap       map[osm.NodeID]int32
	builder         *datastructure.GraphBuilder
}

// NewParser returns a Parser. Arc geometry is simplified with Ramer-Douglas-Peucker when simplifyThreshold (meter) is positive.
func NewParser(mapID, mapName string, simplifyThreshold float64) *Parser {
	return &Parser{
		mapID:             mapID,
		mapName:           mapName,
		simplifyThreshold: simplifyThreshold,
		wayNodeMap:        make(map[osm.NodeID]nodeType),
		acceptedNodeMap:   make(map[osm.NodeID]datastructure.Coordinate),
		nodeIDMap:         make(map[osm.NodeID]int32),
		builder:           datastructure.NewGraphBuilder(mapID, mapName),
	}
}

func (p *Parser) ParseFile(ctx context.Context, mapFile string) (*datastructure.Graph, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return p.Parse(ctx, f, FormatFromFilename(mapFile))
}

// Parse reads the data twice: the first pass finds the junction nodes, the second one builds the arcs.
func (p *Parser) Parse(ctx context.Context, r io.ReadSeeker, format Format) (*datastructure.Graph, error) {
	scanner := newScanner(ctx, r, format)
	countWays := 0
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok || len(way.Nodes) < 2 || !acceptOsmWay(way) {
			continue
		}
		if (countWays+1)%50000 == 0 {
			log.Printf("reading openstreetmap ways: %d...", countWays+1)
		}
		countWays++

		for i, node := range way.Nodes {
			if _, ok := p.wayNodeMap[node.ID]; ok {
				p.wayNodeMap[node.ID] = junctionNode
			} else if i == 0 || i == len(way.Nodes)-1 {
				p.wayNodeMap[node.ID] = endNode
			} else {
				p.wayNodeMap[node.ID] = betweenNode
			}
		}
	}
	err := scanner.Err()
	scanner.Close()
	if err != nil {
		return nil, fmt.Errorf("osmparser: first pass: %w", err)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	// nodes come before ways in openstreetmap files
	scanner = newScanner(ctx, r, format)
	defer scanner.Close()
	countWays = 0
	countNodes := 0
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			if (countNodes+1)%50000 == 0 {
				log.Printf("processing openstreetmap nodes: %d...", countNodes+1)
			}
			countNodes++
			if _, ok := p.wayNodeMap[o.ID]; ok {
				p.acceptedNodeMap[o.ID] = datastructure.NewCoordinate(o.Lat, o.Lon)
			}
		case *osm.Way:
			if len(o.Nodes) < 2 || !acceptOsmWay(o) {
				continue
			}
			if (countWays+1)%50000 == 0 {
				log.Printf("processing openstreetmap ways: %d...", countWays+1)
			}
			countWays++
			if err := p.processWay(o); err != nil {
				return nil, fmt.Errorf("osmparser: way %d: %w", o.ID, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("osmparser: second pass: %w", err)
	}

	g := p.builder.Build()
	if g.NumberOfArcs() == 0 {
		return nil, ErrEmptyGraph
	}
	log.Printf("total nodes: %d, total arcs: %d", g.NumberOfNodes(), g.NumberOfArcs())
	return g, nil
}

func (p *Parser) processWay(way *osm.Way) error {
	road, direction := wayRoadInformation(way)

	segment := make([]wayNode, 0, len(way.Nodes))
	for i, node := range way.Nodes {
		coord, ok := p.acceptedNodeMap[node.ID]
		if !ok {
			// node outside of the extract
			if err := p.processSegment(segment, road, direction); err != nil {
				return err
			}
			segment = segment[:0]
			continue
		}
		current := wayNode{id: node.ID, coord: coord}
		segment = append(segment, current)
		if i > 0 && p.isJunctionNode(node.ID) && len(segment) > 1 {
			if err := p.processSegment(segment, road, direction); err != nil {
				return err
			}
			segment = []wayNode{current}
		}
	}
	return p.processSegment(segment, road, direction)
}

func (p *Parser) processSegment(segment []wayNode, road datastructure.RoadInformation, direction wayDirection) error {
	if len(segment) < 2 {
		return nil
	}
	if segment[0].id == segment[len(segment)-1].id {
		if len(segment) == 2 {
			return nil
		}
		// a closed way without junction is split so no arc is a self loop
		mid := len(segment) / 2
		if err := p.addArcs(segment[:mid+1], road, direction); err != nil {
			return err
		}
		return p.addArcs(segment[mid:], road, direction)
	}
	return p.addArcs(segment, road, direction)
}

func (p *Parser) addArcs(segment []wayNode, road datastructure.RoadInformation, direction wayDirection) error {
	if direction == backward {
		segment = util.ReverseG(segment)
	}

	coords := make([]datastructure.Coordinate, len(segment))
	for i, node := range segment {
		coords[i] = node.coord
	}
	length := geo.PolylineLength(coords)
	if p.simplifyThreshold > 0 {
		coords = geo.RamerDouglasPeucker(coords, p.simplifyThreshold)
	}
	points := append([]datastructure.Coordinate{}, coords[1:len(coords)-1]...)

	from := p.graphNode(segment[0])
	to := p.graphNode(segment[len(segment)-1])

	if direction == both {
		return p.builder.AddRoad(from, to, length, road, points)
	}

	road.OneWay = true
	if _, err := p.builder.AddArc(from, to, length, road, points); err != nil {
		return err
	}
	if road.Access.Allows(datastructure.AccessFoot) {
		// one-way streets stay walkable both ways
		walk := road
		walk.Access = datastructure.AccessFoot
		if _, err := p.builder.AddArc(to, from, length, walk, util.ReverseG(points)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) graphNode(node wayNode) int32 {
	if id, ok := p.nodeIDMap[node.id]; ok {
		return id
	}
	id := p.builder.AddNode(node.coord)
	p.nodeIDMap[node.id] = id
	return id
}

func (p *Parser) isJunctionNode(nodeID osm.NodeID) bool {
	return p.wayNodeMap[nodeID] == junctionNode || p.wayNodeMap[nodeID] == endNode
}
