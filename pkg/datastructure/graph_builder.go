package datastructure

import (
	"fmt"

	"github.com/lintang-b-s/carpoolnav/pkg/util"
)

// GraphBuilder accumulates nodes and arcs and produces an immutable Graph.
type GraphBuilder struct {
	mapID   string
	mapName string

	nodes   []Node
	arcs    []Arc
	outArcs [][]int32
	inArcs  [][]int32
}

func NewGraphBuilder(mapID, mapName string) *GraphBuilder {
	return &GraphBuilder{
		mapID:   mapID,
		mapName: mapName,
		nodes:   make([]Node, 0),
		arcs:    make([]Arc, 0),
		outArcs: make([][]int32, 0),
		inArcs:  make([][]int32, 0),
	}
}

func (b *GraphBuilder) AddNode(point Coordinate) int32 {
	id := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{ID: id, Point: point})
	b.outArcs = append(b.outArcs, []int32{})
	b.inArcs = append(b.inArcs, []int32{})
	return id
}

// AddArc adds one directed arc. A non-positive max speed is replaced by the default speed of the road type.
func (b *GraphBuilder) AddArc(from, to int32, length float64, road RoadInformation, points []Coordinate) (int32, error) {
	if from < 0 || int(from) >= len(b.nodes) {
		return -1, fmt.Errorf("%w: %d", ErrUnknownNode, from)
	}
	if to < 0 || int(to) >= len(b.nodes) {
		return -1, fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}
	if length < 0 {
		return -1, fmt.Errorf("%w: %f", ErrNegativeLength, length)
	}
	if road.MaxSpeed <= 0 {
		road.MaxSpeed = RoadTypeMaxSpeed(road.Type)
	}

	id := int32(len(b.arcs))
	b.arcs = append(b.arcs, Arc{
		ID:     id,
		From:   from,
		To:     to,
		Length: length,
		Road:   road,
		Points: points,
	})
	b.outArcs[from] = append(b.outArcs[from], id)
	b.inArcs[to] = append(b.inArcs[to], id)
	return id, nil
}

// AddRoad adds the arc from -> to and, unless the road is one-way, the reversed arc to -> from.
func (b *GraphBuilder) AddRoad(from, to int32, length float64, road RoadInformation, points []Coordinate) error {
	if _, err := b.AddArc(from, to, length, road, points); err != nil {
		return err
	}
	if road.OneWay {
		return nil
	}
	_, err := b.AddArc(to, from, length, road, util.ReverseG(points))
	return err
}

// Build hands the accumulated data to a new Graph. The builder is empty afterwards.
func (b *GraphBuilder) Build() *Graph {
	g := &Graph{
		mapID:   b.mapID,
		mapName: b.mapName,
		nodes:   b.nodes,
		arcs:    b.arcs,
		outArcs: b.outArcs,
		inArcs:  b.inArcs,
	}
	*b = *NewGraphBuilder(b.mapID, b.mapName)
	return g
}
