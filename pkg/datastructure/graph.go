package datastructure

import (
	"errors"
	"fmt"
	"math"
)

const InvalidNodeID int32 = -1

var (
	ErrUnknownNode    = errors.New("graph: unknown node")
	ErrUnknownArc     = errors.New("graph: unknown arc")
	ErrNegativeLength = errors.New("graph: arc length must not be negative")
)

type Node struct {
	ID    int32      `json:"id"`
	Point Coordinate `json:"point"`
}

// Arc is a directed road segment. Multiple arcs may connect the same pair of nodes.
type Arc struct {
	ID     int32
	From   int32
	To     int32
	Length float64 // meter
	Road   RoadInformation
	// Points is the geometry strictly between From and To.
	Points []Coordinate
}

// TravelTime returns the seconds needed to traverse the arc at speed km/h.
func (a Arc) TravelTime(speed float64) float64 {
	if speed <= 0 {
		return math.Inf(1)
	}
	return a.Length / (speed * 1000.0 / 3600.0)
}

// MinimumTravelTime is the travel time at the road's maximum speed.
func (a Arc) MinimumTravelTime() float64 {
	return a.TravelTime(a.Road.MaxSpeed)
}

// Graph is an immutable directed multigraph. Nodes and arcs are addressed by dense int32 ids.
type Graph struct {
	mapID   string
	mapName string

	nodes   []Node
	arcs    []Arc
	outArcs [][]int32
	inArcs  [][]int32
}

func (g *Graph) MapID() string {
	return g.mapID
}

func (g *Graph) MapName() string {
	return g.mapName
}

func (g *Graph) NumberOfNodes() int {
	return len(g.nodes)
}

func (g *Graph) NumberOfArcs() int {
	return len(g.arcs)
}

func (g *Graph) HasNode(nodeID int32) bool {
	return nodeID >= 0 && int(nodeID) < len(g.nodes)
}

func (g *Graph) HasArc(arcID int32) bool {
	return arcID >= 0 && int(arcID) < len(g.arcs)
}

func (g *Graph) GetNode(nodeID int32) Node {
	return g.nodes[nodeID]
}

func (g *Graph) GetArc(arcID int32) Arc {
	return g.arcs[arcID]
}

// GetNodeOutArcs returns the ids of the arcs leaving nodeID in insertion order. The slice must not be modified.
func (g *Graph) GetNodeOutArcs(nodeID int32) []int32 {
	return g.outArcs[nodeID]
}

// GetNodeInArcs returns the ids of the arcs entering nodeID in insertion order. The slice must not be modified.
func (g *Graph) GetNodeInArcs(nodeID int32) []int32 {
	return g.inArcs[nodeID]
}

// ArcsBetween returns every arc from -> to, in the adjacency order of from.
func (g *Graph) ArcsBetween(from, to int32) ([]int32, error) {
	if !g.HasNode(from) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, from)
	}
	if !g.HasNode(to) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}
	arcIDs := make([]int32, 0, 1)
	for _, arcID := range g.outArcs[from] {
		if g.arcs[arcID].To == to {
			arcIDs = append(arcIDs, arcID)
		}
	}
	return arcIDs, nil
}

func (g *Graph) String() string {
	return fmt.Sprintf("Graph(%s, %s, %d nodes, %d arcs)", g.mapID, g.mapName, len(g.nodes), len(g.arcs))
}
