// Package path holds routes over a graph: an origin node and a chain of arcs.
package path

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/carpoolnav/pkg/arcfilter"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
)

var (
	ErrNoConnectingArc    = errors.New("path: no arc connects two consecutive nodes")
	ErrEmptyConcatenation = errors.New("path: nothing to concatenate")
	ErrDifferentGraphs    = errors.New("path: paths belong to graphs with different map ids")
	ErrNotContiguous      = errors.New("path: arcs do not form a contiguous path")
	ErrNilPath            = errors.New("path: nil path")
)

// Criterion selects the arc between two consecutive nodes when several exist.
type Criterion uint8

const (
	CriterionShortest Criterion = iota
	CriterionFastest
)

// Path is immutable. The empty path has origin datastructure.InvalidNodeID and no arcs.
type Path struct {
	graph  *datastructure.Graph
	origin int32
	arcIDs []int32
}

func NewEmpty(g *datastructure.Graph) *Path {
	return &Path{graph: g, origin: datastructure.InvalidNodeID, arcIDs: []int32{}}
}

func NewSingleNode(g *datastructure.Graph, node int32) (*Path, error) {
	if !g.HasNode(node) {
		return nil, fmt.Errorf("%w: %d", datastructure.ErrUnknownNode, node)
	}
	return &Path{graph: g, origin: node, arcIDs: []int32{}}, nil
}

// New builds a path from arc ids without checking that they chain; use IsValid for that.
func New(g *datastructure.Graph, arcIDs []int32) (*Path, error) {
	if len(arcIDs) == 0 {
		return NewEmpty(g), nil
	}
	for _, arcID := range arcIDs {
		if !g.HasArc(arcID) {
			return nil, fmt.Errorf("%w: %d", datastructure.ErrUnknownArc, arcID)
		}
	}
	ids := make([]int32, len(arcIDs))
	copy(ids, arcIDs)
	return &Path{graph: g, origin: g.GetArc(ids[0]).From, arcIDs: ids}, nil
}

// CreatePathFromNodes connects consecutive nodes with the best arc for criterion.
// Among equally good arcs the first in the adjacency list wins.
func CreatePathFromNodes(g *datastructure.Graph, nodes []int32, criterion Criterion) (*Path, error) {
	if len(nodes) == 0 {
		return NewEmpty(g), nil
	}
	for _, node := range nodes {
		if !g.HasNode(node) {
			return nil, fmt.Errorf("%w: %d", datastructure.ErrUnknownNode, node)
		}
	}
	if len(nodes) == 1 {
		return NewSingleNode(g, nodes[0])
	}

	measure := func(arc datastructure.Arc) float64 {
		return arc.Length
	}
	if criterion == CriterionFastest {
		measure = func(arc datastructure.Arc) float64 {
			return arc.MinimumTravelTime()
		}
	}

	arcIDs := make([]int32, 0, len(nodes)-1)
	for i := 0; i < len(nodes)-1; i++ {
		best := int32(-1)
		bestValue := 0.0
		for _, arcID := range g.GetNodeOutArcs(nodes[i]) {
			arc := g.GetArc(arcID)
			if arc.To != nodes[i+1] {
				continue
			}
			if value := measure(arc); best == -1 || value < bestValue {
				best = arcID
				bestValue = value
			}
		}
		if best == -1 {
			return nil, fmt.Errorf("%w: %d -> %d", ErrNoConnectingArc, nodes[i], nodes[i+1])
		}
		arcIDs = append(arcIDs, best)
	}
	return &Path{graph: g, origin: nodes[0], arcIDs: arcIDs}, nil
}

func CreateShortestPathFromNodes(g *datastructure.Graph, nodes []int32) (*Path, error) {
	return CreatePathFromNodes(g, nodes, CriterionShortest)
}

func CreateFastestPathFromNodes(g *datastructure.Graph, nodes []int32) (*Path, error) {
	return CreatePathFromNodes(g, nodes, CriterionFastest)
}

// Concatenate joins paths in order. All paths must share the map id and each one must start where the previous ended.
func Concatenate(paths ...*Path) (*Path, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyConcatenation
	}
	for i, p := range paths {
		if p == nil {
			return nil, fmt.Errorf("%w: argument %d", ErrNilPath, i)
		}
	}
	g := paths[0].graph
	for _, p := range paths[1:] {
		if p.graph.MapID() != g.MapID() {
			return nil, fmt.Errorf("%w: %q and %q", ErrDifferentGraphs, g.MapID(), p.graph.MapID())
		}
	}

	origin := datastructure.InvalidNodeID
	arcIDs := make([]int32, 0)
	for _, p := range paths {
		if p.IsEmpty() {
			continue
		}
		if origin == datastructure.InvalidNodeID {
			origin = p.origin
		} else if last := lastNode(g, origin, arcIDs); last != p.origin {
			return nil, fmt.Errorf("%w: joining %d to %d", ErrNotContiguous, last, p.origin)
		}
		arcIDs = append(arcIDs, p.arcIDs...)
	}

	joined := &Path{graph: g, origin: origin, arcIDs: arcIDs}
	if !joined.IsValid() {
		return nil, ErrNotContiguous
	}
	return joined, nil
}

func lastNode(g *datastructure.Graph, origin int32, arcIDs []int32) int32 {
	if len(arcIDs) == 0 {
		return origin
	}
	return g.GetArc(arcIDs[len(arcIDs)-1]).To
}

func (p *Path) Graph() *datastructure.Graph {
	return p.graph
}

func (p *Path) Origin() int32 {
	return p.origin
}

// Destination is the last node of the path, the origin for a single node path and InvalidNodeID when empty.
func (p *Path) Destination() int32 {
	if p.IsEmpty() {
		return datastructure.InvalidNodeID
	}
	return lastNode(p.graph, p.origin, p.arcIDs)
}

func (p *Path) ArcIDs() []int32 {
	ids := make([]int32, len(p.arcIDs))
	copy(ids, p.arcIDs)
	return ids
}

func (p *Path) Arcs() []datastructure.Arc {
	arcs := make([]datastructure.Arc, 0, len(p.arcIDs))
	for _, arcID := range p.arcIDs {
		arcs = append(arcs, p.graph.GetArc(arcID))
	}
	return arcs
}

func (p *Path) IsEmpty() bool {
	return p.origin == datastructure.InvalidNodeID
}

// Size is the number of nodes on the path.
func (p *Path) Size() int {
	if p.IsEmpty() {
		return 0
	}
	return len(p.arcIDs) + 1
}

// IsValid reports whether the path is empty, a single node, or a chain of arcs starting at the origin.
func (p *Path) IsValid() bool {
	if p.IsEmpty() {
		return len(p.arcIDs) == 0
	}
	if len(p.arcIDs) == 0 {
		return true
	}
	if p.graph.GetArc(p.arcIDs[0]).From != p.origin {
		return false
	}
	for i := 1; i < len(p.arcIDs); i++ {
		if p.graph.GetArc(p.arcIDs[i-1]).To != p.graph.GetArc(p.arcIDs[i]).From {
			return false
		}
	}
	return true
}

// Length in meter.
func (p *Path) Length() float64 {
	length := 0.0
	for _, arcID := range p.arcIDs {
		length += p.graph.GetArc(arcID).Length
	}
	return length
}

// TravelTime in seconds when driving every arc at speed km/h.
func (p *Path) TravelTime(speed float64) float64 {
	travelTime := 0.0
	for _, arcID := range p.arcIDs {
		travelTime += p.graph.GetArc(arcID).TravelTime(speed)
	}
	return travelTime
}

// MinimumTravelTime in seconds when driving every arc at its maximum speed.
func (p *Path) MinimumTravelTime() float64 {
	travelTime := 0.0
	for _, arcID := range p.arcIDs {
		travelTime += p.graph.GetArc(arcID).MinimumTravelTime()
	}
	return travelTime
}

// Cost sums the filter cost of every arc.
func (p *Path) Cost(filter arcfilter.ArcFilter) float64 {
	cost := 0.0
	for _, arcID := range p.arcIDs {
		cost += filter.Cost(p.graph.GetArc(arcID))
	}
	return cost
}

// Nodes returns the visited node ids, origin first.
func (p *Path) Nodes() []int32 {
	if p.IsEmpty() {
		return []int32{}
	}
	nodes := make([]int32, 0, len(p.arcIDs)+1)
	nodes = append(nodes, p.origin)
	for _, arcID := range p.arcIDs {
		nodes = append(nodes, p.graph.GetArc(arcID).To)
	}
	return nodes
}

// Coordinates returns the geometry of the path including the points inside arcs.
func (p *Path) Coordinates() []datastructure.Coordinate {
	if p.IsEmpty() {
		return []datastructure.Coordinate{}
	}
	coords := make([]datastructure.Coordinate, 0, len(p.arcIDs)+1)
	coords = append(coords, p.graph.GetNode(p.origin).Point)
	for _, arcID := range p.arcIDs {
		arc := p.graph.GetArc(arcID)
		coords = append(coords, arc.Points...)
		coords = append(coords, p.graph.GetNode(arc.To).Point)
	}
	return coords
}

func (p *Path) Polyline() string {
	return datastructure.CreatePolyline(p.Coordinates())
}

func (p *Path) String() string {
	return fmt.Sprintf("Path(%d -> %d, %d arcs, %.2f m)", p.origin, p.Destination(), len(p.arcIDs), p.Length())
}
