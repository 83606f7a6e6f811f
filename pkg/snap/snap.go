package snap

import (
	"errors"
	"math"

	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/geo"
	"github.com/uber/h3-go/v4"
)

var ErrNoNearbyNode = errors.New("snap: no node near the coordinate")

const (
	DefaultResolution = 9
	DefaultMaxRing    = 10
)

type CellIndex interface {
	NodesInCell(cell h3.Cell) ([]int32, error)
}

// MemoryCellIndex groups the graph nodes by h3 cell.
type MemoryCellIndex struct {
	cells map[h3.Cell][]int32
}

func NewMemoryCellIndex(g *datastructure.Graph, resolution int) *MemoryCellIndex {
	cells := make(map[h3.Cell][]int32)
	for nodeID := int32(0); int(nodeID) < g.NumberOfNodes(); nodeID++ {
		p := g.GetNode(nodeID).Point
		cell := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), resolution)
		cells[cell] = append(cells[cell], nodeID)
	}
	return &MemoryCellIndex{cells: cells}
}

func (m *MemoryCellIndex) NodesInCell(cell h3.Cell) ([]int32, error) {
	return m.cells[cell], nil
}

// NodeSnapper finds the graph node nearest to a coordinate.
type NodeSnapper struct {
	g          *datastructure.Graph
	index      CellIndex
	resolution int
	maxRing    int
}

func NewNodeSnapper(g *datastructure.Graph, index CellIndex, resolution, maxRing int) *NodeSnapper {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	if maxRing <= 0 {
		maxRing = DefaultMaxRing
	}
	return &NodeSnapper{
		g:          g,
		index:      index,
		resolution: resolution,
		maxRing:    maxRing,
	}
}

// Snap returns the nearest node accepted by accept (nil accepts every node) and its distance in meter.
// The search grows ring by ring around the cell of the coordinate. Once a candidate is found one more ring is
// searched, because a node in the next ring can be closer than a node in a corner of the current one.
func (s *NodeSnapper) Snap(coord datastructure.Coordinate, accept func(nodeID int32) bool) (int32, float64, error) {
	origin := h3.LatLngToCell(h3.NewLatLng(coord.Lat, coord.Lon), s.resolution)

	visited := make(map[h3.Cell]struct{})
	best := datastructure.InvalidNodeID
	bestDist := math.Inf(1)
	lastRing := s.maxRing

	for ring := 0; ring <= lastRing; ring++ {
		for _, cell := range h3.GridDisk(origin, ring) {
			if _, ok := visited[cell]; ok {
				continue
			}
			visited[cell] = struct{}{}

			nodeIDs, err := s.index.NodesInCell(cell)
			if err != nil {
				return datastructure.InvalidNodeID, 0, err
			}
			for _, nodeID := range nodeIDs {
				if accept != nil && !accept(nodeID) {
					continue
				}
				dist := geo.Distance(coord, s.g.GetNode(nodeID).Point)
				if dist < bestDist || (dist == bestDist && nodeID < best) {
					best, bestDist = nodeID, dist
				}
			}
		}
		if best != datastructure.InvalidNodeID && lastRing > ring+1 {
			lastRing = ring + 1
		}
	}

	if best == datastructure.InvalidNodeID {
		return datastructure.InvalidNodeID, 0, ErrNoNearbyNode
	}
	return best, bestDist, nil
}
