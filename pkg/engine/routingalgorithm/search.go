package routingalgorithm

import (
	"fmt"
	"math"

	"github.com/lintang-b-s/carpoolnav/pkg/arcfilter"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/path"
	"github.com/lintang-b-s/carpoolnav/pkg/util"
)

type direction uint8

const (
	forward direction = iota
	// backward follows incoming arcs: cost[v] is the cost from v to the root.
	backward
)

type searchHooks struct {
	onReached func(nodeID int32) error
	onSettled func(nodeID int32) error
}

// searchTree is the state of one label-setting search. It is owned by a single run.
type searchTree struct {
	g      *datastructure.Graph
	filter arcfilter.ArcFilter
	dir    direction
	root   int32

	cost    []float64
	predArc []int32
	settled []bool
}

func newSearchTree(g *datastructure.Graph, filter arcfilter.ArcFilter, dir direction) *searchTree {
	n := g.NumberOfNodes()
	s := &searchTree{
		g:       g,
		filter:  filter,
		dir:     dir,
		root:    datastructure.InvalidNodeID,
		cost:    make([]float64, n),
		predArc: make([]int32, n),
		settled: make([]bool, n),
	}
	for i := range s.cost {
		s.cost[i] = math.Inf(1)
		s.predArc[i] = -1
	}
	return s
}

func (s *searchTree) adjacent(nodeID int32) []int32 {
	if s.dir == backward {
		return s.g.GetNodeInArcs(nodeID)
	}
	return s.g.GetNodeOutArcs(nodeID)
}

func (s *searchTree) head(arc datastructure.Arc) int32 {
	if s.dir == backward {
		return arc.From
	}
	return arc.To
}

func (s *searchTree) tail(arc datastructure.Arc) int32 {
	if s.dir == backward {
		return arc.To
	}
	return arc.From
}

// run settles nodes in cost order starting at root until target is settled.
// With target InvalidNodeID the search runs until the frontier is empty. It reports whether target was settled.
func (s *searchTree) run(root, target int32, hooks searchHooks) (bool, error) {
	s.root = root
	s.cost[root] = 0

	pq := datastructure.NewMinHeap[int32]()
	pq.Insert(datastructure.NewPriorityQueueNode(0.0, root))

	for pq.Size() > 0 {
		current, _ := pq.ExtractMin()
		u := current.Item
		s.settled[u] = true

		if hooks.onSettled != nil {
			if err := hooks.onSettled(u); err != nil {
				return false, err
			}
		}
		if u == target {
			return true, nil
		}

		for _, arcID := range s.adjacent(u) {
			arc := s.g.GetArc(arcID)
			if !s.filter.IsAllowed(arc) {
				continue
			}
			v := s.head(arc)
			if s.settled[v] {
				continue
			}

			newCost := s.cost[u] + s.filter.Cost(arc)
			if newCost >= s.cost[v] {
				continue
			}

			firstReach := math.IsInf(s.cost[v], 1)
			s.cost[v] = newCost
			s.predArc[v] = arcID
			if firstReach {
				pq.Insert(datastructure.NewPriorityQueueNode(newCost, v))
				if hooks.onReached != nil {
					if err := hooks.onReached(v); err != nil {
						return false, err
					}
				}
			} else if err := pq.DecreaseKey(datastructure.NewPriorityQueueNode(newCost, v)); err != nil {
				return false, fmt.Errorf("relax arc %d: %w", arcID, err)
			}
		}
	}
	return false, nil
}

func (s *searchTree) reachable(nodeID int32) bool {
	return !math.IsInf(s.cost[nodeID], 1)
}

// path rebuilds root -> nodeID for a forward tree and nodeID -> root for a backward tree.
func (s *searchTree) path(nodeID int32) (*path.Path, error) {
	arcIDs := make([]int32, 0)
	for curr := nodeID; curr != s.root && s.predArc[curr] != -1; {
		arcID := s.predArc[curr]
		arcIDs = append(arcIDs, arcID)
		curr = s.tail(s.g.GetArc(arcID))
	}
	if len(arcIDs) == 0 {
		return path.NewSingleNode(s.g, nodeID)
	}
	if s.dir == forward {
		arcIDs = util.ReverseG(arcIDs)
	}
	return path.New(s.g, arcIDs)
}
