package routingalgorithm

import (
	"math"

	"github.com/lintang-b-s/carpoolnav/pkg/path"
	"github.com/lintang-b-s/carpoolnav/pkg/util"
)

// BellmanFordAlgorithm is a label-correcting search. Negative arc costs are allowed;
// a negative cycle reachable from the origin makes Run fail with ErrNegativeCycle.
type BellmanFordAlgorithm struct {
	observable[Observer]
	data ShortestPathData
}

func NewBellmanFordAlgorithm(data ShortestPathData) *BellmanFordAlgorithm {
	return &BellmanFordAlgorithm{data: data}
}

func (b *BellmanFordAlgorithm) Data() ShortestPathData {
	return b.data
}

func (b *BellmanFordAlgorithm) Run() (Solution, error) {
	return b.run(b.doRun)
}

func (b *BellmanFordAlgorithm) doRun(observers []Observer) (Solution, error) {
	data := b.data
	if err := data.validate(); err != nil {
		return Solution{Status: StatusNotRun}, err
	}
	g := data.Graph
	n := g.NumberOfNodes()

	cost := make([]float64, n)
	predArc := make([]int32, n)
	for i := range cost {
		cost[i] = math.Inf(1)
		predArc[i] = -1
	}
	cost[data.Origin] = 0

	err := notifyAll(observers, "origin processed", func(o Observer) error {
		return o.NotifyOriginProcessed(g.GetNode(data.Origin))
	})
	if err != nil {
		return Solution{Status: StatusNotRun}, err
	}

	converged := false
	for pass := 0; pass < n-1; pass++ {
		updated, err := b.relaxAll(cost, predArc, observers)
		if err != nil {
			return Solution{Status: StatusNotRun}, err
		}
		if !updated {
			converged = true
			break
		}
	}
	if !converged && b.improvable(cost) {
		return Solution{Status: StatusInfeasible}, ErrNegativeCycle
	}

	if math.IsInf(cost[data.Destination], 1) {
		return Solution{Status: StatusInfeasible}, nil
	}

	err = notifyAll(observers, "destination reached", func(o Observer) error {
		return o.NotifyDestinationReached(g.GetNode(data.Destination))
	})
	if err != nil {
		return Solution{Status: StatusNotRun}, err
	}

	arcIDs := make([]int32, 0)
	for curr := data.Destination; curr != data.Origin; {
		arcID := predArc[curr]
		arcIDs = append(arcIDs, arcID)
		curr = g.GetArc(arcID).From
	}

	var p *path.Path
	if len(arcIDs) == 0 {
		p, err = path.NewSingleNode(g, data.Origin)
	} else {
		p, err = path.New(g, util.ReverseG(arcIDs))
	}
	if err != nil {
		return Solution{Status: StatusNotRun}, err
	}

	return Solution{
		Status: StatusOptimal,
		Path:   p,
		Cost:   cost[data.Destination],
	}, nil
}

// relaxAll does one pass over every admissible arc in id order. Every improved node is marked;
// a node getting its first finite cost is also reached.
func (b *BellmanFordAlgorithm) relaxAll(cost []float64, predArc []int32, observers []Observer) (bool, error) {
	g := b.data.Graph
	filter := b.data.Filter
	updated := false

	for arcID := int32(0); int(arcID) < g.NumberOfArcs(); arcID++ {
		arc := g.GetArc(arcID)
		if !filter.IsAllowed(arc) || math.IsInf(cost[arc.From], 1) {
			continue
		}
		newCost := cost[arc.From] + filter.Cost(arc)
		if newCost >= cost[arc.To] {
			continue
		}

		firstReach := math.IsInf(cost[arc.To], 1)
		cost[arc.To] = newCost
		predArc[arc.To] = arcID
		updated = true

		to := g.GetNode(arc.To)
		if firstReach {
			err := notifyAll(observers, "node reached", func(o Observer) error {
				return o.NotifyNodeReached(to)
			})
			if err != nil {
				return false, err
			}
		}
		err := notifyAll(observers, "node marked", func(o Observer) error {
			return o.NotifyNodeMarked(to)
		})
		if err != nil {
			return false, err
		}
	}
	return updated, nil
}

// improvable reports whether some admissible arc can still lower a cost, which means a negative cycle.
func (b *BellmanFordAlgorithm) improvable(cost []float64) bool {
	g := b.data.Graph
	for arcID := int32(0); int(arcID) < g.NumberOfArcs(); arcID++ {
		arc := g.GetArc(arcID)
		if !b.data.Filter.IsAllowed(arc) || math.IsInf(cost[arc.From], 1) {
			continue
		}
		if cost[arc.From]+b.data.Filter.Cost(arc) < cost[arc.To] {
			return true
		}
	}
	return false
}

var _ ShortestPathAlgorithm = (*BellmanFordAlgorithm)(nil)
var _ ShortestPathAlgorithm = (*DijkstraAlgorithm)(nil)
