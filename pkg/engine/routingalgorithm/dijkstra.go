package routingalgorithm

import (
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
)

// DijkstraAlgorithm is a label-setting search. Arc costs must not be negative.
type DijkstraAlgorithm struct {
	observable[Observer]
	data ShortestPathData
}

func NewDijkstraAlgorithm(data ShortestPathData) *DijkstraAlgorithm {
	return &DijkstraAlgorithm{data: data}
}

func (d *DijkstraAlgorithm) Data() ShortestPathData {
	return d.data
}

func (d *DijkstraAlgorithm) Run() (Solution, error) {
	return d.run(d.doRun)
}

func (d *DijkstraAlgorithm) doRun(observers []Observer) (Solution, error) {
	data := d.data
	if err := data.validate(); err != nil {
		return Solution{Status: StatusNotRun}, err
	}
	g := data.Graph

	node := func(nodeID int32) datastructure.Node {
		return g.GetNode(nodeID)
	}

	err := notifyAll(observers, "origin processed", func(o Observer) error {
		return o.NotifyOriginProcessed(node(data.Origin))
	})
	if err != nil {
		return Solution{Status: StatusNotRun}, err
	}

	tree := newSearchTree(g, data.Filter, forward)
	found, err := tree.run(data.Origin, data.Destination, searchHooks{
		onReached: func(nodeID int32) error {
			return notifyAll(observers, "node reached", func(o Observer) error {
				return o.NotifyNodeReached(node(nodeID))
			})
		},
		onSettled: func(nodeID int32) error {
			return notifyAll(observers, "node marked", func(o Observer) error {
				return o.NotifyNodeMarked(node(nodeID))
			})
		},
	})
	if err != nil {
		return Solution{Status: StatusNotRun}, err
	}
	if !found {
		return Solution{Status: StatusInfeasible}, nil
	}

	err = notifyAll(observers, "destination reached", func(o Observer) error {
		return o.NotifyDestinationReached(node(data.Destination))
	})
	if err != nil {
		return Solution{Status: StatusNotRun}, err
	}

	p, err := tree.path(data.Destination)
	if err != nil {
		return Solution{Status: StatusNotRun}, err
	}
	return Solution{
		Status: StatusOptimal,
		Path:   p,
		Cost:   tree.cost[data.Destination],
	}, nil
}
