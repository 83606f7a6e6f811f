package routingalgorithm

import (
	"fmt"

	"github.com/lintang-b-s/carpoolnav/pkg/arcfilter"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/path"
)

// NodeState tells which frontiers of a carpooling run have reached a node.
type NodeState uint8

const (
	Unvisited         NodeState = 0
	PedestrianReached NodeState = 1 << 0
	CarReached        NodeState = 1 << 1
	BothReached                 = PedestrianReached | CarReached
)

func (s NodeState) String() string {
	switch s {
	case Unvisited:
		return "UNVISITED"
	case PedestrianReached:
		return "PEDESTRIAN_REACHED"
	case CarReached:
		return "CAR_REACHED"
	case BothReached:
		return "BOTH_REACHED"
	}
	return fmt.Sprintf("NodeState(%d)", uint8(s))
}

// CarpoolingObserver receives the events of a carpooling run. A non-nil error aborts the run.
type CarpoolingObserver interface {
	NotifyOriginCarProcessed(node datastructure.Node) error
	NotifyOriginPedestrianProcessed(node datastructure.Node) error
	NotifyNodeReached(node datastructure.Node) error
	NotifyNodeStateChanged(node datastructure.Node, from, to NodeState) error
	NotifyDestinationReached(node datastructure.Node) error
}

type CarpoolingData struct {
	Graph            *datastructure.Graph
	PedestrianOrigin int32
	// CarOrigin is where the driver starts. With InvalidNodeID the car may pick up anywhere.
	CarOrigin        int32
	Destination      int32
	PedestrianFilter arcfilter.ArcFilter
	CarFilter        arcfilter.ArcFilter
}

// CheckCarpoolingFilters reports whether the filters can be combined in a carpooling run: the pedestrian
// filter admits only walkable arcs, the car filter only drivable arcs, and both costs share a unit.
func CheckCarpoolingFilters(pedestrian, car arcfilter.ArcFilter) error {
	if pedestrian == nil || car == nil {
		return fmt.Errorf("%w: pedestrian and car filters are required", ErrInvalidData)
	}
	if !pedestrian.Requires().Allows(datastructure.AccessFoot) {
		return fmt.Errorf("%w: pedestrian filter %s admits arcs closed to pedestrians", ErrInvalidData, pedestrian.Name())
	}
	if !car.Requires().Allows(datastructure.AccessCar) {
		return fmt.Errorf("%w: car filter %s admits arcs closed to cars", ErrInvalidData, car.Name())
	}
	if pedestrian.Mode() != car.Mode() {
		return fmt.Errorf("%w: pedestrian filter %s measures %s but car filter %s measures %s", ErrInvalidData,
			pedestrian.Name(), pedestrian.Mode(), car.Name(), car.Mode())
	}
	return nil
}

func (d CarpoolingData) validate() error {
	if d.Graph == nil {
		return fmt.Errorf("%w: graph is required", ErrInvalidData)
	}
	if err := CheckCarpoolingFilters(d.PedestrianFilter, d.CarFilter); err != nil {
		return err
	}
	if !d.Graph.HasNode(d.PedestrianOrigin) {
		return fmt.Errorf("%w: pedestrian origin %d", ErrInvalidData, d.PedestrianOrigin)
	}
	if d.CarOrigin != datastructure.InvalidNodeID && !d.Graph.HasNode(d.CarOrigin) {
		return fmt.Errorf("%w: car origin %d", ErrInvalidData, d.CarOrigin)
	}
	if !d.Graph.HasNode(d.Destination) {
		return fmt.Errorf("%w: destination %d", ErrInvalidData, d.Destination)
	}
	return nil
}

type CarpoolingSolution struct {
	Solution
	// Pickup is the node where the pedestrian boards the car.
	Pickup             int32
	PedestrianPath     *path.Path
	CarPath            *path.Path
	DriverApproachPath *path.Path
	PedestrianCost     float64
	CarCost            float64
}

// CarpoolingAlgorithm finds the pickup node X minimizing pedestrian cost origin -> X plus
// car cost X -> destination, over nodes both the pedestrian and the car can reach.
type CarpoolingAlgorithm struct {
	observable[CarpoolingObserver]
	data CarpoolingData
}

func NewCarpoolingAlgorithm(data CarpoolingData) *CarpoolingAlgorithm {
	return &CarpoolingAlgorithm{data: data}
}

func (c *CarpoolingAlgorithm) Data() CarpoolingData {
	return c.data
}

func (c *CarpoolingAlgorithm) Run() (Solution, error) {
	sol, err := c.RunCarpooling()
	return sol.Solution, err
}

func (c *CarpoolingAlgorithm) RunCarpooling() (CarpoolingSolution, error) {
	var result CarpoolingSolution
	sol, err := c.run(func(observers []CarpoolingObserver) (Solution, error) {
		var err error
		result, err = c.doRun(observers)
		return result.Solution, err
	})
	result.Solution = sol
	if result.Status != StatusOptimal {
		result.Pickup = datastructure.InvalidNodeID
	}
	return result, err
}

type carpoolingRun struct {
	g         *datastructure.Graph
	observers []CarpoolingObserver
	states    []NodeState
}

// reached is called by each search on the first finite cost it assigns to a node.
func (r *carpoolingRun) reached(nodeID int32) error {
	return notifyAll(r.observers, "node reached", func(o CarpoolingObserver) error {
		return o.NotifyNodeReached(r.g.GetNode(nodeID))
	})
}

func (r *carpoolingRun) transition(nodeID int32, flag NodeState) error {
	from := r.states[nodeID]
	to := from | flag
	if from == to {
		return nil
	}
	r.states[nodeID] = to
	return notifyAll(r.observers, "node state changed", func(o CarpoolingObserver) error {
		return o.NotifyNodeStateChanged(r.g.GetNode(nodeID), from, to)
	})
}

func (c *CarpoolingAlgorithm) doRun(observers []CarpoolingObserver) (CarpoolingSolution, error) {
	data := c.data
	notRun := CarpoolingSolution{Solution: Solution{Status: StatusNotRun}, Pickup: datastructure.InvalidNodeID}
	if err := data.validate(); err != nil {
		return notRun, err
	}
	g := data.Graph
	n := g.NumberOfNodes()

	r := &carpoolingRun{
		g:         g,
		observers: observers,
		states:    make([]NodeState, n),
	}

	var driver *searchTree
	if data.CarOrigin != datastructure.InvalidNodeID {
		err := notifyAll(observers, "car origin processed", func(o CarpoolingObserver) error {
			return o.NotifyOriginCarProcessed(g.GetNode(data.CarOrigin))
		})
		if err != nil {
			return notRun, err
		}
	}
	err := notifyAll(observers, "pedestrian origin processed", func(o CarpoolingObserver) error {
		return o.NotifyOriginPedestrianProcessed(g.GetNode(data.PedestrianOrigin))
	})
	if err != nil {
		return notRun, err
	}

	if data.CarOrigin != datastructure.InvalidNodeID {
		driver = newSearchTree(g, data.CarFilter, forward)
		if _, err := driver.run(data.CarOrigin, datastructure.InvalidNodeID, searchHooks{onReached: r.reached}); err != nil {
			return notRun, err
		}
	}

	pedestrian := newSearchTree(g, data.PedestrianFilter, forward)
	_, err = pedestrian.run(data.PedestrianOrigin, datastructure.InvalidNodeID, searchHooks{
		onReached: r.reached,
		onSettled: func(nodeID int32) error {
			return r.transition(nodeID, PedestrianReached)
		},
	})
	if err != nil {
		return notRun, err
	}

	car := newSearchTree(g, data.CarFilter, backward)
	_, err = car.run(data.Destination, datastructure.InvalidNodeID, searchHooks{
		onReached: r.reached,
		onSettled: func(nodeID int32) error {
			if driver != nil && !driver.reachable(nodeID) {
				return nil
			}
			return r.transition(nodeID, CarReached)
		},
	})
	if err != nil {
		return notRun, err
	}

	pickup := datastructure.InvalidNodeID
	best := 0.0
	for nodeID := int32(0); int(nodeID) < n; nodeID++ {
		if r.states[nodeID] != BothReached {
			continue
		}
		if total := pedestrian.cost[nodeID] + car.cost[nodeID]; pickup == datastructure.InvalidNodeID || total < best {
			pickup = nodeID
			best = total
		}
	}
	if pickup == datastructure.InvalidNodeID {
		return CarpoolingSolution{Solution: Solution{Status: StatusInfeasible}, Pickup: datastructure.InvalidNodeID}, nil
	}

	pedestrianPath, err := pedestrian.path(pickup)
	if err != nil {
		return notRun, err
	}
	carPath, err := car.path(pickup)
	if err != nil {
		return notRun, err
	}
	joint, err := path.Concatenate(pedestrianPath, carPath)
	if err != nil {
		return notRun, err
	}

	var approach *path.Path
	if driver != nil {
		approach, err = driver.path(pickup)
	} else {
		approach, err = path.NewSingleNode(g, pickup)
	}
	if err != nil {
		return notRun, err
	}

	err = notifyAll(observers, "destination reached", func(o CarpoolingObserver) error {
		return o.NotifyDestinationReached(g.GetNode(data.Destination))
	})
	if err != nil {
		return notRun, err
	}

	return CarpoolingSolution{
		Solution: Solution{
			Status: StatusOptimal,
			Path:   joint,
			Cost:   best,
		},
		Pickup:             pickup,
		PedestrianPath:     pedestrianPath,
		CarPath:            carPath,
		DriverApproachPath: approach,
		PedestrianCost:     pedestrian.cost[pickup],
		CarCost:            car.cost[pickup],
	}, nil
}

var _ SearchAlgorithm = (*CarpoolingAlgorithm)(nil)
