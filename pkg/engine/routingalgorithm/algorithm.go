package routingalgorithm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lintang-b-s/carpoolnav/pkg/arcfilter"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/path"
)

var (
	ErrInvalidData      = errors.New("routingalgorithm: invalid input data")
	ErrRunInProgress    = errors.New("routingalgorithm: observers cannot change while a run is in progress")
	ErrNegativeCycle    = errors.New("routingalgorithm: negative cycle reachable from the origin")
	ErrUnknownAlgorithm = errors.New("routingalgorithm: unknown algorithm")
)

type Status uint8

const (
	StatusNotRun Status = iota
	StatusInfeasible
	StatusOptimal
)

func (s Status) String() string {
	switch s {
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusOptimal:
		return "OPTIMAL"
	default:
		return "NOT_RUN"
	}
}

// Solution is the outcome of a run. Path is only set when Status is StatusOptimal.
type Solution struct {
	Status      Status
	Path        *path.Path
	Cost        float64
	SolvingTime time.Duration
}

func (s Solution) IsFeasible() bool {
	return s.Status == StatusOptimal
}

type SearchAlgorithm interface {
	Run() (Solution, error)
}

type ShortestPathData struct {
	Graph       *datastructure.Graph
	Origin      int32
	Destination int32
	Filter      arcfilter.ArcFilter
}

func (d ShortestPathData) validate() error {
	if d.Graph == nil || d.Filter == nil {
		return fmt.Errorf("%w: graph and filter are required", ErrInvalidData)
	}
	if !d.Graph.HasNode(d.Origin) {
		return fmt.Errorf("%w: origin %d", ErrInvalidData, d.Origin)
	}
	if !d.Graph.HasNode(d.Destination) {
		return fmt.Errorf("%w: destination %d", ErrInvalidData, d.Destination)
	}
	return nil
}

// Observer receives the events of a shortest path search. A non-nil error aborts the run.
type Observer interface {
	NotifyOriginProcessed(node datastructure.Node) error
	NotifyNodeReached(node datastructure.Node) error
	NotifyNodeMarked(node datastructure.Node) error
	NotifyDestinationReached(node datastructure.Node) error
}

// ShortestPathAlgorithm is a point to point search over ShortestPathData.
type ShortestPathAlgorithm interface {
	SearchAlgorithm
	AddObserver(obs Observer) error
	Data() ShortestPathData
}

const (
	Dijkstra    = "dijkstra"
	BellmanFord = "bellman-ford"
)

func NewShortestPathAlgorithm(name string, data ShortestPathData) (ShortestPathAlgorithm, error) {
	switch name {
	case Dijkstra:
		return NewDijkstraAlgorithm(data), nil
	case BellmanFord:
		return NewBellmanFordAlgorithm(data), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// observable keeps the ordered observer list of an algorithm.
type observable[O any] struct {
	mu        sync.Mutex
	observers []O
	running   bool
}

func (o *observable[O]) AddObserver(obs O) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrRunInProgress
	}
	o.observers = append(o.observers, obs)
	return nil
}

func (o *observable[O]) Observers() []O {
	o.mu.Lock()
	defer o.mu.Unlock()
	observers := make([]O, len(o.observers))
	copy(observers, o.observers)
	return observers
}

func (o *observable[O]) begin() ([]O, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return nil, ErrRunInProgress
	}
	o.running = true
	return o.observers, nil
}

func (o *observable[O]) end() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// run times body and fills SolvingTime whatever the outcome.
func (o *observable[O]) run(body func(observers []O) (Solution, error)) (Solution, error) {
	start := time.Now()
	observers, err := o.begin()
	if err != nil {
		return Solution{Status: StatusNotRun, SolvingTime: time.Since(start)}, err
	}
	defer o.end()

	sol, err := body(observers)
	sol.SolvingTime = time.Since(start)
	return sol, err
}

func notifyAll[O any](observers []O, event string, notify func(O) error) error {
	for _, obs := range observers {
		if err := notify(obs); err != nil {
			return fmt.Errorf("%s: %w", event, err)
		}
	}
	return nil
}
