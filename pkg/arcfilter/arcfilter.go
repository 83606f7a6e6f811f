// Package arcfilter decides which arcs a search may use and what traversing them costs.
package arcfilter

import (
	"errors"
	"fmt"
	"math"

	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
)

var ErrUnknownFilter = errors.New("arcfilter: unknown filter")

type Mode uint8

const (
	ModeLength Mode = iota
	ModeTime
)

func (m Mode) String() string {
	if m == ModeTime {
		return "TIME"
	}
	return "LENGTH"
}

// NoMaximumSpeed is returned by filters that do not cap the speed on arcs.
const NoMaximumSpeed = -1.0

const PedestrianSpeed = 5.0 // km/h

// ArcFilter must be pure: the same arc always yields the same answer.
type ArcFilter interface {
	IsAllowed(arc datastructure.Arc) bool
	Cost(arc datastructure.Arc) float64
	Mode() Mode
	// MaximumSpeed in km/h, or NoMaximumSpeed.
	MaximumSpeed() float64
	// Requires is the transport mode every admitted arc allows, AccessNone when any arc may be admitted.
	Requires() datastructure.Access
	Name() string
}

type Filter struct {
	name     string
	mode     Mode
	requires datastructure.Access
	maxSpeed float64
	allowed  func(arc datastructure.Arc) bool
	cost     func(arc datastructure.Arc) float64
}

// New builds a filter from an admissibility predicate and a cost function.
// Arcs that do not allow requires are rejected before allowed is consulted.
func New(name string, mode Mode, requires datastructure.Access, maxSpeed float64, allowed func(arc datastructure.Arc) bool,
	cost func(arc datastructure.Arc) float64) *Filter {
	return &Filter{
		name:     name,
		mode:     mode,
		requires: requires,
		maxSpeed: maxSpeed,
		allowed:  allowed,
		cost:     cost,
	}
}

func (f *Filter) IsAllowed(arc datastructure.Arc) bool {
	if f.requires != datastructure.AccessNone && !arc.Road.Access.Allows(f.requires) {
		return false
	}
	return f.allowed(arc)
}

func (f *Filter) Cost(arc datastructure.Arc) float64 {
	return f.cost(arc)
}

func (f *Filter) Mode() Mode {
	return f.mode
}

func (f *Filter) MaximumSpeed() float64 {
	return f.maxSpeed
}

func (f *Filter) Requires() datastructure.Access {
	return f.requires
}

func (f *Filter) Name() string {
	return f.name
}

func (f *Filter) String() string {
	return fmt.Sprintf("%s (%s)", f.name, f.mode)
}

const (
	ShortestAllRoads = "shortest-path-all-roads"
	ShortestCarsOnly = "shortest-path-cars-only"
	FastestAllRoads  = "fastest-path-all-roads"
	FastestCarsOnly  = "fastest-path-cars-only"
	PedestrianOnly   = "pedestrian-only"
)

func allRoads(datastructure.Arc) bool {
	return true
}

func length(arc datastructure.Arc) float64 {
	return arc.Length
}

func minimumTravelTime(arc datastructure.Arc) float64 {
	return arc.MinimumTravelTime()
}

func pedestrianTravelTime(arc datastructure.Arc) float64 {
	return arc.TravelTime(math.Min(PedestrianSpeed, arc.Road.MaxSpeed))
}

// AllFilters returns the standard filters. The order is stable.
func AllFilters() []ArcFilter {
	return []ArcFilter{
		New(ShortestAllRoads, ModeLength, datastructure.AccessNone, NoMaximumSpeed, allRoads, length),
		New(ShortestCarsOnly, ModeLength, datastructure.AccessCar, NoMaximumSpeed, allRoads, length),
		New(FastestAllRoads, ModeTime, datastructure.AccessNone, NoMaximumSpeed, allRoads, minimumTravelTime),
		New(FastestCarsOnly, ModeTime, datastructure.AccessCar, NoMaximumSpeed, allRoads, minimumTravelTime),
		New(PedestrianOnly, ModeTime, datastructure.AccessFoot, PedestrianSpeed, allRoads, pedestrianTravelTime),
	}
}

func ByName(name string) (ArcFilter, error) {
	for _, f := range AllFilters() {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
}

func Names() []string {
	filters := AllFilters()
	names := make([]string, 0, len(filters))
	for _, f := range filters {
		names = append(names, f.Name())
	}
	return names
}
