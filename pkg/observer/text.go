// Package observer has ready made observers for routing and carpooling runs.
package observer

import (
	"fmt"
	"io"
	"sync"

	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/engine/routingalgorithm"
)

// TextObserver writes one line per event. A failed write aborts the run.
type TextObserver struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextObserver(w io.Writer) *TextObserver {
	return &TextObserver{w: w}
}

func (o *TextObserver) printf(format string, args ...any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := fmt.Fprintf(o.w, format+"\n", args...)
	return err
}

func (o *TextObserver) NotifyOriginProcessed(node datastructure.Node) error {
	return o.printf("Origin %d processed.", node.ID)
}

func (o *TextObserver) NotifyNodeReached(node datastructure.Node) error {
	return o.printf("Node %d reached.", node.ID)
}

func (o *TextObserver) NotifyNodeMarked(node datastructure.Node) error {
	return o.printf("Node %d marked.", node.ID)
}

func (o *TextObserver) NotifyDestinationReached(node datastructure.Node) error {
	return o.printf("Destination %d reached.", node.ID)
}

func (o *TextObserver) NotifyOriginCarProcessed(node datastructure.Node) error {
	return o.printf("Car origin %d processed.", node.ID)
}

func (o *TextObserver) NotifyOriginPedestrianProcessed(node datastructure.Node) error {
	return o.printf("Pedestrian origin %d processed.", node.ID)
}

func (o *TextObserver) NotifyNodeStateChanged(node datastructure.Node, from, to routingalgorithm.NodeState) error {
	return o.printf("Node %d %s -> %s.", node.ID, from, to)
}

var (
	_ routingalgorithm.Observer           = (*TextObserver)(nil)
	_ routingalgorithm.CarpoolingObserver = (*TextObserver)(nil)
)
