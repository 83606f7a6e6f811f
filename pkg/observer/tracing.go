package observer

import (
	"context"

	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/engine/routingalgorithm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingObserver records one span per run. Origins and destination become span events,
// node events are counted and attached when the span ends.
type TracingObserver struct {
	span trace.Span

	reached      int64
	marked       int64
	stateChanges int64
}

func StartTracing(ctx context.Context, tracer trace.Tracer, algorithm string) (context.Context, *TracingObserver) {
	ctx, span := tracer.Start(ctx, "routing."+algorithm,
		trace.WithAttributes(attribute.String("routing.algorithm", algorithm)))
	return ctx, &TracingObserver{span: span}
}

func nodeAttributes(node datastructure.Node) trace.SpanStartEventOption {
	return trace.WithAttributes(
		attribute.Int64("node.id", int64(node.ID)),
		attribute.Float64("node.lat", node.Point.Lat),
		attribute.Float64("node.lon", node.Point.Lon),
	)
}

func (o *TracingObserver) NotifyOriginProcessed(node datastructure.Node) error {
	o.span.AddEvent("origin_processed", nodeAttributes(node))
	return nil
}

func (o *TracingObserver) NotifyNodeReached(node datastructure.Node) error {
	o.reached++
	return nil
}

func (o *TracingObserver) NotifyNodeMarked(node datastructure.Node) error {
	o.marked++
	return nil
}

func (o *TracingObserver) NotifyDestinationReached(node datastructure.Node) error {
	o.span.AddEvent("destination_reached", nodeAttributes(node))
	return nil
}

func (o *TracingObserver) NotifyOriginCarProcessed(node datastructure.Node) error {
	o.span.AddEvent("car_origin_processed", nodeAttributes(node))
	return nil
}

func (o *TracingObserver) NotifyOriginPedestrianProcessed(node datastructure.Node) error {
	o.span.AddEvent("pedestrian_origin_processed", nodeAttributes(node))
	return nil
}

func (o *TracingObserver) NotifyNodeStateChanged(node datastructure.Node, from, to routingalgorithm.NodeState) error {
	o.stateChanges++
	return nil
}

// End closes the span with the outcome of the run.
func (o *TracingObserver) End(sol routingalgorithm.Solution, err error) {
	o.span.SetAttributes(
		attribute.String("routing.status", sol.Status.String()),
		attribute.Float64("routing.cost", sol.Cost),
		attribute.Int64("routing.nodes_reached", o.reached),
		attribute.Int64("routing.nodes_marked", o.marked),
		attribute.Int64("routing.state_changes", o.stateChanges),
	)
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	} else {
		o.span.SetStatus(codes.Ok, "")
	}
	o.span.End()
}

var (
	_ routingalgorithm.Observer           = (*TracingObserver)(nil)
	_ routingalgorithm.CarpoolingObserver = (*TracingObserver)(nil)
)
