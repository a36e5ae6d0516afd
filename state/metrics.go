package state

import (
	"context"

	"github.com/cbosdo/libvirt/event"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	mQueued    = stats.Int64("virtevent/events_queued", "Events accepted for delivery", stats.UnitDimensionless)
	mDiscarded = stats.Int64("virtevent/events_discarded", "Events released without being delivered", stats.UnitDimensionless)
	mDelivered = stats.Int64("virtevent/deliveries", "Callback invocations", stats.UnitDimensionless)
	mSkipped   = stats.Int64("virtevent/deliveries_skipped", "Deliveries skipped because the object could not be resolved or the callback shape is unknown", stats.UnitDimensionless)
	mCallbacks = stats.Int64("virtevent/callbacks", "Live registered callbacks", stats.UnitDimensionless)

	keyEventID = tag.MustNewKey("event_id")
)

// Views are the opencensus views over the event core measures.
var Views = []*view.View{
	{Name: "virtevent/events_queued", Measure: mQueued, TagKeys: []tag.Key{keyEventID}, Aggregation: view.Count()},
	{Name: "virtevent/events_discarded", Measure: mDiscarded, TagKeys: []tag.Key{keyEventID}, Aggregation: view.Count()},
	{Name: "virtevent/deliveries", Measure: mDelivered, TagKeys: []tag.Key{keyEventID}, Aggregation: view.Count()},
	{Name: "virtevent/deliveries_skipped", Measure: mSkipped, TagKeys: []tag.Key{keyEventID}, Aggregation: view.Count()},
	{Name: "virtevent/callbacks", Measure: mCallbacks, Aggregation: view.LastValue()},
}

// RegisterViews registers Views with the opencensus view worker.
func RegisterViews() error {
	return view.Register(Views...)
}

func record(ctx context.Context, id event.ID, m *stats.Int64Measure) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(keyEventID, id.String())}, m.M(1))
}

func recordCallbacks(ctx context.Context, n int) {
	stats.Record(ctx, mCallbacks.M(int64(n)))
}
