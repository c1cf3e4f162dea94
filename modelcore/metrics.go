package modelcore

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
)

var meter = global.Meter("modelcore")

// schedulerMetrics mirrors the record-on-every-dispatch pattern used
// for vertex instrumentation: one recorder per statistic, recorded
// once per Enqueue call without attributes.
type schedulerMetrics struct {
	timeInQueue metric.Int64ValueRecorder
	queueDepth  metric.Int64ValueRecorder
}

func newSchedulerMetrics() *schedulerMetrics {
	return &schedulerMetrics{
		timeInQueue: metric.Must(meter).NewInt64ValueRecorder("modelserve.scheduler.time_in_queue_ms"),
		queueDepth:  metric.Must(meter).NewInt64ValueRecorder("modelserve.scheduler.queue_depth"),
	}
}

func (m *schedulerMetrics) observe(stats SchedulerStatistics) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.timeInQueue.Record(ctx, stats.TimeInQueue.Milliseconds())
	m.queueDepth.Record(ctx, int64(stats.QueueDepth))
}

// registryMetrics instruments Registry.Execute the same way.
type registryMetrics struct {
	executions metric.Int64Counter
	duration   metric.Int64ValueRecorder
}

func newRegistryMetrics() *registryMetrics {
	return &registryMetrics{
		executions: metric.Must(meter).NewInt64Counter("modelserve.registry.executions"),
		duration:   metric.Must(meter).NewInt64ValueRecorder("modelserve.registry.execution_duration_ms"),
	}
}

func (m *registryMetrics) observe(ctx context.Context, id ModelId, stats ExecutionStatistics, outcome string) {
	if m == nil {
		return
	}
	modelAttr := attribute.String("model_id", id.String())
	outcomeAttr := attribute.String("outcome", outcome)
	m.executions.Add(ctx, 1, modelAttr, outcomeAttr)
	m.duration.Record(ctx, stats.Elapsed.Milliseconds(), modelAttr, outcomeAttr)
}
