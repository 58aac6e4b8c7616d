package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ReadsMetric  metric.Int64Counter
	WritesMetric metric.Int64Counter
	ErasesMetric metric.Int64Counter

	ReadBytesMetric    metric.Int64Counter
	WrittenBytesMetric metric.Int64Counter
	ErasedPagesMetric  metric.Int64Counter
}

func NewMetrics(meterProvider metric.MeterProvider) (Metrics, error) {
	meter := meterProvider.Meter("pkg.norflash.metrics")

	reads, err := meter.Int64Counter("flash.reads",
		metric.WithDescription("Total read operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to get reads metric: %w", err)
	}

	writes, err := meter.Int64Counter("flash.writes",
		metric.WithDescription("Total write operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to get writes metric: %w", err)
	}

	erases, err := meter.Int64Counter("flash.erases",
		metric.WithDescription("Total erase operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to get erases metric: %w", err)
	}

	readBytes, err := meter.Int64Counter("flash.read.bytes",
		metric.WithDescription("Total bytes read"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to get read bytes metric: %w", err)
	}

	writtenBytes, err := meter.Int64Counter("flash.written.bytes",
		metric.WithDescription("Total bytes written"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to get written bytes metric: %w", err)
	}

	erasedPages, err := meter.Int64Counter("flash.erased.pages",
		metric.WithDescription("Total erase pages erased"),
		metric.WithUnit("{page}"),
	)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to get erased pages metric: %w", err)
	}

	return Metrics{
		ReadsMetric:        reads,
		WritesMetric:       writes,
		ErasesMetric:       erases,
		ReadBytesMetric:    readBytes,
		WrittenBytesMetric: writtenBytes,
		ErasedPagesMetric:  erasedPages,
	}, nil
}

// Record adds one operation to op and amount to size.
func Record(ctx context.Context, op, size metric.Int64Counter, amount int64, options ...metric.AddOption) {
	op.Add(ctx, 1, options...)
	size.Add(ctx, amount, options...)
}
