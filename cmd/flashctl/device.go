package main

import (
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/e2b-dev/infra/packages/flash/internal/cfg"
	"github.com/e2b-dev/infra/packages/flash/pkg/norflash"
	"github.com/e2b-dev/infra/packages/flash/pkg/norflash/metrics"
	"github.com/e2b-dev/infra/packages/flash/pkg/storage"
)

// device is an opened image with the adapter matching its capability.
type device struct {
	file    *norflash.FileFlash
	flash   norflash.NorFlash
	stats   *norflash.Stats
	storage storage.Storage
}

func openDevice(config cfg.Config, path string) (*device, error) {
	m, err := metrics.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	mergeBuffer := make([]byte, config.EraseSize)

	if config.Multiwrite {
		f, err := norflash.OpenMultiwriteFileFlash(path, config.Capacity, config.Geometry())
		if err != nil {
			return nil, fmt.Errorf("failed to open image %s: %w", path, err)
		}

		stats := norflash.NewMultiwriteStatsWithMetrics(f, m, path)

		return &device{
			file:    f.FileFlash,
			flash:   stats,
			stats:   stats.Stats,
			storage: norflash.NewRmwMultiwriteStorage(stats, mergeBuffer),
		}, nil
	}

	f, err := norflash.OpenFileFlash(path, config.Capacity, config.Geometry())
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}

	stats := norflash.NewStatsWithMetrics(f, m, path)

	return &device{
		file:    f,
		flash:   stats,
		stats:   stats,
		storage: norflash.NewRmwStorage(stats, mergeBuffer),
	}, nil
}

func (d *device) Close() error {
	return d.file.Close()
}
