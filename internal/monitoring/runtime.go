package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// RuntimeSampler copies Go runtime memory and GC statistics into Metrics
// and logs a warning when heap utilization crosses a threshold.
type RuntimeSampler struct {
	metrics           *Metrics
	logger            *Logger
	interval          time.Duration
	pressureThreshold float64
}

// NewRuntimeSampler creates a sampler. pressureThreshold is a heap in-use
// to heap sys ratio; zero disables pressure logging.
func NewRuntimeSampler(metrics *Metrics, logger *Logger, interval time.Duration, pressureThreshold float64) *RuntimeSampler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &RuntimeSampler{
		metrics:           metrics,
		logger:            logger,
		interval:          interval,
		pressureThreshold: pressureThreshold,
	}
}

// Run samples until ctx is done.
func (s *RuntimeSampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sample()
		}
	}
}

// Sample reads runtime statistics once and returns the heap utilization.
func (s *RuntimeSampler) Sample() float64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s.metrics.RecordRuntimeMetrics(
		int64(memStats.NumGC),
		int64(memStats.PauseTotalNs),
		int64(memStats.HeapAlloc),
		int64(memStats.HeapSys),
		int64(runtime.NumGoroutine()),
	)

	utilization := 0.0
	if memStats.HeapSys > 0 {
		utilization = float64(memStats.HeapInuse) / float64(memStats.HeapSys)
	}

	if s.pressureThreshold > 0 && utilization > s.pressureThreshold {
		s.logger.SystemLogger("memory_pressure", fmt.Sprintf(
			"utilization:%.2f inuse:%dMB sys:%dMB threshold:%.2f",
			utilization,
			memStats.HeapInuse/(1024*1024),
			memStats.HeapSys/(1024*1024),
			s.pressureThreshold,
		))
	}
	return utilization
}
