package services

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// ResourceOptimizerConfig bounds the worker count picked for pair analysis.
type ResourceOptimizerConfig struct {
	MinWorkers int
	MaxWorkers int
	// Memory reserved per worker, in GB. Each worker holds a few aligned
	// float64 columns so this is small.
	MemoryPerWorkerGB float64
}

// ResourceOptimizer sizes the pair-analysis worker pool from the host's CPU
// and memory.
type ResourceOptimizer struct {
	cfg      ResourceOptimizerConfig
	cpuCores int
	memoryGB float64
	logger   *logrus.Logger
}

// SystemResources is a point-in-time view of the host.
type SystemResources struct {
	CPUCores    int     `json:"cpu_cores"`
	MemoryGB    float64 `json:"memory_gb"`
	MemoryUsage float64 `json:"memory_usage_percent"`
}

// NewResourceOptimizer probes the host once. Probe failures fall back to 8GB.
func NewResourceOptimizer(ctx context.Context, cfg ResourceOptimizerConfig, logger *logrus.Logger) *ResourceOptimizer {
	if cfg.MinWorkers < 1 {
		cfg.MinWorkers = 1
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = 16
		if cfg.MaxWorkers < cfg.MinWorkers {
			cfg.MaxWorkers = cfg.MinWorkers
		}
	}
	if cfg.MemoryPerWorkerGB <= 0 {
		cfg.MemoryPerWorkerGB = 0.25
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	ro := &ResourceOptimizer{
		cfg:      cfg,
		cpuCores: runtime.NumCPU(),
		logger:   logger,
	}

	res, err := ro.probe(ctx)
	if err != nil {
		logger.WithError(err).Warn("Could not get memory info, using default")
		ro.memoryGB = 8.0
	} else {
		ro.memoryGB = res.MemoryGB
	}
	return ro
}

func (ro *ResourceOptimizer) probe(ctx context.Context) (SystemResources, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return SystemResources{}, err
	}
	return SystemResources{
		CPUCores:    ro.cpuCores,
		MemoryGB:    float64(vm.Total) / (1024 * 1024 * 1024),
		MemoryUsage: vm.UsedPercent,
	}, nil
}

// WorkerLimit returns the number of pairs to analyze concurrently. Pair
// analysis is CPU bound so the base is one worker per core, reduced on
// small hosts.
func (ro *ResourceOptimizer) WorkerLimit() int {
	return workerLimit(ro.cpuCores, ro.memoryGB, ro.cfg)
}

func workerLimit(cpuCores int, memoryGB float64, cfg ResourceOptimizerConfig) int {
	workers := cpuCores

	memoryFactor := 1.0
	if memoryGB < 4.0 {
		memoryFactor = 0.5
	} else if memoryGB < 8.0 {
		memoryFactor = 0.75
	}
	workers = int(float64(workers) * memoryFactor)

	if byMemory := int(memoryGB / cfg.MemoryPerWorkerGB); byMemory < workers {
		workers = byMemory
	}
	if workers < cfg.MinWorkers {
		workers = cfg.MinWorkers
	}
	if workers > cfg.MaxWorkers {
		workers = cfg.MaxWorkers
	}
	return workers
}

// LogSelection logs the chosen limit alongside the host resources.
func (ro *ResourceOptimizer) LogSelection(workers int) {
	ro.logger.WithFields(logrus.Fields{
		"cpu_cores":   ro.cpuCores,
		"memory_gb":   ro.memoryGB,
		"max_workers": workers,
	}).Info("Calculated analysis worker limit")
}
