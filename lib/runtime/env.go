// Package runtime describes the host a workload runs on, so benchmark
// numbers can be compared across machines and containers.
package runtime

import (
	goruntime "runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

type Env struct {
	GoVersion   string
	GOOS        string
	GOARCH      string
	NumCPU      int
	GoMaxProcs  int
	TotalMemory uint64 // bytes, 0 if unknown
	Container   bool
	Kubernetes  bool
	ContainerID string
}

// Detect takes a snapshot of the current process environment. Probes
// that fail leave their field zero.
func Detect() Env {
	env := Env{
		GoVersion:   goruntime.Version(),
		GOOS:        goruntime.GOOS,
		GOARCH:      goruntime.GOARCH,
		NumCPU:      goruntime.NumCPU(),
		GoMaxProcs:  goruntime.GOMAXPROCS(0),
		Container:   isRunningInContainer(),
		Kubernetes:  isRunningInKubernetes(),
		ContainerID: loadContainerID(),
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		env.TotalMemory = vm.Total
	}
	return env
}

func (env Env) ZapFields() []zap.Field {
	return []zap.Field{
		zap.String("go", env.GoVersion),
		zap.String("os", env.GOOS),
		zap.String("arch", env.GOARCH),
		zap.Int("cpus", env.NumCPU),
		zap.Int("gomaxprocs", env.GoMaxProcs),
		zap.Uint64("totalMemory", env.TotalMemory),
		zap.Bool("container", env.Container),
		zap.Bool("kubernetes", env.Kubernetes),
		zap.String("containerID", env.ContainerID),
	}
}
