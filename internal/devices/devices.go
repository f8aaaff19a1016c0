// Package devices discovers the GPUs and host resources models can be assigned to.
package devices

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"modelhostd/pkg/types"
)

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

var nvidiaQuery = []string{
	"--query-gpu=index,name,memory.used,memory.total,temperature.gpu",
	"--format=csv,noheader,nounits",
}

const (
	defaultTTL     = 5 * time.Second
	commandTimeout = 10 * time.Second
)

// Detector collects the device list, caching it for a short TTL.
type Detector struct {
	run  Runner
	host func(ctx context.Context) types.HostInfo
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger

	mu     sync.Mutex
	cached *types.DeviceList
	at     time.Time
}

// NewDetector returns a detector that shells out to nvidia-smi.
func NewDetector(ttl time.Duration, log zerolog.Logger) *Detector {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Detector{run: execRunner, host: hostInfo, ttl: ttl, now: time.Now, log: log}
}

// Devices returns the current device list. Detection failures yield an empty
// GPU list with Detected unset.
func (d *Detector) Devices(ctx context.Context) types.DeviceList {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if d.cached != nil && now.Sub(d.at) < d.ttl {
		return cloneList(*d.cached)
	}
	gpus, ok := d.detectGPUs(ctx)
	list := types.DeviceList{GPUs: gpus, Detected: ok, CollectedAt: now.Unix()}
	if d.host != nil {
		list.Host = d.host(ctx)
	}
	d.cached = &list
	d.at = now
	return cloneList(list)
}

func (d *Detector) detectGPUs(ctx context.Context) ([]types.Device, bool) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	out, err := d.run(ctx, "nvidia-smi", nvidiaQuery...)
	if err != nil {
		// nvidia-smi not available or no NVIDIA GPUs
		d.log.Debug().Err(err).Msg("nvidia-smi unavailable")
		return []types.Device{}, false
	}
	return ParseNvidiaSMI(out), true
}

// ParseNvidiaSMI parses csv,noheader,nounits output of
// index,name,memory.used,memory.total,temperature.gpu.
func ParseNvidiaSMI(out []byte) []types.Device {
	gpus := []types.Device{}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 4 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		idx, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		gpu := types.Device{
			Index:       idx,
			Name:        parts[1],
			Vendor:      "nvidia",
			MemUsedMB:   parseInt64(parts[2]),
			MemTotalMB:  parseInt64(parts[3]),
			TempCelsius: -1,
		}
		if len(parts) >= 5 {
			if t, err := strconv.Atoi(parts[4]); err == nil {
				gpu.TempCelsius = t
			}
		}
		gpus = append(gpus, gpu)
	}
	return gpus
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSuffix(s, " MiB"), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func hostInfo(ctx context.Context) types.HostInfo {
	var hi types.HostInfo
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		hi.MemTotalMB = vm.Total / 1024 / 1024
		hi.MemAvailableMB = vm.Available / 1024 / 1024
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		hi.CPUCount = n
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		hi.Hostname = info.Hostname
	}
	return hi
}

func cloneList(l types.DeviceList) types.DeviceList {
	out := l
	out.GPUs = make([]types.Device, len(l.GPUs))
	copy(out.GPUs, l.GPUs)
	return out
}
