// Package watchdog renders committed host configuration into the per-model
// config files consumed by the external watchdog process.
package watchdog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"modelhostd/internal/catalog"
	"modelhostd/internal/common/fsutil"
	"modelhostd/internal/manager"
	"modelhostd/pkg/types"
)

const (
	modelFilePrefix  = "model-"
	cfgExt           = ".cfg"
	integrationsFile = "integrations.cfg"
)

// ModelConfig is the watchdog's view of one model worker.
type ModelConfig struct {
	Model     string             `json:"model"`
	ModelPath string             `json:"model_path"`
	GPUs      []int              `json:"gpus"`
	ShareGPU  bool               `json:"share_gpu"`
	NCtx      int                `json:"n_ctx"`
	Loras     []types.AdapterRef `json:"loras"`
	Env       map[string]string  `json:"env"`
	TxID      string             `json:"tx_id,omitempty"`
}

// IntegrationsConfig carries the provider toggles.
type IntegrationsConfig struct {
	types.IntegrationToggles
	TxID string `json:"tx_id,omitempty"`
}

// DeviceSource lists GPUs; the writer only needs the count.
type DeviceSource interface {
	Devices(ctx context.Context) types.DeviceList
}

// Writer implements manager.Notifier by rewriting the watchdog directory.
type Writer struct {
	dir     string
	catalog *catalog.Catalog
	devices DeviceSource
	log     zerolog.Logger

	mu       sync.Mutex
	lastGPUs int // -1 until a detection succeeds
}

var _ manager.Notifier = (*Writer)(nil)

// NewWriter returns a writer for dir. devices may be nil, in which case GPU
// indices are allocated without an upper bound.
func NewWriter(dir string, cat *catalog.Catalog, devices DeviceSource, log zerolog.Logger) (*Writer, error) {
	if dir == "" {
		return nil, errors.New("watchdog: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create watchdog dir: %w", err)
	}
	return &Writer{dir: dir, catalog: cat, devices: devices, log: log, lastGPUs: -1}, nil
}

// Notify writes one config per assigned model plus the integrations file and
// removes configs of models no longer assigned. Models that do not fit on the
// available GPUs are skipped and reported in the returned error. When GPU
// detection fails the last detected count is used (unbounded if none), and
// configs of still-assigned models are left in place.
func (w *Writer) Notify(ctx context.Context, st manager.State) error {
	gpuCount, detected := w.gpuCount(ctx)
	if !detected {
		w.log.Warn().Int("gpus", gpuCount).Str("tx_id", st.TxID).Msg("gpu detection failed, using last known count")
	}
	placements, allocErr := Allocate(st.Assignment.ModelAssign, gpuCount)

	keep := map[string]bool{}
	if !detected {
		for model := range st.Assignment.ModelAssign {
			keep[FileName(model)] = true
		}
	}
	owners := map[string]string{}
	var errs []error
	for _, p := range placements {
		name := FileName(p.Model)
		if other, dup := owners[name]; dup {
			errs = append(errs, fmt.Errorf("models %q and %q map to the same config %s", other, p.Model, name))
			continue
		}
		owners[name] = p.Model
		rec := st.Assignment.ModelAssign[p.Model]
		cfg := ModelConfig{
			Model:    p.Model,
			GPUs:     p.GPUs,
			ShareGPU: rec.ShareGPU,
			NCtx:     rec.NCtx,
			Loras:    append([]types.AdapterRef{}, st.Adapters[p.Model].Loras...),
			Env:      map[string]string{"CUDA_VISIBLE_DEVICES": joinInts(p.GPUs)},
			TxID:     st.TxID,
		}
		if info, ok := w.catalog.Lookup(p.Model); ok {
			cfg.ModelPath = info.ModelPath
		}
		keep[name] = true
		if err := w.writeJSON(name, cfg); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.writeJSON(integrationsFile, IntegrationsConfig{IntegrationToggles: st.Assignment.IntegrationToggles, TxID: st.TxID}); err != nil {
		errs = append(errs, err)
	}
	if err := w.removeStale(keep); err != nil {
		errs = append(errs, err)
	}
	if allocErr != nil {
		errs = append(errs, allocErr)
	}
	w.log.Info().Str("tx_id", st.TxID).Int("models", len(placements)).Msg("watchdog configs written")
	return errors.Join(errs...)
}

// gpuCount returns the GPU count to allocate on and whether it comes from a
// successful detection. Without a device source the count is unbounded.
func (w *Writer) gpuCount(ctx context.Context) (int, bool) {
	if w.devices == nil {
		return -1, true
	}
	list := w.devices.Devices(ctx)
	w.mu.Lock()
	defer w.mu.Unlock()
	if list.Detected {
		w.lastGPUs = len(list.GPUs)
		return w.lastGPUs, true
	}
	return w.lastGPUs, false
}

func (w *Writer) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(w.dir, name), append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) removeStale(keep map[string]bool) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read watchdog dir: %w", err)
	}
	var errs []error
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || keep[n] || !strings.HasPrefix(n, modelFilePrefix) || !strings.HasSuffix(n, cfgExt) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, n)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		w.log.Debug().Str("file", n).Msg("removed stale watchdog config")
	}
	return errors.Join(errs...)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName returns the config file name for a model. Names that need
// escaping get a hash of the raw name so distinct models never share a file.
func FileName(model string) string {
	slug := unsafeChars.ReplaceAllString(model, "_")
	if slug != model {
		slug = fmt.Sprintf("%s-%08x", slug, uint32(xxhash.Sum64String(model)))
	}
	return modelFilePrefix + slug + cfgExt
}

func joinInts(xs []int) string {
	s := make([]string, len(xs))
	for i, x := range xs {
		s[i] = strconv.Itoa(x)
	}
	return strings.Join(s, ",")
}

// Placement is the GPU set chosen for one model.
type Placement struct {
	Model string
	GPUs  []int
}

// Allocate places models on GPU indices in model-name order. Dedicated models
// take fresh GPUs; shared models with the same shard count reuse one GPU
// group. gpuCount < 0 means unbounded. Models that do not fit are left out
// and reported in the error.
func Allocate(assign map[string]types.AssignmentRecord, gpuCount int) ([]Placement, error) {
	names := make([]string, 0, len(assign))
	for n := range assign {
		names = append(names, n)
	}
	sort.Strings(names)

	next := 0
	sharedGroups := map[int][]int{}
	var out []Placement
	var unplaced []string
	take := func(n int) ([]int, bool) {
		if gpuCount >= 0 && next+n > gpuCount {
			return nil, false
		}
		g := make([]int, n)
		for i := range g {
			g[i] = next + i
		}
		next += n
		return g, true
	}
	for _, name := range names {
		rec := assign[name]
		if rec.GPUsShard == 0 {
			out = append(out, Placement{Model: name, GPUs: []int{}})
			continue
		}
		if rec.ShareGPU {
			if g, ok := sharedGroups[rec.GPUsShard]; ok {
				out = append(out, Placement{Model: name, GPUs: append([]int(nil), g...)})
				continue
			}
		}
		g, ok := take(rec.GPUsShard)
		if !ok {
			unplaced = append(unplaced, name)
			continue
		}
		if rec.ShareGPU {
			sharedGroups[rec.GPUsShard] = g
		}
		out = append(out, Placement{Model: name, GPUs: g})
	}
	if len(unplaced) > 0 {
		return out, fmt.Errorf("not enough GPUs (%d) for: %s", gpuCount, strings.Join(unplaced, ", "))
	}
	return out, nil
}
