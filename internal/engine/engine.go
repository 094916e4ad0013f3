// Package engine ties the pieces together: it owns the open data source, the
// statistics cache and the navigation state, and schedules asynchronous
// statistics computations on a bounded worker pool.
package engine

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"parqscope/internal/model"
	"parqscope/internal/source"
	"parqscope/internal/source/csvsrc"
	"parqscope/internal/source/jsonsrc"
	"parqscope/internal/source/parquetsrc"
	"parqscope/internal/stats"
)

// Options configures the engine
type Options struct {
	// Workers bounds concurrent statistics computations; 0 means GOMAXPROCS
	Workers int
	// CSVChunkSize is the synthetic row-group size for CSV and JSON files
	CSVChunkSize int
	// PreviewRows is the default page size for data reads
	PreviewRows int64
	// Stats bounds the approximate statistic trackers
	Stats stats.Options
}

// DefaultOptions returns the standard engine configuration
func DefaultOptions() Options {
	return Options{
		CSVChunkSize: csvsrc.DefaultChunkSize,
		PreviewRows:  50,
		Stats:        stats.DefaultOptions(),
	}
}

// Engine is the inspection session over one open file
type Engine struct {
	opts     Options
	computer *stats.Computer
	cache    *StatsCache
	nav      *Navigator

	mu  sync.RWMutex
	src source.DataSource

	group *errgroup.Group
	wg    sync.WaitGroup

	cancelMu    sync.Mutex
	cancelFocus context.CancelFunc
}

// New creates an engine with no file open
func New(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 50
	}
	g := &errgroup.Group{}
	g.SetLimit(opts.Workers)
	return &Engine{
		opts:     opts,
		computer: stats.NewComputer(opts.Stats),
		cache:    NewStatsCache(),
		nav:      NewNavigator(),
		group:    g,
	}
}

// OpenFile opens the file at path, dispatching on its extension. Any
// previously open file is closed, the cache is invalidated and navigation
// resets, so no state from the old file can surface against the new one.
func (e *Engine) OpenFile(path string) error {
	var src source.DataSource
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet", ".pq":
		src, err = parquetsrc.Open(path)
	case ".csv":
		src, err = csvsrc.Open(path, e.opts.CSVChunkSize)
	case ".json", ".ndjson":
		src, err = jsonsrc.Open(path, e.opts.CSVChunkSize)
	default:
		return source.NewUnsupportedFormatError(path, ext)
	}
	if err != nil {
		return err
	}

	e.mu.Lock()
	old := e.src
	e.src = src
	e.mu.Unlock()

	e.cache.InvalidateAll()
	e.nav.Reset()

	if old != nil {
		old.Close()
	}
	return nil
}

func (e *Engine) source() (source.DataSource, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.src == nil {
		return nil, source.NewError(source.ErrCodeSourceClosed, "no file open")
	}
	return e.src, nil
}

// Metadata returns the open file's metadata
func (e *Engine) Metadata() (*model.FileMetadata, error) {
	src, err := e.source()
	if err != nil {
		return nil, err
	}
	return src.Metadata(), nil
}

// Schema returns the open file's column tree
func (e *Engine) Schema() (*model.Schema, error) {
	src, err := e.source()
	if err != nil {
		return nil, err
	}
	return src.Schema(), nil
}

// RowGroups returns the open file's row-group directory
func (e *Engine) RowGroups() ([]model.RowGroupInfo, error) {
	src, err := e.source()
	if err != nil {
		return nil, err
	}
	return src.RowGroups(), nil
}

// RowGroup returns the directory entry for one row group
func (e *Engine) RowGroup(index int) (model.RowGroupInfo, error) {
	groups, err := e.RowGroups()
	if err != nil {
		return model.RowGroupInfo{}, err
	}
	if index < 0 || index >= len(groups) {
		return model.RowGroupInfo{}, source.NewRowGroupRangeError(index, len(groups))
	}
	return groups[index], nil
}

// GetPage reads a window of one column for display
func (e *Engine) GetPage(ctx context.Context, rowGroup int, columnPath string, offset, limit int64) ([]model.Value, error) {
	src, err := e.source()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = e.opts.PreviewRows
	}
	return src.ReadPage(ctx, rowGroup, columnPath, offset, limit)
}

// ComputeStats computes (or serves from cache) the snapshot for one key,
// synchronously. Concurrent calls for the same key share one computation.
func (e *Engine) ComputeStats(ctx context.Context, columnPath string, scope model.Scope, set model.StatSet) (*model.StatSnapshot, error) {
	src, err := e.source()
	if err != nil {
		return nil, err
	}
	key := model.CacheKey{Column: columnPath, Scope: scope, Set: set}
	return e.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*model.StatSnapshot, error) {
		return e.computer.Compute(ctx, src, columnPath, scope, set)
	})
}

// StatsResult is the outcome of an asynchronous statistics request
type StatsResult struct {
	Snapshot *model.StatSnapshot
	Err      error
}

// submit hands work to the bounded pool without blocking the caller. The
// hop through a goroutine matters: errgroup's Go blocks when the pool is
// saturated, and neither focus changes nor stats requests may stall on it.
func (e *Engine) submit(work func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.group.Go(func() error {
			work()
			return nil
		})
	}()
}

// RequestStats schedules a statistics computation on the worker pool and
// returns a channel that delivers its single result. Never blocks; cached
// keys still go through the pool but complete without decoding.
func (e *Engine) RequestStats(ctx context.Context, columnPath string, scope model.Scope, set model.StatSet) <-chan StatsResult {
	out := make(chan StatsResult, 1)
	e.submit(func() {
		snap, err := e.ComputeStats(ctx, columnPath, scope, set)
		out <- StatsResult{Snapshot: snap, Err: err}
		close(out)
	})
	return out
}

// SetFocus applies a focus change without ever blocking the caller. The
// previous focus computation is cancelled so its pool slot frees at the
// next page boundary; when the new focus selects a column on the stats tab
// a computation is scheduled, and its result is delivered through the
// navigator, which drops it if a newer focus change supersedes it first.
func (e *Engine) SetFocus(ctx context.Context, focus model.NavigationFocus, set model.StatSet) string {
	id := e.nav.SetFocus(focus)

	e.cancelMu.Lock()
	defer e.cancelMu.Unlock()
	if e.cancelFocus != nil {
		e.cancelFocus()
		e.cancelFocus = nil
	}
	if focus.Tab != model.TabStats || focus.Column == "" {
		return id
	}

	fctx, cancel := context.WithCancel(ctx)
	e.cancelFocus = cancel
	e.submit(func() {
		defer cancel()
		snap, err := e.ComputeStats(fctx, focus.Column, focus.Scope(), set)
		e.nav.Deliver(id, snap, err)
	})
	return id
}

// Focus returns the current selection
func (e *Engine) Focus() model.NavigationFocus {
	return e.nav.Focus()
}

// RequestState returns the state machine for the latest focus change
func (e *Engine) RequestState() model.RequestState {
	return e.nav.CurrentRequestState()
}

// Results streams completed request states
func (e *Engine) Results() <-chan model.RequestState {
	return e.nav.Results()
}

// Close cancels the pending focus computation, waits for in-flight work and
// releases the open file
func (e *Engine) Close() error {
	e.cancelMu.Lock()
	if e.cancelFocus != nil {
		e.cancelFocus()
		e.cancelFocus = nil
	}
	e.cancelMu.Unlock()

	e.wg.Wait()
	e.group.Wait()

	e.mu.Lock()
	src := e.src
	e.src = nil
	e.mu.Unlock()

	if src != nil {
		return src.Close()
	}
	return nil
}
