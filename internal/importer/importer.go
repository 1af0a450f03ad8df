// Package importer implements the ingress pipeline of spec section 4.G: it
// stamps each inbound table slice with a contiguous ID range drawn from
// blocks replenished from the distributed consensus counter, and meters
// downstream credit so the credit granted to an inbound stream never
// exceeds the IDs actually available. The actor/message-passing runtime
// that schedules concurrent components is an external collaborator (spec
// section 1); this package exposes plain, mutex-guarded methods that such
// a runtime calls into, the same boundary grailbio/bio draws around its
// fieldio writers (synchronous methods, caller supplies the concurrency).
package importer

import (
	"context"
	"math"
	"sync"
	"time"

	"v.io/x/lib/vlog"

	"github.com/vastio/vast-core/internal/consensus"
	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/vasterr"
)

// replenishWindow is the 10-second window spec section 4.G measures
// back-to-back replenishments against before growing the request size by
// replenishGrowth blocks.
const replenishWindow = 10 * time.Second

// replenishGrowth is how many extra max_table_slice_size-sized blocks get
// added to blocksPerReplenish when two replenishments land inside
// replenishWindow.
const replenishGrowth = 100

// Config configures an Importer.
type Config struct {
	Dir                string // state directory; available_ids persists under Dir/importer
	MaxTableSliceSize  int    // configured slice width in rows
	BlocksPerReplenish int    // initial blocks-per-replenish (spec default: 1)
}

// Report is the {events, duration} throughput measurement spec section
// 4.G's periodic telemetry message carries.
type Report struct {
	Events   uint64
	Duration time.Duration
}

// Importer is the ID-assignment and credit-metering component of spec
// section 4.G.
type Importer struct {
	cons consensus.Consensus
	dir  string
	maxTableSliceSize uint64
	nowFunc           func() time.Time

	mu                 sync.Mutex
	generators         []idRange
	blocksPerReplenish int64
	awaitingIDs        bool
	inFlightSlices     int64
	lastReplenish      time.Time
	events             uint64
	reportStart        time.Time
}

// Open constructs an Importer, recovering any outstanding ID generators
// left behind by a crash (spec section 5: "otherwise leaked forever but
// never reused -- IDs are never recycled").
func Open(ctx context.Context, cons consensus.Consensus, cfg Config) (*Importer, error) {
	if cons == nil {
		return nil, vasterr.E(vasterr.MissingComponent, "importer requires a consensus handle", nil)
	}
	if cfg.MaxTableSliceSize <= 0 {
		return nil, vasterr.E(vasterr.InvalidArgument, "importer: max_table_slice_size must be positive", nil)
	}
	blocks := cfg.BlocksPerReplenish
	if blocks <= 0 {
		blocks = 1
	}
	gens, err := loadGenerators(ctx, cfg.Dir)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Importer{
		cons:               cons,
		dir:                cfg.Dir,
		maxTableSliceSize:  uint64(cfg.MaxTableSliceSize),
		nowFunc:            time.Now,
		generators:         gens,
		blocksPerReplenish: int64(blocks),
		reportStart:        now,
	}, nil
}

// availableIDsLocked sums the remaining width of every generator. Callers
// must hold mu.
func (imp *Importer) availableIDsLocked() uint64 {
	var n uint64
	for _, g := range imp.generators {
		n += g.remaining()
	}
	return n
}

// RequestCredit implements the backpressure model of spec section 4.G: an
// inbound stream asks for "desired" credit, and is granted the largest
// amount the currently available ID supply (minus what's already promised
// but not yet observed) can support, triggering a replenishment when the
// supply is running low.
func (imp *Importer) RequestCredit(ctx context.Context, desired int64) (int64, error) {
	if desired < 0 {
		return 0, vasterr.E(vasterr.InvalidArgument, "importer: negative credit request", nil)
	}
	imp.mu.Lock()
	maxAvailable := int64(imp.availableIDsLocked() / imp.maxTableSliceSize)
	maxPossible := int64(math.MaxInt32) - imp.inFlightSlices
	maxCredit := maxAvailable - imp.inFlightSlices
	grant := min3(desired, maxCredit, maxPossible)
	if grant < 0 {
		grant = 0
	}
	needReplenish := maxCredit <= desired
	imp.inFlightSlices += grant
	imp.mu.Unlock()

	if needReplenish {
		if err := imp.Replenish(ctx); err != nil {
			return grant, err
		}
	}
	return grant, nil
}

func min3(a, b, c int64) int64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// Replenish requests a fresh ID block from consensus and appends it to the
// generator FIFO, persisting the updated list so a crash mid-flight leaks
// at most the one outstanding block. While a request is already
// outstanding this is a no-op: spec section 5 models concurrent messages
// as stashed and replayed by the external runtime once the pending reply
// lands, which for a single in-flight Replenish means later callers simply
// observe the credit that request eventually grants.
func (imp *Importer) Replenish(ctx context.Context) error {
	imp.mu.Lock()
	if imp.awaitingIDs {
		imp.mu.Unlock()
		return nil
	}
	imp.awaitingIDs = true
	n := imp.maxTableSliceSize * uint64(imp.blocksPerReplenish)
	now := imp.nowFunc()
	tooSoon := !imp.lastReplenish.IsZero() && now.Sub(imp.lastReplenish) < replenishWindow
	imp.mu.Unlock()

	prior, err := imp.cons.Add(ctx, "id", int64(n))

	imp.mu.Lock()
	defer imp.mu.Unlock()
	imp.awaitingIDs = false
	if err != nil {
		return vasterr.E(vasterr.FilesystemError, "importer: consensus add failed", err)
	}
	if prior < 0 {
		return vasterr.E(vasterr.Overflow, "importer: consensus returned a negative id", nil)
	}
	lo := uint64(prior)
	hi := lo + n
	if hi < lo {
		return vasterr.E(vasterr.Overflow, "importer: id range wrapped", nil)
	}
	imp.generators = append(imp.generators, idRange{lo: lo, hi: hi})
	if tooSoon {
		imp.blocksPerReplenish += replenishGrowth
		vlog.Infof("importer: two replenishments within %s, growing blocks_per_replenish to %d", replenishWindow, imp.blocksPerReplenish)
	}
	imp.lastReplenish = now
	return saveGenerators(ctx, imp.dir, imp.generators)
}

// nextIDBlock returns the first ID of a contiguous max_table_slice_size-wide
// range carved out of the front generator, dropping generators as they
// exhaust, per spec section 4.G: "next_id_block() returns the first ID of a
// contiguous max_table_slice_size-wide range from the front generator,
// removing generators as they exhaust." Every slice consumes a full block
// regardless of its own row count (ground truth:
// system/importer.hpp's `g.next(max_table_slice_size)`); a slice with fewer
// rows than the block width simply leaves the unused tail of its block
// unused. If the front generator cannot cover a whole block, it is skipped
// entirely and the block is drawn from the next one instead -- the
// "contiguous modulo generator boundaries" case P6 allows for.
func (imp *Importer) nextIDBlock() (uint64, error) {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	for len(imp.generators) > 0 && imp.generators[0].remaining() < imp.maxTableSliceSize {
		imp.generators = imp.generators[1:]
	}
	if len(imp.generators) == 0 {
		return 0, vasterr.E(vasterr.Overflow, "importer: no available id generators", nil)
	}
	g := &imp.generators[0]
	start := g.lo
	g.lo += imp.maxTableSliceSize
	if g.lo >= g.hi {
		imp.generators = imp.generators[1:]
	}
	return start, nil
}

// ProcessSlice stamps slice with a freshly allocated, contiguous ID range
// and accounts for one fewer slice promised but not yet observed, per spec
// section 4.G's "Processing a batch": decrement in_flight_slices, set
// slice.offset, push downstream, accumulate {events, duration}.
func (imp *Importer) ProcessSlice(slice tableslice.Slice) (tableslice.Slice, error) {
	rows := uint64(slice.NumRows())
	if rows > imp.maxTableSliceSize {
		return tableslice.Slice{}, vasterr.E(vasterr.InvalidArgument, "importer: slice exceeds max_table_slice_size", nil)
	}
	imp.mu.Lock()
	if imp.inFlightSlices > 0 {
		imp.inFlightSlices--
	}
	imp.mu.Unlock()

	offset, err := imp.nextIDBlock()
	if err != nil {
		return tableslice.Slice{}, err
	}
	slice.Offset = offset

	imp.mu.Lock()
	imp.events += rows
	imp.mu.Unlock()
	return slice, nil
}

// Report returns the accumulated {events, duration} measurement since the
// last call and resets the accumulator, matching the original's periodic
// "send_report"/measurement_ telemetry message (SPEC_FULL.md supplement
// #2).
func (imp *Importer) Report() Report {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	r := Report{Events: imp.events, Duration: imp.nowFunc().Sub(imp.reportStart)}
	imp.events = 0
	imp.reportStart = imp.nowFunc()
	return r
}

// RunTelemetry ticks every interval, calling emit with the latest Report,
// until ctx is canceled. This is the goroutine an external runtime spawns
// to drive the periodic telemetry message described in spec section 4.G.
func (imp *Importer) RunTelemetry(ctx context.Context, interval time.Duration, emit func(Report)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emit(imp.Report())
		}
	}
}

// Status returns the structured status dictionary SPEC_FULL.md supplement
// #1 describes, surfaced by "vast status".
func (imp *Importer) Status() map[string]any {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	var nextID uint64
	if len(imp.generators) > 0 {
		nextID = imp.generators[0].lo
	}
	return map[string]any{
		"in_flight_slices":     imp.inFlightSlices,
		"max_table_slice_size": imp.maxTableSliceSize,
		"blocks_per_replenish": imp.blocksPerReplenish,
		"last_replenish":       imp.lastReplenish,
		"awaiting_ids":         imp.awaitingIDs,
		"available_ids":        imp.availableIDsLocked(),
		"next_id":              nextID,
	}
}

// Exit persists the current generator list one final time and returns the
// final throughput report, per spec section 5's cancellation handling: an
// exit message must not lose outstanding id_generators (they leak but are
// never reused, which is safe; losing the persisted file entirely would
// not be).
func (imp *Importer) Exit(ctx context.Context) (Report, error) {
	imp.mu.Lock()
	gens := append([]idRange{}, imp.generators...)
	imp.mu.Unlock()
	if err := saveGenerators(ctx, imp.dir, gens); err != nil {
		return Report{}, err
	}
	return imp.Report(), nil
}
