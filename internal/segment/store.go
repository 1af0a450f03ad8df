package segment

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	gbase "github.com/grailbio/base/log"
	"v.io/x/lib/vlog"

	"github.com/vastio/vast-core/internal/rangemap"
	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/vasterr"
)

const metaFileName = "meta"

// Config configures a Store: dir is the state directory, MaxSegmentSize
// bounds the active builder before rollover, InMemorySegments sizes the
// sealed-segment LRU (spec section 4.F).
type Config struct {
	Dir              string
	MaxSegmentSize   uint64
	InMemorySegments int
}

// Store is the segment store of spec section 4.F: an active Builder, the
// global range-map covering every ID ever admitted, and an LRU of sealed
// segments. All mutation happens under mu -- the spec models the store as a
// single-actor component reached only through messages (section 5), and a
// mutex is the straightforward Go rendering of that single-writer
// discipline.
type Store struct {
	cfg Config

	mu       sync.Mutex
	builder  *Builder
	segments *rangemap.Map
	cache    *lru
}

// Open constructs a Store rooted at cfg.Dir, recovering the persisted
// range-map from dir/meta if present (an empty map otherwise -- a fresh
// node).
func Open(ctx context.Context, cfg Config) (*Store, error) {
	m, err := rangemap.Load(ctx, metaPath(cfg.Dir))
	if err != nil {
		return nil, vasterr.E(vasterr.FormatError, "load "+metaPath(cfg.Dir), err)
	}
	return &Store{
		cfg:      cfg,
		builder:  NewBuilder(),
		segments: m,
		cache:    newLRU(cfg.InMemorySegments),
	}, nil
}

func metaPath(dir string) string { return dir + "/" + metaFileName }

// SegmentCount returns the number of sealed segments currently tracked by
// the range-map (the active, unsealed builder is not counted).
func (s *Store) SegmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	for _, e := range s.segments.All() {
		if e.ID == s.builder.ID() {
			continue
		}
		seen[e.ID] = true
	}
	return len(seen)
}

// Put admits slice into the active segment (spec section 4.F's put):
// append it to the builder, record its ID range in the range-map, and seal
// the segment if it has grown past MaxSegmentSize.
func (s *Store) Put(ctx context.Context, slice tableslice.Slice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.builder.Add(slice); err != nil {
		return vasterr.E(vasterr.InvalidArgument, "segment store put", err)
	}
	hi := slice.Offset + uint64(slice.NumRows())
	if err := s.segments.Inject(slice.Offset, hi, s.builder.ID()); err != nil {
		// The importer must never hand out overlapping ID ranges; if this
		// fires, an upstream invariant broke.
		return vasterr.E(vasterr.Overflow, "segment store put: range-map inject", err)
	}
	if s.builder.Size() >= s.cfg.MaxSegmentSize {
		return s.seal(ctx)
	}
	return nil
}

// seal finishes the active builder, writes it to disk, inserts it into the
// LRU, and starts a fresh builder. Callers hold mu.
func (s *Store) seal(ctx context.Context) error {
	seg := s.builder.Finish()
	if len(seg.Slices) == 0 {
		return nil
	}
	if err := Write(ctx, s.cfg.Dir, seg); err != nil {
		// Retain the failed segment in memory: the active builder is reset
		// only after a successful write, per spec section 7's propagation
		// policy for I/O errors while sealing.
		return err
	}
	gbase.Debug.Printf("segment store: sealed %s (%d slices)", seg.UUID, len(seg.Slices))
	if ev, didEvict := s.cache.Add(seg); didEvict {
		vlog.Infof("segment store: evicted %s from LRU", ev)
	}
	s.builder.Reset()
	return s.writeMeta(ctx)
}

func (s *Store) writeMeta(ctx context.Context) error {
	if err := rangemap.Save(ctx, metaPath(s.cfg.Dir), s.segments); err != nil {
		return vasterr.E(vasterr.FilesystemError, "write "+metaPath(s.cfg.Dir), err)
	}
	return nil
}

// Seal forces the active builder to close and persist, even if it has not
// reached MaxSegmentSize. Used at shutdown so no admitted slice is lost to
// the active builder only existing in memory.
func (s *Store) Seal(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seal(ctx)
}

// candidate is one segment UUID selected by an ID-range query, tagged with
// whether resolving it requires I/O.
type candidate struct {
	id       uuid.UUID
	resident bool // active builder or LRU hit; no disk read needed
}

// selectSegments walks the range-map's interval intersection with
// [lo, hi), deduplicating by UUID and partitioning resident segments first
// -- spec section 4.F's open question calls the partition-without-further-
// use an optimization hint, not a correctness requirement, so here it
// actually determines iteration order (residents visited before any I/O).
func (s *Store) selectSegments(lo, hi uint64) []candidate {
	seen := make(map[uuid.UUID]bool)
	var resident, cold []candidate
	for _, e := range s.segments.Overlapping(lo, hi) {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		c := candidate{id: e.ID}
		if e.ID == s.builder.ID() {
			c.resident = true
			resident = append(resident, c)
		} else if _, ok := s.cache.Get(e.ID); ok {
			c.resident = true
			resident = append(resident, c)
		} else {
			cold = append(cold, c)
		}
	}
	return append(resident, cold...)
}

// Scan returns an iterator over every row currently stored (active builder
// included), the full sequential pass an export falls back to when no
// index has narrowed the candidate ID set.
func (s *Store) Scan(ctx context.Context) *Iterator {
	s.mu.Lock()
	seen := map[uuid.UUID]bool{s.builder.ID(): true}
	candidates := []candidate{{id: s.builder.ID(), resident: true}}
	for _, e := range s.segments.All() {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		_, cached := s.cache.Get(e.ID)
		candidates = append(candidates, candidate{id: e.ID, resident: cached})
	}
	s.mu.Unlock()
	return &Iterator{
		ctx:        ctx,
		store:      s,
		keep:       func(uint64) bool { return true },
		candidates: candidates,
	}
}

// Get resolves ids to their rows, reading cold segments from disk as
// needed and inserting them into the LRU (spec section 4.F's get).
func (s *Store) Get(ctx context.Context, ids []uint64) ([]tableslice.Slice, error) {
	keep := keepSet(ids)
	lo, hi := idBounds(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []tableslice.Slice
	for _, c := range s.selectSegments(lo, hi+1) {
		slices, err := s.gatherSegment(ctx, c, keep)
		if err != nil {
			// Index-lookup/read errors are merged into the result as
			// "partition skipped", per spec section 7; a corrupt segment
			// does not abort the whole Get.
			vlog.Infof("segment store: get: skipping %s: %v", c.id, err)
			continue
		}
		out = append(out, slices...)
	}
	return out, nil
}

func (s *Store) gatherSegment(ctx context.Context, c candidate, keep func(uint64) bool) ([]tableslice.Slice, error) {
	if c.id == s.builder.ID() {
		return s.builder.Get(keep), nil
	}
	if seg, ok := s.cache.Get(c.id); ok {
		return Select(seg, keep), nil
	}
	seg, err := Read(ctx, s.cfg.Dir, c.id)
	if err != nil {
		return nil, err
	}
	if ev, didEvict := s.cache.Add(seg); didEvict {
		vlog.Infof("segment store: evicted %s from LRU", ev)
	}
	return Select(seg, keep), nil
}

// Extract returns a pull-style iterator over ids' slices, so a caller does
// not have to materialize every matching slice up front (spec section
// 4.F's extract).
func (s *Store) Extract(ctx context.Context, ids []uint64) *Iterator {
	lo, hi := idBounds(ids)
	var candidates []candidate
	if len(ids) > 0 {
		s.mu.Lock()
		candidates = s.selectSegments(lo, hi+1)
		s.mu.Unlock()
	}
	return &Iterator{
		ctx:        ctx,
		store:      s,
		keep:       keepSet(ids),
		candidates: candidates,
	}
}

// Iterator is the streaming variant of Get: Next advances to the next
// candidate segment once the current one's slices are exhausted.
type Iterator struct {
	ctx        context.Context
	store      *Store
	keep       func(uint64) bool
	candidates []candidate
	pending    []tableslice.Slice
	err        error
}

// Next returns the next matching slice, or (Slice{}, false) once every
// candidate segment has been exhausted (or an unrecoverable error
// occurred; see Err).
func (it *Iterator) Next() (tableslice.Slice, bool) {
	for len(it.pending) == 0 {
		if len(it.candidates) == 0 {
			return tableslice.Slice{}, false
		}
		c := it.candidates[0]
		it.candidates = it.candidates[1:]

		it.store.mu.Lock()
		slices, err := it.store.gatherSegment(it.ctx, c, it.keep)
		it.store.mu.Unlock()
		if err != nil {
			vlog.Infof("segment store: extract: skipping %s: %v", c.id, err)
			continue
		}
		it.pending = slices
	}
	sl := it.pending[0]
	it.pending = it.pending[1:]
	return sl, true
}

// Err reports the first unrecoverable error encountered, if any (reads are
// best-effort per candidate, so most failures never reach here).
func (it *Iterator) Err() error { return it.err }

// Erase removes every row whose ID is in ids (spec section 4.F's erase).
// Affected segments are rewritten to keep only the surviving rows; a
// segment left with no surviving rows is dropped outright. Erasure is
// best-effort per candidate per spec section 7: a read or write failure on
// one segment logs a warning and erase continues with the next one, so a
// single corrupt segment cannot block forgetting the rest of ids.
func (s *Store) Erase(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	erase := keepSet(ids)
	lo, hi := idBounds(ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.selectSegments(lo, hi+1) {
		if err := s.eraseFromSegment(ctx, c, erase); err != nil {
			vlog.Infof("segment store: erase: skipping %s: %v", c.id, err)
		}
	}
	return s.writeMeta(ctx)
}

// eraseFromSegment rewrites or drops the single segment identified by c so
// that none of its surviving rows have an ID erase reports true for.
// Callers hold mu.
func (s *Store) eraseFromSegment(ctx context.Context, c candidate, erase func(uint64) bool) error {
	if c.id == s.builder.ID() {
		return s.eraseFromBuilder(erase)
	}

	var seg *Segment
	var err error
	if cached, ok := s.cache.Get(c.id); ok {
		seg = cached
	} else {
		seg, err = Read(ctx, s.cfg.Dir, c.id)
		if err != nil {
			return err
		}
	}

	keep := func(id uint64) bool { return !erase(id) }
	kept := Select(seg, keep)

	s.segments.EraseValue(c.id)
	s.cache.Remove(c.id)

	if len(kept) == 0 {
		return Remove(ctx, s.cfg.Dir, c.id)
	}

	replacement := &Segment{UUID: uuid.New(), Slices: kept}
	if err := Write(ctx, s.cfg.Dir, replacement); err != nil {
		return err
	}
	for _, sl := range kept {
		rlo := sl.Offset
		rhi := sl.Offset + uint64(sl.NumRows())
		if err := s.segments.Inject(rlo, rhi, replacement.UUID); err != nil {
			return err
		}
	}
	if ev, didEvict := s.cache.Add(replacement); didEvict {
		vlog.Infof("segment store: evicted %s from LRU", ev)
	}
	return Remove(ctx, s.cfg.Dir, c.id)
}

// eraseFromBuilder rewrites the active (unsealed) builder in place: reset it
// and re-feed the surviving rows, per spec section 4.F's erase step for the
// active segment (which has no on-disk file to rewrite or delete).
func (s *Store) eraseFromBuilder(erase func(uint64) bool) error {
	keep := func(id uint64) bool { return !erase(id) }
	kept := s.builder.Get(keep)
	id := s.builder.ID()

	s.segments.EraseValue(id)
	s.builder.Reset()

	for _, sl := range kept {
		if err := s.builder.Add(sl); err != nil {
			return err
		}
		lo := sl.Offset
		hi := sl.Offset + uint64(sl.NumRows())
		if err := s.segments.Inject(lo, hi, s.builder.ID()); err != nil {
			return err
		}
	}
	return nil
}

func keepSet(ids []uint64) func(uint64) bool {
	set := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(id uint64) bool { return set[id] }
}

func idBounds(ids []uint64) (lo, hi uint64) {
	if len(ids) == 0 {
		return 0, 0
	}
	sorted := append([]uint64{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[0], sorted[len(sorted)-1]
}
