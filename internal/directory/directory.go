// Package directory implements the per-node page table described in
// spec §4.4.5 and §4.4.4: coherence state, home-side presence
// tracking, LRU-based eviction, and the directory helper operations
// (add/modify/share/dirty/owner) that the protocol handlers in
// internal/ncnode build on.
//
// Grounded on _examples/original_source/simplenoc/directory.py, with
// the teacher's (KoordeDHT routingtable.go) doc-comment density and
// functional-options construction style.
package directory

import (
	"fmt"

	"nocsim/internal/domain"
	"nocsim/internal/logger"
)

// Homer is the capability a Directory needs from its owning node to
// report an eviction upward, without creating an import cycle between
// internal/directory and internal/ncnode (spec §9).
type Homer interface {
	// SendHome emits an EVICTION_SAVE for a page being evicted in
	// MODIFIED state.
	SendHome(page domain.Page)
	// NotifyHome emits an EVICTION_NOTICE for a page being evicted in
	// SHARED state.
	NotifyHome(page domain.Page)
}

// Directory is the page table owned by a single node.
type Directory struct {
	logger logger.Logger

	self string // the owning node's name
	size int    // maximum number of resident (non-INVALID) pages

	homer Homer

	homedPages map[domain.Page]struct{}
	presence   map[domain.Page]map[string]struct{} // only for homedPages

	state map[domain.Page]domain.CoherenceState
	lru   []domain.Page // insertion-ordered resident pages
}

// Option customises a Directory at construction time.
type Option func(*Directory)

// WithLogger overrides the directory's logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Directory for node self, backed by homer for eviction
// callbacks. Every page in homedPages is seeded resident and MODIFIED
// with presence {self}, matching the original's constructor which
// calls add/modify/add_presence for each homed page before the
// simulation starts (directory.py, Directory.__init__) — invariant C1
// in SPEC_FULL §4.
//
// Precondition: size >= len(homedPages) (spec §6), since a node must
// be able to hold every page it homes without ever evicting it (I5).
func New(homer Homer, self string, size int, homedPages []domain.Page, opts ...Option) *Directory {
	if size < len(homedPages) {
		panic(fmt.Sprintf("directory %s: size %d smaller than homed-page count %d", self, size, len(homedPages)))
	}
	d := &Directory{
		logger:     &logger.NopLogger{},
		self:       self,
		size:       size,
		homer:      homer,
		homedPages: make(map[domain.Page]struct{}, len(homedPages)),
		presence:   make(map[domain.Page]map[string]struct{}, len(homedPages)),
		state:      make(map[domain.Page]domain.CoherenceState),
		lru:        make([]domain.Page, 0, size),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, page := range homedPages {
		d.homedPages[page] = struct{}{}
		d.presence[page] = make(map[string]struct{})
	}
	for _, page := range homedPages {
		d.add(page)
		d.Modify(page)
		d.AddPresence(page, self)
	}
	d.logger.Debug("directory initialized", logger.F("homed_pages", len(homedPages)), logger.F("size", size))
	return d
}

// Has reports whether the directory currently holds page (state != INVALID).
func (d *Directory) Has(page domain.Page) bool {
	return d.state[page] != domain.Invalid
}

// IsModified reports whether the directory holds page MODIFIED.
func (d *Directory) IsModified(page domain.Page) bool {
	return d.state[page] == domain.Modified
}

// State returns the current coherence state of page (INVALID if never seen).
func (d *Directory) State(page domain.Page) domain.CoherenceState {
	return d.state[page]
}

// IsHomed reports whether this directory is the home for page.
func (d *Directory) IsHomed(page domain.Page) bool {
	_, ok := d.homedPages[page]
	return ok
}

// CopyHolders returns the set of node names known (by this home) to
// currently hold a live copy of page. Panics if page is not homed
// here — a programmer error per spec §7.
func (d *Directory) CopyHolders(page domain.Page) map[string]struct{} {
	if !d.IsHomed(page) {
		panic(fmt.Sprintf("directory %s: CopyHolders called for non-homed page %s", d.self, page))
	}
	return d.presence[page]
}

// AddPresence records that node now holds a copy of the homed page.
func (d *Directory) AddPresence(page domain.Page, node string) {
	set, ok := d.presence[page]
	if !ok {
		panic(fmt.Sprintf("directory %s: AddPresence called for non-homed page %s", d.self, page))
	}
	set[node] = struct{}{}
}

// ErasePresence records that node no longer holds a copy of the homed
// page. Panics if the home was not already aware the node held it —
// mirrors the original's reliance on Python's KeyError from set.remove.
func (d *Directory) ErasePresence(page domain.Page, node string) {
	set, ok := d.presence[page]
	if !ok {
		panic(fmt.Sprintf("directory %s: ErasePresence called for non-homed page %s", d.self, page))
	}
	if _, present := set[node]; !present {
		panic(fmt.Sprintf("directory %s: ErasePresence(%s, %s) but node was not present", d.self, page, node))
	}
	delete(set, node)
}

// Owner returns the current owner of a homed page: the unique remote
// holder if this home's own state is INVALID, else this node's own
// name (spec §4.4.5).
func (d *Directory) Owner(page domain.Page) string {
	if !d.IsHomed(page) {
		panic(fmt.Sprintf("directory %s: Owner called for non-homed page %s", d.self, page))
	}
	if d.state[page] == domain.Invalid {
		holders := d.presence[page]
		if len(holders) != 1 {
			panic(fmt.Sprintf("directory %s: Owner(%s) expected exactly one remote holder, found %d", d.self, page, len(holders)))
		}
		for node := range holders {
			return node
		}
	}
	return d.self
}

// Dirty marks page INVALID in this directory. The name follows the
// original's `dirty` (directory.py): "logically invalidated/dropped",
// not "contains unwritten data".
func (d *Directory) Dirty(page domain.Page) {
	if !d.Has(page) {
		panic(fmt.Sprintf("directory %s: Dirty called on page %s not held", d.self, page))
	}
	d.state[page] = domain.Invalid
	d.removeLRU(page)
}

// Modify marks page MODIFIED. Requires the page already be resident.
func (d *Directory) Modify(page domain.Page) {
	if !d.Has(page) {
		panic(fmt.Sprintf("directory %s: Modify called on page %s not held", d.self, page))
	}
	d.state[page] = domain.Modified
}

// Share marks page SHARED. Requires the page already be resident.
func (d *Directory) Share(page domain.Page) {
	if !d.Has(page) {
		panic(fmt.Sprintf("directory %s: Share called on page %s not held", d.self, page))
	}
	d.state[page] = domain.Shared
}

// Add admits page into the directory, evicting a victim first if the
// resident set is already at capacity, and marks it SHARED at the top
// of the LRU order.
func (d *Directory) Add(page domain.Page) {
	d.add(page)
}

// add is the internal admission path shared by Add and New's seeding
// of homed pages.
func (d *Directory) add(page domain.Page) {
	d.evict()
	d.removeLRU(page) // defensive: never leave a stale/duplicate entry behind
	d.state[page] = domain.Shared
	d.lru = append(d.lru, page)
}

// removeLRU deletes page's entry from the LRU list, if present. The
// LRU list is the spec's "insertion-ordered record of pages currently
// resident (state != INVALID)" (§3); any transition out of residency
// must keep it in sync.
func (d *Directory) removeLRU(page domain.Page) {
	for i, pg := range d.lru {
		if pg == page {
			d.lru = append(d.lru[:i], d.lru[i+1:]...)
			return
		}
	}
}

// evict selects and removes a victim page if the directory is full.
// Victim selection walks the LRU list from the oldest entry, cycling
// any homed page encountered to the back (a node never evicts a page
// it homes — invariant I5), exactly as the original's evict() rotates
// rather than filters.
func (d *Directory) evict() {
	if d.residentCount() != d.size {
		return
	}
	var victim domain.Page
	for {
		victim = d.lru[0]
		d.lru = d.lru[1:]
		if _, homed := d.homedPages[victim]; !homed {
			break
		}
		d.lru = append(d.lru, victim)
	}
	switch d.state[victim] {
	case domain.Modified:
		d.homer.SendHome(victim)
	default:
		d.homer.NotifyHome(victim)
	}
	d.state[victim] = domain.Invalid
	d.logger.Debug("evicted page", logger.F("page", victim))
}

func (d *Directory) residentCount() int {
	count := 0
	for _, s := range d.state {
		if s != domain.Invalid {
			count++
		}
	}
	return count
}
