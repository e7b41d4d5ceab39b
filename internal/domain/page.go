// Package domain holds the value types shared across the simulator:
// page identifiers, coherence states, and operation records. None of
// these types carry behaviour of their own beyond basic validation and
// string rendering; the protocol logic that interprets them lives in
// internal/directory and internal/ncnode.
package domain

import (
	"errors"
	"fmt"
)

// Page is an opaque, globally unique cache-line identifier. Pages never
// carry an actual data value in this simulator (see spec Non-goals);
// only their coherence state and presence are modelled.
type Page uint64

// String renders the page the way trace lines and log fields expect.
func (p Page) String() string {
	return fmt.Sprintf("%d", uint64(p))
}

// CoherenceState is the per-(node,page) MSI state described in spec §3.
type CoherenceState int

const (
	// Invalid means the node does not hold a usable copy of the page.
	Invalid CoherenceState = iota
	// Shared means the node holds a read-only copy, possibly alongside
	// other sharers (including the home).
	Shared
	// Modified means the node holds the sole live copy of the page.
	Modified
)

func (s CoherenceState) String() string {
	switch s {
	case Invalid:
		return "INVALID"
	case Shared:
		return "SHARED"
	case Modified:
		return "MODIFIED"
	default:
		return fmt.Sprintf("CoherenceState(%d)", int(s))
	}
}

// ErrEmptyOperation is returned by NewOperation when given no pages.
var ErrEmptyOperation = errors.New("operation must reference at least one page")

// Operation is one entry of a node's program: a non-empty ordered list
// of pages, where the last element is the output page and any
// preceding elements are input pages. This mirrors the original
// simplenoc program representation (a bare list of ints with the
// output last), given a named type so callers cannot confuse an
// Operation with an arbitrary page slice.
type Operation []Page

// NewOperation validates and wraps a raw page sequence into an
// Operation. The returned Operation holds its own copy of pages, so
// later changes to pages do not affect it.
func NewOperation(pages []Page) (Operation, error) {
	if len(pages) == 0 {
		return nil, ErrEmptyOperation
	}
	out := make(Operation, len(pages))
	copy(out, pages)
	return out, nil
}

// Inputs returns every page but the last.
func (o Operation) Inputs() []Page {
	if len(o) <= 1 {
		return nil
	}
	return o[:len(o)-1]
}

// Output returns the last page, the one the operation writes to.
func (o Operation) Output() Page {
	return o[len(o)-1]
}
