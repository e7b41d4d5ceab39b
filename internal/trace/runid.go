package trace

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRunID mints a globally-unique identifier for one simulation run,
// in the form "<label>-<ULID>". Used to tag a run's log lines and, as
// the service instance ID of its OpenTelemetry resource, its spans, so
// concurrent runs against the same collector never collide.
//
// Adapted from the teacher's node-scoped trace-ID generator
// (the old GenerateTraceID), generalized from a per-node identifier to
// a per-run one since this simulator has no request/response calls to
// correlate, only whole runs.
func NewRunID(label string) string {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	id := ulid.MustNew(ulid.Timestamp(t), entropy)
	return label + "-" + id.String()
}
