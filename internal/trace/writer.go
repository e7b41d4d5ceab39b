// Package trace records the data movements of a simulation run: the
// mandated plain-text "cycle/source/destination/packet" log (spec §6,
// §7.3) and, optionally, one OpenTelemetry span per hop for offline
// traffic analysis (SPEC_FULL §1).
//
// Grounded on _examples/original_source/simplenoc/writer.py.
package trace

import (
	"fmt"
	"io"
	"os"

	"nocsim/internal/packet"
)

// entry is one buffered data movement.
type entry struct {
	packet      packet.Packet
	source      string
	destination string
	cycle       int
}

// Writer buffers every hop logged during a run and flushes them, in
// order, to a single destination once the run finishes — matching the
// original's buffer-then-write-on-completion behaviour rather than
// streaming writes during the run.
type Writer struct {
	buffer []entry
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Log records one hop: packet moving from source to destination
// during cycle.
func (w *Writer) Log(p packet.Packet, source, destination string, cycle int) {
	w.buffer = append(w.buffer, entry{packet: p, source: source, destination: destination, cycle: cycle})
}

// Write flushes the buffered entries to path. The sentinels "STDOUT"
// and "STDERR" redirect to the process's standard streams instead of
// opening a file, exactly as the original's Writer.write.
func (w *Writer) Write(path string) error {
	switch path {
	case "STDOUT":
		return w.writeTo(os.Stdout)
	case "STDERR":
		return w.writeTo(os.Stderr)
	default:
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("trace: opening %s: %w", path, err)
		}
		defer f.Close()
		return w.writeTo(f)
	}
}

func (w *Writer) writeTo(out io.Writer) error {
	for _, e := range w.buffer {
		_, err := fmt.Fprintf(out, "cycle: %d, source_phy: %s, destination_phy: %s, packet: %s\n",
			e.cycle, e.source, e.destination, e.packet)
		if err != nil {
			return fmt.Errorf("trace: writing entry: %w", err)
		}
	}
	return nil
}
