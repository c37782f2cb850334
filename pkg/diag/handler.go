package diag

import (
	"sort"

	"github.com/thelink2012/gta3sc-sub000/pkg/source"
	"go.uber.org/atomic"
)

// Emitter receives every diagnostic reported through a Handler. It may do
// anything with it: collect it, print it, or ignore it entirely. Rendering
// format is unspecified by the core (spec §7); see internal/driver/render
// for a reference CLI renderer.
type Emitter func(Diagnostic)

// Handler routes diagnostics reported by any compiler stage to an Emitter,
// and tracks how many have been reported so callers can decide whether a
// phase failed overall. Count is atomic so that the immutable, read-mostly
// state shared by concurrent consumers (per spec §5) can still report
// diagnostics without a handler-side mutex.
type Handler struct {
	emitter Emitter
	count   atomic.Uint32
}

// NewHandler constructs a handler that forwards every diagnostic to
// emitter.
func NewHandler(emitter Emitter) *Handler {
	return &Handler{emitter: emitter}
}

// SetEmitter replaces the emitter used for future diagnostics.
func (h *Handler) SetEmitter(emitter Emitter) {
	h.emitter = emitter
}

// Report begins constructing a diagnostic at the given location. Call
// .Emit() on the returned Builder to actually report it.
func (h *Handler) Report(loc source.Location, kind Kind) Builder {
	return Builder{handler: h, diag: Diagnostic{Kind: kind, Location: loc}}
}

// Count returns how many diagnostics have been emitted through this
// handler so far.
func (h *Handler) Count() uint32 {
	return h.count.Load()
}

// HasErrors reports whether any diagnostic has been emitted.
func (h *Handler) HasErrors() bool {
	return h.Count() > 0
}

func (h *Handler) emit(d Diagnostic) {
	h.count.Add(1)
	if h.emitter != nil {
		h.emitter(d)
	}
}

// Collector is a convenience Emitter that accumulates diagnostics in
// memory, sorted in source order, matching the ordering guarantee of §5
// ("diagnostics are emitted in source order within a file").
type Collector struct {
	diags []Diagnostic
}

// NewCollector constructs an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Emit implements Emitter.
func (c *Collector) Emit(d Diagnostic) {
	c.diags = append(c.diags, d)
}

// Diagnostics returns every collected diagnostic, sorted by source
// location (stable, so diagnostics reported at the same location keep
// their relative report order).
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Location < out[j].Location
	})
	return out
}
