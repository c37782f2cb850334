package diag

import "github.com/thelink2012/gta3sc-sub000/pkg/source"

// Arg is an argument used to format a diagnostic message. Exactly one of
// the fields is meaningful, selected by which constructor built the Arg.
type Arg struct {
	Str     string
	StrList []string
	Int     int64
	isStr   bool
	isList  bool
	isInt   bool
}

// StrArg constructs a string-valued diagnostic argument.
func StrArg(s string) Arg { return Arg{Str: s, isStr: true} }

// StrListArg constructs a string-list-valued diagnostic argument (e.g. the
// set of words accepted by ExpectedWords).
func StrListArg(ss []string) Arg { return Arg{StrList: ss, isList: true} }

// IntArg constructs an integer-valued diagnostic argument.
func IntArg(i int64) Arg { return Arg{Int: i, isInt: true} }

// Kind reports which field of Arg was populated, as a convenience for
// renderers: "str", "list" or "int".
func (a Arg) Kind() string {
	switch {
	case a.isList:
		return "list"
	case a.isInt:
		return "int"
	default:
		return "str"
	}
}

// Diagnostic is a structured compiler message: a Kind plus its location,
// any related ranges, and formatting arguments. Rendering text out of this
// is left to an external consumer (spec §7 Non-goals).
type Diagnostic struct {
	Kind     Kind
	Location source.Location
	Ranges   []source.Range
	Args     []Arg
}

// Builder incrementally constructs a Diagnostic before handing it to a
// Handler. Obtained from Handler.Report.
type Builder struct {
	handler *Handler
	diag    Diagnostic
}

// Range attaches an additional source range providing context for the
// diagnostic (e.g. the whole expression, not just the offending token).
func (b Builder) Range(r source.Range) Builder {
	b.diag.Ranges = append(b.diag.Ranges, r)
	return b
}

// Args appends formatting arguments to the diagnostic.
func (b Builder) Args(args ...Arg) Builder {
	b.diag.Args = append(b.diag.Args, args...)
	return b
}

// Emit hands the diagnostic to the handler's emitter. Must be called
// exactly once per Builder; forgetting to call it silently drops the
// diagnostic, mirroring the original's RAII-on-destruction behaviour but
// made explicit since Go has no destructors.
func (b Builder) Emit() {
	b.handler.emit(b.diag)
}
