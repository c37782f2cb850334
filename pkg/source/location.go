package source

// Location is an opaque handle into a SourceManager identifying a single
// byte of loaded source text. Location zero is reserved to mean "no
// location".
type Location uint32

// NoLocation represents the absence of a source location.
const NoLocation Location = 0

// Add returns the location offset by delta characters.
func (l Location) Add(delta int) Location {
	return Location(int64(l) + int64(delta))
}

// Sub returns the character distance between two locations.
func (l Location) Sub(rhs Location) int {
	return int(int64(l) - int64(rhs))
}

// Range is a half-open span [Begin, End) of source locations.
type Range struct {
	Begin Location
	End   Location
}

// NewRange constructs a range of explicit bounds.
func NewRange(begin, end Location) Range {
	return Range{Begin: begin, End: end}
}

// NewRangeLen constructs a range spanning length characters from begin.
func NewRangeLen(begin Location, length int) Range {
	return Range{Begin: begin, End: begin.Add(length)}
}

// Len returns the number of characters covered by this range.
func (r Range) Len() int {
	return r.End.Sub(r.Begin)
}

// Empty reports whether this range covers zero characters.
func (r Range) Empty() bool {
	return r.Begin == r.End
}

// NoRange represents the absence of a source range.
var NoRange = Range{}
