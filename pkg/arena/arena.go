// Package arena implements a bump allocator for IR nodes and interned
// strings. All IR produced by the lexer, parser and sema stages is
// allocated from an Arena and is trivially released: dropping the Arena
// (or calling Release) discards every node it owns in one step instead of
// requiring per-node cleanup.
package arena

// blockSize is the number of elements held by each internal block before a
// new one is allocated. Kept modest since a typical script compiles with a
// handful of blocks per node type.
const blockSize = 256

// Arena is a typed bump allocator. Zero value is not usable; construct one
// with New.
type Arena[T any] struct {
	blocks [][]T
	cur    []T
}

// New constructs an empty arena for values of type T.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Alloc returns a pointer to a freshly zeroed T owned by this arena. The
// returned pointer remains valid until Release is called.
func (a *Arena[T]) Alloc() *T {
	if len(a.cur) == cap(a.cur) {
		a.cur = make([]T, 0, blockSize)
		a.blocks = append(a.blocks, a.cur)
	}
	n := len(a.cur)
	a.cur = a.cur[:n+1]
	a.blocks[len(a.blocks)-1] = a.cur
	return &a.cur[n]
}

// AllocValue copies v into the arena and returns a pointer to the copy.
func (a *Arena[T]) AllocValue(v T) *T {
	p := a.Alloc()
	*p = v
	return p
}

// Len returns the number of values allocated so far.
func (a *Arena[T]) Len() int {
	total := 0
	for _, b := range a.blocks {
		total += len(b)
	}
	return total
}

// Release discards every value owned by this arena, allowing the
// underlying memory to be garbage collected. The arena may be reused
// afterwards as if newly constructed.
func (a *Arena[T]) Release() {
	a.blocks = nil
	a.cur = nil
}

// Strings is an arena specialised for interning source-derived strings
// (identifiers, string literals), so that many equal names share one
// backing array instead of each retaining its own slice of the original
// file buffer.
type Strings struct {
	seen map[string]string
}

// NewStrings constructs an empty string-interning arena.
func NewStrings() *Strings {
	return &Strings{seen: make(map[string]string)}
}

// Intern returns a stable copy of str owned by the arena, reusing a
// previous copy if the same string was interned before.
func (s *Strings) Intern(str string) string {
	if v, ok := s.seen[str]; ok {
		return v
	}
	buf := make([]byte, len(str))
	copy(buf, str)
	v := string(buf)
	s.seen[str] = v
	return v
}

// Release discards all interned strings.
func (s *Strings) Release() {
	s.seen = make(map[string]string)
}
