// Package parserir is the Parser-IR data model (spec §3): one node per
// source line, produced by pkg/parser and consumed by pkg/sema. Nodes
// are allocated from an arena and linked in an insertion-ordered,
// splice-friendly list; nothing here is owned or mutated once Sema has
// consumed it.
package parserir

import (
	"github.com/thelink2012/gta3sc-sub000/pkg/arena"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
)

// ArgKind tags which field of an Argument is meaningful.
type ArgKind uint8

const (
	ArgInteger ArgKind = iota
	ArgFloat
	ArgIdentifier
	ArgString
	ArgFilename
)

// Argument is a tagged union over the five surface argument kinds (spec
// §3: "Parser-IR line"). Exactly one payload field is meaningful,
// selected by Kind.
type Argument struct {
	Kind   ArgKind
	Span   source.Range
	Int    int64
	Float  float64
	Text   string // Identifier, String or Filename payload
}

// LabelDef is a label declaration attached to a line (`name:`).
type LabelDef struct {
	Name string
	Span source.Range
}

// Command is a line's command invocation: its uppercased name, the
// `NOT` flag (from `IF NOT ...` / `IFNOT ...` style negation), and its
// arguments in source order.
type Command struct {
	Name    string
	Span    source.Range
	NotFlag bool
	Args    []Argument
}

// Line is one Parser-IR node. Either field may be absent: a bare label
// on its own line has no Command; a scope delimiter (`{`, `}`) or block
// keyword (`ENDIF`, ...) has no LabelDef and a Command whose Name is the
// keyword itself with zero arguments.
type Line struct {
	Label *LabelDef
	Cmd   *Command

	next *Line
	prev *Line
}

// List is an intrusive, insertion-ordered doubly linked list of Line
// nodes, arena-backed. Splicing (inserting one list's nodes into
// another) is O(1) since nodes already carry next/prev pointers.
type List struct {
	arena      *arena.Arena[Line]
	head, tail *Line
	count      int
}

// NewList constructs an empty Parser-IR list backed by a fresh arena.
func NewList() *List {
	return &List{arena: arena.New[Line]()}
}

// Append allocates a new Line from the list's arena and links it at the
// tail.
func (l *List) Append(label *LabelDef, cmd *Command) *Line {
	n := l.arena.AllocValue(Line{Label: label, Cmd: cmd})
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		l.tail.next = n
		n.prev = l.tail
		l.tail = n
	}
	l.count++
	return n
}

// Splice appends every node of other onto the end of l in O(1),
// without re-allocating or re-ordering anything. other is left empty.
func (l *List) Splice(other *List) {
	if other.head == nil {
		return
	}
	if l.tail == nil {
		l.head = other.head
	} else {
		l.tail.next = other.head
		other.head.prev = l.tail
	}
	l.tail = other.tail
	l.count += other.count
	other.head, other.tail, other.count = nil, nil, 0
}

// Len returns the number of lines in the list.
func (l *List) Len() int { return l.count }

// Front returns the first line, or nil if the list is empty.
func (l *List) Front() *Line { return l.head }

// Next returns the line following n, or nil at the end of the list.
func (n *Line) Next() *Line { return n.next }

// Each calls fn for every line in order.
func (l *List) Each(fn func(*Line)) {
	for n := l.head; n != nil; n = n.next {
		fn(n)
	}
}
