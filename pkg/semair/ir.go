// Package semair is the Sema-IR data model (spec §3): like parserir, but
// every identifier has been resolved against the Command Table and Symbol
// Table. Produced by pkg/sema, consumed by pkg/codegen.
package semair

import (
	"github.com/thelink2012/gta3sc-sub000/pkg/arena"
	"github.com/thelink2012/gta3sc-sub000/pkg/cmdtable"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

// ArgKind tags which field of an Argument is meaningful.
type ArgKind uint8

const (
	ArgInt ArgKind = iota
	ArgFloat
	ArgTextLabel
	ArgString
	ArgLabel
	ArgFile
	ArgVarRef
	ArgConstant
	ArgUsedObject
)

// VarRef is a resolved variable reference, optionally indexed by either a
// literal integer or another (scalar int) variable (spec §3, §4.4a).
type VarRef struct {
	Var *symtab.Variable

	HasIndexLiteral bool
	IndexLiteral    int32

	IndexVar *symtab.Variable
}

// Indexed reports whether this reference carries any subscript at all (a
// bare array name implicitly references index 0, but that is still
// "indexed" for codegen's address-computation purposes only when an
// explicit literal or variable index was written).
func (v VarRef) Indexed() bool {
	return v.HasIndexLiteral || v.IndexVar != nil
}

// Argument is a tagged union over the nine resolved argument kinds (spec
// §3: "Sema-IR line").
type Argument struct {
	Kind ArgKind
	Span source.Range

	Int   int64
	Float float64
	Text  string // TextLabel or String payload

	Label      *symtab.Label
	File       *symtab.FileSym
	Var        VarRef
	Constant   *cmdtable.ConstantDef
	UsedObject *symtab.UsedObject
}

// Command is a resolved command invocation: its CommandDef, NOT flag, and
// validated arguments in parameter order.
type Command struct {
	Def     *cmdtable.CommandDef
	Span    source.Range
	NotFlag bool
	Args    []Argument
}

// Line is one Sema-IR node: an optional label definition (recorded here so
// CodeGen can register it with the relocation table at the right code
// offset) and an optional resolved command.
type Line struct {
	Label *symtab.Label
	Cmd   *Command

	next *Line
	prev *Line
}

// List is an intrusive, insertion-ordered doubly linked list of Line
// nodes, arena-backed, mirroring parserir.List.
type List struct {
	arena      *arena.Arena[Line]
	head, tail *Line
	count      int
}

// NewList constructs an empty Sema-IR list backed by a fresh arena.
func NewList() *List {
	return &List{arena: arena.New[Line]()}
}

// Append allocates a new Line from the list's arena and links it at the
// tail.
func (l *List) Append(label *symtab.Label, cmd *Command) *Line {
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
