// Package symtab implements the mutable namespaces Sema populates during
// declaration discovery: labels, scoped variables, used objects and
// files. See spec §3 for the data model this mirrors.
package symtab

import (
	"strings"

	"github.com/thelink2012/gta3sc-sub000/pkg/arena"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
)

// VarType is the base type of a declared variable.
type VarType uint8

const (
	Int VarType = iota
	Float
	TextLabel
)

// ScopeId uniquely identifies a local-variable scope.
type ScopeId uint32

// GlobalScope is the reserved scope holding global variables.
const GlobalScope ScopeId = 0

// InvalidScope identifies a scope that is never used (sentinel, mirrors
// the original's `invalid_scope`).
const InvalidScope ScopeId = ^ScopeId(0)

// SymbolId is the insertion order of a symbol within its namespace.
type SymbolId = uint32

// Label is a declared label: a named jump target.
type Label struct {
	name   string
	source source.Range
	id     SymbolId
	scope  ScopeId
}

func (l *Label) Name() string          { return l.name }
func (l *Label) Source() source.Range  { return l.source }
func (l *Label) ID() SymbolId          { return l.id }
func (l *Label) Scope() ScopeId        { return l.scope }

// Variable is a declared variable: global or local, typed, optionally an
// array.
type Variable struct {
	name   string
	source source.Range
	id     SymbolId
	scope  ScopeId
	typ    VarType
	dim    int // 0 means "not an array"; otherwise the array length
}

func (v *Variable) Name() string         { return v.name }
func (v *Variable) Source() source.Range { return v.source }
func (v *Variable) ID() SymbolId         { return v.id }
func (v *Variable) Scope() ScopeId       { return v.scope }
func (v *Variable) Type() VarType        { return v.typ }
func (v *Variable) IsArray() bool        { return v.dim > 0 }

// Dimensions returns the array length and whether this variable is an
// array at all.
func (v *Variable) Dimensions() (int, bool) {
	if v.dim == 0 {
		return 0, false
	}
	return v.dim, true
}

// UsedObject is a model name referenced by the program (spec §4.4a).
type UsedObject struct {
	name   string
	source source.Range
	id     SymbolId
}

func (u *UsedObject) Name() string         { return u.name }
func (u *UsedObject) Source() source.Range { return u.source }
func (u *UsedObject) ID() SymbolId         { return u.id }

// FileKind classifies a declared source file within the symbol table
// (distinct from, but aligned with, source.FileKind).
type FileKind = uint8

const (
	FileMain FileKind = iota
	FileMainExtension
	FileSubscript
	FileMission
)

// FileSym is a declared source file, tracked so every filename argument of
// GOSUB_FILE, LAUNCH_MISSION and LOAD_AND_LAUNCH_MISSION naming the same
// file resolves to one symbol.
type FileSym struct {
	name   string
	kind   FileKind
	source source.Range
}

func (f *FileSym) Name() string         { return f.name }
func (f *FileSym) Kind() FileKind       { return f.kind }
func (f *FileSym) Source() source.Range { return f.source }

// Upper canonicalizes a symbol name the way every namespace stores and
// looks names up (spec §3: case-insensitive on input, stored uppercase).
func Upper(name string) string { return strings.ToUpper(name) }

// Table holds every namespace populated during Sema's declaration pass.
type Table struct {
	labelArena  *arena.Arena[Label]
	varArena    *arena.Arena[Variable]
	objArena    *arena.Arena[UsedObject]
	fileArena   *arena.Arena[FileSym]

	labels       map[string]*Label
	labelOrder   []*Label
	usedObjects  map[string]*UsedObject
	objOrder     []*UsedObject
	files        map[string]*FileSym
	scopes       []map[string]*Variable // index 0 is the global scope
	scopeOrder   [][]*Variable
}

// New constructs an empty symbol table. The global scope always exists.
func New() *Table {
	t := &Table{
		labelArena:  arena.New[Label](),
		varArena:    arena.New[Variable](),
		objArena:    arena.New[UsedObject](),
		fileArena:   arena.New[FileSym](),
		labels:      make(map[string]*Label),
		usedObjects: make(map[string]*UsedObject),
		files:       make(map[string]*FileSym),
	}
	t.scopes = append(t.scopes, make(map[string]*Variable))
	t.scopeOrder = append(t.scopeOrder, nil)
	return t
}

// NumScopes returns the number of variable scopes (global scope included).
func (t *Table) NumScopes() int { return len(t.scopes) }

// NewScope creates a fresh local scope and returns its id. Successive
// calls return successive ids.
func (t *Table) NewScope() ScopeId {
	id := ScopeId(len(t.scopes))
	t.scopes = append(t.scopes, make(map[string]*Variable))
	t.scopeOrder = append(t.scopeOrder, nil)
	return id
}

// Scope returns every variable declared directly in the given scope, in
// insertion order.
func (t *Table) Scope(id ScopeId) []*Variable {
	return t.scopeOrder[id]
}

// Labels returns every declared label, in insertion order.
func (t *Table) Labels() []*Label { return t.labelOrder }

// UsedObjects returns every used object, in insertion order.
func (t *Table) UsedObjects() []*UsedObject { return t.objOrder }

// LookupVar finds a variable by name within the given scope (does not
// search enclosing scopes — GTA3script has exactly two variable
// namespaces in play at once: global and the single active local scope).
func (t *Table) LookupVar(name string, scope ScopeId) *Variable {
	return t.scopes[scope][Upper(name)]
}

// LookupLabel finds a label by name, across the whole program.
func (t *Table) LookupLabel(name string) *Label {
	return t.labels[Upper(name)]
}

// LookupUsedObject finds a previously-used model name.
func (t *Table) LookupUsedObject(name string) *UsedObject {
	return t.usedObjects[Upper(name)]
}

// InsertVar inserts a variable into scopeID. No insertion takes place,
// and the existing variable is returned, if the name is already declared
// in that scope.
func (t *Table) InsertVar(name string, scopeID ScopeId, typ VarType, dim int, src source.Range) (*Variable, bool) {
	key := Upper(name)
	if v, ok := t.scopes[scopeID][key]; ok {
		return v, false
	}
	id := SymbolId(len(t.scopeOrder[scopeID]))
	v := t.varArena.AllocValue(Variable{name: key, source: src, id: id, scope: scopeID, typ: typ, dim: dim})
	t.scopes[scopeID][key] = v
	t.scopeOrder[scopeID] = append(t.scopeOrder[scopeID], v)
	return v, true
}

// InsertLabel inserts a label. No insertion takes place if one of the
// same name already exists, anywhere in the program (labels share one
// flat namespace regardless of which scope defines them).
func (t *Table) InsertLabel(name string, scopeID ScopeId, src source.Range) (*Label, bool) {
	key := Upper(name)
	if l, ok := t.labels[key]; ok {
		return l, false
	}
	id := SymbolId(len(t.labelOrder))
	l := t.labelArena.AllocValue(Label{name: key, source: src, id: id, scope: scopeID})
	t.labels[key] = l
	t.labelOrder = append(t.labelOrder, l)
	return l, true
}

// InsertUsedObject inserts a used object. No insertion takes place if one
// of the same name already exists.
func (t *Table) InsertUsedObject(name string, src source.Range) (*UsedObject, bool) {
	key := Upper(name)
	if u, ok := t.usedObjects[key]; ok {
		return u, false
	}
	id := SymbolId(len(t.objOrder))
	u := t.objArena.AllocValue(UsedObject{name: key, source: src, id: id})
	t.usedObjects[key] = u
	t.objOrder = append(t.objOrder, u)
	return u, true
}

// InsertFile registers a declared source file by name.
func (t *Table) InsertFile(name string, kind FileKind, src source.Range) (*FileSym, bool) {
	key := Upper(name)
	if f, ok := t.files[key]; ok {
		return f, false
	}
	f := t.fileArena.AllocValue(FileSym{name: key, kind: kind, source: src})
	t.files[key] = f
	return f, true
}

// FindFile looks up a previously-registered file by name.
func (t *Table) FindFile(name string) (*FileSym, bool) {
	f, ok := t.files[Upper(name)]
	return f, ok
}

// TimerAName and TimerBName are the two reserved local variables
// implicitly inserted at the end of every local scope (spec §3).
const (
	TimerAName = "TIMERA"
	TimerBName = "TIMERB"
)

// InsertTimers inserts TIMERA and TIMERB into scopeID, occupying the last
// two ids of that scope. Called once, when a local scope's closing brace
// is reached.
func (t *Table) InsertTimers(scopeID ScopeId, src source.Range) {
	t.InsertVar(TimerAName, scopeID, Int, 0, src)
	t.InsertVar(TimerBName, scopeID, Int, 0, src)
}
