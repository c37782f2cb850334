// Package storage implements the Storage Table (spec §4.5): it assigns
// each declared variable a contiguous, non-negative storage index within a
// configured address range, independently per scope (globals and each
// local scope have their own index space, since only one local script is
// ever resident at a time).
package storage

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

// Options configures how indices are assigned.
type Options struct {
	// FirstIndex is the lowest index ever handed out.
	FirstIndex int
	// MaxIndex is the highest index storage may use (inclusive). Exceeding
	// it in any scope fails the whole table.
	MaxIndex int
	// Timers maps a fixed index to the reserved variable name that must
	// live there (typically TIMERA/TIMERB); every other variable's
	// allocation skips these indices entirely, in every scope.
	Timers map[int]string
}

// elementSize returns how many storage indices a single element of typ
// consumes (spec §4.5: int/float = 1, text label = 2).
func elementSize(typ symtab.VarType) int {
	if typ == symtab.TextLabel {
		return 2
	}
	return 1
}

// Table is the immutable result of assigning indices to every variable
// discovered by Sema's declaration pass.
type Table struct {
	index map[*symtab.Variable]int
	size  map[symtab.ScopeId]int // indices consumed, high-water mark per scope
}

// Index returns the storage index assigned to v, and whether v was known
// to this table at all.
func (t *Table) Index(v *symtab.Variable) (int, bool) {
	i, ok := t.index[v]
	return i, ok
}

// ScopeSize returns the number of storage indices consumed by scope id
// (its high-water mark above FirstIndex: reserved indices skipped below
// that mark are counted, the pinned timers themselves are not).
func (t *Table) ScopeSize(id symtab.ScopeId) int {
	return t.size[id]
}

// reservedSet builds the bitset of indices that every non-timer variable
// must skip over, per Options.Timers.
func reservedSet(opts Options) *bitset.BitSet {
	bs := bitset.New(uint(opts.MaxIndex + 1))
	for idx := range opts.Timers {
		if idx >= 0 {
			bs.Set(uint(idx))
		}
	}
	return bs
}

// findRun locates the first run of n contiguous indices, starting no
// earlier than from, none of which are set in used or reserved.
func findRun(used, reserved *bitset.BitSet, from, maxIndex, n int) (int, bool) {
	for start := from; start+n-1 <= maxIndex; start++ {
		ok := true
		for i := 0; i < n; i++ {
			if used.Test(uint(start+i)) || reserved.Test(uint(start+i)) {
				ok = false
				break
			}
		}
		if ok {
			return start, true
		}
	}
	return 0, false
}

// FromSymbols assigns storage indices to every variable recorded in
// symtable, honouring Options. It returns (table, true) on success, or
// (nil, false) if any scope's variables cannot fit within
// [FirstIndex, MaxIndex].
func FromSymbols(symtable *symtab.Table, opts Options) (*Table, bool) {
	reserved := reservedSet(opts)
	t := &Table{
		index: make(map[*symtab.Variable]int),
		size:  make(map[symtab.ScopeId]int),
	}

	for scopeID := 0; scopeID < symtable.NumScopes(); scopeID++ {
		used := bitset.New(uint(opts.MaxIndex + 1))
		// Timer variables, if declared in this scope, are pinned to their
		// configured fixed index rather than bump-allocated.
		byName := make(map[string]*symtab.Variable)
		for _, v := range symtable.Scope(symtab.ScopeId(scopeID)) {
			byName[v.Name()] = v
		}
		for idx, name := range opts.Timers {
			if v, ok := byName[name]; ok {
				t.index[v] = idx
				used.Set(uint(idx))
			}
		}

		cursor := opts.FirstIndex
		high := opts.FirstIndex
		for _, v := range symtable.Scope(symtab.ScopeId(scopeID)) {
			if _, already := t.index[v]; already {
				continue // pinned timer, handled above
			}
			n := elementSize(v.Type())
			if dim, ok := v.Dimensions(); ok {
				n *= dim
			}
			start, ok := findRun(used, reserved, cursor, opts.MaxIndex, n)
			if !ok {
				return nil, false
			}
			for i := 0; i < n; i++ {
				used.Set(uint(start + i))
			}
			t.index[v] = start
			cursor = start
			if start+n > high {
				high = start + n
			}
		}
		t.size[symtab.ScopeId(scopeID)] = high - opts.FirstIndex
	}

	return t, true
}
