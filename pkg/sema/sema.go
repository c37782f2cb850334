// Package sema implements the two-pass semantic analyzer (spec §4.4): a
// declaration-discovery pass that populates the symbol table with labels,
// variables, scopes and the reserved timers, followed by a checking pass
// that resolves every command against the Command Table and lowers
// Parser-IR into typed, fully resolved Sema-IR.
//
// One Sema instance analyzes one whole program (every file of the link):
// labels share a single flat namespace across files, the global variable
// scope is shared, and START_NEW_SCRIPT must be able to see scopes
// declared in files other than its own. Run DiscoverFile over every file
// first, then CheckFile over every file, in the same order.
package sema

import (
	"strings"

	"go.uber.org/atomic"

	"github.com/thelink2012/gta3sc-sub000/pkg/cmdtable"
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/parserir"
	"github.com/thelink2012/gta3sc-sub000/pkg/semair"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

// ModelLookup is the slice of the external model table Sema consumes: an
// existence check for in-game model names (spec §4.4a, "Object-model
// lookup"). pkg/modeltable provides the real implementation.
type ModelLookup interface {
	IsModel(name string) bool
}

// entKey identifies one variable in the entity-type side table (spec §3:
// "a side table keyed by (ScopeId, variable id)").
type entKey struct {
	scope symtab.ScopeId
	id    symtab.SymbolId
}

// Sema carries all analysis state for one program.
type Sema struct {
	handler *diag.Handler
	table   *cmdtable.Table
	symbols *symtab.Table
	models  ModelLookup // may be nil when no level files were loaded

	entities    map[entKey]cmdtable.EntityId
	scriptNames map[string]bool
	fileScopes  map[*symtab.FileSym][]symtab.ScopeId
	reports     atomic.Uint32
}

// New constructs a Sema resolving against table, populating symbols, and
// reporting to handler. models may be nil.
func New(handler *diag.Handler, table *cmdtable.Table, symbols *symtab.Table, models ModelLookup) *Sema {
	return &Sema{
		handler:     handler,
		table:       table,
		symbols:     symbols,
		models:      models,
		entities:    make(map[entKey]cmdtable.EntityId),
		scriptNames: make(map[string]bool),
		fileScopes:  make(map[*symtab.FileSym][]symtab.ScopeId),
	}
}

// ReportCount returns how many diagnostics this Sema has reported across
// both passes and every file.
func (s *Sema) ReportCount() uint32 { return s.reports.Load() }

func (s *Sema) report(loc source.Location, kind diag.Kind) diag.Builder {
	s.reports.Add(1)
	return s.handler.Report(loc, kind)
}

// varDeclTypes maps the declaration command names to the declared base
// type and whether the declaration is local.
var varDeclTypes = map[string]struct {
	typ   symtab.VarType
	local bool
}{
	"VAR_INT":         {symtab.Int, false},
	"VAR_FLOAT":       {symtab.Float, false},
	"VAR_TEXT_LABEL":  {symtab.TextLabel, false},
	"LVAR_INT":        {symtab.Int, true},
	"LVAR_FLOAT":      {symtab.Float, true},
	"LVAR_TEXT_LABEL": {symtab.TextLabel, true},
}

// DiscoverFile runs pass 1 over one file's Parser-IR (spec §4.4, "Pass 1
// — Discover declarations"): labels, scopes, variable declarations and
// the reserved timers. Returns false if any diagnostic was reported.
func (s *Sema) DiscoverFile(file *symtab.FileSym, ir *parserir.List) bool {
	before := s.reports.Load()
	curScope := symtab.InvalidScope
	var scopes []symtab.ScopeId
	var declared []*symtab.Variable

	ir.Each(func(line *parserir.Line) {
		if line.Label != nil {
			owner := curScope
			if owner == symtab.InvalidScope {
				owner = symtab.GlobalScope
			}
			if _, inserted := s.symbols.InsertLabel(line.Label.Name, owner, line.Label.Span); !inserted {
				s.report(line.Label.Span.Begin, diag.DuplicateLabel).
					Args(diag.StrArg(line.Label.Name)).Range(line.Label.Span).Emit()
			}
		}
		if line.Cmd == nil {
			return
		}

		switch name := line.Cmd.Name; name {
		case "{":
			curScope = s.symbols.NewScope()
			scopes = append(scopes, curScope)
		case "}":
			if curScope != symtab.InvalidScope {
				s.symbols.InsertTimers(curScope, line.Cmd.Span)
			}
			curScope = symtab.InvalidScope
		default:
			decl, isDecl := varDeclTypes[name]
			if !isDecl {
				return
			}
			scope := symtab.GlobalScope
			if decl.local {
				scope = curScope
				if scope == symtab.InvalidScope {
					s.report(line.Cmd.Span.Begin, diag.VarDeclOutsideOfScope).Range(line.Cmd.Span).Emit()
					scope = symtab.GlobalScope
				}
			}
			s.declareVars(line.Cmd, scope, decl.typ, &declared)
		}
	})

	s.fileScopes[file] = scopes
	s.postDiscoverChecks(declared)
	return s.reports.Load() == before
}

// declareVars declares every argument of a VAR_*/LVAR_* command into
// scope.
func (s *Sema) declareVars(cmd *parserir.Command, scope symtab.ScopeId, typ symtab.VarType, declared *[]*symtab.Variable) {
	for _, arg := range cmd.Args {
		if arg.Kind != parserir.ArgIdentifier {
			s.report(arg.Span.Begin, diag.ExpectedIdentifier).Range(arg.Span).Emit()
			continue
		}
		name, sub, hasSub, ok := splitSubscript(arg.Text)
		if !ok {
			s.report(arg.Span.Begin, diag.ExpectedWord).Args(diag.StrArg("]")).Range(arg.Span).Emit()
			continue
		}
		dim := 0
		if hasSub {
			lit, isLit := parseIntLiteral(sub)
			switch {
			case !isLit:
				s.report(arg.Span.Begin, diag.VarDeclSubscriptMustBeLiteral).Range(arg.Span).Emit()
				continue
			case lit <= 0:
				s.report(arg.Span.Begin, diag.VarDeclSubscriptMustBeNonzero).Range(arg.Span).Emit()
				continue
			default:
				dim = int(lit)
			}
		}
		upper := symtab.Upper(name)
		if upper == symtab.TimerAName || upper == symtab.TimerBName {
			s.report(arg.Span.Begin, diag.DuplicateVarTimer).Args(diag.StrArg(upper)).Range(arg.Span).Emit()
			continue
		}
		v, inserted := s.symbols.InsertVar(upper, scope, typ, dim, arg.Span)
		if !inserted {
			kind := diag.DuplicateVarInScope
			if scope == symtab.GlobalScope {
				kind = diag.DuplicateVarGlobal
			}
			s.report(arg.Span.Begin, kind).Args(diag.StrArg(upper)).Range(arg.Span).Emit()
			continue
		}
		*declared = append(*declared, v)
	}
}

// postDiscoverChecks runs the pass-1 epilogue (spec §4.4): variable names
// may not shadow non-global string constants, and local variables may not
// share a name with a global.
func (s *Sema) postDiscoverChecks(declared []*symtab.Variable) {
	for _, v := range declared {
		if s.table.FindConstantAnyMeans(v.Name()) != nil {
			s.report(v.Source().Begin, diag.DuplicateVarStringConstant).
				Args(diag.StrArg(v.Name())).Range(v.Source()).Emit()
		}
		if v.Scope() != symtab.GlobalScope {
			if s.symbols.LookupVar(v.Name(), symtab.GlobalScope) != nil {
				s.report(v.Source().Begin, diag.DuplicateVarLvar).
					Args(diag.StrArg(v.Name())).Range(v.Source()).Emit()
			}
		}
	}
}

// CheckFile runs pass 2 over one file's Parser-IR (spec §4.4, "Pass 2 —
// Check semantics"), producing Sema-IR. The scope cursor re-traverses the
// scopes pass 1 created for this file, which appear in source order.
// Returns (nil-ish, false) semantics via the second result: the list is
// always returned so callers can inspect partial output, but ok is false
// if any diagnostic was reported during this file's check.
func (s *Sema) CheckFile(file *symtab.FileSym, ir *parserir.List) (*semair.List, bool) {
	before := s.reports.Load()
	out := semair.NewList()
	scopes := s.fileScopes[file]
	curScope := symtab.InvalidScope
	cursor := 0

	ir.Each(func(line *parserir.Line) {
		var label *symtab.Label
		if line.Label != nil {
			label = s.symbols.LookupLabel(line.Label.Name)
		}
		if line.Cmd == nil {
			if label != nil {
				out.Append(label, nil)
			}
			return
		}

		switch name := line.Cmd.Name; {
		case name == "{":
			if cursor < len(scopes) {
				curScope = scopes[cursor]
				cursor++
			}
			if label != nil {
				out.Append(label, nil)
			}
			return
		case name == "}":
			curScope = symtab.InvalidScope
			if label != nil {
				out.Append(label, nil)
			}
			return
		default:
			if _, isDecl := varDeclTypes[name]; isDecl {
				// Declarations were consumed by pass 1 and emit no code.
				if label != nil {
					out.Append(label, nil)
				}
				return
			}
		}

		cmd := s.checkCommand(file, curScope, line.Cmd)
		if cmd == nil && label == nil {
			return
		}
		out.Append(label, cmd)
	})

	return out, s.reports.Load() == before
}

// checkCommand resolves one Parser-IR command into Sema-IR, trying
// alternators first (spec §4.4 step 1), then the command table proper.
func (s *Sema) checkCommand(file *symtab.FileSym, scope symtab.ScopeId, pcmd *parserir.Command) *semair.Command {
	if alt := s.table.FindAlternator(pcmd.Name); alt != nil {
		def := s.matchAlternative(alt, pcmd, scope)
		if def == nil {
			s.report(pcmd.Span.Begin, diag.AlternatorMismatch).
				Args(diag.StrArg(pcmd.Name)).Range(pcmd.Span).Emit()
			return nil
		}
		cmd := s.checkAgainst(file, scope, pcmd, def)
		if cmd != nil && strings.EqualFold(pcmd.Name, "SET") {
			s.propagateSetEntity(cmd)
		}
		return cmd
	}

	def := s.table.FindCommand(pcmd.Name)
	if def == nil {
		s.report(pcmd.Span.Begin, diag.UndefinedCommand).
			Args(diag.StrArg(pcmd.Name)).Range(pcmd.Span).Emit()
		return nil
	}
	return s.checkAgainst(file, scope, pcmd, def)
}

// checkAgainst validates pcmd's arguments against def's parameter list
// (spec §4.4 steps 3-5) and lowers them.
func (s *Sema) checkAgainst(file *symtab.FileSym, scope symtab.ScopeId, pcmd *parserir.Command, def *cmdtable.CommandDef) *semair.Command {
	nargs := len(pcmd.Args)
	if nargs < def.NumMinParams() {
		s.report(pcmd.Span.Begin, diag.TooFewArguments).
			Args(diag.StrArg(def.Name())).Range(pcmd.Span).Emit()
		return nil
	}
	if !def.HasOptionalParam() && nargs > def.NumParams() {
		s.report(pcmd.Span.Begin, diag.TooManyArguments).
			Args(diag.StrArg(def.Name())).Range(pcmd.Span).Emit()
		return nil
	}

	cmd := &semair.Command{Def: def, Span: pcmd.Span, NotFlag: pcmd.NotFlag}
	ok := true
	for i, arg := range pcmd.Args {
		pi := i
		if pi >= def.NumParams() {
			pi = def.NumParams() - 1 // the optional tail repeats
		}
		lowered, argOK := s.checkArg(file, scope, arg, def.Param(pi), def, i)
		if !argOK {
			ok = false
			continue
		}
		cmd.Args = append(cmd.Args, lowered)
	}
	if !ok {
		return nil
	}

	if !s.applyHardcodedRules(scope, cmd) {
		return nil
	}
	return cmd
}

// entityType reads a variable's tracked entity type (spec §4.4a,
// "Entity-type tracking").
func (s *Sema) entityType(v *symtab.Variable) cmdtable.EntityId {
	return s.entities[entKey{scope: v.Scope(), id: v.ID()}]
}

// setEntityType records a variable's entity type.
func (s *Sema) setEntityType(v *symtab.Variable, e cmdtable.EntityId) {
	s.entities[entKey{scope: v.Scope(), id: v.ID()}] = e
}
