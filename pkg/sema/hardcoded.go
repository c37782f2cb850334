package sema

import (
	"github.com/thelink2012/gta3sc-sub000/pkg/cmdtable"
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/semair"
	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

// applyHardcodedRules runs the per-command special cases of spec §4.4b
// after a command's arguments have validated. Returns false if the
// command must be rejected.
func (s *Sema) applyHardcodedRules(scope symtab.ScopeId, cmd *semair.Command) bool {
	switch cmd.Def.Name() {
	case "SCRIPT_NAME":
		return s.checkScriptName(cmd)
	case "START_NEW_SCRIPT":
		return s.checkStartNewScript(cmd)
	}
	return true
}

// checkScriptName enforces global uniqueness of script names.
func (s *Sema) checkScriptName(cmd *semair.Command) bool {
	if len(cmd.Args) == 0 || cmd.Args[0].Kind != semair.ArgTextLabel {
		return true
	}
	name := cmd.Args[0].Text
	if s.scriptNames[name] {
		s.report(cmd.Args[0].Span.Begin, diag.DuplicateScriptName).
			Args(diag.StrArg(name)).Range(cmd.Args[0].Span).Emit()
		return false
	}
	s.scriptNames[name] = true
	return true
}

// checkStartNewScript validates START_NEW_SCRIPT's target label and its
// positional argument binding against the target scope's local variables
// (spec §4.4b): the label must sit inside a local scope, and each extra
// argument maps onto that scope's locals in declaration order, excluding
// the reserved timers.
func (s *Sema) checkStartNewScript(cmd *semair.Command) bool {
	if len(cmd.Args) == 0 || cmd.Args[0].Kind != semair.ArgLabel {
		return true
	}
	label := cmd.Args[0].Label
	if label.Scope() == symtab.GlobalScope {
		s.report(cmd.Args[0].Span.Begin, diag.TargetLabelNotWithinScope).
			Args(diag.StrArg(label.Name())).Range(cmd.Args[0].Span).Emit()
		return false
	}

	var targets []*symtab.Variable
	for _, v := range s.symbols.Scope(label.Scope()) {
		if v.Name() == symtab.TimerAName || v.Name() == symtab.TimerBName {
			continue
		}
		targets = append(targets, v)
	}

	extra := cmd.Args[1:]
	if len(extra) > len(targets) {
		s.report(cmd.Span.Begin, diag.TargetScopeNotEnoughVars).
			Args(diag.StrArg(label.Name())).Range(cmd.Span).Emit()
		return false
	}

	ok := true
	for i, a := range extra {
		tv := targets[i]
		var argType symtab.VarType
		var argEntity cmdtable.EntityId
		switch a.Kind {
		case semair.ArgInt, semair.ArgConstant:
			argType = symtab.Int
		case semair.ArgFloat:
			argType = symtab.Float
		case semair.ArgTextLabel:
			argType = symtab.TextLabel
		case semair.ArgVarRef:
			argType = a.Var.Var.Type()
			argEntity = s.entityType(a.Var.Var)
		default:
			continue
		}
		if argType != tv.Type() {
			s.report(a.Span.Begin, diag.TargetVarTypeMismatch).
				Args(diag.StrArg(tv.Name())).Range(a.Span).Emit()
			ok = false
			continue
		}
		if have := s.entityType(tv); argEntity != have {
			if have == cmdtable.NoEntityType {
				s.setEntityType(tv, argEntity)
			} else {
				s.report(a.Span.Begin, diag.TargetVarEntityTypeMismatch).
					Args(diag.StrArg(tv.Name())).Range(a.Span).Emit()
				ok = false
			}
		}
	}
	return ok
}

// propagateSetEntity flows entity types through the SET alternator (spec
// §4.4a): when the left-hand variable has no entity type yet, it takes
// the right-hand side's; an already-typed left-hand side must match. The
// backward direction (typed LHS, untyped RHS variable) is an error.
func (s *Sema) propagateSetEntity(cmd *semair.Command) {
	if len(cmd.Args) != 2 {
		return
	}
	lhs, rhs := cmd.Args[0], cmd.Args[1]
	if lhs.Kind != semair.ArgVarRef || rhs.Kind != semair.ArgVarRef {
		return
	}
	lhsEnt := s.entityType(lhs.Var.Var)
	rhsEnt := s.entityType(rhs.Var.Var)
	switch {
	case lhsEnt == rhsEnt:
	case lhsEnt == cmdtable.NoEntityType:
		s.setEntityType(lhs.Var.Var, rhsEnt)
	default:
		s.report(rhs.Span.Begin, diag.VarEntityTypeMismatch).
			Args(diag.StrArg(rhs.Var.Var.Name())).Range(rhs.Span).Emit()
	}
}
