package sema

import (
	"strconv"
	"strings"

	"github.com/thelink2012/gta3sc-sub000/pkg/cmdtable"
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/parserir"
	"github.com/thelink2012/gta3sc-sub000/pkg/semair"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

// splitSubscript lexically splits an identifier of the form `name[sub]`
// into its parts. ok is false when a `[` is present without a closing
// `]`.
func splitSubscript(text string) (name, sub string, hasSub, ok bool) {
	i := strings.IndexByte(text, '[')
	if i < 0 {
		return text, "", false, true
	}
	if !strings.HasSuffix(text, "]") {
		return text[:i], "", true, false
	}
	return text[:i], text[i+1 : len(text)-1], true, true
}

// parseIntLiteral parses a decimal integer literal, optionally negative.
func parseIntLiteral(text string) (int64, bool) {
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// paramVarType returns the base variable type a VAR_*/LVAR_* parameter
// requires, and whether the parameter is a variable reference at all.
func paramVarType(t cmdtable.ParamType) (symtab.VarType, bool) {
	switch t {
	case cmdtable.VarInt, cmdtable.LvarInt, cmdtable.VarIntOpt, cmdtable.LvarIntOpt:
		return symtab.Int, true
	case cmdtable.VarFloat, cmdtable.LvarFloat, cmdtable.VarFloatOpt, cmdtable.LvarFloatOpt:
		return symtab.Float, true
	case cmdtable.VarTextLabel, cmdtable.LvarTextLabel, cmdtable.VarTextLabelOpt, cmdtable.LvarTextLabelOpt:
		return symtab.TextLabel, true
	default:
		return 0, false
	}
}

// resolveVar finds a variable by name, searching the active local scope
// first and the global scope second. Exactly two variable namespaces are
// ever visible at once.
func (s *Sema) resolveVar(name string, scope symtab.ScopeId) *symtab.Variable {
	if scope != symtab.InvalidScope && scope != symtab.GlobalScope {
		if v := s.symbols.LookupVar(name, scope); v != nil {
			return v
		}
	}
	return s.symbols.LookupVar(name, symtab.GlobalScope)
}

// lookupVarQuiet resolves `name[sub]` to its base variable without
// reporting anything; used by alternator matching, which must not diagnose
// while probing alternatives.
func (s *Sema) lookupVarQuiet(text string, scope symtab.ScopeId) *symtab.Variable {
	name, _, _, ok := splitSubscript(text)
	if !ok {
		return nil
	}
	return s.resolveVar(name, scope)
}

// parseVarRef resolves `name[sub]` into a VarRef, validating the
// subscript against the variable's declared dimension (spec §4.4a,
// "Variable reference parsing"). A bare array name references index 0.
func (s *Sema) parseVarRef(text string, span source.Range, scope symtab.ScopeId) (semair.VarRef, bool) {
	name, sub, hasSub, ok := splitSubscript(text)
	if !ok {
		s.report(span.Begin, diag.ExpectedWord).Args(diag.StrArg("]")).Range(span).Emit()
		return semair.VarRef{}, false
	}

	v := s.resolveVar(name, scope)
	if v == nil {
		s.report(span.Begin, diag.UndefinedVariable).Args(diag.StrArg(symtab.Upper(name))).Range(span).Emit()
		return semair.VarRef{}, false
	}
	ref := semair.VarRef{Var: v}
	if !hasSub {
		return ref, true
	}

	if sub == "" {
		s.report(span.Begin, diag.ExpectedSubscript).Range(span).Emit()
		return semair.VarRef{}, false
	}
	if !v.IsArray() {
		s.report(span.Begin, diag.SubscriptButVarIsNotArray).Args(diag.StrArg(v.Name())).Range(span).Emit()
		return semair.VarRef{}, false
	}

	if lit, isLit := parseIntLiteral(sub); isLit {
		if lit < 0 {
			s.report(span.Begin, diag.SubscriptMustBePositive).Range(span).Emit()
			return semair.VarRef{}, false
		}
		dim, _ := v.Dimensions()
		if lit >= int64(dim) {
			s.report(span.Begin, diag.SubscriptOutOfRange).Args(diag.IntArg(lit)).Range(span).Emit()
			return semair.VarRef{}, false
		}
		ref.HasIndexLiteral = true
		ref.IndexLiteral = int32(lit)
		return ref, true
	}

	iv := s.resolveVar(sub, scope)
	if iv == nil {
		s.report(span.Begin, diag.UndefinedVariable).Args(diag.StrArg(symtab.Upper(sub))).Range(span).Emit()
		return semair.VarRef{}, false
	}
	if iv.Type() != symtab.Int {
		s.report(span.Begin, diag.SubscriptVarMustBeInt).Args(diag.StrArg(iv.Name())).Range(span).Emit()
		return semair.VarRef{}, false
	}
	if iv.IsArray() {
		s.report(span.Begin, diag.SubscriptVarMustNotBeArray).Args(diag.StrArg(iv.Name())).Range(span).Emit()
		return semair.VarRef{}, false
	}
	ref.IndexVar = iv
	return ref, true
}

// checkArg validates one argument against its ParamDef and lowers it
// (spec §4.4a's validation table). argIndex feeds the hardcoded REPEAT
// relaxation.
func (s *Sema) checkArg(file *symtab.FileSym, scope symtab.ScopeId, arg parserir.Argument, param cmdtable.ParamDef, def *cmdtable.CommandDef, argIndex int) (semair.Argument, bool) {
	// Filename arguments resolve straight into the files namespace,
	// regardless of the declared parameter type: the parser only produces
	// them for the require-statement commands, whose trailing parameter
	// is a file reference at codegen time.
	if arg.Kind == parserir.ArgFilename {
		return s.checkFilenameArg(arg, def)
	}

	fail := func(kind diag.Kind) (semair.Argument, bool) {
		s.report(arg.Span.Begin, kind).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}

	switch t := param.Type; {
	case t == cmdtable.Int:
		if arg.Kind == parserir.ArgInteger {
			return semair.Argument{Kind: semair.ArgInt, Span: arg.Span, Int: arg.Int}, true
		}
		if arg.Kind == parserir.ArgIdentifier {
			if c := s.table.FindConstant(cmdtable.GlobalEnum, arg.Text); c != nil {
				return semair.Argument{Kind: semair.ArgConstant, Span: arg.Span, Constant: c}, true
			}
		}
		return fail(diag.ExpectedInteger)

	case t == cmdtable.Float:
		if arg.Kind == parserir.ArgFloat {
			return semair.Argument{Kind: semair.ArgFloat, Span: arg.Span, Float: arg.Float}, true
		}
		return fail(diag.ExpectedFloat)

	case t == cmdtable.TextLabel:
		if arg.Kind != parserir.ArgIdentifier {
			return fail(diag.ExpectedTextLabel)
		}
		if strings.HasPrefix(arg.Text, "$") {
			rest := arg.Text[1:]
			if rest == "" {
				return fail(diag.ExpectedVarnameAfterDollar)
			}
			ref, ok := s.parseVarRef(rest, arg.Span, scope)
			if !ok {
				return semair.Argument{}, false
			}
			if ref.Var.Type() != symtab.TextLabel {
				return fail(diag.VarTypeMismatch)
			}
			return semair.Argument{Kind: semair.ArgVarRef, Span: arg.Span, Var: ref}, true
		}
		if s.table.FindConstant(cmdtable.GlobalEnum, arg.Text) != nil {
			return fail(diag.CannotUseStringConstantHere)
		}
		return semair.Argument{Kind: semair.ArgTextLabel, Span: arg.Span, Text: symtab.Upper(arg.Text)}, true

	case t == cmdtable.Label:
		if arg.Kind != parserir.ArgIdentifier {
			return fail(diag.ExpectedLabel)
		}
		label := s.symbols.LookupLabel(arg.Text)
		if label == nil {
			s.report(arg.Span.Begin, diag.UndefinedLabel).Args(diag.StrArg(symtab.Upper(arg.Text))).Range(arg.Span).Emit()
			return semair.Argument{}, false
		}
		return semair.Argument{Kind: semair.ArgLabel, Span: arg.Span, Label: label}, true

	case t == cmdtable.String:
		if arg.Kind == parserir.ArgString {
			return semair.Argument{Kind: semair.ArgString, Span: arg.Span, Text: arg.Text}, true
		}
		return fail(diag.ExpectedString)

	case t == cmdtable.InputInt:
		return s.checkInputInt(arg, param, scope)

	case t == cmdtable.InputFloat:
		return s.checkInputFloat(arg, scope)

	case t == cmdtable.InputOpt:
		return s.checkInputOpt(arg, scope)

	case t == cmdtable.OutputInt || t == cmdtable.OutputFloat:
		return s.checkOutput(arg, param, scope)

	default:
		return s.checkVarParam(arg, param, def, argIndex, scope)
	}
}

// checkFilenameArg resolves a filename argument into the files namespace,
// registering the file on first reference with a kind derived from the
// requiring command.
func (s *Sema) checkFilenameArg(arg parserir.Argument, def *cmdtable.CommandDef) (semair.Argument, bool) {
	kind := symtab.FileSubscript
	switch def.Name() {
	case "LAUNCH_MISSION", "LOAD_AND_LAUNCH_MISSION":
		kind = symtab.FileMission
	}
	f, ok := s.symbols.FindFile(arg.Text)
	if !ok {
		f, _ = s.symbols.InsertFile(arg.Text, kind, arg.Span)
	}
	return semair.Argument{Kind: semair.ArgFile, Span: arg.Span, File: f}, true
}

// checkVarParam validates a VAR_*/LVAR_* parameter: the identifier must
// resolve to a variable of matching storage and base type.
func (s *Sema) checkVarParam(arg parserir.Argument, param cmdtable.ParamDef, def *cmdtable.CommandDef, argIndex int, scope symtab.ScopeId) (semair.Argument, bool) {
	wantType, isVarParam := paramVarType(param.Type)
	if !isVarParam {
		s.report(arg.Span.Begin, diag.InternalCompilerError).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	if arg.Kind != parserir.ArgIdentifier {
		s.report(arg.Span.Begin, diag.ExpectedVariable).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}

	ref, ok := s.parseVarRef(arg.Text, arg.Span, scope)
	if !ok {
		return semair.Argument{}, false
	}
	v := ref.Var

	// REPEAT's counter argument may be a local even when the signature
	// says global (spec §4.4b).
	relaxed := def.Name() == "REPEAT" && argIndex == 1

	if param.Type.IsVar() && v.Scope() != symtab.GlobalScope && !relaxed {
		s.report(arg.Span.Begin, diag.ExpectedGvarGotLvar).Args(diag.StrArg(v.Name())).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	if param.Type.IsLvar() && v.Scope() == symtab.GlobalScope {
		s.report(arg.Span.Begin, diag.ExpectedLvarGotGvar).Args(diag.StrArg(v.Name())).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	if v.Type() != wantType {
		s.report(arg.Span.Begin, diag.VarTypeMismatch).Args(diag.StrArg(v.Name())).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	return semair.Argument{Kind: semair.ArgVarRef, Span: arg.Span, Var: ref}, true
}

// checkInputInt validates an INPUT_INT parameter: int literal, string
// constant, model name (when the parameter's enumeration is MODEL), or an
// int variable (spec §4.4a). Resolution priority: the parameter's own
// enumeration, the global enumeration, DEFAULTMODEL, the model table,
// other typed constants, and finally variables.
func (s *Sema) checkInputInt(arg parserir.Argument, param cmdtable.ParamDef, scope symtab.ScopeId) (semair.Argument, bool) {
	if arg.Kind == parserir.ArgInteger {
		return semair.Argument{Kind: semair.ArgInt, Span: arg.Span, Int: arg.Int}, true
	}
	if arg.Kind != parserir.ArgIdentifier {
		s.report(arg.Span.Begin, diag.ExpectedInputInt).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}

	name := arg.Text
	if param.EnumType != cmdtable.GlobalEnum {
		if c := s.table.FindConstant(param.EnumType, name); c != nil {
			return semair.Argument{Kind: semair.ArgConstant, Span: arg.Span, Constant: c}, true
		}
	}
	if c := s.table.FindConstant(cmdtable.GlobalEnum, name); c != nil {
		return semair.Argument{Kind: semair.ArgConstant, Span: arg.Span, Constant: c}, true
	}

	if modelEnum, ok := s.table.ModelEnum(); ok && param.EnumType == modelEnum {
		if dm, hasDM := s.table.DefaultModelEnum(); hasDM {
			if c := s.table.FindConstant(dm, name); c != nil {
				return semair.Argument{Kind: semair.ArgConstant, Span: arg.Span, Constant: c}, true
			}
		}
		if s.models != nil && s.models.IsModel(name) {
			obj, _ := s.symbols.InsertUsedObject(name, arg.Span)
			return semair.Argument{Kind: semair.ArgUsedObject, Span: arg.Span, UsedObject: obj}, true
		}
	}

	if c := s.table.FindConstantAnyMeans(name); c != nil {
		return semair.Argument{Kind: semair.ArgConstant, Span: arg.Span, Constant: c}, true
	}

	if s.lookupVarQuiet(name, scope) == nil {
		s.report(arg.Span.Begin, diag.ExpectedInputInt).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	ref, ok := s.parseVarRef(name, arg.Span, scope)
	if !ok {
		return semair.Argument{}, false
	}
	if ref.Var.Type() != symtab.Int {
		s.report(arg.Span.Begin, diag.VarTypeMismatch).Args(diag.StrArg(ref.Var.Name())).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	if param.EntityType != cmdtable.NoEntityType && s.entityType(ref.Var) != param.EntityType {
		s.report(arg.Span.Begin, diag.VarEntityTypeMismatch).Args(diag.StrArg(ref.Var.Name())).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	return semair.Argument{Kind: semair.ArgVarRef, Span: arg.Span, Var: ref}, true
}

// checkInputFloat validates an INPUT_FLOAT parameter: float literal or a
// float variable; string constants are rejected (spec §4.4a).
func (s *Sema) checkInputFloat(arg parserir.Argument, scope symtab.ScopeId) (semair.Argument, bool) {
	if arg.Kind == parserir.ArgFloat {
		return semair.Argument{Kind: semair.ArgFloat, Span: arg.Span, Float: arg.Float}, true
	}
	if arg.Kind != parserir.ArgIdentifier || s.lookupVarQuiet(arg.Text, scope) == nil {
		s.report(arg.Span.Begin, diag.ExpectedInputFloat).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	ref, ok := s.parseVarRef(arg.Text, arg.Span, scope)
	if !ok {
		return semair.Argument{}, false
	}
	if ref.Var.Type() != symtab.Float {
		s.report(arg.Span.Begin, diag.VarTypeMismatch).Args(diag.StrArg(ref.Var.Name())).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	return semair.Argument{Kind: semair.ArgVarRef, Span: arg.Span, Var: ref}, true
}

// checkInputOpt validates an INPUT_OPT tail element: int or float
// literal, global constant, or any int/float variable (spec §4.4a).
func (s *Sema) checkInputOpt(arg parserir.Argument, scope symtab.ScopeId) (semair.Argument, bool) {
	switch arg.Kind {
	case parserir.ArgInteger:
		return semair.Argument{Kind: semair.ArgInt, Span: arg.Span, Int: arg.Int}, true
	case parserir.ArgFloat:
		return semair.Argument{Kind: semair.ArgFloat, Span: arg.Span, Float: arg.Float}, true
	case parserir.ArgIdentifier:
		if c := s.table.FindConstant(cmdtable.GlobalEnum, arg.Text); c != nil {
			return semair.Argument{Kind: semair.ArgConstant, Span: arg.Span, Constant: c}, true
		}
		if s.lookupVarQuiet(arg.Text, scope) == nil {
			break
		}
		ref, ok := s.parseVarRef(arg.Text, arg.Span, scope)
		if !ok {
			return semair.Argument{}, false
		}
		if ref.Var.Type() == symtab.TextLabel {
			s.report(arg.Span.Begin, diag.VarTypeMismatch).Args(diag.StrArg(ref.Var.Name())).Range(arg.Span).Emit()
			return semair.Argument{}, false
		}
		return semair.Argument{Kind: semair.ArgVarRef, Span: arg.Span, Var: ref}, true
	}
	s.report(arg.Span.Begin, diag.ExpectedInputOpt).Range(arg.Span).Emit()
	return semair.Argument{}, false
}

// checkOutput validates an OUTPUT_INT/OUTPUT_FLOAT parameter: a variable
// of the matching base type. OUTPUT_INT parameters carrying an entity
// type assign it to the variable on first use and require a match
// afterwards (spec §4.4a, "Entity-type tracking").
func (s *Sema) checkOutput(arg parserir.Argument, param cmdtable.ParamDef, scope symtab.ScopeId) (semair.Argument, bool) {
	if arg.Kind != parserir.ArgIdentifier {
		s.report(arg.Span.Begin, diag.ExpectedVariable).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	if s.table.FindConstant(cmdtable.GlobalEnum, arg.Text) != nil {
		s.report(arg.Span.Begin, diag.CannotUseStringConstantHere).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	ref, ok := s.parseVarRef(arg.Text, arg.Span, scope)
	if !ok {
		return semair.Argument{}, false
	}
	want := symtab.Int
	if param.Type == cmdtable.OutputFloat {
		want = symtab.Float
	}
	if ref.Var.Type() != want {
		s.report(arg.Span.Begin, diag.VarTypeMismatch).Args(diag.StrArg(ref.Var.Name())).Range(arg.Span).Emit()
		return semair.Argument{}, false
	}
	if param.Type == cmdtable.OutputInt && param.EntityType != cmdtable.NoEntityType {
		switch have := s.entityType(ref.Var); {
		case have == cmdtable.NoEntityType:
			s.setEntityType(ref.Var, param.EntityType)
		case have != param.EntityType:
			s.report(arg.Span.Begin, diag.VarEntityTypeMismatch).Args(diag.StrArg(ref.Var.Name())).Range(arg.Span).Emit()
			return semair.Argument{}, false
		}
	}
	return semair.Argument{Kind: semair.ArgVarRef, Span: arg.Span, Var: ref}, true
}

// matchAlternative probes each alternative of alt in declaration order,
// returning the first command whose parameter list matches pcmd's
// argument kinds (spec §4.4 step 1). Probing never diagnoses.
// Alternators do not admit optional arguments, so the argument count
// must equal the required parameter count exactly.
func (s *Sema) matchAlternative(alt *cmdtable.AlternatorDef, pcmd *parserir.Command, scope symtab.ScopeId) *cmdtable.CommandDef {
	for _, a := range alt.Alternatives() {
		def := a.Command()
		if len(pcmd.Args) != def.NumMinParams() {
			continue
		}
		match := true
		for i, arg := range pcmd.Args {
			if !s.argMatchesParam(arg, def.Param(i), scope) {
				match = false
				break
			}
		}
		if match {
			return def
		}
	}
	return nil
}

// argMatchesParam applies the per-parameter match rule used during
// alternation (spec §4.4's summary table): only INT, FLOAT, the
// variable-reference types, INPUT_INT and TEXT_LABEL can ever match;
// every other parameter type fails the alternative. Global constants
// are claimed exclusively by INT parameters, so an identifier naming
// one fails any other parameter type before its own rule runs.
func (s *Sema) argMatchesParam(arg parserir.Argument, param cmdtable.ParamDef, scope symtab.ScopeId) bool {
	isIdent := arg.Kind == parserir.ArgIdentifier

	if param.Type != cmdtable.Int && isIdent &&
		s.table.FindConstant(cmdtable.GlobalEnum, arg.Text) != nil {
		return false
	}

	switch param.Type {
	case cmdtable.Int:
		return arg.Kind == parserir.ArgInteger ||
			(isIdent && s.table.FindConstant(cmdtable.GlobalEnum, arg.Text) != nil)

	case cmdtable.Float:
		return arg.Kind == parserir.ArgFloat

	case cmdtable.InputInt:
		return isIdent && s.table.FindConstantAnyMeans(arg.Text) != nil

	case cmdtable.TextLabel:
		return isIdent

	case cmdtable.VarInt, cmdtable.LvarInt, cmdtable.VarFloat, cmdtable.LvarFloat,
		cmdtable.VarTextLabel, cmdtable.LvarTextLabel:
		wantType, _ := paramVarType(param.Type)
		if !isIdent {
			return false
		}
		v := s.lookupVarQuiet(arg.Text, scope)
		if v == nil || v.Type() != wantType {
			return false
		}
		if param.Type.IsVar() && v.Scope() != symtab.GlobalScope {
			return false
		}
		if param.Type.IsLvar() && v.Scope() == symtab.GlobalScope {
			return false
		}
		return true

	default:
		return false
	}
}
