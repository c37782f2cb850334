package sema

import (
	"testing"

	"github.com/thelink2012/gta3sc-sub000/pkg/cmdtable"
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/lexer"
	"github.com/thelink2012/gta3sc-sub000/pkg/parser"
	"github.com/thelink2012/gta3sc-sub000/pkg/parserir"
	"github.com/thelink2012/gta3sc-sub000/pkg/semair"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

func param(t cmdtable.ParamType) cmdtable.ParamDef { return cmdtable.ParamDef{Type: t} }

func testTable() *cmdtable.Table {
	b := cmdtable.NewBuilder()
	add := func(name string, id int16, params ...cmdtable.ParamDef) *cmdtable.CommandDef {
		c, _ := b.InsertCommand(name)
		b.SetCommandParams(c, params)
		b.SetCommandID(c, id, true, true)
		return c
	}

	add("WAIT", 0x0001, param(cmdtable.InputInt))
	add("GOTO", 0x0002, param(cmdtable.Label))
	add("GOTO_IF_TRUE", 0x004C, param(cmdtable.Label))
	add("GOTO_IF_FALSE", 0x004D, param(cmdtable.Label))
	add("ANDOR", 0x00D6, param(cmdtable.Int))
	add("SCRIPT_NAME", 0x03A4, param(cmdtable.TextLabel))
	add("START_NEW_SCRIPT", 0x004F, param(cmdtable.Label), param(cmdtable.InputOpt))

	svic := add("SET_VAR_INT_TO_CONSTANT", 0x0089, param(cmdtable.VarInt), param(cmdtable.InputInt))
	slic := add("SET_LVAR_INT_TO_CONSTANT", 0x008A, param(cmdtable.LvarInt), param(cmdtable.InputInt))
	svi := add("SET_VAR_INT", 0x0004, param(cmdtable.VarInt), param(cmdtable.Int))
	svf := add("SET_VAR_FLOAT", 0x0005, param(cmdtable.VarFloat), param(cmdtable.Float))
	sli := add("SET_LVAR_INT", 0x0006, param(cmdtable.LvarInt), param(cmdtable.Int))
	svv := add("SET_VAR_INT_TO_VAR_INT", 0x0084, param(cmdtable.VarInt), param(cmdtable.VarInt))

	// The constant-accepting alternatives come first, as in the real
	// command database: resolution must still route global constants to
	// the INT forms.
	setAlt, _ := b.InsertAlternator("SET")
	for _, c := range []*cmdtable.CommandDef{svic, slic, svi, svf, sli, svv} {
		b.InsertAlternative(setAlt, c)
	}

	add("IS_THING_EQUAL_TO_THING", 0x7000, param(cmdtable.InputOpt))
	add("ADD_THING_TO_THING", 0x7001, param(cmdtable.InputOpt))
	add("SUB_THING_FROM_THING", 0x7002, param(cmdtable.InputOpt))

	carEnt, _ := b.InsertEntityType("CAR")
	pedEnt, _ := b.InsertEntityType("PED")
	carCmd, _ := b.InsertCommand("CREATE_CAR")
	b.SetCommandParams(carCmd, []cmdtable.ParamDef{
		{Type: cmdtable.InputInt},
		{Type: cmdtable.OutputInt, EntityType: carEnt},
	})
	b.SetCommandID(carCmd, 0x00A5, true, true)
	pedCmd, _ := b.InsertCommand("CREATE_PED")
	b.SetCommandParams(pedCmd, []cmdtable.ParamDef{
		{Type: cmdtable.InputInt},
		{Type: cmdtable.OutputInt, EntityType: pedEnt},
	})
	b.SetCommandID(pedCmd, 0x009A, true, true)
	carUse, _ := b.InsertCommand("SET_CAR_HEADING")
	b.SetCommandParams(carUse, []cmdtable.ParamDef{
		{Type: cmdtable.InputInt, EntityType: carEnt},
		{Type: cmdtable.InputFloat},
	})
	b.SetCommandID(carUse, 0x0175, true, true)

	modelEnum, _ := b.InsertEnumeration("MODEL")
	objCmd, _ := b.InsertCommand("CREATE_OBJECT")
	b.SetCommandParams(objCmd, []cmdtable.ParamDef{
		{Type: cmdtable.InputInt, EnumType: modelEnum},
		{Type: cmdtable.OutputInt},
	})
	b.SetCommandID(objCmd, 0x0107, true, true)

	b.InsertOrAssignConstant(cmdtable.GlobalEnum, "FALSE", 0)
	b.InsertOrAssignConstant(cmdtable.GlobalEnum, "TRUE", 1)
	fadeEnum, _ := b.InsertEnumeration("FADE")
	b.InsertOrAssignConstant(fadeEnum, "FADE_OUT", 0)

	return b.Build()
}

type modelStub map[string]bool

func (m modelStub) IsModel(name string) bool { return m[symtab.Upper(name)] }

func analyze(t *testing.T, text string) (*semair.List, *symtab.Table, *diag.Collector, bool) {
	t.Helper()
	return analyzeWith(t, testTable(), nil, text)
}

func analyzeWith(t *testing.T, table *cmdtable.Table, models ModelLookup, text string) (*semair.List, *symtab.Table, *diag.Collector, bool) {
	t.Helper()
	mgr := source.NewManager()
	file := mgr.LoadBytes("main.sc", source.FileMain, []byte(text))
	coll := diag.NewCollector()
	handler := diag.NewHandler(coll.Emit)
	pp := lexer.NewPreprocessor(file, handler)
	p := parser.New(lexer.NewScanner(pp, handler), handler)
	ir := parserir.Rewrite(p.ParseMainFile())

	symbols := symtab.New()
	fsym, _ := symbols.InsertFile("MAIN.SC", symtab.FileMain, source.NoRange)
	s := New(handler, table, symbols, models)
	okDiscover := s.DiscoverFile(fsym, ir)
	out, okCheck := s.CheckFile(fsym, ir)
	return out, symbols, coll, okDiscover && okCheck
}

func firstCommand(t *testing.T, list *semair.List) *semair.Command {
	t.Helper()
	for line := list.Front(); line != nil; line = line.Next() {
		if line.Cmd != nil {
			return line.Cmd
		}
	}
	t.Fatal("no command in Sema-IR")
	return nil
}

func diagKinds(coll *diag.Collector) []diag.Kind {
	var kinds []diag.Kind
	for _, d := range coll.Diagnostics() {
		kinds = append(kinds, d.Kind)
	}
	return kinds
}

func TestWaitZeroLowersToIntArgument(t *testing.T) {
	list, _, _, ok := analyze(t, "WAIT 0\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	cmd := firstCommand(t, list)
	if cmd.Def.Name() != "WAIT" || len(cmd.Args) != 1 {
		t.Fatalf("cmd = %+v", cmd)
	}
	if cmd.Args[0].Kind != semair.ArgInt || cmd.Args[0].Int != 0 {
		t.Fatalf("arg = %+v", cmd.Args[0])
	}
}

func TestScopeGetsTimersAsLastTwoIds(t *testing.T) {
	_, symbols, _, ok := analyze(t, "{\nLVAR_INT x\n}\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	if symbols.NumScopes() != 2 {
		t.Fatalf("NumScopes = %d, want 2", symbols.NumScopes())
	}
	vars := symbols.Scope(1)
	if len(vars) != 3 {
		t.Fatalf("scope 1 has %d vars, want 3", len(vars))
	}
	want := []string{"X", symtab.TimerAName, symtab.TimerBName}
	for i, name := range want {
		if vars[i].Name() != name || vars[i].ID() != symtab.SymbolId(i) {
			t.Fatalf("vars[%d] = %s(id=%d), want %s(id=%d)", i, vars[i].Name(), vars[i].ID(), name, i)
		}
	}
}

func TestSetVarIntLowersToVarRef(t *testing.T) {
	list, _, _, ok := analyze(t, "VAR_INT x\nSET_VAR_INT x 10\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	cmd := firstCommand(t, list)
	if cmd.Def.Name() != "SET_VAR_INT" {
		t.Fatalf("cmd = %s", cmd.Def.Name())
	}
	if cmd.Args[0].Kind != semair.ArgVarRef || cmd.Args[0].Var.Var.Name() != "X" {
		t.Fatalf("args[0] = %+v", cmd.Args[0])
	}
	if cmd.Args[1].Kind != semair.ArgInt || cmd.Args[1].Int != 10 {
		t.Fatalf("args[1] = %+v", cmd.Args[1])
	}
}

func TestAlternatorPicksMatchingAlternative(t *testing.T) {
	list, _, _, ok := analyze(t, "VAR_INT x\nVAR_FLOAT f\nSET x 10\nSET f 1.0\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	var names []string
	list.Each(func(line *semair.Line) {
		if line.Cmd != nil {
			names = append(names, line.Cmd.Def.Name())
		}
	})
	want := []string{"SET_VAR_INT", "SET_VAR_FLOAT"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestAlternatorPicksLocalForm(t *testing.T) {
	list, _, _, ok := analyze(t, "{\nLVAR_INT x\nSET x 1\n}\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	cmd := firstCommand(t, list)
	if cmd.Def.Name() != "SET_LVAR_INT" {
		t.Fatalf("cmd = %s, want SET_LVAR_INT", cmd.Def.Name())
	}
}

func TestAlternatorGlobalConstantClaimedByIntParam(t *testing.T) {
	// SET_VAR_INT_TO_CONSTANT (INPUT_INT) is listed before SET_VAR_INT
	// (INT), but a global constant belongs to the INT form regardless.
	list, _, _, ok := analyze(t, "VAR_INT x\nSET x TRUE\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	cmd := firstCommand(t, list)
	if cmd.Def.Name() != "SET_VAR_INT" {
		t.Fatalf("cmd = %s, want SET_VAR_INT", cmd.Def.Name())
	}
	if cmd.Args[1].Kind != semair.ArgConstant || cmd.Args[1].Constant.Value() != 1 {
		t.Fatalf("args[1] = %+v", cmd.Args[1])
	}
}

func TestAlternatorTypedConstantMatchesInputInt(t *testing.T) {
	list, _, _, ok := analyze(t, "VAR_INT x\nSET x FADE_OUT\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	cmd := firstCommand(t, list)
	if cmd.Def.Name() != "SET_VAR_INT_TO_CONSTANT" {
		t.Fatalf("cmd = %s, want SET_VAR_INT_TO_CONSTANT", cmd.Def.Name())
	}
	if cmd.Args[1].Kind != semair.ArgConstant || cmd.Args[1].Constant.Value() != 0 {
		t.Fatalf("args[1] = %+v", cmd.Args[1])
	}
}

func TestAlternatorMismatchDiagnoses(t *testing.T) {
	_, _, coll, ok := analyze(t, "SET 1 2\n")
	if ok {
		t.Fatal("analysis unexpectedly succeeded")
	}
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.AlternatorMismatch {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestUndefinedCommandDiagnoses(t *testing.T) {
	_, _, coll, ok := analyze(t, "FROBNICATE 1\n")
	if ok {
		t.Fatal("analysis unexpectedly succeeded")
	}
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.UndefinedCommand {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestUndefinedLabelDiagnoses(t *testing.T) {
	_, _, coll, ok := analyze(t, "GOTO nowhere\n")
	if ok {
		t.Fatal("analysis unexpectedly succeeded")
	}
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.UndefinedLabel {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestGotoResolvesLabel(t *testing.T) {
	list, _, _, ok := analyze(t, "here:\nGOTO here\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	cmd := firstCommand(t, list)
	if cmd.Args[0].Kind != semair.ArgLabel || cmd.Args[0].Label.Name() != "HERE" {
		t.Fatalf("arg = %+v", cmd.Args[0])
	}
}

func TestLvarDeclOutsideScopeDiagnoses(t *testing.T) {
	_, symbols, coll, ok := analyze(t, "LVAR_INT x\n")
	if ok {
		t.Fatal("analysis unexpectedly succeeded")
	}
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.VarDeclOutsideOfScope {
		t.Fatalf("kinds = %v", kinds)
	}
	// Recovery declares the variable as a global.
	if symbols.LookupVar("X", symtab.GlobalScope) == nil {
		t.Fatal("x not recovered into global scope")
	}
}

func TestTimerNamesAreReserved(t *testing.T) {
	_, _, coll, _ := analyze(t, "{\nLVAR_INT TIMERA\n}\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.DuplicateVarTimer {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestDuplicateGlobalVarDiagnoses(t *testing.T) {
	_, _, coll, _ := analyze(t, "VAR_INT x\nVAR_INT x\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.DuplicateVarGlobal {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestLocalShadowingGlobalDiagnoses(t *testing.T) {
	_, _, coll, _ := analyze(t, "VAR_INT x\n{\nLVAR_INT x\n}\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.DuplicateVarLvar {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestVarNameCollidingWithStringConstantDiagnoses(t *testing.T) {
	_, _, coll, _ := analyze(t, "VAR_INT FADE_OUT\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.DuplicateVarStringConstant {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestArrayDeclarationAndSubscript(t *testing.T) {
	list, symbols, _, ok := analyze(t, "VAR_INT arr[4]\nSET_VAR_INT arr[2] 7\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	v := symbols.LookupVar("ARR", symtab.GlobalScope)
	if dim, isArr := v.Dimensions(); !isArr || dim != 4 {
		t.Fatalf("dim = %d, isArr = %v", dim, isArr)
	}
	cmd := firstCommand(t, list)
	ref := cmd.Args[0].Var
	if !ref.HasIndexLiteral || ref.IndexLiteral != 2 {
		t.Fatalf("ref = %+v", ref)
	}
}

func TestSubscriptOutOfRangeDiagnoses(t *testing.T) {
	_, _, coll, _ := analyze(t, "VAR_INT arr[4]\nSET_VAR_INT arr[4] 7\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.SubscriptOutOfRange {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestSubscriptOnScalarDiagnoses(t *testing.T) {
	_, _, coll, _ := analyze(t, "VAR_INT x\nSET_VAR_INT x[0] 7\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.SubscriptButVarIsNotArray {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestVarDeclSubscriptMustBeLiteral(t *testing.T) {
	_, _, coll, _ := analyze(t, "VAR_INT n\nVAR_INT arr[n]\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.VarDeclSubscriptMustBeLiteral {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestGlobalConstantLowersThroughInputInt(t *testing.T) {
	list, _, _, ok := analyze(t, "WAIT FALSE\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	cmd := firstCommand(t, list)
	if cmd.Args[0].Kind != semair.ArgConstant || cmd.Args[0].Constant.Value() != 0 {
		t.Fatalf("arg = %+v", cmd.Args[0])
	}
}

func TestEntityTypeAssignedOnFirstUse(t *testing.T) {
	_, _, _, ok := analyze(t, "VAR_INT car\nCREATE_CAR 100 car\nSET_CAR_HEADING car 90.0\n")
	if !ok {
		t.Fatal("analysis failed")
	}
}

func TestEntityTypeMismatchDiagnoses(t *testing.T) {
	_, _, coll, _ := analyze(t, "VAR_INT thing\nCREATE_CAR 100 thing\nCREATE_PED 100 thing\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.VarEntityTypeMismatch {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestEntityTypeRequiredOnInput(t *testing.T) {
	_, _, coll, _ := analyze(t, "VAR_INT thing\nSET_CAR_HEADING thing 90.0\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.VarEntityTypeMismatch {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestSetPropagatesEntityType(t *testing.T) {
	_, _, _, ok := analyze(t,
		"VAR_INT car other\nCREATE_CAR 100 car\nSET other car\nSET_CAR_HEADING other 90.0\n")
	if !ok {
		t.Fatal("analysis failed")
	}
}

func TestModelNameBecomesUsedObject(t *testing.T) {
	list, symbols, _, ok := analyzeWith(t, testTable(), modelStub{"BRIEFCASE": true},
		"VAR_INT obj\nCREATE_OBJECT briefcase obj\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	cmd := firstCommand(t, list)
	if cmd.Args[0].Kind != semair.ArgUsedObject {
		t.Fatalf("arg = %+v", cmd.Args[0])
	}
	objs := symbols.UsedObjects()
	if len(objs) != 1 || objs[0].Name() != "BRIEFCASE" || objs[0].ID() != 0 {
		t.Fatalf("objs = %+v", objs)
	}
}

func TestScriptNameMustBeUnique(t *testing.T) {
	_, _, coll, _ := analyze(t, "SCRIPT_NAME intro\nSCRIPT_NAME intro\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.DuplicateScriptName {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestStartNewScriptBindsTargetScopeVars(t *testing.T) {
	_, _, _, ok := analyze(t, "{\nsub:\nLVAR_INT x\nWAIT 0\n}\nSTART_NEW_SCRIPT sub 5\n")
	if !ok {
		t.Fatal("analysis failed")
	}
}

func TestStartNewScriptLabelMustBeLocal(t *testing.T) {
	_, _, coll, _ := analyze(t, "top:\nSTART_NEW_SCRIPT top\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.TargetLabelNotWithinScope {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestStartNewScriptTooManyArguments(t *testing.T) {
	_, _, coll, _ := analyze(t, "{\nsub:\nLVAR_INT x\nWAIT 0\n}\nSTART_NEW_SCRIPT sub 5 6\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.TargetScopeNotEnoughVars {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestStartNewScriptTypeMismatch(t *testing.T) {
	_, _, coll, _ := analyze(t, "{\nsub:\nLVAR_INT x\nWAIT 0\n}\nSTART_NEW_SCRIPT sub 5.0\n")
	kinds := diagKinds(coll)
	if len(kinds) != 1 || kinds[0] != diag.TargetVarTypeMismatch {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestCaseFoldingYieldsIdenticalSemaIR(t *testing.T) {
	lower, _, _, ok1 := analyze(t, "var_int x\nset_var_int x 10\n")
	upper, _, _, ok2 := analyze(t, "VAR_INT X\nSET_VAR_INT X 10\n")
	if !ok1 || !ok2 {
		t.Fatal("analysis failed")
	}
	c1, c2 := firstCommand(t, lower), firstCommand(t, upper)
	if c1.Def.Name() != c2.Def.Name() {
		t.Fatalf("defs differ: %s vs %s", c1.Def.Name(), c2.Def.Name())
	}
	if c1.Args[0].Var.Var.Name() != c2.Args[0].Var.Var.Name() {
		t.Fatalf("vars differ: %s vs %s", c1.Args[0].Var.Var.Name(), c2.Args[0].Var.Var.Name())
	}
}

func TestIfGotoDesugarsThroughSema(t *testing.T) {
	list, _, _, ok := analyze(t,
		"VAR_INT x y\nIF x = y GOTO elsewhere\nelsewhere:\nWAIT 0\n")
	if !ok {
		t.Fatal("analysis failed")
	}
	var names []string
	list.Each(func(line *semair.Line) {
		if line.Cmd != nil {
			names = append(names, line.Cmd.Def.Name())
		}
	})
	want := []string{"ANDOR", "IS_THING_EQUAL_TO_THING", "GOTO_IF_TRUE", "WAIT"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}
