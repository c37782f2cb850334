package parser

import (
	"testing"

	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/lexer"
	"github.com/thelink2012/gta3sc-sub000/pkg/parserir"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
)

func parseMain(t *testing.T, text string) (*parserir.List, *diag.Collector) {
	t.Helper()
	mgr := source.NewManager()
	file := mgr.LoadBytes("main.sc", source.FileMain, []byte(text))
	coll := diag.NewCollector()
	handler := diag.NewHandler(coll.Emit)
	pp := lexer.NewPreprocessor(file, handler)
	p := New(lexer.NewScanner(pp, handler), handler)
	return p.ParseMainFile(), coll
}

func parseSubscript(t *testing.T, text string) (*parserir.List, *diag.Collector) {
	t.Helper()
	mgr := source.NewManager()
	file := mgr.LoadBytes("sub.sc", source.FileSubscript, []byte(text))
	coll := diag.NewCollector()
	handler := diag.NewHandler(coll.Emit)
	pp := lexer.NewPreprocessor(file, handler)
	p := New(lexer.NewScanner(pp, handler), handler)
	return p.ParseSubscriptFile(), coll
}

func commands(list *parserir.List) []*parserir.Command {
	var out []*parserir.Command
	list.Each(func(line *parserir.Line) {
		if line.Cmd != nil {
			out = append(out, line.Cmd)
		}
	})
	return out
}

func commandNames(list *parserir.List) []string {
	var names []string
	for _, c := range commands(list) {
		names = append(names, c.Name)
	}
	return names
}

func assertNames(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("command %d: got %v, want %v", i, got, want)
		}
	}
}

func assertNoDiags(t *testing.T, coll *diag.Collector) {
	t.Helper()
	if diags := coll.Diagnostics(); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
}

func TestPlainCommand(t *testing.T) {
	list, coll := parseMain(t, "WAIT 0\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	if len(cmds) != 1 || cmds[0].Name != "WAIT" {
		t.Fatalf("cmds = %+v", cmds)
	}
	if len(cmds[0].Args) != 1 || cmds[0].Args[0].Kind != parserir.ArgInteger || cmds[0].Args[0].Int != 0 {
		t.Fatalf("args = %+v", cmds[0].Args)
	}
}

func TestPostIncrementDesugars(t *testing.T) {
	list, coll := parseMain(t, "x++\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	if len(cmds) != 1 || cmds[0].Name != "ADD_THING_TO_THING" {
		t.Fatalf("cmds = %+v", cmds)
	}
	if cmds[0].Args[1].Int != 1 {
		t.Fatalf("args = %+v", cmds[0].Args)
	}
}

func TestPreDecrementDesugars(t *testing.T) {
	list, coll := parseMain(t, "--x\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	if len(cmds) != 1 || cmds[0].Name != "SUB_THING_FROM_THING" {
		t.Fatalf("cmds = %+v", cmds)
	}
	if cmds[0].Args[0].Text != "x" || cmds[0].Args[1].Int != 1 {
		t.Fatalf("args = %+v", cmds[0].Args)
	}
}

func TestCompoundAssignDesugars(t *testing.T) {
	list, coll := parseMain(t, "x += y\n")
	assertNoDiags(t, coll)
	assertNames(t, commandNames(list), []string{"ADD_THING_TO_THING"})
}

func TestEqualHashDesugarsToCset(t *testing.T) {
	list, coll := parseMain(t, "x =# y\n")
	assertNoDiags(t, coll)
	assertNames(t, commandNames(list), []string{"CSET"})
}

func TestTernaryAllDistinct(t *testing.T) {
	list, coll := parseMain(t, "x = y + z\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	assertNames(t, commandNames(list), []string{"SET", "ADD_THING_TO_THING"})
	if cmds[0].Args[0].Text != "x" || cmds[0].Args[1].Text != "y" {
		t.Fatalf("SET args = %+v", cmds[0].Args)
	}
	if cmds[1].Args[0].Text != "x" || cmds[1].Args[1].Text != "z" {
		t.Fatalf("ADD args = %+v", cmds[1].Args)
	}
}

func TestTernaryLhsOnLeft(t *testing.T) {
	list, coll := parseMain(t, "x = x + z\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	assertNames(t, commandNames(list), []string{"ADD_THING_TO_THING"})
	if cmds[0].Args[0].Text != "x" || cmds[0].Args[1].Text != "z" {
		t.Fatalf("args = %+v", cmds[0].Args)
	}
}

func TestTernaryLhsOnRightAssociative(t *testing.T) {
	list, coll := parseMain(t, "x = y + x\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	assertNames(t, commandNames(list), []string{"ADD_THING_TO_THING"})
	if cmds[0].Args[0].Text != "x" || cmds[0].Args[1].Text != "y" {
		t.Fatalf("args = %+v", cmds[0].Args)
	}
}

func TestTernaryLhsOnRightUnassociative(t *testing.T) {
	_, coll := parseMain(t, "x = y - x\n")
	diags := coll.Diagnostics()
	if len(diags) != 1 || diags[0].Kind != diag.InvalidExpressionUnassociative {
		t.Fatalf("diags = %+v", diags)
	}
}

func TestAbsDesugarsWithCopy(t *testing.T) {
	list, coll := parseMain(t, "x = ABS y\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	assertNames(t, commandNames(list), []string{"SET", "ABS"})
	if cmds[1].Args[0].Text != "x" {
		t.Fatalf("ABS args = %+v", cmds[1].Args)
	}
}

func TestAbsDesugarsInPlace(t *testing.T) {
	list, coll := parseMain(t, "x = ABS x\n")
	assertNoDiags(t, coll)
	assertNames(t, commandNames(list), []string{"ABS"})
}

func TestRelationalLessSwapsArguments(t *testing.T) {
	list, coll := parseMain(t, "x < y\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	assertNames(t, commandNames(list), []string{"IS_THING_GREATER_THAN_THING"})
	if cmds[0].Args[0].Text != "y" || cmds[0].Args[1].Text != "x" {
		t.Fatalf("args = %+v", cmds[0].Args)
	}
}

func TestRelationalGreaterKeepsArguments(t *testing.T) {
	list, coll := parseMain(t, "x >= y\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	assertNames(t, commandNames(list), []string{"IS_THING_GREATER_OR_EQUAL_TO_THING"})
	if cmds[0].Args[0].Text != "x" || cmds[0].Args[1].Text != "y" {
		t.Fatalf("args = %+v", cmds[0].Args)
	}
}

func TestIfGotoDesugars(t *testing.T) {
	list, coll := parseMain(t, "IF x = y GOTO elsewhere\nelsewhere:\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	assertNames(t, commandNames(list), []string{"ANDOR", "IS_THING_EQUAL_TO_THING", "GOTO_IF_TRUE"})
	if cmds[0].Args[0].Int != 0 {
		t.Fatalf("ANDOR arg = %+v", cmds[0].Args)
	}
	if cmds[2].Args[0].Text != "elsewhere" {
		t.Fatalf("GOTO_IF_TRUE args = %+v", cmds[2].Args)
	}
}

func TestIfnotGotoUsesGotoIfFalse(t *testing.T) {
	list, coll := parseMain(t, "IFNOT x = y GOTO elsewhere\nelsewhere:\n")
	assertNoDiags(t, coll)
	assertNames(t, commandNames(list), []string{"ANDOR", "IS_THING_EQUAL_TO_THING", "GOTO_IF_FALSE"})
}

func TestIfBlockAndConditions(t *testing.T) {
	list, coll := parseMain(t, "IF SOMETHING\nAND OTHERTHING\nAND THIRDTHING\nWAIT 0\nENDIF\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	assertNames(t, commandNames(list),
		[]string{"IF", "ANDOR", "SOMETHING", "OTHERTHING", "THIRDTHING", "WAIT", "ENDIF"})
	if cmds[1].Args[0].Int != 2 {
		t.Fatalf("ANDOR arg = %d, want 2", cmds[1].Args[0].Int)
	}
}

func TestIfBlockOrConditions(t *testing.T) {
	list, coll := parseMain(t, "IF SOMETHING\nOR OTHERTHING\nWAIT 0\nENDIF\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	if cmds[1].Name != "ANDOR" || cmds[1].Args[0].Int != 21 {
		t.Fatalf("ANDOR = %+v", cmds[1])
	}
}

func TestSingleConditionAndorZero(t *testing.T) {
	list, coll := parseMain(t, "IF SOMETHING\nWAIT 0\nENDIF\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	if cmds[1].Name != "ANDOR" || cmds[1].Args[0].Int != 0 {
		t.Fatalf("ANDOR = %+v", cmds[1])
	}
}

func TestNotConditionSetsNotFlag(t *testing.T) {
	list, coll := parseMain(t, "IF NOT SOMETHING\nWAIT 0\nENDIF\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	if cmds[2].Name != "SOMETHING" || !cmds[2].NotFlag {
		t.Fatalf("condition = %+v", cmds[2])
	}
}

func TestMixedAndOrDiagnoses(t *testing.T) {
	_, coll := parseMain(t, "IF A\nAND B\nOR C\nWAIT 0\nENDIF\n")
	diags := coll.Diagnostics()
	if len(diags) == 0 || diags[0].Kind != diag.CannotMixAndor {
		t.Fatalf("diags = %+v", diags)
	}
}

func TestTooManyConditionsDiagnoses(t *testing.T) {
	_, coll := parseMain(t, "IF A\nAND B\nAND C\nAND D\nAND E\nAND F\nAND G\nWAIT 0\nENDIF\n")
	diags := coll.Diagnostics()
	if len(diags) == 0 || diags[0].Kind != diag.TooManyConditions {
		t.Fatalf("diags = %+v", diags)
	}
}

func TestRelationalConditionInWhile(t *testing.T) {
	list, coll := parseMain(t, "WHILE x > 0\nWAIT 0\nENDWHILE\n")
	assertNoDiags(t, coll)
	assertNames(t, commandNames(list),
		[]string{"WHILE", "ANDOR", "IS_THING_GREATER_THAN_THING", "WAIT", "ENDWHILE"})
}

func TestNestedScopesDiagnose(t *testing.T) {
	_, coll := parseMain(t, "{\n{\nWAIT 0\n}\n")
	diags := coll.Diagnostics()
	if len(diags) == 0 || diags[0].Kind != diag.CannotNestScopes {
		t.Fatalf("diags = %+v", diags)
	}
}

func TestVarDeclWithoutArgsDiagnoses(t *testing.T) {
	_, coll := parseMain(t, "VAR_INT\n")
	diags := coll.Diagnostics()
	if len(diags) != 1 || diags[0].Kind != diag.TooFewArguments {
		t.Fatalf("diags = %+v", diags)
	}
}

func TestSpecialNameAsCommandDiagnoses(t *testing.T) {
	_, coll := parseMain(t, "NOT x\n")
	diags := coll.Diagnostics()
	if len(diags) != 1 || diags[0].Kind != diag.UnexpectedSpecialName {
		t.Fatalf("diags = %+v", diags)
	}
}

func TestSubscriptRequiresMissionStart(t *testing.T) {
	_, coll := parseSubscript(t, "WAIT 0\nMISSION_END\n")
	diags := coll.Diagnostics()
	if len(diags) == 0 || diags[0].Kind != diag.ExpectedMissionStartAtTop {
		t.Fatalf("diags = %+v", diags)
	}
}

func TestSubscriptWellFormed(t *testing.T) {
	list, coll := parseSubscript(t, "MISSION_START\nWAIT 0\nMISSION_END\n")
	assertNoDiags(t, coll)
	assertNames(t, commandNames(list), []string{"MISSION_START", "WAIT", "MISSION_END"})
}

func TestRequireStatementScansFilename(t *testing.T) {
	list, coll := parseMain(t, "GOSUB_FILE else sub.sc\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	if len(cmds) != 1 || len(cmds[0].Args) != 2 {
		t.Fatalf("cmds = %+v", cmds)
	}
	if cmds[0].Args[0].Kind != parserir.ArgIdentifier || cmds[0].Args[0].Text != "else" {
		t.Fatalf("args[0] = %+v", cmds[0].Args[0])
	}
	if cmds[0].Args[1].Kind != parserir.ArgFilename || cmds[0].Args[1].Text != "sub.sc" {
		t.Fatalf("args[1] = %+v", cmds[0].Args[1])
	}
}

func TestLaunchMissionScansFilename(t *testing.T) {
	list, coll := parseMain(t, "LAUNCH_MISSION zambo.sc\n")
	assertNoDiags(t, coll)
	cmds := commands(list)
	if len(cmds[0].Args) != 1 || cmds[0].Args[0].Kind != parserir.ArgFilename || cmds[0].Args[0].Text != "zambo.sc" {
		t.Fatalf("args = %+v", cmds[0].Args)
	}
}

func TestLabelOnOwnLine(t *testing.T) {
	list, coll := parseMain(t, "here:\nWAIT 0\n")
	assertNoDiags(t, coll)
	front := list.Front()
	if front.Label == nil || front.Label.Name != "HERE" || front.Cmd != nil {
		t.Fatalf("front = %+v", front)
	}
}

func TestLabelBeforeCommand(t *testing.T) {
	list, coll := parseMain(t, "here: WAIT 0\n")
	assertNoDiags(t, coll)
	front := list.Front()
	if front.Label == nil || front.Label.Name != "HERE" || front.Cmd == nil || front.Cmd.Name != "WAIT" {
		t.Fatalf("front = %+v", front)
	}
}

func TestLexicalRoundtripOfSpans(t *testing.T) {
	text := "WAIT 100\n"
	mgr := source.NewManager()
	file := mgr.LoadBytes("main.sc", source.FileMain, []byte(text))
	coll := diag.NewCollector()
	handler := diag.NewHandler(coll.Emit)
	pp := lexer.NewPreprocessor(file, handler)
	p := New(lexer.NewScanner(pp, handler), handler)
	list := p.ParseMainFile()
	assertNoDiags(t, coll)

	cmd := list.Front().Cmd
	if got := string(file.View(cmd.Span)); got != "WAIT" {
		t.Fatalf("command span = %q", got)
	}
	if got := string(file.View(cmd.Args[0].Span)); got != "100" {
		t.Fatalf("argument span = %q", got)
	}
}
