package codegen

import (
	"bytes"
	"testing"

	"github.com/thelink2012/gta3sc-sub000/pkg/cmdtable"
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/reloc"
	"github.com/thelink2012/gta3sc-sub000/pkg/semair"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
	"github.com/thelink2012/gta3sc-sub000/pkg/storage"
	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

func makeCommand(t *testing.T, name string, id int16, handled bool, params ...cmdtable.ParamDef) *cmdtable.CommandDef {
	t.Helper()
	b := cmdtable.NewBuilder()
	c, _ := b.InsertCommand(name)
	b.SetCommandParams(c, params)
	b.SetCommandID(c, id, true, handled)
	b.Build()
	return c
}

type fixture struct {
	syms    *symtab.Table
	file    *symtab.FileSym
	storage *storage.Table
	coll    *diag.Collector
	gen     *CodeGen
}

func newFixture(t *testing.T, syms *symtab.Table) *fixture {
	t.Helper()
	if syms == nil {
		syms = symtab.New()
	}
	file, _ := syms.InsertFile("MAIN.SC", symtab.FileMain, source.NoRange)
	stor, ok := storage.FromSymbols(syms, storage.Options{FirstIndex: 0, MaxIndex: 1023})
	if !ok {
		t.Fatal("storage assignment failed")
	}
	coll := diag.NewCollector()
	gen := New(NewEmitter(), reloc.New(), stor, diag.NewHandler(coll.Emit))
	return &fixture{syms: syms, file: file, storage: stor, coll: coll, gen: gen}
}

func TestWaitZeroEmitsOpcodeAndInt8(t *testing.T) {
	f := newFixture(t, nil)
	wait := makeCommand(t, "WAIT", 0x0001, true, cmdtable.ParamDef{Type: cmdtable.InputInt})

	list := semair.NewList()
	list.Append(nil, &semair.Command{Def: wait, Args: []semair.Argument{
		{Kind: semair.ArgInt, Int: 0},
	}})

	if !f.gen.GenerateFile(f.file, list) {
		t.Fatalf("GenerateFile failed: %+v", f.coll.Diagnostics())
	}
	want := []byte{0x01, 0x00, 0x04, 0x00}
	if got := f.gen.Emitter().Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
}

func TestNotFlagSetsOpcodeHighBit(t *testing.T) {
	f := newFixture(t, nil)
	cmd := makeCommand(t, "IS_THING", 0x0123, true)

	list := semair.NewList()
	list.Append(nil, &semair.Command{Def: cmd, NotFlag: true})

	f.gen.GenerateFile(f.file, list)
	want := []byte{0x23, 0x81}
	if got := f.gen.Emitter().Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
}

func TestIntegerWidthSelection(t *testing.T) {
	e := NewEmitter()
	e.EmitInt(0)       // i8
	e.EmitInt(200)     // i16
	e.EmitInt(-70000)  // i32
	want := []byte{
		0x04, 0x00,
		0x05, 0xC8, 0x00,
		0x01, 0x90, 0xEE, 0xFE, 0xFF,
	}
	if got := e.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
}

func TestQ11_4Encoding(t *testing.T) {
	cases := []struct {
		in   float64
		want uint16
	}{
		{1.0, 0x0010},
		{-1.0, 0xFFF0},
		{0.0625, 0x0001},
		{2047.9375, 0x7FFF},
		{-2048.0, 0x8000},
		{99999.0, 0x7FFF},  // clamped high
		{-99999.0, 0x8000}, // clamped low
		{1.03, 0x0010},     // truncated toward zero
		{-1.03, 0xFFF0},
	}
	for _, c := range cases {
		e := NewEmitter()
		e.EmitQ11_4(c.in)
		got := e.Bytes()
		if got[0] != 0x06 {
			t.Fatalf("%v: tag = %#x", c.in, got[0])
		}
		if v := uint16(got[1]) | uint16(got[2])<<8; v != c.want {
			t.Fatalf("%v: encoded = %#04x, want %#04x", c.in, v, c.want)
		}
	}
}

func TestGlobalVarEmitsByteOffset(t *testing.T) {
	syms := symtab.New()
	syms.InsertVar("A", symtab.GlobalScope, symtab.Int, 0, source.NoRange)
	x, _ := syms.InsertVar("X", symtab.GlobalScope, symtab.Int, 0, source.NoRange)
	f := newFixture(t, syms)
	set := makeCommand(t, "SET_VAR_INT", 0x0004, true,
		cmdtable.ParamDef{Type: cmdtable.VarInt}, cmdtable.ParamDef{Type: cmdtable.Int})

	list := semair.NewList()
	list.Append(nil, &semair.Command{Def: set, Args: []semair.Argument{
		{Kind: semair.ArgVarRef, Var: semair.VarRef{Var: x}},
		{Kind: semair.ArgInt, Int: 10},
	}})

	f.gen.GenerateFile(f.file, list)
	// X has storage index 1, so its byte offset is 4.
	want := []byte{0x04, 0x00, 0x02, 0x04, 0x00, 0x04, 0x0A}
	if got := f.gen.Emitter().Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
}

func TestLocalVarEmitsIndex(t *testing.T) {
	syms := symtab.New()
	scope := syms.NewScope()
	lv, _ := syms.InsertVar("L", scope, symtab.Int, 0, source.NoRange)
	f := newFixture(t, syms)
	cmd := makeCommand(t, "SET_LVAR_INT", 0x0006, true,
		cmdtable.ParamDef{Type: cmdtable.LvarInt}, cmdtable.ParamDef{Type: cmdtable.Int})

	list := semair.NewList()
	list.Append(nil, &semair.Command{Def: cmd, Args: []semair.Argument{
		{Kind: semair.ArgVarRef, Var: semair.VarRef{Var: lv}},
		{Kind: semair.ArgInt, Int: 1},
	}})

	f.gen.GenerateFile(f.file, list)
	want := []byte{0x06, 0x00, 0x03, 0x00, 0x00, 0x04, 0x01}
	if got := f.gen.Emitter().Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
}

func TestArraySubscriptOffsetsStorageIndex(t *testing.T) {
	syms := symtab.New()
	arr, _ := syms.InsertVar("ARR", symtab.GlobalScope, symtab.Int, 4, source.NoRange)
	f := newFixture(t, syms)
	set := makeCommand(t, "SET_VAR_INT", 0x0004, true,
		cmdtable.ParamDef{Type: cmdtable.VarInt}, cmdtable.ParamDef{Type: cmdtable.Int})

	list := semair.NewList()
	list.Append(nil, &semair.Command{Def: set, Args: []semair.Argument{
		{Kind: semair.ArgVarRef, Var: semair.VarRef{Var: arr, HasIndexLiteral: true, IndexLiteral: 2}},
		{Kind: semair.ArgInt, Int: 1},
	}})

	f.gen.GenerateFile(f.file, list)
	// ARR starts at index 0; element 2 sits at byte offset 8.
	want := []byte{0x04, 0x00, 0x02, 0x08, 0x00, 0x04, 0x01}
	if got := f.gen.Emitter().Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
}

func TestUsedObjectEncodesNegativeId(t *testing.T) {
	syms := symtab.New()
	obj, _ := syms.InsertUsedObject("BRIEFCASE", source.NoRange)
	f := newFixture(t, syms)
	cmd := makeCommand(t, "CREATE_OBJECT", 0x0107, true, cmdtable.ParamDef{Type: cmdtable.InputInt})

	list := semair.NewList()
	list.Append(nil, &semair.Command{Def: cmd, Args: []semair.Argument{
		{Kind: semair.ArgUsedObject, UsedObject: obj},
	}})

	f.gen.GenerateFile(f.file, list)
	want := []byte{0x07, 0x01, 0x04, 0xFF} // -(0+1) as i8
	if got := f.gen.Emitter().Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
}

func TestOptionalParamTerminatesWithEOAL(t *testing.T) {
	f := newFixture(t, nil)
	cmd := makeCommand(t, "START_NEW_SCRIPT", 0x004F, true,
		cmdtable.ParamDef{Type: cmdtable.Label}, cmdtable.ParamDef{Type: cmdtable.InputOpt})
	label, _ := f.syms.InsertLabel("SUB", symtab.GlobalScope, source.NoRange)

	list := semair.NewList()
	list.Append(nil, &semair.Command{Def: cmd, Args: []semair.Argument{
		{Kind: semair.ArgLabel, Label: label},
		{Kind: semair.ArgInt, Int: 5},
	}})
	list.Append(label, nil)

	if !f.gen.GenerateFile(f.file, list) {
		t.Fatalf("GenerateFile failed: %+v", f.coll.Diagnostics())
	}
	if !f.gen.Finish() {
		t.Fatalf("Finish failed: %+v", f.coll.Diagnostics())
	}

	got := f.gen.Emitter().Bytes()
	// opcode(2) + label i32 placeholder(5) + int8(2) + EOAL(1)
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10: % x", len(got), got)
	}
	if got[len(got)-1] != 0x00 {
		t.Fatalf("missing EOAL terminator: % x", got)
	}
	// The label sits right after the whole command (offset 10), and the
	// fixup patches the i32 payload at offset 3.
	if v := uint32(got[3]) | uint32(got[4])<<8 | uint32(got[5])<<16 | uint32(got[6])<<24; v != 10 {
		t.Fatalf("patched label offset = %d, want 10", v)
	}
}

func TestUnhandledCommandDiagnoses(t *testing.T) {
	f := newFixture(t, nil)
	cmd := makeCommand(t, "FUTURE_COMMAND", 0, false)

	list := semair.NewList()
	list.Append(nil, &semair.Command{Def: cmd})

	if f.gen.GenerateFile(f.file, list) {
		t.Fatal("GenerateFile should fail")
	}
	diags := f.coll.Diagnostics()
	if len(diags) != 1 || diags[0].Kind != diag.CodegenTargetDoesNotSupportCommand {
		t.Fatalf("diags = %+v", diags)
	}
}

func TestTextLabelEmitsPaddedRawBytes(t *testing.T) {
	f := newFixture(t, nil)
	cmd := makeCommand(t, "SCRIPT_NAME", 0x03A4, true, cmdtable.ParamDef{Type: cmdtable.TextLabel})

	list := semair.NewList()
	list.Append(nil, &semair.Command{Def: cmd, Args: []semair.Argument{
		{Kind: semair.ArgTextLabel, Text: "INTRO"},
	}})

	f.gen.GenerateFile(f.file, list)
	got := f.gen.Emitter().Bytes()
	want := append([]byte{0xA4, 0x03}, []byte("INTRO\x00\x00\x00")...)
	if !bytes.Equal(got, want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}
}
