package codegen

import (
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/reloc"
	"github.com/thelink2012/gta3sc-sub000/pkg/semair"
	"github.com/thelink2012/gta3sc-sub000/pkg/storage"
	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

// CodeGen drives Emitter across one or more files' Sema-IR, accumulating
// label/file definitions and fixups into a shared reloc.Table (spec §4.7).
// Construct one CodeGen per link (i.e. per output image) and call
// GenerateFile once per input file, in link order, so that file offsets
// land correctly in the shared Emitter.
type CodeGen struct {
	emitter *Emitter
	reloc   *reloc.Table
	storage *storage.Table
	handler *diag.Handler
}

// New constructs a CodeGen writing into emitter, recording relocations
// into relocTable, resolving variable storage through storageTable, and
// reporting diagnostics to handler.
func New(emitter *Emitter, relocTable *reloc.Table, storageTable *storage.Table, handler *diag.Handler) *CodeGen {
	return &CodeGen{emitter: emitter, reloc: relocTable, storage: storageTable, handler: handler}
}

// Emitter returns the underlying byte emitter, e.g. for Bytes()/Patch()
// once the whole link has run.
func (g *CodeGen) Emitter() *Emitter { return g.emitter }

// GenerateFile emits every line of list as part of file's segment,
// recording file's load offset and each label's definition offset into
// the relocation table. Returns false if any command could not be
// emitted (spec §7: CodeGen errors return immediately for that command,
// but GenerateFile continues emitting the rest of the file so a single
// bad command doesn't corrupt every subsequent offset).
func (g *CodeGen) GenerateFile(file *symtab.FileSym, list *semair.List) bool {
	g.reloc.InsertFile(file, g.emitter.Offset())

	ok := true
	list.Each(func(line *semair.Line) {
		if line.Label != nil {
			g.reloc.InsertLabel(line.Label, file, g.emitter.Offset())
		}
		if line.Cmd != nil {
			if !g.generateCommand(file, line.Cmd) {
				ok = false
			}
		}
	})
	return ok
}

func (g *CodeGen) generateCommand(file *symtab.FileSym, cmd *semair.Command) bool {
	targetID, has := cmd.Def.TargetID()
	if !has || !cmd.Def.TargetHandled() {
		g.handler.Report(cmd.Span.Begin, diag.CodegenTargetDoesNotSupportCommand).
			Args(diag.StrArg(cmd.Def.Name())).Range(cmd.Span).Emit()
		return false
	}

	g.emitter.EmitOpcode(uint16(targetID), cmd.NotFlag)
	for _, arg := range cmd.Args {
		g.generateArg(file, arg)
	}
	if cmd.Def.HasOptionalParam() {
		g.emitter.EmitEOAL()
	}
	return true
}

func (g *CodeGen) generateArg(file *symtab.FileSym, arg semair.Argument) {
	switch arg.Kind {
	case semair.ArgInt:
		g.emitter.EmitInt(int32(arg.Int))
	case semair.ArgFloat:
		g.emitter.EmitQ11_4(arg.Float)
	case semair.ArgConstant:
		g.emitter.EmitInt(arg.Constant.Value())
	case semair.ArgTextLabel:
		g.emitter.EmitRawBytes([]byte(arg.Text), TextLabelSize)
	case semair.ArgString:
		g.emitter.EmitRawBytes([]byte(arg.Text), StringSize)
	case semair.ArgLabel:
		payload := g.emitter.EmitI32(0)
		g.reloc.AddFixup(arg.Label, file, arg.Span.Begin, payload)
	case semair.ArgFile:
		payload := g.emitter.EmitI32(0)
		g.reloc.AddFileFixup(arg.File, payload)
	case semair.ArgUsedObject:
		g.emitter.EmitInt(-(int32(arg.UsedObject.ID()) + 1))
	case semair.ArgVarRef:
		g.generateVarRef(arg.Var)
	}
}

func (g *CodeGen) generateVarRef(ref semair.VarRef) {
	index, _ := g.storage.Index(ref.Var)
	if ref.HasIndexLiteral {
		elem := 1
		if ref.Var.Type() == symtab.TextLabel {
			elem = 2
		}
		index += int(ref.IndexLiteral) * elem
	}
	if ref.Var.Scope() == symtab.GlobalScope {
		g.emitter.EmitVar(uint16(index * 4))
		return
	}
	g.emitter.EmitLvar(uint16(index))
}

// Finish runs relocation over every fixup accumulated so far and patches
// the emitter's buffer in place. Call once after every file has been
// generated. Returns false if relocation reported any diagnostic.
func (g *CodeGen) Finish() bool {
	patches, ok := g.reloc.Relocate(g.handler)
	for _, p := range patches {
		g.emitter.Patch(p.PatchOffset, p.Value)
	}
	return ok
}
