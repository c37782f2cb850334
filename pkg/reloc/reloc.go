// Package reloc implements the Relocation Table (spec §4.6): it records
// where labels and file segments land in the final bytecode image during
// CodeGen, and where label/filename arguments need their placeholder
// payload patched once every file's offset is known.
package reloc

import (
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

type labelInfo struct {
	file   *symtab.FileSym
	offset int64
}

type fileInfo struct {
	offset int64
}

type fixup struct {
	label       *symtab.Label
	originFile  *symtab.FileSym
	refLoc      source.Location
	patchOffset int64
}

type fileFixup struct {
	file        *symtab.FileSym
	patchOffset int64
}

// Table accumulates label/file definitions and fixups during CodeGen and
// resolves them in one pass once every file has been emitted.
type Table struct {
	labels     map[*symtab.Label]labelInfo
	files      map[*symtab.FileSym]fileInfo
	fixups     []fixup
	fileFixups []fileFixup
}

// New constructs an empty relocation table.
func New() *Table {
	return &Table{
		labels: make(map[*symtab.Label]labelInfo),
		files:  make(map[*symtab.FileSym]fileInfo),
	}
}

// InsertLabel records a label's definition point. Idempotent: reinserting
// the same (file, offset) pair for a label already recorded is a no-op;
// reinserting a differing value is a precondition violation (spec §4.6),
// since a label can only ever be defined once (Sema already enforces
// uniqueness — reaching this indicates an internal compiler error).
func (t *Table) InsertLabel(label *symtab.Label, file *symtab.FileSym, offset int64) {
	if existing, ok := t.labels[label]; ok {
		if existing.file != file || existing.offset != offset {
			panic("reloc: conflicting definition for label " + label.Name())
		}
		return
	}
	t.labels[label] = labelInfo{file: file, offset: offset}
}

// InsertFile records a file segment's load offset within the final image.
func (t *Table) InsertFile(file *symtab.FileSym, offset int64) {
	if existing, ok := t.files[file]; ok {
		if existing.offset != offset {
			panic("reloc: conflicting offset for file " + file.Name())
		}
		return
	}
	t.files[file] = fileInfo{offset: offset}
}

// AddFixup registers a bytecode site that must be patched, once relocation
// runs, with label's resolved offset relative to originFile (spec §4.6's
// Fixup record). refLoc is the source location of the referencing
// argument, used only for diagnostics.
func (t *Table) AddFixup(label *symtab.Label, originFile *symtab.FileSym, refLoc source.Location, patchOffset int64) {
	t.fixups = append(t.fixups, fixup{label: label, originFile: originFile, refLoc: refLoc, patchOffset: patchOffset})
}

// AddFileFixup registers a bytecode site that must be patched with file's
// absolute load offset (spec §4.6's FileFixup record).
func (t *Table) AddFileFixup(file *symtab.FileSym, patchOffset int64) {
	t.fileFixups = append(t.fileFixups, fileFixup{file: file, patchOffset: patchOffset})
}

// Patch is one resolved fixup: the byte offset within the final image to
// overwrite, and the little-endian i32 value to write there.
type Patch struct {
	PatchOffset int64
	Value       int32
}

// Relocate resolves every accumulated fixup against the label/file
// definitions recorded so far (spec §4.6's relocation rule), reporting a
// diagnostic and omitting the patch for any fixup that violates a
// constraint. Returns false if any diagnostic was reported.
func (t *Table) Relocate(handler *diag.Handler) ([]Patch, bool) {
	ok := true
	var patches []Patch

	for _, fx := range t.fixups {
		info, known := t.labels[fx.label]
		if !known {
			handler.Report(fx.refLoc, diag.UndefinedLabel).Args(diag.StrArg(fx.label.Name())).Emit()
			ok = false
			continue
		}

		if info.file.Kind() == symtab.FileMission {
			if fx.originFile != info.file {
				handler.Report(fx.refLoc, diag.CodegenLabelRefAcrossSegments).Args(diag.StrArg(fx.label.Name())).Emit()
				ok = false
				continue
			}
			fileOff := t.files[info.file].offset
			rel := -(info.offset - fileOff)
			if rel == 0 {
				handler.Report(fx.refLoc, diag.CodegenLabelAtLocalZeroOffset).Args(diag.StrArg(fx.label.Name())).Emit()
				ok = false
				continue
			}
			patches = append(patches, Patch{PatchOffset: fx.patchOffset, Value: int32(rel)})
			continue
		}

		patches = append(patches, Patch{PatchOffset: fx.patchOffset, Value: int32(info.offset)})
	}

	for _, fx := range t.fileFixups {
		info, known := t.files[fx.file]
		if !known {
			handler.Report(source.NoLocation, diag.InternalCompilerError).Args(diag.StrArg(fx.file.Name())).Emit()
			ok = false
			continue
		}
		patches = append(patches, Patch{PatchOffset: fx.patchOffset, Value: int32(info.offset)})
	}

	return patches, ok
}
