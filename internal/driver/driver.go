// Package driver wires the compiler stages into a pipeline (spec §2):
// source loading, parsing, the control-flow rewrite, semantic analysis,
// storage assignment, code generation and relocation. It owns the policy
// decisions the core leaves open: how required files are found on disk,
// in which order segments are linked, and when a failing phase stops the
// pipeline.
package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/thelink2012/gta3sc-sub000/pkg/cmdtable"
	"github.com/thelink2012/gta3sc-sub000/pkg/codegen"
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/lexer"
	"github.com/thelink2012/gta3sc-sub000/pkg/parser"
	"github.com/thelink2012/gta3sc-sub000/pkg/parserir"
	"github.com/thelink2012/gta3sc-sub000/pkg/reloc"
	"github.com/thelink2012/gta3sc-sub000/pkg/sema"
	"github.com/thelink2012/gta3sc-sub000/pkg/semair"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
	"github.com/thelink2012/gta3sc-sub000/pkg/storage"
	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

// Config carries everything a compilation needs besides the inputs.
type Config struct {
	// Commands is the frozen command database.
	Commands *cmdtable.Table
	// Models answers model-name lookups; may be nil.
	Models sema.ModelLookup
	// Storage configures variable index assignment.
	Storage storage.Options
}

// DefaultStorageOptions pins the timers at indices 16 and 17 of every
// scope and bounds every scope, local ones included, by the same
// MaxIndex; a local scope is not limited to the 16 slots below the timers.
func DefaultStorageOptions() storage.Options {
	return storage.Options{
		FirstIndex: 0,
		MaxIndex:   16383,
		Timers: map[int]string{
			16: symtab.TimerAName,
			17: symtab.TimerBName,
		},
	}
}

// CompiledFile is one input file carried through the pipeline.
type CompiledFile struct {
	Source   *source.File
	Sym      *symtab.FileSym
	ParserIR *parserir.List
	SemaIR   *semair.List
}

// Result is a successful (or partially successful, for Check) run.
type Result struct {
	Files   []*CompiledFile
	Symbols *symtab.Table
	Image   []byte
}

// Driver runs compilations against one Config.
type Driver struct {
	cfg     Config
	mgr     *source.Manager
	handler *diag.Handler
}

// New constructs a driver reporting diagnostics to handler.
func New(cfg Config, handler *diag.Handler) *Driver {
	return &Driver{cfg: cfg, mgr: source.NewManager(), handler: handler}
}

// SourceManager exposes the manager owning every loaded file, e.g. for
// rendering diagnostics afterwards.
func (d *Driver) SourceManager() *source.Manager { return d.mgr }

// Close releases the loaded source files.
func (d *Driver) Close() error { return d.mgr.Close() }

// Compile runs the full pipeline over mainPath and every script file it
// (transitively) requires, producing the linked bytecode image.
func (d *Driver) Compile(mainPath string) (*Result, error) {
	return d.run(mainPath, true)
}

// Check runs parsing and semantic analysis only.
func (d *Driver) Check(mainPath string) (*Result, error) {
	return d.run(mainPath, false)
}

func (d *Driver) run(mainPath string, generate bool) (*Result, error) {
	before := d.handler.Count()

	files, err := d.parseProgram(mainPath)
	if err != nil {
		return nil, err
	}

	symbols := symtab.New()
	for _, f := range files {
		f.Sym, _ = symbols.InsertFile(filepath.Base(f.Source.Name()), fileSymKind(f.Source.Kind()), source.NoRange)
	}

	// Sema still runs after parse errors, so every diagnostic the input
	// deserves gets reported in one go; only code generation requires a
	// clean front-end.
	s := sema.New(d.handler, d.cfg.Commands, symbols, d.cfg.Models)
	for _, f := range files {
		s.DiscoverFile(f.Sym, f.ParserIR)
	}
	for _, f := range files {
		f.SemaIR, _ = s.CheckFile(f.Sym, f.ParserIR)
	}
	log.Debugf("sema finished with %d report(s)", s.ReportCount())

	result := &Result{Files: files, Symbols: symbols}
	if d.handler.Count() != before {
		return result, errors.New("compilation failed due to previous errors")
	}
	if !generate {
		return result, nil
	}

	stor, ok := storage.FromSymbols(symbols, d.cfg.Storage)
	if !ok {
		return result, errors.New("variable storage exhausted")
	}

	emitter := codegen.NewEmitter()
	relocs := reloc.New()
	gen := codegen.New(emitter, relocs, stor, d.handler)
	genOK := true
	for _, f := range files {
		log.Debugf("generating %s at offset %d", f.Sym.Name(), emitter.Offset())
		if !gen.GenerateFile(f.Sym, f.SemaIR) {
			genOK = false
		}
	}
	if !gen.Finish() || !genOK {
		return result, errors.New("code generation failed")
	}

	result.Image = emitter.Bytes()
	return result, nil
}

// parseProgram loads and parses mainPath plus every file its require
// statements pull in, in discovery order (main first, then each required
// file as first referenced).
func (d *Driver) parseProgram(mainPath string) ([]*CompiledFile, error) {
	var files []*CompiledFile
	var errs error

	mainFile, err := d.mgr.LoadFile(mainPath, source.FileMain)
	if err != nil {
		return nil, err
	}
	files = append(files, d.parseFile(mainFile))

	dir := filepath.Dir(mainPath)
	seen := map[string]bool{symtab.Upper(filepath.Base(mainPath)): true}

	// Breadth-first over require statements; files never load twice.
	for i := 0; i < len(files); i++ {
		for _, req := range requiredFiles(files[i].ParserIR) {
			key := symtab.Upper(req.name)
			if seen[key] {
				continue
			}
			seen[key] = true

			path, findErr := findFileInsensitive(dir, req.name)
			if findErr != nil {
				errs = multierr.Append(errs, findErr)
				continue
			}
			f, loadErr := d.mgr.LoadFile(path, req.kind)
			if loadErr != nil {
				errs = multierr.Append(errs, loadErr)
				continue
			}
			log.Debugf("loaded %s (%d bytes)", path, len(f.Contents()))
			files = append(files, d.parseFile(f))
		}
	}

	return files, errs
}

func (d *Driver) parseFile(f *source.File) *CompiledFile {
	pp := lexer.NewPreprocessor(f, d.handler)
	p := parser.New(lexer.NewScanner(pp, d.handler), d.handler)
	var ir *parserir.List
	if f.Kind() == source.FileMain || f.Kind() == source.FileMainExtension {
		ir = p.ParseMainFile()
	} else {
		ir = p.ParseSubscriptFile()
	}
	return &CompiledFile{Source: f, ParserIR: parserir.Rewrite(ir)}
}

type requirement struct {
	name string
	kind source.FileKind
}

// requiredFiles scans Parser-IR for the three require statements and
// returns the filenames they pull in.
func requiredFiles(ir *parserir.List) []requirement {
	var reqs []requirement
	ir.Each(func(line *parserir.Line) {
		if line.Cmd == nil {
			return
		}
		var kind source.FileKind
		switch line.Cmd.Name {
		case "GOSUB_FILE":
			kind = source.FileSubscript
		case "LAUNCH_MISSION", "LOAD_AND_LAUNCH_MISSION":
			kind = source.FileMission
		default:
			return
		}
		for _, arg := range line.Cmd.Args {
			if arg.Kind == parserir.ArgFilename {
				reqs = append(reqs, requirement{name: arg.Text, kind: kind})
			}
		}
	})
	return reqs
}

// findFileInsensitive locates name within dir, matching case-insensitively
// since scripts reference each other with arbitrary letter-case.
func findFileInsensitive(dir, name string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), name) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", &os.PathError{Op: "open", Path: filepath.Join(dir, name), Err: os.ErrNotExist}
}

func fileSymKind(k source.FileKind) symtab.FileKind {
	switch k {
	case source.FileMainExtension:
		return symtab.FileMainExtension
	case source.FileSubscript:
		return symtab.FileSubscript
	case source.FileMission:
		return symtab.FileMission
	default:
		return symtab.FileMain
	}
}
