// Package modeltable loads the external model/level files (spec §6):
// a level.dat listing .ide model-definition files, each of which names
// the in-game object models a script may reference. Sema consults the
// resulting Table when an INPUT_INT parameter's enumeration is MODEL.
package modeltable

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Table is the set of known model names, case-insensitive.
type Table struct {
	models map[string]uint32
}

// New constructs an empty model table.
func New() *Table {
	return &Table{models: make(map[string]uint32)}
}

// Insert registers a model name with its definition id. Reinsertion of
// an existing name keeps the first id.
func (t *Table) Insert(name string, id uint32) {
	key := strings.ToUpper(name)
	if _, ok := t.models[key]; ok {
		return
	}
	t.models[key] = id
}

// IsModel reports whether name is a known model. Implements
// sema.ModelLookup.
func (t *Table) IsModel(name string) bool {
	_, ok := t.models[strings.ToUpper(name)]
	return ok
}

// Find returns the definition id of a known model.
func (t *Table) Find(name string) (uint32, bool) {
	id, ok := t.models[strings.ToUpper(name)]
	return id, ok
}

// Len returns how many models are known.
func (t *Table) Len() int { return len(t.models) }

// Loader configures how level files are scanned.
type Loader struct {
	// ObjsOnly restricts .ide scanning to the objs/tobj/anim sections;
	// when false, every section yields models (spec §6).
	ObjsOnly bool
}

// alwaysReadable are the .ide sections that yield models regardless of
// ObjsOnly.
var alwaysReadable = map[string]bool{
	"objs": true, "tobj": true, "anim": true,
}

// LoadLevelFile parses a level.dat, loading every IDE file it lists
// (resolved relative to the level file's directory) into a fresh Table.
func (l Loader) LoadLevelFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table := New()
	dir := filepath.Dir(path)

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		// Lines not beginning with IDE are ignored (spec §6).
		if len(fields) < 2 || !strings.EqualFold(fields[0], "IDE") {
			continue
		}
		idePath := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(fields[1], `\`, "/")))
		if err := l.loadIDEFile(table, idePath); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

func (l Loader) loadIDEFile(table *Table, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return l.ScanIDE(table, f)
}

// ScanIDE reads one .ide document into table. The format is
// section-delimited: a line holding just a section name opens it, `end`
// closes it. Within a readable section, each line is `<id> <name> ...`
// with comma or whitespace separation; unparsable lines are skipped.
func (l Loader) ScanIDE(table *Table, r io.Reader) error {
	inSection := false
	readable := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !inSection {
			inSection = true
			section := strings.ToLower(line)
			readable = alwaysReadable[section] || !l.ObjsOnly
			continue
		}
		if strings.EqualFold(line, "end") {
			inSection = false
			continue
		}
		if !readable {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) < 2 {
			continue
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			continue
		}
		table.Insert(fields[1], uint32(id))
	}
	return sc.Err()
}
