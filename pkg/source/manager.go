// Package source manages loaded source files and assigns each of their
// bytes a monotonic Location, so that every later compiler stage can refer
// to source text by a small value instead of carrying strings around.
package source

import (
	"os"
	"strings"

	mmap "github.com/edsrzf/mmap-go"
	"go.uber.org/atomic"
)

// Manager owns the set of loaded source files and the Location address
// space they occupy. The next-location cursor is atomic, but the file list
// and name index are not guarded, so a Manager is not safe for concurrent
// LoadFile or LoadBytes calls.
type Manager struct {
	files    []*File
	byLoc    []*File // parallel to files, sorted by StartLoc for LocationFile lookups
	nextLoc  atomic.Uint32
	nameToID map[string]int
}

// NewManager constructs an empty source manager. Location 1 is the first
// location to be handed out; 0 is reserved as NoLocation.
func NewManager() *Manager {
	m := &Manager{nameToID: make(map[string]int)}
	m.nextLoc.Store(1)
	return m
}

// FileKind classifies how a loaded file participates in the link.
type FileKind uint8

const (
	// FileMain is the entry main.sc file.
	FileMain FileKind = iota
	// FileMainExtension is a file merged into the main segment (.sc loaded
	// via a "require"-like directive from the main file).
	FileMainExtension
	// FileSubscript is a secondary script loaded with GOSUB_FILE.
	FileSubscript
	// FileMission is a mission script loaded with LAUNCH_MISSION or
	// LOAD_AND_LAUNCH_MISSION.
	FileMission
)

// File is a handle to a loaded source file's bytes and its Location range.
type File struct {
	name     string
	kind     FileKind
	contents []byte
	start    Location
	mapped   mmap.MMap // non-nil when contents was memory-mapped; needs Unmap
}

// Name returns the filename this source file was loaded from.
func (f *File) Name() string { return f.name }

// Kind returns how this file participates in the link.
func (f *File) Kind() FileKind { return f.kind }

// Contents returns the raw bytes of this source file.
func (f *File) Contents() []byte { return f.contents }

// Start returns the location of the first byte of this file.
func (f *File) Start() Location { return f.start }

// End returns the location one past the last byte of this file.
func (f *File) End() Location { return f.start.Add(len(f.contents)) }

// LocationOf returns the Location of the byte at the given offset into
// this file.
func (f *File) LocationOf(offset int) Location { return f.start.Add(offset) }

// View returns the slice of this file's contents covered by a Location
// range already known to lie within this file (see Manager.View for the
// general-purpose form which finds the owning file automatically).
func (f *File) View(r Range) []byte {
	lo := r.Begin.Sub(f.start)
	hi := r.End.Sub(f.start)
	return f.contents[lo:hi]
}

// LoadBytes registers an in-memory buffer as a new source file. Used by
// tests and by callers that already have file contents in hand (e.g. a
// synthesized subscript).
func (m *Manager) LoadBytes(name string, kind FileKind, data []byte) *File {
	after := m.nextLoc.Add(uint32(len(data)) + 1)
	start := Location(after - uint32(len(data)) - 1)
	f := &File{name: name, kind: kind, contents: data, start: start}
	m.nameToID[name] = len(m.files)
	m.files = append(m.files, f)
	return f
}

// LoadFile memory-maps a file from disk and registers it as a new source
// file. Falls back to a plain read for empty files and for filesystems
// where mmap is unsupported (e.g. certain virtual filesystems), since
// mmap.Map rejects a zero-length mapping.
func (m *Manager) LoadFile(path string, kind FileKind) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, err
	}

	if info.Size() == 0 {
		return m.LoadBytes(path, kind, nil), nil
	}

	mapped, err := mmap.Map(fh, mmap.RDONLY, 0)
	if err != nil {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, err
		}
		return m.LoadBytes(path, kind, data), nil
	}

	after := m.nextLoc.Add(uint32(len(mapped)) + 1)
	start := Location(after - uint32(len(mapped)) - 1)
	f := &File{name: path, kind: kind, contents: []byte(mapped), start: start, mapped: mapped}
	m.nameToID[path] = len(m.files)
	m.files = append(m.files, f)
	return f, nil
}

// Close unmaps every memory-mapped file owned by this manager.
func (m *Manager) Close() error {
	var first error
	for _, f := range m.files {
		if f.mapped != nil {
			if err := f.mapped.Unmap(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Files returns every file loaded so far, in load order.
func (m *Manager) Files() []*File {
	return m.files
}

// FindByName returns the previously loaded file of the given name, if any.
func (m *Manager) FindByName(name string) (*File, bool) {
	if i, ok := m.nameToID[name]; ok {
		return m.files[i], true
	}
	return nil, false
}

// FileAt returns the file owning the given location, or nil if it falls
// outside every loaded file (e.g. NoLocation).
func (m *Manager) FileAt(loc Location) *File {
	for _, f := range m.files {
		if loc >= f.Start() && loc < f.End() {
			return f
		}
		// A location exactly at end-of-file (e.g. EOF marker) still
		// belongs to that file.
		if loc == f.End() {
			return f
		}
	}
	return nil
}

// View returns the text spanned by r, locating the owning file
// automatically. Returns nil if no loaded file contains the range.
func (m *Manager) View(r Range) []byte {
	f := m.FileAt(r.Begin)
	if f == nil {
		return nil
	}
	return f.View(r)
}

// LineCol maps a Location back to a 1-based line and column within its
// owning file, for presenting diagnostics to a human.
func (m *Manager) LineCol(loc Location) (file string, line, col int) {
	f := m.FileAt(loc)
	if f == nil {
		return "", 0, 0
	}
	offset := loc.Sub(f.Start())
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.contents) {
		offset = len(f.contents)
	}
	text := string(f.contents[:offset])
	line = strings.Count(text, "\n") + 1
	if idx := strings.LastIndexByte(text, '\n'); idx >= 0 {
		col = offset - idx
	} else {
		col = offset + 1
	}
	return f.name, line, col
}
