package lexer

import (
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
)

// Preprocessor is a single-pass character stream over a loaded file (spec
// §4.1). It normalises line endings, strips comments (replacing them with
// whitespace so that downstream locations keep indexing into the original
// file), and collapses whitespace-class runs to a single space, trimming
// leading and trailing whitespace on each logical line.
type Preprocessor struct {
	file        *source.File
	data        []byte
	pos         int
	atLineStart bool
	handler     *diag.Handler
}

// NewPreprocessor constructs a preprocessor over a loaded source file.
// Diagnostics (unterminated_comment, invalid_char) are reported to
// handler.
func NewPreprocessor(file *source.File, handler *diag.Handler) *Preprocessor {
	return &Preprocessor{file: file, data: file.Contents(), atLineStart: true, handler: handler}
}

// Snapshot captures enough state to rewind the preprocessor, used by the
// parser's line-level lookahead.
type Snapshot struct {
	pos         int
	atLineStart bool
}

// Tell captures the current preprocessor state.
func (p *Preprocessor) Tell() Snapshot {
	return Snapshot{pos: p.pos, atLineStart: p.atLineStart}
}

// Seek restores a previously captured state.
func (p *Preprocessor) Seek(s Snapshot) {
	p.pos = s.pos
	p.atLineStart = s.atLineStart
}

// Eof reports whether every character has been consumed.
func (p *Preprocessor) Eof() bool {
	return p.pos >= len(p.data)
}

// Location returns the source location of the next character Next() will
// return (or would start consuming, for a collapsed whitespace run).
func (p *Preprocessor) Location() source.Location {
	return p.file.LocationOf(p.pos)
}

// isWhitespaceClass matches spaces, tabs and the parenthesis/comma
// separators GTA3script treats as equivalent to whitespace between
// tokens.
func isWhitespaceClass(c byte) bool {
	return c == ' ' || c == '\t' || c == '(' || c == ')' || c == ','
}

func (p *Preprocessor) peekAt(offset int) byte {
	if p.pos+offset >= len(p.data) {
		return 0
	}
	return p.data[p.pos+offset]
}

// Next returns the next logical character, or 0 at end-of-file.
func (p *Preprocessor) Next() byte {
	for {
		if p.pos >= len(p.data) {
			return 0
		}
		c := p.data[p.pos]

		switch {
		case c == '\r':
			p.pos++
			if p.pos < len(p.data) && p.data[p.pos] == '\n' {
				p.pos++
			}
			p.atLineStart = true
			return '\n'
		case c == '\n':
			p.pos++
			p.atLineStart = true
			return '\n'
		case c == '/' && p.peekAt(1) == '/':
			p.skipLineComment()
			continue
		case c == '/' && p.peekAt(1) == '*':
			if !p.skipBlockComment() {
				p.pos = len(p.data)
				return 0
			}
			continue
		case isWhitespaceClass(c):
			wasLineStart := p.atLineStart
			p.skipWhitespaceRun()
			if p.pos >= len(p.data) || p.data[p.pos] == '\n' || p.data[p.pos] == '\r' {
				continue // trailing whitespace before EOF/newline: dropped entirely
			}
			if wasLineStart {
				continue // leading whitespace of the line: dropped entirely
			}
			return ' '
		case c < 9 || c == 11 || c == 12 || (c > 13 && c < 32) || c > 126:
			loc := p.file.LocationOf(p.pos)
			if p.handler != nil {
				p.handler.Report(loc, diag.InvalidChar).Emit()
			}
			p.pos++
			continue
		default:
			p.atLineStart = false
			p.pos++
			return c
		}
	}
}

// skipWhitespaceRun consumes every contiguous whitespace-class character
// and any comment embedded within the run (a comment surrounded by
// whitespace is itself whitespace-equivalent), stopping at the first
// non-whitespace, non-comment character, a newline, or end-of-file.
func (p *Preprocessor) skipWhitespaceRun() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case isWhitespaceClass(c):
			p.pos++
		case c == '/' && p.peekAt(1) == '/':
			p.skipLineComment()
		case c == '/' && p.peekAt(1) == '*':
			if !p.skipBlockComment() {
				p.pos = len(p.data)
				return
			}
		default:
			return
		}
	}
}

// skipLineComment advances past a `//` comment up to (but not including)
// the line terminator or end-of-file.
func (p *Preprocessor) skipLineComment() {
	p.pos += 2
	for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
		p.pos++
	}
}

// skipBlockComment advances past a `/* ... */` comment, honouring
// arbitrary nesting depth and spanning newlines transparently (the
// comment, including any embedded newlines, is whitespace-equivalent and
// never produces end_of_line tokens). Returns false, having reported
// unterminated_comment, if end-of-file is reached before the comment
// closes.
func (p *Preprocessor) skipBlockComment() bool {
	start := p.file.LocationOf(p.pos)
	p.pos += 2
	depth := 1
	for depth > 0 {
		if p.pos >= len(p.data) {
			if p.handler != nil {
				p.handler.Report(start, diag.UnterminatedComment).Emit()
			}
			return false
		}
		switch {
		case p.data[p.pos] == '/' && p.peekAt(1) == '*':
			depth++
			p.pos += 2
		case p.data[p.pos] == '*' && p.peekAt(1) == '/':
			depth--
			p.pos += 2
		default:
			p.pos++
		}
	}
	return true
}
