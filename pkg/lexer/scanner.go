package lexer

import (
	"strings"

	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
)

// Scanner turns a Preprocessor's character stream into a Token stream
// (spec §4.2). It runs in one of two modes:
//
//   - statement mode: no operator tokens exist; `+`, `-`, `*`, `=`, `<`,
//     `>` are ordinary graph characters that join into word lexemes.
//   - expression mode: operator characters form their own tokens, so
//     that `x += 1`-shaped lines can be recognised.
//
// Because both kinds of line start identically, the scanner performs a
// speculative line-level lookahead: snapshot the stream, tokenize up to
// six tokens in expression mode, and check them against the expression
// patterns. A match is queued for draining by Next(); a miss rewinds the
// stream and the rest of the line scans in statement mode.
type Scanner struct {
	pp      *Preprocessor
	handler *diag.Handler

	havePeek bool
	peekChar byte
	peekLoc  source.Location

	lineStarted bool
	queued      []Token
}

// NewScanner constructs a scanner over pp, reporting lexical diagnostics
// to handler.
func NewScanner(pp *Preprocessor, handler *diag.Handler) *Scanner {
	return &Scanner{pp: pp, handler: handler}
}

type mode uint8

const (
	modeStatement mode = iota
	modeExpression
)

// ScannerSnapshot captures Scanner state for the line-level lookahead's
// restore-on-mismatch path.
type ScannerSnapshot struct {
	pp       Snapshot
	havePeek bool
	peekChar byte
	peekLoc  source.Location
}

// Tell captures the current scanner state. Only valid to call between
// lines (no queued expression tokens pending).
func (s *Scanner) Tell() ScannerSnapshot {
	return ScannerSnapshot{pp: s.pp.Tell(), havePeek: s.havePeek, peekChar: s.peekChar, peekLoc: s.peekLoc}
}

// Seek restores a previously captured state.
func (s *Scanner) Seek(snap ScannerSnapshot) {
	s.pp.Seek(snap.pp)
	s.havePeek = snap.havePeek
	s.peekChar = snap.peekChar
	s.peekLoc = snap.peekLoc
	s.queued = nil
}

func (s *Scanner) peek() (byte, source.Location) {
	if !s.havePeek {
		s.peekLoc = s.pp.Location()
		s.peekChar = s.pp.Next()
		s.havePeek = true
	}
	return s.peekChar, s.peekLoc
}

func (s *Scanner) advance() (byte, source.Location) {
	c, loc := s.peek()
	s.havePeek = false
	return c, loc
}

// Eof reports whether the scanner has nothing left to return: no queued
// expression tokens and the underlying stream is exhausted.
func (s *Scanner) Eof() bool {
	if len(s.queued) > 0 {
		return false
	}
	c, _ := s.peek()
	return c == 0 && s.pp.Eof()
}

// Next returns the next token, resolving the statement/expression
// ambiguity at the start of every line.
func (s *Scanner) Next() Token {
	if len(s.queued) > 0 {
		t := s.queued[0]
		s.queued = s.queued[1:]
		if t.Kind == EndOfLine {
			s.lineStarted = false
		}
		return t
	}
	if !s.lineStarted {
		s.lineStarted = true
		if s.tryExpressionLine() && len(s.queued) > 0 {
			t := s.queued[0]
			s.queued = s.queued[1:]
			return t
		}
	}
	tok := s.scanMeaningful(modeStatement)
	if tok.Kind == EndOfLine || tok.Kind == EOF {
		s.lineStarted = false
	}
	return tok
}

// NextFilename scans the next whitespace-delimited word as a filename
// lexeme (spec §4.2), regardless of scanning mode. Used by the parser
// when a command parameter is known to expect a bare filename, e.g.
// GOSUB_FILE's second argument.
func (s *Scanner) NextFilename() Token {
	// A single interior space, if any, separates this from the previous
	// token; the preprocessor never emits leading/trailing runs.
	if c, _ := s.peek(); c == ' ' {
		s.advance()
	}
	_, startLoc := s.peek()
	var sb strings.Builder
	for {
		c, _ := s.peek()
		if c == 0 || c == '\n' || c == ' ' {
			break
		}
		s.advance()
		sb.WriteByte(c)
	}
	_, endLoc := s.peek()
	text := sb.String()
	span := source.NewRange(startLoc, endLoc)
	if !hasFilenameSuffix(text) {
		s.handler.Report(startLoc, diag.InvalidFilename).Range(span).Emit()
	}
	return Token{Kind: Filename, Span: span, Text: text}
}

func hasFilenameSuffix(text string) bool {
	if len(text) < 3 {
		return false
	}
	suffix := text[len(text)-3:]
	return suffix[0] == '.' && (suffix[1] == 's' || suffix[1] == 'S') && (suffix[2] == 'c' || suffix[2] == 'C')
}

// scanMeaningful scans tokens, discarding Whitespace, until it produces
// one that carries semantic content (or EndOfLine/EOF).
func (s *Scanner) scanMeaningful(m mode) Token {
	for {
		t := s.scanOne(m)
		if t.Kind != Whitespace {
			return t
		}
	}
}

// tryExpressionLine performs the line-level speculative pass (spec
// §4.2): it tokenizes in expression mode and checks the result against
// the four expression patterns, queuing a match or rewinding on a miss.
//
// A label definition may precede the expression, and the conditional
// keywords (IF/IFNOT/WHILE/WHILENOT, or AND/OR continuing a condition
// list, each optionally followed by NOT) introduce a condition position
// where a relational expression may stand, optionally trailed by `GOTO
// label` on IF/IFNOT lines.
func (s *Scanner) tryExpressionLine() (matched bool) {
	// Lexical diagnostics are held back while speculating and replayed
	// only on a match, since a miss rescans (and re-reports) the line.
	real, held := s.handler, diag.NewCollector()
	s.handler = diag.NewHandler(held.Emit)
	defer func() {
		if s.handler = real; !matched {
			return
		}
		for _, d := range held.Diagnostics() {
			b := real.Report(d.Location, d.Kind).Args(d.Args...)
			for _, r := range d.Ranges {
				b = b.Range(r)
			}
			b.Emit()
		}
	}()

	snap := s.Tell()
	var prefix []Token

	t1 := s.scanMeaningful(modeExpression)

	if t1.Kind == Word && len(t1.Text) > 1 && strings.HasSuffix(t1.Text, ":") {
		prefix = append(prefix, t1)
		t1 = s.scanMeaningful(modeExpression)
	}

	if t1.Kind == Word {
		condCtx, allowGoto := false, false
		switch strings.ToUpper(t1.Text) {
		case "IF", "IFNOT":
			condCtx, allowGoto = true, true
		case "WHILE", "WHILENOT", "AND", "OR":
			condCtx = true
		}
		if condCtx {
			prefix = append(prefix, t1)
			t := s.scanMeaningful(modeExpression)
			if t.Kind == Word && strings.EqualFold(t.Text, "NOT") {
				prefix = append(prefix, t)
				t = s.scanMeaningful(modeExpression)
			}
			return s.tryConditionLine(snap, prefix, t, allowGoto)
		}
	}

	if t1.Kind == EndOfLine || t1.Kind == EOF {
		s.Seek(snap)
		return false
	}

	switch {
	case t1.Kind.IsUnaryOp():
		t2 := s.scanMeaningful(modeExpression)
		if t2.Kind.IsArgument() {
			s.queued = append(prefix, t1, t2)
			return true
		}

	case t1.Kind.IsArgument():
		t2 := s.scanMeaningful(modeExpression)
		switch {
		case t2.Kind.IsUnaryOp():
			s.queued = append(prefix, t1, t2)
			return true

		case t2.Kind.IsAssignmentOp():
			t3 := s.scanMeaningful(modeExpression)
			if !t3.Kind.IsArgument() {
				break
			}
			if t2.Kind == Equal {
				ternarySnap := s.Tell()
				t4 := s.scanMeaningful(modeExpression)
				if t4.Kind.IsBinaryOp() {
					t5 := s.scanMeaningful(modeExpression)
					if t5.Kind.IsArgument() {
						s.queued = append(prefix, t1, t2, t3, t4, t5)
						return true
					}
				}
				s.Seek(ternarySnap)
			}
			s.queued = append(prefix, t1, t2, t3)
			return true

		case t2.Kind.IsRelationalOp():
			t3 := s.scanMeaningful(modeExpression)
			if t3.Kind.IsArgument() {
				s.queued = append(prefix, t1, t2, t3)
				return true
			}
		}
	}

	s.Seek(snap)
	return false
}

// tryConditionLine continues the speculative pass inside a condition
// position: a run of up to six meaningful tokens that must contain at
// least one operator, terminated by end-of-line or (on IF/IFNOT lines)
// by `GOTO label`. The prefix tokens (keyword, optional NOT, optional
// label) are queued ahead of the expression tokens on a match; a plain
// command condition has no operator tokens and rewinds to statement
// mode.
func (s *Scanner) tryConditionLine(snap ScannerSnapshot, prefix []Token, t Token, allowGoto bool) bool {
	var toks []Token
	sawOperator := false

	for t.Kind != EndOfLine && t.Kind != EOF {
		if allowGoto && t.Kind == Word && strings.EqualFold(t.Text, "GOTO") {
			break
		}
		if len(toks) == 6 {
			s.Seek(snap)
			return false
		}
		if !t.Kind.IsArgument() {
			sawOperator = true
		}
		toks = append(toks, t)
		t = s.scanMeaningful(modeExpression)
	}

	if !sawOperator || t.Kind == EOF {
		s.Seek(snap)
		return false
	}

	if t.Kind == Word {
		// The GOTO tail: `GOTO label` then end-of-line.
		gotoTok := t
		labelTok := s.scanMeaningful(modeExpression)
		eol := s.scanMeaningful(modeExpression)
		if labelTok.Kind != Word || eol.Kind != EndOfLine {
			s.Seek(snap)
			return false
		}
		s.queued = append(append(prefix, toks...), gotoTok, labelTok, eol)
		return true
	}

	s.queued = append(append(prefix, toks...), t)
	return true
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

// isGraph mirrors the original scanner's is_graph: any byte in the
// printable ASCII range except the double quote that delimits strings.
func isGraph(c byte) bool { return c != '"' && c >= 33 && c <= 126 }

// isOperatorChar matches the original scanner's is_operator: the set of
// characters that stop a word run mid-scan in expression mode. Notably
// excludes `/`, which only starts an operator token, never interrupts a
// word already in progress (a faithful quirk of the grammar).
func isOperatorChar(c byte) bool {
	return c == '+' || c == '-' || c == '*' || c == '=' || c == '<' || c == '>'
}

// isOperatorDispatch is isOperatorChar plus `/`, used to decide at the
// very start of a token whether to attempt operator scanning at all.
func isOperatorDispatch(c byte) bool {
	return c == '/' || isOperatorChar(c)
}

// scanOne scans exactly one token starting at the current position.
func (s *Scanner) scanOne(m mode) Token {
	c, loc := s.peek()
	switch {
	case c == 0:
		return Token{Kind: EOF, Span: source.NewRangeLen(loc, 0)}
	case c == '\n':
		s.advance()
		return Token{Kind: EndOfLine, Span: source.NewRangeLen(loc, 1)}
	case c == ' ':
		s.advance()
		return Token{Kind: Whitespace, Span: source.NewRangeLen(loc, 1)}
	case c == '"':
		return s.scanString()
	case m == modeExpression && isOperatorDispatch(c) && !s.startsNumericWord(c):
		return s.scanOperator()
	default:
		return s.scanWord(m)
	}
}

// startsNumericWord reports whether an operator-class byte (only ever
// `-`) is actually the start of a negative numeric literal, per the
// "a minus may appear only at position zero" rule (spec §4.2).
func (s *Scanner) startsNumericWord(c byte) bool {
	if c != '-' {
		return false
	}
	next, _ := s.peekAhead(1)
	return isDigitByte(next) || next == '.'
}

// peekAhead looks offset characters beyond the current lookahead
// character without consuming anything, by snapshotting and restoring
// the preprocessor.
func (s *Scanner) peekAhead(offset int) (byte, source.Location) {
	snap := s.pp.Tell()
	// The peek character is already buffered, so offset further pulls
	// from the preprocessor land offset characters beyond it.
	var c byte
	var loc source.Location
	for i := 0; i < offset; i++ {
		loc = s.pp.Location()
		c = s.pp.Next()
	}
	s.pp.Seek(snap)
	return c, loc
}

// scanWord scans a maximal run of graph characters. In expression mode
// the run stops before any operator-class character (so `x+1` splits
// into `x`, `+`, `1`); in statement mode operator characters are
// ordinary graph characters and join the word.
func (s *Scanner) scanWord(m mode) Token {
	_, startLoc := s.peek()
	var sb strings.Builder

	first, _ := s.peek()
	s.advance()
	sb.WriteByte(first)

	for {
		c, _ := s.peek()
		if !isGraph(c) {
			break
		}
		if m == modeExpression && isOperatorChar(c) {
			break
		}
		s.advance()
		sb.WriteByte(c)
	}

	_, endLoc := s.peek()
	return Token{Kind: Word, Span: source.NewRange(startLoc, endLoc), Text: sb.String()}
}

// scanString scans a double-quoted string literal. GTA3script strings
// have no escape sequences; an unterminated literal diagnoses and ends
// at the first newline or end-of-file.
func (s *Scanner) scanString() Token {
	_, startLoc := s.peek()
	s.advance() // opening quote
	var sb strings.Builder
	for {
		c, _ := s.peek()
		if c == '"' {
			s.advance()
			_, endLoc := s.peek()
			return Token{Kind: String, Span: source.NewRange(startLoc, endLoc), Text: sb.String()}
		}
		if c == 0 || c == '\n' {
			_, endLoc := s.peek()
			span := source.NewRange(startLoc, endLoc)
			s.handler.Report(startLoc, diag.UnterminatedStringLiteral).Range(span).Emit()
			return Token{Kind: String, Span: span, Text: sb.String()}
		}
		s.advance()
		sb.WriteByte(c)
	}
}

// operatorTable is tried longest-match-first.
var operatorTable = []struct {
	text string
	kind Kind
}{
	{"+=@", PlusEqualAt},
	{"-=@", MinusEqualAt},
	{"++", PlusPlus},
	{"--", MinusMinus},
	{"+@", PlusAt},
	{"-@", MinusAt},
	{"+=", PlusEqual},
	{"-=", MinusEqual},
	{"*=", StarEqual},
	{"/=", SlashEqual},
	{"<=", LessEqual},
	{">=", GreaterEqual},
	{"=#", EqualHash},
	{"+", Plus},
	{"-", Minus},
	{"*", Star},
	{"/", Slash},
	{"=", Equal},
	{"<", Less},
	{">", Greater},
}

// scanOperator scans the longest operator lexeme starting at the
// current position.
func (s *Scanner) scanOperator() Token {
	_, startLoc := s.peek()
	for _, entry := range operatorTable {
		if s.matchesAt(entry.text) {
			for range entry.text {
				s.advance()
			}
			_, endLoc := s.peek()
			return Token{Kind: entry.kind, Span: source.NewRange(startLoc, endLoc), Text: entry.text}
		}
	}
	// Unreachable given isOperatorDispatch's character set, but fall back
	// to a single-character word rather than looping forever.
	c, _ := s.advance()
	_, endLoc := s.peek()
	return Token{Kind: Word, Span: source.NewRange(startLoc, endLoc), Text: string(c)}
}

func (s *Scanner) matchesAt(text string) bool {
	snap := s.pp.Tell()
	havePeek, peekChar, peekLoc := s.havePeek, s.peekChar, s.peekLoc

	ok := true
	for i := 0; i < len(text); i++ {
		c, _ := s.peek()
		if c != text[i] {
			ok = false
			break
		}
		s.advance()
	}

	s.pp.Seek(snap)
	s.havePeek, s.peekChar, s.peekLoc = havePeek, peekChar, peekLoc
	return ok
}
