// Package parser implements the GTA3script recursive-descent parser
// (spec §4.3): it consumes a lexer.Scanner's token stream and produces
// a parserir.List. The grammar is line-oriented; a small fixed lookahead
// buffer (N=5 tokens) is enough since no production needs to look past
// the handful of tokens an expression statement can contain.
package parser

import (
	"strconv"
	"strings"

	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/lexer"
	"github.com/thelink2012/gta3sc-sub000/pkg/parserir"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
)

const lookahead = 5

// Parser drives one file's worth of parsing.
type Parser struct {
	scanner *lexer.Scanner
	handler *diag.Handler

	buf    [lookahead]lexer.Token
	filled int // how many of buf are valid, read but not yet consumed
}

// New constructs a parser reading tokens from scanner, reporting to
// handler.
func New(scanner *lexer.Scanner, handler *diag.Handler) *Parser {
	return &Parser{scanner: scanner, handler: handler}
}

func (p *Parser) fill(n int) {
	for p.filled < n {
		p.buf[p.filled] = p.scanner.Next()
		p.filled++
	}
}

// peek returns the token i positions ahead (0 = next token to consume).
func (p *Parser) peek(i int) lexer.Token {
	p.fill(i + 1)
	return p.buf[i]
}

// advance consumes and returns the next token.
func (p *Parser) advance() lexer.Token {
	p.fill(1)
	t := p.buf[0]
	copy(p.buf[:], p.buf[1:p.filled])
	p.filled--
	return t
}

// specialNames cannot appear as the left-hand side of an expression nor
// as ordinary commands in body positions (spec §4.3).
var specialNames = map[string]bool{
	"MISSION_START": true, "MISSION_END": true,
	"GOSUB_FILE": true, "LAUNCH_MISSION": true, "LOAD_AND_LAUNCH_MISSION": true,
	"{": true, "}": true, "NOT": true, "AND": true, "OR": true,
	"IF": true, "IFNOT": true, "WHILE": true, "WHILENOT": true, "REPEAT": true,
	"ELSE": true, "ENDIF": true, "ENDWHILE": true, "ENDREPEAT": true,
}

// ParseMainFile parses a main.sc-shaped file: a flat sequence of
// statements with no MISSION_START/MISSION_END wrapper.
func (p *Parser) ParseMainFile() *parserir.List {
	list := parserir.NewList()
	for p.peek(0).Kind != lexer.EOF {
		p.parseStatement(list)
	}
	return list
}

// ParseSubscriptFile parses a subscript-shaped file: statements must be
// wrapped in MISSION_START ... MISSION_END, with MISSION_START required
// to be the first statement of the file (spec §4.3).
func (p *Parser) ParseSubscriptFile() *parserir.List {
	list := parserir.NewList()
	if tok := p.peek(0); tok.Kind != lexer.Word || strings.ToUpper(tok.Text) != "MISSION_START" {
		loc := tok.Span.Begin
		p.handler.Report(loc, diag.ExpectedMissionStartAtTop).Emit()
	}
	for p.peek(0).Kind != lexer.EOF {
		p.parseStatement(list)
	}
	return list
}

// parseStatement parses `[label_def (eol | sep)] embedded_statement`.
func (p *Parser) parseStatement(list *parserir.List) {
	var label *parserir.LabelDef
	if p.peek(0).Kind == lexer.Word && strings.HasSuffix(p.peek(0).Text, ":") && len(p.peek(0).Text) > 1 {
		tok := p.advance()
		label = &parserir.LabelDef{Name: strings.ToUpper(strings.TrimSuffix(tok.Text, ":")), Span: tok.Span}
		if p.peek(0).Kind == lexer.EndOfLine {
			p.advance()
			list.Append(label, nil)
			return
		}
	}
	p.parseEmbeddedStatement(list, label)
}

func (p *Parser) parseEmbeddedStatement(list *parserir.List, label *parserir.LabelDef) {
	tok := p.peek(0)

	if tok.Kind == lexer.EndOfLine {
		p.advance()
		if label != nil {
			list.Append(label, nil)
		}
		return
	}

	if tok.Kind.IsUnaryOp() {
		// Prefix increment/decrement: the line starts with the operator.
		p.emitSequence(list, label, p.parseExpressionStatement())
		return
	}

	if tok.Kind != lexer.Word {
		p.reportAndRecover(tok.Span.Begin, diag.ExpectedCommand)
		return
	}

	name := strings.ToUpper(tok.Text)
	switch name {
	case "{":
		p.parseScope(list, label)
		return
	case "IF", "IFNOT":
		p.parseConditionalBlock(list, label, name == "IFNOT")
		return
	case "WHILE", "WHILENOT":
		p.parseLoop(list, label, name == "WHILENOT")
		return
	case "REPEAT":
		p.parseRepeat(list, label)
		return
	case "VAR_INT", "VAR_FLOAT", "VAR_TEXT_LABEL", "LVAR_INT", "LVAR_FLOAT", "LVAR_TEXT_LABEL":
		p.parseVarDecl(list, label, name)
		return
	case "GOSUB_FILE", "LAUNCH_MISSION", "LOAD_AND_LAUNCH_MISSION":
		p.parseRequireStatement(list, label, name)
		return
	case "ELSE", "ENDIF", "ENDWHILE", "ENDREPEAT", "MISSION_START", "MISSION_END":
		p.advance()
		p.expectZeroArgs(name)
		list.Append(label, &parserir.Command{Name: name, Span: tok.Span})
		return
	}

	if specialNames[name] {
		// The remaining special names ("}" outside a scope, NOT, AND, OR)
		// cannot stand as commands nor as an expression's left-hand side.
		p.reportAndRecover(tok.Span.Begin, diag.UnexpectedSpecialName)
		return
	}

	if p.looksLikeExpression() {
		cmds := p.parseExpressionStatement()
		p.emitSequence(list, label, cmds)
		return
	}

	p.parsePlainCommand(list, label)
}

// looksLikeExpression inspects the buffered lookahead for one of the
// scanner's four expression-token shapes (the scanner has already
// resolved statement-vs-expression mode per line; this just recognises
// the resulting token kinds).
func (p *Parser) looksLikeExpression() bool {
	if p.peek(0).Kind.IsUnaryOp() || p.peek(1).Kind.IsUnaryOp() {
		return true
	}
	if p.peek(1).Kind.IsAssignmentOp() || p.peek(1).Kind.IsRelationalOp() {
		return true
	}
	return false
}

// parsePlainCommand parses `command arg*` up to end_of_line.
func (p *Parser) parsePlainCommand(list *parserir.List, label *parserir.LabelDef) {
	nameTok := p.advance()
	name := strings.ToUpper(nameTok.Text)
	cmd := &parserir.Command{Name: name, Span: nameTok.Span}

	for {
		t := p.peek(0)
		if t.Kind == lexer.EndOfLine || t.Kind == lexer.EOF {
			break
		}
		cmd.Args = append(cmd.Args, p.parseArgument())
	}
	if p.peek(0).Kind == lexer.EndOfLine {
		p.advance()
	}
	list.Append(label, cmd)
}

// parseArgument converts one token into a Parser-IR Argument. Numeric
// vs. identifier classification is purely lexical (spec §4.2); the
// scanner never distinguishes them itself.
func (p *Parser) parseArgument() parserir.Argument {
	t := p.advance()
	switch t.Kind {
	case lexer.String:
		return parserir.Argument{Kind: parserir.ArgString, Span: t.Span, Text: t.Text}
	case lexer.Word:
		return classifyWord(t)
	default:
		// An operator token in an argument position only happens on a
		// malformed line; surface it as an identifier so the caller can
		// still report a meaningful downstream diagnostic.
		return parserir.Argument{Kind: parserir.ArgIdentifier, Span: t.Span, Text: t.Text}
	}
}

func classifyWord(t lexer.Token) parserir.Argument {
	text := t.Text
	if isNumericStart(text) {
		if strings.ContainsAny(text, ".fF") {
			if f, err := strconv.ParseFloat(strings.TrimRight(strings.TrimRight(text, "fF"), "fF"), 64); err == nil {
				return parserir.Argument{Kind: parserir.ArgFloat, Span: t.Span, Float: f}
			}
			return parserir.Argument{Kind: parserir.ArgFloat, Span: t.Span}
		}
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return parserir.Argument{Kind: parserir.ArgInteger, Span: t.Span, Int: i}
		}
	}
	return parserir.Argument{Kind: parserir.ArgIdentifier, Span: t.Span, Text: text}
}

func isNumericStart(text string) bool {
	if text == "" {
		return false
	}
	i := 0
	if text[0] == '-' {
		i = 1
	}
	if i >= len(text) {
		return false
	}
	return text[i] == '.' || (text[i] >= '0' && text[i] <= '9')
}

// parseExpressionStatement desugars one of the scanner's four
// expression-token shapes into its canonical command form(s) (spec
// §4.3's desugaring table).
func (p *Parser) parseExpressionStatement() []*parserir.Command {
	if p.peek(0).Kind.IsUnaryOp() {
		// Prefix form: `++x` / `--x`.
		op := p.advance()
		x := p.parseArgument()
		target := argToCommandName(op.Kind == lexer.PlusPlus)
		return []*parserir.Command{{Name: target, Span: op.Span, Args: []parserir.Argument{x, oneLiteral(op.Span)}}}
	}

	x := p.parseArgument()

	op := p.advance()
	switch {
	case op.Kind.IsUnaryOp():
		target := argToCommandName(op.Kind == lexer.PlusPlus)
		return []*parserir.Command{{Name: target, Span: op.Span, Args: []parserir.Argument{x, oneLiteral(op.Span)}}}

	case op.Kind.IsAssignmentOp():
		y := p.parseArgument()
		if op.Kind == lexer.Equal {
			if y.Kind == parserir.ArgIdentifier && strings.EqualFold(y.Text, "ABS") && p.peek(0).Kind == lexer.Word {
				z := p.parseArgument()
				return desugarAbs(x, z, op.Span)
			}
			if p.peek(0).Kind.IsBinaryOp() {
				binop := p.advance()
				z := p.parseArgument()
				cmds := desugarTernary(x, y, binop, z)
				if cmds == nil {
					p.handler.Report(binop.Span.Begin, diag.InvalidExpressionUnassociative).Emit()
				}
				return cmds
			}
		}
		return desugarCompoundAssign(x, op, y)

	case op.Kind.IsRelationalOp():
		y := p.parseArgument()
		return []*parserir.Command{desugarRelational(x, op, y)}
	}

	p.handler.Report(op.Span.Begin, diag.InvalidExpression).Emit()
	return nil
}

func argToCommandName(increment bool) string {
	if increment {
		return "ADD_THING_TO_THING"
	}
	return "SUB_THING_FROM_THING"
}

func oneLiteral(span source.Range) parserir.Argument {
	return parserir.Argument{Kind: parserir.ArgInteger, Span: span, Int: 1}
}

// compoundAssignCommand maps each `op=` token to its canonical binary
// command name (spec §4.3 desugaring table).
var compoundAssignCommand = map[lexer.Kind]string{
	lexer.Equal:       "SET",
	lexer.EqualHash:   "CSET",
	lexer.PlusEqual:   "ADD_THING_TO_THING",
	lexer.MinusEqual:  "SUB_THING_FROM_THING",
	lexer.StarEqual:   "MULT_THING_BY_THING",
	lexer.SlashEqual:  "DIV_THING_BY_THING",
	lexer.PlusEqualAt: "ADD_THING_TO_THING_TIMED",
	lexer.MinusEqualAt: "SUB_THING_FROM_THING_TIMED",
}

// desugarAbs lowers `x = ABS y` into `SET x y` followed by `ABS x`, or
// just `ABS x` when x and y are the same value (spec §4.3).
func desugarAbs(x, z parserir.Argument, span source.Range) []*parserir.Command {
	abs := &parserir.Command{Name: "ABS", Span: span, Args: []parserir.Argument{x}}
	if argsEqual(x, z) {
		return []*parserir.Command{abs}
	}
	set := &parserir.Command{Name: "SET", Span: span, Args: []parserir.Argument{x, z}}
	return []*parserir.Command{set, abs}
}

func desugarCompoundAssign(x parserir.Argument, op lexer.Token, y parserir.Argument) []*parserir.Command {
	name := compoundAssignCommand[op.Kind]
	return []*parserir.Command{{Name: name, Span: op.Span, Args: []parserir.Argument{x, y}}}
}

// binaryCommand maps each binop token to its canonical binary command
// name, used once x, y, z have been reduced to a two-argument form.
var binaryCommand = map[lexer.Kind]string{
	lexer.Plus:   "ADD_THING_TO_THING",
	lexer.Minus:  "SUB_THING_FROM_THING",
	lexer.Star:   "MULT_THING_BY_THING",
	lexer.Slash:  "DIV_THING_BY_THING",
	lexer.PlusAt: "ADD_THING_TO_THING_TIMED",
}

func argsEqual(a, b parserir.Argument) bool {
	return a.Kind == b.Kind && a.Text == b.Text && a.Int == b.Int && a.Float == b.Float
}

// desugarTernary implements the `x = y binop z` table (spec §4.3).
func desugarTernary(x, y parserir.Argument, binop lexer.Token, z parserir.Argument) []*parserir.Command {
	name := binaryCommand[binop.Kind]
	switch {
	case argsEqual(x, y):
		return []*parserir.Command{{Name: name, Span: binop.Span, Args: []parserir.Argument{x, z}}}
	case argsEqual(x, z) && binop.Kind.IsAssociative():
		return []*parserir.Command{{Name: name, Span: binop.Span, Args: []parserir.Argument{x, y}}}
	case argsEqual(x, z):
		return nil // invalid_expression_unassociative; caller diagnoses
	default:
		set := &parserir.Command{Name: "SET", Span: binop.Span, Args: []parserir.Argument{x, y}}
		op := &parserir.Command{Name: name, Span: binop.Span, Args: []parserir.Argument{x, z}}
		return []*parserir.Command{set, op}
	}
}

// relationalSwapped maps each relop token (when x compares on the
// left) to its canonical comparison command, spec §4.3's swapped-order
// table for `<`/`<=`.
var relationalSwapped = map[lexer.Kind]string{
	lexer.Less:      "IS_THING_GREATER_THAN_THING",
	lexer.LessEqual: "IS_THING_GREATER_OR_EQUAL_TO_THING",
}

var relationalDirect = map[lexer.Kind]string{
	lexer.Greater:      "IS_THING_GREATER_THAN_THING",
	lexer.GreaterEqual: "IS_THING_GREATER_OR_EQUAL_TO_THING",
	lexer.Equal:        "IS_THING_EQUAL_TO_THING",
}

func desugarRelational(x parserir.Argument, op lexer.Token, y parserir.Argument) *parserir.Command {
	if name, ok := relationalSwapped[op.Kind]; ok {
		return &parserir.Command{Name: name, Span: op.Span, Args: []parserir.Argument{y, x}}
	}
	name := relationalDirect[op.Kind]
	return &parserir.Command{Name: name, Span: op.Span, Args: []parserir.Argument{x, y}}
}

func (p *Parser) emitSequence(list *parserir.List, label *parserir.LabelDef, cmds []*parserir.Command) {
	if len(cmds) == 0 {
		if p.peek(0).Kind == lexer.EndOfLine {
			p.advance()
		}
		list.Append(label, nil)
		return
	}
	list.Append(label, cmds[0])
	for _, c := range cmds[1:] {
		list.Append(nil, c)
	}
	if p.peek(0).Kind == lexer.EndOfLine {
		p.advance()
	}
}

// parseScope parses `{ {statement} }`; scopes never nest.
func (p *Parser) parseScope(list *parserir.List, label *parserir.LabelDef) {
	open := p.advance() // '{'
	p.expectEndOfLine()
	list.Append(label, &parserir.Command{Name: "{", Span: open.Span})

	for {
		t := p.peek(0)
		if t.Kind == lexer.EOF {
			p.handler.Report(open.Span.Begin, diag.ExpectedWord).Args(diag.StrArg("}")).Emit()
			return
		}
		if t.Kind == lexer.Word && strings.ToUpper(t.Text) == "}" {
			close := p.advance()
			p.expectEndOfLine()
			list.Append(nil, &parserir.Command{Name: "}", Span: close.Span})
			return
		}
		if t.Kind == lexer.Word && strings.ToUpper(t.Text) == "{" {
			p.handler.Report(t.Span.Begin, diag.CannotNestScopes).Emit()
			p.recoverToEndOfLine()
			continue
		}
		p.parseStatement(list)
	}
}

// parseConditionalBlock parses either the `IF|IFNOT conditional_element
// GOTO label` one-liner (desugared straight to ANDOR 0, the condition,
// and GOTO_IF_TRUE/GOTO_IF_FALSE) or the full `IF|IFNOT conditions
// {statement} [ELSE {statement}] ENDIF` block, emitting the ANDOR header
// and the conditional commands ahead of the surrounding control commands
// (spec §4.3).
func (p *Parser) parseConditionalBlock(list *parserir.List, label *parserir.LabelDef, not bool) {
	kw := p.advance()
	name := "IF"
	ifTrueCmd := "GOTO_IF_TRUE"
	if not {
		name = "IFNOT"
		ifTrueCmd = "GOTO_IF_FALSE"
	}

	cond0 := p.parseConditionElement(true)

	if p.peek(0).Kind == lexer.Word && strings.ToUpper(p.peek(0).Text) == "GOTO" {
		p.advance()
		argTok := p.peek(0)
		arg := p.parseArgument()
		p.expectEndOfLine()
		andor := &parserir.Command{Name: "ANDOR", Span: cond0.Span, Args: []parserir.Argument{{Kind: parserir.ArgInteger, Int: 0}}}
		list.Append(label, andor)
		list.Append(nil, cond0)
		list.Append(nil, &parserir.Command{Name: ifTrueCmd, Span: argTok.Span, Args: []parserir.Argument{arg}})
		return
	}

	list.Append(label, &parserir.Command{Name: name, Span: kw.Span})
	p.parseConditionListWith(list, cond0)
	p.expectEndOfLine()

	for !p.atBlockCloser("ELSE", "ENDIF") {
		if p.peek(0).Kind == lexer.EOF {
			p.handler.Report(kw.Span.Begin, diag.ExpectedWords).Args(diag.StrListArg([]string{"ELSE", "ENDIF"})).Emit()
			return
		}
		p.parseStatement(list)
	}
	if strings.ToUpper(p.peek(0).Text) == "ELSE" {
		elseTok := p.advance()
		p.expectZeroArgs("ELSE")
		list.Append(nil, &parserir.Command{Name: "ELSE", Span: elseTok.Span})
		for !p.atBlockCloser("ENDIF") {
			if p.peek(0).Kind == lexer.EOF {
				p.handler.Report(kw.Span.Begin, diag.ExpectedWord).Args(diag.StrArg("ENDIF")).Emit()
				return
			}
			p.parseStatement(list)
		}
	}
	endif := p.advance()
	p.expectZeroArgs("ENDIF")
	list.Append(nil, &parserir.Command{Name: "ENDIF", Span: endif.Span})
}

// parseLoop parses `WHILE|WHILENOT conditions {statement} ENDWHILE`.
func (p *Parser) parseLoop(list *parserir.List, label *parserir.LabelDef, not bool) {
	kw := p.advance()
	name := "WHILE"
	if not {
		name = "WHILENOT"
	}
	list.Append(label, &parserir.Command{Name: name, Span: kw.Span})
	p.parseConditionList(list)
	p.expectEndOfLine()

	for !p.atBlockCloser("ENDWHILE") {
		if p.peek(0).Kind == lexer.EOF {
			p.handler.Report(kw.Span.Begin, diag.ExpectedWord).Args(diag.StrArg("ENDWHILE")).Emit()
			return
		}
		p.parseStatement(list)
	}
	end := p.advance()
	p.expectZeroArgs("ENDWHILE")
	list.Append(nil, &parserir.Command{Name: "ENDWHILE", Span: end.Span})
}

// parseRepeat parses `REPEAT times_var timer_var {statement} ENDREPEAT`.
func (p *Parser) parseRepeat(list *parserir.List, label *parserir.LabelDef) {
	kw := p.advance()
	cmd := &parserir.Command{Name: "REPEAT", Span: kw.Span}
	for i := 0; i < 2 && p.peek(0).Kind != lexer.EndOfLine && p.peek(0).Kind != lexer.EOF; i++ {
		cmd.Args = append(cmd.Args, p.parseArgument())
	}
	if len(cmd.Args) != 2 {
		p.handler.Report(kw.Span.Begin, diag.TooFewArguments).Emit()
	}
	list.Append(label, cmd)
	p.expectEndOfLine()

	for !p.atBlockCloser("ENDREPEAT") {
		if p.peek(0).Kind == lexer.EOF {
			p.handler.Report(kw.Span.Begin, diag.ExpectedWord).Args(diag.StrArg("ENDREPEAT")).Emit()
			return
		}
		p.parseStatement(list)
	}
	end := p.advance()
	p.expectZeroArgs("ENDREPEAT")
	list.Append(nil, &parserir.Command{Name: "ENDREPEAT", Span: end.Span})
}

func (p *Parser) atBlockCloser(names ...string) bool {
	t := p.peek(0)
	if t.Kind != lexer.Word {
		return false
	}
	up := strings.ToUpper(t.Text)
	for _, n := range names {
		if up == n {
			return true
		}
	}
	return false
}

// parseConditionElement parses one optionally-NOT-prefixed conditional
// element (spec §4.3). Returns a command with an empty name (already
// diagnosed) when the element is malformed.
func (p *Parser) parseConditionElement(isIfLine bool) *parserir.Command {
	not := false
	if p.peek(0).Kind == lexer.Word && strings.ToUpper(p.peek(0).Text) == "NOT" {
		p.advance()
		not = true
	}
	nameTok := p.peek(0)
	if nameTok.Kind != lexer.Word {
		p.handler.Report(nameTok.Span.Begin, diag.ExpectedConditionalExpression).Emit()
		p.skipToEndOfLine()
		return &parserir.Command{Name: "", Span: nameTok.Span}
	}
	return p.parseConditionCommand(not, isIfLine)
}

// parseConditionList parses 1..6 conditional elements joined by AND or
// OR (never mixed), emitting the ANDOR header plus each condition as a
// command (spec §4.3).
func (p *Parser) parseConditionList(list *parserir.List) {
	p.parseConditionListWith(list, p.parseConditionElement(false))
}

// parseConditionListWith continues parsing a conditional list whose
// first element, cond0, was already parsed (used by the one-liner `IF
// cond GOTO label` lookahead in parseConditionalBlock, which must parse
// cond0 before it can tell which form it is in).
func (p *Parser) parseConditionListWith(list *parserir.List, cond0 *parserir.Command) {
	var joiner string
	count := 1
	var conds []*parserir.Command
	add := func(c *parserir.Command) {
		// Malformed elements already diagnosed; drop them from the list.
		if c != nil && c.Name != "" {
			conds = append(conds, c)
		}
	}
	add(cond0)

	for {
		joinTok := p.peek(0)
		// Each conditional element ends its line; the list continues when
		// the next line begins with AND or OR.
		if joinTok.Kind == lexer.EndOfLine && p.continuesConditionList() {
			p.advance()
			continue
		}
		if joinTok.Kind != lexer.Word {
			break
		}
		up := strings.ToUpper(joinTok.Text)
		if up != "AND" && up != "OR" {
			break
		}
		if joiner == "" {
			joiner = up
		} else if joiner != up {
			p.handler.Report(joinTok.Span.Begin, diag.CannotMixAndor).Emit()
		}
		p.advance()
		if count >= 6 {
			p.handler.Report(joinTok.Span.Begin, diag.TooManyConditions).Emit()
		}
		add(p.parseConditionElement(false))
		count++
	}

	if len(conds) == 0 {
		return
	}
	n := 0
	if joiner == "OR" {
		n = 20 + count - 1
	} else if count > 0 {
		n = count - 1
	}
	andor := &parserir.Command{Name: "ANDOR", Span: conds[0].Span, Args: []parserir.Argument{{Kind: parserir.ArgInteger, Int: int64(n)}}}
	list.Append(nil, andor)
	for _, c := range conds {
		list.Append(nil, c)
	}
}

// continuesConditionList peeks past the current end_of_line to see if
// the next line begins with AND or OR, i.e. the condition list spans
// lines (spec §4.3: conditional elements are joined across lines).
func (p *Parser) continuesConditionList() bool {
	t := p.peek(1)
	if t.Kind != lexer.Word {
		return false
	}
	up := strings.ToUpper(t.Text)
	return up == "AND" || up == "OR"
}

// parseConditionCommand parses one command used as a conditional
// element (any ordinary command, or a relational comparison, carrying a
// NOT flag). Unlike statement position, `=` here is a comparison, never
// an assignment.
func (p *Parser) parseConditionCommand(not, isIfLine bool) *parserir.Command {
	if k := p.peek(1).Kind; k.IsRelationalOp() || k.IsAssignmentOp() || k.IsUnaryOp() || p.peek(0).Kind.IsUnaryOp() {
		return p.parseConditionalExpression(not)
	}
	nameTok := p.advance()
	cmd := &parserir.Command{Name: strings.ToUpper(nameTok.Text), Span: nameTok.Span, NotFlag: not}
	for p.peek(0).Kind != lexer.EndOfLine && p.peek(0).Kind != lexer.EOF {
		t := p.peek(0)
		up := strings.ToUpper(t.Text)
		if isIfLine && t.Kind == lexer.Word && up == "GOTO" &&
			p.peek(1).Kind == lexer.Word && p.peek(2).Kind == lexer.EndOfLine {
			break
		}
		cmd.Args = append(cmd.Args, p.parseArgument())
	}
	return cmd
}

// parseVarDecl parses `VAR_* name[count] ...` / `LVAR_* name[count]
// ...`, one or more declarations on the same line.
func (p *Parser) parseVarDecl(list *parserir.List, label *parserir.LabelDef, name string) {
	kw := p.advance()
	cmd := &parserir.Command{Name: name, Span: kw.Span}
	for p.peek(0).Kind != lexer.EndOfLine && p.peek(0).Kind != lexer.EOF {
		cmd.Args = append(cmd.Args, p.parseArgument())
	}
	if len(cmd.Args) == 0 {
		p.handler.Report(kw.Span.Begin, diag.TooFewArguments).Emit()
	}
	list.Append(label, cmd)
	p.expectEndOfLine()
}

// parseRequireStatement parses GOSUB_FILE/LAUNCH_MISSION/LOAD_AND_LAUNCH_MISSION,
// whose final argument is a bare filename lexeme read via
// Scanner.NextFilename rather than generic tokenization.
func (p *Parser) parseRequireStatement(list *parserir.List, label *parserir.LabelDef, name string) {
	kw := p.advance()
	cmd := &parserir.Command{Name: name, Span: kw.Span}
	if name == "GOSUB_FILE" {
		if p.peek(0).Kind == lexer.EndOfLine || p.peek(0).Kind == lexer.EOF {
			p.handler.Report(kw.Span.Begin, diag.ExpectedArgument).Emit()
			list.Append(label, cmd)
			p.expectEndOfLine()
			return
		}
		cmd.Args = append(cmd.Args, p.parseArgument())
	}
	// The lookahead buffer is empty here (everything peeked so far has
	// been consumed), so the filename scan reads straight from the
	// stream. NextFilename itself diagnoses a missing or malformed
	// filename lexeme.
	ftok := p.scanner.NextFilename()
	cmd.Args = append(cmd.Args, parserir.Argument{Kind: parserir.ArgFilename, Span: ftok.Span, Text: ftok.Text})
	list.Append(label, cmd)
	p.expectEndOfLine()
}

// parseConditionalExpression parses `arg relop arg` in condition
// position, where relop includes `=` (equality, not assignment).
// Assignment, unary and ternary forms diagnose: only binary comparisons
// may stand as conditions.
func (p *Parser) parseConditionalExpression(not bool) *parserir.Command {
	if p.peek(0).Kind.IsUnaryOp() {
		span := p.peek(0).Span
		p.handler.Report(span.Begin, diag.ExpectedConditionalExpression).Emit()
		p.skipToEndOfLine()
		return &parserir.Command{Name: "", Span: span}
	}
	x := p.parseArgument()
	op := p.advance()
	switch {
	case op.Kind.IsRelationalOp() || op.Kind == lexer.Equal:
	case op.Kind.IsAssignmentOp() || op.Kind.IsUnaryOp():
		p.handler.Report(op.Span.Begin, diag.ExpectedConditionalOperator).Emit()
		p.skipToEndOfLine()
		return &parserir.Command{Name: "", Span: op.Span}
	default:
		p.handler.Report(op.Span.Begin, diag.ExpectedConditionalExpression).Emit()
		p.skipToEndOfLine()
		return &parserir.Command{Name: "", Span: op.Span}
	}
	y := p.parseArgument()
	if p.peek(0).Kind.IsBinaryOp() {
		p.handler.Report(p.peek(0).Span.Begin, diag.ExpectedConditionalExpression).Emit()
		p.skipToEndOfLine()
		return &parserir.Command{Name: "", Span: op.Span}
	}
	cmd := desugarRelational(x, op, y)
	cmd.NotFlag = not
	return cmd
}

// skipToEndOfLine discards tokens up to, but not including, the next
// end_of_line, so the caller's own line-termination handling still runs.
func (p *Parser) skipToEndOfLine() {
	for p.peek(0).Kind != lexer.EndOfLine && p.peek(0).Kind != lexer.EOF {
		p.advance()
	}
}

func (p *Parser) expectZeroArgs(name string) {
	if p.peek(0).Kind != lexer.EndOfLine && p.peek(0).Kind != lexer.EOF {
		p.handler.Report(p.peek(0).Span.Begin, diag.TooManyArguments).Emit()
		p.recoverToEndOfLine()
	} else {
		p.expectEndOfLine()
	}
}

func (p *Parser) expectEndOfLine() {
	if p.peek(0).Kind == lexer.EndOfLine {
		p.advance()
	}
}

func (p *Parser) reportAndRecover(loc source.Location, kind diag.Kind) {
	p.handler.Report(loc, kind).Emit()
	p.recoverToEndOfLine()
}

// recoverToEndOfLine discards tokens until the next end_of_line or
// end-of-file, per the parser's recovery policy (spec §4.3, §7).
func (p *Parser) recoverToEndOfLine() {
	for {
		t := p.peek(0)
		if t.Kind == lexer.EndOfLine {
			p.advance()
			return
		}
		if t.Kind == lexer.EOF {
			return
		}
		p.advance()
	}
}
