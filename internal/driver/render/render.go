// Package render turns the core's structured diagnostics into
// human-readable text. The compiler core deliberately leaves rendering
// unspecified (spec §7); this is the CLI's own consumer of the
// structured form, not part of the core contract.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
)

// Renderer prints diagnostics with file/line/column context and a caret
// line, optionally colorized when writing to a terminal.
type Renderer struct {
	w     io.Writer
	mgr   *source.Manager
	color bool
}

// New constructs a renderer writing to w, resolving locations through
// mgr. ANSI color is enabled automatically when w is a terminal.
func New(w io.Writer, mgr *source.Manager) *Renderer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Renderer{w: w, mgr: mgr, color: color}
}

// SetColor overrides terminal auto-detection.
func (r *Renderer) SetColor(on bool) { r.color = on }

const (
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// RenderAll prints every diagnostic in order.
func (r *Renderer) RenderAll(diags []diag.Diagnostic) {
	for _, d := range diags {
		r.Render(d)
	}
}

// Render prints one diagnostic.
func (r *Renderer) Render(d diag.Diagnostic) {
	file, line, col := r.mgr.LineCol(d.Location)

	prefix := "error"
	if r.color {
		prefix = ansiBold + ansiRed + prefix + ansiReset
	}
	if file == "" {
		fmt.Fprintf(r.w, "%s: %s\n", prefix, Message(d))
		return
	}
	fmt.Fprintf(r.w, "%s:%d:%d: %s: %s\n", file, line, col, prefix, Message(d))

	if text := r.sourceLine(d.Location); text != "" {
		fmt.Fprintf(r.w, "    %s\n", text)
		fmt.Fprintf(r.w, "    %s^\n", strings.Repeat(" ", col-1))
	}
}

// sourceLine extracts the full source line containing loc.
func (r *Renderer) sourceLine(loc source.Location) string {
	f := r.mgr.FileAt(loc)
	if f == nil {
		return ""
	}
	contents := f.Contents()
	offset := loc.Sub(f.Start())
	if offset < 0 || offset > len(contents) {
		return ""
	}
	begin := offset
	for begin > 0 && contents[begin-1] != '\n' {
		begin--
	}
	end := offset
	for end < len(contents) && contents[end] != '\n' {
		end++
	}
	return strings.TrimRight(string(contents[begin:end]), "\r")
}

// messages maps each diagnostic kind to its base message. Formatting
// arguments, if any, are appended by Message.
var messages = map[diag.Kind]string{
	diag.InternalCompilerError:              "internal compiler error",
	diag.InvalidChar:                        "invalid character",
	diag.UnterminatedComment:                "unterminated block comment",
	diag.UnterminatedStringLiteral:          "unterminated string literal",
	diag.InvalidFilename:                    "invalid script filename",
	diag.IntegerLiteralTooBig:               "integer literal is too big",
	diag.FloatLiteralTooBig:                 "float literal is too big",
	diag.ExpectedToken:                      "expected token",
	diag.ExpectedWord:                       "expected word",
	diag.ExpectedWords:                      "expected one of",
	diag.ExpectedCommand:                    "expected a command",
	diag.ExpectedRequireCommand:             "expected a require statement",
	diag.ExpectedArgument:                   "expected an argument",
	diag.ExpectedIdentifier:                 "expected an identifier",
	diag.ExpectedInteger:                    "expected an integer",
	diag.ExpectedFloat:                      "expected a float",
	diag.ExpectedTextLabel:                  "expected a text label",
	diag.ExpectedLabel:                      "expected a label",
	diag.ExpectedString:                     "expected a string literal",
	diag.ExpectedInputInt:                   "expected an integer input",
	diag.ExpectedInputFloat:                 "expected a float input",
	diag.ExpectedInputOpt:                   "expected an integer, float or variable",
	diag.ExpectedVariable:                   "expected a variable",
	diag.ExpectedSubscript:                  "expected an array subscript",
	diag.ExpectedVarnameAfterDollar:         "expected a variable name after '$'",
	diag.ExpectedGvarGotLvar:                "expected a global variable, got a local",
	diag.ExpectedLvarGotGvar:                "expected a local variable, got a global",
	diag.ExpectedConditionalExpression:      "expected a conditional expression",
	diag.ExpectedConditionalOperator:        "expected a comparison operator",
	diag.ExpectedAssignmentOperator:         "expected an assignment operator",
	diag.ExpectedTernaryOperator:            "expected a binary operator",
	diag.UnexpectedSpecialName:              "this name cannot be used here",
	diag.InvalidExpression:                  "invalid expression",
	diag.InvalidExpressionUnassociative:     "expression cannot be reordered, operation is not associative",
	diag.CannotNestScopes:                   "scopes cannot be nested",
	diag.CannotMixAndor:                     "cannot mix AND and OR in the same condition list",
	diag.CannotUseStringConstantHere:        "a string constant cannot be used here",
	diag.TooManyConditions:                  "too many conditions, at most six are allowed",
	diag.TooFewArguments:                    "too few arguments",
	diag.TooManyArguments:                   "too many arguments",
	diag.ExpectedMissionStartAtTop:          "MISSION_START must be the first statement of the file",
	diag.DuplicateLabel:                     "label redeclared",
	diag.DuplicateVarGlobal:                 "global variable redeclared",
	diag.DuplicateVarInScope:                "variable redeclared in this scope",
	diag.DuplicateVarLvar:                   "local variable shares a name with a global variable",
	diag.DuplicateVarTimer:                  "this name is reserved for a timer variable",
	diag.DuplicateVarStringConstant:         "variable shares a name with a string constant",
	diag.DuplicateScriptName:                "script name already used",
	diag.VarDeclOutsideOfScope:              "local variable declared outside of a scope",
	diag.VarDeclSubscriptMustBeLiteral:      "array dimension must be an integer literal",
	diag.VarDeclSubscriptMustBeNonzero:      "array dimension must be positive",
	diag.UndefinedCommand:                   "unknown command",
	diag.UndefinedLabel:                     "label not defined",
	diag.UndefinedVariable:                  "variable not defined",
	diag.VarTypeMismatch:                    "variable type does not match",
	diag.VarEntityTypeMismatch:              "variable refers to a different kind of entity",
	diag.AlternatorMismatch:                 "no overload of this command matches these arguments",
	diag.SubscriptMustBePositive:            "array subscript must not be negative",
	diag.SubscriptOutOfRange:                "array subscript is out of range",
	diag.SubscriptButVarIsNotArray:          "variable is not an array",
	diag.SubscriptVarMustBeInt:              "subscript variable must be an integer",
	diag.SubscriptVarMustNotBeArray:         "subscript variable must not be an array",
	diag.TargetLabelNotWithinScope:          "target label is not within a scope",
	diag.TargetScopeNotEnoughVars:           "target scope does not declare enough variables",
	diag.TargetVarTypeMismatch:              "argument type does not match the target variable",
	diag.TargetVarEntityTypeMismatch:        "argument entity type does not match the target variable",
	diag.CodegenTargetDoesNotSupportCommand: "target does not support this command",
	diag.CodegenLabelRefAcrossSegments:      "cannot reference a label in another mission segment",
	diag.CodegenLabelAtLocalZeroOffset:      "label sits at the start of its segment and cannot be referenced locally",
}

// Message renders the full message text of a diagnostic, appending its
// formatting arguments.
func Message(d diag.Diagnostic) string {
	base, ok := messages[d.Kind]
	if !ok {
		base = d.Kind.String()
	}
	var extras []string
	for _, a := range d.Args {
		switch a.Kind() {
		case "list":
			extras = append(extras, strings.Join(a.StrList, ", "))
		case "int":
			extras = append(extras, fmt.Sprintf("%d", a.Int))
		default:
			extras = append(extras, a.Str)
		}
	}
	if len(extras) == 0 {
		return base
	}
	return base + ": " + strings.Join(extras, ", ")
}
