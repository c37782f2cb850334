package parserir

import (
	"fmt"

	"github.com/thelink2012/gta3sc-sub000/pkg/source"
)

// Rewrite lowers the block-structured control flow forms produced by the
// parser (`IF`/`IFNOT` ... `ELSE` ... `ENDIF`, `WHILE`/`WHILENOT` ...
// `ENDWHILE`, and `REPEAT` ... `ENDREPEAT`) into the flat ANDOR/condition/
// GOTO_IF_* form the rest of the pipeline understands, synthesizing a
// unique jump-target label for every block it closes. It is a single
// forward pass over in, building a fresh out list; in is left untouched.
//
// The block marker commands themselves ("IF", "WHILE", "ENDIF", ...)
// never reach Sema: they exist only to carry the label attached to the
// block's opening line (if any) through to the first line of its
// lowered form, mirroring how a label on REPEAT's own line survives
// onto the injected `SET var 0` line.
func Rewrite(in *List) *List {
	out := NewList()
	gen := &labelGen{}
	var stack []frame

	for line := in.Front(); line != nil; line = line.Next() {
		if line.Cmd == nil {
			out.Append(line.Label, nil)
			continue
		}

		switch line.Cmd.Name {
		case "IF", "IFNOT":
			onBodyLine(stack, line.Cmd.Span, out)
			f := &ifFrame{notFlag: line.Cmd.Name == "IFNOT", pendingLabel: gen.next(), condsRemaining: -1}
			stack = append(stack, f)
			if line.Label != nil {
				out.Append(line.Label, nil)
			}

		case "ELSE":
			f := stack[len(stack)-1].(*ifFrame)
			ensureIfGuard(out, f, line.Cmd.Span)
			f.endLabel = gen.next()
			out.Append(nil, &Command{Name: "GOTO", Span: line.Cmd.Span,
				Args: []Argument{{Kind: ArgIdentifier, Text: f.endLabel}}})
			out.Append(&LabelDef{Name: f.pendingLabel, Span: line.Cmd.Span}, nil)
			f.sawElse = true

		case "ENDIF":
			f := stack[len(stack)-1].(*ifFrame)
			stack = stack[:len(stack)-1]
			ensureIfGuard(out, f, line.Cmd.Span)
			target := f.pendingLabel
			if f.sawElse {
				target = f.endLabel
			}
			out.Append(&LabelDef{Name: target, Span: line.Cmd.Span}, nil)

		case "WHILE", "WHILENOT":
			onBodyLine(stack, line.Cmd.Span, out)
			f := &whileFrame{notFlag: line.Cmd.Name == "WHILENOT", topLabel: gen.next(), endLabel: gen.next(), condsRemaining: -1}
			stack = append(stack, f)
			out.Append(line.Label, nil)
			out.Append(&LabelDef{Name: f.topLabel, Span: line.Cmd.Span}, nil)

		case "ENDWHILE":
			f := stack[len(stack)-1].(*whileFrame)
			stack = stack[:len(stack)-1]
			ensureWhileGuard(out, f, line.Cmd.Span)
			out.Append(nil, &Command{Name: "GOTO", Span: line.Cmd.Span,
				Args: []Argument{{Kind: ArgIdentifier, Text: f.topLabel}}})
			out.Append(&LabelDef{Name: f.endLabel, Span: line.Cmd.Span}, nil)

		case "ANDOR":
			// Only the ANDOR opening a block's conditional list is its
			// header; a later one (a one-line IF ... GOTO in the body) is
			// a body line of the enclosing block.
			header := false
			if len(stack) > 0 {
				n := int64(0)
				if len(line.Cmd.Args) > 0 {
					n = line.Cmd.Args[0].Int
				}
				count := int(n) + 1
				if n >= 20 {
					count = int(n) - 20 + 1
				}
				switch f := stack[len(stack)-1].(type) {
				case *ifFrame:
					if header = f.condsRemaining < 0; header {
						f.condsRemaining = count
					}
				case *whileFrame:
					if header = f.condsRemaining < 0; header {
						f.condsRemaining = count
					}
				}
			}
			if !header {
				onBodyLine(stack, line.Cmd.Span, out)
			}
			out.Append(line.Label, line.Cmd)

		case "REPEAT":
			onBodyLine(stack, line.Cmd.Span, out)
			if len(line.Cmd.Args) != 2 {
				// Already diagnosed by the parser (too few/too many
				// arguments); pass the malformed command through
				// untouched so Sema's own checks still fire rather
				// than silently eating the block.
				out.Append(line.Label, line.Cmd)
				stack = append(stack, (*repeatFrame)(nil))
				continue
			}
			limitArg, iterArg := line.Cmd.Args[0], line.Cmd.Args[1]
			f := &repeatFrame{iterArg: iterArg, limitArg: limitArg, topLabel: gen.next(), span: line.Cmd.Span}
			stack = append(stack, f)
			out.Append(line.Label, &Command{Name: "SET", Span: line.Cmd.Span, Args: []Argument{iterArg, {Kind: ArgInteger, Int: 0}}})
			out.Append(&LabelDef{Name: f.topLabel, Span: line.Cmd.Span}, nil)

		case "ENDREPEAT":
			rf, ok := stack[len(stack)-1].(*repeatFrame)
			stack = stack[:len(stack)-1]
			if !ok || rf == nil {
				out.Append(line.Label, line.Cmd)
				continue
			}
			out.Append(line.Label, &Command{Name: "ADD_THING_TO_THING", Span: rf.span, Args: []Argument{rf.iterArg, {Kind: ArgInteger, Int: 1}}})
			out.Append(nil, &Command{Name: "IS_THING_GREATER_OR_EQUAL_TO_THING", Span: rf.span, Args: []Argument{rf.iterArg, rf.limitArg}})
			out.Append(nil, &Command{Name: "GOTO_IF_FALSE", Span: rf.span, Args: []Argument{{Kind: ArgIdentifier, Text: rf.topLabel}}})

		default:
			onBodyLine(stack, line.Cmd.Span, out)
			out.Append(line.Label, line.Cmd)
		}
	}

	return out
}

// onBodyLine accounts for one more line belonging to the body of
// whatever block is innermost on stack: while the enclosing frame is
// still consuming its conditional list it decrements that count
// (conditions are not body lines); once the conditional list is
// exhausted, the first real body line triggers the guard jump that
// skips the body when the condition doesn't hold. Starting a nested
// block counts as one body line of its enclosing block.
func onBodyLine(stack []frame, span source.Range, out *List) {
	if len(stack) == 0 {
		return
	}
	switch f := stack[len(stack)-1].(type) {
	case *ifFrame:
		if f.condsRemaining > 0 {
			f.condsRemaining--
			return
		}
		ensureIfGuard(out, f, span)
	case *whileFrame:
		if f.condsRemaining > 0 {
			f.condsRemaining--
			return
		}
		ensureWhileGuard(out, f, span)
	}
}

// ensureIfGuard emits, at most once, the jump that skips an IF/IFNOT
// block's then-body when its condition doesn't hold: an IF block runs
// its body when the conditions hold, so it jumps away on false; an
// IFNOT block runs on false, so it jumps away on true.
func ensureIfGuard(out *List, f *ifFrame, span source.Range) {
	if f.gotoEmitted {
		return
	}
	f.gotoEmitted = true
	name := "GOTO_IF_FALSE"
	if f.notFlag {
		name = "GOTO_IF_TRUE"
	}
	out.Append(nil, &Command{Name: name, Span: span, Args: []Argument{{Kind: ArgIdentifier, Text: f.pendingLabel}}})
}

// ensureWhileGuard is ensureIfGuard's counterpart for WHILE/WHILENOT.
func ensureWhileGuard(out *List, f *whileFrame, span source.Range) {
	if f.gotoEmitted {
		return
	}
	f.gotoEmitted = true
	name := "GOTO_IF_FALSE"
	if f.notFlag {
		name = "GOTO_IF_TRUE"
	}
	out.Append(nil, &Command{Name: name, Span: span, Args: []Argument{{Kind: ArgIdentifier, Text: f.endLabel}}})
}

type frame interface{ isFrame() }

// ifFrame tracks one open IF/IFNOT block. condsRemaining starts at -1
// (ANDOR not seen yet), is set to the condition count when ANDOR is
// observed, and counts down to 0 as each condition line passes.
type ifFrame struct {
	notFlag        bool
	pendingLabel   string // ELSE's label, or ENDIF's if there is no ELSE
	endLabel       string // ENDIF's label, once an ELSE is seen
	sawElse        bool
	condsRemaining int
	gotoEmitted    bool
}

func (*ifFrame) isFrame() {}

type whileFrame struct {
	notFlag        bool
	topLabel       string
	endLabel       string
	condsRemaining int
	gotoEmitted    bool
}

func (*whileFrame) isFrame() {}

type repeatFrame struct {
	iterArg, limitArg Argument
	topLabel          string
	span              source.Range
}

func (*repeatFrame) isFrame() {}

// labelGen produces unique synthetic jump-target labels. The prefix is
// not a legal gta3script identifier lexeme on its own (identifiers never
// start with `@`), so it can never collide with a user-declared label.
type labelGen struct{ n int }

func (g *labelGen) next() string {
	name := fmt.Sprintf("@CF_%d", g.n)
	g.n++
	return name
}
