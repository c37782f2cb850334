package lexer

import "github.com/thelink2012/gta3sc-sub000/pkg/source"

// Kind enumerates every token category the scanner produces (spec §4.2).
type Kind uint8

const (
	Word Kind = iota
	String
	Whitespace
	EndOfLine
	EOF

	// Arithmetic / assignment / relational operators, recognised only in
	// expression mode.
	Plus
	Minus
	Star
	Slash
	PlusAt
	MinusAt
	PlusPlus
	MinusMinus
	Equal
	EqualHash
	PlusEqual
	MinusEqual
	StarEqual
	SlashEqual
	PlusEqualAt
	MinusEqualAt
	Less
	LessEqual
	Greater
	GreaterEqual

	// Derived categories.
	LabelTok
	Filename
)

// Token is a single lexeme: its category, source span, and (for Word,
// String, LabelTok and Filename) the literal text it covers.
type Token struct {
	Kind Kind
	Span source.Range
	Text string
}

// IsArgument reports whether this token could stand in the "arg" slot of
// an expression pattern (spec §4.2 step 3): integer/float/identifier/string.
func (k Kind) IsArgument() bool {
	return k == Word || k == String
}

// IsUnaryOp reports whether this token is `++` or `--`.
func (k Kind) IsUnaryOp() bool {
	return k == PlusPlus || k == MinusMinus
}

// IsAssignmentOp reports whether this token is one of the assignment
// operators (`=`, `=#`, `+=`, `-=`, `*=`, `/=`, `+=@`, `-=@`).
func (k Kind) IsAssignmentOp() bool {
	switch k {
	case Equal, EqualHash, PlusEqual, MinusEqual, StarEqual, SlashEqual, PlusEqualAt, MinusEqualAt:
		return true
	default:
		return false
	}
}

// IsRelationalOp reports whether this token is `<`, `<=`, `>` or `>=`.
func (k Kind) IsRelationalOp() bool {
	switch k {
	case Less, LessEqual, Greater, GreaterEqual:
		return true
	default:
		return false
	}
}

// IsBinaryOp reports whether this token is a binary arithmetic operator
// usable in a ternary assignment (`+`, `-`, `*`, `/`, `+@`).
func (k Kind) IsBinaryOp() bool {
	switch k {
	case Plus, Minus, Star, Slash, PlusAt:
		return true
	default:
		return false
	}
}

// IsAssociative reports whether a binary operator is associative, which
// governs one of the parser's desugaring rules (spec §4.3, `x = y op z`
// with x==z).
func (k Kind) IsAssociative() bool {
	return k == Plus || k == Star
}
