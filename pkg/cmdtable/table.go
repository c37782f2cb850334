// Package cmdtable implements the immutable registry of command
// definitions, parameter types, alternators, enumerations, string
// constants and entity types that Sema resolves identifiers against. It
// is constructed through Builder and is logically frozen once Build is
// called, so the result can safely be shared by read-only reference
// across concurrent compilations (spec §5).
package cmdtable

import "strings"

// ParamType tags the kind of value a CommandDef parameter accepts.
type ParamType uint8

const (
	Int ParamType = iota
	Float

	VarInt
	LvarInt
	VarFloat
	LvarFloat
	VarTextLabel
	LvarTextLabel

	InputInt
	InputFloat
	OutputInt
	OutputFloat
	Label
	TextLabel
	String

	VarIntOpt
	LvarIntOpt
	VarFloatOpt
	LvarFloatOpt
	VarTextLabelOpt
	LvarTextLabelOpt
	InputOpt
)

// IsOptional reports whether a parameter of this type may be the tail of a
// variadic argument list (the "*_OPT" variants and INPUT_OPT).
func (t ParamType) IsOptional() bool {
	switch t {
	case VarIntOpt, LvarIntOpt, VarFloatOpt, LvarFloatOpt, VarTextLabelOpt, LvarTextLabelOpt, InputOpt:
		return true
	default:
		return false
	}
}

// IsVar reports whether this parameter type refers to a global variable
// (as opposed to a local one).
func (t ParamType) IsVar() bool {
	switch t {
	case VarInt, VarFloat, VarTextLabel, VarIntOpt, VarFloatOpt, VarTextLabelOpt:
		return true
	default:
		return false
	}
}

// IsLvar reports whether this parameter type refers to a local variable.
func (t ParamType) IsLvar() bool {
	switch t {
	case LvarInt, LvarFloat, LvarTextLabel, LvarIntOpt, LvarFloatOpt, LvarTextLabelOpt:
		return true
	default:
		return false
	}
}

// EnumId uniquely identifies an enumeration of string constants.
type EnumId uint16

// GlobalEnum is the reserved enumeration holding globally visible string
// constants such as TRUE/FALSE.
const GlobalEnum EnumId = 0

// ModelEnumName is the reserved enumeration name whose parameters accept
// model names resolved through the external ModelTable (spec §4.4a).
const ModelEnumName = "MODEL"

// DefaultModelEnumName is the reserved enumeration consulted before the
// model table (spec §4.4a: "A DEFAULTMODEL enum has priority over
// model-table lookup").
const DefaultModelEnumName = "DEFAULTMODEL"

// EntityId uniquely identifies an entity type (the kind of in-game object
// a variable or parameter refers to).
type EntityId uint16

// NoEntityType means "no entity type associated".
const NoEntityType EntityId = 0

// ParamDef describes a single command parameter.
type ParamDef struct {
	Type       ParamType
	EntityType EntityId
	EnumType   EnumId
}

// CommandDef describes a command: its name, parameter list, and the
// target opcode it compiles to.
type CommandDef struct {
	name          string
	params        []ParamDef
	targetID      int16
	hasTargetID   bool
	targetHandled bool
}

// Name returns the command's uppercase name.
func (c *CommandDef) Name() string { return c.name }

// Params returns every parameter of this command, in order.
func (c *CommandDef) Params() []ParamDef { return c.params }

// Param returns the i-th parameter.
func (c *CommandDef) Param(i int) ParamDef { return c.params[i] }

// NumParams returns the number of parameters, including an optional tail.
func (c *CommandDef) NumParams() int { return len(c.params) }

// HasOptionalParam reports whether the last parameter is a variadic tail.
func (c *CommandDef) HasOptionalParam() bool {
	if len(c.params) == 0 {
		return false
	}
	return c.params[len(c.params)-1].Type.IsOptional()
}

// NumMinParams returns the number of required parameters.
func (c *CommandDef) NumMinParams() int {
	if c.HasOptionalParam() {
		return len(c.params) - 1
	}
	return len(c.params)
}

// TargetID returns the opcode this command compiles to, and whether one
// was ever set.
func (c *CommandDef) TargetID() (int16, bool) { return c.targetID, c.hasTargetID }

// TargetHandled reports whether the target script engine supports this
// command (spec §4.7: CodeGen checks this before emitting).
func (c *CommandDef) TargetHandled() bool { return c.targetHandled }

// AlternativeDef is one overload inside an AlternatorDef.
type AlternativeDef struct {
	command *CommandDef
}

// Command returns the command definition this alternative resolves to.
func (a *AlternativeDef) Command() *CommandDef { return a.command }

// AlternatorDef is a named set of overloaded command forms resolved by
// argument kinds (e.g. SET resolving to SET_VAR_INT, SET_LVAR_FLOAT_TO_VAR_FLOAT, …).
type AlternatorDef struct {
	alternatives []*AlternativeDef
}

// Alternatives returns every alternative, in declaration order: Sema tries
// each in turn and commits to the first whose parameters match.
func (a *AlternatorDef) Alternatives() []*AlternativeDef { return a.alternatives }

// ConstantDef describes one string constant's value within an enumeration.
type ConstantDef struct {
	enumID EnumId
	value  int32
}

// EnumID returns the enumeration this constant belongs to.
func (c *ConstantDef) EnumID() EnumId { return c.enumID }

// Value returns the constant's integer value.
func (c *ConstantDef) Value() int32 { return c.value }

// Table is the immutable, queryable command database. Build one via
// Builder.Build.
type Table struct {
	commands     map[string]*CommandDef
	alternators  map[string]*AlternatorDef
	enums        map[string]EnumId
	constants    map[string][]*ConstantDef // insertion order preserved per name
	entities     map[string]EntityId
	modelEnum    EnumId
	hasModelEnum bool
	defaultEnum  EnumId
	hasDefault   bool
}

// Upper is the canonicalization applied to every lookup key: GTA3script
// identifiers are case-insensitive but stored uppercased (spec §3).
func Upper(name string) string { return strings.ToUpper(name) }

// FindCommand looks up a command by name (case-insensitive).
func (t *Table) FindCommand(name string) *CommandDef {
	return t.commands[Upper(name)]
}

// FindAlternator looks up an alternator by name (case-insensitive).
func (t *Table) FindAlternator(name string) *AlternatorDef {
	return t.alternators[Upper(name)]
}

// FindEnumeration looks up an enumeration id by name (case-insensitive).
func (t *Table) FindEnumeration(name string) (EnumId, bool) {
	id, ok := t.enums[Upper(name)]
	return id, ok
}

// FindConstant looks up a string constant by exact enumeration and name.
func (t *Table) FindConstant(enumID EnumId, name string) *ConstantDef {
	for _, c := range t.constants[Upper(name)] {
		if c.enumID == enumID {
			return c
		}
	}
	return nil
}

// FindConstantAnyMeans looks up a string constant of the given name in any
// non-global enumeration, returning the first one inserted when several
// enumerations declare a constant of the same name (spec §3).
func (t *Table) FindConstantAnyMeans(name string) *ConstantDef {
	for _, c := range t.constants[Upper(name)] {
		if c.enumID != GlobalEnum {
			return c
		}
	}
	return nil
}

// FindEntityType looks up an entity type id by name (case-insensitive).
func (t *Table) FindEntityType(name string) (EntityId, bool) {
	id, ok := t.entities[Upper(name)]
	return id, ok
}

// ModelEnum returns the reserved MODEL enumeration id, if the command
// database declared one.
func (t *Table) ModelEnum() (EnumId, bool) { return t.modelEnum, t.hasModelEnum }

// DefaultModelEnum returns the reserved DEFAULTMODEL enumeration id, if
// the command database declared one.
func (t *Table) DefaultModelEnum() (EnumId, bool) { return t.defaultEnum, t.hasDefault }
