package cmdtable

// Builder prepares command definitions before producing an immutable
// Table. Mirrors the teacher's Builder-then-build().freeze() pattern used
// for CommandTable (every map is mutable here, read-only after Build).
type Builder struct {
	commands    map[string]*CommandDef
	alternators map[string]*AlternatorDef
	enums       map[string]EnumId
	constants   map[string][]*ConstantDef
	entities    map[string]EntityId
	nextEnum    EnumId
	nextEntity  EntityId
}

// NewBuilder constructs an empty builder. The global string-constant
// enumeration (EnumId 0) always exists.
func NewBuilder() *Builder {
	b := &Builder{
		commands:    make(map[string]*CommandDef),
		alternators: make(map[string]*AlternatorDef),
		enums:       make(map[string]EnumId),
		constants:   make(map[string][]*ConstantDef),
		entities:    make(map[string]EntityId),
	}
	b.enums["GLOBAL"] = GlobalEnum
	b.nextEnum = GlobalEnum + 1
	b.nextEntity = NoEntityType + 1
	return b
}

// FindCommand behaves like Table.FindCommand.
func (b *Builder) FindCommand(name string) *CommandDef { return b.commands[Upper(name)] }

// FindAlternator behaves like Table.FindAlternator.
func (b *Builder) FindAlternator(name string) *AlternatorDef { return b.alternators[Upper(name)] }

// FindEnumeration behaves like Table.FindEnumeration.
func (b *Builder) FindEnumeration(name string) (EnumId, bool) {
	id, ok := b.enums[Upper(name)]
	return id, ok
}

// FindEntityType behaves like Table.FindEntityType.
func (b *Builder) FindEntityType(name string) (EntityId, bool) {
	id, ok := b.entities[Upper(name)]
	return id, ok
}

// InsertCommand inserts a command with the given name, doing nothing if
// one already exists. Returns the command and whether it was freshly
// inserted.
func (b *Builder) InsertCommand(name string) (*CommandDef, bool) {
	key := Upper(name)
	if c, ok := b.commands[key]; ok {
		return c, false
	}
	c := &CommandDef{name: key}
	b.commands[key] = c
	return c, true
}

// SetCommandParams replaces a command's parameter list.
func (b *Builder) SetCommandParams(cmd *CommandDef, params []ParamDef) {
	cmd.params = append([]ParamDef(nil), params...)
}

// SetCommandID sets the opcode a command compiles to (or clears it, when
// hasID is false, for commands not yet handled by the target engine).
func (b *Builder) SetCommandID(cmd *CommandDef, id int16, hasID, handled bool) {
	cmd.targetID = id
	cmd.hasTargetID = hasID
	cmd.targetHandled = handled
}

// InsertAlternator inserts an alternator with the given name, doing
// nothing if one already exists.
func (b *Builder) InsertAlternator(name string) (*AlternatorDef, bool) {
	key := Upper(name)
	if a, ok := b.alternators[key]; ok {
		return a, false
	}
	a := &AlternatorDef{}
	b.alternators[key] = a
	return a, true
}

// InsertAlternative appends command as a new overload of alternator. The
// behaviour is unspecified if command is already present (mirrors the
// original's documented contract).
func (b *Builder) InsertAlternative(alt *AlternatorDef, cmd *CommandDef) *AlternativeDef {
	alternative := &AlternativeDef{command: cmd}
	alt.alternatives = append(alt.alternatives, alternative)
	return alternative
}

// InsertEnumeration inserts an enumeration with the given name, doing
// nothing if one already exists.
func (b *Builder) InsertEnumeration(name string) (EnumId, bool) {
	key := Upper(name)
	if id, ok := b.enums[key]; ok {
		return id, false
	}
	id := b.nextEnum
	b.nextEnum++
	b.enums[key] = id
	if key == ModelEnumName {
		// Recorded for Table.ModelEnum once built.
	}
	return id, true
}

// InsertOrAssignConstant inserts a string constant into enumID, or
// replaces its value (without counting as a fresh insertion) if a
// constant of the same name already exists in that same enumeration.
// A constant sharing a name with one in a different enumeration is kept
// alongside it; FindConstantAnyMeans prefers whichever was inserted first.
func (b *Builder) InsertOrAssignConstant(enumID EnumId, name string, value int32) (*ConstantDef, bool) {
	key := Upper(name)
	for _, c := range b.constants[key] {
		if c.enumID == enumID {
			c.value = value
			return c, false
		}
	}
	c := &ConstantDef{enumID: enumID, value: value}
	b.constants[key] = append(b.constants[key], c)
	return c, true
}

// InsertEntityType inserts an entity type with the given name, doing
// nothing if one already exists.
func (b *Builder) InsertEntityType(name string) (EntityId, bool) {
	key := Upper(name)
	if id, ok := b.entities[key]; ok {
		return id, false
	}
	id := b.nextEntity
	b.nextEntity++
	b.entities[key] = id
	return id, true
}

// Build freezes the builder into an immutable Table. The builder should
// not be used afterwards.
func (b *Builder) Build() *Table {
	t := &Table{
		commands:    b.commands,
		alternators: b.alternators,
		enums:       b.enums,
		constants:   b.constants,
		entities:    b.entities,
	}
	if id, ok := b.enums[ModelEnumName]; ok {
		t.modelEnum, t.hasModelEnum = id, true
	}
	if id, ok := b.enums[DefaultModelEnumName]; ok {
		t.defaultEnum, t.hasDefault = id, true
	}
	return t
}
