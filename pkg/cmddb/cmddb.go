// Package cmddb loads the external command database (spec §6: "The
// Command Table is populated externally, typically from XML") into a
// cmdtable.Builder. The database is an XML document of the shape:
//
//	<GTA3Script>
//	  <Commands>
//	    <Command Name="WAIT" ID="0x0001" Supported="true">
//	      <Args>
//	        <Arg Type="INPUT_INT" Entity="" Enum=""/>
//	      </Args>
//	    </Command>
//	  </Commands>
//	  <Alternators>
//	    <Alternator Name="SET">
//	      <Alternative Command="SET_VAR_INT"/>
//	    </Alternator>
//	  </Alternators>
//	  <Constants>
//	    <Enum Name="DEFAULTMODEL">
//	      <Constant Name="CHEETAH" Value="145"/>
//	    </Enum>
//	  </Constants>
//	</GTA3Script>
//
// An Enum named GLOBAL feeds the reserved global enumeration. Commands
// without an ID attribute are loaded but flagged as not handled by the
// target, which CodeGen rejects if they are ever used.
package cmddb

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/thelink2012/gta3sc-sub000/pkg/cmdtable"
)

type xmlRoot struct {
	XMLName     xml.Name        `xml:"GTA3Script"`
	Commands    []xmlCommand    `xml:"Commands>Command"`
	Alternators []xmlAlternator `xml:"Alternators>Alternator"`
	Enums       []xmlEnum       `xml:"Constants>Enum"`
}

type xmlCommand struct {
	Name      string   `xml:"Name,attr"`
	ID        string   `xml:"ID,attr"`
	Supported *bool    `xml:"Supported,attr"`
	Args      []xmlArg `xml:"Args>Arg"`
}

type xmlArg struct {
	Type   string `xml:"Type,attr"`
	Entity string `xml:"Entity,attr"`
	Enum   string `xml:"Enum,attr"`
}

type xmlAlternator struct {
	Name         string           `xml:"Name,attr"`
	Alternatives []xmlAlternative `xml:"Alternative"`
}

type xmlAlternative struct {
	Command string `xml:"Command,attr"`
}

type xmlEnum struct {
	Name      string        `xml:"Name,attr"`
	Constants []xmlConstant `xml:"Constant"`
}

type xmlConstant struct {
	Name  string `xml:"Name,attr"`
	Value int32  `xml:"Value,attr"`
}

// paramTypes maps the Type attribute spelling to its ParamType.
var paramTypes = map[string]cmdtable.ParamType{
	"INT":                 cmdtable.Int,
	"FLOAT":               cmdtable.Float,
	"VAR_INT":             cmdtable.VarInt,
	"LVAR_INT":            cmdtable.LvarInt,
	"VAR_FLOAT":           cmdtable.VarFloat,
	"LVAR_FLOAT":          cmdtable.LvarFloat,
	"VAR_TEXT_LABEL":      cmdtable.VarTextLabel,
	"LVAR_TEXT_LABEL":     cmdtable.LvarTextLabel,
	"INPUT_INT":           cmdtable.InputInt,
	"INPUT_FLOAT":         cmdtable.InputFloat,
	"OUTPUT_INT":          cmdtable.OutputInt,
	"OUTPUT_FLOAT":        cmdtable.OutputFloat,
	"LABEL":               cmdtable.Label,
	"TEXT_LABEL":          cmdtable.TextLabel,
	"STRING":              cmdtable.String,
	"VAR_INT_OPT":         cmdtable.VarIntOpt,
	"LVAR_INT_OPT":        cmdtable.LvarIntOpt,
	"VAR_FLOAT_OPT":       cmdtable.VarFloatOpt,
	"LVAR_FLOAT_OPT":      cmdtable.LvarFloatOpt,
	"VAR_TEXT_LABEL_OPT":  cmdtable.VarTextLabelOpt,
	"LVAR_TEXT_LABEL_OPT": cmdtable.LvarTextLabelOpt,
	"INPUT_OPT":           cmdtable.InputOpt,
}

// Load reads a command database document and returns the frozen table.
func Load(r io.Reader) (*cmdtable.Table, error) {
	var root xmlRoot
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("cmddb: %w", err)
	}

	b := cmdtable.NewBuilder()

	// Enumerations first, so command parameters can reference them.
	for _, e := range root.Enums {
		enumID := cmdtable.GlobalEnum
		if cmdtable.Upper(e.Name) != "GLOBAL" {
			enumID, _ = b.InsertEnumeration(e.Name)
		}
		for _, c := range e.Constants {
			b.InsertOrAssignConstant(enumID, c.Name, c.Value)
		}
	}

	for _, c := range root.Commands {
		cmd, fresh := b.InsertCommand(c.Name)
		if !fresh {
			return nil, fmt.Errorf("cmddb: duplicate command %q", c.Name)
		}

		params := make([]cmdtable.ParamDef, 0, len(c.Args))
		for _, a := range c.Args {
			typ, ok := paramTypes[cmdtable.Upper(a.Type)]
			if !ok {
				return nil, fmt.Errorf("cmddb: command %q: unknown param type %q", c.Name, a.Type)
			}
			p := cmdtable.ParamDef{Type: typ}
			if a.Entity != "" {
				p.EntityType, _ = b.InsertEntityType(a.Entity)
			}
			if a.Enum != "" {
				p.EnumType, _ = b.InsertEnumeration(a.Enum)
			}
			params = append(params, p)
		}
		b.SetCommandParams(cmd, params)

		if c.ID == "" {
			b.SetCommandID(cmd, 0, false, false)
			continue
		}
		id, err := strconv.ParseInt(c.ID, 0, 32)
		if err != nil || id < 0 || id > 0x7FFF {
			return nil, fmt.Errorf("cmddb: command %q: bad ID %q", c.Name, c.ID)
		}
		supported := c.Supported == nil || *c.Supported
		b.SetCommandID(cmd, int16(id), true, supported)
	}

	for _, a := range root.Alternators {
		alt, _ := b.InsertAlternator(a.Name)
		for _, alternative := range a.Alternatives {
			cmd := b.FindCommand(alternative.Command)
			if cmd == nil {
				return nil, fmt.Errorf("cmddb: alternator %q: unknown command %q", a.Name, alternative.Command)
			}
			b.InsertAlternative(alt, cmd)
		}
	}

	return b.Build(), nil
}

// LoadFile loads a command database from a file path.
func LoadFile(path string) (*cmdtable.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
