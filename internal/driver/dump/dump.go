// Package dump serialises Parser-IR and Sema-IR for the dump-ir
// subcommand, either as indented JSON or as a flat textual listing.
package dump

import (
	"fmt"
	"io"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/thelink2012/gta3sc-sub000/pkg/parserir"
	"github.com/thelink2012/gta3sc-sub000/pkg/semair"
	"github.com/thelink2012/gta3sc-sub000/pkg/symtab"
)

type lineDTO struct {
	Label   string   `json:"label,omitempty"`
	Command *cmdDTO  `json:"command,omitempty"`
}

type cmdDTO struct {
	Name string   `json:"name"`
	Not  bool     `json:"not,omitempty"`
	Args []argDTO `json:"args,omitempty"`
}

type argDTO struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

func parserLines(list *parserir.List) []lineDTO {
	var out []lineDTO
	list.Each(func(line *parserir.Line) {
		dto := lineDTO{}
		if line.Label != nil {
			dto.Label = line.Label.Name
		}
		if line.Cmd != nil {
			c := &cmdDTO{Name: line.Cmd.Name, Not: line.Cmd.NotFlag}
			for _, a := range line.Cmd.Args {
				c.Args = append(c.Args, parserArg(a))
			}
			dto.Command = c
		}
		out = append(out, dto)
	})
	return out
}

func parserArg(a parserir.Argument) argDTO {
	switch a.Kind {
	case parserir.ArgInteger:
		return argDTO{Kind: "int", Value: a.Int}
	case parserir.ArgFloat:
		return argDTO{Kind: "float", Value: a.Float}
	case parserir.ArgString:
		return argDTO{Kind: "string", Value: a.Text}
	case parserir.ArgFilename:
		return argDTO{Kind: "filename", Value: a.Text}
	default:
		return argDTO{Kind: "identifier", Value: a.Text}
	}
}

func semaLines(list *semair.List) []lineDTO {
	var out []lineDTO
	list.Each(func(line *semair.Line) {
		dto := lineDTO{}
		if line.Label != nil {
			dto.Label = line.Label.Name()
		}
		if line.Cmd != nil {
			c := &cmdDTO{Name: line.Cmd.Def.Name(), Not: line.Cmd.NotFlag}
			for _, a := range line.Cmd.Args {
				c.Args = append(c.Args, semaArg(a))
			}
			dto.Command = c
		}
		out = append(out, dto)
	})
	return out
}

func semaArg(a semair.Argument) argDTO {
	switch a.Kind {
	case semair.ArgInt:
		return argDTO{Kind: "int", Value: a.Int}
	case semair.ArgFloat:
		return argDTO{Kind: "float", Value: a.Float}
	case semair.ArgTextLabel:
		return argDTO{Kind: "text_label", Value: a.Text}
	case semair.ArgString:
		return argDTO{Kind: "string", Value: a.Text}
	case semair.ArgLabel:
		return argDTO{Kind: "label", Value: a.Label.Name()}
	case semair.ArgFile:
		return argDTO{Kind: "file", Value: a.File.Name()}
	case semair.ArgConstant:
		return argDTO{Kind: "constant", Value: a.Constant.Value()}
	case semair.ArgUsedObject:
		return argDTO{Kind: "used_object", Value: a.UsedObject.Name()}
	case semair.ArgVarRef:
		return argDTO{Kind: "var", Value: varRefString(a.Var)}
	default:
		return argDTO{Kind: "unknown", Value: nil}
	}
}

func varRefString(ref semair.VarRef) string {
	name := ref.Var.Name()
	if ref.Var.Scope() != symtab.GlobalScope {
		name = fmt.Sprintf("%s@%d", name, ref.Var.Scope())
	}
	switch {
	case ref.HasIndexLiteral:
		return fmt.Sprintf("%s[%d]", name, ref.IndexLiteral)
	case ref.IndexVar != nil:
		return fmt.Sprintf("%s[%s]", name, ref.IndexVar.Name())
	default:
		return name
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeText(w io.Writer, lines []lineDTO) error {
	for _, l := range lines {
		if l.Label != "" {
			if _, err := fmt.Fprintf(w, "%s:\n", l.Label); err != nil {
				return err
			}
		}
		if l.Command == nil {
			continue
		}
		var sb strings.Builder
		if l.Command.Not {
			sb.WriteString("NOT ")
		}
		sb.WriteString(l.Command.Name)
		for _, a := range l.Command.Args {
			fmt.Fprintf(&sb, " %v", a.Value)
		}
		if _, err := fmt.Fprintf(w, "    %s\n", sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// ParserIRJSON writes list as indented JSON.
func ParserIRJSON(w io.Writer, list *parserir.List) error {
	return writeJSON(w, parserLines(list))
}

// ParserIRText writes list as a flat listing.
func ParserIRText(w io.Writer, list *parserir.List) error {
	return writeText(w, parserLines(list))
}

// SemaIRJSON writes list as indented JSON.
func SemaIRJSON(w io.Writer, list *semair.List) error {
	return writeJSON(w, semaLines(list))
}

// SemaIRText writes list as a flat listing.
func SemaIRText(w io.Writer, list *semair.List) error {
	return writeText(w, semaLines(list))
}
