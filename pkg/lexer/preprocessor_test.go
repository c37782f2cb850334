package lexer

import (
	"testing"

	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
	"github.com/thelink2012/gta3sc-sub000/pkg/source"
)

func collect(t *testing.T, text string) (string, []diag.Diagnostic) {
	t.Helper()
	mgr := source.NewManager()
	file := mgr.LoadBytes("test.sc", source.FileMain, []byte(text))
	coll := diag.NewCollector()
	handler := diag.NewHandler(coll.Emit)
	pp := NewPreprocessor(file, handler)

	var out []byte
	for {
		c := pp.Next()
		if c == 0 && pp.Eof() {
			break
		}
		out = append(out, c)
	}
	return string(out), coll.Diagnostics()
}

func TestPreprocessorCollapsesInteriorWhitespace(t *testing.T) {
	got, _ := collect(t, "WAIT   500\n")
	want := "WAIT 500\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPreprocessorTrimsLeadingAndTrailingWhitespace(t *testing.T) {
	got, _ := collect(t, "   WAIT 500   \n")
	want := "WAIT 500\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPreprocessorTreatsParensAndCommaAsWhitespace(t *testing.T) {
	got, _ := collect(t, "WAIT(500,600)\n")
	want := "WAIT 500 600\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPreprocessorNormalizesCRLF(t *testing.T) {
	got, _ := collect(t, "WAIT 1\r\nWAIT 2\r")
	want := "WAIT 1\nWAIT 2\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPreprocessorStripsLineComment(t *testing.T) {
	got, _ := collect(t, "WAIT 1 // comment here\nWAIT 2\n")
	want := "WAIT 1\nWAIT 2\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPreprocessorStripsBlockCommentAcrossLines(t *testing.T) {
	got, _ := collect(t, "WAIT /* across\nmultiple\nlines */ 500\n")
	want := "WAIT 500\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPreprocessorNestsBlockComments(t *testing.T) {
	got, _ := collect(t, "WAIT /* outer /* inner */ still outer */ 500\n")
	want := "WAIT 500\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPreprocessorUnterminatedCommentDiagnoses(t *testing.T) {
	_, diags := collect(t, "WAIT /* never closed\n")
	if len(diags) != 1 || diags[0].Kind != diag.UnterminatedComment {
		t.Fatalf("diags = %+v, want one unterminated_comment", diags)
	}
}

func TestPreprocessorInvalidCharDiagnoses(t *testing.T) {
	got, diags := collect(t, "WAIT\x01500\n")
	if len(diags) != 1 || diags[0].Kind != diag.InvalidChar {
		t.Fatalf("diags = %+v, want one invalid_char", diags)
	}
	if got != "WAIT500\n" {
		t.Fatalf("got %q", got)
	}
}

func TestPreprocessorTellSeekRewinds(t *testing.T) {
	mgr := source.NewManager()
	file := mgr.LoadBytes("test.sc", source.FileMain, []byte("ABC"))
	pp := NewPreprocessor(file, nil)

	snap := pp.Tell()
	first := pp.Next()
	pp.Seek(snap)
	second := pp.Next()
	if first != second {
		t.Fatalf("expected rewind to reproduce %q, got %q", first, second)
	}
}
