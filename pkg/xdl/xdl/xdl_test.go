package xdl

import (
	"strings"
	"testing"

	"github.com/xdl-lang/xdl/pkg/xdl/evaluator"
)

func TestParse(t *testing.T) {
	program, errs := Parse("x = 1 + 2\nprint, x")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(program.Statements) != 2 {
		t.Errorf("got %d statements, want 2", len(program.Statements))
	}
}

func TestParseReportsErrors(t *testing.T) {
	_, errs := Parse("if x gt 5 then print, x")
	if len(errs) == 0 {
		t.Fatal("expected a parse error for the unclosed IF")
	}
	if errs[0].Code != "PARSE-0002" {
		t.Errorf("code = %s, want PARSE-0002", errs[0].Code)
	}
}

func TestParseFileSetsPosition(t *testing.T) {
	_, errs := ParseFile("x = @", "script.xdl")
	if len(errs) == 0 {
		t.Fatal("expected a parse error")
	}
	if errs[0].Line != 1 {
		t.Errorf("line = %d, want 1", errs[0].Line)
	}
}

func TestSessionRun(t *testing.T) {
	s := NewSession()
	if _, err := s.Run("x = 6 * 7"); err != nil {
		t.Fatalf("run failed: %s", err.Error())
	}
	obj, ok := s.Env().Get("X")
	if !ok {
		t.Fatal("x is not set")
	}
	if f, _ := evaluator.ToFloat(obj); f != 42 {
		t.Errorf("x = %s, want 42", obj.Inspect())
	}
}

func TestSessionStatePersists(t *testing.T) {
	s := NewSession()
	if _, err := s.Run("x = 10"); err != nil {
		t.Fatalf("run failed: %s", err.Error())
	}
	if _, err := s.Run("y = x + 5"); err != nil {
		t.Fatalf("second run failed: %s", err.Error())
	}
	obj, _ := s.Env().Get("Y")
	if f, _ := evaluator.ToFloat(obj); f != 15 {
		t.Errorf("y = %s, want 15", obj.Inspect())
	}
}

func TestRunReturnsRuntimeError(t *testing.T) {
	_, err := Run("x = 1 / 0")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Code != "ARITH-0001" {
		t.Errorf("code = %s, want ARITH-0001", err.Code)
	}
}

func TestRunFileAttachesFilename(t *testing.T) {
	s := NewSession()
	_, err := s.RunFile("x = 1 / 0", "bad.xdl")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.File != "bad.xdl" {
		t.Errorf("file = %q, want bad.xdl", err.File)
	}
}

func TestRunWithLogger(t *testing.T) {
	buf := NewBufferedLogger()
	if _, err := RunWithLogger(`print, "hello", 2 + 2`, buf); err != nil {
		t.Fatalf("run failed: %s", err.Error())
	}
	lines := buf.Lines()
	if len(lines) != 1 || lines[0] != "hello 4" {
		t.Errorf("output = %v", lines)
	}
}

func TestExitIsNotAnError(t *testing.T) {
	s := NewSession()
	result, err := s.Run("x = 1\nexit\nx = 2")
	if err != nil {
		t.Fatalf("EXIT should not be an error: %s", err.Error())
	}
	if result.Type() != evaluator.UNDEFINED_OBJ {
		t.Errorf("result = %s, want UNDEFINED", result.Type())
	}
	if !s.Interp().ExitRequested() {
		t.Error("ExitRequested should report true")
	}
}

func TestBufferedLogger(t *testing.T) {
	buf := NewBufferedLogger()
	buf.Log("partial")
	buf.LogLine(" line")
	buf.LogLine("second")

	lines := buf.Lines()
	if len(lines) != 2 || lines[0] != "partial line" || lines[1] != "second" {
		t.Errorf("lines = %v", lines)
	}
	if got := buf.String(); got != "partial line\nsecond\n" {
		t.Errorf("string = %q", got)
	}

	buf.Reset()
	if len(buf.Lines()) != 0 {
		t.Error("reset should clear the buffer")
	}
}

func TestWriterLogger(t *testing.T) {
	var sb strings.Builder
	l := NewWriterLogger(&sb)
	l.Log("a", 1)
	l.LogLine("b")
	if got := sb.String(); got != "a 1b\n" {
		t.Errorf("output = %q", got)
	}
}

func TestFormatLogValues(t *testing.T) {
	if got := formatLogValues("x", 1, 2.5); got != "x 1 2.5" {
		t.Errorf("got %q", got)
	}
	if got := formatLogValues(); got != "" {
		t.Errorf("got %q", got)
	}
}
