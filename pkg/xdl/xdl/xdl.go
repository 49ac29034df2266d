// Package xdl provides a public API for embedding the XDL interpreter.
package xdl

import (
	xdlerrors "github.com/xdl-lang/xdl/pkg/xdl/errors"
	"github.com/xdl-lang/xdl/pkg/xdl/ast"
	"github.com/xdl-lang/xdl/pkg/xdl/evaluator"
	"github.com/xdl-lang/xdl/pkg/xdl/lexer"
	"github.com/xdl-lang/xdl/pkg/xdl/parser"
	"github.com/xdl-lang/xdl/pkg/xdl/stdlib"
)

// Parse compiles source text into a program, returning the parse
// errors if there were any
func Parse(source string) (*ast.Program, []*xdlerrors.XdlError) {
	return ParseFile(source, "<input>")
}

// ParseFile is Parse with a filename for error positions
func ParseFile(source, filename string) (*ast.Program, []*xdlerrors.XdlError) {
	l := lexer.NewWithFilename(source, filename)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs
	}
	return program, nil
}

// Session is one interpreter with a persistent top-level scope, the
// way the REPL and script runner use it
type Session struct {
	interp *evaluator.Interp
	env    *evaluator.Environment
}

// NewSession creates a session with the standard library registered
func NewSession(opts ...evaluator.Option) *Session {
	interp := evaluator.NewInterp(opts...)
	stdlib.Register(interp.Registry())
	return &Session{
		interp: interp,
		env:    interp.NewEnvironment(),
	}
}

// Interp exposes the underlying interpreter for host registration of
// native routines, cancellation and heap access
func (s *Session) Interp() *evaluator.Interp { return s.interp }

// Env exposes the persistent top-level scope
func (s *Session) Env() *evaluator.Environment { return s.env }

// Run parses and executes source in the session scope. The returned
// object is the value of the last statement; a runtime failure comes
// back as *XdlError.
func (s *Session) Run(source string) (evaluator.Object, *xdlerrors.XdlError) {
	return s.RunFile(source, "<input>")
}

// RunFile is Run with a filename for error positions
func (s *Session) RunFile(source, filename string) (evaluator.Object, *xdlerrors.XdlError) {
	program, errs := ParseFile(source, filename)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	result := s.interp.Run(program, s.env)
	if errObj, ok := result.(*evaluator.Error); ok {
		// EXIT stops the run through the cancel path but is not a failure
		if s.interp.ExitRequested() {
			return evaluator.UNDEFINED, nil
		}
		return nil, errObj.Err.WithFile(filename)
	}
	return result, nil
}

// RunProgram executes an already-parsed program in the session scope
func (s *Session) RunProgram(program *ast.Program) (evaluator.Object, *xdlerrors.XdlError) {
	result := s.interp.Run(program, s.env)
	if errObj, ok := result.(*evaluator.Error); ok {
		if s.interp.ExitRequested() {
			return evaluator.UNDEFINED, nil
		}
		return nil, errObj.Err
	}
	return result, nil
}

// Run is the one-shot convenience: a fresh session, stdout output
func Run(source string) (evaluator.Object, *xdlerrors.XdlError) {
	return NewSession().Run(source)
}

// RunWithLogger is Run with the output captured by a logger
func RunWithLogger(source string, logger evaluator.Logger) (evaluator.Object, *xdlerrors.XdlError) {
	return NewSession(evaluator.WithLogger(logger)).Run(source)
}
