// Package stdlib provides the native procedures and functions every
// interpreter instance starts with.
package stdlib

import (
	"fmt"
	"strings"

	"github.com/xdl-lang/xdl/pkg/xdl/evaluator"
	xdlerrors "github.com/xdl-lang/xdl/pkg/xdl/errors"
)

// Register installs the standard routines into a registry
func Register(reg *evaluator.Registry) {
	// Procedures
	reg.RegisterProcedure("PRINT", printProc)
	reg.RegisterProcedure("EXIT", exitProc)
	reg.RegisterProcedure("HELP", helpProc)
	reg.RegisterProcedure("PTR_FREE", ptrFree)

	// Array creation and inquiry
	reg.RegisterFunction("N_ELEMENTS", nElements)
	reg.RegisterFunction("SIZE", sizeFn)
	reg.RegisterFunction("INDGEN", makeRampFn(evaluator.KindInt))
	reg.RegisterFunction("LINDGEN", makeRampFn(evaluator.KindLong))
	reg.RegisterFunction("FINDGEN", makeRampFn(evaluator.KindFloat))
	reg.RegisterFunction("DINDGEN", makeRampFn(evaluator.KindDouble))
	reg.RegisterFunction("BYTARR", makeZeroFn(evaluator.KindByte))
	reg.RegisterFunction("INTARR", makeZeroFn(evaluator.KindInt))
	reg.RegisterFunction("LONARR", makeZeroFn(evaluator.KindLong))
	reg.RegisterFunction("FLTARR", makeZeroFn(evaluator.KindFloat))
	reg.RegisterFunction("DBLARR", makeZeroFn(evaluator.KindDouble))
	reg.RegisterFunction("REFORM", reformFn)
	reg.RegisterFunction("TRANSPOSE", transposeFn)

	// Reductions
	reg.RegisterFunction("TOTAL", totalFn)
	reg.RegisterFunction("MIN", minFn)
	reg.RegisterFunction("MAX", maxFn)
	reg.RegisterFunction("MEAN", meanFn)

	// Math
	reg.RegisterFunction("ABS", absFn)
	reg.RegisterFunction("SIN", mathFn("SIN", sinImpl))
	reg.RegisterFunction("COS", mathFn("COS", cosImpl))
	reg.RegisterFunction("TAN", mathFn("TAN", tanImpl))
	reg.RegisterFunction("SQRT", mathFn("SQRT", sqrtImpl))
	reg.RegisterFunction("EXP", mathFn("EXP", expImpl))
	reg.RegisterFunction("ALOG", mathFn("ALOG", logImpl))
	reg.RegisterFunction("ALOG10", mathFn("ALOG10", log10Impl))

	// Type conversion
	reg.RegisterFunction("BYTE", convertFn("BYTE", evaluator.KindByte))
	reg.RegisterFunction("FIX", convertFn("FIX", evaluator.KindInt))
	reg.RegisterFunction("LONG", convertFn("LONG", evaluator.KindLong))
	reg.RegisterFunction("FLOAT", convertFn("FLOAT", evaluator.KindFloat))
	reg.RegisterFunction("DOUBLE", convertFn("DOUBLE", evaluator.KindDouble))
	reg.RegisterFunction("COMPLEX", complexFn)

	// Strings
	reg.RegisterFunction("STRING", stringFn)
	reg.RegisterFunction("STRLEN", strlenFn)
	reg.RegisterFunction("STRUPCASE", strcaseFn(strings.ToUpper))
	reg.RegisterFunction("STRLOWCASE", strcaseFn(strings.ToLower))
	reg.RegisterFunction("STRTRIM", strtrimFn)
	reg.RegisterFunction("STRMID", strmidFn)

	// Pointers
	reg.RegisterFunction("PTR_NEW", ptrNew)
	reg.RegisterFunction("PTR_VALID", ptrValid)

	// Misc
	reg.RegisterFunction("KEYWORD_SET", keywordSet)
}

// printProc writes its arguments on one line, space separated
func printProc(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	parts := make([]string, len(args))
	for n, a := range args {
		parts[n] = a.Inspect()
	}
	i.Logger().LogLine(strings.Join(parts, " "))
	return evaluator.UNDEFINED
}

// exitProc stops the current run cleanly
func exitProc(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	i.RequestExit()
	return evaluator.UNDEFINED
}

// helpProc prints a one-line description of each argument
func helpProc(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	for _, a := range args {
		i.Logger().LogLine(string(a.Type()), "=", a.Inspect())
	}
	return evaluator.UNDEFINED
}

func argCountError(callee string, want, got int) evaluator.Object {
	return evaluator.NewError("ARG-0001", map[string]any{
		"Callee": callee, "Want": want, "Got": got,
	})
}

func typeError(expected string, got evaluator.Object) evaluator.Object {
	return evaluator.NewError("TYPE-0003", map[string]any{
		"Expected": expected, "Got": string(got.Type()),
	})
}

func simpleError(msg string) evaluator.Object {
	return &evaluator.Error{Err: xdlerrors.NewSimple(xdlerrors.ClassArgument, msg)}
}

func limitError(callee string, n, limit int) evaluator.Object {
	return &evaluator.Error{Err: xdlerrors.NewSimple(xdlerrors.ClassState,
		fmt.Sprintf("%s: %d elements exceeds the allocation limit of %d", callee, n, limit))}
}
