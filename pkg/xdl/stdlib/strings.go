package stdlib

import (
	"strconv"
	"strings"

	"github.com/xdl-lang/xdl/pkg/xdl/evaluator"
)

// stringFn converts any value to its printed form
func stringFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) != 1 {
		return argCountError("STRING", 1, len(args))
	}
	return &evaluator.Str{Value: args[0].Inspect()}
}

// convertString parses a string for the numeric conversion functions
func convertString(name, s string, kind evaluator.Kind) evaluator.Object {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return simpleError(name + " cannot convert '" + s + "'")
	}
	return evaluator.ScalarFromFloat(f, kind)
}

func strlenFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) != 1 {
		return argCountError("STRLEN", 1, len(args))
	}
	s, ok := args[0].(*evaluator.Str)
	if !ok {
		return typeError("a string", args[0])
	}
	return &evaluator.Long{Value: int32(len(s.Value))}
}

func strcaseFn(conv func(string) string) evaluator.BuiltinFunc {
	return func(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
		if len(args) != 1 {
			return argCountError("STRUPCASE", 1, len(args))
		}
		s, ok := args[0].(*evaluator.Str)
		if !ok {
			return typeError("a string", args[0])
		}
		return &evaluator.Str{Value: conv(s.Value)}
	}
}

// strtrimFn: flag 0 trims trailing, 1 leading, 2 both (default 0)
func strtrimFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) < 1 || len(args) > 2 {
		return argCountError("STRTRIM", 2, len(args))
	}
	s, ok := args[0].(*evaluator.Str)
	if !ok {
		// Numbers stringify before trimming, a common STRTRIM idiom
		s = &evaluator.Str{Value: args[0].Inspect()}
	}
	mode := 0
	if len(args) == 2 {
		f, ok := evaluator.ToFloat(args[1])
		if !ok {
			return typeError("a number", args[1])
		}
		mode = int(f)
	}
	switch mode {
	case 1:
		return &evaluator.Str{Value: strings.TrimLeft(s.Value, " \t")}
	case 2:
		return &evaluator.Str{Value: strings.Trim(s.Value, " \t")}
	default:
		return &evaluator.Str{Value: strings.TrimRight(s.Value, " \t")}
	}
}

// strmidFn extracts a substring: STRMID(s, first[, length])
func strmidFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) < 2 || len(args) > 3 {
		return argCountError("STRMID", 3, len(args))
	}
	s, ok := args[0].(*evaluator.Str)
	if !ok {
		return typeError("a string", args[0])
	}
	firstF, ok := evaluator.ToFloat(args[1])
	if !ok {
		return typeError("a number", args[1])
	}
	first := int(firstF)
	if first < 0 {
		first = 0
	}
	if first > len(s.Value) {
		return &evaluator.Str{Value: ""}
	}
	length := len(s.Value) - first
	if len(args) == 3 {
		lf, ok := evaluator.ToFloat(args[2])
		if !ok {
			return typeError("a number", args[2])
		}
		length = int(lf)
	}
	if first+length > len(s.Value) {
		length = len(s.Value) - first
	}
	if length < 0 {
		length = 0
	}
	return &evaluator.Str{Value: s.Value[first : first+length]}
}
