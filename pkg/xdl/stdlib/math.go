package stdlib

import (
	"math"

	"github.com/xdl-lang/xdl/pkg/xdl/evaluator"
)

func sinImpl(v float64) float64   { return math.Sin(v) }
func cosImpl(v float64) float64   { return math.Cos(v) }
func tanImpl(v float64) float64   { return math.Tan(v) }
func sqrtImpl(v float64) float64  { return math.Sqrt(v) }
func expImpl(v float64) float64   { return math.Exp(v) }
func logImpl(v float64) float64   { return math.Log(v) }
func log10Impl(v float64) float64 { return math.Log10(v) }

// mathFn lifts a float function over scalars and arrays. Integer
// inputs promote to FLOAT, doubles stay DOUBLE.
func mathFn(name string, impl func(float64) float64) evaluator.BuiltinFunc {
	return func(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
		if len(args) != 1 {
			return argCountError(name, 1, len(args))
		}
		switch v := args[0].(type) {
		case *evaluator.Array:
			out := evaluator.CopyValue(v).(*evaluator.Array)
			for n := range out.Data {
				out.Data[n] = impl(out.Data[n])
			}
			out.Kind = promoteToFloat(v.Kind)
			return out
		default:
			f, ok := evaluator.ToFloat(args[0])
			if !ok {
				return typeError("a number or array", args[0])
			}
			kind, _ := evaluator.NumericKind(args[0])
			return evaluator.ScalarFromFloat(impl(f), promoteToFloat(kind))
		}
	}
}

func promoteToFloat(k evaluator.Kind) evaluator.Kind {
	if k == evaluator.KindDouble {
		return evaluator.KindDouble
	}
	return evaluator.KindFloat
}

// absFn keeps the input kind instead of promoting to float
func absFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) != 1 {
		return argCountError("ABS", 1, len(args))
	}
	switch v := args[0].(type) {
	case *evaluator.Array:
		out := evaluator.CopyValue(v).(*evaluator.Array)
		for n := range out.Data {
			out.Data[n] = math.Abs(out.Data[n])
		}
		return out
	case *evaluator.Complex:
		return &evaluator.Double{Value: math.Hypot(real(v.Value), imag(v.Value))}
	default:
		f, ok := evaluator.ToFloat(args[0])
		if !ok {
			return typeError("a number or array", args[0])
		}
		kind, _ := evaluator.NumericKind(args[0])
		return evaluator.ScalarFromFloat(math.Abs(f), kind)
	}
}

// convertFn builds the BYTE/FIX/LONG/FLOAT/DOUBLE conversions, which
// work elementwise on arrays and truncate toward zero for integers
func convertFn(name string, kind evaluator.Kind) evaluator.BuiltinFunc {
	return func(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
		if len(args) != 1 {
			return argCountError(name, 1, len(args))
		}
		switch v := args[0].(type) {
		case *evaluator.Array:
			out := evaluator.CopyValue(v).(*evaluator.Array)
			out.Kind = kind
			for n := range out.Data {
				f, _ := evaluator.ToFloat(evaluator.ScalarFromFloat(out.Data[n], kind))
				out.Data[n] = f
			}
			return out
		case *evaluator.Str:
			return convertString(name, v.Value, kind)
		default:
			f, ok := evaluator.ToFloat(args[0])
			if !ok {
				return typeError("a number, string or array", args[0])
			}
			return evaluator.ScalarFromFloat(f, kind)
		}
	}
}

// complexFn builds a complex number from real and imaginary parts
func complexFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) < 1 || len(args) > 2 {
		return argCountError("COMPLEX", 2, len(args))
	}
	re, ok := evaluator.ToFloat(args[0])
	if !ok {
		return typeError("a number", args[0])
	}
	im := 0.0
	if len(args) == 2 {
		im, ok = evaluator.ToFloat(args[1])
		if !ok {
			return typeError("a number", args[1])
		}
	}
	return &evaluator.Complex{Value: complex(re, im)}
}
