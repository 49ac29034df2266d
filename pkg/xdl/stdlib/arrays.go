package stdlib

import (
	"github.com/xdl-lang/xdl/pkg/xdl/evaluator"
)

// nElements: array length, 1 for a scalar or string, 0 for undefined
func nElements(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) != 1 {
		return argCountError("N_ELEMENTS", 1, len(args))
	}
	switch v := args[0].(type) {
	case *evaluator.Array:
		return &evaluator.Long{Value: int32(v.Len())}
	case *evaluator.NestedArray:
		return &evaluator.Long{Value: int32(len(v.Rows))}
	case *evaluator.Undefined:
		return &evaluator.Long{Value: 0}
	default:
		return &evaluator.Long{Value: 1}
	}
}

// typeCode mirrors the classic SIZE type codes
func typeCode(obj evaluator.Object) int32 {
	switch obj.(type) {
	case *evaluator.Undefined:
		return 0
	case *evaluator.Byte:
		return 1
	case *evaluator.Int:
		return 2
	case *evaluator.Long:
		return 3
	case *evaluator.Float:
		return 4
	case *evaluator.Double:
		return 5
	case *evaluator.Complex:
		return 6
	case *evaluator.Str:
		return 7
	case *evaluator.Struct:
		return 8
	case *evaluator.Pointer:
		return 10
	}
	return 0
}

func kindTypeCode(k evaluator.Kind) int32 {
	switch k {
	case evaluator.KindByte:
		return 1
	case evaluator.KindInt:
		return 2
	case evaluator.KindLong:
		return 3
	case evaluator.KindFloat:
		return 4
	case evaluator.KindDouble:
		return 5
	default:
		return 6
	}
}

// sizeFn returns [ndims, dim1..dimN, typecode, nelements] as a LONG array
func sizeFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) != 1 {
		return argCountError("SIZE", 1, len(args))
	}
	var dims []int
	var code int32
	var count int

	if arr, ok := args[0].(*evaluator.Array); ok {
		dims = arr.Shape
		code = kindTypeCode(arr.Kind)
		count = arr.Len()
	} else {
		code = typeCode(args[0])
		count = 1
		if _, ok := args[0].(*evaluator.Undefined); ok {
			count = 0
		}
	}

	data := make([]float64, 0, len(dims)+3)
	data = append(data, float64(len(dims)))
	for _, d := range dims {
		data = append(data, float64(d))
	}
	data = append(data, float64(code), float64(count))
	return &evaluator.Array{Data: data, Shape: []int{len(data)}, Kind: evaluator.KindLong}
}

// dimsFromArgs reads positional dimension arguments
func dimsFromArgs(callee string, args []evaluator.Object) ([]int, evaluator.Object) {
	if len(args) == 0 {
		return nil, simpleError(callee + " needs at least one dimension")
	}
	dims := make([]int, len(args))
	for n, a := range args {
		f, ok := evaluator.ToFloat(a)
		if !ok || f < 0 {
			return nil, typeError("a non-negative dimension", a)
		}
		dims[n] = int(f)
	}
	return dims, nil
}

// makeRampFn builds INDGEN-family generators: 0, 1, 2, ... of the
// given kind, with START and INCREMENT keywords
func makeRampFn(kind evaluator.Kind) evaluator.BuiltinFunc {
	return func(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
		dims, errObj := dimsFromArgs("INDGEN", args)
		if errObj != nil {
			return errObj
		}
		start, increment := 0.0, 1.0
		if v, ok := kws["START"]; ok {
			f, ok := evaluator.ToFloat(v)
			if !ok {
				return typeError("a number", v)
			}
			start = f
		}
		if v, ok := kws["INCREMENT"]; ok {
			f, ok := evaluator.ToFloat(v)
			if !ok {
				return typeError("a number", v)
			}
			increment = f
		}

		total := 1
		for _, d := range dims {
			total *= d
		}
		if total > i.MaxElements() {
			return limitError("INDGEN", total, i.MaxElements())
		}
		data := make([]float64, total)
		v := start
		for n := range data {
			data[n] = v
			v += increment
		}
		return &evaluator.Array{Data: data, Shape: dims, Kind: kind}
	}
}

// makeZeroFn builds FLTARR-family zero-filled array constructors
func makeZeroFn(kind evaluator.Kind) evaluator.BuiltinFunc {
	return func(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
		dims, errObj := dimsFromArgs("ARR", args)
		if errObj != nil {
			return errObj
		}
		total := 1
		for _, d := range dims {
			total *= d
		}
		if total > i.MaxElements() {
			return limitError("ARR", total, i.MaxElements())
		}
		return &evaluator.Array{Data: make([]float64, total), Shape: dims, Kind: kind}
	}
}

// reformFn reshapes an array without copying semantics changes; the
// element count must match
func reformFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) < 2 {
		return argCountError("REFORM", 2, len(args))
	}
	arr, ok := args[0].(*evaluator.Array)
	if !ok {
		return typeError("an array", args[0])
	}
	dims, errObj := dimsFromArgs("REFORM", args[1:])
	if errObj != nil {
		return errObj
	}
	total := 1
	for _, d := range dims {
		total *= d
	}
	if total != arr.Len() {
		return evaluator.NewError("TYPE-0002", map[string]any{"Got": total, "Want": arr.Len()})
	}
	out := evaluator.CopyValue(arr).(*evaluator.Array)
	out.Shape = dims
	return out
}

// transposeFn swaps the two dimensions of a matrix; a vector becomes
// a single-column matrix
func transposeFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) != 1 {
		return argCountError("TRANSPOSE", 1, len(args))
	}
	arr, ok := args[0].(*evaluator.Array)
	if !ok {
		return typeError("an array", args[0])
	}
	switch len(arr.Shape) {
	case 1:
		out := evaluator.CopyValue(arr).(*evaluator.Array)
		out.Shape = []int{arr.Len(), 1}
		return out
	case 2:
		rows, cols := arr.Shape[0], arr.Shape[1]
		data := make([]float64, arr.Len())
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				data[c*rows+r] = arr.Data[r*cols+c]
			}
		}
		return &evaluator.Array{Data: data, Shape: []int{cols, rows}, Kind: arr.Kind}
	default:
		return typeError("a 1- or 2-dimensional array", args[0])
	}
}

// ---------------------------------------------------------------------------
// Reductions
// ---------------------------------------------------------------------------

func reduceArgs(callee string, args []evaluator.Object) (*evaluator.Array, evaluator.Object) {
	if len(args) != 1 {
		return nil, argCountError(callee, 1, len(args))
	}
	if arr, ok := args[0].(*evaluator.Array); ok {
		return arr, nil
	}
	// A scalar reduces to itself
	f, ok := evaluator.ToFloat(args[0])
	if !ok {
		return nil, typeError("an array or number", args[0])
	}
	kind, _ := evaluator.NumericKind(args[0])
	return &evaluator.Array{Data: []float64{f}, Shape: []int{1}, Kind: kind}, nil
}

// totalFn sums all elements, always as DOUBLE
func totalFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	arr, errObj := reduceArgs("TOTAL", args)
	if errObj != nil {
		return errObj
	}
	var sum float64
	for _, v := range arr.Data {
		sum += v
	}
	return &evaluator.Double{Value: sum}
}

func minFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	arr, errObj := reduceArgs("MIN", args)
	if errObj != nil {
		return errObj
	}
	if arr.Len() == 0 {
		return simpleError("MIN of an empty array")
	}
	best := arr.Data[0]
	for _, v := range arr.Data[1:] {
		if v < best {
			best = v
		}
	}
	return evaluator.ScalarFromFloat(best, arr.Kind)
}

func maxFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	arr, errObj := reduceArgs("MAX", args)
	if errObj != nil {
		return errObj
	}
	if arr.Len() == 0 {
		return simpleError("MAX of an empty array")
	}
	best := arr.Data[0]
	for _, v := range arr.Data[1:] {
		if v > best {
			best = v
		}
	}
	return evaluator.ScalarFromFloat(best, arr.Kind)
}

func meanFn(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	arr, errObj := reduceArgs("MEAN", args)
	if errObj != nil {
		return errObj
	}
	if arr.Len() == 0 {
		return simpleError("MEAN of an empty array")
	}
	var sum float64
	for _, v := range arr.Data {
		sum += v
	}
	return &evaluator.Double{Value: sum / float64(arr.Len())}
}

// keywordSet: 1 when the argument is a defined, nonzero value
func keywordSet(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) != 1 {
		return argCountError("KEYWORD_SET", 1, len(args))
	}
	return evaluator.BoolLong(evaluator.IsTruthy(args[0]))
}
