package evaluator

import (
	"strings"

	"github.com/xdl-lang/xdl/pkg/xdl/ast"
	xdlerrors "github.com/xdl-lang/xdl/pkg/xdl/errors"
)

// dimSelection is one resolved subscript: the selected positions along
// a dimension, already normalized and bounds-checked, plus whether the
// subscript was a single scalar (which drops the dimension from the
// result shape)
type dimSelection struct {
	positions []int
	scalar    bool
}

// evalIndexExpression reads a[i], m[i,j], v[1:3], m[*,1] and so on
func evalIndexExpression(node *ast.IndexExpression, env *Environment) Object {
	left := Eval(node.Left, env)
	if isError(left) {
		return left
	}

	switch target := left.(type) {
	case *Array:
		return readArrayIndex(target, node, env)
	case *NestedArray:
		return readNestedIndex(target, node, env)
	case *Str:
		return readStringIndex(target, node, env)
	default:
		return newError("TYPE-0006", map[string]any{"Got": string(left.Type())})
	}
}

func readArrayIndex(arr *Array, node *ast.IndexExpression, env *Environment) Object {
	sels, errObj := resolveSubscripts(arr, node.Indices, env)
	if errObj != nil {
		return errObj
	}

	flat, outShape := expandSelections(arr, sels)
	if len(outShape) == 0 {
		return arr.Elem(flat[0])
	}

	data := make([]float64, len(flat))
	for i, pos := range flat {
		data[i] = arr.Data[pos]
	}
	return &Array{Data: data, Shape: outShape, Kind: arr.Kind}
}

// resolveSubscripts turns the subscript expressions into per-dimension
// position lists. A single subscript on a multi-dimensional array
// indexes the flat row-major data.
func resolveSubscripts(arr *Array, indices []ast.Expression, env *Environment) ([]dimSelection, Object) {
	dims := arr.Shape
	if len(indices) == 1 && len(arr.Shape) > 1 {
		dims = []int{arr.Len()}
	}
	if len(indices) > len(dims) {
		return nil, newError("INDEX-0002", map[string]any{
			"Dims": len(arr.Shape), "Got": len(indices),
		})
	}

	sels := make([]dimSelection, len(dims))
	for d := range dims {
		if d >= len(indices) {
			// Unsubscripted trailing dimensions select everything
			sels[d] = allSelection(dims[d])
			continue
		}
		sel, errObj := resolveOneSubscript(indices[d], dims[d], env)
		if errObj != nil {
			return nil, errObj
		}
		sels[d] = sel
	}
	return sels, nil
}

func allSelection(size int) dimSelection {
	positions := make([]int, size)
	for i := range positions {
		positions[i] = i
	}
	return dimSelection{positions: positions}
}

func resolveOneSubscript(expr ast.Expression, size int, env *Environment) (dimSelection, Object) {
	switch e := expr.(type) {
	case *ast.AllExpression:
		return allSelection(size), nil

	case *ast.RangeExpression:
		start, errObj := evalSubscriptScalar(e.Start, size, env)
		if errObj != nil {
			return dimSelection{}, errObj
		}
		// A '*' stop runs to the end of the dimension
		stop := size - 1
		if _, all := e.Stop.(*ast.AllExpression); !all {
			stop, errObj = evalSubscriptScalar(e.Stop, size, env)
			if errObj != nil {
				return dimSelection{}, errObj
			}
		}
		step := 1
		if e.Step != nil {
			raw, errObj := evalSubscriptInt(e.Step, env)
			if errObj != nil {
				return dimSelection{}, errObj
			}
			step = raw
		}
		if step == 0 {
			return dimSelection{}, newError("ARITH-0002", nil)
		}
		var positions []int
		if step > 0 {
			for i := start; i <= stop; i += step {
				positions = append(positions, i)
			}
		} else {
			for i := start; i >= stop; i += step {
				positions = append(positions, i)
			}
		}
		return dimSelection{positions: positions}, nil

	default:
		idx, errObj := evalSubscriptScalar(expr, size, env)
		if errObj != nil {
			return dimSelection{}, errObj
		}
		return dimSelection{positions: []int{idx}, scalar: true}, nil
	}
}

// evalSubscriptScalar evaluates a subscript to an int, normalizing a
// negative value against the dimension size and bounds-checking it
func evalSubscriptScalar(expr ast.Expression, size int, env *Environment) (int, Object) {
	raw, errObj := evalSubscriptInt(expr, env)
	if errObj != nil {
		return 0, errObj
	}
	idx := raw
	if idx < 0 {
		idx += size
	}
	if idx < 0 || idx >= size {
		return 0, newError("INDEX-0001", map[string]any{"Index": raw, "Size": size})
	}
	return idx, nil
}

func evalSubscriptInt(expr ast.Expression, env *Environment) (int, Object) {
	obj := Eval(expr, env)
	if isError(obj) {
		return 0, obj
	}
	kind, ok := numericKind(obj)
	if !ok || kind == KindComplex {
		return 0, newError("TYPE-0003", map[string]any{
			"Expected": "an integer subscript", "Got": string(obj.Type()),
		})
	}
	f, _ := toFloat(obj)
	return int(f), nil
}

// expandSelections computes the flat row-major offsets of a selection
// and the shape of the result. An empty shape means a single scalar.
func expandSelections(arr *Array, sels []dimSelection) ([]int, []int) {
	dims := make([]int, len(sels))
	if len(sels) == 1 && len(arr.Shape) > 1 {
		dims[0] = arr.Len()
	} else {
		copy(dims, arr.Shape)
	}

	// Row-major strides
	strides := make([]int, len(dims))
	stride := 1
	for d := len(dims) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= dims[d]
	}

	flat := []int{0}
	for d := range sels {
		next := make([]int, 0, len(flat)*len(sels[d].positions))
		for _, base := range flat {
			for _, pos := range sels[d].positions {
				next = append(next, base+pos*strides[d])
			}
		}
		flat = next
	}

	var outShape []int
	for _, sel := range sels {
		if !sel.scalar {
			outShape = append(outShape, len(sel.positions))
		}
	}
	return flat, outShape
}

// readNestedIndex selects rows of a non-rectangular nested array
func readNestedIndex(n *NestedArray, node *ast.IndexExpression, env *Environment) Object {
	if len(node.Indices) != 1 {
		return newError("INDEX-0002", map[string]any{"Dims": 1, "Got": len(node.Indices)})
	}
	idx, errObj := evalSubscriptScalar(node.Indices[0], len(n.Rows), env)
	if errObj != nil {
		return errObj
	}
	return n.Rows[idx]
}

// readStringIndex selects characters, returned as one-character strings
func readStringIndex(s *Str, node *ast.IndexExpression, env *Environment) Object {
	if len(node.Indices) != 1 {
		return newError("INDEX-0002", map[string]any{"Dims": 1, "Got": len(node.Indices)})
	}
	idx, errObj := evalSubscriptScalar(node.Indices[0], len(s.Value), env)
	if errObj != nil {
		return errObj
	}
	return &Str{Value: string(s.Value[idx])}
}

// ---------------------------------------------------------------------------
// Assignment
// ---------------------------------------------------------------------------

func evalAssign(node *ast.AssignStatement, env *Environment) Object {
	value := Eval(node.Value, env)
	if isError(value) {
		return value
	}

	// Compound assignment reads the target first
	if node.Operator != "=" {
		current := Eval(node.Target, env)
		if isError(current) {
			return current
		}
		op := strings.TrimSuffix(node.Operator, "=")
		value = evalInfixExpression(op, current, value)
		if isError(value) {
			return value
		}
	}

	switch target := node.Target.(type) {
	case *ast.Identifier:
		env.Set(target.Value, copyValue(value))
		return UNDEFINED

	case *ast.SystemVariable:
		if !env.Interp().SetSystemVariable(target.Name, copyValue(value)) {
			return &Error{Err: xdlerrors.NewSimple(xdlerrors.ClassState,
				"system variable !"+target.Name+" is read only")}
		}
		return UNDEFINED

	case *ast.DotExpression:
		return assignStructField(target, value, env)

	case *ast.IndexExpression:
		return assignIndexed(target, value, env)

	case *ast.PrefixExpression:
		// *ptr = value
		if target.Operator != "*" {
			return &Error{Err: xdlerrors.NewSimple(xdlerrors.ClassParse, "cannot assign to "+target.String())}
		}
		obj := Eval(target.Right, env)
		if isError(obj) {
			return obj
		}
		ptr, ok := obj.(*Pointer)
		if !ok {
			return newError("TYPE-0003", map[string]any{"Expected": "a pointer", "Got": string(obj.Type())})
		}
		if !env.Interp().Heap().Assign(ptr.ID, copyValue(value)) {
			return &Error{Err: xdlerrors.NewSimple(xdlerrors.ClassState, "invalid pointer "+ptr.Inspect())}
		}
		return UNDEFINED
	}

	return &Error{Err: xdlerrors.NewSimple(xdlerrors.ClassParse, "cannot assign to "+node.Target.String())}
}

func assignStructField(target *ast.DotExpression, value Object, env *Environment) Object {
	left := Eval(target.Left, env)
	if isError(left) {
		return left
	}
	st, ok := left.(*Struct)
	if !ok {
		return newError("TYPE-0003", map[string]any{"Expected": "a structure", "Got": string(left.Type())})
	}
	if !st.Set(target.Field, copyValue(value)) {
		return newError("TYPE-0007", map[string]any{"Struct": target.Left.String(), "Field": target.Field})
	}
	return UNDEFINED
}

// assignIndexed writes into an array slice. The selection is resolved
// and the value shape checked before any element is written, so a
// failed write never leaves a half-modified array.
func assignIndexed(target *ast.IndexExpression, value Object, env *Environment) Object {
	left := Eval(target.Left, env)
	if isError(left) {
		return left
	}
	arr, ok := left.(*Array)
	if !ok {
		return newError("TYPE-0006", map[string]any{"Got": string(left.Type())})
	}

	sels, errObj := resolveSubscripts(arr, target.Indices, env)
	if errObj != nil {
		return errObj
	}
	flat, _ := expandSelections(arr, sels)

	switch v := value.(type) {
	case *Array:
		if v.Len() != len(flat) {
			return newError("TYPE-0002", map[string]any{"Got": v.Len(), "Want": len(flat)})
		}
		for i, pos := range flat {
			arr.Data[pos] = v.Data[i]
		}
		return UNDEFINED
	default:
		// The sole allowed shape mismatch: a scalar broadcasts
		kind, ok := numericKind(value)
		if !ok || kind == KindComplex {
			return newError("TYPE-0003", map[string]any{
				"Expected": "a real number or array", "Got": string(value.Type()),
			})
		}
		f, _ := toFloat(value)
		for _, pos := range flat {
			arr.Data[pos] = f
		}
		return UNDEFINED
	}
}
