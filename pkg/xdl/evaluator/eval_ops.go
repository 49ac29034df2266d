package evaluator

import (
	"math"
	"strings"
)

// evalPrefixExpression handles -x, +x and NOT x
func evalPrefixExpression(operator string, right Object) Object {
	switch operator {
	case "-":
		return evalNegate(right)
	case "+":
		if _, ok := numericKind(right); ok {
			return right
		}
		if _, ok := right.(*Array); ok {
			return right
		}
		return typeMismatch(operator, right, right)
	case "NOT":
		return evalNot(right)
	}
	return typeMismatch(operator, right, right)
}

func evalNegate(right Object) Object {
	switch v := right.(type) {
	case *Array:
		out := copyValue(v).(*Array)
		for i := range out.Data {
			out.Data[i] = -out.Data[i]
		}
		return out
	case *Complex:
		return &Complex{Value: -v.Value}
	}
	if kind, ok := numericKind(right); ok {
		f, _ := toFloat(right)
		return scalarFromFloat(-f, kind)
	}
	return typeMismatch("-", right, right)
}

// evalNot is a bitwise complement on integer kinds and a logical
// negation on floats
func evalNot(right Object) Object {
	switch v := right.(type) {
	case *Array:
		out := copyValue(v).(*Array)
		if isIntegerKind(out.Kind) {
			for i := range out.Data {
				out.Data[i] = wrapInt(^int64(out.Data[i]), out.Kind)
			}
		} else {
			for i := range out.Data {
				if out.Data[i] == 0 {
					out.Data[i] = 1
				} else {
					out.Data[i] = 0
				}
			}
			out.Kind = KindLong
		}
		return out
	}
	kind, ok := numericKind(right)
	if !ok {
		return typeMismatch("NOT", right, right)
	}
	f, _ := toFloat(right)
	if isIntegerKind(kind) {
		return scalarFromFloat(float64(wrapInt(^int64(f), kind)), kind)
	}
	return boolLong(f == 0)
}

// wrapInt reduces an int64 to the value range of an integer kind
func wrapInt(v int64, kind Kind) float64 {
	switch kind {
	case KindByte:
		return float64(uint8(v))
	case KindInt:
		return float64(int16(v))
	default:
		return float64(int32(v))
	}
}

func typeMismatch(operator string, left, right Object) *Error {
	return newError("TYPE-0001", map[string]any{
		"Operator": operator,
		"Left":     string(left.Type()),
		"Right":    string(right.Type()),
	})
}

var comparisonOps = map[string]bool{
	"EQ": true, "NE": true, "LT": true, "GT": true, "LE": true, "GE": true,
}

// evalInfixExpression dispatches on operand types: strings, arrays,
// complex and real scalars each have their own rules
func evalInfixExpression(operator string, left, right Object) Object {
	_, leftStr := left.(*Str)
	_, rightStr := right.(*Str)
	if leftStr || rightStr {
		return evalStringInfix(operator, left, right)
	}

	_, leftArr := left.(*Array)
	_, rightArr := right.(*Array)
	if leftArr || rightArr {
		if operator == "#" {
			return evalMatrixMultiply(left, right)
		}
		return evalArrayInfix(operator, left, right)
	}

	if _, ok := left.(*NestedArray); ok {
		return newError("TYPE-0005", nil)
	}
	if _, ok := right.(*NestedArray); ok {
		return newError("TYPE-0005", nil)
	}

	lk, lok := numericKind(left)
	rk, rok := numericKind(right)
	if !lok || !rok {
		return typeMismatch(operator, left, right)
	}

	if lk == KindComplex || rk == KindComplex {
		return evalComplexInfix(operator, left, right)
	}
	return evalNumericInfix(operator, left, right, maxKind(lk, rk))
}

// evalStringInfix: + concatenates, stringifying a numeric operand on
// either side; comparisons order lexically
func evalStringInfix(operator string, left, right Object) Object {
	if operator == "+" {
		ls, ok := stringify(left)
		if !ok {
			return typeMismatch(operator, left, right)
		}
		rs, ok := stringify(right)
		if !ok {
			return typeMismatch(operator, left, right)
		}
		return &Str{Value: ls + rs}
	}

	ls, lok := left.(*Str)
	rs, rok := right.(*Str)
	if !lok || !rok {
		return typeMismatch(operator, left, right)
	}
	switch operator {
	case "EQ":
		return boolLong(ls.Value == rs.Value)
	case "NE":
		return boolLong(ls.Value != rs.Value)
	case "LT":
		return boolLong(ls.Value < rs.Value)
	case "GT":
		return boolLong(ls.Value > rs.Value)
	case "LE":
		return boolLong(ls.Value <= rs.Value)
	case "GE":
		return boolLong(ls.Value >= rs.Value)
	}
	return typeMismatch(operator, left, right)
}

func stringify(obj Object) (string, bool) {
	switch obj.(type) {
	case *Str, *Byte, *Int, *Long, *Float, *Double:
		return obj.Inspect(), true
	}
	return "", false
}

func evalComplexInfix(operator string, left, right Object) Object {
	lc, _ := toComplex(left)
	rc, _ := toComplex(right)
	switch operator {
	case "+":
		return &Complex{Value: lc + rc}
	case "-":
		return &Complex{Value: lc - rc}
	case "*":
		return &Complex{Value: lc * rc}
	case "/":
		return &Complex{Value: lc / rc}
	case "EQ":
		return boolLong(lc == rc)
	case "NE":
		return boolLong(lc != rc)
	}
	return typeMismatch(operator, left, right)
}

// evalNumericInfix handles two real scalars. Integer kinds use integer
// arithmetic with wrap-around and explicit division-by-zero errors;
// float kinds follow IEEE.
func evalNumericInfix(operator string, left, right Object, kind Kind) Object {
	lf, _ := toFloat(left)
	rf, _ := toFloat(right)

	if comparisonOps[operator] {
		return evalComparison(operator, lf, rf)
	}

	if isIntegerKind(kind) {
		return evalIntegerOp(operator, int64(lf), int64(rf), kind)
	}

	var result float64
	switch operator {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		result = lf / rf
	case "MOD":
		result = math.Mod(lf, rf)
	case "^":
		result = math.Pow(lf, rf)
	case "AND":
		return boolLong(lf != 0 && rf != 0)
	case "OR":
		return boolLong(lf != 0 || rf != 0)
	case "XOR":
		return boolLong((lf != 0) != (rf != 0))
	default:
		return typeMismatch(operator, left, right)
	}
	return scalarFromFloat(result, kind)
}

func evalComparison(operator string, lf, rf float64) Object {
	switch operator {
	case "EQ":
		return boolLong(lf == rf)
	case "NE":
		return boolLong(lf != rf)
	case "LT":
		return boolLong(lf < rf)
	case "GT":
		return boolLong(lf > rf)
	case "LE":
		return boolLong(lf <= rf)
	case "GE":
		return boolLong(lf >= rf)
	}
	return boolLong(false)
}

func evalIntegerOp(operator string, li, ri int64, kind Kind) Object {
	var result int64
	switch operator {
	case "+":
		result = li + ri
	case "-":
		result = li - ri
	case "*":
		result = li * ri
	case "/":
		if ri == 0 {
			return newError("ARITH-0001", nil)
		}
		result = li / ri
	case "MOD":
		if ri == 0 {
			return newError("ARITH-0001", nil)
		}
		result = li % ri
	case "^":
		result = int64(math.Pow(float64(li), float64(ri)))
	case "AND":
		result = li & ri
	case "OR":
		result = li | ri
	case "XOR":
		result = li ^ ri
	default:
		return newError("TYPE-0001", map[string]any{
			"Operator": operator, "Left": kind.String(), "Right": kind.String(),
		})
	}
	return scalarFromFloat(wrapInt(result, kind), kind)
}

// evalArrayInfix applies an operator elementwise. A scalar operand
// broadcasts over the array; two arrays must have the same length.
func evalArrayInfix(operator string, left, right Object) Object {
	la, lok := left.(*Array)
	ra, rok := right.(*Array)

	switch {
	case lok && rok:
		if la.Len() != ra.Len() {
			return newError("TYPE-0004", map[string]any{"Left": la.Len(), "Right": ra.Len()})
		}
		return mapArrayPair(operator, la, ra)
	case lok:
		kind, ok := numericKind(right)
		if !ok || kind == KindComplex {
			return typeMismatch(operator, left, right)
		}
		rf, _ := toFloat(right)
		return mapArrayScalar(operator, la, rf, kind, false)
	default:
		kind, ok := numericKind(left)
		if !ok || kind == KindComplex {
			return typeMismatch(operator, left, right)
		}
		lf, _ := toFloat(left)
		return mapArrayScalar(operator, ra, lf, kind, true)
	}
}

func mapArrayPair(operator string, la, ra *Array) Object {
	kind := maxKind(la.Kind, ra.Kind)
	out := &Array{
		Data:  make([]float64, la.Len()),
		Shape: append([]int{}, la.Shape...),
		Kind:  kind,
	}
	if comparisonOps[operator] {
		out.Kind = KindLong
	}
	for i := range la.Data {
		r := applyElemOp(operator, la.Data[i], ra.Data[i], kind)
		if err, ok := r.(*Error); ok {
			return err
		}
		out.Data[i] = r.(float64)
	}
	return out
}

// mapArrayScalar broadcasts a scalar over an array; swapped marks the
// scalar as the left operand
func mapArrayScalar(operator string, arr *Array, scalar float64, scalarKind Kind, swapped bool) Object {
	kind := maxKind(arr.Kind, scalarKind)
	out := &Array{
		Data:  make([]float64, arr.Len()),
		Shape: append([]int{}, arr.Shape...),
		Kind:  kind,
	}
	if comparisonOps[operator] {
		out.Kind = KindLong
	}
	for i := range arr.Data {
		a, b := arr.Data[i], scalar
		if swapped {
			a, b = b, a
		}
		r := applyElemOp(operator, a, b, kind)
		if err, ok := r.(*Error); ok {
			return err
		}
		out.Data[i] = r.(float64)
	}
	return out
}

// applyElemOp computes one element, returning float64 or *Error
func applyElemOp(operator string, a, b float64, kind Kind) any {
	if comparisonOps[operator] {
		res := evalComparison(operator, a, b)
		f, _ := toFloat(res)
		return f
	}
	if isIntegerKind(kind) {
		res := evalIntegerOp(operator, int64(a), int64(b), kind)
		if err, ok := res.(*Error); ok {
			return err
		}
		f, _ := toFloat(res)
		return f
	}
	switch operator {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		return a / b
	case "MOD":
		return math.Mod(a, b)
	case "^":
		return math.Pow(a, b)
	case "AND":
		return btof(a != 0 && b != 0)
	case "OR":
		return btof(a != 0 || b != 0)
	case "XOR":
		return btof((a != 0) != (b != 0))
	}
	return newError("TYPE-0001", map[string]any{
		"Operator": operator, "Left": kind.String(), "Right": kind.String(),
	})
}

func btof(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// evalMatrixMultiply implements '#'. Operands must be 2-D (a 1-D left
// operand reads as a row vector, a 1-D right operand as a column) with
// an inner-dimension match. A 1x1 result collapses to a scalar.
func evalMatrixMultiply(left, right Object) Object {
	la, lok := left.(*Array)
	ra, rok := right.(*Array)
	if !lok || !rok {
		return typeMismatch("#", left, right)
	}

	lShape := la.Shape
	if len(lShape) == 1 {
		lShape = []int{1, lShape[0]}
	}
	rShape := ra.Shape
	if len(rShape) == 1 {
		rShape = []int{rShape[0], 1}
	}
	if len(lShape) != 2 || len(rShape) != 2 {
		return newError("TYPE-0003", map[string]any{
			"Expected": "a 2-dimensional array", "Got": strings.ToLower(string(ARRAY_OBJ)),
		})
	}

	rows, inner := lShape[0], lShape[1]
	innerR, cols := rShape[0], rShape[1]
	if inner != innerR {
		return newError("TYPE-0004", map[string]any{"Left": inner, "Right": innerR})
	}

	kind := maxKind(la.Kind, ra.Kind)
	data := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var sum float64
			for k := 0; k < inner; k++ {
				sum += la.Data[r*inner+k] * ra.Data[k*cols+c]
			}
			if isIntegerKind(kind) {
				sum = wrapInt(int64(sum), kind)
			}
			data[r*cols+c] = sum
		}
	}

	if rows == 1 && cols == 1 {
		return scalarFromFloat(data[0], kind)
	}
	return &Array{Data: data, Shape: []int{rows, cols}, Kind: kind}
}
