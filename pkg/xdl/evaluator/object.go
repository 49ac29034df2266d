package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	xdlerrors "github.com/xdl-lang/xdl/pkg/xdl/errors"
)

// ObjectType represents the type of an object
type ObjectType string

const (
	BYTE_OBJ      = "BYTE"
	INT_OBJ       = "INT"
	LONG_OBJ      = "LONG"
	FLOAT_OBJ     = "FLOAT"
	DOUBLE_OBJ    = "DOUBLE"
	COMPLEX_OBJ   = "COMPLEX"
	STRING_OBJ    = "STRING"
	ARRAY_OBJ     = "ARRAY"
	NESTED_OBJ    = "NESTED_ARRAY"
	STRUCT_OBJ    = "STRUCT"
	POINTER_OBJ   = "POINTER"
	UNDEFINED_OBJ = "UNDEFINED"

	ERROR_OBJ    = "ERROR"
	RETURN_OBJ   = "RETURN_VALUE"
	BREAK_OBJ    = "BREAK"
	CONTINUE_OBJ = "CONTINUE"
	GOTO_OBJ     = "GOTO"
)

// Object is the interface implemented by every runtime value
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Kind orders the numeric types for promotion: an operation between two
// numbers yields the higher kind of the two
type Kind int

const (
	KindByte Kind = iota
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindComplex
)

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "BYTE"
	case KindInt:
		return "INT"
	case KindLong:
		return "LONG"
	case KindFloat:
		return "FLOAT"
	case KindDouble:
		return "DOUBLE"
	case KindComplex:
		return "COMPLEX"
	}
	return "UNKNOWN"
}

// Byte is an unsigned 8-bit integer
type Byte struct {
	Value uint8
}

func (b *Byte) Type() ObjectType { return BYTE_OBJ }
func (b *Byte) Inspect() string  { return strconv.FormatUint(uint64(b.Value), 10) }

// Int is a signed 16-bit integer, the default integer type
type Int struct {
	Value int16
}

func (i *Int) Type() ObjectType { return INT_OBJ }
func (i *Int) Inspect() string  { return strconv.FormatInt(int64(i.Value), 10) }

// Long is a signed 32-bit integer
type Long struct {
	Value int32
}

func (l *Long) Type() ObjectType { return LONG_OBJ }
func (l *Long) Inspect() string  { return strconv.FormatInt(int64(l.Value), 10) }

// Float is a single-precision float
type Float struct {
	Value float32
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string {
	return strconv.FormatFloat(float64(f.Value), 'g', -1, 32)
}

// Double is a double-precision float
type Double struct {
	Value float64
}

func (d *Double) Type() ObjectType { return DOUBLE_OBJ }
func (d *Double) Inspect() string {
	return strconv.FormatFloat(d.Value, 'g', -1, 64)
}

// Complex is a double-precision complex number
type Complex struct {
	Value complex128
}

func (c *Complex) Type() ObjectType { return COMPLEX_OBJ }
func (c *Complex) Inspect() string {
	return fmt.Sprintf("(%s, %s)",
		strconv.FormatFloat(real(c.Value), 'g', -1, 64),
		strconv.FormatFloat(imag(c.Value), 'g', -1, 64))
}

// Str is a string value
type Str struct {
	Value string
}

func (s *Str) Type() ObjectType { return STRING_OBJ }
func (s *Str) Inspect() string  { return s.Value }

// Array is a dense numeric array: flat row-major data plus a shape.
// The product of Shape always equals len(Data). Kind records the
// element type the data was built from, so a LONG array prints and
// indexes as integers even though storage is float64.
type Array struct {
	Data  []float64
	Shape []int
	Kind  Kind
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }

func (a *Array) Inspect() string {
	var sb strings.Builder
	a.inspectDim(&sb, 0, 0, len(a.Data))
	return sb.String()
}

func (a *Array) inspectDim(sb *strings.Builder, dim, start, count int) {
	sb.WriteString("[")
	if dim == len(a.Shape)-1 {
		for i := 0; i < count; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(formatElem(a.Data[start+i], a.Kind))
		}
	} else {
		sub := count / a.Shape[dim]
		for i := 0; i < a.Shape[dim]; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.inspectDim(sb, dim+1, start+i*sub, sub)
		}
	}
	sb.WriteString("]")
}

// Len returns the total number of elements
func (a *Array) Len() int { return len(a.Data) }

// Elem wraps one element as a scalar of the array's kind
func (a *Array) Elem(i int) Object { return scalarFromFloat(a.Data[i], a.Kind) }

// NestedArray holds array-literal rows that did not flatten into a
// rectangular Array: unequal lengths or non-scalar elements
type NestedArray struct {
	Rows []Object
}

func (n *NestedArray) Type() ObjectType { return NESTED_OBJ }
func (n *NestedArray) Inspect() string {
	var parts []string
	for _, r := range n.Rows {
		parts = append(parts, r.Inspect())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Struct is an ordered set of named fields
type Struct struct {
	Names  []string
	Fields map[string]Object // keyed by upper-cased name
}

func (s *Struct) Type() ObjectType { return STRUCT_OBJ }
func (s *Struct) Inspect() string {
	var parts []string
	for _, n := range s.Names {
		parts = append(parts, n+": "+s.Fields[strings.ToUpper(n)].Inspect())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Get returns a field value by case-insensitive name
func (s *Struct) Get(name string) (Object, bool) {
	v, ok := s.Fields[strings.ToUpper(name)]
	return v, ok
}

// Set replaces an existing field by case-insensitive name
func (s *Struct) Set(name string, v Object) bool {
	key := strings.ToUpper(name)
	if _, ok := s.Fields[key]; !ok {
		return false
	}
	s.Fields[key] = v
	return true
}

// Pointer is a handle into the interpreter heap
type Pointer struct {
	ID int64
}

func (p *Pointer) Type() ObjectType { return POINTER_OBJ }
func (p *Pointer) Inspect() string {
	if p.ID == 0 {
		return "<NullPointer>"
	}
	return fmt.Sprintf("<PtrHeapVar%d>", p.ID)
}

// Undefined is the value of never-assigned variables and freed pointers
type Undefined struct{}

func (u *Undefined) Type() ObjectType { return UNDEFINED_OBJ }
func (u *Undefined) Inspect() string  { return "<Undefined>" }

// UNDEFINED is the shared undefined value
var UNDEFINED = &Undefined{}

// ---------------------------------------------------------------------------
// Control-flow signals
// ---------------------------------------------------------------------------

// ReturnValue carries a RETURN up the statement walk. Value is
// UNDEFINED for a plain RETURN inside a procedure.
type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }

// BreakSignal unwinds to the innermost loop, CASE or SWITCH
type BreakSignal struct{}

func (bs *BreakSignal) Type() ObjectType { return BREAK_OBJ }
func (bs *BreakSignal) Inspect() string  { return "break" }

// ContinueSignal unwinds to the innermost loop
type ContinueSignal struct{}

func (cs *ContinueSignal) Type() ObjectType { return CONTINUE_OBJ }
func (cs *ContinueSignal) Inspect() string  { return "continue" }

// GotoSignal unwinds until a statement list that defines the label
type GotoSignal struct {
	Label string
}

func (gs *GotoSignal) Type() ObjectType { return GOTO_OBJ }
func (gs *GotoSignal) Inspect() string  { return "goto " + gs.Label }

// Error wraps a structured runtime error as an object
type Error struct {
	Err *xdlerrors.XdlError
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return e.Err.Error() }

// newError builds an Error object from the catalog
func newError(code string, data map[string]any) *Error {
	return &Error{Err: xdlerrors.New(code, data)}
}

func isError(obj Object) bool {
	if obj != nil {
		return obj.Type() == ERROR_OBJ
	}
	return false
}

// isSignal reports whether the object aborts normal statement flow
func isSignal(obj Object) bool {
	if obj == nil {
		return false
	}
	switch obj.Type() {
	case ERROR_OBJ, RETURN_OBJ, BREAK_OBJ, CONTINUE_OBJ, GOTO_OBJ:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Numeric helpers
// ---------------------------------------------------------------------------

// numericKind returns the promotion kind of a scalar, with ok=false
// for non-numeric objects
func numericKind(obj Object) (Kind, bool) {
	switch obj.(type) {
	case *Byte:
		return KindByte, true
	case *Int:
		return KindInt, true
	case *Long:
		return KindLong, true
	case *Float:
		return KindFloat, true
	case *Double:
		return KindDouble, true
	case *Complex:
		return KindComplex, true
	}
	return 0, false
}

// toFloat extracts the float64 payload of a numeric scalar
func toFloat(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case *Byte:
		return float64(v.Value), true
	case *Int:
		return float64(v.Value), true
	case *Long:
		return float64(v.Value), true
	case *Float:
		return float64(v.Value), true
	case *Double:
		return v.Value, true
	}
	return 0, false
}

// toComplex extracts the complex payload of any numeric scalar
func toComplex(obj Object) (complex128, bool) {
	if c, ok := obj.(*Complex); ok {
		return c.Value, true
	}
	if f, ok := toFloat(obj); ok {
		return complex(f, 0), true
	}
	return 0, false
}

// scalarFromFloat builds a scalar of the given kind from a float64,
// wrapping integer kinds the way fixed-width integers do
func scalarFromFloat(v float64, kind Kind) Object {
	switch kind {
	case KindByte:
		return &Byte{Value: uint8(int64(v))}
	case KindInt:
		return &Int{Value: int16(int64(v))}
	case KindLong:
		return &Long{Value: int32(int64(v))}
	case KindFloat:
		return &Float{Value: float32(v)}
	case KindComplex:
		return &Complex{Value: complex(v, 0)}
	default:
		return &Double{Value: v}
	}
}

func isIntegerKind(k Kind) bool { return k <= KindLong }

func maxKind(a, b Kind) Kind {
	if a > b {
		return a
	}
	return b
}

func formatElem(v float64, kind Kind) string {
	if isIntegerKind(kind) {
		return strconv.FormatInt(int64(v), 10)
	}
	if kind == KindFloat {
		return strconv.FormatFloat(v, 'g', -1, 32)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ToFloat extracts the float64 payload of a numeric scalar, for use
// by native routines
func ToFloat(obj Object) (float64, bool) { return toFloat(obj) }

// NumericKind returns the promotion kind of a numeric scalar
func NumericKind(obj Object) (Kind, bool) { return numericKind(obj) }

// ScalarFromFloat builds a scalar of the given kind
func ScalarFromFloat(v float64, kind Kind) Object { return scalarFromFloat(v, kind) }

// BoolLong is the canonical truth value: LONG 1 or 0
func BoolLong(b bool) Object { return boolLong(b) }

// IsTruthy reports the language truth rule for a value
func IsTruthy(obj Object) bool { return isTruthy(obj) }

// NewError builds an Error object from the error catalog
func NewError(code string, data map[string]any) Object { return newError(code, data) }

// CopyValue deep-copies a value the way assignment does
func CopyValue(obj Object) Object { return copyValue(obj) }

// isTruthy: nonzero numbers and nonempty strings are true
func isTruthy(obj Object) bool {
	switch v := obj.(type) {
	case *Str:
		return v.Value != ""
	case *Undefined:
		return false
	case *Complex:
		return v.Value != 0
	case *Array:
		// An array condition is true when its first element is
		return len(v.Data) > 0 && v.Data[0] != 0
	default:
		if f, ok := toFloat(obj); ok {
			return f != 0
		}
	}
	return false
}

// boolLong is the canonical comparison result: LONG 1 or 0
func boolLong(b bool) *Long {
	if b {
		return &Long{Value: 1}
	}
	return &Long{Value: 0}
}

// copyValue deep-copies arrays, nested arrays and structs so that
// assignment has value semantics. Scalars and pointers are immutable
// payloads and pass through.
func copyValue(obj Object) Object {
	switch v := obj.(type) {
	case *Array:
		data := make([]float64, len(v.Data))
		copy(data, v.Data)
		shape := make([]int, len(v.Shape))
		copy(shape, v.Shape)
		return &Array{Data: data, Shape: shape, Kind: v.Kind}
	case *NestedArray:
		rows := make([]Object, len(v.Rows))
		for i, r := range v.Rows {
			rows[i] = copyValue(r)
		}
		return &NestedArray{Rows: rows}
	case *Struct:
		names := make([]string, len(v.Names))
		copy(names, v.Names)
		fields := make(map[string]Object, len(v.Fields))
		for k, f := range v.Fields {
			fields[k] = copyValue(f)
		}
		return &Struct{Names: names, Fields: fields}
	}
	return obj
}
