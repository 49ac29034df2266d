package evaluator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func envArray(t *testing.T, env *Environment, name string) *Array {
	t.Helper()
	obj := envVar(t, env, name)
	arr, ok := obj.(*Array)
	if !ok {
		t.Fatalf("variable %s is %s, not an array", name, obj.Type())
	}
	return arr
}

func TestVectorLiteral(t *testing.T) {
	_, env := testEvalEnv(t, "v = [1, 2, 3]")
	v := envArray(t, env, "V")
	if diff := cmp.Diff([]int{3}, v.Shape); diff != "" {
		t.Fatalf("shape mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, v.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
	if v.Kind != KindInt {
		t.Errorf("kind = %s, want INT", v.Kind)
	}
}

func TestVectorLiteralPromotion(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{"v = [1, 2, 3]", KindInt},
		{"v = [1B, 2B]", KindByte},
		{"v = [1, 2L]", KindLong},
		{"v = [1, 2.5]", KindFloat},
		{"v = [1, 2.5d0]", KindDouble},
	}

	for _, tt := range tests {
		_, env := testEvalEnv(t, tt.input)
		v := envArray(t, env, "V")
		if v.Kind != tt.kind {
			t.Errorf("%q: kind = %s, want %s", tt.input, v.Kind, tt.kind)
		}
	}
}

func TestEmptyArrayLiteral(t *testing.T) {
	_, env := testEvalEnv(t, "v = []")
	v := envArray(t, env, "V")
	if v.Len() != 0 {
		t.Errorf("length = %d, want 0", v.Len())
	}
}

func TestMatrixLiteralNestedForm(t *testing.T) {
	_, env := testEvalEnv(t, "m = [[1, 2], [3, 4]]")
	m := envArray(t, env, "M")
	if diff := cmp.Diff([]int{2, 2}, m.Shape); diff != "" {
		t.Fatalf("shape mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2, 3, 4}, m.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
}

func TestMatrixLiteralRowSeparator(t *testing.T) {
	_, env := testEvalEnv(t, "m = [1, 2; 3, 4; 5, 6]")
	m := envArray(t, env, "M")
	if diff := cmp.Diff([]int{3, 2}, m.Shape); diff != "" {
		t.Fatalf("shape mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2, 3, 4, 5, 6}, m.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
}

func TestRaggedRowsMakeNestedArray(t *testing.T) {
	result, env := testEvalEnv(t, "m = [1, 2; 3]")
	if isError(result) {
		t.Fatalf("unexpected error: %s", result.Inspect())
	}
	obj := envVar(t, env, "M")
	if _, ok := obj.(*NestedArray); !ok {
		t.Errorf("expected NESTED_ARRAY, got %s", obj.Type())
	}
}

func TestIndexRead(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"a = [1, 2, 3, 4, 5]\nx = a[0]", 1},
		{"a = [1, 2, 3, 4, 5]\nx = a[4]", 5},
		{"a = [1, 2, 3, 4, 5]\nx = a[-1]", 5},
		{"a = [1, 2, 3, 4, 5]\nx = a[-5]", 1},
		{"m = [[1, 2], [3, 4]]\nx = m[1, 1]", 4},
		{"m = [[1, 2], [3, 4]]\nx = m[0, 1]", 2},
		{"m = [[1, 2], [3, 4]]\nx = m[3]", 4},
		{"m = [[1, 2], [3, 4]]\nx = m[-1, -1]", 4},
	}

	for _, tt := range tests {
		_, env := testEvalEnv(t, tt.input)
		if got := envNum(t, env, "X"); got != tt.expected {
			t.Errorf("%q: x = %g, want %g", tt.input, got, tt.expected)
		}
	}
}

func TestIndexOutOfRange(t *testing.T) {
	wantError(t, testEval(t, "a = [1, 2, 3]\nx = a[3]"), "INDEX-0001")
	wantError(t, testEval(t, "a = [1, 2, 3]\nx = a[-4]"), "INDEX-0001")
}

func TestTooManySubscripts(t *testing.T) {
	wantError(t, testEval(t, "a = [1, 2, 3]\nx = a[1, 1]"), "INDEX-0002")
}

func TestSliceRead(t *testing.T) {
	_, env := testEvalEnv(t, "v = [10, 20, 30, 40, 50]\ns = v[1:3]")
	s := envArray(t, env, "S")
	if diff := cmp.Diff([]float64{20, 30, 40}, s.Data); diff != "" {
		t.Errorf("slice mismatch:\n%s", diff)
	}
}

func TestSliceWithStep(t *testing.T) {
	_, env := testEvalEnv(t, "v = [0, 1, 2, 3, 4, 5, 6]\ns = v[0:6:2]")
	s := envArray(t, env, "S")
	if diff := cmp.Diff([]float64{0, 2, 4, 6}, s.Data); diff != "" {
		t.Errorf("slice mismatch:\n%s", diff)
	}
}

func TestSliceStepZero(t *testing.T) {
	wantError(t, testEval(t, "v = [1, 2, 3]\ns = v[0:2:0]"), "ARITH-0002")
}

func TestSliceIsACopy(t *testing.T) {
	_, env := testEvalEnv(t, "v = [1, 2, 3]\ns = v[0:1]\ns[0] = 99")
	v := envArray(t, env, "V")
	if v.Data[0] != 1 {
		t.Errorf("v[0] = %g, slicing should copy", v.Data[0])
	}
}

func TestSliceToEnd(t *testing.T) {
	_, env := testEvalEnv(t, "v = [10, 20, 30, 40, 50]\ns = v[2:*]")
	s := envArray(t, env, "S")
	if diff := cmp.Diff([]float64{30, 40, 50}, s.Data); diff != "" {
		t.Errorf("slice mismatch:\n%s", diff)
	}
}

func TestStandaloneRange(t *testing.T) {
	tests := []struct {
		input string
		data  []float64
		kind  Kind
	}{
		{"r = 1:5", []float64{1, 2, 3, 4, 5}, KindInt},
		{"r = 0:10:2", []float64{0, 2, 4, 6, 8, 10}, KindInt},
		{"r = 5:1:-1", []float64{5, 4, 3, 2, 1}, KindInt},
		{"r = 0.0:1.0:0.5", []float64{0, 0.5, 1}, KindFloat},
		{"r = 1:3:0.5d0", []float64{1, 1.5, 2, 2.5, 3}, KindDouble},
		{"r = 5:1", []float64{}, KindInt},
	}

	for _, tt := range tests {
		_, env := testEvalEnv(t, tt.input)
		r := envArray(t, env, "R")
		if diff := cmp.Diff(tt.data, r.Data); diff != "" {
			t.Errorf("%q: data mismatch:\n%s", tt.input, diff)
		}
		if r.Kind != tt.kind {
			t.Errorf("%q: kind = %s, want %s", tt.input, r.Kind, tt.kind)
		}
	}
}

func TestStandaloneRangeUsesVariables(t *testing.T) {
	_, env := testEvalEnv(t, "n = 3\nr = 0:n")
	r := envArray(t, env, "R")
	if diff := cmp.Diff([]float64{0, 1, 2, 3}, r.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
}

func TestStandaloneRangeStepZero(t *testing.T) {
	wantError(t, testEval(t, "r = 1:5:0"), "ARITH-0002")
}

func TestStarSubscript(t *testing.T) {
	_, env := testEvalEnv(t, "m = [[1, 2, 3], [4, 5, 6]]\ncol = m[*, 1]\nrow = m[1, *]")
	col := envArray(t, env, "COL")
	if diff := cmp.Diff([]float64{2, 5}, col.Data); diff != "" {
		t.Errorf("column mismatch:\n%s", diff)
	}
	row := envArray(t, env, "ROW")
	if diff := cmp.Diff([]float64{4, 5, 6}, row.Data); diff != "" {
		t.Errorf("row mismatch:\n%s", diff)
	}
}

func TestIndexWrite(t *testing.T) {
	_, env := testEvalEnv(t, "a = [1, 2, 3]\na[1] = 20")
	a := envArray(t, env, "A")
	if diff := cmp.Diff([]float64{1, 20, 3}, a.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
}

func TestSliceWrite(t *testing.T) {
	_, env := testEvalEnv(t, "a = [1, 2, 3, 4, 5]\na[1:3] = [20, 30, 40]")
	a := envArray(t, env, "A")
	if diff := cmp.Diff([]float64{1, 20, 30, 40, 5}, a.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
}

func TestScalarBroadcastWrite(t *testing.T) {
	_, env := testEvalEnv(t, "a = [1, 2, 3, 4, 5]\na[1:3] = 0")
	a := envArray(t, env, "A")
	if diff := cmp.Diff([]float64{1, 0, 0, 0, 5}, a.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
}

func TestSliceWriteSizeMismatch(t *testing.T) {
	result, env := testEvalEnv(t, "a = [1, 2, 3, 4, 5]\na[1:3] = [20, 30]")
	wantError(t, result, "TYPE-0002")

	// A failed write must not touch any element
	a := envArray(t, env, "A")
	if diff := cmp.Diff([]float64{1, 2, 3, 4, 5}, a.Data); diff != "" {
		t.Errorf("array modified by failed write:\n%s", diff)
	}
}

func TestMatrixElementWrite(t *testing.T) {
	_, env := testEvalEnv(t, "m = [[1, 2], [3, 4]]\nm[0, 1] = 9")
	m := envArray(t, env, "M")
	if diff := cmp.Diff([]float64{1, 9, 3, 4}, m.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
}

func TestArrayScalarArithmetic(t *testing.T) {
	_, env := testEvalEnv(t, "a = [1, 2, 3]\nb = a * 2 + 1\nc = 10 - a")
	b := envArray(t, env, "B")
	if diff := cmp.Diff([]float64{3, 5, 7}, b.Data); diff != "" {
		t.Errorf("a * 2 + 1 mismatch:\n%s", diff)
	}
	c := envArray(t, env, "C")
	if diff := cmp.Diff([]float64{9, 8, 7}, c.Data); diff != "" {
		t.Errorf("10 - a mismatch:\n%s", diff)
	}
}

func TestArrayArrayArithmetic(t *testing.T) {
	_, env := testEvalEnv(t, "a = [1, 2, 3]\nb = [10, 20, 30]\nc = a + b")
	c := envArray(t, env, "C")
	if diff := cmp.Diff([]float64{11, 22, 33}, c.Data); diff != "" {
		t.Errorf("a + b mismatch:\n%s", diff)
	}
}

func TestArrayLengthMismatch(t *testing.T) {
	wantError(t, testEval(t, "c = [1, 2] + [1, 2, 3]"), "TYPE-0004")
}

func TestArrayComparisonYieldsLongMask(t *testing.T) {
	_, env := testEvalEnv(t, "a = [1, 5, 3]\nm = a GT 2")
	m := envArray(t, env, "M")
	if m.Kind != KindLong {
		t.Errorf("kind = %s, want LONG", m.Kind)
	}
	if diff := cmp.Diff([]float64{0, 1, 1}, m.Data); diff != "" {
		t.Errorf("mask mismatch:\n%s", diff)
	}
}

func TestArrayKindPromotion(t *testing.T) {
	_, env := testEvalEnv(t, "a = [1, 2, 3]\nb = a * 1.5")
	b := envArray(t, env, "B")
	if b.Kind != KindFloat {
		t.Errorf("kind = %s, want FLOAT", b.Kind)
	}
	if diff := cmp.Diff([]float64{1.5, 3, 4.5}, b.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
}

func TestArrayIntegerDivisionTruncates(t *testing.T) {
	_, env := testEvalEnv(t, "a = [7, 8, 9]\nb = a / 2")
	b := envArray(t, env, "B")
	if diff := cmp.Diff([]float64{3, 4, 4}, b.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
}

func TestMatrixMultiply(t *testing.T) {
	_, env := testEvalEnv(t, "a = [[1, 2], [3, 4]]\nb = [[5, 6], [7, 8]]\nc = a # b")
	c := envArray(t, env, "C")
	if diff := cmp.Diff([]int{2, 2}, c.Shape); diff != "" {
		t.Fatalf("shape mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]float64{19, 22, 43, 50}, c.Data); diff != "" {
		t.Errorf("product mismatch:\n%s", diff)
	}
}

func TestMatrixVectorMultiply(t *testing.T) {
	// A 1-D left operand is a row vector, a 1-D right a column
	result := testEval(t, "x = [1, 2] # [3, 4]\nx")
	if f, ok := toFloat(result); !ok || f != 11 {
		t.Errorf("dot product = %s, want 11", result.Inspect())
	}
}

func TestMatrixMultiplyDimensionMismatch(t *testing.T) {
	wantError(t, testEval(t, "c = [[1, 2], [3, 4]] # [1, 2, 3]"), "TYPE-0004")
}

func TestNegatePrefixOnArray(t *testing.T) {
	_, env := testEvalEnv(t, "a = [1, -2, 3]\nb = -a")
	b := envArray(t, env, "B")
	if diff := cmp.Diff([]float64{-1, 2, -3}, b.Data); diff != "" {
		t.Errorf("data mismatch:\n%s", diff)
	}
}

func TestStringCharacterIndex(t *testing.T) {
	result := testEval(t, `s = "hello"
s[1]`)
	str, ok := result.(*Str)
	if !ok || str.Value != "e" {
		t.Errorf("s[1] = %s, want e", result.Inspect())
	}
}
