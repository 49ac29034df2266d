package evaluator

import (
	"testing"
	"time"

	"github.com/xdl-lang/xdl/pkg/xdl/lexer"
	"github.com/xdl-lang/xdl/pkg/xdl/parser"
)

func TestForLoop(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"x = 10\nfor i = 0, 2 do x = x + i", 13},
		{"x = 0\nfor i = 1, 5 do x = x + 1", 5},
		{"x = 0\nfor i = 5, 1 do x = x + 1", 0},
		{"x = 0\nfor i = 10, 0, -2 do x = x + 1", 6},
		{"x = 0\nfor i = 0, 4, 2 do x = x + i", 6},
	}

	for _, tt := range tests {
		_, env := testEvalEnv(t, tt.input)
		if got := envNum(t, env, "X"); got != tt.expected {
			t.Errorf("%q: x = %g, want %g", tt.input, got, tt.expected)
		}
	}
}

func TestForLoopBlockBody(t *testing.T) {
	_, env := testEvalEnv(t, `total = 0
for i = 1, 3 do begin
  total = total + i
  total = total + 1
endfor`)
	if got := envNum(t, env, "TOTAL"); got != 9 {
		t.Errorf("total = %g, want 9", got)
	}
}

func TestForLoopFloatBounds(t *testing.T) {
	_, env := testEvalEnv(t, "x = 0.0\nfor v = 0.0, 1.0, 0.5 do x = x + v")
	if got := envNum(t, env, "X"); got != 1.5 {
		t.Errorf("x = %g, want 1.5", got)
	}
}

func TestForLoopStepZero(t *testing.T) {
	wantError(t, testEval(t, "for i = 0, 10, 0 do x = 1"), "ARITH-0002")
}

func TestWhileLoop(t *testing.T) {
	_, env := testEvalEnv(t, "x = 1\nwhile x lt 100 do x = x * 2")
	if got := envNum(t, env, "X"); got != 128 {
		t.Errorf("x = %g, want 128", got)
	}
}

func TestRepeatLoop(t *testing.T) {
	// The body always runs at least once
	_, env := testEvalEnv(t, "x = 10\nrepeat x = x + 1 until x gt 0")
	if got := envNum(t, env, "X"); got != 11 {
		t.Errorf("x = %g, want 11", got)
	}

	_, env = testEvalEnv(t, `x = 0
repeat begin
  x = x + 3
endrep until x ge 9`)
	if got := envNum(t, env, "X"); got != 9 {
		t.Errorf("x = %g, want 9", got)
	}
}

func TestForeachLoop(t *testing.T) {
	_, env := testEvalEnv(t, "sum = 0\nforeach v, [1, 2, 3, 4] do sum = sum + v")
	if got := envNum(t, env, "SUM"); got != 10 {
		t.Errorf("sum = %g, want 10", got)
	}
}

func TestForeachWithIndex(t *testing.T) {
	_, env := testEvalEnv(t, `last = -1
foreach v, [10, 20, 30], i do last = i`)
	if got := envNum(t, env, "LAST"); got != 2 {
		t.Errorf("last = %g, want 2", got)
	}
}

func TestForeachScalarIteratesOnce(t *testing.T) {
	_, env := testEvalEnv(t, "n = 0\nforeach v, 42 do n = n + 1")
	if got := envNum(t, env, "N"); got != 1 {
		t.Errorf("n = %g, want 1", got)
	}
}

func TestBreakInLoop(t *testing.T) {
	_, env := testEvalEnv(t, `x = 0
for i = 0, 100 do begin
  if i eq 5 then break endif
  x = x + 1
endfor`)
	if got := envNum(t, env, "X"); got != 5 {
		t.Errorf("x = %g, want 5", got)
	}
}

func TestContinueInLoop(t *testing.T) {
	_, env := testEvalEnv(t, `x = 0
for i = 0, 9 do begin
  if i MOD 2 eq 0 then continue endif
  x = x + 1
endfor`)
	if got := envNum(t, env, "X"); got != 5 {
		t.Errorf("x = %g, want 5", got)
	}
}

func TestBreakInWhile(t *testing.T) {
	_, env := testEvalEnv(t, `x = 0
while 1 do begin
  x = x + 1
  if x ge 3 then break endif
endwhile`)
	if got := envNum(t, env, "X"); got != 3 {
		t.Errorf("x = %g, want 3", got)
	}
}

func TestCaseRunsOneClause(t *testing.T) {
	src := `x = %d
r = 0
case x of
  1: r = 10
  2: begin
    r = 20
    r = r + 1
  end
  else: r = -1
endcase`

	tests := []struct {
		subject  int
		expected float64
	}{
		{1, 10},
		{2, 21},
		{9, -1},
	}

	for _, tt := range tests {
		input := replaceSubject(src, tt.subject)
		_, env := testEvalEnv(t, input)
		if got := envNum(t, env, "R"); got != tt.expected {
			t.Errorf("case %d: r = %g, want %g", tt.subject, got, tt.expected)
		}
	}
}

func replaceSubject(src string, subject int) string {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		if src[i] == '%' && i+1 < len(src) && src[i+1] == 'd' {
			out = append(out, byte('0'+subject))
			i++
			continue
		}
		out = append(out, src[i])
	}
	return string(out)
}

func TestCaseStringSubject(t *testing.T) {
	_, env := testEvalEnv(t, `r = 0
case "b" of
  "a": r = 1
  "b": r = 2
  "c": r = 3
endcase`)
	if got := envNum(t, env, "R"); got != 2 {
		t.Errorf("r = %g, want 2", got)
	}
}

// Float selectors match within machine epsilon, the way rounded
// arithmetic results still select their clause
func TestCaseDoubleSelectorMatchesWithinEpsilon(t *testing.T) {
	_, env := testEvalEnv(t, `x = 0.1d0 + 0.2d0
case x of
  0.3d0: r = 1
  else: r = 0
endcase`)
	if got := envNum(t, env, "R"); got != 1 {
		t.Errorf("r = %g, want 1", got)
	}
}

func TestCaseNoMatchNoElse(t *testing.T) {
	_, env := testEvalEnv(t, `r = 7
case 99 of
  1: r = 1
endcase`)
	if got := envNum(t, env, "R"); got != 7 {
		t.Errorf("r = %g, want 7", got)
	}
}

func TestSwitchFallsThrough(t *testing.T) {
	_, env := testEvalEnv(t, `r = 0
switch 1 of
  1: r = r + 1
  2: r = r + 10
  3: r = r + 100
endswitch`)
	if got := envNum(t, env, "R"); got != 111 {
		t.Errorf("r = %g, want 111", got)
	}
}

func TestSwitchBreakStopsFallthrough(t *testing.T) {
	_, env := testEvalEnv(t, `r = 0
switch 1 of
  1: begin
    r = r + 1
    break
  end
  2: r = r + 10
endswitch`)
	if got := envNum(t, env, "R"); got != 1 {
		t.Errorf("r = %g, want 1", got)
	}
}

func TestGotoForward(t *testing.T) {
	_, env := testEvalEnv(t, `x = 1
goto, done
x = 99
done:
x = x + 1`)
	if got := envNum(t, env, "X"); got != 2 {
		t.Errorf("x = %g, want 2", got)
	}
}

func TestGotoBackward(t *testing.T) {
	_, env := testEvalEnv(t, `x = 0
again:
x = x + 1
if x lt 3 then goto, again endif`)
	if got := envNum(t, env, "X"); got != 3 {
		t.Errorf("x = %g, want 3", got)
	}
}

func TestGotoUnknownLabel(t *testing.T) {
	wantError(t, testEval(t, "goto, nowhere"), "LABEL-0001")
}

// An unknown GOTO target fails before the body runs any statement
func TestGotoUnknownLabelRunsNoStatements(t *testing.T) {
	lines, result := testEvalOutput(t, `pro leaky
  print, "started"
  goto, nowhere
end
leaky`)
	wantError(t, result, "LABEL-0001")
	if len(lines) != 0 {
		t.Errorf("body ran before the label check: %v", lines)
	}
}

func TestGotoUnknownLabelAtTopLevelRunsNothing(t *testing.T) {
	lines, result := testEvalOutput(t, `print, "visible"
goto, nowhere`)
	wantError(t, result, "LABEL-0001")
	if len(lines) != 0 {
		t.Errorf("statements ran before the label check: %v", lines)
	}
}

func TestGotoUnknownLabelInUntakenBranch(t *testing.T) {
	result := testEval(t, `pro p
  if 0 then goto, nowhere endif
end
p`)
	wantError(t, result, "LABEL-0001")
}

func TestGotoCannotEscapeRoutine(t *testing.T) {
	result := testEval(t, `pro jumper
  goto, outside
end
jumper
outside:
x = 1`)
	wantError(t, result, "LABEL-0001")
}

func TestProcedureCall(t *testing.T) {
	lines, _ := testEvalOutput(t, `pro add, a, b
  print, a + b
end
add, 2, 3`)
	if len(lines) != 1 || lines[0] != "5" {
		t.Errorf("output = %v, want [5]", lines)
	}
}

func TestFunctionCall(t *testing.T) {
	_, env := testEvalEnv(t, `function square, x
  return, x * x
end
y = square(7)`)
	if got := envNum(t, env, "Y"); got != 49 {
		t.Errorf("y = %g, want 49", got)
	}
}

func TestRecursiveFunction(t *testing.T) {
	_, env := testEvalEnv(t, `function fact, n
  if n le 1 then return, 1 endif
  return, n * fact(n - 1)
end
y = fact(6)`)
	if got := envNum(t, env, "Y"); got != 720 {
		t.Errorf("y = %g, want 720", got)
	}
}

func TestRoutineHasOwnScope(t *testing.T) {
	_, env := testEvalEnv(t, `x = 1
pro clobber
  x = 99
end
clobber`)
	if got := envNum(t, env, "X"); got != 1 {
		t.Errorf("x = %g, routine locals must not leak", got)
	}
}

func TestMissingParamsAreUndefined(t *testing.T) {
	lines, _ := testEvalOutput(t, `pro show, a, b
  print, b
end
show, 1`)
	if len(lines) != 1 || lines[0] != "<Undefined>" {
		t.Errorf("output = %v", lines)
	}
}

func TestTooManyArguments(t *testing.T) {
	wantError(t, testEval(t, `pro one, a
end
one, 1, 2`), "ARG-0001")
}

func TestFunctionWithoutReturnValue(t *testing.T) {
	wantError(t, testEval(t, `function noval, x
  y = x + 1
end
z = noval(1)`), "ARG-0003")
}

func TestKeywordArguments(t *testing.T) {
	lines, _ := testEvalOutput(t, `pro greet, name=n
  print, n
end
greet, name="ada"`)
	if len(lines) != 1 || lines[0] != "ada" {
		t.Errorf("output = %v, want [ada]", lines)
	}
}

func TestKeywordPrefixMatching(t *testing.T) {
	lines, _ := testEvalOutput(t, `pro greet, name=n
  print, n
end
greet, nam="ada"`)
	if len(lines) != 1 || lines[0] != "ada" {
		t.Errorf("output = %v, want [ada]", lines)
	}
}

func TestAmbiguousKeywordPrefix(t *testing.T) {
	wantError(t, testEval(t, `pro plot2, alpha=a, alter=b
end
plot2, al=1`), "ARG-0002")
}

func TestUnknownKeyword(t *testing.T) {
	wantError(t, testEval(t, `pro greet, name=n
end
greet, color=1`), "ARG-0002")
}

func TestFlagKeyword(t *testing.T) {
	lines, _ := testEvalOutput(t, `pro report, verbose=v
  print, v
end
report, /verbose`)
	if len(lines) != 1 || lines[0] != "1" {
		t.Errorf("output = %v, want [1]", lines)
	}
}

func TestUnknownProcedure(t *testing.T) {
	wantError(t, testEval(t, "nosuchproc, 1"), "UNDEF-0002")
}

func TestUnknownFunction(t *testing.T) {
	wantError(t, testEval(t, "y = nosuchfn(1)"), "UNDEF-0002")
}

func TestRecursionDepthLimit(t *testing.T) {
	interp := NewInterp(WithMaxDepth(25))
	result, _ := runSource(t, interp, `function loop, n
  return, loop(n)
end
y = loop(1)`)
	wantError(t, result, "STATE-0001")
}

func TestCommonBlocks(t *testing.T) {
	lines, _ := testEvalOutput(t, `pro setit
  common shared, v
  v = 42
end
pro getit
  common shared, v
  print, v
end
setit
getit`)
	if len(lines) != 1 || lines[0] != "42" {
		t.Errorf("output = %v, want [42]", lines)
	}
}

func TestCancelStopsExecution(t *testing.T) {
	interp := NewInterp()
	l := lexer.New("x = 0\nwhile 1 do x = x + 1")
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse error: %s", errs[0].Error())
	}

	done := make(chan Object, 1)
	go func() {
		done <- interp.Run(program, interp.NewEnvironment())
	}()

	time.Sleep(20 * time.Millisecond)
	interp.Cancel()

	select {
	case result := <-done:
		wantError(t, result, "STATE-0002")
	case <-time.After(5 * time.Second):
		t.Fatal("interpreter did not stop after Cancel")
	}
}

func TestStatementSeparator(t *testing.T) {
	_, env := testEvalEnv(t, "x = 1 & y = x + 1 & z = y * 2")
	if got := envNum(t, env, "Z"); got != 4 {
		t.Errorf("z = %g, want 4", got)
	}
}

func TestLineContinuation(t *testing.T) {
	_, env := testEvalEnv(t, "x = 1 + $\n    2 + $\n    3")
	if got := envNum(t, env, "X"); got != 6 {
		t.Errorf("x = %g, want 6", got)
	}
}
