package parser

import (
	"testing"

	"github.com/xdl-lang/xdl/pkg/xdl/ast"
	"github.com/xdl-lang/xdl/pkg/xdl/lexer"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	program := p.ParseProgram()
	checkParserErrors(t, p)
	return program
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errors := p.Errors()
	if len(errors) == 0 {
		return
	}
	t.Errorf("parser has %d errors", len(errors))
	for _, err := range errors {
		t.Errorf("parser error: %s", err.Error())
	}
	t.FailNow()
}

func testIntegerLiteral(t *testing.T, expr ast.Expression, value int64) bool {
	t.Helper()
	il, ok := expr.(*ast.IntegerLiteral)
	if !ok {
		t.Errorf("expr not *ast.IntegerLiteral. got=%T", expr)
		return false
	}
	if il.Value != value {
		t.Errorf("il.Value not %d. got=%d", value, il.Value)
		return false
	}
	return true
}

func testIdentifier(t *testing.T, expr ast.Expression, value string) bool {
	t.Helper()
	ident, ok := expr.(*ast.Identifier)
	if !ok {
		t.Errorf("expr not *ast.Identifier. got=%T", expr)
		return false
	}
	if ident.Value != value {
		t.Errorf("ident.Value not %s. got=%s", value, ident.Value)
		return false
	}
	return true
}

func TestAssignStatements(t *testing.T) {
	tests := []struct {
		input          string
		expectedTarget string
		expectedOp     string
		expectedValue  int64
	}{
		{"x = 5", "x", "=", 5},
		{"total = 42", "total", "=", 42},
		{"x += 1", "x", "+=", 1},
		{"y -= 2", "y", "-=", 2},
		{"z *= 3", "z", "*=", 3},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		if len(program.Statements) != 1 {
			t.Fatalf("program has %d statements, want 1", len(program.Statements))
		}
		stmt, ok := program.Statements[0].(*ast.AssignStatement)
		if !ok {
			t.Fatalf("statement is %T, want *ast.AssignStatement", program.Statements[0])
		}
		if !testIdentifier(t, stmt.Target, tt.expectedTarget) {
			return
		}
		if stmt.Operator != tt.expectedOp {
			t.Errorf("operator is %q, want %q", stmt.Operator, tt.expectedOp)
		}
		if !testIntegerLiteral(t, stmt.Value, tt.expectedValue) {
			return
		}
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x = 1 + 2 * 3", "x = (1 + (2 * 3))"},
		{"x = (1 + 2) * 3", "x = ((1 + 2) * 3)"},
		{"x = 2 ^ 3 ^ 2", "x = (2 ^ (3 ^ 2))"},
		{"x = -a * b", "x = ((-a) * b)"},
		{"x = a eq b or c gt d", "x = ((a EQ b) OR (c GT d))"},
		{"x = a mod b + c", "x = ((a MOD b) + c)"},
		{"x = m # n + 1", "x = ((m # n) + 1)"},
		{"x = not a and b", "x = ((NOT a) AND b)"},
		{"x = a gt 5 ? 1 : 0", "x = ((a GT 5) ? 1 : 0)"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		got := program.Statements[0].String()
		if got != tt.expected {
			t.Errorf("input %q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestProcedureCallStatement(t *testing.T) {
	program := parseProgram(t, "plot, x, y, TITLE=\"data\", /OVERSAMPLE")

	stmt, ok := program.Statements[0].(*ast.ProcedureCall)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ProcedureCall", program.Statements[0])
	}
	if stmt.Name != "plot" {
		t.Errorf("name is %q, want plot", stmt.Name)
	}
	if len(stmt.Args) != 2 {
		t.Fatalf("got %d positional args, want 2", len(stmt.Args))
	}
	if len(stmt.Keywords) != 2 {
		t.Fatalf("got %d keywords, want 2", len(stmt.Keywords))
	}
	if stmt.Keywords[0].Name != "TITLE" || stmt.Keywords[0].Value == nil {
		t.Errorf("first keyword should be TITLE with a value, got %+v", stmt.Keywords[0])
	}
	if stmt.Keywords[1].Name != "OVERSAMPLE" || stmt.Keywords[1].Value != nil {
		t.Errorf("second keyword should be the OVERSAMPLE flag, got %+v", stmt.Keywords[1])
	}
}

func TestIfStatement(t *testing.T) {
	input := `if x gt 5 then begin
  print, x
endif
`
	program := parseProgram(t, input)
	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.IfStatement", program.Statements[0])
	}
	if stmt.Condition.String() != "(x GT 5)" {
		t.Errorf("condition is %q", stmt.Condition.String())
	}
	if len(stmt.Consequence.Statements) != 1 {
		t.Fatalf("consequence has %d statements, want 1", len(stmt.Consequence.Statements))
	}
	if stmt.Alternative != nil {
		t.Errorf("alternative should be nil")
	}
}

func TestIfElseStatement(t *testing.T) {
	input := `if x gt 5 then begin
  a = 1
end else begin
  a = 2
endif
`
	program := parseProgram(t, input)
	stmt := program.Statements[0].(*ast.IfStatement)
	if stmt.Alternative == nil {
		t.Fatalf("alternative is nil")
	}
	if len(stmt.Alternative.Statements) != 1 {
		t.Errorf("alternative has %d statements, want 1", len(stmt.Alternative.Statements))
	}
}

func TestForStatementSingleLine(t *testing.T) {
	program := parseProgram(t, "for i = 0, 2 do x = x + i")

	stmt, ok := program.Statements[0].(*ast.ForStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ForStatement", program.Statements[0])
	}
	if stmt.Variable.Value != "i" {
		t.Errorf("loop variable is %q, want i", stmt.Variable.Value)
	}
	if !testIntegerLiteral(t, stmt.Start, 0) || !testIntegerLiteral(t, stmt.Stop, 2) {
		return
	}
	if stmt.Step != nil {
		t.Errorf("step should be nil")
	}
	if len(stmt.Body.Statements) != 1 {
		t.Fatalf("body has %d statements, want 1", len(stmt.Body.Statements))
	}
}

func TestForStatementWithStepAndBlock(t *testing.T) {
	input := `for i = 10, 0, -2 do begin
  print, i
endfor
`
	program := parseProgram(t, input)
	stmt := program.Statements[0].(*ast.ForStatement)
	if stmt.Step == nil {
		t.Fatalf("step is nil")
	}
	if stmt.Step.String() != "(-2)" {
		t.Errorf("step is %q", stmt.Step.String())
	}
}

func TestWhileStatement(t *testing.T) {
	input := `while n gt 0 do begin
  n = n - 1
endwhile
`
	program := parseProgram(t, input)
	stmt, ok := program.Statements[0].(*ast.WhileStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.WhileStatement", program.Statements[0])
	}
	if stmt.Condition.String() != "(n GT 0)" {
		t.Errorf("condition is %q", stmt.Condition.String())
	}
}

func TestRepeatStatement(t *testing.T) {
	input := `repeat begin
  n = n + 1
endrep until n ge 10
`
	program := parseProgram(t, input)
	stmt, ok := program.Statements[0].(*ast.RepeatStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.RepeatStatement", program.Statements[0])
	}
	if stmt.Condition.String() != "(n GE 10)" {
		t.Errorf("condition is %q", stmt.Condition.String())
	}
}

func TestForeachStatement(t *testing.T) {
	program := parseProgram(t, "foreach el, data, idx do total = total + el")

	stmt, ok := program.Statements[0].(*ast.ForeachStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ForeachStatement", program.Statements[0])
	}
	if stmt.Element.Value != "el" {
		t.Errorf("element is %q", stmt.Element.Value)
	}
	if stmt.Index == nil || stmt.Index.Value != "idx" {
		t.Errorf("index is %+v, want idx", stmt.Index)
	}
	if !testIdentifier(t, stmt.Collection, "data") {
		return
	}
}

func TestCaseStatement(t *testing.T) {
	input := `case x of
  1: print, "one"
  2: begin
    print, "two"
  end
  else: print, "many"
endcase
`
	program := parseProgram(t, input)
	stmt, ok := program.Statements[0].(*ast.CaseStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.CaseStatement", program.Statements[0])
	}
	if len(stmt.Clauses) != 3 {
		t.Fatalf("got %d clauses, want 3", len(stmt.Clauses))
	}
	if stmt.Clauses[2].Value != nil {
		t.Errorf("last clause should be the ELSE clause")
	}
}

func TestSwitchStatement(t *testing.T) {
	input := `switch x of
  1: a = 1
  2: a = 2
endswitch
`
	program := parseProgram(t, input)
	stmt, ok := program.Statements[0].(*ast.SwitchStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.SwitchStatement", program.Statements[0])
	}
	if len(stmt.Clauses) != 2 {
		t.Fatalf("got %d clauses, want 2", len(stmt.Clauses))
	}
}

func TestProcedureDecl(t *testing.T) {
	input := "PRO add, a, b & print, a + b & END"

	program := parseProgram(t, input)
	decl, ok := program.Statements[0].(*ast.ProcedureDecl)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ProcedureDecl", program.Statements[0])
	}
	if decl.Name != "add" {
		t.Errorf("name is %q, want add", decl.Name)
	}
	if len(decl.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(decl.Params))
	}
	if len(decl.Body.Statements) != 1 {
		t.Fatalf("body has %d statements, want 1", len(decl.Body.Statements))
	}
}

func TestFunctionDeclWithKeywordParam(t *testing.T) {
	input := `function scale, x, FACTOR=f
  return, x * f
endfunction
`
	program := parseProgram(t, input)
	decl, ok := program.Statements[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("statement is %T, want *ast.FunctionDecl", program.Statements[0])
	}
	if len(decl.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(decl.Params))
	}
	if decl.Params[1].Keyword != "FACTOR" || decl.Params[1].Name != "f" {
		t.Errorf("keyword param is %+v", decl.Params[1])
	}
	ret, ok := decl.Body.Statements[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("body statement is %T, want *ast.ReturnStatement", decl.Body.Statements[0])
	}
	if ret.Value == nil {
		t.Errorf("return value is nil")
	}
}

func TestArrayLiterals(t *testing.T) {
	tests := []struct {
		input        string
		expectedRows int
		expectedCols []int
	}{
		{"a = [1, 2, 3]", 1, []int{3}},
		{"a = []", 1, []int{0}},
		{"a = [1, 2; 3, 4]", 2, []int{2, 2}},
		{"a = [1 -2, 3]", 2, []int{1, 2}},
		{"a = [[1, 2], [3, 4]]", 1, []int{2}},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt := program.Statements[0].(*ast.AssignStatement)
		lit, ok := stmt.Value.(*ast.ArrayLiteral)
		if !ok {
			t.Fatalf("input %q: value is %T, want *ast.ArrayLiteral", tt.input, stmt.Value)
		}
		if len(lit.Rows) != tt.expectedRows {
			t.Fatalf("input %q: got %d rows, want %d", tt.input, len(lit.Rows), tt.expectedRows)
		}
		for i, want := range tt.expectedCols {
			if len(lit.Rows[i]) != want {
				t.Errorf("input %q: row %d has %d elements, want %d", tt.input, i, len(lit.Rows[i]), want)
			}
		}
	}
}

func TestIndexExpressions(t *testing.T) {
	tests := []struct {
		input       string
		expectedStr string
	}{
		{"x = a[0]", "x = a[0]"},
		{"x = a[-1]", "x = a[(-1)]"},
		{"x = m[1, 1]", "x = m[1, 1]"},
		{"x = v[1:3]", "x = v[1:3]"},
		{"x = v[0:10:2]", "x = v[0:10:2]"},
		{"x = m[*, 1]", "x = m[*, 1]"},
		{"x = v[2:*]", "x = v[2:*]"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		got := program.Statements[0].String()
		if got != tt.expectedStr {
			t.Errorf("input %q: expected %q, got %q", tt.input, tt.expectedStr, got)
		}
	}
}

func TestStandaloneRangeExpression(t *testing.T) {
	tests := []struct {
		input       string
		expectedStr string
	}{
		{"x = 1:5", "x = 1:5"},
		{"x = 0:10:2", "x = 0:10:2"},
		{"x = n:m * 2", "x = n:(m * 2)"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt, ok := program.Statements[0].(*ast.AssignStatement)
		if !ok {
			t.Fatalf("input %q: statement is %T, want *ast.AssignStatement", tt.input, program.Statements[0])
		}
		if _, ok := stmt.Value.(*ast.RangeExpression); !ok {
			t.Fatalf("input %q: value is %T, want *ast.RangeExpression", tt.input, stmt.Value)
		}
		if got := program.Statements[0].String(); got != tt.expectedStr {
			t.Errorf("input %q: expected %q, got %q", tt.input, tt.expectedStr, got)
		}
	}
}

// The clause colon must survive range parsing in CASE values
func TestCaseClauseValueIsNotARange(t *testing.T) {
	program := parseProgram(t, `case x of
  1: y = 10
  else: y = -1
endcase`)
	stmt, ok := program.Statements[0].(*ast.CaseStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.CaseStatement", program.Statements[0])
	}
	if len(stmt.Clauses) != 2 {
		t.Fatalf("got %d clauses, want 2", len(stmt.Clauses))
	}
	if _, ok := stmt.Clauses[0].Value.(*ast.IntegerLiteral); !ok {
		t.Errorf("clause value is %T, want *ast.IntegerLiteral", stmt.Clauses[0].Value)
	}
}

func TestIndexAssignment(t *testing.T) {
	program := parseProgram(t, "a[1:3] = 0")
	stmt, ok := program.Statements[0].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.AssignStatement", program.Statements[0])
	}
	if _, ok := stmt.Target.(*ast.IndexExpression); !ok {
		t.Fatalf("target is %T, want *ast.IndexExpression", stmt.Target)
	}
}

func TestGotoAndLabel(t *testing.T) {
	input := `goto, done
done:
`
	program := parseProgram(t, input)
	if len(program.Statements) != 2 {
		t.Fatalf("program has %d statements, want 2", len(program.Statements))
	}
	g, ok := program.Statements[0].(*ast.GotoStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.GotoStatement", program.Statements[0])
	}
	if g.Label != "done" {
		t.Errorf("label is %q, want done", g.Label)
	}
	l, ok := program.Statements[1].(*ast.LabelStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.LabelStatement", program.Statements[1])
	}
	if l.Name != "done" {
		t.Errorf("label name is %q, want done", l.Name)
	}
}

func TestStructLiteral(t *testing.T) {
	program := parseProgram(t, `s = {name: "ada", age: 36}`)
	stmt := program.Statements[0].(*ast.AssignStatement)
	lit, ok := stmt.Value.(*ast.StructLiteral)
	if !ok {
		t.Fatalf("value is %T, want *ast.StructLiteral", stmt.Value)
	}
	if len(lit.Names) != 2 || lit.Names[0] != "name" || lit.Names[1] != "age" {
		t.Errorf("field names are %v", lit.Names)
	}
}

func TestSystemVariableExpression(t *testing.T) {
	program := parseProgram(t, "x = !PI * 2")
	stmt := program.Statements[0].(*ast.AssignStatement)
	infix, ok := stmt.Value.(*ast.InfixExpression)
	if !ok {
		t.Fatalf("value is %T, want *ast.InfixExpression", stmt.Value)
	}
	sv, ok := infix.Left.(*ast.SystemVariable)
	if !ok {
		t.Fatalf("left is %T, want *ast.SystemVariable", infix.Left)
	}
	if sv.Name != "PI" {
		t.Errorf("name is %q, want PI", sv.Name)
	}
}

func TestFunctionCallExpression(t *testing.T) {
	program := parseProgram(t, "y = sin(x) + findgen(10, INCREMENT=2)")
	stmt := program.Statements[0].(*ast.AssignStatement)
	infix := stmt.Value.(*ast.InfixExpression)
	left, ok := infix.Left.(*ast.CallExpression)
	if !ok {
		t.Fatalf("left is %T, want *ast.CallExpression", infix.Left)
	}
	if left.Name != "sin" || len(left.Args) != 1 {
		t.Errorf("left call is %s", left.String())
	}
	right := infix.Right.(*ast.CallExpression)
	if len(right.Args) != 1 || len(right.Keywords) != 1 {
		t.Errorf("right call is %s", right.String())
	}
}

func TestUnclosedBlockError(t *testing.T) {
	l := lexer.New("if x gt 5 then print, x")
	p := New(l)
	p.ParseProgram()

	errors := p.Errors()
	if len(errors) == 0 {
		t.Fatalf("expected an unclosed block error")
	}
	err := errors[0]
	if err.Code != "PARSE-0002" {
		t.Errorf("expected PARSE-0002, got %s: %s", err.Code, err.Message)
	}
	if err.Line != 1 || err.Column != 1 {
		t.Errorf("error should point at the IF token, got %d:%d", err.Line, err.Column)
	}
}

func TestCloserMismatchError(t *testing.T) {
	input := `while n gt 0 do begin
  n = n - 1
endfor
`
	l := lexer.New(input)
	p := New(l)
	p.ParseProgram()

	errors := p.Errors()
	if len(errors) == 0 {
		t.Fatalf("expected a closer mismatch error")
	}
	if errors[0].Code != "PARSE-0003" {
		t.Errorf("expected PARSE-0003, got %s: %s", errors[0].Code, errors[0].Message)
	}
}

func TestIllegalTokenReported(t *testing.T) {
	tests := []struct {
		input        string
		expectedCode string
	}{
		{`s = "unterminated`, "LEX-0001"},
		{"x = 1.2.3", "LEX-0002"},
		{"x = 1 @ 2", "LEX-0003"},
	}

	for _, tt := range tests {
		l := lexer.New(tt.input)
		p := New(l)
		p.ParseProgram()
		errors := p.Errors()
		if len(errors) == 0 {
			t.Fatalf("input %q: expected a lex error", tt.input)
		}
		if errors[0].Code != tt.expectedCode {
			t.Errorf("input %q: expected %s, got %s", tt.input, tt.expectedCode, errors[0].Code)
		}
	}
}

func TestNumericLiteralKinds(t *testing.T) {
	tests := []struct {
		input        string
		expectedKind ast.IntKind
	}{
		{"x = 42", ast.IntDefault},
		{"x = 7B", ast.IntByte},
		{"x = 12S", ast.IntShort},
		{"x = 100L", ast.IntLong},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt := program.Statements[0].(*ast.AssignStatement)
		lit, ok := stmt.Value.(*ast.IntegerLiteral)
		if !ok {
			t.Fatalf("input %q: value is %T", tt.input, stmt.Value)
		}
		if lit.Kind != tt.expectedKind {
			t.Errorf("input %q: kind is %v, want %v", tt.input, lit.Kind, tt.expectedKind)
		}
	}
}

func TestCompoundStatementsOnOneLine(t *testing.T) {
	program := parseProgram(t, "x = 1 & y = 2 & print, x + y")
	if len(program.Statements) != 3 {
		t.Fatalf("program has %d statements, want 3", len(program.Statements))
	}
}

func TestLineContinuationAcrossExpression(t *testing.T) {
	input := "x = 1 + $\n    2"
	program := parseProgram(t, input)
	stmt := program.Statements[0].(*ast.AssignStatement)
	if stmt.Value.String() != "(1 + 2)" {
		t.Errorf("value is %q, want (1 + 2)", stmt.Value.String())
	}
}
