package evaluator

import (
	"fmt"
	"math"
	"strings"

	"github.com/xdl-lang/xdl/pkg/xdl/ast"
	xdlerrors "github.com/xdl-lang/xdl/pkg/xdl/errors"
)

// Eval walks an AST node and returns its value. Control flow travels
// as signal objects (BreakSignal, ContinueSignal, ReturnValue,
// GotoSignal, Error) returned up through the statement walk.
func Eval(node ast.Node, env *Environment) Object {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return evalProgram(node, env)
	case *ast.BlockStatement:
		return evalStatementList(node.Statements, env, false)
	case *ast.ExpressionStatement:
		return evalExpressionStatement(node, env)
	case *ast.AssignStatement:
		return evalAssign(node, env)
	case *ast.IfStatement:
		return evalIfStatement(node, env)
	case *ast.ForStatement:
		return evalForStatement(node, env)
	case *ast.ForeachStatement:
		return evalForeachStatement(node, env)
	case *ast.WhileStatement:
		return evalWhileStatement(node, env)
	case *ast.RepeatStatement:
		return evalRepeatStatement(node, env)
	case *ast.CaseStatement:
		return evalCaseStatement(node, env)
	case *ast.SwitchStatement:
		return evalSwitchStatement(node, env)
	case *ast.BreakStatement:
		return &BreakSignal{}
	case *ast.ContinueStatement:
		return &ContinueSignal{}
	case *ast.GotoStatement:
		return &GotoSignal{Label: strings.ToUpper(node.Label)}
	case *ast.LabelStatement:
		return UNDEFINED
	case *ast.ReturnStatement:
		return evalReturnStatement(node, env)
	case *ast.ProcedureDecl:
		env.Interp().defineProcedure(node)
		return UNDEFINED
	case *ast.FunctionDecl:
		env.Interp().defineFunction(node)
		return UNDEFINED
	case *ast.ProcedureCall:
		return evalProcedureCall(node, env)
	case *ast.CommonStatement:
		return evalCommonStatement(node, env)
	case *ast.CompileOptStatement:
		return UNDEFINED

	// Expressions
	case *ast.Identifier:
		return evalIdentifier(node, env)
	case *ast.IntegerLiteral:
		return evalIntegerLiteral(node)
	case *ast.FloatLiteral:
		return &Float{Value: float32(node.Value)}
	case *ast.DoubleLiteral:
		return &Double{Value: node.Value}
	case *ast.StringLiteral:
		return &Str{Value: node.Value}
	case *ast.SystemVariable:
		return evalSystemVariable(node, env)
	case *ast.PrefixExpression:
		return evalPrefixNode(node, env)
	case *ast.InfixExpression:
		left := Eval(node.Left, env)
		if isError(left) {
			return left
		}
		right := Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return evalInfixExpression(node.Operator, left, right)
	case *ast.TernaryExpression:
		cond := Eval(node.Condition, env)
		if isError(cond) {
			return cond
		}
		if isTruthy(cond) {
			return Eval(node.Consequence, env)
		}
		return Eval(node.Alternative, env)
	case *ast.ArrayLiteral:
		return evalArrayLiteral(node, env)
	case *ast.StructLiteral:
		return evalStructLiteral(node, env)
	case *ast.RangeExpression:
		return evalRangeExpression(node, env)
	case *ast.IndexExpression:
		return evalIndexExpression(node, env)
	case *ast.CallExpression:
		return evalCallExpression(node, env)
	case *ast.DotExpression:
		return evalDotExpression(node, env)
	}

	return UNDEFINED
}

// evalProgram registers declarations up front so procedures may be
// called before their source position, then runs the statements
func evalProgram(program *ast.Program, env *Environment) Object {
	interp := env.Interp()
	for _, stmt := range program.Statements {
		switch decl := stmt.(type) {
		case *ast.ProcedureDecl:
			interp.defineProcedure(decl)
		case *ast.FunctionDecl:
			interp.defineFunction(decl)
		}
	}
	if errObj := checkGotoTargets(program.Statements); errObj != nil {
		return errObj
	}
	result := evalStatementList(program.Statements, env, true)
	if sig, ok := result.(*GotoSignal); ok {
		return newError("LABEL-0001", map[string]any{"Label": sig.Label})
	}
	return result
}

// checkGotoTargets fails with LABEL-0001 when a GOTO anywhere in the
// body names a label the body never declares. Runs before the first
// statement so a bad jump cannot leave partial side effects behind.
// Nested routine declarations keep their own label scope.
func checkGotoTargets(stmts []ast.Statement) Object {
	labels := make(map[string]bool)
	eachStatement(stmts, func(s ast.Statement) {
		if l, ok := s.(*ast.LabelStatement); ok {
			labels[strings.ToUpper(l.Name)] = true
		}
	})

	var unknown string
	eachStatement(stmts, func(s ast.Statement) {
		if g, ok := s.(*ast.GotoStatement); ok && unknown == "" {
			if !labels[strings.ToUpper(g.Label)] {
				unknown = strings.ToUpper(g.Label)
			}
		}
	})
	if unknown != "" {
		return newError("LABEL-0001", map[string]any{"Label": unknown})
	}
	return nil
}

// eachStatement visits every statement in stmts and in their nested
// bodies, in source order, without entering PRO/FUNCTION declarations
func eachStatement(stmts []ast.Statement, visit func(ast.Statement)) {
	var block func(b *ast.BlockStatement)
	block = func(b *ast.BlockStatement) {
		if b != nil {
			eachStatement(b.Statements, visit)
		}
	}
	for _, s := range stmts {
		if s == nil {
			continue
		}
		visit(s)
		switch s := s.(type) {
		case *ast.BlockStatement:
			eachStatement(s.Statements, visit)
		case *ast.IfStatement:
			block(s.Consequence)
			block(s.Alternative)
		case *ast.ForStatement:
			block(s.Body)
		case *ast.ForeachStatement:
			block(s.Body)
		case *ast.WhileStatement:
			block(s.Body)
		case *ast.RepeatStatement:
			block(s.Body)
		case *ast.CaseStatement:
			for _, c := range s.Clauses {
				block(c.Body)
			}
		case *ast.SwitchStatement:
			for _, c := range s.Clauses {
				block(c.Body)
			}
		}
	}
}

// evalStatementList runs a statement list with GOTO support: labels in
// the list are collected up front, a matching GotoSignal re-enters the
// list after the label, a non-matching one propagates outward. At the
// top level an unmatched label is an error instead.
func evalStatementList(stmts []ast.Statement, env *Environment, top bool) Object {
	labels := make(map[string]int)
	for i, s := range stmts {
		if l, ok := s.(*ast.LabelStatement); ok {
			labels[strings.ToUpper(l.Name)] = i
		}
	}

	interp := env.Interp()
	var result Object = UNDEFINED

	idx := 0
	for idx < len(stmts) {
		if interp.cancelled.Load() {
			return newError("STATE-0002", nil)
		}
		result = Eval(stmts[idx], env)
		if result != nil {
			switch sig := result.(type) {
			case *GotoSignal:
				if target, ok := labels[sig.Label]; ok {
					idx = target + 1
					result = UNDEFINED
					continue
				}
				if top {
					return newError("LABEL-0001", map[string]any{"Label": sig.Label})
				}
				return sig
			case *Error, *ReturnValue, *BreakSignal, *ContinueSignal:
				return result
			}
		}
		idx++
	}
	return result
}

// evalExpressionStatement handles the bare-identifier form: a name
// that is not a variable but names a procedure is a zero-argument call
func evalExpressionStatement(node *ast.ExpressionStatement, env *Environment) Object {
	if ident, ok := node.Expression.(*ast.Identifier); ok && !env.Has(ident.Value) {
		interp := env.Interp()
		if decl, ok := interp.Procedure(ident.Value); ok {
			return callUserProcedure(decl, nil, nil, env)
		}
		if b, ok := interp.Registry().Procedure(ident.Value); ok {
			return runBuiltinProcedure(b, nil, nil, env)
		}
	}
	return Eval(node.Expression, env)
}

func evalIntegerLiteral(node *ast.IntegerLiteral) Object {
	switch node.Kind {
	case ast.IntByte:
		return &Byte{Value: uint8(node.Value)}
	case ast.IntLong:
		return &Long{Value: int32(node.Value)}
	case ast.IntShort:
		return &Int{Value: int16(node.Value)}
	default:
		// Plain literals default to INT, widening to LONG on overflow
		if node.Value > 32767 || node.Value < -32768 {
			return &Long{Value: int32(node.Value)}
		}
		return &Int{Value: int16(node.Value)}
	}
}

func evalIdentifier(node *ast.Identifier, env *Environment) Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}
	return newError("UNDEF-0001", map[string]any{"Name": node.Value})
}

func evalSystemVariable(node *ast.SystemVariable, env *Environment) Object {
	if val, ok := env.Interp().SystemVariable(node.Name); ok {
		return val
	}
	return newError("UNDEF-0003", map[string]any{"Name": node.Name})
}

func evalPrefixNode(node *ast.PrefixExpression, env *Environment) Object {
	right := Eval(node.Right, env)
	if isError(right) {
		return right
	}
	if node.Operator == "*" {
		return derefPointer(right, env)
	}
	return evalPrefixExpression(node.Operator, right)
}

func derefPointer(obj Object, env *Environment) Object {
	ptr, ok := obj.(*Pointer)
	if !ok {
		return newError("TYPE-0003", map[string]any{"Expected": "a pointer", "Got": string(obj.Type())})
	}
	val, ok := env.Interp().Heap().Deref(ptr.ID)
	if !ok {
		return &Error{Err: xdlerrors.NewSimple(xdlerrors.ClassState, "invalid pointer "+ptr.Inspect())}
	}
	return val
}

func evalDotExpression(node *ast.DotExpression, env *Environment) Object {
	left := Eval(node.Left, env)
	if isError(left) {
		return left
	}
	st, ok := left.(*Struct)
	if !ok {
		return newError("TYPE-0003", map[string]any{"Expected": "a structure", "Got": string(left.Type())})
	}
	val, ok := st.Get(node.Field)
	if !ok {
		return newError("TYPE-0007", map[string]any{"Struct": node.Left.String(), "Field": node.Field})
	}
	return val
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

func evalIfStatement(node *ast.IfStatement, env *Environment) Object {
	cond := Eval(node.Condition, env)
	if isError(cond) {
		return cond
	}
	if isTruthy(cond) {
		return Eval(node.Consequence, env)
	}
	if node.Alternative != nil {
		return Eval(node.Alternative, env)
	}
	return UNDEFINED
}

func evalForStatement(node *ast.ForStatement, env *Environment) Object {
	interp := env.Interp()

	start, kind1, errObj := evalLoopBound(node.Start, env)
	if errObj != nil {
		return errObj
	}
	stop, kind2, errObj := evalLoopBound(node.Stop, env)
	if errObj != nil {
		return errObj
	}
	step, kind3 := 1.0, KindInt
	if node.Step != nil {
		step, kind3, errObj = evalLoopBound(node.Step, env)
		if errObj != nil {
			return errObj
		}
	}
	if step == 0 {
		return newError("ARITH-0002", nil)
	}

	kind := maxKind(kind1, maxKind(kind2, kind3))

	for v := start; (step > 0 && v <= stop) || (step < 0 && v >= stop); v += step {
		if interp.cancelled.Load() {
			return newError("STATE-0002", nil)
		}
		env.Set(node.Variable.Value, scalarFromFloat(v, kind))
		result := Eval(node.Body, env)
		switch result.(type) {
		case *BreakSignal:
			return UNDEFINED
		case *ContinueSignal:
			continue
		case *Error, *ReturnValue, *GotoSignal:
			return result
		}
	}
	return UNDEFINED
}

func evalLoopBound(expr ast.Expression, env *Environment) (float64, Kind, Object) {
	obj := Eval(expr, env)
	if isError(obj) {
		return 0, 0, obj
	}
	kind, ok := numericKind(obj)
	if !ok || kind == KindComplex {
		return 0, 0, newError("TYPE-0003", map[string]any{"Expected": "a real number", "Got": string(obj.Type())})
	}
	v, _ := toFloat(obj)
	return v, kind, nil
}

func evalForeachStatement(node *ast.ForeachStatement, env *Environment) Object {
	coll := Eval(node.Collection, env)
	if isError(coll) {
		return coll
	}

	var items []Object
	switch c := coll.(type) {
	case *Array:
		items = make([]Object, c.Len())
		for i := range c.Data {
			items[i] = c.Elem(i)
		}
	case *NestedArray:
		items = c.Rows
	default:
		// A scalar iterates exactly once
		items = []Object{coll}
	}

	interp := env.Interp()
	for i, item := range items {
		if interp.cancelled.Load() {
			return newError("STATE-0002", nil)
		}
		env.Set(node.Element.Value, copyValue(item))
		if node.Index != nil {
			env.Set(node.Index.Value, &Long{Value: int32(i)})
		}
		result := Eval(node.Body, env)
		switch result.(type) {
		case *BreakSignal:
			return UNDEFINED
		case *ContinueSignal:
			continue
		case *Error, *ReturnValue, *GotoSignal:
			return result
		}
	}
	return UNDEFINED
}

func evalWhileStatement(node *ast.WhileStatement, env *Environment) Object {
	interp := env.Interp()
	for {
		if interp.cancelled.Load() {
			return newError("STATE-0002", nil)
		}
		cond := Eval(node.Condition, env)
		if isError(cond) {
			return cond
		}
		if !isTruthy(cond) {
			return UNDEFINED
		}
		result := Eval(node.Body, env)
		switch result.(type) {
		case *BreakSignal:
			return UNDEFINED
		case *ContinueSignal:
			continue
		case *Error, *ReturnValue, *GotoSignal:
			return result
		}
	}
}

func evalRepeatStatement(node *ast.RepeatStatement, env *Environment) Object {
	interp := env.Interp()
	for {
		if interp.cancelled.Load() {
			return newError("STATE-0002", nil)
		}
		result := Eval(node.Body, env)
		switch result.(type) {
		case *BreakSignal:
			return UNDEFINED
		case *ContinueSignal:
			// falls through to the UNTIL check
		case *Error, *ReturnValue, *GotoSignal:
			return result
		}
		cond := Eval(node.Condition, env)
		if isError(cond) {
			return cond
		}
		if isTruthy(cond) {
			return UNDEFINED
		}
	}
}

// evalCaseStatement runs the body of the first clause whose value
// equals the subject, or the ELSE clause when nothing matches
func evalCaseStatement(node *ast.CaseStatement, env *Environment) Object {
	subject := Eval(node.Subject, env)
	if isError(subject) {
		return subject
	}

	var elseClause *ast.CaseClause
	for _, clause := range node.Clauses {
		if clause.Value == nil {
			elseClause = clause
			continue
		}
		val := Eval(clause.Value, env)
		if isError(val) {
			return val
		}
		if equalObjects(subject, val) {
			return runClauseBody(clause, env)
		}
	}
	if elseClause != nil {
		return runClauseBody(elseClause, env)
	}
	return UNDEFINED
}

// evalSwitchStatement runs from the first matching clause through the
// remaining clauses until a BREAK, C-style
func evalSwitchStatement(node *ast.SwitchStatement, env *Environment) Object {
	subject := Eval(node.Subject, env)
	if isError(subject) {
		return subject
	}

	start := -1
	elseIdx := -1
	for i, clause := range node.Clauses {
		if clause.Value == nil {
			elseIdx = i
			continue
		}
		val := Eval(clause.Value, env)
		if isError(val) {
			return val
		}
		if equalObjects(subject, val) {
			start = i
			break
		}
	}
	if start < 0 {
		start = elseIdx
	}
	if start < 0 {
		return UNDEFINED
	}

	for _, clause := range node.Clauses[start:] {
		result := Eval(clause.Body, env)
		switch result.(type) {
		case *BreakSignal:
			return UNDEFINED
		case *Error, *ReturnValue, *ContinueSignal, *GotoSignal:
			return result
		}
	}
	return UNDEFINED
}

func runClauseBody(clause *ast.CaseClause, env *Environment) Object {
	result := Eval(clause.Body, env)
	if _, ok := result.(*BreakSignal); ok {
		return UNDEFINED
	}
	return result
}

// Machine epsilons for CASE/SWITCH selector matching
const (
	epsFloat32 = 1.1920929e-07
	epsFloat64 = 2.220446049250313e-16
)

// equalObjects implements CASE/SWITCH matching: strings compare
// exactly, real numerics within machine epsilon (single precision when
// both sides are single), complex values exactly
func equalObjects(a, b Object) bool {
	if as, ok := a.(*Str); ok {
		if bs, ok := b.(*Str); ok {
			return as.Value == bs.Value
		}
		return false
	}
	ka, ok := numericKind(a)
	if !ok {
		return false
	}
	kb, ok := numericKind(b)
	if !ok {
		return false
	}
	if ka == KindComplex || kb == KindComplex {
		ac, _ := toComplex(a)
		bc, _ := toComplex(b)
		return ac == bc
	}
	eps := epsFloat64
	if ka == KindFloat && kb == KindFloat {
		eps = epsFloat32
	}
	af, _ := toFloat(a)
	bf, _ := toFloat(b)
	return math.Abs(af-bf) < eps
}

func evalReturnStatement(node *ast.ReturnStatement, env *Environment) Object {
	if node.Value == nil {
		return &ReturnValue{Value: UNDEFINED}
	}
	val := Eval(node.Value, env)
	if isError(val) {
		return val
	}
	return &ReturnValue{Value: val}
}

func evalCommonStatement(node *ast.CommonStatement, env *Environment) Object {
	common := env.Interp().commonBlock(node.Block)
	for _, name := range node.Names {
		env.Alias(name, common)
	}
	return UNDEFINED
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// evalArrayLiteral builds an Array when the literal is rectangular and
// numeric, and a NestedArray otherwise. A single row of equal-length
// arrays stacks into a higher-rank Array, which is how [[1,2],[3,4]]
// becomes a 2x2 matrix.
func evalArrayLiteral(node *ast.ArrayLiteral, env *Environment) Object {
	rows := make([][]Object, len(node.Rows))
	for i, row := range node.Rows {
		rows[i] = make([]Object, len(row))
		for j, elem := range row {
			v := Eval(elem, env)
			if isError(v) {
				return v
			}
			rows[i][j] = v
		}
	}

	if len(rows) == 1 {
		return buildVectorOrStack(rows[0])
	}
	return buildMatrix(rows)
}

// buildVectorOrStack handles a single element row
func buildVectorOrStack(elems []Object) Object {
	if len(elems) == 0 {
		return &Array{Data: []float64{}, Shape: []int{0}, Kind: KindLong}
	}

	if allNumericScalars(elems) {
		data := make([]float64, len(elems))
		kind := KindByte
		for i, e := range elems {
			k, _ := numericKind(e)
			kind = maxKind(kind, k)
			data[i], _ = toFloat(e)
		}
		return &Array{Data: data, Shape: []int{len(elems)}, Kind: kind}
	}

	// All elements dense arrays of the same shape: stack them
	if first, ok := elems[0].(*Array); ok {
		same := true
		kind := first.Kind
		for _, e := range elems[1:] {
			a, ok := e.(*Array)
			if !ok || !sameShape(a.Shape, first.Shape) {
				same = false
				break
			}
			kind = maxKind(kind, a.Kind)
		}
		if same {
			shape := append([]int{len(elems)}, first.Shape...)
			data := make([]float64, 0, len(elems)*first.Len())
			for _, e := range elems {
				data = append(data, e.(*Array).Data...)
			}
			return &Array{Data: data, Shape: shape, Kind: kind}
		}
	}

	return &NestedArray{Rows: elems}
}

// buildMatrix handles multi-row literals: rectangular scalar rows
// flatten to a 2-D Array, anything else stays nested
func buildMatrix(rows [][]Object) Object {
	rect := true
	cols := len(rows[0])
	for _, row := range rows {
		if len(row) != cols || !allNumericScalars(row) {
			rect = false
			break
		}
	}

	if rect {
		data := make([]float64, 0, len(rows)*cols)
		kind := KindByte
		for _, row := range rows {
			for _, e := range row {
				k, _ := numericKind(e)
				kind = maxKind(kind, k)
				f, _ := toFloat(e)
				data = append(data, f)
			}
		}
		return &Array{Data: data, Shape: []int{len(rows), cols}, Kind: kind}
	}

	nested := make([]Object, len(rows))
	for i, row := range rows {
		nested[i] = buildVectorOrStack(row)
	}
	return &NestedArray{Rows: nested}
}

func allNumericScalars(elems []Object) bool {
	for _, e := range elems {
		k, ok := numericKind(e)
		if !ok || k == KindComplex {
			return false
		}
	}
	return true
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// evalRangeExpression materializes start:stop[:step] in value position
// as an inclusive array. Subscripts never reach here; they resolve
// ranges into slice selections instead.
func evalRangeExpression(node *ast.RangeExpression, env *Environment) Object {
	if _, ok := node.Stop.(*ast.AllExpression); ok {
		return newError("TYPE-0003", map[string]any{"Expected": "a range bound", "Got": "*"})
	}

	start, kind1, errObj := evalLoopBound(node.Start, env)
	if errObj != nil {
		return errObj
	}
	stop, kind2, errObj := evalLoopBound(node.Stop, env)
	if errObj != nil {
		return errObj
	}
	step, kind3 := 1.0, KindInt
	if node.Step != nil {
		step, kind3, errObj = evalLoopBound(node.Step, env)
		if errObj != nil {
			return errObj
		}
	}
	if step == 0 {
		return newError("ARITH-0002", nil)
	}
	limit := env.Interp().MaxElements()
	if n := (stop-start)/step + 1; n > float64(limit) {
		return &Error{Err: xdlerrors.NewSimple(xdlerrors.ClassState,
			fmt.Sprintf("range of %d elements exceeds the allocation limit of %d", int(n), limit))}
	}

	kind := maxKind(kind1, maxKind(kind2, kind3))
	var data []float64
	for v := start; (step > 0 && v <= stop) || (step < 0 && v >= stop); v += step {
		data = append(data, v)
	}
	if data == nil {
		data = []float64{}
	}
	return &Array{Data: data, Shape: []int{len(data)}, Kind: kind}
}

func evalStructLiteral(node *ast.StructLiteral, env *Environment) Object {
	st := &Struct{Fields: make(map[string]Object, len(node.Names))}
	for i, name := range node.Names {
		val := Eval(node.Values[i], env)
		if isError(val) {
			return val
		}
		st.Names = append(st.Names, name)
		st.Fields[strings.ToUpper(name)] = val
	}
	return st
}
