package evaluator

import (
	"strings"

	"github.com/xdl-lang/xdl/pkg/xdl/ast"
	xdlerrors "github.com/xdl-lang/xdl/pkg/xdl/errors"
)

// evalProcedureCall resolves "name, args" statements: user procedures
// shadow native ones
func evalProcedureCall(node *ast.ProcedureCall, env *Environment) Object {
	interp := env.Interp()
	if decl, ok := interp.Procedure(node.Name); ok {
		return callUserProcedure(decl, node.Args, node.Keywords, env)
	}
	if b, ok := interp.Registry().Procedure(node.Name); ok {
		return runBuiltinProcedure(b, node.Args, node.Keywords, env)
	}
	return newError("UNDEF-0002", map[string]any{"Name": node.Name})
}

// evalCallExpression resolves "name(args)" expressions
func evalCallExpression(node *ast.CallExpression, env *Environment) Object {
	interp := env.Interp()
	if decl, ok := interp.Function(node.Name); ok {
		return callUserFunction(decl, node.Args, node.Keywords, env)
	}
	if b, ok := interp.Registry().Function(node.Name); ok {
		args, kws, errObj := evalCallArgs(node.Args, node.Keywords, env)
		if errObj != nil {
			return errObj
		}
		return b.Fn(interp, args, kws)
	}
	return newError("UNDEF-0002", map[string]any{"Name": node.Name})
}

func runBuiltinProcedure(b *Builtin, argExprs []ast.Expression, kwExprs []*ast.KeywordArg, env *Environment) Object {
	args, kws, errObj := evalCallArgs(argExprs, kwExprs, env)
	if errObj != nil {
		return errObj
	}
	result := b.Fn(env.Interp(), args, kws)
	if isError(result) {
		return result
	}
	return UNDEFINED
}

// evalCallArgs evaluates positional and keyword arguments. Keyword
// names are upper-cased; a /FLAG arrives as LONG 1.
func evalCallArgs(argExprs []ast.Expression, kwExprs []*ast.KeywordArg, env *Environment) ([]Object, map[string]Object, Object) {
	args := make([]Object, len(argExprs))
	for i, expr := range argExprs {
		v := Eval(expr, env)
		if isError(v) {
			return nil, nil, v
		}
		args[i] = v
	}
	kws := make(map[string]Object, len(kwExprs))
	for _, kw := range kwExprs {
		if kw.Value == nil {
			kws[strings.ToUpper(kw.Name)] = &Long{Value: 1}
			continue
		}
		v := Eval(kw.Value, env)
		if isError(v) {
			return nil, nil, v
		}
		kws[strings.ToUpper(kw.Name)] = v
	}
	return args, kws, nil
}

func callUserProcedure(decl *ast.ProcedureDecl, argExprs []ast.Expression, kwExprs []*ast.KeywordArg, env *Environment) Object {
	result := callUserRoutine(decl.Name, decl.Params, decl.Body, argExprs, kwExprs, env)
	switch r := result.(type) {
	case *Error:
		return r
	case *ReturnValue:
		return UNDEFINED
	}
	return UNDEFINED
}

func callUserFunction(decl *ast.FunctionDecl, argExprs []ast.Expression, kwExprs []*ast.KeywordArg, env *Environment) Object {
	result := callUserRoutine(decl.Name, decl.Params, decl.Body, argExprs, kwExprs, env)
	switch r := result.(type) {
	case *Error:
		return r
	case *ReturnValue:
		if r.Value == UNDEFINED {
			return newError("ARG-0003", map[string]any{"Callee": decl.Name})
		}
		return r.Value
	}
	// The body ran off the end without RETURN
	return newError("ARG-0003", map[string]any{"Callee": decl.Name})
}

// callUserRoutine binds arguments into a fresh scope and runs the
// body. Procedures and functions have no closure over the caller;
// only COMMON blocks are shared.
func callUserRoutine(name string, params []*ast.Param, body *ast.BlockStatement,
	argExprs []ast.Expression, kwExprs []*ast.KeywordArg, env *Environment) Object {

	interp := env.Interp()
	if interp.depth >= interp.maxDepth {
		return newError("STATE-0001", map[string]any{"Limit": interp.maxDepth})
	}
	if errObj := checkGotoTargets(body.Statements); errObj != nil {
		return errObj
	}

	args, kws, errObj := evalCallArgs(argExprs, kwExprs, env)
	if errObj != nil {
		return errObj
	}

	var positional []*ast.Param
	var keyword []*ast.Param
	for _, p := range params {
		if p.Keyword == "" {
			positional = append(positional, p)
		} else {
			keyword = append(keyword, p)
		}
	}

	if len(args) > len(positional) {
		return newError("ARG-0001", map[string]any{
			"Callee": name, "Want": len(positional), "Got": len(args),
		})
	}

	local := NewEnvironment(interp)
	for i, p := range positional {
		if i < len(args) {
			local.Set(p.Name, copyValue(args[i]))
		} else {
			local.Set(p.Name, UNDEFINED)
		}
	}
	for _, p := range keyword {
		local.Set(p.Name, UNDEFINED)
	}

	for kwName, kwVal := range kws {
		p, errObj := matchKeyword(name, kwName, keyword)
		if errObj != nil {
			return errObj
		}
		local.Set(p.Name, copyValue(kwVal))
	}

	interp.depth++
	result := evalStatementList(body.Statements, local, false)
	interp.depth--

	switch sig := result.(type) {
	case *GotoSignal:
		return newError("LABEL-0001", map[string]any{"Label": sig.Label})
	case *BreakSignal, *ContinueSignal:
		return &Error{Err: xdlerrors.NewSimple(xdlerrors.ClassState,
			"BREAK or CONTINUE used outside a loop in "+strings.ToUpper(name))}
	}
	return result
}

// matchKeyword resolves a call-site keyword against the declared
// keyword parameters: exact match first, then a unique prefix
func matchKeyword(callee, kwName string, keyword []*ast.Param) (*ast.Param, Object) {
	var match *ast.Param
	for _, p := range keyword {
		declared := strings.ToUpper(p.Keyword)
		if declared == kwName {
			return p, nil
		}
		if strings.HasPrefix(declared, kwName) {
			if match != nil {
				// Ambiguous prefix
				return nil, newError("ARG-0002", map[string]any{"Keyword": kwName, "Callee": callee})
			}
			match = p
		}
	}
	if match == nil {
		return nil, newError("ARG-0002", map[string]any{"Keyword": kwName, "Callee": callee})
	}
	return match, nil
}
