package ast

import (
	"strings"

	"github.com/xdl-lang/xdl/pkg/xdl/lexer"
)

// Node is the interface implemented by every AST node
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement is the interface for statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression is the interface for expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of every parsed source
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out strings.Builder
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// BlockStatement is a sequence of statements forming one body
type BlockStatement struct {
	Token      lexer.Token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) String() string {
	var out strings.Builder
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// ExpressionStatement is an expression used in statement position
type ExpressionStatement struct {
	Token      lexer.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

// AssignStatement assigns a value to a variable, subscript, struct field
// or system variable. Operator is "=", "+=", "-=", "*=" or "/=".
type AssignStatement struct {
	Token    lexer.Token // the operator token
	Target   Expression
	Operator string
	Value    Expression
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) String() string {
	return as.Target.String() + " " + as.Operator + " " + as.Value.String()
}

// IfStatement: IF cond THEN body [ELSE body], bodies are blocks
type IfStatement struct {
	Token       lexer.Token // the IF token
	Condition   Expression
	Consequence *BlockStatement
	Alternative *BlockStatement // may be nil
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out strings.Builder
	out.WriteString("if ")
	out.WriteString(is.Condition.String())
	out.WriteString(" then begin\n")
	out.WriteString(is.Consequence.String())
	if is.Alternative != nil {
		out.WriteString("endif else begin\n")
		out.WriteString(is.Alternative.String())
	}
	out.WriteString("endif")
	return out.String()
}

// ForStatement: FOR var = start, stop[, step] DO body
type ForStatement struct {
	Token    lexer.Token // the FOR token
	Variable *Identifier
	Start    Expression
	Stop     Expression
	Step     Expression // may be nil, defaults to 1
	Body     *BlockStatement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) String() string {
	var out strings.Builder
	out.WriteString("for ")
	out.WriteString(fs.Variable.String())
	out.WriteString(" = ")
	out.WriteString(fs.Start.String())
	out.WriteString(", ")
	out.WriteString(fs.Stop.String())
	if fs.Step != nil {
		out.WriteString(", ")
		out.WriteString(fs.Step.String())
	}
	out.WriteString(" do begin\n")
	out.WriteString(fs.Body.String())
	out.WriteString("endfor")
	return out.String()
}

// ForeachStatement: FOREACH element, collection[, index] DO body
type ForeachStatement struct {
	Token      lexer.Token // the FOREACH token
	Element    *Identifier
	Collection Expression
	Index      *Identifier // may be nil
	Body       *BlockStatement
}

func (fs *ForeachStatement) statementNode()       {}
func (fs *ForeachStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForeachStatement) String() string {
	var out strings.Builder
	out.WriteString("foreach ")
	out.WriteString(fs.Element.String())
	out.WriteString(", ")
	out.WriteString(fs.Collection.String())
	if fs.Index != nil {
		out.WriteString(", ")
		out.WriteString(fs.Index.String())
	}
	out.WriteString(" do begin\n")
	out.WriteString(fs.Body.String())
	out.WriteString("endforeach")
	return out.String()
}

// WhileStatement: WHILE cond DO body
type WhileStatement struct {
	Token     lexer.Token // the WHILE token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + " do begin\n" + ws.Body.String() + "endwhile"
}

// RepeatStatement: REPEAT body UNTIL cond
type RepeatStatement struct {
	Token     lexer.Token // the REPEAT token
	Body      *BlockStatement
	Condition Expression
}

func (rs *RepeatStatement) statementNode()       {}
func (rs *RepeatStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *RepeatStatement) String() string {
	return "repeat begin\n" + rs.Body.String() + "endrep until " + rs.Condition.String()
}

// CaseClause is one branch of a CASE or SWITCH statement
type CaseClause struct {
	Token lexer.Token
	Value Expression // nil marks the ELSE clause
	Body  *BlockStatement
}

func (cc *CaseClause) String() string {
	var out strings.Builder
	if cc.Value != nil {
		out.WriteString(cc.Value.String())
	} else {
		out.WriteString("else")
	}
	out.WriteString(": begin\n")
	out.WriteString(cc.Body.String())
	out.WriteString("end")
	return out.String()
}

// CaseStatement runs the body of the first matching clause only
type CaseStatement struct {
	Token   lexer.Token // the CASE token
	Subject Expression
	Clauses []*CaseClause
}

func (cs *CaseStatement) statementNode()       {}
func (cs *CaseStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *CaseStatement) String() string {
	var out strings.Builder
	out.WriteString("case ")
	out.WriteString(cs.Subject.String())
	out.WriteString(" of\n")
	for _, c := range cs.Clauses {
		out.WriteString(c.String())
		out.WriteString("\n")
	}
	out.WriteString("endcase")
	return out.String()
}

// SwitchStatement runs from the first matching clause to the end or
// until a BREAK, C-style
type SwitchStatement struct {
	Token   lexer.Token // the SWITCH token
	Subject Expression
	Clauses []*CaseClause
}

func (ss *SwitchStatement) statementNode()       {}
func (ss *SwitchStatement) TokenLiteral() string { return ss.Token.Literal }
func (ss *SwitchStatement) String() string {
	var out strings.Builder
	out.WriteString("switch ")
	out.WriteString(ss.Subject.String())
	out.WriteString(" of\n")
	for _, c := range ss.Clauses {
		out.WriteString(c.String())
		out.WriteString("\n")
	}
	out.WriteString("endswitch")
	return out.String()
}

// BreakStatement exits the innermost loop, CASE or SWITCH
type BreakStatement struct {
	Token lexer.Token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) String() string       { return "break" }

// ContinueStatement jumps to the next iteration of the innermost loop
type ContinueStatement struct {
	Token lexer.Token
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) String() string       { return "continue" }

// GotoStatement: GOTO, label
type GotoStatement struct {
	Token lexer.Token
	Label string
}

func (gs *GotoStatement) statementNode()       {}
func (gs *GotoStatement) TokenLiteral() string { return gs.Token.Literal }
func (gs *GotoStatement) String() string       { return "goto, " + gs.Label }

// LabelStatement: name followed by a colon at statement start
type LabelStatement struct {
	Token lexer.Token
	Name  string
}

func (ls *LabelStatement) statementNode()       {}
func (ls *LabelStatement) TokenLiteral() string { return ls.Token.Literal }
func (ls *LabelStatement) String() string       { return ls.Name + ":" }

// ReturnStatement: RETURN [, value]. Value is nil inside procedures.
type ReturnStatement struct {
	Token lexer.Token
	Value Expression
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	if rs.Value != nil {
		return "return, " + rs.Value.String()
	}
	return "return"
}

// Param is a formal parameter of a procedure or function. Keyword
// parameters are declared as NAME=local and matched by name at the call.
type Param struct {
	Name    string
	Keyword string // empty for positional parameters
}

func (p *Param) String() string {
	if p.Keyword != "" {
		return p.Keyword + "=" + p.Name
	}
	return p.Name
}

// ProcedureDecl: PRO name, p1, p2, KW=kw ... ENDPRO
type ProcedureDecl struct {
	Token  lexer.Token // the PRO token
	Name   string
	Params []*Param
	Body   *BlockStatement
}

func (pd *ProcedureDecl) statementNode()       {}
func (pd *ProcedureDecl) TokenLiteral() string { return pd.Token.Literal }
func (pd *ProcedureDecl) String() string {
	var out strings.Builder
	out.WriteString("pro ")
	out.WriteString(pd.Name)
	for _, p := range pd.Params {
		out.WriteString(", ")
		out.WriteString(p.String())
	}
	out.WriteString("\n")
	out.WriteString(pd.Body.String())
	out.WriteString("endpro")
	return out.String()
}

// FunctionDecl: FUNCTION name, p1, ... ENDFUNCTION. Must RETURN a value.
type FunctionDecl struct {
	Token  lexer.Token // the FUNCTION token
	Name   string
	Params []*Param
	Body   *BlockStatement
}

func (fd *FunctionDecl) statementNode()       {}
func (fd *FunctionDecl) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDecl) String() string {
	var out strings.Builder
	out.WriteString("function ")
	out.WriteString(fd.Name)
	for _, p := range fd.Params {
		out.WriteString(", ")
		out.WriteString(p.String())
	}
	out.WriteString("\n")
	out.WriteString(fd.Body.String())
	out.WriteString("endfunction")
	return out.String()
}

// KeywordArg is a NAME=value or /FLAG argument at a call site
type KeywordArg struct {
	Name  string
	Value Expression // nil for /FLAG, which means 1
}

func (ka *KeywordArg) String() string {
	if ka.Value == nil {
		return "/" + ka.Name
	}
	return ka.Name + "=" + ka.Value.String()
}

// ProcedureCall: name, arg1, arg2, KW=v, /FLAG
type ProcedureCall struct {
	Token    lexer.Token // the name token
	Name     string
	Args     []Expression
	Keywords []*KeywordArg
}

func (pc *ProcedureCall) statementNode()       {}
func (pc *ProcedureCall) TokenLiteral() string { return pc.Token.Literal }
func (pc *ProcedureCall) String() string {
	var out strings.Builder
	out.WriteString(pc.Name)
	for _, a := range pc.Args {
		out.WriteString(", ")
		out.WriteString(a.String())
	}
	for _, k := range pc.Keywords {
		out.WriteString(", ")
		out.WriteString(k.String())
	}
	return out.String()
}

// CommonStatement declares a named common block: COMMON block, a, b, c
type CommonStatement struct {
	Token lexer.Token
	Block string
	Names []string
}

func (cs *CommonStatement) statementNode()       {}
func (cs *CommonStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *CommonStatement) String() string {
	return "common " + cs.Block + ", " + strings.Join(cs.Names, ", ")
}

// CompileOptStatement: COMPILE_OPT idl2, ... (accepted and ignored)
type CompileOptStatement struct {
	Token lexer.Token
	Opts  []string
}

func (cs *CompileOptStatement) statementNode()       {}
func (cs *CompileOptStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *CompileOptStatement) String() string {
	return "compile_opt " + strings.Join(cs.Opts, ", ")
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Identifier is a variable reference
type Identifier struct {
	Token lexer.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// IntKind distinguishes the typed integer literal suffixes
type IntKind int

const (
	IntDefault IntKind = iota // no suffix, 16-bit
	IntByte                   // B suffix
	IntShort                  // S suffix
	IntLong                   // L suffix
)

// IntegerLiteral: 42, 7B, 12S, 100L
type IntegerLiteral struct {
	Token lexer.Token
	Value int64
	Kind  IntKind
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

// FloatLiteral: 3.14, 1.5e3 (single precision)
type FloatLiteral struct {
	Token lexer.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

// DoubleLiteral: 1.5d0, 99d-1, 2.0D (double precision)
type DoubleLiteral struct {
	Token lexer.Token
	Value float64
}

func (dl *DoubleLiteral) expressionNode()      {}
func (dl *DoubleLiteral) TokenLiteral() string { return dl.Token.Literal }
func (dl *DoubleLiteral) String() string       { return dl.Token.Literal }

// StringLiteral: "text" or 'text'
type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return "\"" + sl.Value + "\"" }

// SystemVariable: !PI, !DTOR, !VALUES ...
type SystemVariable struct {
	Token lexer.Token
	Name  string
}

func (sv *SystemVariable) expressionNode()      {}
func (sv *SystemVariable) TokenLiteral() string { return sv.Token.Literal }
func (sv *SystemVariable) String() string       { return "!" + sv.Name }

// ArrayLiteral: [1, 2, 3] or a matrix [[1,2],[3,4]] / [1,2; 3,4].
// Rows always holds at least one row; a plain vector is one row.
type ArrayLiteral struct {
	Token lexer.Token // the [ token
	Rows  [][]Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) String() string {
	var rows []string
	for _, row := range al.Rows {
		var elems []string
		for _, e := range row {
			elems = append(elems, e.String())
		}
		rows = append(rows, strings.Join(elems, ", "))
	}
	return "[" + strings.Join(rows, "; ") + "]"
}

// StructLiteral: {a: 1, b: "x"}; field order is preserved
type StructLiteral struct {
	Token  lexer.Token // the { token
	Names  []string
	Values []Expression
}

func (sl *StructLiteral) expressionNode()      {}
func (sl *StructLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StructLiteral) String() string {
	var fields []string
	for i, n := range sl.Names {
		fields = append(fields, n+": "+sl.Values[i].String())
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

// PrefixExpression: -x, NOT x, +x
type PrefixExpression struct {
	Token    lexer.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	// Word operators need a separator: "NOT a", not "NOTa"
	op := pe.Operator
	if len(op) > 0 && op[0] >= 'A' && op[0] <= 'Z' {
		op += " "
	}
	return "(" + op + pe.Right.String() + ")"
}

// InfixExpression: a + b, x EQ y, m # n ...
type InfixExpression struct {
	Token    lexer.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// TernaryExpression: cond ? a : b
type TernaryExpression struct {
	Token       lexer.Token // the ? token
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (te *TernaryExpression) expressionNode()      {}
func (te *TernaryExpression) TokenLiteral() string { return te.Token.Literal }
func (te *TernaryExpression) String() string {
	return "(" + te.Condition.String() + " ? " + te.Consequence.String() + " : " + te.Alternative.String() + ")"
}

// IndexExpression: a[i], m[i, j], v[1:3], v[*]
type IndexExpression struct {
	Token   lexer.Token // the [ token
	Left    Expression
	Indices []Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) String() string {
	var idx []string
	for _, i := range ie.Indices {
		idx = append(idx, i.String())
	}
	return ie.Left.String() + "[" + strings.Join(idx, ", ") + "]"
}

// RangeExpression: start:stop[:step]. Standalone it materializes an
// array; inside a subscript it selects a slice.
type RangeExpression struct {
	Token lexer.Token // the : token
	Start Expression
	Stop  Expression
	Step  Expression // may be nil
}

func (re *RangeExpression) expressionNode()      {}
func (re *RangeExpression) TokenLiteral() string { return re.Token.Literal }
func (re *RangeExpression) String() string {
	s := re.Start.String() + ":" + re.Stop.String()
	if re.Step != nil {
		s += ":" + re.Step.String()
	}
	return s
}

// AllExpression is the '*' subscript selecting a whole dimension
type AllExpression struct {
	Token lexer.Token
}

func (ae *AllExpression) expressionNode()      {}
func (ae *AllExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AllExpression) String() string       { return "*" }

// CallExpression: f(x, y, KW=v) in expression position
type CallExpression struct {
	Token    lexer.Token // the name token
	Name     string
	Args     []Expression
	Keywords []*KeywordArg
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	var parts []string
	for _, a := range ce.Args {
		parts = append(parts, a.String())
	}
	for _, k := range ce.Keywords {
		parts = append(parts, k.String())
	}
	return ce.Name + "(" + strings.Join(parts, ", ") + ")"
}

// DotExpression: struct field access s.field, or !SYS.field
type DotExpression struct {
	Token lexer.Token // the . token
	Left  Expression
	Field string
}

func (de *DotExpression) expressionNode()      {}
func (de *DotExpression) TokenLiteral() string { return de.Token.Literal }
func (de *DotExpression) String() string {
	return de.Left.String() + "." + de.Field
}
