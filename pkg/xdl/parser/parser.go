package parser

import (
	"strconv"
	"strings"

	"github.com/xdl-lang/xdl/pkg/xdl/ast"
	xdlerrors "github.com/xdl-lang/xdl/pkg/xdl/errors"
	"github.com/xdl-lang/xdl/pkg/xdl/lexer"
)

// Operator precedence levels
const (
	_ int = iota
	LOWEST
	RANGE       // start:stop
	TERNARY     // ?:
	LOGICAL     // AND OR XOR
	EQUALS      // EQ NE
	LESSGREATER // LT GT LE GE
	SUM         // + -
	PRODUCT     // * / MOD #
	POWER       // ^
	PREFIX      // -x NOT x
	INDEX       // a[i] f(x) s.field
)

var precedences = map[lexer.TokenType]int{
	lexer.COLON:    RANGE,
	lexer.QUESTION: TERNARY,
	lexer.AND:      LOGICAL,
	lexer.OR:       LOGICAL,
	lexer.XOR:      LOGICAL,
	lexer.EQ:       EQUALS,
	lexer.NE:       EQUALS,
	lexer.LT:       LESSGREATER,
	lexer.GT:       LESSGREATER,
	lexer.LE:       LESSGREATER,
	lexer.GE:       LESSGREATER,
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.ASTERISK: PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.MOD:      PRODUCT,
	lexer.HASH:     PRODUCT,
	lexer.CARET:    POWER,
	lexer.LBRACKET: INDEX,
	lexer.LPAREN:   INDEX,
	lexer.DOT:      INDEX,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// blockKind identifies what opened a nested block, for closer checking
type blockKind string

const (
	blockIf       blockKind = "IF"
	blockFor      blockKind = "FOR"
	blockForeach  blockKind = "FOREACH"
	blockWhile    blockKind = "WHILE"
	blockRepeat   blockKind = "REPEAT"
	blockCase     blockKind = "CASE"
	blockSwitch   blockKind = "SWITCH"
	blockPro      blockKind = "PRO"
	blockFunction blockKind = "FUNCTION"
	blockBegin    blockKind = "BEGIN"
)

// closers maps each block kind to its dedicated closing keyword.
// A bare END closes any block kind.
var closers = map[blockKind]lexer.TokenType{
	blockIf:       lexer.ENDIF,
	blockFor:      lexer.ENDFOR,
	blockForeach:  lexer.ENDFOREACH,
	blockWhile:    lexer.ENDWHILE,
	blockRepeat:   lexer.ENDREP,
	blockCase:     lexer.ENDCASE,
	blockSwitch:   lexer.ENDSWITCH,
	blockPro:      lexer.ENDPRO,
	blockFunction: lexer.ENDFUNCTION,
	blockBegin:    lexer.END,
}

var closerNames = map[blockKind]string{
	blockIf:       "ENDIF",
	blockFor:      "ENDFOR",
	blockForeach:  "ENDFOREACH",
	blockWhile:    "ENDWHILE",
	blockRepeat:   "ENDREP",
	blockCase:     "ENDCASE",
	blockSwitch:   "ENDSWITCH",
	blockPro:      "ENDPRO",
	blockFunction: "ENDFUNCTION",
	blockBegin:    "END",
}

// closerTokens is the set of all closing keywords, used to spot a
// closer that belongs to some other (or no) open block.
var closerTokens = map[lexer.TokenType]bool{
	lexer.END:         true,
	lexer.ENDIF:       true,
	lexer.ENDFOR:      true,
	lexer.ENDFOREACH:  true,
	lexer.ENDWHILE:    true,
	lexer.ENDREP:      true,
	lexer.ENDCASE:     true,
	lexer.ENDSWITCH:   true,
	lexer.ENDPRO:      true,
	lexer.ENDFUNCTION: true,
}

type openBlock struct {
	kind blockKind
	tok  lexer.Token // the opening keyword token
}

// Parser is a recursive-descent / Pratt parser over the token stream
type Parser struct {
	l      *lexer.Lexer
	errors []*xdlerrors.XdlError

	curToken  lexer.Token
	peekToken lexer.Token
	lookahead []lexer.Token // buffered tokens beyond peekToken

	blockStack []openBlock
	arrayDepth int // nesting depth of array literals, for row adjacency

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

// New creates a parser for the given lexer
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []*xdlerrors.XdlError{},
	}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.DOUBLE, p.parseDoubleLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.SYSVAR, p.parseSystemVariable)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.PLUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.NOT, p.parsePrefixExpression)
	p.registerPrefix(lexer.ASTERISK, p.parsePrefixExpression) // pointer deref
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.LBRACE, p.parseStructLiteral)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	p.registerInfix(lexer.PLUS, p.parseInfixExpression)
	p.registerInfix(lexer.MINUS, p.parseInfixExpression)
	p.registerInfix(lexer.ASTERISK, p.parseInfixExpression)
	p.registerInfix(lexer.SLASH, p.parseInfixExpression)
	p.registerInfix(lexer.MOD, p.parseInfixExpression)
	p.registerInfix(lexer.HASH, p.parseInfixExpression)
	p.registerInfix(lexer.CARET, p.parsePowerExpression)
	p.registerInfix(lexer.EQ, p.parseInfixExpression)
	p.registerInfix(lexer.NE, p.parseInfixExpression)
	p.registerInfix(lexer.LT, p.parseInfixExpression)
	p.registerInfix(lexer.GT, p.parseInfixExpression)
	p.registerInfix(lexer.LE, p.parseInfixExpression)
	p.registerInfix(lexer.GE, p.parseInfixExpression)
	p.registerInfix(lexer.AND, p.parseInfixExpression)
	p.registerInfix(lexer.OR, p.parseInfixExpression)
	p.registerInfix(lexer.XOR, p.parseInfixExpression)
	p.registerInfix(lexer.COLON, p.parseRangeExpression)
	p.registerInfix(lexer.QUESTION, p.parseTernaryExpression)
	p.registerInfix(lexer.LBRACKET, p.parseIndexExpression)
	p.registerInfix(lexer.LPAREN, p.parseCallExpression)
	p.registerInfix(lexer.DOT, p.parseDotExpression)

	// Read two tokens so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// Errors returns the list of parse errors
func (p *Parser) Errors() []*xdlerrors.XdlError {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if len(p.lookahead) > 0 {
		p.peekToken = p.lookahead[0]
		p.lookahead = p.lookahead[1:]
	} else {
		p.peekToken = p.l.NextToken()
	}
}

// peekAhead returns the nth token past peekToken (n=1 is the token
// right after peekToken), buffering as needed
func (p *Parser) peekAhead(n int) lexer.Token {
	for len(p.lookahead) < n {
		p.lookahead = append(p.lookahead, p.l.NextToken())
	}
	return p.lookahead[n-1]
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t lexer.TokenType) {
	err := xdlerrors.NewWithPosition("PARSE-0001", p.peekToken.Line, p.peekToken.Column, map[string]any{
		"Expected": t.String(),
		"Got":      p.peekToken.Literal,
	}).WithFile(p.l.Filename())
	p.errors = append(p.errors, err)
}

func (p *Parser) addError(err *xdlerrors.XdlError) {
	p.errors = append(p.errors, err.WithFile(p.l.Filename()))
}

// checkIllegal converts an ILLEGAL token into the lexer diagnostic it
// carries. Reports true when the current token was illegal.
func (p *Parser) checkIllegal() bool {
	if !p.curTokenIs(lexer.ILLEGAL) {
		return false
	}
	data := map[string]any{
		"Literal": p.curToken.Literal,
		"Char":    p.curToken.Literal,
	}
	code := p.curToken.Code
	if code == "" {
		code = "LEX-0003"
	}
	p.addError(xdlerrors.NewWithPosition(code, p.curToken.Line, p.curToken.Column, data))
	return true
}

// skipNewlines advances past consecutive statement separators
func (p *Parser) skipNewlines() {
	for p.curTokenIs(lexer.NEWLINE) {
		p.nextToken()
	}
}

// endOfStatement reports whether the peek token terminates a statement
func (p *Parser) endOfStatement() bool {
	return p.peekTokenIs(lexer.NEWLINE) || p.peekTokenIs(lexer.EOF)
}

// finishStatement checks the statement is properly terminated and
// leaves curToken on the separator (or EOF)
func (p *Parser) finishStatement() {
	if p.endOfStatement() {
		p.nextToken()
		return
	}
	// Inside a block a closer keyword may directly follow a statement
	if closerTokens[p.peekToken.Type] && len(p.blockStack) > 0 {
		p.nextToken()
		return
	}
	if p.peekTokenIs(lexer.ELSE) && len(p.blockStack) > 0 {
		p.nextToken()
		return
	}
	// An illegal token after a statement surfaces its lexer diagnostic
	if p.peekTokenIs(lexer.ILLEGAL) {
		p.nextToken()
		p.checkIllegal()
		p.nextToken()
		return
	}
	p.peekError(lexer.NEWLINE)
	p.nextToken()
}

// ---------------------------------------------------------------------------
// Program and statements
// ---------------------------------------------------------------------------

// ParseProgram parses the whole input into a Program
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for !p.curTokenIs(lexer.EOF) {
		p.skipNewlines()
		if p.curTokenIs(lexer.EOF) {
			break
		}
		if p.checkIllegal() {
			p.nextToken()
			continue
		}
		if closerTokens[p.curToken.Type] {
			p.addError(xdlerrors.NewWithPosition("PARSE-0001", p.curToken.Line, p.curToken.Column, map[string]any{
				"Expected": "a statement",
				"Got":      p.curToken.Literal,
			}))
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.finishStatement()
	}

	return program
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.FOR:
		return p.parseForStatement()
	case lexer.FOREACH:
		return p.parseForeachStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.REPEAT:
		return p.parseRepeatStatement()
	case lexer.CASE:
		return p.parseCaseStatement()
	case lexer.SWITCH:
		return p.parseSwitchStatement()
	case lexer.BREAK:
		return &ast.BreakStatement{Token: p.curToken}
	case lexer.CONTINUE:
		return &ast.ContinueStatement{Token: p.curToken}
	case lexer.GOTO:
		return p.parseGotoStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.PRO:
		return p.parseProcedureDecl()
	case lexer.FUNCTION:
		return p.parseFunctionDecl()
	case lexer.COMMON:
		return p.parseCommonStatement()
	case lexer.COMPILE_OPT:
		return p.parseCompileOptStatement()
	case lexer.BEGIN:
		return p.parseBeginBlock()
	case lexer.IDENT:
		if p.peekTokenIs(lexer.COLON) {
			return p.parseLabelStatement()
		}
		return p.parseSimpleStatement()
	default:
		return p.parseSimpleStatement()
	}
}

// parseSimpleStatement handles assignments, procedure calls and bare
// expressions, which all start with an expression
func (p *Parser) parseSimpleStatement() ast.Statement {
	startToken := p.curToken
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}

	switch p.peekToken.Type {
	case lexer.ASSIGN, lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.ASTERISK_ASSIGN, lexer.SLASH_ASSIGN:
		if !validAssignTarget(expr) {
			p.addError(xdlerrors.NewSimple(xdlerrors.ClassParse,
				"cannot assign to "+expr.String()).WithPosition(startToken.Line, startToken.Column))
		}
		p.nextToken() // the operator
		op := p.curToken
		p.nextToken()
		value := p.parseExpression(LOWEST)
		return &ast.AssignStatement{Token: op, Target: expr, Operator: op.Literal, Value: value}

	case lexer.COMMA:
		ident, ok := expr.(*ast.Identifier)
		if !ok {
			p.peekError(lexer.NEWLINE)
			return nil
		}
		call := &ast.ProcedureCall{Token: ident.Token, Name: ident.Value}
		p.parseCommaArgs(call)
		return call
	}

	return &ast.ExpressionStatement{Token: startToken, Expression: expr}
}

func validAssignTarget(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.Identifier, *ast.IndexExpression, *ast.DotExpression, *ast.SystemVariable:
		return true
	case *ast.PrefixExpression:
		// *ptr = value stores through a pointer
		return expr.(*ast.PrefixExpression).Operator == "*"
	}
	return false
}

// parseCommaArgs parses ", arg, KW=v, /FLAG ..." for a procedure call.
// curToken is on the procedure name; each iteration consumes one comma.
func (p *Parser) parseCommaArgs(call *ast.ProcedureCall) {
	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken() // the comma
		p.nextToken() // first token of the argument
		arg, kw := p.parseCallArgument()
		if kw != nil {
			call.Keywords = append(call.Keywords, kw)
		} else if arg != nil {
			call.Args = append(call.Args, arg)
		}
	}
}

// parseCallArgument parses one call argument: a /FLAG, a NAME=value
// keyword or a positional expression. curToken is its first token.
func (p *Parser) parseCallArgument() (ast.Expression, *ast.KeywordArg) {
	if p.curTokenIs(lexer.SLASH) && p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		return nil, &ast.KeywordArg{Name: p.curToken.Literal}
	}
	if p.curTokenIs(lexer.IDENT) && p.peekTokenIs(lexer.ASSIGN) {
		name := p.curToken.Literal
		p.nextToken() // the =
		p.nextToken()
		value := p.parseExpression(LOWEST)
		return nil, &ast.KeywordArg{Name: name, Value: value}
	}
	return p.parseExpression(LOWEST), nil
}

func (p *Parser) parseLabelStatement() ast.Statement {
	stmt := &ast.LabelStatement{Token: p.curToken, Name: p.curToken.Literal}
	p.nextToken() // the colon
	return stmt
}

func (p *Parser) parseGotoStatement() ast.Statement {
	stmt := &ast.GotoStatement{Token: p.curToken}
	if !p.expectPeek(lexer.COMMA) {
		return nil
	}
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Label = p.curToken.Literal
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	if p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		stmt.Value = p.parseExpression(LOWEST)
	}
	return stmt
}

func (p *Parser) parseCommonStatement() ast.Statement {
	stmt := &ast.CommonStatement{Token: p.curToken}
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Block = p.curToken.Literal
	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		stmt.Names = append(stmt.Names, p.curToken.Literal)
	}
	return stmt
}

func (p *Parser) parseCompileOptStatement() ast.Statement {
	stmt := &ast.CompileOptStatement{Token: p.curToken}
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Opts = append(stmt.Opts, p.curToken.Literal)
	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		stmt.Opts = append(stmt.Opts, p.curToken.Literal)
	}
	return stmt
}

// ---------------------------------------------------------------------------
// Blocks and control flow
// ---------------------------------------------------------------------------

func (p *Parser) pushBlock(kind blockKind, tok lexer.Token) {
	p.blockStack = append(p.blockStack, openBlock{kind: kind, tok: tok})
}

func (p *Parser) popBlock() {
	if len(p.blockStack) > 0 {
		p.blockStack = p.blockStack[:len(p.blockStack)-1]
	}
}

func (p *Parser) topBlock() openBlock {
	return p.blockStack[len(p.blockStack)-1]
}

// closesTop reports whether the token type closes the innermost block.
// Bare END closes anything.
func (p *Parser) closesTop(t lexer.TokenType) bool {
	if len(p.blockStack) == 0 {
		return false
	}
	if t == lexer.END {
		return true
	}
	return t == closers[p.topBlock().kind]
}

func (p *Parser) unclosedBlockError() {
	top := p.topBlock()
	p.addError(xdlerrors.NewWithPosition("PARSE-0002", top.tok.Line, top.tok.Column, map[string]any{
		"Kind":     string(top.kind),
		"OpenLine": top.tok.Line,
		"Closer":   closerNames[top.kind],
	}))
}

func (p *Parser) closerMismatchError() {
	top := p.topBlock()
	p.addError(xdlerrors.NewWithPosition("PARSE-0003", p.curToken.Line, p.curToken.Column, map[string]any{
		"Got":      strings.ToUpper(p.curToken.Literal),
		"Kind":     string(top.kind),
		"OpenLine": top.tok.Line,
		"Closer":   closerNames[top.kind],
	}))
}

// parseBlockBody parses statements until a closer for the innermost
// block (already pushed by the caller) or one of the extra stop tokens
// (ELSE, UNTIL, a CASE clause boundary). It leaves curToken on the
// stopping token and does not pop the block.
func (p *Parser) parseBlockBody(stops ...lexer.TokenType) *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken, Statements: []ast.Statement{}}

	for {
		p.skipNewlines()
		if p.curTokenIs(lexer.EOF) {
			p.unclosedBlockError()
			return block
		}
		if p.checkIllegal() {
			p.nextToken()
			continue
		}
		for _, s := range stops {
			if p.curTokenIs(s) {
				return block
			}
		}
		if closerTokens[p.curToken.Type] {
			if p.closesTop(p.curToken.Type) {
				return block
			}
			p.closerMismatchError()
			return block
		}
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.finishStatement()
	}
}

// singleStatementBody wraps one statement as a block for loop bodies
// of the form DO stmt
func (p *Parser) singleStatementBody() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken, Statements: []ast.Statement{}}
	stmt := p.parseStatement()
	if stmt != nil {
		block.Statements = append(block.Statements, stmt)
	}
	return block
}

// parseBeginBlock parses a bare BEGIN ... END group in statement position
func (p *Parser) parseBeginBlock() ast.Statement {
	p.pushBlock(blockBegin, p.curToken)
	p.nextToken()
	block := p.parseBlockBody()
	p.popBlock()
	return block
}

// parseIfStatement: IF cond THEN [BEGIN] stmts [ELSE [BEGIN] stmts] ENDIF.
// The closer is required even for a one-statement consequence.
func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}
	p.pushBlock(blockIf, p.curToken)
	defer p.popBlock()

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	if !p.expectPeek(lexer.THEN) {
		return nil
	}
	if p.peekTokenIs(lexer.BEGIN) {
		p.nextToken()
	}
	p.nextToken()
	stmt.Consequence = p.parseBlockBody(lexer.ELSE)

	// THEN BEGIN ... END ELSE: the END closes the group, ELSE follows
	if (p.curTokenIs(lexer.END) || p.curTokenIs(lexer.ENDIF)) && p.peekTokenIs(lexer.ELSE) {
		p.nextToken()
	}
	if p.curTokenIs(lexer.ELSE) {
		if p.peekTokenIs(lexer.BEGIN) {
			p.nextToken()
		}
		p.nextToken()
		stmt.Alternative = p.parseBlockBody()
	}
	return stmt
}

// parseForStatement: FOR i = start, stop[, step] DO body.
// DO BEGIN opens a block closed by ENDFOR or END; DO stmt is a
// one-statement body with no closer.
func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}
	forToken := p.curToken

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Variable = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Start = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.COMMA) {
		return nil
	}
	p.nextToken()
	stmt.Stop = p.parseExpression(LOWEST)
	if p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		stmt.Step = p.parseExpression(LOWEST)
	}
	if !p.expectPeek(lexer.DO) {
		return nil
	}

	stmt.Body = p.parseLoopBody(blockFor, forToken)
	return stmt
}

// parseLoopBody handles the two body forms after DO
func (p *Parser) parseLoopBody(kind blockKind, openTok lexer.Token) *ast.BlockStatement {
	if p.peekTokenIs(lexer.BEGIN) {
		p.pushBlock(kind, openTok)
		defer p.popBlock()
		p.nextToken() // BEGIN
		p.nextToken()
		return p.parseBlockBody()
	}
	p.nextToken()
	return p.singleStatementBody()
}

func (p *Parser) parseForeachStatement() ast.Statement {
	stmt := &ast.ForeachStatement{Token: p.curToken}
	foreachToken := p.curToken

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Element = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(lexer.COMMA) {
		return nil
	}
	p.nextToken()
	stmt.Collection = p.parseExpression(LOWEST)
	if p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		stmt.Index = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	}
	if !p.expectPeek(lexer.DO) {
		return nil
	}

	stmt.Body = p.parseLoopBody(blockForeach, foreachToken)
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	whileToken := p.curToken

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	if !p.expectPeek(lexer.DO) {
		return nil
	}

	stmt.Body = p.parseLoopBody(blockWhile, whileToken)
	return stmt
}

// parseRepeatStatement: REPEAT stmt UNTIL cond, or
// REPEAT BEGIN stmts ENDREP UNTIL cond
func (p *Parser) parseRepeatStatement() ast.Statement {
	stmt := &ast.RepeatStatement{Token: p.curToken}
	repeatToken := p.curToken

	if p.peekTokenIs(lexer.BEGIN) {
		p.pushBlock(blockRepeat, repeatToken)
		p.nextToken() // BEGIN
		p.nextToken()
		stmt.Body = p.parseBlockBody()
		p.popBlock()
		if p.curTokenIs(lexer.EOF) {
			return stmt
		}
		// curToken is on ENDREP or END
	} else {
		p.nextToken()
		stmt.Body = p.singleStatementBody()
	}

	if !p.expectPeek(lexer.UNTIL) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	return stmt
}

func (p *Parser) parseCaseStatement() ast.Statement {
	stmt := &ast.CaseStatement{Token: p.curToken}
	p.pushBlock(blockCase, p.curToken)
	defer p.popBlock()

	p.nextToken()
	stmt.Subject = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.OF) {
		return nil
	}
	p.nextToken()
	stmt.Clauses = p.parseCaseClauses()
	return stmt
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	stmt := &ast.SwitchStatement{Token: p.curToken}
	p.pushBlock(blockSwitch, p.curToken)
	defer p.popBlock()

	p.nextToken()
	stmt.Subject = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.OF) {
		return nil
	}
	p.nextToken()
	stmt.Clauses = p.parseCaseClauses()
	return stmt
}

// parseCaseClauses parses "value: body" clauses until the closer of
// the enclosing CASE or SWITCH block. The ELSE clause has a nil Value.
func (p *Parser) parseCaseClauses() []*ast.CaseClause {
	var clauses []*ast.CaseClause

	for {
		p.skipNewlines()
		if p.curTokenIs(lexer.EOF) {
			p.unclosedBlockError()
			return clauses
		}
		if closerTokens[p.curToken.Type] {
			if !p.closesTop(p.curToken.Type) {
				p.closerMismatchError()
			}
			return clauses
		}

		clause := &ast.CaseClause{Token: p.curToken}
		if p.curTokenIs(lexer.ELSE) {
			if !p.expectPeek(lexer.COLON) {
				return clauses
			}
		} else {
			// RANGE keeps the clause's own colon out of the value
			clause.Value = p.parseExpression(RANGE)
			if clause.Value == nil {
				return clauses
			}
			if !p.expectPeek(lexer.COLON) {
				return clauses
			}
		}

		// Body: BEGIN block END, or a single statement on the same line
		if p.peekTokenIs(lexer.BEGIN) {
			p.nextToken()
			p.pushBlock(blockBegin, p.curToken)
			p.nextToken()
			clause.Body = p.parseBlockBody()
			p.popBlock()
			p.nextToken() // past END
		} else if p.peekTokenIs(lexer.NEWLINE) {
			clause.Body = &ast.BlockStatement{Token: p.curToken, Statements: []ast.Statement{}}
		} else {
			p.nextToken()
			clause.Body = p.singleStatementBody()
			p.nextToken()
		}
		clauses = append(clauses, clause)
	}
}

func (p *Parser) parseProcedureDecl() ast.Statement {
	stmt := &ast.ProcedureDecl{Token: p.curToken}
	p.pushBlock(blockPro, p.curToken)
	defer p.popBlock()

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal
	stmt.Params = p.parseParamList()
	p.nextToken()
	stmt.Body = p.parseBlockBody()
	return stmt
}

func (p *Parser) parseFunctionDecl() ast.Statement {
	stmt := &ast.FunctionDecl{Token: p.curToken}
	p.pushBlock(blockFunction, p.curToken)
	defer p.popBlock()

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal
	stmt.Params = p.parseParamList()
	p.nextToken()
	stmt.Body = p.parseBlockBody()
	return stmt
}

// parseParamList parses ", a, b, KW=local" after a PRO/FUNCTION name.
// curToken is on the name; on return it is on the last parameter (or
// still on the name when there are none).
func (p *Parser) parseParamList() []*ast.Param {
	var params []*ast.Param
	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENT) {
			return params
		}
		name := p.curToken.Literal
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			if !p.expectPeek(lexer.IDENT) {
				return params
			}
			params = append(params, &ast.Param{Name: p.curToken.Literal, Keyword: name})
		} else {
			params = append(params, &ast.Param{Name: name})
		}
	}
	return params
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *Parser) parseExpression(precedence int) ast.Expression {
	if p.checkIllegal() {
		return nil
	}
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()

	for !p.peekTokenIs(lexer.NEWLINE) && precedence < p.peekPrecedence() {
		if p.arrayDepth > 0 && p.rowAdjacencyBreak() {
			return leftExp
		}
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}

	return leftExp
}

// rowAdjacencyBreak detects "[1 -2]" style layouts inside array
// literals: a signed literal attached to the sign but detached from
// the previous element starts a new row rather than a subtraction.
func (p *Parser) rowAdjacencyBreak() bool {
	if !p.peekTokenIs(lexer.MINUS) && !p.peekTokenIs(lexer.PLUS) {
		return false
	}
	if !p.peekToken.SpaceBefore {
		return false
	}
	next := p.peekAhead(1)
	return !next.SpaceBefore && startsExpression(next.Type)
}

func startsExpression(t lexer.TokenType) bool {
	switch t {
	case lexer.INT, lexer.FLOAT, lexer.DOUBLE, lexer.STRING, lexer.IDENT,
		lexer.SYSVAR, lexer.LBRACKET, lexer.LPAREN, lexer.LBRACE:
		return true
	}
	return false
}

func (p *Parser) noPrefixParseFnError(tok lexer.Token) {
	p.addError(xdlerrors.NewWithPosition("PARSE-0005", tok.Line, tok.Column, map[string]any{
		"Token": tok.Literal,
	}))
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

// parseIntegerLiteral handles the typed suffixes: 7B byte, 12S int,
// 100L and 100LL long, plain literals default to 16-bit int (or long
// when they overflow it)
func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.IntegerLiteral{Token: p.curToken}
	text := p.curToken.Literal
	kind := ast.IntDefault

	upper := strings.ToUpper(text)
	switch {
	case strings.HasSuffix(upper, "LL"):
		kind = ast.IntLong
		text = text[:len(text)-2]
	case strings.HasSuffix(upper, "L"):
		kind = ast.IntLong
		text = text[:len(text)-1]
	case strings.HasSuffix(upper, "B"):
		kind = ast.IntByte
		text = text[:len(text)-1]
	case strings.HasSuffix(upper, "S"):
		kind = ast.IntShort
		text = text[:len(text)-1]
	}

	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		p.addError(xdlerrors.NewWithPosition("PARSE-0004", p.curToken.Line, p.curToken.Column, map[string]any{
			"Literal": p.curToken.Literal,
		}))
		return nil
	}

	lit.Value = value
	lit.Kind = kind
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curToken}
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError(xdlerrors.NewWithPosition("PARSE-0004", p.curToken.Line, p.curToken.Column, map[string]any{
			"Literal": p.curToken.Literal,
		}))
		return nil
	}
	lit.Value = value
	return lit
}

// parseDoubleLiteral converts the d-exponent to an e-exponent before
// parsing: 1.5d0 reads as 1.5e0
func (p *Parser) parseDoubleLiteral() ast.Expression {
	lit := &ast.DoubleLiteral{Token: p.curToken}
	text := strings.Map(func(r rune) rune {
		if r == 'd' || r == 'D' {
			return 'e'
		}
		return r
	}, p.curToken.Literal)
	if strings.HasSuffix(text, "e") {
		text += "0"
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.addError(xdlerrors.NewWithPosition("PARSE-0004", p.curToken.Line, p.curToken.Column, map[string]any{
			"Literal": p.curToken.Literal,
		}))
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseSystemVariable() ast.Expression {
	return &ast.SystemVariable{Token: p.curToken, Name: strings.ToUpper(p.curToken.Literal)}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: strings.ToUpper(p.curToken.Literal),
	}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: strings.ToUpper(p.curToken.Literal),
	}
	precedence := precedences[p.curToken.Type]
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	return expr
}

// parsePowerExpression: ^ is right-associative
func (p *Parser) parsePowerExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}
	p.nextToken()
	expr.Right = p.parseExpression(POWER - 1)
	return expr
}

func (p *Parser) parseTernaryExpression(cond ast.Expression) ast.Expression {
	expr := &ast.TernaryExpression{Token: p.curToken, Condition: cond}
	p.nextToken()
	expr.Consequence = p.parseExpression(TERNARY)
	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	expr.Alternative = p.parseExpression(TERNARY)
	return expr
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return expr
}

// parseArrayLiteral parses [1, 2, 3], nested [[1,2],[3,4]] and
// matrix forms with ';' row separators or implicit adjacent rows
func (p *Parser) parseArrayLiteral() ast.Expression {
	lit := &ast.ArrayLiteral{Token: p.curToken}
	p.arrayDepth++
	defer func() { p.arrayDepth-- }()

	row := []ast.Expression{}
	if p.peekTokenIs(lexer.RBRACKET) {
		p.nextToken()
		lit.Rows = append(lit.Rows, row)
		return lit
	}

	p.nextToken()
	for {
		elem := p.parseExpression(LOWEST)
		if elem == nil {
			return nil
		}
		row = append(row, elem)

		switch {
		case p.peekTokenIs(lexer.COMMA):
			p.nextToken()
			p.nextToken()
		case p.peekTokenIs(lexer.SEMICOLON):
			lit.Rows = append(lit.Rows, row)
			row = []ast.Expression{}
			p.nextToken()
			p.nextToken()
		case p.peekTokenIs(lexer.RBRACKET):
			lit.Rows = append(lit.Rows, row)
			p.nextToken()
			return lit
		case startsExpression(p.peekToken.Type) || p.peekTokenIs(lexer.MINUS) || p.peekTokenIs(lexer.PLUS):
			// Adjacent element with no separator starts a new row
			lit.Rows = append(lit.Rows, row)
			row = []ast.Expression{}
			p.nextToken()
		default:
			p.peekError(lexer.RBRACKET)
			return nil
		}
	}
}

// parseStructLiteral: {name: value, name: value}
func (p *Parser) parseStructLiteral() ast.Expression {
	lit := &ast.StructLiteral{Token: p.curToken}

	if p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		return lit
	}

	for {
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		name := p.curToken.Literal
		if !p.expectPeek(lexer.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		lit.Names = append(lit.Names, name)
		lit.Values = append(lit.Values, value)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		if !p.expectPeek(lexer.RBRACE) {
			return nil
		}
		return lit
	}
}

// parseIndexExpression parses subscripts: scalars, ranges
// start:stop[:step] and '*' whole-dimension selectors
func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	expr := &ast.IndexExpression{Token: p.curToken, Left: left}

	for {
		p.nextToken()
		idx := p.parseSubscript()
		if idx == nil {
			return nil
		}
		expr.Indices = append(expr.Indices, idx)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		if !p.expectPeek(lexer.RBRACKET) {
			return nil
		}
		return expr
	}
}

// parseSubscript parses one subscript position. Ranges arrive through
// the infix colon; only the '*' whole-dimension form is special here.
func (p *Parser) parseSubscript() ast.Expression {
	if p.curTokenIs(lexer.ASTERISK) && (p.peekTokenIs(lexer.COMMA) || p.peekTokenIs(lexer.RBRACKET)) {
		return &ast.AllExpression{Token: p.curToken}
	}
	return p.parseExpression(LOWEST)
}

// parseRangeExpression parses the colon as an infix operator building
// start:stop[:step]. A colon following an open range supplies the
// step; a '*' stop means "to the end" inside a subscript.
func (p *Parser) parseRangeExpression(left ast.Expression) ast.Expression {
	if rng, ok := left.(*ast.RangeExpression); ok && rng.Step == nil {
		p.nextToken()
		rng.Step = p.parseExpression(RANGE)
		if rng.Step == nil {
			return nil
		}
		return rng
	}

	rng := &ast.RangeExpression{Token: p.curToken, Start: left}
	p.nextToken()
	if p.curTokenIs(lexer.ASTERISK) && (p.peekTokenIs(lexer.COMMA) || p.peekTokenIs(lexer.RBRACKET)) {
		rng.Stop = &ast.AllExpression{Token: p.curToken}
		return rng
	}
	rng.Stop = p.parseExpression(RANGE)
	if rng.Stop == nil {
		return nil
	}
	return rng
}

// parseCallExpression parses f(arg, KW=v, /FLAG) in expression position
func (p *Parser) parseCallExpression(left ast.Expression) ast.Expression {
	ident, ok := left.(*ast.Identifier)
	if !ok {
		p.addError(xdlerrors.NewSimple(xdlerrors.ClassParse,
			"cannot call "+left.String()).WithPosition(p.curToken.Line, p.curToken.Column))
		return nil
	}
	expr := &ast.CallExpression{Token: ident.Token, Name: ident.Value}

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return expr
	}

	for {
		p.nextToken()
		arg, kw := p.parseCallArgument()
		if kw != nil {
			expr.Keywords = append(expr.Keywords, kw)
		} else if arg != nil {
			expr.Args = append(expr.Args, arg)
		} else {
			return nil
		}

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		return expr
	}
}

func (p *Parser) parseDotExpression(left ast.Expression) ast.Expression {
	expr := &ast.DotExpression{Token: p.curToken, Left: left}
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	expr.Field = p.curToken.Literal
	return expr
}
