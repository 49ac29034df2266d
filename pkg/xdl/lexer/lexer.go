package lexer

import (
	"fmt"
	"strings"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF
	NEWLINE // statement separator ('\n' or '&')

	// Identifiers and literals
	IDENT  // x, total, my_proc, ...
	INT    // 42, 7B, 12S, 100L
	FLOAT  // 3.14, 1.5e3
	DOUBLE // 1.5d0, 99d-1, 2.0D
	STRING // "hello" or 'hello'
	SYSVAR // !PI, !DTOR, ...

	// Operators
	ASSIGN          // =
	PLUS            // +
	MINUS           // -
	ASTERISK        // *
	SLASH           // /
	MOD             // MOD
	CARET           // ^
	HASH            // # (matrix multiply)
	PLUS_ASSIGN     // +=
	MINUS_ASSIGN    // -=
	ASTERISK_ASSIGN // *=
	SLASH_ASSIGN    // /=

	// Comparison (word operators)
	EQ // EQ
	NE // NE
	LT // LT
	GT // GT
	LE // LE
	GE // GE

	// Logical / bitwise (word operators)
	AND // AND
	OR  // OR
	NOT // NOT
	XOR // XOR

	QUESTION // ? (ternary)

	// Delimiters
	COMMA     // ,
	SEMICOLON // ; (matrix row separator inside [...])
	COLON     // :
	DOT       // .
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	LBRACE    // {
	RBRACE    // }

	// Keywords
	IF
	THEN
	ELSE
	ENDIF
	FOR
	ENDFOR
	FOREACH
	ENDFOREACH
	WHILE
	ENDWHILE
	DO
	REPEAT
	UNTIL
	ENDREP
	BREAK
	CONTINUE
	GOTO
	PRO
	ENDPRO
	FUNCTION
	ENDFUNCTION
	RETURN
	BEGIN
	END
	CASE
	OF
	ENDCASE
	SWITCH
	ENDSWITCH
	COMMON
	COMPILE_OPT
)

// Token represents a single token
type Token struct {
	Type        TokenType
	Literal     string
	Line        int
	Column      int
	SpaceBefore bool   // whitespace separated this token from the previous one
	Code        string // diagnostic code for ILLEGAL tokens (LEX-0001 ...)
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case NEWLINE:
		return "NEWLINE"
	case IDENT:
		return "IDENT"
	case INT:
		return "INT"
	case FLOAT:
		return "FLOAT"
	case DOUBLE:
		return "DOUBLE"
	case STRING:
		return "STRING"
	case SYSVAR:
		return "SYSVAR"
	case ASSIGN:
		return "ASSIGN"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case ASTERISK:
		return "ASTERISK"
	case SLASH:
		return "SLASH"
	case MOD:
		return "MOD"
	case CARET:
		return "CARET"
	case HASH:
		return "HASH"
	case PLUS_ASSIGN:
		return "PLUS_ASSIGN"
	case MINUS_ASSIGN:
		return "MINUS_ASSIGN"
	case ASTERISK_ASSIGN:
		return "ASTERISK_ASSIGN"
	case SLASH_ASSIGN:
		return "SLASH_ASSIGN"
	case EQ:
		return "EQ"
	case NE:
		return "NE"
	case LT:
		return "LT"
	case GT:
		return "GT"
	case LE:
		return "LE"
	case GE:
		return "GE"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case NOT:
		return "NOT"
	case XOR:
		return "XOR"
	case QUESTION:
		return "QUESTION"
	case COMMA:
		return "COMMA"
	case SEMICOLON:
		return "SEMICOLON"
	case COLON:
		return "COLON"
	case DOT:
		return "DOT"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACKET:
		return "LBRACKET"
	case RBRACKET:
		return "RBRACKET"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case IF:
		return "IF"
	case THEN:
		return "THEN"
	case ELSE:
		return "ELSE"
	case ENDIF:
		return "ENDIF"
	case FOR:
		return "FOR"
	case ENDFOR:
		return "ENDFOR"
	case FOREACH:
		return "FOREACH"
	case ENDFOREACH:
		return "ENDFOREACH"
	case WHILE:
		return "WHILE"
	case ENDWHILE:
		return "ENDWHILE"
	case DO:
		return "DO"
	case REPEAT:
		return "REPEAT"
	case UNTIL:
		return "UNTIL"
	case ENDREP:
		return "ENDREP"
	case BREAK:
		return "BREAK"
	case CONTINUE:
		return "CONTINUE"
	case GOTO:
		return "GOTO"
	case PRO:
		return "PRO"
	case ENDPRO:
		return "ENDPRO"
	case FUNCTION:
		return "FUNCTION"
	case ENDFUNCTION:
		return "ENDFUNCTION"
	case RETURN:
		return "RETURN"
	case BEGIN:
		return "BEGIN"
	case END:
		return "END"
	case CASE:
		return "CASE"
	case OF:
		return "OF"
	case ENDCASE:
		return "ENDCASE"
	case SWITCH:
		return "SWITCH"
	case ENDSWITCH:
		return "ENDSWITCH"
	case COMMON:
		return "COMMON"
	case COMPILE_OPT:
		return "COMPILE_OPT"
	default:
		return "UNKNOWN"
	}
}

// keywords maps upper-cased identifiers to keyword/operator token types.
// XDL is case-insensitive, so lookup always goes through strings.ToUpper,
// while the token Literal preserves the source spelling.
var keywords = map[string]TokenType{
	"IF":          IF,
	"THEN":        THEN,
	"ELSE":        ELSE,
	"ENDIF":       ENDIF,
	"FOR":         FOR,
	"ENDFOR":      ENDFOR,
	"FOREACH":     FOREACH,
	"ENDFOREACH":  ENDFOREACH,
	"WHILE":       WHILE,
	"ENDWHILE":    ENDWHILE,
	"DO":          DO,
	"REPEAT":      REPEAT,
	"UNTIL":       UNTIL,
	"ENDREP":      ENDREP,
	"BREAK":       BREAK,
	"CONTINUE":    CONTINUE,
	"GOTO":        GOTO,
	"PRO":         PRO,
	"PROCEDURE":   PRO,
	"ENDPRO":      ENDPRO,
	"FUNCTION":    FUNCTION,
	"ENDFUNCTION": ENDFUNCTION,
	"RETURN":      RETURN,
	"BEGIN":       BEGIN,
	"END":         END,
	"CASE":        CASE,
	"OF":          OF,
	"ENDCASE":     ENDCASE,
	"SWITCH":      SWITCH,
	"ENDSWITCH":   ENDSWITCH,
	"COMMON":      COMMON,
	"COMPILE_OPT": COMPILE_OPT,

	// Word-form operators
	"MOD": MOD,
	"EQ":  EQ,
	"NE":  NE,
	"LT":  LT,
	"GT":  GT,
	"LE":  LE,
	"GE":  GE,
	"AND": AND,
	"OR":  OR,
	"NOT": NOT,
	"XOR": XOR,
}

// LookupIdent checks if an identifier is a keyword or word operator
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return IDENT
}

// Lexer represents the lexical analyzer
type Lexer struct {
	filename     string
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number
	bracketDepth int  // nesting depth of [ ] (for ';' row separators)
	spaceBefore  bool // whitespace seen since the previous token
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return NewWithFilename(input, "<input>")
}

// NewWithFilename creates a new lexer instance with a specific filename
func NewWithFilename(input string, filename string) *Lexer {
	l := &Lexer{
		filename: filename,
		input:    input,
		line:     1,
		column:   0,
	}
	l.readChar()
	return l
}

// Filename returns the name of the source being lexed
func (l *Lexer) Filename() string {
	return l.filename
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL represents EOF
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

// peekChar returns the next character without advancing
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken scans and returns the next token
func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipBlanks()

	line := l.line
	column := l.column
	space := l.spaceBefore
	l.spaceBefore = false

	switch l.ch {
	case '=':
		tok = newToken(ASSIGN, l.ch, line, column)
	case '+':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: PLUS_ASSIGN, Literal: "+=", Line: line, Column: column}
		} else {
			tok = newToken(PLUS, l.ch, line, column)
		}
	case '-':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: MINUS_ASSIGN, Literal: "-=", Line: line, Column: column}
		} else {
			tok = newToken(MINUS, l.ch, line, column)
		}
	case '*':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: ASTERISK_ASSIGN, Literal: "*=", Line: line, Column: column}
		} else {
			tok = newToken(ASTERISK, l.ch, line, column)
		}
	case '/':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: SLASH_ASSIGN, Literal: "/=", Line: line, Column: column}
		} else {
			tok = newToken(SLASH, l.ch, line, column)
		}
	case '^':
		tok = newToken(CARET, l.ch, line, column)
	case '#':
		tok = newToken(HASH, l.ch, line, column)
	case '?':
		tok = newToken(QUESTION, l.ch, line, column)
	case ',':
		tok = newToken(COMMA, l.ch, line, column)
	case ';':
		if l.bracketDepth > 0 {
			// Row separator inside a matrix literal
			tok = newToken(SEMICOLON, l.ch, line, column)
		} else {
			// Comment: skip to end of line, the '\n' still yields NEWLINE
			l.skipComment()
			return l.NextToken()
		}
	case ':':
		tok = newToken(COLON, l.ch, line, column)
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumberToken(line, column, space)
		}
		tok = newToken(DOT, l.ch, line, column)
	case '(':
		tok = newToken(LPAREN, l.ch, line, column)
	case ')':
		tok = newToken(RPAREN, l.ch, line, column)
	case '[':
		l.bracketDepth++
		tok = newToken(LBRACKET, l.ch, line, column)
	case ']':
		if l.bracketDepth > 0 {
			l.bracketDepth--
		}
		tok = newToken(RBRACKET, l.ch, line, column)
	case '{':
		tok = newToken(LBRACE, l.ch, line, column)
	case '}':
		tok = newToken(RBRACE, l.ch, line, column)
	case '&':
		// Statement separator, treated like a newline
		tok = Token{Type: NEWLINE, Literal: "&", Line: line, Column: column}
	case '\n':
		tok = Token{Type: NEWLINE, Literal: "\\n", Line: line, Column: column}
	case '$':
		// Line continuation: swallow through the newline and keep lexing
		if ok := l.skipContinuation(); !ok {
			tok = Token{Type: ILLEGAL, Literal: "$", Line: line, Column: column, Code: "LEX-0003"}
			l.readChar()
			tok.SpaceBefore = space
			return tok
		}
		l.spaceBefore = true
		return l.NextToken()
	case '"', '\'':
		literal, ok := l.readString(l.ch)
		tok = Token{Type: STRING, Literal: literal, Line: line, Column: column}
		if !ok {
			tok.Type = ILLEGAL
			tok.Code = "LEX-0001"
		}
		tok.SpaceBefore = space
		return tok
	case '!':
		if isLetter(l.peekChar()) {
			l.readChar()
			name := l.readIdentifier()
			tok = Token{Type: SYSVAR, Literal: name, Line: line, Column: column, SpaceBefore: space}
			return tok
		}
		tok = Token{Type: ILLEGAL, Literal: "!", Line: line, Column: column, Code: "LEX-0003"}
	case 0:
		tok.Type = EOF
		tok.Literal = ""
		tok.Line = line
		tok.Column = column
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			tok = Token{Type: LookupIdent(ident), Literal: ident, Line: line, Column: column, SpaceBefore: space}
			return tok
		}
		if isDigit(l.ch) {
			return l.readNumberToken(line, column, space)
		}
		tok = Token{Type: ILLEGAL, Literal: string(l.ch), Line: line, Column: column, Code: "LEX-0003"}
	}

	l.readChar()
	tok.SpaceBefore = space
	return tok
}

func newToken(tokenType TokenType, ch byte, line, column int) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: line, Column: column}
}

// skipBlanks consumes spaces, tabs and carriage returns ('\n' is a token)
func (l *Lexer) skipBlanks() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.spaceBefore = true
		l.readChar()
	}
}

// skipComment consumes a ';' comment up to (not including) the newline
func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// skipContinuation consumes a '$' line continuation: optional trailing
// blanks and comment, then the newline itself. Reports false when the '$'
// is followed by anything else.
func (l *Lexer) skipContinuation() bool {
	l.readChar() // consume '$'
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
	if l.ch == ';' {
		l.skipComment()
	}
	if l.ch == 0 {
		return true
	}
	if l.ch != '\n' {
		return false
	}
	l.readChar() // consume '\n'
	return true
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads a quoted string. The closing quote may be escaped by
// doubling it ("" or ''), the usual IDL convention.
func (l *Lexer) readString(quote byte) (string, bool) {
	var sb strings.Builder
	for {
		l.readChar()
		if l.ch == quote {
			if l.peekChar() == quote {
				sb.WriteByte(quote)
				l.readChar()
				continue
			}
			l.readChar() // consume closing quote
			return sb.String(), true
		}
		if l.ch == 0 || l.ch == '\n' {
			return sb.String(), false
		}
		sb.WriteByte(l.ch)
	}
}

// readNumberToken reads a numeric literal: integers with B/S/L suffixes,
// floats with '.' and/or e-exponents, doubles with d-exponents or a D
// suffix. Malformed literals come back as ILLEGAL with LEX-0002.
func (l *Lexer) readNumberToken(line, column int, space bool) Token {
	position := l.position
	kind := INT
	valid := true

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && !isLetter(l.peekChar()) {
		// A '.' followed by a letter is struct-field access on a number
		// variable, which cannot happen; but '5.' and '5.25' are floats.
		kind = FLOAT
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if l.ch == 'e' || l.ch == 'E' || l.ch == 'd' || l.ch == 'D' {
		exp := l.ch
		// D suffix without exponent digits is legal: 2.0D
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
			if !isDigit(l.ch) {
				valid = false
			}
		}
		hasDigits := isDigit(l.ch)
		for isDigit(l.ch) {
			l.readChar()
		}
		if exp == 'd' || exp == 'D' {
			kind = DOUBLE
		} else {
			kind = FLOAT
			if !hasDigits {
				valid = false
			}
		}
	} else if kind == INT {
		switch l.ch {
		case 'b', 'B', 's', 'S', 'l', 'L':
			l.readChar()
			if l.ch == 'l' || l.ch == 'L' {
				l.readChar() // LL reads as long
			}
		}
	}

	// Trailing identifier characters or a second decimal point make the
	// whole literal invalid rather than two adjacent tokens.
	for isLetter(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) || isDigit(l.ch) {
		valid = false
		l.readChar()
	}

	literal := l.input[position:l.position]
	tok := Token{Type: kind, Literal: literal, Line: line, Column: column, SpaceBefore: space}
	if !valid {
		tok.Type = ILLEGAL
		tok.Code = "LEX-0002"
	}
	return tok
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
