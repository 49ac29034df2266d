// Package errors provides structured error types for the XDL language.
//
// This package defines XdlError, a unified error type that can represent
// lexer, parser and runtime errors with rich metadata for display and
// programmatic handling.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassLex        ErrorClass = "lex"        // Lexical errors
	ClassParse      ErrorClass = "parse"      // Parser/syntax errors
	ClassType       ErrorClass = "type"       // Type mismatches
	ClassArgument   ErrorClass = "argument"   // Wrong argument count / keywords
	ClassUndefined  ErrorClass = "undefined"  // Not found/defined
	ClassIndex      ErrorClass = "index"      // Out of bounds
	ClassArithmetic ErrorClass = "arithmetic" // Division by zero etc.
	ClassLabel      ErrorClass = "label"      // GOTO label resolution
	ClassState      ErrorClass = "state"      // Recursion limit, cancellation
)

// XdlError represents any error from lexing, parsing or evaluation.
type XdlError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "TYPE-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`  // File path (if known)
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *XdlError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *XdlError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *XdlError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassLex, ClassParse:
		sb.WriteString("Syntax error")
	default:
		sb.WriteString("Runtime error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Use: ")
		} else {
			sb.WriteString(" or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *XdlError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *XdlError) WithFile(file string) *XdlError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *XdlError) WithPosition(line, column int) *XdlError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsSyntaxError returns true if this is a lexer or parser error.
func (e *XdlError) IsSyntaxError() bool {
	return e.Class == ClassLex || e.Class == ClassParse
}

// IsRuntimeError returns true if this is an evaluation error.
func (e *XdlError) IsRuntimeError() bool {
	return !e.IsSyntaxError()
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Lexical errors (LEX-0xxx)
	// ========================================
	"LEX-0001": {
		Class:    ClassLex,
		Template: "unterminated string literal",
	},
	"LEX-0002": {
		Class:    ClassLex,
		Template: "invalid numeric literal: '{{.Literal}}'",
	},
	"LEX-0003": {
		Class:    ClassLex,
		Template: "unexpected character '{{.Char}}'",
	},

	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unclosed {{.Kind}} block opened at line {{.OpenLine}}",
		Hints:    []string{"close it with END or {{.Closer}}"},
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "'{{.Got}}' cannot close {{.Kind}} block opened at line {{.OpenLine}}",
		Hints:    []string{"use END or {{.Closer}}"},
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "invalid literal: '{{.Literal}}'",
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "no prefix parse rule for '{{.Token}}'",
	},

	// ========================================
	// Type errors (TYPE-0xxx)
	// ========================================
	"TYPE-0001": {
		Class:    ClassType,
		Template: "type mismatch: {{.Operator}} not supported for {{.Left}} and {{.Right}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "shape mismatch: cannot assign {{.Got}} elements into a slice of {{.Want}}",
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "operand must be {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0004": {
		Class:    ClassType,
		Template: "array operands differ in length: {{.Left}} vs {{.Right}}",
	},
	"TYPE-0005": {
		Class:    ClassType,
		Template: "non-rectangular nested array cannot be used in arithmetic",
	},
	"TYPE-0006": {
		Class:    ClassType,
		Template: "cannot index {{.Got}}",
	},
	"TYPE-0007": {
		Class:    ClassType,
		Template: "structure {{.Struct}} has no field '{{.Field}}'",
	},

	// ========================================
	// Argument errors (ARG-0xxx)
	// ========================================
	"ARG-0001": {
		Class:    ClassArgument,
		Template: "{{.Callee}} accepts at most {{.Want}} argument(s), got {{.Got}}",
	},
	"ARG-0002": {
		Class:    ClassArgument,
		Template: "keyword {{.Keyword}} not accepted by {{.Callee}}",
	},
	"ARG-0003": {
		Class:    ClassArgument,
		Template: "function {{.Callee}} did not return a value",
		Hints:    []string{"add RETURN, value before END"},
	},

	// ========================================
	// Undefined errors (UNDEF-0xxx)
	// ========================================
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "undefined variable: {{.Name}}",
	},
	"UNDEF-0002": {
		Class:    ClassUndefined,
		Template: "undefined procedure or function: {{.Name}}",
	},
	"UNDEF-0003": {
		Class:    ClassUndefined,
		Template: "undefined system variable: !{{.Name}}",
	},

	// ========================================
	// Index errors (INDEX-0xxx)
	// ========================================
	"INDEX-0001": {
		Class:    ClassIndex,
		Template: "index {{.Index}} out of bounds for dimension of size {{.Size}}",
	},
	"INDEX-0002": {
		Class:    ClassIndex,
		Template: "too many subscripts: array has {{.Dims}} dimension(s), got {{.Got}}",
	},

	// ========================================
	// Arithmetic errors (ARITH-0xxx)
	// ========================================
	"ARITH-0001": {
		Class:    ClassArithmetic,
		Template: "integer division by zero",
	},
	"ARITH-0002": {
		Class:    ClassArithmetic,
		Template: "zero step in FOR loop",
	},

	// ========================================
	// Label errors (LABEL-0xxx)
	// ========================================
	"LABEL-0001": {
		Class:    ClassLabel,
		Template: "label not found: {{.Label}}",
	},

	// ========================================
	// State errors (STATE-0xxx)
	// ========================================
	"STATE-0001": {
		Class:    ClassState,
		Template: "recursion limit of {{.Limit}} exceeded",
	},
	"STATE-0002": {
		Class:    ClassState,
		Template: "execution cancelled",
	},
}

// New creates an XdlError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *XdlError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &XdlError{
			Class:   ClassType,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &XdlError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates an XdlError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *XdlError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string) *XdlError {
	return &XdlError{
		Class:   class,
		Message: message,
	}
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}
	return buf.String()
}
