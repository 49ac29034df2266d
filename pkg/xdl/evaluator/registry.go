package evaluator

import "strings"

// BuiltinFunc is the signature of native functions and procedures.
// Keyword arguments arrive upper-cased; a /FLAG is a LONG 1.
type BuiltinFunc func(i *Interp, args []Object, keywords map[string]Object) Object

// Builtin is one registered native routine
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

// Registry holds the native functions and procedures visible to
// scripts, looked up case-insensitively. Functions are called with
// parentheses, procedures as comma statements.
type Registry struct {
	functions  map[string]*Builtin
	procedures map[string]*Builtin
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		functions:  make(map[string]*Builtin),
		procedures: make(map[string]*Builtin),
	}
}

// RegisterFunction adds or replaces a native function
func (r *Registry) RegisterFunction(name string, fn BuiltinFunc) {
	key := strings.ToUpper(name)
	r.functions[key] = &Builtin{Name: key, Fn: fn}
}

// RegisterProcedure adds or replaces a native procedure
func (r *Registry) RegisterProcedure(name string, fn BuiltinFunc) {
	key := strings.ToUpper(name)
	r.procedures[key] = &Builtin{Name: key, Fn: fn}
}

// Function looks up a native function
func (r *Registry) Function(name string) (*Builtin, bool) {
	b, ok := r.functions[strings.ToUpper(name)]
	return b, ok
}

// Procedure looks up a native procedure
func (r *Registry) Procedure(name string) (*Builtin, bool) {
	b, ok := r.procedures[strings.ToUpper(name)]
	return b, ok
}
