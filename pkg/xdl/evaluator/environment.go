package evaluator

import "strings"

// Environment holds variable bindings. Names are case-insensitive.
// Procedure and function bodies run in fresh environments with no
// outer scope; only the REPL and nested blocks share one.
type Environment struct {
	store   map[string]Object
	aliases map[string]*Environment // names bound into COMMON blocks
	outer   *Environment
	interp  *Interp
}

// NewEnvironment creates an environment attached to an interpreter
func NewEnvironment(interp *Interp) *Environment {
	return &Environment{
		store:   make(map[string]Object),
		aliases: make(map[string]*Environment),
		interp:  interp,
	}
}

// NewEnclosedEnvironment creates a child scope
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment(outer.interp)
	env.outer = outer
	return env
}

// Interp returns the interpreter this environment belongs to
func (e *Environment) Interp() *Interp { return e.interp }

// Get looks a variable up by case-insensitive name
func (e *Environment) Get(name string) (Object, bool) {
	key := strings.ToUpper(name)
	if common, ok := e.aliases[key]; ok {
		return common.Get(key)
	}
	obj, ok := e.store[key]
	if !ok && e.outer != nil {
		return e.outer.Get(key)
	}
	return obj, ok
}

// Set binds a variable in this scope
func (e *Environment) Set(name string, val Object) Object {
	key := strings.ToUpper(name)
	if common, ok := e.aliases[key]; ok {
		return common.Set(key, val)
	}
	e.store[key] = val
	return val
}

// Has reports whether the name is bound in this scope chain
func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Delete removes a binding from this scope
func (e *Environment) Delete(name string) {
	delete(e.store, strings.ToUpper(name))
}

// Names returns the variable names bound directly in this scope
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.store))
	for k := range e.store {
		names = append(names, k)
	}
	return names
}

// Alias routes reads and writes of name to a COMMON block environment
func (e *Environment) Alias(name string, common *Environment) {
	key := strings.ToUpper(name)
	e.aliases[key] = common
	if !common.Has(key) {
		common.Set(key, UNDEFINED)
	}
}
