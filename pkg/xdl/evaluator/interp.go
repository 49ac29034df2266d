package evaluator

import (
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xdl-lang/xdl/pkg/xdl/ast"
)

// DefaultMaxDepth bounds user procedure/function recursion
const DefaultMaxDepth = 500

// DefaultMaxElements bounds the size of arrays built by the array
// constructor routines
const DefaultMaxElements = 10_000_000

// Interp is one interpreter instance: compiled procedures and
// functions, native routines, the pointer heap, system variables and
// the output logger. A single Interp runs one script at a time; Cancel
// may be called from another goroutine.
type Interp struct {
	mu sync.Mutex // serializes Run

	procedures map[string]*ast.ProcedureDecl
	functions  map[string]*ast.FunctionDecl
	commons    map[string]*Environment
	sysvars    map[string]Object
	registry   *Registry
	heap       *Heap
	logger     Logger

	cancelled   atomic.Bool
	exited      atomic.Bool
	depth       int
	maxDepth    int
	maxElements int
}

// Option configures an Interp
type Option func(*Interp)

// WithLogger routes PRINT output to the given logger
func WithLogger(l Logger) Option {
	return func(i *Interp) { i.logger = l }
}

// WithMaxDepth overrides the recursion limit
func WithMaxDepth(n int) Option {
	return func(i *Interp) {
		if n > 0 {
			i.maxDepth = n
		}
	}
}

// WithMaxElements overrides the array allocation limit
func WithMaxElements(n int) Option {
	return func(i *Interp) {
		if n > 0 {
			i.maxElements = n
		}
	}
}

// NewInterp creates an interpreter with an empty registry
func NewInterp(opts ...Option) *Interp {
	i := &Interp{
		procedures:  make(map[string]*ast.ProcedureDecl),
		functions:   make(map[string]*ast.FunctionDecl),
		commons:     make(map[string]*Environment),
		registry:    NewRegistry(),
		heap:        NewHeap(),
		logger:      DefaultLogger,
		maxDepth:    DefaultMaxDepth,
		maxElements: DefaultMaxElements,
	}
	i.sysvars = defaultSystemVariables()
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Registry returns the native routine registry
func (i *Interp) Registry() *Registry { return i.registry }

// Heap returns the pointer heap
func (i *Interp) Heap() *Heap { return i.heap }

// Logger returns the output logger
func (i *Interp) Logger() Logger { return i.logger }

// MaxElements returns the array allocation limit
func (i *Interp) MaxElements() int { return i.maxElements }

// SetLogger replaces the output logger
func (i *Interp) SetLogger(l Logger) { i.logger = l }

// NewEnvironment creates a top-level environment bound to this interpreter
func (i *Interp) NewEnvironment() *Environment {
	return NewEnvironment(i)
}

// Cancel asks the running script to stop at the next statement or
// loop iteration. Safe to call from any goroutine.
func (i *Interp) Cancel() {
	i.cancelled.Store(true)
}

// RequestExit marks a clean EXIT: the run stops like a cancellation
// but the host should not report an error
func (i *Interp) RequestExit() {
	i.exited.Store(true)
	i.cancelled.Store(true)
}

// ExitRequested reports whether the script asked to exit
func (i *Interp) ExitRequested() bool {
	return i.exited.Load()
}

// Run evaluates a parsed program in the given environment. Runs are
// serialized; the cancel flag is cleared on entry.
func (i *Interp) Run(program *ast.Program, env *Environment) Object {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cancelled.Store(false)
	i.exited.Store(false)
	i.depth = 0
	return Eval(program, env)
}

// Procedure returns a user procedure by case-insensitive name
func (i *Interp) Procedure(name string) (*ast.ProcedureDecl, bool) {
	p, ok := i.procedures[strings.ToUpper(name)]
	return p, ok
}

// Function returns a user function by case-insensitive name
func (i *Interp) Function(name string) (*ast.FunctionDecl, bool) {
	f, ok := i.functions[strings.ToUpper(name)]
	return f, ok
}

func (i *Interp) defineProcedure(decl *ast.ProcedureDecl) {
	i.procedures[strings.ToUpper(decl.Name)] = decl
}

func (i *Interp) defineFunction(decl *ast.FunctionDecl) {
	i.functions[strings.ToUpper(decl.Name)] = decl
}

// commonBlock returns the shared environment of a COMMON block,
// creating it on first use
func (i *Interp) commonBlock(name string) *Environment {
	key := strings.ToUpper(name)
	if env, ok := i.commons[key]; ok {
		return env
	}
	env := NewEnvironment(i)
	i.commons[key] = env
	return env
}

// SystemVariable returns a system variable by name (without the '!')
func (i *Interp) SystemVariable(name string) (Object, bool) {
	v, ok := i.sysvars[strings.ToUpper(name)]
	return v, ok
}

// SetSystemVariable defines or updates a system variable. The built-in
// constants are not writable.
func (i *Interp) SetSystemVariable(name string, val Object) bool {
	key := strings.ToUpper(name)
	if readOnlySysvars[key] {
		return false
	}
	i.sysvars[key] = val
	return true
}

var readOnlySysvars = map[string]bool{
	"PI":     true,
	"DPI":    true,
	"DTOR":   true,
	"RADEG":  true,
	"VALUES": true,
}

func defaultSystemVariables() map[string]Object {
	values := &Struct{
		Names: []string{"F_INFINITY", "F_NAN", "D_INFINITY", "D_NAN"},
		Fields: map[string]Object{
			"F_INFINITY": &Float{Value: float32(math.Inf(1))},
			"F_NAN":      &Float{Value: float32(math.NaN())},
			"D_INFINITY": &Double{Value: math.Inf(1)},
			"D_NAN":      &Double{Value: math.NaN()},
		},
	}
	return map[string]Object{
		"PI":     &Float{Value: float32(math.Pi)},
		"DPI":    &Double{Value: math.Pi},
		"DTOR":   &Float{Value: float32(math.Pi / 180)},
		"RADEG":  &Float{Value: float32(180 / math.Pi)},
		"VALUES": values,
		"NULL":   UNDEFINED,
	}
}
