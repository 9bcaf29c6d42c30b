// Package interp executes the IR produced by code generation.  It is used to
// evaluate filter init blocks at compile time, to run filters from the command
// line and to check the behaviour of generated code in tests.
package interp

import (
	"errors"
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// ErrStepLimit is returned when execution runs for more steps than allowed.
var ErrStepLimit = errors.New("step limit exceeded")

// DefaultStepLimit is the step limit of a new machine.
const DefaultStepLimit = 1 << 22

// ExternFunc is a Go implementation of a function that is only declared in the
// module.
type ExternFunc func(args []Value) (Value, error)

// Machine executes functions of a single module.  Globals keep their state
// across calls.  A machine is not safe for concurrent use.
type Machine struct {
	mod *ir.Module

	globals map[*ir.Global]*object
	externs map[string]ExternFunc

	// StepLimit is the maximum number of instructions and terminators executed
	// over the lifetime of the machine.  Zero means no limit.
	StepLimit int
	steps     int
}

// NewMachine creates a machine for mod.
func NewMachine(mod *ir.Module) *Machine {
	return &Machine{
		mod:       mod,
		globals:   make(map[*ir.Global]*object),
		externs:   make(map[string]ExternFunc),
		StepLimit: DefaultStepLimit,
	}
}

// Bind provides the implementation of the declared function named name.
func (m *Machine) Bind(name string, fn ExternFunc) {
	m.externs[name] = fn
}

// Steps returns the number of steps executed so far.
func (m *Machine) Steps() int {
	return m.steps
}

// Lookup returns the function named name in the module or nil.
func (m *Machine) Lookup(name string) *ir.Func {
	for _, fn := range m.mod.Funcs {
		if fn.Name() == name {
			return fn
		}
	}

	return nil
}

// Call executes fn with the given arguments and returns its result.  Void
// functions return a value of KindVoid.
func (m *Machine) Call(fn *ir.Func, args ...Value) (Value, error) {
	if len(args) != len(fn.Params) {
		return Value{}, fmt.Errorf("call to @%s with %d arguments, expected %d", fn.Name(), len(args), len(fn.Params))
	}

	if len(fn.Blocks) == 0 {
		ext, ok := m.externs[fn.Name()]
		if !ok {
			return Value{}, fmt.Errorf("call to unbound external function @%s", fn.Name())
		}

		return ext(args)
	}

	fr := &frame{m: m, fn: fn, locals: make(map[value.Value]Value)}
	for i, param := range fn.Params {
		fr.locals[param] = args[i]
	}

	v, err := fr.run()
	if err != nil {
		return Value{}, fmt.Errorf("in @%s: %w", fn.Name(), err)
	}

	return v, nil
}

// CallByName executes the function named name.
func (m *Machine) CallByName(name string, args ...Value) (Value, error) {
	fn := m.Lookup(name)
	if fn == nil {
		return Value{}, fmt.Errorf("no function named @%s", name)
	}

	return m.Call(fn, args...)
}

// Global returns the current contents of a global.
func (m *Machine) Global(g *ir.Global) (Value, error) {
	obj, err := m.globalObject(g)
	if err != nil {
		return Value{}, err
	}

	return readCells(obj.cells, g.ContentType), nil
}

// globalObject returns the storage of a global, creating it from the global's
// initializer on first use.
func (m *Machine) globalObject(g *ir.Global) (*object, error) {
	if obj, ok := m.globals[g]; ok {
		return obj, nil
	}

	obj := newObject(g.ContentType)
	if g.Init != nil {
		init, err := ConstValue(g.Init)
		if err != nil {
			return nil, fmt.Errorf("initializer of @%s: %w", g.Name(), err)
		}

		writeCells(obj.cells, init, g.ContentType)
	}

	m.globals[g] = obj
	return obj, nil
}

func (m *Machine) step() error {
	m.steps++
	if m.StepLimit > 0 && m.steps > m.StepLimit {
		return ErrStepLimit
	}

	return nil
}
