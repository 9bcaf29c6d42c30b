package cmd

import (
	"errors"
	"fmt"
	"io"

	"streamc/ast"
	"streamc/cputarget"
	"streamc/generate"
	"streamc/hlstarget"
	"streamc/interp"
	"streamc/typing"

	"github.com/pelletier/go-toml"
)

// errInputExhausted is returned by the channel functions of a run when a
// filter reads past the end of its input.
var errInputExhausted = errors.New("input exhausted")

// Runner executes a single filter of a program on fixed input.  The filter is
// built for a target and its functions are interpreted.
type Runner struct {
	prog   *ast.Program
	filter *ast.FilterDecl
	target int

	// Iterations is the number of times the work function is run.  Zero means
	// run until the input is consumed; a filter without input then runs once.
	Iterations int
}

// NewRunner creates a runner for the filter named name.  An empty name selects
// the first filter of the program.
func NewRunner(prog *ast.Program, name string, target int) (*Runner, error) {
	for _, filter := range prog.Filters {
		if name == "" || filter.Name == name {
			return &Runner{prog: prog, filter: filter, target: target}, nil
		}
	}

	if name == "" {
		return nil, fmt.Errorf("program `%s` has no filters", prog.Name)
	}

	return nil, fmt.Errorf("program `%s` has no filter named `%s`", prog.Name, name)
}

// LoadInput reads the `values` array of a TOML input file.
func LoadInput(path string) ([]interface{}, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, err
	}

	values, ok := tree.Get("values").([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: expected an array named `values`", path)
	}

	return values, nil
}

// Run executes the filter on the given input values and writes each value it
// pushes to w, one per line.
func (r *Runner) Run(input []interface{}, w io.Writer) error {
	outType := generate.ConvType(r.filter.OutputType)

	queue := make([]interp.Value, len(input))
	for i, x := range input {
		v, err := inputValue(x, r.filter.InputType)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}

		queue[i] = v
	}

	var (
		m       *interp.Machine
		ff      *generate.FilterFuncs
		args    []interp.Value
		pending func() int
		pushed  func() []interp.Value
		err     error
	)

	switch r.target {
	case TargetHLS:
		var hp *hlstarget.Program
		if hp, err = hlstarget.BuildProgram(r.programOf(), discardSink{}); err != nil {
			return err
		}

		m, ff = interp.NewMachine(hp.Mod), hp.Filters[0].FilterFuncs

		in, out := interp.NewChannel(queue...), interp.NewChannel()
		if !typing.IsVoid(r.filter.InputType) {
			args = append(args, in)
		}

		if !typing.IsVoid(r.filter.OutputType) {
			args = append(args, out)
		}

		pending = func() int { return len(interp.ChannelContents(in)) }
		pushed = func() []interp.Value { return interp.ChannelContents(out) }
	default:
		var cp *cputarget.Program
		if cp, err = cputarget.BuildProgram(r.programOf(), discardSink{}); err != nil {
			return err
		}

		m, ff = interp.NewMachine(cp.Mod), cp.Filters[0]

		var outputs []interp.Value
		bindChannels(m, ff.Instance, &queue, &outputs)

		pending = func() int { return len(queue) }
		pushed = func() []interp.Value { return outputs }
	}

	if err := r.execute(m, ff, args, pending); err != nil {
		return err
	}

	for _, v := range pushed() {
		fmt.Fprintln(w, interp.Format(v, outType))
	}

	return nil
}

// programOf returns a program holding only the runner's filter.
func (r *Runner) programOf() *ast.Program {
	return &ast.Program{
		Name:      r.prog.Name,
		Filters:   []*ast.FilterDecl{r.filter},
		Functions: r.prog.Functions,
	}
}

// execute runs the prework function once and then the work function until
// the iteration count is reached or the input is consumed.
func (r *Runner) execute(m *interp.Machine, ff *generate.FilterFuncs, args []interp.Value, pending func() int) error {
	hasInput := !typing.IsVoid(r.filter.InputType)

	if ff.Prework != nil {
		if _, err := m.Call(ff.Prework, args...); err != nil {
			return err
		}
	}

	for i := 0; r.Iterations == 0 || i < r.Iterations; i++ {
		if hasInput && pending() == 0 {
			if r.Iterations != 0 {
				return fmt.Errorf("input exhausted after %d iterations", i)
			}

			break
		}

		if _, err := m.Call(ff.Work, args...); err != nil {
			return err
		}

		if !hasInput && r.Iterations == 0 {
			break
		}
	}

	return nil
}

// bindChannels provides the runtime channel functions of a filter instance
// built for the software target.
func bindChannels(m *interp.Machine, instance string, queue, outputs *[]interp.Value) {
	m.Bind(instance+"_pop", func([]interp.Value) (interp.Value, error) {
		if len(*queue) == 0 {
			return interp.Value{}, errInputExhausted
		}

		v := (*queue)[0]
		*queue = (*queue)[1:]
		return v, nil
	})

	m.Bind(instance+"_peek", func(args []interp.Value) (interp.Value, error) {
		ndx := args[0].Int
		if ndx < 0 || ndx >= int64(len(*queue)) {
			return interp.Value{}, fmt.Errorf("peek at %d: %w", ndx, errInputExhausted)
		}

		return (*queue)[ndx], nil
	})

	m.Bind(instance+"_push", func(args []interp.Value) (interp.Value, error) {
		*outputs = append(*outputs, args[0])
		return interp.Value{}, nil
	})
}

// inputValue converts a TOML value to a channel element of type dt.
func inputValue(x interface{}, dt typing.DataType) (interp.Value, error) {
	switch {
	case typing.IsBoolean(dt):
		if b, ok := x.(bool); ok {
			return interp.BoolValue(b), nil
		}
	case typing.IsInt(dt):
		if n, ok := x.(int64); ok {
			bits := uint64(typing.BitWidth(dt))
			return interp.IntValue(n, bits), nil
		}
	case typing.IsFloat(dt):
		switch v := x.(type) {
		case float64:
			return interp.FloatValue(v), nil
		case int64:
			return interp.FloatValue(float64(v)), nil
		}
	case typing.IsVoid(dt):
		return interp.Value{}, errors.New("filter takes no input")
	}

	return interp.Value{}, fmt.Errorf("cannot use %v as a value of type `%s`", x, dt.Repr())
}

// discardSink drops environment errors: the runner returns them instead.
type discardSink struct{}

func (discardSink) ReportError(string, ...interface{}) {}
