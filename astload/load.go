// Package astload reads stream programs from the TOML interchange format
// produced by the front end.  The file holds flat tables of declarations,
// nodes and filters which refer to each other by id.  Load links them back into
// an `*ast.Program`.
package astload

import (
	"fmt"
	"io/ioutil"
	"os"

	"streamc/ast"
	"streamc/report"
	"streamc/typing"

	"github.com/pelletier/go-toml"
)

// Load reads and links the interchange file at path.
func Load(path string) (*ast.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buff, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return Parse(buff)
}

// Parse links a program from the contents of an interchange file.
func Parse(buff []byte) (*ast.Program, error) {
	tp := &tomlProgram{}
	if err := toml.Unmarshal(buff, tp); err != nil {
		return nil, err
	}

	if tp.Name == "" {
		return nil, fmt.Errorf("missing program name")
	}

	l := &loader{
		decls:    make(map[int]*tomlDecl),
		nodes:    make(map[int]*tomlNode),
		astDecls: make(map[int]ast.Decl),
		active:   make(map[int]bool),
	}

	if err := l.index(tp); err != nil {
		return nil, err
	}

	prog := &ast.Program{Name: tp.Name}

	// all declarations exist before any node refers to them
	for _, td := range tp.Decls {
		if err := l.declare(td); err != nil {
			return nil, err
		}
	}

	for _, td := range tp.Decls {
		if err := l.complete(td); err != nil {
			return nil, err
		}

		if fd, ok := l.astDecls[td.ID].(*ast.FuncDecl); ok {
			prog.Functions = append(prog.Functions, fd)
		}
	}

	for _, tf := range tp.Filters {
		filter, err := l.filter(tf)
		if err != nil {
			return nil, err
		}

		prog.Filters = append(prog.Filters, filter)
	}

	return prog, nil
}

// -----------------------------------------------------------------------------

// loader links the tables of a single interchange file.
type loader struct {
	decls map[int]*tomlDecl
	nodes map[int]*tomlNode

	// astDecls maps declaration ids to their linked declarations.
	astDecls map[int]ast.Decl

	// active is the set of nodes currently being linked.  It catches nodes
	// that contain themselves.
	active map[int]bool
}

// index builds the id tables and checks that ids are unique.
func (l *loader) index(tp *tomlProgram) error {
	for _, td := range tp.Decls {
		if td.ID <= 0 {
			return fmt.Errorf("declaration `%s` has invalid id %d", td.Name, td.ID)
		} else if _, ok := l.decls[td.ID]; ok {
			return fmt.Errorf("duplicate declaration id %d", td.ID)
		}

		l.decls[td.ID] = td
	}

	for _, tn := range tp.Nodes {
		if tn.ID <= 0 {
			return fmt.Errorf("%s node has invalid id %d", tn.Kind, tn.ID)
		} else if _, ok := l.nodes[tn.ID]; ok {
			return fmt.Errorf("duplicate node id %d", tn.ID)
		}

		l.nodes[tn.ID] = tn
	}

	return nil
}

// declare creates the declaration for td without linking any of the nodes it
// refers to.
func (l *loader) declare(td *tomlDecl) error {
	if td.Name == "" {
		return fmt.Errorf("declaration %d has no name", td.ID)
	}

	switch td.Kind {
	case "var":
		typ, err := parseType(td.Type)
		if err != nil {
			return fmt.Errorf("declaration `%s`: %w", td.Name, err)
		}

		l.astDecls[td.ID] = &ast.VarDecl{
			Name:     td.Name,
			Typ:      typ,
			Constant: td.Const,
			Pos:      position(td.Line, td.Col),
		}
	case "param":
		typ, err := parseType(td.Type)
		if err != nil {
			return fmt.Errorf("declaration `%s`: %w", td.Name, err)
		}

		l.astDecls[td.ID] = &ast.ParamDecl{
			Name: td.Name,
			Typ:  typ,
			Pos:  position(td.Line, td.Col),
		}
	case "func":
		l.astDecls[td.ID] = &ast.FuncDecl{
			Name:   td.Name,
			Symbol: td.Symbol,
			Pos:    position(td.Line, td.Col),
		}
	default:
		return fmt.Errorf("declaration `%s` has unknown kind `%s`", td.Name, td.Kind)
	}

	return nil
}

// complete links the initializer of a variable or the signature and body of a
// function.
func (l *loader) complete(td *tomlDecl) error {
	switch decl := l.astDecls[td.ID].(type) {
	case *ast.VarDecl:
		if td.Init != 0 {
			init, err := l.expr(td.Init)
			if err != nil {
				return err
			}

			decl.Init = init
		}
	case *ast.FuncDecl:
		sig := &typing.FuncType{ReturnType: typing.PrimVoid}
		if td.Returns != "" {
			rt, err := typing.Parse(td.Returns)
			if err != nil {
				return fmt.Errorf("function `%s`: %w", td.Name, err)
			}

			sig.ReturnType = rt
		}

		for _, id := range td.Params {
			pd, ok := l.astDecls[id].(*ast.ParamDecl)
			if !ok {
				return fmt.Errorf("function `%s`: declaration %d is not a parameter", td.Name, id)
			}

			decl.Params = append(decl.Params, pd)
			sig.Params = append(sig.Params, pd.Typ)
		}

		decl.Sig = sig

		if td.Body != 0 {
			body, err := l.block(td.Body)
			if err != nil {
				return err
			}

			decl.Body = body
		}
	}

	return nil
}

// filter links a single filter.
func (l *loader) filter(tf *tomlFilter) (*ast.FilterDecl, error) {
	if tf.Name == "" {
		return nil, fmt.Errorf("filter has no name")
	}

	filter := &ast.FilterDecl{Name: tf.Name, Stateless: tf.Stateless}

	var err error
	if filter.InputType, err = channelType(tf.Input); err != nil {
		return nil, fmt.Errorf("filter `%s`: %w", tf.Name, err)
	}

	if filter.OutputType, err = channelType(tf.Output); err != nil {
		return nil, fmt.Errorf("filter `%s`: %w", tf.Name, err)
	}

	if filter.Params, err = l.varDecls(tf.Name, tf.Params); err != nil {
		return nil, err
	}

	if filter.State, err = l.varDecls(tf.Name, tf.State); err != nil {
		return nil, err
	}

	if tf.Init != 0 {
		if filter.Init, err = l.block(tf.Init); err != nil {
			return nil, err
		}
	}

	if tf.Prework != 0 {
		if filter.Prework, err = l.block(tf.Prework); err != nil {
			return nil, err
		}
	}

	if tf.Work == 0 {
		return nil, fmt.Errorf("filter `%s` has no work block", tf.Name)
	} else if filter.Work, err = l.block(tf.Work); err != nil {
		return nil, err
	}

	return filter, nil
}

// varDecls looks up a list of variable declarations for a filter.
func (l *loader) varDecls(filter string, ids []int) ([]*ast.VarDecl, error) {
	vds := make([]*ast.VarDecl, len(ids))
	for i, id := range ids {
		vd, ok := l.astDecls[id].(*ast.VarDecl)
		if !ok {
			return nil, fmt.Errorf("filter `%s`: declaration %d is not a variable", filter, id)
		}

		vds[i] = vd
	}

	return vds, nil
}

// -----------------------------------------------------------------------------

// position converts a 1-based line and column to a text position.  A zero line
// means the position is unknown.
func position(line, col int) *report.TextPosition {
	if line <= 0 {
		return nil
	}

	if col <= 0 {
		col = 1
	}

	return &report.TextPosition{
		StartLn:  line - 1,
		StartCol: col - 1,
		EndLn:    line - 1,
		EndCol:   col,
	}
}

func parseType(s string) (typing.DataType, error) {
	if s == "" {
		return nil, fmt.Errorf("missing type")
	}

	return typing.Parse(s)
}

// channelType parses the element type of a channel.  Filters without a
// channel may leave it empty.
func channelType(s string) (typing.DataType, error) {
	if s == "" {
		return typing.PrimVoid, nil
	}

	return typing.Parse(s)
}
