package astload

// tomlProgram represents a whole program as it is encoded in TOML.  Every
// declaration and node carries a positive id that other entries refer to;
// an id of zero means "absent".
type tomlProgram struct {
	Name    string        `toml:"name"`
	Decls   []*tomlDecl   `toml:"decl"`
	Nodes   []*tomlNode   `toml:"node"`
	Filters []*tomlFilter `toml:"filter"`
}

// tomlDecl represents a variable, parameter or function declaration.
type tomlDecl struct {
	ID    int    `toml:"id"`
	Kind  string `toml:"kind"`
	Name  string `toml:"name"`
	Type  string `toml:"type"`
	Const bool   `toml:"const"`
	Init  int    `toml:"init"`

	// function fields
	Params  []int  `toml:"params"`
	Returns string `toml:"returns"`
	Symbol  string `toml:"symbol"`
	Body    int    `toml:"body"`

	Line int `toml:"line"`
	Col  int `toml:"col"`
}

// tomlNode represents a single expression or statement node.  Which fields are
// meaningful depends on the kind.
type tomlNode struct {
	ID   int    `toml:"id"`
	Kind string `toml:"kind"`
	Type string `toml:"type"`
	Op   string `toml:"op"`

	// literal values
	Int   int64   `toml:"int"`
	Float float64 `toml:"float"`
	Bool  bool    `toml:"bool"`

	Lhs     int `toml:"lhs"`
	Rhs     int `toml:"rhs"`
	Operand int `toml:"operand"`
	Index   int `toml:"index"`
	Array   int `toml:"array"`
	Src     int `toml:"src"`
	Cond    int `toml:"cond"`
	Then    int `toml:"then"`
	Else    int `toml:"else"`
	Init    int `toml:"init"`
	Post    int `toml:"post"`
	Value   int `toml:"value"`
	Decl    int `toml:"decl"`
	Func    int `toml:"func"`

	// Body is the statement list of a block or the single body statement of a
	// loop.
	Body  []int `toml:"body"`
	Args  []int `toml:"args"`
	Elems []int `toml:"elems"`

	Line int `toml:"line"`
	Col  int `toml:"col"`
}

// tomlFilter represents a filter as it is encoded in TOML.
type tomlFilter struct {
	Name      string `toml:"name"`
	Input     string `toml:"input"`
	Output    string `toml:"output"`
	Stateless bool   `toml:"stateless"`
	Params    []int  `toml:"params"`
	State     []int  `toml:"state"`
	Init      int    `toml:"init"`
	Prework   int    `toml:"prework"`
	Work      int    `toml:"work"`
}
