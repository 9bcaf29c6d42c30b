package typing

import (
	"fmt"
	"strconv"
	"strings"
)

// primNames maps the names of the primitive types to their values.
var primNames = map[string]PrimType{
	"void":  PrimVoid,
	"bool":  PrimBool,
	"bit":   PrimBit,
	"int":   PrimInt,
	"float": PrimFloat,
}

// Parse converts a type string produced by Repr back into a data type.  It only
// accepts value types: function signatures are never written as strings.
func Parse(s string) (DataType, error) {
	s = strings.TrimSpace(s)

	// split off the array dimensions
	base := s
	var dims []int
	if ndx := strings.IndexByte(s, '['); ndx >= 0 {
		base = s[:ndx]

		rest := s[ndx:]
		for len(rest) > 0 {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return nil, fmt.Errorf("malformed array dimensions in type `%s`", s)
			}

			n, err := strconv.Atoi(rest[1:end])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid array length in type `%s`", s)
			}

			dims = append(dims, n)
			rest = rest[end+1:]
		}
	}

	var dt DataType
	if pt, ok := primNames[base]; ok {
		dt = pt
	} else if strings.HasPrefix(base, "apint<") && strings.HasSuffix(base, ">") {
		bits, err := strconv.Atoi(base[len("apint<") : len(base)-1])
		if err != nil || bits <= 0 {
			return nil, fmt.Errorf("invalid bit width in type `%s`", s)
		}

		dt = &APIntType{Bits: bits}
	} else {
		return nil, fmt.Errorf("unknown type `%s`", s)
	}

	if len(dims) > 0 && IsVoid(dt) {
		return nil, fmt.Errorf("cannot have an array of void: `%s`", s)
	}

	// the innermost dimension is written last
	for i := len(dims) - 1; i >= 0; i-- {
		dt = &ArrayType{ElemType: dt, Len: dims[i]}
	}

	return dt, nil
}
