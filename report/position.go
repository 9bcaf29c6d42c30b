package report

import "fmt"

// TextPosition represents a positional range in the source text.  Lines and
// columns are zero-indexed; the end column is one past the last character.
type TextPosition struct {
	StartLn, StartCol int
	EndLn, EndCol     int
}

func (tp *TextPosition) String() string {
	if tp == nil {
		return "<unknown>"
	}

	return fmt.Sprintf("%d:%d", tp.StartLn+1, tp.StartCol+1)
}
