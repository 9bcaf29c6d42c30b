package cmd

import (
	"bytes"
	"errors"
	"testing"

	"streamc/astload"
)

const peekProgram = `
name = "window"

# work { push(peek(1) + 0); pop(); }
[[node]]
id = 1
kind = "block"
body = [2, 3]

[[node]]
id = 2
kind = "push"
value = 4

[[node]]
id = 3
kind = "expr"
value = 5

[[node]]
id = 4
kind = "peek"
type = "int"
index = 6

[[node]]
id = 5
kind = "pop"
type = "int"

[[node]]
id = 6
kind = "int"
int = 1

[[filter]]
name = "window"
input = "int"
output = "int"
work = 1
`

func runFilter(t *testing.T, src string, target, iters int, input []interface{}) (string, error) {
	t.Helper()

	prog, err := astload.Parse([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	r, err := NewRunner(prog, "", target)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	r.Iterations = iters

	buff := &bytes.Buffer{}
	err = r.Run(input, buff)
	return buff.String(), err
}

func TestRunPeek(t *testing.T) {
	input := []interface{}{int64(5), int64(6), int64(7)}

	for _, target := range []int{TargetCPU, TargetHLS} {
		out, err := runFilter(t, peekProgram, target, 2, input)
		if err != nil {
			t.Fatalf("target %d: unexpected error: %s", target, err)
		}

		if out != "6\n7\n" {
			t.Errorf("target %d: expected pushes 6 and 7, got %q", target, out)
		}
	}
}

func TestRunPeekPastInput(t *testing.T) {
	_, err := runFilter(t, peekProgram, TargetCPU, 0, []interface{}{int64(1), int64(2)})
	if !errors.Is(err, errInputExhausted) {
		t.Errorf("expected input exhausted error, got %v", err)
	}
}

func TestRunBadInput(t *testing.T) {
	_, err := runFilter(t, peekProgram, TargetCPU, 0, []interface{}{"five"})
	if err == nil {
		t.Error("expected error for a string input")
	}
}

func TestNewRunnerMissingFilter(t *testing.T) {
	prog, err := astload.Parse([]byte(peekProgram))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if _, err := NewRunner(prog, "blur", TargetCPU); err == nil {
		t.Error("expected error for a missing filter")
	}
}
