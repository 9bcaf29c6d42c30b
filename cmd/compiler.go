package cmd

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"streamc/ast"
	"streamc/astload"
	"streamc/cputarget"
	"streamc/generate"
	"streamc/hlstarget"
	"streamc/report"

	"github.com/llir/llvm/ir"
	"golang.org/x/sync/errgroup"
)

// errBuildFailed is returned for a program whose errors have already been
// reported.
var errBuildFailed = errors.New("build failed")

// Compiler represents the state of a single invocation of the build command.
// Each input file is a separate program and is built into its own module.
type Compiler struct {
	inputs  []string
	profile *BuildProfile
}

// NewCompiler creates a compiler for the given input paths.  A directory input
// contributes every interchange file it contains.
func NewCompiler(paths []string, profile *BuildProfile) (*Compiler, error) {
	c := &Compiler{profile: profile}

	for _, path := range paths {
		finfo, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !finfo.IsDir() {
			c.inputs = append(c.inputs, path)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(path, "*.toml"))
		if err != nil {
			return nil, err
		}

		sort.Strings(matches)
		for _, match := range matches {
			if filepath.Base(match) != ProfileFileName {
				c.inputs = append(c.inputs, match)
			}
		}
	}

	if len(c.inputs) == 0 {
		return nil, errors.New("no input files")
	}

	// every program is written to a file named after its input
	seen := make(map[string]string)
	for _, input := range c.inputs {
		name := outputName(input)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("inputs `%s` and `%s` would both be written to `%s`", prev, input, name)
		}

		seen[name] = input
	}

	return c, nil
}

// outputName returns the name of the file the module for input is written to.
func outputName(input string) string {
	return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".ll"
}

// Build builds every input concurrently.  It returns whether all of them built
// successfully.
func (c *Compiler) Build() bool {
	if err := os.MkdirAll(c.profile.OutputPath, os.ModePerm); err != nil {
		report.ReportFatal("failed to create output directory: %s", err)
	}

	var g errgroup.Group
	for _, input := range c.inputs {
		input := input
		g.Go(func() error {
			return c.buildFile(input)
		})
	}

	return g.Wait() == nil && !report.AnyErrors()
}

// buildFile builds and writes the module for one input.
func (c *Compiler) buildFile(input string) (err error) {
	ok := true
	defer func() {
		if !ok {
			err = errBuildFailed
		}
	}()
	defer report.CatchErrors(input, &ok)

	prog, err := astload.Load(input)
	if err != nil {
		report.ReportError("%s: %s", input, err)
		return errBuildFailed
	}

	mod, err := c.generate(prog)
	if err != nil {
		return errBuildFailed
	}

	if c.profile.Verify {
		if msgs := generate.Verify(mod); len(msgs) > 0 {
			for _, msg := range msgs {
				report.ReportError("%s: %s", input, msg)
			}

			return errBuildFailed
		}
	}

	outPath := filepath.Join(c.profile.OutputPath, outputName(input))
	if err := ioutil.WriteFile(outPath, []byte(mod.String()), 0644); err != nil {
		report.ReportError("failed to write module: %s", err)
		return errBuildFailed
	}

	report.ReportInfo("Generated", "%s -> %s", input, outPath)
	return nil
}

// generate builds the module for a program for the profile's target.
func (c *Compiler) generate(prog *ast.Program) (*ir.Module, error) {
	switch c.profile.Target {
	case TargetHLS:
		hp, err := hlstarget.BuildProgram(prog, report.Global())
		if err != nil {
			return nil, err
		}

		for _, filter := range hp.Filters {
			report.ReportInfo("Channels", "%s: %s", filter.Instance, describeUsage(filter.Usage))
		}

		return hp.Mod, nil
	default:
		cp, err := cputarget.BuildProgram(prog, report.Global())
		if err != nil {
			return nil, err
		}

		return cp.Mod, nil
	}
}

// describeUsage summarizes the channel usage of a hardware filter.
func describeUsage(usage hlstarget.ChannelUsage) string {
	peek := "no peeks"
	if usage.DynamicPeek {
		peek = fmt.Sprintf("%d peeks (dynamic offset)", usage.PeekSites)
	} else if usage.PeekSites > 0 {
		peek = fmt.Sprintf("%d peeks (max offset %d)", usage.PeekSites, usage.MaxPeek)
	}

	return fmt.Sprintf("%d pops, %s, %d pushes", usage.PopSites, peek, usage.PushSites)
}
